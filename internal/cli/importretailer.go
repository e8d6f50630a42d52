package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shelftrack/shelftrack/internal/apperrors"
	"github.com/shelftrack/shelftrack/internal/database/books"
	"github.com/shelftrack/shelftrack/internal/importers"
)

var importRetailerCmd = &cobra.Command{
	Use:   "import-retailer <file>",
	Short: "Import books from a retailer library export",
	Long: `Import-retailer reads a retailer "download your library" JSON file and
adds its items to the catalog. Books already in the catalog are skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read export: %w", err)
		}

		var records []importers.RetailerRecord
		if err := json.Unmarshal(data, &records); err != nil {
			return fmt.Errorf("parse export: %w", err)
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.close()

		repo := books.NewRepository(a.db)
		imported, skipped := 0, 0
		for _, record := range records {
			input := importers.ConvertRetailerRecord(record)
			_, err := repo.CreateBook(input)
			switch {
			case err == nil:
				imported++
			case apperrors.Is(err, apperrors.ErrAlreadyExists):
				skipped++
			default:
				a.log.Warn("skipped retailer item", "title", input.Title, "error", err)
				skipped++
			}
		}

		fmt.Printf("Imported %d books, skipped %d\n", imported, skipped)
		return nil
	},
}
