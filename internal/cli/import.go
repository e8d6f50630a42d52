package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shelftrack/shelftrack/internal/export"
)

var importClear bool

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a previously exported JSON document",
	Long: `Import merges the document into the current dataset. Entities that
already exist are skipped; anything else failing aborts the import.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read document: %w", err)
		}

		var doc export.Document
		if err := json.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parse document: %w", err)
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.close()

		summary, err := export.NewImporter(a.db).Import(&doc, importClear)
		if err != nil {
			return err
		}

		fmt.Printf("Imported: %d users, %d series, %d genres, %d books, %d collection entries, %d reading logs\n",
			summary.Users.Imported, summary.Series.Imported, summary.Genres.Imported,
			summary.Books.Imported, summary.UserBooks.Imported, summary.ReadingLogs.Imported)
		fmt.Printf("Skipped as duplicates: %d users, %d series, %d genres, %d books, %d collection entries, %d reading logs\n",
			summary.Users.Skipped, summary.Series.Skipped, summary.Genres.Skipped,
			summary.Books.Skipped, summary.UserBooks.Skipped, summary.ReadingLogs.Skipped)
		return nil
	},
}

func init() {
	importCmd.Flags().BoolVar(&importClear, "clear", false, "accepted for compatibility; imports always merge")
}
