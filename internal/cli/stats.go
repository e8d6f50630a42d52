package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shelftrack/shelftrack/internal/database/stats"
	"github.com/shelftrack/shelftrack/internal/database/users"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show catalog and collection counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.close()

		repo := stats.NewRepository(a.db)

		total, err := repo.TotalBooks()
		if err != nil {
			return err
		}
		fmt.Printf("Books in catalog: %d\n", total)

		user, err := users.NewRepository(a.db).GetFirstUser()
		if err != nil {
			return err
		}
		if user == nil {
			fmt.Println("No profile yet; run 'shelftrack init <username>'")
			return nil
		}

		collection, err := repo.UserCollectionCount(user.ID)
		if err != nil {
			return err
		}
		seriesCount, err := repo.UserSeriesCount(user.ID)
		if err != nil {
			return err
		}
		fmt.Printf("%s's collection: %d books across %d series\n", user.Username, collection, seriesCount)
		return nil
	},
}
