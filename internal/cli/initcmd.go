package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shelftrack/shelftrack/internal/database/users"
)

var (
	initDisplayName string
	initEmail       string
)

var initCmd = &cobra.Command{
	Use:   "init <username>",
	Short: "Create the local reader profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.close()

		repo := users.NewRepository(a.db)
		user, err := repo.CreateUser(args[0], initDisplayName, initEmail)
		if err != nil {
			return err
		}

		fmt.Printf("Created profile %s (%s)\n", user.Username, user.ID)
		return nil
	},
}

func init() {
	initCmd.Flags().StringVar(&initDisplayName, "name", "", "display name")
	initCmd.Flags().StringVar(&initEmail, "email", "", "email address")
}
