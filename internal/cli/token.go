package cli

import (
	"cellar/internal/api"
	"cellar/internal/config"
	"fmt"

	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Print the auth token protecting the local event stream",
	Run: func(cmd *cobra.Command, args []string) {
		token := api.EnsureAuthToken(config.GetStateDir())
		fmt.Println(token)
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
}
