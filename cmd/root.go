package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "foodshare",
	Short: "Food donation coordination backend",
	Long: `foodshare runs the API that matches food donors with receivers.

	foodshare serve
	foodshare worker
	foodshare admin create --email admin@example.org --password secret
`,
}

// Execute adds all child commands to the root command and runs it.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
