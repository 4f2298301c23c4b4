// Command myduidctl performs maintenance tasks against the myduid database.
package main

import (
	"fmt"
	"os"
	_ "time/tzdata"

	"github.com/spf13/cobra"

	"myduid/internal/cli"
)

var rootCmd = &cobra.Command{
	Use:   "myduidctl",
	Short: "Administer a myduid ledger database",
	Long: `myduidctl runs maintenance tasks against the database configured by
the same environment variables as the myduid server (SQLITE_DB_PATH, ...).

Available subcommands:
  migrate  - Apply pending schema migrations
  register - Create a user account
  export   - Write a user's ledger export to disk
  mirror   - Push every ledger to the configured spreadsheet once
  sheets-auth - Obtain an OAuth token for the spreadsheet mirror`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cli.LoadEnvFile()
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd, registerCmd, exportCmd, mirrorCmd, sheetsAuthCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
