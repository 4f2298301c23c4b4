package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	gsheet "myduid/internal/sheets/google"
)

var (
	sheetsAuthAddr    string
	sheetsAuthOut     string
	sheetsAuthTimeout time.Duration
)

// sheetsAuthCmd obtains an OAuth user token for the spreadsheet mirror.
var sheetsAuthCmd = &cobra.Command{
	Use:   "sheets-auth",
	Short: "Authorize the spreadsheet mirror with a Google user account",
	Long: `Run the OAuth consent flow for the client in GOOGLE_OAUTH_CLIENT_JSON or
GOOGLE_OAUTH_CLIENT_FILE and save the resulting token. Point
GOOGLE_OAUTH_TOKEN_FILE at the saved file to mirror without a service account.

The redirect URI http://localhost:<port>/callback must be registered on the client.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := gsheet.OAuthConfigFromEnv()
		if err != nil {
			return err
		}
		out := sheetsAuthOut
		if out == "" {
			out = os.Getenv("GOOGLE_OAUTH_TOKEN_FILE")
		}
		if out == "" {
			out = "token.json"
		}

		tok, err := gsheet.Authorize(cmd.Context(), cfg, gsheet.AuthorizeOptions{
			Addr:    sheetsAuthAddr,
			Timeout: sheetsAuthTimeout,
			OnURL: func(url string) {
				fmt.Fprintf(cmd.OutOrStdout(), "Open this URL to authorize:\n%s\n", url)
			},
		})
		if err != nil {
			return err
		}
		if err := gsheet.SaveToken(out, tok); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved token to %s\n", out)
		return nil
	},
}

func init() {
	sheetsAuthCmd.Flags().StringVar(&sheetsAuthAddr, "addr", "127.0.0.1:8085", "loopback address for the OAuth redirect")
	sheetsAuthCmd.Flags().StringVar(&sheetsAuthOut, "out", "", "token file (default: $GOOGLE_OAUTH_TOKEN_FILE or token.json)")
	sheetsAuthCmd.Flags().DurationVar(&sheetsAuthTimeout, "timeout", 5*time.Minute, "how long to wait for consent")
}
