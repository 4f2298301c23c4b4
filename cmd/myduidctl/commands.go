package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"myduid/internal/core"
	"myduid/internal/export"
	"myduid/internal/sheets"
	gsheet "myduid/internal/sheets/google"
	"myduid/internal/storage"
	"myduid/internal/validation"
	"myduid/internal/worker"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		version, dirty, err := storage.MigrationVersion(a.store.DSN())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (dirty=%t) at %s\n", version, dirty, a.cfg.SQLiteDBPath)
		return nil
	},
}

var (
	registerName     string
	registerEmail    string
	registerPassword string
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a user account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		in, ve := validation.Registration(map[string]any{
			"name":     registerName,
			"email":    registerEmail,
			"password": registerPassword,
		})
		if ve != nil {
			return ve
		}

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		user, err := a.svc.Users.Register(cmd.Context(), in)
		if err != nil {
			return err
		}
		return printJSON(cmd, user)
	},
}

var (
	exportUser           string
	exportFormat         string
	exportRange          string
	exportOut            string
	exportNoTransactions bool
	exportNoGoals        bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a user's ledger export to disk",
	Long: `Export renders the same files as GET /api/export and writes them into
--out. CSV exports with both sections are bundled into one zip archive.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := exportOptions()
		if err != nil {
			return err
		}

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		files, err := a.svc.Export.Export(cmd.Context(), core.Caller{UserID: exportUser}, opts)
		if err != nil {
			return err
		}
		file := files[0]
		if len(files) > 1 {
			if file, err = export.Bundle(time.Now(), files); err != nil {
				return err
			}
		}

		if err := os.MkdirAll(exportOut, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
		path := filepath.Join(exportOut, file.Name)
		if err := os.WriteFile(path, file.Data, 0o600); err != nil {
			return fmt.Errorf("write export: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

func exportOptions() (export.Options, error) {
	if exportUser == "" {
		return export.Options{}, fmt.Errorf("--user is required")
	}
	opts := export.DefaultOptions()
	f, err := export.ParseFormat(exportFormat)
	if err != nil {
		return opts, err
	}
	rg, err := export.ParseRange(exportRange)
	if err != nil {
		return opts, err
	}
	opts.Format = f
	opts.Range = rg
	opts.IncludeTransactions = !exportNoTransactions
	opts.IncludeGoals = !exportNoGoals
	return opts, nil
}

var mirrorTimeout time.Duration

var mirrorCmd = &cobra.Command{
	Use:   "mirror",
	Short: "Push every ledger to the configured spreadsheet once",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if !a.cfg.MirrorEnabled() {
			return fmt.Errorf("GOOGLE_SPREADSHEET_ID is not set")
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), mirrorTimeout)
		defer cancel()

		client, err := gsheet.NewFromEnv(ctx)
		if err != nil {
			return err
		}
		n, err := runMirror(ctx, a, client)
		fmt.Fprintf(cmd.OutOrStdout(), "mirrored %d ledgers\n", n)
		return err
	},
}

func runMirror(ctx context.Context, a *app, writer sheets.SnapshotWriter) (int, error) {
	m := worker.NewMirror(a.svc.Export, a.store, writer, worker.DefaultMirrorConfig(), a.logger)
	return m.SyncAll(ctx)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	registerCmd.Flags().StringVar(&registerName, "name", "", "display name")
	registerCmd.Flags().StringVar(&registerEmail, "email", "", "login email")
	registerCmd.Flags().StringVar(&registerPassword, "password", "", "password (at least 6 characters)")

	exportCmd.Flags().StringVar(&exportUser, "user", "", "user id to export")
	exportCmd.Flags().StringVar(&exportFormat, "format", "json", "json or csv")
	exportCmd.Flags().StringVar(&exportRange, "range", "ALL", "7, 30, 90 or ALL days")
	exportCmd.Flags().StringVar(&exportOut, "out", ".", "output directory")
	exportCmd.Flags().BoolVar(&exportNoTransactions, "no-transactions", false, "omit transactions")
	exportCmd.Flags().BoolVar(&exportNoGoals, "no-goals", false, "omit goals")

	mirrorCmd.Flags().DurationVar(&mirrorTimeout, "timeout", 5*time.Minute, "overall deadline")
}
