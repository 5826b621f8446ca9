package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Veraticus/spice-ledger/internal/cli"
	"github.com/Veraticus/spice-ledger/internal/storage"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the database schema to the latest version.

Every other command migrates on startup, so this is only needed to prepare
a database ahead of time or to inspect its schema version.`,
		Args: cobra.NoArgs,
		RunE: runMigrate,
	}

	cmd.Flags().Bool("status", false, "Show current migration status without applying changes")

	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	status, _ := cmd.Flags().GetBool("status")
	dbPath := appConfig.Database.Path

	slog.Info("Starting database migration",
		"database", dbPath,
		"status_only", status)

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	out := cmd.OutOrStdout()

	if status {
		version, dirty, err := store.SchemaVersion(ctx)
		if err != nil {
			return err
		}

		content := fmt.Sprintf("Database:        %s\nCurrent version: %d\nLatest version:  %d",
			dbPath, version, storage.ExpectedSchemaVersion)
		switch {
		case dirty:
			content += "\n" + cli.FormatError("A previous migration failed halfway")
		case version < storage.ExpectedSchemaVersion:
			content += "\n" + cli.FormatWarning("Migrations pending")
		default:
			content += "\n" + cli.FormatSuccess("Up to date")
		}
		fmt.Fprintln(out, cli.RenderBox(cli.ChartIcon+" Database Migration Status", content))
		return nil
	}

	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	fmt.Fprintln(out, cli.FormatSuccess("Database migrations completed successfully"))
	return nil
}
