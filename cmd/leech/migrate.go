package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/leech-actions/internal/cli"
	"github.com/Veraticus/leech-actions/internal/config"
	"github.com/Veraticus/leech-actions/internal/storage"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Upgrade the collection schema and leech configuration",
		Long: `Bring the collection schema to the latest version, then read the leech
configuration and store it in the current document version.`,
		RunE: runMigrate,
	}

	cmd.Flags().Bool("status", false, "show versions without changing anything")

	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	status, _ := cmd.Flags().GetBool("status")
	ctx := cmd.Context()

	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = config.DefaultDatabasePath()
	}
	dbPath = config.ExpandPath(dbPath)

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	current, err := store.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if status {
		fmt.Fprintf(out, "Database:              %s\n", dbPath)
		fmt.Fprintf(out, "Schema version:        %d (latest %d)\n", current, storage.ExpectedSchemaVersion)
		fmt.Fprintf(out, "Configuration version: latest %d\n", config.CurrentVersion)
		return nil
	}

	slog.Info("Running database migrations", "database", dbPath, "from", current)
	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	if _, err := openConfig(ctx, store); err != nil {
		return err
	}

	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Collection schema at version %d, configuration at version %d",
		storage.ExpectedSchemaVersion, config.CurrentVersion)))
	return nil
}
