package main

import (
	"fmt"
	"log/slog"

	"github.com/Veraticus/undercut/internal/cli"
	"github.com/Veraticus/undercut/internal/config"
	"github.com/Veraticus/undercut/internal/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the database schema to the latest version.

An existing database is backed up automatically before any pending
migration is applied.`,
		RunE: runMigrate,
	}

	cmd.Flags().Bool("status", false, "Show current migration status without applying changes")
	cmd.Flags().Bool("no-backup", false, "Skip the automatic backup")

	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	status, _ := cmd.Flags().GetBool("status")
	noBackup, _ := cmd.Flags().GetBool("no-backup")
	ctx := cmd.Context()

	dbPath := config.DatabasePath(viper.GetViper())
	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	current, err := store.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	if status {
		fmt.Printf("Database:        %s\n", dbPath)
		fmt.Printf("Current version: %d\n", current)
		fmt.Printf("Latest version:  %d\n", storage.ExpectedSchemaVersion)
		if current < storage.ExpectedSchemaVersion {
			fmt.Println(cli.FormatWarning(fmt.Sprintf("%d migration(s) pending", storage.ExpectedSchemaVersion-current)))
		} else {
			fmt.Println(cli.FormatSuccess("Schema is up to date"))
		}
		return nil
	}

	if current >= storage.ExpectedSchemaVersion {
		fmt.Println(cli.FormatSuccess("Schema is already up to date"))
		return nil
	}

	// A fresh database has nothing worth backing up.
	if current > 0 && !noBackup {
		manager, err := store.NewBackupManager()
		if err != nil {
			return fmt.Errorf("failed to create backup manager: %w", err)
		}
		info, err := manager.AutoBackup(ctx, "migrate")
		if err != nil {
			return err
		}
		fmt.Println(cli.FormatInfo(fmt.Sprintf("Backed up database to %s", info.ID)))
	}

	slog.Info("running database migrations", "database", dbPath, "from", current, "to", storage.ExpectedSchemaVersion)
	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Migrated database to version %d", storage.ExpectedSchemaVersion)))
	return nil
}
