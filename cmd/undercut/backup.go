package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/Veraticus/undercut/internal/cli"
	"github.com/spf13/cobra"
)

func backupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Manage database backups",
		Long: `Create, list, verify, and delete database backups.

Backups are consistent copies of the database written next to it. One is
taken automatically before migrations and product deletions.`,
		Example: `  # Back up before a bulk import
  undercut backup create --tag pre-autumn-import

  # List all backups
  undercut backup list

  # Check a backup is readable
  undercut backup verify pre-autumn-import`,
	}

	cmd.AddCommand(createBackupCmd())
	cmd.AddCommand(listBackupsCmd())
	cmd.AddCommand(verifyBackupCmd())
	cmd.AddCommand(deleteBackupCmd())

	return cmd
}

func createBackupCmd() *cobra.Command {
	var tag string
	var description string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new backup",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			manager, err := backupManager(store)
			if err != nil {
				return err
			}

			info, err := manager.Create(ctx, tag, description)
			if err != nil {
				return fmt.Errorf("failed to create backup: %w", err)
			}

			fmt.Printf("%s Created backup %s (%s)\n",
				cli.SuccessStyle.Render(cli.SuccessIcon),
				cli.InfoStyle.Render(info.ID),
				cli.FormatFileSize(info.FileSize))
			if info.Description != "" {
				fmt.Printf("  Description: %s\n", info.Description)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&tag, "tag", "t", "", "Backup tag (auto-generated if not provided)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "Description of the backup")

	return cmd
}

func listBackupsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all backups",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			manager, err := backupManager(store)
			if err != nil {
				return err
			}

			backups, err := manager.List(ctx)
			if err != nil {
				return fmt.Errorf("failed to list backups: %w", err)
			}
			if len(backups) == 0 {
				fmt.Println(cli.InfoStyle.Render("No backups found. Use 'undercut backup create' to create one."))
				return nil
			}

			fmt.Printf("%s %s\n\n", cli.FolderIcon, cli.SubtleStyle.Render(manager.Dir()))
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				cli.TableHeaderStyle.Render("ID"),
				cli.TableHeaderStyle.Render("Created"),
				cli.TableHeaderStyle.Render("Size"),
				cli.TableHeaderStyle.Render("Products"),
				cli.TableHeaderStyle.Render("Listings"),
				cli.TableHeaderStyle.Render("Description"))
			for _, b := range backups {
				id := b.ID
				if b.IsAuto {
					id = cli.SubtleStyle.Render(id)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n",
					id,
					b.CreatedAt.Local().Format("2006-01-02 15:04"),
					cli.FormatFileSize(b.FileSize),
					b.RowCounts["products"],
					b.RowCounts["listings"],
					b.Description)
			}
			return w.Flush()
		},
	}
}

func verifyBackupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <backup-id>",
		Short: "Check a backup's integrity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			manager, err := backupManager(store)
			if err != nil {
				return err
			}

			if err := manager.Verify(ctx, args[0]); err != nil {
				return err
			}
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Backup %s is intact", args[0])))
			return nil
		},
	}
}

func deleteBackupCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <backup-id>",
		Short: "Delete a backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			backupID := args[0]

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			manager, err := backupManager(store)
			if err != nil {
				return err
			}

			if !force && !confirm(fmt.Sprintf("This will permanently delete backup %s.", cli.InfoStyle.Render(backupID))) {
				fmt.Println(cli.SubtleStyle.Render("Deletion cancelled."))
				return nil
			}

			if err := manager.Delete(ctx, backupID); err != nil {
				return fmt.Errorf("failed to delete backup: %w", err)
			}

			fmt.Printf("%s Deleted backup %s\n",
				cli.SuccessStyle.Render(cli.SuccessIcon),
				cli.InfoStyle.Render(backupID))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip confirmation prompt")

	return cmd
}

// confirm asks a y/N question on stdin.
func confirm(message string) bool {
	fmt.Printf("%s %s\n", cli.WarningStyle.Render(cli.WarningIcon), message)
	fmt.Printf("\nContinue? (y/N) ")

	var response string
	_, _ = fmt.Scanln(&response)
	return strings.HasPrefix(strings.ToLower(response), "y")
}
