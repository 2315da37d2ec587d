package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jwalitptl/trials-api/internal/repository/postgres"
)

var errResetNeedsForce = errors.New("migrate reset drops every table; re-run with --force to confirm")

func migrateCmd(load configLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB(load)
			if err != nil {
				return err
			}
			defer db.Close()

			count, err := postgres.NewMigrator(db).Up(contextOf(cmd))
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s) successfully.\n", count)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB(load)
			if err != nil {
				return err
			}
			defer db.Close()

			statuses, err := postgres.NewMigrator(db).Status(contextOf(cmd))
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}
			printStatus(cmd.OutOrStdout(), statuses)
			return nil
		},
	})

	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Drop all tables and re-apply migrations (destroys data)",
		RunE: func(cmd *cobra.Command, args []string) error {
			force, _ := cmd.Flags().GetBool("force")
			if !force {
				return errResetNeedsForce
			}

			db, err := openDB(load)
			if err != nil {
				return err
			}
			defer db.Close()

			count, err := postgres.NewMigrator(db).Reset(contextOf(cmd))
			if err != nil {
				return fmt.Errorf("reset failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Schema reset; applied %d migration(s).\n", count)
			return nil
		},
	}
	resetCmd.Flags().Bool("force", false, "confirm dropping all data")
	cmd.AddCommand(resetCmd)

	return cmd
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func printStatus(w io.Writer, statuses []postgres.MigrationStatus) {
	fmt.Fprintf(w, "%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
	fmt.Fprintln(w, "---------- ---------------------------------------- ---------- --------------------")
	for _, s := range statuses {
		status := "pending"
		appliedAt := ""
		if s.Applied {
			status = "applied"
			if s.AppliedAt != nil {
				appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
			}
		}
		fmt.Fprintf(w, "%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
	}
}
