package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"hoteldash/internal/storage"
)

var migrateSteps int

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the SQLite schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply every pending migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		db := resolveDBPath()
		if err := storage.RunMigrations(db); err != nil {
			return err
		}
		return printVersion(cmd, db)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Revert applied migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		db := resolveDBPath()
		if err := storage.RollbackMigrations(db, migrateSteps); err != nil {
			return err
		}
		return printVersion(cmd, db)
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the applied schema version",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printVersion(cmd, resolveDBPath())
	},
}

func printVersion(cmd *cobra.Command, db string) error {
	version, dirty, err := storage.MigrationVersion(db)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Schema version: %d (dirty: %t)\n", version, dirty)
	return nil
}

func init() {
	migrateDownCmd.Flags().IntVar(&migrateSteps, "steps", 1, "Number of migrations to revert")
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateVersionCmd)
	rootCmd.AddCommand(migrateCmd)
}
