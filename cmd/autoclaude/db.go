package main

import (
	"fmt"

	"github.com/fennwick/taskboard/internal/config"
	"github.com/fennwick/taskboard/internal/db"
	"github.com/spf13/cobra"
)

func newDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database management commands",
	}

	cmd.AddCommand(newDBMigrateCmd())
	cmd.AddCommand(newDBSeedCmd())
	return cmd
}

func newDBMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the task store schema",
		Long:  "Migrates all AUTOCLAUDE tables against the configured database.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDBMigrate(cmd)
		},
	}
}

func runDBMigrate(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	gdb, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect to task store: %w", err)
	}
	fmt.Fprintln(out, "Connected to task store")

	if err := db.AutoMigrate(gdb); err != nil {
		return err
	}
	fmt.Fprintf(out, "Migrated %d tables\n", len(db.AllModels()))
	return nil
}

func newDBSeedCmd() *cobra.Command {
	var seedPath string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed projects and columns from a YAML file",
		Long:  "Upserts the projects and kanban columns described in the seed file. Existing rows are updated in place; tasks are never touched.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDBSeed(cmd, seedPath)
		},
	}

	cmd.Flags().StringVarP(&seedPath, "file", "f", "projects.yaml", "path to project seed file")
	return cmd
}

func runDBSeed(cmd *cobra.Command, seedPath string) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	sf, err := db.LoadSeedFile(seedPath)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Loaded %d project(s) from %s\n", len(sf.Projects), seedPath)

	gdb, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect to task store: %w", err)
	}

	if err := db.SeedProjects(gdb, sf); err != nil {
		return err
	}
	fmt.Fprintln(out, "Seeded projects:")
	for _, p := range sf.Projects {
		fmt.Fprintf(out, "  %s (%d columns)\n", p.Name, len(p.Columns))
	}
	return nil
}
