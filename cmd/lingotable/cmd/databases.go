// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/olegiv/lingotable/internal/model"
)

var databasesDemo bool

var databasesCmd = &cobra.Command{
	Use:     "databases",
	Aliases: []string{"db"},
	Short:   "Manage database files",
}

var databasesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List database files",
	Args:  cobra.NoArgs,
	RunE:  runDatabasesList,
}

var databasesCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create and initialize a database file",
	Args:  cobra.ExactArgs(1),
	RunE:  runDatabasesCreate,
}

func init() {
	rootCmd.AddCommand(databasesCmd)
	databasesCmd.AddCommand(databasesListCmd)
	databasesCmd.AddCommand(databasesCreateCmd)

	databasesCreateCmd.Flags().BoolVar(&databasesDemo, "demo", false, "seed the database with demo entries")
}

func runDatabasesList(_ *cobra.Command, _ []string) error {
	reg, err := openRegistry()
	if err != nil {
		return err
	}
	defer func() { _ = reg.Close() }()

	names, err := reg.ListAvailable()
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(map[string]any{
			"databases":        names,
			"current_database": reg.CurrentName(),
		})
	}

	for _, name := range names {
		marker := " "
		if name == reg.CurrentName() {
			marker = "*"
		}
		printf("%s %s\n", marker, name)
	}
	if len(names) == 0 {
		printf("no databases in %s\n", reg.Dir())
	}
	return nil
}

func runDatabasesCreate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	reg, err := openRegistry()
	if err != nil {
		return err
	}
	defer func() { _ = reg.Close() }()

	name, err := reg.Create(args[0])
	if err != nil {
		return err
	}
	d, err := reg.Open(ctx, name)
	if err != nil {
		return err
	}
	if err := d.AppendLog(ctx, model.OperationCreateDatabase, 1, "Created database: "+name); err != nil {
		appLogger.Warn("failed to record database creation", "database", name, "error", err)
	}
	if databasesDemo || appConfig.DemoMode {
		if err := d.SeedDemo(ctx); err != nil {
			return err
		}
	}

	if jsonOut {
		return printJSON(map[string]any{"name": name, "path": d.Path()})
	}
	printf("created %s\n", d.Path())
	return nil
}
