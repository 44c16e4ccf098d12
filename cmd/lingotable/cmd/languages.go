// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"github.com/olegiv/lingotable/internal/model"
	"github.com/olegiv/lingotable/internal/store"
)

var languagesUI string

var languagesCmd = &cobra.Command{
	Use:     "languages",
	Aliases: []string{"lang"},
	Short:   "Manage the active languages of a database",
}

var languagesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List languages and their status",
	Args:  cobra.NoArgs,
	RunE:  runLanguagesList,
}

var languagesEnableCmd = &cobra.Command{
	Use:   "enable <language>",
	Short: "Activate a language and create its table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setLanguage(cmd, args[0], true)
	},
}

var languagesDisableCmd = &cobra.Command{
	Use:   "disable <language>",
	Short: "Deactivate a language, dropping its translations",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setLanguage(cmd, args[0], false)
	},
}

func init() {
	rootCmd.AddCommand(languagesCmd)
	languagesCmd.AddCommand(languagesListCmd)
	languagesCmd.AddCommand(languagesEnableCmd)
	languagesCmd.AddCommand(languagesDisableCmd)

	languagesListCmd.Flags().StringVar(&languagesUI, "ui", "en", "language of the display names (BCP 47)")
}

func runLanguagesList(cmd *cobra.Command, _ []string) error {
	ui, err := language.Parse(languagesUI)
	if err != nil {
		return fmt.Errorf("invalid --ui language %q: %w", languagesUI, err)
	}

	return withDatabase(cmd.Context(), func(_ *store.Registry, d *store.Database) error {
		statuses, err := d.LanguageStatuses(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOut {
			return printJSON(statuses)
		}

		names := model.DisplayNames(ui)
		for _, s := range statuses {
			state := "inactive"
			switch {
			case s.IsSource:
				state = "source"
			case s.Active && s.TableExists:
				state = "active"
			case s.Active:
				state = "active (no table)"
			}
			printf("%-14s %-20s %s\n", s.Language, names[s.Language], state)
		}
		return nil
	})
}

func setLanguage(cmd *cobra.Command, raw string, active bool) error {
	l, ok := model.ParseLanguage(raw)
	if !ok {
		return fmt.Errorf("%w: %q", store.ErrUnsupportedLanguage, raw)
	}

	return withDatabase(cmd.Context(), func(_ *store.Registry, d *store.Database) error {
		if err := d.SetLanguageActive(cmd.Context(), l, active); err != nil {
			return err
		}
		if active {
			printf("%s activated in %s\n", l, d.Name())
		} else {
			printf("%s deactivated in %s\n", l, d.Name())
		}
		return nil
	})
}
