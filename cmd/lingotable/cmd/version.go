// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/olegiv/lingotable/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		info := version.Get()
		if jsonOut {
			return printJSON(info)
		}
		printf("%s\n", info)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
