// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/olegiv/lingotable/internal/model"
	"github.com/olegiv/lingotable/internal/store"
	"github.com/olegiv/lingotable/internal/transfer"
)

var (
	exportFormat string
	exportOut    string
	exportZip    bool

	importLanguage      string
	importFormat        string
	importTag           string
	importCreateMissing bool
	importDryRun        bool
)

var exportCmd = &cobra.Command{
	Use:   "export [language]",
	Short: "Export key/value tables",
	Long: `Export writes the key/value table of one language, or of every active
language when no language is given. Only entries with a key and a
non-empty translation are exported.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExport,
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import key/value tables",
	Long: `Import reads a <language>.json or <language>.yaml table, or a zip archive
of such tables, and updates the translations of entries matched by key.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)

	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "json", "output format: json or yaml")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default: stdout)")
	exportCmd.Flags().BoolVar(&exportZip, "zip", false, "write a zip archive with one file per language")

	importCmd.Flags().StringVarP(&importLanguage, "language", "l", "", "language of a single file (default: file name)")
	importCmd.Flags().StringVarP(&importFormat, "format", "f", "", "format of a single file (default: file extension)")
	importCmd.Flags().StringVar(&importTag, "tag", "", "tag of entries created by --create-missing")
	importCmd.Flags().BoolVar(&importCreateMissing, "create-missing", false, "create source entries for unknown keys (source language only)")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "report changes without writing")
}

// output opens the export destination.
func output() (io.Writer, func() error, error) {
	if exportOut == "" || exportOut == "-" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(exportOut)
	if err != nil {
		return nil, nil, fmt.Errorf("creating %s: %w", exportOut, err)
	}
	return f, f.Close, nil
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	format, err := transfer.ParseFormat(exportFormat)
	if err != nil {
		return err
	}
	if exportZip && len(args) > 0 {
		return fmt.Errorf("--zip exports every language and takes no language argument")
	}
	if exportZip && exportOut == "" {
		return fmt.Errorf("--zip requires --out")
	}

	exporter := transfer.NewExporter(nil, 0, appLogger)

	return withDatabase(ctx, func(_ *store.Registry, d *store.Database) error {
		w, closeOut, err := output()
		if err != nil {
			return err
		}

		if len(args) == 1 {
			l, ok := model.ParseLanguage(args[0])
			if !ok {
				l = model.Language(args[0])
			}
			out, err := exporter.ExportLanguage(ctx, d, l)
			if err != nil {
				_ = closeOut()
				return err
			}
			if err := transfer.Encode(w, format, out.Data); err != nil {
				_ = closeOut()
				return err
			}
			appLogger.Info("exported language",
				"database", d.Name(),
				"language", out.Language,
				"exported", out.Stats.Exported,
				"duplicates", len(out.Stats.DuplicateKeys),
			)
			return closeOut()
		}

		bundle, err := exporter.ExportAll(ctx, d)
		if err != nil {
			_ = closeOut()
			return err
		}
		if exportZip {
			err = transfer.WriteZip(w, bundle, format)
		} else {
			err = transfer.Encode(w, format, bundle.Data)
		}
		if err != nil {
			_ = closeOut()
			return err
		}
		appLogger.Info("exported languages", "database", d.Name(), "languages", len(bundle.Languages))
		return closeOut()
	})
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	opts := transfer.ImportOptions{
		CreateMissing: importCreateMissing,
		Tag:           importTag,
		DryRun:        importDryRun,
	}
	if importFormat != "" {
		format, err := transfer.ParseFormat(importFormat)
		if err != nil {
			return err
		}
		opts.Format = format
	}

	importer := transfer.NewImporter(appLogger)

	return withDatabase(ctx, func(_ *store.Registry, d *store.Database) error {
		result, err := importer.ImportFile(ctx, d, args[0], importLanguage, opts)
		if err != nil {
			return err
		}
		if jsonOut {
			return printJSON(result)
		}

		for _, res := range result.Languages {
			printf("%-14s matched %d, updated %d, unchanged %d, created %d, skipped %d\n",
				res.Language, res.Matched, res.Updated, res.Unchanged, res.Created, len(res.SkippedKeys))
		}
		for _, e := range result.Errors {
			printf("%s: %s\n", e.File, e.Message)
		}
		if importDryRun {
			printf("dry run, nothing was written to %s\n", d.Name())
		}
		if len(result.Errors) > 0 {
			return fmt.Errorf("%d file(s) could not be imported", len(result.Errors))
		}
		return nil
	})
}
