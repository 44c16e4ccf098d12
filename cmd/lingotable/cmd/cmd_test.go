// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"archive/zip"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args, resetting flag state between runs.
func execute(t *testing.T, args ...string) error {
	t.Helper()

	dbDir, dbName, jsonOut, verbose = "", "", true, false
	databasesDemo = false
	exportFormat, exportOut, exportZip = "json", "", false
	importLanguage, importFormat, importTag = "", "", ""
	importCreateMissing, importDryRun = false, false

	t.Setenv("LINGO_LOG_LEVEL", "error")
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func readJSON(t *testing.T, path string) map[string]string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var m map[string]string
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

func TestCreateExportImport(t *testing.T) {
	dir := t.TempDir()
	dbs := filepath.Join(dir, "databases")

	require.NoError(t, execute(t, "--db-dir", dbs, "databases", "create", "demo", "--demo"))
	assert.FileExists(t, filepath.Join(dbs, "demo.db"))

	err := execute(t, "--db-dir", dbs, "databases", "create", "demo")
	assert.Error(t, err, "duplicate database")

	english := filepath.Join(dir, "english.json")
	require.NoError(t, execute(t, "--db-dir", dbs, "--db", "demo", "export", "english", "--out", english))
	assert.Equal(t, "Something went wrong. Please try again.", readJSON(t, english)["errors.generic"])

	german := filepath.Join(dir, "german.json")
	require.NoError(t, os.WriteFile(german, []byte(`{"errors.generic": "Fehler"}`), 0o644))
	require.NoError(t, execute(t, "--db-dir", dbs, "--db", "demo", "import", german))

	out := filepath.Join(dir, "out.json")
	require.NoError(t, execute(t, "--db-dir", dbs, "--db", "demo", "export", "german", "--out", out))
	assert.Equal(t, "Fehler", readJSON(t, out)["errors.generic"])
}

func TestExportZip(t *testing.T) {
	dir := t.TempDir()
	dbs := filepath.Join(dir, "databases")
	archive := filepath.Join(dir, "all.zip")

	require.NoError(t, execute(t, "--db-dir", dbs, "languages", "disable", "korean"))
	require.NoError(t, execute(t, "--db-dir", dbs, "export", "--zip", "--format", "yaml", "--out", archive))

	zr, err := zip.OpenReader(archive)
	require.NoError(t, err)
	defer func() { _ = zr.Close() }()

	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.Contains(t, names, "english.yaml")
	assert.NotContains(t, names, "korean.yaml")
	assert.Len(t, names, 28)
}

func TestCommandErrors(t *testing.T) {
	dbs := filepath.Join(t.TempDir(), "databases")

	tests := []struct {
		name string
		args []string
	}{
		{"unknown language", []string{"languages", "enable", "klingon"}},
		{"source language", []string{"languages", "disable", "english"}},
		{"bad format", []string{"export", "english", "--format", "xml"}},
		{"zip with language", []string{"export", "english", "--zip", "--out", "x.zip"}},
		{"zip without out", []string{"export", "--zip"}},
		{"missing database", []string{"--db", "missing", "languages", "list"}},
		{"missing import file", []string{"import", "german.json"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := execute(t, append([]string{"--db-dir", dbs}, tt.args...)...)
			assert.Error(t, err)
		})
	}
}
