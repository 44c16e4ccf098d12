// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package transfer

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// EncodeJSON writes v as indented JSON without HTML escaping.
func EncodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// EncodeYAML writes v as YAML. Map keys come out sorted.
func EncodeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// Encode writes v in format f.
func Encode(w io.Writer, f Format, v any) error {
	if f == FormatYAML {
		return EncodeYAML(w, v)
	}
	return EncodeJSON(w, v)
}

// Decode reads a key/value table in format f.
func Decode(r io.Reader, f Format) (map[string]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	values := map[string]string{}
	if len(bytes.TrimSpace(data)) == 0 {
		return values, nil
	}

	if f == FormatYAML {
		err = yaml.Unmarshal(data, &values)
	} else {
		err = json.Unmarshal(data, &values)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", f, err)
	}
	return values, nil
}

// WriteZip writes one <language><ext> file per bundle language.
func WriteZip(w io.Writer, bundle *BundleExport, f Format) error {
	zw := zip.NewWriter(w)

	for _, lang := range bundle.Languages {
		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:   string(lang) + f.Ext(),
			Method: zip.Deflate,
		})
		if err != nil {
			_ = zw.Close()
			return fmt.Errorf("failed to add %s to zip: %w", lang, err)
		}
		data := bundle.Data[lang]
		if data == nil {
			data = map[string]string{}
		}
		if err := Encode(fw, f, data); err != nil {
			_ = zw.Close()
			return fmt.Errorf("failed to write %s: %w", lang, err)
		}
	}

	return zw.Close()
}
