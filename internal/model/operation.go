// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "unicode/utf8"

// Operation types recorded in the operation log.
const (
	OperationCreate         = "create"
	OperationUpdate         = "update"
	OperationDelete         = "delete"
	OperationCreateTag      = "create_tag"
	OperationDeleteTag      = "delete_tag"
	OperationCreateDatabase = "create_database"
	OperationActivate       = "activate_language"
	OperationDeactivate     = "deactivate_language"
	OperationImport         = "import"
)

// descriptionPreviewLen is the number of source-text runes quoted in log
// descriptions.
const descriptionPreviewLen = 50

// Preview shortens s to a log-friendly excerpt.
func Preview(s string) string {
	if utf8.RuneCountInString(s) <= descriptionPreviewLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:descriptionPreviewLen]) + "..."
}
