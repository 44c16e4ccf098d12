// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"strings"

	"github.com/iancoleman/strcase"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Language identifies one of the supported translation languages.
// The value doubles as the physical table name of its translation table,
// so it must only ever come from the Languages list.
type Language string

// SourceLanguage is the language every translation is anchored to.
const SourceLanguage Language = "english"

// Languages lists every supported language in display order.
var Languages = []Language{
	"english", "chinese", "thai", "czech", "slovak", "italian", "polish",
	"latin", "dutch", "portuguese", "greek", "balkan", "bulgarian", "turkish",
	"french", "german", "ukrainian", "russian", "south_african", "arabic",
	"norwegian", "finnish", "macedonian", "estonian", "slovenian", "indonesian", "swedish",
	"japanese", "korean",
}

// languageInfo holds the BCP 47 tag and fixed display labels of a language.
type languageInfo struct {
	tag     string
	english string
	chinese string
}

var languageInfos = map[Language]languageInfo{
	"english":       {"en", "English", "英文"},
	"chinese":       {"zh", "Chinese", "中文"},
	"thai":          {"th", "Thai", "泰语"},
	"czech":         {"cs", "Czech", "捷克语"},
	"slovak":        {"sk", "Slovak", "斯洛伐克语"},
	"italian":       {"it", "Italian", "意大利语"},
	"polish":        {"pl", "Polish", "波兰语"},
	"latin":         {"la", "Latin", "拉丁语"},
	"dutch":         {"nl", "Dutch", "荷兰语"},
	"portuguese":    {"pt", "Portuguese", "葡萄牙语"},
	"greek":         {"el", "Greek", "希腊语"},
	"balkan":        {"sh", "Balkan", "巴尔干语"},
	"bulgarian":     {"bg", "Bulgarian", "保加利亚语"},
	"turkish":       {"tr", "Turkish", "土耳其语"},
	"french":        {"fr", "French", "法语"},
	"german":        {"de", "German", "德语"},
	"ukrainian":     {"uk", "Ukrainian", "乌克兰语"},
	"russian":       {"ru", "Russian", "俄语"},
	"south_african": {"af", "South African", "南非语"},
	"arabic":        {"ar", "Arabic", "阿拉伯语"},
	"norwegian":     {"no", "Norwegian", "挪威语"},
	"finnish":       {"fi", "Finnish", "芬兰语"},
	"macedonian":    {"mk", "Macedonian", "马其顿语"},
	"estonian":      {"et", "Estonian", "爱沙尼亚语"},
	"slovenian":     {"sl", "Slovenian", "斯洛文尼亚语"},
	"indonesian":    {"id", "Indonesian", "印尼语"},
	"swedish":       {"sv", "Swedish", "瑞典语"},
	"japanese":      {"ja", "Japanese", "日语"},
	"korean":        {"ko", "Korean", "韩语"},
}

// ParseLanguage normalizes user input ("South African", "southAfrican",
// " chinese ") into a supported Language.
// Returns false if the input does not name a supported language.
func ParseLanguage(s string) (Language, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	l := Language(strcase.ToSnake(s))
	return l, l.IsSupported()
}

// IsSupported reports whether l is in the Languages list.
func (l Language) IsSupported() bool {
	_, ok := languageInfos[l]
	return ok
}

// IsSource reports whether l is the source language.
func (l Language) IsSource() bool {
	return l == SourceLanguage
}

// String implements fmt.Stringer.
func (l Language) String() string {
	return string(l)
}

// TextColumn returns the name of the text column in the language's table.
func (l Language) TextColumn() string {
	return string(l) + "_text"
}

// Tag returns the BCP 47 tag for the language, or language.Und if unknown.
func (l Language) Tag() language.Tag {
	info, ok := languageInfos[l]
	if !ok {
		return language.Und
	}
	return language.Make(info.tag)
}

// DisplayName returns the language label in the given UI language.
// English and Chinese labels are fixed; other UI languages are resolved
// through CLDR data and fall back to the English label.
func (l Language) DisplayName(ui language.Tag) string {
	info, ok := languageInfos[l]
	if !ok {
		return string(l)
	}

	base, _ := ui.Base()
	switch base.String() {
	case "en", "und":
		return info.english
	case "zh":
		return info.chinese
	}

	if namer := display.Languages(ui); namer != nil {
		if name := namer.Name(l.Tag()); name != "" {
			return name
		}
	}
	return info.english
}

// DisplayNames returns the labels of every supported language keyed by
// language, in the given UI language.
func DisplayNames(ui language.Tag) map[Language]string {
	names := make(map[Language]string, len(Languages))
	for _, l := range Languages {
		names[l] = l.DisplayName(ui)
	}
	return names
}
