package regions

import (
	"regexp"
	"strings"
)

type Type string

const (
	TypeTemplate Type = "template"
	TypeScript   Type = "script"
	TypeStyle    Type = "style"
	TypeCustom   Type = "custom"
)

const (
	// LanguageHost is reported for text outside of every region.
	LanguageHost = "sfc"

	LanguageMarkupHTML = "markup-html"
	LanguageScripting  = "scripting"
	LanguageStyling    = "styling"
	LanguageUnknown    = "unknown"

	LanguageTypeScript = "typescript"
	LanguageTSX        = "tsx"
	LanguagePug        = "pug"
)

var styleLanguageRE = regexp.MustCompile(`^(sass|scss|less|postcss|stylus)$`)

var langAliases = map[string]string{
	"jade": LanguagePug,
	"ts":   LanguageTypeScript,
}

// DefaultLanguage is the language a region of type t has without a lang attribute.
func DefaultLanguage(t Type) string {
	switch t {
	case TypeTemplate:
		return LanguageMarkupHTML
	case TypeScript:
		return LanguageScripting
	case TypeStyle:
		return LanguageStyling
	default:
		return LanguageUnknown
	}
}

// LanguageFromLangAttr normalizes a raw lang attribute value, quotes included.
func LanguageFromLangAttr(raw string) string {
	lang := removeQuotes(raw)
	if alias, ok := langAliases[lang]; ok {
		return alias
	}
	return lang
}

func styleLanguage(lang string) string {
	if styleLanguageRE.MatchString(lang) {
		return lang
	}
	return LanguageStyling
}

func removeQuotes(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return strings.Trim(s, `"'`)
}
