package workspace

import (
	"github.com/go-enry/go-enry/v2"

	"github.com/walteh/go-sfc-typer/pkg/regions"
)

// LanguageComponent is reported for single-file component sources.
const LanguageComponent = "vue"

// LanguageOf classifies path by extension into the region language ids the host
// understands. Unknown files return "".
func LanguageOf(path string) string {
	lang, _ := enry.GetLanguageByExtension(path)
	switch lang {
	case "TypeScript":
		return regions.LanguageTypeScript
	case "TSX":
		return regions.LanguageTSX
	case "JavaScript":
		return regions.LanguageScripting
	case "Vue":
		return LanguageComponent
	default:
		return ""
	}
}

// IsScript reports whether path holds plain script the host can load as an external file.
func IsScript(path string) bool {
	switch LanguageOf(path) {
	case regions.LanguageTypeScript, regions.LanguageTSX, regions.LanguageScripting:
		return true
	default:
		return false
	}
}
