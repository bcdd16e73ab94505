package host

import (
	"github.com/walteh/go-sfc-typer/pkg/regions"
	"github.com/walteh/go-sfc-typer/pkg/workspace"
)

// ScriptKind tells the engine which dialect a file is written in.
type ScriptKind int

const (
	KindUnknown ScriptKind = iota
	KindJS
	KindJSX
	KindTS
	KindTSX
)

func (k ScriptKind) String() string {
	switch k {
	case KindJS:
		return "js"
	case KindJSX:
		return "jsx"
	case KindTS:
		return "ts"
	case KindTSX:
		return "tsx"
	default:
		return "unknown"
	}
}

// Extension is the file extension a resolved module of this kind reports.
func (k ScriptKind) Extension() string {
	switch k {
	case KindJSX:
		return ".jsx"
	case KindTS:
		return ".ts"
	case KindTSX:
		return ".tsx"
	default:
		return ".js"
	}
}

// KindOfLanguage maps a script region language to its kind. Anything that is not a
// TypeScript dialect is checked as JavaScript.
func KindOfLanguage(lang string) ScriptKind {
	switch lang {
	case regions.LanguageTypeScript:
		return KindTS
	case regions.LanguageTSX:
		return KindTSX
	default:
		return KindJS
	}
}

// KindOfPath classifies a file on disk by its extension.
func KindOfPath(path string) ScriptKind {
	switch lang := workspace.LanguageOf(path); lang {
	case "":
		return KindUnknown
	case workspace.LanguageComponent:
		return KindJS
	default:
		return KindOfLanguage(lang)
	}
}
