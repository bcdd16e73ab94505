package diagnostic

import (
	"encoding/json"
	"sort"

	"gitlab.com/tozd/go/errors"

	"github.com/walteh/go-sfc-typer/pkg/position"
)

// Diagnostic is a single message about a range of a document.
type Diagnostic struct {
	Message  string
	Code     int
	Source   string
	Severity Severity
	Span     position.Span
	Range    position.Range
}

// Severity represents the severity level of a diagnostic
type Severity string

const (
	Error   Severity = "error"
	Warning Severity = "warning"
	Info    Severity = "info"
	Hint    Severity = "hint"
)

// Level is the LSP numbering of the severity.
func (s Severity) Level() int {
	switch s {
	case Error:
		return 1
	case Warning:
		return 2
	case Info:
		return 3
	default:
		return 4
	}
}

// Located fills in Range from Span using the document's line index.
func (d Diagnostic) Located(lines *position.LineIndex) Diagnostic {
	d.Range = lines.RangeOf(d.Span)
	return d
}

// Diagnostics groups diagnostics by severity.
type Diagnostics struct {
	Errors   []Diagnostic
	Warnings []Diagnostic
	Infos    []Diagnostic
	Hints    []Diagnostic
}

func Group(diags []Diagnostic) *Diagnostics {
	out := &Diagnostics{}
	for _, d := range diags {
		switch d.Severity {
		case Error:
			out.Errors = append(out.Errors, d)
		case Warning:
			out.Warnings = append(out.Warnings, d)
		case Info:
			out.Infos = append(out.Infos, d)
		default:
			out.Hints = append(out.Hints, d)
		}
	}
	return out
}

// All returns every diagnostic, most severe first.
func (me *Diagnostics) All() []Diagnostic {
	var out []Diagnostic
	out = append(out, me.Errors...)
	out = append(out, me.Warnings...)
	out = append(out, me.Infos...)
	out = append(out, me.Hints...)
	return out
}

func (me *Diagnostics) Len() int {
	return len(me.Errors) + len(me.Warnings) + len(me.Infos) + len(me.Hints)
}

// Sort orders diagnostics by position, then by message.
func Sort(diags []Diagnostic) {
	sort.SliceStable(diags, func(i, j int) bool {
		a, b := diags[i], diags[j]
		if a.Span.Start != b.Span.Start {
			return a.Span.Start < b.Span.Start
		}
		if a.Span.End != b.Span.End {
			return a.Span.End < b.Span.End
		}
		return a.Message < b.Message
	})
}

// Formatter formats diagnostics into different output formats
type Formatter interface {
	Format(diagnostics *Diagnostics) ([]byte, error)
}

// JSONFormatter renders diagnostics the way language clients expect them.
type JSONFormatter struct{}

func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

type jsonPlace struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

type jsonRange struct {
	Start jsonPlace `json:"start"`
	End   jsonPlace `json:"end"`
}

type jsonDiagnostic struct {
	Severity int       `json:"severity"`
	Code     int       `json:"code,omitempty"`
	Source   string    `json:"source,omitempty"`
	Message  string    `json:"message"`
	Range    jsonRange `json:"range"`
}

func (f *JSONFormatter) Format(diagnostics *Diagnostics) ([]byte, error) {
	if diagnostics == nil {
		return nil, errors.Errorf("diagnostics is nil")
	}

	result := []jsonDiagnostic{}
	for _, d := range diagnostics.All() {
		result = append(result, jsonDiagnostic{
			Severity: d.Severity.Level(),
			Code:     d.Code,
			Source:   d.Source,
			Message:  d.Message,
			Range: jsonRange{
				Start: jsonPlace{Line: d.Range.Start.Line, Character: d.Range.Start.Character},
				End:   jsonPlace{Line: d.Range.End.Line, Character: d.Range.End.Character},
			},
		})
	}

	out, err := json.Marshal(result)
	if err != nil {
		return nil, errors.Errorf("marshalling diagnostics: %w", err)
	}
	return out, nil
}
