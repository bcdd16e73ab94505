// Package document holds the immutable text documents the rest of the module projects from.
package document

import (
	"strings"
	"sync"

	"github.com/apparentlymart/go-textseg/v13/textseg"

	"github.com/walteh/go-sfc-typer/pkg/position"
)

// Document is an immutable snapshot of an editor buffer at one version.
type Document struct {
	URI        string
	LanguageID string
	Version    int32

	text      string
	indexOnce sync.Once
	index     *position.LineIndex
}

func New(uri, languageID string, version int32, text string) *Document {
	return &Document{
		URI:        uri,
		LanguageID: languageID,
		Version:    version,
		text:       text,
	}
}

func (d *Document) Text() string {
	return d.text
}

func (d *Document) Len() int {
	return len(d.text)
}

// Lines returns the line index of the text, built on first use.
func (d *Document) Lines() *position.LineIndex {
	d.indexOnce.Do(func() {
		d.index = position.NewLineIndex(d.text)
	})
	return d.index
}

func (d *Document) OffsetAt(p position.Place) int {
	return d.Lines().OffsetAt(p)
}

func (d *Document) PlaceAt(offset int) position.Place {
	return d.Lines().PlaceAt(offset)
}

func (d *Document) RangeOf(s position.Span) position.Range {
	return d.Lines().RangeOf(s)
}

func (d *Document) SpanOf(r position.Range) position.Span {
	return d.Lines().SpanOf(r)
}

// DisplayColumn is the 1-based column of p as a reader counts it, one per grapheme cluster.
func (d *Document) DisplayColumn(p position.Place) int {
	start := d.Lines().LineStart(p.Line)
	end := min(max(d.OffsetAt(p), start), len(d.text))
	n, err := textseg.TokenCount([]byte(d.text[start:end]), textseg.ScanGraphemeClusters)
	if err != nil {
		return p.Character + 1
	}
	return n + 1
}

func (d *Document) LineCount() int {
	return d.Lines().LineCount()
}

// Slice returns the text covered by s, clamped to the document.
func (d *Document) Slice(s position.Span) string {
	s = s.Clamp(len(d.text))
	return d.text[s.Start:s.End]
}

// WithText returns a derived document sharing identity and version with d.
func (d *Document) WithText(languageID, text string) *Document {
	return New(d.URI, languageID, d.Version, text)
}

// NormalizeURI strips the file scheme so documents opened by path and by URI share a key.
func NormalizeURI(uri string) string {
	return strings.TrimPrefix(uri, "file://")
}
