package host

import (
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/walteh/go-sfc-typer/pkg/position"
)

// Snapshot is the immutable text of a file at one version.
type Snapshot struct {
	text string
}

func NewSnapshot(text string) Snapshot {
	return Snapshot{text: text}
}

func (s Snapshot) Text() string {
	return s.text
}

func (s Snapshot) Len() int {
	return len(s.text)
}

// TextChangeRange describes an edit: Span is the replaced range of the old text and
// NewLength the length of its replacement.
type TextChangeRange struct {
	Span      position.Span
	NewLength int
}

func (c TextChangeRange) IsUnchanged() bool {
	return c.Span.IsEmpty() && c.NewLength == 0
}

var dmp = diffmatchpatch.New()

// ChangeRange returns the smallest single edit turning old into s.
func (s Snapshot) ChangeRange(old Snapshot) TextChangeRange {
	prefix := prefixBytes(old.text, dmp.DiffCommonPrefix(old.text, s.text))

	oldRest, newRest := old.text[prefix:], s.text[prefix:]
	suffix := suffixBytes(oldRest, dmp.DiffCommonSuffix(oldRest, newRest))

	return TextChangeRange{
		Span:      position.NewSpan(prefix, len(old.text)-suffix),
		NewLength: len(s.text) - prefix - suffix,
	}
}

// prefixBytes converts a rune count from the start of s into bytes. Invalid bytes count as
// one rune each, matching how the diff library decodes strings.
func prefixBytes(s string, runes int) int {
	off := 0
	for i := 0; i < runes && off < len(s); i++ {
		_, size := utf8.DecodeRuneInString(s[off:])
		off += size
	}
	return off
}

func suffixBytes(s string, runes int) int {
	end := len(s)
	for i := 0; i < runes && end > 0; i++ {
		_, size := utf8.DecodeLastRuneInString(s[:end])
		end -= size
	}
	return len(s) - end
}
