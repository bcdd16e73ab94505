// Package sourcemap translates ranges between a generated file and the document it was
// generated from.
package sourcemap

import (
	"github.com/walteh/go-sfc-typer/pkg/expr"
	"github.com/walteh/go-sfc-typer/pkg/position"
)

type Entry struct {
	Generated position.Span
	Original  position.Span
	// Receiver marks a rewritten "this.x" access.
	Receiver bool
}

type Map struct {
	Entries []Entry
}

// Append adds printer mappings whose generated offsets start at offset in the generated file.
func (m *Map) Append(mappings []expr.Mapping, offset int) {
	for _, mp := range mappings {
		m.Entries = append(m.Entries, Entry{
			Generated: mp.Generated.Shift(offset),
			Original:  mp.Original,
			Receiver:  mp.Receiver,
		})
	}
}

func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.Entries)
}

// MapBack translates a generated range to the original document.
func (m *Map) MapBack(s position.Span) (position.Span, bool) {
	e, ok := m.innermost(s, func(e Entry) position.Span { return e.Generated }, func(e Entry) position.Span { return e.Original })
	if !ok {
		return position.Span{}, false
	}
	return translate(s, e.Generated, e.Original), true
}

// MapTo translates an original range into the generated file.
func (m *Map) MapTo(s position.Span) (position.Span, bool) {
	e, ok := m.innermost(s, func(e Entry) position.Span { return e.Original }, func(e Entry) position.Span { return e.Generated })
	if !ok {
		return position.Span{}, false
	}
	return translate(s, e.Original, e.Generated), true
}

// IsReceiverAccess reports whether a generated range lies inside a rewritten "this.x".
func (m *Map) IsReceiverAccess(s position.Span) bool {
	if m == nil {
		return false
	}
	for _, e := range m.Entries {
		if e.Receiver && e.Generated.Contains(s) {
			return true
		}
	}
	return false
}

// innermost picks the smallest entry whose from side contains s. Ties go to the smaller to side.
func (m *Map) innermost(s position.Span, from, to func(Entry) position.Span) (Entry, bool) {
	if m == nil {
		return Entry{}, false
	}
	var (
		best  Entry
		found bool
	)
	for _, e := range m.Entries {
		if !from(e).Contains(s) {
			continue
		}
		if !found ||
			from(e).Len() < from(best).Len() ||
			from(e).Len() == from(best).Len() && to(e).Len() < to(best).Len() {
			best, found = e, true
		}
	}
	return best, found
}

func translate(s, from, to position.Span) position.Span {
	start := to.Start + (s.Start - from.Start)
	end := to.End + (s.End - from.End)
	start = min(max(start, to.Start), to.End)
	end = min(max(end, start), to.End)
	return position.NewSpan(start, end)
}
