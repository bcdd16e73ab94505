package position

import "sort"

// LineIndex maps between byte offsets and 0-based line/character places.
// A line ends at "\r\n", "\n" or a lone "\r".
type LineIndex struct {
	starts []int
	length int
}

func NewLineIndex(text string) *LineIndex {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\r':
			if i+1 < len(text) && text[i+1] == '\n' {
				i++
			}
			starts = append(starts, i+1)
		case '\n':
			starts = append(starts, i+1)
		}
	}
	return &LineIndex{starts: starts, length: len(text)}
}

func (me *LineIndex) LineCount() int {
	return len(me.starts)
}

// LineStart returns the offset of the first byte of line, clamped to the document.
func (me *LineIndex) LineStart(line int) int {
	if line < 0 {
		return 0
	}
	if line >= len(me.starts) {
		return me.length
	}
	return me.starts[line]
}

// OffsetAt converts a place to an offset. Characters past the end of the line clamp to the line end.
func (me *LineIndex) OffsetAt(p Place) int {
	if p.Line >= len(me.starts) {
		return me.length
	}
	if p.Line < 0 {
		return 0
	}
	start := me.starts[p.Line]
	next := me.length
	if p.Line+1 < len(me.starts) {
		next = me.starts[p.Line+1]
	}
	return max(min(start+p.Character, next), start)
}

func (me *LineIndex) PlaceAt(offset int) Place {
	offset = max(min(offset, me.length), 0)
	line := sort.Search(len(me.starts), func(i int) bool { return me.starts[i] > offset }) - 1
	return Place{Line: line, Character: offset - me.starts[line]}
}

func (me *LineIndex) RangeOf(s Span) Range {
	return Range{Start: me.PlaceAt(s.Start), End: me.PlaceAt(s.End)}
}

func (me *LineIndex) SpanOf(r Range) Span {
	return Span{Start: me.OffsetAt(r.Start), End: me.OffsetAt(r.End)}
}
