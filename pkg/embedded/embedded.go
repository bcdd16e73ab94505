// Package embedded projects a component document onto one of its sub-languages by masking
// everything outside the selected regions with spaces. Masked documents keep the exact byte
// length and line structure of their source, so positions never need translating.
package embedded

import (
	"slices"
	"strings"

	"gitlab.com/tozd/go/errors"

	"github.com/walteh/go-sfc-typer/pkg/document"
	"github.com/walteh/go-sfc-typer/pkg/position"
	"github.com/walteh/go-sfc-typer/pkg/regions"
)

// LanguageRange is a run of the document owned by a single language.
type LanguageRange struct {
	position.Range
	LanguageID string
}

// UnsupportedLangError reports a custom block whose lang has no registered handler.
type UnsupportedLangError struct {
	Tag  string
	Lang string
}

func (e *UnsupportedLangError) Error() string {
	return "unsupported lang \"" + e.Lang + "\" on custom block <" + e.Tag + ">"
}

// SingleLanguageDocument keeps every region whose language is languageID.
func SingleLanguageDocument(doc *document.Document, rs []regions.Region, languageID string) *document.Document {
	return doc.WithText(languageID, mask(doc.Text(), rs, func(r regions.Region) bool {
		return r.LanguageID == languageID
	}))
}

// SingleTypeDocument keeps every region of type t. The result declares the language of the last
// matching region, or the type's default language when nothing matches.
func SingleTypeDocument(doc *document.Document, rs []regions.Region, t regions.Type) *document.Document {
	lang := regions.DefaultLanguage(t)
	for _, r := range rs {
		if r.Type == t {
			lang = r.LanguageID
		}
	}
	return doc.WithText(lang, mask(doc.Text(), rs, func(r regions.Region) bool {
		return r.Type == t
	}))
}

// CustomBlockDocument keeps the custom blocks named tag. Their lang must be one of supported.
func CustomBlockDocument(doc *document.Document, rs []regions.Region, tag string, supported []string) (*document.Document, error) {
	tag = strings.ToLower(tag)
	lang := regions.LanguageUnknown
	for _, r := range rs {
		if r.Type != regions.TypeCustom || r.Tag != tag {
			continue
		}
		if !slices.Contains(supported, r.LanguageID) {
			return nil, errors.WithStack(&UnsupportedLangError{Tag: tag, Lang: r.LanguageID})
		}
		lang = r.LanguageID
	}
	return doc.WithText(lang, mask(doc.Text(), rs, func(r regions.Region) bool {
		return r.Type == regions.TypeCustom && r.Tag == tag
	})), nil
}

// LanguageAtPosition returns the language owning place, or the host language between regions.
func LanguageAtPosition(doc *document.Document, rs []regions.Region, place position.Place) string {
	res := regions.Result{Regions: rs}
	return res.LanguageAtOffset(doc.OffsetAt(place))
}

// LanguageRanges splits rng (the whole document when nil) into per-language runs.
func LanguageRanges(doc *document.Document, rs []regions.Region, rng *position.Range) []LanguageRange {
	var (
		result     []LanguageRange
		currentPos = position.Place{}
		current    = 0
		endOffset  = doc.Len()
	)
	if rng != nil {
		currentPos = rng.Start
		current = doc.OffsetAt(rng.Start)
		endOffset = doc.OffsetAt(rng.End)
	}

	for _, r := range rs {
		if r.End <= current || r.Start >= endOffset {
			continue
		}
		start := max(r.Start, current)
		startPos := doc.PlaceAt(start)
		if current < r.Start {
			result = append(result, LanguageRange{
				Range:      position.Range{Start: currentPos, End: startPos},
				LanguageID: regions.LanguageHost,
			})
		}
		end := min(r.End, endOffset)
		endPos := doc.PlaceAt(end)
		if end > r.Start {
			result = append(result, LanguageRange{
				Range:      position.Range{Start: startPos, End: endPos},
				LanguageID: r.LanguageID,
			})
		}
		current = end
		currentPos = endPos
	}

	if current < endOffset {
		endPos := doc.PlaceAt(endOffset)
		if rng != nil {
			endPos = rng.End
		}
		result = append(result, LanguageRange{
			Range:      position.Range{Start: currentPos, End: endPos},
			LanguageID: regions.LanguageHost,
		})
	}

	return result
}

// mask blanks every byte outside the kept regions, except line breaks.
func mask(text string, rs []regions.Region, keep func(regions.Region) bool) string {
	buf := []byte(text)
	kept := make([]bool, len(buf))
	for _, r := range rs {
		if !keep(r) {
			continue
		}
		s := r.Span().Clamp(len(buf))
		for i := s.Start; i < s.End; i++ {
			kept[i] = true
		}
	}
	for i, c := range buf {
		if kept[i] || c == '\n' || c == '\r' {
			continue
		}
		buf[i] = ' '
	}
	return string(buf)
}
