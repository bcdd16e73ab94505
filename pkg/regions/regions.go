// Package regions splits a single-file component into its top-level blocks.
package regions

import (
	"regexp"
	"strings"

	"github.com/walteh/go-sfc-typer/pkg/position"
	"github.com/walteh/go-sfc-typer/pkg/scanner"
)

// Region is a contiguous, typed block body. Start and End are byte offsets of the
// block content, excluding its open and close tags.
type Region struct {
	LanguageID string
	Type       Type
	Start      int
	End        int
	// Tag is the lowercase block tag name.
	Tag string
}

func (r Region) Span() position.Span {
	return position.Span{Start: r.Start, End: r.End}
}

type Result struct {
	Regions       []Region
	ImportedPaths []string
}

var templateEndRE = regexp.MustCompile(`</template>`)

// Parse scans text once and returns its regions in document order.
func Parse(text string) *Result {
	res := &Result{Regions: []Region{}, ImportedPaths: []string{}}

	s := scanner.New(text, 0, scanner.WithinContent)

	var (
		lastTagName       string
		lastAttributeName string
		pendingLang       string
		depth             int
	)

	for token := s.Scan(); token != scanner.EOS; token = s.Scan() {
		switch token {
		case scanner.Styles:
			res.Regions = append(res.Regions, Region{
				LanguageID: styleLanguage(pendingLang),
				Type:       TypeStyle,
				Start:      s.TokenOffset(),
				End:        s.TokenEnd(),
				Tag:        "style",
			})
			pendingLang = ""

		case scanner.Script:
			lang := pendingLang
			if lang == "" {
				lang = LanguageScripting
			}
			res.Regions = append(res.Regions, Region{
				LanguageID: lang,
				Type:       TypeScript,
				Start:      s.TokenOffset(),
				End:        s.TokenEnd(),
				Tag:        "script",
			})
			pendingLang = ""

		case scanner.StartTag:
			depth++
			tagName := s.TokenText()
			lower := strings.ToLower(tagName)
			if depth == 1 {
				switch {
				case tagName == "template":
					if r, ok := scanBlockRegion(s, text, "template", TypeTemplate); ok {
						res.Regions = append(res.Regions, r)
					}
				case lower != "style" && lower != "script":
					if r, ok := scanBlockRegion(s, text, tagName, TypeCustom); ok {
						res.Regions = append(res.Regions, r)
					}
				}
			}
			lastTagName = lower
			lastAttributeName = ""

		case scanner.AttributeName:
			lastAttributeName = strings.ToLower(s.TokenText())

		case scanner.AttributeValue:
			switch {
			case lastAttributeName == "lang":
				pendingLang = LanguageFromLangAttr(s.TokenText())
			case lastAttributeName == "src" && lastTagName == "script":
				res.ImportedPaths = append(res.ImportedPaths, removeQuotes(s.TokenText()))
			}
			lastAttributeName = ""

		case scanner.StartTagSelfClose, scanner.EndTagClose:
			depth--
			lastAttributeName = ""
			pendingLang = ""
		}
	}

	return res
}

// scanBlockRegion consumes a top-level block up to its matching close tag. The scanner is
// positioned just after the block's tag name. Unterminated blocks yield no region.
func scanBlockRegion(s *scanner.Scanner, text, tagName string, typ Type) (Region, bool) {
	lang := DefaultLanguage(typ)
	closeTag := "</" + tagName + ">"

	var (
		token             = scanner.TokenType(-1)
		started           bool
		start             int
		end               int
		unclosed          = 1
		lastAttributeName string
	)

	for unclosed != 0 {
		// non-html template syntaxes are not scanned, only searched for the terminator
		if typ == TypeTemplate && token == scanner.AttributeValue && lang != LanguageMarkupHTML {
			for token != scanner.StartTagClose && token != scanner.StartTagSelfClose {
				if token = s.Scan(); token == scanner.EOS {
					return Region{}, false
				}
			}
			start = s.TokenEnd()

			if token = s.ScanForRegexp(templateEndRE); token == scanner.EOS {
				return Region{}, false
			}
			for token != scanner.EndTag {
				if token = s.Scan(); token == scanner.EOS {
					return Region{}, false
				}
			}
			end = s.TokenOffset() - 2
			break
		}

		token = s.Scan()
		if token == scanner.EOS {
			return Region{}, false
		}

		if !started {
			switch token {
			case scanner.AttributeName:
				lastAttributeName = strings.ToLower(s.TokenText())
			case scanner.AttributeValue:
				if lastAttributeName == "lang" {
					lang = LanguageFromLangAttr(s.TokenText())
				}
				lastAttributeName = ""
			case scanner.StartTagClose:
				start = s.TokenEnd()
				started = true
			}
			continue
		}

		switch token {
		case scanner.StartTag:
			if s.TokenText() == tagName {
				unclosed++
			}
		case scanner.EndTag:
			if s.TokenText() == tagName {
				unclosed--
				// the scanner sits on the close tag name; step back over "</"
				end = s.TokenOffset() - 2
				// a close tag at the start of a line ends the block
				if before := s.TokenOffset() - 3; before >= 0 && text[before] == '\n' {
					return blockRegion(lang, typ, tagName, start, end), true
				}
			}
		case scanner.Unknown:
			offset := s.TokenOffset()
			if strings.HasPrefix(text[offset:], closeTag) {
				unclosed--
				end = offset
				if offset > 0 && text[offset-1] == '\n' {
					return blockRegion(lang, typ, tagName, start, offset), true
				}
			}
		}
	}

	return blockRegion(lang, typ, tagName, start, end), true
}

func blockRegion(lang string, typ Type, tagName string, start, end int) Region {
	return Region{
		LanguageID: lang,
		Type:       typ,
		Start:      start,
		End:        max(end, start),
		Tag:        strings.ToLower(tagName),
	}
}
