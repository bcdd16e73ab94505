// Package scanner tokenizes markup text. It knows nothing about the sub-languages embedded in it:
// script and style bodies come back as single opaque tokens.
package scanner

import (
	"regexp"
	"strings"
)

var (
	elementNameRE    = regexp.MustCompile(`^[_:\w][_:\w\-.\d]*`)
	attributeNameRE  = regexp.MustCompile(`^[^\s"'<>/=\x00-\x0F\x7F\x{80}-\x{9F}]*`)
	unquotedValueRE  = regexp.MustCompile("^[^\\s\"'`=<>/]+")
	doctypeRE        = regexp.MustCompile(`(?i)^!doctype`)
	contentStopRE    = regexp.MustCompile(`<|\{\{`)
	scriptBoundaryRE = regexp.MustCompile(`(?i)<!--|-->|</?script\s*/?>?`)
	styleEndRE       = regexp.MustCompile(`(?i)</style`)
)

// script types whose body is markup rather than script
var htmlScriptContents = map[string]bool{
	"text/x-handlebars-template": true,
}

// Scanner is a single-pass cursor over an immutable text.
type Scanner struct {
	src   string
	pos   int
	state State

	tokenOffset int
	tokenType   TokenType
	tokenError  string

	hasSpaceAfterTag  bool
	lastTag           string
	lastAttributeName string
	lastTypeValue     string
}

func New(src string, initialOffset int, initialState State) *Scanner {
	return &Scanner{
		src:   src,
		pos:   initialOffset,
		state: initialState,
	}
}

func (s *Scanner) TokenType() TokenType { return s.tokenType }
func (s *Scanner) TokenOffset() int     { return s.tokenOffset }
func (s *Scanner) TokenLength() int     { return s.pos - s.tokenOffset }
func (s *Scanner) TokenEnd() int        { return s.pos }
func (s *Scanner) TokenText() string    { return s.src[s.tokenOffset:s.pos] }
func (s *Scanner) TokenError() string   { return s.tokenError }
func (s *Scanner) State() State         { return s.state }

// Scan advances to the next token. A state that fails to consume input is forced forward one byte
// and reported as Unknown so callers can never loop forever.
func (s *Scanner) Scan() TokenType {
	offset := s.pos
	token := s.internalScan()
	if token != EOS && offset == s.pos {
		s.advance(1)
		return s.finish(offset, Unknown, "scanner did not advance")
	}
	return token
}

// ScanForRegexp skips to the next match of re. It reports Unknown when a match was found and EOS otherwise.
func (s *Scanner) ScanForRegexp(re *regexp.Regexp) TokenType {
	offset := s.pos
	s.state = WithinContent
	if s.advanceUntilRegexp(re) != "" {
		return s.finish(offset, Unknown, "")
	}
	return s.finish(offset, EOS, "")
}

func (s *Scanner) finish(offset int, t TokenType, errorMessage string) TokenType {
	s.tokenType = t
	s.tokenOffset = offset
	s.tokenError = errorMessage
	return t
}

func (s *Scanner) internalScan() TokenType {
	offset := s.pos
	if s.eos() {
		return s.finish(offset, EOS, "")
	}

	errorMessage := ""

	switch s.state {
	case WithinComment:
		if s.advanceIfString("-->") {
			s.state = WithinContent
			return s.finish(offset, EndCommentTag, "")
		}
		s.advanceUntilString("-->")
		return s.finish(offset, Comment, "")

	case WithinDoctype:
		if s.advanceIfByte('>') {
			s.state = WithinContent
			return s.finish(offset, EndDoctypeTag, "")
		}
		s.advanceUntilByte('>')
		return s.finish(offset, Doctype, "")

	case WithinContent:
		if s.advanceIfByte('<') {
			if !s.eos() && s.peek(0) == '!' {
				if s.advanceIfString("!--") {
					s.state = WithinComment
					return s.finish(offset, StartCommentTag, "")
				}
				if s.advanceIfRegexp(doctypeRE) != "" {
					s.state = WithinDoctype
					return s.finish(offset, StartDoctypeTag, "")
				}
			}
			if s.advanceIfByte('/') {
				s.state = AfterOpeningEndTag
				return s.finish(offset, EndTagOpen, "")
			}
			s.state = AfterOpeningStartTag
			return s.finish(offset, StartTagOpen, "")
		}
		if s.advanceIfString("{{") {
			s.state = WithinInterpolation
			return s.finish(offset, StartInterpolation, "")
		}
		s.advanceUntilRegexp(contentStopRE)
		return s.finish(offset, Content, "")

	case WithinInterpolation:
		if s.advanceIfString("}}") {
			s.state = WithinContent
			return s.finish(offset, EndInterpolation, "")
		}
		s.advanceUntilString("}}")
		return s.finish(offset, InterpolationContent, "")

	case AfterOpeningEndTag:
		if s.nextElementName() != "" {
			s.state = WithinEndTag
			return s.finish(offset, EndTag, "")
		}
		if s.skipWhitespace() {
			return s.finish(offset, Whitespace, "Tag name must directly follow the open bracket.")
		}
		s.state = WithinEndTag
		s.advanceUntilByte('>')
		if offset < s.pos {
			return s.finish(offset, Unknown, "End tag name expected.")
		}
		return s.internalScan()

	case WithinEndTag:
		if s.skipWhitespace() {
			return s.finish(offset, Whitespace, "")
		}
		if s.advanceIfByte('>') {
			s.state = WithinContent
			return s.finish(offset, EndTagClose, "")
		}
		errorMessage = "Closing bracket expected."

	case AfterOpeningStartTag:
		s.lastTag = strings.ToLower(s.nextElementName())
		s.lastTypeValue = ""
		s.lastAttributeName = ""
		if s.lastTag != "" {
			s.hasSpaceAfterTag = false
			s.state = WithinTag
			return s.finish(offset, StartTag, "")
		}
		if s.skipWhitespace() {
			return s.finish(offset, Whitespace, "Tag name must directly follow the open bracket.")
		}
		s.state = WithinTag
		s.advanceUntilByte('>')
		if offset < s.pos {
			return s.finish(offset, Unknown, "Start tag name expected.")
		}
		return s.internalScan()

	case WithinTag:
		if s.skipWhitespace() {
			s.hasSpaceAfterTag = true
			return s.finish(offset, Whitespace, "")
		}
		if s.hasSpaceAfterTag {
			s.lastAttributeName = strings.ToLower(s.advanceIfRegexp(attributeNameRE))
			if s.lastAttributeName != "" {
				s.state = AfterAttributeName
				s.hasSpaceAfterTag = false
				return s.finish(offset, AttributeName, "")
			}
		}
		if s.advanceIfString("/>") {
			s.state = WithinContent
			return s.finish(offset, StartTagSelfClose, "")
		}
		if s.advanceIfByte('>') {
			switch {
			case s.lastTag == "script" && !htmlScriptContents[s.lastTypeValue]:
				s.state = WithinScriptContent
			case s.lastTag == "style":
				s.state = WithinStyleContent
			default:
				s.state = WithinContent
			}
			return s.finish(offset, StartTagClose, "")
		}
		s.advance(1)
		return s.finish(offset, Unknown, "Unexpected character in tag.")

	case AfterAttributeName:
		if s.skipWhitespace() {
			s.hasSpaceAfterTag = true
			return s.finish(offset, Whitespace, "")
		}
		if s.advanceIfByte('=') {
			s.state = BeforeAttributeValue
			return s.finish(offset, DelimiterAssign, "")
		}
		s.state = WithinTag
		return s.internalScan()

	case BeforeAttributeValue:
		if s.skipWhitespace() {
			return s.finish(offset, Whitespace, "")
		}
		if value := s.advanceIfRegexp(unquotedValueRE); value != "" {
			if s.lastAttributeName == "type" {
				s.lastTypeValue = value
			}
			s.state = WithinTag
			s.hasSpaceAfterTag = false
			return s.finish(offset, AttributeValue, "")
		}
		if ch := s.peek(0); ch == '\'' || ch == '"' {
			s.advance(1)
			if s.advanceUntilByte(ch) {
				s.advance(1)
			}
			if s.lastAttributeName == "type" {
				s.lastTypeValue = strings.Trim(s.src[offset:s.pos], string(ch))
			}
			s.state = WithinTag
			s.hasSpaceAfterTag = false
			return s.finish(offset, AttributeValue, "")
		}
		s.state = WithinTag
		s.hasSpaceAfterTag = false
		return s.internalScan()

	case WithinScriptContent:
		s.scanScriptBody()
		s.state = WithinContent
		if offset < s.pos {
			return s.finish(offset, Script, "")
		}
		return s.internalScan()

	case WithinStyleContent:
		s.advanceUntilRegexp(styleEndRE)
		s.state = WithinContent
		if offset < s.pos {
			return s.finish(offset, Styles, "")
		}
		return s.internalScan()
	}

	s.advance(1)
	s.state = WithinContent
	return s.finish(offset, Unknown, errorMessage)
}

// scanScriptBody moves to the start of the closing script tag, honouring the
// escaped "<!-- <script> -->" states browsers apply to script bodies.
func (s *Scanner) scanScriptBody() {
	escape := 1
	for !s.eos() {
		match := s.advanceIfRegexp(scriptBoundaryRE)
		switch {
		case match == "":
			s.pos = len(s.src)
			return
		case match == "<!--":
			if escape == 1 {
				escape = 2
			}
		case match == "-->":
			escape = 1
		case match[1] != '/':
			if escape == 2 {
				escape = 3
			}
		default:
			if escape == 3 {
				escape = 2
				continue
			}
			s.pos -= len(match)
			return
		}
	}
}
