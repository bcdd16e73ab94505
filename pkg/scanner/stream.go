package scanner

import (
	"regexp"
	"strings"
)

func (s *Scanner) eos() bool {
	return s.pos >= len(s.src)
}

func (s *Scanner) advance(n int) {
	s.pos = min(s.pos+n, len(s.src))
}

func (s *Scanner) peek(n int) byte {
	if s.pos+n >= len(s.src) || s.pos+n < 0 {
		return 0
	}
	return s.src[s.pos+n]
}

func (s *Scanner) advanceIfByte(ch byte) bool {
	if s.peek(0) == ch && !s.eos() {
		s.pos++
		return true
	}
	return false
}

func (s *Scanner) advanceIfString(str string) bool {
	if strings.HasPrefix(s.src[s.pos:], str) {
		s.pos += len(str)
		return true
	}
	return false
}

// advanceIfRegexp consumes the first match of re at or after the cursor.
func (s *Scanner) advanceIfRegexp(re *regexp.Regexp) string {
	loc := re.FindStringIndex(s.src[s.pos:])
	if loc == nil {
		return ""
	}
	match := s.src[s.pos+loc[0] : s.pos+loc[1]]
	s.pos += loc[1]
	return match
}

// advanceUntilRegexp moves to the start of the next match of re, or to the end of input.
func (s *Scanner) advanceUntilRegexp(re *regexp.Regexp) string {
	loc := re.FindStringIndex(s.src[s.pos:])
	if loc == nil {
		s.pos = len(s.src)
		return ""
	}
	match := s.src[s.pos+loc[0] : s.pos+loc[1]]
	s.pos += loc[0]
	return match
}

func (s *Scanner) advanceUntilByte(ch byte) bool {
	if i := strings.IndexByte(s.src[s.pos:], ch); i >= 0 {
		s.pos += i
		return true
	}
	s.pos = len(s.src)
	return false
}

func (s *Scanner) advanceUntilString(str string) bool {
	if i := strings.Index(s.src[s.pos:], str); i >= 0 {
		s.pos += i
		return true
	}
	s.pos = len(s.src)
	return false
}

func (s *Scanner) skipWhitespace() bool {
	start := s.pos
	for s.pos < len(s.src) {
		switch s.src[s.pos] {
		case ' ', '\t', '\n', '\f', '\r':
			s.pos++
			continue
		}
		break
	}
	return s.pos > start
}

func (s *Scanner) nextElementName() string {
	return s.advanceIfRegexp(elementNameRE)
}
