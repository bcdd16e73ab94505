package expr

import (
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/walteh/go-sfc-typer/pkg/position"
)

// Lexer tokenizes JavaScript expression source. Regular expression literals are not recognised;
// a leading "/" lexes as punctuation and fails to parse.
var Lexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `//[^\n]*|/\*[\s\S]*?\*/`},
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "Template", Pattern: "`(?:\\\\[\\s\\S]|[^`\\\\])*`"},
	{Name: "String", Pattern: `"(?:\\[\s\S]|[^"\\\n])*"|'(?:\\[\s\S]|[^'\\\n])*'`},
	{Name: "Number", Pattern: `0[xX][0-9a-fA-F_]+n?|0[bB][01_]+n?|0[oO][0-7_]+n?|(?:\d[\d_]*(?:\.[\d_]*)?|\.\d[\d_]*)(?:[eE][+-]?\d+)?n?`},
	{Name: "Ident", Pattern: `[\p{L}_$][\p{L}\p{N}_$]*`},
	{Name: "Punct", Pattern: `>>>=|\.\.\.|===|!==|\*\*=|<<=|>>=|>>>|\?\?=|&&=|\|\|=|=>|==|!=|<=|>=|&&|\|\||\?\?|\?\.|\+\+|--|\*\*|<<|>>|\+=|-=|\*=|/=|%=|&=|\|=|\^=|[{}()\[\];,<>+\-*/%&|^!~?:=.@#]`},
})

type Kind int

const (
	EOF Kind = iota
	IdentToken
	Number
	String
	Template
	Punct
)

func (k Kind) String() string {
	switch k {
	case EOF:
		return "EOF"
	case IdentToken:
		return "Ident"
	case Number:
		return "Number"
	case String:
		return "String"
	case Template:
		return "Template"
	default:
		return "Punct"
	}
}

type Token struct {
	Kind  Kind
	Value string
	Span  position.Span
}

var kindBySymbol = func() map[lexer.TokenType]Kind {
	symbols := Lexer.Symbols()
	return map[lexer.TokenType]Kind{
		symbols["Ident"]:    IdentToken,
		symbols["Number"]:   Number,
		symbols["String"]:   String,
		symbols["Template"]: Template,
		symbols["Punct"]:    Punct,
	}
}()

var skipped = func() map[lexer.TokenType]bool {
	symbols := Lexer.Symbols()
	return map[lexer.TokenType]bool{
		symbols["Comment"]:    true,
		symbols["Whitespace"]: true,
	}
}()

// Tokenize lexes src, dropping whitespace and comments. Spans are shifted by base so they
// address the document src was taken from.
func Tokenize(src string, base int) ([]Token, error) {
	lex, err := Lexer.LexString("", src)
	if err != nil {
		return nil, &SyntaxError{Offset: base, Message: err.Error()}
	}

	var toks []Token
	for {
		tok, err := lex.Next()
		if err != nil {
			offset := base
			if lerr, ok := err.(*lexer.Error); ok {
				offset += lerr.Pos.Offset
			}
			return nil, &SyntaxError{Offset: offset, Message: err.Error()}
		}
		if tok.EOF() {
			toks = append(toks, Token{Kind: EOF, Span: position.Point(base + len(src))})
			return toks, nil
		}
		if skipped[tok.Type] {
			continue
		}
		start := base + tok.Pos.Offset
		toks = append(toks, Token{
			Kind:  kindBySymbol[tok.Type],
			Value: tok.Value,
			Span:  position.NewSpan(start, start+len(tok.Value)),
		})
	}
}
