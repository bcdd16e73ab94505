package expr

import (
	"fmt"
	"strings"

	"gitlab.com/tozd/go/errors"

	"github.com/walteh/go-sfc-typer/pkg/position"
)

// SyntaxError reports the first offset at which an expression could not be parsed.
type SyntaxError struct {
	Offset  int
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at offset %d: %s", e.Offset, e.Message)
}

// ParseExpression parses a single expression, commas allowed. base is the offset of src in the
// enclosing document.
func ParseExpression(src string, base int) (Node, error) {
	var out Node
	err := run(src, base, func(p *parser) {
		out = p.parseExpression()
		p.expectEOF()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ParseParams parses a comma separated list of binding patterns, such as a slot scope or the
// alias part of an iteration. Empty input yields no params.
func ParseParams(src string, base int) ([]Node, error) {
	var out []Node
	err := run(src, base, func(p *parser) {
		for p.peek().Kind != EOF {
			out = append(out, p.parseBindingElement())
			if !p.accept(",") {
				break
			}
		}
		p.expectEOF()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ParseStatements parses a handler body: expression and return statements separated by
// semicolons or newlines.
func ParseStatements(src string, base int) ([]Node, error) {
	var out []Node
	err := run(src, base, func(p *parser) {
		for p.peek().Kind != EOF {
			if p.accept(";") {
				continue
			}
			out = append(out, p.parseStatement())
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

type bail struct {
	err *SyntaxError
}

func run(src string, base int, fn func(p *parser)) (err error) {
	toks, err := Tokenize(src, base)
	if err != nil {
		return errors.WithStack(err)
	}

	p := &parser{src: src, base: base, toks: toks, prevEnd: base}

	defer func() {
		if r := recover(); r != nil {
			b, ok := r.(bail)
			if !ok {
				panic(r)
			}
			err = errors.WithStack(b.err)
		}
	}()

	fn(p)
	return nil
}

type parser struct {
	src     string
	base    int
	toks    []Token
	pos     int
	prevEnd int
}

func (p *parser) peek() Token {
	return p.toks[p.pos]
}

func (p *parser) peekAt(n int) Token {
	if i := p.pos + n; i < len(p.toks) {
		return p.toks[i]
	}
	return p.toks[len(p.toks)-1]
}

func (p *parser) next() Token {
	t := p.toks[p.pos]
	if t.Kind != EOF {
		p.pos++
	}
	p.prevEnd = t.Span.End
	return t
}

func isOp(t Token, value string) bool {
	return (t.Kind == Punct || t.Kind == IdentToken) && t.Value == value
}

func (p *parser) is(value string) bool {
	return isOp(p.peek(), value)
}

func (p *parser) accept(value string) bool {
	if p.is(value) {
		p.next()
		return true
	}
	return false
}

func (p *parser) expect(value string) Token {
	if !p.is(value) {
		p.fail(p.peek(), "expected %q", value)
	}
	return p.next()
}

func (p *parser) expectEOF() {
	if t := p.peek(); t.Kind != EOF {
		p.fail(t, "expected end of expression")
	}
}

func (p *parser) fail(at Token, format string, args ...any) {
	found := "end of input"
	if at.Kind != EOF {
		found = fmt.Sprintf("%q", at.Value)
	}
	panic(bail{&SyntaxError{
		Offset:  at.Span.Start,
		Message: fmt.Sprintf(format, args...) + ", found " + found,
	}})
}

func (p *parser) span(start int) position.Span {
	return position.NewSpan(start, p.prevEnd)
}

// newlineBefore reports whether a line break separates the previous token from the current one.
func (p *parser) newlineBefore() bool {
	from := p.prevEnd - p.base
	to := p.peek().Span.Start - p.base
	if from < 0 || to > len(p.src) || from >= to {
		return false
	}
	return strings.ContainsAny(p.src[from:to], "\n\r")
}

func (p *parser) parseStatement() Node {
	start := p.peek().Span.Start

	var stmt Node
	switch {
	case p.is("return"):
		p.next()
		ret := &Return{}
		if !p.is(";") && !p.is("}") && p.peek().Kind != EOF && !p.newlineBefore() {
			ret.X = p.parseExpression()
		}
		ret.Loc = p.span(start)
		stmt = ret
	case p.is("{"):
		return p.parseBlock()
	default:
		x := p.parseExpression()
		stmt = &ExprStmt{X: x, Loc: p.span(start)}
	}

	switch {
	case p.accept(";"), p.is("}"), p.peek().Kind == EOF, p.newlineBefore():
	default:
		p.fail(p.peek(), "expected \";\"")
	}
	return stmt
}

func (p *parser) parseBlock() *Block {
	start := p.expect("{").Span.Start
	block := &Block{}
	for !p.is("}") {
		if p.peek().Kind == EOF {
			p.fail(p.peek(), "expected %q", "}")
		}
		if p.accept(";") {
			continue
		}
		block.Stmts = append(block.Stmts, p.parseStatement())
	}
	p.next()
	block.Loc = p.span(start)
	return block
}

func (p *parser) parseExpression() Node {
	start := p.peek().Span.Start
	x := p.parseAssign()
	if !p.is(",") {
		return x
	}
	seq := &Seq{List: []Node{x}}
	for p.accept(",") {
		seq.List = append(seq.List, p.parseAssign())
	}
	seq.Loc = p.span(start)
	return seq
}

var assignOps = map[string]bool{
	"=": true, "+=": true, "-=": true, "*=": true, "/=": true, "%=": true, "**=": true,
	"<<=": true, ">>=": true, ">>>=": true, "&=": true, "|=": true, "^=": true,
	"&&=": true, "||=": true, "??=": true,
}

func (p *parser) parseAssign() Node {
	if arrow := p.tryArrow(); arrow != nil {
		return arrow
	}

	start := p.peek().Span.Start
	left := p.parseConditional()

	if t := p.peek(); t.Kind == Punct && assignOps[t.Value] {
		p.next()
		value := p.parseAssign()
		return &Assign{Op: t.Value, Target: left, Value: value, Loc: p.span(start)}
	}
	return left
}

// tryArrow parses an arrow function if one starts at the current token.
func (p *parser) tryArrow() Node {
	start := p.peek().Span.Start
	offset := 0
	async := false
	if p.is("async") && !p.peekAt(1).isOp("=>") && (p.peekAt(1).Kind == IdentToken || p.peekAt(1).isOp("(")) {
		async = true
		offset = 1
	}

	t := p.peekAt(offset)
	switch {
	case t.Kind == IdentToken && p.peekAt(offset+1).isOp("=>"):
		if async {
			p.next()
		}
		id := p.next()
		p.next()
		params := []Node{&Ident{Name: id.Value, Loc: id.Span}}
		return p.finishArrow(start, async, params)
	case t.isOp("("):
		closing := p.matching(p.pos + offset)
		if closing < 0 || !p.tokAt(closing+1).isOp("=>") {
			return nil
		}
		if async {
			p.next()
		}
		p.next()
		var params []Node
		for !p.is(")") {
			params = append(params, p.parseBindingElement())
			if !p.accept(",") {
				break
			}
		}
		p.expect(")")
		p.expect("=>")
		return p.finishArrow(start, async, params)
	}
	return nil
}

func (p *parser) finishArrow(start int, async bool, params []Node) Node {
	arrow := &Arrow{Async: async, Params: params}
	if p.is("{") {
		arrow.Body = p.parseBlock()
	} else {
		arrow.Body = p.parseAssign()
	}
	arrow.Loc = p.span(start)
	return arrow
}

func (t Token) isOp(value string) bool {
	return isOp(t, value)
}

func (p *parser) tokAt(i int) Token {
	if i < len(p.toks) {
		return p.toks[i]
	}
	return p.toks[len(p.toks)-1]
}

// matching returns the index of the bracket closing the one at index i, or -1.
func (p *parser) matching(i int) int {
	depth := 0
	for ; i < len(p.toks); i++ {
		t := p.toks[i]
		if t.Kind != Punct {
			continue
		}
		switch t.Value {
		case "(", "[", "{":
			depth++
		case ")", "]", "}":
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func (p *parser) parseBindingElement() Node {
	start := p.peek().Span.Start
	if p.accept("...") {
		x := p.parseAssign()
		return &Spread{X: x, Loc: p.span(start)}
	}
	return p.parseAssign()
}

func (p *parser) parseConditional() Node {
	start := p.peek().Span.Start
	test := p.parseBinary(1)
	if !p.accept("?") {
		return test
	}
	then := p.parseAssign()
	p.expect(":")
	els := p.parseAssign()
	return &Cond{Test: test, Then: then, Else: els, Loc: p.span(start)}
}

var binaryPrec = map[string]int{
	"??": 4, "||": 4, "&&": 5, "|": 6, "^": 7, "&": 8,
	"==": 9, "!=": 9, "===": 9, "!==": 9,
	"<": 10, ">": 10, "<=": 10, ">=": 10, "instanceof": 10, "in": 10,
	"<<": 11, ">>": 11, ">>>": 11,
	"+": 12, "-": 12,
	"*": 13, "/": 13, "%": 13,
	"**": 14,
}

func binaryOp(t Token) (string, int, bool) {
	switch t.Kind {
	case Punct:
	case IdentToken:
		if t.Value != "in" && t.Value != "instanceof" {
			return "", 0, false
		}
	default:
		return "", 0, false
	}
	prec, ok := binaryPrec[t.Value]
	return t.Value, prec, ok
}

func (p *parser) parseBinary(minPrec int) Node {
	start := p.peek().Span.Start
	left := p.parseUnary()
	for {
		op, prec, ok := binaryOp(p.peek())
		if !ok || prec < minPrec {
			return left
		}
		p.next()
		nextMin := prec + 1
		if op == "**" {
			nextMin = prec
		}
		right := p.parseBinary(nextMin)
		left = &Binary{Op: op, X: left, Y: right, Loc: p.span(start)}
	}
}

var unaryOps = map[string]bool{
	"!": true, "~": true, "+": true, "-": true,
	"typeof": true, "void": true, "delete": true, "await": true,
}

func (p *parser) parseUnary() Node {
	t := p.peek()
	start := t.Span.Start

	if (t.Kind == Punct || t.Kind == IdentToken) && unaryOps[t.Value] {
		p.next()
		x := p.parseUnary()
		return &Unary{Op: t.Value, X: x, Loc: p.span(start)}
	}
	if t.isOp("++") || t.isOp("--") {
		p.next()
		x := p.parseUnary()
		return &Update{Op: t.Value, X: x, Prefix: true, Loc: p.span(start)}
	}

	x := p.parseCallOrMember()
	if (p.is("++") || p.is("--")) && !p.newlineBefore() {
		op := p.next()
		return &Update{Op: op.Value, X: x, Loc: p.span(start)}
	}
	return x
}

func (p *parser) parseCallOrMember() Node {
	start := p.peek().Span.Start
	var x Node
	if p.is("new") {
		x = p.parseNew()
	} else {
		x = p.parsePrimary()
	}
	return p.parseTail(start, x, true)
}

// parseTail parses member accesses and, when calls is set, call arguments following x.
func (p *parser) parseTail(start int, x Node, calls bool) Node {
	for {
		switch {
		case p.is("."):
			p.next()
			prop := p.propertyName()
			x = &Member{Object: x, Prop: prop, Loc: p.span(start)}
		case p.is("?."):
			p.next()
			switch {
			case p.is("("):
				args := p.parseArgs()
				x = &Call{Callee: x, Args: args, Optional: true, Loc: p.span(start)}
			case p.is("["):
				p.next()
				prop := p.parseExpression()
				p.expect("]")
				x = &Member{Object: x, Prop: prop, Computed: true, Optional: true, Loc: p.span(start)}
			default:
				prop := p.propertyName()
				x = &Member{Object: x, Prop: prop, Optional: true, Loc: p.span(start)}
			}
		case p.is("["):
			p.next()
			prop := p.parseExpression()
			p.expect("]")
			x = &Member{Object: x, Prop: prop, Computed: true, Loc: p.span(start)}
		case calls && p.is("("):
			args := p.parseArgs()
			x = &Call{Callee: x, Args: args, Loc: p.span(start)}
		default:
			return x
		}
	}
}

func (p *parser) propertyName() *Ident {
	t := p.peek()
	if t.Kind != IdentToken {
		p.fail(t, "expected property name")
	}
	p.next()
	return &Ident{Name: t.Value, Loc: t.Span}
}

func (p *parser) parseNew() Node {
	start := p.expect("new").Span.Start
	var callee Node
	if p.is("new") {
		callee = p.parseNew()
	} else {
		callee = p.parseTail(p.peek().Span.Start, p.parsePrimary(), false)
	}
	n := &New{Callee: callee}
	if p.is("(") {
		n.Args = p.parseArgs()
	}
	n.Loc = p.span(start)
	return n
}

func (p *parser) parseArgs() []Node {
	p.expect("(")
	var args []Node
	for !p.is(")") {
		args = append(args, p.parseBindingElement())
		if !p.accept(",") {
			break
		}
	}
	p.expect(")")
	return args
}

func (p *parser) parsePrimary() Node {
	t := p.peek()
	switch t.Kind {
	case Number:
		p.next()
		return &Literal{Kind: NumberLit, Raw: t.Value, Loc: t.Span}
	case String:
		p.next()
		return &Literal{Kind: StringLit, Raw: t.Value, Loc: t.Span}
	case Template:
		p.next()
		return p.parseTemplate(t)
	case IdentToken:
		switch t.Value {
		case "this":
			p.next()
			return &This{Loc: t.Span}
		case "true", "false":
			p.next()
			return &Literal{Kind: BoolLit, Raw: t.Value, Loc: t.Span}
		case "null":
			p.next()
			return &Literal{Kind: NullLit, Raw: t.Value, Loc: t.Span}
		case "function":
			return p.parseFunction(t.Span.Start, false)
		case "async":
			if p.peekAt(1).isOp("function") {
				p.next()
				return p.parseFunction(t.Span.Start, true)
			}
		case "in", "instanceof", "class", "new", "return", "typeof", "void", "delete":
			p.fail(t, "unexpected keyword")
		}
		p.next()
		return &Ident{Name: t.Value, Loc: t.Span}
	case Punct:
		switch t.Value {
		case "(":
			p.next()
			x := p.parseExpression()
			p.expect(")")
			return &Paren{X: x, Loc: p.span(t.Span.Start)}
		case "[":
			return p.parseArray()
		case "{":
			return p.parseObject()
		}
	}
	p.fail(t, "expected expression")
	return nil
}

func (p *parser) parseFunction(start int, async bool) Node {
	p.expect("function")
	fn := &Func{Async: async}
	if t := p.peek(); t.Kind == IdentToken {
		p.next()
		fn.Name = &Ident{Name: t.Value, Loc: t.Span}
	}
	fn.Params = p.parseParamList()
	fn.Body = p.parseBlock()
	fn.Loc = p.span(start)
	return fn
}

func (p *parser) parseParamList() []Node {
	p.expect("(")
	var params []Node
	for !p.is(")") {
		params = append(params, p.parseBindingElement())
		if !p.accept(",") {
			break
		}
	}
	p.expect(")")
	return params
}

func (p *parser) parseArray() Node {
	start := p.expect("[").Span.Start
	arr := &Array{}
	for !p.is("]") {
		if p.is(",") {
			p.next()
			arr.Elems = append(arr.Elems, nil)
			continue
		}
		arr.Elems = append(arr.Elems, p.parseBindingElement())
		if !p.accept(",") {
			break
		}
	}
	p.expect("]")
	arr.Loc = p.span(start)
	return arr
}

func (p *parser) parseObject() Node {
	start := p.expect("{").Span.Start
	obj := &Object{}
	for !p.is("}") {
		obj.Props = append(obj.Props, p.parseProperty())
		if !p.accept(",") {
			break
		}
	}
	p.expect("}")
	obj.Loc = p.span(start)
	return obj
}

func (p *parser) parseProperty() *Property {
	t := p.peek()
	start := t.Span.Start
	prop := &Property{}

	if p.accept("...") {
		prop.Spread = true
		prop.Value = p.parseAssign()
		prop.Loc = p.span(start)
		return prop
	}

	switch {
	case t.isOp("["):
		p.next()
		prop.Computed = true
		prop.Key = p.parseAssign()
		p.expect("]")
	case t.Kind == IdentToken:
		p.next()
		prop.Key = &Ident{Name: t.Value, Loc: t.Span}
	case t.Kind == String:
		p.next()
		prop.Key = &Literal{Kind: StringLit, Raw: t.Value, Loc: t.Span}
	case t.Kind == Number:
		p.next()
		prop.Key = &Literal{Kind: NumberLit, Raw: t.Value, Loc: t.Span}
	default:
		p.fail(t, "expected property key")
	}

	switch {
	case p.accept(":"):
		prop.Value = p.parseAssign()
	case p.is("("):
		fn := &Func{Params: p.parseParamList()}
		fn.Body = p.parseBlock()
		fn.Loc = p.span(start)
		prop.Method = true
		prop.Value = fn
	case t.Kind == IdentToken && !prop.Computed:
		id := &Ident{Name: t.Value, Loc: t.Span}
		prop.Shorthand = true
		prop.Value = id
		if p.accept("=") {
			def := p.parseAssign()
			prop.Value = &Assign{Op: "=", Target: id, Value: def, Loc: p.span(start)}
		}
	default:
		p.fail(p.peek(), "expected %q", ":")
	}

	prop.Loc = p.span(start)
	return prop
}

// parseTemplate splits a template literal token into its text chunks and parses every
// substitution in place.
func (p *parser) parseTemplate(t Token) Node {
	lit := &TemplateLit{Loc: t.Span}
	raw := t.Value
	body := raw[1 : len(raw)-1]
	bodyStart := t.Span.Start + 1

	chunkStart := 0
	for i := 0; i < len(body); i++ {
		switch {
		case body[i] == '\\':
			i++
		case body[i] == '$' && i+1 < len(body) && body[i+1] == '{':
			end := substitutionEnd(body, i+2)
			if end < 0 {
				panic(bail{&SyntaxError{Offset: bodyStart + i, Message: "unterminated template substitution"}})
			}
			lit.Quasis = append(lit.Quasis, body[chunkStart:i])
			x, err := ParseExpression(body[i+2:end], bodyStart+i+2)
			if err != nil {
				var se *SyntaxError
				if errors.As(err, &se) {
					panic(bail{se})
				}
				panic(bail{&SyntaxError{Offset: bodyStart + i, Message: err.Error()}})
			}
			lit.Exprs = append(lit.Exprs, x)
			i = end
			chunkStart = end + 1
		}
	}
	lit.Quasis = append(lit.Quasis, body[chunkStart:])
	return lit
}

// substitutionEnd finds the "}" closing a substitution whose body starts at from.
func substitutionEnd(s string, from int) int {
	depth := 0
	var quote byte
	for i := from; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			switch c {
			case '\\':
				i++
			case quote:
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
		case '{':
			depth++
		case '}':
			if depth == 0 {
				return i
			}
			depth--
		}
	}
	return -1
}
