package expr

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/walteh/go-sfc-typer/pkg/position"
)

// Mapping ties a range of printed output to the source range of the node it was printed from.
type Mapping struct {
	Generated position.Span
	Original  position.Span
	// Receiver marks the property access synthesized for a free identifier.
	Receiver bool
}

// Printer renders nodes as JavaScript and records a Mapping for every node that covers source.
type Printer struct {
	b        strings.Builder
	mappings []Mapping
}

// Print renders n on its own.
func Print(n Node) (string, []Mapping) {
	var p Printer
	p.Node(n)
	return p.String(), p.Mappings()
}

func (p *Printer) String() string {
	return p.b.String()
}

func (p *Printer) Mappings() []Mapping {
	return p.mappings
}

// Raw writes text that maps to nothing.
func (p *Printer) Raw(text string) {
	p.b.WriteString(text)
}

// Node prints n as an expression at the lowest precedence.
func (p *Printer) Node(n Node) {
	p.expr(n, 0)
}

// Statement prints n followed by a terminator when it is a statement.
func (p *Printer) Statement(n Node) {
	p.stmt(n)
}

const (
	precSeq     = 1
	precAssign  = 2
	precCond    = 3
	precUnary   = 15
	precPostfix = 16
	precCall    = 17
	precPrimary = 20
)

func precedence(n Node) int {
	switch n := n.(type) {
	case *Seq:
		return precSeq
	case *Assign, *Arrow, *Spread:
		return precAssign
	case *Cond:
		return precCond
	case *Binary:
		return binaryPrec[n.Op]
	case *Unary:
		return precUnary
	case *Update:
		if n.Prefix {
			return precUnary
		}
		return precPostfix
	case *Call, *Member, *New:
		return precCall
	default:
		return precPrimary
	}
}

func (p *Printer) expr(n Node, minPrec int) {
	if n == nil {
		return
	}
	wrap := precedence(n) < minPrec
	if wrap {
		p.b.WriteByte('(')
	}

	start := p.b.Len()
	p.print(n)

	if loc := n.Span(); !loc.IsEmpty() {
		m := Mapping{Generated: position.NewSpan(start, p.b.Len()), Original: loc}
		if mem, ok := n.(*Member); ok && mem.Implicit {
			m.Receiver = true
		}
		p.mappings = append(p.mappings, m)
	}

	if wrap {
		p.b.WriteByte(')')
	}
}

func (p *Printer) list(nodes []Node, minPrec int) {
	for i, n := range nodes {
		if i > 0 {
			p.b.WriteString(", ")
		}
		p.expr(n, minPrec)
	}
}

func (p *Printer) print(n Node) {
	switch n := n.(type) {
	case *Ident:
		p.b.WriteString(n.Name)
	case *This:
		p.b.WriteString("this")
	case *Literal:
		p.b.WriteString(n.Raw)
	case *TemplateLit:
		p.b.WriteByte('`')
		for i, q := range n.Quasis {
			p.b.WriteString(q)
			if i < len(n.Exprs) {
				p.b.WriteString("${")
				p.expr(n.Exprs[i], 0)
				p.b.WriteByte('}')
			}
		}
		p.b.WriteByte('`')
	case *Array:
		p.b.WriteByte('[')
		for i, e := range n.Elems {
			if i > 0 {
				p.b.WriteString(", ")
			}
			p.expr(e, precAssign)
		}
		if len(n.Elems) > 0 && n.Elems[len(n.Elems)-1] == nil {
			p.b.WriteByte(',')
		}
		p.b.WriteByte(']')
	case *Object:
		if len(n.Props) == 0 {
			p.b.WriteString("{}")
			return
		}
		p.b.WriteString("{ ")
		for i, prop := range n.Props {
			if i > 0 {
				p.b.WriteString(", ")
			}
			p.expr(prop, 0)
		}
		p.b.WriteString(" }")
	case *Property:
		p.property(n)
	case *Member:
		p.expr(n.Object, precCall)
		switch {
		case n.Computed:
			if n.Optional {
				p.b.WriteString("?.")
			}
			p.b.WriteByte('[')
			p.expr(n.Prop, 0)
			p.b.WriteByte(']')
		default:
			if n.Optional {
				p.b.WriteString("?.")
			} else {
				p.b.WriteByte('.')
			}
			p.expr(n.Prop, precPrimary)
		}
	case *Call:
		p.expr(n.Callee, precCall)
		if n.Optional {
			p.b.WriteString("?.")
		}
		p.b.WriteByte('(')
		p.list(n.Args, precAssign)
		p.b.WriteByte(')')
	case *New:
		p.b.WriteString("new ")
		if hasCall(n.Callee) {
			p.expr(n.Callee, precPrimary)
		} else {
			p.expr(n.Callee, precCall)
		}
		p.b.WriteByte('(')
		p.list(n.Args, precAssign)
		p.b.WriteByte(')')
	case *Unary:
		p.b.WriteString(n.Op)
		if isWordOp(n.Op) {
			p.b.WriteByte(' ')
		} else if inner, ok := n.X.(*Unary); ok && (inner.Op == n.Op || strings.HasPrefix(inner.Op, n.Op)) {
			p.b.WriteByte(' ')
		}
		p.expr(n.X, precUnary)
	case *Update:
		if n.Prefix {
			p.b.WriteString(n.Op)
			p.expr(n.X, precUnary)
		} else {
			p.expr(n.X, precCall)
			p.b.WriteString(n.Op)
		}
	case *Binary:
		prec := binaryPrec[n.Op]
		left, right := prec, prec+1
		if n.Op == "**" {
			left, right = prec+1, prec
		}
		p.expr(n.X, left)
		p.b.WriteString(" " + n.Op + " ")
		p.expr(n.Y, right)
	case *Assign:
		p.expr(n.Target, precCond)
		p.b.WriteString(" " + n.Op + " ")
		p.expr(n.Value, precAssign)
	case *Cond:
		p.expr(n.Test, precCond+1)
		p.b.WriteString(" ? ")
		p.expr(n.Then, precAssign)
		p.b.WriteString(" : ")
		p.expr(n.Else, precAssign)
	case *Arrow:
		if n.Async {
			p.b.WriteString("async ")
		}
		p.b.WriteByte('(')
		p.list(n.Params, precAssign)
		p.b.WriteString(") => ")
		if _, ok := n.Body.(*Object); ok {
			p.b.WriteByte('(')
			p.expr(n.Body, 0)
			p.b.WriteByte(')')
		} else {
			p.expr(n.Body, precAssign)
		}
	case *Func:
		if n.Async {
			p.b.WriteString("async ")
		}
		p.b.WriteString("function ")
		if n.Name != nil {
			p.expr(n.Name, precPrimary)
		}
		p.b.WriteByte('(')
		p.list(n.Params, precAssign)
		p.b.WriteString(") ")
		p.expr(n.Body, 0)
	case *Spread:
		p.b.WriteString("...")
		p.expr(n.X, precAssign)
	case *Paren:
		p.b.WriteByte('(')
		p.expr(n.X, 0)
		p.b.WriteByte(')')
	case *Seq:
		p.list(n.List, precAssign)
	case *Block:
		if len(n.Stmts) == 0 {
			p.b.WriteString("{}")
			return
		}
		p.b.WriteString("{ ")
		for _, s := range n.Stmts {
			p.stmt(s)
			p.b.WriteByte(' ')
		}
		p.b.WriteByte('}')
	case *ExprStmt, *Return:
		p.stmt(n)
	default:
		panic(fmt.Sprintf("expr: cannot print %T", n))
	}
}

func (p *Printer) stmt(n Node) {
	switch n := n.(type) {
	case *ExprStmt:
		start := p.b.Len()
		switch n.X.(type) {
		case *Object, *Func:
			p.b.WriteByte('(')
			p.expr(n.X, 0)
			p.b.WriteByte(')')
		default:
			p.expr(n.X, 0)
		}
		p.b.WriteByte(';')
		p.mapStatement(n, start)
	case *Return:
		start := p.b.Len()
		p.b.WriteString("return")
		if n.X != nil {
			p.b.WriteByte(' ')
			p.expr(n.X, 0)
		}
		p.b.WriteByte(';')
		p.mapStatement(n, start)
	default:
		p.expr(n, 0)
	}
}

func (p *Printer) mapStatement(n Node, start int) {
	if loc := n.Span(); !loc.IsEmpty() {
		p.mappings = append(p.mappings, Mapping{Generated: position.NewSpan(start, p.b.Len()), Original: loc})
	}
}

func (p *Printer) property(n *Property) {
	switch {
	case n.Spread:
		p.b.WriteString("...")
		p.expr(n.Value, precAssign)
	case n.Shorthand:
		p.expr(n.Value, precAssign)
	case n.Method:
		p.key(n)
		fn := n.Value.(*Func)
		p.b.WriteByte('(')
		p.list(fn.Params, precAssign)
		p.b.WriteString(") ")
		p.expr(fn.Body, 0)
	default:
		p.key(n)
		p.b.WriteString(": ")
		p.expr(n.Value, precAssign)
	}
}

func (p *Printer) key(n *Property) {
	if n.Computed {
		p.b.WriteByte('[')
		p.expr(n.Key, precAssign)
		p.b.WriteByte(']')
		return
	}
	p.expr(n.Key, precPrimary)
}

func hasCall(n Node) bool {
	switch n := n.(type) {
	case *Call:
		return true
	case *Member:
		return hasCall(n.Object)
	}
	return false
}

func isWordOp(op string) bool {
	switch op {
	case "typeof", "void", "delete", "await":
		return true
	}
	return false
}

// Quote renders s as a double quoted JavaScript string literal.
func Quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		switch {
		case r == '"':
			b.WriteString(`\"`)
		case r == '\\':
			b.WriteString(`\\`)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '\t':
			b.WriteString(`\t`)
		case r == 0x2028 || r == 0x2029:
			fmt.Fprintf(&b, `\u%04x`, r)
		case r == utf8.RuneError && size == 1:
			fmt.Fprintf(&b, `\x%02x`, s[i])
		case r < 0x20 || r == 0x7f:
			fmt.Fprintf(&b, `\x%02x`, r)
		default:
			b.WriteString(s[i : i+size])
		}
		i += size
	}
	b.WriteByte('"')
	return b.String()
}
