// Package expr parses, rewrites and prints the JavaScript expressions found in template
// bindings. Every node records the byte span it was parsed from; synthesized nodes carry the
// span of the construct they stand in for, or an empty span when they model nothing.
package expr

import (
	"github.com/walteh/go-sfc-typer/pkg/position"
)

type Node interface {
	Span() position.Span
	node()
}

type (
	Ident struct {
		Loc  position.Span
		Name string
	}

	This struct {
		Loc position.Span
	}

	Literal struct {
		Loc  position.Span
		Kind LitKind
		// Raw is the literal as it is printed, quotes included.
		Raw string
	}

	TemplateLit struct {
		Loc position.Span
		// Quasis are the raw text chunks; len(Quasis) == len(Exprs)+1.
		Quasis []string
		Exprs  []Node
	}

	Array struct {
		Loc position.Span
		// Elems may contain nil holes.
		Elems []Node
	}

	Object struct {
		Loc   position.Span
		Props []*Property
	}

	// Property is an object member. A spread property keeps its argument in Value.
	Property struct {
		Loc       position.Span
		Key       Node
		Value     Node
		Computed  bool
		Shorthand bool
		Spread    bool
		Method    bool
	}

	Member struct {
		Loc      position.Span
		Object   Node
		Prop     Node
		Computed bool
		Optional bool
		// Implicit marks a property access synthesized for a free identifier.
		Implicit bool
	}

	Call struct {
		Loc      position.Span
		Callee   Node
		Args     []Node
		Optional bool
	}

	New struct {
		Loc    position.Span
		Callee Node
		Args   []Node
	}

	Unary struct {
		Loc position.Span
		Op  string
		X   Node
	}

	Update struct {
		Loc    position.Span
		Op     string
		X      Node
		Prefix bool
	}

	Binary struct {
		Loc position.Span
		Op  string
		X   Node
		Y   Node
	}

	Assign struct {
		Loc    position.Span
		Op     string
		Target Node
		Value  Node
	}

	Cond struct {
		Loc  position.Span
		Test Node
		Then Node
		Else Node
	}

	Arrow struct {
		Loc    position.Span
		Async  bool
		Params []Node
		// Body is an expression or a *Block.
		Body Node
	}

	Func struct {
		Loc    position.Span
		Async  bool
		Name   *Ident
		Params []Node
		Body   *Block
	}

	Spread struct {
		Loc position.Span
		X   Node
	}

	Paren struct {
		Loc position.Span
		X   Node
	}

	Seq struct {
		Loc  position.Span
		List []Node
	}

	Block struct {
		Loc   position.Span
		Stmts []Node
	}

	ExprStmt struct {
		Loc position.Span
		X   Node
	}

	Return struct {
		Loc position.Span
		X   Node
	}
)

type LitKind int

const (
	StringLit LitKind = iota
	NumberLit
	BoolLit
	NullLit
)

func (n *Ident) Span() position.Span       { return n.Loc }
func (n *This) Span() position.Span        { return n.Loc }
func (n *Literal) Span() position.Span     { return n.Loc }
func (n *TemplateLit) Span() position.Span { return n.Loc }
func (n *Array) Span() position.Span       { return n.Loc }
func (n *Object) Span() position.Span      { return n.Loc }
func (n *Property) Span() position.Span    { return n.Loc }
func (n *Member) Span() position.Span      { return n.Loc }
func (n *Call) Span() position.Span        { return n.Loc }
func (n *New) Span() position.Span         { return n.Loc }
func (n *Unary) Span() position.Span       { return n.Loc }
func (n *Update) Span() position.Span      { return n.Loc }
func (n *Binary) Span() position.Span      { return n.Loc }
func (n *Assign) Span() position.Span      { return n.Loc }
func (n *Cond) Span() position.Span        { return n.Loc }
func (n *Arrow) Span() position.Span       { return n.Loc }
func (n *Func) Span() position.Span        { return n.Loc }
func (n *Spread) Span() position.Span      { return n.Loc }
func (n *Paren) Span() position.Span       { return n.Loc }
func (n *Seq) Span() position.Span         { return n.Loc }
func (n *Block) Span() position.Span       { return n.Loc }
func (n *ExprStmt) Span() position.Span    { return n.Loc }
func (n *Return) Span() position.Span      { return n.Loc }

func (*Ident) node()       {}
func (*This) node()        {}
func (*Literal) node()     {}
func (*TemplateLit) node() {}
func (*Array) node()       {}
func (*Object) node()      {}
func (*Property) node()    {}
func (*Member) node()      {}
func (*Call) node()        {}
func (*New) node()         {}
func (*Unary) node()       {}
func (*Update) node()      {}
func (*Binary) node()      {}
func (*Assign) node()      {}
func (*Cond) node()        {}
func (*Arrow) node()       {}
func (*Func) node()        {}
func (*Spread) node()      {}
func (*Paren) node()       {}
func (*Seq) node()         {}
func (*Block) node()       {}
func (*ExprStmt) node()    {}
func (*Return) node()      {}

// NewString builds a string literal for value.
func NewString(value string, loc position.Span) *Literal {
	return &Literal{Loc: loc, Kind: StringLit, Raw: Quote(value)}
}

func NewBool(value bool, loc position.Span) *Literal {
	raw := "false"
	if value {
		raw = "true"
	}
	return &Literal{Loc: loc, Kind: BoolLit, Raw: raw}
}

// NewIdent builds an identifier that models nothing in the source.
func NewIdent(name string, at int) *Ident {
	return &Ident{Loc: position.Point(at), Name: name}
}

// BoundNames lists the identifiers a binding pattern declares.
func BoundNames(pattern Node) []string {
	var out []string
	var visit func(n Node)
	visit = func(n Node) {
		switch n := n.(type) {
		case *Ident:
			out = append(out, n.Name)
		case *Assign:
			visit(n.Target)
		case *Spread:
			visit(n.X)
		case *Paren:
			visit(n.X)
		case *Array:
			for _, e := range n.Elems {
				if e != nil {
					visit(e)
				}
			}
		case *Object:
			for _, p := range n.Props {
				visit(p.Value)
			}
		}
	}
	visit(pattern)
	return out
}
