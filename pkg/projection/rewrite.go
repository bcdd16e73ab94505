package projection

import (
	"github.com/walteh/go-sfc-typer/pkg/expr"
	"github.com/walteh/go-sfc-typer/pkg/position"
)

// rewrite returns a copy of n in which every identifier that is neither bound by sc nor a
// global reads from "this". n itself is left untouched.
func (me *Projector) rewrite(n expr.Node, sc *scope) expr.Node {
	switch n := n.(type) {
	case nil:
		return nil
	case *expr.Ident:
		if sc.has(n.Name) || me.globals[n.Name] {
			return n
		}
		return &expr.Member{
			Loc:      n.Loc,
			Object:   &expr.This{Loc: position.Point(n.Loc.Start)},
			Prop:     n,
			Implicit: true,
		}
	case *expr.TemplateLit:
		return &expr.TemplateLit{Loc: n.Loc, Quasis: n.Quasis, Exprs: me.rewriteAll(n.Exprs, sc)}
	case *expr.Array:
		return &expr.Array{Loc: n.Loc, Elems: me.rewriteAll(n.Elems, sc)}
	case *expr.Object:
		props := make([]*expr.Property, len(n.Props))
		for i, p := range n.Props {
			props[i] = me.rewriteProperty(p, sc)
		}
		return &expr.Object{Loc: n.Loc, Props: props}
	case *expr.Member:
		prop := n.Prop
		if n.Computed {
			prop = me.rewrite(n.Prop, sc)
		}
		return &expr.Member{
			Loc:      n.Loc,
			Object:   me.rewrite(n.Object, sc),
			Prop:     prop,
			Computed: n.Computed,
			Optional: n.Optional,
			Implicit: n.Implicit,
		}
	case *expr.Call:
		return &expr.Call{Loc: n.Loc, Callee: me.rewrite(n.Callee, sc), Args: me.rewriteAll(n.Args, sc), Optional: n.Optional}
	case *expr.New:
		return &expr.New{Loc: n.Loc, Callee: me.rewrite(n.Callee, sc), Args: me.rewriteAll(n.Args, sc)}
	case *expr.Unary:
		return &expr.Unary{Loc: n.Loc, Op: n.Op, X: me.rewrite(n.X, sc)}
	case *expr.Update:
		return &expr.Update{Loc: n.Loc, Op: n.Op, X: me.rewrite(n.X, sc), Prefix: n.Prefix}
	case *expr.Binary:
		return &expr.Binary{Loc: n.Loc, Op: n.Op, X: me.rewrite(n.X, sc), Y: me.rewrite(n.Y, sc)}
	case *expr.Assign:
		return &expr.Assign{Loc: n.Loc, Op: n.Op, Target: me.rewrite(n.Target, sc), Value: me.rewrite(n.Value, sc)}
	case *expr.Cond:
		return &expr.Cond{Loc: n.Loc, Test: me.rewrite(n.Test, sc), Then: me.rewrite(n.Then, sc), Else: me.rewrite(n.Else, sc)}
	case *expr.Arrow:
		inner := sc.with(boundNames(n.Params)...)
		return &expr.Arrow{Loc: n.Loc, Async: n.Async, Params: n.Params, Body: me.rewrite(n.Body, inner)}
	case *expr.Spread:
		return &expr.Spread{Loc: n.Loc, X: me.rewrite(n.X, sc)}
	case *expr.Paren:
		return &expr.Paren{Loc: n.Loc, X: me.rewrite(n.X, sc)}
	case *expr.Seq:
		return &expr.Seq{Loc: n.Loc, List: me.rewriteAll(n.List, sc)}
	case *expr.Block:
		return &expr.Block{Loc: n.Loc, Stmts: me.rewriteAll(n.Stmts, sc)}
	case *expr.ExprStmt:
		return &expr.ExprStmt{Loc: n.Loc, X: me.rewrite(n.X, sc)}
	case *expr.Return:
		return &expr.Return{Loc: n.Loc, X: me.rewrite(n.X, sc)}
	default:
		// literals, this, and function expressions, whose own receiver differs
		return n
	}
}

func (me *Projector) rewriteAll(nodes []expr.Node, sc *scope) []expr.Node {
	if nodes == nil {
		return nil
	}
	out := make([]expr.Node, len(nodes))
	for i, n := range nodes {
		out[i] = me.rewrite(n, sc)
	}
	return out
}

func (me *Projector) rewriteProperty(p *expr.Property, sc *scope) *expr.Property {
	switch {
	case p.Method:
		return p
	case p.Spread:
		return &expr.Property{Loc: p.Loc, Spread: true, Value: me.rewrite(p.Value, sc)}
	case p.Shorthand:
		id, ok := p.Value.(*expr.Ident)
		if !ok {
			return p
		}
		value := me.rewrite(id, sc)
		if value == expr.Node(id) {
			return p
		}
		return &expr.Property{Loc: p.Loc, Key: id, Value: value}
	case p.Computed:
		return &expr.Property{Loc: p.Loc, Key: me.rewrite(p.Key, sc), Value: me.rewrite(p.Value, sc), Computed: true}
	default:
		return &expr.Property{Loc: p.Loc, Key: p.Key, Value: me.rewrite(p.Value, sc)}
	}
}
