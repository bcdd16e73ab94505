// Package projection turns a template's markup tree into JavaScript expressions that a type
// checker can validate against the component instance.
//
// Every element becomes a call to the component helper with its attributes folded into a
// props/on/directives object. Identifiers a binding does not declare itself are read off the
// instance through "this". Nodes that stand in for source text carry that text's exact span;
// wrappers with no textual counterpart are pinned to a zero-width point at the start of the
// element that owns them.
package projection

import (
	"regexp"
	"strings"

	"github.com/walteh/go-sfc-typer/pkg/bridge"
	"github.com/walteh/go-sfc-typer/pkg/expr"
	"github.com/walteh/go-sfc-typer/pkg/markup"
	"github.com/walteh/go-sfc-typer/pkg/position"
)

type Options struct {
	// Globals resolve without a receiver. Nil means DefaultGlobals.
	Globals []string
	// SkipInterpolations leaves {{ }} bodies out of the projection.
	SkipInterpolations bool
}

type Projector struct {
	globals            map[string]bool
	skipInterpolations bool
}

func New(opts Options) *Projector {
	globals := opts.Globals
	if globals == nil {
		globals = DefaultGlobals
	}
	me := &Projector{
		globals:            make(map[string]bool, len(globals)),
		skipInterpolations: opts.SkipInterpolations,
	}
	for _, g := range globals {
		me.globals[g] = true
	}
	return me
}

// Project projects roots with the default options.
func Project(roots []*markup.Node) []expr.Node {
	return New(Options{}).Project(roots)
}

// Project returns one expression per top level element or interpolation. Elements joined by a
// v-if chain collapse into a single conditional.
func (me *Projector) Project(roots []*markup.Node) []expr.Node {
	return me.children(roots, nil)
}

func (me *Projector) children(nodes []*markup.Node, sc *scope) []expr.Node {
	var out []expr.Node
	for i := 0; i < len(nodes); {
		x, next := me.child(nodes, i, sc)
		if x != nil {
			out = append(out, x)
		}
		i = next
	}
	return out
}

func (me *Projector) child(nodes []*markup.Node, i int, sc *scope) (expr.Node, int) {
	n := nodes[i]
	if n.IsInterpolation {
		if me.skipInterpolations {
			return nil, i + 1
		}
		return me.interpolation(n, sc), i + 1
	}

	next := i + 1
	var chain []*markup.Node
	if n.HasDirective("if") {
		for next < len(nodes) && isElseBranch(nodes[next]) {
			branch := nodes[next]
			chain = append(chain, branch)
			next++
			if !branch.HasDirective("else-if") {
				break
			}
		}
	}
	return me.slotted(n, chain, sc), next
}

func isElseBranch(n *markup.Node) bool {
	return !n.IsInterpolation && (n.HasDirective("else-if") || n.HasDirective("else"))
}

func (me *Projector) interpolation(n *markup.Node, sc *scope) expr.Node {
	if n.Expression == nil || strings.TrimSpace(n.Expression.Text) == "" {
		at := n.Start
		if n.Expression != nil {
			at = n.Expression.Span.Start
		}
		return expr.NewString("", position.Point(at))
	}
	return me.filtered(n.Expression, sc)
}

// slotted wraps the element in an arrow function when it declares slot props.
func (me *Projector) slotted(n *markup.Node, chain []*markup.Node, sc *scope) expr.Node {
	d := n.Directive("slot")
	if d == nil || d.Value == nil || strings.TrimSpace(d.Value.Text) == "" {
		return me.iterated(n, chain, sc)
	}
	params, err := expr.ParseParams(d.Value.Text, d.Value.Span.Start)
	if err != nil {
		return me.iterated(n, chain, sc)
	}
	return &expr.Arrow{
		Loc:    position.Point(n.Start),
		Params: params,
		Body:   me.iterated(n, chain, sc.with(boundNames(params)...)),
	}
}

var (
	forAlias      = regexp.MustCompile(`^([\s\S]*?)\s+(?:in|of)\s+([\s\S]*)$`)
	stripParensRE = regexp.MustCompile(`^(\s*)\(([\s\S]*)\)\s*$`)
)

// iterated wraps the element in the iteration helper when it carries v-for.
func (me *Projector) iterated(n *markup.Node, chain []*markup.Node, sc *scope) expr.Node {
	d := n.Directive("for")
	if d == nil || d.Value == nil {
		return me.conditional(n, chain, sc)
	}
	m := forAlias.FindStringSubmatchIndex(d.Value.Text)
	if m == nil {
		return me.conditional(n, chain, sc)
	}

	base := d.Value.Span.Start
	aliasText, aliasStart := d.Value.Text[m[2]:m[3]], base+m[2]
	if pm := stripParensRE.FindStringSubmatchIndex(aliasText); pm != nil {
		aliasStart += pm[4]
		aliasText = aliasText[pm[4]:pm[5]]
	}

	list := me.parsed(&markup.Expression{
		Text: d.Value.Text[m[4]:m[5]],
		Span: position.NewSpan(base+m[4], base+m[5]),
	}, sc)

	params, err := expr.ParseParams(aliasText, aliasStart)
	if err != nil {
		params = nil
	}

	at := position.Point(n.Start)
	return &expr.Call{
		Loc:    at,
		Callee: expr.NewIdent(bridge.IterationHelper, n.Start),
		Args: []expr.Node{
			list,
			&expr.Arrow{
				Loc:    at,
				Params: params,
				Body:   me.conditional(n, chain, sc.with(boundNames(params)...)),
			},
		},
	}
}

// conditional folds a v-if element and its else branches into nested conditionals.
func (me *Projector) conditional(n *markup.Node, chain []*markup.Node, sc *scope) expr.Node {
	d := n.Directive("if")
	if d == nil {
		return me.element(n, sc)
	}
	return &expr.Cond{
		Loc:  position.Point(n.Start),
		Test: me.condition(n, d, sc),
		Then: me.element(n, sc),
		Else: me.branches(n.End, chain, sc),
	}
}

func (me *Projector) branches(at int, chain []*markup.Node, sc *scope) expr.Node {
	if len(chain) == 0 {
		return expr.NewIdent("undefined", at)
	}
	head := chain[0]
	d := head.Directive("else-if")
	if d == nil {
		return me.slotted(head, nil, sc)
	}
	return &expr.Cond{
		Loc:  position.Point(head.Start),
		Test: me.condition(head, d, sc),
		Then: me.slotted(head, nil, sc),
		Else: me.branches(head.End, chain[1:], sc),
	}
}

func (me *Projector) condition(n *markup.Node, d *markup.Directive, sc *scope) expr.Node {
	if d.Value == nil {
		return expr.NewBool(true, position.Point(n.Start))
	}
	return me.parsed(d.Value, sc)
}

func (me *Projector) element(n *markup.Node, sc *scope) expr.Node {
	at := position.Point(n.Start)
	tagStart := n.Start + 1
	return &expr.Call{
		Loc:    at,
		Callee: expr.NewIdent(bridge.ComponentHelper, n.Start),
		Args: []expr.Node{
			expr.NewString(n.Tag, position.NewSpan(tagStart, tagStart+len(n.Tag))),
			me.attributes(n, sc),
			&expr.Array{Loc: at, Elems: me.children(n.Children, sc)},
		},
	}
}

// attributes builds the {props, on, directives} object for n. Static attributes come before
// bindings so that a binding of the same name wins.
func (me *Projector) attributes(n *markup.Node, sc *scope) expr.Node {
	var statics, binds, on []*expr.Property
	var directives []expr.Node

	for _, a := range n.Attrs {
		d := a.Directive
		if d == nil {
			statics = append(statics, staticAttribute(a))
			continue
		}
		switch d.Name {
		case "bind":
			var value expr.Node
			if d.Value != nil {
				value = me.filtered(d.Value, sc)
			} else {
				value = expr.NewBool(true, position.Point(d.Span.Start))
			}
			binds = append(binds, me.keyed(d, value, sc))
		case "on":
			on = append(on, me.keyed(d, me.handler(d, sc), sc))
		case "slot", "for", "if", "else-if", "else":
		default:
			if d.Arg != nil && d.Arg.Expression != nil {
				directives = append(directives, me.parsed(d.Arg.Expression, sc))
			}
			if d.Value != nil {
				directives = append(directives, me.parsed(d.Value, sc))
			}
		}
	}

	at := position.Point(n.Start)
	field := func(name string, value expr.Node) *expr.Property {
		return &expr.Property{Loc: at, Key: expr.NewIdent(name, n.Start), Value: value}
	}
	return &expr.Object{
		Loc: at,
		Props: []*expr.Property{
			field("props", &expr.Object{Loc: at, Props: dedupe(append(statics, binds...))}),
			field("on", &expr.Object{Loc: at, Props: dedupe(on)}),
			field("directives", &expr.Array{Loc: at, Elems: directives}),
		},
	}
}

func staticAttribute(a *markup.Attribute) *expr.Property {
	var value expr.Node
	if a.HasValue {
		value = expr.NewString(a.Value, a.ValueSpan)
	} else {
		value = expr.NewBool(true, position.Point(a.NameSpan.Start))
	}
	return &expr.Property{
		Loc:   a.Span,
		Key:   expr.NewString(a.Name, a.NameSpan),
		Value: value,
	}
}

// keyed places value under the directive's argument. Without an argument the value is spread.
func (me *Projector) keyed(d *markup.Directive, value expr.Node, sc *scope) *expr.Property {
	switch {
	case d.Arg == nil:
		return &expr.Property{Loc: d.Span, Spread: true, Value: value}
	case d.Arg.Dynamic:
		if d.Arg.Expression == nil || strings.TrimSpace(d.Arg.Expression.Text) == "" {
			return &expr.Property{Loc: d.Span, Spread: true, Value: &expr.Object{Loc: position.Point(d.Span.Start)}}
		}
		return &expr.Property{Loc: d.Span, Computed: true, Key: me.parsed(d.Arg.Expression, sc), Value: value}
	default:
		name := d.Arg.Name
		if hasModifier(d, "camel") {
			name = camelize(name)
		}
		return &expr.Property{Loc: d.Span, Key: expr.NewString(name, d.Arg.Span), Value: value}
	}
}

// dedupe drops properties whose static key is repeated later in props.
func dedupe(props []*expr.Property) []*expr.Property {
	last := map[string]int{}
	for i, p := range props {
		if k, ok := staticKey(p); ok {
			last[k] = i
		}
	}
	out := make([]*expr.Property, 0, len(props))
	for i, p := range props {
		if k, ok := staticKey(p); ok && last[k] != i {
			continue
		}
		out = append(out, p)
	}
	return out
}

func staticKey(p *expr.Property) (string, bool) {
	if p.Spread || p.Computed {
		return "", false
	}
	if lit, ok := p.Key.(*expr.Literal); ok && lit.Kind == expr.StringLit {
		return lit.Raw, true
	}
	return "", false
}

// handler projects a v-on value. Paths and functions are used as they are; anything else runs
// inside a listener function with $event in scope.
func (me *Projector) handler(d *markup.Directive, sc *scope) expr.Node {
	if d.Value == nil || strings.TrimSpace(d.Value.Text) == "" {
		return expr.NewBool(true, position.Point(d.Span.Start))
	}

	if x, err := expr.ParseExpression(d.Value.Text, d.Value.Span.Start); err == nil && isHandlerValue(x) {
		return me.rewrite(x, sc)
	}

	stmts, err := expr.ParseStatements(d.Value.Text, d.Value.Span.Start)
	if err != nil {
		return placeholder(d.Value)
	}

	inner := sc.with(listenerScope...)
	body := make([]expr.Node, len(stmts))
	for i, s := range stmts {
		body[i] = me.rewrite(s, inner)
	}

	at := d.Value.Span.Start
	return &expr.Call{
		Loc:    position.Point(at),
		Callee: expr.NewIdent(bridge.ListenerHelper, at),
		Args: []expr.Node{
			&expr.This{Loc: position.Point(at)},
			&expr.Arrow{
				Loc:    position.Point(at),
				Params: []expr.Node{expr.NewIdent("$event", at)},
				Body:   &expr.Block{Loc: position.Point(at), Stmts: body},
			},
		},
	}
}

func isHandlerValue(x expr.Node) bool {
	switch x := x.(type) {
	case *expr.Arrow, *expr.Func:
		return true
	case *expr.Ident:
		return true
	case *expr.Member:
		return isPath(x)
	}
	return false
}

func isPath(x expr.Node) bool {
	switch x := x.(type) {
	case *expr.Ident:
		return true
	case *expr.Member:
		if x.Computed {
			switch x.Prop.(type) {
			case *expr.Literal, *expr.Ident:
			default:
				return false
			}
		}
		return isPath(x.Object)
	}
	return false
}

// filtered projects a binding that may pipe its value through filters. Filter arguments are
// collected in an array so they are still checked.
func (me *Projector) filtered(v *markup.Expression, sc *scope) expr.Node {
	head, filters := splitFilters(v.Text)
	if len(filters) == 0 {
		return me.parsed(v, sc)
	}

	base := v.Span.Start
	value := me.parsed(&markup.Expression{
		Text: head.text,
		Span: position.NewSpan(base, base+len(head.text)),
	}, sc)

	at := position.Point(base)
	args := &expr.Array{Loc: at}
	for _, f := range filters {
		fx, err := expr.ParseExpression(f.text, base+f.offset)
		if err != nil {
			return placeholder(v)
		}
		group := &expr.Array{Loc: position.Point(base + f.offset)}
		if call, ok := fx.(*expr.Call); ok {
			for _, a := range call.Args {
				group.Elems = append(group.Elems, me.rewrite(a, sc))
			}
		}
		args.Elems = append(args.Elems, group)
	}
	return &expr.Binary{Loc: at, Op: "||", X: args, Y: value}
}

// parsed parses v and rewrites its free identifiers. Unparsable input becomes an empty string.
func (me *Projector) parsed(v *markup.Expression, sc *scope) expr.Node {
	x, err := expr.ParseExpression(v.Text, v.Span.Start)
	if err != nil {
		return placeholder(v)
	}
	return me.rewrite(x, sc)
}

func placeholder(v *markup.Expression) expr.Node {
	return expr.NewString("", v.Span)
}

func hasModifier(d *markup.Directive, name string) bool {
	for _, m := range d.Modifiers {
		if m == name {
			return true
		}
	}
	return false
}

func camelize(s string) string {
	parts := strings.Split(s, "-")
	for i := 1; i < len(parts); i++ {
		if parts[i] != "" {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, "")
}

func boundNames(params []expr.Node) []string {
	var names []string
	for _, p := range params {
		names = append(names, expr.BoundNames(p)...)
	}
	return names
}
