// Package markup builds a forgiving element tree from template markup. Malformed input never
// fails: dangling elements are closed and flagged instead.
package markup

import (
	"strings"

	"github.com/walteh/go-sfc-typer/pkg/position"
	"github.com/walteh/go-sfc-typer/pkg/scanner"
)

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true, "hr": true, "img": true,
	"input": true, "keygen": true, "link": true, "menuitem": true, "meta": true, "param": true,
	"source": true, "track": true, "wbr": true,
}

// IsVoidElement reports whether tag never has content or an end tag.
func IsVoidElement(tag string) bool {
	return voidElements[strings.ToLower(tag)]
}

type Document struct {
	Roots []*Node
	root  *Node
}

func (d *Document) FindNodeAt(offset int) *Node {
	return d.root.FindNodeAt(offset)
}

func (d *Document) FindNodeBefore(offset int) *Node {
	return d.root.FindNodeBefore(offset)
}

// IsRoot reports whether n is the synthetic document node returned by the Find methods
// when no element matches.
func (d *Document) IsRoot(n *Node) bool {
	return n == d.root
}

// Parse builds the node tree of text. Offsets in the result are offsets into text.
func Parse(text string) *Document {
	s := scanner.New(text, 0, scanner.WithinContent)

	root := &Node{Start: 0, End: len(text), EndTagStart: -1}
	curr := root
	endTagStart := -1
	var pending *Attribute

	newChild := func(start int) *Node {
		child := &Node{Start: start, End: len(text), EndTagStart: -1, Parent: curr}
		curr.Children = append(curr.Children, child)
		return child
	}

	for token := s.Scan(); token != scanner.EOS; token = s.Scan() {
		switch token {
		case scanner.StartTagOpen:
			curr = newChild(s.TokenOffset())
			pending = nil

		case scanner.StartTag:
			curr.Tag = s.TokenText()

		case scanner.StartTagClose:
			pending = nil
			if curr == root {
				break
			}
			// might be moved later to the end tag
			curr.End = s.TokenEnd()
			if IsVoidElement(curr.Tag) {
				curr.Closed = true
				curr = curr.Parent
			}

		case scanner.EndTagOpen:
			endTagStart = s.TokenOffset()
			pending = nil

		case scanner.EndTag:
			closeTag := strings.ToLower(s.TokenText())
			for !curr.IsSameTag(closeTag) && curr != root {
				curr.End = endTagStart
				curr.Closed = false
				curr = curr.Parent
			}
			if curr != root {
				curr.Closed = true
				curr.EndTagStart = endTagStart
			}

		case scanner.StartTagSelfClose:
			pending = nil
			if curr != root {
				curr.Closed = true
				curr.End = s.TokenEnd()
				curr = curr.Parent
			}

		case scanner.EndTagClose:
			if curr != root {
				curr.End = s.TokenEnd()
				curr = curr.Parent
			}

		case scanner.StartInterpolation:
			curr = newChild(s.TokenOffset())
			curr.IsInterpolation = true
			curr.Expression = &Expression{Span: position.Point(s.TokenEnd())}

		case scanner.InterpolationContent:
			if curr.IsInterpolation {
				curr.Expression = &Expression{
					Text: s.TokenText(),
					Span: position.NewSpan(s.TokenOffset(), s.TokenEnd()),
				}
			}

		case scanner.EndInterpolation:
			if curr.IsInterpolation {
				curr.End = s.TokenEnd()
				curr.Closed = true
				curr = curr.Parent
			}

		case scanner.AttributeName:
			span := position.NewSpan(s.TokenOffset(), s.TokenEnd())
			pending = &Attribute{
				Name:     s.TokenText(),
				NameSpan: span,
				Span:     span,
			}
			curr.Attrs = append(curr.Attrs, pending)

		case scanner.AttributeValue:
			if pending == nil {
				break
			}
			setValue(pending, s.TokenText(), s.TokenOffset())
			pending = nil
		}
	}

	for curr != root {
		curr.End = len(text)
		curr.Closed = false
		curr = curr.Parent
	}

	for _, n := range root.Children {
		Walk(n, func(n *Node) bool {
			finalize(n)
			return true
		})
	}

	return &Document{Roots: root.Children, root: root}
}

func setValue(a *Attribute, raw string, offset int) {
	a.HasValue = true
	a.RawValueSpan = position.NewSpan(offset, offset+len(raw))
	a.Span.End = offset + len(raw)

	if raw != "" && (raw[0] == '"' || raw[0] == '\'') {
		a.Quoted = true
		inner := raw[1:]
		end := offset + len(raw)
		if strings.HasSuffix(inner, raw[:1]) {
			inner = inner[:len(inner)-1]
			end--
		}
		a.Value = inner
		a.ValueSpan = position.NewSpan(offset+1, end)
		return
	}

	a.Value = raw
	a.ValueSpan = a.RawValueSpan
}

// finalize derives the attribute map and directives once all attributes are known.
func finalize(n *Node) {
	if n.IsInterpolation {
		return
	}
	n.Attributes = make(map[string]string, len(n.Attrs))
	n.Directives = map[string][]*Directive{}
	for _, a := range n.Attrs {
		n.Attributes[a.Name] = a.Value
		if d := parseDirective(a); d != nil {
			a.Directive = d
			n.Directives[d.Name] = append(n.Directives[d.Name], d)
		}
	}
}
