package markup

import (
	"sort"
	"strings"

	"github.com/walteh/go-sfc-typer/pkg/position"
)

// Node is an element or an interpolation. Offsets are byte offsets into the parsed text.
type Node struct {
	Tag             string
	IsInterpolation bool
	Start           int
	End             int
	// EndTagStart is the offset of "</tag", or -1 when the element has no end tag.
	EndTagStart int
	Closed      bool

	// Attributes maps attribute names to their unquoted values; valueless attributes map to "".
	Attributes map[string]string
	// Attrs keeps every attribute in source order.
	Attrs      []*Attribute
	Directives map[string][]*Directive

	// Expression is the body of an interpolation.
	Expression *Expression

	Children []*Node
	Parent   *Node
}

func (n *Node) Span() position.Span {
	return position.Span{Start: n.Start, End: n.End}
}

func (n *Node) IsSameTag(lower string) bool {
	return n.Tag != "" && lower != "" && len(n.Tag) == len(lower) && strings.ToLower(n.Tag) == lower
}

func (n *Node) LastChild() *Node {
	if len(n.Children) == 0 {
		return nil
	}
	return n.Children[len(n.Children)-1]
}

// Directive returns the first directive named name.
func (n *Node) Directive(name string) *Directive {
	if ds := n.Directives[name]; len(ds) > 0 {
		return ds[0]
	}
	return nil
}

func (n *Node) HasDirective(name string) bool {
	return len(n.Directives[name]) > 0
}

// FindNodeBefore returns the deepest node that starts before offset.
func (n *Node) FindNodeBefore(offset int) *Node {
	idx := findFirst(n.Children, func(c *Node) bool { return offset <= c.Start }) - 1
	if idx >= 0 {
		child := n.Children[idx]
		if offset > child.Start {
			if offset < child.End {
				return child.FindNodeBefore(offset)
			}
			if last := child.LastChild(); last != nil && last.End == child.End {
				return child.FindNodeBefore(offset)
			}
			return child
		}
	}
	return n
}

// FindNodeAt returns the deepest node whose (start, end] contains offset.
func (n *Node) FindNodeAt(offset int) *Node {
	idx := findFirst(n.Children, func(c *Node) bool { return offset <= c.Start }) - 1
	if idx >= 0 {
		child := n.Children[idx]
		if offset > child.Start && offset <= child.End {
			return child.FindNodeAt(offset)
		}
	}
	return n
}

// findFirst returns the least index for which p is true, given that p is monotonic over nodes.
func findFirst(nodes []*Node, p func(*Node) bool) int {
	return sort.Search(len(nodes), func(i int) bool { return p(nodes[i]) })
}

// Walk visits n and its descendants depth first until fn returns false.
func Walk(n *Node, fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		Walk(c, fn)
	}
}
