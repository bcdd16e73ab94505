package markup

import (
	"strings"

	"github.com/walteh/go-sfc-typer/pkg/position"
)

// Attribute is a single attribute as written in the source.
type Attribute struct {
	Name     string
	Value    string
	HasValue bool
	// Quoted is set when the value was wrapped in quotes.
	Quoted bool

	NameSpan position.Span
	// ValueSpan covers the value without its quotes.
	ValueSpan position.Span
	// RawValueSpan covers the value including its quotes.
	RawValueSpan position.Span
	Span         position.Span

	// Directive is set when the attribute name uses directive syntax.
	Directive *Directive
}

// Expression is a binding's source text and where it sits in the original document.
type Expression struct {
	Text string
	Span position.Span
}

type Argument struct {
	Name    string
	Dynamic bool
	Span    position.Span
	// Expression is the bracketed expression of a dynamic argument.
	Expression *Expression
}

type Directive struct {
	// Name is the directive name without prefix: bind, on, slot, if, for, model, ...
	Name      string
	Arg       *Argument
	Modifiers []string
	Value     *Expression
	NameSpan  position.Span
	Span      position.Span
	Attribute *Attribute
}

// ArgName returns the static argument name, or "" for none or dynamic arguments.
func (d *Directive) ArgName() string {
	if d.Arg == nil || d.Arg.Dynamic {
		return ""
	}
	return d.Arg.Name
}

// parseDirective interprets directive syntax in an attribute name. Plain attributes return nil.
func parseDirective(a *Attribute) *Directive {
	name := a.Name
	nameStart := a.NameSpan.Start

	var (
		directive string
		rest      string
		restStart int
		modifiers []string
	)

	switch {
	case name == "slot-scope" || name == "scope":
		directive = "slot"
	case strings.HasPrefix(name, "v-"):
		body := name[2:]
		end := strings.IndexAny(body, ":.")
		if end < 0 {
			end = len(body)
		}
		directive = body[:end]
		rest = body[end:]
		restStart = nameStart + 2 + end
		if strings.HasPrefix(rest, ":") {
			rest = rest[1:]
			restStart++
		} else if rest != "" {
			// modifiers directly after the name, no argument
			modifiers = splitModifiers(rest[1:])
			rest = ""
		}
	case strings.HasPrefix(name, ":"):
		directive, rest, restStart = "bind", name[1:], nameStart+1
	case strings.HasPrefix(name, "."):
		directive, rest, restStart = "bind", name[1:], nameStart+1
		modifiers = append(modifiers, "prop")
	case strings.HasPrefix(name, "@"):
		directive, rest, restStart = "on", name[1:], nameStart+1
	case strings.HasPrefix(name, "#"):
		directive, rest, restStart = "slot", name[1:], nameStart+1
	default:
		return nil
	}

	if directive == "" {
		return nil
	}

	d := &Directive{
		Name:      directive,
		Modifiers: modifiers,
		NameSpan:  a.NameSpan,
		Span:      a.Span,
		Attribute: a,
	}

	if rest != "" {
		argText := rest
		if strings.HasPrefix(rest, "[") {
			if closeIdx := strings.IndexByte(rest, ']'); closeIdx > 0 {
				argText = rest[:closeIdx+1]
			}
		} else if dot := strings.IndexByte(rest, '.'); dot >= 0 {
			argText = rest[:dot]
		}
		d.Modifiers = append(d.Modifiers, splitModifiers(strings.TrimPrefix(rest[len(argText):], "."))...)

		arg := &Argument{
			Name: argText,
			Span: position.NewSpan(restStart, restStart+len(argText)),
		}
		if strings.HasPrefix(argText, "[") && strings.HasSuffix(argText, "]") && len(argText) >= 2 {
			arg.Dynamic = true
			arg.Expression = &Expression{
				Text: argText[1 : len(argText)-1],
				Span: position.NewSpan(restStart+1, restStart+len(argText)-1),
			}
		}
		if argText != "" {
			d.Arg = arg
		}
	}

	if a.HasValue {
		d.Value = &Expression{Text: a.Value, Span: a.ValueSpan}
	}

	return d
}

func splitModifiers(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, m := range strings.Split(s, ".") {
		if m != "" {
			out = append(out, m)
		}
	}
	return out
}
