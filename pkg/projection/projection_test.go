package projection_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/go-sfc-typer/pkg/expr"
	"github.com/walteh/go-sfc-typer/pkg/markup"
	"github.com/walteh/go-sfc-typer/pkg/position"
	"github.com/walteh/go-sfc-typer/pkg/projection"
)

func project(t *testing.T, src string) []string {
	t.Helper()
	var out []string
	for _, x := range projection.Project(markup.Parse(src).Roots) {
		text, _ := expr.Print(x)
		out = append(out, text)
	}
	return out
}

const empty = `{ props: {}, on: {}, directives: [] }`

func TestProject(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{
			name: "attributes and listeners",
			src:  `<div id="app" :title="msg" @click="go"></div>`,
			want: []string{`__sfcComponentHelper("div", { props: { "id": "app", "title": this.msg }, on: { "click": this.go }, directives: [] }, [])`},
		},
		{
			name: "valueless attribute",
			src:  `<input disabled>`,
			want: []string{`__sfcComponentHelper("input", { props: { "disabled": true }, on: {}, directives: [] }, [])`},
		},
		{
			name: "iteration scopes its aliases",
			src:  `<li v-for="(item, i) in items" :key="item.id">{{ item.name + i }}</li>`,
			want: []string{`__sfcIterationHelper(this.items, (item, i) => __sfcComponentHelper("li", { props: { "key": item.id }, on: {}, directives: [] }, [item.name + i]))`},
		},
		{
			name: "conditional chain",
			src:  `<p v-if="a">x</p><p v-else-if="b">y</p><p v-else>z</p>`,
			want: []string{
				`this.a ? __sfcComponentHelper("p", ` + empty + `, []) : this.b ? __sfcComponentHelper("p", ` + empty + `, []) : __sfcComponentHelper("p", ` + empty + `, [])`,
			},
		},
		{
			name: "conditional without else",
			src:  `<p v-if="ok"></p><span></span>`,
			want: []string{
				`this.ok ? __sfcComponentHelper("p", ` + empty + `, []) : undefined`,
				`__sfcComponentHelper("span", ` + empty + `, [])`,
			},
		},
		{
			name: "statement handler is wrapped",
			src:  `<button @click="count++; log($event)"></button>`,
			want: []string{`__sfcComponentHelper("button", { props: {}, on: { "click": __sfcListenerHelper(this, ($event) => { this.count++; this.log($event); }) }, directives: [] }, [])`},
		},
		{
			name: "call handler is wrapped",
			src:  `<button @click="go(1)"></button>`,
			want: []string{`__sfcComponentHelper("button", { props: {}, on: { "click": __sfcListenerHelper(this, ($event) => { this.go(1); }) }, directives: [] }, [])`},
		},
		{
			name: "function handler is used directly",
			src:  `<button @click="() => n = 1"></button>`,
			want: []string{`__sfcComponentHelper("button", { props: {}, on: { "click": () => this.n = 1 }, directives: [] }, [])`},
		},
		{
			name: "globals are not rewritten",
			src:  `{{ Math.max(a, undefined) }}`,
			want: []string{`Math.max(this.a, undefined)`},
		},
		{
			name: "empty interpolation",
			src:  `{{ }}`,
			want: []string{`""`},
		},
		{
			name: "filters keep their arguments",
			src:  `{{ price | currency('$') }}`,
			want: []string{`[['$']] || this.price`},
		},
		{
			name: "slot props scope the subtree",
			src:  `<comp v-slot="{ item }">{{ item }}</comp>`,
			want: []string{`({ item }) => __sfcComponentHelper("comp", ` + empty + `, [item])`},
		},
		{
			name: "binding replaces static attribute",
			src:  `<div class="a" :class="b"></div>`,
			want: []string{`__sfcComponentHelper("div", { props: { "class": this.b }, on: {}, directives: [] }, [])`},
		},
		{
			name: "spread and dynamic bindings",
			src:  `<div v-bind="attrs" :[key]="v"></div>`,
			want: []string{`__sfcComponentHelper("div", { props: { ...this.attrs, [this.key]: this.v }, on: {}, directives: [] }, [])`},
		},
		{
			name: "shorthand properties are expanded",
			src:  `<div :style="{ color }"></div>`,
			want: []string{`__sfcComponentHelper("div", { props: { "style": { color: this.color } }, on: {}, directives: [] }, [])`},
		},
		{
			name: "other directives",
			src:  `<input v-model="name" v-show="visible">`,
			want: []string{`__sfcComponentHelper("input", { props: {}, on: {}, directives: [this.name, this.visible] }, [])`},
		},
		{
			name: "camel modifier",
			src:  `<svg :view-box.camel="box"></svg>`,
			want: []string{`__sfcComponentHelper("svg", { props: { "viewBox": this.box }, on: {}, directives: [] }, [])`},
		},
		{
			name: "nested children",
			src:  `<ul><li>{{ a }}</li></ul>`,
			want: []string{`__sfcComponentHelper("ul", ` + empty + `, [__sfcComponentHelper("li", ` + empty + `, [this.a])])`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, project(t, tt.src))
		})
	}
}

func TestBindingRangesArePreserved(t *testing.T) {
	src := `<div :foo="bar + baz"></div>`
	valueStart := strings.Index(src, "bar + baz")
	barStart := valueStart
	bazStart := strings.Index(src, "baz")

	roots := markup.Parse(src).Roots
	out := projection.Project(roots)
	require.Len(t, out, 1)

	call, ok := out[0].(*expr.Call)
	require.True(t, ok)
	assert.Equal(t, position.Point(0), call.Span())

	data, ok := call.Args[1].(*expr.Object)
	require.True(t, ok)
	assert.Equal(t, position.Point(0), data.Span())

	props, ok := data.Props[0].Value.(*expr.Object)
	require.True(t, ok)
	require.Len(t, props.Props, 1)

	value, ok := props.Props[0].Value.(*expr.Binary)
	require.True(t, ok)
	assert.Equal(t, position.NewSpan(valueStart, valueStart+len("bar + baz")), value.Span())

	for _, tc := range []struct {
		node  expr.Node
		start int
	}{
		{value.X, barStart},
		{value.Y, bazStart},
	} {
		member, ok := tc.node.(*expr.Member)
		require.True(t, ok)
		assert.True(t, member.Implicit)
		assert.Equal(t, position.NewSpan(tc.start, tc.start+3), member.Span())
		assert.Equal(t, position.NewSpan(tc.start, tc.start+3), member.Prop.Span())
		assert.Equal(t, position.Point(tc.start), member.Object.Span())
	}
}

func TestUnparsableBindingBecomesPlaceholder(t *testing.T) {
	src := `<div :x="a +"></div>`
	out := projection.Project(markup.Parse(src).Roots)
	require.Len(t, out, 1)

	text, _ := expr.Print(out[0])
	assert.Contains(t, text, `"x": ""`)

	data := out[0].(*expr.Call).Args[1].(*expr.Object)
	lit, ok := data.Props[0].Value.(*expr.Object).Props[0].Value.(*expr.Literal)
	require.True(t, ok)
	start := strings.Index(src, "a +")
	assert.Equal(t, position.NewSpan(start, start+3), lit.Span())
}

func TestSkipInterpolations(t *testing.T) {
	p := projection.New(projection.Options{SkipInterpolations: true})
	out := p.Project(markup.Parse(`<p>{{ a }}</p>{{ b }}`).Roots)
	require.Len(t, out, 1)

	text, _ := expr.Print(out[0])
	assert.Equal(t, `__sfcComponentHelper("p", `+empty+`, [])`, text)
}

func TestCustomGlobals(t *testing.T) {
	p := projection.New(projection.Options{Globals: []string{"$t"}})
	out := p.Project(markup.Parse(`{{ $t(Math) }}`).Roots)
	require.Len(t, out, 1)

	text, _ := expr.Print(out[0])
	assert.Equal(t, `$t(this.Math)`, text)
}
