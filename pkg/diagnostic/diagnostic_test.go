package diagnostic_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/go-sfc-typer/pkg/diagnostic"
	"github.com/walteh/go-sfc-typer/pkg/position"
)

func TestGroupAndAll(t *testing.T) {
	diags := []diagnostic.Diagnostic{
		{Message: "h", Severity: diagnostic.Hint},
		{Message: "e", Severity: diagnostic.Error},
		{Message: "w", Severity: diagnostic.Warning},
		{Message: "i", Severity: diagnostic.Info},
	}

	grouped := diagnostic.Group(diags)
	assert.Equal(t, 4, grouped.Len())

	var messages []string
	for _, d := range grouped.All() {
		messages = append(messages, d.Message)
	}
	assert.Equal(t, []string{"e", "w", "i", "h"}, messages)
}

func TestSort(t *testing.T) {
	diags := []diagnostic.Diagnostic{
		{Message: "b", Span: position.NewSpan(5, 9)},
		{Message: "a", Span: position.NewSpan(5, 9)},
		{Message: "c", Span: position.NewSpan(1, 2)},
		{Message: "d", Span: position.NewSpan(5, 6)},
	}
	diagnostic.Sort(diags)

	var messages []string
	for _, d := range diags {
		messages = append(messages, d.Message)
	}
	assert.Equal(t, []string{"c", "d", "a", "b"}, messages)
}

func TestLocated(t *testing.T) {
	lines := position.NewLineIndex("ab\ncdef\n")
	d := diagnostic.Diagnostic{Span: position.NewSpan(4, 6)}.Located(lines)
	assert.Equal(t, position.Range{
		Start: position.Place{Line: 1, Character: 1},
		End:   position.Place{Line: 1, Character: 3},
	}, d.Range)
}

func TestJSONFormatter(t *testing.T) {
	tests := []struct {
		name    string
		diags   *diagnostic.Diagnostics
		want    string
		wantErr bool
	}{
		{
			name:    "nil",
			diags:   nil,
			wantErr: true,
		},
		{
			name:  "empty",
			diags: &diagnostic.Diagnostics{},
			want:  `[]`,
		},
		{
			name: "error with code",
			diags: diagnostic.Group([]diagnostic.Diagnostic{{
				Message:  "Property 'x' does not exist",
				Code:     2339,
				Source:   "ts",
				Severity: diagnostic.Error,
				Range:    position.Range{Start: position.Place{Line: 2, Character: 4}, End: position.Place{Line: 2, Character: 5}},
			}}),
			want: `[{"severity":1,"code":2339,"source":"ts","message":"Property 'x' does not exist","range":{"start":{"line":2,"character":4},"end":{"line":2,"character":5}}}]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := diagnostic.NewJSONFormatter().Format(tt.diags)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}
