package print_regions

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const component = "<template>\n  <div/>\n</template>\n<script lang=\"ts\">\nexport default {}\n</script>\n"

func TestRun(t *testing.T) {
	tests := []struct {
		name    string
		format  string
		want    []string
		wantErr bool
	}{
		{name: "text", format: "text", want: []string{"template", "markup-html", "0:10-2:0", "script", "typescript"}},
		{name: "yaml", format: "yaml", want: []string{"tag: template", "language: typescript", "type: script"}},
		{name: "unknown format", format: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			require.NoError(t, afero.WriteFile(fs, "/App.vue", []byte(component), 0o644))

			var out bytes.Buffer
			me := &Handler{file: "/App.vue", format: tt.format, fs: fs, out: &out}
			err := me.Run(context.Background())
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			for _, w := range tt.want {
				assert.Contains(t, out.String(), w)
			}
		})
	}
}

func TestRunMissingFile(t *testing.T) {
	me := &Handler{file: "/nope.vue", format: "text", fs: afero.NewMemMapFs(), out: &bytes.Buffer{}}
	require.Error(t, me.Run(context.Background()))
}
