package check

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/go-sfc-typer/pkg/diagnostic"
	"github.com/walteh/go-sfc-typer/pkg/host"
	"github.com/walteh/go-sfc-typer/pkg/position"
)

const component = "<template>\n  <p>{{ a }}</p>\n</template>\n<script>\nexport default {}\n</script>\n"

type staticEngine map[string][]diagnostic.Diagnostic

func (e staticEngine) Diagnostics(_ context.Context, _ host.CompilerHost, name string) ([]diagnostic.Diagnostic, error) {
	return e[name], nil
}

func newFS(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/proj/App.vue", []byte(component), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/proj/util.ts", []byte("export const a = 1\n"), 0o644))
	return fs
}

func TestRunClean(t *testing.T) {
	var out bytes.Buffer
	me := &Handler{dir: "/proj", format: "text", virtual: true, fs: newFS(t), engine: host.NopEngine{}, out: &out}
	require.NoError(t, me.Run(context.Background()))

	assert.Contains(t, out.String(), "js\t1\t/proj/App.vue\n")
	assert.Contains(t, out.String(), "/proj/App.vue.template")
	assert.Contains(t, out.String(), "ts\t1\t/proj/util.ts\n")
	assert.Contains(t, out.String(), "sfc-editor-bridge.ts")
}

func TestRunReportsErrors(t *testing.T) {
	at := strings.Index(component, "export")
	engine := staticEngine{"/proj/App.vue": {
		{Message: "bad", Code: 2322, Severity: diagnostic.Error, Span: position.NewSpan(at, at+6)},
	}}

	t.Run("text", func(t *testing.T) {
		var out bytes.Buffer
		me := &Handler{dir: "/proj", format: "text", fs: newFS(t), engine: engine, out: &out}
		err := me.Run(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "1 errors found")
		assert.Contains(t, out.String(), "/proj/App.vue:5:1:")
		assert.Contains(t, out.String(), "bad [2322]")
	})

	t.Run("json", func(t *testing.T) {
		var out bytes.Buffer
		me := &Handler{dir: "/proj", format: "json", fs: newFS(t), engine: engine, out: &out}
		require.Error(t, me.Run(context.Background()))

		var got map[string][]struct {
			Severity int    `json:"severity"`
			Message  string `json:"message"`
		}
		require.NoError(t, json.Unmarshal(out.Bytes(), &got))
		require.Len(t, got["/proj/App.vue"], 1)
		assert.Equal(t, 1, got["/proj/App.vue"][0].Severity)
		assert.Equal(t, "bad", got["/proj/App.vue"][0].Message)
	})
}

func TestRunUnknownFormat(t *testing.T) {
	me := &Handler{dir: "/proj", format: "xml", fs: newFS(t), engine: host.NopEngine{}, out: &bytes.Buffer{}}
	require.Error(t, me.Run(context.Background()))
}

func TestCommandUsesInjectedEngine(t *testing.T) {
	dir := t.TempDir()
	app := filepath.Join(dir, "App.vue")
	require.NoError(t, os.WriteFile(app, []byte(component), 0o644))

	at := strings.Index(component, "export")
	engine := staticEngine{app: {
		{Message: "from engine", Code: 2304, Severity: diagnostic.Error, Span: position.NewSpan(at, at+6)},
	}}

	var out bytes.Buffer
	cmd := NewCheckCommandWithEngine(engine)
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{dir})

	err := cmd.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 errors found")
	assert.Contains(t, out.String(), "from engine [2304]")
}
