package workspace_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/go-sfc-typer/pkg/regions"
	"github.com/walteh/go-sfc-typer/pkg/workspace"
)

func memFS(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fs, name, []byte(content), 0o644))
	}
	return fs
}

func TestDiscover(t *testing.T) {
	fs := memFS(t, map[string]string{
		"/proj/src/App.vue":                 "<template></template>",
		"/proj/src/util.ts":                 "export const x = 1",
		"/proj/src/legacy.js":               "module.exports = {}",
		"/proj/node_modules/lib/index.js":   "",
		"/proj/README.md":                   "# proj",
		"/proj/src/components/Child.vue":    "",
		"/proj/src/components/Child.vue.md": "",
	})

	tests := []struct {
		name    string
		include []string
		exclude []string
		want    []string
	}{
		{
			name:    "components and scripts",
			include: []string{"**/*.vue", "**/*.{ts,js}"},
			exclude: []string{"**/node_modules/**"},
			want: []string{
				"/proj/src/App.vue",
				"/proj/src/components/Child.vue",
				"/proj/src/legacy.js",
				"/proj/src/util.ts",
			},
		},
		{
			name:    "exclude by name",
			include: []string{"src/**/*.vue"},
			exclude: []string{"**/App.vue"},
			want:    []string{"/proj/src/components/Child.vue"},
		},
		{
			name:    "nothing included",
			include: nil,
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := workspace.Discover(context.Background(), fs, "/proj", tt.include, tt.exclude)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDiscoverRejectsBadGlob(t *testing.T) {
	fs := memFS(t, map[string]string{"/proj/a.ts": ""})
	_, err := workspace.Discover(context.Background(), fs, "/proj", []string{"[a-"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid glob")
}

func TestDiscoverCancelled(t *testing.T) {
	fs := memFS(t, map[string]string{"/proj/a.ts": ""})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := workspace.Discover(ctx, fs, "/proj", []string{"**"}, nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestNewLine(t *testing.T) {
	tests := []struct {
		name   string
		config string
		want   string
	}{
		{name: "no editorconfig", want: "\n"},
		{name: "crlf for components", config: "root = true\n\n[*.vue]\nend_of_line = crlf\n", want: "\r\n"},
		{name: "cr everywhere", config: "root = true\n\n[*]\nend_of_line = cr\n", want: "\r"},
		{name: "other section only", config: "root = true\n\n[*.go]\nend_of_line = crlf\n", want: "\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files := map[string]string{"/proj/App.vue": ""}
			if tt.config != "" {
				files["/proj/.editorconfig"] = tt.config
			}
			assert.Equal(t, tt.want, workspace.NewLine(context.Background(), memFS(t, files), "/proj"))
		})
	}
}

func TestLanguageOf(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"src/a.ts", regions.LanguageTypeScript},
		{"src/a.tsx", regions.LanguageTSX},
		{"src/a.js", regions.LanguageScripting},
		{"src/App.vue", workspace.LanguageComponent},
		{"README.md", ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, workspace.LanguageOf(tt.path))
		})
	}

	assert.True(t, workspace.IsScript("a.ts"))
	assert.False(t, workspace.IsScript("App.vue"))
}

func TestWatcherDebouncesChanges(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "util.ts")

	cfg := workspace.DefaultWatchConfig(dir)
	cfg.Debounce = 50 * time.Millisecond

	w, err := workspace.NewWatcher(cfg)
	require.NoError(t, err)
	defer w.Stop()

	changes, err := w.Start(context.Background())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(target, []byte("export const a = 1"), 0o644))
	require.NoError(t, os.WriteFile(target, []byte("export const a = 2"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("ignored"), 0o644))

	select {
	case batch := <-changes:
		assert.Equal(t, []string{target}, batch)
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}
}

func TestWatcherStopClosesChanges(t *testing.T) {
	w, err := workspace.NewWatcher(workspace.DefaultWatchConfig(t.TempDir()))
	require.NoError(t, err)

	changes, err := w.Start(context.Background())
	require.NoError(t, err)

	require.NoError(t, w.Stop())
	assert.NotPanics(t, func() { _ = w.Stop() })

	done := make(chan struct{})
	go func() {
		for range changes {
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("changes not closed after Stop")
	}
}
