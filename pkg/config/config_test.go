package config_test

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/go-sfc-typer/pkg/config"
)

func write(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fs, name, []byte(content), 0o644))
	}
	return fs
}

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, config.Default().Validate())
}

func TestLoadYAML(t *testing.T) {
	fs := write(t, map[string]string{"/p/sfc-typer.yaml": `
root: web
include: ["src/**/*.vue"]
cache_max_entries: 3
cache_max_age_seconds: 5
interpolations: false
globals: [$t]
newline: crlf
`})

	cfg, err := config.Load(fs, "/p/sfc-typer.yaml")
	require.NoError(t, err)

	assert.Equal(t, "web", cfg.Root)
	assert.Equal(t, "/p/web", cfg.ResolveRoot("/p"))
	assert.Equal(t, []string{"src/**/*.vue"}, cfg.Include)
	assert.Equal(t, config.Default().Exclude, cfg.Exclude)
	assert.Equal(t, 3, cfg.CacheMaxEntries)
	assert.Equal(t, "5s", cfg.CacheMaxAge().String())
	assert.False(t, cfg.Interpolations)
	assert.True(t, cfg.ValidateTemplates)
	assert.Equal(t, []string{"$t"}, cfg.Globals)
	assert.Equal(t, "\r\n", cfg.NewLineSequence())
}

func TestLoadEmptyYAMLKeepsDefaults(t *testing.T) {
	fs := write(t, map[string]string{"/p/sfc-typer.yml": ""})

	cfg, err := config.Load(fs, "/p/sfc-typer.yml")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoadHCL(t *testing.T) {
	t.Setenv("SFC_TYPER_TEST_ROOT", "/work")
	fs := write(t, map[string]string{"/p/sfc-typer.hcl": `
root               = "${env.SFC_TYPER_TEST_ROOT}/app"
include            = ["src/**/*.vue"]
cache_max_entries  = 5
validate_templates = false
`})

	cfg, err := config.Load(fs, "/p/sfc-typer.hcl")
	require.NoError(t, err)

	assert.Equal(t, "/work/app", cfg.Root)
	assert.Equal(t, "/work/app", cfg.ResolveRoot("/p"))
	assert.Equal(t, []string{"src/**/*.vue"}, cfg.Include)
	assert.Equal(t, 5, cfg.CacheMaxEntries)
	assert.Equal(t, 60, cfg.CacheMaxAgeSeconds)
	assert.False(t, cfg.ValidateTemplates)
	assert.True(t, cfg.Interpolations)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		content string
		want    []string
	}{
		{name: "unknown yaml field", path: "/p/c.yaml", content: "colour: red\n", want: []string{"parsing YAML"}},
		{name: "unknown hcl attribute", path: "/p/c.hcl", content: "colour = \"red\"\n", want: []string{"decoding HCL"}},
		{name: "broken hcl", path: "/p/c.hcl", content: "root = \n", want: []string{"parsing HCL"}},
		{name: "format", path: "/p/c.toml", content: "", want: []string{"unsupported config format"}},
		{
			name:    "every invalid field is reported",
			path:    "/p/c.yaml",
			content: "cache_max_entries: -1\nnewline: unix\ninclude: ['[a-']\n",
			want:    []string{"cache_max_entries", "newline", "invalid glob"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Load(write(t, map[string]string{tt.path: tt.content}), tt.path)
			require.Error(t, err)
			for _, w := range tt.want {
				assert.Contains(t, err.Error(), w)
			}
		})
	}

	_, err := config.Load(afero.NewMemMapFs(), "/p/missing.yaml")
	assert.Error(t, err)
}

func TestFind(t *testing.T) {
	fs := write(t, map[string]string{"/p/sfc-typer.hcl": "", "/p/sfc-typer.yml": ""})

	path, ok := config.Find(fs, "/p")
	assert.True(t, ok)
	assert.Equal(t, "/p/sfc-typer.yml", path)

	_, ok = config.Find(fs, "/q")
	assert.False(t, ok)
}

func TestToYAML(t *testing.T) {
	out, err := config.Default().ToYAML()
	require.NoError(t, err)
	assert.Contains(t, string(out), "validate_templates: true")
	assert.Contains(t, string(out), "cache_max_entries: 10")
}

func TestLoadDir(t *testing.T) {
	fs := write(t, map[string]string{"/p/sfc-typer.yaml": "root: web\n"})

	cfg, path, err := config.LoadDir(fs, "/p")
	require.NoError(t, err)
	assert.Equal(t, "/p/sfc-typer.yaml", path)
	assert.Equal(t, "/p/web", cfg.Root)

	cfg, path, err = config.LoadDir(fs, "/q")
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Equal(t, "/q", cfg.Root)

	_, _, err = config.LoadDir(write(t, map[string]string{"/r/sfc-typer.yaml": "nope: 1\n"}), "/r")
	assert.Error(t, err)
}
