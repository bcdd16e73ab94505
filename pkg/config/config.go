// Package config loads project settings from YAML or HCL.
package config

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/spf13/afero"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// FileNames are the config files Find looks for, in order.
var FileNames = []string{"sfc-typer.yaml", "sfc-typer.yml", "sfc-typer.hcl"}

type Config struct {
	Root    string   `yaml:"root,omitempty" hcl:"root,optional"`
	Include []string `yaml:"include,omitempty" hcl:"include,optional"`
	Exclude []string `yaml:"exclude,omitempty" hcl:"exclude,optional"`

	CacheMaxEntries    int `yaml:"cache_max_entries" hcl:"cache_max_entries,optional"`
	CacheMaxAgeSeconds int `yaml:"cache_max_age_seconds" hcl:"cache_max_age_seconds,optional"`

	ValidateTemplates bool `yaml:"validate_templates" hcl:"validate_templates,optional"`
	Interpolations    bool `yaml:"interpolations" hcl:"interpolations,optional"`
	// Globals are identifiers templates may use without the component declaring them.
	Globals []string `yaml:"globals,omitempty" hcl:"globals,optional"`

	CustomBlockLanguages []string `yaml:"custom_block_languages,omitempty" hcl:"custom_block_languages,optional"`

	// NewLine is lf, crlf or cr. Empty defers to .editorconfig.
	NewLine string `yaml:"newline,omitempty" hcl:"newline,optional"`
}

func Default() *Config {
	return &Config{
		Root:                 ".",
		Include:              []string{"**/*.vue", "**/*.{ts,tsx,js}"},
		Exclude:              []string{"**/node_modules/**", "**/dist/**"},
		CacheMaxEntries:      10,
		CacheMaxAgeSeconds:   60,
		ValidateTemplates:    true,
		Interpolations:       true,
		CustomBlockLanguages: []string{"json", "yaml", "markdown"},
	}
}

var newLines = map[string]string{
	"":     "",
	"lf":   "\n",
	"crlf": "\r\n",
	"cr":   "\r",
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs *multierror.Error

	if c.Root == "" {
		errs = multierror.Append(errs, errors.New("root must not be empty"))
	}
	for _, g := range append(append([]string{}, c.Include...), c.Exclude...) {
		if !doublestar.ValidatePattern(g) {
			errs = multierror.Append(errs, errors.Errorf("invalid glob %q", g))
		}
	}
	if c.CacheMaxEntries < 0 {
		errs = multierror.Append(errs, errors.Errorf("cache_max_entries must not be negative, got %d", c.CacheMaxEntries))
	}
	if c.CacheMaxAgeSeconds < 0 {
		errs = multierror.Append(errs, errors.Errorf("cache_max_age_seconds must not be negative, got %d", c.CacheMaxAgeSeconds))
	}
	if _, ok := newLines[c.NewLine]; !ok {
		errs = multierror.Append(errs, errors.Errorf("newline must be lf, crlf or cr, got %q", c.NewLine))
	}
	for _, lang := range c.CustomBlockLanguages {
		if strings.TrimSpace(lang) == "" {
			errs = multierror.Append(errs, errors.New("custom_block_languages must not contain empty names"))
			break
		}
	}

	if err := errs.ErrorOrNil(); err != nil {
		return errors.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c *Config) CacheMaxAge() time.Duration {
	return time.Duration(c.CacheMaxAgeSeconds) * time.Second
}

// NewLineSequence is the configured newline, or "" when unset.
func (c *Config) NewLineSequence() string {
	return newLines[c.NewLine]
}

// ResolveRoot makes Root absolute relative to the directory the config was loaded from.
func (c *Config) ResolveRoot(dir string) string {
	if filepath.IsAbs(c.Root) {
		return filepath.Clean(c.Root)
	}
	return filepath.Join(dir, c.Root)
}

// Find returns the first config file present in dir.
func Find(fs afero.Fs, dir string) (string, bool) {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if ok, _ := afero.Exists(fs, path); ok {
			return path, true
		}
	}
	return "", false
}

// Load reads a YAML or HCL config over the defaults and validates it. HCL files can
// reference environment variables as env.NAME.
func Load(fs afero.Fs, path string) (*Config, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	cfg := Default()

	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, errors.Errorf("parsing YAML: %w", err)
		}
	case ".hcl":
		parser := hclparse.NewParser()
		file, diags := parser.ParseHCL(data, path)
		if diags.HasErrors() {
			return nil, errors.Errorf("parsing HCL: %s", diags.Error())
		}
		diags = gohcl.DecodeBody(file.Body, evalContext(), cfg)
		if diags.HasErrors() {
			return nil, errors.Errorf("decoding HCL: %s", diags.Error())
		}
	default:
		return nil, errors.Errorf("unsupported config format %q", filepath.Ext(path))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDir loads the config file found in dir, or the defaults when there is none, and
// makes its root absolute. The returned path is empty when no file was found.
func LoadDir(fs afero.Fs, dir string) (*Config, string, error) {
	cfg := Default()
	path, ok := Find(fs, dir)
	if ok {
		var err error
		if cfg, err = Load(fs, path); err != nil {
			return nil, path, errors.Errorf("loading %s: %w", path, err)
		}
	}
	cfg.Root = cfg.ResolveRoot(dir)
	return cfg, path, nil
}

func evalContext() *hcl.EvalContext {
	env := map[string]cty.Value{}
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok && hclsyntax.ValidIdentifier(k) {
			env[k] = cty.StringVal(v)
		}
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"env": cty.ObjectVal(env)},
	}
}

// ToYAML renders the effective config.
func (c *Config) ToYAML() ([]byte, error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(c); err != nil {
		return nil, errors.Errorf("encoding config: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, errors.Errorf("closing encoder: %w", err)
	}
	return buf.Bytes(), nil
}
