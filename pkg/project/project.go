// Package project ties the per-document caches and the compilation host of one root
// together behind the calls an editor makes.
package project

import (
	"context"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"
	"go.uber.org/multierr"

	"github.com/walteh/go-sfc-typer/pkg/cache"
	"github.com/walteh/go-sfc-typer/pkg/config"
	"github.com/walteh/go-sfc-typer/pkg/diagnostic"
	"github.com/walteh/go-sfc-typer/pkg/document"
	"github.com/walteh/go-sfc-typer/pkg/embedded"
	"github.com/walteh/go-sfc-typer/pkg/host"
	"github.com/walteh/go-sfc-typer/pkg/markup"
	"github.com/walteh/go-sfc-typer/pkg/position"
	"github.com/walteh/go-sfc-typer/pkg/projection"
	"github.com/walteh/go-sfc-typer/pkg/regions"
	"github.com/walteh/go-sfc-typer/pkg/workspace"
)

// Project is not safe for concurrent use.
type Project struct {
	cfg  *config.Config
	root string
	fs   afero.Fs

	regions   *cache.LanguageModelCache[*regions.Result]
	markup    *cache.LanguageModelCache[*markup.Document]
	languages map[string]*cache.LanguageModelCache[*document.Document]

	host    *host.Host
	service *host.Service
	watcher *workspace.Watcher

	components []string
	externals  []string
	open       map[string]*document.Document
}

// New discovers the files under cfg.Root and registers its plain scripts with the host.
func New(ctx context.Context, cfg *config.Config, engine host.Engine, fs afero.Fs) (*Project, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if engine == nil {
		engine = host.NopEngine{}
	}

	me := &Project{
		cfg:       cfg,
		root:      cfg.Root,
		fs:        fs,
		languages: map[string]*cache.LanguageModelCache[*document.Document]{},
		open:      map[string]*document.Document{},
	}

	me.regions = cache.New("regions", cacheOptions[*regions.Result](cfg),
		func(_ context.Context, doc *document.Document) *regions.Result {
			return regions.Parse(doc.Text())
		})
	me.markup = cache.New("markup", cacheOptions[*markup.Document](cfg),
		func(ctx context.Context, doc *document.Document) *markup.Document {
			return markup.Parse(me.EmbeddedDocument(ctx, doc, regions.LanguageMarkupHTML).Text())
		})

	var globals []string
	if len(cfg.Globals) > 0 {
		globals = append(append(globals, projection.DefaultGlobals...), cfg.Globals...)
	}

	me.host = host.New(ctx, host.Options{
		Root:            me.root,
		FS:              fs,
		NewLine:         cfg.NewLineSequence(),
		SkipTemplates:   !cfg.ValidateTemplates,
		Projection:      projection.Options{Globals: globals, SkipInterpolations: !cfg.Interpolations},
		CacheMaxEntries: cfg.CacheMaxEntries,
		CacheMaxAge:     cacheMaxAge(cfg),
		Regions:         me.regions,
	})
	me.service = host.NewService(me.host, engine)

	files, err := workspace.Discover(ctx, fs, me.root, cfg.Include, cfg.Exclude)
	if err != nil {
		return nil, errors.Errorf("discovering project files: %w", err)
	}
	for _, f := range files {
		switch {
		case workspace.LanguageOf(f) == workspace.LanguageComponent:
			me.components = append(me.components, f)
		case workspace.IsScript(f):
			me.externals = append(me.externals, f)
			me.host.UpdateExternalFile(ctx, f)
		}
	}

	zerolog.Ctx(ctx).Debug().
		Str("root", me.root).
		Int("components", len(me.components)).
		Int("scripts", len(me.externals)).
		Msg("opened project")

	return me, nil
}

func cacheOptions[T any](cfg *config.Config) cache.Options[T] {
	return cache.Options[T]{MaxEntries: cfg.CacheMaxEntries, MaxAge: cacheMaxAge(cfg)}
}

// cacheMaxAge is the configured max age. Zero in the config disables expiry.
func cacheMaxAge(cfg *config.Config) time.Duration {
	if age := cfg.CacheMaxAge(); age > 0 {
		return age
	}
	return -1
}

func (me *Project) Root() string {
	return me.root
}

func (me *Project) Host() *host.Host {
	return me.host
}

// Components lists the component files discovered under the root.
func (me *Project) Components() []string {
	return me.components
}

// Scripts lists the plain script files discovered under the root.
func (me *Project) Scripts() []string {
	return me.externals
}

// Open starts tracking doc. It is the same as Update.
func (me *Project) Open(ctx context.Context, doc *document.Document) error {
	return me.Update(ctx, doc)
}

// Update refreshes the caches and virtual files derived from doc. New text at an unchanged
// version replaces everything cached for the old text.
func (me *Project) Update(ctx context.Context, doc *document.Document) error {
	path := document.NormalizeURI(doc.URI)
	if prev, ok := me.open[path]; ok && prev.Version == doc.Version && prev.Text() != doc.Text() {
		me.forget(ctx, doc.URI)
	}
	me.open[path] = doc
	if err := me.host.UpdateDocument(ctx, doc); err != nil {
		return errors.Errorf("updating %s: %w", doc.URI, err)
	}
	return nil
}

// Close stops tracking uri and drops everything derived from it.
func (me *Project) Close(ctx context.Context, uri string) {
	delete(me.open, document.NormalizeURI(uri))
	me.forget(ctx, uri)
	me.host.RemoveDocument(ctx, uri)
}

func (me *Project) forget(ctx context.Context, uri string) {
	me.regions.OnDocumentRemoved(ctx, uri)
	me.markup.OnDocumentRemoved(ctx, uri)
	for _, c := range me.languages {
		c.OnDocumentRemoved(ctx, uri)
	}
}

// OpenFile reads a component from the project file system and opens it at version 1.
func (me *Project) OpenFile(ctx context.Context, path string) (*document.Document, error) {
	raw, err := afero.ReadFile(me.fs, path)
	if err != nil {
		return nil, errors.Errorf("reading %s: %w", path, err)
	}
	doc := document.New(path, workspace.LanguageComponent, 1, string(raw))
	if err := me.Open(ctx, doc); err != nil {
		return doc, err
	}
	return doc, nil
}

func (me *Project) Regions(ctx context.Context, doc *document.Document) *regions.Result {
	return me.regions.RefreshAndGet(ctx, doc)
}

// EmbeddedDocument returns doc masked down to the regions of languageID.
func (me *Project) EmbeddedDocument(ctx context.Context, doc *document.Document, languageID string) *document.Document {
	c, ok := me.languages[languageID]
	if !ok {
		c = cache.New("embedded-"+languageID, cacheOptions[*document.Document](me.cfg),
			func(ctx context.Context, doc *document.Document) *document.Document {
				return embedded.SingleLanguageDocument(doc, me.Regions(ctx, doc).Regions, languageID)
			})
		me.languages[languageID] = c
	}
	return c.RefreshAndGet(ctx, doc)
}

// TypeDocument returns doc masked down to the regions of type t.
func (me *Project) TypeDocument(ctx context.Context, doc *document.Document, t regions.Type) *document.Document {
	return embedded.SingleTypeDocument(doc, me.Regions(ctx, doc).Regions, t)
}

// CustomBlockDocument returns the custom blocks named tag. A block in a language the
// config does not list is an error.
func (me *Project) CustomBlockDocument(ctx context.Context, doc *document.Document, tag string) (*document.Document, error) {
	return embedded.CustomBlockDocument(doc, me.Regions(ctx, doc).Regions, tag, me.cfg.CustomBlockLanguages)
}

func (me *Project) LanguageAt(ctx context.Context, doc *document.Document, place position.Place) string {
	return embedded.LanguageAtPosition(doc, me.Regions(ctx, doc).Regions, place)
}

func (me *Project) LanguageRanges(ctx context.Context, doc *document.Document, rng *position.Range) []embedded.LanguageRange {
	return embedded.LanguageRanges(doc, me.Regions(ctx, doc).Regions, rng)
}

// Markup returns the template tree of doc.
func (me *Project) Markup(ctx context.Context, doc *document.Document) *markup.Document {
	return me.markup.RefreshAndGet(ctx, doc)
}

// TemplateUnit returns the generated template unit of doc, bringing the host up to date first.
func (me *Project) TemplateUnit(ctx context.Context, doc *document.Document) (*host.TemplateUnit, error) {
	if err := me.sync(ctx, doc); err != nil {
		return nil, err
	}
	unit, ok := me.host.TemplateUnit(document.NormalizeURI(doc.URI))
	if !ok {
		return nil, errors.Errorf("%s has no html template", doc.URI)
	}
	return unit, nil
}

// Diagnostics returns the script and template diagnostics of doc in document order.
func (me *Project) Diagnostics(ctx context.Context, doc *document.Document) ([]diagnostic.Diagnostic, error) {
	if err := me.sync(ctx, doc); err != nil {
		return nil, err
	}
	diags := me.service.ScriptDiagnostics(ctx, doc.URI)
	diags = append(diags, me.service.TemplateDiagnostics(ctx, doc.URI)...)
	diagnostic.Sort(diags)
	return diags, nil
}

// ValidateAll checks every open document. Results are keyed by uri.
func (me *Project) ValidateAll(ctx context.Context) (map[string][]diagnostic.Diagnostic, error) {
	uris := make([]string, 0, len(me.open))
	for _, doc := range me.open {
		uris = append(uris, doc.URI)
	}
	sort.Strings(uris)
	return me.service.ValidateAll(ctx, uris)
}

func (me *Project) sync(ctx context.Context, doc *document.Document) error {
	current, ok := me.host.Document(document.NormalizeURI(doc.URI))
	if ok && current.Version == doc.Version && current.Text() == doc.Text() {
		return nil
	}
	return me.Update(ctx, doc)
}

// Watch starts reporting changes to the plain scripts of the project. Apply each batch
// with ApplyChanges on the goroutine that owns the project.
func (me *Project) Watch(ctx context.Context, cfg workspace.WatchConfig) (<-chan []string, error) {
	if me.watcher != nil {
		return nil, errors.New("project is already watched")
	}

	dirs := map[string]bool{me.root: true}
	for _, f := range me.externals {
		dirs[filepath.Dir(f)] = true
	}
	cfg.Dirs = make([]string, 0, len(dirs))
	for d := range dirs {
		cfg.Dirs = append(cfg.Dirs, d)
	}
	sort.Strings(cfg.Dirs)

	w, err := workspace.NewWatcher(cfg)
	if err != nil {
		return nil, err
	}
	changes, err := w.Start(ctx)
	if err != nil {
		return nil, multierr.Append(err, w.Stop())
	}
	me.watcher = w
	return changes, nil
}

// ApplyChanges tells the host that the given script files changed on disk.
func (me *Project) ApplyChanges(ctx context.Context, paths []string) {
	for _, p := range paths {
		me.host.UpdateExternalFile(ctx, p)
	}
}

// Dispose releases every cache, the host and the watcher.
func (me *Project) Dispose(ctx context.Context) error {
	var err error
	if me.watcher != nil {
		err = multierr.Append(err, me.watcher.Stop())
		me.watcher = nil
	}

	me.regions.Dispose(ctx)
	me.markup.Dispose(ctx)
	for _, c := range me.languages {
		c.Dispose(ctx)
	}
	clear(me.languages)
	clear(me.open)
	me.host.Dispose(ctx)

	if err != nil {
		return errors.Errorf("disposing project: %w", err)
	}
	return nil
}
