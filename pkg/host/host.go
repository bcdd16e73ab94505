// Package host presents components as plain script files to an external type checking
// engine. Each component X.vue becomes two virtual files: X.vue itself, holding only its
// script block, and X.vue.template, rendering the projected template against the component.
package host

import (
	"context"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/walteh/go-sfc-typer/pkg/bridge"
	"github.com/walteh/go-sfc-typer/pkg/cache"
	"github.com/walteh/go-sfc-typer/pkg/document"
	"github.com/walteh/go-sfc-typer/pkg/markup"
	"github.com/walteh/go-sfc-typer/pkg/projection"
	"github.com/walteh/go-sfc-typer/pkg/regions"
	"github.com/walteh/go-sfc-typer/pkg/sourcemap"
	"github.com/walteh/go-sfc-typer/pkg/workspace"
)

const (
	componentExt   = ".vue"
	templateSuffix = ".template"

	// emptyComponent stands in for a component without a script block.
	emptyComponent = "export default {};"

	unversioned = "0"
)

// CompilerHost is the file system view a type checking engine compiles against.
type CompilerHost interface {
	ScriptFileNames() []string
	ScriptVersion(name string) string
	ScriptSnapshot(name string) (Snapshot, bool)
	ScriptKind(name string) ScriptKind
	ResolveModuleNames(ctx context.Context, names []string, containing string) []*ResolvedModule
	CurrentDirectory() string
	NewLine() string
	FileExists(name string) bool
	ReadFile(name string) (string, bool)
}

var _ CompilerHost = (*Host)(nil)

type Options struct {
	Root string
	// FS defaults to the OS file system.
	FS afero.Fs
	// NewLine overrides the .editorconfig setting.
	NewLine string
	// SkipTemplates disables template units.
	SkipTemplates bool
	Projection    projection.Options

	CacheMaxEntries int
	CacheMaxAge     time.Duration
	// Regions is shared with the caller when set. The host only disposes caches it created.
	Regions *cache.LanguageModelCache[*regions.Result]
}

type virtualFile struct {
	snapshot  Snapshot
	version   int
	kind      ScriptKind
	sourceMap *sourcemap.Map
}

type externalFile struct {
	snapshot *Snapshot
	version  int
}

// Host owns every virtual file of one project root. It is not safe for concurrent use.
type Host struct {
	id            string
	root          string
	fs            afero.Fs
	newline       string
	skipTemplates bool
	projector     *projection.Projector

	regionCache *cache.LanguageModelCache[*regions.Result]
	markupCache *cache.LanguageModelCache[*markup.Document]
	ownsRegions bool

	documents   map[string]*document.Document
	files       map[string]*virtualFile
	externals   map[string]*externalFile
	resolutions map[resolutionKey]*ResolvedModule

	// generation numbers every virtual file version so a removed and reopened file
	// never reuses a version token
	generation int
}

func New(ctx context.Context, opts Options) *Host {
	fs := opts.FS
	if fs == nil {
		fs = afero.NewOsFs()
	}

	newline := opts.NewLine
	if newline == "" {
		newline = workspace.NewLine(ctx, fs, opts.Root)
	}

	maxEntries, maxAge := opts.CacheMaxEntries, opts.CacheMaxAge

	me := &Host{
		id:            uuid.NewString(),
		root:          opts.Root,
		fs:            fs,
		newline:       newline,
		skipTemplates: opts.SkipTemplates,
		projector:     projection.New(opts.Projection),
		documents:     map[string]*document.Document{},
		files:         map[string]*virtualFile{},
		externals:     map[string]*externalFile{},
		resolutions:   map[resolutionKey]*ResolvedModule{},
	}

	me.regionCache = opts.Regions
	if me.regionCache == nil {
		me.ownsRegions = true
		me.regionCache = cache.New("host-regions", cache.Options[*regions.Result]{MaxEntries: maxEntries, MaxAge: maxAge},
			func(_ context.Context, doc *document.Document) *regions.Result {
				return regions.Parse(doc.Text())
			})
	}
	me.markupCache = cache.New("host-markup", cache.Options[*markup.Document]{MaxEntries: maxEntries, MaxAge: maxAge},
		func(_ context.Context, doc *document.Document) *markup.Document {
			return markup.Parse(doc.Text())
		})

	zerolog.Ctx(ctx).Debug().Str("host", me.id).Str("root", me.root).Msg("created compilation host")

	return me
}

func (me *Host) ID() string {
	return me.id
}

// TemplateFileName is the virtual template unit of a component path.
func TemplateFileName(path string) string {
	return path + templateSuffix
}

// IsTemplateFile reports whether name is a virtual template unit.
func IsTemplateFile(name string) bool {
	return strings.HasSuffix(name, componentExt+templateSuffix)
}

func (me *Host) bridgePath() string {
	return filepath.Join(me.root, filepath.FromSlash(bridge.FileName))
}

// UpdateDocument regenerates the virtual files of doc. Versions move only for files whose
// text changed.
func (me *Host) UpdateDocument(ctx context.Context, doc *document.Document) error {
	path := document.NormalizeURI(doc.URI)
	if prev, ok := me.documents[path]; ok && prev.Version == doc.Version && prev.Text() != doc.Text() {
		// the caches are keyed by version and would hand back results for the old text
		zerolog.Ctx(ctx).Debug().Str("uri", path).Int32("version", doc.Version).Msg("text changed without a version bump")
		me.regionCache.OnDocumentRemoved(ctx, doc.URI)
		me.markupCache.OnDocumentRemoved(ctx, doc.URI)
	}
	me.documents[path] = doc
	clear(me.resolutions)

	rs := me.regionCache.RefreshAndGet(ctx, doc)

	script := emptyComponent
	if len(rs.OfType(regions.TypeScript)) > 0 {
		script = maskedText(doc, rs, regions.TypeScript)
	}
	me.put(ctx, path, script, KindOfLanguage(rs.ScriptLanguage()), nil)

	template := TemplateFileName(path)
	unit, ok := me.templateUnit(ctx, path, doc, rs)
	if !ok {
		delete(me.files, template)
		return nil
	}
	me.put(ctx, template, unit.Text, KindJS, unit.Map)

	return unit.Err
}

// RemoveDocument drops the virtual files of uri.
func (me *Host) RemoveDocument(ctx context.Context, uri string) {
	path := document.NormalizeURI(uri)
	delete(me.documents, path)
	delete(me.files, path)
	delete(me.files, TemplateFileName(path))
	clear(me.resolutions)

	me.regionCache.OnDocumentRemoved(ctx, uri)
	me.markupCache.OnDocumentRemoved(ctx, uri)
}

// UpdateExternalFile marks a plain script file on disk as changed.
func (me *Host) UpdateExternalFile(ctx context.Context, path string) {
	ext, ok := me.externals[path]
	if !ok {
		ext = &externalFile{}
		me.externals[path] = ext
	}
	ext.version++
	ext.snapshot = nil
	clear(me.resolutions)

	zerolog.Ctx(ctx).Debug().Str("file", path).Int("version", ext.version).Msg("external file changed")
}

// Dispose drops every file and cache the host holds.
func (me *Host) Dispose(ctx context.Context) {
	if me.ownsRegions {
		me.regionCache.Dispose(ctx)
	}
	me.markupCache.Dispose(ctx)
	clear(me.documents)
	clear(me.files)
	clear(me.externals)
	clear(me.resolutions)

	zerolog.Ctx(ctx).Debug().Str("host", me.id).Msg("disposed compilation host")
}

func (me *Host) put(ctx context.Context, name, text string, kind ScriptKind, m *sourcemap.Map) {
	vf, ok := me.files[name]
	if !ok {
		me.generation++
		me.files[name] = &virtualFile{snapshot: NewSnapshot(text), version: me.generation, kind: kind, sourceMap: m}
		return
	}

	vf.kind = kind
	vf.sourceMap = m
	if vf.snapshot.Text() == text {
		return
	}

	change := NewSnapshot(text).ChangeRange(vf.snapshot)
	vf.snapshot = NewSnapshot(text)
	me.generation++
	vf.version = me.generation

	zerolog.Ctx(ctx).Debug().
		Str("file", name).
		Int("version", vf.version).
		Stringer("changed", change.Span).
		Int("new_length", change.NewLength).
		Msg("virtual file changed")
}

// Document returns the open document at path.
func (me *Host) Document(path string) (*document.Document, bool) {
	doc, ok := me.documents[path]
	return doc, ok
}

// TemplateUnit returns the current template unit of the component at path.
func (me *Host) TemplateUnit(path string) (*TemplateUnit, bool) {
	vf, ok := me.files[TemplateFileName(path)]
	if !ok {
		return nil, false
	}
	return &TemplateUnit{Text: vf.snapshot.Text(), Map: vf.sourceMap}, true
}

// SourceMap returns the map of a virtual template unit.
func (me *Host) SourceMap(name string) (*sourcemap.Map, bool) {
	vf, ok := me.files[name]
	if !ok || vf.sourceMap == nil {
		return nil, false
	}
	return vf.sourceMap, true
}

func (me *Host) ScriptFileNames() []string {
	names := make([]string, 0, len(me.files)+len(me.externals)+1)
	for name := range me.files {
		names = append(names, name)
	}
	for name := range me.externals {
		if _, ok := me.files[name]; !ok {
			names = append(names, name)
		}
	}
	names = append(names, me.bridgePath())
	sort.Strings(names)
	return names
}

func (me *Host) ScriptVersion(name string) string {
	if name == me.bridgePath() {
		return bridge.Version
	}
	if isLibrary(name) {
		return unversioned
	}
	if vf, ok := me.files[name]; ok {
		return strconv.Itoa(vf.version)
	}
	if ext, ok := me.externals[name]; ok {
		return strconv.Itoa(ext.version)
	}
	if me.onDisk(name) {
		return unversioned
	}
	return ""
}

func (me *Host) ScriptSnapshot(name string) (Snapshot, bool) {
	if name == me.bridgePath() {
		return NewSnapshot(bridge.Content()), true
	}
	if vf, ok := me.files[name]; ok {
		return vf.snapshot, true
	}

	ext, tracked := me.externals[name]
	if tracked && ext.snapshot != nil {
		return *ext.snapshot, true
	}

	raw, err := afero.ReadFile(me.fs, name)
	if err != nil {
		return Snapshot{}, false
	}
	snap := NewSnapshot(string(raw))
	if tracked {
		ext.snapshot = &snap
	}
	return snap, true
}

func (me *Host) ScriptKind(name string) ScriptKind {
	if name == me.bridgePath() {
		return KindTS
	}
	if vf, ok := me.files[name]; ok {
		return vf.kind
	}
	return KindOfPath(name)
}

func (me *Host) CurrentDirectory() string {
	return me.root
}

func (me *Host) NewLine() string {
	return me.newline
}

func (me *Host) FileExists(name string) bool {
	if name == me.bridgePath() {
		return true
	}
	if _, ok := me.files[name]; ok {
		return true
	}
	return me.onDisk(name)
}

func (me *Host) ReadFile(name string) (string, bool) {
	snap, ok := me.ScriptSnapshot(name)
	if !ok {
		return "", false
	}
	return snap.Text(), true
}

func (me *Host) onDisk(name string) bool {
	info, err := me.fs.Stat(name)
	return err == nil && !info.IsDir()
}

func isLibrary(name string) bool {
	return strings.Contains(filepath.ToSlash(name), "/node_modules/")
}
