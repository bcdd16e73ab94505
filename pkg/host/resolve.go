package host

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/walteh/go-sfc-typer/pkg/bridge"
)

// ResolvedModule is where an import specifier points.
type ResolvedModule struct {
	FileName          string
	Extension         string
	IsExternalLibrary bool
}

type resolutionKey struct {
	name       string
	containing string
}

var (
	relativeProbes = []string{"", ".ts", ".tsx", ".d.ts", ".js", ".jsx", "/index.ts", "/index.tsx", "/index.d.ts", "/index.js"}
	packageProbes  = []string{".d.ts", "/index.d.ts", "/index.ts", "/index.js"}
)

// ResolveModuleNames resolves each import of containing. Unresolved names yield nil.
func (me *Host) ResolveModuleNames(ctx context.Context, names []string, containing string) []*ResolvedModule {
	out := make([]*ResolvedModule, len(names))
	for i, name := range names {
		out[i] = me.resolve(ctx, name, containing)
	}
	return out
}

func (me *Host) resolve(ctx context.Context, name, containing string) *ResolvedModule {
	if name == bridge.ModuleName {
		return &ResolvedModule{FileName: me.bridgePath(), Extension: ".ts"}
	}

	// a component and its template unit import relative to the same directory
	key := resolutionKey{name: name, containing: strings.TrimSuffix(containing, templateSuffix)}
	if r, ok := me.resolutions[key]; ok {
		zerolog.Ctx(ctx).Trace().Str("name", name).Str("containing", containing).Msg("resolution cache hit")
		return r
	}

	r := me.resolveUncached(name, key.containing)
	if r != nil {
		me.resolutions[key] = r
	}
	return r
}

func (me *Host) resolveUncached(name, containing string) *ResolvedModule {
	if isRelative(name) {
		target := filepath.Join(filepath.Dir(containing), filepath.FromSlash(name))

		if strings.HasSuffix(target, componentExt) {
			if vf, ok := me.files[target]; ok {
				return &ResolvedModule{FileName: target, Extension: vf.kind.Extension()}
			}
			if me.onDisk(target) {
				return &ResolvedModule{FileName: target, Extension: KindJS.Extension()}
			}
			return nil
		}

		return me.probe(target, relativeProbes, false)
	}

	return me.probe(filepath.Join(me.root, "node_modules", filepath.FromSlash(name)), packageProbes, true)
}

func (me *Host) probe(base string, suffixes []string, external bool) *ResolvedModule {
	for _, suffix := range suffixes {
		candidate := base + filepath.FromSlash(suffix)
		if !me.FileExists(candidate) || KindOfPath(candidate) == KindUnknown {
			continue
		}
		return &ResolvedModule{FileName: candidate, Extension: extensionOf(candidate), IsExternalLibrary: external}
	}
	return nil
}

func extensionOf(path string) string {
	if strings.HasSuffix(path, ".d.ts") {
		return ".d.ts"
	}
	return filepath.Ext(path)
}

func isRelative(name string) bool {
	return strings.HasPrefix(name, "./") || strings.HasPrefix(name, "../") || name == "." || name == ".."
}
