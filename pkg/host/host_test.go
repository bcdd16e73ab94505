package host_test

import (
	"context"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/go-sfc-typer/pkg/bridge"
	"github.com/walteh/go-sfc-typer/pkg/cache"
	"github.com/walteh/go-sfc-typer/pkg/document"
	"github.com/walteh/go-sfc-typer/pkg/host"
	"github.com/walteh/go-sfc-typer/pkg/position"
	"github.com/walteh/go-sfc-typer/pkg/regions"
)

const (
	root       = "/proj"
	appPath    = "/proj/App.vue"
	appURI     = "file:///proj/App.vue"
	bridgePath = "/proj/sfc-temp/sfc-editor-bridge.ts"
)

const app = "<template>\n  <div :title=\"msg\">{{ count }}</div>\n</template>\n" +
	"<script>\nexport default { data() { return { msg: \"\", count: 1 } } }\n</script>\n"

func newHost(t *testing.T, files map[string]string) (*host.Host, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fs, name, []byte(content), 0o644))
	}
	return host.New(context.Background(), host.Options{Root: root, FS: fs}), fs
}

func open(t *testing.T, h *host.Host, uri string, version int32, text string) {
	t.Helper()
	require.NoError(t, h.UpdateDocument(context.Background(), document.New(uri, "vue", version, text)))
}

func snapshot(t *testing.T, h *host.Host, name string) string {
	t.Helper()
	snap, ok := h.ScriptSnapshot(name)
	require.True(t, ok, "no snapshot for %s", name)
	return snap.Text()
}

func TestUpdateDocumentBuildsVirtualFiles(t *testing.T) {
	h, _ := newHost(t, nil)
	open(t, h, appURI, 1, app)

	assert.Equal(t, []string{appPath, appPath + ".template", bridgePath}, h.ScriptFileNames())

	script := snapshot(t, h, appPath)
	assert.Equal(t, len(app), len(script))
	assert.Equal(t, strings.Index(app, "export default"), strings.Index(script, "export default"))
	assert.NotContains(t, script, "template")

	want := "import __Component from \"./App.vue\";\n" +
		"import { __sfcRenderHelper, __sfcComponentHelper, __sfcIterationHelper, __sfcListenerHelper } from \"sfc-editor-bridge\";\n" +
		"__sfcRenderHelper(__Component, function () {\n" +
		"  __sfcComponentHelper(\"div\", { props: { \"title\": this.msg }, on: {}, directives: [] }, [this.count]);\n" +
		"});\n"
	assert.Equal(t, want, snapshot(t, h, host.TemplateFileName(appPath)))

	assert.Equal(t, host.KindJS, h.ScriptKind(appPath))
	assert.Equal(t, host.KindJS, h.ScriptKind(appPath+".template"))
	assert.Equal(t, host.KindTS, h.ScriptKind(bridgePath))
	assert.Equal(t, bridge.Version, h.ScriptVersion(bridgePath))
	assert.Equal(t, bridge.Content(), snapshot(t, h, bridgePath))
	assert.Equal(t, root, h.CurrentDirectory())
	assert.Equal(t, "\n", h.NewLine())
	assert.NotEmpty(t, h.ID())
}

func TestScriptKindFollowsScriptLanguage(t *testing.T) {
	tests := []struct {
		name string
		text string
		want host.ScriptKind
	}{
		{name: "typescript", text: "<script lang=\"ts\">\nlet a: number = 1\n</script>\n", want: host.KindTS},
		{name: "tsx", text: "<script lang=\"tsx\">\nlet a = <b/>\n</script>\n", want: host.KindTSX},
		{name: "plain", text: "<script>\nlet a = 1\n</script>\n", want: host.KindJS},
		{name: "no script", text: "<template><p></p></template>\n", want: host.KindJS},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newHost(t, nil)
			open(t, h, appURI, 1, tt.text)
			assert.Equal(t, tt.want, h.ScriptKind(appPath))
		})
	}
}

func TestComponentWithoutScript(t *testing.T) {
	h, _ := newHost(t, nil)
	open(t, h, appURI, 1, "<template><p></p></template>\n")
	assert.Equal(t, "export default {};", snapshot(t, h, appPath))
}

func TestTemplateImportsScriptSource(t *testing.T) {
	h, _ := newHost(t, nil)
	open(t, h, appURI, 1, "<template><p></p></template>\n<script src=\"./ext.ts\"></script>\n")

	unit := snapshot(t, h, host.TemplateFileName(appPath))
	assert.True(t, strings.HasPrefix(unit, "import __Component from \"./ext\";\n"), unit)
}

func TestNonHTMLTemplateHasNoUnit(t *testing.T) {
	h, _ := newHost(t, nil)
	open(t, h, appURI, 1, "<template lang=\"pug\">\np hi\n</template>\n")

	_, ok := h.ScriptSnapshot(host.TemplateFileName(appPath))
	assert.False(t, ok)
}

func TestVersionsMoveOnlyWhenTextChanges(t *testing.T) {
	h, _ := newHost(t, nil)
	template := host.TemplateFileName(appPath)

	open(t, h, appURI, 1, app)
	scriptV, templateV := h.ScriptVersion(appPath), h.ScriptVersion(template)
	require.NotEmpty(t, scriptV)
	require.NotEmpty(t, templateV)

	open(t, h, appURI, 2, app)
	assert.Equal(t, scriptV, h.ScriptVersion(appPath))
	assert.Equal(t, templateV, h.ScriptVersion(template))

	open(t, h, appURI, 3, strings.Replace(app, "{{ count }}", "{{ total }}", 1))
	assert.Equal(t, scriptV, h.ScriptVersion(appPath), "script text did not change")
	assert.NotEqual(t, templateV, h.ScriptVersion(template))

	open(t, h, appURI, 4, strings.Replace(app, "count: 1", "count: 2", 1))
	assert.NotEqual(t, scriptV, h.ScriptVersion(appPath))
}

func TestSameVersionWithNewTextRebuildsUnit(t *testing.T) {
	h, _ := newHost(t, nil)
	template := host.TemplateFileName(appPath)

	open(t, h, appURI, 1, app)
	before := h.ScriptVersion(template)
	require.Contains(t, snapshot(t, h, template), "this.msg")

	open(t, h, appURI, 1, strings.Replace(app, `:title="msg"`, `:title="other"`, 1))

	unit := snapshot(t, h, template)
	assert.Contains(t, unit, "this.other")
	assert.NotContains(t, unit, "this.msg")
	assert.NotEqual(t, before, h.ScriptVersion(template))
}

func TestSharedRegionCache(t *testing.T) {
	ctx := context.Background()
	parses := 0
	shared := cache.New("regions", cache.Options[*regions.Result]{MaxAge: -1},
		func(_ context.Context, doc *document.Document) *regions.Result {
			parses++
			return regions.Parse(doc.Text())
		})

	h := host.New(ctx, host.Options{Root: root, FS: afero.NewMemMapFs(), Regions: shared})
	doc := document.New(appURI, "vue", 1, app)
	require.NoError(t, h.UpdateDocument(ctx, doc))
	shared.RefreshAndGet(ctx, doc)
	assert.Equal(t, 1, parses)

	h.Dispose(ctx)
	assert.Equal(t, 1, shared.Len(), "the host does not dispose a cache it was given")
}

func TestReopenedDocumentNeverReusesVersion(t *testing.T) {
	h, _ := newHost(t, nil)

	open(t, h, appURI, 1, app)
	before := h.ScriptVersion(appPath)

	h.RemoveDocument(context.Background(), appURI)
	assert.Equal(t, []string{bridgePath}, h.ScriptFileNames())
	assert.Equal(t, "", h.ScriptVersion(appPath))

	open(t, h, appURI, 1, strings.Replace(app, "count: 1", "count: 2", 1))
	assert.NotEqual(t, before, h.ScriptVersion(appPath))
}

func TestExternalFiles(t *testing.T) {
	h, fs := newHost(t, map[string]string{
		"/proj/util.ts":                     "export const a = 1",
		"/proj/node_modules/lib/index.d.ts": "export declare const b: number",
	})
	ctx := context.Background()

	assert.Equal(t, "0", h.ScriptVersion("/proj/node_modules/lib/index.d.ts"))
	assert.Equal(t, "0", h.ScriptVersion("/proj/util.ts"))
	assert.Equal(t, "", h.ScriptVersion("/proj/missing.ts"))

	h.UpdateExternalFile(ctx, "/proj/util.ts")
	assert.Contains(t, h.ScriptFileNames(), "/proj/util.ts")
	assert.Equal(t, "1", h.ScriptVersion("/proj/util.ts"))
	assert.Equal(t, "export const a = 1", snapshot(t, h, "/proj/util.ts"))

	require.NoError(t, afero.WriteFile(fs, "/proj/util.ts", []byte("export const a = 2"), 0o644))
	h.UpdateExternalFile(ctx, "/proj/util.ts")
	assert.Equal(t, "2", h.ScriptVersion("/proj/util.ts"))
	assert.Equal(t, "export const a = 2", snapshot(t, h, "/proj/util.ts"))

	text, ok := h.ReadFile("/proj/util.ts")
	assert.True(t, ok)
	assert.Equal(t, "export const a = 2", text)
	assert.Equal(t, host.KindTS, h.ScriptKind("/proj/util.ts"))
	assert.True(t, h.FileExists("/proj/util.ts"))
	assert.False(t, h.FileExists("/proj/missing.ts"))
}

func TestResolveModuleNames(t *testing.T) {
	h, _ := newHost(t, map[string]string{
		"/proj/util.ts":                     "",
		"/proj/lib/index.js":                "",
		"/proj/Disk.vue":                    "",
		"/proj/node_modules/pkg/index.d.ts": "",
	})
	ctx := context.Background()
	open(t, h, appURI, 1, app)
	open(t, h, "file:///proj/Child.vue", 1, "<script lang=\"ts\">\nexport default {}\n</script>\n")

	got := h.ResolveModuleNames(ctx, []string{
		bridge.ModuleName,
		"./Child.vue",
		"./Disk.vue",
		"./util",
		"./lib",
		"pkg",
		"./Missing.vue",
		"nope",
	}, appPath)

	require.Len(t, got, 8)
	assert.Equal(t, &host.ResolvedModule{FileName: bridgePath, Extension: ".ts"}, got[0])
	assert.Equal(t, &host.ResolvedModule{FileName: "/proj/Child.vue", Extension: ".ts"}, got[1])
	assert.Equal(t, &host.ResolvedModule{FileName: "/proj/Disk.vue", Extension: ".js"}, got[2])
	assert.Equal(t, &host.ResolvedModule{FileName: "/proj/util.ts", Extension: ".ts"}, got[3])
	assert.Equal(t, &host.ResolvedModule{FileName: "/proj/lib/index.js", Extension: ".js"}, got[4])
	assert.Equal(t, &host.ResolvedModule{FileName: "/proj/node_modules/pkg/index.d.ts", Extension: ".d.ts", IsExternalLibrary: true}, got[5])
	assert.Nil(t, got[6])
	assert.Nil(t, got[7])
}

func TestResolutionCacheIsSharedWithTemplateUnit(t *testing.T) {
	h, fs := newHost(t, map[string]string{"/proj/util.ts": ""})
	ctx := context.Background()
	open(t, h, appURI, 1, app)

	first := h.ResolveModuleNames(ctx, []string{"./util"}, appPath)
	require.NotNil(t, first[0])

	require.NoError(t, fs.Remove("/proj/util.ts"))

	cached := h.ResolveModuleNames(ctx, []string{"./util"}, host.TemplateFileName(appPath))
	assert.Same(t, first[0], cached[0])

	open(t, h, appURI, 2, app)
	assert.Nil(t, h.ResolveModuleNames(ctx, []string{"./util"}, appPath)[0])
}

func TestDispose(t *testing.T) {
	h, _ := newHost(t, nil)
	open(t, h, appURI, 1, app)

	h.Dispose(context.Background())

	assert.Equal(t, []string{bridgePath}, h.ScriptFileNames())
	_, ok := h.Document(appPath)
	assert.False(t, ok)
}

func TestSnapshotChangeRange(t *testing.T) {
	tests := []struct {
		name      string
		old, next string
		span      position.Span
		newLength int
	}{
		{name: "replacement", old: "abcdef", next: "abXYef", span: position.NewSpan(2, 4), newLength: 2},
		{name: "append", old: "aaa", next: "aaaa", span: position.NewSpan(3, 3), newLength: 1},
		{name: "deletion", old: "abc", next: "ac", span: position.NewSpan(1, 2), newLength: 0},
		{name: "multibyte", old: "héllo", next: "hallo", span: position.NewSpan(1, 3), newLength: 1},
		{name: "unchanged", old: "same", next: "same", span: position.NewSpan(4, 4), newLength: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := host.NewSnapshot(tt.next).ChangeRange(host.NewSnapshot(tt.old))
			assert.Equal(t, tt.span, got.Span)
			assert.Equal(t, tt.newLength, got.NewLength)
		})
	}

	assert.True(t, host.NewSnapshot("x").ChangeRange(host.NewSnapshot("x")).IsUnchanged())
}

func TestKinds(t *testing.T) {
	assert.Equal(t, "ts", host.KindTS.String())
	assert.Equal(t, ".tsx", host.KindTSX.Extension())
	assert.Equal(t, host.KindUnknown, host.KindOfPath("README.md"))
	assert.Equal(t, host.KindJS, host.KindOfPath("a.js"))
}
