package embedded_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
	"pgregory.net/rapid"

	"github.com/walteh/go-sfc-typer/pkg/document"
	"github.com/walteh/go-sfc-typer/pkg/embedded"
	"github.com/walteh/go-sfc-typer/pkg/position"
	"github.com/walteh/go-sfc-typer/pkg/regions"
)

const sample = "<template>\n  <div>{{ msg }}</div>\n</template>\n" +
	"<script lang=\"ts\">\nexport default { data() { return { msg: 'é' } } }\n</script>\n" +
	"<style lang=\"scss\">\na { b: c }\n</style>\n" +
	"<style>\np { }\n</style>\n"

func parse(t *testing.T, text string) (*document.Document, []regions.Region) {
	t.Helper()
	doc := document.New("file:///App.vue", "vue", 1, text)
	return doc, regions.Parse(text).Regions
}

func TestSingleLanguageDocument(t *testing.T) {
	doc, rs := parse(t, sample)

	ts := embedded.SingleLanguageDocument(doc, rs, regions.LanguageTypeScript)
	require.Equal(t, doc.Len(), ts.Len())
	assert.Equal(t, regions.LanguageTypeScript, ts.LanguageID)
	assert.Equal(t, doc.Version, ts.Version)
	assert.Equal(t, strings.Count(sample, "\n"), strings.Count(ts.Text(), "\n"))
	assert.Equal(t, "export default { data() { return { msg: 'é' } } }", strings.TrimSpace(ts.Text()))

	scss := embedded.SingleLanguageDocument(doc, rs, "scss")
	assert.Equal(t, "a { b: c }", strings.TrimSpace(scss.Text()))

	none := embedded.SingleLanguageDocument(doc, rs, "python")
	assert.Equal(t, "", strings.TrimSpace(none.Text()))
	assert.Equal(t, doc.Len(), none.Len())
}

func TestSingleTypeDocumentLastLanguageWins(t *testing.T) {
	doc, rs := parse(t, sample)

	styles := embedded.SingleTypeDocument(doc, rs, regions.TypeStyle)
	assert.Equal(t, regions.LanguageStyling, styles.LanguageID)
	assert.Contains(t, styles.Text(), "a { b: c }")
	assert.Contains(t, styles.Text(), "p { }")
	assert.Equal(t, doc.Len(), styles.Len())

	custom := embedded.SingleTypeDocument(doc, rs, regions.TypeCustom)
	assert.Equal(t, regions.LanguageUnknown, custom.LanguageID)

	template := embedded.SingleTypeDocument(doc, rs, regions.TypeTemplate)
	assert.Equal(t, regions.LanguageMarkupHTML, template.LanguageID)
	assert.Equal(t, "<div>{{ msg }}</div>", strings.TrimSpace(template.Text()))
}

func TestMaskedOffsetsMatchOriginal(t *testing.T) {
	doc, rs := parse(t, sample)
	ts := embedded.SingleLanguageDocument(doc, rs, regions.LanguageTypeScript)

	for _, r := range rs {
		if r.LanguageID != regions.LanguageTypeScript {
			continue
		}
		for offset := r.Start; offset <= r.End; offset++ {
			place := doc.PlaceAt(offset)
			require.Equal(t, doc.OffsetAt(place), ts.OffsetAt(place))
			require.Equal(t, place, ts.PlaceAt(offset))
		}
	}
}

func TestLanguageAtPosition(t *testing.T) {
	doc, rs := parse(t, sample)

	tests := []struct {
		name  string
		place position.Place
		want  string
	}{
		{"inside template", position.Place{Line: 1, Character: 4}, regions.LanguageMarkupHTML},
		{"inside script", position.Place{Line: 4, Character: 3}, regions.LanguageTypeScript},
		{"inside scss", position.Place{Line: 7, Character: 1}, "scss"},
		{"on an open tag", position.Place{Line: 3, Character: 2}, regions.LanguageHost},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, embedded.LanguageAtPosition(doc, rs, tt.place))
		})
	}
}

func TestLanguageRanges(t *testing.T) {
	text := "<template><p/></template>\n<style>a{}</style>"
	doc, rs := parse(t, text)

	got := embedded.LanguageRanges(doc, rs, nil)
	langs := []string{}
	for _, r := range got {
		langs = append(langs, r.LanguageID)
	}
	assert.Equal(t, []string{regions.LanguageHost, regions.LanguageMarkupHTML, regions.LanguageHost, regions.LanguageStyling, regions.LanguageHost}, langs)
	assert.Equal(t, position.Place{Line: 0, Character: 10}, got[1].Start)
	assert.Equal(t, position.Place{Line: 0, Character: 14}, got[1].End)

	sub := embedded.LanguageRanges(doc, rs, &position.Range{
		Start: position.Place{Line: 0, Character: 11},
		End:   position.Place{Line: 0, Character: 12},
	})
	require.Len(t, sub, 1)
	assert.Equal(t, regions.LanguageMarkupHTML, sub[0].LanguageID)
}

func TestCustomBlockDocument(t *testing.T) {
	text := "<template><p/></template>\n<i18n lang=\"json\">{}</i18n>\n<docs lang=\"toml\">a</docs>\n"
	doc, rs := parse(t, text)

	i18n, err := embedded.CustomBlockDocument(doc, rs, "i18n", []string{"json", "yaml"})
	require.NoError(t, err)
	assert.Equal(t, "json", i18n.LanguageID)
	assert.Equal(t, "{}", strings.TrimSpace(i18n.Text()))

	_, err = embedded.CustomBlockDocument(doc, rs, "docs", []string{"json"})
	require.Error(t, err)
	var unsupported *embedded.UnsupportedLangError
	require.True(t, errors.As(err, &unsupported))
	assert.Equal(t, "toml", unsupported.Lang)
	assert.Equal(t, "docs", unsupported.Tag)
}

func TestMaskingProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		script := rapid.StringMatching(`[a-zé{} ;=\n\r]{1,30}`).Draw(t, "script")
		style := rapid.StringMatching(`[a-z{}: ;\n]{1,30}`).Draw(t, "style")
		markup := rapid.StringMatching(`[a-z \n]{0,30}`).Draw(t, "markup")
		text := "<template><div>" + markup + "</div></template>\n<script>" + script + "</script>\r\n<style>" + style + "</style>"

		doc := document.New("file:///p.vue", "vue", 1, text)
		rs := regions.Parse(text).Regions

		for _, r := range rs {
			masked := embedded.SingleLanguageDocument(doc, rs, r.LanguageID)
			if masked.Len() != doc.Len() {
				t.Fatalf("length changed: %d != %d", masked.Len(), doc.Len())
			}
			if masked.LineCount() != doc.LineCount() {
				t.Fatalf("line count changed")
			}
			if masked.Slice(r.Span()) != doc.Slice(r.Span()) {
				t.Fatalf("kept region altered")
			}
			for offset := r.Start; offset < r.End; offset++ {
				place := doc.PlaceAt(offset)
				if masked.OffsetAt(place) != doc.OffsetAt(place) {
					t.Fatalf("offset %d maps differently", offset)
				}
			}
		}
	})
}
