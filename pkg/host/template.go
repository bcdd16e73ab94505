package host

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/go-sfc-typer/pkg/bridge"
	"github.com/walteh/go-sfc-typer/pkg/document"
	"github.com/walteh/go-sfc-typer/pkg/embedded"
	"github.com/walteh/go-sfc-typer/pkg/expr"
	"github.com/walteh/go-sfc-typer/pkg/regions"
	"github.com/walteh/go-sfc-typer/pkg/sourcemap"
)

const componentBinding = "__Component"

// TemplateUnit is the generated script standing in for a component's template.
type TemplateUnit struct {
	Text string
	Map  *sourcemap.Map
	// Err reports helpers the text uses that the bridge does not declare.
	Err error
}

func maskedText(doc *document.Document, rs *regions.Result, t regions.Type) string {
	return embedded.SingleTypeDocument(doc, rs.Regions, t).Text()
}

// templateUnit builds the unit for an HTML template. Components without one, or with a
// template in another markup language, get none.
func (me *Host) templateUnit(ctx context.Context, path string, doc *document.Document, rs *regions.Result) (*TemplateUnit, bool) {
	if me.skipTemplates {
		return nil, false
	}

	templates := rs.OfType(regions.TypeTemplate)
	if len(templates) == 0 || templates[0].LanguageID != regions.LanguageMarkupHTML {
		return nil, false
	}

	masked := doc.WithText(regions.LanguageMarkupHTML, maskedText(doc, rs, regions.TypeTemplate))
	md := me.markupCache.RefreshAndGet(ctx, masked)

	unit := RenderTemplateUnit(ctx, ComponentImport(path, rs.ImportedPaths), me.projector.Project(md.Roots), me.newline)

	zerolog.Ctx(ctx).Debug().
		Str("file", path).
		Int("mappings", unit.Map.Len()).
		Msg("generated template unit")

	return unit, true
}

// ComponentImport is the specifier a template unit imports its component from: the
// script src when the component has one, the component file otherwise.
func ComponentImport(path string, imported []string) string {
	if len(imported) > 0 {
		return strings.TrimSuffix(imported[0], ".ts")
	}
	return "./" + filepath.Base(path)
}

// RenderTemplateUnit prints projected expressions as statements of the render function.
func RenderTemplateUnit(ctx context.Context, from string, exprs []expr.Node, newline string) *TemplateUnit {
	var p expr.Printer

	p.Raw(fmt.Sprintf("import %s from %s;%s", componentBinding, expr.Quote(from), newline))
	p.Raw(fmt.Sprintf("import { %s } from %s;%s", strings.Join(bridge.Helpers(), ", "), expr.Quote(bridge.ModuleName), newline))
	p.Raw(fmt.Sprintf("%s(%s, function () {%s", bridge.RenderHelper, componentBinding, newline))
	for _, x := range exprs {
		p.Raw("  ")
		p.Statement(&expr.ExprStmt{X: x})
		p.Raw(newline)
	}
	p.Raw("});" + newline)

	m := &sourcemap.Map{}
	m.Append(p.Mappings(), 0)

	unit := &TemplateUnit{Text: p.String(), Map: m}
	if err := bridge.ValidateUsage(ctx, unit.Text); err != nil {
		unit.Err = errors.Errorf("generating template unit: %w", err)
	}
	return unit
}
