package host

import (
	"context"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/go-sfc-typer/pkg/diagnostic"
	"github.com/walteh/go-sfc-typer/pkg/document"
	"github.com/walteh/go-sfc-typer/pkg/sourcemap"
)

const (
	CodePrivateAccess   = 2341
	CodeProtectedAccess = 2445
)

// Engine is the external type checker. Diagnostics are reported in the coordinates of
// fileName as the host serves it.
type Engine interface {
	Diagnostics(ctx context.Context, host CompilerHost, fileName string) ([]diagnostic.Diagnostic, error)
}

// NopEngine reports nothing. It lets the host run without a checker attached.
type NopEngine struct{}

func (NopEngine) Diagnostics(context.Context, CompilerHost, string) ([]diagnostic.Diagnostic, error) {
	return nil, nil
}

// Service asks the engine about open components and maps the answers back to them.
type Service struct {
	host   *Host
	engine Engine
}

func NewService(h *Host, engine Engine) *Service {
	return &Service{host: h, engine: engine}
}

// ScriptDiagnostics checks the script block of uri. Engine failures yield no diagnostics.
func (me *Service) ScriptDiagnostics(ctx context.Context, uri string) []diagnostic.Diagnostic {
	diags, err := me.script(ctx, uri)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("uri", uri).Msg("script diagnostics failed")
		return nil
	}
	return diags
}

// TemplateDiagnostics checks the template of uri. Engine failures yield no diagnostics.
func (me *Service) TemplateDiagnostics(ctx context.Context, uri string) []diagnostic.Diagnostic {
	diags, err := me.template(ctx, uri)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("uri", uri).Msg("template diagnostics failed")
		return nil
	}
	return diags
}

// ValidateAll checks every uri in order. Cancellation stops between files and returns what
// was collected so far; failing files contribute no diagnostics and their errors are
// aggregated.
func (me *Service) ValidateAll(ctx context.Context, uris []string) (map[string][]diagnostic.Diagnostic, error) {
	out := make(map[string][]diagnostic.Diagnostic, len(uris))
	var errs *multierror.Error

	for _, uri := range uris {
		if ctx.Err() != nil {
			zerolog.Ctx(ctx).Debug().Int("done", len(out)).Int("total", len(uris)).Msg("validation cancelled")
			break
		}

		var diags []diagnostic.Diagnostic

		script, err := me.script(ctx, uri)
		if err != nil {
			errs = multierror.Append(errs, err)
		}
		diags = append(diags, script...)

		template, err := me.template(ctx, uri)
		if err != nil {
			errs = multierror.Append(errs, err)
		}
		diags = append(diags, template...)

		diagnostic.Sort(diags)
		out[uri] = diags
	}

	return out, errs.ErrorOrNil()
}

func (me *Service) script(ctx context.Context, uri string) ([]diagnostic.Diagnostic, error) {
	path := document.NormalizeURI(uri)
	doc, ok := me.host.Document(path)
	if !ok {
		return nil, nil
	}

	raw, err := me.run(ctx, path)
	if err != nil {
		return nil, err
	}

	out := make([]diagnostic.Diagnostic, 0, len(raw))
	for _, d := range raw {
		d.Span = d.Span.Clamp(doc.Len())
		out = append(out, d.Located(doc.Lines()))
	}
	return out, nil
}

func (me *Service) template(ctx context.Context, uri string) ([]diagnostic.Diagnostic, error) {
	path := document.NormalizeURI(uri)
	doc, ok := me.host.Document(path)
	if !ok {
		return nil, nil
	}
	name := TemplateFileName(path)
	m, ok := me.host.SourceMap(name)
	if !ok {
		return nil, nil
	}

	raw, err := me.run(ctx, name)
	if err != nil {
		return nil, err
	}

	return FilterTemplateDiagnostics(raw, m, doc), nil
}

// FilterTemplateDiagnostics drops access-modifier complaints about rewritten receiver
// accesses and maps the rest back onto doc. Diagnostics outside every mapping are dropped.
func FilterTemplateDiagnostics(raw []diagnostic.Diagnostic, m *sourcemap.Map, doc *document.Document) []diagnostic.Diagnostic {
	out := make([]diagnostic.Diagnostic, 0, len(raw))
	for _, d := range raw {
		if (d.Code == CodePrivateAccess || d.Code == CodeProtectedAccess) && m.IsReceiverAccess(d.Span) {
			continue
		}
		span, ok := m.MapBack(d.Span)
		if !ok {
			continue
		}
		d.Span = span
		out = append(out, d.Located(doc.Lines()))
	}
	return out
}

// run calls the engine, turning panics into errors.
func (me *Service) run(ctx context.Context, fileName string) (diags []diagnostic.Diagnostic, err error) {
	if err := ctx.Err(); err != nil {
		return nil, nil
	}

	defer func() {
		if r := recover(); r != nil {
			diags = nil
			err = errors.Errorf("engine panicked on %s: %v", fileName, r)
		}
	}()

	diags, err = me.engine.Diagnostics(ctx, me.host, fileName)
	if err != nil {
		return nil, errors.Errorf("checking %s: %w", fileName, err)
	}
	return diags, nil
}
