package check

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/fatih/color"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"

	"github.com/walteh/go-sfc-typer/pkg/config"
	"github.com/walteh/go-sfc-typer/pkg/diagnostic"
	"github.com/walteh/go-sfc-typer/pkg/document"
	"github.com/walteh/go-sfc-typer/pkg/host"
	"github.com/walteh/go-sfc-typer/pkg/project"
	"github.com/walteh/go-sfc-typer/pkg/workspace"
)

type Handler struct {
	dir     string
	format  string // text, json
	virtual bool

	fs     afero.Fs
	engine host.Engine
	out    io.Writer
}

// NewCheckCommand reports only the errors found while building virtual files. Type
// diagnostics need an engine, see NewCheckCommandWithEngine.
func NewCheckCommand() *cobra.Command {
	return NewCheckCommandWithEngine(host.NopEngine{})
}

// NewCheckCommandWithEngine runs check with engine computing the diagnostics of each
// virtual file.
func NewCheckCommandWithEngine(engine host.Engine) *cobra.Command {
	me := &Handler{fs: afero.NewOsFs(), engine: engine}

	cmd := &cobra.Command{
		Use:   "check [dir]",
		Short: "open every component of a project and report diagnostics from the attached type checking engine",
		Long: "open every component of a project, build its virtual files and report their diagnostics.\n" +
			"type checking is done by an external engine; without one only virtual file build errors are reported.",
	}

	cmd.Flags().StringVar(&me.format, "format", "text", "the format of the diagnostics (text, json)")
	cmd.Flags().BoolVar(&me.virtual, "virtual", false, "list the virtual files handed to the compiler")
	cmd.Args = cobra.MaximumNArgs(1)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		me.dir = "."
		if len(args) > 0 {
			me.dir = args[0]
		}
		me.out = cmd.OutOrStdout()
		return me.Run(cmd.Context())
	}

	return cmd
}

func (me *Handler) Run(ctx context.Context) error {
	if me.format != "text" && me.format != "json" {
		return errors.Errorf("unknown format %q", me.format)
	}

	dir, err := filepath.Abs(me.dir)
	if err != nil {
		return errors.Errorf("resolving %s: %w", me.dir, err)
	}

	cfg, _, err := config.LoadDir(me.fs, dir)
	if err != nil {
		return err
	}

	p, err := project.New(ctx, cfg, me.engine, me.fs)
	if err != nil {
		return err
	}
	defer p.Dispose(ctx)

	docs, err := readComponents(ctx, me.fs, p.Components())
	if err != nil {
		return err
	}

	var openErrs *multierror.Error
	for _, doc := range docs {
		if err := p.Open(ctx, doc); err != nil {
			openErrs = multierror.Append(openErrs, err)
		}
	}

	results, err := p.ValidateAll(ctx)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("some components could not be checked")
	}

	if me.virtual {
		me.printVirtual(p.Host())
	}

	if me.format == "json" {
		if err := me.printJSON(results); err != nil {
			return err
		}
	} else {
		me.printText(p, results)
	}

	errCount := 0
	for _, diags := range results {
		errCount += len(diagnostic.Group(diags).Errors)
	}

	if err := openErrs.ErrorOrNil(); err != nil {
		return errors.Errorf("opening components: %w", err)
	}
	if errCount > 0 {
		return errors.Errorf("%d errors found", errCount)
	}
	return nil
}

// readComponents loads every component concurrently. Opening them stays on the caller's goroutine.
func readComponents(ctx context.Context, fs afero.Fs, paths []string) ([]*document.Document, error) {
	docs := make([]*document.Document, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			raw, err := afero.ReadFile(fs, path)
			if err != nil {
				return errors.Errorf("reading %s: %w", path, err)
			}
			docs[i] = document.New(path, workspace.LanguageComponent, 1, string(raw))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return docs, nil
}

func (me *Handler) printVirtual(h *host.Host) {
	for _, name := range h.ScriptFileNames() {
		fmt.Fprintf(me.out, "%s\t%s\t%s\n", h.ScriptKind(name), h.ScriptVersion(name), name)
	}
}

var severityColors = map[diagnostic.Severity]*color.Color{
	diagnostic.Error:   color.New(color.FgRed, color.Bold),
	diagnostic.Warning: color.New(color.FgYellow),
	diagnostic.Info:    color.New(color.FgBlue),
	diagnostic.Hint:    color.New(color.Faint),
}

func (me *Handler) printText(p *project.Project, results map[string][]diagnostic.Diagnostic) {
	for _, uri := range sortedKeys(results) {
		doc, _ := p.Host().Document(uri)
		for _, d := range results[uri] {
			col := d.Range.Start.Character + 1
			if doc != nil {
				col = doc.DisplayColumn(d.Range.Start)
			}
			sev := string(d.Severity)
			if c, ok := severityColors[d.Severity]; ok {
				sev = c.Sprint(sev)
			}
			fmt.Fprintf(me.out, "%s:%d:%d: %s: %s", uri, d.Range.Start.Line+1, col, sev, d.Message)
			if d.Code != 0 {
				fmt.Fprintf(me.out, " [%d]", d.Code)
			}
			fmt.Fprintln(me.out)
		}
	}
}

func (me *Handler) printJSON(results map[string][]diagnostic.Diagnostic) error {
	formatter := diagnostic.NewJSONFormatter()
	out := map[string]json.RawMessage{}
	for uri, diags := range results {
		raw, err := formatter.Format(diagnostic.Group(diags))
		if err != nil {
			return err
		}
		out[uri] = raw
	}
	enc := json.NewEncoder(me.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return errors.Errorf("encoding diagnostics: %w", err)
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
