package print_template

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/go-sfc-typer/pkg/config"
	"github.com/walteh/go-sfc-typer/pkg/project"
)

type Handler struct {
	file     string
	mappings bool

	fs  afero.Fs
	out io.Writer
}

func NewPrintTemplateCommand() *cobra.Command {
	me := &Handler{fs: afero.NewOsFs()}

	cmd := &cobra.Command{
		Use:   "template [file]",
		Short: "print the script generated for a component template",
	}

	cmd.Flags().BoolVar(&me.mappings, "mappings", false, "also print the source mappings back into the component")
	cmd.Args = cobra.ExactArgs(1)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		me.file = args[0]
		me.out = cmd.OutOrStdout()
		return me.Run(cmd.Context())
	}

	return cmd
}

func (me *Handler) Run(ctx context.Context) error {
	path, err := filepath.Abs(me.file)
	if err != nil {
		return errors.Errorf("resolving %s: %w", me.file, err)
	}

	cfg, _, err := config.LoadDir(me.fs, filepath.Dir(path))
	if err != nil {
		return err
	}
	// only the requested component matters here
	cfg.Include = []string{filepath.Base(path)}

	p, err := project.New(ctx, cfg, nil, me.fs)
	if err != nil {
		return err
	}
	defer p.Dispose(ctx)

	doc, openErr := p.OpenFile(ctx, path)
	if doc == nil {
		return openErr
	}
	unit, err := p.TemplateUnit(ctx, doc)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprint(me.out, unit.Text); err != nil {
		return err
	}

	if me.mappings {
		for _, e := range unit.Map.Entries {
			fmt.Fprintf(me.out, "%s -> %s %q\n", e.Generated, e.Original, doc.Slice(e.Original))
		}
	}

	// a unit using undeclared helpers is still printed
	return openErr
}
