package show_config

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/go-sfc-typer/pkg/config"
)

type Handler struct {
	dir string

	fs  afero.Fs
	out io.Writer
}

func NewShowConfigCommand() *cobra.Command {
	me := &Handler{fs: afero.NewOsFs()}

	cmd := &cobra.Command{
		Use:   "config [dir]",
		Short: "print the effective configuration of a directory",
	}

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
	dir, err := filepath.Abs(me.dir)
	if err != nil {
		return errors.Errorf("resolving %s: %w", me.dir, err)
	}

	cfg, path, err := config.LoadDir(me.fs, dir)
	if err != nil {
		return err
	}

	source := "defaults"
	if path != "" {
		source = path
	}
	fmt.Fprintln(me.out, color.New(color.Faint).Sprintf("# from %s", source))

	out, err := cfg.ToYAML()
	if err != nil {
		return err
	}
	_, err = me.out.Write(out)
	return err
}
