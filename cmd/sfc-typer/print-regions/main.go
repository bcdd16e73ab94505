package print_regions

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"

	"github.com/walteh/go-sfc-typer/pkg/document"
	"github.com/walteh/go-sfc-typer/pkg/regions"
)

type Handler struct {
	file   string
	format string // text, yaml

	fs  afero.Fs
	out io.Writer
}

type regionOutput struct {
	Tag      string `yaml:"tag"`
	Type     string `yaml:"type"`
	Language string `yaml:"language"`
	Start    int    `yaml:"start"`
	End      int    `yaml:"end"`
	Range    string `yaml:"range"`
}

func NewPrintRegionsCommand() *cobra.Command {
	me := &Handler{fs: afero.NewOsFs()}

	cmd := &cobra.Command{
		Use:   "regions [file]",
		Short: "print the top-level blocks of a component",
	}

	cmd.Flags().StringVar(&me.format, "format", "text", "the output format (text, yaml)")
	cmd.Args = cobra.ExactArgs(1)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		me.file = args[0]
		me.out = cmd.OutOrStdout()
		return me.Run(cmd.Context())
	}

	return cmd
}

func (me *Handler) Run(ctx context.Context) error {
	raw, err := afero.ReadFile(me.fs, me.file)
	if err != nil {
		return errors.Errorf("reading %s: %w", me.file, err)
	}

	doc := document.New(me.file, "vue", 1, string(raw))
	res := regions.Parse(doc.Text())

	zerolog.Ctx(ctx).Debug().Str("file", me.file).Int("regions", len(res.Regions)).Msg("parsed regions")

	out := make([]regionOutput, 0, len(res.Regions))
	for _, r := range res.Regions {
		out = append(out, regionOutput{
			Tag:      r.Tag,
			Type:     string(r.Type),
			Language: r.LanguageID,
			Start:    r.Start,
			End:      r.End,
			Range:    doc.RangeOf(r.Span()).String(),
		})
	}

	switch me.format {
	case "yaml":
		enc := yaml.NewEncoder(me.out)
		enc.SetIndent(2)
		if err := enc.Encode(out); err != nil {
			return errors.Errorf("encoding regions: %w", err)
		}
		return enc.Close()
	case "text":
		w := tabwriter.NewWriter(me.out, 0, 4, 2, ' ', 0)
		for _, r := range out {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Tag, r.Type, r.Language, r.Range)
		}
		for _, p := range res.ImportedPaths {
			fmt.Fprintf(w, "import\t%s\n", p)
		}
		return w.Flush()
	default:
		return errors.Errorf("unknown format %q", me.format)
	}
}
