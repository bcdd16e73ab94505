package print_mask

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/go-sfc-typer/pkg/config"
	"github.com/walteh/go-sfc-typer/pkg/document"
	"github.com/walteh/go-sfc-typer/pkg/embedded"
	"github.com/walteh/go-sfc-typer/pkg/regions"
)

// Handler prints a component with everything outside the selected regions blanked out.
// Exactly one of language, blockType and block selects the regions.
type Handler struct {
	file      string
	language  string
	blockType string
	block     string

	fs  afero.Fs
	out io.Writer
}

func NewPrintMaskCommand() *cobra.Command {
	me := &Handler{fs: afero.NewOsFs()}

	cmd := &cobra.Command{
		Use:   "mask [file]",
		Short: "print the embedded document of one language of a component",
	}

	cmd.Flags().StringVar(&me.language, "language", "", "keep the regions of this language id")
	cmd.Flags().StringVar(&me.blockType, "type", "", "keep the regions of this type (template, script, style, custom)")
	cmd.Flags().StringVar(&me.block, "block", "", "keep the custom blocks with this tag")
	cmd.MarkFlagsMutuallyExclusive("language", "type", "block")
	cmd.MarkFlagsOneRequired("language", "type", "block")
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
	rs := regions.Parse(doc.Text()).Regions

	var masked *document.Document
	switch {
	case me.language != "":
		masked = embedded.SingleLanguageDocument(doc, rs, me.language)
	case me.blockType != "":
		masked = embedded.SingleTypeDocument(doc, rs, regions.Type(me.blockType))
	case me.block != "":
		masked, err = embedded.CustomBlockDocument(doc, rs, me.block, config.Default().CustomBlockLanguages)
		if err != nil {
			return err
		}
	default:
		return errors.New("one of language, type or block is required")
	}

	_, err = fmt.Fprint(me.out, masked.Text())
	return err
}
