package workspace

import (
	"bytes"
	"context"
	"path/filepath"

	"github.com/editorconfig/editorconfig-core-go/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

const DefaultNewLine = "\n"

var endOfLine = map[string]string{
	"lf":   "\n",
	"crlf": "\r\n",
	"cr":   "\r",
}

// NewLine reads the end_of_line setting that root/.editorconfig applies to component files.
func NewLine(ctx context.Context, fs afero.Fs, root string) string {
	raw, err := afero.ReadFile(fs, filepath.Join(root, ".editorconfig"))
	if err != nil {
		return DefaultNewLine
	}

	ec, err := editorconfig.Parse(bytes.NewReader(raw))
	if err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Str("root", root).Msg("ignoring unreadable .editorconfig")
		return DefaultNewLine
	}

	def, err := ec.GetDefinitionForFilename("component.vue")
	if err != nil {
		return DefaultNewLine
	}

	if nl, ok := endOfLine[def.EndOfLine]; ok {
		return nl
	}
	return DefaultNewLine
}
