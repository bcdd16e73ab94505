// Package workspace finds and watches the files of a project root.
package workspace

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"
)

// Discover walks root and returns the paths matching at least one include glob and no
// exclude glob. Globs are matched against slash-separated paths relative to root.
func Discover(ctx context.Context, fs afero.Fs, root string, include, exclude []string) ([]string, error) {
	for _, p := range append(append([]string{}, include...), exclude...) {
		if !doublestar.ValidatePattern(p) {
			return nil, errors.Errorf("invalid glob %q", p)
		}
	}

	var out []string
	err := afero.Walk(fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}

		if info.IsDir() {
			if matchAny(exclude, rel) {
				return filepath.SkipDir
			}
			return nil
		}

		if matchAny(include, rel) && !matchAny(exclude, rel) {
			out = append(out, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Errorf("discovering files under %s: %w", root, err)
	}

	sort.Strings(out)

	zerolog.Ctx(ctx).Debug().Str("root", root).Int("files", len(out)).Msg("discovered workspace files")

	return out, nil
}

func matchAny(patterns []string, rel string) bool {
	for _, p := range patterns {
		if doublestar.MatchUnvalidated(p, rel) {
			return true
		}
	}
	return false
}
