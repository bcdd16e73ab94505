package bridge

import (
	"context"
	"regexp"
	"sort"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

var (
	declarationPattern = regexp.MustCompile(`export declare function (\w+)`)
	usagePattern       = regexp.MustCompile(`\b__sfc\w+Helper\b`)
)

// Declared lists the helper functions content exports.
func Declared(content string) map[string]bool {
	out := map[string]bool{}
	for _, m := range declarationPattern.FindAllStringSubmatch(content, -1) {
		out[m[1]] = true
	}
	return out
}

// ValidateUsage checks that every helper referenced by src is exported by the bridge.
func ValidateUsage(ctx context.Context, src string) error {
	declared := Declared(content)

	missing := map[string]bool{}
	for _, name := range usagePattern.FindAllString(src, -1) {
		if !declared[name] {
			missing[name] = true
		}
	}
	if len(missing) == 0 {
		return nil
	}

	names := make([]string, 0, len(missing))
	for name := range missing {
		names = append(names, name)
	}
	sort.Strings(names)

	zerolog.Ctx(ctx).Debug().Strs("helpers", names).Msg("undeclared bridge helpers")
	return errors.Errorf("helpers not declared in %s: %v", ModuleName, names)
}
