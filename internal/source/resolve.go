package source

import (
	"context"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"
)

// Resolve maps a user-supplied attribute name to the backend spelling.
// An exact match wins; otherwise the first case-insensitive match in
// schema order is returned.
func Resolve(ctx context.Context, src Source, name string) (string, error) {
	cols, err := src.Columns(ctx)
	if err != nil {
		return "", err
	}
	if resolved, ok := ResolveIn(cols, name); ok {
		return resolved, nil
	}
	return "", NotFound(src.Name(), "resolve", name)
}

// ResolveIn is Resolve over an already fetched column list.
func ResolveIn(columns []string, name string) (string, bool) {
	for _, c := range columns {
		if c == name {
			return c, true
		}
	}
	// cases.Caser is stateful; one per call.
	fold := cases.Fold()
	want := fold.String(name)
	for _, c := range columns {
		if fold.String(c) == want {
			return c, true
		}
	}
	return "", false
}

// Suggest returns the column closest to name by edit distance over
// case-folded spellings, or "" when nothing is reasonably close.
func Suggest(columns []string, name string) string {
	fold := cases.Fold()
	want := fold.String(name)
	best, bestDist := "", -1
	for _, c := range columns {
		d := levenshtein.ComputeDistance(want, fold.String(c))
		if bestDist < 0 || d < bestDist {
			best, bestDist = c, d
		}
	}
	// More than half the name rewritten is noise, not a typo.
	if bestDist < 0 || bestDist*2 > len(want) {
		return ""
	}
	return best
}
