package compiler

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/roach88/vizintent/internal/intent"
	"github.com/roach88/vizintent/internal/source"
)

// Validate checks in against the schema of src and returns the normalized
// intent. Returns all errors found (does not fail-fast) as
// ValidationErrors.
//
// Normalization resolves attribute names to the source's spelling,
// clears channels on filter clauses, and drops an unconstrained axis
// clause that repeats the attribute of a filter clause. Dropped clauses
// are logged at warn, not reported as errors.
func (c *Compiler) Validate(ctx context.Context, in intent.Intent, src source.Source) (intent.Intent, error) {
	columns, err := src.Columns(ctx)
	if err != nil {
		return nil, err
	}

	var errs ValidationErrors
	out := in.Clone()

	resolve := func(i int, field, name string) string {
		if name == intent.RecordAttribute && out[i].IsRecord() {
			return name
		}
		resolved, ok := source.ResolveIn(columns, name)
		if ok {
			return resolved
		}
		ve := ValidationError{
			Field:      field,
			Message:    fmt.Sprintf("attribute %q not found in %s", name, src.Name()),
			Code:       ErrCodeUnknownAttribute,
			Attributes: []string{name},
			Suggestion: source.Suggest(columns, name),
		}
		if ve.Suggestion != "" {
			ve.Message += fmt.Sprintf(" (did you mean %q?)", ve.Suggestion)
		}
		errs = append(errs, ve)
		return name
	}

	for i := range out {
		cl := &out[i]

		// E204: structural problems make the rest of the clause meaningless
		if err := cl.Check(); err != nil {
			errs = append(errs, ValidationError{
				Field:      fmt.Sprintf("intent[%d]", i),
				Message:    err.Error(),
				Code:       ErrCodeInvalidClause,
				Attributes: []string{cl.String()},
			})
			continue
		}

		// E203: every named attribute must exist
		for j, name := range cl.Attribute.Names {
			field := fmt.Sprintf("intent[%d].attribute", i)
			if cl.Attribute.Kind == intent.AttrList {
				field = fmt.Sprintf("intent[%d].attribute[%d]", i, j)
			}
			cl.Attribute.Names[j] = resolve(i, field, name)
		}
		for j, name := range cl.Exclude {
			cl.Exclude[j] = resolve(i, fmt.Sprintf("intent[%d].exclude[%d]", i, j), name)
		}

		if cl.IsFilter() {
			cl.Channel = intent.ChannelNone
		}
	}

	errs = append(errs, checkChannels(out)...)
	if len(errs) > 0 {
		return nil, errs
	}
	return c.dropRedundant(out), nil
}

// checkChannels reports E201 for two clauses pinned to one channel and
// E202 for one attribute pinned to two channels.
func checkChannels(in intent.Intent) []ValidationError {
	var errs []ValidationError

	byChannel := make(map[intent.Channel]int)
	byAttr := make(map[string]int)
	for i, cl := range in {
		if cl.IsFilter() || cl.Channel == intent.ChannelNone {
			continue
		}

		if j, ok := byChannel[cl.Channel]; ok {
			name := in[j].String()
			if in[j].Name() != "" && in[j].Name() == cl.Name() {
				// Same attribute twice on one channel is a plain duplicate.
				continue
			}
			errs = append(errs, ValidationError{
				Field:      fmt.Sprintf("intent[%d].channel", i),
				Message:    fmt.Sprintf("channel %q assigned to both %q and %q", cl.Channel, name, cl.String()),
				Code:       ErrCodeDuplicateChannel,
				Attributes: []string{name, cl.String()},
				Channel:    string(cl.Channel),
			})
		} else {
			byChannel[cl.Channel] = i
		}

		name := cl.Name()
		if name == "" {
			continue
		}
		if j, ok := byAttr[name]; ok {
			if in[j].Channel != cl.Channel {
				errs = append(errs, ValidationError{
					Field:      fmt.Sprintf("intent[%d].channel", i),
					Message:    fmt.Sprintf("attribute %q assigned to both %q and %q", name, in[j].Channel, cl.Channel),
					Code:       ErrCodeConflictingChannel,
					Attributes: []string{name},
					Channel:    string(cl.Channel),
				})
			}
			continue
		}
		byAttr[name] = i
	}
	return errs
}

// dropRedundant removes unconstrained axis clauses whose attribute is
// already filtered on, and repeats of an identical axis clause. Order is
// otherwise preserved.
func (c *Compiler) dropRedundant(in intent.Intent) intent.Intent {
	filtered := make(map[string]bool)
	for _, cl := range in {
		if cl.IsFilter() && cl.Name() != "" {
			filtered[cl.Name()] = true
		}
	}

	seen := make(map[string]bool, len(in))
	out := make(intent.Intent, 0, len(in))
	for _, cl := range in {
		if !cl.IsFilter() && cl.Name() != "" {
			if filtered[cl.Name()] && unconstrained(cl) {
				c.logger.Warn("redundant clause dropped",
					zap.String("clause", cl.String()),
					zap.String("reason", "attribute is filtered"))
				continue
			}
			fp := cl.Fingerprint()
			if seen[fp] {
				c.logger.Warn("redundant clause dropped",
					zap.String("clause", cl.String()),
					zap.String("reason", "repeated clause"))
				continue
			}
			seen[fp] = true
		}
		out = append(out, cl)
	}
	return out
}

func unconstrained(cl intent.Clause) bool {
	return cl.Channel == intent.ChannelNone &&
		cl.DataType == intent.TypeNone &&
		cl.DataModel == intent.ModelNone &&
		cl.Sort == intent.SortNone &&
		len(cl.Exclude) == 0
}
