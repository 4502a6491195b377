package compiler

import (
	"context"

	"go.uber.org/zap"

	"github.com/roach88/vizintent/internal/intent"
	"github.com/roach88/vizintent/internal/source"
)

// ClauseOptions is the candidate set of one wildcard clause.
type ClauseOptions struct {
	// Index is the clause position in the intent.
	Index int `json:"index"`
	// Clause is the wildcard clause as written.
	Clause intent.Clause `json:"-"`
	// Candidates are the concrete clauses it can resolve to, in
	// expansion order.
	Candidates []intent.Clause `json:"-"`
}

// Expand returns every concrete intent option implied by in, in Cartesian
// order: the first wildcard clause varies slowest. An intent without
// wildcards yields exactly itself. Options are deduplicated structurally.
//
// in should already be normalized by Validate.
func (c *Compiler) Expand(ctx context.Context, in intent.Intent, src source.Source) ([]intent.Intent, error) {
	sets, err := c.candidateSets(ctx, in, src, false)
	if err != nil {
		return nil, err
	}

	var options []intent.Intent
	seen := make(map[string]bool)
	emit := func(opt intent.Intent) {
		fp := opt.Fingerprint()
		if seen[fp] {
			return
		}
		seen[fp] = true
		options = append(options, opt)
	}

	if len(sets) == 0 {
		emit(in.Clone())
		return options, nil
	}
	for _, set := range sets {
		if len(set.Candidates) == 0 {
			return nil, nil
		}
	}

	// Odometer over candidate indices, last position fastest.
	idx := make([]int, len(sets))
	for {
		opt := in.Clone()
		for i, set := range sets {
			opt[set.Index] = set.Candidates[idx[i]].Clone()
		}
		emit(opt)

		pos := len(idx) - 1
		for pos >= 0 {
			idx[pos]++
			if idx[pos] < len(sets[pos].Candidates) {
				break
			}
			idx[pos] = 0
			pos--
		}
		if pos < 0 {
			break
		}
	}

	c.logger.Debug("intent expanded",
		zap.Int("wildcards", len(sets)),
		zap.Int("options", len(options)))
	return options, nil
}

// WildcardOptions returns, per wildcard clause, the raw concrete clauses
// it can resolve to without compiling anything. Unlike Expand, attributes
// fixed elsewhere in the intent are still listed. The intent is validated
// first.
func (c *Compiler) WildcardOptions(ctx context.Context, in intent.Intent, src source.Source) ([]ClauseOptions, error) {
	memo := source.NewMemo(src)
	normalized, err := c.Validate(ctx, in, memo)
	if err != nil {
		return nil, err
	}
	return c.candidateSets(ctx, normalized, memo, true)
}

func (c *Compiler) candidateSets(ctx context.Context, in intent.Intent, src source.Source, raw bool) ([]ClauseOptions, error) {
	columns, err := src.Columns(ctx)
	if err != nil {
		return nil, err
	}

	// Attributes named literally anywhere are not wildcard candidates.
	fixed := make(map[string]bool)
	for _, cl := range in {
		if name := cl.Name(); name != "" && !raw {
			if resolved, ok := source.ResolveIn(columns, name); ok {
				fixed[resolved] = true
			}
		}
	}

	var sets []ClauseOptions
	for i, cl := range in {
		if !cl.IsWildcard() {
			continue
		}
		attrs, err := c.attributeCandidates(ctx, cl, columns, fixed, src)
		if err != nil {
			return nil, err
		}
		var cands []intent.Clause
		for _, a := range attrs {
			vals, err := c.valueCandidates(ctx, a, src)
			if err != nil {
				return nil, err
			}
			cands = append(cands, vals...)
		}
		sets = append(sets, ClauseOptions{Index: i, Clause: cl.Clone(), Candidates: cands})
	}
	return sets, nil
}

// attributeCandidates substitutes every attribute the clause can name.
// The returned clauses have a literal attribute and no exclusions.
func (c *Compiler) attributeCandidates(ctx context.Context, cl intent.Clause, columns []string, fixed map[string]bool, src source.Source) ([]intent.Clause, error) {
	with := func(name string) intent.Clause {
		out := cl.Clone()
		out.Attribute = intent.AttrSpec{Kind: intent.AttrLiteral, Names: []string{name}}
		out.Exclude = nil
		return out
	}

	switch cl.Attribute.Kind {
	case intent.AttrLiteral:
		return []intent.Clause{cl.Clone()}, nil

	case intent.AttrList:
		out := make([]intent.Clause, 0, len(cl.Attribute.Names))
		for _, name := range cl.Attribute.Names {
			resolved, ok := source.ResolveIn(columns, name)
			if !ok {
				return nil, source.NotFound(src.Name(), "expand", name)
			}
			out = append(out, with(resolved))
		}
		return out, nil
	}

	excluded := make(map[string]bool, len(cl.Exclude))
	for _, name := range cl.Exclude {
		if resolved, ok := source.ResolveIn(columns, name); ok {
			excluded[resolved] = true
		}
	}

	var out []intent.Clause
	for _, col := range columns {
		if fixed[col] || excluded[col] {
			continue
		}
		if cl.DataType != intent.TypeNone || cl.DataModel != intent.ModelNone {
			sem, err := src.Semantics(ctx, col)
			if err != nil {
				return nil, err
			}
			if cl.DataType != intent.TypeNone && sem.DataType != cl.DataType {
				continue
			}
			if cl.DataModel != intent.ModelNone && sem.DataModel != cl.DataModel {
				continue
			}
		}
		out = append(out, with(col))
	}
	return out, nil
}

// valueCandidates substitutes every value the clause can filter on.
func (c *Compiler) valueCandidates(ctx context.Context, cl intent.Clause, src source.Source) ([]intent.Clause, error) {
	switch cl.Value.Kind {
	case intent.ValueWildcard:
		vals, err := src.DistinctValues(ctx, cl.Name())
		if err != nil {
			return nil, err
		}
		if limit := c.cfg.MaxWildcardValues; limit > 0 && len(vals) > limit {
			c.logger.Warn("value wildcard truncated",
				zap.String("attribute", cl.Name()),
				zap.Int("distinct", len(vals)),
				zap.Int("limit", limit))
			vals = vals[:limit]
		}
		out := make([]intent.Clause, len(vals))
		for i, v := range vals {
			out[i] = cl.WithValue(v)
		}
		return out, nil

	case intent.ValueList:
		out := make([]intent.Clause, len(cl.Value.Values))
		for i, v := range cl.Value.Values {
			out[i] = cl.WithValue(v)
		}
		return out, nil
	}
	return []intent.Clause{cl}, nil
}
