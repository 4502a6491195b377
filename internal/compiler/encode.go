package compiler

import (
	"context"
	"fmt"
	"math"
	"slices"

	"go.uber.org/zap"

	"github.com/roach88/vizintent/internal/intent"
	"github.com/roach88/vizintent/internal/source"
	"github.com/roach88/vizintent/internal/vis"
)

// member is one resolved axis clause of an option.
type member struct {
	clause intent.Clause
	card   int
	cardOK bool
}

func (m member) measure() bool {
	return m.clause.DataType == intent.TypeQuantitative
}

func (m member) temporal() bool {
	return m.clause.DataType == intent.TypeTemporal
}

// rank orders color candidates; unknown cardinality sorts last.
func (m member) rank() int {
	if !m.cardOK {
		return math.MaxInt
	}
	return m.card
}

// slot is one channel of a mark template.
type slot struct {
	ch intent.Channel
	m  member
}

// Compile infers the chart for one concrete option.
//
// An option that cannot be charted returns a *SkippedOption error; Build
// drops those. Unknown attributes and channel collisions return a
// ValidationError. Source failures propagate unchanged.
func (c *Compiler) Compile(ctx context.Context, opt intent.Intent, src source.Source) (*vis.Vis, error) {
	if opt.HasWildcard() {
		return nil, ValidationError{
			Field:   "intent",
			Message: fmt.Sprintf("option %s still contains wildcards", opt),
			Code:    ErrCodeInvalidClause,
		}
	}
	memo := source.NewMemo(src)
	columns, err := memo.Columns(ctx)
	if err != nil {
		return nil, err
	}

	var axes []member
	var filters []intent.Clause
	var names []string
	for i, cl := range opt {
		if err := cl.Check(); err != nil {
			return nil, ValidationError{
				Field:      fmt.Sprintf("intent[%d]", i),
				Message:    err.Error(),
				Code:       ErrCodeInvalidClause,
				Attributes: []string{cl.String()},
			}
		}
		resolved, err := c.resolveClause(ctx, memo, columns, i, cl)
		if err != nil {
			return nil, err
		}
		names = append(names, resolved.Name())
		if resolved.IsFilter() {
			resolved.Channel = intent.ChannelNone
			filters = append(filters, resolved)
			continue
		}
		axes = append(axes, member{clause: resolved})
	}

	// One attribute can play one role per chart.
	used := make(map[string]bool, len(opt))
	for _, name := range names {
		if used[name] {
			return nil, skip(SkipDuplicateAttribute, "%s appears more than once", name)
		}
		used[name] = true
	}

	for _, f := range filters {
		ok, err := satisfiable(ctx, memo, f)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, skip(SkipFilterNoMatch, "no rows where %s %s %s", f.Name(), f.Op(), f.Single().Canonical())
		}
	}

	if len(axes) == 0 {
		return nil, skip(SkipNoAxis, "%s has only filters", opt)
	}
	temporal := 0
	for _, m := range axes {
		if m.temporal() {
			temporal++
		}
	}
	if temporal > 1 {
		return nil, skip(SkipMultipleTemporal, "%d temporal attributes", temporal)
	}

	pinned := make(map[intent.Channel]string)
	for _, m := range axes {
		ch := m.clause.Channel
		if ch == intent.ChannelNone {
			continue
		}
		if prev, ok := pinned[ch]; ok {
			return nil, ValidationError{
				Field:      "intent",
				Message:    fmt.Sprintf("channel %q assigned to both %q and %q", ch, prev, m.clause.Name()),
				Code:       ErrCodeDuplicateChannel,
				Attributes: []string{prev, m.clause.Name()},
				Channel:    string(ch),
			}
		}
		pinned[ch] = m.clause.Name()
	}

	for i := range axes {
		if axes[i].measure() {
			continue
		}
		n, ok, err := memo.Cardinality(ctx, axes[i].clause.Name())
		if err != nil {
			return nil, err
		}
		axes[i].card, axes[i].cardOK = n, ok
	}

	mark, slots, err := c.template(ctx, memo, axes)
	if err != nil {
		return nil, err
	}
	encodings, err := assignChannels(slots)
	if err != nil {
		return nil, err
	}
	if mark == intent.MarkBar {
		for i := range encodings {
			e := &encodings[i]
			if e.Channel == intent.ChannelColor || e.Sort != intent.SortNone {
				continue
			}
			if e.DataType != intent.TypeNominal && e.DataType != intent.TypeID {
				continue
			}
			e.Sort = c.sortFor(slots, e.Name())
		}
	}

	v, err := vis.New(mark, encodings, filters)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", opt, err)
	}
	c.logger.Debug("option compiled",
		zap.String("option", opt.String()),
		zap.String("vis", v.String()))
	return v, nil
}

// resolveClause maps the clause onto the source's spelling and fills its
// data type and model. An explicit data type wins; an explicit data model
// coerces the inferred type across the measure/dimension line.
func (c *Compiler) resolveClause(ctx context.Context, src source.Source, columns []string, i int, cl intent.Clause) (intent.Clause, error) {
	out := cl.Clone()
	out.Exclude = nil
	if cl.IsRecord() {
		return out, nil
	}

	name, ok := source.ResolveIn(columns, cl.Name())
	if !ok {
		ve := ValidationError{
			Field:      fmt.Sprintf("intent[%d].attribute", i),
			Message:    fmt.Sprintf("attribute %q not found in %s", cl.Name(), src.Name()),
			Code:       ErrCodeUnknownAttribute,
			Attributes: []string{cl.Name()},
			Suggestion: source.Suggest(columns, cl.Name()),
		}
		return out, ve
	}
	out.Attribute.Names[0] = name

	sem, err := src.Semantics(ctx, name)
	if err != nil {
		return out, err
	}
	dt := cl.DataType
	if dt == intent.TypeNone {
		dt = sem.DataType
		switch {
		case cl.DataModel == intent.ModelDimension && dt == intent.TypeQuantitative:
			dt = intent.TypeNominal
		case cl.DataModel == intent.ModelMeasure && dt != intent.TypeQuantitative:
			dt = intent.TypeQuantitative
		}
	}
	out.DataType = dt
	out.DataModel = dt.Model()
	return out, nil
}

// satisfiable reports whether any observed value passes the filter.
func satisfiable(ctx context.Context, src source.Source, f intent.Clause) (bool, error) {
	vals, err := src.DistinctValues(ctx, f.Name())
	if err != nil {
		return false, err
	}
	target, op := f.Single(), f.Op()
	return slices.ContainsFunc(vals, func(v intent.Value) bool {
		return op.Holds(v, target)
	}), nil
}

// template picks the mark and the default channel of every member.
//
// A color attribute is split off first: the pinned one, or when at least
// three attributes (or two dimensions) are present, the lowest-cardinality
// unpinned dimension, else the last unpinned measure. The rest follow the
// one- and two-attribute rules.
func (c *Compiler) template(ctx context.Context, src source.Source, axes []member) (intent.Mark, []slot, error) {
	colorIdx := -1
	for i, m := range axes {
		if m.clause.Channel == intent.ChannelColor {
			colorIdx = i
		}
	}
	twoDims := len(axes) == 2 && !axes[0].measure() && !axes[1].measure()
	if colorIdx < 0 && (len(axes) >= 3 || twoDims) {
		colorIdx = pickColor(axes)
	}

	var primary []member
	for i, m := range axes {
		if i != colorIdx {
			primary = append(primary, m)
		}
	}
	record := member{clause: intent.RecordClause()}

	var mark intent.Mark
	var slots []slot
	switch {
	case len(primary) == 0:
		return "", nil, skip(SkipNoEncodingRule, "no attribute left for the x or y axis")
	case len(primary) > 2:
		return "", nil, skip(SkipTooManyAttributes, "%d attributes for two axes", len(primary))
	case len(primary) == 1 && primary[0].measure():
		mark = intent.MarkHistogram
		slots = []slot{{intent.ChannelX, primary[0]}, {intent.ChannelY, record}}
	case len(primary) == 1 && colorIdx < 0:
		mark = intent.MarkBar
		slots = []slot{{intent.ChannelX, record}, {intent.ChannelY, primary[0]}}
	default:
		if len(primary) == 1 {
			primary = append(primary, record)
		}
		a, b := primary[0], primary[1]
		switch {
		case a.measure() && b.measure():
			var err error
			if mark, err = c.densityMark(ctx, src); err != nil {
				return "", nil, err
			}
			slots = []slot{{intent.ChannelX, a}, {intent.ChannelY, b}}
		case a.measure() || b.measure():
			m, d := a, b
			if !m.measure() {
				m, d = b, a
			}
			switch {
			case d.temporal() && d.cardOK && d.card == 1:
				// One distinct instant charts as a bar.
				mark = intent.MarkBar
				slots = []slot{{intent.ChannelX, m}, {intent.ChannelY, d}}
			case d.temporal():
				mark = intent.MarkLine
				slots = []slot{{intent.ChannelX, d}, {intent.ChannelY, m}}
			default:
				mark = intent.MarkBar
				slots = []slot{{intent.ChannelX, m}, {intent.ChannelY, d}}
			}
		default:
			return "", nil, skip(SkipNoEncodingRule, "two dimensions %s and %s without a measure", a.clause.Name(), b.clause.Name())
		}
	}

	if colorIdx >= 0 {
		slots = append(slots, slot{intent.ChannelColor, axes[colorIdx]})
	}
	return mark, slots, nil
}

// pickColor chooses the unpinned attribute for the color channel, or -1.
// Nominal dimensions are preferred over temporal ones; among equals the
// lowest cardinality wins, ties going to the later attribute.
func pickColor(axes []member) int {
	best := -1
	better := func(i int) bool {
		if best < 0 {
			return true
		}
		bt, it := axes[best].temporal(), axes[i].temporal()
		if bt != it {
			return bt
		}
		return axes[i].rank() <= axes[best].rank()
	}
	for i, m := range axes {
		if m.clause.Channel != intent.ChannelNone || m.measure() {
			continue
		}
		if better(i) {
			best = i
		}
	}
	if best >= 0 {
		return best
	}
	for i := len(axes) - 1; i >= 0; i-- {
		if axes[i].clause.Channel == intent.ChannelNone {
			return i
		}
	}
	return -1
}

// assignChannels honors explicit channels and hands the template's
// remaining channels, in template order, to the remaining members.
func assignChannels(slots []slot) ([]intent.Clause, error) {
	claimed := make(map[intent.Channel]bool, len(slots))
	var out []intent.Clause
	for _, s := range slots {
		if ch := s.m.clause.Channel; ch != intent.ChannelNone {
			claimed[ch] = true
			out = append(out, s.m.clause.Clone())
		}
	}

	var free []intent.Channel
	for _, s := range slots {
		if !claimed[s.ch] {
			free = append(free, s.ch)
		}
	}
	for _, s := range slots {
		if s.m.clause.Channel != intent.ChannelNone {
			continue
		}
		if len(free) == 0 {
			return nil, skip(SkipNoEncodingRule, "no channel left for %s", s.m.clause.Name())
		}
		out = append(out, s.m.clause.On(free[0]))
		free = free[1:]
	}
	return out, nil
}

// sortFor applies the category-axis sort policy: a small known domain
// keeps its natural order, anything else sorts ascending.
func (c *Compiler) sortFor(slots []slot, name string) intent.Sort {
	for _, s := range slots {
		if s.m.clause.Name() != name {
			continue
		}
		if s.m.cardOK && s.m.card <= c.cfg.SortCardinalityThreshold {
			return intent.SortNone
		}
		return intent.SortAscending
	}
	return intent.SortAscending
}

// densityMark chooses between scatter and heatmap from the row estimate.
// SQL sources use RemoteHeatmapRowThreshold and bin when the count is
// unknown; in-memory sources use HeatmapRowThreshold.
func (c *Compiler) densityMark(ctx context.Context, src source.Source) (intent.Mark, error) {
	rows, ok, err := src.RowCountEstimate(ctx)
	if err != nil {
		return "", err
	}
	threshold := c.cfg.HeatmapRowThreshold
	remote := src.Kind() == source.KindSQL
	if remote {
		threshold = c.cfg.RemoteHeatmapRowThreshold
	}
	switch {
	case !ok && remote:
		return intent.MarkHeatmap, nil
	case ok && rows > threshold:
		return intent.MarkHeatmap, nil
	}
	return intent.MarkScatter, nil
}
