// Package vis holds compiled visualizations: a Vis is one fully encoded
// chart, a List the deduplicated result of one build.
//
// Both types are immutable once constructed. Accessors return copies.
package vis

import (
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/roach88/vizintent/internal/intent"
)

// Vis is one compiled chart.
type Vis struct {
	mark        intent.Mark
	encodings   []intent.Clause
	filters     []intent.Clause
	title       string
	fingerprint string
}

// channelRank orders encodings x, y, color.
var channelRank = map[intent.Channel]int{
	intent.ChannelX:     0,
	intent.ChannelY:     1,
	intent.ChannelColor: 2,
}

// New builds a Vis. Every encoding must carry a distinct non-empty
// channel; encodings are stored in x, y, color order. Filters have their
// channel cleared and their operator defaulted.
func New(mark intent.Mark, encodings, filters []intent.Clause) (*Vis, error) {
	switch mark {
	case intent.MarkScatter, intent.MarkBar, intent.MarkLine, intent.MarkHeatmap, intent.MarkHistogram:
	default:
		return nil, fmt.Errorf("invalid mark %q", mark)
	}
	if len(encodings) == 0 {
		return nil, fmt.Errorf("vis requires at least one encoding")
	}

	enc := make([]intent.Clause, len(encodings))
	seen := make(map[intent.Channel]string, len(encodings))
	for i, c := range encodings {
		if c.Channel == intent.ChannelNone {
			return nil, fmt.Errorf("encoding %q has no channel", c.Name())
		}
		if _, ok := channelRank[c.Channel]; !ok {
			return nil, fmt.Errorf("encoding %q has invalid channel %q", c.Name(), c.Channel)
		}
		if prev, ok := seen[c.Channel]; ok {
			return nil, fmt.Errorf("channel %q assigned to both %q and %q", c.Channel, prev, c.Name())
		}
		if c.IsWildcard() || c.IsFilter() {
			return nil, fmt.Errorf("encoding %q must be a concrete axis clause", c.String())
		}
		seen[c.Channel] = c.Name()
		enc[i] = c.Clone()
	}
	sort.SliceStable(enc, func(i, j int) bool {
		return channelRank[enc[i].Channel] < channelRank[enc[j].Channel]
	})

	flt := make([]intent.Clause, len(filters))
	for i, f := range filters {
		if !f.IsFilter() || f.IsWildcard() {
			return nil, fmt.Errorf("filter %q must be a concrete filter clause", f.String())
		}
		f = f.Clone()
		f.Channel = intent.ChannelNone
		f.FilterOp = f.Op()
		flt[i] = f
	}

	v := &Vis{mark: mark, encodings: enc, filters: flt}
	v.title = v.computeTitle()
	v.fingerprint = v.computeFingerprint()
	return v, nil
}

// Mark returns the chart geometry.
func (v *Vis) Mark() intent.Mark { return v.mark }

// Title returns the human-readable title.
func (v *Vis) Title() string { return v.title }

// Fingerprint identifies the chart by mark, channel assignment and filters.
func (v *Vis) Fingerprint() string { return v.fingerprint }

// Encodings returns the inferred intent: one clause per channel, in
// x, y, color order.
func (v *Vis) Encodings() []intent.Clause {
	out := make([]intent.Clause, len(v.encodings))
	for i, c := range v.encodings {
		out[i] = c.Clone()
	}
	return out
}

// Filters returns the filter clauses.
func (v *Vis) Filters() []intent.Clause {
	out := make([]intent.Clause, len(v.filters))
	for i, c := range v.filters {
		out[i] = c.Clone()
	}
	return out
}

// InferredIntent returns encodings followed by filters.
func (v *Vis) InferredIntent() intent.Intent {
	out := make(intent.Intent, 0, len(v.encodings)+len(v.filters))
	out = append(out, v.Encodings()...)
	out = append(out, v.Filters()...)
	return out
}

// Attr returns the clause on a channel.
func (v *Vis) Attr(ch intent.Channel) (intent.Clause, bool) {
	for _, c := range v.encodings {
		if c.Channel == ch {
			return c.Clone(), true
		}
	}
	return intent.Clause{}, false
}

// Intent returns a fully pinned intent that recompiles to this Vis:
// every encoding keeps its channel, type and sort; the implicit Record
// clause is dropped because the compiler re-derives it.
func (v *Vis) Intent() intent.Intent {
	out := make(intent.Intent, 0, len(v.encodings)+len(v.filters))
	for _, c := range v.encodings {
		if c.IsRecord() {
			continue
		}
		out = append(out, c.Clone())
	}
	for _, f := range v.filters {
		out = append(out, f.Clone())
	}
	return out
}

func (v *Vis) computeTitle() string {
	if len(v.filters) > 0 {
		parts := make([]string, len(v.filters))
		for i, f := range v.filters {
			parts[i] = describeFilter(f)
		}
		return strings.Join(parts, ", ")
	}

	x, hasX := v.Attr(intent.ChannelX)
	y, hasY := v.Attr(intent.ChannelY)
	var title string
	switch {
	case hasX && hasY:
		title = fmt.Sprintf("%s vs. %s", y.Name(), x.Name())
	case hasX:
		title = x.Name()
	case hasY:
		title = y.Name()
	}
	if color, ok := v.Attr(intent.ChannelColor); ok {
		title += " by " + color.Name()
	}
	return title
}

func describeFilter(f intent.Clause) string {
	vals := make([]string, len(f.Value.Values))
	for i, val := range f.Value.Values {
		vals[i] = val.Canonical()
	}
	return fmt.Sprintf("%s %s %s", f.Name(), f.Op(), strings.Join(vals, "|"))
}

func (v *Vis) computeFingerprint() string {
	var b strings.Builder
	b.WriteString(string(v.mark))
	b.WriteString("\x1f")

	assign := make([]string, len(v.encodings))
	for i, c := range v.encodings {
		assign[i] = string(c.Channel) + "=" + c.Name()
	}
	slices.Sort(assign)
	b.WriteString(strings.Join(assign, "\x1e"))
	b.WriteString("\x1f")

	sig := make([]string, len(v.filters))
	for i, f := range v.filters {
		g := f.Clone()
		g.Channel, g.DataType, g.DataModel, g.Sort = "", "", "", ""
		sig[i] = string(g.CanonicalBytes())
	}
	slices.Sort(sig)
	b.WriteString(strings.Join(sig, "\x1e"))

	return intent.HashWithDomain(intent.DomainVis, []byte(b.String()))
}

// clauseJSON is the wire shape of a clause in a compiled Vis.
type clauseJSON struct {
	Attribute   string           `json:"attribute"`
	Channel     intent.Channel   `json:"channel,omitempty"`
	DataType    intent.DataType  `json:"data_type,omitempty"`
	DataModel   intent.DataModel `json:"data_model,omitempty"`
	Sort        intent.Sort      `json:"sort,omitempty"`
	Aggregation string           `json:"aggregation,omitempty"`
	FilterOp    intent.FilterOp  `json:"filter_op,omitempty"`
	Value       intent.Value     `json:"value,omitempty"`
}

func toClauseJSON(c intent.Clause) clauseJSON {
	out := clauseJSON{
		Attribute:   c.Name(),
		Channel:     c.Channel,
		DataType:    c.DataType,
		DataModel:   c.DataModel,
		Sort:        c.Sort,
		Aggregation: c.Aggregation,
	}
	if c.IsFilter() {
		out.FilterOp = c.Op()
		out.Value = c.Single()
	}
	return out
}

// MarshalJSON implements json.Marshaler.
func (v *Vis) MarshalJSON() ([]byte, error) {
	enc := make([]clauseJSON, len(v.encodings))
	for i, c := range v.encodings {
		enc[i] = toClauseJSON(c)
	}
	flt := make([]clauseJSON, len(v.filters))
	for i, f := range v.filters {
		flt[i] = toClauseJSON(f)
	}
	return json.Marshal(struct {
		Mark      intent.Mark  `json:"mark"`
		Title     string       `json:"title"`
		Encodings []clauseJSON `json:"encodings"`
		Filters   []clauseJSON `json:"filters,omitempty"`
	}{
		Mark:      v.mark,
		Title:     v.title,
		Encodings: enc,
		Filters:   flt,
	})
}

// String renders the Vis compactly for logs and text output.
func (v *Vis) String() string {
	parts := make([]string, 0, len(v.encodings))
	for _, c := range v.encodings {
		s := fmt.Sprintf("%s=%s", c.Channel, c.Name())
		if c.Sort != intent.SortNone {
			s += fmt.Sprintf("(%s)", c.Sort)
		}
		parts = append(parts, s)
	}
	out := fmt.Sprintf("%s{%s}", v.mark, strings.Join(parts, ", "))
	if len(v.filters) > 0 {
		fs := make([]string, len(v.filters))
		for i, f := range v.filters {
			fs[i] = describeFilter(f)
		}
		out += " where " + strings.Join(fs, ", ")
	}
	return out
}
