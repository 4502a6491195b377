package vis

import (
	"encoding/json"
	"iter"

	"github.com/roach88/vizintent/internal/intent"
)

// List is the ordered, deduplicated result of compiling one intent.
type List struct {
	id     string
	intent intent.Intent
	items  []*Vis
}

// NewList builds a List. Nil entries are dropped and later duplicates
// (same Fingerprint) are discarded; the first occurrence keeps its place.
func NewList(id string, in intent.Intent, items []*Vis) *List {
	seen := make(map[string]bool, len(items))
	kept := make([]*Vis, 0, len(items))
	for _, v := range items {
		if v == nil || seen[v.Fingerprint()] {
			continue
		}
		seen[v.Fingerprint()] = true
		kept = append(kept, v)
	}
	return &List{id: id, intent: in.Clone(), items: kept}
}

// ID returns the build identifier.
func (l *List) ID() string { return l.id }

// Intent returns the user intent the list was compiled from.
func (l *List) Intent() intent.Intent { return l.intent.Clone() }

// Len returns the number of visualizations.
func (l *List) Len() int { return len(l.items) }

// At returns the i-th visualization.
func (l *List) At(i int) *Vis { return l.items[i] }

// All iterates the visualizations in order.
func (l *List) All() iter.Seq2[int, *Vis] {
	return func(yield func(int, *Vis) bool) {
		for i, v := range l.items {
			if !yield(i, v) {
				return
			}
		}
	}
}

// Marks returns the mark of every visualization, in order.
func (l *List) Marks() []intent.Mark {
	out := make([]intent.Mark, len(l.items))
	for i, v := range l.items {
		out[i] = v.Mark()
	}
	return out
}

// MarshalJSON implements json.Marshaler.
func (l *List) MarshalJSON() ([]byte, error) {
	clauses := make([]string, len(l.intent))
	for i, c := range l.intent {
		clauses[i] = c.String()
	}
	items := l.items
	if items == nil {
		items = []*Vis{}
	}
	return json.Marshal(struct {
		ID     string   `json:"id,omitempty"`
		Intent []string `json:"intent"`
		Vis    []*Vis   `json:"vis"`
	}{ID: l.id, Intent: clauses, Vis: items})
}
