// Package memsource implements source.Source over an in-memory columnar
// table (github.com/aclements/go-gg/table).
//
// Columns may be []float64, []float32, []int, []int64, []string,
// []time.Time or []bool. NaN, the zero time and the empty string are
// treated as missing.
package memsource

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/aclements/go-gg/table"
	"github.com/axiomhq/hyperloglog"

	"github.com/roach88/vizintent/internal/intent"
	"github.com/roach88/vizintent/internal/source"
)

// DefaultExactCardinalityLimit is the row count above which cardinality
// is estimated with HyperLogLog instead of counted.
const DefaultExactCardinalityLimit = 1_000_000

// Option configures a Source.
type Option func(*options)

type options struct {
	types      map[string]intent.DataType
	cutoff     int
	exactLimit int
}

// WithDataType overrides the inferred type of a column.
func WithDataType(column string, t intent.DataType) Option {
	return func(o *options) {
		o.types[column] = t
	}
}

// WithNominalCardinalityCutoff sets the distinct-count below which integer
// columns are typed nominal.
func WithNominalCardinalityCutoff(n int) Option {
	return func(o *options) {
		o.cutoff = n
	}
}

// WithExactCardinalityLimit sets the row count above which cardinality is
// estimated.
func WithExactCardinalityLimit(n int) Option {
	return func(o *options) {
		o.exactLimit = n
	}
}

// Source is an in-memory dataset.
type Source struct {
	name    string
	tab     *table.Table
	columns []string
	cols    map[string]*column
}

type column struct {
	values    []intent.Value // nil entries are missing
	semantics source.Semantics
	card      int

	once     sync.Once
	distinct []intent.Value
}

var _ source.Source = (*Source)(nil)

// New profiles every column of tab and returns a Source over it.
func New(name string, tab *table.Table, opts ...Option) (*Source, error) {
	o := options{
		types:      make(map[string]intent.DataType),
		cutoff:     source.DefaultNominalCardinalityCutoff,
		exactLimit: DefaultExactCardinalityLimit,
	}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Source{
		name:    name,
		tab:     tab,
		columns: slices.Clone(tab.Columns()),
		cols:    make(map[string]*column, len(tab.Columns())),
	}

	overrides := make(map[string]intent.DataType, len(o.types))
	for want, t := range o.types {
		got, ok := source.ResolveIn(s.columns, want)
		if !ok {
			return nil, source.NotFound(name, "override type", want)
		}
		if !t.Valid() || t == intent.TypeNone {
			return nil, fmt.Errorf("memsource %s: invalid data type %q for column %q", name, t, want)
		}
		overrides[got] = t
	}

	rows := tab.Len()
	for _, colName := range s.columns {
		values, physical, err := convert(tab.Column(colName))
		if err != nil {
			return nil, &source.Error{Op: "load", Source: name, Column: colName, Err: err}
		}
		p := source.Profile{
			Name:     colName,
			Physical: physical,
			Integral: physical == source.PhysicalFloat && allIntegral(values),
			DateLike: physical == source.PhysicalString && allDateLike(values),
			Rows:     rows,
		}
		p.Cardinality = countDistinct(values, o.exactLimit)
		p.CardinalityKnown = true

		t, ok := overrides[colName]
		if !ok {
			t = source.InferType(p, o.cutoff)
		}
		if t == intent.TypeTemporal && physical == source.PhysicalString {
			values = parseTimes(values)
		}
		s.cols[colName] = &column{
			values:    values,
			semantics: source.NewSemantics(colName, t),
			card:      p.Cardinality,
		}
	}
	return s, nil
}

func (s *Source) Name() string { return s.name }

func (s *Source) Kind() source.Kind { return source.KindMemory }

func (s *Source) Columns(ctx context.Context) ([]string, error) {
	return slices.Clone(s.columns), nil
}

func (s *Source) column(op, name string) (*column, error) {
	c, ok := s.cols[name]
	if !ok {
		return nil, source.NotFound(s.name, op, name)
	}
	return c, nil
}

func (s *Source) Semantics(ctx context.Context, name string) (source.Semantics, error) {
	c, err := s.column("semantics", name)
	if err != nil {
		return source.Semantics{}, err
	}
	return c.semantics, nil
}

func (s *Source) DistinctValues(ctx context.Context, name string) ([]intent.Value, error) {
	c, err := s.column("distinct values", name)
	if err != nil {
		return nil, err
	}
	c.once.Do(func() {
		c.distinct = distinctSorted(c.values)
	})
	return slices.Clone(c.distinct), nil
}

func (s *Source) Cardinality(ctx context.Context, name string) (int, bool, error) {
	c, err := s.column("cardinality", name)
	if err != nil {
		return 0, false, err
	}
	return c.card, true, nil
}

func (s *Source) RowCountEstimate(ctx context.Context) (int, bool, error) {
	return s.tab.Len(), true, nil
}

// convert maps a table column to Values and reports its storage class.
func convert(col table.Slice) ([]intent.Value, source.Physical, error) {
	switch data := col.(type) {
	case []float64:
		out := make([]intent.Value, len(data))
		for i, f := range data {
			if !math.IsNaN(f) {
				out[i] = intent.Number(f)
			}
		}
		return out, source.PhysicalFloat, nil
	case []float32:
		out := make([]intent.Value, len(data))
		for i, f := range data {
			if !math.IsNaN(float64(f)) {
				out[i] = intent.Number(f)
			}
		}
		return out, source.PhysicalFloat, nil
	case []int:
		out := make([]intent.Value, len(data))
		for i, n := range data {
			out[i] = intent.Number(n)
		}
		return out, source.PhysicalInteger, nil
	case []int64:
		out := make([]intent.Value, len(data))
		for i, n := range data {
			out[i] = intent.Number(n)
		}
		return out, source.PhysicalInteger, nil
	case []string:
		out := make([]intent.Value, len(data))
		for i, s := range data {
			if s != "" {
				out[i] = intent.String(s)
			}
		}
		return out, source.PhysicalString, nil
	case []bool:
		out := make([]intent.Value, len(data))
		for i, b := range data {
			out[i] = intent.String(strconv.FormatBool(b))
		}
		return out, source.PhysicalString, nil
	case []time.Time:
		out := make([]intent.Value, len(data))
		for i, t := range data {
			if !t.IsZero() {
				out[i] = intent.Time(t.UTC())
			}
		}
		return out, source.PhysicalTime, nil
	default:
		return nil, 0, fmt.Errorf("unsupported column type %T", col)
	}
}

func allIntegral(values []intent.Value) bool {
	seen := false
	for _, v := range values {
		n, ok := v.(intent.Number)
		if !ok {
			continue
		}
		seen = true
		if f := float64(n); f != math.Trunc(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return seen
}

func allDateLike(values []intent.Value) bool {
	seen := false
	for _, v := range values {
		if v == nil {
			continue
		}
		seen = true
		if !source.LooksTemporal(v.Canonical()) {
			return false
		}
	}
	return seen
}

func parseTimes(values []intent.Value) []intent.Value {
	out := make([]intent.Value, len(values))
	for i, v := range values {
		if v == nil {
			continue
		}
		if t, err := parseTime(v.Canonical()); err == nil {
			out[i] = intent.Time(t.UTC())
		} else {
			out[i] = v
		}
	}
	return out
}

// countDistinct counts exactly up to limit rows and estimates beyond.
func countDistinct(values []intent.Value, limit int) int {
	if limit <= 0 || len(values) <= limit {
		seen := make(map[string]struct{})
		for _, v := range values {
			if v != nil {
				seen[distinctKey(v)] = struct{}{}
			}
		}
		return len(seen)
	}
	sketch := hyperloglog.New()
	for _, v := range values {
		if v != nil {
			sketch.Insert([]byte(distinctKey(v)))
		}
	}
	return int(sketch.Estimate())
}

func distinctKey(v intent.Value) string {
	return fmt.Sprintf("%T\x00%s", v, v.Canonical())
}

func distinctSorted(values []intent.Value) []intent.Value {
	seen := make(map[string]struct{})
	var out []intent.Value
	for _, v := range values {
		if v == nil {
			continue
		}
		k := distinctKey(v)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, v)
	}
	sort.SliceStable(out, func(i, j int) bool {
		cmp, ok := intent.CompareValues(out[i], out[j])
		if !ok {
			return out[i].Canonical() < out[j].Canonical()
		}
		return cmp < 0
	})
	return out
}
