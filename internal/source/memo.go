package source

import (
	"context"
	"errors"
	"slices"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/roach88/vizintent/internal/intent"
)

// Memo wraps a Source and answers each distinct question at most once.
// Concurrent callers asking the same question share one backend call.
//
// A Memo lives for one build; it never invalidates.
type Memo struct {
	src   Source
	group singleflight.Group

	mu      sync.Mutex
	results map[string]memoResult
}

type memoResult struct {
	val any
	err error
}

type cardinality struct {
	n  int
	ok bool
}

var _ Source = (*Memo)(nil)

// NewMemo wraps src. Wrapping a Memo returns it unchanged.
func NewMemo(src Source) *Memo {
	if m, ok := src.(*Memo); ok {
		return m
	}
	return &Memo{src: src, results: make(map[string]memoResult)}
}

// Unwrap returns the underlying source.
func (m *Memo) Unwrap() Source { return m.src }

func (m *Memo) Name() string { return m.src.Name() }

func (m *Memo) Kind() Kind { return m.src.Kind() }

func (m *Memo) do(key string, fn func() (any, error)) (any, error) {
	m.mu.Lock()
	if r, ok := m.results[key]; ok {
		m.mu.Unlock()
		return r.val, r.err
	}
	m.mu.Unlock()

	v, err, _ := m.group.Do(key, func() (any, error) {
		m.mu.Lock()
		if r, ok := m.results[key]; ok {
			m.mu.Unlock()
			return r.val, r.err
		}
		m.mu.Unlock()

		val, err := fn()
		// Context errors belong to the caller, not the question.
		if err == nil || !isContextErr(err) {
			m.mu.Lock()
			m.results[key] = memoResult{val: val, err: err}
			m.mu.Unlock()
		}
		return val, err
	})
	return v, err
}

func (m *Memo) Columns(ctx context.Context) ([]string, error) {
	v, err := m.do("columns", func() (any, error) {
		return m.src.Columns(ctx)
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(v.([]string)), nil
}

func (m *Memo) Semantics(ctx context.Context, column string) (Semantics, error) {
	v, err := m.do("semantics\x00"+column, func() (any, error) {
		return m.src.Semantics(ctx, column)
	})
	if err != nil {
		return Semantics{}, err
	}
	return v.(Semantics), nil
}

func (m *Memo) DistinctValues(ctx context.Context, column string) ([]intent.Value, error) {
	v, err := m.do("distinct\x00"+column, func() (any, error) {
		return m.src.DistinctValues(ctx, column)
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(v.([]intent.Value)), nil
}

func (m *Memo) Cardinality(ctx context.Context, column string) (int, bool, error) {
	v, err := m.do("cardinality\x00"+column, func() (any, error) {
		n, ok, err := m.src.Cardinality(ctx, column)
		return cardinality{n: n, ok: ok}, err
	})
	if err != nil {
		return 0, false, err
	}
	c := v.(cardinality)
	return c.n, c.ok, nil
}

func (m *Memo) RowCountEstimate(ctx context.Context) (int, bool, error) {
	v, err := m.do("rows", func() (any, error) {
		n, ok, err := m.src.RowCountEstimate(ctx)
		return cardinality{n: n, ok: ok}, err
	})
	if err != nil {
		return 0, false, err
	}
	c := v.(cardinality)
	return c.n, c.ok, nil
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
