// Package source defines the schema adapter the compiler queries for
// column names, semantic types and value statistics.
//
// Two implementations live in subpackages: memsource (in-memory columnar
// tables) and sqlsource (a SQL database reached through database/sql).
// The compiler never touches rows directly; every question it asks goes
// through Source.
package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/vizintent/internal/intent"
)

// Kind identifies the backend family. It selects backend-specific
// policies such as the heatmap row threshold.
type Kind string

const (
	KindMemory Kind = "memory"
	KindSQL    Kind = "sql"
)

// Semantics describes an attribute as the compiler sees it.
type Semantics struct {
	Name      string           `json:"name"`
	DataType  intent.DataType  `json:"data_type"`
	DataModel intent.DataModel `json:"data_model"`
}

//go:generate mockgen -destination=sourcemock/source.go -package=sourcemock . Source

// Source answers schema and statistics queries about one dataset.
//
// Column arguments are exact backend names; use Resolve to map user
// spelling to backend spelling first. Implementations must be safe for
// concurrent use.
type Source interface {
	// Name identifies the dataset (table name or file stem).
	Name() string

	// Kind identifies the backend family.
	Kind() Kind

	// Columns returns attribute names in schema order.
	Columns(ctx context.Context) ([]string, error)

	// Semantics returns the inferred (or overridden) type of a column.
	Semantics(ctx context.Context, column string) (Semantics, error)

	// DistinctValues returns the observed non-null values of a column in
	// ascending CompareValues order.
	DistinctValues(ctx context.Context, column string) ([]intent.Value, error)

	// Cardinality returns the number of distinct non-null values.
	// ok is false when the backend cannot tell.
	Cardinality(ctx context.Context, column string) (n int, ok bool, err error)

	// RowCountEstimate returns the number of rows, possibly approximate.
	// ok is false when the backend cannot tell.
	RowCountEstimate(ctx context.Context) (n int, ok bool, err error)
}

// ErrColumnNotFound is returned (wrapped in *Error) for unknown columns.
var ErrColumnNotFound = errors.New("column not found")

// Error wraps any adapter failure with the operation and column involved.
type Error struct {
	Op     string
	Source string
	Column string
	Err    error
}

func (e *Error) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("source %s: %s %q: %v", e.Source, e.Op, e.Column, e.Err)
	}
	return fmt.Sprintf("source %s: %s: %v", e.Source, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NotFound builds the error returned for an unknown column.
func NotFound(src, op, column string) error {
	return &Error{Op: op, Source: src, Column: column, Err: ErrColumnNotFound}
}

// IsNotFound reports whether err is (or wraps) ErrColumnNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrColumnNotFound)
}
