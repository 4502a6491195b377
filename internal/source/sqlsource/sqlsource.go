// Package sqlsource implements source.Source over a table in a SQL
// database reached through database/sql. SQLite (mattn/go-sqlite3) is the
// supported driver.
//
// Statistics are computed by the database (see internal/statsql) and kept
// in an ARC cache that outlives individual builds.
package sqlsource

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/arc/v2"
	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/vizintent/internal/intent"
	"github.com/roach88/vizintent/internal/source"
	"github.com/roach88/vizintent/internal/statsql"
)

// DefaultCacheSize bounds the number of cached statistics results.
const DefaultCacheSize = 256

// dateSampleSize is how many values are checked when deciding whether a
// text column holds dates.
const dateSampleSize = 32

// Option configures a Source.
type Option func(*options)

type options struct {
	types     map[string]intent.DataType
	cutoff    int
	cacheSize int
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

// WithCacheSize sets the statistics cache capacity.
func WithCacheSize(n int) Option {
	return func(o *options) {
		o.cacheSize = n
	}
}

// Source is one table in a SQL database.
type Source struct {
	db       *sql.DB
	owned    bool
	table    string
	compiler *statsql.Compiler
	cache    *arc.ARCCache[string, any]
	cutoff   int

	mu        sync.Mutex
	loaded    bool
	columns   []string
	declTypes map[string]string
	overrides map[string]intent.DataType
}

var _ source.Source = (*Source)(nil)

// Open opens a SQLite database file and returns a Source over one table.
// The returned Source owns the connection; Close releases it.
func Open(path, table string, opts ...Option) (*Source, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Read-only access; a single connection keeps :memory: databases shared.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s, err := New(db, table, opts...)
	if err != nil {
		db.Close()
		return nil, err
	}
	s.owned = true
	return s, nil
}

// New returns a Source over an existing connection. The caller keeps
// ownership of db.
func New(db *sql.DB, table string, opts ...Option) (*Source, error) {
	o := options{
		types:     make(map[string]intent.DataType),
		cutoff:    source.DefaultNominalCardinalityCutoff,
		cacheSize: DefaultCacheSize,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if strings.TrimSpace(table) == "" {
		return nil, fmt.Errorf("sqlsource: table name is required")
	}
	if o.cacheSize <= 0 {
		o.cacheSize = DefaultCacheSize
	}
	cache, err := arc.NewARC[string, any](o.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("sqlsource: create cache: %w", err)
	}
	s := &Source{
		db:        db,
		table:     table,
		compiler:  statsql.NewCompiler(),
		cache:     cache,
		cutoff:    o.cutoff,
		overrides: make(map[string]intent.DataType, len(o.types)),
	}
	for col, t := range o.types {
		if !t.Valid() || t == intent.TypeNone {
			return nil, fmt.Errorf("sqlsource %s: invalid data type %q for column %q", table, t, col)
		}
		s.overrides[col] = t
	}
	return s, nil
}

// Close releases the connection if the Source opened it.
func (s *Source) Close() error {
	if !s.owned || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying connection.
func (s *Source) DB() *sql.DB { return s.db }

func (s *Source) Name() string { return s.table }

func (s *Source) Kind() source.Kind { return source.KindSQL }

// load probes column names and declared types once.
func (s *Source) load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		return nil
	}

	query, params, err := s.compiler.Compile(statsql.ProbeColumns{Table: s.table})
	if err != nil {
		return &source.Error{Op: "probe columns", Source: s.table, Err: err}
	}
	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return &source.Error{Op: "probe columns", Source: s.table, Err: err}
	}
	defer rows.Close()

	types, err := rows.ColumnTypes()
	if err != nil {
		return &source.Error{Op: "probe columns", Source: s.table, Err: err}
	}
	columns := make([]string, len(types))
	decl := make(map[string]string, len(types))
	for i, ct := range types {
		columns[i] = ct.Name()
		decl[ct.Name()] = strings.ToUpper(ct.DatabaseTypeName())
	}
	if err := rows.Err(); err != nil {
		return &source.Error{Op: "probe columns", Source: s.table, Err: err}
	}

	resolved := make(map[string]intent.DataType, len(s.overrides))
	for want, t := range s.overrides {
		got, ok := source.ResolveIn(columns, want)
		if !ok {
			return source.NotFound(s.table, "override type", want)
		}
		resolved[got] = t
	}

	s.columns = columns
	s.declTypes = decl
	s.overrides = resolved
	s.loaded = true
	return nil
}

func (s *Source) Columns(ctx context.Context) ([]string, error) {
	if err := s.load(ctx); err != nil {
		return nil, err
	}
	return slices.Clone(s.columns), nil
}

func (s *Source) checkColumn(ctx context.Context, op, column string) error {
	if err := s.load(ctx); err != nil {
		return err
	}
	if _, ok := s.declTypes[column]; !ok {
		return source.NotFound(s.table, op, column)
	}
	return nil
}

func (s *Source) Semantics(ctx context.Context, column string) (source.Semantics, error) {
	if err := s.checkColumn(ctx, "semantics", column); err != nil {
		return source.Semantics{}, err
	}
	if t, ok := s.overrides[column]; ok {
		return source.NewSemantics(column, t), nil
	}

	p := source.Profile{Name: column, Physical: physicalOf(s.declTypes[column])}

	n, err := s.countDistinct(ctx, column)
	if err != nil {
		return source.Semantics{}, err
	}
	p.Cardinality, p.CardinalityKnown = n, true

	rows, err := s.countRows(ctx)
	if err != nil {
		return source.Semantics{}, err
	}
	p.Rows = rows

	switch p.Physical {
	case source.PhysicalFloat:
		frac, err := s.scalar(ctx, "count fractional", column, statsql.CountFractional{Table: s.table, Column: column})
		if err != nil {
			return source.Semantics{}, err
		}
		p.Integral = frac == 0
	case source.PhysicalString:
		sample, err := s.values(ctx, "sample values", column, statsql.SampleValues{Table: s.table, Column: column, Limit: dateSampleSize})
		if err != nil {
			return source.Semantics{}, err
		}
		p.DateLike = len(sample) > 0
		for _, v := range sample {
			if !source.LooksTemporal(v.Canonical()) {
				p.DateLike = false
				break
			}
		}
	}

	return source.NewSemantics(column, source.InferType(p, s.cutoff)), nil
}

func (s *Source) DistinctValues(ctx context.Context, column string) ([]intent.Value, error) {
	if err := s.checkColumn(ctx, "distinct values", column); err != nil {
		return nil, err
	}
	vals, err := s.values(ctx, "distinct values", column, statsql.DistinctValues{Table: s.table, Column: column})
	if err != nil {
		return nil, err
	}
	return slices.Clone(vals), nil
}

func (s *Source) Cardinality(ctx context.Context, column string) (int, bool, error) {
	if err := s.checkColumn(ctx, "cardinality", column); err != nil {
		return 0, false, err
	}
	n, err := s.countDistinct(ctx, column)
	if err != nil {
		return 0, false, err
	}
	return n, true, nil
}

func (s *Source) RowCountEstimate(ctx context.Context) (int, bool, error) {
	if err := s.load(ctx); err != nil {
		return 0, false, err
	}
	n, err := s.countRows(ctx)
	if err != nil {
		return 0, false, err
	}
	return n, true, nil
}

func (s *Source) countDistinct(ctx context.Context, column string) (int, error) {
	return s.scalar(ctx, "cardinality", column, statsql.CountDistinct{Table: s.table, Column: column})
}

func (s *Source) countRows(ctx context.Context) (int, error) {
	return s.scalar(ctx, "count rows", "", statsql.CountRows{Table: s.table})
}

// scalar runs a single-integer query through the cache.
func (s *Source) scalar(ctx context.Context, op, column string, q statsql.Query) (int, error) {
	query, params, err := s.compiler.Compile(q)
	if err != nil {
		return 0, &source.Error{Op: op, Source: s.table, Column: column, Err: err}
	}
	key := cacheKey(query, params)
	if v, ok := s.cache.Get(key); ok {
		return v.(int), nil
	}
	var n int64
	if err := s.db.QueryRowContext(ctx, query, params...).Scan(&n); err != nil {
		return 0, &source.Error{Op: op, Source: s.table, Column: column, Err: err}
	}
	s.cache.Add(key, int(n))
	return int(n), nil
}

// values runs a single-column query through the cache.
func (s *Source) values(ctx context.Context, op, column string, q statsql.Query) ([]intent.Value, error) {
	query, params, err := s.compiler.Compile(q)
	if err != nil {
		return nil, &source.Error{Op: op, Source: s.table, Column: column, Err: err}
	}
	key := cacheKey(query, params)
	if v, ok := s.cache.Get(key); ok {
		return v.([]intent.Value), nil
	}

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, &source.Error{Op: op, Source: s.table, Column: column, Err: err}
	}
	defer rows.Close()

	var out []intent.Value
	for rows.Next() {
		var raw any
		if err := rows.Scan(&raw); err != nil {
			return nil, &source.Error{Op: op, Source: s.table, Column: column, Err: err}
		}
		v, err := toValue(raw)
		if err != nil {
			return nil, &source.Error{Op: op, Source: s.table, Column: column, Err: err}
		}
		if v != nil {
			out = append(out, v)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, &source.Error{Op: op, Source: s.table, Column: column, Err: err}
	}
	s.cache.Add(key, out)
	return out, nil
}

func cacheKey(query string, params []any) string {
	var b strings.Builder
	b.WriteString(query)
	for _, p := range params {
		b.WriteString("\x00")
		fmt.Fprint(&b, p)
	}
	return b.String()
}

// toValue converts a driver value to a Value. NULL maps to nil.
func toValue(raw any) (intent.Value, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case int64:
		return intent.Number(v), nil
	case float64:
		return intent.Number(v), nil
	case bool:
		return intent.String(strconv.FormatBool(v)), nil
	case string:
		return intent.String(v), nil
	case []byte:
		return intent.String(string(v)), nil
	case time.Time:
		return intent.Time(v.UTC()), nil
	default:
		return nil, fmt.Errorf("unsupported driver value %T", raw)
	}
}

// physicalOf maps a declared column type using SQLite affinity rules.
func physicalOf(decl string) source.Physical {
	switch {
	case decl == "DATE" || decl == "DATETIME" || decl == "TIMESTAMP":
		return source.PhysicalTime
	case strings.Contains(decl, "INT"):
		return source.PhysicalInteger
	case strings.Contains(decl, "CHAR") || strings.Contains(decl, "CLOB") || strings.Contains(decl, "TEXT"):
		return source.PhysicalString
	case strings.Contains(decl, "REAL") || strings.Contains(decl, "FLOA") || strings.Contains(decl, "DOUB") ||
		strings.Contains(decl, "NUMERIC") || strings.Contains(decl, "DECIMAL"):
		return source.PhysicalFloat
	}
	return source.PhysicalString
}
