package statsql

import (
	"fmt"
	"strings"
)

// Compiler compiles statistics queries to SQLite SQL.
//
// Identifiers are always double-quoted; values are always parameters.
// Every query returning more than one row has a deterministic ORDER BY.
type Compiler struct{}

// NewCompiler creates a new Compiler.
func NewCompiler() *Compiler {
	return &Compiler{}
}

// Compile converts a Query to (sql, params).
func (c *Compiler) Compile(q Query) (string, []any, error) {
	if q == nil {
		return "", nil, fmt.Errorf("cannot compile nil query")
	}
	if err := Validate(q); err != nil {
		return "", nil, err
	}

	switch query := q.(type) {
	case ProbeColumns:
		return fmt.Sprintf("SELECT * FROM %s LIMIT 0", quoteIdent(query.Table)), nil, nil

	case DistinctValues:
		col := quoteIdent(query.Column)
		sql := fmt.Sprintf("SELECT DISTINCT %s FROM %s WHERE %s IS NOT NULL ORDER BY %s",
			col, quoteIdent(query.Table), col, stableOrderKey(col))
		if query.Limit > 0 {
			return sql + " LIMIT ?", []any{query.Limit}, nil
		}
		return sql, nil, nil

	case CountDistinct:
		return fmt.Sprintf("SELECT COUNT(DISTINCT %s) FROM %s",
			quoteIdent(query.Column), quoteIdent(query.Table)), nil, nil

	case CountRows:
		return fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteIdent(query.Table)), nil, nil

	case CountFractional:
		col := quoteIdent(query.Column)
		return fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s IS NOT NULL AND %s <> CAST(%s AS INTEGER)",
			quoteIdent(query.Table), col, col, col), nil, nil

	case SampleValues:
		col := quoteIdent(query.Column)
		return fmt.Sprintf("SELECT %s FROM %s WHERE %s IS NOT NULL ORDER BY %s LIMIT ?",
			col, quoteIdent(query.Table), col, stableOrderKey(col)), []any{query.Limit}, nil

	default:
		return "", nil, fmt.Errorf("unsupported query type: %T", q)
	}
}

// stableOrderKey orders by the column itself. COLLATE BINARY keeps text
// ordering byte-wise across SQLite builds and matches Go string compare.
func stableOrderKey(col string) string {
	return col + " COLLATE BINARY ASC"
}

// quoteIdent double-quotes a SQL identifier, doubling embedded quotes.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
