package statsql

import (
	"fmt"
	"strings"
)

// Validate checks that a query names its table and column.
func Validate(q Query) error {
	switch query := q.(type) {
	case ProbeColumns:
		return requireIdent("table", query.Table)
	case DistinctValues:
		return requireIdents(query.Table, query.Column)
	case CountDistinct:
		return requireIdents(query.Table, query.Column)
	case CountRows:
		return requireIdent("table", query.Table)
	case CountFractional:
		return requireIdents(query.Table, query.Column)
	case SampleValues:
		if err := requireIdents(query.Table, query.Column); err != nil {
			return err
		}
		if query.Limit <= 0 {
			return fmt.Errorf("sample limit must be positive, got %d", query.Limit)
		}
		return nil
	default:
		return fmt.Errorf("unsupported query type: %T", q)
	}
}

func requireIdents(table, column string) error {
	if err := requireIdent("table", table); err != nil {
		return err
	}
	return requireIdent("column", column)
}

func requireIdent(kind, name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%s name is required", kind)
	}
	if strings.ContainsRune(name, 0) {
		return fmt.Errorf("%s name contains NUL", kind)
	}
	return nil
}
