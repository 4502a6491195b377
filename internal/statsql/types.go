// Package statsql describes the statistics queries a SQL backend answers
// for the compiler and compiles them to parameterized SQLite SQL.
//
// Query is a sealed interface: only the types in this package implement
// it, so the compiler's type switch is exhaustive.
package statsql

// Query is one statistics question about a table.
type Query interface {
	queryNode() // Marker method - seals interface to this package
}

// ProbeColumns returns zero rows; callers read column names and declared
// types from the result set.
type ProbeColumns struct {
	Table string
}

func (ProbeColumns) queryNode() {}

// DistinctValues lists the non-null distinct values of a column in
// ascending order. Limit <= 0 means no limit.
type DistinctValues struct {
	Table  string
	Column string
	Limit  int
}

func (DistinctValues) queryNode() {}

// CountDistinct counts the non-null distinct values of a column.
type CountDistinct struct {
	Table  string
	Column string
}

func (CountDistinct) queryNode() {}

// CountRows counts the rows of a table.
type CountRows struct {
	Table string
}

func (CountRows) queryNode() {}

// CountFractional counts non-null values that are not whole numbers.
type CountFractional struct {
	Table  string
	Column string
}

func (CountFractional) queryNode() {}

// SampleValues returns up to Limit non-null values of a column.
type SampleValues struct {
	Table  string
	Column string
	Limit  int
}

func (SampleValues) queryNode() {}
