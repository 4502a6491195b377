package intent

import "fmt"

// Channel is a visual encoding slot.
type Channel string

const (
	ChannelNone  Channel = ""
	ChannelX     Channel = "x"
	ChannelY     Channel = "y"
	ChannelColor Channel = "color"
)

// Channels lists the assignable channels in assignment order.
var Channels = []Channel{ChannelX, ChannelY, ChannelColor}

// Valid reports whether c is a known channel (including none).
func (c Channel) Valid() bool {
	switch c {
	case ChannelNone, ChannelX, ChannelY, ChannelColor:
		return true
	}
	return false
}

// ParseChannel converts a string to a Channel.
func ParseChannel(s string) (Channel, error) {
	c := Channel(s)
	if !c.Valid() {
		return "", fmt.Errorf("invalid channel %q: must be one of x, y, color", s)
	}
	return c, nil
}

// DataModel partitions attributes into measures and dimensions.
type DataModel string

const (
	ModelNone      DataModel = ""
	ModelMeasure   DataModel = "measure"
	ModelDimension DataModel = "dimension"
)

// Valid reports whether m is a known data model (including none).
func (m DataModel) Valid() bool {
	switch m {
	case ModelNone, ModelMeasure, ModelDimension:
		return true
	}
	return false
}

// ParseDataModel converts a string to a DataModel.
func ParseDataModel(s string) (DataModel, error) {
	m := DataModel(s)
	if !m.Valid() {
		return "", fmt.Errorf("invalid data model %q: must be measure or dimension", s)
	}
	return m, nil
}

// DataType is the semantic type of an attribute.
type DataType string

const (
	TypeNone         DataType = ""
	TypeQuantitative DataType = "quantitative"
	TypeNominal      DataType = "nominal"
	TypeTemporal     DataType = "temporal"
	TypeID           DataType = "id"
)

// Valid reports whether t is a known data type (including none).
func (t DataType) Valid() bool {
	switch t {
	case TypeNone, TypeQuantitative, TypeNominal, TypeTemporal, TypeID:
		return true
	}
	return false
}

// Model returns the data model implied by the type.
// Only quantitative attributes are measures.
func (t DataType) Model() DataModel {
	switch t {
	case TypeNone:
		return ModelNone
	case TypeQuantitative:
		return ModelMeasure
	default:
		return ModelDimension
	}
}

// ParseDataType converts a string to a DataType.
func ParseDataType(s string) (DataType, error) {
	t := DataType(s)
	if !t.Valid() {
		return "", fmt.Errorf("invalid data type %q: must be one of quantitative, nominal, temporal, id", s)
	}
	return t, nil
}

// Mark is the chart geometry.
type Mark string

const (
	MarkScatter   Mark = "scatter"
	MarkBar       Mark = "bar"
	MarkLine      Mark = "line"
	MarkHeatmap   Mark = "heatmap"
	MarkHistogram Mark = "histogram"
)

// Sort is the ordering of a categorical axis.
type Sort string

const (
	SortNone       Sort = ""
	SortAscending  Sort = "ascending"
	SortDescending Sort = "descending"
)

// Valid reports whether s is a known sort (including none).
func (s Sort) Valid() bool {
	switch s {
	case SortNone, SortAscending, SortDescending:
		return true
	}
	return false
}

// ParseSort converts a string to a Sort.
func ParseSort(s string) (Sort, error) {
	v := Sort(s)
	if !v.Valid() {
		return "", fmt.Errorf("invalid sort %q: must be ascending or descending", s)
	}
	return v, nil
}

// FilterOp is the comparison applied by a filter clause.
type FilterOp string

const (
	OpNone FilterOp = ""
	OpEq   FilterOp = "="
	OpNe   FilterOp = "!="
	OpLt   FilterOp = "<"
	OpGt   FilterOp = ">"
	OpLe   FilterOp = "<="
	OpGe   FilterOp = ">="
)

// filterOps is ordered longest first for shorthand scanning.
var filterOps = []FilterOp{OpNe, OpLe, OpGe, OpEq, OpLt, OpGt}

// Valid reports whether op is a known operator (including none).
func (op FilterOp) Valid() bool {
	switch op {
	case OpNone, OpEq, OpNe, OpLt, OpGt, OpLe, OpGe:
		return true
	}
	return false
}

// ParseFilterOp converts a string to a FilterOp.
func ParseFilterOp(s string) (FilterOp, error) {
	op := FilterOp(s)
	if !op.Valid() {
		return "", fmt.Errorf("invalid filter operator %q", s)
	}
	return op, nil
}

// Holds reports whether "v op target" is true under CompareValues ordering.
func (op FilterOp) Holds(v, target Value) bool {
	switch op {
	case OpNone, OpEq:
		return ValuesEqual(v, target)
	case OpNe:
		return !ValuesEqual(v, target)
	}
	cmp, ok := CompareValues(v, target)
	if !ok {
		return false
	}
	switch op {
	case OpLt:
		return cmp < 0
	case OpGt:
		return cmp > 0
	case OpLe:
		return cmp <= 0
	case OpGe:
		return cmp >= 0
	}
	return false
}
