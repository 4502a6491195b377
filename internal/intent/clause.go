package intent

import (
	"fmt"
	"slices"
	"strings"
)

// Wildcard is the attribute or value placeholder meaning "enumerate".
const Wildcard = "?"

// RecordAttribute names the implicit row-count measure.
const RecordAttribute = "Record"

// AttrKind tags the attribute variant of a Clause.
type AttrKind int

const (
	AttrLiteral AttrKind = iota
	AttrWildcard
	AttrList
)

func (k AttrKind) String() string {
	switch k {
	case AttrLiteral:
		return "literal"
	case AttrWildcard:
		return "wildcard"
	case AttrList:
		return "list"
	}
	return fmt.Sprintf("AttrKind(%d)", int(k))
}

// ValueKind tags the value variant of a Clause.
type ValueKind int

const (
	ValueAbsent ValueKind = iota
	ValueLiteral
	ValueWildcard
	ValueList
)

func (k ValueKind) String() string {
	switch k {
	case ValueAbsent:
		return "absent"
	case ValueLiteral:
		return "literal"
	case ValueWildcard:
		return "wildcard"
	case ValueList:
		return "list"
	}
	return fmt.Sprintf("ValueKind(%d)", int(k))
}

// AttrSpec is the attribute half of a clause.
// Literal holds exactly one name, List one or more, Wildcard none.
type AttrSpec struct {
	Kind  AttrKind
	Names []string
}

// ValueSpec is the value half of a clause.
// Literal holds exactly one value, List one or more, Absent and Wildcard none.
type ValueSpec struct {
	Kind   ValueKind
	Values []Value
}

// Clause is one atomic piece of an intent.
//
// A clause with a value is a filter; one without is an axis clause that
// wants a channel. DataModel and DataType constrain wildcard enumeration
// and override inferred semantics for literal attributes.
type Clause struct {
	Attribute AttrSpec
	Value     ValueSpec
	FilterOp  FilterOp
	Channel   Channel
	DataModel DataModel
	DataType  DataType
	Sort      Sort

	// Exclude removes names from wildcard candidates.
	Exclude []string

	// Aggregation is set only on the implicit Record clause.
	Aggregation string
}

// Attr returns an axis clause on a named attribute. "?" yields a wildcard.
func Attr(name string) Clause {
	if name == Wildcard {
		return AnyAttr()
	}
	return Clause{Attribute: AttrSpec{Kind: AttrLiteral, Names: []string{name}}}
}

// AnyAttr returns an attribute wildcard clause.
func AnyAttr() Clause {
	return Clause{Attribute: AttrSpec{Kind: AttrWildcard}}
}

// AttrOneOf returns an attribute list clause.
func AttrOneOf(names ...string) Clause {
	return Clause{Attribute: AttrSpec{Kind: AttrList, Names: slices.Clone(names)}}
}

// RecordClause returns the implicit count measure paired with single
// attributes in histograms and bar charts.
func RecordClause() Clause {
	return Clause{
		Attribute:   AttrSpec{Kind: AttrLiteral, Names: []string{RecordAttribute}},
		DataModel:   ModelMeasure,
		DataType:    TypeQuantitative,
		Aggregation: "count",
	}
}

// Filter returns an equality filter clause.
func Filter(name string, v Value) Clause {
	return Attr(name).WithValue(v)
}

// WithValue returns a copy filtering on a single value.
func (c Clause) WithValue(v Value) Clause {
	c = c.Clone()
	c.Value = ValueSpec{Kind: ValueLiteral, Values: []Value{v}}
	return c
}

// WithValues returns a copy filtering on each listed value in turn.
func (c Clause) WithValues(vs ...Value) Clause {
	c = c.Clone()
	c.Value = ValueSpec{Kind: ValueList, Values: slices.Clone(vs)}
	return c
}

// WithAnyValue returns a copy enumerating every observed value.
func (c Clause) WithAnyValue() Clause {
	c = c.Clone()
	c.Value = ValueSpec{Kind: ValueWildcard}
	return c
}

// WithOp returns a copy with the filter operator set.
func (c Clause) WithOp(op FilterOp) Clause {
	c = c.Clone()
	c.FilterOp = op
	return c
}

// On returns a copy pinned to a channel.
func (c Clause) On(ch Channel) Clause {
	c = c.Clone()
	c.Channel = ch
	return c
}

// As returns a copy with an explicit data type.
func (c Clause) As(t DataType) Clause {
	c = c.Clone()
	c.DataType = t
	return c
}

// Model returns a copy constrained to a data model.
func (c Clause) Model(m DataModel) Clause {
	c = c.Clone()
	c.DataModel = m
	return c
}

// Sorted returns a copy with an explicit sort.
func (c Clause) Sorted(s Sort) Clause {
	c = c.Clone()
	c.Sort = s
	return c
}

// Excluding returns a copy whose wildcard skips the named attributes.
func (c Clause) Excluding(names ...string) Clause {
	c = c.Clone()
	c.Exclude = append(c.Exclude, names...)
	return c
}

// Clone returns a deep copy.
func (c Clause) Clone() Clause {
	c.Attribute.Names = slices.Clone(c.Attribute.Names)
	c.Value.Values = slices.Clone(c.Value.Values)
	c.Exclude = slices.Clone(c.Exclude)
	return c
}

// Name returns the literal attribute name, or "" for wildcards and lists.
func (c Clause) Name() string {
	if c.Attribute.Kind == AttrLiteral && len(c.Attribute.Names) == 1 {
		return c.Attribute.Names[0]
	}
	return ""
}

// Single returns the literal filter value, or nil.
func (c Clause) Single() Value {
	if c.Value.Kind == ValueLiteral && len(c.Value.Values) == 1 {
		return c.Value.Values[0]
	}
	return nil
}

// IsFilter reports whether the clause carries a value.
func (c Clause) IsFilter() bool {
	return c.Value.Kind != ValueAbsent
}

// IsRecord reports whether the clause is the implicit count measure.
func (c Clause) IsRecord() bool {
	return c.Name() == RecordAttribute && c.Aggregation == "count"
}

// IsWildcard reports whether the clause still needs expansion.
func (c Clause) IsWildcard() bool {
	return c.Attribute.Kind != AttrLiteral ||
		c.Value.Kind == ValueWildcard || c.Value.Kind == ValueList
}

// Op returns the effective filter operator ("=" when unset).
func (c Clause) Op() FilterOp {
	if c.FilterOp == OpNone {
		return OpEq
	}
	return c.FilterOp
}

// Check verifies the clause is well formed in isolation.
func (c Clause) Check() error {
	switch c.Attribute.Kind {
	case AttrLiteral:
		if len(c.Attribute.Names) != 1 || strings.TrimSpace(c.Attribute.Names[0]) == "" {
			return fmt.Errorf("literal attribute requires exactly one non-empty name")
		}
	case AttrWildcard:
		if len(c.Attribute.Names) != 0 {
			return fmt.Errorf("wildcard attribute must not list names")
		}
	case AttrList:
		if len(c.Attribute.Names) == 0 {
			return fmt.Errorf("attribute list must not be empty")
		}
		for _, n := range c.Attribute.Names {
			if strings.TrimSpace(n) == "" {
				return fmt.Errorf("attribute list contains an empty name")
			}
		}
	default:
		return fmt.Errorf("unknown attribute kind %v", c.Attribute.Kind)
	}

	switch c.Value.Kind {
	case ValueAbsent, ValueWildcard:
		if len(c.Value.Values) != 0 {
			return fmt.Errorf("%s value must not carry values", c.Value.Kind)
		}
	case ValueLiteral:
		if len(c.Value.Values) != 1 || c.Value.Values[0] == nil {
			return fmt.Errorf("literal value requires exactly one value")
		}
	case ValueList:
		if len(c.Value.Values) == 0 {
			return fmt.Errorf("value list must not be empty")
		}
	default:
		return fmt.Errorf("unknown value kind %v", c.Value.Kind)
	}

	if !c.FilterOp.Valid() {
		return fmt.Errorf("invalid filter operator %q", c.FilterOp)
	}
	if c.FilterOp != OpNone && !c.IsFilter() {
		return fmt.Errorf("filter operator %q without a value", c.FilterOp)
	}
	if !c.Channel.Valid() {
		return fmt.Errorf("invalid channel %q", c.Channel)
	}
	if !c.DataModel.Valid() {
		return fmt.Errorf("invalid data model %q", c.DataModel)
	}
	if !c.DataType.Valid() {
		return fmt.Errorf("invalid data type %q", c.DataType)
	}
	if !c.Sort.Valid() {
		return fmt.Errorf("invalid sort %q", c.Sort)
	}
	if c.DataType != TypeNone && c.DataModel != ModelNone && c.DataType.Model() != c.DataModel {
		return fmt.Errorf("data type %q contradicts data model %q", c.DataType, c.DataModel)
	}
	return nil
}

// String renders the clause in shorthand, e.g. "Origin=USA|Japan".
// Channel and type annotations are not part of the shorthand.
func (c Clause) String() string {
	var b strings.Builder
	switch c.Attribute.Kind {
	case AttrWildcard:
		b.WriteString(Wildcard)
	default:
		b.WriteString(strings.Join(c.Attribute.Names, "|"))
	}
	if !c.IsFilter() {
		return b.String()
	}
	b.WriteString(string(c.Op()))
	switch c.Value.Kind {
	case ValueWildcard:
		b.WriteString(Wildcard)
	default:
		parts := make([]string, len(c.Value.Values))
		for i, v := range c.Value.Values {
			parts[i] = v.Canonical()
		}
		b.WriteString(strings.Join(parts, "|"))
	}
	return b.String()
}

// Intent is an ordered list of clauses. Order drives default x/y assignment.
type Intent []Clause

// Clone returns a deep copy.
func (in Intent) Clone() Intent {
	if in == nil {
		return nil
	}
	out := make(Intent, len(in))
	for i, c := range in {
		out[i] = c.Clone()
	}
	return out
}

// HasWildcard reports whether any clause still needs expansion.
func (in Intent) HasWildcard() bool {
	for _, c := range in {
		if c.IsWildcard() {
			return true
		}
	}
	return false
}

// String renders the intent as comma-separated shorthand.
func (in Intent) String() string {
	parts := make([]string, len(in))
	for i, c := range in {
		parts[i] = c.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
