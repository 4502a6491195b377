package source

import (
	"strings"

	"github.com/araddon/dateparse"
	"golang.org/x/text/cases"

	"github.com/roach88/vizintent/internal/intent"
)

// DefaultNominalCardinalityCutoff is the distinct-count below which an
// integer column is treated as categorical.
const DefaultNominalCardinalityCutoff = 20

// temporalNames are attribute names treated as temporal regardless of
// their storage type.
var temporalNames = map[string]bool{
	"year":      true,
	"month":     true,
	"day":       true,
	"weekday":   true,
	"date":      true,
	"time":      true,
	"timestamp": true,
}

// Physical is the storage class a backend reports for a column.
type Physical int

const (
	PhysicalString Physical = iota
	PhysicalInteger
	PhysicalFloat
	PhysicalTime
)

// Profile is what a backend knows about a column before typing it.
type Profile struct {
	Name     string
	Physical Physical

	// Integral is true for float storage whose values are all whole.
	Integral bool

	// DateLike is true for string storage whose values all parse as dates.
	DateLike bool

	Cardinality      int
	CardinalityKnown bool
	Rows             int
}

// InferType assigns a semantic type to a profiled column.
//
// Rules, first match wins:
//  1. temporal storage, a date-like string column or a temporal name → temporal
//  2. an id-like name whose values are all distinct → id
//  3. integer values with fewer than cutoff distinct values → nominal
//  4. numeric storage → quantitative
//  5. anything else → nominal
func InferType(p Profile, cutoff int) intent.DataType {
	if cutoff <= 0 {
		cutoff = DefaultNominalCardinalityCutoff
	}
	folded := cases.Fold().String(p.Name)

	if p.Physical == PhysicalTime || temporalNames[folded] ||
		(p.Physical == PhysicalString && p.DateLike) {
		return intent.TypeTemporal
	}
	if isIDName(folded) && p.CardinalityKnown && p.Rows > 0 && p.Cardinality == p.Rows {
		return intent.TypeID
	}
	integral := p.Physical == PhysicalInteger || (p.Physical == PhysicalFloat && p.Integral)
	if integral && p.CardinalityKnown && p.Cardinality < cutoff {
		return intent.TypeNominal
	}
	if p.Physical == PhysicalInteger || p.Physical == PhysicalFloat {
		return intent.TypeQuantitative
	}
	return intent.TypeNominal
}

func isIDName(folded string) bool {
	return folded == "id" || strings.HasSuffix(folded, "_id") || strings.HasSuffix(folded, " id")
}

// LooksTemporal reports whether s parses as a date or timestamp and is
// not simply a number.
func LooksTemporal(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || isNumeric(s) {
		return false
	}
	_, err := dateparse.ParseAny(s)
	return err == nil
}

func isNumeric(s string) bool {
	seenDigit := false
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9':
			seenDigit = true
		case r == '.' || r == 'e' || r == 'E':
		case (r == '-' || r == '+') && (i == 0 || s[i-1] == 'e' || s[i-1] == 'E'):
		default:
			return false
		}
	}
	return seenDigit
}

// NewSemantics pairs a type with its derived model.
func NewSemantics(name string, t intent.DataType) Semantics {
	return Semantics{Name: name, DataType: t, DataModel: t.Model()}
}
