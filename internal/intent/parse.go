package intent

import (
	"fmt"
	"strings"
)

// ParseClause parses clause shorthand:
//
//	Horsepower           literal attribute
//	?                    attribute wildcard
//	Horsepower|Weight    attribute list
//	Origin=USA           equality filter
//	Origin=?             value wildcard
//	Origin=USA|Japan     value list
//	Horsepower>=100      comparison filter
func ParseClause(s string) (Clause, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Clause{}, fmt.Errorf("empty clause")
	}

	attr, op, val, hasOp := splitFilter(s)

	c, err := parseAttribute(attr)
	if err != nil {
		return Clause{}, fmt.Errorf("clause %q: %w", s, err)
	}
	if !hasOp {
		return c, nil
	}

	val = strings.TrimSpace(val)
	switch {
	case val == "":
		return Clause{}, fmt.Errorf("clause %q: missing value after %q", s, op)
	case val == Wildcard:
		c = c.WithAnyValue()
	case strings.Contains(val, "|"):
		parts := strings.Split(val, "|")
		vs := make([]Value, 0, len(parts))
		for _, p := range parts {
			if strings.TrimSpace(p) == "" {
				return Clause{}, fmt.Errorf("clause %q: empty value in list", s)
			}
			vs = append(vs, ParseValue(p))
		}
		c = c.WithValues(vs...)
	default:
		c = c.WithValue(ParseValue(val))
	}
	if op != OpEq {
		c.FilterOp = op
	}
	return c, nil
}

// MustParseClause is ParseClause that panics on error. For tests and
// static tables.
func MustParseClause(s string) Clause {
	c, err := ParseClause(s)
	if err != nil {
		panic(err)
	}
	return c
}

// ParseIntent parses each shorthand clause in order.
func ParseIntent(clauses ...string) (Intent, error) {
	in := make(Intent, 0, len(clauses))
	for i, s := range clauses {
		c, err := ParseClause(s)
		if err != nil {
			return nil, fmt.Errorf("clause %d: %w", i, err)
		}
		in = append(in, c)
	}
	return in, nil
}

// splitFilter finds the first operator outside the attribute name.
func splitFilter(s string) (attr string, op FilterOp, val string, ok bool) {
	for i := 0; i < len(s); i++ {
		for _, candidate := range filterOps {
			if strings.HasPrefix(s[i:], string(candidate)) {
				return s[:i], candidate, s[i+len(candidate):], true
			}
		}
	}
	return s, OpNone, "", false
}

func parseAttribute(s string) (Clause, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return Clause{}, fmt.Errorf("missing attribute")
	case s == Wildcard:
		return AnyAttr(), nil
	case strings.Contains(s, "|"):
		parts := strings.Split(s, "|")
		names := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p == "" {
				return Clause{}, fmt.Errorf("empty name in attribute list")
			}
			names = append(names, p)
		}
		return AttrOneOf(names...), nil
	default:
		return Attr(s), nil
	}
}
