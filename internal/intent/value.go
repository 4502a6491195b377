package intent

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Value is a sealed interface for filter values and observed column values.
// Only String, Number and Time implement it.
type Value interface {
	value() // Sealed - only these types implement it

	// Canonical returns the stable textual form used for equality,
	// fingerprints and titles.
	Canonical() string
}

// String is a categorical value.
type String string

func (String) value() {}

// Canonical implements Value.
func (s String) Canonical() string { return string(s) }

// Number is a numeric value. Integers are represented exactly up to 2^53.
type Number float64

func (Number) value() {}

// Canonical implements Value. Integral numbers print without a fraction.
func (n Number) Canonical() string {
	return strconv.FormatFloat(float64(n), 'g', -1, 64)
}

// MarshalJSON implements json.Marshaler. Non-finite numbers encode as strings.
func (n Number) MarshalJSON() ([]byte, error) {
	f := float64(n)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return json.Marshal(n.Canonical())
	}
	return []byte(n.Canonical()), nil
}

// Time is a temporal value, always held in UTC.
type Time time.Time

func (Time) value() {}

// Canonical implements Value.
func (t Time) Canonical() string {
	return time.Time(t).UTC().Format(time.RFC3339Nano)
}

// MarshalJSON implements json.Marshaler.
func (t Time) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Canonical())
}

// ParseValue interprets shorthand text: numbers become Number, anything
// else becomes String. Surrounding quotes force a String.
func ParseValue(s string) Value {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return String(s[1 : len(s)-1])
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return Number(f)
	}
	return String(s)
}

// ValueOf converts a decoded YAML/CUE/JSON scalar into a Value.
func ValueOf(v any) (Value, error) {
	switch val := v.(type) {
	case Value:
		return val, nil
	case string:
		return String(val), nil
	case int:
		return Number(val), nil
	case int64:
		return Number(val), nil
	case float64:
		return Number(val), nil
	case bool:
		return String(strconv.FormatBool(val)), nil
	case time.Time:
		return Time(val.UTC()), nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}

// asFloat returns the numeric reading of v, if it has one.
func asFloat(v Value) (float64, bool) {
	switch val := v.(type) {
	case Number:
		return float64(val), true
	case String:
		f, err := strconv.ParseFloat(strings.TrimSpace(string(val)), 64)
		return f, err == nil
	}
	return 0, false
}

// asTime returns the temporal reading of v, if it has one.
func asTime(v Value) (time.Time, bool) {
	switch val := v.(type) {
	case Time:
		return time.Time(val), true
	case String:
		for _, layout := range []string{time.RFC3339Nano, time.DateTime, time.DateOnly} {
			if t, err := time.Parse(layout, string(val)); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// ValuesEqual reports whether two values denote the same datum.
// A Number and a numeric String compare equal ("1970" == 1970).
func ValuesEqual(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	_, aNum := a.(Number)
	_, bNum := b.(Number)
	if aNum || bNum {
		af, aok := asFloat(a)
		bf, bok := asFloat(b)
		if aok && bok {
			return af == bf
		}
	}
	_, aTime := a.(Time)
	_, bTime := b.(Time)
	if aTime || bTime {
		at, aok := asTime(a)
		bt, bok := asTime(b)
		if aok && bok {
			return at.Equal(bt)
		}
	}
	return a.Canonical() == b.Canonical()
}

// CompareValues orders two values numerically, chronologically or
// lexically, in that order of preference. ok is false when the values
// are not comparable (one numeric, one not).
func CompareValues(a, b Value) (cmp int, ok bool) {
	if a == nil || b == nil {
		return 0, false
	}
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if aok && bok {
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		}
		return 0, true
	}
	if aok != bok {
		return 0, false
	}
	at, aok := asTime(a)
	bt, bok := asTime(b)
	if aok && bok {
		return at.Compare(bt), true
	}
	return strings.Compare(a.Canonical(), b.Canonical()), true
}
