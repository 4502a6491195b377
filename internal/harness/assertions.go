package harness

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/vizintent/internal/compiler"
	"github.com/roach88/vizintent/internal/intent"
	"github.com/roach88/vizintent/internal/vis"
)

// AssertionError is returned when an assertion fails.
// It includes the built charts to help debug the failure.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Charts   []string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	if len(e.Charts) > 0 {
		fmt.Fprintf(&buf, "\nCharts:\n")
		for i, c := range e.Charts {
			fmt.Fprintf(&buf, "  [%d] %s\n", i+1, c)
		}
	}
	return buf.String()
}

// EvaluateAssertions checks every assertion and returns the failure
// messages. A build error with no error_code assertion is itself a
// failure, and so is an error_code assertion on a successful build.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var failures []string

	expectsError := slices.ContainsFunc(assertions, func(a Assertion) bool {
		return a.Type == AssertErrorCode
	})
	if result.BuildErr != nil && !expectsError {
		return []string{fmt.Sprintf("build failed: %v", result.BuildErr)}
	}

	charts := describe(result.List)
	for _, a := range assertions {
		var err error
		switch a.Type {
		case AssertErrorCode:
			err = assertErrorCode(result.BuildErr, a)
		case AssertVisCount:
			err = assertVisCount(result.List, a)
		case AssertVisContains:
			err = assertVisContains(result.List, a)
		case AssertAllVis:
			err = assertAllVis(result.List, a)
		case AssertTitles:
			err = assertSequence(a.Type, a.Titles, collect(result.List, (*vis.Vis).Title))
		case AssertMarks:
			err = assertSequence(a.Type, a.Marks, marks(result.List))
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err == nil {
			continue
		}
		var ae *AssertionError
		if errors.As(err, &ae) {
			ae.Charts = charts
		}
		failures = append(failures, err.Error())
	}
	return failures
}

func describe(l *vis.List) []string {
	return collect(l, (*vis.Vis).String)
}

func marks(l *vis.List) []string {
	if l == nil {
		return nil
	}
	var out []string
	for _, m := range l.Marks() {
		out = append(out, string(m))
	}
	return out
}

func collect(l *vis.List, fn func(*vis.Vis) string) []string {
	if l == nil {
		return nil
	}
	out := make([]string, 0, l.Len())
	for _, v := range l.All() {
		out = append(out, fn(v))
	}
	return out
}

func assertErrorCode(err error, a Assertion) error {
	if err == nil {
		return &AssertionError{
			Type:     AssertErrorCode,
			Expected: fmt.Sprintf("validation error %s", a.Code),
			Actual:   "build succeeded",
		}
	}
	ves, ok := compiler.AsValidationErrors(err)
	if !ok {
		return &AssertionError{
			Type:     AssertErrorCode,
			Expected: fmt.Sprintf("validation error %s", a.Code),
			Actual:   err.Error(),
		}
	}
	var codes []string
	for _, ve := range ves {
		if ve.Code == a.Code {
			return nil
		}
		codes = append(codes, ve.Code)
	}
	return &AssertionError{
		Type:     AssertErrorCode,
		Expected: fmt.Sprintf("validation error %s", a.Code),
		Actual:   fmt.Sprintf("codes %v", codes),
	}
}

func assertVisCount(l *vis.List, a Assertion) error {
	n := 0
	if l != nil {
		n = l.Len()
	}
	if n != a.Count {
		return &AssertionError{
			Type:     AssertVisCount,
			Expected: fmt.Sprintf("%d charts", a.Count),
			Actual:   fmt.Sprintf("%d charts", n),
		}
	}
	return nil
}

// matches reports whether v satisfies every field a sets.
func matches(v *vis.Vis, a Assertion) bool {
	if a.Mark != "" && string(v.Mark()) != a.Mark {
		return false
	}
	if a.Title != "" && v.Title() != a.Title {
		return false
	}
	if a.Channel != "" {
		c, ok := v.Attr(intent.Channel(a.Channel))
		if !ok || !strings.EqualFold(c.Name(), a.Attribute) {
			return false
		}
	}
	return true
}

func expectation(a Assertion) string {
	var parts []string
	if a.Mark != "" {
		parts = append(parts, "mark="+a.Mark)
	}
	if a.Title != "" {
		parts = append(parts, fmt.Sprintf("title=%q", a.Title))
	}
	if a.Channel != "" {
		parts = append(parts, a.Channel+"="+a.Attribute)
	}
	return strings.Join(parts, " ")
}

func assertVisContains(l *vis.List, a Assertion) error {
	if l != nil {
		for _, v := range l.All() {
			if matches(v, a) {
				return nil
			}
		}
	}
	return &AssertionError{
		Type:     AssertVisContains,
		Expected: "a chart with " + expectation(a),
		Actual:   "none found",
	}
}

func assertAllVis(l *vis.List, a Assertion) error {
	if l == nil {
		return nil
	}
	for i, v := range l.All() {
		if !matches(v, a) {
			return &AssertionError{
				Type:     AssertAllVis,
				Expected: "every chart with " + expectation(a),
				Actual:   fmt.Sprintf("chart %d is %s", i+1, v),
			}
		}
	}
	return nil
}

func assertSequence(kind string, want, got []string) error {
	if slices.Equal(want, got) {
		return nil
	}
	return &AssertionError{
		Type:     kind,
		Expected: fmt.Sprintf("%q", want),
		Actual:   fmt.Sprintf("%q", got),
	}
}
