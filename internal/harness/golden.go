package harness

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/vizintent/internal/compiler"
	"github.com/roach88/vizintent/internal/vis"
)

// Snapshot is the golden-file form of a scenario run.
type Snapshot struct {
	Scenario string                    `json:"scenario"`
	Result   *vis.List                 `json:"result,omitempty"`
	Errors   compiler.ValidationErrors `json:"errors,omitempty"`
	Failure  string                    `json:"failure,omitempty"`
}

// NewSnapshot captures result. Validation failures are kept structured;
// any other build error is kept as text.
func NewSnapshot(name string, result *Result) Snapshot {
	s := Snapshot{Scenario: name, Result: result.List}
	if result.BuildErr != nil {
		if ves, ok := compiler.AsValidationErrors(result.BuildErr); ok {
			s.Errors = ves
		} else {
			s.Failure = result.BuildErr.Error()
		}
	}
	return s
}

// MarshalSnapshot renders s as indented JSON with a trailing newline.
func MarshalSnapshot(s Snapshot) ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails. Test failure (via goldie)
// occurs if the snapshot doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario, opts ...Option) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario, opts...)
	if err != nil {
		return nil, err
	}
	return result, AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := MarshalSnapshot(NewSnapshot(scenarioName, result))
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
