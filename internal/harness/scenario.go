package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/roach88/vizintent/internal/config"
	"github.com/roach88/vizintent/internal/intentfile"
)

// Scenario defines one compile scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Dataset is the data to compile against. A relative path is resolved
	// against the scenario file's directory by LoadScenario.
	Dataset config.Dataset `yaml:"dataset"`

	// Config overrides compiler defaults for this scenario only.
	Config Overrides `yaml:"config,omitempty"`

	// Intent is the user intent to build.
	Intent intentfile.Clauses `yaml:"intent"`

	// Assertions validate the built list (or the build error).
	Assertions []Assertion `yaml:"assertions"`

	// BuildID is the fixed build ID. Defaults to "test-build-default".
	BuildID string `yaml:"build_id,omitempty"`
}

// Overrides are the compiler settings a scenario may change.
type Overrides struct {
	SortCardinalityThreshold  *int `yaml:"sort_cardinality_threshold,omitempty"`
	HeatmapRowThreshold       *int `yaml:"heatmap_row_threshold,omitempty"`
	RemoteHeatmapRowThreshold *int `yaml:"remote_heatmap_row_threshold,omitempty"`
	MaxWildcardValues         *int `yaml:"max_wildcard_values,omitempty"`
	Parallelism               *int `yaml:"parallelism,omitempty"`
}

// Apply returns cfg with every set override applied.
func (o Overrides) Apply(cfg config.Config) config.Config {
	set := func(dst *int, src *int) {
		if src != nil {
			*dst = *src
		}
	}
	set(&cfg.SortCardinalityThreshold, o.SortCardinalityThreshold)
	set(&cfg.HeatmapRowThreshold, o.HeatmapRowThreshold)
	set(&cfg.RemoteHeatmapRowThreshold, o.RemoteHeatmapRowThreshold)
	set(&cfg.MaxWildcardValues, o.MaxWildcardValues)
	set(&cfg.Parallelism, o.Parallelism)
	return cfg
}

// Assertion validates the built list.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Count is the expected number of charts (vis_count).
	Count int `yaml:"count,omitempty"`

	// Mark restricts matches to one mark (vis_contains, all_vis).
	Mark string `yaml:"mark,omitempty"`

	// Title is the expected chart title (vis_contains).
	Title string `yaml:"title,omitempty"`

	// Channel and Attribute require attribute on channel (vis_contains,
	// all_vis). Attribute names compare case-insensitively.
	Channel   string `yaml:"channel,omitempty"`
	Attribute string `yaml:"attribute,omitempty"`

	// Titles and Marks are the expected sequences (titles, marks).
	Titles []string `yaml:"titles,omitempty"`
	Marks  []string `yaml:"marks,omitempty"`

	// Code is the expected validation error code (error_code).
	Code string `yaml:"code,omitempty"`
}

// Assertion type constants.
const (
	AssertVisCount    = "vis_count"
	AssertVisContains = "vis_contains"
	AssertAllVis      = "all_vis"
	AssertTitles      = "titles"
	AssertMarks       = "marks"
	AssertErrorCode   = "error_code"
)

var assertionTypes = []string{
	AssertVisCount, AssertVisContains, AssertAllVis, AssertTitles, AssertMarks, AssertErrorCode,
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict fields catch typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if p := scenario.Dataset.Path; p != "" && !filepath.IsAbs(p) {
		scenario.Dataset.Path = filepath.Join(filepath.Dir(path), p)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Dataset.Path == "" {
		return fmt.Errorf("dataset.path is required")
	}
	if s.Intent == nil {
		return fmt.Errorf("intent list is required")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	for i, a := range s.Assertions {
		if !slices.Contains(assertionTypes, a.Type) {
			return fmt.Errorf("assertion %d: unknown type %q", i, a.Type)
		}
		if (a.Channel == "") != (a.Attribute == "") {
			return fmt.Errorf("assertion %d: channel and attribute go together", i)
		}
		if a.Type == AssertAllVis && a.Attribute == "" && a.Mark == "" {
			return fmt.Errorf("assertion %d: all_vis needs a mark or a channel and attribute", i)
		}
		if a.Type == AssertErrorCode && a.Code == "" {
			return fmt.Errorf("assertion %d: error_code needs a code", i)
		}
	}
	return nil
}
