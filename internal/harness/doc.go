// Package harness runs compile scenarios against real datasets.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: origin_values
//	description: "A value wildcard yields one histogram per origin"
//	dataset:
//	  path: ../cars.csv
//	config:
//	  max_wildcard_values: 10
//	intent:
//	  - Origin=?
//	  - MilesPerGal
//	assertions:
//	  - type: vis_count
//	    count: 3
//	  - type: all_vis
//	    channel: x
//	    attribute: MilesPerGal
//
// The intent list accepts everything internal/intentfile accepts. Dataset
// paths are relative to the scenario file.
//
// # Assertion Types
//
//   - vis_count: the build produced exactly count charts
//   - vis_contains: some chart matches every given field (mark, title,
//     channel/attribute)
//   - all_vis: every chart has attribute on channel (and mark, if given)
//   - titles: chart titles in order
//   - marks: chart marks in order
//   - error_code: the build failed with a validation error carrying code
//
// # Deterministic Output
//
// Every build uses a fixed build ID (scenario.build_id, or
// "test-build-default"), so the same scenario always serializes to the
// same bytes. RunWithGolden compares that snapshot with
// testdata/golden/{name}.golden.
package harness
