package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/vizintent/internal/compiler"
	"github.com/roach88/vizintent/internal/testutil"
)

func TestCompileText(t *testing.T) {
	out, _, err := execute(t, "compile", "--data", carsCSV(t, ""), "Origin=?", "MilesPerGal")
	require.NoError(t, err)

	assert.Contains(t, out, "✓ 3 visualization(s) for [Origin=?, MilesPerGal]")
	assert.Contains(t, out, "histogram{x=MilesPerGal")
	for _, title := range []string{"Origin = Europe", "Origin = Japan", "Origin = USA"} {
		assert.Contains(t, out, title)
	}
}

func TestCompileJSON(t *testing.T) {
	out, _, err := execute(t, "--format", "json", "compile", "--data", carsCSV(t, ""), "Origin=?", "MilesPerGal")
	require.NoError(t, err)

	resp := decode[listJSON](t, out)
	assert.Equal(t, "ok", resp.Status)
	assert.Nil(t, resp.Error)
	require.Len(t, resp.Data.Vis, 3)
	assert.Equal(t, []string{"Origin=?", "MilesPerGal"}, resp.Data.Intent)
	assert.NotEmpty(t, resp.BuildID)
	assert.Equal(t, resp.BuildID, resp.Data.ID)
	for _, v := range resp.Data.Vis {
		assert.Equal(t, "histogram", v.Mark)
	}
}

func TestCompileSQLite(t *testing.T) {
	out, _, err := execute(t, "--format", "json", "compile",
		"--data", carsDB(t), "--table", "cars", "MilesPerGal", "Weight")
	require.NoError(t, err)

	resp := decode[listJSON](t, out)
	require.Len(t, resp.Data.Vis, 1)
	assert.Equal(t, "heatmap", resp.Data.Vis[0].Mark)
}

func TestCompileIntentFile(t *testing.T) {
	dir := t.TempDir()
	carsCSV(t, dir)
	path := writeFile(t, dir, "explore.yaml", `
dataset:
  path: cars.csv
intent:
  - Origin=?
  - attribute: MilesPerGal
    channel: x
`)

	out, _, err := execute(t, "--format", "json", "compile", "--intent", path)
	require.NoError(t, err)

	resp := decode[listJSON](t, out)
	require.Len(t, resp.Data.Vis, 3)
	for _, v := range resp.Data.Vis {
		require.NotEmpty(t, v.Encodings)
		assert.Equal(t, "MilesPerGal", v.Encodings[0].Attribute)
		assert.Equal(t, "x", v.Encodings[0].Channel)
	}
}

func TestCompileDataFlagOverridesIntentFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "explore.yaml", `
dataset:
  path: missing.csv
intent: [Horsepower, Weight]
`)

	out, _, err := execute(t, "--format", "json", "compile", "--intent", path, "--data", carsCSV(t, ""))
	require.NoError(t, err)
	assert.Len(t, decode[listJSON](t, out).Data.Vis, 1)
}

func TestCompileDatasetFlagsApplyToIntentFile(t *testing.T) {
	dir := t.TempDir()
	db := carsDB(t)
	dbIntent := writeFile(t, dir, "db.yaml", "dataset:\n  path: "+db+"\nintent: [Horsepower, Weight]\n")
	writeFile(t, dir, "cars.data", string(testutil.CarsCSV))
	csvIntent := writeFile(t, dir, "csv.yaml", "dataset:\n  path: cars.data\nintent: [Origin]\n")

	tests := []struct {
		name string
		args []string
		mark string
	}{
		{"table", []string{"--intent", dbIntent, "--table", "cars"}, "heatmap"},
		{"kind", []string{"--intent", csvIntent, "--kind", "csv"}, "bar"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execute(t, append([]string{"--format", "json", "compile"}, tt.args...)...)
			require.NoError(t, err)
			resp := decode[listJSON](t, out)
			require.Len(t, resp.Data.Vis, 1)
			assert.Equal(t, tt.mark, resp.Data.Vis[0].Mark)
		})
	}
}

func TestCompileUnknownAttribute(t *testing.T) {
	out, _, err := execute(t, "--format", "json", "compile", "--data", carsCSV(t, ""), "Horsepowr", "Weight")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.True(t, compiler.IsUnknownAttribute(err))

	resp := decode[ValidationResult](t, out)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, compiler.ErrCodeUnknownAttribute, resp.Error.Code)
	assert.False(t, resp.Data.Valid)
	require.Len(t, resp.Data.Errors, 1)
	assert.Equal(t, "Horsepower", resp.Data.Errors[0].Suggestion)
}

func TestCompileDuplicateChannel(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "dup.yaml", `
intent:
  - {attribute: Year, channel: x}
  - {attribute: Acceleration, channel: x}
`)

	out, _, err := execute(t, "compile", "--intent", path, "--data", carsCSV(t, dir))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.True(t, compiler.IsDuplicateChannel(err))
	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, "E201")
}

func TestCompileCommandErrors(t *testing.T) {
	cars := carsCSV(t, "")
	dir := t.TempDir()
	intentPath := writeFile(t, dir, "in.yaml", "intent: [Horsepower]\n")
	badConfig := writeFile(t, dir, "bad.yaml", "parallelism: 0\n")

	tests := []struct {
		name string
		args []string
		code string
	}{
		{"no dataset", []string{"compile", "Horsepower"}, ErrCodeDataset},
		{"missing dataset", []string{"compile", "--data", filepath.Join(dir, "nope.csv"), "Horsepower"}, ErrCodeNotFound},
		{"unknown extension", []string{"compile", "--data", intentPath, "Horsepower"}, ErrCodeDataset},
		{"sqlite without table", []string{"compile", "--data", carsDB(t), "Horsepower"}, ErrCodeDataset},
		{"bad shorthand", []string{"compile", "--data", cars, "Origin="}, ErrCodeIntent},
		{"args and intent file", []string{"compile", "--data", cars, "--intent", intentPath, "Weight"}, ErrCodeIntent},
		{"missing intent file", []string{"compile", "--data", cars, "--intent", filepath.Join(dir, "nope.yaml")}, ErrCodeNotFound},
		{"invalid config", []string{"compile", "--config", badConfig, "--data", cars, "Horsepower"}, ErrCodeConfig},
		{"invalid log level", []string{"compile", "--log-level", "loud", "--data", cars, "Horsepower"}, ErrCodeConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execute(t, append([]string{"--format", "json"}, tt.args...)...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))

			resp := decode[any](t, out)
			assert.Equal(t, "error", resp.Status)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code, resp.Error.Message)
		})
	}
}

func TestCompileOutputFile(t *testing.T) {
	outFile := filepath.Join(t.TempDir(), "charts.json")
	out, _, err := execute(t, "compile", "--data", carsCSV(t, ""), "-o", outFile, "Horsepower|Weight", "Origin")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote visualizations to "+outFile)

	data, err := os.ReadFile(outFile)
	require.NoError(t, err)
	var list listJSON
	require.NoError(t, json.Unmarshal(data, &list))
	assert.Len(t, list.Vis, 2)
}

func TestCompileConfigFile(t *testing.T) {
	dir := t.TempDir()
	cars := carsCSV(t, dir)
	cfgPath := writeFile(t, dir, "vizintent.yaml", `
heatmap_row_threshold: 10
dataset:
  path: `+cars+`
`)

	out, _, err := execute(t, "--format", "json", "--config", cfgPath, "compile", "MilesPerGal", "Weight")
	require.NoError(t, err)

	resp := decode[listJSON](t, out)
	require.Len(t, resp.Data.Vis, 1)
	assert.Equal(t, "heatmap", resp.Data.Vis[0].Mark, "40 rows exceed the threshold of 10")
}

func TestCompileEnvironment(t *testing.T) {
	t.Setenv("VIZINTENT_MAX_WILDCARD_VALUES", "2")

	out, _, err := execute(t, "--format", "json", "compile", "--data", carsCSV(t, ""), "Brand=?", "Horsepower")
	require.NoError(t, err)

	resp := decode[listJSON](t, out)
	require.Len(t, resp.Data.Vis, 2)
	assert.Equal(t, "Brand = amc", resp.Data.Vis[0].Title)
	assert.Equal(t, "Brand = chevrolet", resp.Data.Vis[1].Title)
}

func TestCompileMetricsAndLogFiles(t *testing.T) {
	dir := t.TempDir()
	metricsFile := filepath.Join(dir, "metrics.prom")
	logFile := filepath.Join(dir, "vizintent.log")

	_, _, err := execute(t, "compile",
		"--data", carsCSV(t, dir),
		"--metrics-file", metricsFile,
		"--log-file", logFile,
		"Origin=USA|Atlantis", "Horsepower")
	require.NoError(t, err)

	metrics, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), `vizintent_builds_total{outcome="ok"} 1`)
	assert.Contains(t, string(metrics), `vizintent_options_skipped_total{reason="filter value absent"} 1`)

	logs, err := os.ReadFile(logFile)
	require.NoError(t, err)
	var finished bool
	for _, line := range strings.Split(strings.TrimSpace(string(logs)), "\n") {
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		if entry["msg"] == "build finished" {
			finished = true
			assert.Equal(t, "compile", entry["command"])
			assert.EqualValues(t, 1, entry["vis"])
		}
	}
	assert.True(t, finished, "log: %s", logs)
}

func TestCompileVerbose(t *testing.T) {
	_, errOut, err := execute(t, "--verbose", "compile", "--data", carsCSV(t, ""), "Horsepower")
	require.NoError(t, err)
	assert.Contains(t, errOut, "Opened memory dataset cars")
	assert.Contains(t, errOut, "option compiled", "verbose implies debug logs")
}
