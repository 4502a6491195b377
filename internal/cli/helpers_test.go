package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/vizintent/internal/testutil"
)

// response decodes a CLIResponse with a typed payload.
type response[T any] struct {
	Status  string    `json:"status"`
	Data    T         `json:"data"`
	Error   *CLIError `json:"error"`
	BuildID string    `json:"build_id"`
}

// listJSON mirrors the JSON form of vis.List.
type listJSON struct {
	ID     string   `json:"id"`
	Intent []string `json:"intent"`
	Vis    []struct {
		Mark      string `json:"mark"`
		Title     string `json:"title"`
		Encodings []struct {
			Attribute string `json:"attribute"`
			Channel   string `json:"channel"`
		} `json:"encodings"`
	} `json:"vis"`
}

func decode[T any](t *testing.T, out string) response[T] {
	t.Helper()
	var resp response[T]
	require.NoError(t, json.Unmarshal([]byte(out), &resp), "output: %s", out)
	return resp
}

// execute runs the root command with args and returns stdout, stderr and
// the command error.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// carsCSV writes the cars fixture into dir (a fresh temp dir when empty).
func carsCSV(t *testing.T, dir string) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	return writeFile(t, dir, "cars.csv", string(testutil.CarsCSV))
}

// carsDB seeds a SQLite file with the cars fixture in table "cars".
func carsDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cars.db")
	require.NoError(t, testutil.SeedSQLite(path, testutil.CarsTable, testutil.CarsCSV))
	return path
}
