package intentfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/vizintent/internal/intent"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseYAML_Shorthand(t *testing.T) {
	f, err := ParseYAML([]byte(`
intent:
  - "?"
  - Origin=USA|Japan
  - Horsepower|Weight
  - Horsepower>=100
`))
	require.NoError(t, err)
	in := f.Intent.Intent()
	require.Len(t, in, 4)
	assert.Equal(t, "[?, Origin=USA|Japan, Horsepower|Weight, Horsepower>=100]", in.String())
	assert.Nil(t, f.Dataset)
}

func TestParseYAML_Maps(t *testing.T) {
	f, err := ParseYAML([]byte(`
intent:
  - attribute: "?"
    data_model: measure
    exclude: [Name, Brand]
  - attribute: Year
    channel: x
    data_type: temporal
  - attribute: [Origin, Brand]
    sort: descending
  - attribute: Cylinders
    value: [4, "6"]
  - attribute: Origin
    value: "?"
  - attribute: Horsepower
    op: ">"
    value: 100
`))
	require.NoError(t, err)
	in := f.Intent.Intent()
	require.Len(t, in, 6)

	assert.Equal(t, intent.AttrWildcard, in[0].Attribute.Kind)
	assert.Equal(t, intent.ModelMeasure, in[0].DataModel)
	assert.Equal(t, []string{"Name", "Brand"}, in[0].Exclude)

	assert.Equal(t, "Year", in[1].Name())
	assert.Equal(t, intent.ChannelX, in[1].Channel)
	assert.Equal(t, intent.TypeTemporal, in[1].DataType)

	assert.Equal(t, intent.AttrList, in[2].Attribute.Kind)
	assert.Equal(t, intent.SortDescending, in[2].Sort)

	require.Equal(t, intent.ValueList, in[3].Value.Kind)
	assert.Equal(t, intent.Number(4), in[3].Value.Values[0])
	assert.Equal(t, intent.String("6"), in[3].Value.Values[1], "quoted numbers stay strings")

	assert.Equal(t, intent.ValueWildcard, in[4].Value.Kind)

	assert.Equal(t, intent.OpGt, in[5].FilterOp)
	assert.Equal(t, intent.Number(100), in[5].Single())
}

func TestParseYAML_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{name: "no intent", doc: "dataset: {path: cars.csv}\n", want: "missing intent list"},
		{name: "not a list", doc: "intent: Origin\n", want: "intent must be a list"},
		{name: "unknown field", doc: "intent:\n  - attribute: Origin\n    colour: x\n", want: `line 2: intent[0]: unknown field "colour"`},
		{name: "missing attribute", doc: "intent:\n  - channel: x\n", want: "missing attribute"},
		{name: "bad channel", doc: "intent:\n  - Origin\n  - attribute: Year\n    channel: z\n", want: `line 3: intent[1]: invalid channel "z"`},
		{name: "bad shorthand", doc: "intent:\n  - \"=USA\"\n", want: "missing attribute"},
		{name: "empty list", doc: "intent:\n  - attribute: []\n", want: "empty attribute list"},
		{name: "nested value", doc: "intent:\n  - attribute: Origin\n    value: [[USA]]\n", want: "value list must hold scalars"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseYAML([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseCUE(t *testing.T) {
	f, err := ParseCUE("intent.cue", []byte(`
_measure: {attribute: "?", data_model: "measure"}

intent: [
	_measure,
	{attribute: "Year", channel: "x"},
	"Origin=USA",
	{attribute: "Cylinders", value: [4, 6]},
]

dataset: {path: "cars.csv", kind: "csv"}
`))
	require.NoError(t, err)
	in := f.Intent.Intent()
	require.Len(t, in, 4)
	assert.Equal(t, intent.ModelMeasure, in[0].DataModel)
	assert.Equal(t, intent.ChannelX, in[1].Channel)
	assert.Equal(t, "Origin=USA", in[2].String())
	assert.Equal(t, intent.Number(6), in[3].Value.Values[1])

	require.NotNil(t, f.Dataset)
	assert.Equal(t, "cars.csv", f.Dataset.Path)
	assert.Equal(t, "csv", f.Dataset.Kind)
}

func TestParseCUE_Errors(t *testing.T) {
	_, err := ParseCUE("x.cue", []byte(`intent: [`))
	assert.ErrorContains(t, err, "compile CUE")

	_, err = ParseCUE("x.cue", []byte(`other: 1`))
	assert.ErrorContains(t, err, "missing intent list")

	_, err = ParseCUE("x.cue", []byte(`intent: [{attribute: string}]`))
	assert.ErrorContains(t, err, "intent:")

	_, err = ParseCUE("x.cue", []byte(`intent: [{attribute: "Year", channel: "z"}]`))
	assert.ErrorContains(t, err, `x.cue: intent[0]: invalid channel "z"`)
}

func TestLoad(t *testing.T) {
	path := writeFile(t, "q.yaml", "intent: [\"?\", MilesPerGal]\ndataset:\n  path: data/cars.csv\n")
	f, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, f.Intent, 2)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "data", "cars.csv"), f.Dataset.Path)

	path = writeFile(t, "q.cue", `intent: ["Origin=?"]`)
	f, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, intent.ValueWildcard, f.Intent[0].Value.Kind)

	path = writeFile(t, "q.json", `{"intent": ["Weight"], "dataset": {"path": "/abs/cars.db", "table": "cars"}}`)
	f, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/abs/cars.db", f.Dataset.Path)
	assert.Equal(t, "cars", f.Dataset.Table)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Load(writeFile(t, "q.toml", "intent = []"))
	assert.ErrorContains(t, err, "unsupported extension")

	path := writeFile(t, "bad.yaml", "intent:\n  - attribute: Year\n    channel: z\n")
	_, err = Load(path)
	var fe *Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, path, fe.File)
	assert.Equal(t, 2, fe.Line)
}
