package dataset

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/vizintent/internal/config"
	"github.com/roach88/vizintent/internal/intent"
	"github.com/roach88/vizintent/internal/source"
	"github.com/roach88/vizintent/internal/testutil"
)

func writeCars(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cars.csv")
	require.NoError(t, os.WriteFile(path, testutil.CarsCSV, 0o644))
	return path
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		ds      config.Dataset
		want    string
		wantErr bool
	}{
		{ds: config.Dataset{Path: "a/cars.csv"}, want: config.DatasetCSV},
		{ds: config.Dataset{Path: "cars.CSV"}, want: config.DatasetCSV},
		{ds: config.Dataset{Path: "cars.arrow"}, want: config.DatasetArrow},
		{ds: config.Dataset{Path: "cars.sqlite3"}, want: config.DatasetSQLite},
		{ds: config.Dataset{Path: "cars.db"}, want: config.DatasetSQLite},
		{ds: config.Dataset{Path: "cars.txt", Kind: config.DatasetCSV}, want: config.DatasetCSV},
		{ds: config.Dataset{Path: "cars.parquet"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.ds.Path, func(t *testing.T) {
			got, err := KindOf(tt.ds)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOpenCSV(t *testing.T) {
	ctx := context.Background()
	d, err := Open(ctx, config.Dataset{Path: writeCars(t)}, config.Default().Source)
	require.NoError(t, err)
	defer d.Close()

	assert.Equal(t, "cars", d.Name())
	assert.Equal(t, source.KindMemory, d.Kind())
	cols, err := d.Columns(ctx)
	require.NoError(t, err)
	assert.Len(t, cols, 10)

	n, ok, err := d.RowCountEstimate(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, testutil.CarsRows, n)
}

func TestOpenCSVTableOverridesName(t *testing.T) {
	d, err := Open(context.Background(), config.Dataset{Path: writeCars(t), Table: "autos"}, config.Default().Source)
	require.NoError(t, err)
	assert.Equal(t, "autos", d.Name())
}

func TestOpenSQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cars.db")
	require.NoError(t, testutil.SeedSQLite(path, "cars", testutil.CarsCSV))

	d, err := Open(ctx, config.Dataset{Path: path, Table: "cars"}, config.Default().Source)
	require.NoError(t, err)
	assert.Equal(t, source.KindSQL, d.Kind())

	sem, err := d.Semantics(ctx, "year")
	require.NoError(t, err)
	assert.Equal(t, intent.TypeTemporal, sem.DataType)
	require.NoError(t, d.Close())

	_, err = Open(ctx, config.Dataset{Path: path}, config.Default().Source)
	assert.ErrorContains(t, err, "dataset.table is required")

	_, err = Open(ctx, config.Dataset{Path: path, Table: "trucks"}, config.Default().Source)
	assert.Error(t, err)
}

func TestOpenArrow(t *testing.T) {
	pool := memory.NewGoAllocator()
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "Horsepower", Type: arrow.PrimitiveTypes.Float64},
		{Name: "Origin", Type: arrow.BinaryTypes.String},
	}, nil)
	b := array.NewRecordBuilder(pool, schema)
	defer b.Release()
	b.Field(0).(*array.Float64Builder).AppendValues([]float64{130, 165, 150}, nil)
	b.Field(1).(*array.StringBuilder).AppendValues([]string{"USA", "Japan", "USA"}, nil)
	rec := b.NewRecord()
	defer rec.Release()

	var buf bytes.Buffer
	w := ipc.NewWriter(&buf, ipc.WithSchema(schema), ipc.WithAllocator(pool))
	require.NoError(t, w.Write(rec))
	require.NoError(t, w.Close())

	path := filepath.Join(t.TempDir(), "engines.arrow")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	ctx := context.Background()
	d, err := Open(ctx, config.Dataset{Path: path}, config.Default().Source)
	require.NoError(t, err)
	assert.Equal(t, "engines", d.Name())

	n, ok, err := d.Cardinality(ctx, "Origin")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, n)
}

func TestOpenDataTypeOverrides(t *testing.T) {
	ctx := context.Background()
	sc := config.Default().Source
	sc.DataTypes = map[string]string{"year": "nominal"}

	d, err := Open(ctx, config.Dataset{Path: writeCars(t)}, sc)
	require.NoError(t, err)
	sem, err := d.Semantics(ctx, "Year")
	require.NoError(t, err)
	assert.Equal(t, intent.TypeNominal, sem.DataType)

	sc.DataTypes = map[string]string{"year": "ordinal"}
	_, err = Open(ctx, config.Dataset{Path: writeCars(t)}, sc)
	assert.ErrorContains(t, err, "source.data_types[year]")
}

func TestOpenErrors(t *testing.T) {
	ctx := context.Background()
	sc := config.Default().Source

	_, err := Open(ctx, config.Dataset{}, sc)
	assert.ErrorContains(t, err, "dataset.path is required")

	_, err = Open(ctx, config.Dataset{Path: filepath.Join(t.TempDir(), "missing.csv")}, sc)
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Open(ctx, config.Dataset{Path: filepath.Join(t.TempDir(), "missing.db"), Table: "cars"}, sc)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestCloseInMemoryIsNoop(t *testing.T) {
	d, err := Open(context.Background(), config.Dataset{Path: writeCars(t)}, config.Default().Source)
	require.NoError(t, err)
	assert.NoError(t, d.Close())
}
