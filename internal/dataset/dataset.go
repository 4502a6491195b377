// Package dataset opens the source.Source named by configuration.
package dataset

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/vizintent/internal/config"
	"github.com/roach88/vizintent/internal/intent"
	"github.com/roach88/vizintent/internal/source"
	"github.com/roach88/vizintent/internal/source/memsource"
	"github.com/roach88/vizintent/internal/source/sqlsource"
)

// Dataset is an opened source together with its release function.
type Dataset struct {
	source.Source
	close func() error
}

// Close releases whatever Open acquired. Safe to call on in-memory
// datasets.
func (d *Dataset) Close() error {
	if d.close == nil {
		return nil
	}
	return d.close()
}

// KindOf returns ds.Kind, or the kind implied by the path extension.
func KindOf(ds config.Dataset) (string, error) {
	if ds.Kind != "" {
		return ds.Kind, nil
	}
	switch strings.ToLower(filepath.Ext(ds.Path)) {
	case ".csv":
		return config.DatasetCSV, nil
	case ".arrow", ".arrows", ".ipc":
		return config.DatasetArrow, nil
	case ".db", ".sqlite", ".sqlite3":
		return config.DatasetSQLite, nil
	}
	return "", fmt.Errorf("cannot infer dataset kind from %q; set dataset.kind", ds.Path)
}

// Open loads ds and returns it as a source. CSV and Arrow files are read
// fully into memory; SQLite tables are queried in place. The schema is
// read once before returning so a bad table name fails here.
func Open(ctx context.Context, ds config.Dataset, sc config.Source) (*Dataset, error) {
	if ds.Path == "" {
		return nil, fmt.Errorf("dataset.path is required")
	}
	kind, err := KindOf(ds)
	if err != nil {
		return nil, err
	}
	overrides, err := dataTypes(sc.DataTypes)
	if err != nil {
		return nil, err
	}

	var d *Dataset
	switch kind {
	case config.DatasetCSV, config.DatasetArrow:
		d, err = openFile(kind, ds, sc, overrides)
	case config.DatasetSQLite:
		d, err = openSQLite(ds, sc, overrides)
	default:
		return nil, fmt.Errorf("unknown dataset kind %q", kind)
	}
	if err != nil {
		return nil, err
	}

	if _, err := d.Columns(ctx); err != nil {
		d.Close()
		return nil, err
	}
	return d, nil
}

func openFile(kind string, ds config.Dataset, sc config.Source, overrides map[string]intent.DataType) (*Dataset, error) {
	f, err := os.Open(ds.Path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	name := ds.Table
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(ds.Path), filepath.Ext(ds.Path))
	}
	opts := []memsource.Option{
		memsource.WithNominalCardinalityCutoff(sc.NominalCardinalityCutoff),
		memsource.WithExactCardinalityLimit(sc.ExactCardinalityLimit),
	}
	for col, t := range overrides {
		opts = append(opts, memsource.WithDataType(col, t))
	}

	var src *memsource.Source
	if kind == config.DatasetArrow {
		src, err = memsource.ReadArrow(name, f, opts...)
	} else {
		src, err = memsource.ReadCSV(name, f, opts...)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", ds.Path, err)
	}
	return &Dataset{Source: src}, nil
}

func openSQLite(ds config.Dataset, sc config.Source, overrides map[string]intent.DataType) (*Dataset, error) {
	if ds.Table == "" {
		return nil, fmt.Errorf("dataset.table is required for sqlite")
	}
	if _, err := os.Stat(ds.Path); err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	opts := []sqlsource.Option{
		sqlsource.WithNominalCardinalityCutoff(sc.NominalCardinalityCutoff),
		sqlsource.WithCacheSize(sc.StatsCacheSize),
	}
	for col, t := range overrides {
		opts = append(opts, sqlsource.WithDataType(col, t))
	}
	src, err := sqlsource.Open(ds.Path, ds.Table, opts...)
	if err != nil {
		return nil, err
	}
	return &Dataset{Source: src, close: src.Close}, nil
}

func dataTypes(raw map[string]string) (map[string]intent.DataType, error) {
	out := make(map[string]intent.DataType, len(raw))
	for col, s := range raw {
		t, err := intent.ParseDataType(s)
		if err != nil {
			return nil, fmt.Errorf("source.data_types[%s]: %w", col, err)
		}
		out[col] = t
	}
	return out, nil
}
