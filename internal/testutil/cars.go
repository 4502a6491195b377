package testutil

import (
	"bytes"
	"database/sql"
	_ "embed"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/vizintent/internal/source/memsource"
	"github.com/roach88/vizintent/internal/source/sqlsource"
)

// CarsCSV is a 40-row extract of the classic cars dataset.
//
// Columns (schema order) and their inferred types:
//
//	Name          nominal       40 distinct
//	MilesPerGal   quantitative
//	Cylinders     nominal       {4, 6, 8}
//	Displacement  quantitative
//	Horsepower    quantitative
//	Weight        quantitative
//	Acceleration  quantitative
//	Year          temporal      1970-1982, 13 distinct
//	Origin        nominal       {Europe, Japan, USA}
//	Brand         nominal       10 distinct
//
//go:embed testdata/cars.csv
var CarsCSV []byte

// CarsTable is the SQL table name used by CarsSQLite.
const CarsTable = "cars"

// CarsRows is the number of data rows in CarsCSV.
const CarsRows = 40

// Cars loads CarsCSV into an in-memory source.
func Cars(t testing.TB, opts ...memsource.Option) *memsource.Source {
	t.Helper()
	src, err := memsource.ReadCSV("cars", bytes.NewReader(CarsCSV), opts...)
	if err != nil {
		t.Fatalf("memsource.ReadCSV() failed: %v", err)
	}
	return src
}

// CarsSQLite writes CarsCSV into a SQLite file under t.TempDir() and
// returns a source over it. Column names are lower-cased so tests
// exercise case-insensitive resolution.
func CarsSQLite(t testing.TB, opts ...sqlsource.Option) *sqlsource.Source {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cars.db")
	if err := SeedSQLite(path, CarsTable, CarsCSV); err != nil {
		t.Fatalf("SeedSQLite() failed: %v", err)
	}
	src, err := sqlsource.Open(path, CarsTable, opts...)
	if err != nil {
		t.Fatalf("sqlsource.Open() failed: %v", err)
	}
	t.Cleanup(func() { src.Close() })
	return src
}

// carsDecl is the declared SQL type of each CarsCSV column.
var carsDecl = map[string]string{
	"name":         "TEXT",
	"milespergal":  "REAL",
	"cylinders":    "INTEGER",
	"displacement": "INTEGER",
	"horsepower":   "INTEGER",
	"weight":       "INTEGER",
	"acceleration": "REAL",
	"year":         "INTEGER",
	"origin":       "TEXT",
	"brand":        "TEXT",
}

// SeedSQLite creates table in the database at path from CSV data.
// Column names are lower-cased; columns not in the cars schema are TEXT.
func SeedSQLite(path, table string, data []byte) error {
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		return fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return fmt.Errorf("csv has no header")
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	header := records[0]
	defs := make([]string, len(header))
	marks := make([]string, len(header))
	for i, h := range header {
		col := strings.ToLower(h)
		decl, ok := carsDecl[col]
		if !ok {
			decl = "TEXT"
		}
		defs[i] = fmt.Sprintf("%q %s", col, decl)
		marks[i] = "?"
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(fmt.Sprintf("CREATE TABLE %q (%s)", table, strings.Join(defs, ", "))); err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	stmt, err := tx.Prepare(fmt.Sprintf("INSERT INTO %q VALUES (%s)", table, strings.Join(marks, ", ")))
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records[1:] {
		args := make([]any, len(rec))
		for i, cell := range rec {
			if cell == "" {
				args[i] = nil
			} else {
				args[i] = cell
			}
		}
		if _, err := stmt.Exec(args...); err != nil {
			return fmt.Errorf("insert: %w", err)
		}
	}
	return tx.Commit()
}
