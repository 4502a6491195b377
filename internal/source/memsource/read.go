package memsource

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/aclements/go-gg/table"
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/araddon/dateparse"

	"github.com/roach88/vizintent/internal/source"
)

// ReadCSV loads a CSV stream with a header row. Columns whose non-empty
// cells are all integers become []int64, all numbers []float64, all dates
// []time.Time; anything else stays []string.
func ReadCSV(name string, r io.Reader, opts ...Option) (*Source, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, &source.Error{Op: "read csv", Source: name, Err: err}
	}
	if len(records) == 0 {
		return nil, &source.Error{Op: "read csv", Source: name, Err: errors.New("missing header row")}
	}

	header := records[0]
	rows := records[1:]
	seen := make(map[string]bool, len(header))
	b := new(table.Builder)
	for j, col := range header {
		col = strings.TrimSpace(col)
		if col == "" {
			return nil, &source.Error{Op: "read csv", Source: name, Err: fmt.Errorf("empty column name at position %d", j)}
		}
		if seen[col] {
			return nil, &source.Error{Op: "read csv", Source: name, Column: col, Err: errors.New("duplicate column")}
		}
		seen[col] = true

		cells := make([]string, len(rows))
		for i, row := range rows {
			cells[i] = strings.TrimSpace(row[j])
		}
		b.Add(col, typedColumn(cells))
	}
	return New(name, b.Done(), opts...)
}

// typedColumn picks the narrowest storage that holds every non-empty cell.
func typedColumn(cells []string) table.Slice {
	if ints, ok := parseInts(cells); ok {
		return ints
	}
	if floats, ok := parseFloats(cells); ok {
		return floats
	}
	if times, ok := parseTimeCells(cells); ok {
		return times
	}
	return cells
}

func parseInts(cells []string) ([]int64, bool) {
	out := make([]int64, len(cells))
	for i, c := range cells {
		if c == "" {
			// Missing integers force float storage so they can be NaN.
			return nil, false
		}
		n, err := strconv.ParseInt(c, 10, 64)
		if err != nil {
			return nil, false
		}
		out[i] = n
	}
	return out, len(cells) > 0
}

func parseFloats(cells []string) ([]float64, bool) {
	out := make([]float64, len(cells))
	seen := false
	for i, c := range cells {
		if c == "" {
			out[i] = math.NaN()
			continue
		}
		f, err := strconv.ParseFloat(c, 64)
		if err != nil {
			return nil, false
		}
		out[i] = f
		seen = true
	}
	return out, seen
}

func parseTimeCells(cells []string) ([]time.Time, bool) {
	out := make([]time.Time, len(cells))
	seen := false
	for i, c := range cells {
		if c == "" {
			continue
		}
		if !source.LooksTemporal(c) {
			return nil, false
		}
		t, err := parseTime(c)
		if err != nil {
			return nil, false
		}
		out[i] = t
		seen = true
	}
	return out, seen
}

func parseTime(s string) (time.Time, error) {
	return dateparse.ParseIn(s, time.UTC)
}

// ReadArrow loads an Arrow IPC stream. Integer and floating fields become
// numeric columns, string fields []string, and date or timestamp fields
// []time.Time.
func ReadArrow(name string, r io.Reader, opts ...Option) (*Source, error) {
	rdr, err := ipc.NewReader(r)
	if err != nil {
		return nil, &source.Error{Op: "read arrow", Source: name, Err: err}
	}
	defer rdr.Release()

	fields := rdr.Schema().Fields()
	builders := make([]columnBuilder, len(fields))
	for i, f := range fields {
		cb, err := newColumnBuilder(f.Type)
		if err != nil {
			return nil, &source.Error{Op: "read arrow", Source: name, Column: f.Name, Err: err}
		}
		builders[i] = cb
	}

	for rdr.Next() {
		rec := rdr.Record()
		for i := range fields {
			if err := builders[i].append(rec.Column(i)); err != nil {
				return nil, &source.Error{Op: "read arrow", Source: name, Column: fields[i].Name, Err: err}
			}
		}
	}
	if err := rdr.Err(); err != nil && !errors.Is(err, io.EOF) {
		return nil, &source.Error{Op: "read arrow", Source: name, Err: err}
	}

	b := new(table.Builder)
	for i, f := range fields {
		b.Add(f.Name, builders[i].slice())
	}
	return New(name, b.Done(), opts...)
}

// columnBuilder accumulates one Arrow field across record batches.
type columnBuilder struct {
	ints    []int64
	floats  []float64
	strings []string
	times   []time.Time
	kind    arrow.Type
}

func newColumnBuilder(dt arrow.DataType) (columnBuilder, error) {
	switch dt.ID() {
	case arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64,
		arrow.UINT8, arrow.UINT16, arrow.UINT32, arrow.UINT64,
		arrow.FLOAT32, arrow.FLOAT64,
		arrow.STRING, arrow.LARGE_STRING, arrow.BOOL,
		arrow.DATE32, arrow.DATE64, arrow.TIMESTAMP:
		return columnBuilder{kind: dt.ID()}, nil
	}
	return columnBuilder{}, fmt.Errorf("unsupported arrow type %s", dt)
}

func (b *columnBuilder) append(a arrow.Array) error {
	n := a.Len()
	for i := 0; i < n; i++ {
		null := a.IsNull(i)
		switch arr := a.(type) {
		case *array.Int8:
			b.appendInt(null, int64(arr.Value(i)))
		case *array.Int16:
			b.appendInt(null, int64(arr.Value(i)))
		case *array.Int32:
			b.appendInt(null, int64(arr.Value(i)))
		case *array.Int64:
			b.appendInt(null, arr.Value(i))
		case *array.Uint8:
			b.appendInt(null, int64(arr.Value(i)))
		case *array.Uint16:
			b.appendInt(null, int64(arr.Value(i)))
		case *array.Uint32:
			b.appendInt(null, int64(arr.Value(i)))
		case *array.Uint64:
			b.appendInt(null, int64(arr.Value(i)))
		case *array.Float32:
			b.appendFloat(null, float64(arr.Value(i)))
		case *array.Float64:
			b.appendFloat(null, arr.Value(i))
		case *array.String:
			b.appendString(null, arr.Value(i))
		case *array.LargeString:
			b.appendString(null, arr.Value(i))
		case *array.Boolean:
			b.appendString(null, strconv.FormatBool(arr.Value(i)))
		case *array.Date32:
			b.appendTime(null, arr.Value(i).ToTime())
		case *array.Date64:
			b.appendTime(null, arr.Value(i).ToTime())
		case *array.Timestamp:
			unit := arr.DataType().(*arrow.TimestampType).Unit
			b.appendTime(null, arr.Value(i).ToTime(unit))
		default:
			return fmt.Errorf("unsupported arrow array %T", a)
		}
	}
	return nil
}

// appendInt keeps integer storage until the first null, then falls back
// to floats so the null can be NaN.
func (b *columnBuilder) appendInt(null bool, v int64) {
	if null || b.floats != nil {
		if b.floats == nil {
			b.floats = make([]float64, 0, len(b.ints)+1)
			for _, n := range b.ints {
				b.floats = append(b.floats, float64(n))
			}
			b.ints = nil
		}
		if null {
			b.floats = append(b.floats, math.NaN())
		} else {
			b.floats = append(b.floats, float64(v))
		}
		return
	}
	b.ints = append(b.ints, v)
}

func (b *columnBuilder) appendFloat(null bool, v float64) {
	if null {
		v = math.NaN()
	}
	b.floats = append(b.floats, v)
}

func (b *columnBuilder) appendString(null bool, v string) {
	if null {
		v = ""
	}
	b.strings = append(b.strings, v)
}

func (b *columnBuilder) appendTime(null bool, v time.Time) {
	if null {
		v = time.Time{}
	}
	b.times = append(b.times, v.UTC())
}

func (b *columnBuilder) slice() table.Slice {
	switch {
	case b.floats != nil:
		return b.floats
	case b.strings != nil:
		return b.strings
	case b.times != nil:
		return b.times
	case b.ints != nil:
		return b.ints
	}
	// Empty stream: pick a typed empty slice matching the field.
	switch b.kind {
	case arrow.FLOAT32, arrow.FLOAT64:
		return []float64{}
	case arrow.STRING, arrow.LARGE_STRING, arrow.BOOL:
		return []string{}
	case arrow.DATE32, arrow.DATE64, arrow.TIMESTAMP:
		return []time.Time{}
	}
	return []int64{}
}
