package vis

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/vizintent/internal/intent"
)

func enc(name string, ch intent.Channel, t intent.DataType) intent.Clause {
	return intent.Attr(name).On(ch).As(t).Model(t.Model())
}

func TestNewOrdersEncodings(t *testing.T) {
	v, err := New(intent.MarkScatter, []intent.Clause{
		enc("Weight", intent.ChannelColor, intent.TypeQuantitative),
		enc("Acceleration", intent.ChannelY, intent.TypeQuantitative),
		enc("Horsepower", intent.ChannelX, intent.TypeQuantitative),
	}, nil)
	require.NoError(t, err)

	got := v.Encodings()
	require.Len(t, got, 3)
	assert.Equal(t, "Horsepower", got[0].Name())
	assert.Equal(t, "Acceleration", got[1].Name())
	assert.Equal(t, "Weight", got[2].Name())
	assert.Equal(t, "Acceleration vs. Horsepower by Weight", v.Title())
}

func TestNewRejects(t *testing.T) {
	tests := []struct {
		name    string
		mark    intent.Mark
		enc     []intent.Clause
		filters []intent.Clause
		want    string
	}{
		{"bad mark", intent.Mark("pie"), []intent.Clause{enc("A", intent.ChannelX, intent.TypeNominal)}, nil, "invalid mark"},
		{"no encodings", intent.MarkBar, nil, nil, "at least one encoding"},
		{"missing channel", intent.MarkBar, []intent.Clause{intent.Attr("A")}, nil, "has no channel"},
		{"duplicate channel", intent.MarkBar, []intent.Clause{
			enc("A", intent.ChannelX, intent.TypeNominal),
			enc("B", intent.ChannelX, intent.TypeNominal),
		}, nil, `assigned to both "A" and "B"`},
		{"wildcard encoding", intent.MarkBar, []intent.Clause{intent.AnyAttr().On(intent.ChannelX)}, nil, "concrete axis"},
		{"non-filter filter", intent.MarkBar, []intent.Clause{enc("A", intent.ChannelX, intent.TypeNominal)},
			[]intent.Clause{intent.Attr("B")}, "concrete filter"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.mark, tt.enc, tt.filters)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestFilterTitle(t *testing.T) {
	v, err := New(intent.MarkBar, []intent.Clause{
		intent.RecordClause().On(intent.ChannelX),
		enc("Cylinders", intent.ChannelY, intent.TypeNominal),
	}, []intent.Clause{
		intent.Filter("Origin", intent.String("USA")).On(intent.ChannelX),
		intent.Filter("Horsepower", intent.Number(100)).WithOp(intent.OpGt),
	})
	require.NoError(t, err)

	assert.Equal(t, "Origin = USA, Horsepower > 100", v.Title())
	for _, f := range v.Filters() {
		assert.Equal(t, intent.ChannelNone, f.Channel)
	}
	assert.Equal(t, intent.OpEq, v.Filters()[0].FilterOp)
}

func TestFingerprintIgnoresOrderAndSort(t *testing.T) {
	a, err := New(intent.MarkBar, []intent.Clause{
		intent.RecordClause().On(intent.ChannelX),
		enc("Brand", intent.ChannelY, intent.TypeNominal).Sorted(intent.SortAscending),
	}, nil)
	require.NoError(t, err)
	b, err := New(intent.MarkBar, []intent.Clause{
		enc("Brand", intent.ChannelY, intent.TypeNominal),
		intent.RecordClause().On(intent.ChannelX),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())

	c, err := New(intent.MarkLine, b.Encodings(), nil)
	require.NoError(t, err)
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint(), "mark participates")

	d, err := New(intent.MarkBar, b.Encodings(), []intent.Clause{intent.Filter("Origin", intent.String("USA"))})
	require.NoError(t, err)
	assert.NotEqual(t, a.Fingerprint(), d.Fingerprint(), "filters participate")
}

func TestIntentDropsRecord(t *testing.T) {
	v, err := New(intent.MarkHistogram, []intent.Clause{
		enc("Horsepower", intent.ChannelX, intent.TypeQuantitative),
		intent.RecordClause().On(intent.ChannelY),
	}, []intent.Clause{intent.Filter("Origin", intent.String("Japan"))})
	require.NoError(t, err)

	in := v.Intent()
	require.Len(t, in, 2)
	assert.Equal(t, "Horsepower", in[0].Name())
	assert.Equal(t, intent.ChannelX, in[0].Channel)
	assert.True(t, in[1].IsFilter())
	assert.Len(t, v.InferredIntent(), 3)
}

func TestAccessorsReturnCopies(t *testing.T) {
	v, err := New(intent.MarkBar, []intent.Clause{
		intent.RecordClause().On(intent.ChannelX),
		enc("Origin", intent.ChannelY, intent.TypeNominal),
	}, nil)
	require.NoError(t, err)

	got := v.Encodings()
	got[1].Attribute.Names[0] = "mutated"
	y, ok := v.Attr(intent.ChannelY)
	require.True(t, ok)
	assert.Equal(t, "Origin", y.Name())

	_, ok = v.Attr(intent.ChannelColor)
	assert.False(t, ok)
}

func TestMarshalJSON(t *testing.T) {
	v, err := New(intent.MarkBar, []intent.Clause{
		intent.RecordClause().On(intent.ChannelX),
		enc("Brand", intent.ChannelY, intent.TypeNominal).Sorted(intent.SortAscending),
	}, []intent.Clause{intent.Filter("Year", intent.Number(1970))})
	require.NoError(t, err)

	data, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"mark": "bar",
		"title": "Year = 1970",
		"encodings": [
			{"attribute": "Record", "channel": "x", "data_type": "quantitative", "data_model": "measure", "aggregation": "count"},
			{"attribute": "Brand", "channel": "y", "data_type": "nominal", "data_model": "dimension", "sort": "ascending"}
		],
		"filters": [
			{"attribute": "Year", "filter_op": "=", "value": 1970}
		]
	}`, string(data))
}

func TestString(t *testing.T) {
	v, err := New(intent.MarkBar, []intent.Clause{
		intent.RecordClause().On(intent.ChannelX),
		enc("Brand", intent.ChannelY, intent.TypeNominal).Sorted(intent.SortAscending),
	}, []intent.Clause{intent.Filter("Origin", intent.String("USA"))})
	require.NoError(t, err)
	assert.Equal(t, "bar{x=Record, y=Brand(ascending)} where Origin = USA", v.String())
}

func TestNewListDedups(t *testing.T) {
	a, err := New(intent.MarkBar, []intent.Clause{
		intent.RecordClause().On(intent.ChannelX),
		enc("Origin", intent.ChannelY, intent.TypeNominal),
	}, nil)
	require.NoError(t, err)
	b, err := New(intent.MarkBar, []intent.Clause{
		enc("Origin", intent.ChannelY, intent.TypeNominal).Sorted(intent.SortAscending),
		intent.RecordClause().On(intent.ChannelX),
	}, nil)
	require.NoError(t, err)
	c, err := New(intent.MarkHistogram, []intent.Clause{
		enc("Weight", intent.ChannelX, intent.TypeQuantitative),
		intent.RecordClause().On(intent.ChannelY),
	}, nil)
	require.NoError(t, err)

	in := intent.Intent{intent.AnyAttr()}
	l := NewList("build-1", in, []*Vis{a, nil, b, c})
	require.Equal(t, 2, l.Len())
	assert.Same(t, a, l.At(0))
	assert.Same(t, c, l.At(1))
	assert.Equal(t, []intent.Mark{intent.MarkBar, intent.MarkHistogram}, l.Marks())
	assert.Equal(t, "build-1", l.ID())

	var seen []int
	for i := range l.All() {
		seen = append(seen, i)
	}
	assert.Equal(t, []int{0, 1}, seen)

	in[0] = intent.Attr("changed")
	assert.True(t, l.Intent()[0].IsWildcard(), "list holds its own copy")
}

func TestEmptyListJSON(t *testing.T) {
	l := NewList("", nil, nil)
	data, err := json.Marshal(l)
	require.NoError(t, err)
	assert.JSONEq(t, `{"intent": [], "vis": []}`, string(data))
}
