package compiler

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/roach88/vizintent/internal/config"
	"github.com/roach88/vizintent/internal/intent"
	"github.com/roach88/vizintent/internal/metrics"
	"github.com/roach88/vizintent/internal/source"
	"github.com/roach88/vizintent/internal/source/sourcemock"
	"github.com/roach88/vizintent/internal/testutil"
	"github.com/roach88/vizintent/internal/vis"
)

func build(t *testing.T, c *Compiler, src source.Source, in intent.Intent) *vis.List {
	t.Helper()
	list, err := c.Build(context.Background(), in, src)
	require.NoError(t, err)
	return list
}

func titles(l *vis.List) []string {
	var out []string
	for _, v := range l.All() {
		out = append(out, v.Title())
	}
	return out
}

func TestBuild_EmptyIntent(t *testing.T) {
	backends(t, func(t *testing.T, src source.Source) {
		list := build(t, newCompiler(t), src, nil)
		assert.Equal(t, 0, list.Len())
		assert.Equal(t, "build-test", list.ID())
	})
}

func TestBuild_FilterOnlyIntent(t *testing.T) {
	backends(t, func(t *testing.T, src source.Source) {
		list := build(t, newCompiler(t), src, mustIntent(t, "origin=USA"))
		assert.Equal(t, 0, list.Len())
	})
}

func TestBuild_SingleVis(t *testing.T) {
	backends(t, func(t *testing.T, src source.Source) {
		list := build(t, newCompiler(t), src, mustIntent(t, "MilesPerGal", "Weight"))
		require.Equal(t, 1, list.Len())
		v := list.At(0)
		want := intent.MarkScatter
		if src.Kind() == source.KindSQL {
			want = intent.MarkHeatmap
		}
		assert.Equal(t, want, v.Mark())
		for _, e := range v.Encodings() {
			assert.Equal(t, intent.ModelMeasure, e.DataModel)
			assert.Equal(t, intent.TypeQuantitative, e.DataType)
		}
	})
}

func TestBuild_ValueWildcard(t *testing.T) {
	backends(t, func(t *testing.T, src source.Source) {
		list := build(t, newCompiler(t), src, mustIntent(t, "Origin=?", "MilesPerGal"))
		require.Equal(t, 3, list.Len())
		var got []string
		for _, title := range titles(list) {
			got = append(got, strings.ToLower(title))
		}
		assert.Equal(t, []string{"origin = europe", "origin = japan", "origin = usa"}, got)
		for _, v := range list.All() {
			assert.Equal(t, intent.MarkHistogram, v.Mark())
		}
	})
}

func TestBuild_SpecifiedCollection(t *testing.T) {
	backends(t, func(t *testing.T, src source.Source) {
		c := newCompiler(t)

		list := build(t, c, src, mustIntent(t, "Horsepower", "Brand", "Origin=Japan|USA"))
		assert.Equal(t, 2, list.Len())

		list = build(t, c, src, mustIntent(t, "Horsepower|Weight", "Brand", "Origin=Japan|USA"))
		require.Equal(t, 4, list.Len())
		got := titles(list)
		assert.Contains(t, strings.ToLower(strings.Join(got, ";")), "origin = usa")
		assert.Contains(t, strings.ToLower(strings.Join(got, ";")), "origin = japan")
		assert.NotContains(t, strings.ToLower(strings.Join(got, ";")), "europe")
	})
}

func TestBuild_ChannelEnforced(t *testing.T) {
	backends(t, func(t *testing.T, src source.Source) {
		in := intent.Intent{intent.AnyAttr(), intent.Attr("MilesPerGal").On(intent.ChannelX)}
		list := build(t, newCompiler(t), src, in)
		assert.Equal(t, 9, list.Len())
		for _, v := range list.All() {
			assert.Equal(t, "milespergal", onChannel(t, v, intent.ChannelX), "%s", v)
		}
	})
}

func TestBuild_TemporalAxisEnforced(t *testing.T) {
	backends(t, func(t *testing.T, src source.Source) {
		c := newCompiler(t)

		in := intent.Intent{intent.AttrOneOf("Horsepower", "Weight", "Acceleration"), intent.Attr("Year").On(intent.ChannelX)}
		list := build(t, c, src, in)
		require.Equal(t, 3, list.Len())
		for _, v := range list.All() {
			assert.Equal(t, intent.MarkLine, v.Mark())
			assert.Equal(t, "year", onChannel(t, v, intent.ChannelX))
		}

		list = build(t, c, src, intent.Intent{intent.AnyAttr(), intent.Attr("Year").On(intent.ChannelX)})
		assert.Equal(t, 9, list.Len())
		for _, v := range list.All() {
			assert.Equal(t, "year", onChannel(t, v, intent.ChannelX))
		}
	})
}

func TestBuild_MeasurePairs(t *testing.T) {
	in := intent.Intent{
		intent.AnyAttr().Model(intent.ModelMeasure),
		intent.AnyAttr().Model(intent.ModelMeasure),
	}
	list := build(t, newCompiler(t), testutil.Cars(t), in)
	// 5x5 options minus the 5 that repeat an attribute.
	assert.Equal(t, 20, list.Len())
}

func TestBuild_RemovesInvalid(t *testing.T) {
	backends(t, func(t *testing.T, src source.Source) {
		list := build(t, newCompiler(t), src, mustIntent(t, "Origin=USA", "Origin"))
		assert.Equal(t, 0, list.Len())
	})
}

func TestBuild_AbsentFilterValueOnlyDropsItsOption(t *testing.T) {
	backends(t, func(t *testing.T, src source.Source) {
		list := build(t, newCompiler(t), src, mustIntent(t, "Origin=USA|Atlantis|Japan", "Horsepower"))
		require.Equal(t, 2, list.Len())
		got := strings.ToLower(strings.Join(titles(list), ";"))
		assert.Equal(t, "origin = usa;origin = japan", got)
	})
}

func TestBuild_DuplicateChannelFailsBeforeAnyVis(t *testing.T) {
	backends(t, func(t *testing.T, src source.Source) {
		in := intent.Intent{
			intent.Attr("Year").On(intent.ChannelX),
			intent.Attr("Acceleration").On(intent.ChannelX),
		}
		list, err := newCompiler(t).Build(context.Background(), in, src)
		assert.Nil(t, list)
		assert.True(t, IsDuplicateChannel(err))
	})
}

func TestBuild_UnknownAttribute(t *testing.T) {
	list, err := newCompiler(t).Build(context.Background(), mustIntent(t, "?", "Colour"), testutil.Cars(t))
	assert.Nil(t, list)
	assert.True(t, IsUnknownAttribute(err))
}

func TestBuild_OrderIndependentOfParallelism(t *testing.T) {
	backends(t, func(t *testing.T, src source.Source) {
		in := mustIntent(t, "?", "?")
		var want []string
		for _, p := range []int{1, 3, 16} {
			cfg := config.Default()
			cfg.Parallelism = p
			c, err := New(cfg)
			require.NoError(t, err)

			list := build(t, c, src, in)
			var got []string
			for _, v := range list.All() {
				got = append(got, v.Fingerprint())
			}
			if want == nil {
				want = got
				continue
			}
			assert.Equal(t, want, got, "parallelism %d", p)
		}
	})
}

func TestBuild_Deduplicates(t *testing.T) {
	list := build(t, newCompiler(t), testutil.Cars(t), mustIntent(t, "Origin|Brand", "Brand|Origin"))
	// (Origin, Brand) and (Brand, Origin) both color by Origin.
	require.Equal(t, 1, list.Len())
	v := list.At(0)
	assert.Equal(t, "origin", onChannel(t, v, intent.ChannelColor))
	assert.Equal(t, "brand", onChannel(t, v, intent.ChannelY))
}

func TestBuild_SourceErrorPropagates(t *testing.T) {
	ctrl := gomock.NewController(t)
	src := sourcemock.NewMockSource(ctrl)
	boom := errors.New("connection reset")
	src.EXPECT().Name().Return("remote").AnyTimes()
	src.EXPECT().Kind().Return(source.KindSQL).AnyTimes()
	src.EXPECT().Columns(gomock.Any()).Return([]string{"origin", "weight"}, nil)
	src.EXPECT().DistinctValues(gomock.Any(), "origin").Return(nil, boom)

	_, err := newCompiler(t).Build(context.Background(), mustIntent(t, "origin=?", "weight"), src)
	assert.ErrorIs(t, err, boom)
}

func TestBuild_Cancelled(t *testing.T) {
	ctrl := gomock.NewController(t)
	src := sourcemock.NewMockSource(ctrl)
	src.EXPECT().Name().Return("remote").AnyTimes()
	src.EXPECT().Columns(gomock.Any()).DoAndReturn(func(ctx context.Context) ([]string, error) {
		return nil, ctx.Err()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newCompiler(t).Build(ctx, mustIntent(t, "origin"), src)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuild_LogsAndMetrics(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	reg := prometheus.NewRegistry()
	m := metrics.NewBuild(reg)
	c := newCompiler(t, WithLogger(zap.New(core)), WithMetrics(m))

	list := build(t, c, testutil.Cars(t), mustIntent(t, "Origin=USA|Atlantis", "Horsepower"))
	require.Equal(t, 1, list.Len())

	skipped := logs.FilterMessage("option skipped").All()
	require.Len(t, skipped, 1)
	assert.Equal(t, string(SkipFilterNoMatch), skipped[0].ContextMap()["reason"])
	assert.Equal(t, "build-test", skipped[0].ContextMap()["build_id"])

	finished := logs.FilterMessage("build finished").All()
	require.Len(t, finished, 1)
	assert.EqualValues(t, 2, finished[0].ContextMap()["options"])
	assert.EqualValues(t, 1, finished[0].ContextMap()["vis"])

	assert.Equal(t, 1.0, promtest.ToFloat64(m.Builds.WithLabelValues(metrics.OutcomeOK)))
	assert.Equal(t, 2.0, promtest.ToFloat64(m.Options))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.Vis))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.Skipped.WithLabelValues(string(SkipFilterNoMatch))))

	_, err := c.Build(context.Background(), mustIntent(t, "Nope"), testutil.Cars(t))
	require.Error(t, err)
	assert.Equal(t, 1.0, promtest.ToFloat64(m.Builds.WithLabelValues(metrics.OutcomeInvalid)))
	assert.Equal(t, 1, logs.FilterMessage("build failed").Len())
}
