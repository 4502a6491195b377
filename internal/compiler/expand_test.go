package compiler

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/vizintent/internal/config"
	"github.com/roach88/vizintent/internal/intent"
	"github.com/roach88/vizintent/internal/source"
	"github.com/roach88/vizintent/internal/testutil"
)

func expand(t *testing.T, c *Compiler, src source.Source, in intent.Intent) []intent.Intent {
	t.Helper()
	ctx := context.Background()
	normalized, err := c.Validate(ctx, in, src)
	require.NoError(t, err)
	options, err := c.Expand(ctx, normalized, src)
	require.NoError(t, err)
	return options
}

func optionStrings(options []intent.Intent) []string {
	out := make([]string, len(options))
	for i, o := range options {
		out[i] = o.String()
	}
	return out
}

func TestExpand_NoWildcardsYieldsInput(t *testing.T) {
	backends(t, func(t *testing.T, src source.Source) {
		c := newCompiler(t)
		for _, in := range []intent.Intent{
			mustIntent(t, "horsepower"),
			mustIntent(t, "horsepower", "weight", "origin=USA"),
			{intent.Attr("year").On(intent.ChannelY), intent.Attr("acceleration")},
		} {
			ctx := context.Background()
			normalized, err := c.Validate(ctx, in, src)
			require.NoError(t, err)
			options, err := c.Expand(ctx, normalized, src)
			require.NoError(t, err)
			require.Len(t, options, 1)
			assert.Equal(t, normalized.Fingerprint(), options[0].Fingerprint())
		}
	})
}

func TestExpand_AttributeWildcardCountsFreeColumns(t *testing.T) {
	backends(t, func(t *testing.T, src source.Source) {
		c := newCompiler(t)
		assert.Len(t, expand(t, c, src, mustIntent(t, "?")), 10)
		assert.Len(t, expand(t, c, src, mustIntent(t, "?", "MilesPerGal")), 9)
		assert.Len(t, expand(t, c, src, mustIntent(t, "?", "MilesPerGal", "Origin=USA")), 8)
	})
}

func TestExpand_SchemaOrder(t *testing.T) {
	got := expand(t, newCompiler(t), testutil.Cars(t), mustIntent(t, "?", "MilesPerGal"))
	var first []string
	for _, o := range got {
		first = append(first, o[0].Name())
		assert.Equal(t, "MilesPerGal", o[1].Name(), "fixed clause keeps its position")
	}
	assert.Equal(t, []string{
		"Name", "Cylinders", "Displacement", "Horsepower", "Weight",
		"Acceleration", "Year", "Origin", "Brand",
	}, first)
}

func TestExpand_TypeAndModelFilters(t *testing.T) {
	backends(t, func(t *testing.T, src source.Source) {
		c := newCompiler(t)

		measures := expand(t, c, src, intent.Intent{intent.AnyAttr().Model(intent.ModelMeasure)})
		var names []string
		for _, o := range measures {
			names = append(names, strings.ToLower(o[0].Name()))
		}
		assert.Equal(t, []string{"milespergal", "displacement", "horsepower", "weight", "acceleration"}, names)

		temporal := expand(t, c, src, intent.Intent{intent.AnyAttr().As(intent.TypeTemporal)})
		require.Len(t, temporal, 1)
		assert.Equal(t, "year", strings.ToLower(temporal[0][0].Name()))
	})
}

func TestExpand_Exclude(t *testing.T) {
	got := expand(t, newCompiler(t), testutil.Cars(t), intent.Intent{
		intent.AnyAttr().Model(intent.ModelDimension).Excluding("name", "Brand"),
	})
	assert.Equal(t, []string{"[Cylinders]", "[Year]", "[Origin]"}, optionStrings(got))
	for _, o := range got {
		assert.Empty(t, o[0].Exclude)
	}
}

func TestExpand_ValueWildcard(t *testing.T) {
	backends(t, func(t *testing.T, src source.Source) {
		got := expand(t, newCompiler(t), src, mustIntent(t, "Origin=?", "MilesPerGal"))
		require.Len(t, got, 3)
		var vals []string
		for _, o := range got {
			vals = append(vals, o[0].Single().Canonical())
			assert.Equal(t, intent.ValueLiteral, o[0].Value.Kind)
		}
		assert.Equal(t, []string{"Europe", "Japan", "USA"}, vals)
	})
}

func TestExpand_MaxWildcardValues(t *testing.T) {
	cfg := config.Default()
	cfg.MaxWildcardValues = 2
	c, err := New(cfg)
	require.NoError(t, err)

	got := expand(t, c, testutil.Cars(t), mustIntent(t, "Brand=?"))
	assert.Equal(t, []string{"[Brand=amc]", "[Brand=chevrolet]"}, optionStrings(got))
}

func TestExpand_CartesianOrder(t *testing.T) {
	got := expand(t, newCompiler(t), testutil.Cars(t),
		mustIntent(t, "Horsepower|Weight", "Brand", "Origin=Japan|USA"))
	assert.Equal(t, []string{
		"[Horsepower, Brand, Origin=Japan]",
		"[Horsepower, Brand, Origin=USA]",
		"[Weight, Brand, Origin=Japan]",
		"[Weight, Brand, Origin=USA]",
	}, optionStrings(got))
}

func TestExpand_Deduplicates(t *testing.T) {
	got := expand(t, newCompiler(t), testutil.Cars(t), mustIntent(t, "Origin=USA|USA"))
	assert.Equal(t, []string{"[Origin=USA]"}, optionStrings(got))
}

func TestExpand_EmptyCandidateSet(t *testing.T) {
	got := expand(t, newCompiler(t), testutil.Cars(t), intent.Intent{
		intent.AnyAttr().As(intent.TypeID),
	})
	assert.Empty(t, got)
}

func TestWildcardOptions(t *testing.T) {
	backends(t, func(t *testing.T, src source.Source) {
		c := newCompiler(t)
		ctx := context.Background()

		sets, err := c.WildcardOptions(ctx, mustIntent(t, "?", "MilesPerGal"), src)
		require.NoError(t, err)
		require.Len(t, sets, 1)
		assert.Equal(t, 0, sets[0].Index)
		assert.Len(t, sets[0].Candidates, 10, "raw candidates include fixed attributes")

		sets, err = c.WildcardOptions(ctx, intent.Intent{
			intent.AnyAttr().Model(intent.ModelMeasure),
			intent.Attr("MilesPerGal"),
		}, src)
		require.NoError(t, err)
		var names []string
		for _, cand := range sets[0].Candidates {
			names = append(names, strings.ToLower(cand.Name()))
		}
		assert.ElementsMatch(t, []string{"acceleration", "weight", "horsepower", "milespergal", "displacement"}, names)
	})
}

func TestWildcardOptions_PerClause(t *testing.T) {
	sets, err := newCompiler(t).WildcardOptions(context.Background(),
		mustIntent(t, "Horsepower", "Origin=?", "Cylinders|Brand"), testutil.Cars(t))
	require.NoError(t, err)
	require.Len(t, sets, 2)
	assert.Equal(t, 1, sets[0].Index)
	assert.Len(t, sets[0].Candidates, 3)
	assert.Equal(t, 2, sets[1].Index)
	assert.Len(t, sets[1].Candidates, 2)
	assert.Equal(t, "Origin=?", sets[0].Clause.String())
}

func TestWildcardOptions_Invalid(t *testing.T) {
	_, err := newCompiler(t).WildcardOptions(context.Background(), mustIntent(t, "?", "Nope"), testutil.Cars(t))
	assert.True(t, IsUnknownAttribute(err))
}
