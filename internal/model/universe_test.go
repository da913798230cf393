package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToAggregated(t *testing.T) {
	u := UniverseInstrument{
		ISIN:                "LU0690375182",
		Name:                String("My Fund"),
		CategoryMorningstar: String("Azionari Globali Large Cap Blend"),
		Perf1Y:              Float(0.0825),
		Perf3Y:              Float(0.25),
	}

	agg := u.ToAggregated()

	assert.Equal(t, "LU0690375182", agg.ISIN)
	assert.Equal(t, "My Fund", agg.Name)
	assert.Equal(t, TypeFund, agg.Type)
	assert.Equal(t, []Source{SourceUniverseUpload}, agg.Sources)
	assert.Equal(t, 100.0, agg.QualityScore)

	require.NotNil(t, agg.Performance.Return1Y)
	assert.InDelta(t, 8.25, *agg.Performance.Return1Y, 1e-9, "fractions become percentages")
	assert.InDelta(t, 25.0, *agg.Performance.Return3Y, 1e-9)
	assert.Nil(t, agg.Performance.Return5Y, "missing fields stay nil")
}

func TestToAggregatedNameFallsBackToISIN(t *testing.T) {
	u := UniverseInstrument{ISIN: "LU0690375182"}
	assert.Equal(t, "LU0690375182", u.ToAggregated().Name)
}

func TestUniverseLoadResultSuccess(t *testing.T) {
	assert.False(t, (&UniverseLoadResult{}).Success())
	assert.False(t, (&UniverseLoadResult{ValidCount: 1, Errors: []string{"bad"}}).Success())
	assert.True(t, (&UniverseLoadResult{ValidCount: 1}).Success())
}
