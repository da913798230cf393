package merge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpaoloni/fundscan/internal/model"
)

var testPriority = []model.Source{
	model.SourceMorningstar,
	model.SourceJustETF,
	model.SourceInvesting,
}

func fixedClock() time.Time {
	return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func TestMergeSingleRecord(t *testing.T) {
	m := New(WithClock(fixedClock))

	records := []model.SourceRecord{{
		ISIN:     "IE00B4L5Y983",
		Name:     "iShares Core MSCI World",
		Source:   model.SourceJustETF,
		Type:     model.TypeETF,
		Currency: "EUR",
		Performance: model.Performance{
			Return1Y: model.Float(12.5),
			Return3Y: model.Float(31.2),
		},
	}}

	merged := m.Merge(records, testPriority)
	require.Len(t, merged, 1)

	inst := merged[0]
	assert.Equal(t, "IE00B4L5Y983", inst.ISIN)
	assert.Equal(t, "iShares Core MSCI World", inst.Name)
	assert.Equal(t, model.TypeETF, inst.Type)
	assert.Equal(t, []model.Source{model.SourceJustETF}, inst.Sources)
	assert.Equal(t, 12.5, *inst.Performance.Return1Y)
	assert.Equal(t, fixedClock(), inst.LastUpdated)
}

func TestMergePriorityPerField(t *testing.T) {
	m := New()

	// Higher-priority morningstar misses 3y; the justetf value must
	// fill the hole instead of being suppressed.
	records := []model.SourceRecord{
		{
			ISIN:   "IE00B4L5Y983",
			Name:   "justetf name",
			Source: model.SourceJustETF,
			Performance: model.Performance{
				Return1Y: model.Float(10.0),
				Return3Y: model.Float(30.0),
			},
		},
		{
			ISIN:   "IE00B4L5Y983",
			Name:   "morningstar name",
			Source: model.SourceMorningstar,
			Performance: model.Performance{
				Return1Y: model.Float(11.0),
			},
		},
	}

	merged := m.Merge(records, testPriority)
	require.Len(t, merged, 1)

	inst := merged[0]
	assert.Equal(t, "morningstar name", inst.Name, "name comes from the primary source verbatim")
	assert.Equal(t, 11.0, *inst.Performance.Return1Y, "higher-priority value wins")
	assert.Equal(t, 30.0, *inst.Performance.Return3Y, "lower-priority value fills the gap")
}

func TestMergeGroupsByNormalizedISIN(t *testing.T) {
	m := New()

	records := []model.SourceRecord{
		{ISIN: "IE00B4L5Y983", Source: model.SourceJustETF, Name: "a"},
		{ISIN: "  ie00b4l5y983 ", Source: model.SourceMorningstar, Name: "b"},
		{ISIN: "LU0690375182", Source: model.SourceInvesting, Name: "c"},
	}

	merged := m.Merge(records, testPriority)
	require.Len(t, merged, 2)

	// First-encounter order of distinct ISINs.
	assert.Equal(t, "IE00B4L5Y983", merged[0].ISIN)
	assert.Equal(t, "LU0690375182", merged[1].ISIN)
	assert.ElementsMatch(t, []model.Source{model.SourceJustETF, model.SourceMorningstar}, merged[0].Sources)
}

func TestMergeSkipsInvalidISIN(t *testing.T) {
	m := New()

	records := []model.SourceRecord{
		{ISIN: "NOT-AN-ISIN", Source: model.SourceJustETF},
		{ISIN: "IE00B4L5Y983", Source: model.SourceJustETF, Name: "ok"},
	}

	merged := m.Merge(records, testPriority)
	require.Len(t, merged, 1)
	assert.Equal(t, "IE00B4L5Y983", merged[0].ISIN)
}

func TestMergeEmptyInput(t *testing.T) {
	assert.Nil(t, New().Merge(nil, testPriority))
}

func TestMergeUnknownSourceRanksLast(t *testing.T) {
	m := New()

	records := []model.SourceRecord{
		{
			ISIN:        "IE00B4L5Y983",
			Name:        "mystery",
			Source:      model.Source("mystery_feed"),
			Performance: model.Performance{Return1Y: model.Float(99.0)},
		},
		{
			ISIN:        "IE00B4L5Y983",
			Name:        "investing",
			Source:      model.SourceInvesting,
			Performance: model.Performance{Return1Y: model.Float(8.0)},
		},
	}

	merged := m.Merge(records, testPriority)
	require.Len(t, merged, 1)
	assert.Equal(t, 8.0, *merged[0].Performance.Return1Y,
		"listed source outranks one absent from the priority list")
}

func TestMergeUnknownTypeDoesNotBlock(t *testing.T) {
	m := New()

	records := []model.SourceRecord{
		{ISIN: "IE00B4L5Y983", Source: model.SourceMorningstar, Type: model.TypeUnknown},
		{ISIN: "IE00B4L5Y983", Source: model.SourceJustETF, Type: model.TypeETF,
			Distribution: model.DistAccumulating},
	}

	merged := m.Merge(records, testPriority)
	require.Len(t, merged, 1)
	assert.Equal(t, model.TypeETF, merged[0].Type)
	assert.Equal(t, model.DistAccumulating, merged[0].Distribution)
}

func TestQualityScore(t *testing.T) {
	m := New()

	t.Run("full checklist caps at 100", func(t *testing.T) {
		inst := model.AggregatedInstrument{
			Performance: model.Performance{
				Return1Y:  model.Float(1),
				Return3Y:  model.Float(1),
				Return5Y:  model.Float(1),
				Return7Y:  model.Float(1),
				Return10Y: model.Float(1),
				YTD:       model.Float(1),
			},
			Volatility3Y:        model.Float(1),
			SharpeRatio3Y:       model.Float(1),
			CategoryMorningstar: model.String("Global Large-Cap Blend Equity"),
			Sources: []model.Source{
				model.SourceJustETF, model.SourceMorningstar,
				model.SourceInvesting, model.SourceUniverseUpload,
			},
		}
		assert.Equal(t, 100.0, m.qualityScore(&inst), "source bonus caps at 30")
	})

	t.Run("empty instrument gets only the source bonus", func(t *testing.T) {
		inst := model.AggregatedInstrument{Sources: []model.Source{model.SourceJustETF}}
		assert.Equal(t, 10.0, m.qualityScore(&inst))
	})

	t.Run("partial data scales linearly", func(t *testing.T) {
		inst := model.AggregatedInstrument{
			Performance: model.Performance{
				Return1Y: model.Float(1),
				Return3Y: model.Float(1),
				Return5Y: model.Float(1),
			},
			Sources: []model.Source{model.SourceJustETF, model.SourceMorningstar},
		}
		// 3 of 9 fields at weight 70, plus 2 sources at 10.
		assert.InDelta(t, 3.0/9.0*70+20, m.qualityScore(&inst), 1e-9)
	})
}

func TestMergeMoreSourcesNeverLowerScore(t *testing.T) {
	m := New()

	one := []model.SourceRecord{
		{ISIN: "IE00B4L5Y983", Source: model.SourceJustETF,
			Performance: model.Performance{Return1Y: model.Float(10)}},
	}
	two := append(one, model.SourceRecord{
		ISIN: "IE00B4L5Y983", Source: model.SourceMorningstar,
		Performance: model.Performance{Return3Y: model.Float(30)},
	})

	single := m.Merge(one, testPriority)
	double := m.Merge(two, testPriority)
	require.Len(t, single, 1)
	require.Len(t, double, 1)

	assert.GreaterOrEqual(t, double[0].QualityScore, single[0].QualityScore)
}
