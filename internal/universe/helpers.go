package universe

import (
	"sort"

	"github.com/dpaoloni/fundscan/internal/model"
)

// UniqueISINs returns the distinct ISINs in first-appearance order.
func UniqueISINs(instruments []model.UniverseInstrument) []string {
	seen := make(map[string]bool, len(instruments))
	var isins []string
	for i := range instruments {
		if !seen[instruments[i].ISIN] {
			seen[instruments[i].ISIN] = true
			isins = append(isins, instruments[i].ISIN)
		}
	}
	return isins
}

// FilterByPerformance keeps instruments whose fractional return at
// the given horizon is present and at least min.
func FilterByPerformance(instruments []model.UniverseInstrument, min float64, period model.Period) []model.UniverseInstrument {
	var out []model.UniverseInstrument
	for i := range instruments {
		perf := instruments[i].PerformanceByPeriod(period)
		if perf != nil && *perf >= min {
			out = append(out, instruments[i])
		}
	}
	return out
}

// RankByPerformance orders instruments by their return at the given
// horizon, best first. Instruments with no data for the horizon trail
// the ranked ones in original order.
func RankByPerformance(instruments []model.UniverseInstrument, period model.Period) []model.UniverseInstrument {
	var ranked, noData []model.UniverseInstrument
	for i := range instruments {
		if instruments[i].PerformanceByPeriod(period) != nil {
			ranked = append(ranked, instruments[i])
		} else {
			noData = append(noData, instruments[i])
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return *ranked[i].PerformanceByPeriod(period) > *ranked[j].PerformanceByPeriod(period)
	})

	return append(ranked, noData...)
}

// GroupByCategory buckets instruments by Morningstar category; those
// without one land under the empty key.
func GroupByCategory(instruments []model.UniverseInstrument) map[string][]model.UniverseInstrument {
	groups := make(map[string][]model.UniverseInstrument)
	for i := range instruments {
		key := ""
		if instruments[i].CategoryMorningstar != nil {
			key = *instruments[i].CategoryMorningstar
		}
		groups[key] = append(groups[key], instruments[i])
	}
	return groups
}
