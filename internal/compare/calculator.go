// Package compare computes performance deltas between a benchmark
// instrument and candidate instruments across time horizons, and
// orchestrates the two comparison pipelines (universe vs market ETF,
// explicit ETF vs universe).
package compare

import (
	"math"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/dpaoloni/fundscan/internal/model"
)

// DeltaPrecision is the number of decimal digits deltas are rounded
// to, applied consistently across single- and multi-period paths.
const DeltaPrecision = 2

// RoundDelta rounds a delta to DeltaPrecision decimals.
func RoundDelta(v float64) float64 {
	shift := math.Pow(10, DeltaPrecision)
	return math.Round(v*shift) / shift
}

// Result is the outcome of comparing one candidate against the
// benchmark at a single horizon. Delta is nil when either side's
// performance is missing; it is never coerced to zero.
type Result struct {
	Instrument           model.AggregatedInstrument
	BenchmarkPerformance *float64
	Performance          *float64
	Delta                *float64
	Outcome              model.Outcome
}

// Report aggregates the single-horizon comparison of many candidates
// against one benchmark.
type Report struct {
	Benchmark model.AggregatedInstrument
	Period    model.Period
	Results   []Result
}

// OutperformerCount is the number of candidates beating the benchmark.
func (rep *Report) OutperformerCount() int {
	return rep.countOutcome(model.OutcomeBeats)
}

// NotBeatingCount is the number of candidates with a determinate
// outcome that do not beat the benchmark.
func (rep *Report) NotBeatingCount() int {
	return rep.countOutcome(model.OutcomeDoesNotBeat)
}

// IndeterminateCount is the number of candidates with missing data.
func (rep *Report) IndeterminateCount() int {
	return rep.countOutcome(model.OutcomeIndeterminate)
}

func (rep *Report) countOutcome(want model.Outcome) int {
	n := 0
	for i := range rep.Results {
		if rep.Results[i].Outcome == want {
			n++
		}
	}
	return n
}

// AvgDelta is the mean over non-nil deltas, or nil when none exist.
func (rep *Report) AvgDelta() *float64 {
	sum := 0.0
	n := 0
	for i := range rep.Results {
		if d := rep.Results[i].Delta; d != nil {
			sum += *d
			n++
		}
	}
	if n == 0 {
		return nil
	}
	avg := sum / float64(n)
	return &avg
}

// BestPerformer returns the result with the highest delta, or nil
// when no delta is computable.
func (rep *Report) BestPerformer() *Result {
	var best *Result
	for i := range rep.Results {
		r := &rep.Results[i]
		if r.Delta == nil {
			continue
		}
		if best == nil || *r.Delta > *best.Delta {
			best = r
		}
	}
	return best
}

// WorstPerformer returns the result with the lowest delta, or nil.
func (rep *Report) WorstPerformer() *Result {
	var worst *Result
	for i := range rep.Results {
		r := &rep.Results[i]
		if r.Delta == nil {
			continue
		}
		if worst == nil || *r.Delta < *worst.Delta {
			worst = r
		}
	}
	return worst
}

// BeatPercentage is outperformers over candidates with a determinate
// outcome, as a percentage. Zero denominator yields 0, not NaN.
func (rep *Report) BeatPercentage() float64 {
	withData := rep.OutperformerCount() + rep.NotBeatingCount()
	if withData == 0 {
		return 0
	}
	return float64(rep.OutperformerCount()) / float64(withData) * 100
}

// SortedResults orders results by delta, descending by default. Ties
// keep input order, and nil-delta results always trail the rest in
// their original relative order, regardless of direction.
func (rep *Report) SortedResults(ascending bool) []Result {
	withDelta := make([]Result, 0, len(rep.Results))
	withoutDelta := make([]Result, 0)

	for _, r := range rep.Results {
		if r.Delta != nil {
			withDelta = append(withDelta, r)
		} else {
			withoutDelta = append(withoutDelta, r)
		}
	}

	sort.SliceStable(withDelta, func(i, j int) bool {
		if ascending {
			return *withDelta[i].Delta < *withDelta[j].Delta
		}
		return *withDelta[i].Delta > *withDelta[j].Delta
	})

	return append(withDelta, withoutDelta...)
}

// Compare measures each candidate against the benchmark at one
// horizon. Candidates sharing the benchmark's ISIN are excluded (the
// benchmark is not compared against itself); candidates keep input
// order in the report.
func Compare(candidates []model.AggregatedInstrument, benchmark model.AggregatedInstrument, period model.Period) *Report {
	rep := &Report{
		Benchmark: benchmark,
		Period:    period,
	}

	benchPerf := benchmark.PerformanceByPeriod(period)

	for _, cand := range candidates {
		if cand.ISIN == benchmark.ISIN {
			continue
		}

		candPerf := cand.PerformanceByPeriod(period)

		result := Result{
			Instrument:           cand,
			BenchmarkPerformance: benchPerf,
			Performance:          candPerf,
			Outcome:              model.OutcomeIndeterminate,
		}

		if benchPerf != nil && candPerf != nil {
			delta := RoundDelta(*candPerf - *benchPerf)
			result.Delta = &delta
			if delta > 0 {
				result.Outcome = model.OutcomeBeats
			} else {
				result.Outcome = model.OutcomeDoesNotBeat
			}
		}

		rep.Results = append(rep.Results, result)
	}

	log.Info().
		Str("benchmark", benchmark.ISIN).
		Str("period", string(period)).
		Int("beating", rep.OutperformerCount()).
		Int("not_beating", rep.NotBeatingCount()).
		Int("no_data", rep.IndeterminateCount()).
		Msg("comparison completed")

	return rep
}
