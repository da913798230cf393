package model

import "time"

// Origin tags where a comparison entry came from.
type Origin string

const (
	OriginUniverse Origin = "universe"
	OriginMarket   Origin = "market"
)

// ComparisonType names the direction of a comparison run.
type ComparisonType string

const (
	CompareUniverseVsETF ComparisonType = "universe_vs_etf"
	CompareETFVsUniverse ComparisonType = "etf_vs_universe"
)

// Outcome is the tri-state result of comparing one instrument against
// the benchmark at one horizon.
type Outcome int

const (
	// OutcomeIndeterminate means either side's performance was
	// missing; the delta is nil and the entry is excluded from
	// averages.
	OutcomeIndeterminate Outcome = iota
	OutcomeBeats
	OutcomeDoesNotBeat
)

func (o Outcome) String() string {
	switch o {
	case OutcomeBeats:
		return "BEATS"
	case OutcomeDoesNotBeat:
		return "DOES NOT BEAT"
	default:
		return "N/A"
	}
}

// ComparisonResult pairs one instrument with a benchmark, carrying
// the per-period performance deltas (instrument minus benchmark).
// A nil delta means one of the two operands was missing for that
// horizon; deltas are never defaulted to zero.
type ComparisonResult struct {
	Instrument    AggregatedInstrument
	Origin        Origin
	BenchmarkISIN string

	Deltas map[Period]*float64
}

// DeltaByPeriod returns the delta for the given horizon, or nil.
func (r *ComparisonResult) DeltaByPeriod(period Period) *float64 {
	if r.Deltas == nil {
		return nil
	}
	return r.Deltas[period]
}

// OutcomeAt classifies the result at the given horizon.
func (r *ComparisonResult) OutcomeAt(period Period) Outcome {
	delta := r.DeltaByPeriod(period)
	if delta == nil {
		return OutcomeIndeterminate
	}
	if *delta > 0 {
		return OutcomeBeats
	}
	return OutcomeDoesNotBeat
}

// ComparisonReport is the aggregate over many ComparisonResults for
// one benchmark. It is built once per comparison run and read-only
// afterwards.
type ComparisonReport struct {
	ID          string
	Type        ComparisonType
	Category    string
	Taxonomy    Taxonomy
	Benchmark   *AggregatedInstrument
	Periods     []Period
	GeneratedAt time.Time

	Results []ComparisonResult

	// Statistics, computed at ReferencePeriod.
	TotalInstruments    int
	UniverseCount       int
	MarketCount         int
	OutperformerCount   int
	UnderperformerCount int
	IndeterminateCount  int
	AvgDelta            map[Period]float64
	BestPerformer       *ComparisonResult
	WorstPerformer      *ComparisonResult
}

// BeatPercentage is the share of universe entries beating the
// benchmark at the reference horizon, over those with a determinate
// outcome. It is 0, not NaN, when no outcome is determinate.
func (rep *ComparisonReport) BeatPercentage() float64 {
	withData := rep.OutperformerCount + rep.UnderperformerCount
	if withData == 0 {
		return 0
	}
	return float64(rep.OutperformerCount) / float64(withData) * 100
}

// ComputeStatistics fills the aggregate fields from Results. Only
// universe-origin entries participate in outperformance counts and
// averages; the benchmark's own market-origin row carries no deltas.
func (rep *ComparisonReport) ComputeStatistics() {
	rep.TotalInstruments = len(rep.Results)
	rep.UniverseCount = 0
	rep.MarketCount = 0
	rep.OutperformerCount = 0
	rep.UnderperformerCount = 0
	rep.IndeterminateCount = 0
	rep.AvgDelta = make(map[Period]float64)
	rep.BestPerformer = nil
	rep.WorstPerformer = nil

	for i := range rep.Results {
		switch rep.Results[i].Origin {
		case OriginUniverse:
			rep.UniverseCount++
		case OriginMarket:
			rep.MarketCount++
		}
	}

	sums := make(map[Period]float64)
	counts := make(map[Period]int)

	for i := range rep.Results {
		r := &rep.Results[i]
		if r.Origin != OriginUniverse {
			continue
		}

		switch r.OutcomeAt(ReferencePeriod) {
		case OutcomeBeats:
			rep.OutperformerCount++
		case OutcomeDoesNotBeat:
			rep.UnderperformerCount++
		default:
			rep.IndeterminateCount++
		}

		for _, period := range AllPeriods {
			if d := r.DeltaByPeriod(period); d != nil {
				sums[period] += *d
				counts[period]++
			}
		}

		refDelta := r.DeltaByPeriod(ReferencePeriod)
		if refDelta == nil {
			continue
		}
		if rep.BestPerformer == nil || *refDelta > *rep.BestPerformer.DeltaByPeriod(ReferencePeriod) {
			rep.BestPerformer = r
		}
		if rep.WorstPerformer == nil || *refDelta < *rep.WorstPerformer.DeltaByPeriod(ReferencePeriod) {
			rep.WorstPerformer = r
		}
	}

	// Average only over the non-nil deltas; a horizon with no data
	// simply has no entry.
	for period, n := range counts {
		rep.AvgDelta[period] = sums[period] / float64(n)
	}
}
