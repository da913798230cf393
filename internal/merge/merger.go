// Package merge aggregates and deduplicates per-source records by
// ISIN, resolving field conflicts through a source priority ordering.
package merge

import (
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dpaoloni/fundscan/internal/isin"
	"github.com/dpaoloni/fundscan/internal/model"
)

// UnknownSourceRank is the rank assigned to sources absent from the
// priority list; they sort after every known source.
const UnknownSourceRank = math.MaxInt32

// QualityWeights parameterizes the data-quality score. The exact
// numbers are heuristics, not invariants: more complete data and more
// corroborating sources must only ever raise the score.
type QualityWeights struct {
	// CompletenessWeight scales the filled-field ratio (default 70).
	CompletenessWeight float64
	// PerSourceBonus is added once per contributing source (default 10).
	PerSourceBonus float64
	// MaxSourceBonus caps the source bonus (default 30).
	MaxSourceBonus float64
}

// DefaultQualityWeights returns the standard weighting.
func DefaultQualityWeights() QualityWeights {
	return QualityWeights{
		CompletenessWeight: 70,
		PerSourceBonus:     10,
		MaxSourceBonus:     30,
	}
}

// Merger combines raw source records into one aggregated instrument
// per ISIN. The zero value is not usable; construct with New.
type Merger struct {
	weights QualityWeights
	now     func() time.Time
}

// Option configures a Merger.
type Option func(*Merger)

// WithQualityWeights overrides the quality score weighting.
func WithQualityWeights(w QualityWeights) Option {
	return func(m *Merger) { m.weights = w }
}

// WithClock overrides the timestamp source, for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Merger) { m.now = now }
}

// New returns a Merger with default quality weights.
func New(opts ...Option) *Merger {
	m := &Merger{
		weights: DefaultQualityWeights(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Merge groups records by normalized ISIN and collapses each group
// into a single AggregatedInstrument. Records with a malformed ISIN
// are logged and skipped; they never fail the batch. The output holds
// exactly one instrument per distinct valid ISIN, in first-encounter
// order.
func (m *Merger) Merge(records []model.SourceRecord, priority []model.Source) []model.AggregatedInstrument {
	if len(records) == 0 {
		return nil
	}

	groups := make(map[string][]model.SourceRecord)
	var order []string

	for _, rec := range records {
		code := isin.Normalize(rec.ISIN)
		if !isin.Valid(code) {
			log.Warn().Str("isin", rec.ISIN).Str("source", string(rec.Source)).
				Msg("invalid ISIN skipped")
			continue
		}
		if _, seen := groups[code]; !seen {
			order = append(order, code)
		}
		groups[code] = append(groups[code], rec)
	}

	ranks := priorityRanks(priority)

	merged := make([]model.AggregatedInstrument, 0, len(order))
	for _, code := range order {
		inst, ok := m.mergeGroup(code, groups[code], ranks)
		if ok {
			merged = append(merged, inst)
		}
	}

	log.Info().Int("records", len(records)).Int("instruments", len(merged)).
		Msg("merge completed")

	return merged
}

// priorityRanks builds the total order used for conflict resolution.
func priorityRanks(priority []model.Source) map[model.Source]int {
	ranks := make(map[model.Source]int, len(priority))
	for i, src := range priority {
		if _, dup := ranks[src]; !dup {
			ranks[src] = i
		}
	}
	return ranks
}

func rankOf(ranks map[model.Source]int, src model.Source) int {
	if r, ok := ranks[src]; ok {
		return r
	}
	return UnknownSourceRank
}

// mergeGroup collapses one ISIN group. A panic inside the group (a
// malformed record) is recovered and logged; the group is skipped and
// the batch continues.
func (m *Merger) mergeGroup(code string, group []model.SourceRecord, ranks map[model.Source]int) (inst model.AggregatedInstrument, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("isin", code).Interface("panic", r).
				Msg("failed to merge group")
			ok = false
		}
	}()

	// Stable sort keeps encounter order among records from the same
	// source.
	sorted := make([]model.SourceRecord, len(group))
	copy(sorted, group)
	sort.SliceStable(sorted, func(i, j int) bool {
		return rankOf(ranks, sorted[i].Source) < rankOf(ranks, sorted[j].Source)
	})

	primary := sorted[0]

	inst = model.AggregatedInstrument{
		ISIN:     code,
		Name:     primary.Name,
		Currency: primary.Currency,

		Type:         firstKnownType(sorted),
		Distribution: firstKnownDistribution(sorted),

		Domicile:             firstString(sorted, func(r *model.SourceRecord) *string { return r.Domicile }),
		CategoryMorningstar:  firstString(sorted, func(r *model.SourceRecord) *string { return r.CategoryMorningstar }),
		CategoryAssogestioni: firstString(sorted, func(r *model.SourceRecord) *string { return r.CategoryAssogestioni }),

		Volatility1Y:  firstFloat(sorted, func(r *model.SourceRecord) *float64 { return r.Risk.Volatility1Y }),
		Volatility3Y:  firstFloat(sorted, func(r *model.SourceRecord) *float64 { return r.Risk.Volatility3Y }),
		SharpeRatio3Y: firstFloat(sorted, func(r *model.SourceRecord) *float64 { return r.Risk.SharpeRatio3Y }),

		Sources:     contributingSources(group),
		LastUpdated: m.now(),
	}

	inst.Performance = mergePerformance(sorted)
	inst.QualityScore = m.qualityScore(&inst)

	return inst, true
}

// mergePerformance resolves each horizon independently: the first
// non-nil value in priority order wins, so a higher-priority source's
// missing field never suppresses a lower-priority source's value.
func mergePerformance(sorted []model.SourceRecord) model.Performance {
	var perf model.Performance
	perf.Return1M = firstFloat(sorted, func(r *model.SourceRecord) *float64 { return r.Performance.Return1M })
	perf.Return3M = firstFloat(sorted, func(r *model.SourceRecord) *float64 { return r.Performance.Return3M })
	perf.Return6M = firstFloat(sorted, func(r *model.SourceRecord) *float64 { return r.Performance.Return6M })
	perf.YTD = firstFloat(sorted, func(r *model.SourceRecord) *float64 { return r.Performance.YTD })
	perf.Return1Y = firstFloat(sorted, func(r *model.SourceRecord) *float64 { return r.Performance.Return1Y })
	perf.Return3Y = firstFloat(sorted, func(r *model.SourceRecord) *float64 { return r.Performance.Return3Y })
	perf.Return5Y = firstFloat(sorted, func(r *model.SourceRecord) *float64 { return r.Performance.Return5Y })
	perf.Return7Y = firstFloat(sorted, func(r *model.SourceRecord) *float64 { return r.Performance.Return7Y })
	perf.Return9Y = firstFloat(sorted, func(r *model.SourceRecord) *float64 { return r.Performance.Return9Y })
	perf.Return10Y = firstFloat(sorted, func(r *model.SourceRecord) *float64 { return r.Performance.Return10Y })
	return perf
}

func firstFloat(sorted []model.SourceRecord, get func(*model.SourceRecord) *float64) *float64 {
	for i := range sorted {
		if v := get(&sorted[i]); v != nil {
			return v
		}
	}
	return nil
}

func firstString(sorted []model.SourceRecord, get func(*model.SourceRecord) *string) *string {
	for i := range sorted {
		if v := get(&sorted[i]); v != nil && *v != "" {
			return v
		}
	}
	return nil
}

// firstKnownType scans in priority order; an explicit Unknown does
// not block a later, more specific value.
func firstKnownType(sorted []model.SourceRecord) model.InstrumentType {
	for i := range sorted {
		if t := sorted[i].Type; t != "" && t != model.TypeUnknown {
			return t
		}
	}
	return model.TypeUnknown
}

func firstKnownDistribution(sorted []model.SourceRecord) model.DistributionPolicy {
	for i := range sorted {
		if d := sorted[i].Distribution; d != "" && d != model.DistUnknown {
			return d
		}
	}
	return model.DistUnknown
}

// contributingSources deduplicates source tags in order of first
// appearance within the group.
func contributingSources(group []model.SourceRecord) []model.Source {
	seen := make(map[model.Source]bool, len(group))
	var sources []model.Source
	for i := range group {
		src := group[i].Source
		if !seen[src] {
			seen[src] = true
			sources = append(sources, src)
		}
	}
	return sources
}

// qualityScore combines completeness over a fixed checklist of nine
// representative fields with a bonus for source corroboration, capped
// at 100.
func (m *Merger) qualityScore(inst *model.AggregatedInstrument) float64 {
	checklist := []bool{
		inst.Performance.Return1Y != nil,
		inst.Performance.Return3Y != nil,
		inst.Performance.Return5Y != nil,
		inst.Performance.Return7Y != nil,
		inst.Performance.Return10Y != nil,
		inst.Performance.YTD != nil,
		inst.Volatility3Y != nil,
		inst.SharpeRatio3Y != nil,
		inst.CategoryMorningstar != nil,
	}

	filled := 0
	for _, present := range checklist {
		if present {
			filled++
		}
	}
	completeness := float64(filled) / float64(len(checklist))

	bonus := math.Min(float64(len(inst.Sources))*m.weights.PerSourceBonus, m.weights.MaxSourceBonus)

	return math.Min(100, completeness*m.weights.CompletenessWeight+bonus)
}
