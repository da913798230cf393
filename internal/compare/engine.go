package compare

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dpaoloni/fundscan/internal/model"
	"github.com/dpaoloni/fundscan/internal/progress"
)

// Searcher is the market-data capability the engine depends on. The
// concrete implementation fans out to the scrapers; the engine only
// needs aggregated instruments back.
type Searcher interface {
	Search(ctx context.Context, criteria model.SearchCriteria, cb progress.Func) []model.AggregatedInstrument
	EnrichByISINs(ctx context.Context, isins []string, cb progress.Func) []model.AggregatedInstrument
}

// BenchmarkResolver resolves an explicit benchmark ISIN across the
// loaded universe, the cache, and external sources. A nil result
// means the benchmark could not be found anywhere.
type BenchmarkResolver interface {
	Resolve(ctx context.Context, code string, universe []model.UniverseInstrument) *model.AggregatedInstrument
}

// SelectionWeights scores candidate benchmark ETFs by performance
// completeness: each horizon with data contributes its weight, and a
// tenth of the quality score is added on top. Mid/long horizons weigh
// heaviest. Heuristic constants, overridable via configuration.
type SelectionWeights struct {
	PerPeriod    map[model.Period]float64
	QualityScale float64
}

// DefaultSelectionWeights returns the standard benchmark weighting.
func DefaultSelectionWeights() SelectionWeights {
	return SelectionWeights{
		PerPeriod: map[model.Period]float64{
			model.Period1M:  1,
			model.Period3M:  1,
			model.Period6M:  1,
			model.PeriodYTD: 2,
			model.Period1Y:  3,
			model.Period3Y:  5,
			model.Period5Y:  5,
			model.Period7Y:  3,
			model.Period9Y:  2,
			model.Period10Y: 3,
		},
		QualityScale: 0.1,
	}
}

// Engine orchestrates the two comparison pipelines. Dependencies are
// injected so tests can run without any scraper.
type Engine struct {
	searcher  Searcher
	resolver  BenchmarkResolver
	selection SelectionWeights
	now       func() time.Time
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithSelectionWeights overrides benchmark selection scoring.
func WithSelectionWeights(w SelectionWeights) EngineOption {
	return func(e *Engine) { e.selection = w }
}

// WithEngineClock overrides the report timestamp source, for tests.
func WithEngineClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// NewEngine builds an Engine around the given collaborators.
func NewEngine(searcher Searcher, resolver BenchmarkResolver, opts ...EngineOption) *Engine {
	e := &Engine{
		searcher:  searcher,
		resolver:  resolver,
		selection: DefaultSelectionWeights(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CompareByCategory compares the universe against the best market ETF
// of the given category. The pipeline never aborts for lack of
// matches: an empty category filter degrades to the whole universe,
// and a missing benchmark yields a report with no deltas rather than
// an error.
func (e *Engine) CompareByCategory(ctx context.Context, universe []model.UniverseInstrument, category string, taxonomy model.Taxonomy, periods []model.Period, cb progress.Func) *model.ComparisonReport {
	if len(periods) == 0 {
		periods = model.AllPeriods
	}

	rep := &model.ComparisonReport{
		ID:          uuid.NewString(),
		Type:        model.CompareUniverseVsETF,
		Category:    category,
		Taxonomy:    taxonomy,
		Periods:     periods,
		GeneratedAt: e.now(),
	}

	progress.Report(cb, 0, "starting comparison")

	progress.Report(cb, 0.1, "filtering universe by category")
	filtered := FilterUniverseByCategory(universe, category, taxonomy)
	if len(filtered) == 0 {
		// Documented policy: an overly strict filter never produces
		// zero candidates.
		log.Warn().Str("category", category).Msg("no universe match for category, using full universe")
		filtered = universe
	}

	progress.Report(cb, 0.2, "fetching universe instrument data")
	candidates := e.enrichUniverse(ctx, filtered, progress.Scaled(cb, 0.2, 0.3, "universe"))

	progress.Report(cb, 0.5, "searching market ETFs")
	searchCategories := MapCategory(category, string(taxonomy))

	criteria := model.SearchCriteria{
		Types:             []model.InstrumentType{model.TypeETF},
		PerformancePeriod: model.ReferencePeriod,
	}
	if taxonomy == model.TaxonomyAssogestioni {
		criteria.CategoriesAssogestioni = []string{category}
		criteria.CategoriesMorningstar = searchCategories
	} else {
		criteria.CategoriesMorningstar = searchCategories
	}

	marketETFs := e.searcher.Search(ctx, criteria, progress.Scaled(cb, 0.5, 0.2, "market"))

	progress.Report(cb, 0.7, "selecting benchmark ETF")
	benchmark := e.SelectBenchmark(marketETFs)
	rep.Benchmark = benchmark

	progress.Report(cb, 0.8, "computing performance deltas")
	for _, inst := range candidates {
		rep.Results = append(rep.Results, model.ComparisonResult{
			Instrument:    inst,
			Origin:        model.OriginUniverse,
			BenchmarkISIN: benchmarkISIN(benchmark),
			Deltas:        calculateDeltas(&inst, benchmark, periods),
		})
	}

	// The benchmark shows up in the result set as a market row, but
	// it is not compared against itself.
	if benchmark != nil {
		rep.Results = append(rep.Results, model.ComparisonResult{
			Instrument: *benchmark,
			Origin:     model.OriginMarket,
		})
	}

	progress.Report(cb, 0.9, "computing statistics")
	rep.ComputeStatistics()

	progress.Report(cb, 1, "comparison completed")
	return rep
}

// CompareToBenchmark compares the universe against one explicit
// benchmark ETF, optionally restricted to the benchmark's category.
// A benchmark that cannot be resolved yields a report with an empty
// result set; callers branch on rep.Benchmark == nil.
func (e *Engine) CompareToBenchmark(ctx context.Context, benchmarkISINCode string, universe []model.UniverseInstrument, periods []model.Period, filterByCategory bool, cb progress.Func) *model.ComparisonReport {
	if len(periods) == 0 {
		periods = model.AllPeriods
	}

	rep := &model.ComparisonReport{
		ID:          uuid.NewString(),
		Type:        model.CompareETFVsUniverse,
		Periods:     periods,
		GeneratedAt: e.now(),
	}

	progress.Report(cb, 0, "starting benchmark comparison")

	progress.Report(cb, 0.1, "resolving benchmark")
	benchmark := e.resolver.Resolve(ctx, benchmarkISINCode, universe)
	if benchmark == nil {
		log.Error().Str("isin", benchmarkISINCode).Msg("benchmark not found")
		return rep
	}
	rep.Benchmark = benchmark

	if benchmark.CategoryMorningstar != nil {
		rep.Category = *benchmark.CategoryMorningstar
		rep.Taxonomy = model.TaxonomyMorningstar
	} else if benchmark.CategoryAssogestioni != nil {
		rep.Category = *benchmark.CategoryAssogestioni
		rep.Taxonomy = model.TaxonomyAssogestioni
	}

	progress.Report(cb, 0.3, "filtering universe")
	filtered := universe
	if filterByCategory && rep.Category != "" {
		filtered = FilterUniverseByCategory(universe, rep.Category, rep.Taxonomy)
		if len(filtered) == 0 {
			log.Warn().Str("category", rep.Category).Msg("no universe match for benchmark category, using full universe")
			filtered = universe
		}
	}

	progress.Report(cb, 0.4, "fetching universe instrument data")
	candidates := e.enrichUniverse(ctx, filtered, progress.Scaled(cb, 0.4, 0.4, "universe"))

	progress.Report(cb, 0.8, "computing performance deltas")
	rep.Results = append(rep.Results, model.ComparisonResult{
		Instrument: *benchmark,
		Origin:     model.OriginMarket,
	})
	for _, inst := range candidates {
		if inst.ISIN == benchmark.ISIN {
			continue
		}
		rep.Results = append(rep.Results, model.ComparisonResult{
			Instrument:    inst,
			Origin:        model.OriginUniverse,
			BenchmarkISIN: benchmark.ISIN,
			Deltas:        calculateDeltas(&inst, benchmark, periods),
		})
	}

	progress.Report(cb, 0.9, "computing statistics")
	rep.ComputeStatistics()

	progress.Report(cb, 1, "comparison completed")
	return rep
}

// enrichUniverse resolves fresh market data for the filtered universe
// ISINs. When every source comes back empty (offline, all failing)
// the spreadsheet's own data is used instead, so the comparison still
// degrades to a usable result.
func (e *Engine) enrichUniverse(ctx context.Context, filtered []model.UniverseInstrument, cb progress.Func) []model.AggregatedInstrument {
	isins := make([]string, 0, len(filtered))
	for i := range filtered {
		isins = append(isins, filtered[i].ISIN)
	}

	enriched := e.searcher.EnrichByISINs(ctx, isins, cb)
	if len(enriched) > 0 {
		return enriched
	}

	log.Warn().Int("universe", len(filtered)).Msg("enrichment returned no records, falling back to spreadsheet data")
	fallback := make([]model.AggregatedInstrument, 0, len(filtered))
	for i := range filtered {
		fallback = append(fallback, filtered[i].ToAggregated())
	}
	return fallback
}

// FilterUniverseByCategory selects universe instruments matching the
// category: exact case-insensitive match first, then substring in
// either direction. When that yields nothing under the Morningstar
// taxonomy, the cross-taxonomy mapping is consulted for equivalent
// Assogestioni categories.
func FilterUniverseByCategory(universe []model.UniverseInstrument, category string, taxonomy model.Taxonomy) []model.UniverseInstrument {
	var filtered []model.UniverseInstrument
	target := strings.ToLower(category)

	for i := range universe {
		cat := universe[i].CategoryMorningstar
		if cat == nil || *cat == "" {
			continue
		}
		have := strings.ToLower(*cat)
		if have == target || strings.Contains(have, target) || strings.Contains(target, have) {
			filtered = append(filtered, universe[i])
		}
	}

	if len(filtered) == 0 && taxonomy == model.TaxonomyMorningstar {
		for _, assoCat := range reverseMapped(category) {
			needle := strings.ToLower(assoCat)
			for i := range universe {
				cat := universe[i].CategoryMorningstar
				if cat != nil && strings.Contains(strings.ToLower(*cat), needle) {
					filtered = append(filtered, universe[i])
				}
			}
		}
	}

	return filtered
}

// SelectBenchmark picks the candidate with the highest completeness
// score. Horizons with data contribute their configured weight and
// the quality score adds a fractional bonus; ties keep input order.
func (e *Engine) SelectBenchmark(etfs []model.AggregatedInstrument) *model.AggregatedInstrument {
	var best *model.AggregatedInstrument
	bestScore := 0.0

	for i := range etfs {
		score := 0.0
		for period, weight := range e.selection.PerPeriod {
			if etfs[i].PerformanceByPeriod(period) != nil {
				score += weight
			}
		}
		score += etfs[i].QualityScore * e.selection.QualityScale

		if best == nil || score > bestScore {
			best = &etfs[i]
			bestScore = score
		}
	}

	return best
}

// calculateDeltas computes instrument-minus-benchmark deltas for the
// requested periods. A delta exists only when both operands do.
func calculateDeltas(inst *model.AggregatedInstrument, benchmark *model.AggregatedInstrument, periods []model.Period) map[model.Period]*float64 {
	deltas := make(map[model.Period]*float64, len(periods))
	if benchmark == nil {
		return deltas
	}

	for _, period := range periods {
		instPerf := inst.PerformanceByPeriod(period)
		benchPerf := benchmark.PerformanceByPeriod(period)
		if instPerf != nil && benchPerf != nil {
			d := RoundDelta(*instPerf - *benchPerf)
			deltas[period] = &d
		} else {
			deltas[period] = nil
		}
	}

	return deltas
}

func benchmarkISIN(benchmark *model.AggregatedInstrument) string {
	if benchmark == nil {
		return ""
	}
	return benchmark.ISIN
}
