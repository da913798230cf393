package source

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dpaoloni/fundscan/internal/merge"
	"github.com/dpaoloni/fundscan/internal/metrics"
	"github.com/dpaoloni/fundscan/internal/model"
	"github.com/dpaoloni/fundscan/internal/progress"
)

const (
	// DefaultMaxWorkers bounds concurrent per-source searches.
	DefaultMaxWorkers = 3

	// DefaultSearchTimeout bounds one source's search; a timed-out
	// source contributes zero records and the batch continues.
	DefaultSearchTimeout = 2 * time.Minute
)

// Engine orchestrates multi-source searches: it fans out to the
// registered sources with a bounded worker pool, isolates per-source
// failures, and merges the surviving records by ISIN.
type Engine struct {
	sources  []DataSource
	priority []model.Source
	limiter  *RateLimiter
	merger   *merge.Merger

	maxWorkers    int
	searchTimeout time.Duration
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithMaxWorkers overrides the worker pool size.
func WithMaxWorkers(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.maxWorkers = n
		}
	}
}

// WithSearchTimeout overrides the per-source search timeout.
func WithSearchTimeout(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d > 0 {
			e.searchTimeout = d
		}
	}
}

// WithMerger injects a customized merger (non-default quality
// weights).
func WithMerger(m *merge.Merger) EngineOption {
	return func(e *Engine) { e.merger = m }
}

// NewEngine builds an Engine over the given sources. The priority
// order governs merge conflict resolution; sources not listed rank
// last.
func NewEngine(sources []DataSource, priority []model.Source, limiter *RateLimiter, opts ...EngineOption) *Engine {
	e := &Engine{
		sources:       sources,
		priority:      priority,
		limiter:       limiter,
		merger:        merge.New(),
		maxWorkers:    DefaultMaxWorkers,
		searchTimeout: DefaultSearchTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Search queries every source that supports the requested instrument
// types, in parallel, and returns the merged result. A failing or
// timed-out source degrades to zero records; Search itself never
// fails.
func (e *Engine) Search(ctx context.Context, criteria model.SearchCriteria, cb progress.Func) []model.AggregatedInstrument {
	active := e.activeSources(criteria.Types)
	if len(active) == 0 {
		log.Warn().Msg("no active sources for the requested instrument types")
		return nil
	}

	progress.Report(cb, 0, "starting multi-source search")

	var (
		mu         sync.Mutex
		allRecords []model.SourceRecord
	)

	sem := make(chan struct{}, e.maxWorkers)
	var wg sync.WaitGroup

	for i, src := range active {
		wg.Add(1)
		go func(idx int, src DataSource) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			span := 0.7 / float64(len(active))
			srcCB := progress.Scaled(cb, float64(idx)*span, span, string(src.Name()))

			records := e.searchOne(ctx, src, criteria, srcCB)

			mu.Lock()
			allRecords = append(allRecords, records...)
			mu.Unlock()
		}(i, src)
	}
	wg.Wait()

	progress.Report(cb, 0.7, "aggregating results")
	aggregated := e.merger.Merge(allRecords, e.priority)

	progress.Report(cb, 0.9, "applying final filters")
	if criteria.MinPerformance != nil {
		aggregated = filterByPerformance(aggregated, *criteria.MinPerformance, criteria.PerformancePeriod)
	}

	progress.Report(cb, 1, fmt.Sprintf("found %d instruments", len(aggregated)))
	return aggregated
}

// searchOne runs a single source under its timeout, isolating both
// errors and panics.
func (e *Engine) searchOne(ctx context.Context, src DataSource, criteria model.SearchCriteria, cb progress.Func) (records []model.SourceRecord) {
	name := src.Name()

	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("source", string(name)).Interface("panic", r).Msg("source panicked during search")
			metrics.SourceFailures.WithLabelValues(string(name)).Inc()
			records = nil
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, e.searchTimeout)
	defer cancel()

	metrics.SourceRequests.WithLabelValues(string(name)).Inc()

	records, err := src.Search(ctx, criteria, cb)
	if err != nil {
		log.Error().Err(err).Str("source", string(name)).Msg("source search failed")
		metrics.SourceFailures.WithLabelValues(string(name)).Inc()
		return nil
	}

	metrics.SourceRecords.WithLabelValues(string(name)).Add(float64(len(records)))
	log.Info().Str("source", string(name)).Int("records", len(records)).Msg("source search completed")
	return records
}

// EnrichByISINs looks up each ISIN on every source and merges the
// results. Useful when the caller already holds an ISIN list (the
// loaded universe). Per-lookup failures are logged and skipped.
func (e *Engine) EnrichByISINs(ctx context.Context, isins []string, cb progress.Func) []model.AggregatedInstrument {
	var records []model.SourceRecord
	total := len(isins) * len(e.sources)
	done := 0

	for _, code := range isins {
		for _, src := range e.sources {
			done++
			if err := e.limiter.Wait(ctx, src.Name()); err != nil {
				log.Warn().Err(err).Str("source", string(src.Name())).Msg("enrichment cancelled")
				return e.merger.Merge(records, e.priority)
			}

			metrics.SourceRequests.WithLabelValues(string(src.Name())).Inc()
			rec, err := src.GetByISIN(ctx, code)
			if err != nil {
				if err != ErrNotFound {
					log.Warn().Err(err).Str("isin", code).Str("source", string(src.Name())).
						Msg("lookup failed")
					metrics.SourceFailures.WithLabelValues(string(src.Name())).Inc()
				}
				continue
			}
			if rec != nil {
				records = append(records, *rec)
			}

			progress.Report(cb, float64(done)/float64(total), fmt.Sprintf("lookup %s", code))
		}
	}

	return e.merger.Merge(records, e.priority)
}

// HealthCheck probes every source. A panicking source reports false.
func (e *Engine) HealthCheck(ctx context.Context) map[model.Source]bool {
	status := make(map[model.Source]bool, len(e.sources))
	for _, src := range e.sources {
		status[src.Name()] = probe(ctx, src)
	}
	return status
}

func probe(ctx context.Context, src DataSource) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()
	return src.HealthCheck(ctx)
}

// Sources lists the registered source tags.
func (e *Engine) Sources() []model.Source {
	names := make([]model.Source, 0, len(e.sources))
	for _, src := range e.sources {
		names = append(names, src.Name())
	}
	return names
}

// activeSources filters the registry to sources supporting at least
// one requested instrument type.
func (e *Engine) activeSources(types []model.InstrumentType) []DataSource {
	if len(types) == 0 {
		return e.sources
	}
	var active []DataSource
	for _, src := range e.sources {
		if supportsAny(src.SupportedTypes(), types) {
			active = append(active, src)
		}
	}
	return active
}

func supportsAny(supported, wanted []model.InstrumentType) bool {
	for _, s := range supported {
		for _, w := range wanted {
			if s == w {
				return true
			}
		}
	}
	return false
}

func filterByPerformance(instruments []model.AggregatedInstrument, min float64, period model.Period) []model.AggregatedInstrument {
	if period == "" {
		period = model.ReferencePeriod
	}
	var out []model.AggregatedInstrument
	for i := range instruments {
		perf := instruments[i].PerformanceByPeriod(period)
		if perf != nil && *perf >= min {
			out = append(out, instruments[i])
		}
	}
	return out
}
