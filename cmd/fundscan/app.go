package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/dpaoloni/fundscan/internal/benchmark"
	"github.com/dpaoloni/fundscan/internal/compare"
	"github.com/dpaoloni/fundscan/internal/config"
	"github.com/dpaoloni/fundscan/internal/merge"
	"github.com/dpaoloni/fundscan/internal/model"
	"github.com/dpaoloni/fundscan/internal/progress"
	"github.com/dpaoloni/fundscan/internal/source"
	"github.com/dpaoloni/fundscan/internal/universe"
)

// app holds the wired object graph every command runs against.
type app struct {
	cfg      *config.Config
	engine   *source.Engine
	cache    *benchmark.Cache
	resolver *benchmark.Resolver
	compare  *compare.Engine
}

// newApp builds the full stack from configuration: rate limiter,
// scrapers, search engine, benchmark cache and resolver, comparison
// engine.
func newApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	limiter := source.NewRateLimiter(cfg.RateIntervals())

	var sources []source.DataSource
	if cfg.SourceEnabled(model.SourceJustETF) {
		sources = append(sources, source.NewJustETF(limiter, cfg.SourceTimeout(model.SourceJustETF)))
	}
	if cfg.SourceEnabled(model.SourceMorningstar) {
		sources = append(sources, source.NewMorningstar(limiter, cfg.SourceTimeout(model.SourceMorningstar)))
	}
	if cfg.SourceEnabled(model.SourceInvesting) {
		sources = append(sources, source.NewInvesting(limiter, cfg.SourceTimeout(model.SourceInvesting)))
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("all sources are disabled in configuration")
	}

	merger := merge.New(merge.WithQualityWeights(merge.QualityWeights{
		CompletenessWeight: cfg.Quality.CompletenessWeight,
		PerSourceBonus:     cfg.Quality.PerSourceBonus,
		MaxSourceBonus:     cfg.Quality.MaxSourceBonus,
	}))

	engine := source.NewEngine(sources, cfg.SourcePriority(), limiter,
		source.WithMaxWorkers(cfg.Sources.MaxWorkers),
		source.WithSearchTimeout(cfg.SearchTimeout()),
		source.WithMerger(merger),
	)

	cache := benchmark.NewCache(cfg.CacheTTL())

	// Fetchers follow the merge priority so the resolver consults the
	// most trusted source first.
	fetchers := make([]benchmark.Fetcher, 0, len(sources))
	for _, name := range cfg.SourcePriority() {
		for _, src := range sources {
			if src.Name() == name {
				fetchers = append(fetchers, src)
			}
		}
	}
	resolver := benchmark.NewResolver(cache, fetchers...)

	cmp := compare.NewEngine(engine, resolver,
		compare.WithSelectionWeights(compare.SelectionWeights{
			PerPeriod:    cfg.SelectionWeights(),
			QualityScale: cfg.Benchmark.QualityScale,
		}),
	)

	return &app{
		cfg:      cfg,
		engine:   engine,
		cache:    cache,
		resolver: resolver,
		compare:  cmp,
	}, nil
}

// loadUniverse reads and validates the universe CSV at path.
func loadUniverse(path string) ([]model.UniverseInstrument, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open universe file: %w", err)
	}
	defer f.Close()

	result := universe.Load(f)
	for _, w := range result.Warnings {
		log.Warn().Str("file", path).Msg(w)
	}
	if !result.Success() {
		return nil, fmt.Errorf("universe load failed: %v", result.Errors)
	}
	return result.Instruments, nil
}

// terminalProgress reports pipeline progress on stderr.
func terminalProgress() progress.Func {
	return func(fraction float64, message string) {
		fmt.Fprintf(os.Stderr, "\r[%3.0f%%] %-60s", fraction*100, message)
		if fraction >= 1 {
			fmt.Fprintln(os.Stderr)
		}
	}
}
