package benchmark

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/dpaoloni/fundscan/internal/isin"
	"github.com/dpaoloni/fundscan/internal/model"
)

// MaxPreload bounds how many ISINs one Preload call will resolve.
const MaxPreload = 15

// Fetcher is the external lookup capability the resolver falls back
// to; implementations consult one source and may fail or time out.
type Fetcher interface {
	Name() model.Source
	GetByISIN(ctx context.Context, code string) (*model.SourceRecord, error)
}

// Resolver finds a benchmark instrument for an ISIN through three
// short-circuiting tiers: the caller's loaded universe, the TTL
// cache, then the external fetchers in priority order.
type Resolver struct {
	cache    *Cache
	fetchers []Fetcher
}

// NewResolver builds a Resolver. Fetchers are tried in the order
// given, which encodes the source priority.
func NewResolver(cache *Cache, fetchers ...Fetcher) *Resolver {
	return &Resolver{cache: cache, fetchers: fetchers}
}

// Resolve returns the benchmark instrument for code, or nil when no
// tier can produce one. An invalid ISIN short-circuits to nil without
// consulting any tier. Instruments fetched externally are cached
// before being returned.
func (r *Resolver) Resolve(ctx context.Context, code string, universe []model.UniverseInstrument) *model.AggregatedInstrument {
	if !isin.Valid(isin.Normalize(code)) {
		log.Warn().Str("isin", code).Msg("invalid benchmark ISIN")
		return nil
	}
	code = isin.Normalize(code)

	// Tier 1: the loaded universe, instant and self-consistent.
	for i := range universe {
		if universe[i].ISIN == code {
			log.Info().Str("isin", code).Msg("benchmark found in universe")
			inst := universe[i].ToAggregated()
			return &inst
		}
	}

	// Tier 2: the cache.
	if inst := r.cache.Get(code); inst != nil {
		log.Info().Str("isin", code).Str("name", inst.Name).Msg("benchmark found in cache")
		return inst
	}

	// Tier 3: external sources.
	if inst := r.fetchExternal(ctx, code); inst != nil {
		r.cache.Put(code, *inst)
		return inst
	}

	log.Warn().Str("isin", code).Msg("benchmark not found in any tier")
	return nil
}

// fetchExternal tries each fetcher in priority order. A record with
// metadata but none of the useful mid/long-horizon returns counts as
// a miss so the next source gets a chance.
func (r *Resolver) fetchExternal(ctx context.Context, code string) *model.AggregatedInstrument {
	for _, fetcher := range r.fetchers {
		rec, err := fetcher.GetByISIN(ctx, code)
		if err != nil {
			log.Warn().Err(err).Str("isin", code).Str("source", string(fetcher.Name())).
				Msg("benchmark lookup failed")
			continue
		}
		if rec == nil {
			continue
		}
		if !hasUsefulPerformance(rec) {
			log.Info().Str("isin", code).Str("source", string(fetcher.Name())).
				Msg("benchmark found without usable performance, trying next source")
			continue
		}

		log.Info().Str("isin", code).Str("source", string(fetcher.Name())).
			Msg("benchmark resolved externally")
		inst := recordToInstrument(code, rec)
		return &inst
	}
	return nil
}

// hasUsefulPerformance requires at least one of the 1y/3y/5y returns;
// anything less cannot anchor a comparison.
func hasUsefulPerformance(rec *model.SourceRecord) bool {
	return rec.Performance.Return1Y != nil ||
		rec.Performance.Return3Y != nil ||
		rec.Performance.Return5Y != nil
}

func recordToInstrument(code string, rec *model.SourceRecord) model.AggregatedInstrument {
	name := rec.Name
	if name == "" {
		name = code
	}
	return model.AggregatedInstrument{
		ISIN:                code,
		Name:                name,
		Type:                rec.Type,
		Currency:            rec.Currency,
		Distribution:        rec.Distribution,
		CategoryMorningstar: rec.CategoryMorningstar,
		Performance:         rec.Performance,
		Volatility1Y:        rec.Risk.Volatility1Y,
		Volatility3Y:        rec.Risk.Volatility3Y,
		SharpeRatio3Y:       rec.Risk.SharpeRatio3Y,
		Sources:             []model.Source{rec.Source},
		LastUpdated:         rec.RetrievedAt,
	}
}

// PreloadOutcome records what happened to one ISIN during a bulk
// preload.
type PreloadOutcome struct {
	ISIN   string
	Name   string
	Cached bool
	Reason string
}

// PreloadResult summarizes a Preload call.
type PreloadResult struct {
	Loaded []PreloadOutcome
	Failed []PreloadOutcome
}

// Preload resolves up to MaxPreload ISINs into the cache ahead of
// interactive use, reporting a per-ISIN outcome. ISINs beyond the cap
// are rejected with a reason rather than silently dropped.
func (r *Resolver) Preload(ctx context.Context, isins []string) PreloadResult {
	var result PreloadResult

	for i, raw := range isins {
		code := isin.Normalize(raw)
		if code == "" {
			continue
		}

		if i >= MaxPreload {
			result.Failed = append(result.Failed, PreloadOutcome{ISIN: code, Reason: "preload limit reached"})
			continue
		}
		if !isin.Valid(code) {
			result.Failed = append(result.Failed, PreloadOutcome{ISIN: code, Reason: "invalid ISIN"})
			continue
		}

		if cached := r.cache.Get(code); cached != nil {
			result.Loaded = append(result.Loaded, PreloadOutcome{ISIN: code, Name: cached.Name, Cached: true})
			continue
		}

		inst := r.fetchExternal(ctx, code)
		if inst == nil {
			result.Failed = append(result.Failed, PreloadOutcome{ISIN: code, Reason: "not found"})
			continue
		}
		r.cache.Put(code, *inst)
		result.Loaded = append(result.Loaded, PreloadOutcome{ISIN: code, Name: inst.Name})
	}

	return result
}
