package benchmark

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpaoloni/fundscan/internal/model"
)

type fakeFetcher struct {
	name    model.Source
	records map[string]*model.SourceRecord
	err     error
	calls   int
}

func (f *fakeFetcher) Name() model.Source { return f.name }

func (f *fakeFetcher) GetByISIN(ctx context.Context, code string) (*model.SourceRecord, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.records[code], nil
}

func recordWith1Y(code string, name string) *model.SourceRecord {
	return &model.SourceRecord{
		ISIN:        code,
		Name:        name,
		Source:      model.SourceJustETF,
		Performance: model.Performance{Return1Y: model.Float(10)},
		RetrievedAt: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC),
	}
}

func TestResolveInvalidISIN(t *testing.T) {
	fetcher := &fakeFetcher{name: model.SourceJustETF}
	r := NewResolver(NewCache(time.Hour), fetcher)

	assert.Nil(t, r.Resolve(context.Background(), "not-an-isin", nil))
	assert.Equal(t, 0, fetcher.calls, "invalid ISIN never reaches a fetcher")
}

func TestResolveFromUniverse(t *testing.T) {
	fetcher := &fakeFetcher{name: model.SourceJustETF}
	r := NewResolver(NewCache(time.Hour), fetcher)

	universe := []model.UniverseInstrument{{
		ISIN:   "IE00B4L5Y983",
		Name:   model.String("spreadsheet etf"),
		Perf3Y: model.Float(0.20),
	}}

	got := r.Resolve(context.Background(), "IE00B4L5Y983", universe)
	require.NotNil(t, got)
	assert.Equal(t, "spreadsheet etf", got.Name)
	assert.InDelta(t, 20.0, *got.Performance.Return3Y, 1e-9)
	assert.Equal(t, 0, fetcher.calls, "universe hit short-circuits external lookup")
}

func TestResolveFromCache(t *testing.T) {
	cache := NewCache(time.Hour)
	cache.Put("IE00B4L5Y983", model.AggregatedInstrument{ISIN: "IE00B4L5Y983", Name: "cached etf"})

	fetcher := &fakeFetcher{name: model.SourceJustETF}
	r := NewResolver(cache, fetcher)

	got := r.Resolve(context.Background(), "IE00B4L5Y983", nil)
	require.NotNil(t, got)
	assert.Equal(t, "cached etf", got.Name)
	assert.Equal(t, 0, fetcher.calls)
}

func TestResolveExternallyAndCache(t *testing.T) {
	cache := NewCache(time.Hour)
	fetcher := &fakeFetcher{
		name: model.SourceJustETF,
		records: map[string]*model.SourceRecord{
			"IE00B4L5Y983": recordWith1Y("IE00B4L5Y983", "fetched etf"),
		},
	}
	r := NewResolver(cache, fetcher)

	got := r.Resolve(context.Background(), "IE00B4L5Y983", nil)
	require.NotNil(t, got)
	assert.Equal(t, "fetched etf", got.Name)
	assert.Equal(t, []model.Source{model.SourceJustETF}, got.Sources)

	// Second resolve hits the cache.
	r.Resolve(context.Background(), "IE00B4L5Y983", nil)
	assert.Equal(t, 1, fetcher.calls)
}

func TestResolveSkipsUselessRecords(t *testing.T) {
	// First source returns metadata without any 1y/3y/5y return; the
	// next source must get a chance.
	useless := &fakeFetcher{
		name: model.SourceMorningstar,
		records: map[string]*model.SourceRecord{
			"IE00B4L5Y983": {ISIN: "IE00B4L5Y983", Name: "metadata only", Source: model.SourceMorningstar},
		},
	}
	useful := &fakeFetcher{
		name: model.SourceJustETF,
		records: map[string]*model.SourceRecord{
			"IE00B4L5Y983": recordWith1Y("IE00B4L5Y983", "full etf"),
		},
	}

	r := NewResolver(NewCache(time.Hour), useless, useful)

	got := r.Resolve(context.Background(), "IE00B4L5Y983", nil)
	require.NotNil(t, got)
	assert.Equal(t, "full etf", got.Name)
}

func TestResolveFetcherErrorFallsThrough(t *testing.T) {
	failing := &fakeFetcher{name: model.SourceMorningstar, err: errors.New("boom")}
	working := &fakeFetcher{
		name: model.SourceJustETF,
		records: map[string]*model.SourceRecord{
			"IE00B4L5Y983": recordWith1Y("IE00B4L5Y983", "full etf"),
		},
	}

	r := NewResolver(NewCache(time.Hour), failing, working)

	got := r.Resolve(context.Background(), "IE00B4L5Y983", nil)
	require.NotNil(t, got)
	assert.Equal(t, "full etf", got.Name)
}

func TestResolveNotFoundAnywhere(t *testing.T) {
	fetcher := &fakeFetcher{name: model.SourceJustETF}
	r := NewResolver(NewCache(time.Hour), fetcher)

	assert.Nil(t, r.Resolve(context.Background(), "IE00B4L5Y983", nil))
}

func TestPreload(t *testing.T) {
	records := map[string]*model.SourceRecord{}
	var isins []string
	for i := 0; i < MaxPreload; i++ {
		// Valid-shaped synthetic codes: LU + 9 digits + check digit.
		code := fmt.Sprintf("LU%010d", i)
		records[code] = recordWith1Y(code, "etf "+code)
		isins = append(isins, code)
	}

	fetcher := &fakeFetcher{name: model.SourceJustETF, records: records}
	cache := NewCache(time.Hour)
	r := NewResolver(cache, fetcher)

	t.Run("cap enforced with reason", func(t *testing.T) {
		over := append(append([]string{}, isins...), "IE00B4L5Y983")
		result := r.Preload(context.Background(), over)

		assert.Len(t, result.Loaded, MaxPreload)
		require.Len(t, result.Failed, 1)
		assert.Equal(t, "IE00B4L5Y983", result.Failed[0].ISIN)
		assert.Equal(t, "preload limit reached", result.Failed[0].Reason)
		assert.Equal(t, MaxPreload, cache.Status().Count)
	})

	t.Run("already cached reported as such", func(t *testing.T) {
		result := r.Preload(context.Background(), isins[:1])
		require.Len(t, result.Loaded, 1)
		assert.True(t, result.Loaded[0].Cached)
	})
}

func TestPreloadInvalidAndMissing(t *testing.T) {
	fetcher := &fakeFetcher{name: model.SourceJustETF}
	r := NewResolver(NewCache(time.Hour), fetcher)

	result := r.Preload(context.Background(), []string{"bogus!", "IE00B4L5Y983", ""})

	assert.Empty(t, result.Loaded)
	require.Len(t, result.Failed, 2)
	assert.Equal(t, "invalid ISIN", result.Failed[0].Reason)
	assert.Equal(t, "not found", result.Failed[1].Reason)
}
