package source

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpaoloni/fundscan/internal/model"
	"github.com/dpaoloni/fundscan/internal/progress"
)

type fakeSource struct {
	name    model.Source
	types   []model.InstrumentType
	records []model.SourceRecord
	err     error
	panics  bool
	healthy bool

	byISIN map[string]*model.SourceRecord
}

func (f *fakeSource) Name() model.Source { return f.name }

func (f *fakeSource) SupportedTypes() []model.InstrumentType { return f.types }

func (f *fakeSource) HealthCheck(ctx context.Context) bool { return f.healthy }

func (f *fakeSource) Search(ctx context.Context, criteria model.SearchCriteria, cb progress.Func) ([]model.SourceRecord, error) {
	if f.panics {
		panic("scraper blew up")
	}
	return f.records, f.err
}

func (f *fakeSource) GetByISIN(ctx context.Context, code string) (*model.SourceRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	if rec, ok := f.byISIN[code]; ok {
		return rec, nil
	}
	return nil, ErrNotFound
}

func fastLimiter() *RateLimiter {
	return NewRateLimiter(map[model.Source]time.Duration{
		model.SourceJustETF:     time.Microsecond,
		model.SourceMorningstar: time.Microsecond,
		model.SourceInvesting:   time.Microsecond,
	})
}

var enginePriority = []model.Source{model.SourceMorningstar, model.SourceJustETF}

func record(code string, src model.Source, ret3y *float64) model.SourceRecord {
	return model.SourceRecord{
		ISIN:        code,
		Name:        string(src) + " record",
		Source:      src,
		Type:        model.TypeETF,
		Performance: model.Performance{Return3Y: ret3y},
	}
}

func TestEngineSearchMergesAcrossSources(t *testing.T) {
	justetf := &fakeSource{
		name:    model.SourceJustETF,
		types:   []model.InstrumentType{model.TypeETF},
		records: []model.SourceRecord{record("IE00B4L5Y983", model.SourceJustETF, model.Float(30))},
	}
	morningstar := &fakeSource{
		name:    model.SourceMorningstar,
		types:   []model.InstrumentType{model.TypeETF, model.TypeFund},
		records: []model.SourceRecord{record("IE00B4L5Y983", model.SourceMorningstar, nil)},
	}

	e := NewEngine([]DataSource{justetf, morningstar}, enginePriority, fastLimiter())

	got := e.Search(context.Background(), model.DefaultCriteria(), nil)
	require.Len(t, got, 1)
	assert.Equal(t, "morningstar record", got[0].Name, "priority source names the instrument")
	require.NotNil(t, got[0].Performance.Return3Y)
	assert.Equal(t, 30.0, *got[0].Performance.Return3Y, "gap filled from the other source")
	assert.ElementsMatch(t, []model.Source{model.SourceJustETF, model.SourceMorningstar}, got[0].Sources)
}

func TestEngineSearchIsolatesFailures(t *testing.T) {
	panicking := &fakeSource{
		name:   model.SourceMorningstar,
		types:  []model.InstrumentType{model.TypeETF},
		panics: true,
	}
	failing := &fakeSource{
		name:  model.SourceInvesting,
		types: []model.InstrumentType{model.TypeETF},
		err:   errors.New("http 500"),
	}
	working := &fakeSource{
		name:    model.SourceJustETF,
		types:   []model.InstrumentType{model.TypeETF},
		records: []model.SourceRecord{record("IE00B4L5Y983", model.SourceJustETF, model.Float(30))},
	}

	e := NewEngine([]DataSource{panicking, failing, working}, enginePriority, fastLimiter())

	got := e.Search(context.Background(), model.DefaultCriteria(), nil)
	require.Len(t, got, 1, "one bad source never sinks the batch")
	assert.Equal(t, "justetf record", got[0].Name)
}

func TestEngineSearchFiltersByType(t *testing.T) {
	etfOnly := &fakeSource{
		name:    model.SourceJustETF,
		types:   []model.InstrumentType{model.TypeETF},
		records: []model.SourceRecord{record("IE00B4L5Y983", model.SourceJustETF, nil)},
	}
	fundOnly := &fakeSource{
		name:    model.SourceInvesting,
		types:   []model.InstrumentType{model.TypeFund},
		records: []model.SourceRecord{record("LU0690375182", model.SourceInvesting, nil)},
	}

	e := NewEngine([]DataSource{etfOnly, fundOnly}, enginePriority, fastLimiter())

	criteria := model.SearchCriteria{Types: []model.InstrumentType{model.TypeFund}}
	got := e.Search(context.Background(), criteria, nil)

	require.Len(t, got, 1)
	assert.Equal(t, "LU0690375182", got[0].ISIN, "only fund-capable sources are queried")
}

func TestEngineSearchMinPerformanceFilter(t *testing.T) {
	src := &fakeSource{
		name:  model.SourceJustETF,
		types: []model.InstrumentType{model.TypeETF},
		records: []model.SourceRecord{
			record("IE00B4L5Y983", model.SourceJustETF, model.Float(30)),
			record("LU0690375182", model.SourceJustETF, model.Float(5)),
			record("FR0010315770", model.SourceJustETF, nil),
		},
	}

	e := NewEngine([]DataSource{src}, enginePriority, fastLimiter())

	criteria := model.DefaultCriteria()
	criteria.MinPerformance = model.Float(10)
	got := e.Search(context.Background(), criteria, nil)

	require.Len(t, got, 1)
	assert.Equal(t, "IE00B4L5Y983", got[0].ISIN, "below-threshold and no-data instruments drop out")
}

func TestEngineSearchNoActiveSources(t *testing.T) {
	etfOnly := &fakeSource{name: model.SourceJustETF, types: []model.InstrumentType{model.TypeETF}}
	e := NewEngine([]DataSource{etfOnly}, enginePriority, fastLimiter())

	criteria := model.SearchCriteria{Types: []model.InstrumentType{model.TypeFund}}
	assert.Nil(t, e.Search(context.Background(), criteria, nil))
}

func TestEngineSearchReportsProgress(t *testing.T) {
	src := &fakeSource{
		name:    model.SourceJustETF,
		types:   []model.InstrumentType{model.TypeETF},
		records: []model.SourceRecord{record("IE00B4L5Y983", model.SourceJustETF, nil)},
	}
	e := NewEngine([]DataSource{src}, enginePriority, fastLimiter())

	var fractions []float64
	e.Search(context.Background(), model.DefaultCriteria(), func(fraction float64, message string) {
		fractions = append(fractions, fraction)
	})

	require.NotEmpty(t, fractions)
	assert.Equal(t, 0.0, fractions[0])
	assert.Equal(t, 1.0, fractions[len(fractions)-1])
}

func TestEngineEnrichByISINs(t *testing.T) {
	rec := record("IE00B4L5Y983", model.SourceJustETF, model.Float(30))
	src := &fakeSource{
		name:   model.SourceJustETF,
		types:  []model.InstrumentType{model.TypeETF},
		byISIN: map[string]*model.SourceRecord{"IE00B4L5Y983": &rec},
	}

	e := NewEngine([]DataSource{src}, enginePriority, fastLimiter())

	got := e.EnrichByISINs(context.Background(), []string{"IE00B4L5Y983", "LU0690375182"}, nil)
	require.Len(t, got, 1, "not-found ISINs are skipped silently")
	assert.Equal(t, "IE00B4L5Y983", got[0].ISIN)
}

func TestEngineHealthCheck(t *testing.T) {
	healthy := &fakeSource{name: model.SourceJustETF, healthy: true}
	sick := &fakeSource{name: model.SourceInvesting}

	e := NewEngine([]DataSource{healthy, sick}, enginePriority, fastLimiter())

	status := e.HealthCheck(context.Background())
	assert.True(t, status[model.SourceJustETF])
	assert.False(t, status[model.SourceInvesting])
}
