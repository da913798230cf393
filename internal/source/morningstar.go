package source

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/dpaoloni/fundscan/internal/isin"
	"github.com/dpaoloni/fundscan/internal/model"
	"github.com/dpaoloni/fundscan/internal/progress"
)

// Morningstar scrapes the Morningstar screener. Covers both funds
// and ETFs and is the richest source for category data, which is why
// it usually heads the merge priority order.
type Morningstar struct {
	client
	baseURL string
}

// NewMorningstar builds the Morningstar source.
func NewMorningstar(limiter *RateLimiter, timeout time.Duration) *Morningstar {
	return &Morningstar{
		client:  newClient(model.SourceMorningstar, limiter, timeout),
		baseURL: "https://tools.morningstar.it/api/rest.svc/security/screener",
	}
}

func (m *Morningstar) Name() model.Source { return model.SourceMorningstar }

func (m *Morningstar) SupportedTypes() []model.InstrumentType {
	return []model.InstrumentType{model.TypeETF, model.TypeFund}
}

type morningstarRow struct {
	ISIN             string   `json:"isin"`
	Name             string   `json:"legalName"`
	UniverseType     string   `json:"universe"`
	Currency         string   `json:"baseCurrency"`
	Domicile         *string  `json:"domicile"`
	Distribution     string   `json:"distributionStatus"`
	CategoryName     *string  `json:"categoryName"`
	CategoryAssogest *string  `json:"assogestioniCategory"`
	TER              *float64 `json:"ongoingCharge"`

	ReturnM1   *float64 `json:"returnM1"`
	ReturnM3   *float64 `json:"returnM3"`
	ReturnM6   *float64 `json:"returnM6"`
	ReturnYTD  *float64 `json:"returnM0"`
	ReturnM12  *float64 `json:"returnM12"`
	ReturnM36  *float64 `json:"returnM36"`
	ReturnM60  *float64 `json:"returnM60"`
	ReturnM84  *float64 `json:"returnM84"`
	ReturnM108 *float64 `json:"returnM108"`
	ReturnM120 *float64 `json:"returnM120"`

	StdDevM12 *float64 `json:"standardDeviationM12"`
	StdDevM36 *float64 `json:"standardDeviationM36"`
	StdDevM60 *float64 `json:"standardDeviationM60"`
	SharpeM36 *float64 `json:"sharpeM36"`
	Drawdown  *float64 `json:"maxDrawdownM36"`
}

type morningstarResponse struct {
	Rows  []morningstarRow `json:"rows"`
	Total int              `json:"total"`
}

// Search queries the screener per category set. Assogestioni
// categories are passed through as their own filter dimension.
func (m *Morningstar) Search(ctx context.Context, criteria model.SearchCriteria, cb progress.Func) ([]model.SourceRecord, error) {
	queries := m.buildQueries(criteria)

	var records []model.SourceRecord
	for i, query := range queries {
		progress.Report(cb, float64(i)/float64(len(queries)), fmt.Sprintf("screener query %d/%d", i+1, len(queries)))

		var resp morningstarResponse
		if err := m.getJSON(ctx, m.baseURL+"?"+query.Encode(), &resp); err != nil {
			return records, err
		}
		for _, row := range resp.Rows {
			rec := m.toRecord(row)
			if criteria.WantsType(rec.Type) {
				records = append(records, rec)
			}
		}
	}

	progress.Report(cb, 1, fmt.Sprintf("%d records", len(records)))
	return records, nil
}

// GetByISIN looks up one instrument.
func (m *Morningstar) GetByISIN(ctx context.Context, code string) (*model.SourceRecord, error) {
	code = isin.Normalize(code)

	params := url.Values{}
	params.Set("isin", code)
	params.Set("pageSize", "1")

	var resp morningstarResponse
	if err := m.getJSON(ctx, m.baseURL+"?"+params.Encode(), &resp); err != nil {
		return nil, err
	}
	if len(resp.Rows) == 0 {
		return nil, ErrNotFound
	}

	rec := m.toRecord(resp.Rows[0])
	return &rec, nil
}

func (m *Morningstar) HealthCheck(ctx context.Context) bool {
	return m.ping(ctx, m.baseURL+"?pageSize=1")
}

func (m *Morningstar) buildQueries(criteria model.SearchCriteria) []url.Values {
	base := url.Values{}
	if len(criteria.Currencies) > 0 {
		base.Set("currencyId", criteria.Currencies[0])
	}

	var queries []url.Values
	for _, cat := range criteria.CategoriesMorningstar {
		q := cloneValues(base)
		q.Set("category", cat)
		queries = append(queries, q)
	}
	for _, cat := range criteria.CategoriesAssogestioni {
		q := cloneValues(base)
		q.Set("assogestioniCategory", cat)
		queries = append(queries, q)
	}
	if len(queries) == 0 {
		queries = append(queries, base)
	}
	return queries
}

func cloneValues(v url.Values) url.Values {
	out := url.Values{}
	for k, vals := range v {
		for _, val := range vals {
			out.Add(k, val)
		}
	}
	return out
}

func (m *Morningstar) toRecord(row morningstarRow) model.SourceRecord {
	instType := model.TypeFund
	if row.UniverseType == "ETF" {
		instType = model.TypeETF
	}

	currency := row.Currency
	if currency == "" {
		currency = "EUR"
	}

	return model.SourceRecord{
		ISIN:                 isin.Normalize(row.ISIN),
		Name:                 row.Name,
		Source:               model.SourceMorningstar,
		Type:                 instType,
		Currency:             currency,
		Domicile:             row.Domicile,
		Distribution:         parseDistribution(row.Distribution),
		CategoryMorningstar:  row.CategoryName,
		CategoryAssogestioni: row.CategoryAssogest,
		TER:                  row.TER,
		Performance: model.Performance{
			Return1M:  row.ReturnM1,
			Return3M:  row.ReturnM3,
			Return6M:  row.ReturnM6,
			YTD:       row.ReturnYTD,
			Return1Y:  row.ReturnM12,
			Return3Y:  row.ReturnM36,
			Return5Y:  row.ReturnM60,
			Return7Y:  row.ReturnM84,
			Return9Y:  row.ReturnM108,
			Return10Y: row.ReturnM120,
		},
		Risk: model.RiskMetrics{
			Volatility1Y:  row.StdDevM12,
			Volatility3Y:  row.StdDevM36,
			Volatility5Y:  row.StdDevM60,
			SharpeRatio3Y: row.SharpeM36,
			MaxDrawdown:   row.Drawdown,
		},
		RetrievedAt: time.Now(),
	}
}
