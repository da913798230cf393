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

// Investing scrapes the Investing.com fund search API. Fund-only and
// sparser than the other sources (short horizons and YTD), so it sits
// last in the default priority order.
type Investing struct {
	client
	baseURL string
}

// NewInvesting builds the Investing.com source.
func NewInvesting(limiter *RateLimiter, timeout time.Duration) *Investing {
	return &Investing{
		client:  newClient(model.SourceInvesting, limiter, timeout),
		baseURL: "https://api.investing.com/api/financialdata/funds",
	}
}

func (v *Investing) Name() model.Source { return model.SourceInvesting }

func (v *Investing) SupportedTypes() []model.InstrumentType {
	return []model.InstrumentType{model.TypeFund}
}

type investingRow struct {
	ISIN     string   `json:"isin"`
	Name     string   `json:"name"`
	Currency string   `json:"currency"`
	Category *string  `json:"fundCategory"`

	Change1M  *float64 `json:"chgPct1Month"`
	Change3M  *float64 `json:"chgPct3Month"`
	Change6M  *float64 `json:"chgPct6Month"`
	ChangeYTD *float64 `json:"chgPctYtd"`
	Change1Y  *float64 `json:"chgPct1Year"`
	Change3Y  *float64 `json:"chgPct3Year"`
}

type investingResponse struct {
	Data []investingRow `json:"data"`
}

// Search runs one query per Morningstar category; Investing.com has
// no Assogestioni dimension.
func (v *Investing) Search(ctx context.Context, criteria model.SearchCriteria, cb progress.Func) ([]model.SourceRecord, error) {
	if !criteria.WantsType(model.TypeFund) {
		return nil, nil
	}

	queries := criteria.CategoriesMorningstar
	if len(queries) == 0 {
		queries = []string{""}
	}

	var records []model.SourceRecord
	for i, category := range queries {
		progress.Report(cb, float64(i)/float64(len(queries)), fmt.Sprintf("fund query %d/%d", i+1, len(queries)))

		params := url.Values{}
		if category != "" {
			params.Set("category", category)
		}
		if len(criteria.Currencies) > 0 {
			params.Set("currency", criteria.Currencies[0])
		}

		var resp investingResponse
		if err := v.getJSON(ctx, v.baseURL+"?"+params.Encode(), &resp); err != nil {
			return records, err
		}
		for _, row := range resp.Data {
			records = append(records, v.toRecord(row))
		}
	}

	progress.Report(cb, 1, fmt.Sprintf("%d funds", len(records)))
	return records, nil
}

// GetByISIN looks up one fund.
func (v *Investing) GetByISIN(ctx context.Context, code string) (*model.SourceRecord, error) {
	code = isin.Normalize(code)

	var resp investingResponse
	if err := v.getJSON(ctx, fmt.Sprintf("%s?isin=%s", v.baseURL, url.QueryEscape(code)), &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, ErrNotFound
	}

	rec := v.toRecord(resp.Data[0])
	return &rec, nil
}

func (v *Investing) HealthCheck(ctx context.Context) bool {
	return v.ping(ctx, v.baseURL+"?page=1")
}

func (v *Investing) toRecord(row investingRow) model.SourceRecord {
	currency := row.Currency
	if currency == "" {
		currency = "EUR"
	}
	return model.SourceRecord{
		ISIN:                isin.Normalize(row.ISIN),
		Name:                row.Name,
		Source:              model.SourceInvesting,
		Type:                model.TypeFund,
		Currency:            currency,
		Distribution:        model.DistUnknown,
		CategoryMorningstar: row.Category,
		Performance: model.Performance{
			Return1M: row.Change1M,
			Return3M: row.Change3M,
			Return6M: row.Change6M,
			YTD:      row.ChangeYTD,
			Return1Y: row.Change1Y,
			Return3Y: row.Change3Y,
		},
		RetrievedAt: time.Now(),
	}
}
