package source

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dpaoloni/fundscan/internal/isin"
	"github.com/dpaoloni/fundscan/internal/model"
	"github.com/dpaoloni/fundscan/internal/progress"
)

// JustETF scrapes the JustETF screener. ETF-only; the primary source
// for ETF performance data.
type JustETF struct {
	client
	baseURL string
}

// NewJustETF builds the JustETF source.
func NewJustETF(limiter *RateLimiter, timeout time.Duration) *JustETF {
	return &JustETF{
		client:  newClient(model.SourceJustETF, limiter, timeout),
		baseURL: "https://www.justetf.com/api/etfs",
	}
}

func (j *JustETF) Name() model.Source { return model.SourceJustETF }

func (j *JustETF) SupportedTypes() []model.InstrumentType {
	return []model.InstrumentType{model.TypeETF}
}

// justETFRow is one screener row. Percentages arrive as numbers or
// are absent.
type justETFRow struct {
	ISIN         string   `json:"isin"`
	Name         string   `json:"name"`
	Currency     string   `json:"currency"`
	Domicile     *string  `json:"domicileCountry"`
	Distribution string   `json:"distributionPolicy"`
	Category     *string  `json:"groupValue"`
	TER          *float64 `json:"ter"`
	AUM          *float64 `json:"fundSize"`

	Return1M  *float64 `json:"monthReturn"`
	Return3M  *float64 `json:"threeMonthReturn"`
	Return6M  *float64 `json:"sixMonthReturn"`
	YTD       *float64 `json:"ytdReturn"`
	Return1Y  *float64 `json:"yearReturn"`
	Return3Y  *float64 `json:"threeYearReturn"`
	Return5Y  *float64 `json:"fiveYearReturn"`
	Return10Y *float64 `json:"tenYearReturn"`

	Volatility1Y *float64 `json:"yearVolatility"`
	Volatility3Y *float64 `json:"threeYearVolatility"`
	Volatility5Y *float64 `json:"fiveYearVolatility"`
	MaxDrawdown  *float64 `json:"maxDrawdown"`
}

type justETFResponse struct {
	ETFs []justETFRow `json:"etfs"`
}

// Search queries the screener once per requested Morningstar
// category (or once unfiltered) and flattens the rows.
func (j *JustETF) Search(ctx context.Context, criteria model.SearchCriteria, cb progress.Func) ([]model.SourceRecord, error) {
	if !criteria.WantsType(model.TypeETF) {
		return nil, nil
	}

	queries := criteria.CategoriesMorningstar
	if len(queries) == 0 {
		queries = []string{""}
	}

	var records []model.SourceRecord
	for i, category := range queries {
		progress.Report(cb, float64(i)/float64(len(queries)), fmt.Sprintf("screener query %d/%d", i+1, len(queries)))

		var resp justETFResponse
		if err := j.getJSON(ctx, j.searchURL(category, criteria), &resp); err != nil {
			return records, err
		}
		for _, row := range resp.ETFs {
			records = append(records, j.toRecord(row))
		}
	}

	progress.Report(cb, 1, fmt.Sprintf("%d ETFs", len(records)))
	return records, nil
}

// GetByISIN looks up one ETF.
func (j *JustETF) GetByISIN(ctx context.Context, code string) (*model.SourceRecord, error) {
	code = isin.Normalize(code)

	var resp justETFResponse
	err := j.getJSON(ctx, fmt.Sprintf("%s?isin=%s", j.baseURL, url.QueryEscape(code)), &resp)
	if err != nil {
		if err == ErrNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if len(resp.ETFs) == 0 {
		return nil, ErrNotFound
	}

	rec := j.toRecord(resp.ETFs[0])
	return &rec, nil
}

func (j *JustETF) HealthCheck(ctx context.Context) bool {
	return j.ping(ctx, j.baseURL+"?pageSize=1")
}

func (j *JustETF) searchURL(category string, criteria model.SearchCriteria) string {
	params := url.Values{}
	params.Set("instrumentType", "ETF")
	if category != "" {
		params.Set("category", category)
	}
	if len(criteria.Currencies) > 0 {
		params.Set("currency", strings.Join(criteria.Currencies, ","))
	}
	if criteria.Distribution != nil {
		params.Set("distributionPolicy", string(*criteria.Distribution))
	}
	return j.baseURL + "?" + params.Encode()
}

func (j *JustETF) toRecord(row justETFRow) model.SourceRecord {
	currency := row.Currency
	if currency == "" {
		currency = "EUR"
	}
	return model.SourceRecord{
		ISIN:                isin.Normalize(row.ISIN),
		Name:                row.Name,
		Source:              model.SourceJustETF,
		Type:                model.TypeETF,
		Currency:            currency,
		Domicile:            row.Domicile,
		Distribution:        parseDistribution(row.Distribution),
		CategoryMorningstar: row.Category,
		TER:                 row.TER,
		AUM:                 row.AUM,
		Performance: model.Performance{
			Return1M:  row.Return1M,
			Return3M:  row.Return3M,
			Return6M:  row.Return6M,
			YTD:       row.YTD,
			Return1Y:  row.Return1Y,
			Return3Y:  row.Return3Y,
			Return5Y:  row.Return5Y,
			Return10Y: row.Return10Y,
		},
		Risk: model.RiskMetrics{
			Volatility1Y: row.Volatility1Y,
			Volatility3Y: row.Volatility3Y,
			Volatility5Y: row.Volatility5Y,
			MaxDrawdown:  row.MaxDrawdown,
		},
		RetrievedAt: time.Now(),
	}
}

// parseDistribution normalizes the distribution policy strings the
// platforms use.
func parseDistribution(raw string) model.DistributionPolicy {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "ACC", "ACCUMULATING", "ACCUMULATION", "C":
		return model.DistAccumulating
	case "DIST", "DISTRIBUTING", "DISTRIBUTION", "INC", "D":
		return model.DistDistributing
	default:
		return model.DistUnknown
	}
}
