// Package model defines the domain types shared across fundscan:
// raw per-source records, merged instruments, the user universe, and
// search criteria.
package model

import "time"

// Source identifies an external data provider.
type Source string

const (
	SourceJustETF     Source = "justetf"
	SourceMorningstar Source = "morningstar"
	SourceInvesting   Source = "investing"

	// SourceUniverseUpload tags instruments that entered the system
	// through a universe spreadsheet rather than a scraper.
	SourceUniverseUpload Source = "universe_upload"
)

// InstrumentType classifies a security.
type InstrumentType string

const (
	TypeETF     InstrumentType = "ETF"
	TypeFund    InstrumentType = "FUND"
	TypeUnknown InstrumentType = "UNKNOWN"
)

// DistributionPolicy describes how an instrument handles income.
type DistributionPolicy string

const (
	DistAccumulating DistributionPolicy = "ACC"
	DistDistributing DistributionPolicy = "DIST"
	DistUnknown      DistributionPolicy = "UNKNOWN"
)

// Taxonomy names one of the two category classification systems.
type Taxonomy string

const (
	TaxonomyMorningstar  Taxonomy = "morningstar"
	TaxonomyAssogestioni Taxonomy = "assogestioni"
)

// Period is a performance horizon code.
type Period string

const (
	Period1M  Period = "1m"
	Period3M  Period = "3m"
	Period6M  Period = "6m"
	PeriodYTD Period = "ytd"
	Period1Y  Period = "1y"
	Period3Y  Period = "3y"
	Period5Y  Period = "5y"
	Period7Y  Period = "7y"
	Period9Y  Period = "9y"
	Period10Y Period = "10y"
)

// AllPeriods lists every supported horizon in display order.
var AllPeriods = []Period{
	Period1M, Period3M, Period6M, PeriodYTD, Period1Y,
	Period3Y, Period5Y, Period7Y, Period9Y, Period10Y,
}

// ReferencePeriod is the fixed horizon used for aggregate statistics
// (outperformer counts, best/worst) regardless of the periods a
// caller requested for display.
const ReferencePeriod = Period3Y

// Performance holds returns over the supported horizons, as
// percentages. A nil field means the value is unknown, which is
// different from a 0% return.
type Performance struct {
	Return1M  *float64
	Return3M  *float64
	Return6M  *float64
	YTD       *float64
	Return1Y  *float64
	Return3Y  *float64
	Return5Y  *float64
	Return7Y  *float64
	Return9Y  *float64
	Return10Y *float64
}

// ByPeriod returns the value for the given horizon, or nil for an
// unknown horizon.
func (p Performance) ByPeriod(period Period) *float64 {
	switch period {
	case Period1M:
		return p.Return1M
	case Period3M:
		return p.Return3M
	case Period6M:
		return p.Return6M
	case PeriodYTD:
		return p.YTD
	case Period1Y:
		return p.Return1Y
	case Period3Y:
		return p.Return3Y
	case Period5Y:
		return p.Return5Y
	case Period7Y:
		return p.Return7Y
	case Period9Y:
		return p.Return9Y
	case Period10Y:
		return p.Return10Y
	}
	return nil
}

// setByPeriod writes the value for the given horizon.
func (p *Performance) setByPeriod(period Period, v *float64) {
	switch period {
	case Period1M:
		p.Return1M = v
	case Period3M:
		p.Return3M = v
	case Period6M:
		p.Return6M = v
	case PeriodYTD:
		p.YTD = v
	case Period1Y:
		p.Return1Y = v
	case Period3Y:
		p.Return3Y = v
	case Period5Y:
		p.Return5Y = v
	case Period7Y:
		p.Return7Y = v
	case Period9Y:
		p.Return9Y = v
	case Period10Y:
		p.Return10Y = v
	}
}

// RiskMetrics holds the optional risk vector for an instrument.
type RiskMetrics struct {
	Volatility1Y  *float64
	Volatility3Y  *float64
	Volatility5Y  *float64
	SharpeRatio3Y *float64
	MaxDrawdown   *float64
}

// SourceRecord is one observation of an instrument from one source,
// as delivered by a scraper and before any aggregation. Records are
// immutable once produced.
type SourceRecord struct {
	ISIN         string
	Name         string
	Source       Source
	Type         InstrumentType
	Currency     string
	Domicile     *string
	Distribution DistributionPolicy

	CategoryMorningstar  *string
	CategoryAssogestioni *string

	TER *float64
	AUM *float64

	Performance Performance
	Risk        RiskMetrics

	RetrievedAt time.Time
}

// AggregatedInstrument is the merge output: one consolidated record
// per unique ISIN, combining fields from every contributing source.
type AggregatedInstrument struct {
	ISIN         string
	Name         string
	Type         InstrumentType
	Currency     string
	Domicile     *string
	Distribution DistributionPolicy

	CategoryMorningstar  *string
	CategoryAssogestioni *string

	Performance Performance

	Volatility1Y  *float64
	Volatility3Y  *float64
	SharpeRatio3Y *float64

	// Sources lists the contributing source tags in order of first
	// appearance within the merge group, without duplicates.
	Sources []Source

	// QualityScore is a 0-100 heuristic combining field completeness
	// and source corroboration.
	QualityScore float64

	LastUpdated time.Time
}

// PerformanceByPeriod returns the instrument's return for the given
// horizon, or nil when unavailable.
func (a *AggregatedInstrument) PerformanceByPeriod(period Period) *float64 {
	return a.Performance.ByPeriod(period)
}

// Category returns the instrument's category under the given taxonomy.
func (a *AggregatedInstrument) Category(taxonomy Taxonomy) *string {
	if taxonomy == TaxonomyAssogestioni {
		return a.CategoryAssogestioni
	}
	return a.CategoryMorningstar
}

// HasSource reports whether src contributed to this instrument.
func (a *AggregatedInstrument) HasSource(src Source) bool {
	for _, s := range a.Sources {
		if s == src {
			return true
		}
	}
	return false
}

// SearchCriteria is the filter specification for a multi-source
// search. It is a pure value object.
type SearchCriteria struct {
	CategoriesMorningstar  []string
	CategoriesAssogestioni []string
	Currencies             []string
	Distribution           *DistributionPolicy
	MinPerformance         *float64
	PerformancePeriod      Period
	Types                  []InstrumentType
}

// DefaultCriteria returns criteria matching EUR-denominated ETFs and
// funds with no category or performance constraints.
func DefaultCriteria() SearchCriteria {
	return SearchCriteria{
		Currencies:        []string{"EUR"},
		PerformancePeriod: ReferencePeriod,
		Types:             []InstrumentType{TypeETF, TypeFund},
	}
}

// HasCategoryFilter reports whether any category constraint is set.
func (c SearchCriteria) HasCategoryFilter() bool {
	return len(c.CategoriesMorningstar) > 0 || len(c.CategoriesAssogestioni) > 0
}

// WantsType reports whether t is in the requested instrument types.
// Empty Types means everything is accepted.
func (c SearchCriteria) WantsType(t InstrumentType) bool {
	if len(c.Types) == 0 {
		return true
	}
	for _, want := range c.Types {
		if want == t {
			return true
		}
	}
	return false
}

// Float returns a pointer to v. Convenience for building optional
// fields in literals and tests.
func Float(v float64) *float64 { return &v }

// String returns a pointer to s.
func String(s string) *string { return &s }
