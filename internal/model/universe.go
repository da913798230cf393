package model

// UniverseInstrument is an instrument loaded from the user's
// spreadsheet, carrying precomputed performance. Performance values
// are fractional (0.0825 means 8.25%), unlike the percentage values
// used by scraped records.
type UniverseInstrument struct {
	ISIN string
	Name *string

	CategoryMorningstar *string
	CategorySFDR        *string

	// Fractional returns, nil when the column was empty.
	PerfYTD    *float64
	Perf1M     *float64
	Perf3M     *float64
	Perf6M     *float64
	Perf1Y     *float64
	Perf3Y     *float64
	Perf5Y     *float64
	Perf7Y     *float64
	Perf9Y     *float64
	Perf10Y    *float64
	PerfCustom *float64

	TER           *float64
	VaR3M         *float64
	MarketPrice5Y *float64

	// SourceRow is the originating row in the uploaded file, for
	// traceability in load warnings.
	SourceRow int
}

// PerformanceByPeriod returns the fractional return for the given
// horizon, or nil.
func (u *UniverseInstrument) PerformanceByPeriod(period Period) *float64 {
	switch period {
	case Period1M:
		return u.Perf1M
	case Period3M:
		return u.Perf3M
	case Period6M:
		return u.Perf6M
	case PeriodYTD:
		return u.PerfYTD
	case Period1Y:
		return u.Perf1Y
	case Period3Y:
		return u.Perf3Y
	case Period5Y:
		return u.Perf5Y
	case Period7Y:
		return u.Perf7Y
	case Period9Y:
		return u.Perf9Y
	case Period10Y:
		return u.Perf10Y
	}
	return nil
}

// ToAggregated converts the universe instrument to the aggregated
// shape used by comparison and export. The conversion is lossy (TER,
// VaR and the custom performance column are dropped) and rescales the
// fractional returns to percentages: 0.0825 becomes 8.25.
func (u *UniverseInstrument) ToAggregated() AggregatedInstrument {
	name := u.ISIN
	if u.Name != nil && *u.Name != "" {
		name = *u.Name
	}
	agg := AggregatedInstrument{
		ISIN:                u.ISIN,
		Name:                name,
		Type:                TypeFund,
		Currency:            "EUR",
		Distribution:        DistUnknown,
		CategoryMorningstar: u.CategoryMorningstar,
		Sources:             []Source{SourceUniverseUpload},
		// Spreadsheet rows arrive complete by contract, so the
		// completeness heuristic does not apply.
		QualityScore: 100,
	}
	for _, period := range AllPeriods {
		agg.Performance.setByPeriod(period, fractionToPercent(u.PerformanceByPeriod(period)))
	}
	return agg
}

func fractionToPercent(v *float64) *float64 {
	if v == nil {
		return nil
	}
	pct := *v * 100
	return &pct
}

// UniverseLoadResult summarizes a spreadsheet load: the valid
// instruments plus everything that went wrong on the way.
type UniverseLoadResult struct {
	Instruments []UniverseInstrument
	Errors      []string
	Warnings    []string

	TotalRows    int
	ValidCount   int
	InvalidCount int
}

// Success reports whether the load produced at least one valid
// instrument without hard errors.
func (r *UniverseLoadResult) Success() bool {
	return r.ValidCount > 0 && len(r.Errors) == 0
}
