// Package export renders comparison reports and search results to
// CSV for downstream spreadsheet use.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/dpaoloni/fundscan/internal/model"
)

// WriteReport renders a comparison report: one row per result, with
// one delta column per analyzed period, benchmark row included.
// Missing values render as empty cells, never as zeros.
func WriteReport(w io.Writer, rep *model.ComparisonReport) error {
	cw := csv.NewWriter(w)

	header := []string{"ISIN", "Name", "Origin", "Category", "Quality", "Sources"}
	for _, period := range rep.Periods {
		header = append(header, "Perf "+strings.ToUpper(string(period)))
	}
	for _, period := range rep.Periods {
		header = append(header, "Delta "+strings.ToUpper(string(period)))
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i := range rep.Results {
		r := &rep.Results[i]
		row := []string{
			r.Instrument.ISIN,
			r.Instrument.Name,
			string(r.Origin),
			strOrEmpty(r.Instrument.CategoryMorningstar),
			fmt.Sprintf("%.0f", r.Instrument.QualityScore),
			joinSources(r.Instrument.Sources),
		}
		for _, period := range rep.Periods {
			row = append(row, floatOrEmpty(r.Instrument.PerformanceByPeriod(period)))
		}
		for _, period := range rep.Periods {
			row = append(row, floatOrEmpty(r.DeltaByPeriod(period)))
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteInstruments renders aggregated instruments, one per row.
func WriteInstruments(w io.Writer, instruments []model.AggregatedInstrument) error {
	cw := csv.NewWriter(w)

	header := []string{
		"ISIN", "Name", "Type", "Currency", "Domicile", "Distribution",
		"Cat. Morningstar", "Cat. Assogestioni",
	}
	for _, period := range model.AllPeriods {
		header = append(header, "Perf "+strings.ToUpper(string(period)))
	}
	header = append(header, "Volatility 3Y", "Sharpe 3Y", "Sources", "Quality")
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i := range instruments {
		inst := &instruments[i]
		row := []string{
			inst.ISIN,
			inst.Name,
			string(inst.Type),
			inst.Currency,
			strOrEmpty(inst.Domicile),
			string(inst.Distribution),
			strOrEmpty(inst.CategoryMorningstar),
			strOrEmpty(inst.CategoryAssogestioni),
		}
		for _, period := range model.AllPeriods {
			row = append(row, floatOrEmpty(inst.PerformanceByPeriod(period)))
		}
		row = append(row,
			floatOrEmpty(inst.Volatility3Y),
			floatOrEmpty(inst.SharpeRatio3Y),
			joinSources(inst.Sources),
			fmt.Sprintf("%.0f", inst.QualityScore),
		)
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func floatOrEmpty(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%.2f", *v)
}

func joinSources(sources []model.Source) string {
	parts := make([]string, 0, len(sources))
	for _, s := range sources {
		parts = append(parts, string(s))
	}
	return strings.Join(parts, ", ")
}
