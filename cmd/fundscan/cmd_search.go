package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dpaoloni/fundscan/internal/export"
	"github.com/dpaoloni/fundscan/internal/model"
)

func newSearchCmd() *cobra.Command {
	var (
		instrumentType string
		categoriesMS   []string
		categoriesAsso []string
		currencies     []string
		minPerf        float64
		period         string
		output         string
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search instruments across all data sources",
		Long: `Queries every enabled source in parallel, merges records by ISIN
with per-field source priority, and writes the aggregated result as CSV.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			criteria := model.DefaultCriteria()
			criteria.CategoriesMorningstar = categoriesMS
			criteria.CategoriesAssogestioni = categoriesAsso
			if len(currencies) > 0 {
				criteria.Currencies = currencies
			}
			if p, err := parsePeriod(period); err == nil {
				criteria.PerformancePeriod = p
			} else {
				return err
			}
			if cmd.Flags().Changed("min-perf") {
				criteria.MinPerformance = &minPerf
			}

			switch strings.ToLower(instrumentType) {
			case "etf":
				criteria.Types = []model.InstrumentType{model.TypeETF}
			case "fund":
				criteria.Types = []model.InstrumentType{model.TypeFund}
			case "all", "":
				// DefaultCriteria already covers both.
			default:
				return fmt.Errorf("unknown instrument type %q (etf|fund|all)", instrumentType)
			}

			instruments := a.engine.Search(cmd.Context(), criteria, terminalProgress())

			w, closeFn, err := openOutput(output)
			if err != nil {
				return err
			}
			defer closeFn()

			if err := export.WriteInstruments(w, instruments); err != nil {
				return fmt.Errorf("failed to write results: %w", err)
			}
			fmt.Fprintf(os.Stderr, "%d instruments found\n", len(instruments))
			return nil
		},
	}

	cmd.Flags().StringVar(&instrumentType, "type", "all", "Instrument type filter (etf|fund|all)")
	cmd.Flags().StringSliceVar(&categoriesMS, "category-morningstar", nil, "Morningstar category filters")
	cmd.Flags().StringSliceVar(&categoriesAsso, "category-assogestioni", nil, "Assogestioni category filters")
	cmd.Flags().StringSliceVar(&currencies, "currency", nil, "Currency filters (default EUR)")
	cmd.Flags().Float64Var(&minPerf, "min-perf", 0, "Minimum performance at --period, percent")
	cmd.Flags().StringVar(&period, "period", string(model.ReferencePeriod), "Performance horizon for --min-perf")
	cmd.Flags().StringVar(&output, "output", "", "Output CSV path (stdout when omitted)")

	return cmd
}

// parsePeriod validates a horizon tag against the known set.
func parsePeriod(raw string) (model.Period, error) {
	p := model.Period(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range model.AllPeriods {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown period %q", raw)
}

// parsePeriods validates a comma-separated horizon list; empty input
// selects all horizons.
func parsePeriods(raw string) ([]model.Period, error) {
	if strings.TrimSpace(raw) == "" {
		return model.AllPeriods, nil
	}
	var periods []model.Period
	for _, part := range strings.Split(raw, ",") {
		p, err := parsePeriod(part)
		if err != nil {
			return nil, err
		}
		periods = append(periods, p)
	}
	return periods, nil
}

// openOutput returns a writer for path, or stdout when path is empty.
func openOutput(path string) (*os.File, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, func() { f.Close() }, nil
}
