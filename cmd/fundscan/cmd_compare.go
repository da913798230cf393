package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dpaoloni/fundscan/internal/export"
	"github.com/dpaoloni/fundscan/internal/model"
)

func newCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare the fund universe against market benchmarks",
	}
	cmd.AddCommand(newCompareCategoryCmd())
	cmd.AddCommand(newCompareBenchmarkCmd())
	return cmd
}

func newCompareCategoryCmd() *cobra.Command {
	var (
		universePath string
		category     string
		taxonomy     string
		periodsRaw   string
		output       string
	)

	cmd := &cobra.Command{
		Use:   "category",
		Short: "Compare the universe against the best market ETF of a category",
		Long: `Filters the universe by category, finds the most data-complete
market ETF in that category, and reports per-horizon performance deltas
for every universe instrument.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			universe, err := loadUniverse(universePath)
			if err != nil {
				return err
			}
			periods, err := parsePeriods(periodsRaw)
			if err != nil {
				return err
			}
			tax, err := parseTaxonomy(taxonomy)
			if err != nil {
				return err
			}

			rep := a.compare.CompareByCategory(cmd.Context(), universe, category, tax, periods, terminalProgress())
			return writeReport(rep, output)
		},
	}

	cmd.Flags().StringVar(&universePath, "universe", "", "Universe CSV export (required)")
	cmd.Flags().StringVar(&category, "category", "", "Category to compare (required)")
	cmd.Flags().StringVar(&taxonomy, "taxonomy", string(model.TaxonomyMorningstar), "Category taxonomy (morningstar|assogestioni)")
	cmd.Flags().StringVar(&periodsRaw, "periods", "", "Comma-separated horizons (default: all)")
	cmd.Flags().StringVar(&output, "output", "", "Output CSV path (stdout when omitted)")
	_ = cmd.MarkFlagRequired("universe")
	_ = cmd.MarkFlagRequired("category")

	return cmd
}

func newCompareBenchmarkCmd() *cobra.Command {
	var (
		universePath   string
		benchmarkISIN  string
		periodsRaw     string
		filterCategory bool
		output         string
	)

	cmd := &cobra.Command{
		Use:   "benchmark",
		Short: "Compare the universe against one explicit benchmark ETF",
		Long: `Resolves the benchmark ISIN through the universe, the cache, and
the external sources, then reports per-horizon deltas of every universe
instrument against it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			universe, err := loadUniverse(universePath)
			if err != nil {
				return err
			}
			periods, err := parsePeriods(periodsRaw)
			if err != nil {
				return err
			}

			rep := a.compare.CompareToBenchmark(cmd.Context(), benchmarkISIN, universe, periods, filterCategory, terminalProgress())
			if rep.Benchmark == nil {
				return fmt.Errorf("benchmark %s not found in universe, cache, or external sources", benchmarkISIN)
			}
			return writeReport(rep, output)
		},
	}

	cmd.Flags().StringVar(&universePath, "universe", "", "Universe CSV export (required)")
	cmd.Flags().StringVar(&benchmarkISIN, "isin", "", "Benchmark ISIN (required)")
	cmd.Flags().StringVar(&periodsRaw, "periods", "", "Comma-separated horizons (default: all)")
	cmd.Flags().BoolVar(&filterCategory, "filter-category", false, "Restrict the universe to the benchmark's category")
	cmd.Flags().StringVar(&output, "output", "", "Output CSV path (stdout when omitted)")
	_ = cmd.MarkFlagRequired("universe")
	_ = cmd.MarkFlagRequired("isin")

	return cmd
}

func parseTaxonomy(raw string) (model.Taxonomy, error) {
	switch model.Taxonomy(strings.ToLower(strings.TrimSpace(raw))) {
	case model.TaxonomyMorningstar:
		return model.TaxonomyMorningstar, nil
	case model.TaxonomyAssogestioni:
		return model.TaxonomyAssogestioni, nil
	}
	return "", fmt.Errorf("unknown taxonomy %q (morningstar|assogestioni)", raw)
}

// writeReport prints the summary to stderr and the full report as CSV.
func writeReport(rep *model.ComparisonReport, output string) error {
	printSummary(rep)

	w, closeFn, err := openOutput(output)
	if err != nil {
		return err
	}
	defer closeFn()

	if err := export.WriteReport(w, rep); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func printSummary(rep *model.ComparisonReport) {
	fmt.Fprintln(os.Stderr)
	if rep.Benchmark != nil {
		fmt.Fprintf(os.Stderr, "Benchmark: %s (%s)\n", rep.Benchmark.Name, rep.Benchmark.ISIN)
	}
	fmt.Fprintf(os.Stderr, "Instruments: %d universe, %d market\n", rep.UniverseCount, rep.MarketCount)
	fmt.Fprintf(os.Stderr, "At %s: %d beating, %d not beating, %d without data (%.1f%% beat rate)\n",
		strings.ToUpper(string(model.ReferencePeriod)),
		rep.OutperformerCount, rep.UnderperformerCount, rep.IndeterminateCount,
		rep.BeatPercentage())
	if rep.BestPerformer != nil {
		fmt.Fprintf(os.Stderr, "Best: %s (%s)\n", rep.BestPerformer.Instrument.Name, rep.BestPerformer.Instrument.ISIN)
	}
	if rep.WorstPerformer != nil {
		fmt.Fprintf(os.Stderr, "Worst: %s (%s)\n", rep.WorstPerformer.Instrument.Name, rep.WorstPerformer.Instrument.ISIN)
	}
}
