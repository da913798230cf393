package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dpaoloni/fundscan/internal/model"
)

func newBenchmarkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "benchmark",
		Short: "Resolve and preload benchmark instruments",
	}
	cmd.AddCommand(newBenchmarkResolveCmd())
	cmd.AddCommand(newBenchmarkPreloadCmd())
	cmd.AddCommand(newBenchmarkStatusCmd())
	return cmd
}

func newBenchmarkResolveCmd() *cobra.Command {
	var universePath string

	cmd := &cobra.Command{
		Use:   "resolve <ISIN>",
		Short: "Resolve one benchmark ISIN and print its data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			var universe []model.UniverseInstrument
			if universePath != "" {
				universe, err = loadUniverse(universePath)
				if err != nil {
					return err
				}
			}

			inst := a.resolver.Resolve(cmd.Context(), args[0], universe)
			if inst == nil {
				return fmt.Errorf("benchmark %s not found", args[0])
			}

			printInstrument(inst)
			return nil
		},
	}

	cmd.Flags().StringVar(&universePath, "universe", "", "Universe CSV to consult before external sources")
	return cmd
}

func newBenchmarkPreloadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preload <ISIN>...",
		Short: "Resolve a batch of benchmark ISINs ahead of comparisons",
		Long: `Resolves up to the preload cap of ISINs through the external
sources and reports the per-ISIN outcome.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			result := a.resolver.Preload(cmd.Context(), args)

			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			for _, o := range result.Loaded {
				state := "loaded"
				if o.Cached {
					state = "cached"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", o.ISIN, state, o.Name)
			}
			for _, o := range result.Failed {
				fmt.Fprintf(tw, "%s\tfailed\t%s\n", o.ISIN, o.Reason)
			}
			tw.Flush()

			status := a.cache.Status()
			fmt.Fprintf(os.Stderr, "%d loaded, %d failed, %d in cache\n",
				len(result.Loaded), len(result.Failed), status.Count)
			return nil
		},
	}
	return cmd
}

func newBenchmarkStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the benchmark cache contents",
		Long: `Reports what the benchmark cache holds. The cache lives for the
duration of one process, so outside a preload-then-compare pipeline
this typically shows an empty cache.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			status := a.cache.Status()
			fmt.Printf("%d benchmark(s) cached\n", status.Count)
			for _, code := range status.ISINs {
				fmt.Println("  " + code)
			}
			if status.ExpiresInMinutes != nil {
				fmt.Printf("oldest entry expires in %d minute(s)\n", *status.ExpiresInMinutes)
			}
			return nil
		},
	}
}

func printInstrument(inst *model.AggregatedInstrument) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "ISIN\t%s\n", inst.ISIN)
	fmt.Fprintf(tw, "Name\t%s\n", inst.Name)
	fmt.Fprintf(tw, "Type\t%s\n", inst.Type)
	if inst.Currency != "" {
		fmt.Fprintf(tw, "Currency\t%s\n", inst.Currency)
	}
	if inst.CategoryMorningstar != nil {
		fmt.Fprintf(tw, "Category\t%s\n", *inst.CategoryMorningstar)
	}
	for _, period := range model.AllPeriods {
		if perf := inst.PerformanceByPeriod(period); perf != nil {
			fmt.Fprintf(tw, "Perf %s\t%.2f%%\n", period, *perf)
		}
	}
	fmt.Fprintf(tw, "Quality\t%.0f\n", inst.QualityScore)
	tw.Flush()
}
