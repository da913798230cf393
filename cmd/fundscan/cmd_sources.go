package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dpaoloni/fundscan/internal/model"
)

func newSourcesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sources",
		Short: "Inspect the configured data sources",
	}
	cmd.AddCommand(newSourcesHealthCmd())
	return cmd
}

func newSourcesHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Probe every enabled source",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			status := a.engine.HealthCheck(cmd.Context())

			names := make([]model.Source, 0, len(status))
			for name := range status {
				names = append(names, name)
			}
			sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })

			failing := 0
			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			for _, name := range names {
				state := "ok"
				if !status[name] {
					state = "unreachable"
					failing++
				}
				fmt.Fprintf(tw, "%s\t%s\n", name, state)
			}
			tw.Flush()

			if failing == len(status) {
				return fmt.Errorf("all sources unreachable")
			}
			return nil
		},
	}
}
