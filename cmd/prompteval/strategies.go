package main

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/braintrustdata/prompteval-go/strategy"
)

func newStrategiesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "strategies",
		Short: "List the registered strategies and the fields each one records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "STRATEGY\tFIELDS")
			for _, st := range strategy.All() {
				fmt.Fprintf(tw, "%s\t%s\n", st.Name, strings.Join(st.Fields, ", "))
			}
			parts := slices.Sorted(maps.Keys(strategy.ConsolidatedGradeColumns()))
			fmt.Fprintf(tw, "%s\t%s\n", strategy.ConsolidatedName, strings.Join(parts, " + "))
			return tw.Flush()
		},
	}
}
