package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/braintrustdata/prompteval-go/analysis"
	"github.com/braintrustdata/prompteval-go/strategy"
)

func newAnalyzeCmd(a *app) *cobra.Command {
	var (
		baseline     string
		consolidated bool
	)
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Compare strategy accuracy from the result files in the output directory",
		Long: `Joins result files by question and reports, per strategy, how many answers
were graded correct and which questions improved or regressed relative to the
baseline. With --consolidated the eval_all CSV file is read instead of the
per-strategy JSON files.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig(cmd.Flags())
			if err != nil {
				return err
			}

			var table *analysis.Table
			if consolidated {
				table, err = analysis.LoadConsolidated(
					filepath.Join(cfg.OutputDir, strategy.ConsolidatedName+".csv"),
					strategy.ConsolidatedSchema(),
					strategy.ConsolidatedGradeColumns(),
				)
			} else {
				table, err = analysis.Load(cfg.OutputDir, strategy.Names())
			}
			if err != nil {
				return err
			}
			return table.WriteReport(a.out, baseline)
		},
	}
	cmd.Flags().StringVar(&baseline, "baseline", strategy.Baseline, "strategy the others are compared with")
	cmd.Flags().BoolVar(&consolidated, "consolidated", false, "read eval_all.csv")
	return cmd
}
