package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/braintrustdata/prompteval-go/eval"
	"github.com/braintrustdata/prompteval-go/strategy"
)

func newRunCmd(a *app) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Evaluate one strategy and write <output-dir>/<strategy>.json",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := strategy.Lookup(name); err != nil {
				return err
			}
			return a.evaluate(cmd, func(ctx context.Context, s *session) (*eval.Result, error) {
				samples, err := s.client.LoadDataset(ctx)
				if err != nil {
					return nil, err
				}
				return s.client.RunStrategy(ctx, name, samples)
			})
		},
	}
	cmd.Flags().StringVarP(&name, "strategy", "s", strategy.Baseline, "strategy to evaluate, see the strategies command")
	return cmd
}

func newRunAllCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run-all",
		Short: "Run every strategy on each sample and write <output-dir>/eval_all.csv",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.evaluate(cmd, func(ctx context.Context, s *session) (*eval.Result, error) {
				samples, err := s.client.LoadDataset(ctx)
				if err != nil {
					return nil, err
				}
				return s.client.RunAll(ctx, samples)
			})
		},
	}
}

// evaluate opens a session, runs fn and prints its result. A partial result
// is printed even when the run stopped early.
func (a *app) evaluate(cmd *cobra.Command, fn func(context.Context, *session) (*eval.Result, error)) (err error) {
	s, err := a.openSession(cmd)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, s.close(context.Background()))
	}()

	res, err := fn(cmd.Context(), s)
	if res != nil {
		fmt.Fprintln(a.out, res)
	}
	if err != nil {
		s.log.Error("run failed", "error", err)
		return err
	}
	return nil
}
