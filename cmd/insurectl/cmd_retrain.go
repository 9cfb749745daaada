// InsurePredict - Insurance Churn Scoring and Plan Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insurepredict

package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tomtom215/insurepredict/internal/logging"
	"github.com/tomtom215/insurepredict/internal/retrain"
)

type retrainOptions struct {
	dataset      string
	output       string
	scaler       string
	seed         int64
	testFraction float64
	trees        int
	maxDepth     int
	learningRate float64
	format       string
}

func newRetrainCommand() *cobra.Command {
	defaults := retrain.DefaultConfig()
	opts := retrainOptions{
		seed:         defaults.Seed,
		testFraction: defaults.TestFraction,
		trees:        defaults.Params.NumTrees,
		maxDepth:     defaults.Params.MaxDepth,
		learningRate: defaults.Params.LearningRate,
	}
	timeout := defaults.Timeout

	cmd := &cobra.Command{
		Use:   "retrain",
		Short: "Retrain the churn model from a history CSV",
		Long: `Retrain fits a new churn classifier on a headered CSV whose last column
is the 0/1 churn label, scores it on a held-out split and writes the model
atomically to the output path.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := retrain.DefaultConfig()
			cfg.Seed = opts.seed
			cfg.TestFraction = opts.testFraction
			cfg.Timeout = timeout
			cfg.ScalerPath = opts.scaler
			cfg.Params.NumTrees = opts.trees
			cfg.Params.MaxDepth = opts.maxDepth
			cfg.Params.LearningRate = opts.learningRate

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runRetrain(ctx, cmd, cfg, &opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.dataset, "dataset", "", "Path to the training CSV")
	f.StringVar(&opts.output, "output", "", "Path the retrained model is written to")
	f.StringVar(&opts.scaler, "scaler", "", "Churn scaler JSON to apply before fitting (the server's scaler_churn.json)")
	f.Int64Var(&opts.seed, "seed", opts.seed, "Seed for the train/holdout split")
	f.Float64Var(&opts.testFraction, "test-fraction", opts.testFraction, "Fraction of rows held out for scoring")
	f.IntVar(&opts.trees, "trees", opts.trees, "Number of boosting rounds")
	f.IntVar(&opts.maxDepth, "max-depth", opts.maxDepth, "Maximum tree depth")
	f.Float64Var(&opts.learningRate, "learning-rate", opts.learningRate, "Shrinkage applied to each tree")
	f.DurationVar(&timeout, "timeout", timeout, "Abort training after this long")
	f.StringVarP(&opts.format, "output-format", "o", "", "Print the full result as yaml or json")
	_ = cmd.MarkFlagRequired("dataset") //nolint:errcheck // flag is defined above
	_ = cmd.MarkFlagRequired("output")  //nolint:errcheck // flag is defined above

	return cmd
}

//nolint:gocritic // cfg is a small value copied into the trainer
func runRetrain(ctx context.Context, cmd *cobra.Command, cfg retrain.Config, opts *retrainOptions) error {
	if opts.testFraction <= 0 || opts.testFraction >= 1 {
		return fmt.Errorf("--test-fraction must be between 0 and 1, got %g", opts.testFraction)
	}

	trainer := retrain.NewTrainer(cfg, logging.Logger())
	res, err := trainer.Retrain(ctx, opts.dataset, opts.output)
	if err != nil {
		return fmt.Errorf("retrain failed: %w", err)
	}

	if opts.format != "" {
		return writeFormatted(cmd.OutOrStdout(), opts.format, res)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Model retrained and saved at: %s\n", res.Path)
	fmt.Fprintf(out, "Holdout accuracy: %.4f (%d train rows, %d holdout rows)\n",
		res.Accuracy, res.TrainRows, res.HoldoutRows)
	return nil
}
