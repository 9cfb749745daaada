// InsurePredict - Insurance Churn Scoring and Plan Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insurepredict

package main

import (
	"github.com/spf13/cobra"

	"github.com/tomtom215/insurepredict/internal/logging"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "insurectl",
		Short: "insurectl - offline tooling for InsurePredict models",
		Long: `insurectl retrains the churn model from the prediction history and
inspects model artifacts on disk.

It reads the same files the server does, so a retrained model is picked up
the next time the server starts.`,
		Version:      version,
		SilenceUsage: true,
	}

	logLevel := cmd.PersistentFlags().String("log-level", "info", "Log level (trace, debug, info, warn, error)")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		logging.Init(logging.Config{
			Level:     *logLevel,
			Format:    "console",
			Timestamp: true,
			Output:    cmd.ErrOrStderr(),
		})
	}

	cmd.AddCommand(newRetrainCommand())
	cmd.AddCommand(newInspectCommand())
	cmd.AddCommand(newHistoryCommand())

	return cmd
}
