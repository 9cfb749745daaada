// InsurePredict - Insurance Churn Scoring and Plan Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insurepredict

package main

import (
	"github.com/spf13/cobra"

	"github.com/tomtom215/insurepredict/internal/history"
)

// historySummary is what `insurectl history` prints.
type historySummary struct {
	Path      string  `json:"path" yaml:"path"`
	Rows      int     `json:"rows" yaml:"rows"`
	Churned   int     `json:"churned" yaml:"churned"`
	ChurnRate float64 `json:"churn_rate" yaml:"churn_rate"`
}

func newHistoryCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "history <history-csv>",
		Short: "Summarize a prediction history log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := history.Load(args[0])
			if err != nil {
				return err
			}
			return writeFormatted(cmd.OutOrStdout(), format, summarizeHistory(args[0], table))
		},
	}

	cmd.Flags().StringVarP(&format, "output", "o", formatYAML, "Output format: yaml or json")
	return cmd
}

func summarizeHistory(path string, t *history.Table) historySummary {
	s := historySummary{Path: path, Rows: t.Len()}
	for i := 0; i < t.Len(); i++ {
		if t.Label(i) == 1 {
			s.Churned++
		}
	}
	if s.Rows > 0 {
		s.ChurnRate = float64(s.Churned) / float64(s.Rows)
	}
	return s
}
