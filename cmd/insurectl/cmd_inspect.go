// InsurePredict - Insurance Churn Scoring and Plan Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insurepredict

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tomtom215/insurepredict/internal/registry"
)

func newInspectCommand() *cobra.Command {
	var (
		format string
		verify bool
	)

	cmd := &cobra.Command{
		Use:   "inspect <model-file>...",
		Short: "Print the metadata stored with model artifacts",
		Long: `Inspect reads the metadata header of each model file. With --verify the
full model is also decompressed and its checksum checked.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			metas := make([]*registry.Metadata, 0, len(args))
			for _, path := range args {
				var (
					meta *registry.Metadata
					err  error
				)
				if verify {
					_, meta, err = registry.LoadModel(path)
				} else {
					meta, err = registry.ReadMetadata(path)
				}
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				metas = append(metas, meta)
			}
			if len(metas) == 1 {
				return writeFormatted(cmd.OutOrStdout(), format, metas[0])
			}
			return writeFormatted(cmd.OutOrStdout(), format, metas)
		},
	}

	cmd.Flags().StringVarP(&format, "output", "o", formatYAML, "Output format: yaml or json")
	cmd.Flags().BoolVar(&verify, "verify", false, "Decode the model and verify its checksum")
	return cmd
}
