// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/jeranaias/promptguard-tui/internal/security"
)

func newModelsCommand(opts *globalOptions) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List the ML models available for prompt-injection detection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := opts.open()
			if err != nil {
				return err
			}
			defer env.Close()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			models, err := env.catalog.Models(ctx)
			if err != nil {
				return fmt.Errorf("failed to load model catalog: %w", err)
			}
			values, err := env.store.Values(ctx)
			if err != nil {
				return fmt.Errorf("failed to read settings: %w", err)
			}
			current := security.SettingsFromValues(values).MLModel

			rows := make([]ModelData, 0, len(models))
			for _, m := range models {
				rows = append(rows, ModelData{
					Value:       m.Value,
					Label:       m.Label,
					Description: m.Description,
					Selected:    m.Value == current,
				})
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				return NewJSONResponse("models", rows).Print(out)
			}

			table := tablewriter.NewWriter(out)
			table.SetHeader([]string{"", "Model", "Label", "Description"})
			table.SetBorder(false)
			table.SetColumnSeparator("│")
			table.SetRowSeparator("─")
			table.SetHeaderLine(true)
			table.SetAutoFormatHeaders(false)
			table.SetColWidth(GetTerminalWidth() / 2)
			for _, row := range rows {
				marker := ""
				if row.Selected {
					marker = "*"
				}
				table.Append([]string{marker, row.Value, row.Label, row.Description})
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print JSON")
	return cmd
}
