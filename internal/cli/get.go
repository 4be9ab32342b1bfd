// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/jeranaias/promptguard-tui/internal/security"
	"github.com/jeranaias/promptguard-tui/internal/storage"
)

// Sources reported by get.
const (
	sourceEnv     = "env"
	sourceStore   = "store"
	sourceDefault = "default"
)

func newGetCommand(opts *globalOptions) *cobra.Command {
	var (
		jsonOut bool
		secret  bool
	)

	cmd := &cobra.Command{
		Use:   "get [key]",
		Short: "Print the effective security settings, or one value",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := opts.open()
			if err != nil {
				return err
			}
			defer env.Close()

			rows, err := effectiveSettings(cmd.Context(), env.store)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(args) == 0 {
				if jsonOut {
					return NewJSONResponse("get", rows).Print(out)
				}
				renderSettingsTable(out, rows)
				return nil
			}

			value, err := lookupValue(cmd.Context(), env.store, rows, args[0], secret)
			if err != nil {
				return err
			}
			if jsonOut {
				return NewJSONResponse("get", value).Print(out)
			}
			_, err = fmt.Fprintln(out, formatValue(value))
			return err
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print JSON")
	cmd.Flags().BoolVar(&secret, "secret", false, "Read the key from the secret area")
	return cmd
}

// effectiveSettings resolves each security key to the value the panel would
// show and where it came from.
func effectiveSettings(ctx context.Context, store *storage.EnvOverlay) ([]SettingData, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	values, err := store.Values(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}
	stored, err := store.Store.Values(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}
	overridden := store.Overridden()
	effective := security.SettingsFromValues(values).Values()

	rows := make([]SettingData, 0, len(security.Keys))
	for _, key := range security.Keys {
		source := sourceDefault
		switch {
		case contains(overridden, key):
			source = sourceEnv
		case hasKey(stored, key):
			source = sourceStore
		}
		rows = append(rows, SettingData{Key: key, Value: effective[key], Source: source})
	}
	return rows, nil
}

func lookupValue(ctx context.Context, store storage.Store, rows []SettingData, key string, secret bool) (any, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if secret {
		v, err := store.Secret(ctx, key)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, &NotFoundError{Resource: "secret", ID: key}
		}
		return v, err
	}

	for _, row := range rows {
		if row.Key == key {
			return row.Value, nil
		}
	}
	values, err := store.Values(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}
	if v, ok := values[key]; ok {
		return v, nil
	}
	return nil, &NotFoundError{Resource: "setting", ID: key}
}

func renderSettingsTable(w io.Writer, rows []SettingData) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Key", "Value", "Source"})
	table.SetBorder(false)
	table.SetColumnSeparator("│")
	table.SetRowSeparator("─")
	table.SetHeaderLine(true)
	table.SetAutoFormatHeaders(false)
	for _, row := range rows {
		table.Append([]string{row.Key, formatValue(row.Value), row.Source})
	}
	table.Render()
}

func formatValue(v any) string {
	switch v := v.(type) {
	case float64:
		return security.FormatThreshold(v)
	case bool:
		return strconv.FormatBool(v)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func hasKey(values map[string]any, key string) bool {
	_, ok := values[key]
	return ok
}
