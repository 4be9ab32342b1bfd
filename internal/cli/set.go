// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jeranaias/promptguard-tui/internal/security"
	"github.com/jeranaias/promptguard-tui/internal/storage"
)

func newSetCommand(opts *globalOptions) *cobra.Command {
	var secret bool

	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Validate and store one setting",
		Long: `Store one setting. Security settings are validated the way the panel
validates them: the threshold must lie in [0.01, 1.0] and the model must be
in the catalog. Other keys may only be stored with --secret.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, raw := args[0], args[1]

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
				return err
			}
			value, err := parseSettingValue(key, raw, secret, models)
			if err != nil {
				return err
			}

			op := uuid.NewString()
			entry := env.logger.WithFields(logrus.Fields{
				"op":     op,
				"key":    key,
				"secret": secret,
			})
			if err := env.store.Upsert(ctx, key, value, secret); err != nil {
				entry.WithError(err).Error("failed to save setting")
				return err
			}
			entry.Info("setting saved from command line")

			shown := formatValue(value)
			if secret {
				shown = "********"
			}
			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "✓ %s = %s\n", key, shown)
			if contains(env.store.Overridden(), key) {
				color.New(color.FgYellow).Fprintf(cmd.ErrOrStderr(),
					"! %s is overridden by $%s\n", key, strings.ToUpper(key))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&secret, "secret", false, "Store the value in the secret area")
	return cmd
}

func newUnsetCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "unset <key>",
		Short: "Remove a setting so its default applies",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := opts.open()
			if err != nil {
				return err
			}
			defer env.Close()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if err := env.store.Delete(ctx, args[0]); err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					return &NotFoundError{Resource: "setting", ID: args[0]}
				}
				return err
			}
			env.logger.WithField("key", args[0]).Info("setting removed from command line")
			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "✓ %s removed\n", args[0])
			return nil
		},
	}
}

// parseSettingValue converts command-line text into the typed value stored
// for key.
func parseSettingValue(key, raw string, secret bool, models []security.ModelOption) (any, error) {
	known := contains(security.Keys, key)
	switch {
	case key == "":
		return nil, &ValidationError{Field: "key", Reason: "must not be empty"}
	case known && secret:
		return nil, &ValidationError{Field: "key", Value: key, Reason: "security settings cannot be stored as secrets"}
	case !known && !secret:
		return nil, &ValidationError{
			Field:   "key",
			Value:   key,
			Reason:  "unknown setting",
			Example: "one of " + strings.Join(security.Keys, ", "),
		}
	case !known:
		return raw, nil
	}

	switch key {
	case security.KeyPromptEnabled, security.KeyMLEnabled:
		v, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return nil, &ValidationError{Field: key, Value: raw, Reason: "must be true or false"}
		}
		return v, nil

	case security.KeyPromptThreshold:
		v, ok := security.ParseThreshold(raw)
		if !ok {
			return nil, &ValidationError{
				Field:   key,
				Value:   raw,
				Reason:  "must be a number between 0.01 and 1.0",
				Example: "promptguard set " + key + " 0.7",
			}
		}
		return security.ClampThreshold(v), nil

	case security.KeyMLModel:
		if security.IndexOf(models, raw) < 0 {
			values := make([]string, 0, len(models))
			for _, m := range models {
				values = append(values, m.Value)
			}
			return nil, &ValidationError{
				Field:   key,
				Value:   raw,
				Reason:  "not in the model catalog",
				Example: "one of " + strings.Join(values, ", "),
			}
		}
		return raw, nil
	}
	return raw, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
