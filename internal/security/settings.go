// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package security

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// =============================================================================
// SETTING KEYS
// =============================================================================

// Keys of the prompt-injection settings in the configuration store.
const (
	KeyPromptEnabled   = "security_prompt_enabled"
	KeyPromptThreshold = "security_prompt_threshold"
	KeyMLEnabled       = "security_ml_enabled"
	KeyMLModel         = "security_ml_model"
)

// Keys lists every setting key in display order.
var Keys = []string{
	KeyPromptEnabled,
	KeyPromptThreshold,
	KeyMLEnabled,
	KeyMLModel,
}

// =============================================================================
// THRESHOLD BOUNDS
// =============================================================================

const (
	// DefaultThreshold is shown when no threshold has been stored.
	DefaultThreshold = 0.7

	// ThresholdInputMin and ThresholdInputMax bound what the threshold field
	// accepts on commit and what stepping can reach.
	ThresholdInputMin = 0.01
	ThresholdInputMax = 1.0

	// ThresholdStep is the increment used by the field's step keys.
	ThresholdStep = 0.01
)

// =============================================================================
// SETTINGS
// =============================================================================

// Settings is the typed view of the prompt-injection settings.
type Settings struct {
	PromptEnabled   bool
	PromptThreshold float64
	MLEnabled       bool
	MLModel         string
}

// DefaultSettings returns the values used for keys missing from the store.
func DefaultSettings() Settings {
	return Settings{
		PromptEnabled:   false,
		PromptThreshold: DefaultThreshold,
		MLEnabled:       false,
		MLModel:         DefaultModel,
	}
}

// SettingsFromValues reads the four settings out of a store snapshot.
// Absent or uncoercible values fall back to DefaultSettings.
func SettingsFromValues(values map[string]any) Settings {
	s := DefaultSettings()
	if values == nil {
		return s
	}

	if b, ok := coerceBool(values[KeyPromptEnabled]); ok {
		s.PromptEnabled = b
	}
	if f, ok := coerceFloat(values[KeyPromptThreshold]); ok {
		s.PromptThreshold = f
	}
	if b, ok := coerceBool(values[KeyMLEnabled]); ok {
		s.MLEnabled = b
	}
	if m, ok := values[KeyMLModel].(string); ok && strings.TrimSpace(m) != "" {
		s.MLModel = m
	}
	return s
}

// Values returns the settings as a store-shaped map.
func (s Settings) Values() map[string]any {
	return map[string]any{
		KeyPromptEnabled:   s.PromptEnabled,
		KeyPromptThreshold: s.PromptThreshold,
		KeyMLEnabled:       s.MLEnabled,
		KeyMLModel:         s.MLModel,
	}
}

func coerceBool(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		if err != nil {
			return false, false
		}
		return parsed, true
	}
	return false, false
}

func coerceFloat(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int8:
		f = float64(n)
	case int16:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint8:
		f = float64(n)
	case uint16:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// =============================================================================
// THRESHOLD HELPERS
// =============================================================================

// decimalPattern is the number syntax a threshold may be typed in: plain
// decimals with an optional exponent. Hex floats, underscores, NaN and Inf
// do not match.
var decimalPattern = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

// parseDecimal parses trimmed text as a finite decimal number.
func parseDecimal(text string) (float64, bool) {
	text = strings.TrimSpace(text)
	if !decimalPattern.MatchString(text) {
		return 0, false
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// ParseThreshold parses typed threshold text. It succeeds only for a finite
// decimal inside [ThresholdInputMin, ThresholdInputMax].
func ParseThreshold(text string) (float64, bool) {
	v, ok := parseDecimal(text)
	if !ok {
		return 0, false
	}
	if v < ThresholdInputMin || v > ThresholdInputMax {
		return 0, false
	}
	return v, true
}

// ClampThreshold bounds a threshold to [0, 1] before it is persisted.
func ClampThreshold(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// FormatThreshold renders a threshold using the shortest decimal that
// round-trips, so 0.7 shows as "0.7".
func FormatThreshold(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// StepThreshold moves typed text by delta, staying inside the input bounds
// and rounding to the step precision. Unparsable text steps from the lower
// bound.
func StepThreshold(text string, delta float64) string {
	v, ok := parseDecimal(text)
	if !ok {
		v = ThresholdInputMin
	} else {
		v += delta
	}
	v = math.Round(v*100) / 100
	v = math.Max(ThresholdInputMin, math.Min(ThresholdInputMax, v))
	return FormatThreshold(v)
}
