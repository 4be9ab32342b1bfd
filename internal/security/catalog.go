// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package security

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// DefaultModel is the catalog entry selected when none is stored.
const DefaultModel = "deberta-prompt-injection-v2"

// ModelOption describes one selectable detection model.
type ModelOption struct {
	Value       string
	Label       string
	Description string
}

// Catalog supplies the models the selector offers, in display order.
type Catalog interface {
	Models(ctx context.Context) ([]ModelOption, error)
}

// =============================================================================
// STATIC CATALOG
// =============================================================================

// StaticCatalog is a fixed, ordered list of models.
type StaticCatalog []ModelOption

// Models returns a copy of the list.
func (c StaticCatalog) Models(ctx context.Context) ([]ModelOption, error) {
	out := make([]ModelOption, len(c))
	copy(out, c)
	return out, nil
}

// DefaultCatalog returns the built-in model list.
func DefaultCatalog() StaticCatalog {
	return StaticCatalog{
		{
			Value:       DefaultModel,
			Label:       "DeBERTa Prompt Injection v2",
			Description: "Fine-tuned DeBERTa classifier scoring text as safe or injected",
		},
	}
}

// =============================================================================
// CACHED CATALOG
// =============================================================================

const catalogCacheKey = "models"

// CachedCatalog remembers the result of another Catalog for a TTL so a
// remote listing is not re-fetched on every render.
type CachedCatalog struct {
	source Catalog
	cache  *expirable.LRU[string, []ModelOption]
}

// NewCachedCatalog wraps source with a cache of the given TTL.
func NewCachedCatalog(source Catalog, ttl time.Duration) *CachedCatalog {
	return &CachedCatalog{
		source: source,
		cache:  expirable.NewLRU[string, []ModelOption](1, nil, ttl),
	}
}

// Models returns the cached list, fetching from the source on a miss.
// Failed fetches are not cached.
func (c *CachedCatalog) Models(ctx context.Context) ([]ModelOption, error) {
	if models, ok := c.cache.Get(catalogCacheKey); ok {
		return models, nil
	}
	models, err := c.source.Models(ctx)
	if err != nil {
		return nil, err
	}
	c.cache.Add(catalogCacheKey, models)
	return models, nil
}

// Invalidate drops the cached list.
func (c *CachedCatalog) Invalidate() {
	c.cache.Purge()
}

// =============================================================================
// LOOKUP
// =============================================================================

// LabelFor returns the label of value in options, or value itself when the
// model is not listed.
func LabelFor(options []ModelOption, value string) string {
	for _, opt := range options {
		if opt.Value == value && opt.Label != "" {
			return opt.Label
		}
	}
	return value
}

// IndexOf returns the position of value in options, or -1.
func IndexOf(options []ModelOption, value string) int {
	for i, opt := range options {
		if opt.Value == value {
			return i
		}
	}
	return -1
}
