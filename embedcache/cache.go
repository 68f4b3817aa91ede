// Copyright 2025 Commune Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package embedcache caches query-text embeddings behind a single-flight
// barrier so concurrent identical queries cost one provider call.
package embedcache

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-crypt/x/blake2b"
	"golang.org/x/sync/singleflight"

	"github.com/communehq/membersearch/ai"
	"github.com/communehq/membersearch/core"
	"github.com/communehq/membersearch/extract"
	"github.com/communehq/membersearch/storage"
)

// DefaultTTL is how long a cached query vector stays valid.
const DefaultTTL = 24 * time.Hour

var keyPrefix = []byte("vec:")

// Cache wraps an embedder with a persistent TTL cache. Entries are keyed by
// normalized text plus the embedding model version, so a model upgrade never
// serves stale vectors. Store failures degrade to a plain provider call.
type Cache struct {
	embedder ai.Embedder
	kv       storage.KV
	group    singleflight.Group
	ttl      time.Duration
	logger   *slog.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL overrides the cache entry lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) { c.ttl = ttl }
}

// WithLogger sets the cache logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) { c.logger = logger }
}

// New creates an embedding cache over kv. A nil kv disables caching; every
// call then goes straight to the embedder, still de-duplicated in flight.
func New(embedder ai.Embedder, kv storage.KV, opts ...Option) *Cache {
	c := &Cache{
		embedder: embedder,
		kv:       kv,
		ttl:      DefaultTTL,
		logger:   slog.Default().With("component", "embedcache"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Embed returns the vector for text, from cache when possible. Concurrent
// calls for the same normalized text share one provider request. Provider
// failure surfaces as core.ErrProviderUnavailable; cache failures are logged
// and treated as misses.
func (c *Cache) Embed(ctx context.Context, text, modelVersion string) ([]float32, error) {
	norm := extract.NormalizeText(text)
	if norm == "" {
		return nil, core.ErrEmptyQuery
	}
	key := cacheKey(norm, modelVersion)

	if vec := c.lookup(ctx, key, modelVersion); vec != nil {
		return vec, nil
	}

	v, err, _ := c.group.Do(string(key), func() (any, error) {
		// Re-check under the flight lock: a peer may have filled the entry
		// between our miss and this call.
		if vec := c.lookup(ctx, key, modelVersion); vec != nil {
			return vec, nil
		}
		vec, err := c.embedder.EmbedText(ctx, norm)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", core.ErrProviderUnavailable, err)
		}
		c.store(ctx, key, vec, modelVersion)
		return vec, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]float32), nil
}

// lookup returns the cached vector or nil on any miss, mismatch, or error.
func (c *Cache) lookup(ctx context.Context, key []byte, modelVersion string) []float32 {
	if c.kv == nil {
		return nil
	}
	raw, err := c.kv.Get(ctx, key)
	if err != nil {
		if err != storage.ErrNotFound {
			c.logger.Warn("embedding cache read failed", "error", err)
		}
		return nil
	}
	entry, err := storage.UnmarshalVectorCacheEntry(raw)
	if err != nil {
		c.logger.Warn("corrupt embedding cache entry dropped", "error", err)
		_ = c.kv.Delete(ctx, key)
		return nil
	}
	if entry.ModelVersion != modelVersion {
		return nil
	}
	c.bumpHit(ctx, key)
	return entry.Vector
}

func (c *Cache) store(ctx context.Context, key []byte, vec []float32, modelVersion string) {
	if c.kv == nil {
		return
	}
	entry := &core.VectorCacheEntry{
		Vector:       vec,
		ModelVersion: modelVersion,
		HitCount:     0,
		LastUsed:     time.Now().UTC(),
	}
	raw := storage.MarshalVectorCacheEntry(entry)
	if err := c.kv.SetTTL(ctx, key, raw, c.ttl); err != nil {
		c.logger.Warn("embedding cache write failed", "error", err)
	}
}

// bumpHit updates usage stats without extending or resetting the entry TTL
// semantics: the entry is rewritten with a fresh TTL, which is the sliding
// behavior we want for hot queries.
func (c *Cache) bumpHit(ctx context.Context, key []byte) {
	err := c.kv.Update(ctx, key, func(old []byte) ([]byte, time.Duration, error) {
		if old == nil {
			return nil, 0, storage.ErrSkipUpdate
		}
		entry, err := storage.UnmarshalVectorCacheEntry(old)
		if err != nil {
			return nil, 0, storage.ErrSkipUpdate
		}
		entry.HitCount++
		entry.LastUsed = time.Now().UTC()
		return storage.MarshalVectorCacheEntry(entry), c.ttl, nil
	})
	if err != nil {
		c.logger.Warn("embedding cache hit-count update failed", "error", err)
	}
}

// cacheKey hashes normalized text and model version into a fixed-size key.
func cacheKey(norm, modelVersion string) []byte {
	h, _ := blake2b.New(16, nil)
	h.Write([]byte(modelVersion))
	h.Write([]byte{0})
	h.Write([]byte(norm))
	sum := h.Sum(nil)
	key := make([]byte, 0, len(keyPrefix)+hex.EncodedLen(len(sum)))
	key = append(key, keyPrefix...)
	return append(key, hex.EncodeToString(sum)...)
}
