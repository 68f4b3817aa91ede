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


// Package resultcache stores fully ranked responses per tenant, letting
// repeated identical queries replay without touching the embedder or ranker.
// Invalidation is explicit and tenant-wide: the external CRUD layer calls
// InvalidateTenant after member data changes.
package resultcache

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-crypt/x/blake2b"

	"github.com/communehq/membersearch/core"
	"github.com/communehq/membersearch/extract"
	"github.com/communehq/membersearch/storage"
)

// DefaultTTL bounds staleness for tenants whose CRUD layer never calls
// InvalidateTenant.
const DefaultTTL = time.Hour

const keyPrefix = "res:"

// Key identifies one cacheable query. Two requests share an entry only when
// every field agrees.
type Key struct {
	TenantID   core.TenantID
	QueryText  string
	Entities   core.Entities
	MaxResults int
}

// Cache is a tenant-partitioned response cache over a TTL key-value store.
// It degrades to always-miss when the store fails; a broken cache slows
// queries down but never blocks them.
type Cache struct {
	kv     storage.KV
	ttl    time.Duration
	logger *slog.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL overrides the entry lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) { c.ttl = ttl }
}

// WithLogger sets the cache logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) { c.logger = logger }
}

// New creates a result cache over kv. A nil kv yields a cache that always
// misses.
func New(kv storage.KV, opts ...Option) *Cache {
	c := &Cache{
		kv:     kv,
		ttl:    DefaultTTL,
		logger: slog.Default().With("component", "resultcache"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetOrCompute returns the cached response for key, or runs compute and
// stores its result. The fromCache flag tells the caller whether compute ran.
// Responses marked Degraded are never stored: a degraded answer should not
// outlive the outage that produced it.
func (c *Cache) GetOrCompute(ctx context.Context, key Key, compute func(context.Context) (*core.CachedResponse, error)) (resp *core.CachedResponse, fromCache bool, err error) {
	storageKey := key.storageKey()

	if cached := c.lookup(ctx, storageKey); cached != nil {
		return cached, true, nil
	}

	resp, err = compute(ctx)
	if err != nil {
		return nil, false, err
	}
	if !resp.Degraded {
		c.store(ctx, storageKey, resp)
	}
	return resp, false, nil
}

// InvalidateTenant drops every cached response for the tenant. Called by the
// external CRUD layer whenever member data changes.
func (c *Cache) InvalidateTenant(ctx context.Context, tenant core.TenantID) error {
	if tenant == "" {
		return core.ErrEmptyTenant
	}
	if c.kv == nil {
		return nil
	}
	if err := c.kv.DropPrefix(ctx, tenantPrefix(tenant)); err != nil {
		return fmt.Errorf("invalidate tenant %q: %w", tenant, err)
	}
	c.logger.Info("result cache invalidated", "tenant", tenant)
	return nil
}

func (c *Cache) lookup(ctx context.Context, key []byte) *core.CachedResponse {
	if c.kv == nil {
		return nil
	}
	raw, err := c.kv.Get(ctx, key)
	if err != nil {
		if err != storage.ErrNotFound {
			c.logger.Warn("result cache read failed", "error", err)
		}
		return nil
	}
	resp, err := storage.UnmarshalCachedResponse(raw)
	if err != nil {
		c.logger.Warn("corrupt result cache entry dropped", "error", err)
		_ = c.kv.Delete(ctx, key)
		return nil
	}
	c.bumpHit(ctx, key)
	resp.HitCount++
	return resp
}

func (c *Cache) store(ctx context.Context, key []byte, resp *core.CachedResponse) {
	if c.kv == nil {
		return
	}
	resp.StoredAt = time.Now().UTC()
	if err := c.kv.SetTTL(ctx, key, storage.MarshalCachedResponse(resp), c.ttl); err != nil {
		c.logger.Warn("result cache write failed", "error", err)
	}
}

// bumpHit persists the hit counter. The stored TTL is not extended: the entry
// is rewritten with whatever lifetime it has left, so a cached answer expires
// on schedule no matter how popular it is.
func (c *Cache) bumpHit(ctx context.Context, key []byte) {
	err := c.kv.Update(ctx, key, func(old []byte) ([]byte, time.Duration, error) {
		if old == nil {
			return nil, 0, storage.ErrSkipUpdate
		}
		resp, err := storage.UnmarshalCachedResponse(old)
		if err != nil {
			return nil, 0, storage.ErrSkipUpdate
		}
		remaining := time.Duration(0)
		if c.ttl > 0 {
			remaining = c.ttl - time.Since(resp.StoredAt)
			if remaining <= 0 {
				return nil, 0, storage.ErrSkipUpdate
			}
		}
		resp.HitCount++
		return storage.MarshalCachedResponse(resp), remaining, nil
	})
	if err != nil {
		c.logger.Warn("result cache hit-count update failed", "error", err)
	}
}

// storageKey builds "res:<tenant>:<hash>". The tenant stays in cleartext so
// DropPrefix can erase one tenant without touching the rest.
func (k Key) storageKey() []byte {
	h, _ := blake2b.New(16, nil)
	h.Write([]byte(extract.NormalizeText(k.QueryText)))
	h.Write([]byte{0})
	h.Write([]byte(k.Entities.Fingerprint()))
	h.Write([]byte{0})
	fmt.Fprintf(h, "%d", k.MaxResults)

	key := append([]byte(nil), tenantPrefix(k.TenantID)...)
	return append(key, hex.EncodeToString(h.Sum(nil))...)
}

func tenantPrefix(tenant core.TenantID) []byte {
	return []byte(keyPrefix + string(tenant) + ":")
}
