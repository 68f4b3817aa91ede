package resultcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/communehq/membersearch/core"
	badgerstore "github.com/communehq/membersearch/storage/badger"
)

func newTestCache(t *testing.T, opts ...Option) *Cache {
	t.Helper()
	_, kv, backend, err := badgerstore.NewMemoryStores()
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })
	return New(kv, opts...)
}

func testKey(tenant core.TenantID, query string) Key {
	return Key{TenantID: tenant, QueryText: query, MaxResults: 10}
}

func staticResponse(text string) func(context.Context) (*core.CachedResponse, error) {
	return func(context.Context) (*core.CachedResponse, error) {
		return &core.CachedResponse{Text: text, Intent: core.IntentMemberSearch}, nil
	}
}

func TestGetOrComputeCachesSecondCall(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()
	key := testKey("acme", "find ai experts")

	computeCalls := 0
	compute := func(context.Context) (*core.CachedResponse, error) {
		computeCalls++
		return &core.CachedResponse{Text: "found 3 members", Intent: core.IntentMemberSearch}, nil
	}

	first, fromCache, err := cache.GetOrCompute(ctx, key, compute)
	require.NoError(t, err)
	assert.False(t, fromCache)

	second, fromCache, err := cache.GetOrCompute(ctx, key, compute)
	require.NoError(t, err)
	assert.True(t, fromCache)
	assert.Equal(t, first.Text, second.Text)
	assert.Equal(t, 1, computeCalls)
}

func TestKeyNormalizationAndFingerprint(t *testing.T) {
	a := Key{TenantID: "acme", QueryText: "  Find   AI  Experts ", MaxResults: 10,
		Entities: core.Entities{Skills: []string{"ml", "ai"}}}
	b := Key{TenantID: "acme", QueryText: "find ai experts", MaxResults: 10,
		Entities: core.Entities{Skills: []string{"ai", "ml"}}}

	assert.Equal(t, a.storageKey(), b.storageKey(),
		"whitespace, case, and skill order must not fragment the cache")

	c := Key{TenantID: "acme", QueryText: "find ai experts", MaxResults: 20,
		Entities: core.Entities{Skills: []string{"ai", "ml"}}}
	assert.NotEqual(t, a.storageKey(), c.storageKey())
}

func TestTenantIsolation(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	_, _, err := cache.GetOrCompute(ctx, testKey("acme", "find caterers"), staticResponse("acme answer"))
	require.NoError(t, err)

	resp, fromCache, err := cache.GetOrCompute(ctx, testKey("rival", "find caterers"), staticResponse("rival answer"))
	require.NoError(t, err)
	assert.False(t, fromCache, "tenants must never share cache entries")
	assert.Equal(t, "rival answer", resp.Text)
}

func TestInvalidateTenant(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	_, _, err := cache.GetOrCompute(ctx, testKey("acme", "find caterers"), staticResponse("stale"))
	require.NoError(t, err)
	_, _, err = cache.GetOrCompute(ctx, testKey("rival", "find caterers"), staticResponse("untouched"))
	require.NoError(t, err)

	require.NoError(t, cache.InvalidateTenant(ctx, "acme"))

	// The invalidated tenant recomputes; the other tenant still hits.
	resp, fromCache, err := cache.GetOrCompute(ctx, testKey("acme", "find caterers"), staticResponse("fresh"))
	require.NoError(t, err)
	assert.False(t, fromCache)
	assert.Equal(t, "fresh", resp.Text)

	_, fromCache, err = cache.GetOrCompute(ctx, testKey("rival", "find caterers"), staticResponse("recomputed"))
	require.NoError(t, err)
	assert.True(t, fromCache)
}

func TestInvalidateEmptyTenant(t *testing.T) {
	cache := newTestCache(t)
	assert.ErrorIs(t, cache.InvalidateTenant(context.Background(), ""), core.ErrEmptyTenant)
}

func TestComputeErrorNotCached(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()
	key := testKey("acme", "find caterers")

	boom := errors.New("ranker exploded")
	_, _, err := cache.GetOrCompute(ctx, key, func(context.Context) (*core.CachedResponse, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)

	resp, fromCache, err := cache.GetOrCompute(ctx, key, staticResponse("recovered"))
	require.NoError(t, err)
	assert.False(t, fromCache)
	assert.Equal(t, "recovered", resp.Text)
}

func TestDegradedResponseNotCached(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()
	key := testKey("acme", "find caterers")

	_, _, err := cache.GetOrCompute(ctx, key, func(context.Context) (*core.CachedResponse, error) {
		return &core.CachedResponse{Text: "partial answer", Degraded: true}, nil
	})
	require.NoError(t, err)

	_, fromCache, err := cache.GetOrCompute(ctx, key, staticResponse("full answer"))
	require.NoError(t, err)
	assert.False(t, fromCache, "a degraded answer must not be replayed after recovery")
}

func TestTTLExpiry(t *testing.T) {
	// Second-scale TTL: the badger store rounds expiry to whole seconds.
	cache := newTestCache(t, WithTTL(1200*time.Millisecond))
	ctx := context.Background()
	key := testKey("acme", "find caterers")

	_, _, err := cache.GetOrCompute(ctx, key, staticResponse("first"))
	require.NoError(t, err)

	time.Sleep(2500 * time.Millisecond)

	_, fromCache, err := cache.GetOrCompute(ctx, key, staticResponse("second"))
	require.NoError(t, err)
	assert.False(t, fromCache)
}

func TestHitsDoNotExtendExpiry(t *testing.T) {
	cache := newTestCache(t, WithTTL(2*time.Second))
	ctx := context.Background()
	key := testKey("acme", "find caterers")

	computeCalls := 0
	compute := func(context.Context) (*core.CachedResponse, error) {
		computeCalls++
		return &core.CachedResponse{Text: "answer", Intent: core.IntentMemberSearch}, nil
	}

	_, _, err := cache.GetOrCompute(ctx, key, compute)
	require.NoError(t, err)

	// Keep hitting well past the TTL. If a hit refreshed the lifetime the
	// entry would never expire under this traffic.
	for i := 0; i < 6; i++ {
		time.Sleep(700 * time.Millisecond)
		_, _, err := cache.GetOrCompute(ctx, key, compute)
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, computeCalls, 2,
		"the entry must expire on schedule no matter how often it is read")
}

func TestHitCountIncrements(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()
	key := testKey("acme", "find caterers")

	_, _, err := cache.GetOrCompute(ctx, key, staticResponse("answer"))
	require.NoError(t, err)

	for want := int64(1); want <= 3; want++ {
		resp, fromCache, err := cache.GetOrCompute(ctx, key, staticResponse("answer"))
		require.NoError(t, err)
		require.True(t, fromCache)
		assert.Equal(t, want, resp.HitCount)
	}
}

func TestNilKVAlwaysMisses(t *testing.T) {
	cache := New(nil)
	ctx := context.Background()
	key := testKey("acme", "find caterers")

	computeCalls := 0
	compute := func(context.Context) (*core.CachedResponse, error) {
		computeCalls++
		return &core.CachedResponse{Text: "answer"}, nil
	}

	for i := 0; i < 2; i++ {
		_, fromCache, err := cache.GetOrCompute(ctx, key, compute)
		require.NoError(t, err)
		assert.False(t, fromCache)
	}
	assert.Equal(t, 2, computeCalls)
	assert.NoError(t, cache.InvalidateTenant(ctx, "acme"))
}
