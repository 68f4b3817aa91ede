package badger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/communehq/membersearch/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKV_SetGet(t *testing.T) {
	_, kv, backend, err := NewMemoryStores()
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	require.NoError(t, kv.SetTTL(ctx, []byte("k1"), []byte("v1"), 0))

	got, err := kv.Get(ctx, []byte("k1"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), got)

	_, err = kv.Get(ctx, []byte("absent"))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestKV_TTLExpiry(t *testing.T) {
	_, kv, backend, err := NewMemoryStores()
	require.NoError(t, err)
	defer backend.Close()

	// BadgerDB stores expiry in whole seconds, so TTLs must be second-scale
	// to observe both sides of the boundary.
	ctx := context.Background()
	require.NoError(t, kv.SetTTL(ctx, []byte("short"), []byte("v"), 1200*time.Millisecond))

	_, err = kv.Get(ctx, []byte("short"))
	require.NoError(t, err)

	time.Sleep(2500 * time.Millisecond)
	_, err = kv.Get(ctx, []byte("short"))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestKV_SubSecondTTLClamped(t *testing.T) {
	_, kv, backend, err := NewMemoryStores()
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	require.NoError(t, kv.SetTTL(ctx, []byte("tiny"), []byte("v"), 50*time.Millisecond))

	// Unclamped, a 50ms expiry truncates to the current second and the
	// entry can already be gone here.
	_, err = kv.Get(ctx, []byte("tiny"))
	require.NoError(t, err)
}

func TestKV_Delete(t *testing.T) {
	_, kv, backend, err := NewMemoryStores()
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	require.NoError(t, kv.SetTTL(ctx, []byte("k"), []byte("v"), 0))
	require.NoError(t, kv.Delete(ctx, []byte("k")))
	_, err = kv.Get(ctx, []byte("k"))
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// deleting an absent key is not an error
	require.NoError(t, kv.Delete(ctx, []byte("absent")))
}

func TestKV_DropPrefix(t *testing.T) {
	_, kv, backend, err := NewMemoryStores()
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	require.NoError(t, kv.SetTTL(ctx, []byte("res:tenant-a:q1"), []byte("1"), 0))
	require.NoError(t, kv.SetTTL(ctx, []byte("res:tenant-a:q2"), []byte("2"), 0))
	require.NoError(t, kv.SetTTL(ctx, []byte("res:tenant-b:q1"), []byte("3"), 0))

	require.NoError(t, kv.DropPrefix(ctx, []byte("res:tenant-a:")))

	_, err = kv.Get(ctx, []byte("res:tenant-a:q1"))
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = kv.Get(ctx, []byte("res:tenant-a:q2"))
	assert.ErrorIs(t, err, storage.ErrNotFound)

	got, err := kv.Get(ctx, []byte("res:tenant-b:q1"))
	require.NoError(t, err)
	assert.Equal(t, []byte("3"), got)
}

func TestKV_UpdateAtomicIncrement(t *testing.T) {
	_, kv, backend, err := NewMemoryStores()
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	key := []byte("counter")
	const workers = 16
	const perWorker = 10

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				err := kv.Update(ctx, key, func(old []byte) ([]byte, time.Duration, error) {
					var count byte
					if len(old) > 0 {
						count = old[0]
					}
					return []byte{count + 1}, 0, nil
				})
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	got, err := kv.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, byte(workers*perWorker), got[0])
}

func TestKV_UpdateSkip(t *testing.T) {
	_, kv, backend, err := NewMemoryStores()
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	require.NoError(t, kv.SetTTL(ctx, []byte("k"), []byte("keep"), 0))

	err = kv.Update(ctx, []byte("k"), func(old []byte) ([]byte, time.Duration, error) {
		return nil, 0, storage.ErrSkipUpdate
	})
	require.NoError(t, err)

	got, err := kv.Get(ctx, []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("keep"), got)
}
