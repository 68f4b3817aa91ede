package badger

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/communehq/membersearch/storage"
)

// KV implements storage.KV on a shared Backend. TTLs ride on BadgerDB entry
// expiry; expired keys read as absent without a sweep.
type KV struct {
	backend *Backend
}

// minTTL is the shortest expiry BadgerDB can represent. Entry expiry is stored
// as a unix timestamp in whole seconds, so anything shorter truncates to the
// current second and can expire before it is ever read.
const minTTL = time.Second

func clampTTL(ttl time.Duration) time.Duration {
	if ttl > 0 && ttl < minTTL {
		return minTTL
	}
	return ttl
}

var _ storage.KV = (*KV)(nil)

// NewKV creates a TTL key-value store over the backend.
func NewKV(backend *Backend) (*KV, error) {
	if backend == nil {
		return nil, storage.ErrBackendRequired
	}
	return &KV{backend: backend}, nil
}

// Get retrieves the value for key.
func (s *KV) Get(ctx context.Context, key []byte) ([]byte, error) {
	var value []byte
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeKVKey(key))
		if err == badger.ErrKeyNotFound {
			return storage.ErrNotFound
		}
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	return value, nil
}

// SetTTL stores value under key with the given ttl. Zero ttl means no expiry;
// a positive ttl below one second is raised to one second (BadgerDB expiry
// granularity).
func (s *KV) SetTTL(ctx context.Context, key, value []byte, ttl time.Duration) error {
	return s.backend.WithTx(func(tx *badger.Txn) error {
		entry := badger.NewEntry(makeKVKey(key), value)
		if ttl = clampTTL(ttl); ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
		if err := tx.SetEntry(entry); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// Delete removes key.
func (s *KV) Delete(ctx context.Context, key []byte) error {
	return s.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Delete(makeKVKey(key)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// DropPrefix removes every key with the given prefix.
func (s *KV) DropPrefix(ctx context.Context, prefix []byte) error {
	return s.backend.DropPrefix(makeKVKey(prefix))
}

// Update atomically applies fn to the current value of key. Transaction
// conflicts retry the whole read-modify-write, so concurrent updates of the
// same key serialize instead of losing increments.
func (s *KV) Update(ctx context.Context, key []byte, fn func(old []byte) ([]byte, time.Duration, error)) error {
	nsKey := makeKVKey(key)
	err := s.backend.WithRetryableTx(func(tx *badger.Txn) error {
		var old []byte
		item, err := tx.Get(nsKey)
		if err != nil && err != badger.ErrKeyNotFound {
			return err
		}
		if err == nil {
			old, err = item.ValueCopy(nil)
			if err != nil {
				return err
			}
		}

		value, ttl, err := fn(old)
		if err != nil {
			return err
		}

		entry := badger.NewEntry(nsKey, value)
		if ttl = clampTTL(ttl); ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
		if err := tx.SetEntry(entry); err != nil {
			return err
		}
		return tx.Commit()
	})
	if errors.Is(err, storage.ErrSkipUpdate) {
		return nil
	}
	return err
}

// Close is a no-op; the shared backend owns the database handle.
func (s *KV) Close() error {
	return nil
}
