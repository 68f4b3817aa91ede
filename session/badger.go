package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/communehq/membersearch/core"
	"github.com/communehq/membersearch/storage"
)

// KVStore implements Store on the storage.KV abstraction; the default wiring
// backs it with the shared BadgerDB instance.
type KVStore struct {
	kv           storage.KV
	ttl          time.Duration
	historyLimit int
	now          func() time.Time
}

var _ Store = (*KVStore)(nil)

// KVOption configures a KVStore.
type KVOption func(*KVStore)

// WithTTL overrides the sliding session lifetime.
func WithTTL(ttl time.Duration) KVOption {
	return func(s *KVStore) { s.ttl = ttl }
}

// WithHistoryLimit overrides the per-session turn cap.
func WithHistoryLimit(limit int) KVOption {
	return func(s *KVStore) { s.historyLimit = limit }
}

// withClock substitutes the time source in tests.
func withClock(now func() time.Time) KVOption {
	return func(s *KVStore) { s.now = now }
}

// NewKVStore creates a session store over kv.
func NewKVStore(kv storage.KV, opts ...KVOption) (*KVStore, error) {
	if kv == nil {
		return nil, storage.ErrBackendRequired
	}
	s := &KVStore{
		kv:           kv,
		ttl:          DefaultTTL,
		historyLimit: DefaultHistoryLimit,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// GetOrCreate returns the live session, creating one when absent. The read
// renews the TTL so an active conversation never expires mid-exchange.
func (s *KVStore) GetOrCreate(ctx context.Context, tenant core.TenantID, userID string) (*core.Session, error) {
	if tenant == "" {
		return nil, core.ErrEmptyTenant
	}
	key := sessionKey(tenant, userID)
	var session *core.Session
	err := s.kv.Update(ctx, key, func(old []byte) ([]byte, time.Duration, error) {
		now := s.now().UTC()
		if old == nil {
			session = &core.Session{
				UserId:       userID,
				TenantId:     tenant,
				CreatedAt:    now,
				LastActiveAt: now,
			}
		} else {
			var err error
			session, err = storage.UnmarshalSession(old)
			if err != nil {
				// A corrupt session is replaced, not fatal.
				session = &core.Session{
					UserId:       userID,
					TenantId:     tenant,
					CreatedAt:    now,
					LastActiveAt: now,
				}
			}
			session.LastActiveAt = now
		}
		return storage.MarshalSession(session), s.ttl, nil
	})
	if err != nil {
		return nil, &core.DataStoreError{Op: "session get", Err: err}
	}
	return session, nil
}

// AppendTurn appends to history, evicting the oldest turn past the cap.
func (s *KVStore) AppendTurn(ctx context.Context, tenant core.TenantID, userID string, turn core.Turn) error {
	if tenant == "" {
		return core.ErrEmptyTenant
	}
	key := sessionKey(tenant, userID)
	err := s.kv.Update(ctx, key, func(old []byte) ([]byte, time.Duration, error) {
		now := s.now().UTC()
		session := &core.Session{
			UserId:    userID,
			TenantId:  tenant,
			CreatedAt: now,
		}
		if old != nil {
			if parsed, err := storage.UnmarshalSession(old); err == nil {
				session = parsed
			}
		}
		session.History = append(session.History, turn)
		if len(session.History) > s.historyLimit {
			session.History = session.History[len(session.History)-s.historyLimit:]
		}
		session.LastActiveAt = now
		session.MessageCount++
		if turn.Extraction.Intent.IsSearch() {
			session.SearchCount++
		}
		return storage.MarshalSession(session), s.ttl, nil
	})
	if err != nil {
		return &core.DataStoreError{Op: "session append", Err: err}
	}
	return nil
}

// CheckAndIncrement bumps a fixed-window counter. The read-check-increment
// runs inside one atomic update: concurrent callers serialize, so the counter
// can never pass the limit by racing.
func (s *KVStore) CheckAndIncrement(ctx context.Context, tenant core.TenantID, userID string, category core.RateCategory, limit int64, window time.Duration) error {
	if tenant == "" {
		return core.ErrEmptyTenant
	}
	if limit <= 0 || window <= 0 {
		return nil
	}
	key := rateKey(tenant, userID, category)
	err := s.kv.Update(ctx, key, func(old []byte) ([]byte, time.Duration, error) {
		now := s.now().UTC()
		rate := &core.RateWindow{WindowStart: now}
		if old != nil {
			if parsed, err := storage.UnmarshalRateWindow(old); err == nil {
				rate = parsed
			}
		}
		if now.Sub(rate.WindowStart) >= window {
			rate.Count = 0
			rate.WindowStart = now
		}
		if rate.Count >= limit {
			retryAfter := rate.WindowStart.Add(window).Sub(now)
			return nil, 0, &core.RateLimitError{Category: category, RetryAfter: retryAfter}
		}
		rate.Count++
		ttl := rate.WindowStart.Add(window).Sub(now)
		return storage.MarshalRateWindow(rate), ttl, nil
	})
	var rateErr *core.RateLimitError
	if errors.As(err, &rateErr) {
		return rateErr
	}
	if err != nil {
		return &core.DataStoreError{Op: "rate increment", Err: err}
	}
	return nil
}

// Close is a no-op; the KV owner closes the backend.
func (s *KVStore) Close() error {
	return nil
}

func sessionKey(tenant core.TenantID, userID string) []byte {
	return []byte(fmt.Sprintf("ses:%s:%s", tenant, userID))
}

func rateKey(tenant core.TenantID, userID string, category core.RateCategory) []byte {
	return []byte(fmt.Sprintf("rate:%s:%s:%s", tenant, userID, category))
}
