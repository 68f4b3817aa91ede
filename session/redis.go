package session

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/communehq/membersearch/core"
	"github.com/communehq/membersearch/storage"
)

// RedisStore implements Store on a Redis instance. Deployments that scale the
// orchestrator horizontally point every replica at the same Redis so rate
// limits stay global.
type RedisStore struct {
	client       *redis.Client
	ttl          time.Duration
	historyLimit int
}

var _ Store = (*RedisStore)(nil)

// RedisConfig holds the connection settings for a single-node Redis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	PoolSize int
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithRedisTTL overrides the sliding session lifetime.
func WithRedisTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) { s.ttl = ttl }
}

// WithRedisHistoryLimit overrides the per-session turn cap.
func WithRedisHistoryLimit(limit int) RedisOption {
	return func(s *RedisStore) { s.historyLimit = limit }
}

// NewRedisStore connects to Redis and verifies the connection with a ping.
func NewRedisStore(cfg RedisConfig, opts ...RedisOption) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	s := &RedisStore{
		client:       client,
		ttl:          DefaultTTL,
		historyLimit: DefaultHistoryLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// GetOrCreate reads the session and renews its TTL.
func (s *RedisStore) GetOrCreate(ctx context.Context, tenant core.TenantID, userID string) (*core.Session, error) {
	if tenant == "" {
		return nil, core.ErrEmptyTenant
	}
	key := string(sessionKey(tenant, userID))
	now := time.Now().UTC()

	raw, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		session := &core.Session{
			UserId:       userID,
			TenantId:     tenant,
			CreatedAt:    now,
			LastActiveAt: now,
		}
		if err := s.client.Set(ctx, key, storage.MarshalSession(session), s.ttl).Err(); err != nil {
			return nil, &core.DataStoreError{Op: "session create", Err: err}
		}
		return session, nil
	}
	if err != nil {
		return nil, &core.DataStoreError{Op: "session get", Err: err}
	}

	session, err := storage.UnmarshalSession(raw)
	if err != nil {
		session = &core.Session{
			UserId:       userID,
			TenantId:     tenant,
			CreatedAt:    now,
		}
	}
	session.LastActiveAt = now
	if err := s.client.Set(ctx, key, storage.MarshalSession(session), s.ttl).Err(); err != nil {
		return nil, &core.DataStoreError{Op: "session touch", Err: err}
	}
	return session, nil
}

// AppendTurn appends under an optimistic WATCH transaction so concurrent
// appends for the same user never drop a turn.
func (s *RedisStore) AppendTurn(ctx context.Context, tenant core.TenantID, userID string, turn core.Turn) error {
	if tenant == "" {
		return core.ErrEmptyTenant
	}
	key := string(sessionKey(tenant, userID))

	txn := func(tx *redis.Tx) error {
		now := time.Now().UTC()
		session := &core.Session{UserId: userID, TenantId: tenant, CreatedAt: now}
		raw, err := tx.Get(ctx, key).Bytes()
		if err != nil && err != redis.Nil {
			return err
		}
		if err == nil {
			if parsed, perr := storage.UnmarshalSession(raw); perr == nil {
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
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, storage.MarshalSession(session), s.ttl)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < 3; attempt++ {
		err := s.client.Watch(ctx, txn, key)
		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			return &core.DataStoreError{Op: "session append", Err: err}
		}
		return nil
	}
	return &core.DataStoreError{Op: "session append", Err: redis.TxFailedErr}
}

// CheckAndIncrement uses INCR's atomicity: the counter is bumped, the window
// TTL is attached on first use, and an over-limit bump is rolled back with a
// DECR so rejected requests never consume quota.
func (s *RedisStore) CheckAndIncrement(ctx context.Context, tenant core.TenantID, userID string, category core.RateCategory, limit int64, window time.Duration) error {
	if tenant == "" {
		return core.ErrEmptyTenant
	}
	if limit <= 0 || window <= 0 {
		return nil
	}
	key := string(rateKey(tenant, userID, category))

	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return &core.DataStoreError{Op: "rate increment", Err: err}
	}
	if count == 1 {
		if err := s.client.Expire(ctx, key, window).Err(); err != nil {
			return &core.DataStoreError{Op: "rate expire", Err: err}
		}
	}
	if count > limit {
		_ = s.client.Decr(ctx, key).Err()
		retryAfter, err := s.client.TTL(ctx, key).Result()
		if err != nil || retryAfter < 0 {
			retryAfter = window
		}
		return &core.RateLimitError{Category: category, RetryAfter: retryAfter}
	}
	return nil
}

// Close closes the Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
