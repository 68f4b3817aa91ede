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


package membersearch

import (
	"context"
	"log/slog"
	"runtime"

	"github.com/panjf2000/ants/v2"

	"github.com/communehq/membersearch/ai"
	"github.com/communehq/membersearch/ai/openai"
	"github.com/communehq/membersearch/channel"
	"github.com/communehq/membersearch/config"
	"github.com/communehq/membersearch/core"
	"github.com/communehq/membersearch/embedcache"
	"github.com/communehq/membersearch/extract"
	"github.com/communehq/membersearch/query"
	"github.com/communehq/membersearch/rank"
	"github.com/communehq/membersearch/resultcache"
	"github.com/communehq/membersearch/session"
	"github.com/communehq/membersearch/storage"
	"github.com/communehq/membersearch/storage/badger"
)

// Service assembles the full pipeline from a deployment configuration and
// exposes the operations embedding applications need: handling messages,
// invalidating tenants after data changes, and seeding directories.
type Service struct {
	backend      *badger.Backend
	members      storage.MemberRepository
	kv           storage.KV
	provider     ai.Provider
	sessions     session.Store
	results      *resultcache.Cache
	orchestrator *query.Orchestrator
	pool         *ants.Pool
	logger       *slog.Logger
}

// ServiceOption configures NewService.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	provider  ai.Provider
	tenantCtx func(core.TenantID) extract.TenantContext
}

// WithProvider substitutes the AI provider, used by tests and by deployments
// with a custom embedding stack.
func WithProvider(provider ai.Provider) ServiceOption {
	return func(o *serviceOptions) { o.provider = provider }
}

// WithTenantContexts installs a per-tenant extraction context source.
func WithTenantContexts(fn func(core.TenantID) extract.TenantContext) ServiceOption {
	return func(o *serviceOptions) { o.tenantCtx = fn }
}

// NewService wires storage, AI provider, caches, sessions, and the
// orchestrator from cfg. Close releases everything in reverse order.
func NewService(cfg *config.Config, opts ...ServiceOption) (*Service, error) {
	options := &serviceOptions{}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(cfg.DataDir, cfg.InMemory)
	if err != nil {
		return nil, err
	}

	members, err := badger.NewMemberRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	kv, err := badger.NewKV(backend)
	if err != nil {
		members.Close()
		backend.Close()
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		aiConfig := ai.NewConfig(
			ai.WithEmbeddingHost(cfg.EmbeddingHost),
			ai.WithEmbeddingModel(cfg.EmbeddingModel),
			ai.WithExtractorHost(cfg.ExtractorHost),
			ai.WithExtractorModel(cfg.ExtractorModel),
		)
		provider, err = openai.NewProvider(aiConfig)
		if err != nil {
			members.Close()
			backend.Close()
			return nil, err
		}
	}

	sessions, err := newSessionStore(cfg, kv)
	if err != nil {
		provider.Close()
		members.Close()
		backend.Close()
		return nil, err
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		sessions.Close()
		provider.Close()
		members.Close()
		backend.Close()
		return nil, err
	}

	ranker, err := rank.NewRanker(members, rank.WithAnalyticsPool(pool))
	if err != nil {
		pool.Release()
		sessions.Close()
		provider.Close()
		members.Close()
		backend.Close()
		return nil, err
	}

	embeddings := embedcache.New(provider.Embedder(), kv, embedcache.WithTTL(cfg.EmbedTTL))
	results := resultcache.New(kv, resultcache.WithTTL(cfg.ResultTTL))
	chain := extract.NewChain(provider.QueryExtractor())

	orchestratorOpts := []query.Option{
		query.WithLimits(session.Limits{
			MessageLimit: cfg.MessageLimit,
			SearchLimit:  cfg.SearchLimit,
			Window:       cfg.RateWindow,
		}),
		query.WithMaxResults(cfg.MaxResults),
		query.WithDeadline(cfg.Deadline),
	}
	if options.tenantCtx != nil {
		orchestratorOpts = append(orchestratorOpts, query.WithTenantContext(options.tenantCtx))
	}

	orchestrator, err := query.NewOrchestrator(chain, embeddings, ranker, results, sessions,
		cfg.EmbeddingModel, orchestratorOpts...)
	if err != nil {
		pool.Release()
		sessions.Close()
		provider.Close()
		members.Close()
		backend.Close()
		return nil, err
	}

	return &Service{
		backend:      backend,
		members:      members,
		kv:           kv,
		provider:     provider,
		sessions:     sessions,
		results:      results,
		orchestrator: orchestrator,
		pool:         pool,
		logger:       slog.Default().With("component", "service"),
	}, nil
}

func newSessionStore(cfg *config.Config, kv storage.KV) (session.Store, error) {
	if cfg.SessionBackend == "redis" {
		return session.NewRedisStore(session.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		},
			session.WithRedisTTL(cfg.SessionTTL),
			session.WithRedisHistoryLimit(cfg.HistoryLimit),
		)
	}
	return session.NewKVStore(kv,
		session.WithTTL(cfg.SessionTTL),
		session.WithHistoryLimit(cfg.HistoryLimit),
	)
}

// HandleMessage processes one inbound message end to end.
func (s *Service) HandleMessage(ctx context.Context, tenant core.TenantID, userID, text string) (*core.Response, error) {
	return s.orchestrator.Handle(ctx, tenant, userID, text)
}

// InvalidateTenant drops the tenant's cached responses. Call after member
// records change.
func (s *Service) InvalidateTenant(ctx context.Context, tenant core.TenantID) error {
	return s.results.InvalidateTenant(ctx, tenant)
}

// Members exposes the repository for seeding and ingestion tooling.
func (s *Service) Members() storage.MemberRepository {
	return s.members
}

// NewDispatcher creates a channel dispatcher bound to this service's
// pipeline.
func (s *Service) NewDispatcher(handler channel.Handler, opts ...channel.Option) (*channel.Dispatcher, error) {
	return channel.NewDispatcher(s.orchestrator, handler, opts...)
}

// Close releases all resources.
func (s *Service) Close() error {
	s.pool.Release()
	if err := s.sessions.Close(); err != nil {
		s.logger.Error("error closing session store", "err", err)
	}
	if err := s.provider.Close(); err != nil {
		s.logger.Error("error closing AI provider", "err", err)
	}
	if err := s.members.Close(); err != nil {
		s.logger.Error("error closing member repository", "err", err)
		return err
	}
	if err := s.backend.Close(); err != nil {
		s.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}
