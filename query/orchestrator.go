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


// Package query orchestrates one inbound message end to end: validation,
// rate limiting, session context, extraction, caching, ranking, and response
// formatting, under a single request deadline.
package query

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/communehq/membersearch/core"
	"github.com/communehq/membersearch/embedcache"
	"github.com/communehq/membersearch/extract"
	"github.com/communehq/membersearch/rank"
	"github.com/communehq/membersearch/resultcache"
	"github.com/communehq/membersearch/session"
)

// DefaultDeadline bounds one message end to end. Work past the deadline is
// abandoned, not queued.
const DefaultDeadline = 5 * time.Second

// embedTimeout bounds the embedding fetch, retries included, so a slow
// provider cannot eat the whole request deadline.
const embedTimeout = 3 * time.Second

// Orchestrator wires the pipeline stages together. Optional stages degrade:
// a dead embedder drops the vector signal, a dead result cache recomputes,
// a dead slow-path extractor falls back to patterns. Only the member store
// and the session store are load-bearing.
type Orchestrator struct {
	extractor    extract.Extractor
	embeddings   *embedcache.Cache
	ranker       *rank.Ranker
	results      *resultcache.Cache
	sessions     session.Store
	limits       session.Limits
	tenantCtx    func(core.TenantID) extract.TenantContext
	retry        RetryPolicy
	modelVersion string
	deadline     time.Duration
	maxResults   int
	logger       *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator) error

// WithLimits overrides the rate configuration.
func WithLimits(limits session.Limits) Option {
	return func(o *Orchestrator) error {
		o.limits = limits
		return nil
	}
}

// WithTenantContext installs a per-tenant extraction context source, used for
// community vocabulary extensions and currency-unit defaults.
func WithTenantContext(fn func(core.TenantID) extract.TenantContext) Option {
	return func(o *Orchestrator) error {
		o.tenantCtx = fn
		return nil
	}
}

// WithRetryPolicy overrides the provider retry policy.
func WithRetryPolicy(policy RetryPolicy) Option {
	return func(o *Orchestrator) error {
		o.retry = policy
		return nil
	}
}

// WithDeadline overrides the per-message deadline.
func WithDeadline(d time.Duration) Option {
	return func(o *Orchestrator) error {
		o.deadline = d
		return nil
	}
}

// WithMaxResults sets the default result count per answer.
func WithMaxResults(n int) Option {
	return func(o *Orchestrator) error {
		o.maxResults = n
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) error {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
		return nil
	}
}

// NewOrchestrator creates the pipeline. embeddings and results may be nil:
// the pipeline then runs keyword-only and uncached respectively.
func NewOrchestrator(
	extractor extract.Extractor,
	embeddings *embedcache.Cache,
	ranker *rank.Ranker,
	results *resultcache.Cache,
	sessions session.Store,
	modelVersion string,
	opts ...Option,
) (*Orchestrator, error) {
	if extractor == nil {
		return nil, ErrExtractorRequired
	}
	if ranker == nil {
		return nil, ErrRankerRequired
	}
	if sessions == nil {
		return nil, ErrSessionStoreRequired
	}

	o := &Orchestrator{
		extractor:    extractor,
		embeddings:   embeddings,
		ranker:       ranker,
		results:      results,
		sessions:     sessions,
		limits:       session.DefaultLimits(),
		tenantCtx:    func(tenant core.TenantID) extract.TenantContext { return extract.TenantContext{TenantID: tenant} },
		retry:        DefaultRetryPolicy,
		modelVersion: modelVersion,
		deadline:     DefaultDeadline,
		maxResults:   rank.DefaultResults,
		logger:       slog.Default().With("component", "query"),
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// Handle processes one inbound message for a user. User-visible refusals
// (rate limits, invalid input) come back as errors; FormatError turns them
// into reply text. A non-nil Response always carries something to send.
func (o *Orchestrator) Handle(ctx context.Context, tenant core.TenantID, userID, text string) (*core.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, o.deadline)
	defer cancel()

	requestID := uuid.NewString()
	logger := o.logger.With("request_id", requestID, "tenant", tenant, "user", userID)

	if tenant == "" {
		return nil, core.ErrEmptyTenant
	}
	if err := core.ValidateQueryText(text); err != nil {
		return nil, err
	}
	if err := o.sessions.CheckAndIncrement(ctx, tenant, userID, core.RateMessage, o.limits.MessageLimit, o.limits.Window); err != nil {
		return nil, err
	}

	sess, err := o.sessions.GetOrCreate(ctx, tenant, userID)
	if err != nil {
		return nil, err
	}

	extraction, extractDegraded := o.extractor.Extract(ctx, text, o.tenantCtx(tenant))
	extraction = inheritContext(extraction, sess.LastTurn())
	logger.Debug("extraction complete",
		"intent", extraction.Intent.String(),
		"confidence", extraction.Confidence,
		"method", extraction.Method,
		"degraded", extractDegraded)

	resp := &core.Response{Intent: extraction.Intent, Degraded: extractDegraded, RequestID: requestID}

	switch extraction.Intent {
	case core.IntentConversational:
		resp.Text = conversationalReply
	case core.IntentDocumentQA:
		resp.Text = documentReply
	default:
		if err := o.sessions.CheckAndIncrement(ctx, tenant, userID, core.RateSearch, o.limits.SearchLimit, o.limits.Window); err != nil {
			return nil, err
		}
		cached, err := o.search(ctx, tenant, text, extraction, extractDegraded, logger)
		if err != nil {
			return nil, err
		}
		resp.Text = cached.Response.Text
		resp.Members = cached.Response.Members
		resp.Broadened = cached.Response.Broadened
		resp.Degraded = resp.Degraded || cached.Response.Degraded
		resp.FromCache = cached.FromCache
	}

	turn := core.Turn{
		Query:         text,
		Extraction:    extraction,
		ResultSummary: summarize(resp),
		At:            time.Now().UTC(),
	}
	if err := o.sessions.AppendTurn(ctx, tenant, userID, turn); err != nil {
		// History is advisory; the answer still stands.
		logger.Warn("failed to append session turn", "error", err)
	}

	return resp, nil
}

type searchOutcome struct {
	Response  *core.CachedResponse
	FromCache bool
}

// search runs the cacheable part of the pipeline: embed, rank, format.
func (o *Orchestrator) search(ctx context.Context, tenant core.TenantID, text string, extraction core.Extraction, alreadyDegraded bool, logger *slog.Logger) (*searchOutcome, error) {
	key := resultcache.Key{
		TenantID:   tenant,
		QueryText:  text,
		Entities:   extraction.Entities,
		MaxResults: o.maxResults,
	}

	compute := func(ctx context.Context) (*core.CachedResponse, error) {
		queryVec, degraded := o.embed(ctx, text, logger)

		result, err := o.ranker.Rank(ctx, tenant, text, queryVec, o.modelVersion, extraction.Intent, extraction.Entities, o.maxResults)
		if err != nil {
			return nil, err
		}

		degraded = degraded || alreadyDegraded
		return &core.CachedResponse{
			Text:      formatResults(result.Members, result.Broadened, degraded),
			Intent:    extraction.Intent,
			Members:   result.Members,
			Broadened: result.Broadened,
			Degraded:  degraded,
		}, nil
	}

	if o.results == nil {
		resp, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		return &searchOutcome{Response: resp}, nil
	}

	resp, fromCache, err := o.results.GetOrCompute(ctx, key, compute)
	if err != nil {
		return nil, err
	}
	return &searchOutcome{Response: resp, FromCache: fromCache}, nil
}

// embed fetches the query vector, retrying transient failures. Failure is a
// degradation, not an error: ranking proceeds on keyword overlap alone.
func (o *Orchestrator) embed(ctx context.Context, text string, logger *slog.Logger) (vec []float32, degraded bool) {
	if o.embeddings == nil {
		return nil, false
	}
	ctx, cancel := context.WithTimeout(ctx, embedTimeout)
	defer cancel()
	err := o.retry.Do(ctx, func() error {
		var embedErr error
		vec, embedErr = o.embeddings.Embed(ctx, text, o.modelVersion)
		return embedErr
	})
	if err != nil {
		logger.Warn("embedding unavailable, ranking on keywords only", "error", err)
		return nil, true
	}
	return vec, false
}

// inheritContext carries filters forward for follow-up queries. Each filter
// the new turn leaves empty is filled from the previous search turn, so
// "what about in Mumbai" keeps the earlier skills and services while swapping
// the location. Filters the new turn names always win.
func inheritContext(extraction core.Extraction, last *core.Turn) core.Extraction {
	if last == nil {
		return extraction
	}
	if !extraction.Intent.IsSearch() || !last.Extraction.Intent.IsSearch() {
		return extraction
	}
	prev := last.Extraction.Entities
	e := &extraction.Entities
	if e.Location == "" && len(e.Locations) == 0 {
		e.Location = prev.Location
		e.Locations = prev.Locations
	}
	if len(e.Skills) == 0 {
		e.Skills = prev.Skills
	}
	if len(e.Services) == 0 {
		e.Services = prev.Services
	}
	if e.Degree == "" {
		e.Degree = prev.Degree
	}
	if e.YearRange == nil {
		e.YearRange = prev.YearRange
	}
	if e.TurnoverRange == nil {
		e.TurnoverRange = prev.TurnoverRange
	}
	return extraction
}

func summarize(resp *core.Response) string {
	if len(resp.Members) == 0 {
		return resp.Intent.String()
	}
	names := make([]string, 0, 3)
	for i, row := range resp.Members {
		if i == 3 {
			break
		}
		names = append(names, row.Member.Name)
	}
	summary := resp.Intent.String() + ": "
	for i, n := range names {
		if i > 0 {
			summary += ", "
		}
		summary += n
	}
	return summary
}

// IsUserFacing reports whether err should be shown to the user as normal
// conversation rather than logged as a failure.
func IsUserFacing(err error) bool {
	var rateErr *core.RateLimitError
	return errors.As(err, &rateErr) ||
		errors.Is(err, core.ErrEmptyQuery) ||
		errors.Is(err, core.ErrQueryTooLong)
}
