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


package rank

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/communehq/membersearch/core"
	"github.com/communehq/membersearch/storage"
)

// Weights blends the four ranking signals. The components must sum to 1.
type Weights struct {
	Vector       float32
	Keyword      float32
	Completeness float32
	Recency      float32
}

// DefaultWeights is the authoritative scoring blend: vector similarity
// dominates, keyword overlap second, completeness and recency as tiebreakers.
var DefaultWeights = Weights{
	Vector:       0.5,
	Keyword:      0.3,
	Completeness: 0.1,
	Recency:      0.1,
}

// Result bounds for a single ranking call.
const (
	MinResults     = 1
	MaxResults     = 50
	DefaultResults = 10
)

// recencyHalfLife is the profile age at which the recency signal reaches 0.5.
const recencyHalfLife = 180 * 24 * time.Hour

// Result is one ranking pass's output.
type Result struct {
	Members   []core.RankedMember
	Broadened bool
}

// Ranker scores a tenant's members against an extracted query. It reads
// members and embeddings through the repository and never crosses a tenant
// boundary: candidate loading is tenant-scoped and every scored row is
// re-checked against the requesting tenant.
type Ranker struct {
	repository storage.MemberRepository
	weights    Weights
	pool       *ants.Pool
	logger     *slog.Logger
}

// Option configures a Ranker.
type Option func(*Ranker) error

// WithWeights overrides the scoring blend.
func WithWeights(w Weights) Option {
	return func(r *Ranker) error {
		r.weights = w
		return nil
	}
}

// WithAnalyticsPool sets a worker pool for fire-and-forget analytics tasks
// such as zero-result query logging. Without a pool the analytics run inline.
func WithAnalyticsPool(pool *ants.Pool) Option {
	return func(r *Ranker) error {
		r.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Ranker) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// NewRanker creates a ranker over the given repository.
func NewRanker(repository storage.MemberRepository, opts ...Option) (*Ranker, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	r := &Ranker{
		repository: repository,
		weights:    DefaultWeights,
		logger:     slog.Default().With("component", "rank"),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Rank scores the tenant's members against query text, vector, and extracted
// filters. A nil queryVec degrades to keyword-plus-profile scoring. When the
// structured filters match nothing, they are relaxed one at a time until
// candidates appear; the result is then marked Broadened. maxResults is
// clamped to [MinResults, MaxResults]; zero selects DefaultResults.
func (r *Ranker) Rank(ctx context.Context, tenant core.TenantID, queryText string, queryVec []float32, modelVersion string, intent core.Intent, entities core.Entities, maxResults int) (*Result, error) {
	if tenant == "" {
		return nil, core.ErrEmptyTenant
	}
	maxResults = clampResults(maxResults)

	members, err := r.repository.MembersByTenant(ctx, tenant)
	if err != nil {
		return nil, err
	}
	embeddings, err := r.repository.EmbeddingsByTenant(ctx, tenant)
	if err != nil {
		return nil, err
	}

	embeddingByMember := make(map[core.ID]*core.EmbeddingRecord, len(embeddings))
	for _, e := range embeddings {
		// A vector built by a different model lives in a different space;
		// mixing versions in one pass yields garbage similarities.
		if modelVersion != "" && e.ModelVersion != modelVersion {
			continue
		}
		embeddingByMember[e.MemberId] = e
	}

	candidates, broadened := r.selectCandidates(members, tenant, entities)
	if broadened {
		// The filters as asked matched nobody; record that even when the
		// relaxed pass goes on to find members.
		r.recordZeroResult(tenant, queryText, &entities)
	}
	if len(candidates) == 0 {
		if !broadened {
			r.recordZeroResult(tenant, queryText, &entities)
		}
		return &Result{Members: []core.RankedMember{}, Broadened: broadened}, nil
	}

	vectorKind := core.VectorProfile
	switch {
	case len(entities.Skills) > 0 || len(entities.Services) > 0:
		vectorKind = core.VectorSkills
	case intent == core.IntentHybrid:
		// Networking style questions lean on how a member describes their
		// wider activity rather than the profile summary.
		vectorKind = core.VectorContext
	}
	queryTokens := tokenizeAndFilter(queryText)

	ranked := make([]core.RankedMember, 0, len(candidates))
	for _, m := range candidates {
		row := core.RankedMember{
			Member:       m,
			Completeness: m.Completeness(),
			Recency:      recencyScore(m.UpdatedAt),
		}
		if emb := embeddingByMember[m.Id]; emb != nil {
			if len(queryVec) > 0 {
				row.VectorSim = dotProduct(queryVec, emb.Vector(vectorKind))
			}
			row.KeywordScore = keywordScore(queryTokens, memberKeywords(emb.Keywords,
				m.Location, m.Organization, m.Degree, strings.Join(m.Skills, " "), strings.Join(m.Services, " ")))
		} else {
			row.KeywordScore = keywordScore(queryTokens, memberKeywords(nil,
				m.Location, m.Organization, m.Degree, m.ProfileText,
				strings.Join(m.Skills, " "), strings.Join(m.Services, " ")))
		}
		row.Score = r.weights.Vector*row.VectorSim +
			r.weights.Keyword*row.KeywordScore +
			r.weights.Completeness*row.Completeness +
			r.weights.Recency*row.Recency
		ranked = append(ranked, row)
	}

	sortRanked(ranked)
	if len(ranked) > maxResults {
		ranked = ranked[:maxResults]
	}
	return &Result{Members: ranked, Broadened: broadened}, nil
}

// selectCandidates applies structured filters, relaxing them in broadenOrder
// until at least one member survives or no filters remain.
func (r *Ranker) selectCandidates(members []*core.MemberRecord, tenant core.TenantID, entities core.Entities) ([]*core.MemberRecord, bool) {
	filtered := applyFilters(members, tenant, &entities)
	if len(filtered) > 0 || len(activeFilters(&entities)) == 0 {
		return filtered, false
	}

	relaxed := entities
	for _, field := range broadenOrder {
		if !slices.Contains(activeFilters(&relaxed), field) {
			continue
		}
		relaxed = dropFilter(relaxed, field)
		filtered = applyFilters(members, tenant, &relaxed)
		if len(filtered) > 0 {
			r.logger.Debug("broadened search filters", "tenant", tenant, "dropped_through", field)
			return filtered, true
		}
	}
	return nil, true
}

func applyFilters(members []*core.MemberRecord, tenant core.TenantID, entities *core.Entities) []*core.MemberRecord {
	out := make([]*core.MemberRecord, 0, len(members))
	for _, m := range members {
		if m.TenantId != tenant {
			continue
		}
		if matchesFilters(m, entities) {
			out = append(out, m)
		}
	}
	return out
}

// sortRanked orders rows by score descending with a total deterministic order:
// ties break by name, then creation time, then ID.
func sortRanked(rows []core.RankedMember) {
	slices.SortFunc(rows, func(a, b core.RankedMember) int {
		if a.Score != b.Score {
			if a.Score > b.Score {
				return -1
			}
			return 1
		}
		if c := strings.Compare(a.Member.Name, b.Member.Name); c != 0 {
			return c
		}
		if c := a.Member.CreatedAt.Compare(b.Member.CreatedAt); c != 0 {
			return c
		}
		if a.Member.Id != b.Member.Id {
			if a.Member.Id < b.Member.Id {
				return -1
			}
			return 1
		}
		return 0
	})
}

// recordZeroResult logs unanswerable queries for vocabulary tuning. Runs on
// the analytics pool when one is configured so the request path never waits.
func (r *Ranker) recordZeroResult(tenant core.TenantID, queryText string, entities *core.Entities) {
	task := func() {
		r.logger.Info("zero-result query",
			"tenant", tenant,
			"query", queryText,
			"locations", entities.AllLocations(),
			"skills", entities.Skills,
			"services", entities.Services)
	}
	if r.pool != nil {
		if err := r.pool.Submit(task); err != nil {
			task()
		}
		return
	}
	task()
}

func clampResults(n int) int {
	if n == 0 {
		return DefaultResults
	}
	if n < MinResults {
		return MinResults
	}
	if n > MaxResults {
		return MaxResults
	}
	return n
}

// dotProduct calculates the dot product of two vectors. Inputs are normalized
// at embedding time, so this is cosine similarity.
func dotProduct(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func recencyScore(updatedAt time.Time) float32 {
	if updatedAt.IsZero() {
		return 0
	}
	age := time.Since(updatedAt)
	if age <= 0 {
		return 1
	}
	return float32(recencyHalfLife) / float32(recencyHalfLife+age)
}
