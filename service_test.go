package membersearch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/communehq/membersearch/ai/mock"
	"github.com/communehq/membersearch/channel"
	"github.com/communehq/membersearch/config"
	"github.com/communehq/membersearch/core"
	"github.com/communehq/membersearch/rank"
)

func newTestService(t *testing.T) (*Service, *config.Config) {
	t.Helper()

	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.InMemory = true

	svc, err := NewService(cfg, WithProvider(mock.NewMockProvider()))
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close() })

	return svc, cfg
}

func seedDemoTenant(t *testing.T, svc *Service, cfg *config.Config, tenant core.TenantID) {
	t.Helper()

	now := time.Now()
	records := []*core.MemberRecord{
		{
			TenantId:    tenant,
			Name:        "Asha Raman",
			Type:        core.MemberTypeEntrepreneur,
			Location:    "chennai",
			Skills:      []string{"machine learning", "ai"},
			ProfileText: "Machine learning consultant in Chennai.",
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		{
			TenantId:    tenant,
			Name:        "Bala Krishnan",
			Type:        core.MemberTypeEntrepreneur,
			Location:    "madurai",
			Services:    []string{"catering"},
			TurnoverINR: 2_00_00_000,
			ProfileText: "Catering business owner in Madurai.",
			CreatedAt:   now,
			UpdatedAt:   now,
		},
	}

	ctx := context.Background()
	require.NoError(t, svc.Members().PutMembers(ctx, records...))

	embeddings := make([]*core.EmbeddingRecord, len(records))
	for i, r := range records {
		embeddings[i] = &core.EmbeddingRecord{
			MemberId:      r.Id,
			TenantId:      tenant,
			ModelVersion:  cfg.EmbeddingModel,
			ProfileVector: mock.DeterministicVector(r.ProfileText, 384),
			SkillsVector:  mock.DeterministicVector(r.ProfileText, 384),
			Keywords:      rank.ProfileKeywords(r.ProfileText, r.Location),
			UpdatedAt:     now,
		}
	}
	require.NoError(t, svc.Members().PutEmbeddings(ctx, embeddings...))
}

func TestServiceHandlesSearchEndToEnd(t *testing.T) {
	svc, cfg := newTestService(t)
	seedDemoTenant(t, svc, cfg, "acme")

	resp, err := svc.HandleMessage(context.Background(), "acme", "user-1", "find machine learning experts in chennai")
	require.NoError(t, err)

	assert.Equal(t, core.IntentMemberSearch, resp.Intent)
	assert.Contains(t, resp.Text, "Asha Raman")
}

func TestServiceHandlesConversation(t *testing.T) {
	svc, _ := newTestService(t)

	resp, err := svc.HandleMessage(context.Background(), "acme", "user-1", "hello")
	require.NoError(t, err)

	assert.Equal(t, core.IntentConversational, resp.Intent)
	assert.NotEmpty(t, resp.Text)
}

func TestServiceInvalidateTenant(t *testing.T) {
	svc, cfg := newTestService(t)
	seedDemoTenant(t, svc, cfg, "acme")

	ctx := context.Background()
	first, err := svc.HandleMessage(ctx, "acme", "user-1", "find caterers in madurai")
	require.NoError(t, err)
	assert.False(t, first.FromCache)

	second, err := svc.HandleMessage(ctx, "acme", "user-2", "find caterers in madurai")
	require.NoError(t, err)
	assert.True(t, second.FromCache)

	require.NoError(t, svc.InvalidateTenant(ctx, "acme"))

	third, err := svc.HandleMessage(ctx, "acme", "user-3", "find caterers in madurai")
	require.NoError(t, err)
	assert.False(t, third.FromCache)
}

func TestServiceDispatcherDeliversResponses(t *testing.T) {
	svc, cfg := newTestService(t)
	seedDemoTenant(t, svc, cfg, "acme")

	var mu sync.Mutex
	var got []string
	dispatcher, err := svc.NewDispatcher(func(msg channel.Message, resp *core.Response, err error) {
		mu.Lock()
		defer mu.Unlock()
		if assert.NoError(t, err) {
			got = append(got, resp.Text)
		}
	})
	require.NoError(t, err)
	defer dispatcher.Close()

	for i := 0; i < 3; i++ {
		require.NoError(t, dispatcher.Dispatch(channel.Message{
			TenantID: "acme",
			SenderID: "user-1",
			Text:     "find caterers in madurai",
		}))
	}
	dispatcher.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 3)
	for _, text := range got {
		assert.Contains(t, text, "Bala Krishnan")
	}
}
