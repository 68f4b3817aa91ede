package extract

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/communehq/membersearch/ai"
	"github.com/communehq/membersearch/ai/mock"
	"github.com/communehq/membersearch/core"
)

func TestChainHighConfidenceSkipsSlowPath(t *testing.T) {
	slow := mock.NewMockQueryExtractor()
	chain := NewChain(slow)

	ex, degraded := chain.Extract(context.Background(), "find AI experts in Chennai", TenantContext{})

	assert.False(t, degraded)
	assert.Equal(t, core.MethodRegex, ex.Method)
	assert.Equal(t, 0, slow.CallCount())
}

func TestChainLowConfidenceConsultsSlowPath(t *testing.T) {
	slow := mock.NewMockQueryExtractor()
	slow.ExtractQueryFunc = func(ctx context.Context, text string) (*ai.QueryAnalysis, error) {
		return &ai.QueryAnalysis{
			Intent:     "member_search",
			Skills:     []string{"Vastu Consulting"},
			Confidence: 0.8,
		}, nil
	}
	chain := NewChain(slow)

	ex, degraded := chain.Extract(context.Background(), "someone for vastu stuff maybe", TenantContext{})

	assert.False(t, degraded)
	assert.Equal(t, 1, slow.CallCount())
	assert.Equal(t, core.MethodLLM, ex.Method)
	assert.Equal(t, core.IntentMemberSearch, ex.Intent)
	assert.Equal(t, []string{"vastu consulting"}, ex.Entities.Skills)
	assert.InDelta(t, 0.8, float64(ex.Confidence), 0.001)
}

func TestChainAdoptsProviderConfidence(t *testing.T) {
	t.Run("lower than fast score", func(t *testing.T) {
		slow := mock.NewMockQueryExtractor()
		slow.ExtractQueryFunc = func(ctx context.Context, text string) (*ai.QueryAnalysis, error) {
			return &ai.QueryAnalysis{Intent: "member_search", Confidence: 0.2}, nil
		}
		chain := NewChain(slow)

		ex, _ := chain.Extract(context.Background(), "maybe chennai people", TenantContext{})

		require.Equal(t, core.MethodLLM, ex.Method)
		assert.InDelta(t, 0.2, float64(ex.Confidence), 0.001,
			"a hesitant model score replaces the fast one")
	})

	t.Run("clipped to unit range", func(t *testing.T) {
		slow := mock.NewMockQueryExtractor()
		slow.ExtractQueryFunc = func(ctx context.Context, text string) (*ai.QueryAnalysis, error) {
			return &ai.QueryAnalysis{Intent: "member_search", Confidence: 3.5}, nil
		}
		chain := NewChain(slow)

		ex, _ := chain.Extract(context.Background(), "maybe chennai people", TenantContext{})
		assert.InDelta(t, 1.0, float64(ex.Confidence), 0.001)

		slow.ExtractQueryFunc = func(ctx context.Context, text string) (*ai.QueryAnalysis, error) {
			return &ai.QueryAnalysis{Intent: "member_search", Confidence: -0.4}, nil
		}
		ex, _ = chain.Extract(context.Background(), "maybe chennai people", TenantContext{})
		assert.InDelta(t, 0.0, float64(ex.Confidence), 0.001)
	})
}

func TestChainSlowPathFailureDegrades(t *testing.T) {
	slow := mock.NewMockQueryExtractor()
	slow.ExtractQueryFunc = func(ctx context.Context, text string) (*ai.QueryAnalysis, error) {
		return nil, errors.New("model unavailable")
	}
	chain := NewChain(slow)

	ex, degraded := chain.Extract(context.Background(), "someone for vastu stuff maybe", TenantContext{})

	assert.True(t, degraded)
	assert.Equal(t, core.MethodRegex, ex.Method)
	assert.Equal(t, core.IntentMemberSearch, ex.Intent)
}

func TestChainSlowPathTimeout(t *testing.T) {
	slow := mock.NewMockQueryExtractor()
	slow.ExtractQueryFunc = func(ctx context.Context, text string) (*ai.QueryAnalysis, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(5 * time.Second):
			return &ai.QueryAnalysis{Intent: "member_search", Confidence: 1}, nil
		}
	}
	chain := NewChain(slow, WithSlowPathTimeout(20*time.Millisecond))

	start := time.Now()
	ex, degraded := chain.Extract(context.Background(), "someone for vastu stuff maybe", TenantContext{})

	assert.True(t, degraded)
	assert.Equal(t, core.MethodRegex, ex.Method)
	assert.Less(t, time.Since(start), time.Second)
}

func TestChainMergeKeepsFastEntities(t *testing.T) {
	slow := mock.NewMockQueryExtractor()
	slow.ExtractQueryFunc = func(ctx context.Context, text string) (*ai.QueryAnalysis, error) {
		return &ai.QueryAnalysis{Intent: "member_search", Confidence: 0.75}, nil
	}
	chain := NewChain(slow)

	// Location hits the gazetteer but nothing pushes fast confidence past
	// the threshold; the provider answer omits entities entirely.
	ex, degraded := chain.Extract(context.Background(), "maybe chennai people", TenantContext{})

	assert.False(t, degraded)
	assert.Equal(t, "chennai", ex.Entities.Location)
	assert.Equal(t, core.MethodLLM, ex.Method)
}

func TestChainConversationalSkipsSlowPath(t *testing.T) {
	slow := mock.NewMockQueryExtractor()
	chain := NewChain(slow)

	ex, _ := chain.Extract(context.Background(), "", TenantContext{})

	assert.Equal(t, core.IntentConversational, ex.Intent)
	assert.Equal(t, 0, slow.CallCount())
}

func TestChainNilSlowExtractor(t *testing.T) {
	chain := NewChain(nil)

	ex, degraded := chain.Extract(context.Background(), "someone for vastu stuff maybe", TenantContext{})

	assert.False(t, degraded)
	assert.Equal(t, core.MethodRegex, ex.Method)
}

func TestChainInvalidProviderIntentIgnored(t *testing.T) {
	slow := mock.NewMockQueryExtractor()
	slow.ExtractQueryFunc = func(ctx context.Context, text string) (*ai.QueryAnalysis, error) {
		return &ai.QueryAnalysis{Intent: "banana", Confidence: 0.9}, nil
	}
	chain := NewChain(slow)

	ex, _ := chain.Extract(context.Background(), "someone for vastu stuff maybe", TenantContext{})

	require.Equal(t, core.MethodLLM, ex.Method)
	assert.Equal(t, core.IntentMemberSearch, ex.Intent)
}
