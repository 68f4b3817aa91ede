package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/communehq/membersearch/core"
)

func TestFastExtractorMemberSearch(t *testing.T) {
	ex, degraded := NewFastExtractor().Extract(context.Background(), "Find AI experts in Chennai", TenantContext{})

	assert.False(t, degraded)
	assert.Equal(t, core.IntentMemberSearch, ex.Intent)
	assert.Equal(t, "chennai", ex.Entities.Location)
	assert.Contains(t, ex.Entities.Skills, "ai")
	assert.Equal(t, core.MethodRegex, ex.Method)
	assert.GreaterOrEqual(t, ex.Confidence, float32(0.7))
}

func TestFastExtractorDocumentQA(t *testing.T) {
	ex, _ := NewFastExtractor().Extract(context.Background(), "What's the visitor parking policy?", TenantContext{})

	assert.Equal(t, core.IntentDocumentQA, ex.Intent)
	assert.True(t, ex.Entities.IsEmpty())
	assert.GreaterOrEqual(t, ex.Confidence, float32(DefaultConfidenceThreshold))
}

func TestFastExtractorTurnoverQuery(t *testing.T) {
	ex, _ := NewFastExtractor().Extract(context.Background(),
		"manufacturing businesses in Chennai with turnover above 5 crores", TenantContext{})

	assert.Equal(t, core.IntentMemberSearch, ex.Intent)
	assert.Equal(t, "chennai", ex.Entities.Location)
	assert.Contains(t, ex.Entities.Services, "manufacturing")
	require.NotNil(t, ex.Entities.TurnoverRange)
	assert.Equal(t, int64(50_000_000), ex.Entities.TurnoverRange.Min)
	assert.True(t, ex.Entities.TurnoverRange.HasMin)
	assert.False(t, ex.Entities.TurnoverRange.HasMax)
	assert.Empty(t, ex.LowConfidenceFields)
}

func TestFastExtractorHybridIntent(t *testing.T) {
	ex, _ := NewFastExtractor().Extract(context.Background(),
		"what is the guest policy and find members who do catering", TenantContext{})

	assert.Equal(t, core.IntentHybrid, ex.Intent)
	assert.Contains(t, ex.Entities.Services, "catering")
}

func TestFastExtractorConversational(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		ex, _ := NewFastExtractor().Extract(context.Background(), "   ", TenantContext{})
		assert.Equal(t, core.IntentConversational, ex.Intent)
		assert.Zero(t, ex.Confidence)
	})

	t.Run("greeting", func(t *testing.T) {
		ex, _ := NewFastExtractor().Extract(context.Background(), "Hello!", TenantContext{})
		assert.Equal(t, core.IntentConversational, ex.Intent)
		assert.GreaterOrEqual(t, ex.Confidence, float32(0.9))
	})
}

func TestFastExtractorDeterministic(t *testing.T) {
	f := NewFastExtractor()
	query := "looking for MBA entrepreneurs in Coimbatore batch of 2015"

	first, _ := f.Extract(context.Background(), query, TenantContext{})
	for i := 0; i < 5; i++ {
		again, _ := f.Extract(context.Background(), query, TenantContext{})
		assert.Equal(t, first, again)
	}

	assert.Equal(t, "mba", first.Entities.Degree)
	assert.Equal(t, "coimbatore", first.Entities.Location)
	require.NotNil(t, first.Entities.YearRange)
	assert.Equal(t, int64(2015), first.Entities.YearRange.Min)
	assert.Equal(t, int64(2015), first.Entities.YearRange.Max)
}

func TestFastExtractorTenantVocabulary(t *testing.T) {
	tc := TenantContext{
		ExtraCities: []string{"Karur"},
		ExtraSkills: []string{"Handloom Weaving"},
	}
	ex, _ := NewFastExtractor().Extract(context.Background(),
		"find handloom weaving experts in karur", tc)

	assert.Equal(t, "karur", ex.Entities.Location)
	assert.Contains(t, ex.Entities.Skills, "handloom weaving")
}

func TestFastExtractorMultipleLocations(t *testing.T) {
	ex, _ := NewFastExtractor().Extract(context.Background(),
		"find lawyers in chennai and mumbai", TenantContext{})

	assert.Equal(t, "chennai", ex.Entities.Location)
	assert.Equal(t, []string{"chennai", "mumbai"}, ex.Entities.AllLocations())
}

func TestFastExtractorAmbiguousTurnoverFlagged(t *testing.T) {
	ex, _ := NewFastExtractor().Extract(context.Background(),
		"businesses with turnover above 50", TenantContext{})

	require.NotNil(t, ex.Entities.TurnoverRange)
	assert.Equal(t, int64(50)*UnitCrore, ex.Entities.TurnoverRange.Min)
	assert.Contains(t, ex.LowConfidenceFields, "turnoverRange")
}

func TestFastExtractorWordBoundaries(t *testing.T) {
	// "chennai" inside another token must not match; "ai" must not fire on
	// words that merely end in those letters.
	ex, _ := NewFastExtractor().Extract(context.Background(),
		"find members interested in bonsai displays", TenantContext{})

	assert.Empty(t, ex.Entities.Location)
	assert.NotContains(t, ex.Entities.Skills, "ai")
}

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "find ai experts", NormalizeText("  Find   AI  Experts \n"))
	assert.Equal(t, "", NormalizeText(" \t "))
}
