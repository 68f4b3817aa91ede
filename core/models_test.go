package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDFromContent(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		a := IDFromContent("tenant-a/ravi kumar")
		b := IDFromContent("tenant-a/ravi kumar")
		assert.Equal(t, a, b)
	})

	t.Run("distinct content distinct ids", func(t *testing.T) {
		a := IDFromContent("tenant-a/ravi kumar")
		b := IDFromContent("tenant-b/ravi kumar")
		assert.NotEqual(t, a, b)
	})
}

func TestMemberCompleteness(t *testing.T) {
	empty := &MemberRecord{}
	full := &MemberRecord{
		Name:         "Asha",
		Location:     "Chennai",
		Organization: "Acme Foundry",
		Skills:       []string{"ai"},
		Services:     []string{"consulting"},
		Degree:       "B.Tech",
		ProfileText:  "ML consultant",
	}

	assert.Equal(t, float32(0), empty.Completeness())
	assert.Equal(t, float32(1), full.Completeness())

	partial := &MemberRecord{Name: "Asha", Location: "Chennai"}
	got := partial.Completeness()
	assert.Greater(t, got, float32(0))
	assert.Less(t, got, float32(1))
}

func TestEmbeddingVectorFallback(t *testing.T) {
	rec := &EmbeddingRecord{
		ProfileVector: []float32{1, 0},
		SkillsVector:  []float32{0, 1},
	}

	assert.Equal(t, rec.SkillsVector, rec.Vector(VectorSkills))
	// context vector absent, falls back to profile
	assert.Equal(t, rec.ProfileVector, rec.Vector(VectorContext))
	assert.Equal(t, rec.ProfileVector, rec.Vector(VectorProfile))
}

func TestRangeContains(t *testing.T) {
	r := &Range{Min: 50000000, HasMin: true}
	assert.True(t, r.Contains(60000000))
	assert.False(t, r.Contains(10000000))

	both := &Range{Min: 2015, Max: 2020, HasMin: true, HasMax: true}
	assert.True(t, both.Contains(2018))
	assert.False(t, both.Contains(2021))

	open := &Range{}
	assert.True(t, open.Contains(-1))
}

func TestValidateQueryText(t *testing.T) {
	require.ErrorIs(t, ValidateQueryText(""), ErrEmptyQuery)
	require.NoError(t, ValidateQueryText("find AI experts"))

	long := make([]byte, MaxQueryLength+1)
	for i := range long {
		long[i] = 'a'
	}
	require.ErrorIs(t, ValidateQueryText(string(long)), ErrQueryTooLong)
}

func TestMemberRecordValidate(t *testing.T) {
	valid := &MemberRecord{
		Id:       IDFromContent("x"),
		TenantId: "tenant-a",
		Name:     "Asha",
		Type:     MemberTypeEntrepreneur,
	}
	require.NoError(t, valid.Validate())

	cases := map[string]*MemberRecord{
		"missing id":     {TenantId: "t", Name: "n", Type: MemberTypeGeneric},
		"missing tenant": {Id: 1, Name: "n", Type: MemberTypeGeneric},
		"missing name":   {Id: 1, TenantId: "t", Type: MemberTypeGeneric},
		"bad type":       {Id: 1, TenantId: "t", Name: "n", Type: 99},
	}
	for name, rec := range cases {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, rec.Validate(), ErrInvalidMemberRecord)
		})
	}
}

func TestExtractionClamp(t *testing.T) {
	e := &Extraction{Confidence: 1.7}
	e.Clamp()
	assert.Equal(t, float32(1), e.Confidence)

	e = &Extraction{Confidence: -0.2}
	e.Clamp()
	assert.Equal(t, float32(0), e.Confidence)
}

func TestIntentIsSearch(t *testing.T) {
	assert.True(t, IntentMemberSearch.IsSearch())
	assert.True(t, IntentHybrid.IsSearch())
	assert.False(t, IntentDocumentQA.IsSearch())
	assert.False(t, IntentConversational.IsSearch())
	assert.False(t, IntentUnknown.IsSearch())
}
