package storage

import (
	"testing"
	"time"

	"github.com/communehq/membersearch/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemberRecordRoundTrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	record := &core.MemberRecord{
		Id:             core.IDFromContent("tenant-a/asha"),
		TenantId:       "tenant-a",
		Name:           "Asha Venkat",
		Type:           core.MemberTypeEntrepreneur,
		Location:       "Chennai",
		Organization:   "Venkat Forgings",
		Skills:         []string{"manufacturing", "exports"},
		Services:       []string{"precision casting"},
		TurnoverINR:    80000000,
		ProfileText:    "Runs a precision casting unit in Ambattur.",
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	data := MarshalMemberRecord(record)
	got, err := UnmarshalMemberRecord(data)
	require.NoError(t, err)
	assert.Equal(t, record, got)
}

func TestEmbeddingRecordRoundTrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	record := &core.EmbeddingRecord{
		MemberId:       42,
		TenantId:       "tenant-a",
		ModelVersion:   "embeddinggemma-v1",
		ProfileVector:  []float32{0.1, 0.2, 0.3},
		SkillsVector:   []float32{0.4, 0.5},
		Keywords:       []string{"manufacturing", "chennai"},
		ProfileTextLen: 120,
		UpdatedAt:      now,
	}

	data := MarshalEmbeddingRecord(record)
	got, err := UnmarshalEmbeddingRecord(data)
	require.NoError(t, err)
	assert.Equal(t, record, got)
}

func TestSessionRoundTrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	session := &core.Session{
		UserId:   "+919876543210",
		TenantId: "tenant-a",
		History: []core.Turn{
			{
				Query: "find AI experts in Chennai",
				Extraction: core.Extraction{
					Intent: core.IntentMemberSearch,
					Entities: core.Entities{
						Location: "Chennai",
						Skills:   []string{"ai"},
					},
					Confidence: 0.85,
					Method:     core.MethodRegex,
				},
				ResultSummary: "3 members",
				At:            now,
			},
		},
		CreatedAt:    now,
		LastActiveAt: now,
		MessageCount: 4,
		SearchCount:  2,
	}

	data := MarshalSession(session)
	got, err := UnmarshalSession(data)
	require.NoError(t, err)
	assert.Equal(t, session, got)
}

func TestRateWindowRoundTrip(t *testing.T) {
	window := &core.RateWindow{
		Count:       49,
		WindowStart: time.Now().UTC().Truncate(time.Microsecond),
	}
	got, err := UnmarshalRateWindow(MarshalRateWindow(window))
	require.NoError(t, err)
	assert.Equal(t, window, got)
}

func TestCachedResponseRoundTrip(t *testing.T) {
	resp := &core.CachedResponse{
		Text:   "Found 1 member matching your search.",
		Intent: core.IntentMemberSearch,
		Members: []core.RankedMember{
			{
				Member: &core.MemberRecord{
					Id:       7,
					TenantId: "tenant-a",
					Name:     "Asha",
					Type:     core.MemberTypeGeneric,
				},
				Score:        0.72,
				VectorSim:    0.9,
				KeywordScore: 0.5,
			},
		},
		Broadened: true,
		HitCount:  3,
		StoredAt:  time.Now().UTC().Truncate(time.Microsecond),
	}
	got, err := UnmarshalCachedResponse(MarshalCachedResponse(resp))
	require.NoError(t, err)
	assert.Equal(t, resp, got)
}

func TestVectorCacheEntryRoundTrip(t *testing.T) {
	entry := &core.VectorCacheEntry{
		Vector:       []float32{0.25, -0.5, 1},
		ModelVersion: "v2",
		HitCount:     12,
		LastUsed:     time.Now().UTC().Truncate(time.Microsecond),
	}
	got, err := UnmarshalVectorCacheEntry(MarshalVectorCacheEntry(entry))
	require.NoError(t, err)
	assert.Equal(t, entry, got)
}

func TestNilSlicesRoundTrip(t *testing.T) {
	record := &core.MemberRecord{
		Id:       9,
		TenantId: "tenant-a",
		Name:     "Bala",
		Type:     core.MemberTypeGeneric,
	}
	got, err := UnmarshalMemberRecord(MarshalMemberRecord(record))
	require.NoError(t, err)
	assert.Nil(t, got.Skills)
	assert.Nil(t, got.Services)
	assert.Equal(t, record, got)

	entry := &core.EmbeddingRecord{MemberId: 9, TenantId: "tenant-a", ModelVersion: "v1"}
	gotEntry, err := UnmarshalEmbeddingRecord(MarshalEmbeddingRecord(entry))
	require.NoError(t, err)
	assert.Nil(t, gotEntry.ProfileVector)
	assert.Nil(t, gotEntry.Keywords)
	assert.Equal(t, entry, gotEntry)
}

func TestZeroTimesRoundTrip(t *testing.T) {
	record := &core.MemberRecord{
		Id:       1,
		TenantId: "t",
		Name:     "n",
		Type:     core.MemberTypeGeneric,
	}
	got, err := UnmarshalMemberRecord(MarshalMemberRecord(record))
	require.NoError(t, err)
	assert.True(t, got.CreatedAt.IsZero())
	assert.True(t, got.UpdatedAt.IsZero())
}
