package core

import (
	"encoding/binary"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing.
type ID uint64

// TenantID identifies a community. Every member record, embedding record,
// cached result, and session belongs to exactly one tenant.
type TenantID string

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// MemberType tags the profile variant carried by a MemberRecord.
type MemberType int

const (
	// MemberTypeGeneric is a plain directory entry.
	MemberTypeGeneric MemberType = iota + 1
	// MemberTypeAlumni carries degree/branch/graduation attributes.
	MemberTypeAlumni
	// MemberTypeEntrepreneur carries organization/turnover attributes.
	MemberTypeEntrepreneur
	// MemberTypeResident carries location-centric attributes.
	MemberTypeResident
)

// MemberRecord is a directory entry owned by a tenant. Records are written by
// the external CRUD/ingestion layer; this module only reads them.
type MemberRecord struct {
	Id             ID
	TenantId       TenantID
	Name           string
	Type           MemberType
	Location       string
	Organization   string
	Skills         []string
	Services       []string
	Degree         string
	Branch         string
	GraduationYear int64
	TurnoverINR    int64 // annual turnover in rupees, 0 if unknown
	ProfileText    string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Completeness returns the fraction of profile fields that are populated,
// in [0,1]. Used as a ranking signal.
func (m *MemberRecord) Completeness() float32 {
	fields := []bool{
		m.Name != "",
		m.Location != "",
		m.Organization != "",
		len(m.Skills) > 0,
		len(m.Services) > 0,
		m.Degree != "",
		m.ProfileText != "",
	}
	populated := 0
	for _, ok := range fields {
		if ok {
			populated++
		}
	}
	return float32(populated) / float32(len(fields))
}

// VectorKind selects which of a member's embedding vectors a similarity
// computation runs against.
type VectorKind int

const (
	// VectorProfile is the default whole-profile embedding.
	VectorProfile VectorKind = iota + 1
	// VectorSkills embeds the skills/services text only.
	VectorSkills
	// VectorContext embeds the free-form contextual profile text.
	VectorContext
)

// EmbeddingRecord holds the vector representations of one member. Regenerated
// by the external ingestion layer whenever profile text changes. Vectors from
// different model versions must never be mixed within one ranking pass.
type EmbeddingRecord struct {
	MemberId       ID
	TenantId       TenantID
	ModelVersion   string
	ProfileVector  []float32
	SkillsVector   []float32
	ContextVector  []float32
	Keywords       []string // keyword/full-text representation of the profile
	ProfileTextLen int64
	UpdatedAt      time.Time
}

// Vector returns the embedding for the requested kind, falling back to the
// profile vector when the specific kind is absent.
func (e *EmbeddingRecord) Vector(kind VectorKind) []float32 {
	switch kind {
	case VectorSkills:
		if len(e.SkillsVector) > 0 {
			return e.SkillsVector
		}
	case VectorContext:
		if len(e.ContextVector) > 0 {
			return e.ContextVector
		}
	}
	return e.ProfileVector
}

// Intent is the coarse classification of a query's purpose.
type Intent int

const (
	// IntentUnknown means classification failed entirely.
	IntentUnknown Intent = iota
	// IntentMemberSearch is a directory lookup ("find AI experts in Chennai").
	IntentMemberSearch
	// IntentDocumentQA is a question answered from documents, routed elsewhere.
	IntentDocumentQA
	// IntentHybrid matched both member and document phrasing.
	IntentHybrid
	// IntentConversational is small talk or an empty message.
	IntentConversational
)

// String returns the wire name of the intent.
func (i Intent) String() string {
	switch i {
	case IntentMemberSearch:
		return "member_search"
	case IntentDocumentQA:
		return "document_qa"
	case IntentHybrid:
		return "hybrid"
	case IntentConversational:
		return "conversational"
	default:
		return "unknown"
	}
}

// IsSearch reports whether the intent requires the hybrid ranker.
func (i Intent) IsSearch() bool {
	return i == IntentMemberSearch || i == IntentHybrid
}

// ExtractionMethod records which extraction path produced a result.
type ExtractionMethod int

const (
	// MethodRegex is the deterministic fast path.
	MethodRegex ExtractionMethod = iota + 1
	// MethodLLM is the slow-path structured-output provider.
	MethodLLM
)

// String returns the wire name of the method.
func (m ExtractionMethod) String() string {
	if m == MethodLLM {
		return "llm"
	}
	return "regex"
}

// Range is a numeric filter bound. A side with the corresponding Has flag
// unset is unbounded.
type Range struct {
	Min    int64
	Max    int64
	HasMin bool
	HasMax bool
}

// Contains reports whether v satisfies the range.
func (r *Range) Contains(v int64) bool {
	if r.HasMin && v < r.Min {
		return false
	}
	if r.HasMax && v > r.Max {
		return false
	}
	return true
}

// Entities are the structured filters pulled out of a query.
type Entities struct {
	Location      string
	Locations     []string // additional locations when the query names several
	Skills        []string
	Services      []string
	Degree        string
	YearRange     *Range
	TurnoverRange *Range
}

// IsEmpty reports whether no filter field was extracted.
func (e *Entities) IsEmpty() bool {
	return e.Location == "" && len(e.Locations) == 0 && len(e.Skills) == 0 &&
		len(e.Services) == 0 && e.Degree == "" && e.YearRange == nil && e.TurnoverRange == nil
}

// AllLocations returns the primary location plus any additional ones.
func (e *Entities) AllLocations() []string {
	if e.Location == "" {
		return e.Locations
	}
	return append([]string{e.Location}, e.Locations...)
}

// Fingerprint renders the filters as a canonical string: list fields are
// sorted, so extractions that differ only in discovery order fingerprint
// identically. Used for cache keys.
func (e *Entities) Fingerprint() string {
	var b strings.Builder
	b.WriteString("loc=")
	b.WriteString(sortedJoin(e.AllLocations()))
	b.WriteString(";skills=")
	b.WriteString(sortedJoin(e.Skills))
	b.WriteString(";services=")
	b.WriteString(sortedJoin(e.Services))
	b.WriteString(";degree=")
	b.WriteString(e.Degree)
	b.WriteString(";years=")
	b.WriteString(e.YearRange.fingerprint())
	b.WriteString(";turnover=")
	b.WriteString(e.TurnoverRange.fingerprint())
	return b.String()
}

func sortedJoin(values []string) string {
	sorted := append([]string(nil), values...)
	sort.Strings(sorted)
	return strings.Join(sorted, ",")
}

func (r *Range) fingerprint() string {
	if r == nil {
		return ""
	}
	var b strings.Builder
	if r.HasMin {
		fmt.Fprintf(&b, "%d", r.Min)
	}
	b.WriteString("..")
	if r.HasMax {
		fmt.Fprintf(&b, "%d", r.Max)
	}
	return b.String()
}

// Extraction is the transient, per-request result of intent classification and
// entity extraction.
type Extraction struct {
	Intent              Intent
	Entities            Entities
	Confidence          float32 // in [0,1]
	Method              ExtractionMethod
	LowConfidenceFields []string // fields parsed under an assumption, e.g. ambiguous units
}

// RankedMember is one scored result row.
type RankedMember struct {
	Member       *MemberRecord
	Score        float32
	VectorSim    float32
	KeywordScore float32
	Completeness float32
	Recency      float32
}

// Turn is one conversational exchange kept in session history.
type Turn struct {
	Query         string
	Extraction    Extraction
	ResultSummary string
	At            time.Time
}

// Session holds per-user conversation state. History is append-only and capped;
// the store evicts the oldest turn first.
type Session struct {
	UserId       string
	TenantId     TenantID
	History      []Turn
	CreatedAt    time.Time
	LastActiveAt time.Time
	MessageCount int64
	SearchCount  int64
}

// LastTurn returns the most recent turn, or nil for a fresh session.
func (s *Session) LastTurn() *Turn {
	if len(s.History) == 0 {
		return nil
	}
	return &s.History[len(s.History)-1]
}

// RateCategory names an independent per-user rate counter.
type RateCategory string

const (
	// RateMessage bounds total inbound messages.
	RateMessage RateCategory = "message"
	// RateSearch bounds ranker-backed searches.
	RateSearch RateCategory = "search"
)

// RateWindow is a fixed-window counter persisted by the session store.
type RateWindow struct {
	Count       int64
	WindowStart time.Time
}

// Response is the final answer for one inbound message.
type Response struct {
	Text      string
	Members   []RankedMember
	Intent    Intent
	Broadened bool // structured filters were relaxed to avoid a zero-result answer
	Degraded  bool // some optional stage failed and was skipped
	FromCache bool
	RequestID string
}
