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


package storage

import (
	"time"

	"github.com/communehq/membersearch/core"
	mus "github.com/mus-format/mus-go"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// Hand-written MUS serializers for every value this module persists. Times are
// stored as (isZero, unixMicro) so the zero value round-trips exactly.

// nilSliceSer decodes a zero-length slice as nil, so a nil field survives a
// round trip unchanged.
type nilSliceSer[T any] struct {
	mus.Serializer[[]T]
}

func (s nilSliceSer[T]) Unmarshal(bs []byte) (v []T, n int, err error) {
	v, n, err = s.Serializer.Unmarshal(bs)
	if len(v) == 0 {
		v = nil
	}
	return
}

var (
	float32SliceMUS = nilSliceSer[float32]{ord.NewSliceSer[float32](varint.Float32)}
	stringSliceMUS  = nilSliceSer[string]{ord.NewSliceSer[string](ord.String)}
)

func marshalTime(t time.Time, bs []byte) (n int) {
	n = ord.Bool.Marshal(t.IsZero(), bs)
	n += varint.Int64.Marshal(t.UnixMicro(), bs[n:])
	return
}

func unmarshalTime(bs []byte) (t time.Time, n int, err error) {
	zero, n, err := ord.Bool.Unmarshal(bs)
	if err != nil {
		return
	}
	micro, n1, err := varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	if !zero {
		t = time.UnixMicro(micro).UTC()
	}
	return
}

func sizeTime(t time.Time) int {
	return ord.Bool.Size(t.IsZero()) + varint.Int64.Size(t.UnixMicro())
}

// IDMUS serializes core.ID.
var IDMUS = idMUS{}

type idMUS struct{}

func (idMUS) Marshal(id core.ID, bs []byte) (n int) {
	return varint.Uint64.Marshal(uint64(id), bs)
}

func (idMUS) Unmarshal(bs []byte) (id core.ID, n int, err error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return core.ID(v), n, err
}

func (idMUS) Size(id core.ID) int {
	return varint.Uint64.Size(uint64(id))
}

// MemberRecordMUS serializes core.MemberRecord.
var MemberRecordMUS = memberRecordMUS{}

type memberRecordMUS struct{}

func (memberRecordMUS) Marshal(m core.MemberRecord, bs []byte) (n int) {
	n = IDMUS.Marshal(m.Id, bs)
	n += ord.String.Marshal(string(m.TenantId), bs[n:])
	n += ord.String.Marshal(m.Name, bs[n:])
	n += varint.Int.Marshal(int(m.Type), bs[n:])
	n += ord.String.Marshal(m.Location, bs[n:])
	n += ord.String.Marshal(m.Organization, bs[n:])
	n += stringSliceMUS.Marshal(m.Skills, bs[n:])
	n += stringSliceMUS.Marshal(m.Services, bs[n:])
	n += ord.String.Marshal(m.Degree, bs[n:])
	n += ord.String.Marshal(m.Branch, bs[n:])
	n += varint.Int64.Marshal(m.GraduationYear, bs[n:])
	n += varint.Int64.Marshal(m.TurnoverINR, bs[n:])
	n += ord.String.Marshal(m.ProfileText, bs[n:])
	n += marshalTime(m.CreatedAt, bs[n:])
	n += marshalTime(m.UpdatedAt, bs[n:])
	return
}

func (memberRecordMUS) Unmarshal(bs []byte) (m core.MemberRecord, n int, err error) {
	var n1 int
	if m.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	var tenant string
	if tenant, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return m, n + n1, err
	}
	m.TenantId = core.TenantID(tenant)
	n += n1
	if m.Name, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return m, n + n1, err
	}
	n += n1
	var typ int
	if typ, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return m, n + n1, err
	}
	m.Type = core.MemberType(typ)
	n += n1
	if m.Location, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return m, n + n1, err
	}
	n += n1
	if m.Organization, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return m, n + n1, err
	}
	n += n1
	if m.Skills, n1, err = stringSliceMUS.Unmarshal(bs[n:]); err != nil {
		return m, n + n1, err
	}
	n += n1
	if m.Services, n1, err = stringSliceMUS.Unmarshal(bs[n:]); err != nil {
		return m, n + n1, err
	}
	n += n1
	if m.Degree, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return m, n + n1, err
	}
	n += n1
	if m.Branch, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return m, n + n1, err
	}
	n += n1
	if m.GraduationYear, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return m, n + n1, err
	}
	n += n1
	if m.TurnoverINR, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return m, n + n1, err
	}
	n += n1
	if m.ProfileText, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return m, n + n1, err
	}
	n += n1
	if m.CreatedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return m, n + n1, err
	}
	n += n1
	if m.UpdatedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return m, n + n1, err
	}
	n += n1
	return
}

func (memberRecordMUS) Size(m core.MemberRecord) (size int) {
	size = IDMUS.Size(m.Id)
	size += ord.String.Size(string(m.TenantId))
	size += ord.String.Size(m.Name)
	size += varint.Int.Size(int(m.Type))
	size += ord.String.Size(m.Location)
	size += ord.String.Size(m.Organization)
	size += stringSliceMUS.Size(m.Skills)
	size += stringSliceMUS.Size(m.Services)
	size += ord.String.Size(m.Degree)
	size += ord.String.Size(m.Branch)
	size += varint.Int64.Size(m.GraduationYear)
	size += varint.Int64.Size(m.TurnoverINR)
	size += ord.String.Size(m.ProfileText)
	size += sizeTime(m.CreatedAt)
	size += sizeTime(m.UpdatedAt)
	return
}

// EmbeddingRecordMUS serializes core.EmbeddingRecord.
var EmbeddingRecordMUS = embeddingRecordMUS{}

type embeddingRecordMUS struct{}

func (embeddingRecordMUS) Marshal(e core.EmbeddingRecord, bs []byte) (n int) {
	n = IDMUS.Marshal(e.MemberId, bs)
	n += ord.String.Marshal(string(e.TenantId), bs[n:])
	n += ord.String.Marshal(e.ModelVersion, bs[n:])
	n += float32SliceMUS.Marshal(e.ProfileVector, bs[n:])
	n += float32SliceMUS.Marshal(e.SkillsVector, bs[n:])
	n += float32SliceMUS.Marshal(e.ContextVector, bs[n:])
	n += stringSliceMUS.Marshal(e.Keywords, bs[n:])
	n += varint.Int64.Marshal(e.ProfileTextLen, bs[n:])
	n += marshalTime(e.UpdatedAt, bs[n:])
	return
}

func (embeddingRecordMUS) Unmarshal(bs []byte) (e core.EmbeddingRecord, n int, err error) {
	var n1 int
	if e.MemberId, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	var tenant string
	if tenant, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return e, n + n1, err
	}
	e.TenantId = core.TenantID(tenant)
	n += n1
	if e.ModelVersion, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return e, n + n1, err
	}
	n += n1
	if e.ProfileVector, n1, err = float32SliceMUS.Unmarshal(bs[n:]); err != nil {
		return e, n + n1, err
	}
	n += n1
	if e.SkillsVector, n1, err = float32SliceMUS.Unmarshal(bs[n:]); err != nil {
		return e, n + n1, err
	}
	n += n1
	if e.ContextVector, n1, err = float32SliceMUS.Unmarshal(bs[n:]); err != nil {
		return e, n + n1, err
	}
	n += n1
	if e.Keywords, n1, err = stringSliceMUS.Unmarshal(bs[n:]); err != nil {
		return e, n + n1, err
	}
	n += n1
	if e.ProfileTextLen, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return e, n + n1, err
	}
	n += n1
	if e.UpdatedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return e, n + n1, err
	}
	n += n1
	return
}

func (embeddingRecordMUS) Size(e core.EmbeddingRecord) (size int) {
	size = IDMUS.Size(e.MemberId)
	size += ord.String.Size(string(e.TenantId))
	size += ord.String.Size(e.ModelVersion)
	size += float32SliceMUS.Size(e.ProfileVector)
	size += float32SliceMUS.Size(e.SkillsVector)
	size += float32SliceMUS.Size(e.ContextVector)
	size += stringSliceMUS.Size(e.Keywords)
	size += varint.Int64.Size(e.ProfileTextLen)
	size += sizeTime(e.UpdatedAt)
	return
}

// rangeMUS serializes *core.Range with a presence flag.
type rangeMUS struct{}

var rangePtrMUS = rangeMUS{}

func (rangeMUS) Marshal(r *core.Range, bs []byte) (n int) {
	n = ord.Bool.Marshal(r != nil, bs)
	if r == nil {
		return
	}
	n += varint.Int64.Marshal(r.Min, bs[n:])
	n += varint.Int64.Marshal(r.Max, bs[n:])
	n += ord.Bool.Marshal(r.HasMin, bs[n:])
	n += ord.Bool.Marshal(r.HasMax, bs[n:])
	return
}

func (rangeMUS) Unmarshal(bs []byte) (r *core.Range, n int, err error) {
	present, n, err := ord.Bool.Unmarshal(bs)
	if err != nil || !present {
		return
	}
	var n1 int
	r = &core.Range{}
	if r.Min, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.Max, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.HasMin, n1, err = ord.Bool.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.HasMax, n1, err = ord.Bool.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	return
}

func (rangeMUS) Size(r *core.Range) (size int) {
	size = ord.Bool.Size(r != nil)
	if r == nil {
		return
	}
	size += varint.Int64.Size(r.Min)
	size += varint.Int64.Size(r.Max)
	size += ord.Bool.Size(r.HasMin)
	size += ord.Bool.Size(r.HasMax)
	return
}

// ExtractionMUS serializes core.Extraction.
var ExtractionMUS = extractionMUS{}

type extractionMUS struct{}

func (extractionMUS) Marshal(e core.Extraction, bs []byte) (n int) {
	n = varint.Int.Marshal(int(e.Intent), bs)
	n += ord.String.Marshal(e.Entities.Location, bs[n:])
	n += stringSliceMUS.Marshal(e.Entities.Locations, bs[n:])
	n += stringSliceMUS.Marshal(e.Entities.Skills, bs[n:])
	n += stringSliceMUS.Marshal(e.Entities.Services, bs[n:])
	n += ord.String.Marshal(e.Entities.Degree, bs[n:])
	n += rangePtrMUS.Marshal(e.Entities.YearRange, bs[n:])
	n += rangePtrMUS.Marshal(e.Entities.TurnoverRange, bs[n:])
	n += varint.Float32.Marshal(e.Confidence, bs[n:])
	n += varint.Int.Marshal(int(e.Method), bs[n:])
	n += stringSliceMUS.Marshal(e.LowConfidenceFields, bs[n:])
	return
}

func (extractionMUS) Unmarshal(bs []byte) (e core.Extraction, n int, err error) {
	var n1 int
	var intent int
	if intent, n, err = varint.Int.Unmarshal(bs); err != nil {
		return
	}
	e.Intent = core.Intent(intent)
	if e.Entities.Location, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return e, n + n1, err
	}
	n += n1
	if e.Entities.Locations, n1, err = stringSliceMUS.Unmarshal(bs[n:]); err != nil {
		return e, n + n1, err
	}
	n += n1
	if e.Entities.Skills, n1, err = stringSliceMUS.Unmarshal(bs[n:]); err != nil {
		return e, n + n1, err
	}
	n += n1
	if e.Entities.Services, n1, err = stringSliceMUS.Unmarshal(bs[n:]); err != nil {
		return e, n + n1, err
	}
	n += n1
	if e.Entities.Degree, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return e, n + n1, err
	}
	n += n1
	if e.Entities.YearRange, n1, err = rangePtrMUS.Unmarshal(bs[n:]); err != nil {
		return e, n + n1, err
	}
	n += n1
	if e.Entities.TurnoverRange, n1, err = rangePtrMUS.Unmarshal(bs[n:]); err != nil {
		return e, n + n1, err
	}
	n += n1
	if e.Confidence, n1, err = varint.Float32.Unmarshal(bs[n:]); err != nil {
		return e, n + n1, err
	}
	n += n1
	var method int
	if method, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return e, n + n1, err
	}
	e.Method = core.ExtractionMethod(method)
	n += n1
	if e.LowConfidenceFields, n1, err = stringSliceMUS.Unmarshal(bs[n:]); err != nil {
		return e, n + n1, err
	}
	n += n1
	return
}

func (extractionMUS) Size(e core.Extraction) (size int) {
	size = varint.Int.Size(int(e.Intent))
	size += ord.String.Size(e.Entities.Location)
	size += stringSliceMUS.Size(e.Entities.Locations)
	size += stringSliceMUS.Size(e.Entities.Skills)
	size += stringSliceMUS.Size(e.Entities.Services)
	size += ord.String.Size(e.Entities.Degree)
	size += rangePtrMUS.Size(e.Entities.YearRange)
	size += rangePtrMUS.Size(e.Entities.TurnoverRange)
	size += varint.Float32.Size(e.Confidence)
	size += varint.Int.Size(int(e.Method))
	size += stringSliceMUS.Size(e.LowConfidenceFields)
	return
}

// TurnMUS serializes core.Turn.
var TurnMUS = turnMUS{}

type turnMUS struct{}

func (turnMUS) Marshal(t core.Turn, bs []byte) (n int) {
	n = ord.String.Marshal(t.Query, bs)
	n += ExtractionMUS.Marshal(t.Extraction, bs[n:])
	n += ord.String.Marshal(t.ResultSummary, bs[n:])
	n += marshalTime(t.At, bs[n:])
	return
}

func (turnMUS) Unmarshal(bs []byte) (t core.Turn, n int, err error) {
	var n1 int
	if t.Query, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	if t.Extraction, n1, err = ExtractionMUS.Unmarshal(bs[n:]); err != nil {
		return t, n + n1, err
	}
	n += n1
	if t.ResultSummary, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return t, n + n1, err
	}
	n += n1
	if t.At, n1, err = unmarshalTime(bs[n:]); err != nil {
		return t, n + n1, err
	}
	n += n1
	return
}

func (turnMUS) Size(t core.Turn) (size int) {
	size = ord.String.Size(t.Query)
	size += ExtractionMUS.Size(t.Extraction)
	size += ord.String.Size(t.ResultSummary)
	size += sizeTime(t.At)
	return
}

func (s turnMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return
}

var turnSliceMUS = nilSliceSer[core.Turn]{ord.NewSliceSer[core.Turn](TurnMUS)}

// SessionMUS serializes core.Session.
var SessionMUS = sessionMUS{}

type sessionMUS struct{}

func (sessionMUS) Marshal(s core.Session, bs []byte) (n int) {
	n = ord.String.Marshal(s.UserId, bs)
	n += ord.String.Marshal(string(s.TenantId), bs[n:])
	n += turnSliceMUS.Marshal(s.History, bs[n:])
	n += marshalTime(s.CreatedAt, bs[n:])
	n += marshalTime(s.LastActiveAt, bs[n:])
	n += varint.Int64.Marshal(s.MessageCount, bs[n:])
	n += varint.Int64.Marshal(s.SearchCount, bs[n:])
	return
}

func (sessionMUS) Unmarshal(bs []byte) (s core.Session, n int, err error) {
	var n1 int
	if s.UserId, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	var tenant string
	if tenant, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return s, n + n1, err
	}
	s.TenantId = core.TenantID(tenant)
	n += n1
	if s.History, n1, err = turnSliceMUS.Unmarshal(bs[n:]); err != nil {
		return s, n + n1, err
	}
	n += n1
	if s.CreatedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return s, n + n1, err
	}
	n += n1
	if s.LastActiveAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return s, n + n1, err
	}
	n += n1
	if s.MessageCount, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return s, n + n1, err
	}
	n += n1
	if s.SearchCount, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return s, n + n1, err
	}
	n += n1
	return
}

func (sessionMUS) Size(s core.Session) (size int) {
	size = ord.String.Size(s.UserId)
	size += ord.String.Size(string(s.TenantId))
	size += turnSliceMUS.Size(s.History)
	size += sizeTime(s.CreatedAt)
	size += sizeTime(s.LastActiveAt)
	size += varint.Int64.Size(s.MessageCount)
	size += varint.Int64.Size(s.SearchCount)
	return
}

// RateWindowMUS serializes core.RateWindow.
var RateWindowMUS = rateWindowMUS{}

type rateWindowMUS struct{}

func (rateWindowMUS) Marshal(w core.RateWindow, bs []byte) (n int) {
	n = varint.Int64.Marshal(w.Count, bs)
	n += marshalTime(w.WindowStart, bs[n:])
	return
}

func (rateWindowMUS) Unmarshal(bs []byte) (w core.RateWindow, n int, err error) {
	var n1 int
	if w.Count, n, err = varint.Int64.Unmarshal(bs); err != nil {
		return
	}
	if w.WindowStart, n1, err = unmarshalTime(bs[n:]); err != nil {
		return w, n + n1, err
	}
	n += n1
	return
}

func (rateWindowMUS) Size(w core.RateWindow) int {
	return varint.Int64.Size(w.Count) + sizeTime(w.WindowStart)
}

// VectorCacheEntryMUS serializes core.VectorCacheEntry.
var VectorCacheEntryMUS = vectorCacheEntryMUS{}

type vectorCacheEntryMUS struct{}

func (vectorCacheEntryMUS) Marshal(e core.VectorCacheEntry, bs []byte) (n int) {
	n = float32SliceMUS.Marshal(e.Vector, bs)
	n += ord.String.Marshal(e.ModelVersion, bs[n:])
	n += varint.Int64.Marshal(e.HitCount, bs[n:])
	n += marshalTime(e.LastUsed, bs[n:])
	return
}

func (vectorCacheEntryMUS) Unmarshal(bs []byte) (e core.VectorCacheEntry, n int, err error) {
	var n1 int
	if e.Vector, n, err = float32SliceMUS.Unmarshal(bs); err != nil {
		return
	}
	if e.ModelVersion, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return e, n + n1, err
	}
	n += n1
	if e.HitCount, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return e, n + n1, err
	}
	n += n1
	if e.LastUsed, n1, err = unmarshalTime(bs[n:]); err != nil {
		return e, n + n1, err
	}
	n += n1
	return
}

func (vectorCacheEntryMUS) Size(e core.VectorCacheEntry) (size int) {
	size = float32SliceMUS.Size(e.Vector)
	size += ord.String.Size(e.ModelVersion)
	size += varint.Int64.Size(e.HitCount)
	size += sizeTime(e.LastUsed)
	return
}

// RankedMemberMUS serializes core.RankedMember with a full member snapshot so
// cached responses replay without a repository round trip.
var RankedMemberMUS = rankedMemberMUS{}

type rankedMemberMUS struct{}

func (rankedMemberMUS) Marshal(r core.RankedMember, bs []byte) (n int) {
	n = MemberRecordMUS.Marshal(*r.Member, bs)
	n += varint.Float32.Marshal(r.Score, bs[n:])
	n += varint.Float32.Marshal(r.VectorSim, bs[n:])
	n += varint.Float32.Marshal(r.KeywordScore, bs[n:])
	n += varint.Float32.Marshal(r.Completeness, bs[n:])
	n += varint.Float32.Marshal(r.Recency, bs[n:])
	return
}

func (rankedMemberMUS) Unmarshal(bs []byte) (r core.RankedMember, n int, err error) {
	var n1 int
	var member core.MemberRecord
	if member, n, err = MemberRecordMUS.Unmarshal(bs); err != nil {
		return
	}
	r.Member = &member
	if r.Score, n1, err = varint.Float32.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.VectorSim, n1, err = varint.Float32.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.KeywordScore, n1, err = varint.Float32.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.Completeness, n1, err = varint.Float32.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.Recency, n1, err = varint.Float32.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	return
}

func (rankedMemberMUS) Size(r core.RankedMember) (size int) {
	size = MemberRecordMUS.Size(*r.Member)
	size += varint.Float32.Size(r.Score)
	size += varint.Float32.Size(r.VectorSim)
	size += varint.Float32.Size(r.KeywordScore)
	size += varint.Float32.Size(r.Completeness)
	size += varint.Float32.Size(r.Recency)
	return
}

func (s rankedMemberMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return
}

var rankedSliceMUS = nilSliceSer[core.RankedMember]{ord.NewSliceSer[core.RankedMember](RankedMemberMUS)}

// CachedResponseMUS serializes core.CachedResponse.
var CachedResponseMUS = cachedResponseMUS{}

type cachedResponseMUS struct{}

func (cachedResponseMUS) Marshal(r core.CachedResponse, bs []byte) (n int) {
	n = ord.String.Marshal(r.Text, bs)
	n += varint.Int.Marshal(int(r.Intent), bs[n:])
	n += rankedSliceMUS.Marshal(r.Members, bs[n:])
	n += ord.Bool.Marshal(r.Broadened, bs[n:])
	n += ord.Bool.Marshal(r.Degraded, bs[n:])
	n += varint.Int64.Marshal(r.HitCount, bs[n:])
	n += marshalTime(r.StoredAt, bs[n:])
	return
}

func (cachedResponseMUS) Unmarshal(bs []byte) (r core.CachedResponse, n int, err error) {
	var n1 int
	if r.Text, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	var intent int
	if intent, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	r.Intent = core.Intent(intent)
	n += n1
	if r.Members, n1, err = rankedSliceMUS.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.Broadened, n1, err = ord.Bool.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.Degraded, n1, err = ord.Bool.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.HitCount, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.StoredAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	return
}

func (cachedResponseMUS) Size(r core.CachedResponse) (size int) {
	size = ord.String.Size(r.Text)
	size += varint.Int.Size(int(r.Intent))
	size += rankedSliceMUS.Size(r.Members)
	size += ord.Bool.Size(r.Broadened)
	size += ord.Bool.Size(r.Degraded)
	size += varint.Int64.Size(r.HitCount)
	size += sizeTime(r.StoredAt)
	return
}

// MarshalMemberRecord serializes a MemberRecord to bytes.
func MarshalMemberRecord(record *core.MemberRecord) []byte {
	buf := make([]byte, MemberRecordMUS.Size(*record))
	MemberRecordMUS.Marshal(*record, buf)
	return buf
}

// UnmarshalMemberRecord deserializes a MemberRecord from bytes.
func UnmarshalMemberRecord(data []byte) (*core.MemberRecord, error) {
	record, _, err := MemberRecordMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// MarshalEmbeddingRecord serializes an EmbeddingRecord to bytes.
func MarshalEmbeddingRecord(record *core.EmbeddingRecord) []byte {
	buf := make([]byte, EmbeddingRecordMUS.Size(*record))
	EmbeddingRecordMUS.Marshal(*record, buf)
	return buf
}

// UnmarshalEmbeddingRecord deserializes an EmbeddingRecord from bytes.
func UnmarshalEmbeddingRecord(data []byte) (*core.EmbeddingRecord, error) {
	record, _, err := EmbeddingRecordMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// MarshalSession serializes a Session to bytes.
func MarshalSession(session *core.Session) []byte {
	buf := make([]byte, SessionMUS.Size(*session))
	SessionMUS.Marshal(*session, buf)
	return buf
}

// UnmarshalSession deserializes a Session from bytes.
func UnmarshalSession(data []byte) (*core.Session, error) {
	session, _, err := SessionMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// MarshalRateWindow serializes a RateWindow to bytes.
func MarshalRateWindow(window *core.RateWindow) []byte {
	buf := make([]byte, RateWindowMUS.Size(*window))
	RateWindowMUS.Marshal(*window, buf)
	return buf
}

// UnmarshalRateWindow deserializes a RateWindow from bytes.
func UnmarshalRateWindow(data []byte) (*core.RateWindow, error) {
	window, _, err := RateWindowMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &window, nil
}

// MarshalVectorCacheEntry serializes a VectorCacheEntry to bytes.
func MarshalVectorCacheEntry(entry *core.VectorCacheEntry) []byte {
	buf := make([]byte, VectorCacheEntryMUS.Size(*entry))
	VectorCacheEntryMUS.Marshal(*entry, buf)
	return buf
}

// UnmarshalVectorCacheEntry deserializes a VectorCacheEntry from bytes.
func UnmarshalVectorCacheEntry(data []byte) (*core.VectorCacheEntry, error) {
	entry, _, err := VectorCacheEntryMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// MarshalCachedResponse serializes a CachedResponse to bytes.
func MarshalCachedResponse(resp *core.CachedResponse) []byte {
	buf := make([]byte, CachedResponseMUS.Size(*resp))
	CachedResponseMUS.Marshal(*resp, buf)
	return buf
}

// UnmarshalCachedResponse deserializes a CachedResponse from bytes.
func UnmarshalCachedResponse(data []byte) (*core.CachedResponse, error) {
	resp, _, err := CachedResponseMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}
