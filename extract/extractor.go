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


package extract

import (
	"context"
	"strings"

	"github.com/communehq/membersearch/core"
)

// TenantContext carries per-community extraction settings: vocabulary
// extensions and the default currency unit for ambiguous amounts.
type TenantContext struct {
	TenantID            core.TenantID
	ExtraCities         []string
	ExtraSkills         []string
	ExtraServices       []string
	DefaultCurrencyUnit int64 // rupees per unit for unit-less amounts; 0 means crore
}

func (tc TenantContext) currencyUnit() int64 {
	if tc.DefaultCurrencyUnit > 0 {
		return tc.DefaultCurrencyUnit
	}
	return UnitCrore
}

// Extractor classifies intent and pulls structured filters out of raw text.
// Implementations never fail for malformed input: the worst case is an
// unknown intent with empty entities and zero confidence. The degraded flag
// reports that a slow-path fallback was attempted and lost.
type Extractor interface {
	Extract(ctx context.Context, text string, tc TenantContext) (ex core.Extraction, degraded bool)
}

// FastExtractor is the deterministic pattern stage: ordered pattern groups
// for intent, gazetteer and vocabulary matching for entities, and explicit
// numeric-range parsing. Identical input always yields identical output.
type FastExtractor struct{}

var _ Extractor = (*FastExtractor)(nil)

// NewFastExtractor creates the pattern-stage extractor.
func NewFastExtractor() *FastExtractor {
	return &FastExtractor{}
}

// Extract runs the fast path. The degraded flag is always false here.
func (f *FastExtractor) Extract(_ context.Context, text string, tc TenantContext) (core.Extraction, bool) {
	norm := NormalizeText(text)
	if norm == "" {
		return core.Extraction{
			Intent: core.IntentConversational,
			Method: core.MethodRegex,
		}, false
	}

	if greetingPattern.MatchString(norm) {
		return core.Extraction{
			Intent:     core.IntentConversational,
			Confidence: 0.9,
			Method:     core.MethodRegex,
		}, false
	}

	docMatches := matchCount(documentPatterns, norm)
	memberMatches := matchCount(memberVerbPatterns, norm) + matchCount(memberNounPatterns, norm)

	var intent core.Intent
	var intentMatches int
	switch {
	case docMatches > 0 && memberMatches > 0:
		intent = core.IntentHybrid
		intentMatches = docMatches + memberMatches
	case docMatches > 0:
		intent = core.IntentDocumentQA
		intentMatches = docMatches
	case memberMatches > 0:
		intent = core.IntentMemberSearch
		intentMatches = memberMatches
	default:
		// Default to member search with low confidence; the chain decides
		// whether the slow path should take a look.
		intent = core.IntentMemberSearch
		intentMatches = 0
	}

	entities, lowConfidence := f.extractEntities(norm, tc)

	ex := core.Extraction{
		Intent:              intent,
		Entities:            entities,
		Confidence:          scoreConfidence(intentMatches, &entities, len(lowConfidence)),
		Method:              core.MethodRegex,
		LowConfidenceFields: lowConfidence,
	}
	ex.Clamp()
	return ex, false
}

func (f *FastExtractor) extractEntities(norm string, tc TenantContext) (core.Entities, []string) {
	var entities core.Entities
	var lowConfidence []string

	// Location: gazetteer match, first hit is primary.
	for _, city := range append(append([]string{}, defaultCities...), normalizeTerms(tc.ExtraCities)...) {
		if containsTerm(norm, city) {
			if entities.Location == "" {
				entities.Location = city
			} else if city != entities.Location {
				entities.Locations = append(entities.Locations, city)
			}
		}
	}

	entities.Skills = matchVocabulary(norm, append(append([]string{}, defaultSkills...), normalizeTerms(tc.ExtraSkills)...))
	entities.Services = matchVocabulary(norm, append(append([]string{}, defaultServices...), normalizeTerms(tc.ExtraServices)...))

	for _, degree := range defaultDegrees {
		if containsTerm(norm, degree) {
			entities.Degree = degree
			break
		}
	}

	entities.YearRange = parseYearRange(norm)

	turnover, ambiguous := parseTurnoverRange(norm, tc.currencyUnit())
	if turnover != nil {
		// A span already claimed by the year parser is not a turnover bound.
		if entities.YearRange == nil || turnoverDistinct(turnover, entities.YearRange) {
			entities.TurnoverRange = turnover
			if ambiguous {
				lowConfidence = append(lowConfidence, "turnoverRange")
			}
		}
	}

	return entities, lowConfidence
}

// turnoverDistinct reports whether the turnover bounds are not just the year
// bounds re-parsed without a unit.
func turnoverDistinct(turnover, years *core.Range) bool {
	return turnover.Min != years.Min*UnitCrore && turnover.Min != years.Min
}

// scoreConfidence blends intent-pattern strength, the number of entity fields
// matched, and the absence of ambiguous signals.
func scoreConfidence(intentMatches int, entities *core.Entities, ambiguousFields int) float32 {
	var confidence float32
	switch {
	case intentMatches >= 2:
		confidence = 0.55
	case intentMatches == 1:
		confidence = 0.4
	default:
		confidence = 0.2
	}

	fields := 0
	if len(entities.AllLocations()) > 0 {
		fields++
	}
	if len(entities.Skills) > 0 {
		fields++
	}
	if len(entities.Services) > 0 {
		fields++
	}
	if entities.Degree != "" {
		fields++
	}
	if entities.YearRange != nil {
		fields++
	}
	if entities.TurnoverRange != nil {
		fields++
	}
	if fields > 3 {
		fields = 3
	}
	confidence += 0.15 * float32(fields)

	confidence -= 0.1 * float32(ambiguousFields)
	return confidence
}

// NormalizeText lowercases, trims, and collapses whitespace. Shared with the
// embedding cache so cache keys and extraction agree on normalization.
func NormalizeText(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(text))), " ")
}

func normalizeTerms(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if n := NormalizeText(t); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// containsTerm reports whether term occurs in text on word boundaries.
func containsTerm(text, term string) bool {
	idx := 0
	for {
		i := strings.Index(text[idx:], term)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(term)
		beforeOK := start == 0 || !isWordChar(text[start-1])
		afterOK := end == len(text) || !isWordChar(text[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

// matchVocabulary returns the vocabulary terms present in text, preserving
// vocabulary order. Longer terms are listed first in the vocabularies, so a
// multi-word hit suppresses its single-word substrings.
func matchVocabulary(text string, vocab []string) []string {
	var matched []string
	for _, term := range vocab {
		if !containsTerm(text, term) {
			continue
		}
		covered := false
		for _, prior := range matched {
			if strings.Contains(prior, term) {
				covered = true
				break
			}
		}
		if !covered {
			matched = append(matched, term)
		}
	}
	return matched
}
