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


package openai

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"strings"

	"github.com/communehq/membersearch/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
)

// QueryExtractor implements ai.QueryExtractor using OpenAI-compatible chat APIs.
type QueryExtractor struct {
	client llms.Model
	logger *slog.Logger
}

// newQueryExtractor is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newQueryExtractor(config *ai.Config) (*QueryExtractor, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Use "none" as token for local OpenAI-compatible services that don't require authentication
	client, err := openai.New(
		openai.WithBaseURL(config.ExtractorHost),
		openai.WithToken("none"),
		openai.WithModel(config.ExtractorModel),
	)
	if err != nil {
		return nil, err
	}

	return &QueryExtractor{
		client: client,
		logger: slog.Default().With("component", "openai-extractor"),
	}, nil
}

// NewQueryExtractor creates a new query extractor using the provided configuration.
//
// Returns ai.QueryExtractor interface to enforce abstraction.
func NewQueryExtractor(config *ai.Config) (ai.QueryExtractor, error) {
	return newQueryExtractor(config)
}

// ExtractQuery analyzes free text and returns the structured query analysis.
// The model is asked for strict JSON; common formatting issues are repaired
// before parsing.
func (e *QueryExtractor) ExtractQuery(ctx context.Context, text string) (*ai.QueryAnalysis, error) {
	systemPrompt := buildSystemPrompt()
	content := []llms.MessageContent{
		{
			Role: schema.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(systemPrompt),
			},
		},
		{
			Role: schema.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(text),
			},
		},
	}

	// One model call per query. A reply that cannot be parsed is an error,
	// not grounds for another round trip.
	response, err := e.client.GenerateContent(ctx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
	if err != nil {
		e.logger.Error("failed to generate content", "err", err)
		return nil, err
	}

	if len(response.Choices) < 1 {
		e.logger.Debug("no choices returned from model")
		return &ai.QueryAnalysis{Intent: "unknown"}, nil
	}

	// Strip markdown code fences if present
	responseText := strings.TrimSpace(response.Choices[0].Content)
	responseText = strings.TrimPrefix(responseText, "```json")
	responseText = strings.TrimPrefix(responseText, "```")
	responseText = strings.TrimSuffix(responseText, "```")
	responseText = strings.TrimSpace(responseText)

	// Try to repair common JSON issues
	responseText = repairJSON(responseText)

	var result ai.QueryAnalysis
	if err := json.Unmarshal([]byte(responseText), &result); err != nil {
		e.logger.Warn("error parsing extractor response", "response", responseText, "err", err)
		return nil, err
	}

	normalizeAnalysis(&result)

	e.logger.Debug("extracted query analysis",
		"intent", result.Intent,
		"location", result.Location,
		"skills", len(result.Skills),
		"confidence", result.Confidence)

	return &result, nil
}

// normalizeAnalysis lowercases list entries, drops empties, and maps an
// unrecognized intent to unknown.
func normalizeAnalysis(a *ai.QueryAnalysis) {
	a.Intent = strings.ToLower(strings.TrimSpace(a.Intent))
	if !slices.Contains(ai.Intents, a.Intent) {
		a.Intent = "unknown"
	}
	a.Location = strings.TrimSpace(a.Location)
	a.Skills = cleanTerms(a.Skills)
	a.Services = cleanTerms(a.Services)
	a.Degree = strings.ToLower(strings.TrimSpace(a.Degree))
}

func cleanTerms(terms []string) []string {
	cleaned := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			cleaned = append(cleaned, t)
		}
	}
	return cleaned
}
