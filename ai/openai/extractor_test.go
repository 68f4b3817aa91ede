package openai

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

// scriptedModel returns a canned reply and counts how often it is asked.
type scriptedModel struct {
	reply string
	calls int
}

func (m *scriptedModel) GenerateContent(_ context.Context, _ []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	m.calls++
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: m.reply}},
	}, nil
}

func (m *scriptedModel) Call(_ context.Context, _ string, _ ...llms.CallOption) (string, error) {
	m.calls++
	return m.reply, nil
}

func newScriptedExtractor(reply string) (*QueryExtractor, *scriptedModel) {
	model := &scriptedModel{reply: reply}
	return &QueryExtractor{client: model, logger: slog.Default()}, model
}

func TestExtractQueryParsesReply(t *testing.T) {
	extractor, model := newScriptedExtractor("```json\n" +
		`{"intent": "member_search", "location": "Chennai", "skills": ["ML"], "confidence": 0.9}` +
		"\n```")

	analysis, err := extractor.ExtractQuery(context.Background(), "find ml people in chennai")
	require.NoError(t, err)
	assert.Equal(t, "member_search", analysis.Intent)
	assert.Equal(t, "Chennai", analysis.Location)
	assert.Equal(t, []string{"ml"}, analysis.Skills)
	assert.Equal(t, 1, model.calls)
}

func TestExtractQueryMalformedReplyFailsWithoutRetry(t *testing.T) {
	extractor, model := newScriptedExtractor(`{"intent": "member_search", truncated`)

	_, err := extractor.ExtractQuery(context.Background(), "find ml people")
	require.Error(t, err)
	assert.Equal(t, 1, model.calls, "a garbled reply must not trigger more model calls")
}
