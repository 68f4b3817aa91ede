package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, cfg.EmbeddingHost, cfg.ExtractorHost)
}

func TestConfigOptions(t *testing.T) {
	cfg := NewConfig(
		WithHost("http://llm.internal:9100"),
		WithEmbeddingModel("text-embedding-3-small"),
		WithExtractorModel("gpt-4o-mini"),
	)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "http://llm.internal:9100/v1", cfg.EmbeddingHost)
	assert.Equal(t, "http://llm.internal:9100/v1", cfg.ExtractorHost)
	assert.Equal(t, "text-embedding-3-small", cfg.EmbeddingModel)
	assert.Equal(t, "gpt-4o-mini", cfg.ExtractorModel)
}

func TestConfigSplitHosts(t *testing.T) {
	cfg := NewConfig(
		WithEmbeddingHost("http://embed.internal"),
		WithExtractorHost("http://extract.internal/"),
	)
	cfg.Normalize()
	assert.Equal(t, "http://embed.internal/v1", cfg.EmbeddingHost)
	assert.Equal(t, "http://extract.internal/v1", cfg.ExtractorHost)
}

func TestConfigValidateRejectsMissingFields(t *testing.T) {
	cases := map[string]*Config{
		"missing embedding host": {ExtractorHost: "h", EmbeddingModel: "m", ExtractorModel: "m"},
		"missing embedding model": {EmbeddingHost: "h", ExtractorHost: "h", ExtractorModel: "m"},
		"missing extractor model": {EmbeddingHost: "h", ExtractorHost: "h", EmbeddingModel: "m"},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, cfg.Validate())
		})
	}
}
