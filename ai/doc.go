// Package ai defines the provider interfaces and configuration for the
// embedding and structured-extraction services used by the search pipeline.
// Concrete implementations live in subpackages: openai for OpenAI-compatible
// APIs and mock for deterministic test doubles.
package ai
