// Package openai implements the ai interfaces against OpenAI-compatible
// services (OpenAI, Ollama, LocalAI, vLLM) using langchaingo clients.
package openai
