// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package genai is the handle on the remote generation service. A Generator
// holds no per-call state, so one value is built at startup and shared by
// every pipeline stage.
package genai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/pdiddy/news-brief/pkg/types"
)

// Generator abstracts the remote service so tests can supply a fake.
// Per Strategy pattern: Gemini and Claude each implement it.
type Generator interface {
	Generate(ctx context.Context, req Request) (Response, error)
}

// Request is one generation call.
type Request struct {
	// Model overrides the backend's configured model when set.
	Model string

	// Prompt is the full user prompt.
	Prompt string

	// Search enables the provider's web search tool.
	Search bool

	// Schema, when set, asks for JSON output matching it.
	Schema *Schema

	// MaxOutputTokens caps the response length. Zero uses the backend default.
	MaxOutputTokens int
}

// Response is the text produced by one call. Text is empty when the
// service returned no text payload (blocked, truncated before output, or
// quota-limited without an error status).
type Response struct {
	Text         string
	FinishReason string
}

// Schema describes the JSON shape requested from the model. Type names
// follow the OpenAPI subset Gemini accepts (ARRAY, OBJECT, STRING).
type Schema struct {
	Type       string             `json:"type"`
	Properties map[string]*Schema `json:"properties,omitempty"`
	Items      *Schema            `json:"items,omitempty"`
	Required   []string           `json:"required,omitempty"`
}

// StringFieldsArray returns a schema for an array of objects whose listed
// fields are all required strings.
func StringFieldsArray(fields ...string) *Schema {
	props := make(map[string]*Schema, len(fields))
	for _, f := range fields {
		props[f] = &Schema{Type: "STRING"}
	}
	return &Schema{
		Type: "ARRAY",
		Items: &Schema{
			Type:       "OBJECT",
			Properties: props,
			Required:   append([]string(nil), fields...),
		},
	}
}

// APIError is a non-2xx answer from the remote service.
type APIError struct {
	Provider   types.Provider
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Status != "" {
		return fmt.Sprintf("%s API returned %d %s: %s", e.Provider, e.StatusCode, e.Status, msg)
	}
	return fmt.Sprintf("%s API returned %d: %s", e.Provider, e.StatusCode, msg)
}

// statusOverloaded is Anthropic's "overloaded" status.
const statusOverloaded = 529

// IsRetryable reports whether err signals an overloaded service or an
// exhausted quota. Those are the only failures worth waiting out; bad
// requests, auth failures, and malformed bodies are terminal.
func IsRetryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusTooManyRequests, http.StatusServiceUnavailable, statusOverloaded:
			return true
		}
		return apiErr.Status == "RESOURCE_EXHAUSTED" || apiErr.Status == "UNAVAILABLE"
	}
	return err != nil && strings.Contains(err.Error(), "429")
}

// Config selects and configures a backend.
type Config = types.AIConfig

// New returns the Generator for cfg.Provider.
func New(cfg Config, client *http.Client) (Generator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s: missing API key", cfg.Provider)
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	model := cfg.Model
	if model == "" {
		model = cfg.Provider.DefaultModel()
	}

	switch cfg.Provider {
	case types.ProviderGemini, "":
		return &GeminiBackend{APIKey: cfg.APIKey, Model: model, UserAgent: cfg.UserAgent, Client: client}, nil
	case types.ProviderClaude:
		return &ClaudeBackend{APIKey: cfg.APIKey, Model: model, UserAgent: cfg.UserAgent, Client: client}, nil
	default:
		return nil, fmt.Errorf("unsupported provider %q: use gemini or claude", cfg.Provider)
	}
}
