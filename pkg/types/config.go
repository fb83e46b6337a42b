// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Provider identifies the remote generation service.
type Provider string

const (
	ProviderGemini Provider = "gemini"
	ProviderClaude Provider = "claude"
)

// DefaultModel returns the model used when none is configured.
func (p Provider) DefaultModel() string {
	switch p {
	case ProviderClaude:
		return "claude-sonnet-4-5-20250929"
	default:
		return "gemini-2.5-flash"
	}
}

// HTTPConfig holds shared HTTP settings for the remote service client.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout. Zero leaves timeouts to the transport.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// AIConfig holds settings shared by every stage that calls the remote service.
type AIConfig struct {
	HTTPConfig `yaml:",inline"`

	// Provider selects the generation backend (default gemini).
	Provider Provider `json:"provider" yaml:"provider"`

	// Model is the model identifier (e.g. "gemini-2.5-flash").
	Model string `json:"model" yaml:"model"`

	// APIKey is the credential for the remote service.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxOutputTokens caps each response (default 5000).
	MaxOutputTokens int `json:"max_output_tokens" yaml:"max_output_tokens"`
}

// RetryConfig controls the backoff applied to remote calls.
type RetryConfig struct {
	// MaxRetries is the number of retries after the first attempt (default 2).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// InitialDelay is the wait before the first retry; it doubles after
	// each further failure (default 4s).
	InitialDelay time.Duration `json:"initial_delay" yaml:"initial_delay"`
}

// FetchConfig holds settings for the story fetch stage.
type FetchConfig struct {
	// Count is the number of stories kept from the upstream response (default 6).
	Count int `json:"count" yaml:"count"`
}

// PipelineConfig groups the settings for one generation run.
type PipelineConfig struct {
	AI    AIConfig    `json:"ai" yaml:"ai"`
	Retry RetryConfig `json:"retry" yaml:"retry"`
	Fetch FetchConfig `json:"fetch" yaml:"fetch"`

	// Styles is the declared rewrite order; it must contain the baseline.
	Styles []Style `json:"styles" yaml:"styles"`

	// StylesFile optionally overrides the built-in style guides.
	StylesFile string `json:"styles_file,omitempty" yaml:"styles_file,omitempty"`

	// InterStyleDelay is the pause after each style's rewrite (default 2s).
	InterStyleDelay time.Duration `json:"inter_style_delay" yaml:"inter_style_delay"`

	// OutputPath is where the dataset is written (default public/news-data.json).
	OutputPath string `json:"output_path" yaml:"output_path"`

	// AllowPartial persists a dataset even when a style's rewrite fails,
	// recording the failure instead of aborting the run.
	AllowPartial bool `json:"allow_partial" yaml:"allow_partial"`

	Archive ArchiveConfig `json:"archive" yaml:"archive"`
}

// ArchiveConfig holds settings for the run history database.
type ArchiveConfig struct {
	// Enabled records each persisted dataset in the archive (default true).
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Path is the SQLite database file (default data/archive.db).
	Path string `json:"path" yaml:"path"`
}
