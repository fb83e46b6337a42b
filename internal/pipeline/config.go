// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/pdiddy/news-brief/internal/fetch"
	"github.com/pdiddy/news-brief/internal/retry"
	"github.com/pdiddy/news-brief/pkg/types"
)

// Defaults applied by WithDefaults.
const (
	DefaultOutputPath      = "public/news-data.json"
	DefaultArchivePath     = "data/archive.db"
	DefaultInterStyleDelay = 2 * time.Second
	DefaultMaxRetries      = 2
	DefaultMaxOutputTokens = 5000
	DefaultUserAgent       = "news-brief/0.1"
)

// ErrMissingCredential is returned before any stage runs when no API key
// is configured.
var ErrMissingCredential = errors.New("API key not found: set GEMINI_API_KEY (or API_KEY), ANTHROPIC_API_KEY for claude, or add .secrets/<provider>-api-key")

// WithDefaults fills unset fields of cfg. A negative InterStyleDelay
// disables pacing.
func WithDefaults(cfg types.PipelineConfig) types.PipelineConfig {
	if cfg.AI.Provider == "" {
		cfg.AI.Provider = types.ProviderGemini
	}
	if cfg.AI.Model == "" {
		cfg.AI.Model = cfg.AI.Provider.DefaultModel()
	}
	if cfg.AI.MaxOutputTokens <= 0 {
		cfg.AI.MaxOutputTokens = DefaultMaxOutputTokens
	}
	if cfg.AI.UserAgent == "" {
		cfg.AI.UserAgent = DefaultUserAgent
	}
	if cfg.Retry.MaxRetries < 0 {
		cfg.Retry.MaxRetries = 0
	}
	if cfg.Retry.InitialDelay <= 0 {
		cfg.Retry.InitialDelay = retry.DefaultInitialDelay
	}
	if cfg.Fetch.Count <= 0 {
		cfg.Fetch.Count = fetch.DefaultCount
	}
	if len(cfg.Styles) == 0 {
		cfg.Styles = slices.Clone(types.AllStyles)
	}
	switch {
	case cfg.InterStyleDelay < 0:
		cfg.InterStyleDelay = 0
	case cfg.InterStyleDelay == 0:
		cfg.InterStyleDelay = DefaultInterStyleDelay
	}
	if cfg.OutputPath == "" {
		cfg.OutputPath = DefaultOutputPath
	}
	if cfg.Archive.Path == "" {
		cfg.Archive.Path = DefaultArchivePath
	}
	return cfg
}

// Validate checks the style list: every style known, no duplicates, and
// the baseline present.
func Validate(cfg types.PipelineConfig) error {
	seen := make(map[types.Style]bool, len(cfg.Styles))
	for _, s := range cfg.Styles {
		if !s.Known() {
			return fmt.Errorf("unknown style %q", s)
		}
		if seen[s] {
			return fmt.Errorf("style %q listed twice", s)
		}
		seen[s] = true
	}
	if !seen[types.BaselineStyle] {
		return fmt.Errorf("styles must include the baseline style %q", types.BaselineStyle)
	}
	return nil
}

// RequireCredential fails with ErrMissingCredential when cfg has no API key.
func RequireCredential(cfg types.AIConfig) error {
	if cfg.APIKey == "" {
		return ErrMissingCredential
	}
	return nil
}
