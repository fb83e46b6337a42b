// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/news-brief/internal/pipeline"
	"github.com/pdiddy/news-brief/pkg/types"
)

func resetConfig(t *testing.T) {
	t.Helper()
	viper.Reset()
	setDefaults()
	loadedSecrets = nil
	for _, name := range []string{"GEMINI_API_KEY", "API_KEY", "ANTHROPIC_API_KEY"} {
		t.Setenv(name, "")
	}
	t.Cleanup(viper.Reset)
}

func TestPipelineConfigDefaults(t *testing.T) {
	resetConfig(t)
	t.Setenv("GEMINI_API_KEY", "env-key")

	cfg, err := pipelineConfig()
	require.NoError(t, err)

	assert.Equal(t, types.ProviderGemini, cfg.AI.Provider)
	assert.Equal(t, "gemini-2.5-flash", cfg.AI.Model)
	assert.Equal(t, "env-key", cfg.AI.APIKey)
	assert.Equal(t, 5000, cfg.AI.MaxOutputTokens)
	assert.Equal(t, 2, cfg.Retry.MaxRetries)
	assert.Equal(t, 4*time.Second, cfg.Retry.InitialDelay)
	assert.Equal(t, 6, cfg.Fetch.Count)
	assert.Equal(t, types.AllStyles, cfg.Styles)
	assert.Equal(t, 2*time.Second, cfg.InterStyleDelay)
	assert.Equal(t, "public/news-data.json", cfg.OutputPath)
	assert.False(t, cfg.AllowPartial)
	assert.True(t, cfg.Archive.Enabled)
	assert.Equal(t, "data/archive.db", cfg.Archive.Path)
}

func TestPipelineConfigOverrides(t *testing.T) {
	resetConfig(t)
	loadedSecrets = map[string]string{"claude-api-key": "file-key"}
	viper.Set("provider", "claude")
	viper.Set("retry.max_retries", 0)
	viper.Set("pipeline.inter_style_delay", "0s")
	viper.Set("pipeline.styles", []string{"neutral", "satire"})
	viper.Set("pipeline.allow_partial", true)

	cfg, err := pipelineConfig()
	require.NoError(t, err)

	assert.Equal(t, types.ProviderClaude, cfg.AI.Provider)
	assert.Equal(t, "claude-sonnet-4-5-20250929", cfg.AI.Model)
	assert.Equal(t, "file-key", cfg.AI.APIKey)
	assert.Equal(t, 0, cfg.Retry.MaxRetries)
	assert.Equal(t, time.Duration(0), cfg.InterStyleDelay)
	assert.Equal(t, []types.Style{types.StyleNeutral, types.StyleSatire}, cfg.Styles)
	assert.True(t, cfg.AllowPartial)
}

func TestPipelineConfigErrors(t *testing.T) {
	tests := []struct {
		name   string
		key    string
		value  any
		errMsg string
	}{
		{"unknown provider", "provider", "openai", `unsupported provider "openai"`},
		{"unknown style", "pipeline.styles", []string{"Neutral", "Haiku"}, `unknown style "Haiku"`},
		{"baseline missing", "pipeline.styles", []string{"Satire"}, "must include the baseline"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetConfig(t)
			viper.Set(tt.key, tt.value)
			_, err := pipelineConfig()
			assert.ErrorContains(t, err, tt.errMsg)
		})
	}
}

func TestMissingCredentialStopsBeforeAnyStage(t *testing.T) {
	resetConfig(t)

	cfg, err := pipelineConfig()
	require.NoError(t, err)
	assert.ErrorIs(t, pipeline.RequireCredential(cfg.AI), pipeline.ErrMissingCredential)
}

func TestBuildPipelineWithoutArchive(t *testing.T) {
	resetConfig(t)
	viper.Set("api_key", "k")
	viper.Set("archive.enabled", false)

	cfg, err := pipelineConfig()
	require.NoError(t, err)

	var out bytes.Buffer
	p, closeFn, err := buildPipeline(cfg, &out, nil)
	require.NoError(t, err)
	defer closeFn()
	assert.NotNil(t, p)
}
