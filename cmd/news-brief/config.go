// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pdiddy/news-brief/internal/pipeline"
	"github.com/pdiddy/news-brief/internal/retry"
	"github.com/pdiddy/news-brief/internal/secrets"
	"github.com/pdiddy/news-brief/pkg/types"
)

func setDefaults() {
	viper.SetDefault("provider", string(types.ProviderGemini))
	viper.SetDefault("fetch.count", 6)
	viper.SetDefault("fetch.max_output_tokens", pipeline.DefaultMaxOutputTokens)
	viper.SetDefault("retry.max_retries", pipeline.DefaultMaxRetries)
	viper.SetDefault("retry.initial_delay", retry.DefaultInitialDelay)
	viper.SetDefault("pipeline.inter_style_delay", pipeline.DefaultInterStyleDelay)
	viper.SetDefault("pipeline.output", pipeline.DefaultOutputPath)
	viper.SetDefault("pipeline.allow_partial", false)
	viper.SetDefault("archive.enabled", true)
	viper.SetDefault("archive.path", pipeline.DefaultArchivePath)
}

// bindFlag ties a config key to a flag so the flag overrides the config
// file and environment when set.
func bindFlag(key string, f *pflag.Flag) {
	if err := viper.BindPFlag(key, f); err != nil {
		panic(fmt.Sprintf("binding flag %s: %v", f.Name, err))
	}
}

// aiConfig assembles the remote service settings and resolves the API key.
func aiConfig() (types.AIConfig, error) {
	provider := types.Provider(viper.GetString("provider"))
	switch provider {
	case types.ProviderGemini, types.ProviderClaude:
	default:
		return types.AIConfig{}, fmt.Errorf("unsupported provider %q (want gemini or claude)", provider)
	}

	key, source := secrets.Resolve(provider, viper.GetString("api_key"), loadedSecrets)
	if source != "" {
		slog.Debug("using API key", "provider", provider, "source", source)
	}

	return types.AIConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   viper.GetDuration("http.timeout"),
			UserAgent: pipeline.DefaultUserAgent,
		},
		Provider:        provider,
		Model:           viper.GetString("model"),
		APIKey:          key,
		MaxOutputTokens: viper.GetInt("fetch.max_output_tokens"),
	}, nil
}

// pipelineConfig assembles a full run configuration from viper with
// defaults applied.
func pipelineConfig() (types.PipelineConfig, error) {
	ai, err := aiConfig()
	if err != nil {
		return types.PipelineConfig{}, err
	}

	var styles []types.Style
	for _, label := range viper.GetStringSlice("pipeline.styles") {
		s, err := types.ParseStyle(label)
		if err != nil {
			return types.PipelineConfig{}, err
		}
		styles = append(styles, s)
	}

	interStyle := viper.GetDuration("pipeline.inter_style_delay")
	if interStyle == 0 {
		// Explicit zero means no pacing; WithDefaults reads zero as unset.
		interStyle = -1
	}

	cfg := types.PipelineConfig{
		AI: ai,
		Retry: types.RetryConfig{
			MaxRetries:   viper.GetInt("retry.max_retries"),
			InitialDelay: viper.GetDuration("retry.initial_delay"),
		},
		Fetch: types.FetchConfig{
			Count: viper.GetInt("fetch.count"),
		},
		Styles:          styles,
		StylesFile:      viper.GetString("styles_file"),
		InterStyleDelay: interStyle,
		OutputPath:      viper.GetString("pipeline.output"),
		AllowPartial:    viper.GetBool("pipeline.allow_partial"),
		Archive: types.ArchiveConfig{
			Enabled: viper.GetBool("archive.enabled"),
			Path:    viper.GetString("archive.path"),
		},
	}
	cfg = pipeline.WithDefaults(cfg)
	return cfg, pipeline.Validate(cfg)
}
