// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the news-brief CLI.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/news-brief/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the news-brief CLI.
var rootCmd = &cobra.Command{
	Use:   "news-brief",
	Short: "Multi-perspective daily news brief generator",
	Long: `news-brief builds a static daily news brief. It asks a search-augmented
model for the day's top US stories, rewrites them in several editorial
voices, and writes one JSON dataset that a static site can serve.

Run generate to produce the dataset, show to read it back, and archive to
browse earlier editions.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		setupLogger(verbose)

		if err := secrets.LoadEnv(secrets.DefaultEnvFiles...); err != nil {
			return err
		}

		s, err := secrets.Load(secrets.DefaultDir)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			slog.Debug("loaded secrets", "keys", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./news-brief.yaml or ~/.config/news-brief/config.yaml)")
	pf.Bool("verbose", false, "log retries and state transitions to stderr")
	pf.String("provider", "", "generation backend: gemini or claude (default gemini)")
	pf.String("model", "", "model identifier (default depends on provider)")
	pf.String("api-key", "", "API key (overrides .secrets/ and environment)")
	pf.Duration("timeout", 0, "HTTP request timeout (0 = none)")
	pf.String("archive-path", "", "archive database (default data/archive.db)")

	bindFlag("provider", pf.Lookup("provider"))
	bindFlag("model", pf.Lookup("model"))
	bindFlag("api_key", pf.Lookup("api-key"))
	bindFlag("http.timeout", pf.Lookup("timeout"))
	bindFlag("archive.path", pf.Lookup("archive-path"))

	setDefaults()
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("news-brief")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "news-brief"))
		}
	}

	viper.SetEnvPrefix("NEWS_BRIEF")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func setupLogger(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
