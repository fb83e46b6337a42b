package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/news-brief/internal/genai"
	"github.com/pdiddy/news-brief/internal/pipeline"
)

const checkPrompt = "Say hello world"

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the API key and model with a single request",
	Long: `Check sends one small generation request to the configured provider and
prints the reply. No retries, no search, nothing written to disk.`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := aiConfig()
	if err != nil {
		return err
	}
	if err := pipeline.RequireCredential(cfg); err != nil {
		return err
	}
	if cfg.Model == "" {
		cfg.Model = cfg.Provider.DefaultModel()
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	gen, err := genai.New(cfg, &http.Client{Timeout: timeout})
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "checking %s (%s)\n", cfg.Provider, cfg.Model)
	resp, err := gen.Generate(context.Background(), genai.Request{Prompt: checkPrompt, MaxOutputTokens: 64})
	if err != nil {
		return fmt.Errorf("connection check failed: %w", err)
	}
	fmt.Fprintf(os.Stdout, "ok: %s\n", strings.TrimSpace(resp.Text))
	return nil
}
