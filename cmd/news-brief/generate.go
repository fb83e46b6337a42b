package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/pdiddy/news-brief/internal/archive"
	"github.com/pdiddy/news-brief/internal/fetch"
	"github.com/pdiddy/news-brief/internal/genai"
	"github.com/pdiddy/news-brief/internal/pipeline"
	"github.com/pdiddy/news-brief/internal/retry"
	"github.com/pdiddy/news-brief/internal/rewrite"
	"github.com/pdiddy/news-brief/pkg/types"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Fetch today's stories, rewrite them per style, and write the dataset",
	Long: `Generate runs the full pipeline: one search-augmented request for the
day's top stories, one rewrite request per configured style (the Neutral
baseline is kept as fetched), then a single atomic write of the dataset
file. Overload and quota errors are retried with exponential backoff.

By default any failed style aborts the run and the previous dataset file
is left in place. With --allow-partial a failed style keeps the baseline
text and is listed under "failures" in the dataset.`,
	RunE: runGenerate,
}

func init() {
	f := generateCmd.Flags()
	f.StringP("output", "o", "", "dataset file (default public/news-data.json)")
	f.Int("count", 0, "number of stories to keep (default 6)")
	f.StringSlice("styles", nil, "styles to produce, in order (default all; must include Neutral)")
	f.String("styles-file", "", "YAML file overriding style guides")
	f.Bool("allow-partial", false, "write the dataset even if some styles fail")
	f.Duration("inter-style-delay", 0, "pause after each style (default 2s)")
	f.Int("max-retries", 0, "retries after the first attempt of each remote call (default 2)")
	f.Duration("initial-delay", 0, "first backoff wait, doubled per retry (default 4s)")
	f.Bool("no-archive", false, "do not record the run in the archive database")

	bindFlag("pipeline.output", f.Lookup("output"))
	bindFlag("fetch.count", f.Lookup("count"))
	bindFlag("pipeline.styles", f.Lookup("styles"))
	bindFlag("styles_file", f.Lookup("styles-file"))
	bindFlag("pipeline.allow_partial", f.Lookup("allow-partial"))
	bindFlag("pipeline.inter_style_delay", f.Lookup("inter-style-delay"))
	bindFlag("retry.max_retries", f.Lookup("max-retries"))
	bindFlag("retry.initial_delay", f.Lookup("initial-delay"))

	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := pipelineConfig()
	if err != nil {
		return err
	}
	if noArchive, _ := cmd.Flags().GetBool("no-archive"); noArchive {
		cfg.Archive.Enabled = false
	}
	if err := pipeline.RequireCredential(cfg.AI); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	p, closeFn, err := buildPipeline(cfg, os.Stdout, slog.Default())
	if err != nil {
		return err
	}
	defer closeFn()

	run, err := p.Run(ctx)
	if err != nil {
		return fmt.Errorf("run %s: %w", run.ID, err)
	}
	if n := len(run.Dataset.Failures); n > 0 {
		fmt.Fprintf(os.Stdout, "%d style(s) kept baseline text\n", n)
	}
	return nil
}

// buildPipeline wires the backend, stages, and optional archive recorder
// for cfg. The returned func releases the archive.
func buildPipeline(cfg types.PipelineConfig, w io.Writer, logger *slog.Logger) (*pipeline.Pipeline, func(), error) {
	if logger == nil {
		logger = slog.Default()
	}
	gen, err := genai.New(cfg.AI, &http.Client{Timeout: cfg.AI.Timeout})
	if err != nil {
		return nil, nil, err
	}

	catalog := rewrite.Catalog{}
	if cfg.StylesFile != "" {
		catalog, err = rewrite.LoadCatalog(cfg.StylesFile)
		if err != nil {
			return nil, nil, err
		}
	}

	policy := retry.Policy{
		MaxRetries:   cfg.Retry.MaxRetries,
		InitialDelay: cfg.Retry.InitialDelay,
		Retryable:    genai.IsRetryable,
		Logger:       logger,
	}
	fetcher := fetch.New(gen, policy, cfg.Fetch, cfg.AI.MaxOutputTokens, logger)
	rewriter := rewrite.New(gen, policy, cfg.AI.MaxOutputTokens, catalog, logger)

	var (
		recorder pipeline.Recorder
		closeFn  = func() {}
	)
	if cfg.Archive.Enabled {
		store, err := archive.NewStore(cfg.Archive.Path)
		if err != nil {
			logger.Warn("archive unavailable, run will not be recorded", "path", cfg.Archive.Path, "error", err)
		} else {
			recorder = store
			closeFn = func() { store.Close() }
		}
	}

	p, err := pipeline.New(fetcher, rewriter, recorder, cfg, w, logger)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return p, closeFn, nil
}
