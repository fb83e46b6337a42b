// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline sequences one generation run: fetch the baseline
// stories, rewrite them once per style, and persist the dataset.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/news-brief/pkg/types"
)

// StoryFetcher produces the baseline story set.
type StoryFetcher interface {
	Fetch(ctx context.Context) ([]types.Story, error)
}

// StyleRewriter produces one styled variant of the baseline.
type StyleRewriter interface {
	Rewrite(ctx context.Context, stories []types.Story, style types.Style) ([]types.Story, error)
}

// Recorder keeps a history of persisted datasets. Recording happens after
// the dataset file is written; a Recorder failure does not fail the run.
type Recorder interface {
	Record(ctx context.Context, run Run) error
}

// State is a step of the run state machine:
// start → fetching → rewriting(style)… → persisting → done, or failed.
type State string

const (
	StateStart      State = "start"
	StateFetching   State = "fetching"
	StateRewriting  State = "rewriting"
	StatePersisting State = "persisting"
	StateDone       State = "done"
	StateFailed     State = "failed"
)

// Transition is one entry of a run's state history. Style is set for
// rewriting steps only.
type Transition struct {
	State State
	Style types.Style
}

// Run describes a completed or failed pipeline run.
type Run struct {
	ID          string
	Provider    types.Provider
	Model       string
	OutputPath  string
	Dataset     *types.Dataset
	Transitions []Transition
}

// State returns the last state reached.
func (r *Run) State() State {
	if len(r.Transitions) == 0 {
		return StateStart
	}
	return r.Transitions[len(r.Transitions)-1].State
}

// Pipeline is the orchestrator. One outstanding remote call at a time:
// styles are rewritten sequentially in declared order.
type Pipeline struct {
	fetcher  StoryFetcher
	rewriter StyleRewriter
	recorder Recorder
	cfg      types.PipelineConfig
	w        io.Writer
	logger   *slog.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New returns a Pipeline for cfg, which must already carry defaults.
// recorder may be nil.
func New(fetcher StoryFetcher, rewriter StyleRewriter, recorder Recorder, cfg types.PipelineConfig, w io.Writer, logger *slog.Logger) (*Pipeline, error) {
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	if w == nil {
		w = io.Discard
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		fetcher:  fetcher,
		rewriter: rewriter,
		recorder: recorder,
		cfg:      cfg,
		w:        w,
		logger:   logger,
		now:      time.Now,
		sleep:    sleepContext,
	}, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Run executes the whole pipeline. On strict runs any failure aborts
// before anything is written. With AllowPartial, a style whose rewrite
// fails carries the baseline text and is listed in Dataset.Failures.
func (p *Pipeline) Run(ctx context.Context) (*Run, error) {
	run := &Run{
		ID:         uuid.NewString(),
		Provider:   p.cfg.AI.Provider,
		Model:      p.cfg.AI.Model,
		OutputPath: p.cfg.OutputPath,
	}
	logger := p.logger.With("run_id", run.ID)
	p.enter(run, logger, StateStart, "")

	fail := func(err error) (*Run, error) {
		p.enter(run, logger, StateFailed, "")
		return run, err
	}

	p.enter(run, logger, StateFetching, "")
	fmt.Fprintf(p.w, "fetching %d stories (%s)\n", p.cfg.Fetch.Count, p.cfg.AI.Model)
	baseline, err := p.fetcher.Fetch(ctx)
	if err != nil {
		return fail(fmt.Errorf("fetch: %w", err))
	}
	fmt.Fprintf(p.w, "fetched %d stories\n", len(baseline))

	collection := make(types.StyledCollection, len(p.cfg.Styles))
	failures := map[types.Style]string{}

	for i, style := range p.cfg.Styles {
		p.enter(run, logger, StateRewriting, style)

		if style.IsBaseline() {
			collection[style] = slices.Clone(baseline)
			fmt.Fprintf(p.w, "baseline %s (%d stories)\n", style, len(baseline))
			continue
		}

		fmt.Fprintf(p.w, "rewriting %s\n", style)
		styled, err := p.rewriter.Rewrite(ctx, baseline, style)
		if err == nil && len(styled) != len(baseline) {
			err = fmt.Errorf("rewrite returned %d stories, want %d", len(styled), len(baseline))
		}
		if err != nil {
			if !p.cfg.AllowPartial || ctx.Err() != nil {
				return fail(fmt.Errorf("rewrite %q: %w", style, err))
			}
			logger.Warn("style kept baseline text", "style", style, "error", err)
			fmt.Fprintf(p.w, "failed  %s: %v (keeping baseline text)\n", style, err)
			styled = slices.Clone(baseline)
			failures[style] = err.Error()
		}
		collection[style] = styled

		if i < len(p.cfg.Styles)-1 && p.cfg.InterStyleDelay > 0 {
			if err := p.sleep(ctx, p.cfg.InterStyleDelay); err != nil {
				return fail(err)
			}
		}
	}

	p.enter(run, logger, StatePersisting, "")
	ds := &types.Dataset{
		Timestamp: p.now().UnixMilli(),
		Stories:   collection,
	}
	if len(failures) > 0 {
		ds.Failures = failures
	}
	if err := WriteDataset(p.cfg.OutputPath, ds); err != nil {
		return fail(fmt.Errorf("persist: %w", err))
	}
	run.Dataset = ds
	fmt.Fprintf(p.w, "wrote %s (%d styles x %d stories)\n", p.cfg.OutputPath, len(collection), len(baseline))

	if p.recorder != nil {
		if err := p.recorder.Record(ctx, *run); err != nil {
			logger.Warn("archive record failed", "error", err)
			fmt.Fprintf(p.w, "warning: archive record failed: %v\n", err)
		}
	}

	p.enter(run, logger, StateDone, "")
	return run, nil
}

func (p *Pipeline) enter(run *Run, logger *slog.Logger, s State, style types.Style) {
	run.Transitions = append(run.Transitions, Transition{State: s, Style: style})
	if style != "" {
		logger.Debug("state", "state", s, "style", style)
		return
	}
	logger.Debug("state", "state", s)
}
