// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/news-brief/internal/fetch"
	"github.com/pdiddy/news-brief/internal/genai"
	"github.com/pdiddy/news-brief/internal/retry"
	"github.com/pdiddy/news-brief/internal/rewrite"
	"github.com/pdiddy/news-brief/pkg/types"
)

// --- fakes ---

type fakeFetcher struct {
	stories []types.Story
	err     error
	calls   int
}

func (f *fakeFetcher) Fetch(context.Context) ([]types.Story, error) {
	f.calls++
	return f.stories, f.err
}

type fakeRewriter struct {
	failOn map[types.Style]error
	short  types.Style
	calls  []types.Style
}

func (r *fakeRewriter) Rewrite(_ context.Context, stories []types.Story, style types.Style) ([]types.Story, error) {
	r.calls = append(r.calls, style)
	if err := r.failOn[style]; err != nil {
		return nil, err
	}
	out := make([]types.Story, len(stories))
	for i, s := range stories {
		s.Headline = fmt.Sprintf("[%s] %s", style, s.Headline)
		out[i] = s
	}
	if style == r.short {
		out = out[:len(out)-1]
	}
	return out, nil
}

type fakeRecorder struct {
	runs []Run
	err  error
}

func (r *fakeRecorder) Record(_ context.Context, run Run) error {
	r.runs = append(r.runs, run)
	return r.err
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func sixStories() []types.Story {
	stories := make([]types.Story, 6)
	for i := range stories {
		stories[i] = types.Story{
			ID:             fmt.Sprintf("story-1-%d", i),
			Headline:       fmt.Sprintf("Headline %d", i),
			Content:        fmt.Sprintf("Content %d", i),
			OriginalSource: "AP",
			PublishedTime:  "Today",
		}
	}
	return stories
}

func testConfig(t *testing.T) types.PipelineConfig {
	t.Helper()
	cfg := WithDefaults(types.PipelineConfig{})
	cfg.OutputPath = filepath.Join(t.TempDir(), "public", "news-data.json")
	return cfg
}

type harness struct {
	pipeline *Pipeline
	sleeps   []time.Duration
	out      strings.Builder
}

func newHarness(t *testing.T, f StoryFetcher, r StyleRewriter, rec Recorder, cfg types.PipelineConfig) *harness {
	t.Helper()
	h := &harness{}
	p, err := New(f, r, rec, cfg, &h.out, discard)
	require.NoError(t, err)
	p.now = func() time.Time { return time.UnixMilli(1760900000000) }
	p.sleep = func(_ context.Context, d time.Duration) error {
		h.sleeps = append(h.sleeps, d)
		return nil
	}
	h.pipeline = p
	return h
}

func readDataset(t *testing.T, path string) types.Dataset {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var ds types.Dataset
	require.NoError(t, json.Unmarshal(data, &ds))
	return ds
}

// --- Run ---

func TestRun_EndToEnd(t *testing.T) {
	cfg := testConfig(t)
	f := &fakeFetcher{stories: sixStories()}
	r := &fakeRewriter{}
	rec := &fakeRecorder{}
	h := newHarness(t, f, r, rec, cfg)

	run, err := h.pipeline.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateDone, run.State())
	assert.NotEmpty(t, run.ID)

	ds := readDataset(t, cfg.OutputPath)
	assert.Equal(t, int64(1760900000000), ds.Timestamp)
	assert.Len(t, ds.Stories, 6)
	for _, style := range types.AllStyles {
		stories, ok := ds.Stories[style]
		require.True(t, ok, "missing style %s", style)
		require.Len(t, stories, 6)
		for i, s := range stories {
			assert.Equal(t, fmt.Sprintf("story-1-%d", i), s.ID)
		}
	}
	assert.Equal(t, "Headline 0", ds.Stories[types.StyleNeutral][0].Headline)
	assert.Equal(t, "[Satire] Headline 0", ds.Stories[types.StyleSatire][0].Headline)
	assert.Empty(t, ds.Failures)

	assert.Equal(t, 1, f.calls)
	// Baseline is not sent to the rewriter; the others go in declared order.
	assert.Equal(t, []types.Style{
		types.StyleLeft, types.StyleRight, types.StyleSatire, types.StyleELI12, types.StyleFiction,
	}, r.calls)

	// Paced after each remote rewrite except the last style.
	assert.Equal(t, []time.Duration{
		DefaultInterStyleDelay, DefaultInterStyleDelay, DefaultInterStyleDelay, DefaultInterStyleDelay,
	}, h.sleeps)

	require.Len(t, rec.runs, 1)
	assert.Equal(t, run.ID, rec.runs[0].ID)
	assert.Equal(t, cfg.OutputPath, rec.runs[0].OutputPath)

	assert.Contains(t, h.out.String(), "rewriting Micro Fiction")
	assert.Contains(t, h.out.String(), "wrote ")
}

func TestRun_StateSequence(t *testing.T) {
	cfg := testConfig(t)
	cfg.Styles = []types.Style{types.StyleNeutral, types.StyleSatire}
	h := newHarness(t, &fakeFetcher{stories: sixStories()}, &fakeRewriter{}, nil, cfg)

	run, err := h.pipeline.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Transition{
		{State: StateStart},
		{State: StateFetching},
		{State: StateRewriting, Style: types.StyleNeutral},
		{State: StateRewriting, Style: types.StyleSatire},
		{State: StatePersisting},
		{State: StateDone},
	}, run.Transitions)
	assert.Empty(t, h.sleeps)
}

func TestRun_FetchFailureIsFatal(t *testing.T) {
	cfg := testConfig(t)
	boom := errors.New("upstream overloaded")
	r := &fakeRewriter{}
	h := newHarness(t, &fakeFetcher{err: boom}, r, nil, cfg)

	run, err := h.pipeline.Run(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, StateFailed, run.State())
	assert.Empty(t, r.calls)
	assert.NoFileExists(t, cfg.OutputPath)
}

func TestRun_StyleFailureAbortsStrictRun(t *testing.T) {
	cfg := testConfig(t)
	boom := errors.New("quota exceeded")
	r := &fakeRewriter{failOn: map[types.Style]error{types.StyleSatire: boom}}
	rec := &fakeRecorder{}
	h := newHarness(t, &fakeFetcher{stories: sixStories()}, r, rec, cfg)

	run, err := h.pipeline.Run(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), `rewrite "Satire"`)
	assert.Equal(t, StateFailed, run.State())
	assert.Nil(t, run.Dataset)
	assert.NoFileExists(t, cfg.OutputPath)
	assert.Empty(t, rec.runs)
	// Later styles are never attempted.
	assert.NotContains(t, r.calls, types.StyleELI12)
}

func TestRun_StyleFailureKeepsBaselineWhenPartialAllowed(t *testing.T) {
	cfg := testConfig(t)
	cfg.AllowPartial = true
	r := &fakeRewriter{failOn: map[types.Style]error{types.StyleSatire: errors.New("quota exceeded")}}
	h := newHarness(t, &fakeFetcher{stories: sixStories()}, r, nil, cfg)

	run, err := h.pipeline.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateDone, run.State())

	ds := readDataset(t, cfg.OutputPath)
	assert.Len(t, ds.Stories, 6)
	assert.Equal(t, sixStories(), ds.Stories[types.StyleSatire])
	assert.Equal(t, map[types.Style]string{types.StyleSatire: "quota exceeded"}, ds.Failures)
	assert.Equal(t, "[Micro Fiction] Headline 0", ds.Stories[types.StyleFiction][0].Headline)
}

func TestRun_LengthMismatchIsFailure(t *testing.T) {
	cfg := testConfig(t)
	h := newHarness(t, &fakeFetcher{stories: sixStories()}, &fakeRewriter{short: types.StyleRight}, nil, cfg)

	_, err := h.pipeline.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "returned 5 stories, want 6")
	assert.NoFileExists(t, cfg.OutputPath)
}

func TestRun_RecorderFailureDoesNotFailRun(t *testing.T) {
	cfg := testConfig(t)
	rec := &fakeRecorder{err: errors.New("database is locked")}
	h := newHarness(t, &fakeFetcher{stories: sixStories()}, &fakeRewriter{}, rec, cfg)

	run, err := h.pipeline.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateDone, run.State())
	assert.FileExists(t, cfg.OutputPath)
	assert.Contains(t, h.out.String(), "warning: archive record failed")
}

func TestRun_CancelledDuringPacing(t *testing.T) {
	cfg := testConfig(t)
	h := newHarness(t, &fakeFetcher{stories: sixStories()}, &fakeRewriter{}, nil, cfg)
	h.pipeline.sleep = func(context.Context, time.Duration) error { return context.Canceled }

	run, err := h.pipeline.Run(context.Background())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateFailed, run.State())
	assert.NoFileExists(t, cfg.OutputPath)
}

// --- integration: real fetcher and rewriter over a fake service ---

// editorGenerator answers search calls with nine stories and schema calls
// with a rewrite of every input story.
type editorGenerator struct {
	calls int
}

func (g *editorGenerator) Generate(_ context.Context, req genai.Request) (genai.Response, error) {
	g.calls++
	if req.Search {
		items := make([]map[string]string, 9)
		for i := range items {
			items[i] = map[string]string{"headline": fmt.Sprintf("H%d", i), "summary": fmt.Sprintf("S%d", i)}
		}
		data, _ := json.Marshal(items)
		return genai.Response{Text: "```json\n" + string(data) + "\n```"}, nil
	}

	start := strings.Index(req.Prompt, "Input: ")
	var input []map[string]string
	if err := json.Unmarshal([]byte(strings.TrimSpace(req.Prompt[start+len("Input: "):])), &input); err != nil {
		return genai.Response{}, err
	}
	out := make([]map[string]string, len(input))
	for i, in := range input {
		out[i] = map[string]string{"headline": "styled " + in["headline"], "content": "styled " + in["summary"]}
	}
	data, _ := json.Marshal(out)
	return genai.Response{Text: string(data)}, nil
}

func TestRun_WithRealStages(t *testing.T) {
	cfg := testConfig(t)
	gen := &editorGenerator{}
	policy := retry.Policy{MaxRetries: cfg.Retry.MaxRetries, InitialDelay: time.Millisecond, Retryable: genai.IsRetryable, Logger: discard}

	f := fetch.New(gen, policy, cfg.Fetch, cfg.AI.MaxOutputTokens, discard)
	r := rewrite.New(gen, policy, cfg.AI.MaxOutputTokens, nil, discard)
	h := newHarness(t, f, r, nil, cfg)

	_, err := h.pipeline.Run(context.Background())
	require.NoError(t, err)
	// One fetch plus five rewrites.
	assert.Equal(t, 6, gen.calls)

	ds := readDataset(t, cfg.OutputPath)
	require.Len(t, ds.Stories, 6)
	ids := map[string]bool{}
	for _, s := range ds.Stories[types.StyleNeutral] {
		ids[s.ID] = true
	}
	assert.Len(t, ids, 6)
	for _, style := range types.AllStyles {
		require.Len(t, ds.Stories[style], 6)
	}
	assert.Equal(t, "H5", ds.Stories[types.StyleNeutral][5].Headline)
	assert.Equal(t, "styled H5", ds.Stories[types.StyleLeft][5].Headline)
	assert.Equal(t, types.DefaultSource, ds.Stories[types.StyleLeft][5].OriginalSource)
}

// --- config ---

func TestNew_RejectsBadStyles(t *testing.T) {
	tests := []struct {
		name   string
		styles []types.Style
		errMsg string
	}{
		{"missing baseline", []types.Style{types.StyleSatire}, "must include the baseline"},
		{"duplicate", []types.Style{types.StyleNeutral, types.StyleSatire, types.StyleSatire}, "listed twice"},
		{"unknown", []types.Style{types.StyleNeutral, "Haiku"}, `unknown style "Haiku"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			cfg.Styles = tt.styles
			_, err := New(&fakeFetcher{}, &fakeRewriter{}, nil, cfg, nil, nil)
			assert.ErrorContains(t, err, tt.errMsg)
		})
	}
}

func TestWithDefaults(t *testing.T) {
	cfg := WithDefaults(types.PipelineConfig{})
	assert.Equal(t, types.ProviderGemini, cfg.AI.Provider)
	assert.Equal(t, "gemini-2.5-flash", cfg.AI.Model)
	assert.Equal(t, 5000, cfg.AI.MaxOutputTokens)
	assert.Equal(t, 4*time.Second, cfg.Retry.InitialDelay)
	assert.Equal(t, 0, cfg.Retry.MaxRetries)
	assert.Equal(t, 6, cfg.Fetch.Count)
	assert.Equal(t, types.AllStyles, cfg.Styles)
	assert.Equal(t, DefaultInterStyleDelay, cfg.InterStyleDelay)
	assert.Equal(t, DefaultOutputPath, cfg.OutputPath)

	noPause := WithDefaults(types.PipelineConfig{InterStyleDelay: -1})
	assert.Equal(t, time.Duration(0), noPause.InterStyleDelay)
}

func TestRequireCredential(t *testing.T) {
	assert.ErrorIs(t, RequireCredential(types.AIConfig{}), ErrMissingCredential)
	assert.NoError(t, RequireCredential(types.AIConfig{APIKey: "k"}))
}

func TestWriteDataset_ReplacesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "news-data.json")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))

	ds := &types.Dataset{Timestamp: 42, Stories: types.StyledCollection{types.StyleNeutral: sixStories()}}
	require.NoError(t, WriteDataset(path, ds))

	got := readDataset(t, path)
	assert.Equal(t, int64(42), got.Timestamp)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file left behind")
}
