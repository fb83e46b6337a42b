// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch obtains the baseline story set from a search-augmented
// generation call.
package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"text/template"
	"time"

	"github.com/pdiddy/news-brief/internal/genai"
	"github.com/pdiddy/news-brief/internal/jsontext"
	"github.com/pdiddy/news-brief/internal/retry"
	"github.com/pdiddy/news-brief/pkg/types"
)

// DefaultCount is the number of stories kept per run.
const DefaultCount = 6

var (
	// ErrEmptyResponse means the service answered without a text payload.
	ErrEmptyResponse = errors.New("API returned empty response; usage limit may be reached")

	// ErrMalformedResponse means the text did not parse as a JSON array of objects.
	ErrMalformedResponse = errors.New("failed to parse news data; the API might be returning unstructured text")

	// ErrNoStories means the parsed array was empty.
	ErrNoStories = errors.New("no stories found in response")
)

var fetchPromptTmpl = template.Must(template.New("fetch").Parse(`Task: Find {{.Count}} major trending US news headlines from the last 24 hours using web search.

CRITICAL OUTPUT INSTRUCTIONS:
1. Use web search to find the stories.
2. Output the results STRICTLY as a valid JSON array.
3. Do NOT output any conversational text, markdown, or explanations. JUST the JSON array.

JSON Structure:
[
  {
    "headline": "Story Headline",
    "summary": "Brief summary (40-50 words)",
    "originalSource": "News Source Name",
    "publishedTime": "e.g. '2 hours ago'"
  }
]
`))

// Fetcher produces canonical Story records.
type Fetcher struct {
	gen       genai.Generator
	policy    retry.Policy
	count     int
	maxTokens int
	logger    *slog.Logger

	// now stamps story IDs. Tests replace it.
	now func() time.Time
}

// New returns a Fetcher keeping at most cfg.Count stories (DefaultCount
// when unset). Only the remote call is retried under policy; a response
// that arrives but cannot be used fails immediately.
func New(gen genai.Generator, policy retry.Policy, cfg types.FetchConfig, maxTokens int, logger *slog.Logger) *Fetcher {
	count := cfg.Count
	if count <= 0 {
		count = DefaultCount
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		gen:       gen,
		policy:    policy,
		count:     count,
		maxTokens: maxTokens,
		logger:    logger,
		now:       time.Now,
	}
}

// Fetch asks the service for current news and maps the reply to at most
// Count stories in upstream order.
func (f *Fetcher) Fetch(ctx context.Context) ([]types.Story, error) {
	prompt, err := renderPrompt(f.count)
	if err != nil {
		return nil, fmt.Errorf("rendering prompt: %w", err)
	}

	req := genai.Request{Prompt: prompt, Search: true, MaxOutputTokens: f.maxTokens}
	resp, err := retry.Do(ctx, f.policy, func(ctx context.Context) (genai.Response, error) {
		return f.gen.Generate(ctx, req)
	})
	if err != nil {
		return nil, fmt.Errorf("fetching stories: %w", err)
	}

	if strings.TrimSpace(resp.Text) == "" {
		f.logger.Error("empty response", "finish_reason", resp.FinishReason)
		return nil, ErrEmptyResponse
	}

	items, err := parseItems(resp.Text)
	if err != nil {
		f.logger.Error("unparsable response", "raw", resp.Text)
		return nil, err
	}

	return toStories(items, f.now(), f.count), nil
}

// parseItems narrows text to its JSON array and decodes each element.
// Non-object elements come back nil and later take the defaults; an array
// with no object at all is malformed.
func parseItems(text string) ([]map[string]any, error) {
	items, err := jsontext.DecodeObjects(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(items) == 0 {
		return nil, ErrNoStories
	}
	if !slices.ContainsFunc(items, func(m map[string]any) bool { return m != nil }) {
		return nil, fmt.Errorf("%w: no JSON objects in array", ErrMalformedResponse)
	}
	return items, nil
}

// toStories maps parsed items to Story values, filling defaults and
// keeping the first limit items.
func toStories(items []map[string]any, capturedAt time.Time, limit int) []types.Story {
	if len(items) > limit {
		items = items[:limit]
	}
	stamp := capturedAt.UnixMilli()

	stories := make([]types.Story, len(items))
	for i, item := range items {
		stories[i] = types.Story{
			ID:             fmt.Sprintf("story-%d-%d", stamp, i),
			Headline:       firstString(item, types.DefaultHeadline, "headline"),
			Content:        firstString(item, types.DefaultContent, "summary", "content"),
			OriginalSource: firstString(item, types.DefaultSource, "originalSource"),
			SourceURL:      firstString(item, "", "sourceUrl"),
			PublishedTime:  firstString(item, types.DefaultPublishedTime, "publishedTime"),
		}
	}
	return stories
}

// firstString returns the first non-blank string value among keys, or fallback.
func firstString(item map[string]any, fallback string, keys ...string) string {
	for _, k := range keys {
		if s, ok := item[k].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return fallback
}

func renderPrompt(count int) (string, error) {
	var buf bytes.Buffer
	if err := fetchPromptTmpl.Execute(&buf, struct{ Count int }{Count: count}); err != nil {
		return "", err
	}
	return buf.String(), nil
}
