// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rewrite produces styled variants of the baseline story set.
package rewrite

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"text/template"

	"github.com/pdiddy/news-brief/internal/genai"
	"github.com/pdiddy/news-brief/internal/jsontext"
	"github.com/pdiddy/news-brief/internal/retry"
	"github.com/pdiddy/news-brief/pkg/types"
)

var rewritePromptTmpl = template.Must(template.New("rewrite").Funcs(template.FuncMap{
	"add": func(a, b int) int { return a + b },
}).Parse(`Rewrite these news stories in the style of: "{{.Style}}".
Style Guide: "{{.Guide}}".

CRITICAL INSTRUCTIONS:
1. Headlines must be COMPLETE sentences or phrases.
2. Maintain the full meaning and context of the original story.
3. Return exactly {{.Count}} items, one per input story, in the same order as the input.
4. Output valid JSON only.
{{- range $i, $line := .Extra}}
{{add $i 5}}. {{$line}}
{{- end}}

Input: {{.Input}}
`))

// rewriteSchema is the strict output shape requested from the service.
var rewriteSchema = genai.StringFieldsArray("headline", "content")

// promptStory is the only story data sent upstream.
type promptStory struct {
	Headline string `json:"headline"`
	Summary  string `json:"summary"`
}

// Rewriter turns the baseline set into one styled set per call.
type Rewriter struct {
	gen       genai.Generator
	policy    retry.Policy
	maxTokens int
	catalog   Catalog
	logger    *slog.Logger
}

// New returns a Rewriter. A nil catalog uses the built-in style guides.
func New(gen genai.Generator, policy retry.Policy, maxTokens int, catalog Catalog, logger *slog.Logger) *Rewriter {
	if catalog == nil {
		catalog = Catalog{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Rewriter{gen: gen, policy: policy, maxTokens: maxTokens, catalog: catalog, logger: logger}
}

// Rewrite returns a new sequence of the same length and order as stories
// with Headline and Content in style. Every other field is copied from the
// input. The baseline style is returned as a copy without a remote call.
// Stories the service leaves out keep their baseline text.
func (r *Rewriter) Rewrite(ctx context.Context, stories []types.Story, style types.Style) ([]types.Story, error) {
	if style.IsBaseline() {
		return slices.Clone(stories), nil
	}
	if len(stories) == 0 {
		return []types.Story{}, nil
	}

	prompt, err := r.renderPrompt(stories, style)
	if err != nil {
		return nil, fmt.Errorf("rendering prompt: %w", err)
	}

	req := genai.Request{Prompt: prompt, Schema: rewriteSchema, MaxOutputTokens: r.maxTokens}
	resp, err := retry.Do(ctx, r.policy, func(ctx context.Context) (genai.Response, error) {
		return r.gen.Generate(ctx, req)
	})
	if err != nil {
		return nil, fmt.Errorf("rewriting %q: %w", style, err)
	}

	rewritten, err := jsontext.DecodeObjects(resp.Text)
	if err != nil {
		r.logger.Error("unparsable rewrite", "style", style, "raw", resp.Text)
		return nil, fmt.Errorf("parsing %q rewrite: %w", style, err)
	}
	if len(rewritten) != len(stories) {
		r.logger.Warn("rewrite count mismatch", "style", style, "want", len(stories), "got", len(rewritten))
	}

	return merge(stories, rewritten), nil
}

// merge overlays rewritten headline and content onto a copy of baseline by
// position. Missing or non-object elements and blank fields keep the
// baseline value; extra elements are ignored.
func merge(baseline []types.Story, rewritten []map[string]any) []types.Story {
	out := make([]types.Story, len(baseline))
	for i, orig := range baseline {
		out[i] = orig
		if i >= len(rewritten) {
			continue
		}
		if h := stringField(rewritten[i], "headline"); h != "" {
			out[i].Headline = h
		}
		if c := stringField(rewritten[i], "content"); c != "" {
			out[i].Content = c
		}
	}
	return out
}

func stringField(item map[string]any, key string) string {
	s, _ := item[key].(string)
	return strings.TrimSpace(s)
}

func (r *Rewriter) renderPrompt(stories []types.Story, style types.Style) (string, error) {
	input := make([]promptStory, len(stories))
	for i, s := range stories {
		input[i] = promptStory{Headline: s.Headline, Summary: s.Content}
	}
	inputJSON, err := json.Marshal(input)
	if err != nil {
		return "", err
	}

	guide := r.catalog.Lookup(style)
	var buf bytes.Buffer
	err = rewritePromptTmpl.Execute(&buf, struct {
		Style types.Style
		Guide string
		Count int
		Extra []string
		Input string
	}{
		Style: style,
		Guide: guide.Description,
		Count: len(stories),
		Extra: guide.Instructions,
		Input: string(inputJSON),
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
