// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Placeholders applied when the upstream model omits a field.
const (
	DefaultHeadline      = "News Alert"
	DefaultContent       = "Summary unavailable."
	DefaultSource        = "News Wire"
	DefaultPublishedTime = "Today"
)

// Story is the canonical unit of news content. The Fetcher creates the
// baseline set; every other style is a positional rewrite of that set in
// which only Headline and Content differ.
type Story struct {
	// ID is unique within one pipeline run (e.g. "story-1760900000000-3").
	ID string `json:"id" yaml:"id"`

	// Headline is short, non-empty text.
	Headline string `json:"headline" yaml:"headline"`

	// Content is the body text, non-empty.
	Content string `json:"content" yaml:"content"`

	// OriginalSource attributes the story; DefaultSource when unknown.
	OriginalSource string `json:"originalSource" yaml:"original_source"`

	// SourceURL links to the original article when upstream provided one.
	SourceURL string `json:"sourceUrl,omitempty" yaml:"source_url,omitempty"`

	// PublishedTime is a human-readable recency string such as "2 hours ago".
	PublishedTime string `json:"publishedTime,omitempty" yaml:"published_time,omitempty"`
}

// StyledCollection maps a style to its ordered story sequence. Order is the
// baseline order for every key.
type StyledCollection map[Style][]Story

// Dataset is the artifact written once per run and handed to the
// presentation layer.
type Dataset struct {
	// Timestamp is the capture instant in Unix milliseconds.
	Timestamp int64 `json:"timestamp" yaml:"timestamp"`

	// Stories holds every configured style, the baseline included.
	Stories StyledCollection `json:"stories" yaml:"stories"`

	// Failures records styles that fell back to baseline text when the
	// pipeline runs with partial output allowed. Empty on strict runs.
	Failures map[Style]string `json:"failures,omitempty" yaml:"failures,omitempty"`
}

// CapturedAt returns Timestamp as a time.Time.
func (d *Dataset) CapturedAt() time.Time {
	return time.UnixMilli(d.Timestamp)
}

// Baseline returns the neutral story set and whether it is present.
func (d *Dataset) Baseline() ([]Story, bool) {
	stories, ok := d.Stories[StyleNeutral]
	return stories, ok
}
