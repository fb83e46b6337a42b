// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/news-brief/pkg/types"
)

const defaultMaxResults = 20

// QueryOptions holds parameters for story searches.
type QueryOptions struct {
	// Query matches headline or content, case-insensitively.
	Query string

	// Style restricts matches to one style.
	Style types.Style

	// RunID restricts matches to one run.
	RunID string

	// MaxResults limits result count. Zero uses the default of 20.
	MaxResults int
}

// StoryMatch is an archived story with the run it belongs to.
type StoryMatch struct {
	types.Story `yaml:",inline"`
	RunID       string      `json:"run_id" yaml:"run_id"`
	CapturedAt  time.Time   `json:"captured_at" yaml:"captured_at"`
	Style       types.Style `json:"style" yaml:"style"`
}

// Search finds archived stories, newest runs first and in position order
// within a run.
func (s *Store) Search(ctx context.Context, opts QueryOptions) ([]StoryMatch, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(
		`SELECT s.run_id, r.captured_at, s.style, s.story_id, s.headline, s.content,
			s.original_source, s.source_url, s.published_time
		FROM stories s
		JOIN runs r ON r.id = s.run_id
		WHERE 1=1`)

	if opts.Query != "" {
		like := "%" + escapeLike(strings.ToLower(opts.Query)) + "%"
		qb.WriteString(` AND (lower(s.headline) LIKE ? ESCAPE '\' OR lower(s.content) LIKE ? ESCAPE '\')`)
		args = append(args, like, like)
	}
	if opts.Style != "" {
		qb.WriteString(` AND s.style = ?`)
		args = append(args, string(opts.Style))
	}
	if opts.RunID != "" {
		qb.WriteString(` AND s.run_id = ?`)
		args = append(args, opts.RunID)
	}

	qb.WriteString(` ORDER BY r.captured_at DESC, s.run_id, s.style, s.position LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("searching archive: %w", err)
	}
	defer rows.Close()

	var results []StoryMatch
	for rows.Next() {
		var (
			m          StoryMatch
			capturedAt int64
			style      string
		)
		if err := rows.Scan(&m.RunID, &capturedAt, &style, &m.ID, &m.Headline, &m.Content,
			&m.OriginalSource, &m.SourceURL, &m.PublishedTime); err != nil {
			return nil, fmt.Errorf("scanning story: %w", err)
		}
		m.CapturedAt = time.UnixMilli(capturedAt)
		m.Style = types.Style(style)
		results = append(results, m)
	}
	return results, rows.Err()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// Export writes the dataset of run id to w as "json" (the dataset file
// format) or "yaml".
func (s *Store) Export(ctx context.Context, id, format string, w io.Writer) error {
	_, ds, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	switch format {
	case "", "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(ds)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(ds); err != nil {
			return fmt.Errorf("marshaling YAML: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported export format %q (want json or yaml)", format)
	}
}
