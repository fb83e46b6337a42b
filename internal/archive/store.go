// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package archive keeps a history of persisted datasets in SQLite so past
// editions can be listed, searched, and exported after the dataset file
// has been replaced by a newer run.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/news-brief/internal/pipeline"
	"github.com/pdiddy/news-brief/pkg/types"
)

// ErrNotFound is returned when no run matches the requested ID.
var ErrNotFound = errors.New("run not found")

// Store manages the archive SQLite database.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the archive database at path, creating parent
// directories and the schema as needed.
func NewStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating archive directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			captured_at INTEGER NOT NULL,
			provider TEXT,
			model TEXT,
			output_path TEXT,
			style_count INTEGER,
			story_count INTEGER,
			failures TEXT,
			dataset TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_captured_at ON runs(captured_at)`,
		`CREATE TABLE IF NOT EXISTS stories (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			style TEXT NOT NULL,
			position INTEGER NOT NULL,
			story_id TEXT NOT NULL,
			headline TEXT,
			content TEXT,
			original_source TEXT,
			source_url TEXT,
			published_time TEXT,
			PRIMARY KEY (run_id, style, position)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_stories_style ON stories(style)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record stores a persisted run and every story of its dataset. Recording
// the same run twice replaces the earlier rows.
func (s *Store) Record(ctx context.Context, run pipeline.Run) error {
	if run.Dataset == nil {
		return fmt.Errorf("run %s has no dataset", run.ID)
	}
	ds := run.Dataset

	datasetJSON, err := json.Marshal(ds)
	if err != nil {
		return fmt.Errorf("marshaling dataset: %w", err)
	}
	var failuresJSON []byte
	if len(ds.Failures) > 0 {
		failuresJSON, err = json.Marshal(ds.Failures)
		if err != nil {
			return fmt.Errorf("marshaling failures: %w", err)
		}
	}
	storyCount := 0
	if baseline, ok := ds.Baseline(); ok {
		storyCount = len(baseline)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, run.ID); err != nil {
		return fmt.Errorf("deleting old run: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, captured_at, provider, model, output_path, style_count, story_count, failures, dataset)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, ds.Timestamp, string(run.Provider), run.Model, run.OutputPath,
		len(ds.Stories), storyCount, nullString(failuresJSON), string(datasetJSON),
	)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO stories (run_id, style, position, story_id, headline, content, original_source, source_url, published_time)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for style, stories := range ds.Stories {
		for i, st := range stories {
			_, err := stmt.ExecContext(ctx,
				run.ID, string(style), i, st.ID, st.Headline, st.Content,
				st.OriginalSource, st.SourceURL, st.PublishedTime,
			)
			if err != nil {
				return fmt.Errorf("inserting story %s (%s): %w", st.ID, style, err)
			}
		}
	}

	return tx.Commit()
}

// RunSummary is one row of the run history.
type RunSummary struct {
	ID         string                 `json:"id" yaml:"id"`
	CapturedAt time.Time              `json:"captured_at" yaml:"captured_at"`
	Provider   string                 `json:"provider" yaml:"provider"`
	Model      string                 `json:"model" yaml:"model"`
	OutputPath string                 `json:"output_path" yaml:"output_path"`
	StyleCount int                    `json:"style_count" yaml:"style_count"`
	StoryCount int                    `json:"story_count" yaml:"story_count"`
	Failures   map[types.Style]string `json:"failures,omitempty" yaml:"failures,omitempty"`
}

const summaryColumns = `id, captured_at, provider, model, output_path, style_count, story_count, failures`

// List returns the most recent runs first. A limit of zero or less
// returns every run.
func (s *Store) List(ctx context.Context, limit int) ([]RunSummary, error) {
	query := `SELECT ` + summaryColumns + ` FROM runs ORDER BY captured_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		sum, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Get returns the summary and dataset of run id. The id "latest" selects
// the most recent run.
func (s *Store) Get(ctx context.Context, id string) (RunSummary, *types.Dataset, error) {
	query := `SELECT ` + summaryColumns + `, dataset FROM runs WHERE id = ?`
	args := []any{id}
	if id == "latest" {
		query = `SELECT ` + summaryColumns + `, dataset FROM runs ORDER BY captured_at DESC, rowid DESC LIMIT 1`
		args = nil
	}

	var (
		sum         RunSummary
		capturedAt  int64
		failures    sql.NullString
		datasetJSON string
	)
	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&sum.ID, &capturedAt, &sum.Provider, &sum.Model, &sum.OutputPath,
		&sum.StyleCount, &sum.StoryCount, &failures, &datasetJSON,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return RunSummary{}, nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return RunSummary{}, nil, fmt.Errorf("querying run %s: %w", id, err)
	}
	sum.CapturedAt = time.UnixMilli(capturedAt)
	sum.Failures = decodeFailures(failures)

	var ds types.Dataset
	if err := json.Unmarshal([]byte(datasetJSON), &ds); err != nil {
		return RunSummary{}, nil, fmt.Errorf("decoding dataset of run %s: %w", id, err)
	}
	return sum, &ds, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSummary(row scanner) (RunSummary, error) {
	var (
		sum        RunSummary
		capturedAt int64
		failures   sql.NullString
	)
	if err := row.Scan(&sum.ID, &capturedAt, &sum.Provider, &sum.Model, &sum.OutputPath,
		&sum.StyleCount, &sum.StoryCount, &failures); err != nil {
		return RunSummary{}, fmt.Errorf("scanning run: %w", err)
	}
	sum.CapturedAt = time.UnixMilli(capturedAt)
	sum.Failures = decodeFailures(failures)
	return sum, nil
}

func decodeFailures(ns sql.NullString) map[types.Style]string {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	var m map[types.Style]string
	if err := json.Unmarshal([]byte(ns.String), &m); err != nil {
		return nil
	}
	return m
}

func nullString(b []byte) sql.NullString {
	if len(b) == 0 {
		return sql.NullString{}
	}
	return sql.NullString{String: string(b), Valid: true}
}
