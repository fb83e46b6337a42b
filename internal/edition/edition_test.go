// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package edition

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/news-brief/pkg/types"
)

const sampleDataset = `{
  "timestamp": 1760900000000,
  "stories": {
    "Neutral": [
      {"id": "story-1-0", "headline": "Budget passes", "content": "Lawmakers approved it.", "originalSource": "AP", "sourceUrl": "https://example.com/a"},
      {"id": "story-1-1", "headline": "Storm hits coast", "content": "Winds reached 90 mph.", "originalSource": "Reuters"}
    ],
    "Satire": [
      {"id": "story-1-0", "headline": "Budget passes, nobody reads it", "content": "Sources confirm.", "originalSource": "AP", "sourceUrl": "https://example.com/a"},
      {"id": "story-1-1", "headline": "Storm blames climate", "content": "Winds unavailable for comment.", "originalSource": "Reuters"}
    ]
  }
}`

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr error
		errMsg  string
	}{
		{name: "valid", data: sampleDataset},
		{name: "baseline present but empty", data: `{"timestamp": 1, "stories": {"Neutral": []}}`},
		{name: "missing baseline", data: `{"timestamp": 1, "stories": {"Satire": []}}`, wantErr: ErrMissingBaseline},
		{name: "no stories", data: `{"timestamp": 1}`, wantErr: ErrMissingBaseline},
		{name: "null baseline", data: `{"timestamp": 1, "stories": {"Neutral": null}}`, wantErr: ErrMissingBaseline},
		{name: "null stories", data: `{"timestamp": 1, "stories": null}`, wantErr: ErrMissingBaseline},
		{name: "not JSON", data: `<html>`, errMsg: "parsing dataset"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := Parse([]byte(tt.data))
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.errMsg != "":
				assert.ErrorContains(t, err, tt.errMsg)
			default:
				require.NoError(t, err)
				assert.NotNil(t, ds)
			}
		})
	}
}

func TestLoader_FileLoadsOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "news-data.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleDataset), 0o644))

	l := NewLoader(path, nil)
	first, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, first.Stories, 2)

	// A later rewrite of the file is not observed.
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o644))
	second, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestLoader_MissingFile(t *testing.T) {
	l := NewLoader(filepath.Join(t.TempDir(), "nope.json"), nil)
	_, err := l.Load(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoader_HTTP(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "/news-data.json", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(sampleDataset))
	}))
	defer srv.Close()

	l := NewLoader(srv.URL+"/news-data.json", srv.Client())
	for i := 0; i < 3; i++ {
		ds, err := l.Load(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(1760900000000), ds.Timestamp)
	}
	assert.Equal(t, int32(1), hits.Load())
}

func TestLoader_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	l := NewLoader(srv.URL+"/news-data.json", srv.Client())
	_, err := l.Load(context.Background())
	assert.ErrorContains(t, err, "HTTP 404")

	// The failure is latched too.
	_, err = l.Load(context.Background())
	assert.ErrorContains(t, err, "HTTP 404")
}

func TestSelect(t *testing.T) {
	ds, err := Parse([]byte(sampleDataset))
	require.NoError(t, err)

	used, stories := Select(ds, types.StyleSatire)
	assert.Equal(t, types.StyleSatire, used)
	assert.Equal(t, "Budget passes, nobody reads it", stories[0].Headline)

	used, stories = Select(ds, types.StyleFiction)
	assert.Equal(t, types.StyleNeutral, used)
	assert.Equal(t, "Budget passes", stories[0].Headline)
}

func TestRender(t *testing.T) {
	ds, err := Parse([]byte(sampleDataset))
	require.NoError(t, err)

	var buf bytes.Buffer
	used := Render(&buf, ds, types.StyleSatire, time.UTC)
	out := buf.String()

	assert.Equal(t, types.StyleSatire, used)
	assert.Contains(t, out, "Satire edition")
	assert.Contains(t, out, "COLUMN 1")
	assert.Contains(t, out, "COLUMN 2")
	assert.NotContains(t, out, "COLUMN 3")
	assert.Contains(t, out, "Storm blames climate")
	assert.Contains(t, out, "SATIRE  |  Read Original Source: https://example.com/a")
	assert.Contains(t, out, "Reuters")
	assert.Contains(t, out, "Last Updated: 10/19/2025 at 6:53:20 PM")
}

func TestRender_FallsBackToBaseline(t *testing.T) {
	ds, err := Parse([]byte(sampleDataset))
	require.NoError(t, err)

	var buf bytes.Buffer
	used := Render(&buf, ds, types.StyleLeft, time.UTC)
	assert.Equal(t, types.StyleNeutral, used)
	assert.Contains(t, buf.String(), "(Left Wing not available, showing Neutral)")
	assert.Contains(t, buf.String(), "Budget passes")
}
