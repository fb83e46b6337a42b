// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package edition is the read side of the dataset: it loads a persisted
// dataset once, checks it is usable, and renders the chosen style.
package edition

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/pdiddy/news-brief/pkg/types"
)

// Notice is the message shown to readers when the dataset cannot be used.
const Notice = "Failed to load today's edition. Please try again later."

// ErrMissingBaseline is returned for a dataset without the baseline style.
var ErrMissingBaseline = errors.New("dataset has no baseline stories")

// Loader reads a dataset from a file path or an http(s) URL. Only the
// first Load call reads the source; later calls return the same result.
type Loader struct {
	source string
	client *http.Client

	once sync.Once
	ds   *types.Dataset
	err  error
}

// NewLoader returns a Loader for source. A nil client uses http.DefaultClient.
func NewLoader(source string, client *http.Client) *Loader {
	if client == nil {
		client = http.DefaultClient
	}
	return &Loader{source: source, client: client}
}

// Load returns the dataset, reading and validating it on first use.
func (l *Loader) Load(ctx context.Context) (*types.Dataset, error) {
	l.once.Do(func() {
		l.ds, l.err = l.load(ctx)
	})
	return l.ds, l.err
}

func (l *Loader) load(ctx context.Context) (*types.Dataset, error) {
	data, err := l.read(ctx)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func (l *Loader) read(ctx context.Context) ([]byte, error) {
	if !strings.HasPrefix(l.source, "http://") && !strings.HasPrefix(l.source, "https://") {
		data, err := os.ReadFile(l.source)
		if err != nil {
			return nil, fmt.Errorf("reading dataset: %w", err)
		}
		return data, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.source, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching dataset: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching dataset: HTTP %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return data, nil
}

// Parse decodes a dataset and requires the baseline style to be present
// and not null.
func Parse(data []byte) (*types.Dataset, error) {
	var ds types.Dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("parsing dataset: %w", err)
	}
	// JSON null decodes to a nil slice; [] decodes to an empty one.
	if baseline, ok := ds.Baseline(); !ok || baseline == nil {
		return nil, ErrMissingBaseline
	}
	return &ds, nil
}

// Select returns the stories for style and the style actually used. A
// style absent from the dataset falls back to the baseline.
func Select(ds *types.Dataset, style types.Style) (types.Style, []types.Story) {
	if stories, ok := ds.Stories[style]; ok {
		return style, stories
	}
	baseline, _ := ds.Baseline()
	return types.BaselineStyle, baseline
}
