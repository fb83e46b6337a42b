// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rewrite

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/news-brief/pkg/types"
)

// Guide is the style direction sent with every rewrite of one style.
type Guide struct {
	// Description is the one-line style guide.
	Description string `yaml:"guide"`

	// Instructions are appended to the prompt's numbered instructions.
	Instructions []string `yaml:"instructions,omitempty"`
}

// Catalog overrides the built-in guides per style. Styles absent from the
// catalog use types.Style.Guide.
type Catalog map[types.Style]Guide

// Lookup returns the guide for style, falling back to the built-in one.
func (c Catalog) Lookup(style types.Style) Guide {
	g, ok := c[style]
	if !ok {
		return Guide{Description: style.Guide()}
	}
	if g.Description == "" {
		g.Description = style.Guide()
	}
	return g
}

// catalogFile is the on-disk representation of a Catalog.
//
//	styles:
//	  - style: Satire
//	    guide: "Dry, deadpan, British tabloid parody"
//	    instructions:
//	      - "Never invent quotes attributed to real people."
type catalogFile struct {
	Styles []catalogEntry `yaml:"styles"`
}

type catalogEntry struct {
	Style string `yaml:"style"`
	Guide `yaml:",inline"`
}

// LoadCatalog reads a style guide file. Unknown style labels are an error
// so a typo cannot silently disable an override.
func LoadCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading styles file: %w", err)
	}
	var cf catalogFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("parsing styles file: %w", err)
	}

	cat := make(Catalog, len(cf.Styles))
	for i, e := range cf.Styles {
		style, err := types.ParseStyle(e.Style)
		if err != nil {
			return nil, fmt.Errorf("styles file entry %d: %w", i, err)
		}
		cat[style] = e.Guide
	}
	return cat, nil
}

// WriteCatalog saves the effective guides for styles, for editing.
func WriteCatalog(path string, c Catalog, styles []types.Style) error {
	var cf catalogFile
	for _, s := range styles {
		if s.IsBaseline() {
			continue
		}
		cf.Styles = append(cf.Styles, catalogEntry{Style: string(s), Guide: c.Lookup(s)})
	}
	data, err := yaml.Marshal(&cf)
	if err != nil {
		return fmt.Errorf("marshaling styles file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
