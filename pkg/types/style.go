// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"strings"
)

// Style is a named rewriting lens. The string value is the label used as
// the dataset key and shown to readers.
type Style string

const (
	StyleLeft    Style = "Left Wing"
	StyleNeutral Style = "Neutral"
	StyleRight   Style = "Right Wing"
	StyleSatire  Style = "Satire"
	StyleELI12   Style = "12-Year-Old"
	StyleFiction Style = "Micro Fiction"
)

// BaselineStyle is the unrewritten source of truth for all other styles.
const BaselineStyle = StyleNeutral

// AllStyles lists every style in declared order. The pipeline rewrites in
// this order unless configured otherwise.
var AllStyles = []Style{
	StyleLeft,
	StyleNeutral,
	StyleRight,
	StyleSatire,
	StyleELI12,
	StyleFiction,
}

var styleGuides = map[Style]string{
	StyleLeft:    "Progressive perspective, focus on systemic issues",
	StyleRight:   "Conservative perspective, focus on tradition/liberty",
	StyleSatire:  "Exaggerated, ironic, funny (The Onion style)",
	StyleFiction: "100-word flash fiction story",
	StyleELI12:   "Simple language for a 12-year-old",
}

// IsBaseline reports whether s is the passthrough style.
func (s Style) IsBaseline() bool {
	return s == BaselineStyle
}

// Guide returns the built-in style guide for s. Unknown styles and the
// baseline get "Objective facts".
func (s Style) Guide() string {
	if g, ok := styleGuides[s]; ok {
		return g
	}
	return "Objective facts"
}

// Known reports whether s is one of AllStyles.
func (s Style) Known() bool {
	for _, k := range AllStyles {
		if k == s {
			return true
		}
	}
	return false
}

// ParseStyle matches a label case-insensitively against AllStyles.
func ParseStyle(label string) (Style, error) {
	for _, s := range AllStyles {
		if strings.EqualFold(string(s), strings.TrimSpace(label)) {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown style %q", label)
}
