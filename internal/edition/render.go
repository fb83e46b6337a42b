// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package edition

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pdiddy/news-brief/pkg/types"
)

const ruleWidth = 72

// Render writes the stories of style as numbered column cards followed by
// a "Last Updated" footer. loc sets the footer time zone; nil means local.
func Render(w io.Writer, ds *types.Dataset, style types.Style, loc *time.Location) types.Style {
	used, stories := Select(ds, style)
	if loc == nil {
		loc = time.Local
	}
	rule := strings.Repeat("=", ruleWidth)
	thin := strings.Repeat("-", ruleWidth)

	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "%s edition\n", used)
	if used != style {
		fmt.Fprintf(w, "(%s not available, showing %s)\n", style, used)
	}
	fmt.Fprintln(w, rule)

	for i, s := range stories {
		fmt.Fprintf(w, "\nCOLUMN %d%*s\n", i+1, ruleWidth-len(fmt.Sprintf("COLUMN %d", i+1)), s.OriginalSource)
		fmt.Fprintln(w, thin)
		fmt.Fprintln(w, s.Headline)
		fmt.Fprintln(w)
		fmt.Fprintln(w, s.Content)
		fmt.Fprintln(w, thin)
		if s.SourceURL != "" {
			fmt.Fprintf(w, "%s  |  Read Original Source: %s\n", strings.ToUpper(string(used)), s.SourceURL)
		} else {
			fmt.Fprintln(w, strings.ToUpper(string(used)))
		}
	}

	if ds.Timestamp > 0 {
		at := ds.CapturedAt().In(loc)
		fmt.Fprintln(w)
		fmt.Fprintln(w, rule)
		fmt.Fprintf(w, "Last Updated: %s at %s\n", at.Format("1/2/2006"), at.Format("3:04:05 PM"))
	}
	return used
}
