// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/news-brief/internal/edition"
	"github.com/pdiddy/news-brief/pkg/types"
)

var showCmd = &cobra.Command{
	Use:   "show [style]",
	Short: "Print the current edition in one style",
	Long: `Show reads the dataset (the generate output file, or --source path or
URL) and prints its stories as numbered columns. A style missing from the
dataset falls back to Neutral. With no argument Neutral is shown.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runShow,
}

func init() {
	showCmd.Flags().String("source", "", "dataset file or http(s) URL (default: the generate output path)")
	showCmd.Flags().Bool("utc", false, "print the update time in UTC")

	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	style := types.BaselineStyle
	if len(args) == 1 {
		s, err := types.ParseStyle(args[0])
		if err != nil {
			return fmt.Errorf("%w (known: %s)", err, styleList())
		}
		style = s
	}

	source, _ := cmd.Flags().GetString("source")
	if source == "" {
		source = viper.GetString("pipeline.output")
	}

	loader := edition.NewLoader(source, &http.Client{Timeout: viper.GetDuration("http.timeout")})
	ds, err := loader.Load(context.Background())
	if err != nil {
		slog.Error("loading dataset", "source", source, "error", err)
		fmt.Fprintln(os.Stdout, edition.Notice)
		return err
	}

	loc := time.Local
	if utc, _ := cmd.Flags().GetBool("utc"); utc {
		loc = time.UTC
	}
	edition.Render(os.Stdout, ds, style, loc)
	return nil
}

func styleList() string {
	labels := make([]string, len(types.AllStyles))
	for i, s := range types.AllStyles {
		labels[i] = string(s)
	}
	return strings.Join(labels, ", ")
}
