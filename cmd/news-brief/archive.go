// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/news-brief/internal/archive"
	"github.com/pdiddy/news-brief/pkg/types"
)

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Browse earlier editions (list, show, search)",
	Long: `Archive reads the run history that generate records in a local SQLite
database. The archive is never consulted when generating a new edition.`,
}

// --- list subcommand ---

var archiveListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded runs, newest first",
	RunE:  runArchiveList,
}

func runArchiveList(cmd *cobra.Command, args []string) error {
	store, err := openArchive()
	if err != nil {
		return err
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := store.List(context.Background(), limit)
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return writeJSON(runs)
	}

	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-36s  %-19s  %-8s  %-26s  %6s  %7s  %s\n",
		"Run", "Captured", "Provider", "Model", "Styles", "Stories", "Failures")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 120))
	for _, r := range runs {
		model := r.Model
		if len(model) > 26 {
			model = model[:23] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-36s  %-19s  %-8s  %-26s  %6d  %7d  %d\n",
			r.ID, r.CapturedAt.Format("2006-01-02 15:04:05"), r.Provider, model,
			r.StyleCount, r.StoryCount, len(r.Failures))
	}
	fmt.Fprintf(os.Stdout, "\n%d runs\n", len(runs))
	return nil
}

// --- show subcommand ---

var archiveShowCmd = &cobra.Command{
	Use:   "show <run-id|latest>",
	Short: "Print the dataset of a recorded run",
	Args:  cobra.ExactArgs(1),
	RunE:  runArchiveShow,
}

func runArchiveShow(cmd *cobra.Command, args []string) error {
	store, err := openArchive()
	if err != nil {
		return err
	}
	defer store.Close()

	format, _ := cmd.Flags().GetString("format")
	return store.Export(context.Background(), args[0], format, os.Stdout)
}

// --- search subcommand ---

var archiveSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Find archived stories by headline or content",
	RunE:  runArchiveSearch,
}

func runArchiveSearch(cmd *cobra.Command, args []string) error {
	store, err := openArchive()
	if err != nil {
		return err
	}
	defer store.Close()

	opts := archive.QueryOptions{Query: strings.Join(args, " ")}
	if label, _ := cmd.Flags().GetString("style"); label != "" {
		s, err := types.ParseStyle(label)
		if err != nil {
			return err
		}
		opts.Style = s
	}
	opts.RunID, _ = cmd.Flags().GetString("run")
	opts.MaxResults, _ = cmd.Flags().GetInt("limit")

	results, err := store.Search(context.Background(), opts)
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return writeJSON(results)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-10s  %-14s  %-60s  %s\n", "Captured", "Style", "Headline", "Source")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 110))
	for _, m := range results {
		headline := m.Headline
		if len(headline) > 60 {
			headline = headline[:57] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-10s  %-14s  %-60s  %s\n",
			m.CapturedAt.Format("2006-01-02"), m.Style, headline, m.OriginalSource)
	}
	fmt.Fprintf(os.Stdout, "\n%d results\n", len(results))
	return nil
}

// --- shared helpers ---

func openArchive() (*archive.Store, error) {
	path := viper.GetString("archive.path")
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("no archive at %s (run generate first): %w", path, err)
	}
	return archive.NewStore(path)
}

func writeJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	archiveListCmd.Flags().Int("limit", 20, "maximum runs to list (0 = all)")
	archiveListCmd.Flags().Bool("json", false, "output runs as JSON")

	archiveShowCmd.Flags().String("format", "json", "output format: json or yaml")

	archiveSearchCmd.Flags().String("style", "", "restrict to one style")
	archiveSearchCmd.Flags().String("run", "", "restrict to one run ID")
	archiveSearchCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	archiveSearchCmd.Flags().Bool("json", false, "output results as JSON")

	archiveCmd.AddCommand(archiveListCmd)
	archiveCmd.AddCommand(archiveShowCmd)
	archiveCmd.AddCommand(archiveSearchCmd)

	rootCmd.AddCommand(archiveCmd)
}
