package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/news-brief/internal/rewrite"
	"github.com/pdiddy/news-brief/pkg/types"
)

var stylesCmd = &cobra.Command{
	Use:   "styles",
	Short: "List the editorial styles and their guides",
	Long: `Styles prints every style in declared order with the guide sent to the
model. Use --write to save the effective guides as a YAML file that can be
edited and passed back with --styles-file.`,
	RunE: runStyles,
}

func init() {
	stylesCmd.Flags().String("write", "", "write the effective guides to this YAML file")

	rootCmd.AddCommand(stylesCmd)
}

func runStyles(cmd *cobra.Command, args []string) error {
	catalog := rewrite.Catalog{}
	if path := viper.GetString("styles_file"); path != "" {
		c, err := rewrite.LoadCatalog(path)
		if err != nil {
			return err
		}
		catalog = c
	}

	if out, _ := cmd.Flags().GetString("write"); out != "" {
		if err := rewrite.WriteCatalog(out, catalog, types.AllStyles); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "wrote %s\n", out)
		return nil
	}

	for _, s := range types.AllStyles {
		if s.IsBaseline() {
			fmt.Fprintf(os.Stdout, "%-14s  (baseline, not rewritten)\n", s)
			continue
		}
		g := catalog.Lookup(s)
		fmt.Fprintf(os.Stdout, "%-14s  %s\n", s, g.Description)
		for _, line := range g.Instructions {
			fmt.Fprintf(os.Stdout, "%-14s  - %s\n", "", line)
		}
	}
	return nil
}
