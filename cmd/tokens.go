/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>

*/
package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/mautops/notary-gin/internal/engine"
	"github.com/spf13/cobra"
)

// tokensCmd 打印占位符目录
var tokensCmd = &cobra.Command{
	Use:   "tokens [query]",
	Short: "List the placeholder catalog",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		if len(args) == 1 {
			for _, e := range engine.SearchCatalog(args[0]) {
				fmt.Fprintf(w, "%s\t%s\t%s\n", e.Category, e.Insert(), e.Label)
			}
			return w.Flush()
		}
		for _, g := range engine.CatalogByCategory() {
			fmt.Fprintf(w, "[%s]\n", g.Category)
			for _, e := range g.Entries {
				fmt.Fprintf(w, "  %s\t%s\t%s\n", e.Insert(), e.Label, e.Example)
			}
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(tokensCmd)
}
