// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/deep-research/internal/sources"
	"github.com/pdiddy/deep-research/internal/traverse"
)

var traverseCmd = &cobra.Command{
	Use:   "traverse [topic]",
	Short: "Run a single citation traversal",
	Long: `Traverse seeds citations from every enabled source for the topic and
explores their references depth-first, bounded by --depth and --max-refs.
Results are deduplicated by URL and paper ID across all sources.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTraverse,
}

func runTraverse(cmd *cobra.Command, args []string) error {
	topic := strings.Join(args, " ")
	cfg := engineConfig()

	if depth, _ := cmd.Flags().GetInt("depth"); depth > 0 {
		cfg.Traversal.MaxDepth = depth
	}
	if refs, _ := cmd.Flags().GetInt("max-refs"); refs > 0 {
		cfg.Traversal.MaxRefsPerSource = refs
	}

	engine, err := traverse.New(sources.Enabled(cfg.Sources, cfg.Traversal), cfg.Traversal, newLogger(cmd))
	if err != nil {
		return err
	}

	result, err := engine.Run(cmd.Context(), topic)
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Fprintf(os.Stdout, "%-4s  %-16s  %-5s  %-60s\n", "Rank", "Source", "Depth", "Title")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 92))
	for i, c := range result.Citations {
		title := c.Title
		if len(title) > 60 {
			title = title[:57] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-4d  %-16s  %-5d  %-60s\n", i+1, c.Source, c.Depth, title)
	}

	m := result.ContentMetrics
	fmt.Fprintf(os.Stdout, "\n%d citations, max depth %d\n", m.TotalCitations, result.MaxDepthReached)
	fmt.Fprintf(os.Stdout, "abstract coverage %.0f%%, full content coverage %.0f%%\n",
		m.AbstractCoverage*100, m.FullContentCoverage*100)
	if len(result.SourceErrors) > 0 {
		fmt.Fprintf(os.Stdout, "%d source errors (run with --json for details)\n", len(result.SourceErrors))
	}
	return nil
}

func init() {
	traverseCmd.Flags().Int("depth", 0, "maximum citation depth (0 = config default)")
	traverseCmd.Flags().Int("max-refs", 0, "maximum references expanded per citation (0 = config default)")
	traverseCmd.Flags().Bool("json", false, "output the full traversal result as JSON")

	rootCmd.AddCommand(traverseCmd)
}
