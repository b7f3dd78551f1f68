// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/deep-research/internal/session"
	"github.com/pdiddy/deep-research/internal/sources"
	"github.com/pdiddy/deep-research/internal/store"
	"github.com/pdiddy/deep-research/internal/traverse"
)

var researchCmd = &cobra.Command{
	Use:   "research [topic]",
	Short: "Run a full iterative research session",
	Long: `Research conducts an iterative session on a topic: citation traversal
across the enabled sources, knowledge graph construction, a reflective
thinking pass per round, and automatic follow-up direction generation.
Sessions resume from earlier research on the same topic and are saved to
the topic store when they complete.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runResearch,
}

func runResearch(cmd *cobra.Command, args []string) error {
	topic := strings.Join(args, " ")
	cfg := engineConfig()

	if depth, _ := cmd.Flags().GetInt("depth"); depth > 0 {
		cfg.Traversal.MaxDepth = depth
	}
	if n, _ := cmd.Flags().GetInt("max-iterations"); n > 0 {
		cfg.Session.MaxIterations = n
	}
	if n, _ := cmd.Flags().GetInt("thinking-depth"); n > 0 {
		cfg.Session.ThinkingDepth = n
	}
	if cmd.Flags().Changed("auto-iterate") {
		cfg.Session.AutoIterate, _ = cmd.Flags().GetBool("auto-iterate")
	}

	log := newLogger(cmd)
	engine, err := traverse.New(sources.Enabled(cfg.Sources, cfg.Traversal), cfg.Traversal, log)
	if err != nil {
		return err
	}

	// The session degrades to an unsaved one-off when the store is unusable.
	var topics session.TopicStore
	if st, err := store.NewStore(cfg.Store); err != nil {
		log.Warnf("topic store unavailable: %v", err)
	} else {
		defer st.Close()
		topics = st
	}

	controller, err := session.New(engine, topics, cfg.Session, log)
	if err != nil {
		return err
	}

	result, err := controller.ConductResearchSession(cmd.Context(), topic)
	if err != nil {
		return err
	}

	if exportPath, _ := cmd.Flags().GetString("export"); exportPath != "" {
		f, err := os.Create(exportPath)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := session.ExportYAML(f, result); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Session exported to %s\n", exportPath)
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Print(result.FinalReport)
	return nil
}

func init() {
	researchCmd.Flags().Int("depth", 0, "citation traversal depth (0 = config default)")
	researchCmd.Flags().Int("max-iterations", 0, "maximum research iterations (0 = config default)")
	researchCmd.Flags().Int("thinking-depth", 0, "thoughts per reflection pass (0 = config default)")
	researchCmd.Flags().Bool("auto-iterate", true, "generate and follow new research directions")
	researchCmd.Flags().Bool("json", false, "output the full session result as JSON")
	researchCmd.Flags().String("export", "", "write the session result to a YAML file")

	rootCmd.AddCommand(researchCmd)
}
