// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/deep-research/internal/thinking"
	"github.com/pdiddy/deep-research/pkg/types"
)

var thinkCmd = &cobra.Command{
	Use:   "think [thought]",
	Short: "Process a single thought through the thinking engine",
	Long: `Think validates and records one thought and prints the engine's
response as JSON. Useful for scripting staged reasoning outside a full
research session.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runThink,
}

func runThink(cmd *cobra.Command, args []string) error {
	number, _ := cmd.Flags().GetInt("number")
	total, _ := cmd.Flags().GetInt("total")
	next, _ := cmd.Flags().GetBool("next")
	hypothesis, _ := cmd.Flags().GetBool("hypothesis")
	verification, _ := cmd.Flags().GetBool("verification")
	branchID, _ := cmd.Flags().GetString("branch-id")
	branchFrom, _ := cmd.Flags().GetInt("branch-from")

	engine := thinking.NewEngine()
	resp, err := engine.ProcessThought(types.ThoughtRecord{
		Thought:           strings.Join(args, " "),
		NextThoughtNeeded: next,
		ThoughtNumber:     number,
		TotalThoughts:     total,
		IsHypothesis:      hypothesis,
		IsVerification:    verification,
		BranchID:          branchID,
		BranchFromThought: branchFrom,
	})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

func init() {
	thinkCmd.Flags().Int("number", 1, "thought number (1-based)")
	thinkCmd.Flags().Int("total", 1, "estimated total thoughts")
	thinkCmd.Flags().Bool("next", false, "another thought is needed after this one")
	thinkCmd.Flags().Bool("hypothesis", false, "mark this thought as a hypothesis")
	thinkCmd.Flags().Bool("verification", false, "mark this thought as a verification")
	thinkCmd.Flags().String("branch-id", "", "record the thought under this branch")
	thinkCmd.Flags().Int("branch-from", 0, "thought number this branch forks from")

	rootCmd.AddCommand(thinkCmd)
}
