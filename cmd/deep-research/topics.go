// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/deep-research/internal/store"
	"github.com/pdiddy/deep-research/pkg/types"
)

var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "Inspect accumulated research topics",
	Long: `Topics reads the topic store built up by research sessions. Use
subcommands to list topics, show one topic's sessions, find topics related
by concept overlap, or print store-wide statistics.`,
}

// --- list subcommand ---

var topicsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored research topics",
	RunE:  runTopicsList,
}

func runTopicsList(cmd *cobra.Command, args []string) error {
	return withStore(func(s *store.Store) error {
		topics, err := s.ListTopics(context.Background())
		if err != nil {
			return err
		}
		if len(topics) == 0 {
			fmt.Println("No research topics stored yet.")
			return nil
		}

		fmt.Fprintf(os.Stdout, "%-40s  %-8s  %-8s  %s\n", "Topic", "Sessions", "Concepts", "Updated")
		fmt.Fprintln(os.Stdout, strings.Repeat("-", 80))
		for _, t := range topics {
			topic := t.Topic
			if len(topic) > 40 {
				topic = topic[:37] + "..."
			}
			fmt.Fprintf(os.Stdout, "%-40s  %-8d  %-8d  %s\n",
				topic, t.Summary.TotalSessions, t.Summary.TotalConcepts, t.Updated.Format("2006-01-02"))
		}
		return nil
	})
}

// --- show subcommand ---

var topicsShowCmd = &cobra.Command{
	Use:   "show [topic]",
	Short: "Show one topic's sessions and concepts",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTopicsShow,
}

func runTopicsShow(cmd *cobra.Command, args []string) error {
	topic := strings.Join(args, " ")
	return withStore(func(s *store.Store) error {
		stored, err := s.Get(context.Background(), topic)
		if err != nil {
			return err
		}
		if stored == nil {
			return fmt.Errorf("topic %q not found", topic)
		}

		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(stored)
		}

		fmt.Fprintf(os.Stdout, "Topic:     %s\n", stored.Topic)
		fmt.Fprintf(os.Stdout, "Hash:      %s\n", stored.Hash)
		fmt.Fprintf(os.Stdout, "Sessions:  %d\n", stored.Summary.TotalSessions)
		fmt.Fprintf(os.Stdout, "Citations: %d\n", stored.Summary.TotalCitations)
		fmt.Fprintf(os.Stdout, "Concepts:  %d\n", stored.Summary.TotalConcepts)
		for _, sess := range stored.Sessions {
			fmt.Fprintf(os.Stdout, "\n  %s  %s  iterations=%d citations=%d\n",
				sess.Created.Format("2006-01-02 15:04"), sess.SessionID, sess.TotalIterations, len(sess.Citations))
		}
		return nil
	})
}

// --- related subcommand ---

var topicsRelatedCmd = &cobra.Command{
	Use:   "related [topic]",
	Short: "Find topics related by concept overlap",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTopicsRelated,
}

func runTopicsRelated(cmd *cobra.Command, args []string) error {
	topic := strings.Join(args, " ")
	limit, _ := cmd.Flags().GetInt("limit")

	return withStore(func(s *store.Store) error {
		related, err := s.FindRelated(context.Background(), topic, limit)
		if err != nil {
			return err
		}
		if len(related) == 0 {
			fmt.Println("No related topics found.")
			return nil
		}

		for _, rt := range related {
			shared := strings.Join(rt.SharedConcepts, ", ")
			if len(shared) > 60 {
				shared = shared[:57] + "..."
			}
			fmt.Fprintf(os.Stdout, "%5.1f%%  %-40s  %s\n", rt.OverlapScore*100, rt.Topic, shared)
		}
		return nil
	})
}

// --- concept subcommand ---

var topicsConceptCmd = &cobra.Command{
	Use:   "concept [concept]",
	Short: "List topics whose vocabulary contains a concept",
	Args:  cobra.ExactArgs(1),
	RunE:  runTopicsConcept,
}

func runTopicsConcept(cmd *cobra.Command, args []string) error {
	return withStore(func(s *store.Store) error {
		topics, err := s.TopicsByConcept(context.Background(), args[0])
		if err != nil {
			return err
		}
		if len(topics) == 0 {
			fmt.Printf("No topics mention %q.\n", args[0])
			return nil
		}
		for _, topic := range topics {
			fmt.Println(topic)
		}
		return nil
	})
}

// --- stats subcommand ---

var topicsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print store-wide statistics",
	RunE:  runTopicsStats,
}

func runTopicsStats(cmd *cobra.Command, args []string) error {
	return withStore(func(s *store.Store) error {
		stats, err := s.Stats(context.Background())
		if err != nil {
			return err
		}

		fmt.Fprintf(os.Stdout, "Topics:   %d\n", stats.TotalTopics)
		fmt.Fprintf(os.Stdout, "Sessions: %d\n", stats.TotalSessions)
		fmt.Fprintf(os.Stdout, "Concepts: %d\n", stats.TotalConcepts)
		if stats.LastUpdated != nil {
			fmt.Fprintf(os.Stdout, "Updated:  %s\n", stats.LastUpdated.Format("2006-01-02 15:04"))
		}
		return nil
	})
}

// withStore opens the topic store for one command invocation.
func withStore(fn func(*store.Store) error) error {
	cfg := engineConfig()
	s, err := store.NewStore(types.StoreConfig{DataDir: cfg.Store.DataDir})
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}

func init() {
	topicsShowCmd.Flags().Bool("json", false, "output the stored topic as JSON")
	topicsRelatedCmd.Flags().Int("limit", 5, "maximum related topics to show")

	topicsCmd.AddCommand(topicsListCmd)
	topicsCmd.AddCommand(topicsShowCmd)
	topicsCmd.AddCommand(topicsRelatedCmd)
	topicsCmd.AddCommand(topicsConceptCmd)
	topicsCmd.AddCommand(topicsStatsCmd)

	rootCmd.AddCommand(topicsCmd)
}
