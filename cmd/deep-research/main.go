// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the deep-research CLI.
// See docs/ARCHITECTURE.md § Command Interface.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/kataras/golog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/deep-research/internal/secrets"
	"github.com/pdiddy/deep-research/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns fallback when set, else the secret value for key.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the deep-research CLI.
var rootCmd = &cobra.Command{
	Use:   "deep-research",
	Short: "Multi-source research engine with iterative sessions",
	Long: `deep-research traverses citations across Wikipedia, arXiv, Semantic Scholar,
OpenAlex, and PubMed, builds a knowledge graph from what it finds, and runs
iterative research sessions that generate their own follow-up directions.

Each capability is a subcommand: research runs a full session, traverse runs
a single citation traversal, topics inspects accumulated research, and think
drives the reflective thinking engine directly.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./deep-research.yaml or ~/.config/deep-research/config.yaml)")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable debug logging")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("deep-research")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "deep-research"))
		}
	}

	viper.SetEnvPrefix("DEEP_RESEARCH")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// newLogger builds the engine logger honoring --verbose.
func newLogger(cmd *cobra.Command) *golog.Logger {
	log := golog.New()
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		log.SetLevel("debug")
	}
	return log
}

// engineConfig assembles the full engine configuration: built-in defaults,
// overridden by the config file and environment, with API keys falling back
// to the .secrets/ directory.
func engineConfig() types.EngineConfig {
	cfg := types.DefaultEngineConfig()

	if v := viper.GetDuration("sources.timeout"); v > 0 {
		cfg.Sources.Timeout = v
	}
	if v := viper.GetString("sources.user_agent"); v != "" {
		cfg.Sources.UserAgent = v
	}
	if v := viper.GetInt("sources.seeds_per_source"); v > 0 {
		cfg.Sources.SeedsPerSource = v
	}
	for key, target := range map[string]*bool{
		"sources.enable_wikipedia":        &cfg.Sources.EnableWikipedia,
		"sources.enable_arxiv":            &cfg.Sources.EnableArxiv,
		"sources.enable_semantic_scholar": &cfg.Sources.EnableSemanticScholar,
		"sources.enable_openalex":         &cfg.Sources.EnableOpenAlex,
		"sources.enable_pubmed":           &cfg.Sources.EnablePubMed,
	} {
		if viper.IsSet(key) {
			*target = viper.GetBool(key)
		}
	}
	cfg.Sources.SemanticScholarAPIKey = secretDefault("semantic-scholar-api-key", viper.GetString("sources.semantic_scholar_api_key"))
	cfg.Sources.OpenAlexEmail = secretDefault("openalex-email", viper.GetString("sources.openalex_email"))
	cfg.Sources.PubMedAPIKey = secretDefault("pubmed-api-key", viper.GetString("sources.pubmed_api_key"))

	if v := viper.GetInt("traversal.max_depth"); v > 0 {
		cfg.Traversal.MaxDepth = v
	}
	if v := viper.GetInt("traversal.max_refs_per_source"); v > 0 {
		cfg.Traversal.MaxRefsPerSource = v
	}

	if v := viper.GetInt("session.max_iterations"); v > 0 {
		cfg.Session.MaxIterations = v
	}
	if v := viper.GetInt("session.thinking_depth"); v > 0 {
		cfg.Session.ThinkingDepth = v
	}
	if viper.IsSet("session.auto_iterate") {
		cfg.Session.AutoIterate = viper.GetBool("session.auto_iterate")
	}
	if v := viper.GetInt("session.no_direction_limit"); v > 0 {
		cfg.Session.NoDirectionLimit = v
	}

	if v := viper.GetString("store.data_dir"); v != "" {
		cfg.Store.DataDir = v
	}
	return cfg
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
