// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"time"
)

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "deep-research/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SourcesConfig holds settings for the five source adapters.
type SourcesConfig struct {
	HTTPConfig `yaml:",inline"`

	// SeedsPerSource is how many depth-0 citations each adapter returns
	// from a search call (default 3).
	SeedsPerSource int `json:"seeds_per_source" yaml:"seeds_per_source"`

	EnableWikipedia       bool `json:"enable_wikipedia" yaml:"enable_wikipedia"`
	EnableArxiv           bool `json:"enable_arxiv" yaml:"enable_arxiv"`
	EnableSemanticScholar bool `json:"enable_semantic_scholar" yaml:"enable_semantic_scholar"`
	EnableOpenAlex        bool `json:"enable_openalex" yaml:"enable_openalex"`
	EnablePubMed          bool `json:"enable_pubmed" yaml:"enable_pubmed"`

	// SemanticScholarAPIKey is an optional API key for higher rate limits.
	SemanticScholarAPIKey string `json:"semantic_scholar_api_key,omitempty" yaml:"semantic_scholar_api_key,omitempty"`

	// OpenAlexEmail is sent as the mailto parameter for polite pool access.
	OpenAlexEmail string `json:"openalex_email,omitempty" yaml:"openalex_email,omitempty"`

	// PubMedAPIKey is an optional NCBI API key for higher rate limits.
	PubMedAPIKey string `json:"pubmed_api_key,omitempty" yaml:"pubmed_api_key,omitempty"`
}

// TraversalConfig holds settings for the citation traversal engine.
type TraversalConfig struct {
	// MaxDepth bounds citation depth: every visited citation has
	// depth < MaxDepth. Must be at least 1.
	MaxDepth int `json:"max_depth" yaml:"max_depth"`

	// MaxRefsPerSource caps how many newly-visited children one citation
	// contributes to the traversal. Must be at least 1.
	MaxRefsPerSource int `json:"max_refs_per_source" yaml:"max_refs_per_source"`
}

// Validate checks traversal bounds. Configuration errors fail fast at
// session start rather than degrading mid-run.
func (c TraversalConfig) Validate() error {
	if c.MaxDepth < 1 {
		return fmt.Errorf("max_depth must be at least 1, got %d", c.MaxDepth)
	}
	if c.MaxRefsPerSource < 1 {
		return fmt.Errorf("max_refs_per_source must be at least 1, got %d", c.MaxRefsPerSource)
	}
	return nil
}

// SessionConfig holds settings for the research session controller. The
// direction-generation thresholds were tuned by trial in the original system
// and are deliberately configurable rather than fixed.
type SessionConfig struct {
	// MaxIterations is the hard iteration cap (default 10).
	MaxIterations int `json:"max_iterations" yaml:"max_iterations"`

	// ThinkingDepth is the number of thoughts per reflection pass (default 5).
	ThinkingDepth int `json:"thinking_depth" yaml:"thinking_depth"`

	// AutoIterate enables follow-up iterations after the first round.
	AutoIterate bool `json:"auto_iterate" yaml:"auto_iterate"`

	// NoDirectionLimit is how many consecutive iterations without a clean
	// new direction end the session (default 3).
	NoDirectionLimit int `json:"no_direction_limit" yaml:"no_direction_limit"`

	// MinDirectionLen and MaxDirectionLen bound accepted direction strings
	// (exclusive; defaults 10 and 100).
	MinDirectionLen int `json:"min_direction_len" yaml:"min_direction_len"`
	MaxDirectionLen int `json:"max_direction_len" yaml:"max_direction_len"`

	// MalformedPatterns lists substrings that mark a candidate direction as
	// corrupted (e.g. "page applications").
	MalformedPatterns []string `json:"malformed_patterns,omitempty" yaml:"malformed_patterns,omitempty"`

	// MinCitations and MinAbstractCoverage feed the needs-research decision:
	// below either threshold the controller runs a new traversal.
	MinCitations        int     `json:"min_citations" yaml:"min_citations"`
	MinAbstractCoverage float64 `json:"min_abstract_coverage" yaml:"min_abstract_coverage"`

	// StaleResearchRounds is how many rounds may pass without a traversal
	// before the controller forces one (default 3).
	StaleResearchRounds int `json:"stale_research_rounds" yaml:"stale_research_rounds"`
}

// Validate checks session bounds.
func (c SessionConfig) Validate() error {
	if c.MaxIterations < 1 {
		return fmt.Errorf("max_iterations must be at least 1, got %d", c.MaxIterations)
	}
	if c.ThinkingDepth < 1 {
		return fmt.Errorf("thinking_depth must be at least 1, got %d", c.ThinkingDepth)
	}
	return nil
}

// StoreConfig holds settings for the topic/session store.
type StoreConfig struct {
	// DataDir is the directory holding the store database (default "data").
	DataDir string `json:"data_dir" yaml:"data_dir"`
}

// EngineConfig groups all stage configurations.
type EngineConfig struct {
	Sources   SourcesConfig   `json:"sources" yaml:"sources"`
	Traversal TraversalConfig `json:"traversal" yaml:"traversal"`
	Session   SessionConfig   `json:"session" yaml:"session"`
	Store     StoreConfig     `json:"store" yaml:"store"`
}

// DefaultEngineConfig returns the configuration used when no config file or
// flags override the defaults.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Sources: SourcesConfig{
			HTTPConfig: HTTPConfig{
				Timeout:   15 * time.Second,
				UserAgent: "deep-research/0.1",
			},
			SeedsPerSource:        3,
			EnableWikipedia:       true,
			EnableArxiv:           true,
			EnableSemanticScholar: true,
			EnableOpenAlex:        true,
			EnablePubMed:          true,
		},
		Traversal: TraversalConfig{
			MaxDepth:         3,
			MaxRefsPerSource: 3,
		},
		Session: SessionConfig{
			MaxIterations:       10,
			ThinkingDepth:       5,
			AutoIterate:         true,
			NoDirectionLimit:    3,
			MinDirectionLen:     10,
			MaxDirectionLen:     100,
			MalformedPatterns:   []string{"page applications"},
			MinCitations:        5,
			MinAbstractCoverage: 0.7,
			StaleResearchRounds: 3,
		},
		Store: StoreConfig{
			DataDir: "data",
		},
	}
}
