// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sources implements the five knowledge source adapters (Wikipedia,
// arXiv, Semantic Scholar, OpenAlex, PubMed) behind a single Adapter
// interface. The traversal engine depends only on that interface.
//
// See docs/ARCHITECTURE.md § Sources.
package sources

import (
	"context"
	"net/http"
	"time"

	"github.com/pdiddy/deep-research/internal/concepts"
	"github.com/pdiddy/deep-research/pkg/types"
)

// Adapter is the contract one knowledge source implements. Search returns up
// to a small number of seed citations at depth 0. Process enriches a citation
// in place: abstract, full content, key concepts, and outbound references
// tagged with depth c.Depth+1 and parent c.Title. Process never changes the
// citation's URL or PaperID.
//
// Adapters degrade instead of escalating: a Search returning an empty slice
// is not an error, and the traversal converts adapter errors into an
// unexpanded branch.
type Adapter interface {
	Name() types.Source
	Search(ctx context.Context, query string) ([]*types.Citation, error)
	Process(ctx context.Context, c *types.Citation) error
}

// Options holds settings shared by all adapter constructors. Zero fields get
// adapter-specific defaults: a per-source timeout on the HTTP client, three
// seeds, three references, and the heuristic concept extractor.
type Options struct {
	Client    *http.Client
	UserAgent string

	// Seeds caps how many citations one Search call returns.
	Seeds int

	// MaxRefs caps how many references one Process call attaches.
	MaxRefs int

	Extractor concepts.Extractor
}

func (o Options) withDefaults(timeout time.Duration) Options {
	if o.Client == nil {
		o.Client = &http.Client{Timeout: timeout}
	}
	if o.Seeds <= 0 {
		o.Seeds = 3
	}
	if o.MaxRefs <= 0 {
		o.MaxRefs = 3
	}
	if o.Extractor == nil {
		o.Extractor = concepts.Heuristic{}
	}
	return o
}

// Enabled builds the adapter list for the enabled sources in cfg, in
// canonical source order.
func Enabled(cfg types.SourcesConfig, traversal types.TraversalConfig) []Adapter {
	opts := Options{
		UserAgent: cfg.UserAgent,
		Seeds:     cfg.SeedsPerSource,
		MaxRefs:   traversal.MaxRefsPerSource,
	}
	if cfg.Timeout > 0 {
		opts.Client = &http.Client{Timeout: cfg.Timeout}
	}

	var adapters []Adapter
	if cfg.EnableWikipedia {
		adapters = append(adapters, NewWikipedia(opts))
	}
	if cfg.EnableArxiv {
		adapters = append(adapters, NewArxiv(opts))
	}
	if cfg.EnableSemanticScholar {
		adapters = append(adapters, NewSemanticScholar(opts, cfg.SemanticScholarAPIKey))
	}
	if cfg.EnableOpenAlex {
		adapters = append(adapters, NewOpenAlex(opts, cfg.OpenAlexEmail))
	}
	if cfg.EnablePubMed {
		adapters = append(adapters, NewPubMed(opts, cfg.PubMedAPIKey))
	}
	return adapters
}
