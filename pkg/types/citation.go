// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the deep-research engine:
// citations and traversal results, knowledge graph records, research session
// state, and stage configuration.
//
// See docs/ARCHITECTURE.md § Data Structures.
package types

import "time"

// Source identifies which external knowledge service a citation came from.
type Source string

const (
	SourceWikipedia       Source = "wikipedia"
	SourceArxiv           Source = "arxiv"
	SourceSemanticScholar Source = "semantic_scholar"
	SourceOpenAlex        Source = "openalex"
	SourcePubMed          Source = "pubmed"
)

// AllSources lists every supported source in canonical order.
var AllSources = []Source{
	SourceWikipedia,
	SourceArxiv,
	SourceSemanticScholar,
	SourceOpenAlex,
	SourcePubMed,
}

// Valid reports whether s is one of the supported sources.
func (s Source) Valid() bool {
	for _, known := range AllSources {
		if s == known {
			return true
		}
	}
	return false
}

// Citation is one discovered document. URL is the primary dedup key; PaperID
// is a secondary, source-specific key (e.g. a Semantic Scholar paper ID or a
// PubMed PMID). Adapters create citations from search calls and enrich them
// in place from process calls; once a citation is appended to a traversal's
// result list it is treated as immutable.
type Citation struct {
	// URL uniquely identifies the document. A citation without a URL is
	// invalid and is dropped before deduplication.
	URL string `json:"url" yaml:"url"`

	// PaperID is a source-specific identifier, empty when the source has none.
	PaperID string `json:"paper_id,omitempty" yaml:"paper_id,omitempty"`

	// Source identifies the adapter that discovered this citation.
	Source Source `json:"source" yaml:"source"`

	Title   string   `json:"title" yaml:"title"`
	Authors []string `json:"authors,omitempty" yaml:"authors,omitempty"`

	// PublicationDate is nil when the source did not report a date.
	PublicationDate *time.Time `json:"publication_date,omitempty" yaml:"publication_date,omitempty"`

	Venue         string `json:"venue,omitempty" yaml:"venue,omitempty"`
	CitationCount int    `json:"citation_count" yaml:"citation_count"`
	DOI           string `json:"doi,omitempty" yaml:"doi,omitempty"`

	Abstract    string `json:"abstract,omitempty" yaml:"abstract,omitempty"`
	FullContent string `json:"full_content,omitempty" yaml:"full_content,omitempty"`

	// KeyConcepts holds deduplicated concept strings extracted from the
	// citation's text.
	KeyConcepts []string `json:"key_concepts,omitempty" yaml:"key_concepts,omitempty"`

	// Depth is the distance from a seed citation (seeds are depth 0).
	Depth int `json:"depth" yaml:"depth"`

	// Parent is the title of the citation that led here. It is a weak lookup
	// key for path reconstruction, not an ownership edge: two citations may
	// reference each other without creating a cycle in the result set.
	Parent string `json:"parent,omitempty" yaml:"parent,omitempty"`

	// References holds citations discovered as outbound links from this one.
	// They are owned by this citation until the traversal visits them and
	// merges them into its flat result list.
	References []*Citation `json:"references,omitempty" yaml:"references,omitempty"`
}

// HasAbstract reports whether the citation carries a usable abstract
// (more than 10 characters of non-whitespace text).
func (c *Citation) HasAbstract() bool {
	return len(trimmed(c.Abstract)) > 10
}

// HasFullContent reports whether the citation carries usable full content
// (more than 100 characters of non-whitespace text).
func (c *Citation) HasFullContent() bool {
	return len(trimmed(c.FullContent)) > 100
}

func trimmed(s string) string {
	start, end := 0, len(s)
	for start < end && isSpace(s[start]) {
		start++
	}
	for end > start && isSpace(s[end-1]) {
		end--
	}
	return s[start:end]
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// ContentMetrics summarizes content quality across a set of citations.
type ContentMetrics struct {
	TotalCitations         int     `json:"total_citations" yaml:"total_citations"`
	SourcesWithAbstracts   int     `json:"sources_with_abstracts" yaml:"sources_with_abstracts"`
	SourcesWithFullContent int     `json:"sources_with_full_content" yaml:"sources_with_full_content"`
	AbstractCoverage       float64 `json:"abstract_coverage" yaml:"abstract_coverage"`
	FullContentCoverage    float64 `json:"full_content_coverage" yaml:"full_content_coverage"`
	AvgAbstractLength      int     `json:"avg_abstract_length" yaml:"avg_abstract_length"`
	AvgContentLength       int     `json:"avg_content_length" yaml:"avg_content_length"`
	AvgCitationCount       float64 `json:"avg_citation_count" yaml:"avg_citation_count"`
}

// TraversalResult holds the output of one citation traversal run.
type TraversalResult struct {
	Topic           string          `json:"topic" yaml:"topic"`
	Citations       []*Citation     `json:"citations" yaml:"citations"`
	SourceBreakdown map[Source]int  `json:"source_breakdown" yaml:"source_breakdown"`
	ContentMetrics  ContentMetrics  `json:"content_metrics" yaml:"content_metrics"`
	MaxDepthReached int             `json:"max_depth_reached" yaml:"max_depth_reached"`
	SourceErrors    []string        `json:"source_errors,omitempty" yaml:"source_errors,omitempty"`
	Timestamp       time.Time       `json:"timestamp" yaml:"timestamp"`
}
