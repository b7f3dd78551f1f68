// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package graph

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/deep-research/pkg/types"
)

func paperFixture() *types.Citation {
	date := time.Date(2017, 6, 12, 0, 0, 0, 0, time.UTC)
	return &types.Citation{
		URL:             "https://arxiv.org/abs/1706.03762",
		PaperID:         "1706.03762",
		Source:          types.SourceArxiv,
		Title:           "Attention Is All You Need",
		Authors:         []string{"Vaswani", "Shazeer", "Parmar", "Uszkoreit"},
		PublicationDate: &date,
		Venue:           "NeurIPS",
		CitationCount:   90000,
		Abstract:        "The dominant sequence transduction models are based on recurrent networks.",
		FullContent:     "",
		KeyConcepts:     []string{"attention", "transformer", "sequence", "transduction", "recurrent", "networks", "encoder"},
		Depth:           0,
	}
}

func TestIngestDocumentEntity(t *testing.T) {
	b := NewBuilder()
	b.Ingest(paperFixture())

	var doc *types.Entity
	for _, e := range b.Entities() {
		if e.Type == types.EntityResearchPaper {
			doc = e
		}
	}
	require.NotNil(t, doc, "research paper entity missing")

	assert.Equal(t, "Attention Is All You Need", doc.Attributes.Title)
	assert.Equal(t, "arxiv", doc.Attributes.Source)
	assert.Equal(t, len("The dominant sequence transduction models are based on recurrent networks."), doc.Attributes.AbstractLength)
	assert.NotNil(t, doc.TemporalContext.PublicationDate)
	assert.Equal(t, 7, len(doc.SemanticFeatures.KeyConcepts))
}

func TestIngestWikipediaIsEncyclopediaArticle(t *testing.T) {
	b := NewBuilder()
	b.Ingest(&types.Citation{
		URL:    "https://en.wikipedia.org/wiki/Transformer",
		Source: types.SourceWikipedia,
		Title:  "Transformer (deep learning)",
	})

	summary := b.Summary()
	assert.Equal(t, 1, summary.EntityTypes[types.EntityEncyclopediaArticle])
	assert.Equal(t, 0, summary.EntityTypes[types.EntityResearchPaper])
}

func TestIngestTripleCaps(t *testing.T) {
	b := NewBuilder()
	b.Ingest(paperFixture())

	summary := b.Summary()

	// 7 concepts capped at 5, 4 authors capped at 3, 1 venue.
	assert.Equal(t, 5, summary.RelationshipDiversity["discusses"])
	assert.Equal(t, 3, summary.RelationshipDiversity["authored_by"])
	assert.Equal(t, 1, summary.RelationshipDiversity["published_in"])
	assert.Equal(t, 9, summary.TotalTriples)

	// One document + 5 concepts + 3 authors + 1 venue.
	assert.Equal(t, 10, summary.TotalEntities)
	// Relationship types are deduplicated by name.
	assert.Equal(t, 3, summary.TotalRelationships)
}

func TestIngestReusesNamedEntities(t *testing.T) {
	b := NewBuilder()
	first := paperFixture()
	b.Ingest(first)
	before := b.Summary().TotalEntities

	second := paperFixture()
	second.URL = "https://arxiv.org/abs/1810.04805"
	second.PaperID = "1810.04805"
	second.Title = "BERT"
	b.Ingest(second)

	// Same concepts, authors, and venue resolve to existing nodes; only the
	// new document entity is added.
	assert.Equal(t, before+1, b.Summary().TotalEntities)
}

func TestTripleReferentialIntegrity(t *testing.T) {
	b := NewBuilder()
	b.Ingest(paperFixture())
	wiki := &types.Citation{
		URL:         "https://en.wikipedia.org/wiki/Attention",
		Source:      types.SourceWikipedia,
		Title:       "Attention (machine learning)",
		KeyConcepts: []string{"attention", "alignment"},
	}
	b.Ingest(wiki)

	entities := b.Entities()
	for _, triple := range b.Triples() {
		assert.Contains(t, entities, triple.Head, "triple head must exist")
		assert.Contains(t, entities, triple.Tail, "triple tail must exist")
		assert.NotEmpty(t, triple.Provenance.URL)
		assert.Equal(t, "semantic_analysis", triple.Provenance.ExtractionMethod)
	}
}

func TestSummaryConfidence(t *testing.T) {
	b := NewBuilder()
	b.Ingest(&types.Citation{
		URL:         "https://x/doc",
		Source:      types.SourceOpenAlex,
		Title:       "Doc",
		KeyConcepts: []string{"alpha"},
		Authors:     []string{"Author"},
		Venue:       "Venue",
	})

	summary := b.Summary()
	require.Equal(t, 3, summary.TotalTriples)
	assert.InDelta(t, (0.8+0.9+0.7)/3, summary.AvgConfidence, 1e-9)
}

func TestSummaryEmptyGraph(t *testing.T) {
	summary := NewBuilder().Summary()

	assert.Zero(t, summary.TotalEntities)
	assert.Zero(t, summary.AvgConfidence)
	assert.Zero(t, summary.SemanticRichness)
	assert.Zero(t, summary.KnowledgeCoverage.Content)
}

func TestKnowledgeCoverage(t *testing.T) {
	b := NewBuilder()
	c := paperFixture()
	c.FullContent = "full body text"
	b.Ingest(c)

	cov := b.Summary().KnowledgeCoverage

	// Only the document entity has content and a date; named entities dilute
	// both ratios.
	assert.Greater(t, cov.Content, 0.0)
	assert.Less(t, cov.Content, 1.0)
	assert.Greater(t, cov.Temporal, 0.0)
	// One source out of five supported.
	assert.InDelta(t, 0.2, cov.Source, 1e-9)
	assert.Greater(t, cov.Concept, 0.0)
}

func TestSemanticRichnessGrowsWithTriples(t *testing.T) {
	sparse := NewBuilder()
	sparse.Ingest(&types.Citation{URL: "https://x/a", Source: types.SourceArxiv, Title: "A"})

	dense := NewBuilder()
	dense.Ingest(paperFixture())

	assert.Greater(t, dense.Summary().SemanticRichness, sparse.Summary().SemanticRichness)
}
