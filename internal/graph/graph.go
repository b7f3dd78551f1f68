// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package graph builds a session-scoped knowledge graph from visited
// citations: typed entities, named relationship types, and confidence-scored
// triples with provenance.
//
// See docs/ARCHITECTURE.md § Knowledge Graph.
package graph

import (
	"fmt"
	"time"

	"github.com/pdiddy/deep-research/pkg/types"
)

// Per-citation extraction caps and confidence scores.
const (
	maxConceptTriples = 5
	maxAuthorTriples  = 3

	discussesConfidence   = 0.8
	authoredByConfidence  = 0.9
	publishedInConfidence = 0.7

	relationshipThreshold = 0.5
	extractionMethod      = "semantic_analysis"
)

// Builder owns one session's knowledge graph. All indices are arena-style:
// IDs are only meaningful within this Builder and are never reused. Builder
// is not safe for concurrent use; the session controller ingests citations
// from a single goroutine.
type Builder struct {
	entities      map[string]*types.Entity
	relationships map[string]*types.Relationship
	triples       []*types.Triple

	// entityByName indexes concept/author/venue entities by display name so
	// repeated mentions resolve to one node.
	entityByName map[string]string

	// relationshipByName dedupes relationship type definitions.
	relationshipByName map[string]string

	entityCounter       int
	relationshipCounter int
	tripleCounter       int

	now func() time.Time
}

// NewBuilder returns an empty knowledge graph builder.
func NewBuilder() *Builder {
	return &Builder{
		entities:           make(map[string]*types.Entity),
		relationships:      make(map[string]*types.Relationship),
		entityByName:       make(map[string]string),
		relationshipByName: make(map[string]string),
		now:                time.Now,
	}
}

// Ingest adds one citation to the graph: a document entity plus discusses,
// authored_by, and published_in triples pointing at concept, author, and
// venue entities.
func (b *Builder) Ingest(c *types.Citation) {
	if c == nil {
		return
	}

	docID := b.addDocumentEntity(c)
	provenance := types.Provenance{
		Source:           string(c.Source),
		URL:              c.URL,
		ExtractionMethod: extractionMethod,
	}

	concepts := c.KeyConcepts
	if len(concepts) > maxConceptTriples {
		concepts = concepts[:maxConceptTriples]
	}
	for _, concept := range concepts {
		relID := b.relationship("discusses", "Entity discusses a key concept")
		tailID := b.namedEntity(concept, types.EntityConcept)
		b.addTriple(docID, relID, tailID, discussesConfidence, provenance)
	}

	authors := c.Authors
	if len(authors) > maxAuthorTriples {
		authors = authors[:maxAuthorTriples]
	}
	for _, author := range authors {
		relID := b.relationship("authored_by", "Entity was written by an author")
		tailID := b.namedEntity(author, types.EntityAuthor)
		b.addTriple(docID, relID, tailID, authoredByConfidence, provenance)
	}

	if c.Venue != "" {
		relID := b.relationship("published_in", "Entity appeared in a venue")
		tailID := b.namedEntity(c.Venue, types.EntityVenue)
		b.addTriple(docID, relID, tailID, publishedInConfidence, provenance)
	}
}

// addDocumentEntity creates the entity node for a visited citation.
// Wikipedia articles are encyclopedia articles; everything else is a
// research paper.
func (b *Builder) addDocumentEntity(c *types.Citation) string {
	entityType := types.EntityResearchPaper
	if c.Source == types.SourceWikipedia {
		entityType = types.EntityEncyclopediaArticle
	}

	id := b.nextEntityID()
	b.entities[id] = &types.Entity{
		ID:   id,
		Type: entityType,
		Attributes: types.EntityAttributes{
			Title:          c.Title,
			URL:            c.URL,
			Source:         string(c.Source),
			Authors:        c.Authors,
			Venue:          c.Venue,
			CitationCount:  c.CitationCount,
			PaperID:        c.PaperID,
			DOI:            c.DOI,
			ContentLength:  len(c.FullContent),
			AbstractLength: len(c.Abstract),
		},
		TemporalContext: types.TemporalContext{
			PublicationDate: c.PublicationDate,
			LastUpdated:     b.now(),
		},
		SemanticFeatures: types.SemanticFeatures{
			KeyConcepts: c.KeyConcepts,
			Depth:       c.Depth,
		},
	}
	return id
}

// namedEntity returns the entity ID for a concept/author/venue display name,
// creating the node on first mention.
func (b *Builder) namedEntity(name string, entityType types.EntityType) string {
	if id, ok := b.entityByName[name]; ok {
		return id
	}

	id := b.nextEntityID()
	b.entities[id] = &types.Entity{
		ID:   id,
		Type: entityType,
		Attributes: types.EntityAttributes{
			Title: name,
		},
		TemporalContext: types.TemporalContext{
			LastUpdated: b.now(),
		},
		SemanticFeatures: types.SemanticFeatures{
			KeyConcepts: []string{name},
		},
	}
	b.entityByName[name] = id
	return id
}

// relationship returns the ID of the named relationship type, creating the
// definition on first use.
func (b *Builder) relationship(name, meaning string) string {
	if id, ok := b.relationshipByName[name]; ok {
		return id
	}

	id := fmt.Sprintf("rel_%d", b.relationshipCounter)
	b.relationshipCounter++
	b.relationships[id] = &types.Relationship{
		ID:                  id,
		Name:                name,
		SemanticMeaning:     meaning,
		ConfidenceThreshold: relationshipThreshold,
	}
	b.relationshipByName[name] = id
	return id
}

func (b *Builder) addTriple(head, relation, tail string, confidence float64, provenance types.Provenance) {
	id := fmt.Sprintf("triple_%d", b.tripleCounter)
	b.tripleCounter++
	b.triples = append(b.triples, &types.Triple{
		ID:         id,
		Head:       head,
		Relation:   relation,
		Tail:       tail,
		Confidence: confidence,
		Timestamp:  b.now(),
		Provenance: provenance,
	})
}

func (b *Builder) nextEntityID() string {
	id := fmt.Sprintf("entity_%d", b.entityCounter)
	b.entityCounter++
	return id
}

// Entities returns the entity index. Callers must not mutate it.
func (b *Builder) Entities() map[string]*types.Entity { return b.entities }

// Triples returns the triples in insertion order. Callers must not mutate it.
func (b *Builder) Triples() []*types.Triple { return b.triples }

// Summary computes the derived statistics over the current graph.
func (b *Builder) Summary() types.GraphSummary {
	s := types.GraphSummary{
		TotalEntities:         len(b.entities),
		TotalRelationships:    len(b.relationships),
		TotalTriples:          len(b.triples),
		EntityTypes:           make(map[types.EntityType]int),
		RelationshipDiversity: make(map[string]int),
	}

	var confidenceSum float64
	for _, t := range b.triples {
		confidenceSum += t.Confidence
		if rel, ok := b.relationships[t.Relation]; ok {
			s.RelationshipDiversity[rel.Name]++
		}
	}
	if len(b.triples) > 0 {
		s.AvgConfidence = confidenceSum / float64(len(b.triples))
	}

	for _, e := range b.entities {
		s.EntityTypes[e.Type]++
	}

	s.SemanticRichness = b.semanticRichness()
	s.KnowledgeCoverage = b.knowledgeCoverage()
	return s
}

// semanticRichness combines average concepts per entity with triple density,
// normalized to roughly [0, 1].
func (b *Builder) semanticRichness() float64 {
	if len(b.entities) == 0 {
		return 0
	}

	totalConcepts := 0
	for _, e := range b.entities {
		totalConcepts += len(e.SemanticFeatures.KeyConcepts)
	}

	avgConcepts := float64(totalConcepts) / float64(len(b.entities))
	tripleDensity := float64(len(b.triples)) / float64(len(b.entities))
	return (avgConcepts*0.4 + tripleDensity*0.6) / 10
}

// knowledgeCoverage measures fractional coverage over four dimensions:
// entities with content, entities with a publication date, source diversity
// (capped at the five supported sources), and concept vocabulary size
// (capped at 100).
func (b *Builder) knowledgeCoverage() types.KnowledgeCoverage {
	if len(b.entities) == 0 {
		return types.KnowledgeCoverage{}
	}

	var withContent, withDate int
	sources := make(map[string]bool)
	vocabulary := make(map[string]bool)

	for _, e := range b.entities {
		if e.Attributes.ContentLength > 0 {
			withContent++
		}
		if e.TemporalContext.PublicationDate != nil {
			withDate++
		}
		if e.Attributes.Source != "" {
			sources[e.Attributes.Source] = true
		}
		for _, concept := range e.SemanticFeatures.KeyConcepts {
			vocabulary[concept] = true
		}
	}

	total := float64(len(b.entities))
	return types.KnowledgeCoverage{
		Content:  float64(withContent) / total,
		Temporal: float64(withDate) / total,
		Source:   capRatio(len(sources), 5),
		Concept:  capRatio(len(vocabulary), 100),
	}
}

func capRatio(n, limit int) float64 {
	r := float64(n) / float64(limit)
	if r > 1 {
		return 1
	}
	return r
}
