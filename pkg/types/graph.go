// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// EntityType classifies knowledge graph entities.
type EntityType string

const (
	EntityResearchPaper       EntityType = "research_paper"
	EntityEncyclopediaArticle EntityType = "encyclopedia_article"
	EntityConcept             EntityType = "concept"
	EntityAuthor              EntityType = "author"
	EntityVenue               EntityType = "venue"
)

// EntityAttributes holds the descriptive payload of an entity. Document
// entities fill most fields; concept/author/venue entities carry only a title.
type EntityAttributes struct {
	Title          string   `json:"title" yaml:"title"`
	URL            string   `json:"url,omitempty" yaml:"url,omitempty"`
	Source         string   `json:"source,omitempty" yaml:"source,omitempty"`
	Authors        []string `json:"authors,omitempty" yaml:"authors,omitempty"`
	Venue          string   `json:"venue,omitempty" yaml:"venue,omitempty"`
	CitationCount  int      `json:"citation_count" yaml:"citation_count"`
	PaperID        string   `json:"paper_id,omitempty" yaml:"paper_id,omitempty"`
	DOI            string   `json:"doi,omitempty" yaml:"doi,omitempty"`
	ContentLength  int      `json:"content_length" yaml:"content_length"`
	AbstractLength int      `json:"abstract_length" yaml:"abstract_length"`
}

// TemporalContext carries time information attached to an entity.
type TemporalContext struct {
	PublicationDate *time.Time `json:"publication_date,omitempty" yaml:"publication_date,omitempty"`
	LastUpdated     time.Time  `json:"last_updated" yaml:"last_updated"`
}

// SemanticFeatures carries extracted semantic signals for an entity.
type SemanticFeatures struct {
	KeyConcepts []string `json:"key_concepts,omitempty" yaml:"key_concepts,omitempty"`
	Depth       int      `json:"depth" yaml:"depth"`
}

// Entity is a node in the knowledge graph.
type Entity struct {
	ID               string           `json:"id" yaml:"id"`
	Type             EntityType       `json:"type" yaml:"type"`
	Attributes       EntityAttributes `json:"attributes" yaml:"attributes"`
	TemporalContext  TemporalContext  `json:"temporal_context" yaml:"temporal_context"`
	SemanticFeatures SemanticFeatures `json:"semantic_features" yaml:"semantic_features"`
}

// Relationship is a relationship *type* definition (e.g. "discusses"),
// not an edge instance. Edge instances are Triples.
type Relationship struct {
	ID                  string  `json:"id" yaml:"id"`
	Name                string  `json:"name" yaml:"name"`
	SemanticMeaning     string  `json:"semantic_meaning" yaml:"semantic_meaning"`
	ConfidenceThreshold float64 `json:"confidence_threshold" yaml:"confidence_threshold"`
}

// Provenance records where a triple was extracted from.
type Provenance struct {
	Source           string `json:"source" yaml:"source"`
	URL              string `json:"url" yaml:"url"`
	ExtractionMethod string `json:"extraction_method" yaml:"extraction_method"`
}

// Triple is one (head, relationship, tail) assertion with a confidence score.
// Head and Tail reference entity IDs that exist in the graph; Relation
// references a Relationship ID.
type Triple struct {
	ID         string     `json:"id" yaml:"id"`
	Head       string     `json:"head" yaml:"head"`
	Relation   string     `json:"relation" yaml:"relation"`
	Tail       string     `json:"tail" yaml:"tail"`
	Confidence float64    `json:"confidence" yaml:"confidence"`
	Timestamp  time.Time  `json:"timestamp" yaml:"timestamp"`
	Provenance Provenance `json:"provenance" yaml:"provenance"`
}

// KnowledgeCoverage measures fractional coverage of the graph across four
// independent dimensions, each in [0, 1].
type KnowledgeCoverage struct {
	Content  float64 `json:"content" yaml:"content"`
	Temporal float64 `json:"temporal" yaml:"temporal"`
	Source   float64 `json:"source" yaml:"source"`
	Concept  float64 `json:"concept" yaml:"concept"`
}

// GraphSummary is a derived view over one session's knowledge graph.
type GraphSummary struct {
	TotalEntities         int                `json:"total_entities" yaml:"total_entities"`
	TotalRelationships    int                `json:"total_relationships" yaml:"total_relationships"`
	TotalTriples          int                `json:"total_triples" yaml:"total_triples"`
	AvgConfidence         float64            `json:"avg_confidence" yaml:"avg_confidence"`
	EntityTypes           map[EntityType]int `json:"entity_types" yaml:"entity_types"`
	RelationshipDiversity map[string]int     `json:"relationship_diversity" yaml:"relationship_diversity"`
	SemanticRichness      float64            `json:"semantic_richness" yaml:"semantic_richness"`
	KnowledgeCoverage     KnowledgeCoverage  `json:"knowledge_coverage" yaml:"knowledge_coverage"`
}
