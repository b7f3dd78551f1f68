// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package concepts extracts key concepts and search terms from citation text.
// The default extractor is a heuristic keyword pass; the Extractor interface
// lets callers substitute an NLP-backed implementation without touching the
// traversal code.
package concepts

import (
	"regexp"
	"strings"
)

// Extractor produces key concepts from free text. Implementations must be
// safe for concurrent use: the traversal engine calls Extract from multiple
// source goroutines.
type Extractor interface {
	Extract(text string) []string
}

// maxConcepts caps how many concepts one Extract call returns.
const maxConcepts = 10

// stopWords are common English words excluded from concept extraction.
var stopWords = map[string]bool{
	"the": true, "and": true, "or": true, "but": true, "in": true,
	"on": true, "at": true, "to": true, "for": true, "of": true,
	"with": true, "by": true, "is": true, "are": true, "was": true,
	"were": true, "be": true, "been": true, "being": true, "have": true,
	"has": true, "had": true, "do": true, "does": true, "did": true,
	"will": true, "would": true, "could": true, "should": true,
	"may": true, "might": true, "must": true, "shall": true, "can": true,
	"this": true, "that": true, "these": true, "those": true,
	"a": true, "an": true,
}

// academicStopWords are generic academic terms excluded from search terms.
var academicStopWords = map[string]bool{
	"study": true, "analysis": true, "research": true,
	"investigation": true, "review": true, "survey": true,
	"overview": true, "introduction": true, "conclusion": true,
}

var (
	conceptWordRe = regexp.MustCompile(`\b[a-zA-Z]{4,}\b`)
	searchWordRe  = regexp.MustCompile(`\b[a-zA-Z]{3,}\b`)
)

// Heuristic is the default Extractor: lowercased words of at least four
// letters, stop words removed, first occurrence wins, at most ten concepts.
// The zero value is ready to use.
type Heuristic struct{}

// Extract returns up to ten key concepts from text in order of first
// appearance.
func (Heuristic) Extract(text string) []string {
	words := conceptWordRe.FindAllString(strings.ToLower(text), -1)

	seen := make(map[string]bool, maxConcepts)
	var out []string
	for _, w := range words {
		if len(out) >= maxConcepts {
			break
		}
		if stopWords[w] || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}

// SearchTerms reduces a document title to at most five lowercased terms
// suitable for a follow-up search query. Generic academic words ("study",
// "review", ...) are removed so the query keeps its distinguishing terms.
func SearchTerms(title string) []string {
	words := searchWordRe.FindAllString(strings.ToLower(title), -1)

	var out []string
	for _, w := range words {
		if academicStopWords[w] {
			continue
		}
		out = append(out, w)
		if len(out) == 5 {
			break
		}
	}
	return out
}

// excludedTitleRes match navigation and meta pages that are not worth
// traversing (Wikipedia lists, categories, disambiguation pages).
var excludedTitleRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^List of`),
	regexp.MustCompile(`(?i)^Category:`),
	regexp.MustCompile(`(?i)^Template:`),
	regexp.MustCompile(`(?i)^File:`),
	regexp.MustCompile(`(?i)^Help:`),
	regexp.MustCompile(`(?i)^Portal:`),
	regexp.MustCompile(`(?i)disambiguation`),
}

// RelevantReference reports whether a linked title is worth exploring.
func RelevantReference(title string) bool {
	for _, re := range excludedTitleRes {
		if re.MatchString(title) {
			return false
		}
	}
	return true
}
