// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/pdiddy/deep-research/internal/httputil"
	"github.com/pdiddy/deep-research/pkg/types"
)

// semanticAPIBase is the Semantic Scholar Academic Graph API root. Declared
// as a var so tests can substitute an httptest server.
var semanticAPIBase = "https://api.semanticscholar.org/graph/v1"

const semanticFields = "title,abstract,authors,externalIds,year,publicationDate,citationCount,venue,url"

// semanticPaceInterval keeps unauthenticated requests under the shared
// 1 req/s pool with a little headroom.
const semanticPaceInterval = 1100 * time.Millisecond

// SemanticScholar queries the Semantic Scholar Academic Graph API.
type SemanticScholar struct {
	opts   Options
	apiKey string
	pacer  *httputil.Pacer
}

// NewSemanticScholar returns a Semantic Scholar adapter. apiKey is optional.
func NewSemanticScholar(opts Options, apiKey string) *SemanticScholar {
	return &SemanticScholar{
		opts:   opts.withDefaults(20 * time.Second),
		apiKey: apiKey,
		pacer:  httputil.NewPacer(semanticPaceInterval),
	}
}

// Name returns the adapter identifier.
func (a *SemanticScholar) Name() types.Source { return types.SourceSemanticScholar }

// Search queries paper search and returns seed citations.
func (a *SemanticScholar) Search(ctx context.Context, query string) ([]*types.Citation, error) {
	params := url.Values{
		"query":  {query},
		"limit":  {fmt.Sprintf("%d", a.opts.Seeds)},
		"fields": {semanticFields},
	}

	var sr semanticSearchResponse
	if err := a.get(ctx, "/paper/search?"+params.Encode(), &sr); err != nil {
		return nil, err
	}

	var citations []*types.Citation
	for _, paper := range sr.Data {
		citations = append(citations, semanticCitation(paper))
	}
	return citations, nil
}

// Process fetches the paper's reference list and fills in a missing abstract.
func (a *SemanticScholar) Process(ctx context.Context, c *types.Citation) error {
	if c.PaperID == "" {
		return fmt.Errorf("citation has no Semantic Scholar paper ID: %s", c.URL)
	}

	params := url.Values{
		"limit":  {fmt.Sprintf("%d", a.opts.MaxRefs)},
		"fields": {semanticFields},
	}

	var rr semanticReferencesResponse
	path := "/paper/" + url.PathEscape(c.PaperID) + "/references?" + params.Encode()
	if err := a.get(ctx, path, &rr); err != nil {
		return err
	}

	if c.Abstract != "" {
		c.KeyConcepts = a.opts.Extractor.Extract(c.Abstract)
	}

	for _, ref := range rr.Data {
		if len(c.References) >= a.opts.MaxRefs {
			break
		}
		cited := semanticCitation(ref.CitedPaper)
		if cited.URL == "" || cited.URL == c.URL {
			continue
		}
		cited.Depth = c.Depth + 1
		cited.Parent = c.Title
		c.References = append(c.References, cited)
	}
	return nil
}

func (a *SemanticScholar) get(ctx context.Context, path string, out any) error {
	if err := a.pacer.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, semanticAPIBase+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", a.opts.UserAgent)
	if a.apiKey != "" {
		req.Header.Set("x-api-key", a.apiKey)
	}

	resp, err := httputil.DoWithRetry(ctx, a.opts.Client, req, 0)
	if err != nil {
		return fmt.Errorf("Semantic Scholar API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("Semantic Scholar API returned HTTP %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parsing Semantic Scholar response: %w", err)
	}
	return nil
}

// semanticCitation converts an API paper record to a citation. Papers
// without a URL fall back to the Semantic Scholar paper page.
func semanticCitation(paper semanticPaper) *types.Citation {
	c := &types.Citation{
		URL:           paper.URL,
		PaperID:       paper.PaperID,
		Source:        types.SourceSemanticScholar,
		Title:         paper.Title,
		Venue:         paper.Venue,
		CitationCount: paper.CitationCount,
		DOI:           paper.ExternalIDs.DOI,
		Abstract:      paper.Abstract,
	}
	if c.URL == "" && paper.PaperID != "" {
		c.URL = "https://www.semanticscholar.org/paper/" + paper.PaperID
	}
	for _, author := range paper.Authors {
		c.Authors = append(c.Authors, author.Name)
	}
	if paper.PublicationDate != "" {
		if t, err := time.Parse("2006-01-02", paper.PublicationDate); err == nil {
			c.PublicationDate = &t
		}
	} else if paper.Year > 0 {
		t := time.Date(paper.Year, 1, 1, 0, 0, 0, 0, time.UTC)
		c.PublicationDate = &t
	}
	return c
}

// Semantic Scholar API JSON structures.
type semanticSearchResponse struct {
	Total  int             `json:"total"`
	Offset int             `json:"offset"`
	Data   []semanticPaper `json:"data"`
}

type semanticReferencesResponse struct {
	Data []semanticReference `json:"data"`
}

type semanticReference struct {
	CitedPaper semanticPaper `json:"citedPaper"`
}

type semanticPaper struct {
	PaperID         string              `json:"paperId"`
	URL             string              `json:"url"`
	Title           string              `json:"title"`
	Abstract        string              `json:"abstract"`
	Venue           string              `json:"venue"`
	Year            int                 `json:"year"`
	PublicationDate string              `json:"publicationDate"`
	CitationCount   int                 `json:"citationCount"`
	Authors         []semanticAuthor    `json:"authors"`
	ExternalIDs     semanticExternalIDs `json:"externalIds"`
}

type semanticAuthor struct {
	AuthorID string `json:"authorId"`
	Name     string `json:"name"`
}

type semanticExternalIDs struct {
	DOI   string `json:"DOI"`
	ArXiv string `json:"ArXiv"`
}
