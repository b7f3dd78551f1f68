// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/pdiddy/deep-research/internal/httputil"
	"github.com/pdiddy/deep-research/pkg/types"
)

// openAlexAPIBase is the OpenAlex Works endpoint. Declared as a var so tests
// can substitute an httptest server.
var openAlexAPIBase = "https://api.openalex.org/works"

// OpenAlex queries the OpenAlex Works API. OpenAlex has no hard rate limit
// for the polite pool, so the adapter carries no pacer.
type OpenAlex struct {
	opts Options
	// email is sent as the mailto parameter for polite pool access.
	email string
}

// NewOpenAlex returns an OpenAlex adapter. email is optional.
func NewOpenAlex(opts Options, email string) *OpenAlex {
	return &OpenAlex{opts: opts.withDefaults(15 * time.Second), email: email}
}

// Name returns the adapter identifier.
func (a *OpenAlex) Name() types.Source { return types.SourceOpenAlex }

// Search queries works search and returns seed citations.
func (a *OpenAlex) Search(ctx context.Context, query string) ([]*types.Citation, error) {
	params := url.Values{
		"search":   {query},
		"per_page": {fmt.Sprintf("%d", a.opts.Seeds)},
		"page":     {"1"},
	}

	var or openAlexResponse
	if err := a.get(ctx, "?"+a.withMailto(params).Encode(), &or); err != nil {
		return nil, err
	}

	var citations []*types.Citation
	for _, work := range or.Results {
		citations = append(citations, a.citation(work))
	}
	return citations, nil
}

// Process fetches the work's referenced_works list and resolves the first
// MaxRefs of them in one batch request.
func (a *OpenAlex) Process(ctx context.Context, c *types.Citation) error {
	if c.PaperID == "" {
		return fmt.Errorf("citation has no OpenAlex work ID: %s", c.URL)
	}

	var work openAlexWork
	if err := a.get(ctx, "/"+url.PathEscape(c.PaperID)+"?"+a.withMailto(url.Values{}).Encode(), &work); err != nil {
		return err
	}

	abstract := reconstructAbstract(work.AbstractInvertedIndex)
	if abstract != "" {
		c.Abstract = abstract
		c.KeyConcepts = a.opts.Extractor.Extract(abstract)
	}

	refs := work.ReferencedWorks
	if len(refs) > a.opts.MaxRefs {
		refs = refs[:a.opts.MaxRefs]
	}
	if len(refs) == 0 {
		return nil
	}

	ids := make([]string, len(refs))
	for i, ref := range refs {
		ids[i] = workID(ref)
	}

	params := url.Values{
		"filter":   {"ids.openalex:" + strings.Join(ids, "|")},
		"per_page": {fmt.Sprintf("%d", len(ids))},
	}

	var batch openAlexResponse
	if err := a.get(ctx, "?"+a.withMailto(params).Encode(), &batch); err != nil {
		return err
	}

	for _, w := range batch.Results {
		ref := a.citation(w)
		if ref.URL == "" || ref.URL == c.URL {
			continue
		}
		ref.Depth = c.Depth + 1
		ref.Parent = c.Title
		c.References = append(c.References, ref)
	}
	return nil
}

func (a *OpenAlex) withMailto(params url.Values) url.Values {
	if a.email != "" {
		params.Set("mailto", a.email)
	}
	return params
}

func (a *OpenAlex) get(ctx context.Context, pathAndQuery string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, openAlexAPIBase+pathAndQuery, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", a.opts.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, a.opts.Client, req, 0)
	if err != nil {
		return fmt.Errorf("OpenAlex API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("OpenAlex API returned HTTP %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parsing OpenAlex response: %w", err)
	}
	return nil
}

// citation converts an OpenAlex work to a citation. The DOI URL is preferred
// as the citation URL since it is stable across sources; the bare work ID
// (e.g. "W2741809807") becomes the paper ID.
func (a *OpenAlex) citation(work openAlexWork) *types.Citation {
	c := &types.Citation{
		URL:           work.DOI,
		PaperID:       workID(work.ID),
		Source:        types.SourceOpenAlex,
		Title:         work.Title,
		Venue:         work.PrimaryLocation.Source.DisplayName,
		CitationCount: work.CitedByCount,
		DOI:           strings.TrimPrefix(work.DOI, "https://doi.org/"),
		Abstract:      reconstructAbstract(work.AbstractInvertedIndex),
	}
	if c.URL == "" {
		c.URL = work.ID
	}
	for _, authorship := range work.Authorships {
		if authorship.Author.DisplayName != "" {
			c.Authors = append(c.Authors, authorship.Author.DisplayName)
		}
	}
	if work.PublicationDate != "" {
		if t, err := time.Parse("2006-01-02", work.PublicationDate); err == nil {
			c.PublicationDate = &t
		}
	} else if work.PublicationYear > 0 {
		t := time.Date(work.PublicationYear, 1, 1, 0, 0, 0, 0, time.UTC)
		c.PublicationDate = &t
	}
	return c
}

// workID strips the https://openalex.org/ prefix from a work identifier.
func workID(id string) string {
	if idx := strings.LastIndex(id, "/"); idx >= 0 {
		return id[idx+1:]
	}
	return id
}

// reconstructAbstract converts OpenAlex's abstract_inverted_index back to
// plain text. The inverted index maps each word to the positions where that
// word appears.
func reconstructAbstract(invertedIndex map[string][]int) string {
	if len(invertedIndex) == 0 {
		return ""
	}

	type posWord struct {
		pos  int
		word string
	}
	var pairs []posWord
	for word, positions := range invertedIndex {
		for _, pos := range positions {
			pairs = append(pairs, posWord{pos: pos, word: word})
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].pos < pairs[j].pos
	})

	words := make([]string, len(pairs))
	for i, p := range pairs {
		words[i] = p.word
	}
	return strings.Join(words, " ")
}

// OpenAlex API JSON structures.
type openAlexResponse struct {
	Results []openAlexWork `json:"results"`
}

type openAlexWork struct {
	ID                    string               `json:"id"`
	Title                 string               `json:"title"`
	DOI                   string               `json:"doi"`
	PublicationDate       string               `json:"publication_date"`
	PublicationYear       int                  `json:"publication_year"`
	CitedByCount          int                  `json:"cited_by_count"`
	Authorships           []openAlexAuthorship `json:"authorships"`
	AbstractInvertedIndex map[string][]int     `json:"abstract_inverted_index"`
	ReferencedWorks       []string             `json:"referenced_works"`
	PrimaryLocation       openAlexLocation     `json:"primary_location"`
}

type openAlexAuthorship struct {
	Author openAlexAuthor `json:"author"`
}

type openAlexAuthor struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type openAlexLocation struct {
	Source openAlexVenue `json:"source"`
}

type openAlexVenue struct {
	DisplayName string `json:"display_name"`
}
