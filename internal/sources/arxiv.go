// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/deep-research/internal/concepts"
	"github.com/pdiddy/deep-research/internal/httputil"
	"github.com/pdiddy/deep-research/pkg/types"
)

// arxivAPIBase is the arXiv search endpoint. Declared as a var so tests can
// substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

// arxivPaceInterval is the minimum spacing between arXiv requests, per the
// arXiv API terms of use.
const arxivPaceInterval = 3 * time.Second

// relatedPaperLimit caps how many related papers one Process call attaches.
// arXiv exposes no reference list, so references are approximated by a
// follow-up search on the paper's title terms.
const relatedPaperLimit = 2

// Arxiv queries the arXiv Atom API.
type Arxiv struct {
	opts  Options
	pacer *httputil.Pacer
}

// NewArxiv returns an arXiv adapter with request pacing.
func NewArxiv(opts Options) *Arxiv {
	return &Arxiv{
		opts:  opts.withDefaults(30 * time.Second),
		pacer: httputil.NewPacer(arxivPaceInterval),
	}
}

// Name returns the adapter identifier.
func (a *Arxiv) Name() types.Source { return types.SourceArxiv }

// Search queries arXiv by relevance and returns seed citations.
func (a *Arxiv) Search(ctx context.Context, query string) ([]*types.Citation, error) {
	feed, err := a.query(ctx, url.Values{
		"search_query": {"all:" + strings.Join(strings.Fields(query), "+")},
		"start":        {"0"},
		"max_results":  {fmt.Sprintf("%d", a.opts.Seeds)},
		"sortBy":       {"relevance"},
	})
	if err != nil {
		return nil, err
	}

	var citations []*types.Citation
	for _, entry := range feed.Entries {
		citations = append(citations, a.citation(entry))
	}
	return citations, nil
}

// Process re-fetches the paper for its abstract and attaches related papers
// found by searching the title's key terms.
func (a *Arxiv) Process(ctx context.Context, c *types.Citation) error {
	feed, err := a.query(ctx, url.Values{
		"id_list":     {c.PaperID},
		"max_results": {"1"},
	})
	if err != nil {
		return err
	}

	if len(feed.Entries) > 0 {
		summary := strings.TrimSpace(feed.Entries[0].Summary)
		if summary != "" {
			c.Abstract = summary
			c.KeyConcepts = a.opts.Extractor.Extract(summary)
		}
	}

	terms := concepts.SearchTerms(c.Title)
	if len(terms) == 0 {
		return nil
	}
	if len(terms) > 3 {
		terms = terms[:3]
	}

	related, err := a.query(ctx, url.Values{
		"search_query": {"all:" + strings.Join(terms, "+")},
		"start":        {"0"},
		"max_results":  {fmt.Sprintf("%d", relatedPaperLimit+1)},
		"sortBy":       {"relevance"},
	})
	if err != nil {
		return err
	}

	for _, entry := range related.Entries {
		if len(c.References) >= relatedPaperLimit {
			break
		}
		ref := a.citation(entry)
		if ref.URL == c.URL {
			continue
		}
		ref.Depth = c.Depth + 1
		ref.Parent = c.Title
		c.References = append(c.References, ref)
	}
	return nil
}

func (a *Arxiv) query(ctx context.Context, params url.Values) (*arxivFeed, error) {
	if err := a.pacer.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, arxivAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", a.opts.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, a.opts.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("arXiv API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arXiv API returned HTTP %d", resp.StatusCode)
	}

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("parsing arXiv response: %w", err)
	}
	return &feed, nil
}

func (a *Arxiv) citation(entry arxivEntry) *types.Citation {
	c := &types.Citation{
		URL:     strings.TrimSpace(entry.ID),
		PaperID: extractArxivID(entry.ID),
		Source:  types.SourceArxiv,
		Title:   strings.TrimSpace(entry.Title),
	}
	for _, author := range entry.Authors {
		c.Authors = append(c.Authors, strings.TrimSpace(author.Name))
	}
	if t, err := time.Parse(time.RFC3339, entry.Published); err == nil {
		c.PublicationDate = &t
	}
	return c
}

// arXiv Atom feed XML structures.
type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID        string        `xml:"id"`
	Title     string        `xml:"title"`
	Summary   string        `xml:"summary"`
	Published string        `xml:"published"`
	Authors   []arxivAuthor `xml:"author"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}

// extractArxivID pulls the arXiv ID from the entry's <id> URL
// (e.g. "http://arxiv.org/abs/2301.07041v1" → "2301.07041").
func extractArxivID(idURL string) string {
	const prefix = "/abs/"
	idx := strings.Index(idURL, prefix)
	if idx < 0 {
		return ""
	}
	id := strings.TrimSpace(idURL[idx+len(prefix):])

	// Strip version suffix (e.g. "v1", "v2").
	if vIdx := strings.LastIndex(id, "v"); vIdx > 0 {
		if _, err := strconv.Atoi(id[vIdx+1:]); err == nil {
			id = id[:vIdx]
		}
	}
	return id
}
