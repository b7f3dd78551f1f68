// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pdiddy/deep-research/internal/concepts"
	"github.com/pdiddy/deep-research/internal/httputil"
	"github.com/pdiddy/deep-research/pkg/types"
)

// wikipediaAPIBase is the MediaWiki action API endpoint. Declared as a var
// so tests can substitute an httptest server.
var wikipediaAPIBase = "https://en.wikipedia.org/w/api.php"

const wikipediaArticleBase = "https://en.wikipedia.org/wiki/"

// Wikipedia queries the English Wikipedia via the MediaWiki action API.
type Wikipedia struct {
	opts Options
}

// NewWikipedia returns a Wikipedia adapter.
func NewWikipedia(opts Options) *Wikipedia {
	return &Wikipedia{opts: opts.withDefaults(15 * time.Second)}
}

// Name returns the adapter identifier.
func (a *Wikipedia) Name() types.Source { return types.SourceWikipedia }

// Search runs a full-text article search and returns seed citations.
func (a *Wikipedia) Search(ctx context.Context, query string) ([]*types.Citation, error) {
	params := url.Values{
		"action":   {"query"},
		"format":   {"json"},
		"list":     {"search"},
		"srsearch": {query},
		"srlimit":  {fmt.Sprintf("%d", a.opts.Seeds)},
	}

	var sr wikiSearchResponse
	if err := a.get(ctx, params, &sr); err != nil {
		return nil, err
	}

	var citations []*types.Citation
	for _, item := range sr.Query.Search {
		c := &types.Citation{
			URL:    articleURL(item.Title),
			Source: types.SourceWikipedia,
			Title:  item.Title,
		}
		if t, err := time.Parse(time.RFC3339, item.Timestamp); err == nil {
			c.PublicationDate = &t
		}
		citations = append(citations, c)
	}
	return citations, nil
}

// Process fetches the article's plaintext extract and linked pages. The full
// extract becomes the citation's content, the lead paragraph its abstract,
// and relevant linked articles its references.
func (a *Wikipedia) Process(ctx context.Context, c *types.Citation) error {
	title, err := articleTitle(c.URL)
	if err != nil {
		return err
	}

	params := url.Values{
		"action":      {"query"},
		"format":      {"json"},
		"titles":      {title},
		"prop":        {"extracts|links"},
		"explaintext": {"1"},
		"plnamespace": {"0"},
		"pllimit":     {fmt.Sprintf("%d", a.opts.MaxRefs*2)},
	}

	var pr wikiPageResponse
	if err := a.get(ctx, params, &pr); err != nil {
		return err
	}

	for _, page := range pr.Query.Pages {
		if page.Extract != "" {
			c.FullContent = page.Extract
			c.Abstract = leadParagraph(page.Extract)
			c.KeyConcepts = a.opts.Extractor.Extract(page.Extract)
		}

		for _, link := range page.Links {
			if len(c.References) >= a.opts.MaxRefs {
				break
			}
			if !concepts.RelevantReference(link.Title) {
				continue
			}
			c.References = append(c.References, &types.Citation{
				URL:    articleURL(link.Title),
				Source: types.SourceWikipedia,
				Title:  link.Title,
				Depth:  c.Depth + 1,
				Parent: c.Title,
			})
		}
		break
	}
	return nil
}

func (a *Wikipedia) get(ctx context.Context, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, wikipediaAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", a.opts.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, a.opts.Client, req, 0)
	if err != nil {
		return fmt.Errorf("Wikipedia API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("Wikipedia API returned HTTP %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parsing Wikipedia response: %w", err)
	}
	return nil
}

// articleURL builds the canonical article URL for a page title.
func articleURL(title string) string {
	return wikipediaArticleBase + url.PathEscape(strings.ReplaceAll(title, " ", "_"))
}

// articleTitle recovers the page title from a canonical article URL.
func articleTitle(articleURL string) (string, error) {
	idx := strings.Index(articleURL, "/wiki/")
	if idx < 0 {
		return "", fmt.Errorf("not a Wikipedia article URL: %s", articleURL)
	}
	title, err := url.PathUnescape(articleURL[idx+len("/wiki/"):])
	if err != nil {
		return "", fmt.Errorf("unescaping article title: %w", err)
	}
	return strings.ReplaceAll(title, "_", " "), nil
}

// leadParagraph returns the text before the first blank line, capped at 500
// characters.
func leadParagraph(extract string) string {
	lead := extract
	if idx := strings.Index(extract, "\n\n"); idx > 0 {
		lead = extract[:idx]
	}
	lead = strings.TrimSpace(lead)
	if len(lead) > 500 {
		lead = lead[:500]
	}
	return lead
}

// MediaWiki action API JSON structures.
type wikiSearchResponse struct {
	Query struct {
		Search []wikiSearchItem `json:"search"`
	} `json:"query"`
}

type wikiSearchItem struct {
	Title     string `json:"title"`
	Timestamp string `json:"timestamp"`
}

type wikiPageResponse struct {
	Query struct {
		Pages map[string]wikiPage `json:"pages"`
	} `json:"query"`
}

type wikiPage struct {
	Title   string     `json:"title"`
	Extract string     `json:"extract"`
	Links   []wikiLink `json:"links"`
}

type wikiLink struct {
	Title string `json:"title"`
}
