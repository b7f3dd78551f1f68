// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pdiddy/deep-research/internal/httputil"
	"github.com/pdiddy/deep-research/pkg/types"
)

// pubmedAPIBase is the NCBI E-utilities root. Declared as a var so tests can
// substitute an httptest server.
var pubmedAPIBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

const pubmedArticleBase = "https://pubmed.ncbi.nlm.nih.gov/"

// pubmedPaceInterval keeps requests under the NCBI limit of 3 req/s without
// an API key.
const pubmedPaceInterval = 340 * time.Millisecond

// pubmedDateFormats are the publication date layouts esummary is known to
// return, most specific first.
var pubmedDateFormats = []string{"2006 Jan 2", "2006 Jan", "2006"}

// PubMed queries the NCBI E-utilities (esearch, esummary, efetch, elink).
type PubMed struct {
	opts   Options
	apiKey string
	pacer  *httputil.Pacer
}

// NewPubMed returns a PubMed adapter. apiKey is optional.
func NewPubMed(opts Options, apiKey string) *PubMed {
	return &PubMed{
		opts:   opts.withDefaults(20 * time.Second),
		apiKey: apiKey,
		pacer:  httputil.NewPacer(pubmedPaceInterval),
	}
}

// Name returns the adapter identifier.
func (a *PubMed) Name() types.Source { return types.SourcePubMed }

// Search runs esearch then esummary and returns seed citations.
func (a *PubMed) Search(ctx context.Context, query string) ([]*types.Citation, error) {
	params := url.Values{
		"db":      {"pubmed"},
		"term":    {query},
		"retmax":  {fmt.Sprintf("%d", a.opts.Seeds)},
		"retmode": {"json"},
	}

	var er pubmedSearchResponse
	if err := a.getJSON(ctx, "/esearch.fcgi", params, &er); err != nil {
		return nil, err
	}
	if len(er.ESearchResult.IDList) == 0 {
		return nil, nil
	}

	return a.summaries(ctx, er.ESearchResult.IDList)
}

// Process fetches the article abstract via efetch and linked articles via
// elink (pubmed_pubmed_refs).
func (a *PubMed) Process(ctx context.Context, c *types.Citation) error {
	if c.PaperID == "" {
		return fmt.Errorf("citation has no PMID: %s", c.URL)
	}

	abstract, err := a.fetchAbstract(ctx, c.PaperID)
	if err != nil {
		return err
	}
	if abstract != "" {
		c.Abstract = abstract
		c.KeyConcepts = a.opts.Extractor.Extract(abstract)
	}

	refIDs, err := a.linkedArticles(ctx, c.PaperID)
	if err != nil {
		return err
	}
	if len(refIDs) > a.opts.MaxRefs {
		refIDs = refIDs[:a.opts.MaxRefs]
	}
	if len(refIDs) == 0 {
		return nil
	}

	refs, err := a.summaries(ctx, refIDs)
	if err != nil {
		return err
	}
	for _, ref := range refs {
		if ref.URL == c.URL {
			continue
		}
		ref.Depth = c.Depth + 1
		ref.Parent = c.Title
		c.References = append(c.References, ref)
	}
	return nil
}

// summaries resolves PMIDs to citations via esummary, preserving the input
// order.
func (a *PubMed) summaries(ctx context.Context, pmids []string) ([]*types.Citation, error) {
	params := url.Values{
		"db":      {"pubmed"},
		"id":      {strings.Join(pmids, ",")},
		"retmode": {"json"},
	}

	var sr pubmedSummaryResponse
	if err := a.getJSON(ctx, "/esummary.fcgi", params, &sr); err != nil {
		return nil, err
	}

	var citations []*types.Citation
	for _, pmid := range pmids {
		raw, ok := sr.Result[pmid]
		if !ok {
			continue
		}
		var doc pubmedDocSummary
		if err := json.Unmarshal(raw, &doc); err != nil {
			continue
		}

		c := &types.Citation{
			URL:     pubmedArticleBase + pmid + "/",
			PaperID: pmid,
			Source:  types.SourcePubMed,
			Title:   doc.Title,
			Venue:   doc.FullJournalName,
		}
		for _, author := range doc.Authors {
			c.Authors = append(c.Authors, author.Name)
		}
		for _, id := range doc.ArticleIDs {
			if id.IDType == "doi" {
				c.DOI = id.Value
			}
		}
		for _, layout := range pubmedDateFormats {
			if t, err := time.Parse(layout, doc.PubDate); err == nil {
				c.PublicationDate = &t
				break
			}
		}
		citations = append(citations, c)
	}
	return citations, nil
}

// fetchAbstract retrieves the plain-text abstract via efetch.
func (a *PubMed) fetchAbstract(ctx context.Context, pmid string) (string, error) {
	params := url.Values{
		"db":      {"pubmed"},
		"id":      {pmid},
		"rettype": {"abstract"},
		"retmode": {"text"},
	}

	body, err := a.get(ctx, "/efetch.fcgi", params)
	if err != nil {
		return "", err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("reading efetch response: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// linkedArticles returns PMIDs of the article's reference list via elink.
func (a *PubMed) linkedArticles(ctx context.Context, pmid string) ([]string, error) {
	params := url.Values{
		"dbfrom":   {"pubmed"},
		"db":       {"pubmed"},
		"id":       {pmid},
		"linkname": {"pubmed_pubmed_refs"},
		"retmode":  {"json"},
	}

	var lr pubmedLinkResponse
	if err := a.getJSON(ctx, "/elink.fcgi", params, &lr); err != nil {
		return nil, err
	}

	for _, linkset := range lr.LinkSets {
		for _, db := range linkset.LinkSetDBs {
			if db.LinkName == "pubmed_pubmed_refs" {
				return db.Links, nil
			}
		}
	}
	return nil, nil
}

func (a *PubMed) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	body, err := a.get(ctx, path, params)
	if err != nil {
		return err
	}
	defer body.Close()

	if err := json.NewDecoder(body).Decode(out); err != nil {
		return fmt.Errorf("parsing PubMed response: %w", err)
	}
	return nil
}

func (a *PubMed) get(ctx context.Context, path string, params url.Values) (io.ReadCloser, error) {
	if err := a.pacer.Wait(ctx); err != nil {
		return nil, err
	}

	if a.apiKey != "" {
		params.Set("api_key", a.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pubmedAPIBase+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", a.opts.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, a.opts.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("PubMed API request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("PubMed API returned HTTP %d", resp.StatusCode)
	}
	return resp.Body, nil
}

// NCBI E-utilities JSON structures.
type pubmedSearchResponse struct {
	ESearchResult struct {
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

type pubmedSummaryResponse struct {
	Result map[string]json.RawMessage `json:"result"`
}

type pubmedDocSummary struct {
	Title           string            `json:"title"`
	PubDate         string            `json:"pubdate"`
	FullJournalName string            `json:"fulljournalname"`
	Authors         []pubmedAuthor    `json:"authors"`
	ArticleIDs      []pubmedArticleID `json:"articleids"`
}

type pubmedAuthor struct {
	Name string `json:"name"`
}

type pubmedArticleID struct {
	IDType string `json:"idtype"`
	Value  string `json:"value"`
}

type pubmedLinkResponse struct {
	LinkSets []struct {
		LinkSetDBs []struct {
			LinkName string   `json:"linkname"`
			Links    []string `json:"links"`
		} `json:"linksetdbs"`
	} `json:"linksets"`
}
