// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// testPubMed builds an adapter without the production pacer so tests run fast.
func testPubMed(client *http.Client, apiKey string) *PubMed {
	return &PubMed{opts: testOpts(client), apiKey: apiKey}
}

const pubmedSummaryJSON = `{"result":{
	"uids":["31452104","29321215"],
	"31452104":{
		"title":"Deep learning in medical imaging",
		"pubdate":"2019 Aug 20",
		"fulljournalname":"Journal of Medical Imaging",
		"authors":[{"name":"Smith J"},{"name":"Lee K"}],
		"articleids":[{"idtype":"pubmed","value":"31452104"},{"idtype":"doi","value":"10.1000/jmi.2019"}]
	},
	"29321215":{
		"title":"Convolutional networks for radiology",
		"pubdate":"2018 Jan",
		"fulljournalname":"Radiology",
		"authors":[{"name":"Chen W"}],
		"articleids":[{"idtype":"pubmed","value":"29321215"}]
	}
}}`

func TestPubMedSearch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.Contains(r.URL.Path, "esearch"):
			if got := r.URL.Query().Get("retmax"); got != "3" {
				t.Errorf("retmax = %q, want 3", got)
			}
			fmt.Fprint(w, `{"esearchresult":{"idlist":["31452104","29321215"]}}`)
		case strings.Contains(r.URL.Path, "esummary"):
			fmt.Fprint(w, pubmedSummaryJSON)
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
		}
	}))
	defer ts.Close()

	old := pubmedAPIBase
	pubmedAPIBase = ts.URL
	defer func() { pubmedAPIBase = old }()

	a := testPubMed(ts.Client(), "")
	citations, err := a.Search(context.Background(), "deep learning imaging")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if len(citations) != 2 {
		t.Fatalf("len(citations) = %d, want 2", len(citations))
	}
	c := citations[0]
	if c.URL != "https://pubmed.ncbi.nlm.nih.gov/31452104/" {
		t.Errorf("URL = %q", c.URL)
	}
	if c.PaperID != "31452104" {
		t.Errorf("PaperID = %q", c.PaperID)
	}
	if c.DOI != "10.1000/jmi.2019" {
		t.Errorf("DOI = %q", c.DOI)
	}
	if c.Venue != "Journal of Medical Imaging" {
		t.Errorf("Venue = %q", c.Venue)
	}
	if c.PublicationDate == nil || c.PublicationDate.Year() != 2019 || c.PublicationDate.Day() != 20 {
		t.Errorf("PublicationDate = %v", c.PublicationDate)
	}

	// Month-only pubdate still parses.
	if citations[1].PublicationDate == nil || citations[1].PublicationDate.Year() != 2018 {
		t.Errorf("citations[1].PublicationDate = %v", citations[1].PublicationDate)
	}
}

func TestPubMedSearchNoResults(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"esearchresult":{"idlist":[]}}`)
	}))
	defer ts.Close()

	old := pubmedAPIBase
	pubmedAPIBase = ts.URL
	defer func() { pubmedAPIBase = old }()

	a := testPubMed(ts.Client(), "")
	citations, err := a.Search(context.Background(), "nonexistent topic")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(citations) != 0 {
		t.Errorf("len(citations) = %d, want 0", len(citations))
	}
}

func TestPubMedProcess(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "efetch"):
			fmt.Fprint(w, "1. J Med Imaging. 2019.\n\nDeep learning methods improve diagnostic accuracy across imaging modalities.\n")
		case strings.Contains(r.URL.Path, "elink"):
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"linksets":[{"linksetdbs":[
				{"linkname":"pubmed_pubmed","links":["11111111"]},
				{"linkname":"pubmed_pubmed_refs","links":["31452104","29321215","22222222","33333333"]}
			]}]}`)
		case strings.Contains(r.URL.Path, "esummary"):
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, pubmedSummaryJSON)
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
		}
	}))
	defer ts.Close()

	old := pubmedAPIBase
	pubmedAPIBase = ts.URL
	defer func() { pubmedAPIBase = old }()

	a := testPubMed(ts.Client(), "")
	c := citationFixture("https://pubmed.ncbi.nlm.nih.gov/99999999/", "99999999", "Root article")
	if err := a.Process(context.Background(), c); err != nil {
		t.Fatalf("Process: %v", err)
	}

	if !strings.Contains(c.Abstract, "diagnostic accuracy") {
		t.Errorf("Abstract = %q", c.Abstract)
	}
	if len(c.KeyConcepts) == 0 {
		t.Error("KeyConcepts should be populated")
	}

	// Only the pubmed_pubmed_refs linkset is used, capped at MaxRefs=3;
	// the esummary fixture resolves two of those PMIDs.
	if len(c.References) != 2 {
		t.Fatalf("len(References) = %d, want 2", len(c.References))
	}
	for _, ref := range c.References {
		if ref.Depth != 1 || ref.Parent != "Root article" {
			t.Errorf("reference depth/parent = %d/%q", ref.Depth, ref.Parent)
		}
	}
}

func TestPubMedAPIKeyParam(t *testing.T) {
	var captured []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = append(captured, r.URL.Query().Get("api_key"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"esearchresult":{"idlist":[]}}`)
	}))
	defer ts.Close()

	old := pubmedAPIBase
	pubmedAPIBase = ts.URL
	defer func() { pubmedAPIBase = old }()

	a := testPubMed(ts.Client(), "ncbi-key")
	if _, err := a.Search(context.Background(), "test"); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(captured) != 1 || captured[0] != "ncbi-key" {
		t.Errorf("api_key params = %v", captured)
	}
}
