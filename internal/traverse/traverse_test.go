// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package traverse

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/deep-research/internal/sources"
	"github.com/pdiddy/deep-research/pkg/types"
)

// stubAdapter serves canned citations. Process attaches the references
// registered for the citation's URL.
type stubAdapter struct {
	name       types.Source
	seeds      []*types.Citation
	refs       map[string][]*types.Citation
	searchErr  error
	processErr error

	searches  int
	processed []string
}

func (s *stubAdapter) Name() types.Source { return s.name }

func (s *stubAdapter) Search(_ context.Context, _ string) ([]*types.Citation, error) {
	s.searches++
	if s.searchErr != nil {
		return nil, s.searchErr
	}
	return s.seeds, nil
}

func (s *stubAdapter) Process(_ context.Context, c *types.Citation) error {
	s.processed = append(s.processed, c.URL)
	if s.processErr != nil {
		return s.processErr
	}
	c.References = append(c.References, s.refs[c.URL]...)
	return nil
}

func cite(source types.Source, url string) *types.Citation {
	return &types.Citation{URL: url, Source: source, Title: url}
}

// seededStub returns an adapter with two seeds, each carrying three
// references.
func seededStub(name types.Source) *stubAdapter {
	prefix := string(name)
	refs := make(map[string][]*types.Citation)
	var seeds []*types.Citation
	for i := 0; i < 2; i++ {
		seed := cite(name, fmt.Sprintf("https://%s/seed%d", prefix, i))
		seeds = append(seeds, seed)
		for j := 0; j < 3; j++ {
			refs[seed.URL] = append(refs[seed.URL], cite(name, fmt.Sprintf("https://%s/seed%d/ref%d", prefix, i, j)))
		}
	}
	return &stubAdapter{name: name, seeds: seeds, refs: refs}
}

func newEngine(t *testing.T, cfg types.TraversalConfig, adapters ...sources.Adapter) *Engine {
	t.Helper()
	e, err := New(adapters, cfg, nil)
	require.NoError(t, err)
	return e
}

func TestRunBoundedFanOut(t *testing.T) {
	// Two seeds with three references each, maxDepth=2 and maxRefs=2:
	// 2 seeds + 2×2 capped children = 6 visits, deepest at depth 1.
	stub := seededStub(types.SourceWikipedia)
	e := newEngine(t, types.TraversalConfig{MaxDepth: 2, MaxRefsPerSource: 2}, stub)

	result, err := e.Run(context.Background(), "topic")
	require.NoError(t, err)

	assert.Len(t, result.Citations, 6)
	assert.Equal(t, 1, result.MaxDepthReached)
	assert.Equal(t, 6, result.SourceBreakdown[types.SourceWikipedia])
	assert.Empty(t, result.SourceErrors)
}

func TestRunDepthOneVisitsOnlySeeds(t *testing.T) {
	stub := seededStub(types.SourceArxiv)
	e := newEngine(t, types.TraversalConfig{MaxDepth: 1, MaxRefsPerSource: 3}, stub)

	result, err := e.Run(context.Background(), "topic")
	require.NoError(t, err)

	assert.Len(t, result.Citations, 2)
	assert.Equal(t, 0, result.MaxDepthReached)
	// Seeds are still enriched even when their references are not expanded.
	assert.Len(t, stub.processed, 2)
}

func TestRunDeterministicOrder(t *testing.T) {
	run := func() []string {
		e := newEngine(t, types.TraversalConfig{MaxDepth: 3, MaxRefsPerSource: 2},
			seededStub(types.SourceWikipedia), seededStub(types.SourceArxiv))
		result, err := e.Run(context.Background(), "topic")
		require.NoError(t, err)

		var urls []string
		for _, c := range result.Citations {
			urls = append(urls, c.URL)
		}
		return urls
	}

	first := run()
	second := run()
	assert.Equal(t, first, second)

	// DFS: a seed's subtree is exhausted before the next seed.
	require.NotEmpty(t, first)
	assert.Equal(t, "https://wikipedia/seed0", first[0])
	assert.Equal(t, "https://wikipedia/seed0/ref0", first[1])
}

func TestRunDeduplicatesByURL(t *testing.T) {
	shared := "https://wikipedia/shared"
	stub := &stubAdapter{
		name:  types.SourceWikipedia,
		seeds: []*types.Citation{cite(types.SourceWikipedia, "https://wikipedia/a")},
		refs: map[string][]*types.Citation{
			"https://wikipedia/a": {
				cite(types.SourceWikipedia, shared),
				cite(types.SourceWikipedia, shared),
				cite(types.SourceWikipedia, "https://wikipedia/a"), // self-reference
			},
		},
	}
	e := newEngine(t, types.TraversalConfig{MaxDepth: 3, MaxRefsPerSource: 5}, stub)

	result, err := e.Run(context.Background(), "topic")
	require.NoError(t, err)

	assert.Len(t, result.Citations, 2)
	assert.Equal(t, 1, result.MaxDepthReached)
}

func TestRunDeduplicatesByPaperID(t *testing.T) {
	a := cite(types.SourceArxiv, "http://arxiv.org/abs/1706.03762v7")
	a.PaperID = "1706.03762"
	b := cite(types.SourceArxiv, "https://arxiv.org/abs/1706.03762")
	b.PaperID = "1706.03762"

	stub := &stubAdapter{name: types.SourceArxiv, seeds: []*types.Citation{a, b}}
	e := newEngine(t, types.TraversalConfig{MaxDepth: 1, MaxRefsPerSource: 1}, stub)

	result, err := e.Run(context.Background(), "topic")
	require.NoError(t, err)

	// Same paper ID under two URLs is one visit.
	assert.Len(t, result.Citations, 1)
}

func TestRunDropsCitationsWithoutURL(t *testing.T) {
	stub := &stubAdapter{
		name: types.SourceOpenAlex,
		seeds: []*types.Citation{
			{Source: types.SourceOpenAlex, Title: "no url"},
			cite(types.SourceOpenAlex, "https://openalex/a"),
		},
	}
	e := newEngine(t, types.TraversalConfig{MaxDepth: 1, MaxRefsPerSource: 1}, stub)

	result, err := e.Run(context.Background(), "topic")
	require.NoError(t, err)

	assert.Len(t, result.Citations, 1)
	assert.Equal(t, "https://openalex/a", result.Citations[0].URL)
}

func TestRunToleratesPartialFailure(t *testing.T) {
	broken := &stubAdapter{name: types.SourceArxiv, searchErr: fmt.Errorf("connection refused")}
	working := seededStub(types.SourceWikipedia)

	e := newEngine(t, types.TraversalConfig{MaxDepth: 1, MaxRefsPerSource: 1}, working, broken)

	result, err := e.Run(context.Background(), "topic")
	require.NoError(t, err)

	assert.Len(t, result.Citations, 2)
	require.Len(t, result.SourceErrors, 1)
	assert.Contains(t, result.SourceErrors[0], "arxiv")
	assert.Contains(t, result.SourceErrors[0], "connection refused")
}

func TestRunProcessFailureDoesNotAbort(t *testing.T) {
	stub := seededStub(types.SourceWikipedia)
	stub.processErr = fmt.Errorf("HTTP 500")

	e := newEngine(t, types.TraversalConfig{MaxDepth: 2, MaxRefsPerSource: 2}, stub)

	result, err := e.Run(context.Background(), "topic")
	require.NoError(t, err)

	// Seeds are visited but their branches never expand.
	assert.Len(t, result.Citations, 2)
	assert.Len(t, result.SourceErrors, 2)
}

func TestRunEmptyTopic(t *testing.T) {
	e := newEngine(t, types.TraversalConfig{MaxDepth: 1, MaxRefsPerSource: 1}, seededStub(types.SourceWikipedia))
	_, err := e.Run(context.Background(), "")
	assert.Error(t, err)
}

func TestNewValidation(t *testing.T) {
	_, err := New([]sources.Adapter{seededStub(types.SourceWikipedia)}, types.TraversalConfig{MaxDepth: 0, MaxRefsPerSource: 1}, nil)
	assert.Error(t, err)

	_, err = New(nil, types.TraversalConfig{MaxDepth: 1, MaxRefsPerSource: 1}, nil)
	assert.Error(t, err)
}

func TestMetrics(t *testing.T) {
	citations := []*types.Citation{
		{URL: "a", Abstract: "an abstract longer than ten characters", CitationCount: 10},
		{URL: "b", CitationCount: 20},
		{URL: "c", Abstract: "short", CitationCount: 0},
	}

	m := Metrics(citations)

	assert.Equal(t, 3, m.TotalCitations)
	assert.Equal(t, 1, m.SourcesWithAbstracts)
	assert.InDelta(t, 1.0/3.0, m.AbstractCoverage, 1e-9)
	assert.Equal(t, 0, m.SourcesWithFullContent)
	assert.InDelta(t, 10.0, m.AvgCitationCount, 1e-9)
	assert.Equal(t, len("an abstract longer than ten characters"), m.AvgAbstractLength)
}

func TestMetricsEmpty(t *testing.T) {
	m := Metrics(nil)
	assert.Equal(t, 0, m.TotalCitations)
	assert.Zero(t, m.AbstractCoverage)
}
