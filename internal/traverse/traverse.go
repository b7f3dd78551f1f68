// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package traverse implements bounded depth-first traversal over the
// combined citation graph of all source adapters.
//
// See docs/ARCHITECTURE.md § Traversal.
package traverse

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kataras/golog"

	"github.com/pdiddy/deep-research/internal/sources"
	"github.com/pdiddy/deep-research/pkg/types"
)

// Engine runs citation traversals. An Engine is safe for repeated Run calls;
// each call owns fresh visit state.
type Engine struct {
	adapters []sources.Adapter
	byName   map[types.Source]sources.Adapter
	cfg      types.TraversalConfig
	log      *golog.Logger
}

// New validates the configuration and builds a traversal engine. Adapters
// are consulted in the order given, which fixes the visitation order for
// deterministic adapter responses.
func New(adapters []sources.Adapter, cfg types.TraversalConfig, log *golog.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(adapters) == 0 {
		return nil, fmt.Errorf("no source adapters configured")
	}
	if log == nil {
		log = golog.New()
	}

	byName := make(map[types.Source]sources.Adapter, len(adapters))
	for _, a := range adapters {
		byName[a.Name()] = a
	}
	return &Engine{adapters: adapters, byName: byName, cfg: cfg, log: log}, nil
}

// runState is the per-run visit bookkeeping.
type runState struct {
	visitedURLs     map[string]bool
	visitedPaperIDs map[string]bool
	results         []*types.Citation
	sourceErrors    []string
}

// seen reports whether the citation's URL or paper ID was already visited.
func (st *runState) seen(c *types.Citation) bool {
	if st.visitedURLs[c.URL] {
		return true
	}
	return c.PaperID != "" && st.visitedPaperIDs[c.PaperID]
}

// Run seeds the traversal from every adapter concurrently, then explores each
// seed depth-first. Adapter failures degrade to unexpanded branches and are
// collected in the result's SourceErrors.
func (e *Engine) Run(ctx context.Context, topic string) (types.TraversalResult, error) {
	if topic == "" {
		return types.TraversalResult{}, fmt.Errorf("topic is empty")
	}

	e.log.Infof("traversal start: topic=%q maxDepth=%d maxRefs=%d sources=%d",
		topic, e.cfg.MaxDepth, e.cfg.MaxRefsPerSource, len(e.adapters))

	st := &runState{
		visitedURLs:     make(map[string]bool),
		visitedPaperIDs: make(map[string]bool),
	}

	// Seed fan-out: all adapters queried concurrently, results kept in
	// adapter order so the visit order stays deterministic.
	seeds := make([][]*types.Citation, len(e.adapters))
	seedErrs := make([]error, len(e.adapters))
	var wg sync.WaitGroup
	for i, a := range e.adapters {
		wg.Add(1)
		go func(i int, a sources.Adapter) {
			defer wg.Done()
			seeds[i], seedErrs[i] = a.Search(ctx, topic)
		}(i, a)
	}
	wg.Wait()

	for i, a := range e.adapters {
		if seedErrs[i] != nil {
			e.log.Warnf("seed search failed: source=%s err=%v", a.Name(), seedErrs[i])
			st.sourceErrors = append(st.sourceErrors, fmt.Sprintf("%s: %v", a.Name(), seedErrs[i]))
			continue
		}
		for _, seed := range seeds[i] {
			e.visit(ctx, st, seed, 0)
		}
	}

	result := types.TraversalResult{
		Topic:           topic,
		Citations:       st.results,
		SourceBreakdown: breakdown(st.results),
		ContentMetrics:  Metrics(st.results),
		MaxDepthReached: maxDepth(st.results),
		SourceErrors:    st.sourceErrors,
		Timestamp:       time.Now(),
	}

	e.log.Infof("traversal done: topic=%q citations=%d maxDepthReached=%d errors=%d",
		topic, len(result.Citations), result.MaxDepthReached, len(result.SourceErrors))
	return result, nil
}

// visit marks the citation visited, enriches it through its adapter, and
// recurses into up to MaxRefsPerSource newly-visited references.
func (e *Engine) visit(ctx context.Context, st *runState, c *types.Citation, depth int) {
	if ctx.Err() != nil {
		return
	}
	if c == nil || c.URL == "" || st.seen(c) {
		return
	}

	st.visitedURLs[c.URL] = true
	if c.PaperID != "" {
		st.visitedPaperIDs[c.PaperID] = true
	}
	c.Depth = depth
	st.results = append(st.results, c)

	e.log.Debugf("visit depth=%d source=%s title=%q", depth, c.Source, c.Title)

	if adapter, ok := e.byName[c.Source]; ok {
		if err := adapter.Process(ctx, c); err != nil {
			e.log.Warnf("process failed: source=%s url=%s err=%v", c.Source, c.URL, err)
			st.sourceErrors = append(st.sourceErrors, fmt.Sprintf("%s: %v", c.Source, err))
		}
	}

	if depth+1 >= e.cfg.MaxDepth {
		return
	}

	expanded := 0
	for _, ref := range c.References {
		if expanded >= e.cfg.MaxRefsPerSource {
			break
		}
		if ref == nil || ref.URL == "" || st.seen(ref) {
			continue
		}
		e.visit(ctx, st, ref, depth+1)
		expanded++
	}
}

// breakdown counts visited citations per source.
func breakdown(citations []*types.Citation) map[types.Source]int {
	counts := make(map[types.Source]int)
	for _, c := range citations {
		counts[c.Source]++
	}
	return counts
}

// maxDepth returns the deepest depth in the result list, or 0 when empty.
func maxDepth(citations []*types.Citation) int {
	max := 0
	for _, c := range citations {
		if c.Depth > max {
			max = c.Depth
		}
	}
	return max
}

// Metrics computes content-quality coverage over a set of citations.
// Averages for abstract and content length are taken over the citations that
// carry them; the citation-count average is taken over all citations.
func Metrics(citations []*types.Citation) types.ContentMetrics {
	m := types.ContentMetrics{TotalCitations: len(citations)}
	if len(citations) == 0 {
		return m
	}

	var abstractLen, contentLen, citationSum int
	for _, c := range citations {
		if c.HasAbstract() {
			m.SourcesWithAbstracts++
			abstractLen += len(c.Abstract)
		}
		if c.HasFullContent() {
			m.SourcesWithFullContent++
			contentLen += len(c.FullContent)
		}
		citationSum += c.CitationCount
	}

	m.AbstractCoverage = float64(m.SourcesWithAbstracts) / float64(m.TotalCitations)
	m.FullContentCoverage = float64(m.SourcesWithFullContent) / float64(m.TotalCitations)
	if m.SourcesWithAbstracts > 0 {
		m.AvgAbstractLength = abstractLen / m.SourcesWithAbstracts
	}
	if m.SourcesWithFullContent > 0 {
		m.AvgContentLength = contentLen / m.SourcesWithFullContent
	}
	m.AvgCitationCount = float64(citationSum) / float64(m.TotalCitations)
	return m
}
