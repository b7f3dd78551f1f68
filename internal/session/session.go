// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package session implements the research session controller: iterative
// research and thinking rounds over a topic, with direction generation
// between rounds and persistence through the topic store.
//
// See docs/ARCHITECTURE.md § Session Controller.
package session

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kataras/golog"

	"github.com/pdiddy/deep-research/internal/graph"
	"github.com/pdiddy/deep-research/internal/thinking"
	"github.com/pdiddy/deep-research/internal/traverse"
	"github.com/pdiddy/deep-research/pkg/types"
)

// Traverser runs one citation traversal for a topic.
type Traverser interface {
	Run(ctx context.Context, topic string) (types.TraversalResult, error)
}

// TopicStore is the slice of the topic store the controller needs. A nil
// store disables persistence; sessions then start cold and are not saved.
type TopicStore interface {
	Get(ctx context.Context, topic string) (*types.StoredTopic, error)
	Put(ctx context.Context, topic string, session types.StoredSession) error
	FindRelated(ctx context.Context, topic string, limit int) ([]types.RelatedTopic, error)
}

// relatedTopicLimit bounds how many related topics seed cross-topic
// comparison directions.
const relatedTopicLimit = 5

// maxDirections caps the candidate list returned by one direction pass.
const maxDirections = 5

// usableAbstractLen is the minimum abstract length that counts toward the
// needs-research coverage check.
const usableAbstractLen = 50

// conceptStopwords are frequent words excluded from direction generation.
var conceptStopwords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "from": true,
	"this": true, "that": true, "have": true, "been": true, "they": true,
	"their": true,
}

// Controller drives research sessions. It owns no per-session state; every
// ConductResearchSession call builds fresh accumulators.
type Controller struct {
	traverser Traverser
	topics    TopicStore
	cfg       types.SessionConfig
	log       *golog.Logger

	newID func() string
	now   func() time.Time
}

// New validates the configuration and builds a session controller. The topic
// store may be nil.
func New(traverser Traverser, topics TopicStore, cfg types.SessionConfig, log *golog.Logger) (*Controller, error) {
	if traverser == nil {
		return nil, fmt.Errorf("traverser is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	if log == nil {
		log = golog.New()
	}

	return &Controller{
		traverser: traverser,
		topics:    topics,
		cfg:       cfg,
		log:       log,
		newID:     uuid.NewString,
		now:       time.Now,
	}, nil
}

func applyDefaults(cfg *types.SessionConfig) {
	if cfg.NoDirectionLimit < 1 {
		cfg.NoDirectionLimit = 3
	}
	if cfg.MinDirectionLen <= 0 {
		cfg.MinDirectionLen = 10
	}
	if cfg.MaxDirectionLen <= 0 {
		cfg.MaxDirectionLen = 100
	}
	if cfg.MinCitations <= 0 {
		cfg.MinCitations = 5
	}
	if cfg.MinAbstractCoverage <= 0 {
		cfg.MinAbstractCoverage = 0.7
	}
	if cfg.StaleResearchRounds < 1 {
		cfg.StaleResearchRounds = 3
	}
	if cfg.MalformedPatterns == nil {
		cfg.MalformedPatterns = []string{"page applications"}
	}
}

// ConductResearchSession runs research and thinking rounds for the topic
// until a stop condition fires. The session always terminates within
// MaxIterations rounds. The returned result is complete even when
// persistence fails; store errors are logged and swallowed.
func (c *Controller) ConductResearchSession(ctx context.Context, topic string) (*types.SessionResult, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, fmt.Errorf("topic is empty")
	}

	result := &types.SessionResult{
		SessionID:     c.newID(),
		Topic:         topic,
		OriginalTopic: topic,
		Status:        types.SessionRunning,
		StartTime:     c.now(),
	}
	c.log.Infof("session start: id=%s topic=%q maxIterations=%d", result.SessionID, topic, c.cfg.MaxIterations)

	c.seedFromStore(ctx, result)
	related := c.relatedTopics(ctx, topic)
	result.RelatedTopics = related

	builder := graph.NewBuilder()
	for _, citation := range result.Citations {
		builder.Ingest(citation)
	}
	thinker := thinking.NewEngine()

	currentTopic := topic
	noDirection := 0

	for iteration := 1; iteration <= c.cfg.MaxIterations; iteration++ {
		if ctx.Err() != nil {
			break
		}
		c.log.Infof("iteration %d/%d: topic=%q", iteration, c.cfg.MaxIterations, currentTopic)

		researched := c.needsResearch(result, iteration)
		var research types.TraversalResult
		if researched {
			run, err := c.traverser.Run(ctx, currentTopic)
			if err != nil {
				c.log.Warnf("traversal failed: topic=%q err=%v", currentTopic, err)
				run = types.TraversalResult{
					Topic:        currentTopic,
					SourceErrors: []string{err.Error()},
					Timestamp:    c.now(),
				}
			}
			c.merge(result, builder, run.Citations)
			research = run
		} else {
			c.log.Infof("reusing accumulated knowledge: citations=%d", len(result.Citations))
			research = c.snapshot(currentTopic, result.Citations)
		}

		thought := c.think(thinker, currentTopic, research, iteration, len(related))
		result.Iterations = append(result.Iterations, types.Iteration{
			Number:     iteration,
			Topic:      currentTopic,
			Researched: researched,
			Research:   research,
			Thinking:   thought,
			Timestamp:  c.now(),
		})
		result.TotalIterations = iteration

		if !c.cfg.AutoIterate || iteration == c.cfg.MaxIterations {
			break
		}

		next := c.nextDirection(research, currentTopic, result, related)
		if next != "" {
			result.ResearchDirections = append(result.ResearchDirections, next)
			currentTopic = next
			noDirection = 0
			c.log.Infof("new research direction: %q", next)
			continue
		}

		noDirection++
		c.log.Infof("no new research direction (consecutive: %d)", noDirection)
		if noDirection >= c.cfg.NoDirectionLimit {
			break
		}
		if noDirection == 1 {
			if len(related) > 0 {
				currentTopic = related[0].Topic
			} else {
				currentTopic = fmt.Sprintf("Advanced analysis of %s", result.OriginalTopic)
			}
		}
		// Otherwise keep the current topic for a deeper thinking round.
	}

	result.Status = types.SessionCompleted
	result.EndTime = c.now()
	result.Graph = builder.Summary()
	result.FinalReport = buildReport(result)

	c.persist(ctx, result)
	c.log.Infof("session done: id=%s iterations=%d citations=%d concepts=%d",
		result.SessionID, result.TotalIterations, len(result.Citations), len(result.Concepts))
	return result, nil
}

// seedFromStore loads accumulated citations and concepts from earlier
// sessions on the same topic.
func (c *Controller) seedFromStore(ctx context.Context, result *types.SessionResult) {
	if c.topics == nil {
		return
	}
	stored, err := c.topics.Get(ctx, result.Topic)
	if err != nil {
		c.log.Warnf("loading stored topic failed: %v", err)
		return
	}
	if stored == nil {
		return
	}

	seen := make(map[string]bool)
	for _, sess := range stored.Sessions {
		for _, citation := range sess.Citations {
			if citation == nil || citation.URL == "" || seen[citation.URL] {
				continue
			}
			seen[citation.URL] = true
			result.Citations = append(result.Citations, citation)
		}
	}
	result.Concepts = append(result.Concepts, stored.Concepts...)
	result.ReusedExisting = true
	c.log.Infof("resuming topic %q: citations=%d concepts=%d sessions=%d",
		result.Topic, len(result.Citations), len(result.Concepts), len(stored.Sessions))
}

func (c *Controller) relatedTopics(ctx context.Context, topic string) []types.RelatedTopic {
	if c.topics == nil {
		return nil
	}
	related, err := c.topics.FindRelated(ctx, topic, relatedTopicLimit)
	if err != nil {
		c.log.Warnf("finding related topics failed: %v", err)
		return nil
	}
	if len(related) > 0 {
		c.log.Infof("found %d related topics", len(related))
	}
	return related
}

// needsResearch decides whether this iteration runs a traversal or reuses
// the accumulated knowledge for thinking.
func (c *Controller) needsResearch(result *types.SessionResult, iteration int) bool {
	if iteration == 1 {
		return true
	}
	if len(result.Citations) < c.cfg.MinCitations {
		return true
	}

	usable := 0
	for _, citation := range result.Citations {
		if len(strings.TrimSpace(citation.Abstract)) > usableAbstractLen {
			usable++
		}
	}
	if float64(usable) < float64(len(result.Citations))*c.cfg.MinAbstractCoverage {
		return true
	}

	recent := result.Iterations
	if len(recent) > c.cfg.StaleResearchRounds {
		recent = recent[len(recent)-c.cfg.StaleResearchRounds:]
	}
	for _, it := range recent {
		if it.Researched {
			return false
		}
	}
	return true
}

// merge appends citations not already accumulated (by URL), ingests them
// into the knowledge graph, and folds their concepts into the session
// vocabulary.
func (c *Controller) merge(result *types.SessionResult, builder *graph.Builder, citations []*types.Citation) {
	seen := make(map[string]bool, len(result.Citations))
	for _, citation := range result.Citations {
		seen[citation.URL] = true
	}
	known := make(map[string]bool, len(result.Concepts))
	for _, concept := range result.Concepts {
		known[concept] = true
	}

	for _, citation := range citations {
		if citation == nil || citation.URL == "" || seen[citation.URL] {
			continue
		}
		seen[citation.URL] = true
		result.Citations = append(result.Citations, citation)
		builder.Ingest(citation)

		for _, concept := range citation.KeyConcepts {
			if concept == "" || known[concept] {
				continue
			}
			known[concept] = true
			result.Concepts = append(result.Concepts, concept)
		}
	}
}

// snapshot builds a traversal-shaped view over the accumulated citations for
// thinking-only rounds.
func (c *Controller) snapshot(topic string, citations []*types.Citation) types.TraversalResult {
	return types.TraversalResult{
		Topic:           topic,
		Citations:       citations,
		SourceBreakdown: sourceBreakdown(citations),
		ContentMetrics:  traverse.Metrics(citations),
		Timestamp:       c.now(),
	}
}

// think runs one staged reflection pass of ThinkingDepth thoughts. The
// second-to-last thought is the hypothesis and the last is its verification.
func (c *Controller) think(thinker *thinking.Engine, topic string, research types.TraversalResult, iteration, relatedCount int) types.ThinkingResult {
	depth := c.cfg.ThinkingDepth
	out := types.ThinkingResult{}

	text := fmt.Sprintf("Analyzing research iteration %d for topic %q", iteration, topic)
	for i := 1; i <= depth; i++ {
		resp, err := thinker.ProcessThought(types.ThoughtRecord{
			Thought:           text,
			NextThoughtNeeded: i < depth,
			ThoughtNumber:     len(thinker.History()) + 1,
			TotalThoughts:     len(thinker.History()) + depth - i + 1,
			IsHypothesis:      depth > 1 && i == depth-1,
			IsVerification:    i == depth,
		})
		if err != nil {
			c.log.Warnf("thinking step %d failed: %v", i, err)
			break
		}
		out.Steps = append(out.Steps, resp)
		text = stagedThought(i, topic, research, relatedCount)
	}
	out.TotalSteps = len(out.Steps)
	return out
}

// stagedThought produces the analysis prompt for the next thought after the
// given step.
func stagedThought(step int, topic string, research types.TraversalResult, relatedCount int) string {
	m := research.ContentMetrics
	switch step {
	case 1:
		return fmt.Sprintf("Critical analysis: examining %d sources for %q; %.0f%% carry abstracts and %.0f%% full content",
			m.TotalCitations, topic, m.AbstractCoverage*100, m.FullContentCoverage*100)
	case 2:
		return fmt.Sprintf("Issue identification: weighing findings across %d source types for methodological flaws and contradictions",
			len(research.SourceBreakdown))
	case 3:
		return fmt.Sprintf("Gap analysis: checking %d related topics for missing cross-field connections", relatedCount)
	case 4:
		return "Controversy mapping: contrasting competing explanations against the accumulated findings"
	case 5:
		return "Hypothesis generation: proposing research directions that address the identified gaps"
	default:
		return "Verification: confirming findings and selecting the next research direction"
	}
}

// nextDirection generates direction candidates, filters out explored and
// malformed ones, and returns the first survivor, or "" when none remain.
func (c *Controller) nextDirection(research types.TraversalResult, topic string, result *types.SessionResult, related []types.RelatedTopic) string {
	explored := make(map[string]bool, len(result.ResearchDirections))
	for _, d := range result.ResearchDirections {
		explored[d] = true
	}
	// The session's own topics never come back as directions.
	explored[result.OriginalTopic] = true
	explored[topic] = true

	for _, candidate := range c.directions(research, topic, result.Citations, related) {
		if !explored[candidate] {
			return candidate
		}
	}
	return ""
}

// directions proposes up to five research directions: three templates per
// frequent concept, cross-topic comparisons, and metric-triggered gap
// directions.
func (c *Controller) directions(research types.TraversalResult, topic string, citations []*types.Citation, related []types.RelatedTopic) []string {
	var candidates []string
	for _, concept := range topConcepts(citations, 5) {
		candidates = append(candidates,
			fmt.Sprintf("Recent developments in %s", concept),
			fmt.Sprintf("%s limitations and challenges", concept),
			fmt.Sprintf("Future applications of %s", concept),
		)
	}

	for i, rt := range related {
		if i == 2 {
			break
		}
		candidates = append(candidates, fmt.Sprintf("Comparison between %s and %s", topic, rt.Topic))
	}

	if research.ContentMetrics.AbstractCoverage < 0.8 {
		candidates = append(candidates, fmt.Sprintf("Comprehensive literature review for %s", topic))
	}
	if research.ContentMetrics.AvgCitationCount < 10 {
		candidates = append(candidates, fmt.Sprintf("Highly cited research in %s", topic))
	}

	seen := make(map[string]bool)
	var clean []string
	for _, candidate := range candidates {
		candidate = strings.TrimSpace(candidate)
		if len(candidate) <= c.cfg.MinDirectionLen || len(candidate) >= c.cfg.MaxDirectionLen {
			continue
		}
		if seen[candidate] || c.malformed(candidate) {
			continue
		}
		seen[candidate] = true
		clean = append(clean, candidate)
		if len(clean) == maxDirections {
			break
		}
	}
	return clean
}

func (c *Controller) malformed(direction string) bool {
	for _, pattern := range c.cfg.MalformedPatterns {
		if strings.Contains(direction, pattern) {
			return true
		}
	}
	return false
}

// topConcepts returns the n most frequent key concepts across citations,
// skipping stopwords, numerals, and short tokens. Ties keep first-seen order.
func topConcepts(citations []*types.Citation, n int) []string {
	counts := make(map[string]int)
	var order []string
	for _, citation := range citations {
		for _, concept := range citation.KeyConcepts {
			if len(concept) <= 3 || conceptStopwords[strings.ToLower(concept)] || isNumeric(concept) {
				continue
			}
			if counts[concept] == 0 {
				order = append(order, concept)
			}
			counts[concept]++
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > n {
		order = order[:n]
	}
	return order
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// persist merges the session into the store under the original topic.
// Failures are logged; the session result is already complete.
func (c *Controller) persist(ctx context.Context, result *types.SessionResult) {
	if c.topics == nil {
		return
	}
	err := c.topics.Put(ctx, result.OriginalTopic, types.StoredSession{
		SessionID:       result.SessionID,
		Created:         result.StartTime,
		TotalIterations: result.TotalIterations,
		Citations:       result.Citations,
		Concepts:        result.Concepts,
	})
	if err != nil {
		c.log.Warnf("saving session failed: topic=%q err=%v", result.OriginalTopic, err)
	}
}
