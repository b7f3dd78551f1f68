// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// SessionStatus tracks whether a research session is still iterating.
type SessionStatus string

const (
	SessionRunning   SessionStatus = "running"
	SessionCompleted SessionStatus = "completed"
)

// ThinkingResult holds the output of one reflective thinking pass.
type ThinkingResult struct {
	Steps      []ThoughtResponse `json:"steps" yaml:"steps"`
	TotalSteps int               `json:"total_steps" yaml:"total_steps"`
}

// ThoughtRecord is the input to the thinking engine. Thought,
// NextThoughtNeeded, ThoughtNumber, and TotalThoughts are required.
type ThoughtRecord struct {
	Thought           string `json:"thought" yaml:"thought"`
	NextThoughtNeeded bool   `json:"next_thought_needed" yaml:"next_thought_needed"`
	ThoughtNumber     int    `json:"thought_number" yaml:"thought_number"`
	TotalThoughts     int    `json:"total_thoughts" yaml:"total_thoughts"`

	IsHypothesis      bool   `json:"is_hypothesis,omitempty" yaml:"is_hypothesis,omitempty"`
	IsVerification    bool   `json:"is_verification,omitempty" yaml:"is_verification,omitempty"`
	BranchFromThought int    `json:"branch_from_thought,omitempty" yaml:"branch_from_thought,omitempty"`
	BranchID          string `json:"branch_id,omitempty" yaml:"branch_id,omitempty"`
}

// ThoughtResponse is the thinking engine's reply to one thought record.
type ThoughtResponse struct {
	ThoughtNumber        int      `json:"thought_number" yaml:"thought_number"`
	TotalThoughts        int      `json:"total_thoughts" yaml:"total_thoughts"`
	NextThoughtNeeded    bool     `json:"next_thought_needed" yaml:"next_thought_needed"`
	Branches             []string `json:"branches,omitempty" yaml:"branches,omitempty"`
	ThoughtHistoryLength int      `json:"thought_history_length" yaml:"thought_history_length"`
	Hypothesis           string   `json:"hypothesis,omitempty" yaml:"hypothesis,omitempty"`
	Verification         string   `json:"verification,omitempty" yaml:"verification,omitempty"`
}

// Iteration records one research/thinking round of a session.
type Iteration struct {
	Number     int             `json:"number" yaml:"number"`
	Topic      string          `json:"topic" yaml:"topic"`
	Researched bool            `json:"researched" yaml:"researched"`
	Research   TraversalResult `json:"research" yaml:"research"`
	Thinking   ThinkingResult  `json:"thinking" yaml:"thinking"`
	Timestamp  time.Time       `json:"timestamp" yaml:"timestamp"`
}

// SessionResult is the cumulative state of one research session, returned to
// the caller of ConductResearchSession and merged into the topic store.
type SessionResult struct {
	SessionID     string        `json:"session_id" yaml:"session_id"`
	Topic         string        `json:"topic" yaml:"topic"`
	OriginalTopic string        `json:"original_topic" yaml:"original_topic"`
	Status        SessionStatus `json:"status" yaml:"status"`

	Iterations      []Iteration `json:"iterations" yaml:"iterations"`
	TotalIterations int         `json:"total_iterations" yaml:"total_iterations"`

	// Citations accumulates deduplicated citations across iterations.
	Citations []*Citation `json:"citations" yaml:"citations"`

	// Concepts accumulates the deduplicated concept vocabulary.
	Concepts []string `json:"concepts" yaml:"concepts"`

	// ResearchDirections lists direction strings already explored, in order.
	ResearchDirections []string `json:"research_directions" yaml:"research_directions"`

	Graph GraphSummary `json:"knowledge_graph" yaml:"knowledge_graph"`

	// ReusedExisting is true when the session was seeded from stored topic data.
	ReusedExisting bool `json:"reused_existing" yaml:"reused_existing"`

	RelatedTopics []RelatedTopic `json:"related_topics,omitempty" yaml:"related_topics,omitempty"`

	StartTime time.Time `json:"start_time" yaml:"start_time"`
	EndTime   time.Time `json:"end_time" yaml:"end_time"`

	// FinalReport is a human-readable recombination of the session's findings.
	FinalReport string `json:"final_report,omitempty" yaml:"final_report,omitempty"`
}

// TopicSummary holds per-topic counters maintained by the store.
type TopicSummary struct {
	TotalSessions   int        `json:"total_sessions" yaml:"total_sessions"`
	TotalCitations  int        `json:"total_citations" yaml:"total_citations"`
	TotalConcepts   int        `json:"total_concepts" yaml:"total_concepts"`
	LastSessionDate *time.Time `json:"last_session_date,omitempty" yaml:"last_session_date,omitempty"`
}

// StoredSession is the subset of a session kept in the topic store.
type StoredSession struct {
	SessionID       string      `json:"session_id" yaml:"session_id"`
	Created         time.Time   `json:"created" yaml:"created"`
	TotalIterations int         `json:"total_iterations" yaml:"total_iterations"`
	Citations       []*Citation `json:"citations" yaml:"citations"`
	Concepts        []string    `json:"concepts" yaml:"concepts"`
}

// StoredTopic is the durable record for one normalized topic.
type StoredTopic struct {
	Topic    string          `json:"topic" yaml:"topic"`
	Hash     string          `json:"hash" yaml:"hash"`
	Created  time.Time       `json:"created" yaml:"created"`
	Updated  time.Time       `json:"updated" yaml:"updated"`
	Sessions []StoredSession `json:"sessions" yaml:"sessions"`
	Concepts []string        `json:"concepts" yaml:"concepts"`
	Summary  TopicSummary    `json:"summary" yaml:"summary"`
}

// RelatedTopic is a stored topic ranked by concept overlap with another.
// OverlapScore is |shared concepts| / |current topic's concept set|.
type RelatedTopic struct {
	Topic          string    `json:"topic" yaml:"topic"`
	OverlapScore   float64   `json:"overlap_score" yaml:"overlap_score"`
	SharedConcepts []string  `json:"shared_concepts" yaml:"shared_concepts"`
	LastUpdated    time.Time `json:"last_updated" yaml:"last_updated"`
	TotalSessions  int       `json:"total_sessions" yaml:"total_sessions"`
}
