// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package thinking implements the reflective thinking engine: a step-by-step,
// revisable, and branchable reasoning trace used by the session controller.
//
// See docs/ARCHITECTURE.md § Thinking.
package thinking

import (
	"fmt"

	"github.com/pdiddy/deep-research/pkg/types"
)

// Engine accumulates a thought history and named branches across
// ProcessThought calls. The zero value is not usable; create engines with
// NewEngine. An Engine is scoped to one session and is not safe for
// concurrent use.
type Engine struct {
	history  []types.ThoughtRecord
	branches map[string][]types.ThoughtRecord
}

// NewEngine returns an empty thinking engine.
func NewEngine() *Engine {
	return &Engine{branches: make(map[string][]types.ThoughtRecord)}
}

// validate rejects malformed thought records with a descriptive error.
func validate(rec types.ThoughtRecord) error {
	if rec.Thought == "" {
		return fmt.Errorf("thought must not be empty")
	}
	if rec.ThoughtNumber < 1 {
		return fmt.Errorf("thought number must be at least 1, got %d", rec.ThoughtNumber)
	}
	if rec.TotalThoughts < 1 {
		return fmt.Errorf("total thoughts must be at least 1, got %d", rec.TotalThoughts)
	}
	if rec.BranchFromThought < 0 {
		return fmt.Errorf("branch origin must not be negative, got %d", rec.BranchFromThought)
	}
	return nil
}

// ProcessThought validates and records one thought. The estimated total is
// raised to the thought number when the sequence runs past its estimate.
// Thoughts carrying both a branch origin and a branch ID are also appended
// to that branch. Hypothesis and verification thoughts are echoed back in
// the response.
func (e *Engine) ProcessThought(rec types.ThoughtRecord) (types.ThoughtResponse, error) {
	if err := validate(rec); err != nil {
		return types.ThoughtResponse{}, err
	}

	if rec.ThoughtNumber > rec.TotalThoughts {
		rec.TotalThoughts = rec.ThoughtNumber
	}

	e.history = append(e.history, rec)
	if rec.BranchFromThought > 0 && rec.BranchID != "" {
		e.branches[rec.BranchID] = append(e.branches[rec.BranchID], rec)
	}

	resp := types.ThoughtResponse{
		ThoughtNumber:        rec.ThoughtNumber,
		TotalThoughts:        rec.TotalThoughts,
		NextThoughtNeeded:    rec.NextThoughtNeeded,
		Branches:             e.branchNames(),
		ThoughtHistoryLength: len(e.history),
	}
	if rec.IsHypothesis {
		resp.Hypothesis = rec.Thought
	}
	if rec.IsVerification {
		resp.Verification = rec.Thought
	}
	return resp, nil
}

// History returns the recorded thoughts in order. Callers must not mutate
// the returned slice.
func (e *Engine) History() []types.ThoughtRecord { return e.history }

// Branch returns the thoughts recorded under one branch ID.
func (e *Engine) Branch(id string) []types.ThoughtRecord { return e.branches[id] }

func (e *Engine) branchNames() []string {
	if len(e.branches) == 0 {
		return nil
	}
	names := make([]string, 0, len(e.branches))
	for name := range e.branches {
		names = append(names, name)
	}
	return names
}
