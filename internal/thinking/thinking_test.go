// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package thinking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/deep-research/pkg/types"
)

func TestProcessThoughtRecordsHistory(t *testing.T) {
	e := NewEngine()

	for i := 1; i <= 3; i++ {
		resp, err := e.ProcessThought(types.ThoughtRecord{
			Thought:           "step",
			NextThoughtNeeded: i < 3,
			ThoughtNumber:     i,
			TotalThoughts:     3,
		})
		require.NoError(t, err)
		assert.Equal(t, i, resp.ThoughtHistoryLength)
		assert.Equal(t, i < 3, resp.NextThoughtNeeded)
	}

	assert.Len(t, e.History(), 3)
}

func TestProcessThoughtRaisesTotalEstimate(t *testing.T) {
	e := NewEngine()

	resp, err := e.ProcessThought(types.ThoughtRecord{
		Thought:       "went past the estimate",
		ThoughtNumber: 7,
		TotalThoughts: 5,
	})
	require.NoError(t, err)

	assert.Equal(t, 7, resp.TotalThoughts)
}

func TestProcessThoughtValidation(t *testing.T) {
	e := NewEngine()

	cases := []struct {
		name string
		rec  types.ThoughtRecord
	}{
		{"empty thought", types.ThoughtRecord{ThoughtNumber: 1, TotalThoughts: 1}},
		{"zero thought number", types.ThoughtRecord{Thought: "x", ThoughtNumber: 0, TotalThoughts: 1}},
		{"zero total", types.ThoughtRecord{Thought: "x", ThoughtNumber: 1, TotalThoughts: 0}},
		{"negative branch origin", types.ThoughtRecord{Thought: "x", ThoughtNumber: 1, TotalThoughts: 1, BranchFromThought: -2}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.ProcessThought(tc.rec)
			assert.Error(t, err)
		})
	}

	// Invalid records are not recorded.
	assert.Empty(t, e.History())
}

func TestProcessThoughtBranches(t *testing.T) {
	e := NewEngine()

	_, err := e.ProcessThought(types.ThoughtRecord{
		Thought: "trunk", ThoughtNumber: 1, TotalThoughts: 2, NextThoughtNeeded: true,
	})
	require.NoError(t, err)

	resp, err := e.ProcessThought(types.ThoughtRecord{
		Thought:           "alternative reading",
		ThoughtNumber:     2,
		TotalThoughts:     2,
		BranchFromThought: 1,
		BranchID:          "alt",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"alt"}, resp.Branches)
	require.Len(t, e.Branch("alt"), 1)
	assert.Equal(t, "alternative reading", e.Branch("alt")[0].Thought)
	assert.Len(t, e.History(), 2)
}

func TestProcessThoughtBranchNeedsBothFields(t *testing.T) {
	e := NewEngine()

	// A branch ID without an origin stays on the trunk.
	resp, err := e.ProcessThought(types.ThoughtRecord{
		Thought: "x", ThoughtNumber: 1, TotalThoughts: 1, BranchID: "orphan",
	})
	require.NoError(t, err)

	assert.Empty(t, resp.Branches)
	assert.Empty(t, e.Branch("orphan"))
}

func TestProcessThoughtHypothesisAndVerification(t *testing.T) {
	e := NewEngine()

	resp, err := e.ProcessThought(types.ThoughtRecord{
		Thought: "transformers supersede recurrence", ThoughtNumber: 1, TotalThoughts: 2, IsHypothesis: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "transformers supersede recurrence", resp.Hypothesis)
	assert.Empty(t, resp.Verification)

	resp, err = e.ProcessThought(types.ThoughtRecord{
		Thought: "the literature confirms it", ThoughtNumber: 2, TotalThoughts: 2, IsVerification: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "the literature confirms it", resp.Verification)
	assert.Empty(t, resp.Hypothesis)
}
