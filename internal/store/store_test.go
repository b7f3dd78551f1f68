// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pdiddy/deep-research/pkg/types"
)

// --- test helpers ---

func testSetup(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(types.StoreConfig{DataDir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleSession(id string, concepts ...string) types.StoredSession {
	return types.StoredSession{
		SessionID:       id,
		Created:         time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
		TotalIterations: 2,
		Citations: []*types.Citation{
			{URL: "https://arxiv.org/abs/1706.03762", Source: types.SourceArxiv, Title: "Attention Is All You Need"},
			{URL: "https://en.wikipedia.org/wiki/Transformer", Source: types.SourceWikipedia, Title: "Transformer"},
		},
		Concepts: concepts,
	}
}

// --- schema tests ---

func TestNewStoreCreatesSchema(t *testing.T) {
	s := testSetup(t)

	for _, table := range []string{"topics", "sessions", "topic_concepts"} {
		var count int
		err := s.db.QueryRow(
			`SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table,
		).Scan(&count)
		if err != nil {
			t.Fatalf("checking table %s: %v", table, err)
		}
		if count == 0 {
			t.Errorf("table %s does not exist", table)
		}
	}
}

func TestNewStoreCreatesDBFile(t *testing.T) {
	tmpDir := t.TempDir()
	dataDir := filepath.Join(tmpDir, "nested", "data")

	s, err := NewStore(types.StoreConfig{DataDir: dataDir})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if _, err := os.Stat(filepath.Join(dataDir, dbFile)); os.IsNotExist(err) {
		t.Errorf("database file not created under %s", dataDir)
	}
}

// --- topic hash ---

func TestTopicHashNormalizes(t *testing.T) {
	tests := []struct {
		a, b string
		same bool
	}{
		{"Machine Learning", "machine learning", true},
		{"  machine learning  ", "machine learning", true},
		{"machine learning", "deep learning", false},
	}
	for _, tt := range tests {
		got := TopicHash(tt.a) == TopicHash(tt.b)
		if got != tt.same {
			t.Errorf("TopicHash(%q) == TopicHash(%q) = %v, want %v", tt.a, tt.b, got, tt.same)
		}
	}
}

// --- put/get tests ---

func TestGetUnknownTopic(t *testing.T) {
	s := testSetup(t)

	topic, err := s.Get(context.Background(), "never researched")
	if err != nil {
		t.Fatal(err)
	}
	if topic != nil {
		t.Errorf("got %+v, want nil for unknown topic", topic)
	}
}

func TestPutThenGet(t *testing.T) {
	s := testSetup(t)
	ctx := context.Background()

	if err := s.Put(ctx, "machine learning", sampleSession("sess-1", "attention", "transformer")); err != nil {
		t.Fatal(err)
	}

	topic, err := s.Get(ctx, "Machine Learning")
	if err != nil {
		t.Fatal(err)
	}
	if topic == nil {
		t.Fatal("topic not found after Put")
	}
	if topic.Topic != "machine learning" {
		t.Errorf("Topic = %q, want %q", topic.Topic, "machine learning")
	}
	if topic.Hash != TopicHash("machine learning") {
		t.Errorf("Hash = %q, want %q", topic.Hash, TopicHash("machine learning"))
	}
	if len(topic.Sessions) != 1 {
		t.Fatalf("got %d sessions, want 1", len(topic.Sessions))
	}
	if len(topic.Sessions[0].Citations) != 2 {
		t.Errorf("got %d citations, want 2", len(topic.Sessions[0].Citations))
	}
	if topic.Sessions[0].Citations[0].Title != "Attention Is All You Need" {
		t.Errorf("citation title = %q", topic.Sessions[0].Citations[0].Title)
	}
	if len(topic.Concepts) != 2 {
		t.Errorf("Concepts = %v, want 2 entries", topic.Concepts)
	}
}

func TestPutMergesConcepts(t *testing.T) {
	s := testSetup(t)
	ctx := context.Background()

	if err := s.Put(ctx, "machine learning", sampleSession("sess-1", "attention", "transformer")); err != nil {
		t.Fatal(err)
	}
	if err := s.Put(ctx, "machine learning", sampleSession("sess-2", "transformer", "embedding")); err != nil {
		t.Fatal(err)
	}

	topic, err := s.Get(ctx, "machine learning")
	if err != nil {
		t.Fatal(err)
	}
	if len(topic.Concepts) != 3 {
		t.Errorf("Concepts = %v, want union of 3", topic.Concepts)
	}
	if len(topic.Sessions) != 2 {
		t.Errorf("got %d sessions, want 2", len(topic.Sessions))
	}
}

func TestGetComputesSummary(t *testing.T) {
	s := testSetup(t)
	ctx := context.Background()

	if err := s.Put(ctx, "machine learning", sampleSession("sess-1", "attention")); err != nil {
		t.Fatal(err)
	}
	if err := s.Put(ctx, "machine learning", sampleSession("sess-2", "embedding")); err != nil {
		t.Fatal(err)
	}

	topic, err := s.Get(ctx, "machine learning")
	if err != nil {
		t.Fatal(err)
	}
	if topic.Summary.TotalSessions != 2 {
		t.Errorf("TotalSessions = %d, want 2", topic.Summary.TotalSessions)
	}
	if topic.Summary.TotalCitations != 4 {
		t.Errorf("TotalCitations = %d, want 4", topic.Summary.TotalCitations)
	}
	if topic.Summary.TotalConcepts != 2 {
		t.Errorf("TotalConcepts = %d, want 2", topic.Summary.TotalConcepts)
	}
	if topic.Summary.LastSessionDate == nil {
		t.Error("LastSessionDate not set")
	}
}

// --- related topics ---

func TestFindRelatedRanksByOverlap(t *testing.T) {
	s := testSetup(t)
	ctx := context.Background()

	if err := s.Put(ctx, "machine learning", sampleSession("s1", "attention", "transformer", "embedding", "gradient")); err != nil {
		t.Fatal(err)
	}
	if err := s.Put(ctx, "deep learning", sampleSession("s2", "attention", "transformer", "embedding")); err != nil {
		t.Fatal(err)
	}
	if err := s.Put(ctx, "protein folding", sampleSession("s3", "attention")); err != nil {
		t.Fatal(err)
	}
	if err := s.Put(ctx, "medieval history", sampleSession("s4", "feudalism")); err != nil {
		t.Fatal(err)
	}

	related, err := s.FindRelated(ctx, "machine learning", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(related) != 2 {
		t.Fatalf("got %d related topics, want 2: %+v", len(related), related)
	}
	if related[0].Topic != "deep learning" {
		t.Errorf("top related = %q, want %q", related[0].Topic, "deep learning")
	}
	// 3 shared concepts out of 4 in the current topic's set.
	if related[0].OverlapScore != 0.75 {
		t.Errorf("OverlapScore = %f, want 0.75", related[0].OverlapScore)
	}
	if len(related[0].SharedConcepts) != 3 {
		t.Errorf("SharedConcepts = %v, want 3", related[0].SharedConcepts)
	}
	if related[1].Topic != "protein folding" {
		t.Errorf("second related = %q, want %q", related[1].Topic, "protein folding")
	}
}

func TestFindRelatedRespectsLimit(t *testing.T) {
	s := testSetup(t)
	ctx := context.Background()

	if err := s.Put(ctx, "base", sampleSession("s0", "shared")); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 4; i++ {
		topic := fmt.Sprintf("other-%d", i)
		if err := s.Put(ctx, topic, sampleSession("s"+topic, "shared")); err != nil {
			t.Fatal(err)
		}
	}

	related, err := s.FindRelated(ctx, "base", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(related) != 2 {
		t.Errorf("got %d related topics, want 2", len(related))
	}
}

func TestFindRelatedUnknownTopic(t *testing.T) {
	s := testSetup(t)

	related, err := s.FindRelated(context.Background(), "never researched", 5)
	if err != nil {
		t.Fatal(err)
	}
	if related != nil {
		t.Errorf("got %+v, want nil", related)
	}
}

// --- concept lookup ---

func TestTopicsByConcept(t *testing.T) {
	s := testSetup(t)
	ctx := context.Background()

	if err := s.Put(ctx, "machine learning", sampleSession("s1", "attention")); err != nil {
		t.Fatal(err)
	}
	if err := s.Put(ctx, "protein folding", sampleSession("s2", "attention", "folding")); err != nil {
		t.Fatal(err)
	}

	topics, err := s.TopicsByConcept(ctx, "attention")
	if err != nil {
		t.Fatal(err)
	}
	if len(topics) != 2 {
		t.Errorf("got %v, want 2 topics", topics)
	}

	topics, err = s.TopicsByConcept(ctx, "folding")
	if err != nil {
		t.Fatal(err)
	}
	if len(topics) != 1 || topics[0] != "protein folding" {
		t.Errorf("got %v, want [protein folding]", topics)
	}
}

// --- listing and stats ---

func TestListTopics(t *testing.T) {
	s := testSetup(t)
	ctx := context.Background()

	if err := s.Put(ctx, "machine learning", sampleSession("s1", "attention")); err != nil {
		t.Fatal(err)
	}
	if err := s.Put(ctx, "protein folding", sampleSession("s2", "folding")); err != nil {
		t.Fatal(err)
	}

	topics, err := s.ListTopics(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(topics) != 2 {
		t.Fatalf("got %d topics, want 2", len(topics))
	}
	for _, topic := range topics {
		if topic.Summary.TotalSessions != 1 {
			t.Errorf("topic %q: TotalSessions = %d, want 1", topic.Topic, topic.Summary.TotalSessions)
		}
		if len(topic.Sessions) != 0 {
			t.Errorf("topic %q: listing should not load session payloads", topic.Topic)
		}
	}
}

func TestStats(t *testing.T) {
	s := testSetup(t)
	ctx := context.Background()

	empty, err := s.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if empty.TotalTopics != 0 || empty.LastUpdated != nil {
		t.Errorf("empty stats = %+v", empty)
	}

	if err := s.Put(ctx, "machine learning", sampleSession("s1", "attention", "transformer")); err != nil {
		t.Fatal(err)
	}
	if err := s.Put(ctx, "machine learning", sampleSession("s2", "attention")); err != nil {
		t.Fatal(err)
	}
	if err := s.Put(ctx, "protein folding", sampleSession("s3", "folding")); err != nil {
		t.Fatal(err)
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalTopics != 2 {
		t.Errorf("TotalTopics = %d, want 2", stats.TotalTopics)
	}
	if stats.TotalSessions != 3 {
		t.Errorf("TotalSessions = %d, want 3", stats.TotalSessions)
	}
	// attention, transformer, folding.
	if stats.TotalConcepts != 3 {
		t.Errorf("TotalConcepts = %d, want 3", stats.TotalConcepts)
	}
	if stats.LastUpdated == nil {
		t.Error("LastUpdated not set")
	}
}
