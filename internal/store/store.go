// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists research topics and their sessions in SQLite so
// later sessions can resume from accumulated citations and concepts.
//
// See docs/ARCHITECTURE.md § Topic Store.
package store

import (
	"context"
	"crypto/md5"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/deep-research/pkg/types"
)

const dbFile = "topics.db"

// Store manages the topic/session SQLite database.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the topic database at dataDir/topics.db and
// bootstraps the schema.
func NewStore(cfg types.StoreConfig) (*Store, error) {
	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir = "data"
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS topics (
			hash TEXT PRIMARY KEY,
			topic TEXT NOT NULL,
			created TEXT NOT NULL,
			updated TEXT NOT NULL,
			concepts TEXT NOT NULL DEFAULT '[]'
		)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			session_id TEXT PRIMARY KEY,
			topic_hash TEXT NOT NULL REFERENCES topics(hash),
			created TEXT NOT NULL,
			total_iterations INTEGER NOT NULL,
			citations TEXT NOT NULL DEFAULT '[]',
			concepts TEXT NOT NULL DEFAULT '[]'
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_topic ON sessions(topic_hash)`,
		`CREATE TABLE IF NOT EXISTS topic_concepts (
			topic_hash TEXT NOT NULL REFERENCES topics(hash),
			concept TEXT NOT NULL,
			PRIMARY KEY (topic_hash, concept)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_topic_concepts_concept ON topic_concepts(concept)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// TopicHash returns the stable identifier for a topic: the MD5 digest of the
// lowercased, whitespace-trimmed topic string.
func TopicHash(topic string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(topic))))
	return fmt.Sprintf("%x", sum)
}

// Get loads a stored topic with its sessions, or nil when the topic has
// never been researched.
func (s *Store) Get(ctx context.Context, topic string) (*types.StoredTopic, error) {
	hash := TopicHash(topic)

	var st types.StoredTopic
	var created, updated, conceptsJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT topic, created, updated, concepts FROM topics WHERE hash = ?`, hash,
	).Scan(&st.Topic, &created, &updated, &conceptsJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading topic: %w", err)
	}

	st.Hash = hash
	st.Created = parseStoredTime(created)
	st.Updated = parseStoredTime(updated)
	if err := json.Unmarshal([]byte(conceptsJSON), &st.Concepts); err != nil {
		return nil, fmt.Errorf("parsing topic concepts: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, created, total_iterations, citations, concepts
		 FROM sessions WHERE topic_hash = ? ORDER BY created`, hash)
	if err != nil {
		return nil, fmt.Errorf("loading sessions: %w", err)
	}
	defer rows.Close()

	totalCitations := 0
	for rows.Next() {
		var sess types.StoredSession
		var sessCreated, citationsJSON, sessConceptsJSON string
		if err := rows.Scan(&sess.SessionID, &sessCreated, &sess.TotalIterations, &citationsJSON, &sessConceptsJSON); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		sess.Created = parseStoredTime(sessCreated)
		if err := json.Unmarshal([]byte(citationsJSON), &sess.Citations); err != nil {
			return nil, fmt.Errorf("parsing session citations: %w", err)
		}
		if err := json.Unmarshal([]byte(sessConceptsJSON), &sess.Concepts); err != nil {
			return nil, fmt.Errorf("parsing session concepts: %w", err)
		}
		totalCitations += len(sess.Citations)
		st.Sessions = append(st.Sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sessions: %w", err)
	}

	st.Summary = types.TopicSummary{
		TotalSessions:  len(st.Sessions),
		TotalCitations: totalCitations,
		TotalConcepts:  len(st.Concepts),
	}
	if len(st.Sessions) > 0 {
		last := st.Sessions[len(st.Sessions)-1].Created
		st.Summary.LastSessionDate = &last
	}
	return &st, nil
}

// Put merges a finished session into the stored topic. The topic row is
// created on first use; the concept vocabulary is the union across sessions.
func (s *Store) Put(ctx context.Context, topic string, session types.StoredSession) error {
	hash := TopicHash(topic)
	now := time.Now().UTC().Format(time.RFC3339Nano)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var conceptsJSON string
	var merged []string
	err = tx.QueryRowContext(ctx, `SELECT concepts FROM topics WHERE hash = ?`, hash).Scan(&conceptsJSON)
	switch {
	case err == sql.ErrNoRows:
		merged = dedupe(session.Concepts)
		data, _ := json.Marshal(merged)
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO topics (hash, topic, created, updated, concepts) VALUES (?, ?, ?, ?, ?)`,
			hash, topic, now, now, string(data)); err != nil {
			return fmt.Errorf("inserting topic: %w", err)
		}
	case err != nil:
		return fmt.Errorf("loading topic concepts: %w", err)
	default:
		var existing []string
		if err := json.Unmarshal([]byte(conceptsJSON), &existing); err != nil {
			return fmt.Errorf("parsing topic concepts: %w", err)
		}
		merged = dedupe(append(existing, session.Concepts...))
		data, _ := json.Marshal(merged)
		if _, err := tx.ExecContext(ctx,
			`UPDATE topics SET concepts = ?, updated = ? WHERE hash = ?`,
			string(data), now, hash); err != nil {
			return fmt.Errorf("updating topic: %w", err)
		}
	}

	citationsJSON, err := json.Marshal(session.Citations)
	if err != nil {
		return fmt.Errorf("marshaling citations: %w", err)
	}
	sessionConceptsJSON, _ := json.Marshal(dedupe(session.Concepts))

	created := session.Created
	if created.IsZero() {
		created = time.Now().UTC()
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO sessions (session_id, topic_hash, created, total_iterations, citations, concepts)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		session.SessionID, hash, created.Format(time.RFC3339Nano),
		session.TotalIterations, string(citationsJSON), string(sessionConceptsJSON)); err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO topic_concepts (topic_hash, concept) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing concept index insert: %w", err)
	}
	defer stmt.Close()
	for _, concept := range merged {
		if _, err := stmt.ExecContext(ctx, hash, concept); err != nil {
			return fmt.Errorf("indexing concept %q: %w", concept, err)
		}
	}

	return tx.Commit()
}

// FindRelated ranks other stored topics by concept overlap with the given
// topic. The score is |shared concepts| / |this topic's concept set|.
func (s *Store) FindRelated(ctx context.Context, topic string, limit int) ([]types.RelatedTopic, error) {
	current, err := s.Get(ctx, topic)
	if err != nil {
		return nil, err
	}
	if current == nil || len(current.Concepts) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = 5
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(current.Concepts)), ",")
	args := make([]any, 0, len(current.Concepts)+1)
	for _, c := range current.Concepts {
		args = append(args, c)
	}
	args = append(args, current.Hash)

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT t.topic, t.updated,
		        (SELECT COUNT(*) FROM sessions WHERE topic_hash = t.hash) AS session_count,
		        GROUP_CONCAT(tc.concept, '|') AS shared
		 FROM topic_concepts tc
		 JOIN topics t ON t.hash = tc.topic_hash
		 WHERE tc.concept IN (%s) AND tc.topic_hash != ?
		 GROUP BY tc.topic_hash
		 ORDER BY COUNT(*) DESC, t.topic`, placeholders), args...)
	if err != nil {
		return nil, fmt.Errorf("querying related topics: %w", err)
	}
	defer rows.Close()

	var related []types.RelatedTopic
	for rows.Next() {
		var rt types.RelatedTopic
		var updated, shared string
		var sessionCount int
		if err := rows.Scan(&rt.Topic, &updated, &sessionCount, &shared); err != nil {
			return nil, fmt.Errorf("scanning related topic: %w", err)
		}
		rt.SharedConcepts = strings.Split(shared, "|")
		rt.OverlapScore = float64(len(rt.SharedConcepts)) / float64(len(current.Concepts))
		rt.LastUpdated = parseStoredTime(updated)
		rt.TotalSessions = sessionCount
		related = append(related, rt)
		if len(related) == limit {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating related topics: %w", err)
	}
	return related, nil
}

// TopicsByConcept returns the topics whose vocabulary contains the concept.
func (s *Store) TopicsByConcept(ctx context.Context, concept string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT t.topic FROM topic_concepts tc JOIN topics t ON t.hash = tc.topic_hash
		 WHERE tc.concept = ? ORDER BY t.topic`, concept)
	if err != nil {
		return nil, fmt.Errorf("querying topics by concept: %w", err)
	}
	defer rows.Close()

	var topics []string
	for rows.Next() {
		var topic string
		if err := rows.Scan(&topic); err != nil {
			return nil, fmt.Errorf("scanning topic: %w", err)
		}
		topics = append(topics, topic)
	}
	return topics, rows.Err()
}

// ListTopics returns every stored topic without session payloads, most
// recently updated first.
func (s *Store) ListTopics(ctx context.Context) ([]types.StoredTopic, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT t.hash, t.topic, t.created, t.updated, t.concepts,
		        (SELECT COUNT(*) FROM sessions WHERE topic_hash = t.hash)
		 FROM topics t ORDER BY t.updated DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing topics: %w", err)
	}
	defer rows.Close()

	var topics []types.StoredTopic
	for rows.Next() {
		var st types.StoredTopic
		var created, updated, conceptsJSON string
		var sessionCount int
		if err := rows.Scan(&st.Hash, &st.Topic, &created, &updated, &conceptsJSON, &sessionCount); err != nil {
			return nil, fmt.Errorf("scanning topic: %w", err)
		}
		st.Created = parseStoredTime(created)
		st.Updated = parseStoredTime(updated)
		if err := json.Unmarshal([]byte(conceptsJSON), &st.Concepts); err != nil {
			return nil, fmt.Errorf("parsing topic concepts: %w", err)
		}
		st.Summary = types.TopicSummary{
			TotalSessions: sessionCount,
			TotalConcepts: len(st.Concepts),
		}
		topics = append(topics, st)
	}
	return topics, rows.Err()
}

// Stats holds store-wide counters.
type Stats struct {
	TotalTopics   int        `json:"total_topics" yaml:"total_topics"`
	TotalSessions int        `json:"total_sessions" yaml:"total_sessions"`
	TotalConcepts int        `json:"total_concepts" yaml:"total_concepts"`
	LastUpdated   *time.Time `json:"last_updated,omitempty" yaml:"last_updated,omitempty"`
}

// Stats computes store-wide counters.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM topics`).Scan(&st.TotalTopics); err != nil {
		return Stats{}, fmt.Errorf("counting topics: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&st.TotalSessions); err != nil {
		return Stats{}, fmt.Errorf("counting sessions: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(DISTINCT concept) FROM topic_concepts`).Scan(&st.TotalConcepts); err != nil {
		return Stats{}, fmt.Errorf("counting concepts: %w", err)
	}

	var updated sql.NullString
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(updated) FROM topics`).Scan(&updated); err != nil {
		return Stats{}, fmt.Errorf("finding last update: %w", err)
	}
	if updated.Valid {
		t := parseStoredTime(updated.String)
		st.LastUpdated = &t
	}
	return st, nil
}

func parseStoredTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	var out []string
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	if out == nil {
		out = []string{}
	}
	return out
}
