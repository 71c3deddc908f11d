// Package store persists session history and feedback events in SQLite.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"tutorbot/internal/logging"
)

// LocalStore is the SQLite-backed persistence layer. One store serves
// all sessions; callers share a single instance.
type LocalStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
}

// NewLocalStore initializes the SQLite database at the given path.
func NewLocalStore(path string) (*LocalStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &LocalStore{db: db, dbPath: path}
	if err := store.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logging.StoreDebug("LocalStore opened at %s", path)
	return store, nil
}

// initialize creates the required tables.
func (s *LocalStore) initialize() error {
	sessionTable := `
	CREATE TABLE IF NOT EXISTS session_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		turn_number INTEGER NOT NULL,
		student_input TEXT,
		intent_json TEXT,
		response TEXT,
		escalation_json TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(session_id, turn_number)
	);
	CREATE INDEX IF NOT EXISTS idx_session ON session_history(session_id);
	`

	feedbackTable := `
	CREATE TABLE IF NOT EXISTS feedback_events (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		prompt_id TEXT,
		response_id TEXT,
		feedback TEXT,
		feedback_type TEXT DEFAULT 'implicit',
		is_positive INTEGER NOT NULL,
		response_time_ms INTEGER,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_feedback_session ON feedback_events(session_id);
	`

	for _, schema := range []string{sessionTable, feedbackTable} {
		if _, err := s.db.Exec(schema); err != nil {
			return fmt.Errorf("failed to create tables: %w", err)
		}
	}

	return nil
}

// Close closes the underlying database.
func (s *LocalStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// =============================================================================
// SESSION HISTORY
// =============================================================================

// Turn is one stored conversation turn.
type Turn struct {
	TurnNumber     int
	StudentInput   string
	IntentJSON     string
	Response       string
	EscalationJSON string
	CreatedAt      time.Time
}

// StoreTurn records a conversation turn.
// Uses INSERT OR IGNORE so replaying a turn is a no-op.
func (s *LocalStore) StoreTurn(sessionID string, turnNumber int, studentInput, intentJSON, response, escalationJSON string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	logging.StoreDebug("Storing turn: session=%s turn=%d input_len=%d response_len=%d",
		sessionID, turnNumber, len(studentInput), len(response))

	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO session_history (session_id, turn_number, student_input, intent_json, response, escalation_json)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		sessionID, turnNumber, studentInput, intentJSON, response, escalationJSON,
	)
	if err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to store turn: session=%s turn=%d: %v", sessionID, turnNumber, err)
		return err
	}

	return nil
}

// GetHistory retrieves the most recent turns for a session, oldest first.
func (s *LocalStore) GetHistory(sessionID string, limit int) ([]Turn, error) {
	timer := logging.StartTimer(logging.CategoryStore, "GetHistory")
	defer timer.Stop()

	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.Query(
		`SELECT turn_number, student_input, intent_json, response, escalation_json, created_at
		 FROM session_history
		 WHERE session_id = ?
		 ORDER BY turn_number DESC
		 LIMIT ?`,
		sessionID, limit,
	)
	if err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to query history for %s: %v", sessionID, err)
		return nil, err
	}
	defer rows.Close()

	var history []Turn
	for rows.Next() {
		var t Turn
		if err := rows.Scan(&t.TurnNumber, &t.StudentInput, &t.IntentJSON, &t.Response, &t.EscalationJSON, &t.CreatedAt); err != nil {
			continue
		}
		history = append(history, t)
	}

	// Reverse to chronological order
	for i, j := 0, len(history)-1; i < j; i, j = i+1, j-1 {
		history[i], history[j] = history[j], history[i]
	}

	return history, rows.Err()
}

// TurnCount returns the number of stored turns for a session.
func (s *LocalStore) TurnCount(sessionID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM session_history WHERE session_id = ?",
		sessionID,
	).Scan(&count)
	return count, err
}

// =============================================================================
// FEEDBACK EVENTS
// =============================================================================

// FeedbackEvent is one recorded piece of student feedback.
type FeedbackEvent struct {
	ID             string
	SessionID      string
	PromptID       string
	ResponseID     string
	Feedback       string
	FeedbackType   string
	IsPositive     bool
	ResponseTimeMS int64
	CreatedAt      time.Time
}

// RecordFeedback persists a feedback event.
func (s *LocalStore) RecordFeedback(ev FeedbackEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ev.FeedbackType == "" {
		ev.FeedbackType = "implicit"
	}

	logging.StoreDebug("Recording feedback: session=%s positive=%v type=%s", ev.SessionID, ev.IsPositive, ev.FeedbackType)

	_, err := s.db.Exec(
		`INSERT INTO feedback_events (id, session_id, prompt_id, response_id, feedback, feedback_type, is_positive, response_time_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.SessionID, ev.PromptID, ev.ResponseID, ev.Feedback, ev.FeedbackType, ev.IsPositive, ev.ResponseTimeMS,
	)
	if err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to record feedback %s: %v", ev.ID, err)
		return err
	}

	return nil
}

// FeedbackStats returns the positive and negative feedback counts for a
// session. An empty sessionID counts across all sessions.
func (s *LocalStore) FeedbackStats(sessionID string) (positive, negative int, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT
		COALESCE(SUM(CASE WHEN is_positive THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN is_positive THEN 0 ELSE 1 END), 0)
	FROM feedback_events`

	if sessionID != "" {
		err = s.db.QueryRow(query+" WHERE session_id = ?", sessionID).Scan(&positive, &negative)
	} else {
		err = s.db.QueryRow(query).Scan(&positive, &negative)
	}
	return positive, negative, err
}

// RecentFeedback retrieves the most recent feedback events for a session.
func (s *LocalStore) RecentFeedback(sessionID string, limit int) ([]FeedbackEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT id, session_id, prompt_id, response_id, feedback, feedback_type, is_positive, COALESCE(response_time_ms, 0), created_at
		 FROM feedback_events
		 WHERE session_id = ?
		 ORDER BY created_at DESC
		 LIMIT ?`,
		sessionID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []FeedbackEvent
	for rows.Next() {
		var ev FeedbackEvent
		if err := rows.Scan(&ev.ID, &ev.SessionID, &ev.PromptID, &ev.ResponseID, &ev.Feedback, &ev.FeedbackType, &ev.IsPositive, &ev.ResponseTimeMS, &ev.CreatedAt); err != nil {
			continue
		}
		events = append(events, ev)
	}

	return events, rows.Err()
}
