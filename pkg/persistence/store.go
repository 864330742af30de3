// Package persistence implements the conversation store: per-session turn
// history, flow metadata, and context, persisted as whole documents in SQLite.
package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver

	"shopassist/pkg/flow"
)

// MaxTurns is the per-session turn cap. Saves keep only the most recent.
const MaxTurns = 50

// DefaultHistoryLimit bounds history reloads for the API surface.
const DefaultHistoryLimit = 20

// ErrSessionNotFound is returned when a session doesn't exist.
var ErrSessionNotFound = errors.New("session not found")

// Turn roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Turn is one message in a session's history.
type Turn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Session is the whole-document conversation state for one session.
type Session struct {
	ID        string            `json:"id"`
	UserID    string            `json:"user_id,omitempty"`
	Turns     []Turn            `json:"turns"`
	Flow      flow.Metadata     `json:"flow"`
	Context   map[string]string `json:"context"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// NewSession creates an empty session.
func NewSession(id, userID string) *Session {
	return &Session{
		ID:      id,
		UserID:  userID,
		Context: make(map[string]string),
	}
}

// AppendTurn records a message on the session.
func (s *Session) AppendTurn(role, content string) {
	s.Turns = append(s.Turns, Turn{
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	})
}

// RecentTurns returns the last n turns.
func (s *Session) RecentTurns(n int) []Turn {
	if n <= 0 || n >= len(s.Turns) {
		return s.Turns
	}
	return s.Turns[len(s.Turns)-n:]
}

// SessionInfo is the listing view of a session.
type SessionInfo struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id,omitempty"`
	TurnCount int       `json:"turn_count"`
	UpdatedAt time.Time `json:"updated_at"`
}

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id           TEXT PRIMARY KEY,
	user_id      TEXT NOT NULL DEFAULT '',
	turns_json   TEXT NOT NULL DEFAULT '[]',
	flow_json    TEXT NOT NULL DEFAULT '{}',
	context_json TEXT NOT NULL DEFAULT '{}',
	updated_at   TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
);
CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);
`

// Store is the SQLite-backed conversation store.
type Store struct {
	db *sql.DB
}

// Open creates the conversation database at path, applying the schema.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_foreign_keys=ON&_journal_mode=WAL&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open session database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping session database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize session schema: %w", err)
	}

	// SQLite handles concurrency best with a single writer connection.
	db.SetMaxOpenConns(1)

	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Load retrieves a session by id.
func (s *Store) Load(ctx context.Context, sessionID string) (*Session, error) {
	var sess Session
	var turnsJSON, flowJSON, contextJSON, updatedAt string

	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, turns_json, flow_json, context_json, updated_at
		FROM sessions WHERE id = ?`, sessionID).
		Scan(&sess.ID, &sess.UserID, &turnsJSON, &flowJSON, &contextJSON, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrSessionNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	if err := json.Unmarshal([]byte(turnsJSON), &sess.Turns); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session turns: %w", err)
	}
	if err := json.Unmarshal([]byte(flowJSON), &sess.Flow); err != nil {
		return nil, fmt.Errorf("failed to unmarshal flow metadata: %w", err)
	}
	if err := json.Unmarshal([]byte(contextJSON), &sess.Context); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session context: %w", err)
	}
	if sess.Context == nil {
		sess.Context = make(map[string]string)
	}
	if t, err := time.Parse("2006-01-02T15:04:05.000Z", updatedAt); err == nil {
		sess.UpdatedAt = t
	}

	return &sess, nil
}

// Save persists the whole session document, replacing any previous version.
// Turns are trimmed to the most recent MaxTurns. Concurrent saves are
// last-writer-wins.
func (s *Store) Save(ctx context.Context, sess *Session) error {
	if len(sess.Turns) > MaxTurns {
		sess.Turns = sess.Turns[len(sess.Turns)-MaxTurns:]
	}

	turnsJSON, err := json.Marshal(sess.Turns)
	if err != nil {
		return fmt.Errorf("failed to marshal session turns: %w", err)
	}
	flowJSON, err := json.Marshal(sess.Flow)
	if err != nil {
		return fmt.Errorf("failed to marshal flow metadata: %w", err)
	}
	contextJSON, err := json.Marshal(sess.Context)
	if err != nil {
		return fmt.Errorf("failed to marshal session context: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, user_id, turns_json, flow_json, context_json, updated_at)
		VALUES (?, ?, ?, ?, ?, strftime('%Y-%m-%dT%H:%M:%fZ','now'))
		ON CONFLICT(id) DO UPDATE SET
			user_id      = excluded.user_id,
			turns_json   = excluded.turns_json,
			flow_json    = excluded.flow_json,
			context_json = excluded.context_json,
			updated_at   = strftime('%Y-%m-%dT%H:%M:%fZ','now')`,
		sess.ID, sess.UserID, string(turnsJSON), string(flowJSON), string(contextJSON))
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// List returns session summaries, optionally filtered by user, newest first.
func (s *Store) List(ctx context.Context, userID string) ([]SessionInfo, error) {
	query := `
		SELECT id, user_id, turns_json, updated_at FROM sessions
		ORDER BY updated_at DESC`
	args := []any{}
	if userID != "" {
		query = `
		SELECT id, user_id, turns_json, updated_at FROM sessions
		WHERE user_id = ? ORDER BY updated_at DESC`
		args = append(args, userID)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var infos []SessionInfo
	for rows.Next() {
		var info SessionInfo
		var turnsJSON, updatedAt string
		if err := rows.Scan(&info.ID, &info.UserID, &turnsJSON, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		var turns []Turn
		if err := json.Unmarshal([]byte(turnsJSON), &turns); err == nil {
			info.TurnCount = len(turns)
		}
		if t, err := time.Parse("2006-01-02T15:04:05.000Z", updatedAt); err == nil {
			info.UpdatedAt = t
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("session row iteration error: %w", err)
	}
	return infos, nil
}

// Delete removes a session.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("session %s: %w", sessionID, ErrSessionNotFound)
	}
	return nil
}
