package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists sessions in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and migrates it.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.Migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Migrate creates the schema if needed.
func (s *SQLiteStore) Migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			exercise TEXT NOT NULL,
			started_at DATETIME NOT NULL,
			ended_at DATETIME,
			rest_durations TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS repetitions (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			start_time REAL NOT NULL,
			end_time REAL NOT NULL,
			confidence REAL NOT NULL,
			logged_at DATETIME NOT NULL,
			FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_repetitions_session ON repetitions(session_id, start_time)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_started ON sessions(started_at DESC)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// SaveSession inserts or updates the session header.
func (s *SQLiteStore) SaveSession(ctx context.Context, sess *Session) error {
	rests, err := json.Marshal(sess.RestDurations)
	if err != nil {
		return fmt.Errorf("failed to marshal rest durations: %w", err)
	}

	var ended sql.NullTime
	if sess.EndedAt != nil {
		ended = sql.NullTime{Time: *sess.EndedAt, Valid: true}
	}

	query := `INSERT INTO sessions (id, exercise, started_at, ended_at, rest_durations)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			ended_at = excluded.ended_at,
			rest_durations = excluded.rest_durations`

	if _, err := s.db.ExecContext(ctx, query, sess.ID, sess.Exercise, sess.StartedAt, ended, string(rests)); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// SaveRepetition inserts a repetition.
func (s *SQLiteStore) SaveRepetition(ctx context.Context, r Repetition) error {
	query := `INSERT INTO repetitions (id, session_id, start_time, end_time, confidence, logged_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	if _, err := s.db.ExecContext(ctx, query, r.ID, r.SessionID, r.StartTime, r.EndTime, r.Confidence, r.LoggedAt); err != nil {
		return fmt.Errorf("failed to save repetition: %w", err)
	}
	return nil
}

// GetSession loads a session with its repetitions.
func (s *SQLiteStore) GetSession(ctx context.Context, id string) (*Session, error) {
	query := `SELECT id, exercise, started_at, ended_at, rest_durations FROM sessions WHERE id = ?`

	sess, err := scanSession(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	reps, err := s.repetitions(ctx, id)
	if err != nil {
		return nil, err
	}
	sess.Repetitions = reps
	return sess, nil
}

// ListSessions returns sessions newest first, with repetitions. limit <= 0
// means no limit.
func (s *SQLiteStore) ListSessions(ctx context.Context, limit int) ([]*Session, error) {
	query := `SELECT id, exercise, started_at, ended_at, rest_durations FROM sessions ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	rows.Close()

	for _, sess := range sessions {
		if sess.Repetitions, err = s.repetitions(ctx, sess.ID); err != nil {
			return nil, err
		}
	}
	return sessions, nil
}

func (s *SQLiteStore) repetitions(ctx context.Context, sessionID string) ([]Repetition, error) {
	query := `SELECT id, session_id, start_time, end_time, confidence, logged_at
		FROM repetitions WHERE session_id = ? ORDER BY start_time`

	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list repetitions: %w", err)
	}
	defer rows.Close()

	reps := []Repetition{}
	for rows.Next() {
		var r Repetition
		if err := rows.Scan(&r.ID, &r.SessionID, &r.StartTime, &r.EndTime, &r.Confidence, &r.LoggedAt); err != nil {
			return nil, fmt.Errorf("failed to scan repetition: %w", err)
		}
		reps = append(reps, r)
	}
	return reps, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*Session, error) {
	var sess Session
	var ended sql.NullTime
	var rests sql.NullString

	if err := row.Scan(&sess.ID, &sess.Exercise, &sess.StartedAt, &ended, &rests); err != nil {
		return nil, err
	}
	if ended.Valid {
		t := ended.Time
		sess.EndedAt = &t
	}
	if rests.Valid && rests.String != "" {
		if err := json.Unmarshal([]byte(rests.String), &sess.RestDurations); err != nil {
			return nil, fmt.Errorf("failed to unmarshal rest durations: %w", err)
		}
	}
	return &sess, nil
}
