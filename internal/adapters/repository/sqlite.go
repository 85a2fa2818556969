package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // registers the pure-Go sqlite driver

	"github.com/podiumhq/podium/internal/domain/metric"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS session_items (
	session_id TEXT    NOT NULL,
	idx        INTEGER NOT NULL,
	ts         INTEGER NOT NULL DEFAULT 0,
	doc        TEXT    NOT NULL,
	PRIMARY KEY (session_id, idx)
);
CREATE INDEX IF NOT EXISTS ix_items_ts ON session_items (ts);
CREATE TABLE IF NOT EXISTS completed_sessions (
	id         TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	username   TEXT NOT NULL,
	doc        TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS ix_completed_session ON completed_sessions (session_id);
CREATE INDEX IF NOT EXISTS ix_completed_user ON completed_sessions (username);
`

// SQLite bundles the durable store backends over one database handle.
// Documents are stored as JSON; the key columns exist only for lookups, so
// old schema versions stay readable without re-aggregation.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (and if needed creates) the database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create sqlite schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Close releases the database handle.
func (s *SQLite) Close() error { return s.db.Close() }

// Items returns the ItemStore view.
func (s *SQLite) Items() ItemStore { return &sqliteItems{db: s.db} }

// Sessions returns the SessionStore view.
func (s *SQLite) Sessions() SessionStore { return &sqliteSessions{db: s.db} }

type sqliteItems struct {
	db *sql.DB
}

func (s *sqliteItems) Upsert(ctx context.Context, item metric.SessionItem) error {
	doc, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("encode session item: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO session_items (session_id, idx, ts, doc) VALUES (?, ?, ?, ?)
		 ON CONFLICT (session_id, idx) DO UPDATE SET ts = excluded.ts, doc = excluded.doc`,
		item.SessionID, item.Idx, item.Timestamp.UnixMilli(), string(doc),
	)
	if err != nil {
		return fmt.Errorf("upsert session item: %w", err)
	}
	return nil
}

func (s *sqliteItems) ListBySession(ctx context.Context, sessionID string) ([]metric.SessionItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT doc FROM session_items WHERE session_id = ? ORDER BY idx ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list session items: %w", err)
	}
	defer rows.Close()

	var out []metric.SessionItem
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan session item: %w", err)
		}
		var item metric.SessionItem
		if err := json.Unmarshal([]byte(doc), &item); err != nil {
			return nil, fmt.Errorf("decode session item: %w", err)
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (s *sqliteItems) DeleteSession(ctx context.Context, sessionID string) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM session_items WHERE session_id = ?`, sessionID)
	if err != nil {
		return 0, fmt.Errorf("delete session items: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (s *sqliteItems) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM session_items WHERE ts < ?`, cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("purge session items: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (s *sqliteItems) Count(ctx context.Context) int {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM session_items`).Scan(&n); err != nil {
		return 0
	}
	return n
}

type sqliteSessions struct {
	db *sql.DB
}

func (s *sqliteSessions) Insert(ctx context.Context, doc metric.CompletedSession) (string, error) {
	id := uuid.NewString()
	doc.ID = id
	raw, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encode completed session: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO completed_sessions (id, session_id, username, doc) VALUES (?, ?, ?, ?)`,
		id, doc.SessionID, doc.Username, string(raw),
	)
	if err != nil {
		return "", fmt.Errorf("insert completed session: %w", err)
	}
	return id, nil
}

func (s *sqliteSessions) Get(ctx context.Context, id string) (metric.CompletedSession, error) {
	return s.one(ctx, `SELECT doc FROM completed_sessions WHERE id = ?`, id)
}

func (s *sqliteSessions) GetBySessionID(ctx context.Context, sessionID string) (metric.CompletedSession, error) {
	return s.one(ctx,
		`SELECT doc FROM completed_sessions WHERE session_id = ? ORDER BY rowid DESC LIMIT 1`, sessionID)
}

func (s *sqliteSessions) one(ctx context.Context, query string, arg any) (metric.CompletedSession, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return metric.CompletedSession{}, ErrNotFound
	}
	if err != nil {
		return metric.CompletedSession{}, fmt.Errorf("get completed session: %w", err)
	}
	var doc metric.CompletedSession
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return metric.CompletedSession{}, fmt.Errorf("decode completed session: %w", err)
	}
	return doc, nil
}

func (s *sqliteSessions) ListByUser(ctx context.Context, username string, limit int) ([]metric.CompletedSession, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT doc FROM completed_sessions WHERE username = ? ORDER BY rowid DESC LIMIT ?`,
		username, limit)
	if err != nil {
		return nil, fmt.Errorf("list completed sessions: %w", err)
	}
	defer rows.Close()

	var out []metric.CompletedSession
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan completed session: %w", err)
		}
		var doc metric.CompletedSession
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			return nil, fmt.Errorf("decode completed session: %w", err)
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

func (s *sqliteSessions) Count(ctx context.Context) int {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM completed_sessions`).Scan(&n); err != nil {
		return 0
	}
	return n
}
