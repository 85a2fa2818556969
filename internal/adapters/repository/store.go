// Package repository defines the session storage interfaces and errors.
//
// Two stores back the pipeline: ItemStore holds the raw per-question records
// that feed finalization, SessionStore holds the finalized documents. Both
// have an in-memory implementation (default) and a sqlite-backed one.
package repository

import (
	"context"
	"time"

	"github.com/podiumhq/podium/internal/domain/metric"
)

// ItemStore provides access to raw per-question session items.
type ItemStore interface {
	// Upsert writes an item keyed by (session_id, idx). Re-submission of the
	// same key overwrites in place; last write wins, never duplicates.
	Upsert(ctx context.Context, item metric.SessionItem) error

	// ListBySession returns a snapshot of all items for a session, sorted by
	// idx. Writes racing with the read are not reflected in the snapshot.
	ListBySession(ctx context.Context, sessionID string) ([]metric.SessionItem, error)

	// DeleteSession removes all items for a session and returns how many
	// were deleted.
	DeleteSession(ctx context.Context, sessionID string) (int, error)

	// PurgeOlderThan removes items with a timestamp before cutoff and
	// returns how many were deleted. Used by the retention sweep to drop
	// raw items of sessions that were never finalized.
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int, error)

	// Count returns the number of items across all sessions.
	Count(ctx context.Context) int
}

// SessionStore provides access to finalized session documents.
type SessionStore interface {
	// Insert persists a completed session and returns its generated id.
	// Documents are append-only; there is no update path.
	Insert(ctx context.Context, doc metric.CompletedSession) (string, error)

	// Get returns the document with the given store id.
	// Returns ErrNotFound if it does not exist.
	Get(ctx context.Context, id string) (metric.CompletedSession, error)

	// GetBySessionID returns the newest document finalized for a logical
	// session id. Returns ErrNotFound if none exists.
	GetBySessionID(ctx context.Context, sessionID string) (metric.CompletedSession, error)

	// ListByUser returns the newest documents for a user, newest first.
	ListByUser(ctx context.Context, username string, limit int) ([]metric.CompletedSession, error)

	// Count returns the number of finalized documents.
	Count(ctx context.Context) int
}
