package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/podiumhq/podium/internal/domain/metric"
)

// MemoryItemStore implements ItemStore with mutex-guarded maps. Suitable for
// tests and single-process deployments.
type MemoryItemStore struct {
	mu sync.RWMutex
	// session_id -> idx -> item
	items map[string]map[int]metric.SessionItem
}

// NewMemoryItemStore creates an empty in-memory item store.
func NewMemoryItemStore() *MemoryItemStore {
	return &MemoryItemStore{items: make(map[string]map[int]metric.SessionItem)}
}

// Upsert writes the item, overwriting any previous record with the same
// (session_id, idx) key.
func (s *MemoryItemStore) Upsert(_ context.Context, item metric.SessionItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bucket, ok := s.items[item.SessionID]
	if !ok {
		bucket = make(map[int]metric.SessionItem)
		s.items[item.SessionID] = bucket
	}
	bucket[item.Idx] = item
	return nil
}

// ListBySession returns a copied snapshot sorted by idx.
func (s *MemoryItemStore) ListBySession(_ context.Context, sessionID string) ([]metric.SessionItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bucket := s.items[sessionID]
	out := make([]metric.SessionItem, 0, len(bucket))
	for _, item := range bucket {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Idx < out[j].Idx })
	return out, nil
}

// DeleteSession removes all items for the session.
func (s *MemoryItemStore) DeleteSession(_ context.Context, sessionID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.items[sessionID])
	delete(s.items, sessionID)
	return n, nil
}

// PurgeOlderThan removes items with a timestamp before cutoff.
func (s *MemoryItemStore) PurgeOlderThan(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for sessionID, bucket := range s.items {
		for idx, item := range bucket {
			if item.Timestamp.Before(cutoff) {
				delete(bucket, idx)
				n++
			}
		}
		if len(bucket) == 0 {
			delete(s.items, sessionID)
		}
	}
	return n, nil
}

// Count returns the total number of stored items.
func (s *MemoryItemStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, bucket := range s.items {
		n += len(bucket)
	}
	return n
}

// MemorySessionStore implements SessionStore in memory. Insert order is kept
// so "newest" queries are deterministic even with equal timestamps.
type MemorySessionStore struct {
	mu    sync.RWMutex
	docs  map[string]metric.CompletedSession
	order []string // ids in insertion order
}

// NewMemorySessionStore creates an empty in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{docs: make(map[string]metric.CompletedSession)}
}

// Insert stores the document under a generated uuid.
func (s *MemorySessionStore) Insert(_ context.Context, doc metric.CompletedSession) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	doc.ID = id
	s.docs[id] = doc
	s.order = append(s.order, id)
	return id, nil
}

// Get returns the document with the given id.
func (s *MemorySessionStore) Get(_ context.Context, id string) (metric.CompletedSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[id]
	if !ok {
		return metric.CompletedSession{}, ErrNotFound
	}
	return doc, nil
}

// GetBySessionID returns the most recently inserted document for the logical
// session id.
func (s *MemorySessionStore) GetBySessionID(_ context.Context, sessionID string) (metric.CompletedSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := len(s.order) - 1; i >= 0; i-- {
		doc := s.docs[s.order[i]]
		if doc.SessionID == sessionID {
			return doc, nil
		}
	}
	return metric.CompletedSession{}, ErrNotFound
}

// ListByUser returns up to limit documents for the user, newest first.
func (s *MemorySessionStore) ListByUser(_ context.Context, username string, limit int) ([]metric.CompletedSession, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]metric.CompletedSession, 0, limit)
	for i := len(s.order) - 1; i >= 0 && len(out) < limit; i-- {
		doc := s.docs[s.order[i]]
		if doc.Username == username {
			out = append(out, doc)
		}
	}
	return out, nil
}

// Count returns the number of stored documents.
func (s *MemorySessionStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}
