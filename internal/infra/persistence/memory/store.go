// Package memory provides an in-memory session archive for tests and
// ephemeral runs.
package memory

import (
	"context"
	"fmt"
	"sync"

	"bestiary/pkg/domain"
)

var _ domain.ArchiveStore = (*Store)(nil)

// Store keeps archived sessions in a map keyed by session ID.
type Store struct {
	mu      sync.RWMutex
	records map[string]domain.SessionRecord
	closed  bool
}

// NewStore returns an empty archive.
func NewStore() *Store {
	return &Store{records: make(map[string]domain.SessionRecord)}
}

// Save implements domain.ArchiveStore.
func (s *Store) Save(ctx context.Context, record domain.SessionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if record.SessionID == "" {
		return fmt.Errorf("save session: empty session id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("save session: store closed")
	}
	if _, exists := s.records[record.SessionID]; exists {
		return fmt.Errorf("save %s: %w", record.SessionID, domain.ErrSessionExists)
	}
	s.records[record.SessionID] = domain.CloneSessionRecord(record)
	return nil
}

// Get implements domain.ArchiveStore.
func (s *Store) Get(ctx context.Context, sessionID string) (domain.SessionRecord, error) {
	if err := ctx.Err(); err != nil {
		return domain.SessionRecord{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[sessionID]
	if !ok {
		return domain.SessionRecord{}, fmt.Errorf("get %s: %w", sessionID, domain.ErrSessionNotFound)
	}
	return domain.CloneSessionRecord(rec), nil
}

// List implements domain.ArchiveStore.
func (s *Store) List(ctx context.Context) ([]domain.SessionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := make([]domain.SessionRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, domain.CloneSessionRecord(rec))
	}
	s.mu.RUnlock()
	domain.SortSessionRecords(out)
	return out, nil
}

// Close marks the store closed; later saves fail. Reads keep working.
func (s *Store) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
