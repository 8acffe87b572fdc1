package domain

import (
	"context"
	"errors"
	"sort"
	"time"
)

// SessionRecord is the archived form of a resolved inference session.
type SessionRecord struct {
	SessionID      string         `json:"session_id"`
	Strategy       string         `json:"strategy"`
	Observed       []Assignment   `json:"observed"`
	Firings        []Firing       `json:"firings"`
	Classification Classification `json:"classification"`
	Passes         int            `json:"passes"`
	StartedAt      time.Time      `json:"started_at"`
	ResolvedAt     time.Time      `json:"resolved_at"`
}

// ArchiveStore persists resolved sessions. Records are immutable once saved.
type ArchiveStore interface {
	// Save stores a record. It fails with ErrSessionExists if the ID was already saved.
	Save(ctx context.Context, record SessionRecord) error
	// Get returns the record or ErrSessionNotFound.
	Get(ctx context.Context, sessionID string) (SessionRecord, error)
	// List returns records ordered by ResolvedAt then SessionID, oldest first.
	List(ctx context.Context) ([]SessionRecord, error)
	Close() error
}

var (
	// ErrSessionExists is returned when a session ID is archived twice.
	ErrSessionExists = errors.New("session already archived")
	// ErrSessionNotFound is returned when no archived record matches.
	ErrSessionNotFound = errors.New("session not found")
)

// CloneSessionRecord deep-copies a record's slices.
func CloneSessionRecord(r SessionRecord) SessionRecord {
	cp := r
	cp.Observed = append([]Assignment(nil), r.Observed...)
	cp.Firings = append([]Firing(nil), r.Firings...)
	return cp
}

// SortSessionRecords orders records by ResolvedAt then SessionID, the order
// every ArchiveStore.List returns.
func SortSessionRecords(records []SessionRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if !a.ResolvedAt.Equal(b.ResolvedAt) {
			return a.ResolvedAt.Before(b.ResolvedAt)
		}
		return a.SessionID < b.SessionID
	})
}
