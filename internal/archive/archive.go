// Package archive selects the session archive backend. It is the only
// package allowed to import the persistence drivers.
package archive

import (
	"context"
	"fmt"

	"bestiary/internal/config"
	"bestiary/internal/infra/persistence/memory"
	"bestiary/internal/infra/persistence/postgres"
	"bestiary/internal/infra/persistence/sqlite"
	"bestiary/pkg/domain"
)

type (
	// Store persists resolved sessions.
	Store = domain.ArchiveStore
	// Record is one archived session.
	Record = domain.SessionRecord
)

var (
	ErrExists   = domain.ErrSessionExists
	ErrNotFound = domain.ErrSessionNotFound
)

// Open builds the store named by cfg.Driver. It returns a nil Store and no
// error when archiving is disabled.
//
//	memory   process-local, lost on exit
//	sqlite   cfg.SQLitePath (default bestiary.db)
//	postgres cfg.PostgresDSN
func Open(ctx context.Context, cfg config.Archive) (Store, error) {
	switch cfg.Driver {
	case "", config.ArchiveNone:
		return nil, nil
	case config.ArchiveMemory:
		return memory.NewStore(), nil
	case config.ArchiveSQLite:
		return sqlite.NewStore(ctx, cfg.SQLitePath)
	case config.ArchivePostgres:
		return postgres.NewStore(ctx, cfg.PostgresDSN)
	default:
		return nil, fmt.Errorf("unknown archive driver %s", cfg.Driver)
	}
}

// Recent returns up to limit records, newest last. A limit of zero or less
// returns everything.
func Recent(ctx context.Context, store Store, limit int) ([]Record, error) {
	records, err := store.List(ctx)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(records) > limit {
		records = records[len(records)-limit:]
	}
	return records, nil
}
