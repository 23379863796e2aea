package seen

import (
	"context"
	"time"
)

// Entry is one persisted seen-set row: a quest identifier and the time it
// was first observed in an upstream snapshot.
type Entry struct {
	ID     string
	SeenAt time.Time
}

// Store tracks quest identifiers that have already been notified on.
// Implementations assume a single writer per process; each operation must be
// individually atomic, but no transaction spans multiple calls.
type Store interface {
	// Upsert records an id as seen. Idempotent: on conflict the timestamp is
	// replaced, never an error.
	Upsert(ctx context.Context, id string, seenAt time.Time) error
	// IDs returns every currently stored id.
	IDs(ctx context.Context) (map[string]struct{}, error)
	// List returns all entries ordered by seen time, most recent first.
	List(ctx context.Context) ([]Entry, error)
	// DeleteMany removes the given ids. Absent ids are not an error.
	DeleteMany(ctx context.Context, ids []string) error
	// DeleteAll clears the store, marking everything as new again.
	DeleteAll(ctx context.Context) error
	// DeleteOlderThan removes entries seen before now minus horizon and
	// returns how many were removed.
	DeleteOlderThan(ctx context.Context, horizon time.Duration) (int64, error)
	Close() error
}
