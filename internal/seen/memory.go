package seen

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store used in tests and anywhere persistence
// is not wanted. Safe for concurrent use, though the pipeline itself is
// single-writer.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]time.Time)}
}

func (s *MemoryStore) Upsert(ctx context.Context, id string, seenAt time.Time) error {
	_ = ctx
	if id == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[id] = seenAt.UTC()
	return nil
}

func (s *MemoryStore) IDs(ctx context.Context) (map[string]struct{}, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make(map[string]struct{}, len(s.entries))
	for id := range s.entries {
		ids[id] = struct{}{}
	}
	return ids, nil
}

func (s *MemoryStore) List(ctx context.Context) ([]Entry, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := make([]Entry, 0, len(s.entries))
	for id, seenAt := range s.entries {
		entries = append(entries, Entry{ID: id, SeenAt: seenAt})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].SeenAt.Equal(entries[j].SeenAt) {
			return entries[i].ID < entries[j].ID
		}
		return entries[i].SeenAt.After(entries[j].SeenAt)
	})
	return entries, nil
}

func (s *MemoryStore) DeleteMany(ctx context.Context, ids []string) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.entries, id)
	}
	return nil
}

func (s *MemoryStore) DeleteAll(ctx context.Context) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]time.Time)
	return nil
}

func (s *MemoryStore) DeleteOlderThan(ctx context.Context, horizon time.Duration) (int64, error) {
	_ = ctx
	cutoff := time.Now().UTC().Add(-horizon)
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed int64
	for id, seenAt := range s.entries {
		if seenAt.Before(cutoff) {
			delete(s.entries, id)
			removed++
		}
	}
	return removed, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
