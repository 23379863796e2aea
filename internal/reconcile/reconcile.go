// Package reconcile diffs an upstream quest snapshot against the persisted
// seen-set and mutates the store to match it. The upstream exposes no change
// feed, only full snapshots, so this package is where new-quest detection
// actually happens.
package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/nvbach/questwatch/internal/core"
	"github.com/nvbach/questwatch/internal/seen"
)

// Result reports one reconciliation pass.
type Result struct {
	// New holds full records for quests that appeared since the last pass,
	// in snapshot order. These are already persisted when Reconcile returns.
	New []core.Quest
	// Removed lists ids deleted from the store because they no longer
	// appear upstream. Never notified on.
	Removed []string
	// SeenIDs is the post-reconcile stored id set.
	SeenIDs map[string]struct{}
	// Skipped is true when an empty snapshot was treated as suspect and the
	// store was left untouched.
	Skipped bool
}

type Option func(*Reconciler)

// WithTrustEmptySnapshot makes an empty-but-valid snapshot authoritative:
// reconciling against it purges every stored entry. The default treats an
// empty snapshot as suspect and skips the pass.
func WithTrustEmptySnapshot(trust bool) Option {
	return func(r *Reconciler) { r.trustEmpty = trust }
}

// WithClock overrides the first-seen timestamp source.
func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) { r.now = now }
}

type Reconciler struct {
	store      seen.Store
	trustEmpty bool
	now        func() time.Time
}

func New(store seen.Store, opts ...Option) *Reconciler {
	r := &Reconciler{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reconcile computes the snapshot delta and updates the store.
//
// Ordering matters for crash safety: the stored set is read before any
// mutation, new ids are determined against that pre-mutation set, and each
// new id is persisted before the caller gets a chance to notify on it. A
// crash between persist and notify loses at most the notification, never the
// store's consistency, and the next run will not double-notify.
func (r *Reconciler) Reconcile(ctx context.Context, quests []core.Quest) (Result, error) {
	logger := core.LoggerFromContext(ctx)

	if len(quests) == 0 && !r.trustEmpty {
		logger.Warn("empty snapshot treated as suspect, skipping reconciliation")
		stored, err := r.store.IDs(ctx)
		if err != nil {
			return Result{}, fmt.Errorf("read seen ids: %w", err)
		}
		return Result{SeenIDs: stored, Skipped: true}, nil
	}

	stored, err := r.store.IDs(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("read seen ids: %w", err)
	}

	current := core.QuestIDs(quests)
	result := Result{SeenIDs: current}

	firstSeen := r.now()
	for _, quest := range quests {
		if _, ok := stored[quest.ID]; ok {
			// Re-observation keeps the original first-seen timestamp, so
			// retention measures true age.
			continue
		}
		if err := r.store.Upsert(ctx, quest.ID, firstSeen); err != nil {
			return Result{}, fmt.Errorf("persist new quest %s: %w", quest.ID, err)
		}
		result.New = append(result.New, quest)
	}

	for id := range stored {
		if _, ok := current[id]; !ok {
			result.Removed = append(result.Removed, id)
		}
	}
	if err := r.store.DeleteMany(ctx, result.Removed); err != nil {
		return Result{}, fmt.Errorf("remove expired quests: %w", err)
	}

	if len(result.New) > 0 || len(result.Removed) > 0 {
		logger.Info("reconciled snapshot",
			"snapshot", len(quests),
			"new", len(result.New),
			"removed", len(result.Removed),
		)
	}
	return result, nil
}
