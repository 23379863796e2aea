// Package runner wires one pipeline execution together:
// fetch → filter → sweep → reconcile → dispatch.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/nvbach/questwatch/internal/alert"
	"github.com/nvbach/questwatch/internal/core"
	"github.com/nvbach/questwatch/internal/dispatch"
	"github.com/nvbach/questwatch/internal/filter"
	"github.com/nvbach/questwatch/internal/reconcile"
	"github.com/nvbach/questwatch/internal/seen"
	"github.com/nvbach/questwatch/internal/sources/discord"
)

type Runner struct {
	logger     *slog.Logger
	fetcher    discord.Fetcher
	filter     *filter.Filter
	store      seen.Store
	reconciler *reconcile.Reconciler
	dispatcher *dispatch.Dispatcher
	alerter    *alert.Alerter
	retention  time.Duration
	tracer     trace.Tracer
}

// Config collects the runner's collaborators. All of them are required
// except Alerter and Filter.
type Config struct {
	Logger     *slog.Logger
	Fetcher    discord.Fetcher
	Filter     *filter.Filter
	Store      seen.Store
	Reconciler *reconcile.Reconciler
	Dispatcher *dispatch.Dispatcher
	Alerter    *alert.Alerter
	Retention  time.Duration
}

func New(cfg Config) (*Runner, error) {
	if cfg.Fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if cfg.Reconciler == nil {
		return nil, fmt.Errorf("reconciler is required")
	}
	if cfg.Dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	retention := cfg.Retention
	if retention <= 0 {
		retention = 180 * 24 * time.Hour
	}
	return &Runner{
		logger:     logger,
		fetcher:    cfg.Fetcher,
		filter:     cfg.Filter,
		store:      cfg.Store,
		reconciler: cfg.Reconciler,
		dispatcher: cfg.Dispatcher,
		alerter:    cfg.Alerter,
		retention:  retention,
		tracer:     otel.Tracer("questwatch/runner"),
	}, nil
}

// RunOnce executes one full pipeline pass. It always returns a run summary;
// errors that abort the pass early are recorded on the run, never raised.
// Fetch and store failures abort before any notification; delivery failures
// are counted and the pass continues.
func (r *Runner) RunOnce(ctx context.Context) *core.Run {
	run := &core.Run{
		ID:        fmt.Sprintf("run-%d", time.Now().UnixNano()),
		StartedAt: time.Now().UTC(),
		Status:    core.RunStatusRunning,
	}

	logger := r.logger.With("run_id", run.ID)
	ctx = core.WithRunID(core.WithLogger(ctx, logger), run.ID)
	ctx, span := r.tracer.Start(ctx, "questwatch.run")
	defer span.End()

	quests, err := r.fetch(ctx)
	if err != nil {
		return r.fail(ctx, run, err)
	}
	run.Fetched = len(quests)

	core.SortQuestsByStartDesc(quests)

	if r.filter != nil {
		kept := r.filter.Apply(ctx, quests)
		run.Filtered = len(quests) - len(kept)
		quests = kept
	}

	swept, err := r.sweep(ctx)
	if err != nil {
		return r.fail(ctx, run, err)
	}
	run.Swept = swept

	result, err := r.reconcile(ctx, quests)
	if err != nil {
		return r.fail(ctx, run, err)
	}
	run.New = len(result.New)
	run.Removed = len(result.Removed)
	if result.Skipped {
		run.Status = core.RunStatusSkipped
		r.complete(run, logger)
		return run
	}

	if len(result.New) > 0 {
		sent, err := r.dispatch(ctx, result.New)
		run.Sent = sent.Sent
		run.Failed = sent.Failed
		if err != nil {
			// Cancellation mid-batch: the new set is already persisted, so
			// the store stays consistent; only notifications are lost.
			return r.fail(ctx, run, err)
		}
	} else {
		logger.Info("no new quests to send")
	}

	run.Status = core.RunStatusCompleted
	r.complete(run, logger)
	return run
}

// Start consumes trigger events until the context is cancelled, executing
// one run per event.
func (r *Runner) Start(ctx context.Context, events <-chan core.TriggerEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			r.logger.Info("trigger event", "time", event.Timestamp)
			run := r.RunOnce(ctx)
			if run.Status == core.RunStatusFailed {
				r.logger.Error("run failed", "run_id", run.ID, "error", run.Error)
			}
		}
	}
}

// SendQuest fetches the current snapshot and dispatches the named quest
// out-of-band, without consulting or mutating the seen store.
func (r *Runner) SendQuest(ctx context.Context, questID string) (*core.Run, error) {
	quests, err := r.fetch(ctx)
	if err != nil {
		return nil, err
	}
	for _, q := range quests {
		if q.ID == questID {
			return r.sendOutOfBand(ctx, q)
		}
	}
	return nil, fmt.Errorf("quest %q not found in current snapshot", questID)
}

// SendLatest dispatches the most recently activated quest regardless of seen
// state. Useful for verifying destinations end to end.
func (r *Runner) SendLatest(ctx context.Context) (*core.Run, error) {
	quests, err := r.fetch(ctx)
	if err != nil {
		return nil, err
	}
	if len(quests) == 0 {
		return nil, fmt.Errorf("no quests available")
	}
	core.SortQuestsByStartDesc(quests)
	return r.sendOutOfBand(ctx, quests[0])
}

func (r *Runner) sendOutOfBand(ctx context.Context, quest core.Quest) (*core.Run, error) {
	run := &core.Run{
		ID:        fmt.Sprintf("run-%d", time.Now().UnixNano()),
		StartedAt: time.Now().UTC(),
		Status:    core.RunStatusRunning,
	}
	ctx = core.WithLogger(ctx, r.logger.With("run_id", run.ID))

	result, err := r.dispatcher.Dispatch(ctx, []core.Quest{quest})
	run.Sent = result.Sent
	run.Failed = result.Failed
	if err != nil {
		return r.fail(ctx, run, err), err
	}
	run.Status = core.RunStatusCompleted
	r.complete(run, r.logger)
	return run, nil
}

func (r *Runner) fetch(ctx context.Context) ([]core.Quest, error) {
	ctx, span := r.tracer.Start(ctx, "questwatch.fetch")
	defer span.End()

	quests, err := r.fetcher.Fetch(ctx)
	if err != nil {
		var authErr *discord.AuthError
		if errors.As(err, &authErr) {
			r.alerter.Alert(ctx, fmt.Sprintf(
				"❌ Quest API auth error (%d). Tokens may be expired. Please refresh DISCORD_AUTHORIZATION and TOKEN_JWT.",
				authErr.StatusCode,
			))
		}
		return nil, err
	}
	span.SetAttributes(attribute.Int("quests.fetched", len(quests)))
	return quests, nil
}

func (r *Runner) sweep(ctx context.Context) (int, error) {
	removed, err := r.store.DeleteOlderThan(ctx, r.retention)
	if err != nil {
		return 0, fmt.Errorf("retention sweep: %w", err)
	}
	if removed > 0 {
		core.LoggerFromContext(ctx).Info("retention sweep pruned entries", "removed", removed)
	}
	return int(removed), nil
}

func (r *Runner) reconcile(ctx context.Context, quests []core.Quest) (reconcile.Result, error) {
	ctx, span := r.tracer.Start(ctx, "questwatch.reconcile")
	defer span.End()

	result, err := r.reconciler.Reconcile(ctx, quests)
	if err != nil {
		return reconcile.Result{}, err
	}
	span.SetAttributes(
		attribute.Int("quests.new", len(result.New)),
		attribute.Int("quests.removed", len(result.Removed)),
	)
	return result, nil
}

func (r *Runner) dispatch(ctx context.Context, quests []core.Quest) (dispatch.Result, error) {
	ctx, span := r.tracer.Start(ctx, "questwatch.dispatch")
	defer span.End()

	result, err := r.dispatcher.Dispatch(ctx, quests)
	span.SetAttributes(
		attribute.Int("notifications.sent", result.Sent),
		attribute.Int("notifications.failed", result.Failed),
	)
	return result, err
}

func (r *Runner) fail(ctx context.Context, run *core.Run, err error) *core.Run {
	run.Status = core.RunStatusFailed
	run.Error = err.Error()
	completedAt := time.Now().UTC()
	run.CompletedAt = &completedAt
	core.LoggerFromContext(ctx).Error("run aborted", "error", err)
	return run
}

func (r *Runner) complete(run *core.Run, logger *slog.Logger) {
	completedAt := time.Now().UTC()
	run.CompletedAt = &completedAt
	logger.Info("run completed",
		"status", string(run.Status),
		"fetched", run.Fetched,
		"filtered", run.Filtered,
		"new", run.New,
		"removed", run.Removed,
		"swept", run.Swept,
		"sent", run.Sent,
		"failed", run.Failed,
	)
}
