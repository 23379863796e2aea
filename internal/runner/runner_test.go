package runner

import (
	"context"
	"testing"
	"time"

	"github.com/nvbach/questwatch/internal/alert"
	"github.com/nvbach/questwatch/internal/config"
	"github.com/nvbach/questwatch/internal/core"
	"github.com/nvbach/questwatch/internal/dispatch"
	"github.com/nvbach/questwatch/internal/filter"
	sendermock "github.com/nvbach/questwatch/internal/outputs/webhook/mock"
	"github.com/nvbach/questwatch/internal/reconcile"
	"github.com/nvbach/questwatch/internal/render"
	"github.com/nvbach/questwatch/internal/seen"
	"github.com/nvbach/questwatch/internal/sources/discord"
	fetchermock "github.com/nvbach/questwatch/internal/sources/discord/mock"
)

type harness struct {
	runner  *Runner
	fetcher *fetchermock.Fetcher
	sender  *sendermock.Sender
	store   *seen.MemoryStore
}

func newHarness(t *testing.T, opts ...func(*Config)) *harness {
	t.Helper()

	fetcher := &fetchermock.Fetcher{}
	sender := &sendermock.Sender{}
	store := seen.NewMemoryStore()

	renderer, err := render.NewRenderer("UTC")
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	renderer.WithColorFn(func() int { return 0x00b0f4 })

	dispatcher, err := dispatch.New(sender, renderer, []string{"https://hook.example/main"}, time.Millisecond)
	if err != nil {
		t.Fatalf("new dispatcher: %v", err)
	}

	cfg := Config{
		Fetcher:    fetcher,
		Store:      store,
		Reconciler: reconcile.New(store),
		Dispatcher: dispatcher,
		Alerter:    alert.New(sender, []string{"https://hook.example/alerts"}, nil),
		Retention:  180 * 24 * time.Hour,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	r, err := New(cfg)
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}
	return &harness{runner: r, fetcher: fetcher, sender: sender, store: store}
}

func questAt(id string, start time.Time) core.Quest {
	return core.Quest{
		ID:        id,
		Name:      "quest " + id,
		GameTitle: "game " + id,
		StartsAt:  start,
		ExpiresAt: start.Add(14 * 24 * time.Hour),
	}
}

func TestRunOnceNotifiesOnlyNewQuests(t *testing.T) {
	h := newHarness(t)
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	h.fetcher.Quests = []core.Quest{questAt("a", base), questAt("b", base.Add(time.Hour))}

	run := h.runner.RunOnce(context.Background())
	if run.Status != core.RunStatusCompleted {
		t.Fatalf("run status = %s (%s)", run.Status, run.Error)
	}
	if run.Fetched != 2 || run.New != 2 || run.Sent != 2 || run.Failed != 0 {
		t.Fatalf("run = %+v", run)
	}
	// Most recently activated first.
	if h.sender.Deliveries[0].Message.Embeds[0].Footer.Text != "ID: b" {
		t.Fatalf("first delivery = %+v", h.sender.Deliveries[0].Message.Embeds[0].Footer)
	}

	// Second pass over the same snapshot: nothing new, nothing sent.
	h.sender.Deliveries = nil
	run = h.runner.RunOnce(context.Background())
	if run.New != 0 || run.Sent != 0 {
		t.Fatalf("second run = %+v, want no new quests", run)
	}
	if len(h.sender.Deliveries) != 0 {
		t.Fatalf("second run must not re-notify, got %d deliveries", len(h.sender.Deliveries))
	}
}

func TestRunOnceAlertsOnAuthError(t *testing.T) {
	h := newHarness(t)
	h.fetcher.Err = &discord.AuthError{StatusCode: 401}

	run := h.runner.RunOnce(context.Background())
	if run.Status != core.RunStatusFailed {
		t.Fatalf("run status = %s", run.Status)
	}

	var alerted bool
	for _, d := range h.sender.Deliveries {
		if d.Endpoint == "https://hook.example/alerts" {
			alerted = true
		}
	}
	if !alerted {
		t.Fatalf("auth error must reach the alert channel")
	}

	ids, err := h.store.IDs(context.Background())
	if err != nil {
		t.Fatalf("ids failed: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("failed fetch must not mutate the store")
	}
}

func TestRunOnceFetchErrorAbortsWithoutAlert(t *testing.T) {
	h := newHarness(t)
	h.fetcher.Err = &discord.FetchError{Err: context.DeadlineExceeded}

	run := h.runner.RunOnce(context.Background())
	if run.Status != core.RunStatusFailed {
		t.Fatalf("run status = %s", run.Status)
	}
	if len(h.sender.Deliveries) != 0 {
		t.Fatalf("generic fetch errors are logged, not alerted")
	}
}

func TestRunOnceSkipsSuspectEmptySnapshot(t *testing.T) {
	h := newHarness(t)
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	h.fetcher.Quests = []core.Quest{questAt("a", base)}
	if run := h.runner.RunOnce(context.Background()); run.Status != core.RunStatusCompleted {
		t.Fatalf("seed run failed: %s", run.Error)
	}

	h.fetcher.Quests = nil
	run := h.runner.RunOnce(context.Background())
	if run.Status != core.RunStatusSkipped {
		t.Fatalf("run status = %s, want skipped", run.Status)
	}

	ids, err := h.store.IDs(context.Background())
	if err != nil {
		t.Fatalf("ids failed: %v", err)
	}
	if len(ids) != 1 {
		t.Fatalf("suspect empty snapshot must leave the store untouched")
	}
}

func TestRunOnceAppliesFilters(t *testing.T) {
	f, err := filter.New([]config.FilterRule{
		{Name: "drop-game-b", Rule: `game_title == "game b"`, Result: "drop"},
	})
	if err != nil {
		t.Fatalf("new filter: %v", err)
	}
	h := newHarness(t, func(cfg *Config) { cfg.Filter = f })

	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	h.fetcher.Quests = []core.Quest{questAt("a", base), questAt("b", base.Add(time.Hour))}

	run := h.runner.RunOnce(context.Background())
	if run.Filtered != 1 || run.New != 1 || run.Sent != 1 {
		t.Fatalf("run = %+v, want one quest filtered out", run)
	}

	ids, err := h.store.IDs(context.Background())
	if err != nil {
		t.Fatalf("ids failed: %v", err)
	}
	if _, ok := ids["b"]; ok {
		t.Fatalf("filtered quest must not be persisted")
	}
}

func TestRunOnceSweepsBeforeReconciling(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	// Seed an entry past the retention horizon for a quest still upstream.
	aged := time.Now().UTC().Add(-200 * 24 * time.Hour)
	if err := h.store.Upsert(ctx, "a", aged); err != nil {
		t.Fatalf("seed upsert: %v", err)
	}
	h.fetcher.Quests = []core.Quest{questAt("a", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))}

	run := h.runner.RunOnce(ctx)
	if run.Swept != 1 {
		t.Fatalf("swept = %d, want 1", run.Swept)
	}
	// The sweep made "a" unknown again, so it re-notifies.
	if run.New != 1 || run.Sent != 1 {
		t.Fatalf("run = %+v, want a re-notified", run)
	}
}

func TestSendQuestBypassesSeenState(t *testing.T) {
	h := newHarness(t)
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	h.fetcher.Quests = []core.Quest{questAt("a", base)}

	// Mark the quest seen first; out-of-band send must still deliver.
	if run := h.runner.RunOnce(context.Background()); run.Sent != 1 {
		t.Fatalf("seed run = %+v", run)
	}
	h.sender.Deliveries = nil

	run, err := h.runner.SendQuest(context.Background(), "a")
	if err != nil {
		t.Fatalf("send quest failed: %v", err)
	}
	if run.Sent != 1 {
		t.Fatalf("run = %+v", run)
	}

	if _, err := h.runner.SendQuest(context.Background(), "missing"); err == nil {
		t.Fatalf("expected error for unknown quest id")
	}
}

func TestSendLatestPicksMostRecent(t *testing.T) {
	h := newHarness(t)
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	h.fetcher.Quests = []core.Quest{questAt("old", base), questAt("new", base.Add(time.Hour))}

	run, err := h.runner.SendLatest(context.Background())
	if err != nil {
		t.Fatalf("send latest failed: %v", err)
	}
	if run.Sent != 1 {
		t.Fatalf("run = %+v", run)
	}
	if h.sender.Deliveries[0].Message.Embeds[0].Footer.Text != "ID: new" {
		t.Fatalf("delivery = %+v", h.sender.Deliveries[0].Message.Embeds[0].Footer)
	}
}
