package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nvbach/questwatch/internal/alert"
	"github.com/nvbach/questwatch/internal/config"
	"github.com/nvbach/questwatch/internal/dispatch"
	"github.com/nvbach/questwatch/internal/filter"
	"github.com/nvbach/questwatch/internal/observability/otelx"
	webhookimpl "github.com/nvbach/questwatch/internal/outputs/webhook/impl"
	"github.com/nvbach/questwatch/internal/reconcile"
	"github.com/nvbach/questwatch/internal/render"
	"github.com/nvbach/questwatch/internal/runner"
	"github.com/nvbach/questwatch/internal/seen"
	discordimpl "github.com/nvbach/questwatch/internal/sources/discord/impl"
	"github.com/nvbach/questwatch/internal/trigger"
)

func usage() {
	fmt.Fprintf(os.Stderr, `usage: questwatch [flags] [command]

commands:
  run             poll on the configured schedule (default)
  list            print the stored seen-set, newest first
  reset           delete every stored entry; the next run re-notifies everything
  sweep           prune entries older than the retention window
  send <quest-id> fetch the current snapshot and send one quest out-of-band
  latest          send the most recently activated quest out-of-band

flags:
`)
	flag.PrintDefaults()
}

func main() {
	env := config.LoadEnv()

	configPath := flag.String("config", env.ConfigPath, "path to questwatch document")
	runOnce := flag.Bool("once", env.RunOnce, "run a single pass and exit")
	flag.Usage = usage
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{}))
	slog.SetDefault(logger)

	doc, err := config.LoadDocument(*configPath)
	if err != nil {
		log.Fatalf("failed to load document: %v", err)
	}
	doc.ApplyEnvDefaults(env)
	if err := doc.Validate(); err != nil {
		log.Fatalf("invalid document: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdown, err := otelx.Init(ctx, logger, env.OTel)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	if shutdown != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdown(shutdownCtx)
		}()
	}

	store, err := seen.NewSQLiteStore(doc.Store.Path, doc.Store.Table)
	if err != nil {
		log.Fatalf("failed to open seen store: %v", err)
	}
	defer store.Close()

	command := flag.Arg(0)
	if command == "" {
		command = "run"
	}

	// Store-only commands work without credentials or destinations.
	switch command {
	case "list":
		if err := listSeen(ctx, store); err != nil {
			log.Fatalf("list failed: %v", err)
		}
		return
	case "reset":
		if err := store.DeleteAll(ctx); err != nil {
			log.Fatalf("reset failed: %v", err)
		}
		logger.Info("seen store cleared")
		return
	case "sweep":
		removed, err := store.DeleteOlderThan(ctx, doc.Retention.Std())
		if err != nil {
			log.Fatalf("sweep failed: %v", err)
		}
		logger.Info("sweep complete", "removed", removed)
		return
	}

	sender := webhookimpl.NewSender(env.Webhook.HTTPTimeout)
	var emailer alert.EmailSender
	if smtp := alert.NewSMTPSender(env.SMTP); smtp != nil {
		emailer = smtp
	}
	// Without a dedicated alert channel, operator notices go to the main
	// webhooks rather than nowhere.
	alertTargets := doc.AlertWebhooks
	if len(alertTargets) == 0 {
		alertTargets = doc.Webhooks
	}
	alerter := alert.New(sender, alertTargets, emailer)

	if env.Discord.Authorization == "" || env.Discord.SuperProperties == "" {
		alerter.Alert(ctx, "❌ DISCORD_AUTHORIZATION or TOKEN_JWT is missing. Quest polling cannot start.")
		log.Fatal("DISCORD_AUTHORIZATION and TOKEN_JWT are required")
	}

	renderer, err := render.NewRenderer(doc.DisplayTimezone)
	if err != nil {
		log.Fatalf("failed to build renderer: %v", err)
	}

	dispatcher, err := dispatch.New(sender, renderer, doc.Webhooks, doc.SendDelay.Std())
	if err != nil {
		log.Fatalf("failed to build dispatcher: %v", err)
	}

	questFilter, err := filter.New(doc.Filters)
	if err != nil {
		log.Fatalf("failed to compile filters: %v", err)
	}

	r, err := runner.New(runner.Config{
		Logger:     logger,
		Fetcher:    discordimpl.NewFetcher(env.Discord),
		Filter:     questFilter,
		Store:      store,
		Reconciler: reconcile.New(store, reconcile.WithTrustEmptySnapshot(doc.TrustEmptySnapshot)),
		Dispatcher: dispatcher,
		Alerter:    alerter,
		Retention:  doc.Retention.Std(),
	})
	if err != nil {
		log.Fatalf("failed to build runner: %v", err)
	}

	switch command {
	case "send":
		questID := flag.Arg(1)
		if questID == "" {
			log.Fatal("send requires a quest id")
		}
		if run, err := r.SendQuest(ctx, questID); err != nil {
			log.Fatalf("send failed: %v", err)
		} else if run.Failed > 0 {
			log.Fatalf("send delivered to %d destination(s), failed %d", run.Sent, run.Failed)
		}
		return
	case "latest":
		if run, err := r.SendLatest(ctx); err != nil {
			log.Fatalf("send latest failed: %v", err)
		} else if run.Failed > 0 {
			log.Fatalf("send delivered to %d destination(s), failed %d", run.Sent, run.Failed)
		}
		return
	case "run":
	default:
		flag.Usage()
		os.Exit(2)
	}

	if *runOnce {
		run := r.RunOnce(ctx)
		if run.Error != "" {
			log.Fatalf("run failed: %s", run.Error)
		}
		return
	}

	cronTrigger := trigger.NewCron(doc.Trigger.Schedule, doc.Trigger.Timezone)
	events, err := cronTrigger.Start(ctx)
	if err != nil {
		log.Fatalf("failed to start trigger: %v", err)
	}
	logger.Info("questwatch started",
		"schedule", doc.Trigger.Schedule,
		"webhooks", len(doc.Webhooks),
		"retention", doc.Retention.Std().String(),
	)

	r.Start(ctx, events)
	time.Sleep(200 * time.Millisecond)
}

func listSeen(ctx context.Context, store seen.Store) error {
	entries, err := store.List(ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("seen store is empty")
		return nil
	}
	for _, e := range entries {
		fmt.Printf("%s\t%s\n", e.ID, e.SeenAt.UTC().Format(time.RFC3339))
	}
	return nil
}
