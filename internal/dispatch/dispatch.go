// Package dispatch delivers rendered quest notifications to the configured
// webhook destinations, one quest at a time, with a fixed courtesy delay
// between quests.
package dispatch

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/nvbach/questwatch/internal/core"
	"github.com/nvbach/questwatch/internal/outputs/webhook"
	"github.com/nvbach/questwatch/internal/render"
)

// Result aggregates per-attempt outcomes across one batch. An attempt is one
// quest posted to one destination.
type Result struct {
	Sent   int
	Failed int
}

type Dispatcher struct {
	sender       webhook.Sender
	renderer     *render.Renderer
	destinations []string
	limiter      *rate.Limiter
	now          func() time.Time
}

// New builds a dispatcher for a fixed destination list. sendDelay is the
// pause between consecutive quests (not destinations); it is a courtesy
// delay, not adaptive backoff.
func New(sender webhook.Sender, renderer *render.Renderer, destinations []string, sendDelay time.Duration) (*Dispatcher, error) {
	if sender == nil {
		return nil, fmt.Errorf("webhook sender is required")
	}
	if renderer == nil {
		return nil, fmt.Errorf("renderer is required")
	}
	if len(destinations) == 0 {
		return nil, fmt.Errorf("at least one destination is required")
	}
	if sendDelay <= 0 {
		sendDelay = time.Second
	}
	return &Dispatcher{
		sender:       sender,
		renderer:     renderer,
		destinations: destinations,
		limiter:      rate.NewLimiter(rate.Every(sendDelay), 1),
		now:          func() time.Time { return time.Now().UTC() },
	}, nil
}

// Dispatch sends one notification per quest to every destination, in input
// order (most recently activated first). A failed attempt is counted and the
// batch continues; only context cancellation aborts early, returning the
// counts accumulated so far.
func (d *Dispatcher) Dispatch(ctx context.Context, quests []core.Quest) (Result, error) {
	logger := core.LoggerFromContext(ctx)
	var result Result

	for i, quest := range quests {
		if err := d.limiter.Wait(ctx); err != nil {
			return result, err
		}
		msg := d.renderer.Message(quest, d.now())
		for _, dest := range d.destinations {
			if err := d.sender.Send(ctx, dest, msg); err != nil {
				result.Failed++
				logger.Error("quest notification failed",
					"quest", i+1,
					"quest_id", quest.ID,
					"quest_name", quest.Name,
					"error", err,
				)
				continue
			}
			result.Sent++
			logger.Info("quest notification sent",
				"quest", i+1,
				"quest_id", quest.ID,
				"quest_name", quest.Name,
			)
		}
	}

	if result.Sent > 0 || result.Failed > 0 {
		logger.Info("dispatch completed", "sent", result.Sent, "failed", result.Failed)
	}
	return result, nil
}
