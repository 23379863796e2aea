// Package alert pushes high-priority operator notices (credential failures,
// token misconfiguration) to a dedicated webhook channel and optionally to
// email. Alerts are best-effort: a failed alert is logged, never fatal.
package alert

import (
	"context"

	"github.com/nvbach/questwatch/internal/core"
	"github.com/nvbach/questwatch/internal/outputs/webhook"
)

// EmailSender delivers an alert as email. Optional; see SMTPSender.
type EmailSender interface {
	Send(ctx context.Context, subject, body string) error
}

type Alerter struct {
	sender  webhook.Sender
	targets []string
	email   EmailSender
}

// New builds an alerter posting to targets (the alert webhook list, with the
// main webhook list as fallback upstream of this constructor). email may be
// nil when SMTP is not configured.
func New(sender webhook.Sender, targets []string, email EmailSender) *Alerter {
	return &Alerter{sender: sender, targets: targets, email: email}
}

// Alert fans the message out to every configured channel.
func (a *Alerter) Alert(ctx context.Context, message string) {
	logger := core.LoggerFromContext(ctx)
	if a == nil || (len(a.targets) == 0 && a.email == nil) {
		logger.Warn("alert not sent (no alert channel configured)", "message", message)
		return
	}

	for _, target := range a.targets {
		msg := webhook.Message{Content: "🚨 " + message}
		if err := a.sender.Send(ctx, target, msg); err != nil {
			logger.Error("failed to send alert webhook", "error", err)
		}
	}

	if a.email != nil {
		if err := a.email.Send(ctx, "questwatch alert", message); err != nil {
			logger.Error("failed to send alert email", "error", err)
		}
	}
}
