package alert

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/nvbach/questwatch/internal/outputs/webhook/mock"
)

type fakeEmail struct {
	subjects []string
	bodies   []string
	err      error
}

func (f *fakeEmail) Send(ctx context.Context, subject, body string) error {
	_ = ctx
	f.subjects = append(f.subjects, subject)
	f.bodies = append(f.bodies, body)
	return f.err
}

func TestAlertFansOutToAllWebhooks(t *testing.T) {
	sender := &mock.Sender{}
	a := New(sender, []string{"https://a.example/1", "https://a.example/2"}, nil)

	a.Alert(context.Background(), "tokens expired")

	if len(sender.Deliveries) != 2 {
		t.Fatalf("deliveries = %d, want 2", len(sender.Deliveries))
	}
	if !strings.HasPrefix(sender.Deliveries[0].Message.Content, "🚨 ") {
		t.Fatalf("content = %q", sender.Deliveries[0].Message.Content)
	}
	if !strings.Contains(sender.Deliveries[0].Message.Content, "tokens expired") {
		t.Fatalf("content = %q", sender.Deliveries[0].Message.Content)
	}
}

func TestAlertSendsEmailWhenConfigured(t *testing.T) {
	email := &fakeEmail{}
	a := New(&mock.Sender{}, nil, email)

	a.Alert(context.Background(), "auth error (401)")

	if len(email.bodies) != 1 || email.bodies[0] != "auth error (401)" {
		t.Fatalf("email bodies = %v", email.bodies)
	}
}

func TestAlertSurvivesChannelFailures(t *testing.T) {
	sender := &mock.Sender{Err: errors.New("webhook down")}
	email := &fakeEmail{err: errors.New("smtp down")}
	a := New(sender, []string{"https://a.example/1"}, email)

	// Must not panic or propagate; alerting is best-effort.
	a.Alert(context.Background(), "both channels broken")

	if len(sender.Deliveries) != 1 || len(email.bodies) != 1 {
		t.Fatalf("both channels should still be attempted")
	}
}

func TestAlertWithNoChannelsIsNoop(t *testing.T) {
	a := New(&mock.Sender{}, nil, nil)
	a.Alert(context.Background(), "nowhere to go")
}
