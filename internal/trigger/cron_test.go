package trigger

import (
	"context"
	"testing"
	"time"
)

func TestValidate(t *testing.T) {
	cases := []struct {
		name     string
		schedule string
		timezone string
		wantErr  bool
	}{
		{name: "valid", schedule: "*/10 * * * *", timezone: "Asia/Ho_Chi_Minh"},
		{name: "no timezone", schedule: "0 * * * *"},
		{name: "missing schedule", wantErr: true},
		{name: "bad timezone", schedule: "* * * * *", timezone: "Mars/Olympus", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := NewCron(tc.schedule, tc.timezone).Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestStartRejectsBadSchedule(t *testing.T) {
	c := NewCron("not a schedule", "")
	if _, err := c.Start(context.Background()); err == nil {
		t.Fatalf("expected error for malformed schedule")
	}
}

func TestStartFiresAndStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := NewCron("@every 100ms", "")
	events, err := c.Start(ctx)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	select {
	case ev := <-events:
		if ev.Timestamp.IsZero() {
			t.Fatalf("event timestamp is zero")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no trigger event within deadline")
	}

	cancel()
	select {
	case _, ok := <-events:
		if ok {
			// A final event may have been buffered before Stop; the channel
			// must still close afterwards.
			if _, ok := <-events; ok {
				t.Fatalf("events channel not closed after cancel")
			}
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("events channel not closed after cancel")
	}
}
