package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeDocument(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "questwatch.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write document: %v", err)
	}
	return path
}

func TestLoadDocumentParsesExtendedDurations(t *testing.T) {
	path := writeDocument(t, `
name: quests
trigger:
  schedule: "*/30 * * * *"
retention: 180d
send_delay: 2s
webhooks:
  - https://example.com/hook-a
`)
	doc, err := LoadDocument(path)
	if err != nil {
		t.Fatalf("load document: %v", err)
	}
	if doc.Retention.Std() != 180*24*time.Hour {
		t.Fatalf("retention = %v, want 180 days", doc.Retention.Std())
	}
	if doc.SendDelay.Std() != 2*time.Second {
		t.Fatalf("send_delay = %v, want 2s", doc.SendDelay.Std())
	}
}

func TestApplyEnvDefaultsFillsGaps(t *testing.T) {
	doc := &Document{Trigger: CronTrigger{Schedule: "@hourly"}}
	env := EnvConfig{
		Webhook: WebhookEnvConfig{
			URLs:      "https://example.com/a; https://example.com/b,",
			AlertURLs: "https://example.com/alert",
		},
		Store: StoreEnvConfig{Path: "db/seen_quests.db"},
	}
	doc.ApplyEnvDefaults(env)

	if len(doc.Webhooks) != 2 {
		t.Fatalf("webhooks = %v, want 2 parsed URLs", doc.Webhooks)
	}
	if len(doc.AlertWebhooks) != 1 {
		t.Fatalf("alert webhooks = %v, want 1", doc.AlertWebhooks)
	}
	if doc.Store.Path != "db/seen_quests.db" {
		t.Fatalf("store path = %q", doc.Store.Path)
	}
	if doc.Retention.Std() != DefaultRetention {
		t.Fatalf("retention default = %v", doc.Retention.Std())
	}
	if doc.SendDelay.Std() != DefaultSendDelay {
		t.Fatalf("send_delay default = %v", doc.SendDelay.Std())
	}
	if doc.DisplayTimezone != DefaultTimezone {
		t.Fatalf("display timezone default = %q", doc.DisplayTimezone)
	}

	if err := doc.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestValidateRejectsBrokenDocuments(t *testing.T) {
	cases := []struct {
		name string
		doc  Document
	}{
		{"missing schedule", Document{
			Webhooks: []string{"https://example.com/a"},
			Store:    StoreConfig{Path: "x.db"},
		}},
		{"no destinations", Document{
			Trigger: CronTrigger{Schedule: "@hourly"},
			Store:   StoreConfig{Path: "x.db"},
		}},
		{"bad filter result", Document{
			Trigger:  CronTrigger{Schedule: "@hourly"},
			Webhooks: []string{"https://example.com/a"},
			Store:    StoreConfig{Path: "x.db"},
			Filters:  []FilterRule{{Name: "f", Rule: "true", Result: "maybe"}},
		}},
		{"bad display timezone", Document{
			Trigger:         CronTrigger{Schedule: "@hourly"},
			Webhooks:        []string{"https://example.com/a"},
			Store:           StoreConfig{Path: "x.db"},
			DisplayTimezone: "Mars/Olympus",
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.doc.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestParseWebhookList(t *testing.T) {
	got := ParseWebhookList(" https://a.example/1 ;https://a.example/2,, https://a.example/3")
	if len(got) != 3 {
		t.Fatalf("got %v, want 3 URLs", got)
	}
	if got := ParseWebhookList("   "); got != nil {
		t.Fatalf("blank input should parse to nil, got %v", got)
	}
}
