package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Document represents the top-level structure of a questwatch.yaml file.
// Secrets never live here; they come from the environment (see EnvConfig).
type Document struct {
	Name    string      `yaml:"name,omitempty"`
	Trigger CronTrigger `yaml:"trigger"`

	// Retention is the maximum age a seen entry may reach before it is
	// pruned regardless of whether the quest is still active upstream.
	Retention Duration `yaml:"retention,omitempty"`

	// SendDelay is the fixed pause between consecutive quest notifications.
	SendDelay Duration `yaml:"send_delay,omitempty"`

	// TrustEmptySnapshot controls what an empty-but-valid upstream snapshot
	// means. False (the default) treats it as suspect: reconciliation is
	// skipped and the store is left untouched. True treats it as
	// authoritative and purges every stored entry.
	TrustEmptySnapshot bool `yaml:"trust_empty_snapshot,omitempty"`

	// DisplayTimezone is the IANA zone used when formatting quest start and
	// expiry times in notifications.
	DisplayTimezone string `yaml:"display_timezone,omitempty"`

	Webhooks      []string     `yaml:"webhooks,omitempty"`
	AlertWebhooks []string     `yaml:"alert_webhooks,omitempty"`
	Filters       []FilterRule `yaml:"filters,omitempty"`
	Store         StoreConfig  `yaml:"store,omitempty"`
}

// CronTrigger defines the polling schedule.
type CronTrigger struct {
	Schedule string `yaml:"schedule"`
	Timezone string `yaml:"timezone,omitempty"`
}

// FilterRule drops quests from the snapshot view before reconciliation.
// Rule is an expr expression evaluated per quest; a rule whose expression
// matches and whose Result is "drop" removes the quest entirely, so it is
// neither notified nor persisted.
type FilterRule struct {
	Name   string `yaml:"name"`
	Rule   string `yaml:"rule"`
	Result string `yaml:"result"`
}

// StoreConfig points at the seen-set database.
type StoreConfig struct {
	Path  string `yaml:"path,omitempty"`
	Table string `yaml:"table,omitempty"`
}

const (
	DefaultRetention = 180 * 24 * time.Hour
	DefaultSendDelay = time.Second
	DefaultTimezone  = "Asia/Ho_Chi_Minh"
)

// LoadDocument reads and parses a questwatch document from disk.
func LoadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse questwatch document: %w", err)
	}
	return &doc, nil
}

// ApplyEnvDefaults fills document gaps from the environment config: webhook
// destinations, alert destinations and the store location. Values set in the
// document win over the environment.
func (d *Document) ApplyEnvDefaults(env EnvConfig) {
	if len(d.Webhooks) == 0 {
		d.Webhooks = ParseWebhookList(env.Webhook.URLs)
	}
	if len(d.AlertWebhooks) == 0 {
		d.AlertWebhooks = ParseWebhookList(env.Webhook.AlertURLs)
	}
	if d.Store.Path == "" {
		d.Store.Path = env.Store.Path
	}
	if d.Store.Table == "" {
		d.Store.Table = env.Store.Table
	}
	if d.Retention <= 0 {
		d.Retention = Duration(DefaultRetention)
	}
	if d.SendDelay <= 0 {
		d.SendDelay = Duration(DefaultSendDelay)
	}
	if d.DisplayTimezone == "" {
		d.DisplayTimezone = DefaultTimezone
	}
}

// Validate checks the document for configuration that can never work.
func (d *Document) Validate() error {
	if d.Trigger.Schedule == "" {
		return fmt.Errorf("trigger schedule is required")
	}
	if d.Trigger.Timezone != "" {
		if _, err := time.LoadLocation(d.Trigger.Timezone); err != nil {
			return fmt.Errorf("invalid trigger timezone: %w", err)
		}
	}
	if d.DisplayTimezone != "" {
		if _, err := time.LoadLocation(d.DisplayTimezone); err != nil {
			return fmt.Errorf("invalid display timezone: %w", err)
		}
	}
	if len(d.Webhooks) == 0 {
		return fmt.Errorf("at least one webhook destination is required")
	}
	if d.Store.Path == "" {
		return fmt.Errorf("store path is required")
	}
	for _, f := range d.Filters {
		if f.Name == "" || f.Rule == "" {
			return fmt.Errorf("filter name and rule are required")
		}
		if f.Result != "" && f.Result != "drop" && f.Result != "pass" {
			return fmt.Errorf("filter %q: result must be \"drop\" or \"pass\"", f.Name)
		}
	}
	return nil
}
