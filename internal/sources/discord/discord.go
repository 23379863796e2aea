// Package discord defines the upstream quest API boundary: the Fetcher
// interface the pipeline consumes, the wire schema of the quests endpoint,
// and the error taxonomy callers use to tell a failed fetch apart from an
// empty one.
package discord

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/nvbach/questwatch/internal/core"
)

// Fetcher retrieves the complete current quest snapshot.
type Fetcher interface {
	Fetch(ctx context.Context) ([]core.Quest, error)
}

// AuthError means the upstream rejected the request for credential reasons
// (401/403). It is surfaced to the operator alert channel, not just logged.
type AuthError struct {
	StatusCode int
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("quest API rejected credentials (status %d)", e.StatusCode)
}

// FetchError means the upstream was unreachable or returned something
// unusable. It is never treated as an empty snapshot.
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("quest fetch failed: %v", e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// DecodeSnapshot parses a quests endpoint response body into domain quests.
// A body without a "quests" key decodes as an empty snapshot; whether that
// is trusted is the reconciler's decision, not the fetcher's.
func DecodeSnapshot(data []byte) ([]core.Quest, error) {
	var resp questsResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, &FetchError{Err: fmt.Errorf("decode quests response: %w", err)}
	}
	return resp.toQuests(), nil
}

// Wire schema of GET /quests/@me. Only the fields the pipeline and the
// renderer need are decoded.
type questsResponse struct {
	Quests []questRecord `json:"quests"`
}

type questRecord struct {
	Config questConfig `json:"config"`
}

type questConfig struct {
	ID        string        `json:"id"`
	StartsAt  time.Time     `json:"starts_at"`
	ExpiresAt time.Time     `json:"expires_at"`
	Messages  questMessages `json:"messages"`
	Tasks     taskConfig    `json:"task_config"`
	Rewards   rewardsConfig `json:"rewards_config"`
	Assets    questAssets   `json:"assets"`
}

type questMessages struct {
	QuestName     string `json:"quest_name"`
	GameTitle     string `json:"game_title"`
	GamePublisher string `json:"game_publisher"`
}

type taskConfig struct {
	Tasks map[string]taskRecord `json:"tasks"`
}

type taskRecord struct {
	EventName string `json:"event_name"`
	Target    int    `json:"target"`
}

type rewardsConfig struct {
	Rewards []rewardRecord `json:"rewards"`
}

type rewardRecord struct {
	Messages rewardMessages `json:"messages"`
	Asset    string         `json:"asset"`
}

type rewardMessages struct {
	Name string `json:"name"`
}

type questAssets struct {
	Hero string `json:"hero"`
}

func (r questsResponse) toQuests() []core.Quest {
	quests := make([]core.Quest, 0, len(r.Quests))
	for _, rec := range r.Quests {
		cfg := rec.Config
		q := core.Quest{
			ID:            cfg.ID,
			Name:          cfg.Messages.QuestName,
			GameTitle:     cfg.Messages.GameTitle,
			GamePublisher: cfg.Messages.GamePublisher,
			StartsAt:      cfg.StartsAt,
			ExpiresAt:     cfg.ExpiresAt,
			HeroAsset:     cfg.Assets.Hero,
		}
		// Task maps have no wire ordering; sort for stable rendering.
		keys := make([]string, 0, len(cfg.Tasks.Tasks))
		for k := range cfg.Tasks.Tasks {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			t := cfg.Tasks.Tasks[k]
			q.Tasks = append(q.Tasks, core.Task{EventName: t.EventName, TargetSeconds: t.Target})
		}
		for _, rw := range cfg.Rewards.Rewards {
			q.Rewards = append(q.Rewards, core.Reward{Name: rw.Messages.Name, Asset: rw.Asset})
		}
		quests = append(quests, q)
	}
	return quests
}
