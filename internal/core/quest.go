package core

import (
	"sort"
	"time"
)

// Quest contains the data and metadata of a single upstream quest as it
// flows through the pipeline. A slice of Quests is one snapshot: the
// complete, authoritative set of currently active quests at fetch time.
type Quest struct {
	ID            string    `json:"id" yaml:"id"`
	Name          string    `json:"name" yaml:"name"`
	GameTitle     string    `json:"game_title" yaml:"game_title"`
	GamePublisher string    `json:"game_publisher" yaml:"game_publisher"`
	StartsAt      time.Time `json:"starts_at" yaml:"starts_at"`
	ExpiresAt     time.Time `json:"expires_at" yaml:"expires_at"`
	Tasks         []Task    `json:"tasks,omitempty" yaml:"tasks,omitempty"`
	Rewards       []Reward  `json:"rewards,omitempty" yaml:"rewards,omitempty"`
	HeroAsset     string    `json:"hero_asset,omitempty" yaml:"hero_asset,omitempty"`
}

// Task is a single objective attached to a quest, e.g. watching a video
// or playing on desktop for a target number of seconds.
type Task struct {
	EventName     string `json:"event_name" yaml:"event_name"`
	TargetSeconds int    `json:"target_seconds" yaml:"target_seconds"`
}

// Reward is granted on quest completion. Asset is a CDN-relative image path.
type Reward struct {
	Name  string `json:"name" yaml:"name"`
	Asset string `json:"asset,omitempty" yaml:"asset,omitempty"`
}

// SortQuestsByStartDesc orders a snapshot most recently activated first.
// This is the order quests are reported as new and dispatched in.
func SortQuestsByStartDesc(quests []Quest) {
	sort.SliceStable(quests, func(i, j int) bool {
		return quests[i].StartsAt.After(quests[j].StartsAt)
	})
}

// QuestIDs collects the id set of a snapshot.
func QuestIDs(quests []Quest) map[string]struct{} {
	ids := make(map[string]struct{}, len(quests))
	for _, q := range quests {
		ids[q.ID] = struct{}{}
	}
	return ids
}
