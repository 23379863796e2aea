package discord

import (
	"testing"
	"time"
)

const sampleResponse = `{
  "quests": [
    {
      "config": {
        "id": "quest-123",
        "starts_at": "2025-06-01T00:00:00+00:00",
        "expires_at": "2025-06-15T00:00:00+00:00",
        "messages": {
          "quest_name": "Play the Demo",
          "game_title": "Example Game",
          "game_publisher": "Example Publisher"
        },
        "task_config": {
          "tasks": {
            "WATCH_VIDEO": {"event_name": "WATCH_VIDEO", "target": 45},
            "PLAY_ON_DESKTOP": {"event_name": "PLAY_ON_DESKTOP", "target": 900}
          }
        },
        "rewards_config": {
          "rewards": [
            {"messages": {"name": "Avatar Decoration"}, "asset": "reward.png"}
          ]
        },
        "assets": {"hero": "hero.png"}
      }
    }
  ]
}`

func TestDecodeSnapshot(t *testing.T) {
	quests, err := DecodeSnapshot([]byte(sampleResponse))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(quests) != 1 {
		t.Fatalf("expected 1 quest, got %d", len(quests))
	}
	q := quests[0]
	if q.ID != "quest-123" {
		t.Fatalf("id = %q", q.ID)
	}
	if q.Name != "Play the Demo" || q.GameTitle != "Example Game" || q.GamePublisher != "Example Publisher" {
		t.Fatalf("messages decoded incorrectly: %+v", q)
	}
	wantStart := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	if !q.StartsAt.Equal(wantStart) {
		t.Fatalf("starts_at = %v, want %v", q.StartsAt, wantStart)
	}
	if len(q.Tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(q.Tasks))
	}
	// Tasks are sorted by map key for stable rendering.
	if q.Tasks[0].EventName != "PLAY_ON_DESKTOP" || q.Tasks[0].TargetSeconds != 900 {
		t.Fatalf("first task = %+v", q.Tasks[0])
	}
	if len(q.Rewards) != 1 || q.Rewards[0].Name != "Avatar Decoration" || q.Rewards[0].Asset != "reward.png" {
		t.Fatalf("rewards = %+v", q.Rewards)
	}
	if q.HeroAsset != "hero.png" {
		t.Fatalf("hero asset = %q", q.HeroAsset)
	}
}

func TestDecodeSnapshotWithoutQuestsKey(t *testing.T) {
	quests, err := DecodeSnapshot([]byte(`{"excluded_quests": []}`))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(quests) != 0 {
		t.Fatalf("expected empty snapshot, got %d quests", len(quests))
	}
}

func TestDecodeSnapshotMalformed(t *testing.T) {
	if _, err := DecodeSnapshot([]byte(`not json`)); err == nil {
		t.Fatalf("expected decode error")
	}
}
