// Package render turns quests into Discord webhook messages: the embed
// layout, task emoji, duration formatting and CDN image URLs.
package render

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/nvbach/questwatch/internal/core"
	"github.com/nvbach/questwatch/internal/outputs/webhook"
)

const (
	questPageBaseURL = "https://discord.com/quests"
	cdnBaseURL       = "https://cdn.discordapp.com"

	imageWidth      = 1320
	imageHeight     = 350
	thumbnailWidth  = 300
	thumbnailHeight = 300

	// Shown when a quest has no reward asset to use as a thumbnail.
	defaultThumbnailURL = "https://cdn.discordapp.com/assets/content/fb761d9c206f93cd8c4e7301798abe3f623039a4054f2e7accd019e1bb059fc8.webm?format=webp&width=300&height=300"

	newQuestContent = "🎉 New Quest Available! 🎉"
)

var taskEmoji = map[string]string{
	"WATCH_VIDEO":           "📺",
	"PLAY_ON_DESKTOP":       "🖥️",
	"STREAM_ON_DESKTOP":     "📡",
	"PLAY_ACTIVITY":         "🎮",
	"WATCH_VIDEO_ON_MOBILE": "📱",
}

// Renderer formats quests for a display timezone. Color defaults to a random
// RGB value per embed; tests inject a fixed colorFn.
type Renderer struct {
	location *time.Location
	colorFn  func() int
}

func NewRenderer(displayTimezone string) (*Renderer, error) {
	loc, err := time.LoadLocation(displayTimezone)
	if err != nil {
		return nil, fmt.Errorf("load display timezone: %w", err)
	}
	return &Renderer{location: loc, colorFn: randomColor}, nil
}

// WithColorFn overrides embed color generation.
func (r *Renderer) WithColorFn(fn func() int) *Renderer {
	r.colorFn = fn
	return r
}

// Message wraps a quest embed in the webhook payload the dispatcher sends.
func (r *Renderer) Message(quest core.Quest, now time.Time) webhook.Message {
	return webhook.Message{
		Content: newQuestContent,
		Embeds:  []webhook.Embed{r.Embed(quest, now)},
	}
}

// Embed builds the rich embed for one quest.
func (r *Renderer) Embed(quest core.Quest, now time.Time) webhook.Embed {
	questURL := fmt.Sprintf("%s/%s", questPageBaseURL, quest.ID)

	embed := webhook.Embed{
		Title: quest.GameTitle,
		Description: fmt.Sprintf("Name: **%s**\nPublisher: **%s**",
			quest.Name, quest.GamePublisher),
		URL:   questURL,
		Color: r.colorFn(),
		Fields: []webhook.Field{
			{Name: "📆 Starts", Value: r.formatDate(quest.StartsAt), Inline: true},
			{Name: "🗓️ Expires", Value: r.formatDate(quest.ExpiresAt), Inline: true},
		},
		Footer:    &webhook.Footer{Text: fmt.Sprintf("ID: %s", quest.ID)},
		Timestamp: now.Format(time.RFC3339),
	}

	thumbnailURL := defaultThumbnailURL
	if len(quest.Rewards) > 0 && quest.Rewards[0].Asset != "" {
		thumbnailURL = buildImageURL(quest.ID, quest.Rewards[0].Asset, thumbnailWidth, thumbnailHeight)
	}
	embed.Thumbnail = &webhook.MediaAsset{URL: thumbnailURL}

	if quest.HeroAsset != "" {
		embed.Image = &webhook.MediaAsset{URL: buildImageURL(quest.ID, quest.HeroAsset, imageWidth, imageHeight)}
	}

	if len(quest.Tasks) > 0 {
		tasks := make([]string, 0, len(quest.Tasks))
		for _, t := range quest.Tasks {
			tasks = append(tasks, formatTask(t))
		}
		embed.Fields = append(embed.Fields, webhook.Field{
			Name:  "📝 Tasks",
			Value: strings.Join(tasks, "\n\t"),
		})
	}

	if len(quest.Rewards) > 0 {
		names := make([]string, 0, len(quest.Rewards))
		for _, rw := range quest.Rewards {
			names = append(names, rw.Name)
		}
		embed.Fields = append(embed.Fields, webhook.Field{
			Name:  "🎁 Rewards",
			Value: strings.Join(names, "\n\t"),
		})
	}

	embed.Fields = append(embed.Fields, webhook.Field{
		Name:  "🔍 View Quest",
		Value: fmt.Sprintf("[Click here to view quest](%s)", questURL),
	})

	return embed
}

func (r *Renderer) formatDate(t time.Time) string {
	return t.In(r.location).Format("02-01-2006 15:04")
}

func formatTask(task core.Task) string {
	emoji, ok := taskEmoji[task.EventName]
	if !ok {
		emoji = "📋"
	}
	title := titleCase(strings.ReplaceAll(task.EventName, "_", " "))
	return fmt.Sprintf("%s %s For %s", emoji, title, formatDuration(task.TargetSeconds))
}

// formatDuration shows seconds below a minute, whole minutes when even, and
// one decimal otherwise ("45 seconds", "15 minutes", "1.5 minutes").
func formatDuration(seconds int) string {
	if seconds < 60 {
		return fmt.Sprintf("%d seconds", seconds)
	}
	minutes := float64(seconds) / 60
	if minutes == float64(int(minutes)) {
		return fmt.Sprintf("%d minutes", int(minutes))
	}
	return fmt.Sprintf("%.1f minutes", minutes)
}

func buildImageURL(questID, assetPath string, width, height int) string {
	return fmt.Sprintf("%s/quests/%s/%s?format=webp&width=%d&height=%d",
		cdnBaseURL, questID, assetPath, width, height)
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func randomColor() int {
	r := rand.Intn(256)
	g := rand.Intn(256)
	b := rand.Intn(256)
	return r<<16 | g<<8 | b
}
