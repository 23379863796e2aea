// Package webhook defines the outbound notification boundary: the message
// and embed shapes Discord webhooks accept, and the Sender interface the
// dispatcher delivers through.
package webhook

import "context"

// Message is one webhook payload.
type Message struct {
	Content string  `json:"content"`
	TTS     bool    `json:"tts"`
	Embeds  []Embed `json:"embeds"`
	Flags   int     `json:"flags"`
}

// Embed is a Discord rich embed.
type Embed struct {
	Title       string      `json:"title,omitempty"`
	Description string      `json:"description,omitempty"`
	URL         string      `json:"url,omitempty"`
	Color       int         `json:"color,omitempty"`
	Fields      []Field     `json:"fields,omitempty"`
	Footer      *Footer     `json:"footer,omitempty"`
	Thumbnail   *MediaAsset `json:"thumbnail,omitempty"`
	Image       *MediaAsset `json:"image,omitempty"`
	Timestamp   string      `json:"timestamp,omitempty"`
}

type Field struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type Footer struct {
	Text string `json:"text"`
}

type MediaAsset struct {
	URL string `json:"url"`
}

// Sender delivers a message to a single webhook endpoint. Implementations
// return an error for transport failures and non-success acknowledgements;
// the dispatcher only needs success or failure.
type Sender interface {
	Send(ctx context.Context, endpoint string, msg Message) error
}
