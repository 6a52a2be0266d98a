// Package channel provides a unified abstraction for chat transports.
// It defines message types, the per-event Responder contract, and the
// segmenting policy applied to long assistant replies before delivery.
package channel

import (
	"strings"
	"time"
)

// ChannelType identifies a messaging platform (e.g., "discord", "telegram").
type ChannelType string

// String returns the channel type as a plain string.
func (c ChannelType) String() string {
	return string(c)
}

// Identity represents a sender's identity on a channel.
type Identity struct {
	SubjectID   string
	DisplayName string
	Bot         bool
}

// Conversation holds metadata about the chat context the message arrived in.
// ThreadContainer marks conversations that carry prior messages of their own
// (for example a Discord thread), which the orchestrator replays into a fresh
// remote thread on first contact.
type Conversation struct {
	ID              string
	Type            string
	ThreadContainer bool
}

// Attachment represents a binary file attached to a message.
type Attachment struct {
	URL         string `json:"url,omitempty"`
	PlatformKey string `json:"platform_key,omitempty"`
	Name        string `json:"name,omitempty"`
	Mime        string `json:"mime,omitempty"`
	Size        int64  `json:"size,omitempty"`
}

// HasReference reports whether the attachment can be downloaded.
func (a Attachment) HasReference() bool {
	return strings.TrimSpace(a.URL) != ""
}

// Message is the unified message structure used across all channels.
type Message struct {
	ID          string       `json:"id,omitempty"`
	Text        string       `json:"text,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// IsEmpty reports whether the message carries no content.
func (m Message) IsEmpty() bool {
	return strings.TrimSpace(m.Text) == "" && len(m.Attachments) == 0
}

// InboundMessage is a message received from an external channel.
type InboundMessage struct {
	Channel      ChannelType
	Message      Message
	Sender       Identity
	Conversation Conversation
	ReceivedAt   time.Time
}
