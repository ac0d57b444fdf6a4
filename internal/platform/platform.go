// Package platform defines the chat-platform surface the game core consumes.
// The core never talks to the wire directly; it sees only the Messenger
// interface, which the gateway client implements for real traffic and
// platformtest fakes for tests.
package platform

import (
	"context"
	"errors"
	"time"
)

// ErrAwaitTimeout is returned by Await when no qualifying message arrives
// within the window.
var ErrAwaitTimeout = errors.New("timed out waiting for a response")

// Attachment is a file attached to a message.
type Attachment struct {
	URL      string `json:"url"`
	Filename string `json:"filename,omitempty"`
}

// Message is an inbound chat message.
type Message struct {
	ID          string       `json:"id"`
	ChannelID   string       `json:"channelId"`
	AuthorID    string       `json:"authorId"`
	Content     string       `json:"content"`
	Attachments []Attachment `json:"attachments,omitempty"`
	Timestamp   time.Time    `json:"timestamp"`
}

// CardField is a labelled section of a card.
type CardField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// Card is a structured rich message (an embed, in platform terms).
type Card struct {
	Title    string      `json:"title"`
	Color    int         `json:"color,omitempty"`
	ImageURL string      `json:"imageUrl,omitempty"`
	Fields   []CardField `json:"fields,omitempty"`
}

// MessageFilter reports whether an inbound message qualifies for an await.
type MessageFilter func(Message) bool

// FromUserInChannel filters messages to one author in one channel,
// rejecting all other concurrent traffic.
func FromUserInChannel(userID, channelID string) MessageFilter {
	return func(m Message) bool {
		return m.AuthorID == userID && m.ChannelID == channelID
	}
}

// Messenger is the presentation-layer contract consumed by the core.
type Messenger interface {
	// Send posts a plain text message and returns its platform message id.
	Send(ctx context.Context, channelID, content string) (string, error)
	// SendCard posts a structured card and returns its platform message id.
	SendCard(ctx context.Context, channelID string, card Card) (string, error)
	// OpenDM opens (or reuses) a direct-message channel with a user.
	OpenDM(ctx context.Context, userID string) (string, error)
	// Purge deletes all messages in a channel.
	Purge(ctx context.Context, channelID string) error
	// Await blocks until a message matching the filter arrives or the
	// timeout elapses, in which case it returns ErrAwaitTimeout.
	Await(ctx context.Context, filter MessageFilter, timeout time.Duration) (Message, error)
	// AddReactions seeds reaction choices on a message.
	AddReactions(ctx context.Context, channelID, messageID string, emojis ...string) error
	// ReactionCounts fetches the current reaction tallies on a message,
	// including the bot's own seed reactions.
	ReactionCounts(ctx context.Context, channelID, messageID string) (map[string]int, error)
	// UserName resolves a user id to a display name.
	UserName(ctx context.Context, userID string) (string, error)
	// ResolveMention turns a mention token into a user id.
	ResolveMention(ctx context.Context, token string) (string, error)
}
