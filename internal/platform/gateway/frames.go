package gateway

import (
	"encoding/json"

	"assassin/internal/platform"
)

// FrameType represents the type of gateway frame.
type FrameType string

// Client → gateway frame types
const (
	FrameIdentify       FrameType = "identify"
	FrameSendMessage    FrameType = "send_message"
	FrameOpenDM         FrameType = "open_dm"
	FramePurgeChannel   FrameType = "purge_channel"
	FrameAddReactions   FrameType = "add_reactions"
	FrameReactionCounts FrameType = "reaction_counts"
	FrameFetchUser      FrameType = "fetch_user"
	FrameResolveMember  FrameType = "resolve_member"
)

// Gateway → client frame types
const (
	FrameReady         FrameType = "ready"
	FrameMessageCreate FrameType = "message_create"
	FrameResult        FrameType = "result"
	FrameError         FrameType = "error"
)

// Frame is the gateway wire envelope. Requests carry a nonce; the gateway
// echoes it on the matching result or error frame.
type Frame struct {
	Type  FrameType       `json:"type"`
	Nonce string          `json:"nonce,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func newFrame(frameType FrameType, nonce string, data any) (Frame, error) {
	f := Frame{Type: frameType, Nonce: nonce}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return Frame{}, err
		}
		f.Data = raw
	}
	return f, nil
}

// Request payloads

// IdentifyData authenticates the session.
type IdentifyData struct {
	Token string `json:"token"`
}

// SendMessageData posts text or a card to a channel.
type SendMessageData struct {
	ChannelID string         `json:"channelId"`
	Content   string         `json:"content,omitempty"`
	Card      *platform.Card `json:"card,omitempty"`
}

// OpenDMData opens a direct-message channel with a user.
type OpenDMData struct {
	UserID string `json:"userId"`
}

// PurgeChannelData deletes all messages in a channel.
type PurgeChannelData struct {
	ChannelID string `json:"channelId"`
}

// AddReactionsData seeds reaction choices on a message.
type AddReactionsData struct {
	ChannelID string   `json:"channelId"`
	MessageID string   `json:"messageId"`
	Emojis    []string `json:"emojis"`
}

// ReactionCountsData requests the reaction tallies on a message.
type ReactionCountsData struct {
	ChannelID string `json:"channelId"`
	MessageID string `json:"messageId"`
}

// FetchUserData requests a user's display name.
type FetchUserData struct {
	UserID string `json:"userId"`
}

// ResolveMemberData resolves a member query to a user id.
type ResolveMemberData struct {
	Query string `json:"query"`
}

// Response payloads

// ReadyData confirms a successful identify.
type ReadyData struct {
	BotID string `json:"botId"`
}

// ResultData is the union of all request results; each request populates
// only the fields it concerns.
type ResultData struct {
	MessageID string         `json:"messageId,omitempty"`
	ChannelID string         `json:"channelId,omitempty"`
	Counts    map[string]int `json:"counts,omitempty"`
	Name      string         `json:"name,omitempty"`
	UserID    string         `json:"userId,omitempty"`
}

// ErrorData reports a failed request or a fatal session error.
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
