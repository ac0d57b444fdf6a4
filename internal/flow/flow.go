// Package flow drives short interactive dialogs as sequences of typed
// prompt/await steps. Each step declares its own timeout and validator, so
// multi-step conversations compose without nested closures over shared
// mutable state.
package flow

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"assassin/internal/platform"
)

const (
	// DefaultTimeout applies to ordinary prompts.
	DefaultTimeout = 30 * time.Second

	// ApprovalTimeout applies to owner-approval waits, which may take a day.
	ApprovalTimeout = 24 * time.Hour
)

// Conversation flow errors
var (
	ErrTimedOut        = errors.New("conversation timed out")
	ErrInvalidResponse = errors.New("invalid response")
)

// Step is one prompt/await exchange.
type Step struct {
	Prompt   string
	Timeout  time.Duration // DefaultTimeout when zero
	Validate func(reply string) error
}

// Prompt sends the step's prompt to the channel, waits for a qualifying
// reply from the user and validates it. Messages from other users or
// channels are ignored. An empty Step.Prompt skips the send and only waits.
func Prompt(ctx context.Context, m platform.Messenger, channelID, userID string, step Step) (string, error) {
	if step.Prompt != "" {
		if _, err := m.Send(ctx, channelID, step.Prompt); err != nil {
			return "", fmt.Errorf("send prompt: %w", err)
		}
	}

	timeout := step.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	msg, err := m.Await(ctx, platform.FromUserInChannel(userID, channelID), timeout)
	if err != nil {
		if errors.Is(err, platform.ErrAwaitTimeout) {
			return "", ErrTimedOut
		}
		return "", err
	}

	reply := strings.TrimSpace(msg.Content)
	if step.Validate != nil {
		if err := step.Validate(reply); err != nil {
			return "", err
		}
	}
	return reply, nil
}

// Conversation binds a messenger to one user in one channel for a
// sequence of steps.
type Conversation struct {
	m         platform.Messenger
	channelID string
	userID    string
}

// New creates a conversation with the given user in the given channel.
func New(m platform.Messenger, channelID, userID string) *Conversation {
	return &Conversation{m: m, channelID: channelID, userID: userID}
}

// Ask runs one step of the conversation.
func (c *Conversation) Ask(ctx context.Context, step Step) (string, error) {
	return Prompt(ctx, c.m, c.channelID, c.userID, step)
}

// Say sends a message into the conversation without waiting for a reply.
func (c *Conversation) Say(ctx context.Context, text string) error {
	_, err := c.m.Send(ctx, c.channelID, text)
	return err
}

// OneOf returns a validator accepting exactly one of the given choices,
// case-insensitively.
func OneOf(choices ...string) func(string) error {
	return func(reply string) error {
		for _, choice := range choices {
			if strings.EqualFold(reply, choice) {
				return nil
			}
		}
		return fmt.Errorf("%w: expected one of %s", ErrInvalidResponse, strings.Join(choices, "/"))
	}
}

// IndexBetween returns a validator for 1-based menu indexes.
func IndexBetween(low, high int) func(string) error {
	return func(reply string) error {
		n, err := strconv.Atoi(reply)
		if err != nil || n < low || n > high {
			return fmt.Errorf("%w: expected a number between %d and %d", ErrInvalidResponse, low, high)
		}
		return nil
	}
}

// NonEmpty validates that the reply has visible content.
func NonEmpty(reply string) error {
	if strings.TrimSpace(reply) == "" {
		return fmt.Errorf("%w: expected a non-empty reply", ErrInvalidResponse)
	}
	return nil
}
