// Package platformtest provides an in-memory Messenger fake for tests.
// Inbound traffic is scripted with Deliver; outbound traffic is recorded.
package platformtest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"assassin/internal/platform"
)

// Sent records one outbound message.
type Sent struct {
	ChannelID string
	Content   string
	Card      *platform.Card
}

// Fake is an in-memory platform.Messenger.
type Fake struct {
	mu        sync.Mutex
	sent      []Sent
	purged    []string
	reactions map[string][]string
	nextID    int

	queue chan platform.Message

	// Counts holds canned reaction tallies per message id, including the
	// bot's own seed reactions, exactly as the platform would report them.
	Counts map[string]map[string]int

	// Users maps user ids to display names.
	Users map[string]string

	// Members maps non-mention queries to user ids for ResolveMention.
	Members map[string]string

	// PurgeErr, when set, is returned by every Purge call.
	PurgeErr error
}

// New creates an empty fake.
func New() *Fake {
	return &Fake{
		reactions: make(map[string][]string),
		queue:     make(chan platform.Message, 64),
		Counts:    make(map[string]map[string]int),
		Users:     make(map[string]string),
		Members:   make(map[string]string),
	}
}

// Deliver scripts an inbound message for a later Await.
func (f *Fake) Deliver(msg platform.Message) {
	f.queue <- msg
}

// Sent returns a copy of everything sent so far.
func (f *Fake) Sent() []Sent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Sent, len(f.sent))
	copy(out, f.sent)
	return out
}

// ContentsIn returns the plain-text contents sent to one channel, in order.
func (f *Fake) ContentsIn(channelID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, s := range f.sent {
		if s.ChannelID == channelID && s.Card == nil {
			out = append(out, s.Content)
		}
	}
	return out
}

// CardsIn returns the cards sent to one channel, in order.
func (f *Fake) CardsIn(channelID string) []platform.Card {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []platform.Card
	for _, s := range f.sent {
		if s.ChannelID == channelID && s.Card != nil {
			out = append(out, *s.Card)
		}
	}
	return out
}

// Purged returns the channels purged so far, in order.
func (f *Fake) Purged() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.purged))
	copy(out, f.purged)
	return out
}

// Reactions returns the emojis seeded on a message.
func (f *Fake) Reactions(messageID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.reactions[messageID]...)
}

func (f *Fake) record(s Sent) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.sent = append(f.sent, s)
	return fmt.Sprintf("m%d", f.nextID)
}

// Send implements platform.Messenger.
func (f *Fake) Send(ctx context.Context, channelID, content string) (string, error) {
	return f.record(Sent{ChannelID: channelID, Content: content}), nil
}

// SendCard implements platform.Messenger.
func (f *Fake) SendCard(ctx context.Context, channelID string, card platform.Card) (string, error) {
	return f.record(Sent{ChannelID: channelID, Card: &card}), nil
}

// OpenDM implements platform.Messenger. DM channels are named "dm:<user>".
func (f *Fake) OpenDM(ctx context.Context, userID string) (string, error) {
	return DMChannel(userID), nil
}

// DMChannel returns the fake's DM channel id for a user.
func DMChannel(userID string) string {
	return "dm:" + userID
}

// Purge implements platform.Messenger.
func (f *Fake) Purge(ctx context.Context, channelID string) error {
	if f.PurgeErr != nil {
		return f.PurgeErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.purged = append(f.purged, channelID)
	return nil
}

// Await implements platform.Messenger. Scripted messages that do not match
// the filter are discarded, mirroring how concurrent traffic is ignored.
func (f *Fake) Await(ctx context.Context, filter platform.MessageFilter, timeout time.Duration) (platform.Message, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case msg := <-f.queue:
			if filter(msg) {
				return msg, nil
			}
		case <-timer.C:
			return platform.Message{}, platform.ErrAwaitTimeout
		case <-ctx.Done():
			return platform.Message{}, ctx.Err()
		}
	}
}

// AddReactions implements platform.Messenger.
func (f *Fake) AddReactions(ctx context.Context, channelID, messageID string, emojis ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reactions[messageID] = append(f.reactions[messageID], emojis...)
	return nil
}

// ReactionCounts implements platform.Messenger.
func (f *Fake) ReactionCounts(ctx context.Context, channelID, messageID string) (map[string]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts, ok := f.Counts[messageID]
	if !ok {
		return map[string]int{}, nil
	}
	out := make(map[string]int, len(counts))
	for k, v := range counts {
		out[k] = v
	}
	return out, nil
}

// UserName implements platform.Messenger.
func (f *Fake) UserName(ctx context.Context, userID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if name, ok := f.Users[userID]; ok {
		return name, nil
	}
	return "user-" + userID, nil
}

// ResolveMention implements platform.Messenger.
func (f *Fake) ResolveMention(ctx context.Context, token string) (string, error) {
	if id, ok := platform.ParseMention(token); ok {
		return id, nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if id, ok := f.Members[token]; ok {
		return id, nil
	}
	return "", errors.New("member not found: " + token)
}
