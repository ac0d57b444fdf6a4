// Package gateway implements platform.Messenger over a websocket chat
// gateway. The client dials out, authenticates with an identify frame and
// multiplexes nonce-correlated requests with an inbound message stream.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"assassin/internal/platform"
)

const (
	// Time allowed to write a frame to the gateway
	writeWait = 10 * time.Second

	// Time allowed to read the next pong from the gateway
	pongWait = 60 * time.Second

	// Send pings with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum frame size allowed from the gateway
	maxFrameSize = 1 << 16

	// Buffer sizes for the outbound and inbound channels
	sendBufferSize    = 256
	inboundBufferSize = 256
)

// ErrClosed is returned by operations on a closed client.
var ErrClosed = errors.New("gateway connection closed")

type waiter struct {
	filter platform.MessageFilter
	ch     chan platform.Message
}

// Client is a connected gateway session. It implements platform.Messenger.
type Client struct {
	conn   *websocket.Conn
	logger *slog.Logger
	botID  string

	send    chan []byte
	inbound chan platform.Message
	done    chan struct{}

	mu      sync.Mutex
	closed  bool
	pending map[string]chan Frame
	waiters map[string]*waiter
}

// Dial connects to the gateway, authenticates and starts the read and
// write pumps. An authentication failure aborts the whole startup.
func Dial(ctx context.Context, url, token string, logger *slog.Logger) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial gateway: %w", err)
	}

	c := &Client{
		conn:    conn,
		logger:  logger,
		send:    make(chan []byte, sendBufferSize),
		inbound: make(chan platform.Message, inboundBufferSize),
		done:    make(chan struct{}),
		pending: make(map[string]chan Frame),
		waiters: make(map[string]*waiter),
	}

	if err := c.identify(ctx, token); err != nil {
		conn.Close()
		return nil, err
	}

	go c.writePump()
	go c.readPump()

	return c, nil
}

// identify performs the auth handshake synchronously, before the pumps own
// the connection.
func (c *Client) identify(ctx context.Context, token string) error {
	frame, err := newFrame(FrameIdentify, "", IdentifyData{Token: token})
	if err != nil {
		return err
	}

	deadline := time.Now().Add(writeWait)
	if d, ok := ctx.Deadline(); ok {
		deadline = d
	}

	c.conn.SetWriteDeadline(deadline)
	if err := c.conn.WriteJSON(frame); err != nil {
		return fmt.Errorf("send identify: %w", err)
	}

	c.conn.SetReadDeadline(deadline)
	var reply Frame
	if err := c.conn.ReadJSON(&reply); err != nil {
		return fmt.Errorf("await ready: %w", err)
	}

	switch reply.Type {
	case FrameReady:
		var ready ReadyData
		if err := json.Unmarshal(reply.Data, &ready); err != nil {
			return fmt.Errorf("decode ready: %w", err)
		}
		c.botID = ready.BotID
		return nil
	case FrameError:
		var gwErr ErrorData
		if err := json.Unmarshal(reply.Data, &gwErr); err != nil {
			return fmt.Errorf("decode error frame: %w", err)
		}
		return fmt.Errorf("gateway rejected identify: %s: %s", gwErr.Code, gwErr.Message)
	default:
		return fmt.Errorf("unexpected frame during identify: %s", reply.Type)
	}
}

// BotID returns the bot's own user id, as reported by the gateway.
func (c *Client) BotID() string {
	return c.botID
}

// Messages returns the stream of inbound messages not claimed by an awaiter.
func (c *Client) Messages() <-chan platform.Message {
	return c.inbound
}

// Close tears down the connection and unblocks all pending requests.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	close(c.done)
	return c.conn.Close()
}

// readPump pumps frames from the gateway connection.
func (c *Client) readPump() {
	defer c.Close()

	c.conn.SetReadLimit(maxFrameSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("gateway read error", "error", err)
			}
			return
		}

		var frame Frame
		if err := json.Unmarshal(raw, &frame); err != nil {
			c.logger.Warn("malformed gateway frame", "error", err)
			continue
		}

		c.handleFrame(frame)
	}
}

// writePump pumps frames from the send channel to the gateway connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case raw := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleFrame(frame Frame) {
	switch frame.Type {
	case FrameResult, FrameError:
		c.mu.Lock()
		ch, ok := c.pending[frame.Nonce]
		if ok {
			delete(c.pending, frame.Nonce)
		}
		c.mu.Unlock()
		if !ok {
			c.logger.Warn("reply with unknown nonce", "nonce", frame.Nonce)
			return
		}
		ch <- frame

	case FrameMessageCreate:
		var msg platform.Message
		if err := json.Unmarshal(frame.Data, &msg); err != nil {
			c.logger.Warn("malformed message_create", "error", err)
			return
		}
		if msg.AuthorID == c.botID {
			return
		}
		c.dispatchMessage(msg)

	default:
		c.logger.Debug("ignoring frame", "type", frame.Type)
	}
}

// dispatchMessage offers the message to awaiters first; unclaimed traffic
// flows to the command stream.
func (c *Client) dispatchMessage(msg platform.Message) {
	c.mu.Lock()
	for id, w := range c.waiters {
		if w.filter(msg) {
			delete(c.waiters, id)
			c.mu.Unlock()
			w.ch <- msg
			return
		}
	}
	c.mu.Unlock()

	select {
	case c.inbound <- msg:
	default:
		c.logger.Warn("inbound buffer full, message dropped", "channelId", msg.ChannelID)
	}
}

// request sends a nonce-correlated frame and waits for its reply.
func (c *Client) request(ctx context.Context, frameType FrameType, data any) (ResultData, error) {
	nonce := uuid.NewString()
	frame, err := newFrame(frameType, nonce, data)
	if err != nil {
		return ResultData{}, err
	}
	raw, err := json.Marshal(frame)
	if err != nil {
		return ResultData{}, err
	}

	reply := make(chan Frame, 1)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ResultData{}, ErrClosed
	}
	c.pending[nonce] = reply
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, nonce)
		c.mu.Unlock()
	}()

	select {
	case c.send <- raw:
	case <-c.done:
		return ResultData{}, ErrClosed
	case <-ctx.Done():
		return ResultData{}, ctx.Err()
	}

	select {
	case frame := <-reply:
		if frame.Type == FrameError {
			var gwErr ErrorData
			if err := json.Unmarshal(frame.Data, &gwErr); err != nil {
				return ResultData{}, fmt.Errorf("decode error frame: %w", err)
			}
			return ResultData{}, fmt.Errorf("gateway: %s: %s", gwErr.Code, gwErr.Message)
		}
		var res ResultData
		if len(frame.Data) > 0 {
			if err := json.Unmarshal(frame.Data, &res); err != nil {
				return ResultData{}, fmt.Errorf("decode result: %w", err)
			}
		}
		return res, nil
	case <-c.done:
		return ResultData{}, ErrClosed
	case <-ctx.Done():
		return ResultData{}, ctx.Err()
	}
}

// Send implements platform.Messenger.
func (c *Client) Send(ctx context.Context, channelID, content string) (string, error) {
	res, err := c.request(ctx, FrameSendMessage, SendMessageData{ChannelID: channelID, Content: content})
	if err != nil {
		return "", err
	}
	return res.MessageID, nil
}

// SendCard implements platform.Messenger.
func (c *Client) SendCard(ctx context.Context, channelID string, card platform.Card) (string, error) {
	res, err := c.request(ctx, FrameSendMessage, SendMessageData{ChannelID: channelID, Card: &card})
	if err != nil {
		return "", err
	}
	return res.MessageID, nil
}

// OpenDM implements platform.Messenger.
func (c *Client) OpenDM(ctx context.Context, userID string) (string, error) {
	res, err := c.request(ctx, FrameOpenDM, OpenDMData{UserID: userID})
	if err != nil {
		return "", err
	}
	return res.ChannelID, nil
}

// Purge implements platform.Messenger.
func (c *Client) Purge(ctx context.Context, channelID string) error {
	_, err := c.request(ctx, FramePurgeChannel, PurgeChannelData{ChannelID: channelID})
	return err
}

// Await implements platform.Messenger.
func (c *Client) Await(ctx context.Context, filter platform.MessageFilter, timeout time.Duration) (platform.Message, error) {
	w := &waiter{filter: filter, ch: make(chan platform.Message, 1)}
	id := uuid.NewString()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return platform.Message{}, ErrClosed
	}
	c.waiters[id] = w
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.waiters, id)
		c.mu.Unlock()
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case msg := <-w.ch:
		return msg, nil
	case <-timer.C:
		return platform.Message{}, platform.ErrAwaitTimeout
	case <-c.done:
		return platform.Message{}, ErrClosed
	case <-ctx.Done():
		return platform.Message{}, ctx.Err()
	}
}

// AddReactions implements platform.Messenger.
func (c *Client) AddReactions(ctx context.Context, channelID, messageID string, emojis ...string) error {
	_, err := c.request(ctx, FrameAddReactions, AddReactionsData{
		ChannelID: channelID,
		MessageID: messageID,
		Emojis:    emojis,
	})
	return err
}

// ReactionCounts implements platform.Messenger.
func (c *Client) ReactionCounts(ctx context.Context, channelID, messageID string) (map[string]int, error) {
	res, err := c.request(ctx, FrameReactionCounts, ReactionCountsData{
		ChannelID: channelID,
		MessageID: messageID,
	})
	if err != nil {
		return nil, err
	}
	return res.Counts, nil
}

// UserName implements platform.Messenger.
func (c *Client) UserName(ctx context.Context, userID string) (string, error) {
	res, err := c.request(ctx, FrameFetchUser, FetchUserData{UserID: userID})
	if err != nil {
		return "", err
	}
	return res.Name, nil
}

// ResolveMention implements platform.Messenger. Mention tokens resolve
// locally; anything else is looked up through the gateway.
func (c *Client) ResolveMention(ctx context.Context, token string) (string, error) {
	if id, ok := platform.ParseMention(token); ok {
		return id, nil
	}
	res, err := c.request(ctx, FrameResolveMember, ResolveMemberData{Query: token})
	if err != nil {
		return "", err
	}
	return res.UserID, nil
}
