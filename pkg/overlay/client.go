// Package overlay is the Go client for the overlay server: a WebSocket
// session speaking the subscribe/publish protocol, a small REST client for
// entity detail fetches, and a Renderer that drives the overlay display
// state machine from live events. Control pages and headless overlay
// consumers share the same wire contract through it.
package overlay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/iffduels/overlay-server/internal/proto"
)

// Session holds everything needed to reach one overlay server. Construct
// it once and pass it explicitly; the package keeps no ambient globals.
type Session struct {
	// BaseURL is the server's HTTP origin, e.g. "http://localhost:8080".
	BaseURL string
	// Token is the connection token from POST /api/access. May be empty,
	// in which case the connection comes up degraded and the server sends
	// a connect_error message.
	Token string
}

// Handler receives one channel event payload. Handlers for a channel are
// invoked in publish order from the read loop, so a slow handler delays
// later events rather than reordering them.
type Handler func(payload json.RawMessage)

// Options tunes a Client beyond the session basics.
type Options struct {
	// OnConnectError is invoked when the server reports an asynchronous
	// auth failure. The connection stays open but degraded.
	OnConnectError func(code, msg string)
	// OnDisconnect is invoked when the connection drops before Close.
	// Redial starts immediately afterwards.
	OnDisconnect func()
	// OnError receives protocol-level error messages (bad subscribe,
	// unauthorized publish). Defaults to a log line.
	OnError func(code, msg string)
	Logger  *zerolog.Logger

	// RedialMin and RedialMax bound the reconnect backoff.
	RedialMin time.Duration
	RedialMax time.Duration
}

// ErrClosed is returned from operations on a closed client.
var ErrClosed = errors.New("overlay: client closed")

// Client is one WebSocket connection to the overlay server. It redials on
// drop with backoff and re-subscribes to every channel it held; dropped
// events are not replayed, the next update self-heals the view.
type Client struct {
	session Session
	opts    Options
	log     *zerolog.Logger

	mu     sync.Mutex
	conn   *websocket.Conn
	subs   map[string]Handler
	closed bool
	done   chan struct{}
}

// Dial connects to the server's /ws endpoint and starts the read loop.
func Dial(ctx context.Context, session Session, opts *Options) (*Client, error) {
	o := Options{}
	if opts != nil {
		o = *opts
	}
	if o.Logger == nil {
		nop := zerolog.Nop()
		o.Logger = &nop
	}
	if o.RedialMin <= 0 {
		o.RedialMin = 500 * time.Millisecond
	}
	if o.RedialMax <= 0 {
		o.RedialMax = 15 * time.Second
	}

	c := &Client{
		session: session,
		opts:    o,
		log:     o.Logger,
		subs:    make(map[string]Handler),
		done:    make(chan struct{}),
	}

	conn, err := c.dial(ctx)
	if err != nil {
		return nil, err
	}
	c.conn = conn

	go c.run()
	return c, nil
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	u := strings.Replace(c.session.BaseURL, "http", "ws", 1) + "/ws"
	if c.session.Token != "" {
		u += "?token=" + c.session.Token
	}
	conn, _, err := websocket.Dial(ctx, u, nil)
	if err != nil {
		return nil, fmt.Errorf("dial overlay server: %w", err)
	}
	return conn, nil
}

// run owns the read loop and the redial cycle.
func (c *Client) run() {
	for {
		c.mu.Lock()
		conn := c.conn
		closed := c.closed
		c.mu.Unlock()
		if closed {
			return
		}

		err := c.readLoop(conn)
		c.mu.Lock()
		closed = c.closed
		c.mu.Unlock()
		if closed {
			return
		}

		c.log.Warn().Err(err).Msg("overlay connection dropped")
		if c.opts.OnDisconnect != nil {
			c.opts.OnDisconnect()
		}
		if !c.redial() {
			return
		}
	}
}

func (c *Client) readLoop(conn *websocket.Conn) error {
	ctx := context.Background()
	for {
		var out proto.Outbound
		if err := wsjson.Read(ctx, conn, &out); err != nil {
			return err
		}
		c.dispatch(out)
	}
}

// dispatch routes one server message. Events are delivered synchronously
// so per-channel order survives all the way to the handler.
func (c *Client) dispatch(out proto.Outbound) {
	switch out.Type {
	case proto.OutboundTypeEvent:
		c.mu.Lock()
		h := c.subs[out.Channel]
		c.mu.Unlock()
		if h != nil {
			h(out.Data)
		}
	case proto.OutboundTypeConnectError:
		code, msg := "unknown", "connection not authorized"
		if out.Error != nil {
			code, msg = out.Error.Code, out.Error.Msg
		}
		if c.opts.OnConnectError != nil {
			c.opts.OnConnectError(code, msg)
		} else {
			c.log.Error().Str("code", code).Msg("overlay connect error")
		}
	case proto.OutboundTypeError:
		code, msg := "unknown", ""
		if out.Error != nil {
			code, msg = out.Error.Code, out.Error.Msg
		}
		if c.opts.OnError != nil {
			c.opts.OnError(code, msg)
		} else {
			c.log.Warn().Str("code", code).Str("msg", msg).Msg("overlay protocol error")
		}
	}
}

// redial reconnects with backoff and replays the subscribe set. Returns
// false once the client is closed.
func (c *Client) redial() bool {
	wait := c.opts.RedialMin
	for {
		select {
		case <-c.done:
			return false
		case <-time.After(wait):
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		conn, err := c.dial(ctx)
		cancel()
		if err != nil {
			c.log.Warn().Err(err).Dur("next_wait", wait).Msg("overlay redial failed")
			wait *= 2
			if wait > c.opts.RedialMax {
				wait = c.opts.RedialMax
			}
			continue
		}

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			conn.Close(websocket.StatusNormalClosure, "closed")
			return false
		}
		c.conn = conn
		channels := make([]string, 0, len(c.subs))
		for name := range c.subs {
			channels = append(channels, name)
		}
		c.mu.Unlock()

		for _, name := range channels {
			if err := c.send(context.Background(), proto.InboundTypeSubscribe, proto.SubscribeData{Channel: name}); err != nil {
				c.log.Warn().Err(err).Str("channel", name).Msg("resubscribe failed")
			}
		}
		c.log.Info().Msg("overlay connection re-established")
		return true
	}
}

func (c *Client) send(ctx context.Context, msgType string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", msgType, err)
	}

	c.mu.Lock()
	conn := c.conn
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return ErrClosed
	}
	return wsjson.Write(ctx, conn, proto.Inbound{Type: msgType, Data: raw})
}

// Subscribe starts delivery of a channel's events to the handler. The
// returned Subscription must be closed when the listener goes away.
func (c *Client) Subscribe(ctx context.Context, channel string, h Handler) (*Subscription, error) {
	if channel == "" {
		return nil, errors.New("overlay: channel is required")
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	if _, dup := c.subs[channel]; dup {
		c.mu.Unlock()
		return nil, fmt.Errorf("overlay: already subscribed to %s", channel)
	}
	c.subs[channel] = h
	c.mu.Unlock()

	if err := c.send(ctx, proto.InboundTypeSubscribe, proto.SubscribeData{Channel: channel}); err != nil {
		c.mu.Lock()
		delete(c.subs, channel)
		c.mu.Unlock()
		return nil, err
	}
	return &Subscription{client: c, channel: channel}, nil
}

// Publish broadcasts a payload on a channel. Requires an operator token;
// an overlay token gets a protocol error back. Satisfies emit.Publisher.
func (c *Client) Publish(ctx context.Context, channel string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return c.send(ctx, proto.InboundTypePublish, proto.PublishData{Channel: channel, Payload: raw})
}

// Close tears the connection down. Safe to call more than once.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	conn := c.conn
	c.mu.Unlock()

	close(c.done)
	if conn != nil {
		return conn.Close(websocket.StatusNormalClosure, "client closed")
	}
	return nil
}

// Subscription is one channel listener. Closing it stops delivery and
// releases the server-side subscription.
type Subscription struct {
	client  *Client
	channel string
	once    sync.Once
}

// Channel reports which channel this subscription listens on.
func (s *Subscription) Channel() string {
	return s.channel
}

// Close unsubscribes. Events already in flight may still be delivered.
func (s *Subscription) Close() error {
	var err error
	s.once.Do(func() {
		s.client.mu.Lock()
		delete(s.client.subs, s.channel)
		closed := s.client.closed
		s.client.mu.Unlock()
		if closed {
			return
		}
		err = s.client.send(context.Background(), proto.InboundTypeUnsubscribe, proto.SubscribeData{Channel: s.channel})
	})
	return err
}
