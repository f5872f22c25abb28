package core

import (
	"context"

	"github.com/rs/zerolog"
)

// Hub owns every channel and every connected client. All mutations happen
// on the single Run goroutine, which is what gives per-channel publish
// ordering: two publishes to the same channel are fanned out in the order
// the hub loop dequeues them, and each subscriber's event channel preserves
// that order.
type Hub struct {
	log        *zerolog.Logger
	register   chan *Client
	unregister chan *Client
	inbox      chan clientCommand
	channels   map[string]*Channel
	clients    map[*Client]struct{}
}

type clientCommand struct {
	client *Client
	cmd    *Command
}

// NewHub creates a hub with no channels. Channels are created lazily on
// first subscribe or first publish.
func NewHub(logger *zerolog.Logger) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Hub{
		log:        logger,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbox:      make(chan clientCommand, 64),
		channels:   make(map[string]*Channel),
		clients:    make(map[*Client]struct{}),
	}
}

// RegisterClient attaches a client to the hub.
func (h *Hub) RegisterClient(c *Client) {
	h.register <- c
}

// UnregisterClient detaches a client and releases its subscriptions.
func (h *Hub) UnregisterClient(c *Client) {
	h.unregister <- c
}

// Run processes hub traffic until the context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case c := <-h.register:
			h.clients[c] = struct{}{}
			go h.pump(ctx, c)
		case c := <-h.unregister:
			h.dropClient(c)
		case cc := <-h.inbox:
			h.handle(cc.client, cc.cmd)
		}
	}
}

// pump forwards one client's commands into the hub inbox, preserving the
// order the client issued them.
func (h *Hub) pump(ctx context.Context, c *Client) {
	for {
		select {
		case <-ctx.Done():
			return
		case cmd, ok := <-c.Commands:
			if !ok {
				return
			}
			select {
			case h.inbox <- clientCommand{client: c, cmd: cmd}:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (h *Hub) handle(c *Client, cmd *Command) {
	if _, known := h.clients[c]; !known {
		// Command raced with unregister; the connection is gone.
		return
	}

	switch cmd.Kind {
	case CommandSubscribe:
		h.subscribe(c, cmd.Channel)
	case CommandUnsubscribe:
		h.unsubscribe(c, cmd.Channel)
	case CommandPublish:
		h.publish(c, cmd.Channel, cmd)
	default:
		h.sendError(c, coreError(ErrCodeBadRequest, "unknown command"))
	}
}

func (h *Hub) subscribe(c *Client, name string) {
	if name == "" {
		h.sendError(c, coreError(ErrCodeBadRequest, "channel is required"))
		return
	}
	if !c.Authorized {
		h.sendError(c, coreError(ErrCodeUnauthorized, "connection is not authorized"))
		return
	}
	ch := h.ensureChannel(name)
	if !ch.AddClient(c) {
		h.sendError(c, coreError(ErrCodeAlreadySubscribed, "already subscribed to "+name))
		return
	}
	c.Channels[name] = struct{}{}
	h.log.Debug().Str("client_id", c.ID).Str("channel", name).Msg("subscribed")
}

func (h *Hub) unsubscribe(c *Client, name string) {
	ch, ok := h.channels[name]
	if !ok {
		h.sendError(c, coreError(ErrCodeChannelNotFound, "no such channel "+name))
		return
	}
	if !ch.RemoveClient(c) {
		h.sendError(c, coreError(ErrCodeNotSubscribed, "not subscribed to "+name))
		return
	}
	delete(c.Channels, name)
}

func (h *Hub) publish(c *Client, name string, cmd *Command) {
	if name == "" {
		h.sendError(c, coreError(ErrCodeBadRequest, "channel is required"))
		return
	}
	if !c.CanPublish {
		h.sendError(c, coreError(ErrCodeUnauthorized, "connection is not authorized to publish"))
		return
	}
	ch := h.ensureChannel(name)
	ch.Publish(cmd.Payload)
	h.log.Debug().Str("client_id", c.ID).Str("channel", name).Msg("published")
}

// ensureChannel returns the named channel, creating it on first use.
// Channels are never torn down while the process lives: an empty channel
// still holds the last payload for the owning control page.
func (h *Hub) ensureChannel(name string) *Channel {
	ch, ok := h.channels[name]
	if !ok {
		ch = NewChannel(name)
		h.channels[name] = ch
	}
	return ch
}

func (h *Hub) dropClient(c *Client) {
	if _, known := h.clients[c]; !known {
		return
	}
	for name := range c.Channels {
		if ch, ok := h.channels[name]; ok {
			ch.RemoveClient(c)
		}
	}
	delete(h.clients, c)
	h.log.Debug().Str("client_id", c.ID).Msg("client dropped")
}

func (h *Hub) sendError(c *Client, cerr *CoreError) {
	select {
	case c.Events <- &Event{Kind: EventError, Error: cerr}:
	default:
	}
}
