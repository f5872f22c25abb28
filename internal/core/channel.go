package core

import "encoding/json"

// Channel groups clients subscribed to the same broadcast topic.
// It remembers the last published payload, but only as in-process state
// for the owning control surface: a subscriber that joins after a publish
// is deliberately not sent the remembered payload. The transport carries
// no replay; late joiners bootstrap over REST instead.
type Channel struct {
	Name    string
	clients map[*Client]struct{}
	last    json.RawMessage
}

// NewChannel constructs a channel with no subscribers.
func NewChannel(name string) *Channel {
	return &Channel{
		Name:    name,
		clients: make(map[*Client]struct{}),
	}
}

// AddClient inserts a subscriber. Returns true if newly added.
func (ch *Channel) AddClient(c *Client) bool {
	if _, exists := ch.clients[c]; exists {
		return false
	}
	ch.clients[c] = struct{}{}
	return true
}

// RemoveClient deletes a subscriber. Returns true if removed.
func (ch *Channel) RemoveClient(c *Client) bool {
	if _, exists := ch.clients[c]; !exists {
		return false
	}
	delete(ch.clients, c)
	return true
}

// Publish replaces the remembered payload and fans out to current subscribers.
// Delivery is at-most-once per subscriber: slow consumers are skipped, never
// blocked on, so the hub loop stays live during a broadcast.
func (ch *Channel) Publish(payload json.RawMessage) {
	ch.last = payload
	event := &Event{Kind: EventChannelMessage, Channel: ch.Name, Payload: payload}
	for client := range ch.clients {
		select {
		case client.Events <- event:
		default:
			// Drop if slow consumer.
		}
	}
}

// Last returns the most recently published payload, or nil if none yet.
func (ch *Channel) Last() json.RawMessage {
	return ch.last
}

// Empty returns true if no clients are subscribed.
func (ch *Channel) Empty() bool {
	return len(ch.clients) == 0
}
