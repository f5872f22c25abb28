package core

import "encoding/json"

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventChannelMessage delivers a published payload to channel subscribers.
	EventChannelMessage EventKind = iota
	// EventError notifies a client about a domain error.
	EventError
)

// Event is sent to clients to describe what happened in the system.
// Payload is the published document verbatim; the core never interprets it.
type Event struct {
	Kind    EventKind
	Channel string
	Payload json.RawMessage
	Error   *CoreError
}
