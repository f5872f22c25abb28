package core

import "encoding/json"

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandSubscribe starts delivery of a channel's events to the client.
	CommandSubscribe CommandKind = iota
	// CommandUnsubscribe stops delivery of a channel's events to the client.
	CommandUnsubscribe
	// CommandPublish broadcasts a payload to every subscriber of a channel.
	CommandPublish
)

// Command represents an action requested by a client.
type Command struct {
	Kind    CommandKind
	Channel string
	Payload json.RawMessage
}
