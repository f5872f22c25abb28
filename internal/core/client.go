package core

// Client is one live transport session as seen by the core layer.
//
// Connected and authorized are two different facts: a connection whose
// token was missing or rejected stays registered (it already received a
// connect_error on the wire) but is degraded: it can neither subscribe
// nor publish, so it gets no live updates.
type Client struct {
	ID       string
	Identity string
	// Authorized is true when the connection presented a valid token.
	Authorized bool
	// CanPublish is true only for operator connections.
	CanPublish bool
	Commands   chan *Command
	Events     chan *Event
	Channels   map[string]struct{}
}

// NewClient constructs a client with initialized channels.
func NewClient(id, identity string, authorized, canPublish bool) *Client {
	if identity == "" {
		identity = id
	}
	return &Client{
		ID:         id,
		Identity:   identity,
		Authorized: authorized,
		CanPublish: canPublish,
		Commands:   make(chan *Command, 8),
		Events:     make(chan *Event, 8),
		Channels:   make(map[string]struct{}),
	}
}
