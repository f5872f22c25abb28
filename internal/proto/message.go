package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	ProtocolVersion = 1

	InboundTypeSubscribe   = "subscribe"
	InboundTypeUnsubscribe = "unsubscribe"
	InboundTypePublish     = "publish"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"
	// OutboundTypeConnectError is the asynchronous auth failure signal.
	// The handshake itself never rejects; callers observe this message
	// instead and must render an explicit error state.
	OutboundTypeConnectError = "connect_error"
)

// SubscribeData requests delivery of a channel's events.
// The same shape serves unsubscribe.
type SubscribeData struct {
	Channel string `json:"channel"`
}

// PublishData broadcasts a payload on a channel. The payload is relayed
// to subscribers verbatim.
type PublishData struct {
	Channel string          `json:"channel"`
	Payload json.RawMessage `json:"payload"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type    string          `json:"type"`
	Channel string          `json:"channel,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
