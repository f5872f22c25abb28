// Package emit implements the operator-side control surface: it turns UI
// actions into display-state publishes on the real-time transport.
package emit

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/iffduels/overlay-server/internal/display"
	"github.com/iffduels/overlay-server/internal/proto"
)

// Publisher broadcasts a payload on a channel. Fire-and-forget: there is
// no acknowledgement, so the emitter cannot tell "no subscribers" from
// "subscriber didn't render". That is accepted, not masked.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload any) error
}

// Emitter tracks the operator's last selection per channel and publishes
// display-state events.
type Emitter struct {
	pub Publisher
	log *zerolog.Logger

	mu     sync.Mutex
	lastID map[string]*int64
}

// NewEmitter builds an emitter over the given publisher.
func NewEmitter(pub Publisher, logger *zerolog.Logger) *Emitter {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Emitter{
		pub:    pub,
		log:    logger,
		lastID: make(map[string]*int64),
	}
}

// SelectEntity remembers the selection and publishes {entityId, visible}.
// The id is not validated here: the server-side store is the source of
// truth, and a dangling id just renders as nothing downstream.
func (e *Emitter) SelectEntity(ctx context.Context, channel string, entityID int64, visible bool) error {
	id := entityID
	e.mu.Lock()
	e.lastID[channel] = &id
	e.mu.Unlock()

	return e.pub.Publish(ctx, channel, proto.TeamToggle{TeamID: &id, Visible: visible})
}

// SetVisibility republishes the last-known entity id with the toggled
// flag: a show/hide that doesn't change which entity is chosen. With no
// prior selection the id is null, which overlays render as nothing.
func (e *Emitter) SetVisibility(ctx context.Context, channel string, visible bool) error {
	e.mu.Lock()
	id := e.lastID[channel]
	e.mu.Unlock()

	return e.pub.Publish(ctx, channel, proto.TeamToggle{TeamID: id, Visible: visible})
}

// SetMode publishes an explicit-mode event on a multiplexed channel.
func (e *Emitter) SetMode(ctx context.Context, channel string, mode display.Mode, teamID *int64, visible bool) error {
	if teamID != nil {
		id := *teamID
		e.mu.Lock()
		e.lastID[channel] = &id
		e.mu.Unlock()
	}
	return e.pub.Publish(ctx, channel, proto.DisplayModeUpdate{
		Mode:    string(mode),
		TeamID:  teamID,
		Visible: visible,
	})
}

// SetMatch publishes the current match scoreboard.
func (e *Emitter) SetMatch(ctx context.Context, channel string, md proto.MatchData) error {
	return e.pub.Publish(ctx, channel, md)
}

// ShowPlayer publishes a self-contained player detail; subscribers need
// no second fetch.
func (e *Emitter) ShowPlayer(ctx context.Context, channel string, p proto.PlayerDetail) error {
	return e.pub.Publish(ctx, channel, p)
}
