package overlay

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/iffduels/overlay-server/internal/display"
	"github.com/iffduels/overlay-server/internal/proto"
)

// Renderer drives the overlay display state machine from a live
// connection. It subscribes to the display channels, normalizes every
// payload shape, and applies the result to a display.Controller; a
// rendering frontend polls the controller for what to draw.
type Renderer struct {
	client *Client
	api    *APIClient
	ctrl   *display.Controller
	subs   []*Subscription
}

// NewRenderer dials the server and wires up all display channels. A
// connect_error surfaces as the controller's error state rather than a
// failed dial, mirroring how the server treats auth.
func NewRenderer(ctx context.Context, session Session, logger *zerolog.Logger) (*Renderer, error) {
	api := NewAPIClient(session)
	ctrl := display.NewController(api, logger)

	client, err := Dial(ctx, session, &Options{
		Logger:         logger,
		OnConnectError: func(_, msg string) { ctrl.OnConnectError(msg) },
		OnDisconnect:   ctrl.OnDisconnect,
	})
	if err != nil {
		ctrl.Close()
		return nil, err
	}

	r := &Renderer{client: client, api: api, ctrl: ctrl}

	routes := map[string]Handler{
		proto.ChannelDisplayMode:       r.onDisplayUpdate,
		proto.ChannelLoveAndWarDisplay: r.onDisplayUpdate,
		proto.ChannelMatchData:         r.onMatchData,
		proto.ChannelIFFPlayer:         r.onPlayer,
	}
	for channel, h := range routes {
		sub, err := client.Subscribe(ctx, channel, h)
		if err != nil {
			r.Close()
			return nil, err
		}
		r.subs = append(r.subs, sub)
	}

	return r, nil
}

// Controller exposes the state machine for the rendering frontend.
func (r *Renderer) Controller() *display.Controller {
	return r.ctrl
}

// Bootstrap fetches the given team over REST and shows it, covering the
// gap before the first live event arrives. The subscriptions are already
// live by the time this runs, so a live event that raced ahead of the
// fetch wins: the snapshot applies only when nothing has been accepted
// yet. A failed fetch leaves the idle view and the next event self-heals.
func (r *Renderer) Bootstrap(ctx context.Context, teamID int64) {
	id := teamID
	r.ctrl.ApplyInitial(ctx, display.Update{Mode: display.ModeTeamStats, TeamID: &id, Visible: true})
}

func (r *Renderer) onDisplayUpdate(payload json.RawMessage) {
	r.ctrl.ApplyUpdate(context.Background(), display.DecodeUpdate(payload))
}

func (r *Renderer) onMatchData(payload json.RawMessage) {
	md, err := display.DecodeMatchData(payload)
	if err != nil {
		return
	}
	r.ctrl.ApplyMatchData(md)
}

func (r *Renderer) onPlayer(payload json.RawMessage) {
	p, err := display.DecodePlayer(payload)
	if err != nil {
		return
	}
	r.ctrl.ApplyPlayer(p)
}

// Close releases the subscriptions, the connection, and the controller.
func (r *Renderer) Close() error {
	for _, sub := range r.subs {
		_ = sub.Close()
	}
	err := r.client.Close()
	r.ctrl.Close()
	return err
}
