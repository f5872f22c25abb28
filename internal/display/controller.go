package display

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/iffduels/overlay-server/internal/proto"
)

// DefaultChartDelay is how long resolved chart values are held back so the
// entrance transition can engage from a zero state.
const DefaultChartDelay = 100 * time.Millisecond

// TeamResolver fetches full team detail for a reference-only event.
// A (nil, nil) result means the referenced team no longer exists.
type TeamResolver interface {
	TeamByID(ctx context.Context, id int64) (*proto.TeamDetail, error)
}

// Controller is the overlay renderer state machine. It holds the current
// display mode and the currently rendered entity, resolves reference-only
// events through a TeamResolver, and tracks the animation generation: a
// counter that increments only when the rendered primary identity changes,
// so a stat correction re-renders in place without replaying the entrance
// animation.
//
// A disconnect deliberately changes nothing here: the last rendered
// content stays on screen through a brief reconnect blip.
type Controller struct {
	resolver   TeamResolver
	log        *zerolog.Logger
	chartDelay time.Duration

	mu     sync.Mutex
	closed bool
	// seq increments on every accepted update and on Close; a resolution
	// or chart timer carrying an older seq is stale and must be dropped.
	seq uint64

	mode       Mode
	errMsg     string
	team       *proto.TeamDetail
	player     *proto.PlayerDetail
	match      *proto.MatchData
	renderedID string
	generation uint64
	chartReady bool
	chartTimer *time.Timer
}

// NewController builds an idle controller.
func NewController(resolver TeamResolver, logger *zerolog.Logger) *Controller {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Controller{
		resolver:   resolver,
		log:        logger,
		chartDelay: DefaultChartDelay,
		mode:       ModeIdle,
	}
}

// SetChartDelay overrides the chart reveal delay. Tests use zero.
func (c *Controller) SetChartDelay(d time.Duration) {
	c.mu.Lock()
	c.chartDelay = d
	c.mu.Unlock()
}

// ApplyUpdate accepts a normalized display event and drives the state
// machine. For team-stats with a team reference it performs the detail
// fetch before the new content is considered rendered; on fetch failure or
// a deleted team the mode stays team-stats and nothing is rendered.
func (c *Controller) ApplyUpdate(ctx context.Context, u Update) {
	c.apply(ctx, u, false)
}

// ApplyInitial applies u only when no update has been accepted yet. It
// backs the REST bootstrap that runs alongside a live subscription: if a
// live event already landed, the fetched snapshot is older and must not
// overwrite it.
func (c *Controller) ApplyInitial(ctx context.Context, u Update) {
	c.apply(ctx, u, true)
}

func (c *Controller) apply(ctx context.Context, u Update, onlyIfFirst bool) {
	c.mu.Lock()
	if c.closed || (onlyIfFirst && c.seq > 0) {
		c.mu.Unlock()
		return
	}
	c.seq++
	seq := c.seq
	c.errMsg = ""
	c.stopChartLocked()

	switch u.Mode {
	case ModeIdle:
		c.mode = ModeIdle
		c.team = nil
		c.renderedID = ""
		c.mu.Unlock()
		return

	case ModeTeamStats:
		c.mode = ModeTeamStats
		if u.TeamID == nil || !u.Visible {
			c.team = nil
			c.renderedID = ""
			c.mu.Unlock()
			return
		}
		id := *u.TeamID
		c.mu.Unlock()

		team, err := c.resolver.TeamByID(ctx, id)

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.closed || c.seq != seq {
			// Superseded by a newer event or torn down mid-fetch.
			return
		}
		if err != nil {
			c.log.Error().Err(err).Int64("team_id", id).Msg("resolve team detail")
			c.team = nil
			c.renderedID = ""
			return
		}
		if team == nil {
			c.log.Warn().Int64("team_id", id).Msg("team no longer exists, rendering nothing")
			c.team = nil
			c.renderedID = ""
			return
		}
		c.team = team
		c.setRenderedLocked(fmt.Sprintf("team:%d", team.ID))
		c.armChartLocked(seq)
		return

	case ModeMatch, ModeMatchCard:
		c.mode = u.Mode
		if c.match != nil {
			c.setRenderedLocked(matchIdentity(c.match))
		}
		c.mu.Unlock()
		return

	default:
		c.mu.Unlock()
	}
}

// ApplyMatchData accepts a scoreboard payload. It updates the rendered
// match in place; the entrance animation fires only when the match
// identity (pairing and round) changes, not on a score correction.
func (c *Controller) ApplyMatchData(md *proto.MatchData) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || md == nil {
		return
	}
	c.seq++
	c.match = md
	if c.mode == ModeMatch || c.mode == ModeMatchCard {
		c.setRenderedLocked(matchIdentity(md))
	}
}

// ApplyPlayer accepts a self-contained player payload (iff-player-update).
func (c *Controller) ApplyPlayer(p *proto.PlayerDetail) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.seq++
	c.stopChartLocked()
	if p == nil {
		c.player = nil
		c.renderedID = ""
		return
	}
	c.player = p
	c.setRenderedLocked(fmt.Sprintf("player:%d", p.ID))
	c.armChartLocked(c.seq)
}

// OnConnectError transitions to the error display state, distinct from
// idle. The transport's message is surfaced verbatim.
func (c *Controller) OnConnectError(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.seq++
	c.stopChartLocked()
	c.mode = ModeError
	c.errMsg = msg
	c.log.Warn().Str("reason", msg).Msg("transport connect error")
}

// OnDisconnect records a dropped connection. No mode change: the overlay
// keeps showing its last content through the blip.
func (c *Controller) OnDisconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.log.Debug().Msg("transport disconnected, keeping last rendered content")
}

// Close tears the controller down, cancelling any in-flight resolution or
// pending chart reveal.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.seq++
	c.stopChartLocked()
}

// Mode returns the current display mode.
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// Generation returns the animation generation counter.
func (c *Controller) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// Team returns the currently rendered team detail, or nil.
func (c *Controller) Team() *proto.TeamDetail {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.team
}

// Player returns the currently rendered player detail, or nil.
func (c *Controller) Player() *proto.PlayerDetail {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.player
}

// Match returns the last received match data, or nil.
func (c *Controller) Match() *proto.MatchData {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.match
}

// ErrorMessage returns the transport error being displayed, if any.
func (c *Controller) ErrorMessage() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errMsg
}

// ChartReady reports whether the chart values have been released for
// animation (the reveal delay has fired).
func (c *Controller) ChartReady() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.chartReady
}

// setRenderedLocked updates the rendered primary identity and bumps the
// animation generation only when the identity actually changed.
func (c *Controller) setRenderedLocked(id string) {
	if id != "" && id != c.renderedID {
		c.generation++
	}
	c.renderedID = id
}

// armChartLocked schedules the chart reveal. The timer is tied to the
// controller's lifetime: Close or a newer update invalidates it via seq.
func (c *Controller) armChartLocked(seq uint64) {
	c.chartReady = false
	if c.chartDelay <= 0 {
		c.chartReady = true
		return
	}
	c.chartTimer = time.AfterFunc(c.chartDelay, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.closed || c.seq != seq {
			return
		}
		c.chartReady = true
	})
}

func (c *Controller) stopChartLocked() {
	if c.chartTimer != nil {
		c.chartTimer.Stop()
		c.chartTimer = nil
	}
	c.chartReady = false
}

// matchIdentity keys a match by its pairing and round. Secondary fields
// like scores do not participate: a score change is the same match.
func matchIdentity(md *proto.MatchData) string {
	return fmt.Sprintf("match:%s|%s|%s", md.Team1.Name, md.Team2.Name, md.Round)
}
