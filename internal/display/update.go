package display

import (
	"encoding/json"

	"github.com/iffduels/overlay-server/internal/proto"
)

// Update is the canonical, normalized form of a display event. Every wire
// shape, explicit-mode or legacy, is decoded into this one variant at
// the transport boundary, before any rendering logic sees it.
type Update struct {
	Mode    Mode
	TeamID  *int64
	Visible bool
}

// DecodeUpdate normalizes a display payload. The explicit-mode shape is
// tried first; a payload without a mode field falls back to the legacy
// {teamId, visible} shape, where visible true means team-stats and false
// means idle. Malformed payloads decode to an idle update rather than
// failing: a crashed overlay is worse than a blank one.
func DecodeUpdate(raw json.RawMessage) Update {
	var dm proto.DisplayModeUpdate
	if err := json.Unmarshal(raw, &dm); err == nil && dm.Mode != "" {
		if mode, ok := ParseMode(dm.Mode); ok {
			return Update{Mode: mode, TeamID: dm.TeamID, Visible: dm.Visible}
		}
	}

	var tt proto.TeamToggle
	if err := json.Unmarshal(raw, &tt); err == nil {
		if tt.Visible {
			return Update{Mode: ModeTeamStats, TeamID: tt.TeamID, Visible: true}
		}
		return Update{Mode: ModeIdle, TeamID: tt.TeamID, Visible: false}
	}

	return Update{Mode: ModeIdle}
}

// DecodeMatchData parses an lnw-match-data payload. Missing optional
// fields (a team without players, an empty round) decode to their zero
// values and render as "not shown".
func DecodeMatchData(raw json.RawMessage) (*proto.MatchData, error) {
	var md proto.MatchData
	if err := json.Unmarshal(raw, &md); err != nil {
		return nil, err
	}
	return &md, nil
}

// DecodePlayer parses an iff-player-update payload.
func DecodePlayer(raw json.RawMessage) (*proto.PlayerDetail, error) {
	var p proto.PlayerDetail
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
