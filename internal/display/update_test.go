package display

import (
	"encoding/json"
	"testing"
)

func TestDecodeUpdateExplicitMode(t *testing.T) {
	u := DecodeUpdate(json.RawMessage(`{"mode":"team-stats","teamId":7,"visible":true}`))
	if u.Mode != ModeTeamStats || u.TeamID == nil || *u.TeamID != 7 || !u.Visible {
		t.Fatalf("unexpected update: %+v", u)
	}
}

func TestDecodeUpdateLegacyShape(t *testing.T) {
	u := DecodeUpdate(json.RawMessage(`{"teamId":7,"visible":true}`))
	if u.Mode != ModeTeamStats || u.TeamID == nil || *u.TeamID != 7 {
		t.Fatalf("legacy visible=true should normalize to team-stats: %+v", u)
	}

	u = DecodeUpdate(json.RawMessage(`{"teamId":7,"visible":false}`))
	if u.Mode != ModeIdle {
		t.Fatalf("legacy visible=false should normalize to idle: %+v", u)
	}
}

func TestDecodeUpdateLegacyAndExplicitEquivalent(t *testing.T) {
	legacy := DecodeUpdate(json.RawMessage(`{"teamId":7,"visible":true}`))
	explicit := DecodeUpdate(json.RawMessage(`{"mode":"team-stats","teamId":7,"visible":true}`))

	if legacy.Mode != explicit.Mode || *legacy.TeamID != *explicit.TeamID || legacy.Visible != explicit.Visible {
		t.Fatalf("legacy %+v and explicit %+v should normalize identically", legacy, explicit)
	}
}

func TestDecodeUpdateUnknownModeFallsBack(t *testing.T) {
	// Unknown mode string: not a valid explicit event, and the legacy
	// fallback reads visible=false as idle.
	u := DecodeUpdate(json.RawMessage(`{"mode":"confetti","visible":false}`))
	if u.Mode != ModeIdle {
		t.Fatalf("unexpected update: %+v", u)
	}
}

func TestDecodeUpdateMalformedPayload(t *testing.T) {
	u := DecodeUpdate(json.RawMessage(`{not json`))
	if u.Mode != ModeIdle {
		t.Fatalf("malformed payload must decode to idle, got %+v", u)
	}
}

func TestDecodeMatchDataMissingOptionalFields(t *testing.T) {
	md, err := DecodeMatchData(json.RawMessage(`{"team1":{"name":"A","score":1},"round":"WF"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if md.Team1.Name != "A" || md.Team1.Players != nil {
		t.Fatalf("unexpected match data: %+v", md)
	}
	if md.Team2.Name != "" {
		t.Fatalf("missing team2 should stay zero: %+v", md.Team2)
	}
}
