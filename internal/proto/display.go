package proto

// Channel names are the wire contract shared with the overlay pages.
// They must be preserved bit-exact for interop.
const (
	// ChannelIFFPlayer carries a full player detail object; no second
	// fetch is needed by the subscriber.
	ChannelIFFPlayer = "iff-player-update"
	// ChannelLoveAndWarDisplay is the legacy/simple team channel:
	// {teamId, visible} only.
	ChannelLoveAndWarDisplay = "love-and-war-display-update"
	// ChannelDisplayMode multiplexes the Love & War display modes.
	ChannelDisplayMode = "lnw-display-mode"
	// ChannelMatchData carries the current match scoreboard.
	ChannelMatchData = "lnw-match-data"
)

// ChartStats is the radar-chart data contract: five axes, each 0-100.
type ChartStats struct {
	Attack       int `json:"attack"`
	Defense      int `json:"defense"`
	Movement     int `json:"movement"`
	Adaptability int `json:"adaptability"`
	Stamina      int `json:"stamina"`
}

// PlayerDetail is the self-contained player payload and the REST detail
// shape for GET /api/iff/player/{id}.
type PlayerDetail struct {
	ID      int64      `json:"id"`
	Tag     string     `json:"tag"`
	Name    string     `json:"name"`
	Country string     `json:"country"`
	Record  string     `json:"record"`
	Quote   string     `json:"quote"`
	Stats   ChartStats `json:"stats"`
}

// TeamDetail is the REST detail shape for
// GET /api/iff/love-and-war/team/{id}.
type TeamDetail struct {
	ID      int64            `json:"id"`
	Name    string           `json:"name"`
	Score   int              `json:"score"`
	Wins    int              `json:"wins"`
	Losses  int              `json:"losses"`
	Players []SnapshotPlayer `json:"players"`
}

// TeamToggle is the legacy Love & War payload: a team reference plus a
// visibility flag, nothing else. It is kept for compatibility and must
// not grow new fields.
type TeamToggle struct {
	TeamID  *int64 `json:"teamId"`
	Visible bool   `json:"visible"`
}

// DisplayModeUpdate is the explicit-mode payload on lnw-display-mode.
type DisplayModeUpdate struct {
	Mode    string `json:"mode"`
	TeamID  *int64 `json:"teamId,omitempty"`
	Visible bool   `json:"visible"`
}

// SnapshotPlayer is one roster entry inside a TeamSnapshot.
type SnapshotPlayer struct {
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// TeamSnapshot is one side of a match as shown on the scoreboard.
type TeamSnapshot struct {
	Name    string           `json:"name"`
	Players []SnapshotPlayer `json:"players"`
	Score   int              `json:"score"`
}

// MatchData is the lnw-match-data payload.
type MatchData struct {
	Team1 TeamSnapshot `json:"team1"`
	Team2 TeamSnapshot `json:"team2"`
	Round string       `json:"round"`
}
