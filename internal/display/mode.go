package display

// Mode is which mutually exclusive visual an overlay is rendering.
type Mode string

const (
	ModeIdle      Mode = "idle"
	ModeMatch     Mode = "match"
	ModeTeamStats Mode = "team-stats"
	ModeMatchCard Mode = "match-card"

	// ModeError is internal only: the overlay shows a full-screen
	// transport error. It never appears on the wire.
	ModeError Mode = "error"
)

// ParseMode maps a wire mode string to a Mode. Unknown strings are
// rejected so a typo upstream cannot blank a multiplexed overlay.
func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case ModeIdle, ModeMatch, ModeTeamStats, ModeMatchCard:
		return Mode(s), true
	default:
		return "", false
	}
}
