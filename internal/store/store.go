package store

import (
	"context"
	"time"
)

// Player is an IFF ("Run It Back") roster entry. The chart stats feed the
// radar chart on the player overlay; their meaning is presentation detail.
type Player struct {
	ID        int64
	Tag       string
	Name      string
	Country   string
	Record    string
	Quote     string
	Stats     ChartStats
	CreatedAt time.Time
}

// ChartStats holds the five radar-chart axes, each 0-100.
type ChartStats struct {
	Attack       int
	Defense      int
	Movement     int
	Adaptability int
	Stamina      int
}

// TeamPlayer is one member of a Love & War team. Active marks the player
// currently at the stick.
type TeamPlayer struct {
	Name   string
	Active bool
}

// Team is a Love & War team tournament entry.
type Team struct {
	ID        int64
	Name      string
	Score     int
	Wins      int
	Losses    int
	Players   []TeamPlayer
	CreatedAt time.Time
}

// Tournament is a TDEU tournament/league tracker entry. Serves directly as
// the REST shape, so the json tags are part of the API.
type Tournament struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Game      string    `json:"game"`
	StartsAt  time.Time `json:"startsAt"`
	CreatedAt time.Time `json:"createdAt"`
}

// Standing is one row of a tournament's standings table.
type Standing struct {
	ID           int64  `json:"id"`
	TournamentID int64  `json:"tournamentId"`
	Rank         int    `json:"rank"`
	Player       string `json:"player"`
	Points       int    `json:"points"`
}

// PlayerStore manages IFF players.
// Lookups return (nil, nil) for a missing id: a display state may reference
// a player that has since been deleted, and that must read as "nothing to
// render" rather than an error.
type PlayerStore interface {
	CreatePlayer(ctx context.Context, p *Player) (*Player, error)
	GetPlayerByID(ctx context.Context, id int64) (*Player, error)
	ListPlayers(ctx context.Context) ([]Player, error)
	UpdatePlayer(ctx context.Context, p *Player) error
	DeletePlayer(ctx context.Context, id int64) error
}

// TeamStore manages Love & War teams. Same (nil, nil) convention for
// missing ids as PlayerStore.
type TeamStore interface {
	CreateTeam(ctx context.Context, t *Team) (*Team, error)
	GetTeamByID(ctx context.Context, id int64) (*Team, error)
	ListTeams(ctx context.Context) ([]Team, error)
	UpdateTeam(ctx context.Context, t *Team) error
	DeleteTeam(ctx context.Context, id int64) error
}

// TournamentStore manages TDEU tournaments and their standings.
type TournamentStore interface {
	CreateTournament(ctx context.Context, tr *Tournament) (*Tournament, error)
	GetTournamentByID(ctx context.Context, id int64) (*Tournament, error)
	ListTournaments(ctx context.Context) ([]Tournament, error)
	DeleteTournament(ctx context.Context, id int64) error
	ReplaceStandings(ctx context.Context, tournamentID int64, rows []Standing) error
	ListStandings(ctx context.Context, tournamentID int64) ([]Standing, error)
}

// Store combines all entity stores.
type Store interface {
	PlayerStore
	TeamStore
	TournamentStore
	Close() error
}
