package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/iffduels/overlay-server/internal/store"
)

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS players (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	tag TEXT NOT NULL,
	name TEXT NOT NULL DEFAULT '',
	country TEXT NOT NULL DEFAULT '',
	record TEXT NOT NULL DEFAULT '',
	quote TEXT NOT NULL DEFAULT '',
	attack INTEGER NOT NULL DEFAULT 0,
	defense INTEGER NOT NULL DEFAULT 0,
	movement INTEGER NOT NULL DEFAULT 0,
	adaptability INTEGER NOT NULL DEFAULT 0,
	stamina INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS teams (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	score INTEGER NOT NULL DEFAULT 0,
	wins INTEGER NOT NULL DEFAULT 0,
	losses INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS team_players (
	team_id INTEGER NOT NULL REFERENCES teams(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	name TEXT NOT NULL,
	active INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (team_id, position)
);

CREATE TABLE IF NOT EXISTS tournaments (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	game TEXT NOT NULL DEFAULT '',
	starts_at TIMESTAMP,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS standings (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	tournament_id INTEGER NOT NULL REFERENCES tournaments(id) ON DELETE CASCADE,
	rank INTEGER NOT NULL,
	player TEXT NOT NULL,
	points INTEGER NOT NULL DEFAULT 0
);
`

// New creates a new SQLite store and applies the schema.
// dbPath is the path to the SQLite database file.
func New(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ==== PlayerStore implementation ====

// CreatePlayer inserts a player and returns the stored row.
func (s *SQLiteStore) CreatePlayer(ctx context.Context, p *store.Player) (*store.Player, error) {
	query := `
		INSERT INTO players (tag, name, country, record, quote, attack, defense, movement, adaptability, stamina)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query,
		p.Tag, p.Name, p.Country, p.Record, p.Quote,
		p.Stats.Attack, p.Stats.Defense, p.Stats.Movement, p.Stats.Adaptability, p.Stats.Stamina)
	if err != nil {
		return nil, fmt.Errorf("insert player: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return s.GetPlayerByID(ctx, id)
}

// GetPlayerByID retrieves a player by ID. Returns (nil, nil) when missing.
func (s *SQLiteStore) GetPlayerByID(ctx context.Context, id int64) (*store.Player, error) {
	query := `
		SELECT id, tag, name, country, record, quote, attack, defense, movement, adaptability, stamina, created_at
		FROM players
		WHERE id = ?
	`
	var p store.Player
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.Tag, &p.Name, &p.Country, &p.Record, &p.Quote,
		&p.Stats.Attack, &p.Stats.Defense, &p.Stats.Movement, &p.Stats.Adaptability, &p.Stats.Stamina,
		&p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select player: %w", err)
	}
	return &p, nil
}

// ListPlayers returns all players ordered by tag.
func (s *SQLiteStore) ListPlayers(ctx context.Context) ([]store.Player, error) {
	query := `
		SELECT id, tag, name, country, record, quote, attack, defense, movement, adaptability, stamina, created_at
		FROM players
		ORDER BY tag
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("select players: %w", err)
	}
	defer rows.Close()

	var players []store.Player
	for rows.Next() {
		var p store.Player
		if err := rows.Scan(
			&p.ID, &p.Tag, &p.Name, &p.Country, &p.Record, &p.Quote,
			&p.Stats.Attack, &p.Stats.Defense, &p.Stats.Movement, &p.Stats.Adaptability, &p.Stats.Stamina,
			&p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

// UpdatePlayer overwrites a player's editable fields.
func (s *SQLiteStore) UpdatePlayer(ctx context.Context, p *store.Player) error {
	query := `
		UPDATE players
		SET tag = ?, name = ?, country = ?, record = ?, quote = ?,
			attack = ?, defense = ?, movement = ?, adaptability = ?, stamina = ?
		WHERE id = ?
	`
	_, err := s.db.ExecContext(ctx, query,
		p.Tag, p.Name, p.Country, p.Record, p.Quote,
		p.Stats.Attack, p.Stats.Defense, p.Stats.Movement, p.Stats.Adaptability, p.Stats.Stamina,
		p.ID)
	if err != nil {
		return fmt.Errorf("update player: %w", err)
	}
	return nil
}

// DeletePlayer removes a player.
func (s *SQLiteStore) DeletePlayer(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM players WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete player: %w", err)
	}
	return nil
}

// ==== TeamStore implementation ====

// CreateTeam inserts a team and its roster, returns the stored row.
func (s *SQLiteStore) CreateTeam(ctx context.Context, t *store.Team) (*store.Team, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`INSERT INTO teams (name, score, wins, losses) VALUES (?, ?, ?, ?)`,
		t.Name, t.Score, t.Wins, t.Losses)
	if err != nil {
		return nil, fmt.Errorf("insert team: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	if err := replaceRoster(ctx, tx, id, t.Players); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetTeamByID(ctx, id)
}

// GetTeamByID retrieves a team with its roster. Returns (nil, nil) when missing.
func (s *SQLiteStore) GetTeamByID(ctx context.Context, id int64) (*store.Team, error) {
	var t store.Team
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, score, wins, losses, created_at FROM teams WHERE id = ?`, id).
		Scan(&t.ID, &t.Name, &t.Score, &t.Wins, &t.Losses, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select team: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT name, active FROM team_players WHERE team_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("select team players: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tp store.TeamPlayer
		if err := rows.Scan(&tp.Name, &tp.Active); err != nil {
			return nil, fmt.Errorf("scan team player: %w", err)
		}
		t.Players = append(t.Players, tp)
	}
	return &t, rows.Err()
}

// ListTeams returns all teams without rosters, ordered by name.
func (s *SQLiteStore) ListTeams(ctx context.Context) ([]store.Team, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, score, wins, losses, created_at FROM teams ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("select teams: %w", err)
	}
	defer rows.Close()

	var teams []store.Team
	for rows.Next() {
		var t store.Team
		if err := rows.Scan(&t.ID, &t.Name, &t.Score, &t.Wins, &t.Losses, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan team: %w", err)
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

// UpdateTeam overwrites the team row and replaces its roster.
func (s *SQLiteStore) UpdateTeam(ctx context.Context, t *store.Team) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE teams SET name = ?, score = ?, wins = ?, losses = ? WHERE id = ?`,
		t.Name, t.Score, t.Wins, t.Losses, t.ID); err != nil {
		return fmt.Errorf("update team: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM team_players WHERE team_id = ?`, t.ID); err != nil {
		return fmt.Errorf("clear roster: %w", err)
	}
	if err := replaceRoster(ctx, tx, t.ID, t.Players); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// DeleteTeam removes a team; the roster cascades.
func (s *SQLiteStore) DeleteTeam(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM teams WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete team: %w", err)
	}
	return nil
}

func replaceRoster(ctx context.Context, tx *sql.Tx, teamID int64, players []store.TeamPlayer) error {
	for i, tp := range players {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO team_players (team_id, position, name, active) VALUES (?, ?, ?, ?)`,
			teamID, i, tp.Name, tp.Active); err != nil {
			return fmt.Errorf("insert team player: %w", err)
		}
	}
	return nil
}

// ==== TournamentStore implementation ====

// CreateTournament inserts a tournament and returns the stored row.
func (s *SQLiteStore) CreateTournament(ctx context.Context, tr *store.Tournament) (*store.Tournament, error) {
	startsAt := sql.NullTime{Time: tr.StartsAt, Valid: !tr.StartsAt.IsZero()}
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO tournaments (name, game, starts_at) VALUES (?, ?, ?)`,
		tr.Name, tr.Game, startsAt)
	if err != nil {
		return nil, fmt.Errorf("insert tournament: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}
	return s.GetTournamentByID(ctx, id)
}

// GetTournamentByID retrieves a tournament. Returns (nil, nil) when missing.
func (s *SQLiteStore) GetTournamentByID(ctx context.Context, id int64) (*store.Tournament, error) {
	var tr store.Tournament
	var startsAt sql.NullTime
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, game, starts_at, created_at FROM tournaments WHERE id = ?`, id).
		Scan(&tr.ID, &tr.Name, &tr.Game, &startsAt, &tr.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select tournament: %w", err)
	}
	tr.StartsAt = startsAt.Time
	return &tr, nil
}

// ListTournaments returns all tournaments, newest first.
func (s *SQLiteStore) ListTournaments(ctx context.Context) ([]store.Tournament, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, game, starts_at, created_at FROM tournaments ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("select tournaments: %w", err)
	}
	defer rows.Close()

	var tournaments []store.Tournament
	for rows.Next() {
		var tr store.Tournament
		var startsAt sql.NullTime
		if err := rows.Scan(&tr.ID, &tr.Name, &tr.Game, &startsAt, &tr.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan tournament: %w", err)
		}
		tr.StartsAt = startsAt.Time
		tournaments = append(tournaments, tr)
	}
	return tournaments, rows.Err()
}

// DeleteTournament removes a tournament; standings cascade.
func (s *SQLiteStore) DeleteTournament(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM tournaments WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete tournament: %w", err)
	}
	return nil
}

// ReplaceStandings swaps the full standings table for a tournament.
// The bracket importer writes through this in one shot.
func (s *SQLiteStore) ReplaceStandings(ctx context.Context, tournamentID int64, entries []store.Standing) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM standings WHERE tournament_id = ?`, tournamentID); err != nil {
		return fmt.Errorf("clear standings: %w", err)
	}
	for _, e := range entries {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO standings (tournament_id, rank, player, points) VALUES (?, ?, ?, ?)`,
			tournamentID, e.Rank, e.Player, e.Points); err != nil {
			return fmt.Errorf("insert standing: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ListStandings returns a tournament's standings ordered by rank.
func (s *SQLiteStore) ListStandings(ctx context.Context, tournamentID int64) ([]store.Standing, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, tournament_id, rank, player, points FROM standings WHERE tournament_id = ? ORDER BY rank`,
		tournamentID)
	if err != nil {
		return nil, fmt.Errorf("select standings: %w", err)
	}
	defer rows.Close()

	var entries []store.Standing
	for rows.Next() {
		var e store.Standing
		if err := rows.Scan(&e.ID, &e.TournamentID, &e.Rank, &e.Player, &e.Points); err != nil {
			return nil, fmt.Errorf("scan standing: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
