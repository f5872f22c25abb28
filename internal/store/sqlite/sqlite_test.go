package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/iffduels/overlay-server/internal/store"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPlayerCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.CreatePlayer(ctx, &store.Player{
		Tag:     "Knee",
		Name:    "Jae-min Bae",
		Country: "KR",
		Record:  "12-3",
		Stats:   store.ChartStats{Attack: 95, Defense: 90, Movement: 88, Adaptability: 97, Stamina: 85},
	})
	if err != nil {
		t.Fatalf("create player: %v", err)
	}
	if created.ID == 0 || created.Tag != "Knee" {
		t.Fatalf("unexpected created player: %+v", created)
	}

	got, err := s.GetPlayerByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("get player: %v", err)
	}
	if got == nil || got.Stats.Adaptability != 97 {
		t.Fatalf("unexpected player: %+v", got)
	}

	got.Record = "13-3"
	if err := s.UpdatePlayer(ctx, got); err != nil {
		t.Fatalf("update player: %v", err)
	}
	updated, err := s.GetPlayerByID(ctx, created.ID)
	if err != nil || updated == nil || updated.Record != "13-3" {
		t.Fatalf("update not applied: %+v err=%v", updated, err)
	}

	if err := s.DeletePlayer(ctx, created.ID); err != nil {
		t.Fatalf("delete player: %v", err)
	}
	gone, err := s.GetPlayerByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("get deleted player: %v", err)
	}
	if gone != nil {
		t.Fatalf("expected nil for deleted player, got %+v", gone)
	}
}

func TestGetPlayerMissingReturnsNil(t *testing.T) {
	s := newTestStore(t)

	p, err := s.GetPlayerByID(context.Background(), 9999)
	if err != nil {
		t.Fatalf("expected no error for missing player, got %v", err)
	}
	if p != nil {
		t.Fatalf("expected nil player, got %+v", p)
	}
}

func TestTeamRosterRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.CreateTeam(ctx, &store.Team{
		Name:  "Mishima Bloodline",
		Score: 2,
		Players: []store.TeamPlayer{
			{Name: "Kazuya", Active: true},
			{Name: "Jin", Active: false},
			{Name: "Heihachi", Active: false},
		},
	})
	if err != nil {
		t.Fatalf("create team: %v", err)
	}
	if len(created.Players) != 3 || !created.Players[0].Active {
		t.Fatalf("unexpected roster: %+v", created.Players)
	}

	// Swap the active player and shrink the roster.
	created.Players = []store.TeamPlayer{
		{Name: "Kazuya", Active: false},
		{Name: "Jin", Active: true},
	}
	created.Score = 3
	if err := s.UpdateTeam(ctx, created); err != nil {
		t.Fatalf("update team: %v", err)
	}

	got, err := s.GetTeamByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("get team: %v", err)
	}
	if got.Score != 3 || len(got.Players) != 2 || !got.Players[1].Active {
		t.Fatalf("unexpected team after update: %+v", got)
	}

	if err := s.DeleteTeam(ctx, created.ID); err != nil {
		t.Fatalf("delete team: %v", err)
	}
	gone, err := s.GetTeamByID(ctx, created.ID)
	if err != nil || gone != nil {
		t.Fatalf("expected team gone, got %+v err=%v", gone, err)
	}
}

func TestTournamentStandings(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tr, err := s.CreateTournament(ctx, &store.Tournament{Name: "TDEU Season 4", Game: "Tekken 8"})
	if err != nil {
		t.Fatalf("create tournament: %v", err)
	}

	rows := []store.Standing{
		{Rank: 1, Player: "Knee", Points: 300},
		{Rank: 2, Player: "Arslan Ash", Points: 280},
	}
	if err := s.ReplaceStandings(ctx, tr.ID, rows); err != nil {
		t.Fatalf("replace standings: %v", err)
	}

	// Re-import replaces, never appends.
	rows[1].Points = 290
	if err := s.ReplaceStandings(ctx, tr.ID, rows); err != nil {
		t.Fatalf("replace standings again: %v", err)
	}

	got, err := s.ListStandings(ctx, tr.ID)
	if err != nil {
		t.Fatalf("list standings: %v", err)
	}
	if len(got) != 2 || got[1].Points != 290 {
		t.Fatalf("unexpected standings: %+v", got)
	}
}

func TestTournamentStartDateOptional(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// No start date set: the column is NULL and must read back as the
	// zero time, not a scan error.
	tr, err := s.CreateTournament(ctx, &store.Tournament{Name: "TDEU Season 5"})
	if err != nil {
		t.Fatalf("create tournament: %v", err)
	}
	if !tr.StartsAt.IsZero() {
		t.Fatalf("expected zero start time, got %v", tr.StartsAt)
	}

	starts := time.Date(2026, 10, 3, 18, 0, 0, 0, time.UTC)
	dated, err := s.CreateTournament(ctx, &store.Tournament{Name: "TDEU Finals", StartsAt: starts})
	if err != nil {
		t.Fatalf("create dated tournament: %v", err)
	}
	if !dated.StartsAt.Equal(starts) {
		t.Fatalf("unexpected start time: %v", dated.StartsAt)
	}

	all, err := s.ListTournaments(ctx)
	if err != nil {
		t.Fatalf("list tournaments: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("unexpected tournament count: %d", len(all))
	}
}
