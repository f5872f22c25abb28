package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/iffduels/overlay-server/internal/proto"
	"github.com/iffduels/overlay-server/internal/store"
)

// Detail-fetch endpoints wrap the entity in a named field and return null
// for a missing id: overlays treat that as "nothing to render", never as
// an error.

// GetPlayer handles GET /api/iff/player/:id.
func (h *APIHandlers) GetPlayer(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	p, err := h.store.GetPlayerByID(c.Request.Context(), id)
	if err != nil {
		h.log.Error().Err(err).Int64("player_id", id).Msg("fetch player")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"player": playerDetail(p)})
}

// GetTeam handles GET /api/iff/love-and-war/team/:id.
func (h *APIHandlers) GetTeam(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	t, err := h.store.GetTeamByID(c.Request.Context(), id)
	if err != nil {
		h.log.Error().Err(err).Int64("team_id", id).Msg("fetch team")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"team": teamDetail(t)})
}

// ==== Player CRUD (operator only) ====

// PlayerRequest is the create/update body for an IFF player.
type PlayerRequest struct {
	Tag     string           `json:"tag" binding:"required"`
	Name    string           `json:"name"`
	Country string           `json:"country"`
	Record  string           `json:"record"`
	Quote   string           `json:"quote"`
	Stats   proto.ChartStats `json:"stats"`
}

func (r *PlayerRequest) toStore(id int64) *store.Player {
	return &store.Player{
		ID:      id,
		Tag:     r.Tag,
		Name:    r.Name,
		Country: r.Country,
		Record:  r.Record,
		Quote:   r.Quote,
		Stats: store.ChartStats{
			Attack:       r.Stats.Attack,
			Defense:      r.Stats.Defense,
			Movement:     r.Stats.Movement,
			Adaptability: r.Stats.Adaptability,
			Stamina:      r.Stats.Stamina,
		},
	}
}

// ListPlayers handles GET /api/iff/players.
func (h *APIHandlers) ListPlayers(c *gin.Context) {
	players, err := h.store.ListPlayers(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("list players")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	out := make([]*proto.PlayerDetail, 0, len(players))
	for i := range players {
		out = append(out, playerDetail(&players[i]))
	}
	c.JSON(http.StatusOK, gin.H{"players": out})
}

// CreatePlayer handles POST /api/iff/player.
func (h *APIHandlers) CreatePlayer(c *gin.Context) {
	var req PlayerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	p, err := h.store.CreatePlayer(c.Request.Context(), req.toStore(0))
	if err != nil {
		h.log.Error().Err(err).Msg("create player")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"player": playerDetail(p)})
}

// UpdatePlayer handles PUT /api/iff/player/:id.
func (h *APIHandlers) UpdatePlayer(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req PlayerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	if err := h.store.UpdatePlayer(c.Request.Context(), req.toStore(id)); err != nil {
		h.log.Error().Err(err).Int64("player_id", id).Msg("update player")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	c.Status(http.StatusNoContent)
}

// DeletePlayer handles DELETE /api/iff/player/:id.
func (h *APIHandlers) DeletePlayer(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := h.store.DeletePlayer(c.Request.Context(), id); err != nil {
		h.log.Error().Err(err).Int64("player_id", id).Msg("delete player")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	c.Status(http.StatusNoContent)
}

// ==== Team CRUD (operator only) ====

// TeamRequest is the create/update body for a Love & War team.
type TeamRequest struct {
	Name    string                 `json:"name" binding:"required"`
	Score   int                    `json:"score"`
	Wins    int                    `json:"wins"`
	Losses  int                    `json:"losses"`
	Players []proto.SnapshotPlayer `json:"players"`
}

func (r *TeamRequest) toStore(id int64) *store.Team {
	players := make([]store.TeamPlayer, 0, len(r.Players))
	for _, p := range r.Players {
		players = append(players, store.TeamPlayer{Name: p.Name, Active: p.Active})
	}
	return &store.Team{
		ID:      id,
		Name:    r.Name,
		Score:   r.Score,
		Wins:    r.Wins,
		Losses:  r.Losses,
		Players: players,
	}
}

// ListTeams handles GET /api/iff/love-and-war/teams.
func (h *APIHandlers) ListTeams(c *gin.Context) {
	teams, err := h.store.ListTeams(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("list teams")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	out := make([]*proto.TeamDetail, 0, len(teams))
	for i := range teams {
		out = append(out, teamDetail(&teams[i]))
	}
	c.JSON(http.StatusOK, gin.H{"teams": out})
}

// CreateTeam handles POST /api/iff/love-and-war/team.
func (h *APIHandlers) CreateTeam(c *gin.Context) {
	var req TeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	t, err := h.store.CreateTeam(c.Request.Context(), req.toStore(0))
	if err != nil {
		h.log.Error().Err(err).Msg("create team")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"team": teamDetail(t)})
}

// UpdateTeam handles PUT /api/iff/love-and-war/team/:id.
func (h *APIHandlers) UpdateTeam(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req TeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	if err := h.store.UpdateTeam(c.Request.Context(), req.toStore(id)); err != nil {
		h.log.Error().Err(err).Int64("team_id", id).Msg("update team")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteTeam handles DELETE /api/iff/love-and-war/team/:id.
func (h *APIHandlers) DeleteTeam(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := h.store.DeleteTeam(c.Request.Context(), id); err != nil {
		h.log.Error().Err(err).Int64("team_id", id).Msg("delete team")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	c.Status(http.StatusNoContent)
}

// ==== TDEU tournaments (operator only) ====

// TournamentRequest is the create body for a tournament.
type TournamentRequest struct {
	Name string `json:"name" binding:"required"`
	Game string `json:"game"`
}

// StandingRequest is one standings row in a bracket import.
type StandingRequest struct {
	Rank   int    `json:"rank"`
	Player string `json:"player" binding:"required"`
	Points int    `json:"points"`
}

// ListTournaments handles GET /api/tdeu/tournaments.
func (h *APIHandlers) ListTournaments(c *gin.Context) {
	tournaments, err := h.store.ListTournaments(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("list tournaments")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tournaments": tournaments})
}

// CreateTournament handles POST /api/tdeu/tournament.
func (h *APIHandlers) CreateTournament(c *gin.Context) {
	var req TournamentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	tr, err := h.store.CreateTournament(c.Request.Context(), &store.Tournament{Name: req.Name, Game: req.Game})
	if err != nil {
		h.log.Error().Err(err).Msg("create tournament")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"tournament": tr})
}

// DeleteTournament handles DELETE /api/tdeu/tournament/:id.
func (h *APIHandlers) DeleteTournament(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := h.store.DeleteTournament(c.Request.Context(), id); err != nil {
		h.log.Error().Err(err).Int64("tournament_id", id).Msg("delete tournament")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	c.Status(http.StatusNoContent)
}

// ListStandings handles GET /api/tdeu/tournament/:id/standings.
func (h *APIHandlers) ListStandings(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	rows, err := h.store.ListStandings(c.Request.Context(), id)
	if err != nil {
		h.log.Error().Err(err).Int64("tournament_id", id).Msg("list standings")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"standings": rows})
}

// ReplaceStandings handles PUT /api/tdeu/tournament/:id/standings.
// The bracket importer posts a full standings table in one shot.
func (h *APIHandlers) ReplaceStandings(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req []StandingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	rows := make([]store.Standing, 0, len(req))
	for _, r := range req {
		rows = append(rows, store.Standing{Rank: r.Rank, Player: r.Player, Points: r.Points})
	}
	if err := h.store.ReplaceStandings(c.Request.Context(), id, rows); err != nil {
		h.log.Error().Err(err).Int64("tournament_id", id).Msg("replace standings")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	c.Status(http.StatusNoContent)
}

func paramID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
		return 0, false
	}
	return id, true
}
