package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/iffduels/overlay-server/internal/auth"
	"github.com/iffduels/overlay-server/internal/config"
	"github.com/iffduels/overlay-server/internal/core"
	"github.com/iffduels/overlay-server/internal/store"
)

// NewServer builds the HTTP server: REST API plus the /ws bridge.
// The WebSocket endpoint hangs off a plain mux in front of gin: the
// upgraded connection must own the ResponseWriter directly, and gin's
// wrapping breaks the websocket data stream.
func NewServer(hub *core.Hub, authService *auth.Service, st store.Store, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	mux := stdhttp.NewServeMux()
	mux.Handle("/ws", NewWSHandler(hub, authService, logger))
	mux.Handle("/", NewRouter(authService, st, logger))

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

// NewRouter builds the gin engine with the REST routes registered.
func NewRouter(authService *auth.Service, st store.Store, logger *zerolog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(logger))

	api := NewAPIHandlers(authService, st, logger)

	r.GET("/health", healthHandler)
	r.POST("/api/access", api.Access)

	// Detail fetch is open: overlays bootstrap from here before they hold
	// a live subscription, and they may carry no token at all.
	r.GET("/api/iff/player/:id", api.GetPlayer)
	r.GET("/api/iff/love-and-war/team/:id", api.GetTeam)

	authed := r.Group("/api", AuthMiddleware(authService, logger))
	{
		authed.GET("/iff/players", api.ListPlayers)
		authed.POST("/iff/player", api.CreatePlayer)
		authed.PUT("/iff/player/:id", api.UpdatePlayer)
		authed.DELETE("/iff/player/:id", api.DeletePlayer)

		authed.GET("/iff/love-and-war/teams", api.ListTeams)
		authed.POST("/iff/love-and-war/team", api.CreateTeam)
		authed.PUT("/iff/love-and-war/team/:id", api.UpdateTeam)
		authed.DELETE("/iff/love-and-war/team/:id", api.DeleteTeam)

		authed.GET("/tdeu/tournaments", api.ListTournaments)
		authed.POST("/tdeu/tournament", api.CreateTournament)
		authed.DELETE("/tdeu/tournament/:id", api.DeleteTournament)
		authed.GET("/tdeu/tournament/:id/standings", api.ListStandings)
		authed.PUT("/tdeu/tournament/:id/standings", api.ReplaceStandings)
	}

	return r
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
