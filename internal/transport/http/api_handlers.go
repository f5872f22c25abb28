package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/iffduels/overlay-server/internal/auth"
	"github.com/iffduels/overlay-server/internal/store"
)

// APIHandlers provides HTTP handlers for REST API endpoints.
type APIHandlers struct {
	authService *auth.Service
	store       store.Store
	log         *zerolog.Logger
}

// NewAPIHandlers creates a new API handlers instance.
func NewAPIHandlers(authService *auth.Service, st store.Store, logger *zerolog.Logger) *APIHandlers {
	return &APIHandlers{
		authService: authService,
		store:       st,
		log:         logger,
	}
}

// AccessRequest trades the shared access key for a connection token.
type AccessRequest struct {
	AccessKey string `json:"accessKey" binding:"required"`
	Name      string `json:"name"`
	Role      string `json:"role" binding:"required"`
}

// AccessResponse carries the issued connection token.
type AccessResponse struct {
	Token string `json:"token"`
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Access handles the access-key gate.
// POST /api/access
func (h *APIHandlers) Access(c *gin.Context) {
	var req AccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid access request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	token, err := h.authService.Grant(req.AccessKey, req.Name, auth.Role(req.Role))
	if err != nil {
		if errors.Is(err, auth.ErrInvalidAccessKey) {
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid access key"})
			return
		}
		if errors.Is(err, auth.ErrInvalidRole) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid role"})
			return
		}
		h.log.Error().Err(err).Msg("failed to issue token")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().Str("name", req.Name).Str("role", req.Role).Msg("connection token issued")
	c.JSON(http.StatusOK, AccessResponse{Token: token})
}
