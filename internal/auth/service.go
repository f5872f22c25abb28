package auth

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidAccessKey is returned when the presented key doesn't match.
	ErrInvalidAccessKey = errors.New("invalid access key")
	// ErrInvalidRole is returned for a role the gate doesn't issue.
	ErrInvalidRole = errors.New("invalid role")
)

// Service is the access-key gate: it trades the shared operator access key
// for per-connection bearer tokens.
type Service struct {
	jwtConfig     *JWTConfig
	accessKeyHash string
}

// NewService creates the gate. An empty accessKeyHash admits nobody.
func NewService(jwtConfig *JWTConfig, accessKeyHash string) *Service {
	return &Service{
		jwtConfig:     jwtConfig,
		accessKeyHash: accessKeyHash,
	}
}

// Grant validates the access key and issues a connection token for the
// given display name and role.
func (s *Service) Grant(accessKey, name string, role Role) (string, error) {
	if s.accessKeyHash == "" {
		return "", ErrInvalidAccessKey
	}
	if err := CompareAccessKey(s.accessKeyHash, accessKey); err != nil {
		return "", ErrInvalidAccessKey
	}

	switch role {
	case RoleOperator, RoleOverlay:
	default:
		return "", ErrInvalidRole
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = string(role)
	}

	token, err := GenerateToken(s.jwtConfig, name, role)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return token, nil
}

// ValidateToken validates a connection token and returns the claims.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	return ValidateToken(s.jwtConfig, tokenString)
}
