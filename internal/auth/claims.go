package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"synq/backend/internal/config"
	"synq/backend/internal/constants"
)

// Principal is the authenticated caller as seen by handlers and services.
// UserID is the local durable id; it is zero only before provisioning.
type Principal struct {
	UserID      int64
	ExternalID  string
	Username    string
	SystemRoles []constants.UserRole
	Source      constants.RequestSource
}

func (p *Principal) HasSystemRole(role constants.UserRole) bool {
	for _, r := range p.SystemRoles {
		if r == role {
			return true
		}
	}
	return false
}

func (p *Principal) IsAdmin() bool { return p.HasSystemRole(constants.UserRoleAdmin) }

// TokenClaims is the subset of identity provider claims the service reads.
// Subject is the provider's user id.
type TokenClaims struct {
	PreferredUsername string `json:"preferred_username"`
	Email             string `json:"email"`
	jwt.RegisteredClaims
}

var ErrInvalidToken = errors.New("invalid bearer token")

// ParseBearerToken verifies an HS256 token against the configured secret and
// issuer.
func ParseBearerToken(raw string, cfg config.AuthConfig) (*TokenClaims, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("%w: no signing secret configured", ErrInvalidToken)
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	claims := &TokenClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(cfg.JWTSecret), nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" || claims.PreferredUsername == "" {
		return nil, fmt.Errorf("%w: subject and preferred_username are required", ErrInvalidToken)
	}
	return claims, nil
}
