package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"synq/backend/internal/config"
	"synq/backend/internal/constants"
)

func signToken(t *testing.T, secret string, claims TokenClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func validClaims() TokenClaims {
	return TokenClaims{
		PreferredUsername: "alice",
		Email:             "alice@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "kc-123",
			Issuer:    "https://id.example.com/realms/synq",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func TestParseBearerToken(t *testing.T) {
	cfg := config.AuthConfig{JWTSecret: "secret", Issuer: "https://id.example.com/realms/synq"}

	claims, err := ParseBearerToken(signToken(t, "secret", validClaims()), cfg)

	require.NoError(t, err)
	assert.Equal(t, "kc-123", claims.Subject)
	assert.Equal(t, "alice", claims.PreferredUsername)
}

func TestParseBearerToken_Rejects(t *testing.T) {
	cfg := config.AuthConfig{JWTSecret: "secret", Issuer: "https://id.example.com/realms/synq"}

	expired := validClaims()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	otherIssuer := validClaims()
	otherIssuer.Issuer = "https://evil.example.com"

	noSubject := validClaims()
	noSubject.Subject = ""

	cases := map[string]string{
		"wrong secret": signToken(t, "other", validClaims()),
		"expired":      signToken(t, "secret", expired),
		"issuer":       signToken(t, "secret", otherIssuer),
		"no subject":   signToken(t, "secret", noSubject),
		"garbage":      "not-a-token",
	}
	for name, raw := range cases {
		_, err := ParseBearerToken(raw, cfg)
		assert.ErrorIs(t, err, ErrInvalidToken, name)
	}
}

func TestPrincipalContext(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, GetPrincipal(ctx))
	assert.Nil(t, ActorID(ctx))

	ctx = SetPrincipal(ctx, &Principal{
		UserID:      7,
		SystemRoles: []constants.UserRole{constants.UserRoleAdmin},
		Source:      constants.RequestSourceJWT,
	})

	require.NotNil(t, GetPrincipal(ctx))
	assert.True(t, GetPrincipal(ctx).IsAdmin())
	assert.Equal(t, int64(7), *ActorID(ctx))
}
