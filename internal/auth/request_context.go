package auth

import (
	"context"
)

type contextKey string

var principalKey contextKey = "principal"

func SetPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// GetPrincipal returns nil for unauthenticated requests.
func GetPrincipal(ctx context.Context) *Principal {
	if p, ok := ctx.Value(principalKey).(*Principal); ok {
		return p
	}
	return nil
}

// ActorID is the caller's user id for audit records, nil when anonymous.
func ActorID(ctx context.Context) *int64 {
	if p := GetPrincipal(ctx); p != nil && p.UserID != 0 {
		id := p.UserID
		return &id
	}
	return nil
}
