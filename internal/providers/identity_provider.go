package providers

import (
	"context"
	"fmt"
)

// IdentityProvider is the admin surface of the external identity provider.
// Local user records stay authoritative; callers decide which failures abort.
type IdentityProvider interface {
	// CreateUser registers the user and returns the provider's subject ID.
	// An existing user with the same username is reused.
	CreateUser(ctx context.Context, user IdentityUser) (string, error)

	// UpdateUser applies the non-nil fields of update.
	UpdateUser(ctx context.Context, subjectID string, update IdentityUserUpdate) error

	DeleteUser(ctx context.Context, subjectID string) error

	SetUserEnabled(ctx context.Context, subjectID string, enabled bool) error

	// GetProviderType returns the provider type identifier
	GetProviderType() string
}

type IdentityUser struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
	// Password is set as a non-temporary credential when not empty.
	Password string
}

type IdentityUserUpdate struct {
	Email     *string
	FirstName *string
	LastName  *string
}

// ProviderError is returned by every provider call that fails
type ProviderError struct {
	Code    string
	Message string
	Details string
	Err     error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NoopIdentityProvider is used when no identity provider is configured.
// Created users get no subject ID.
type NoopIdentityProvider struct{}

var _ IdentityProvider = NoopIdentityProvider{}

func (NoopIdentityProvider) CreateUser(ctx context.Context, user IdentityUser) (string, error) {
	return "", nil
}

func (NoopIdentityProvider) UpdateUser(ctx context.Context, subjectID string, update IdentityUserUpdate) error {
	return nil
}

func (NoopIdentityProvider) DeleteUser(ctx context.Context, subjectID string) error {
	return nil
}

func (NoopIdentityProvider) SetUserEnabled(ctx context.Context, subjectID string, enabled bool) error {
	return nil
}

func (NoopIdentityProvider) GetProviderType() string {
	return "noop"
}
