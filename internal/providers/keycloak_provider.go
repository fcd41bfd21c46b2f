package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/Nerzal/gocloak/v13"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"synq/backend/internal/config"
	"synq/backend/internal/constants"
	"synq/backend/internal/logging"
)

// KeycloakProvider talks to the Keycloak admin REST API with a
// client-credentials service account.
type KeycloakProvider struct {
	realm  string
	client *gocloak.GoCloak

	credentials clientcredentials.Config
	httpClient  *http.Client

	mu     sync.Mutex
	tokens oauth2.TokenSource
}

var _ IdentityProvider = (*KeycloakProvider)(nil)

func NewKeycloakProvider(cfg config.IdentityConfig) *KeycloakProvider {
	client := gocloak.NewClient(cfg.BaseURL)
	client.RestyClient().SetTimeout(cfg.Timeout)

	p := &KeycloakProvider{
		realm:  cfg.Realm,
		client: client,
		credentials: clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     fmt.Sprintf("%s/realms/%s/protocol/openid-connect/token", cfg.BaseURL, cfg.Realm),
			AuthStyle:    oauth2.AuthStyleInParams,
		},
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
	p.tokens = p.newTokenSource()
	return p
}

// NewIdentityProvider picks Keycloak when configured and the no-op provider
// otherwise.
func NewIdentityProvider(cfg config.IdentityConfig) IdentityProvider {
	if !cfg.Enabled() {
		logging.Warn("Identity provider not configured, user changes stay local")
		return NoopIdentityProvider{}
	}
	return NewKeycloakProvider(cfg)
}

func (p *KeycloakProvider) GetProviderType() string {
	return "keycloak"
}

func (p *KeycloakProvider) CreateUser(ctx context.Context, user IdentityUser) (string, error) {
	if user.Username == "" {
		return "", &ProviderError{
			Code:    constants.ErrCodeInvalidDataFormat,
			Message: "username cannot be empty",
		}
	}

	token, err := p.token(ctx)
	if err != nil {
		return "", err
	}

	// Reuse an existing account with the same username.
	existing, err := p.client.GetUsers(ctx, token, p.realm, gocloak.GetUsersParams{
		Username: gocloak.StringP(user.Username),
		Exact:    gocloak.BoolP(true),
	})
	if err != nil {
		return "", p.wrap(err, "search users")
	}
	if len(existing) > 0 && existing[0].ID != nil {
		logging.Warn("User already exists in Keycloak", "username", user.Username)
		return *existing[0].ID, nil
	}

	subjectID, err := p.client.CreateUser(ctx, token, p.realm, gocloak.User{
		Username:        gocloak.StringP(user.Username),
		Email:           gocloak.StringP(user.Email),
		FirstName:       gocloak.StringP(user.FirstName),
		LastName:        gocloak.StringP(user.LastName),
		Enabled:         gocloak.BoolP(true),
		EmailVerified:   gocloak.BoolP(true),
		RequiredActions: &[]string{},
	})
	if err != nil {
		return "", p.wrap(err, "create user")
	}
	if subjectID == "" {
		return "", &ProviderError{
			Code:    constants.ErrCodeUnexpectedStatus,
			Message: "Keycloak did not return the created user's location",
		}
	}
	logging.Info("User created in Keycloak", "subject_id", subjectID)

	if user.Password != "" {
		if err := p.client.SetPassword(ctx, token, subjectID, p.realm, user.Password, false); err != nil {
			// the account exists; a missing password can be reset later
			logging.Error("Failed to set password in Keycloak", "subject_id", subjectID, "error", p.wrap(err, "set password"))
		}
	}

	return subjectID, nil
}

func (p *KeycloakProvider) UpdateUser(ctx context.Context, subjectID string, update IdentityUserUpdate) error {
	return p.modify(ctx, subjectID, func(u *gocloak.User) {
		if update.Email != nil {
			u.Email = gocloak.StringP(*update.Email)
		}
		if update.FirstName != nil {
			u.FirstName = gocloak.StringP(*update.FirstName)
		}
		if update.LastName != nil {
			u.LastName = gocloak.StringP(*update.LastName)
		}
	})
}

func (p *KeycloakProvider) SetUserEnabled(ctx context.Context, subjectID string, enabled bool) error {
	return p.modify(ctx, subjectID, func(u *gocloak.User) {
		u.Enabled = gocloak.BoolP(enabled)
	})
}

func (p *KeycloakProvider) DeleteUser(ctx context.Context, subjectID string) error {
	token, err := p.token(ctx)
	if err != nil {
		return err
	}
	if err := p.client.DeleteUser(ctx, token, p.realm, subjectID); err != nil {
		return p.wrap(err, "delete user")
	}
	return nil
}

// modify reads the representation, applies fn and writes it back.
func (p *KeycloakProvider) modify(ctx context.Context, subjectID string, fn func(*gocloak.User)) error {
	token, err := p.token(ctx)
	if err != nil {
		return err
	}

	rep, err := p.client.GetUserByID(ctx, token, p.realm, subjectID)
	if err != nil {
		return p.wrap(err, "get user")
	}
	fn(rep)
	if err := p.client.UpdateUser(ctx, token, p.realm, *rep); err != nil {
		return p.wrap(err, "update user")
	}
	return nil
}

// newTokenSource caches the service-account token until shortly before it
// expires. The fetch runs detached from any request context.
func (p *KeycloakProvider) newTokenSource() oauth2.TokenSource {
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, p.httpClient)
	return p.credentials.TokenSource(ctx)
}

func (p *KeycloakProvider) token(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &ProviderError{
			Code:    constants.ErrCodeNetworkError,
			Message: constants.GetErrorMessage(constants.ErrCodeNetworkError),
			Err:     err,
		}
	}

	p.mu.Lock()
	tokens := p.tokens
	p.mu.Unlock()

	tok, err := tokens.Token()
	if err != nil {
		code := constants.ErrCodeNetworkError
		var rerr *oauth2.RetrieveError
		if errors.As(err, &rerr) {
			code = constants.ErrCodeAuthenticationFailed
		}
		return "", &ProviderError{
			Code:    code,
			Message: constants.GetErrorMessage(code),
			Err:     err,
		}
	}
	return tok.AccessToken, nil
}

// resetToken drops the cached token so the next call logs in again.
func (p *KeycloakProvider) resetToken() {
	p.mu.Lock()
	p.tokens = p.newTokenSource()
	p.mu.Unlock()
}

// wrap maps gocloak failures onto provider error codes.
func (p *KeycloakProvider) wrap(err error, op string) error {
	var apiErr *gocloak.APIError
	if !errors.As(err, &apiErr) {
		return &ProviderError{
			Code:    constants.ErrCodeUnexpectedStatus,
			Message: fmt.Sprintf("%s (%s)", constants.GetErrorMessage(constants.ErrCodeUnexpectedStatus), op),
			Err:     err,
		}
	}

	code := constants.ErrCodeUnexpectedStatus
	switch apiErr.Code {
	case 0:
		code = constants.ErrCodeNetworkError
	case http.StatusUnauthorized, http.StatusForbidden:
		p.resetToken()
		code = constants.ErrCodeAuthenticationFailed
	case http.StatusNotFound:
		code = constants.ErrCodeResourceNotFound
	case http.StatusConflict:
		code = constants.ErrCodeResourceConflict
	case http.StatusTooManyRequests:
		code = constants.ErrCodeRateLimited
	}

	return &ProviderError{
		Code:    code,
		Message: fmt.Sprintf("%s (%s, status %d)", constants.GetErrorMessage(code), op, apiErr.Code),
		Details: apiErr.Message,
		Err:     err,
	}
}
