package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"synq/backend/internal/constants"
	"synq/backend/internal/models/entities"
)

var ErrApiKeyNotFound = errors.New("api key not found")

// KeysRepo reads and writes api_keys with sqlx
type KeysRepo struct {
	db *sqlx.DB
}

func NewApiKeysRepo(db *sqlx.DB) *KeysRepo {
	return &KeysRepo{db}
}

func (r *KeysRepo) GetStatus(ctx context.Context, key string) (*entities.ApiKey, error) {
	var keyRes entities.ApiKey

	err := r.db.QueryRowxContext(ctx, r.db.Rebind(constants.GetStatusByApiKey), key).StructScan(&keyRes)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrApiKeyNotFound
		}
		return nil, fmt.Errorf("failed to fetch api key: %w", err)
	}

	return &keyRes, nil
}

// Create issues a new active key. The returned ID is the secret.
func (r *KeysRepo) Create(ctx context.Context, label string) (*entities.ApiKey, error) {
	key := entities.ApiKey{
		ID:        uuid.NewString(),
		Label:     label,
		Status:    true,
		CreatedAt: time.Now().UTC(),
	}

	_, err := r.db.ExecContext(ctx, r.db.Rebind(constants.InsertApiKey), key.ID, key.Label, key.Status, key.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert api key: %w", err)
	}
	return &key, nil
}

func (r *KeysRepo) Revoke(ctx context.Context, key string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(constants.RevokeApiKey), key)
	if err != nil {
		return fmt.Errorf("failed to revoke api key: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrApiKeyNotFound
	}
	return nil
}

// IsActive is false for unknown and revoked keys.
func (r *KeysRepo) IsActive(ctx context.Context, key string) (bool, error) {
	k, err := r.GetStatus(ctx, key)
	if err != nil {
		if errors.Is(err, ErrApiKeyNotFound) {
			return false, nil
		}
		return false, err
	}
	return k.Status, nil
}
