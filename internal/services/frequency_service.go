package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"synq/backend/internal/common"
	"synq/backend/internal/constants"
	"synq/backend/internal/db/repositories"
	"synq/backend/internal/domainerr"
	"synq/backend/internal/logging"
	"synq/backend/internal/metrics"
	"synq/backend/internal/models/entities"
	models "synq/backend/internal/models/gorm"
)

type CreateFrequencyInput struct {
	Name            string
	Slug            string
	Description     string
	IsPrivate       bool
	MaxParticipants int
	CoverImageURL   string
	Settings        map[string]interface{}
}

// UpdateFrequencyInput leaves nil fields untouched. The slug cannot change.
type UpdateFrequencyInput struct {
	Name            *string
	Description     *string
	IsPrivate       *bool
	MaxParticipants *int
	CoverImageURL   *string
	Settings        map[string]interface{}
}

// FrequencyService manages frequencies. Lookups by id and slug go through
// the cache; concurrent misses for one key share a single query.
type FrequencyService struct {
	store   *repositories.Store
	cache   common.CacheInterface
	audit   AuditRecorder
	metrics *metrics.MetricsRegistry
	loads   singleflight.Group
	now     func() time.Time
}

func NewFrequencyService(store *repositories.Store, cache common.CacheInterface, audit AuditRecorder, m *metrics.MetricsRegistry) *FrequencyService {
	return &FrequencyService{
		store:   store,
		cache:   cache,
		audit:   audit,
		metrics: m,
		now:     utcNow,
	}
}

// CreateFrequency inserts the frequency and its owner's OWNER membership in
// one transaction.
func (s *FrequencyService) CreateFrequency(ctx context.Context, in CreateFrequencyInput, ownerID int64) (*models.Frequency, error) {
	logging.Debug("Creating frequency", "slug", in.Slug, "owner_id", ownerID)

	maxParticipants := in.MaxParticipants
	if maxParticipants <= 0 {
		maxParticipants = constants.DefaultMaxParticipants
	}

	freq := &models.Frequency{
		Name:            in.Name,
		Slug:            in.Slug,
		Description:     in.Description,
		IsPrivate:       in.IsPrivate,
		OwnerID:         ownerID,
		Settings:        in.Settings,
		CoverImageURL:   in.CoverImageURL,
		MaxParticipants: maxParticipants,
	}

	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		ownerExists, err := tx.Users.Exists(ctx, ownerID)
		if err != nil {
			return err
		}
		if !ownerExists {
			return domainerr.NotFound(constants.MsgOwnerNotFound)
		}

		taken, err := tx.Frequencies.ExistsBySlug(ctx, in.Slug)
		if err != nil {
			return err
		}
		if taken {
			return domainerr.Conflict(constants.MsgSlugTaken)
		}

		if err := tx.Frequencies.Create(ctx, freq); err != nil {
			return err
		}

		return tx.Memberships.Create(ctx, &models.Membership{
			UserID:      ownerID,
			FrequencyID: freq.ID,
			Role:        constants.MembershipOwner,
			JoinedAt:    s.now(),
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.FrequenciesCreatedTotal.Inc()
	recordAudit(ctx, s.audit, constants.AuditFrequencyCreated, entities.AuditTargetFrequency, freq.ID, map[string]interface{}{
		"slug":     freq.Slug,
		"owner_id": ownerID,
	})
	logging.Info("Frequency created", "frequency_id", freq.ID, "slug", freq.Slug)
	return freq, nil
}

func (s *FrequencyService) UpdateFrequency(ctx context.Context, id int64, in UpdateFrequencyInput) (*models.Frequency, error) {
	freq, err := s.store.Frequencies.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		freq.Name = *in.Name
	}
	if in.Description != nil {
		freq.Description = *in.Description
	}
	if in.IsPrivate != nil {
		freq.IsPrivate = *in.IsPrivate
	}
	if in.MaxParticipants != nil {
		freq.MaxParticipants = *in.MaxParticipants
	}
	if in.CoverImageURL != nil {
		freq.CoverImageURL = *in.CoverImageURL
	}
	if in.Settings != nil {
		freq.Settings = in.Settings
	}

	if err := s.store.Frequencies.Update(ctx, freq); err != nil {
		return nil, err
	}
	s.invalidate(freq)

	logging.Info("Frequency updated", "frequency_id", id)
	return freq, nil
}

// DeleteFrequency removes the frequency with its messages, attachments,
// invites and memberships.
func (s *FrequencyService) DeleteFrequency(ctx context.Context, id int64) error {
	freq, err := s.store.Frequencies.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Frequencies.DeleteCascade(ctx, id); err != nil {
		return err
	}
	s.invalidate(freq)

	recordAudit(ctx, s.audit, constants.AuditFrequencyDeleted, entities.AuditTargetFrequency, id, map[string]interface{}{
		"slug": freq.Slug,
	})
	logging.Info("Frequency deleted", "frequency_id", id)
	return nil
}

// CanAccessFrequency is true for public frequencies and for members of
// private ones.
func (s *FrequencyService) CanAccessFrequency(ctx context.Context, userID, frequencyID int64) (bool, error) {
	freq, err := s.GetFrequency(ctx, frequencyID)
	if err != nil {
		return false, err
	}
	if !freq.IsPrivate {
		return true, nil
	}
	return s.store.Memberships.Exists(ctx, userID, frequencyID)
}

func (s *FrequencyService) GetFrequency(ctx context.Context, id int64) (*models.Frequency, error) {
	key := fmt.Sprintf("%s%d", constants.CachePrefixFrequencyID, id)
	return s.cached(ctx, key, constants.CachePrefixFrequencyID, func() (*models.Frequency, error) {
		return s.store.Frequencies.GetByID(ctx, id)
	})
}

func (s *FrequencyService) GetFrequencyBySlug(ctx context.Context, slug string) (*models.Frequency, error) {
	key := string(constants.CachePrefixFrequencySlug) + slug
	return s.cached(ctx, key, constants.CachePrefixFrequencySlug, func() (*models.Frequency, error) {
		return s.store.Frequencies.GetBySlug(ctx, slug)
	})
}

// GetFrequencyByExternalID resolves the public id used in URLs.
func (s *FrequencyService) GetFrequencyByExternalID(ctx context.Context, externalID string) (*models.Frequency, error) {
	return s.store.Frequencies.GetByExternalID(ctx, externalID)
}

func (s *FrequencyService) ListPublicFrequencies(ctx context.Context, page, size int) ([]models.Frequency, int64, error) {
	offset, limit := pageBounds(page, size, constants.MaxPageSize)
	return s.store.Frequencies.ListPublic(ctx, offset, limit)
}

func (s *FrequencyService) ListFrequenciesByOwner(ctx context.Context, ownerID int64) ([]models.Frequency, error) {
	return s.store.Frequencies.ListByOwner(ctx, ownerID)
}

func (s *FrequencyService) cached(ctx context.Context, key string, pattern constants.CachePrefix, load func() (*models.Frequency, error)) (*models.Frequency, error) {
	var freq models.Frequency
	if s.cache.GetInto(key, &freq) {
		s.metrics.CacheHitsTotal.WithLabelValues(string(pattern)).Inc()
		return &freq, nil
	}
	s.metrics.CacheMissesTotal.WithLabelValues(string(pattern)).Inc()

	v, err, _ := s.loads.Do(key, func() (interface{}, error) {
		f, err := load()
		if err != nil {
			return nil, err
		}
		s.cache.Set(key, f, constants.FrequencyCacheTTL)
		return f, nil
	})
	if err != nil {
		return nil, err
	}

	// callers sharing a load each get their own copy
	loaded := *v.(*models.Frequency)
	return &loaded, nil
}

func (s *FrequencyService) invalidate(freq *models.Frequency) {
	evictFrequency(s.cache, freq)
}

// evictFrequency drops both cache entries of freq.
func evictFrequency(cache common.CacheInterface, freq *models.Frequency) {
	cache.Delete(fmt.Sprintf("%s%d", constants.CachePrefixFrequencyID, freq.ID))
	cache.Delete(string(constants.CachePrefixFrequencySlug) + freq.Slug)
}
