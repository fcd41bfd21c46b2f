package repositories

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"synq/backend/internal/constants"
	"synq/backend/internal/domainerr"
	models "synq/backend/internal/models/gorm"
)

// Store bundles the GORM repositories over one handle, so a service can run
// several repository calls inside a single transaction.
type Store struct {
	db *gorm.DB

	Users       *UserRepository
	Roles       *RoleRepository
	Frequencies *FrequencyRepository
	Memberships *MembershipRepository
	Invites     *InviteRepository
	Messages    *MessageRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:          db,
		Users:       NewUserRepository(db),
		Roles:       NewRoleRepository(db),
		Frequencies: NewFrequencyRepository(db),
		Memberships: NewMembershipRepository(db),
		Invites:     NewInviteRepository(db),
		Messages:    NewMessageRepository(db),
	}
}

// DB exposes the underlying handle for health checks and tests.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Transaction runs fn against a Store bound to one transaction. Inside fn
// only the tx store may be used.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

// updateVersioned writes every column of model guarded by its version. A
// concurrent writer that got there first leaves zero rows affected.
func updateVersioned(db *gorm.DB, model interface{}, base *models.BaseModel) error {
	prev := base.BumpVersion()
	res := db.Model(model).
		Where("version = ?", prev).
		Select("*").
		Omit(clause.Associations, "id", "external_id", "created_at").
		Updates(model)
	if res.Error != nil {
		base.Version = prev
		return res.Error
	}
	if res.RowsAffected == 0 {
		base.Version = prev
		return domainerr.Conflict(constants.MsgStaleWrite)
	}
	return nil
}

func mapNotFound(err error, notFoundMsg string, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domainerr.NotFound(notFoundMsg)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func mapDuplicate(err error, conflictMsg string, op string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domainerr.Wrap(domainerr.KindConflict, conflictMsg, err)
	}
	var de *domainerr.Error
	if errors.As(err, &de) {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isPostgres(db *gorm.DB) bool {
	return db.Dialector.Name() == "postgres"
}
