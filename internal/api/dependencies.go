package api

import (
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"synq/backend/internal/common"
	"synq/backend/internal/constants"
	"synq/backend/internal/db/repositories"
	"synq/backend/internal/logging"
	"synq/backend/internal/metrics"
	"synq/backend/internal/providers"
	"synq/backend/internal/services"
)

const redisKeyPrefix = "synq:"

type Repositories struct {
	Store *repositories.Store
	Keys  *repositories.KeysRepo
	Audit *repositories.AuditLogRepository
}

type Services struct {
	Cache       common.CacheInterface
	Users       *services.UserService
	Roles       *services.RoleService
	Frequencies *services.FrequencyService
	Memberships *services.MembershipService
	Invites     *services.InviteService
	Messages    *services.MessageService
}

type Dependencies struct {
	Repo     *Repositories
	Services *Services
	Metrics  *metrics.MetricsRegistry

	// DB and Redis are only used by the health check. Redis is nil when the
	// in-memory cache is in use.
	DB    *sqlx.DB
	Redis *redis.Client
}

// Infrastructure is what the server opens before wiring services.
type Infrastructure struct {
	ORM      *gorm.DB
	SQL      *sqlx.DB
	Redis    *redis.Client
	Identity providers.IdentityProvider
	Metrics  *metrics.MetricsRegistry
}

func InitDependencies(infra Infrastructure) *Dependencies {
	store := repositories.NewStore(infra.ORM)

	repos := &Repositories{
		Store: store,
		Keys:  repositories.NewApiKeysRepo(infra.SQL),
		Audit: repositories.NewAuditLogRepository(infra.SQL),
	}

	var cache common.CacheInterface
	if infra.Redis != nil {
		cache = common.NewRedisCacheService(infra.Redis, redisKeyPrefix)
		logging.Info("Frequency cache backed by Redis")
	} else {
		cache = common.NewCacheService(constants.FrequencyCacheTTL, 2*constants.FrequencyCacheTTL)
		logging.Info("Frequency cache backed by process memory")
	}

	identity := infra.Identity
	if identity == nil {
		identity = providers.NoopIdentityProvider{}
	}

	memberships := services.NewMembershipService(store, repos.Audit, infra.Metrics)

	svcs := &Services{
		Cache:       cache,
		Users:       services.NewUserService(store, identity, cache, repos.Audit, infra.Metrics),
		Roles:       services.NewRoleService(store),
		Frequencies: services.NewFrequencyService(store, cache, repos.Audit, infra.Metrics),
		Memberships: memberships,
		Invites:     services.NewInviteService(store, memberships, repos.Audit, infra.Metrics),
		Messages:    services.NewMessageService(store, memberships, repos.Audit, infra.Metrics),
	}

	return &Dependencies{
		Repo:     repos,
		Services: svcs,
		Metrics:  infra.Metrics,
		DB:       infra.SQL,
		Redis:    infra.Redis,
	}
}
