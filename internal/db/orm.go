package db

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"synq/backend/internal/config"
	"synq/backend/internal/logging"
)

// GormConfig is shared by the server and the test helpers. TranslateError
// turns driver unique violations into gorm.ErrDuplicatedKey.
func GormConfig() *gorm.Config {
	return &gorm.Config{
		TranslateError: true,
		Logger:         gormLogger(zap.NewStdLog(logging.GetLogger().Desugar())),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// gormLogger reports slow queries and errors. Lookups that miss are part of
// normal control flow and stay quiet.
func gormLogger(w logger.Writer) logger.Interface {
	return logger.New(w, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}

func InitPostgresORM(cfg config.DBConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), GormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB from gorm: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	logging.Info("Connected to Postgres via GORM", "host", cfg.Host, "db", cfg.Name)
	return db, nil
}
