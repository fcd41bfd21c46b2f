package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"synq/backend/internal/api"
	"synq/backend/internal/common"
	"synq/backend/internal/config"
	"synq/backend/internal/db"
	"synq/backend/internal/logging"
	"synq/backend/internal/metrics"
	"synq/backend/internal/providers"
	"synq/backend/internal/routes"
)

// @title Synq API
// @version 1.0
// @description Backend for Synq frequencies: membership, invites and messages.
// @host localhost:8080
// @BasePath /
func main() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logging.Init(cfg.AppEnv); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logging.Close()

	logging.Info("Synq starting up",
		"environment", cfg.AppEnv,
		"timestamp", time.Now().Format(time.RFC3339),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to DB with sqlx
	sqlxDB, err := db.InitPostgres(ctx, cfg.DB)
	if err != nil {
		logging.Fatal("Failed to connect to Postgres (sqlx)", "error", err)
	}
	defer sqlxDB.Close()
	logging.Info("Connected to Postgres (sqlx)")

	// Connect to DB with GORM
	gormDB, err := db.InitPostgresORM(cfg.DB)
	if err != nil {
		logging.Fatal("Failed to connect to Postgres (GORM)", "error", err)
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = common.NewRedisClient(cfg.Redis)
		defer redisClient.Close()
	}

	metricsReg := metrics.NewMetricsRegistry(prometheus.DefaultRegisterer)

	deps := api.InitDependencies(api.Infrastructure{
		ORM:      gormDB,
		SQL:      sqlxDB,
		Redis:    redisClient,
		Identity: providers.NewIdentityProvider(cfg.Identity),
		Metrics:  metricsReg,
	})
	defer deps.Services.Cache.Close()

	router := routes.RegisterRoutes(cfg, deps, time.Now())

	// Setup metrics endpoint outside of Chi router
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", router) // Mount Chi router at root
	logging.Info("Prometheus metrics endpoint registered at /metrics")

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logging.Info("Server starting", "port", cfg.Server.Port, "environment", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal("Server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logging.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error("Graceful shutdown failed", "error", err)
	}
}
