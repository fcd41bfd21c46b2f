package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"synq/backend/internal/models/entities"
)

const healthPingTimeout = 2 * time.Second

// HealthCheckHandler handles GET /healthCheck
//
// @Summary Health check
// @Description Verifies the server and its backing stores are reachable.
// @Tags Misc
// @Success 200 {object} entities.HealthCheckResponse
// @Router /healthCheck [get]
func HealthCheckHandler(db *sqlx.DB, rdb *redis.Client, upSince time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
		defer cancel()

		services := make(map[string]entities.ServiceStatus)

		// Check postgres
		services["postgres"] = pingStatus(func() error { return db.PingContext(ctx) }, "Postgres Connected")

		// Redis is optional
		if rdb != nil {
			services["redis"] = pingStatus(func() error { return rdb.Ping(ctx).Err() }, "Redis Connected")
		}

		overallStatus := "ok"
		for _, svc := range services {
			if svc.Status != "ok" {
				overallStatus = "down"
				break
			}
		}

		now := time.Now()
		uptime := now.Sub(upSince).Round(time.Second).String()

		resp := entities.HealthCheckResponse{
			Services: services,
			Status:   overallStatus,
			UpSince:  upSince.UTC(),
			Uptime:   uptime,
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func pingStatus(ping func() error, okDetails string) entities.ServiceStatus {
	if err := ping(); err != nil {
		return entities.ServiceStatus{Status: "down", Details: err.Error()}
	}
	return entities.ServiceStatus{Status: "ok", Details: okDetails}
}
