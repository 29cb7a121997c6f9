package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/praco-io/praco-backend/api/responses"
	"github.com/praco-io/praco-backend/pkg/config"
	"github.com/praco-io/praco-backend/pkg/db"
	"github.com/praco-io/praco-backend/pkg/logger"
	pkgredis "github.com/praco-io/praco-backend/pkg/redis"
)

const readinessTimeout = 2 * time.Second

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Praco-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP pkgredis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Praco-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		checks := map[string]string{}
		healthy := true

		checks["db"] = pingStatus(ctx, dbP)
		if checks["db"] != "ok" {
			healthy = false
		}
		checks["redis"] = pingStatus(ctx, redisP)
		if checks["redis"] != "ok" {
			healthy = false
		}

		if !healthy {
			if logg != nil {
				logg.Warn(logg.WithField(r.Context(), "checks", checks), "readiness check failed")
			}
			responses.WriteSuccessStatus(w, http.StatusServiceUnavailable, map[string]any{"status": "degraded", "checks": checks})
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}

type pinger interface {
	Ping(ctx context.Context) error
}

func pingStatus(ctx context.Context, p pinger) string {
	if p == nil {
		return "skipped"
	}
	if err := p.Ping(ctx); err != nil {
		return "unreachable"
	}
	return "ok"
}
