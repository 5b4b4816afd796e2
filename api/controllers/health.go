package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/aaracollective/storefront-backend/api/responses"
	"github.com/aaracollective/storefront-backend/pkg/config"
	pkgerrors "github.com/aaracollective/storefront-backend/pkg/errors"
	"github.com/aaracollective/storefront-backend/pkg/logger"
)

const (
	envHeader    = "X-Storefront-Env"
	readyTimeout = 2 * time.Second
)

type pinger interface {
	Ping(context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings the database and redis. Any failure answers 503.
func HealthReady(cfg *config.Config, logg *logger.Logger, database, cache pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		checks := map[string]string{"database": "ok", "redis": "ok"}
		ready := true
		for name, dep := range map[string]pinger{"database": database, "redis": cache} {
			if dep == nil {
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				checks[name] = "unavailable"
				ready = false
				if logg != nil {
					logg.Error(logg.WithField(ctx, "dependency", name), "health.ready.ping_failed", err)
				}
			}
		}
		if !ready {
			responses.WriteError(r.Context(), nil, w, pkgerrors.New(pkgerrors.CodeDependency, "dependencies unavailable").WithDetails(checks))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
