package controllers

import (
	"context"
	"net/http"

	"github.com/bizlinkhq/bizlink-backend/api/responses"
	"github.com/bizlinkhq/bizlink-backend/pkg/config"
	pkgerrors "github.com/bizlinkhq/bizlink-backend/pkg/errors"
	"github.com/bizlinkhq/bizlink-backend/pkg/logger"
)

type pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-BizLink-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports ready only when both backing stores answer a ping.
func HealthReady(cfg *config.Config, db, cache pinger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-BizLink-Env", cfg.App.Env)

		if db != nil {
			if err := db.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database unavailable"))
				return
			}
		}
		if cache != nil {
			if err := cache.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis unavailable"))
				return
			}
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
