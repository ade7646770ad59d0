package controllers

import (
	"context"
	"net/http"

	"github.com/sajidhasan/fieldorder/api/responses"
	"github.com/sajidhasan/fieldorder/pkg/config"
	pkgerrors "github.com/sajidhasan/fieldorder/pkg/errors"
	"github.com/sajidhasan/fieldorder/pkg/logger"
)

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-FieldOrder-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady checks the local stores. The remote API is reported but never
// fails readiness, since the daemon is expected to run offline.
func HealthReady(cfg *config.Config, logg *logger.Logger, db, kvStore, remoteAPI Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-FieldOrder-Env", cfg.App.Env)

		if db != nil {
			if err := db.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database unavailable"))
				return
			}
		}
		if kvStore != nil {
			if err := kvStore.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "key-value store unavailable"))
				return
			}
		}

		online := false
		if remoteAPI != nil {
			online = remoteAPI.Ping(r.Context()) == nil
		}

		responses.WriteSuccess(w, map[string]any{
			"status": "ready",
			"online": online,
		})
	}
}
