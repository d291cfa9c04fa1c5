package controllers

import (
	"net/http"

	"github.com/yutonagata/shipsnap-backend/api/responses"
	"github.com/yutonagata/shipsnap-backend/pkg/config"
	"github.com/yutonagata/shipsnap-backend/pkg/db"
	pkgerrors "github.com/yutonagata/shipsnap-backend/pkg/errors"
	"github.com/yutonagata/shipsnap-backend/pkg/logger"
	"github.com/yutonagata/shipsnap-backend/pkg/storage/gcs"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-ShipSnap-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady checks the datasource and, when configured, the media bucket.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, gcsClient *gcs.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-ShipSnap-Env", cfg.App.Env)

		if dbP == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "database not wired"))
			return
		}
		if err := dbP.Ping(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database not reachable"))
			return
		}

		deps := map[string]string{"database": "ok"}
		if gcsClient.Enabled() {
			if err := gcsClient.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "media bucket not reachable"))
				return
			}
			deps["storage"] = "ok"
		} else {
			deps["storage"] = "disabled"
		}

		responses.WriteSuccess(w, map[string]any{"status": "ready", "dependencies": deps})
	}
}
