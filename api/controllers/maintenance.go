package controllers

import (
	"net/http"

	"github.com/yutonagata/shipsnap-backend/api/responses"
	"github.com/yutonagata/shipsnap-backend/pkg/config"
	"github.com/yutonagata/shipsnap-backend/pkg/db"
	pkgerrors "github.com/yutonagata/shipsnap-backend/pkg/errors"
	"github.com/yutonagata/shipsnap-backend/pkg/logger"
	"github.com/yutonagata/shipsnap-backend/pkg/migrate"
)

// ResetStore drops and recreates the local schema. This is the recovery path
// for constraint-violation corruption; every record is lost, so the caller
// must send confirm=yes explicitly.
func ResetStore(dbClient *db.Client, cfg *config.Config, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if dbClient == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "database unavailable"))
			return
		}

		if r.URL.Query().Get("confirm") != "yes" {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "reset requires confirm=yes; all records will be deleted"))
			return
		}

		sqlDB, err := dbClient.DB().DB()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to acquire database handle"))
			return
		}

		if logg != nil {
			logg.Warn(r.Context(), "resetting local database, all records will be dropped")
		}
		if err := migrate.Reset(r.Context(), sqlDB, cfg.DB.Driver, migrate.DefaultDir); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "database reset failed"))
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "reset"})
	}
}
