package controllers

import (
	"net/http"

	"github.com/yutonagata/shipsnap-backend/api/responses"
	"github.com/yutonagata/shipsnap-backend/internal/syncer"
	pkgerrors "github.com/yutonagata/shipsnap-backend/pkg/errors"
	"github.com/yutonagata/shipsnap-backend/pkg/logger"
)

// RetryRecordSync starts a fresh sync attempt for one record. The attempt
// runs synchronously so the caller gets the final outcome.
func RetryRecordSync(coordinator *syncer.Coordinator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if coordinator == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sync coordinator unavailable"))
			return
		}

		id, err := recordIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		outcome, err := coordinator.SyncRecord(r.Context(), id, syncer.TriggerRetry)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"outcome": string(outcome)})
	}
}

// RetryAllSync drains the pending and failed backlog in one pass.
func RetryAllSync(coordinator *syncer.Coordinator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if coordinator == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sync coordinator unavailable"))
			return
		}

		synced, err := coordinator.DrainPending(r.Context(), syncer.TriggerRetry)
		if err != nil {
			// Partial progress still matters to the caller.
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeDependency, err, "some records failed to sync").
					WithDetails(map[string]any{"synced": synced}))
			return
		}
		responses.WriteSuccess(w, map[string]any{"synced": synced})
	}
}

// SyncStatus reports whether a remote backend is configured.
func SyncStatus(coordinator *syncer.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		enabled := coordinator != nil && coordinator.Enabled()
		responses.WriteSuccess(w, map[string]bool{"remote_enabled": enabled})
	}
}
