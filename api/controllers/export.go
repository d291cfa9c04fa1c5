package controllers

import (
	"net/http"
	"time"

	"github.com/yutonagata/shipsnap-backend/api/responses"
	"github.com/yutonagata/shipsnap-backend/api/validators"
	"github.com/yutonagata/shipsnap-backend/internal/export"
	"github.com/yutonagata/shipsnap-backend/internal/records"
	pkgerrors "github.com/yutonagata/shipsnap-backend/pkg/errors"
	"github.com/yutonagata/shipsnap-backend/pkg/logger"
)

// timeNow is swappable in tests.
var timeNow = time.Now

// ExportRecords renders the full record set as a downloadable file.
func ExportRecords(recordSvc records.Service, exportSvc export.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if recordSvc == nil || exportSvc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "export service unavailable"))
			return
		}

		format, err := validators.ParseQueryEnum(r, "format", export.FormatJSON, export.FormatCSV)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if format == "" {
			format = export.FormatJSON
		}

		rows, err := recordSvc.ListRecords(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		file, err := exportSvc.Export(format, rows, timeNow())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		w.Header().Set("Content-Type", file.ContentType)
		w.Header().Set("Content-Disposition", `attachment; filename="`+file.Name+`"`)
		w.WriteHeader(http.StatusOK)
		w.Write(file.Data)
	}
}
