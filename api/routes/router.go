package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yutonagata/shipsnap-backend/api/controllers"
	"github.com/yutonagata/shipsnap-backend/api/middleware"
	"github.com/yutonagata/shipsnap-backend/internal/export"
	"github.com/yutonagata/shipsnap-backend/internal/ocr"
	"github.com/yutonagata/shipsnap-backend/internal/records"
	"github.com/yutonagata/shipsnap-backend/internal/syncer"
	"github.com/yutonagata/shipsnap-backend/pkg/config"
	"github.com/yutonagata/shipsnap-backend/pkg/db"
	"github.com/yutonagata/shipsnap-backend/pkg/logger"
	"github.com/yutonagata/shipsnap-backend/pkg/storage/gcs"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	gcsClient *gcs.Client,
	recordService records.Service,
	coordinator *syncer.Coordinator,
	ocrEngine *ocr.Engine,
	exportService export.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbClient, gcsClient))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/records", func(r chi.Router) {
			r.Get("/", controllers.ListRecords(recordService, logg))
			r.Post("/", controllers.CreateRecord(recordService, coordinator, cfg.App, logg))
			r.Route("/{recordId}", func(r chi.Router) {
				r.Get("/", controllers.GetRecord(recordService, logg))
				r.Patch("/", controllers.UpdateRecord(recordService, logg))
				r.Delete("/", controllers.DeleteRecord(recordService, coordinator, logg))
				r.Post("/sync", controllers.RetryRecordSync(coordinator, logg))
			})
		})

		r.Get("/images/{imageId}", controllers.GetRecordImage(recordService, logg))

		r.Route("/sync", func(r chi.Router) {
			r.Get("/status", controllers.SyncStatus(coordinator))
			r.Post("/retry-all", controllers.RetryAllSync(coordinator, logg))
		})

		r.Post("/ocr/extract", controllers.ExtractFromImage(ocrEngine, cfg.Media, logg))
		r.Get("/export", controllers.ExportRecords(recordService, exportService, logg))

		r.Post("/maintenance/reset", controllers.ResetStore(dbClient, cfg, logg))
	})

	return r
}
