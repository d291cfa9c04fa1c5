package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yutonagata/shipsnap-backend/api/routes"
	"github.com/yutonagata/shipsnap-backend/internal/export"
	"github.com/yutonagata/shipsnap-backend/internal/ocr"
	"github.com/yutonagata/shipsnap-backend/internal/records"
	"github.com/yutonagata/shipsnap-backend/internal/syncer"
	"github.com/yutonagata/shipsnap-backend/pkg/config"
	"github.com/yutonagata/shipsnap-backend/pkg/db"
	"github.com/yutonagata/shipsnap-backend/pkg/env"
	"github.com/yutonagata/shipsnap-backend/pkg/logger"
	"github.com/yutonagata/shipsnap-backend/pkg/metrics"
	"github.com/yutonagata/shipsnap-backend/pkg/migrate"
	"github.com/yutonagata/shipsnap-backend/pkg/storage/gcs"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	gcsClient, err := gcs.NewClient(context.Background(), cfg.GCS, cfg.GCP, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap gcs client", err)
		os.Exit(1)
	}

	recordRepo := records.NewRepository(dbClient.DB())
	recordService, err := records.NewService(recordRepo, dbClient, cfg.Media)
	if err != nil {
		logg.Error(context.Background(), "failed to create record service", err)
		os.Exit(1)
	}

	syncMetrics := metrics.NewSyncMetrics(prometheus.DefaultRegisterer)
	coordinator, err := syncer.NewCoordinator(recordRepo, gcsClient, cfg.GCS, logg, syncMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create sync coordinator", err)
		os.Exit(1)
	}

	ocrEngine, err := buildOCREngine(cfg, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create ocr engine", err)
		os.Exit(1)
	}

	exportService := export.NewService()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Pick up records that were created while the remote backend was
	// unreachable. Best-effort: failures stay pending/failed and the retry
	// endpoints cover them.
	if coordinator.Enabled() {
		go func() {
			drainCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			synced, err := coordinator.DrainPending(drainCtx, syncer.TriggerStartup)
			logCtx := logg.WithFields(drainCtx, map[string]any{"synced": synced})
			if err != nil {
				logg.Warn(logCtx, "startup sync drain finished with errors: "+err.Error())
				return
			}
			logg.Info(logCtx, "startup sync drain complete")
		}()
	}

	addr := ":" + env.Get("PORT", cfg.App.Port)
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
		"mode": cfg.App.Mode,
	})
	logg.Info(logCtx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, gcsClient, recordService, coordinator, ocrEngine, exportService),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "server shutdown failed", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(logCtx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(logCtx, "api server stopped")
}

func buildOCREngine(cfg *config.Config, logg *logger.Logger) (*ocr.Engine, error) {
	switch cfg.OCR.Strategy {
	case config.OCRStrategyLocal:
		return ocr.NewEngine(cfg.OCR, nil, ocr.NewLocalRecognizer(cfg.OCR, logg), logg)
	default:
		return ocr.NewEngine(cfg.OCR, ocr.NewGeminiClient(cfg.Gemini, logg), nil, logg)
	}
}
