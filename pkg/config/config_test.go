package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Success(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.App.Env != "prod" {
		t.Fatalf("expected App.Env to be prod, got %q", cfg.App.Env)
	}

	if cfg.DB.Driver != DriverSQLite {
		t.Fatalf("expected sqlite driver by default, got %q", cfg.DB.Driver)
	}

	if got := cfg.Gemini.Timeout; got != 10*time.Second {
		t.Fatalf("expected gemini timeout 10s, got %v", got)
	}

	if cfg.Gemini.PrimaryModel != "gemini-1.5-flash" || cfg.Gemini.FallbackModel != "gemini-1.5-pro" {
		t.Fatalf("unexpected gemini models %q/%q", cfg.Gemini.PrimaryModel, cfg.Gemini.FallbackModel)
	}

	if cfg.Media.MaxImages != 3 {
		t.Fatalf("expected max 3 images, got %d", cfg.Media.MaxImages)
	}

	if cfg.GCS.Enabled() {
		t.Fatal("expected sync disabled without a bucket name")
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	setMinimalEnv(t)
	if err := os.Unsetenv(EnvAppEnv); err != nil {
		t.Fatalf("failed to unset %s: %v", EnvAppEnv, err)
	}

	if _, err := Load(); err == nil {
		t.Fatal("expected missing required env to return an error")
	}
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvDBDriver, "oracle")

	if _, err := Load(); err == nil {
		t.Fatal("expected unknown driver to return an error")
	}
}

func TestLoad_RejectsUnknownOCRStrategy(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvOCRStrategy, "psychic")

	if _, err := Load(); err == nil {
		t.Fatal("expected unknown ocr strategy to return an error")
	}
}

func setMinimalEnv(t *testing.T) {
	t.Helper()

	t.Setenv(EnvAppEnv, "prod")
	t.Setenv(EnvPort, "8081")
}

func TestAppConfigEnvHelpers(t *testing.T) {
	devConfig := AppConfig{Env: "DEV"}
	if !devConfig.IsDev() {
		t.Fatalf("expected IsDev true for %q", devConfig.Env)
	}
	if devConfig.IsProd() {
		t.Fatalf("expected IsProd false for %q", devConfig.Env)
	}

	prodConfig := AppConfig{Env: "prod", Mode: ModeCloudFirst}
	if !prodConfig.IsProd() {
		t.Fatalf("expected IsProd true for %q", prodConfig.Env)
	}
	if !prodConfig.IsCloudFirst() {
		t.Fatalf("expected IsCloudFirst true for %q", prodConfig.Mode)
	}
}
