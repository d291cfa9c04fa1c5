package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	GCP          GCPConfig
	GCS          GCSConfig
	Gemini       GeminiConfig
	OCR          OCRConfig
	Media        MediaConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.validate(); err != nil {
		return nil, err
	}
	if err := cfg.OCR.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SHIPSNAP_APP_ENV" required:"true"`
	Port         string `envconfig:"SHIPSNAP_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SHIPSNAP_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SHIPSNAP_LOG_WARN_STACK" default:"false"`

	// Mode selects the deployment variant: records are written locally first and
	// synced in the background (local-first) or media must upload before the
	// record document is created (cloud-first).
	Mode string `envconfig:"SHIPSNAP_APP_MODE" default:"local-first"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

func (a AppConfig) IsCloudFirst() bool {
	return strings.EqualFold(a.Mode, ModeCloudFirst)
}

type DBConfig struct {
	Driver string `envconfig:"SHIPSNAP_DB_DRIVER" default:"sqlite"`
	// DSN is a file path for sqlite and a postgres URL for the cloud-first
	// deployment.
	DSN string `envconfig:"SHIPSNAP_DB_DSN" default:"data/shipsnap.db"`

	MaxOpenConns    int           `envconfig:"SHIPSNAP_DB_MAX_OPEN_CONNS" default:"1"`
	MaxIdleConns    int           `envconfig:"SHIPSNAP_DB_MAX_IDLE_CONNS" default:"1"`
	ConnMaxLifetime time.Duration `envconfig:"SHIPSNAP_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SHIPSNAP_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (db DBConfig) validate() error {
	switch db.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("unsupported db driver %q", db.Driver)
	}
	if db.DSN == "" {
		return fmt.Errorf("%s is required", EnvDBDSN)
	}
	return nil
}

type GCPConfig struct {
	ProjectID              string `envconfig:"SHIPSNAP_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"SHIPSNAP_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"SHIPSNAP_GOOGLE_APPLICATION_CREDENTIALS"`
}

// GCSConfig describes the remote media bucket. An empty bucket name disables
// cloud sync entirely: records stay local and SyncRecord is a no-op.
type GCSConfig struct {
	BucketName       string `envconfig:"SHIPSNAP_GCS_BUCKET_NAME"`
	CollectionPrefix string `envconfig:"SHIPSNAP_GCS_COLLECTION_PREFIX" default:"evidence"`
}

func (g GCSConfig) Enabled() bool {
	return g.BucketName != ""
}

// GeminiConfig holds the hosted vision-model settings. Model names live here,
// never at call sites.
type GeminiConfig struct {
	APIKey        string        `envconfig:"SHIPSNAP_GEMINI_API_KEY"`
	Endpoint      string        `envconfig:"SHIPSNAP_GEMINI_ENDPOINT" default:"https://generativelanguage.googleapis.com/v1beta/models"`
	PrimaryModel  string        `envconfig:"SHIPSNAP_GEMINI_PRIMARY_MODEL" default:"gemini-1.5-flash"`
	FallbackModel string        `envconfig:"SHIPSNAP_GEMINI_FALLBACK_MODEL" default:"gemini-1.5-pro"`
	Timeout       time.Duration `envconfig:"SHIPSNAP_GEMINI_TIMEOUT" default:"10s"`
	Temperature   float64       `envconfig:"SHIPSNAP_GEMINI_TEMPERATURE" default:"0.1"`
	MaxTokens     int           `envconfig:"SHIPSNAP_GEMINI_MAX_TOKENS" default:"256"`
}

type OCRConfig struct {
	Strategy  string `envconfig:"SHIPSNAP_OCR_STRATEGY" default:"remote"`
	Languages string `envconfig:"SHIPSNAP_OCR_LANGUAGES" default:"jpn+eng"`
}

func (o OCRConfig) validate() error {
	switch o.Strategy {
	case OCRStrategyRemote, OCRStrategyLocal:
		return nil
	}
	return fmt.Errorf("unsupported ocr strategy %q", o.Strategy)
}

type MediaConfig struct {
	MaxImages   int `envconfig:"SHIPSNAP_MEDIA_MAX_IMAGES" default:"3"`
	MaxUploadMB int `envconfig:"SHIPSNAP_MAX_UPLOAD_MB" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SHIPSNAP_AUTO_MIGRATE" default:"false"`
}
