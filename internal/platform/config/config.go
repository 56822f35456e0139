package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"

	AuthModeDev = "dev"
	AuthModeJWT = "jwt"
	AuthModeIDP = "idp"

	PredictorNone        = "none"
	PredictorModelServer = "modelserver"
	PredictorOpenAI      = "openai"
)

// AppConfig agrupa toda la configuración del servicio.
type AppConfig struct {
	Port        string
	AppName     string
	Environment string
	LogLevel    string
	LogFormat   string

	StorageDriver string
	DatabaseDSN   string
	SQLitePath    string

	AuthMode   string
	JWTSecret  string
	JWTIssuer  string
	IDPBaseURL string
	IDPAPIKey  string

	Predictor           string
	ModelServerURL      string
	ModelServerAPIKey   string
	ModelLabelPath      string
	ModelConfidencePath string
	OpenAIAPIKey        string
	OpenAIBaseURL       string
	OpenAIModel         string

	ScanMaxBytes  int64
	ScanRetention time.Duration
	ScanPurgeCron string

	CatalogSeedFile string
	HomePillCount   int
}

// Load lee .env (si existe) y luego variables de entorno.
// godotenv.Load no pisa variables ya definidas.
func Load() (*AppConfig, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv construye la config desde un lookup arbitrario (tests).
func FromEnv(getenv func(string) string) (*AppConfig, error) {
	get := func(key, fallback string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return fallback
	}

	cfg := &AppConfig{
		Port:        get("PORT", "8080"),
		AppName:     get("APP_NAME", "pill-tracker"),
		Environment: strings.ToLower(get("ENVIRONMENT", "development")),
		LogLevel:    strings.ToLower(get("LOG_LEVEL", "info")),
		LogFormat:   strings.ToLower(get("LOG_FORMAT", "")),

		StorageDriver: strings.ToLower(get("STORAGE_DRIVER", StorageMemory)),
		DatabaseDSN:   get("DB_DSN", ""),
		SQLitePath:    get("SQLITE_PATH", "data/pill-tracker.db"),

		AuthMode:   strings.ToLower(get("AUTH_MODE", AuthModeDev)),
		JWTSecret:  get("JWT_SECRET", ""),
		JWTIssuer:  get("JWT_ISSUER", ""),
		IDPBaseURL: get("IDP_BASE_URL", ""),
		IDPAPIKey:  get("IDP_API_KEY", ""),

		Predictor:           strings.ToLower(get("PREDICTOR", PredictorNone)),
		ModelServerURL:      get("MODEL_SERVER_URL", ""),
		ModelServerAPIKey:   get("MODEL_SERVER_API_KEY", ""),
		ModelLabelPath:      get("MODEL_LABEL_PATH", "prediction.label"),
		ModelConfidencePath: get("MODEL_CONFIDENCE_PATH", "prediction.confidence"),
		OpenAIAPIKey:        get("OPENAI_API_KEY", ""),
		OpenAIBaseURL:       get("OPENAI_BASE_URL", ""),
		OpenAIModel:         get("OPENAI_MODEL", "gpt-4o-mini"),

		ScanPurgeCron: get("SCAN_PURGE_CRON", "0 3 * * *"),

		CatalogSeedFile: get("CATALOG_SEED_FILE", ""),
	}

	// El formato por defecto depende del entorno.
	if cfg.LogFormat == "" {
		if cfg.Environment == "production" || cfg.Environment == "staging" {
			cfg.LogFormat = "json"
		} else {
			cfg.LogFormat = "text"
		}
	}

	var err error

	cfg.ScanMaxBytes, err = strconv.ParseInt(get("SCAN_MAX_BYTES", "5242880"), 10, 64)
	if err != nil || cfg.ScanMaxBytes <= 0 {
		return nil, fmt.Errorf("invalid SCAN_MAX_BYTES: %q", getenv("SCAN_MAX_BYTES"))
	}

	cfg.ScanRetention, err = time.ParseDuration(get("SCAN_RETENTION", "720h"))
	if err != nil || cfg.ScanRetention <= 0 {
		return nil, fmt.Errorf("invalid SCAN_RETENTION: %q", getenv("SCAN_RETENTION"))
	}

	cfg.HomePillCount, err = strconv.Atoi(get("HOME_PILL_COUNT", "20"))
	if err != nil || cfg.HomePillCount <= 0 {
		return nil, fmt.Errorf("invalid HOME_PILL_COUNT: %q", getenv("HOME_PILL_COUNT"))
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) validate() error {
	switch c.StorageDriver {
	case StorageMemory:
	case StoragePostgres:
		if c.DatabaseDSN == "" {
			return fmt.Errorf("DB_DSN is required for STORAGE_DRIVER=%s", StoragePostgres)
		}
	case StorageSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for STORAGE_DRIVER=%s", StorageSQLite)
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}

	switch c.AuthMode {
	case AuthModeDev:
	case AuthModeJWT:
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required for AUTH_MODE=%s", AuthModeJWT)
		}
	case AuthModeIDP:
		if c.IDPBaseURL == "" || c.IDPAPIKey == "" {
			return fmt.Errorf("IDP_BASE_URL and IDP_API_KEY are required for AUTH_MODE=%s", AuthModeIDP)
		}
	default:
		return fmt.Errorf("unknown AUTH_MODE %q", c.AuthMode)
	}

	switch c.Predictor {
	case PredictorNone:
	case PredictorModelServer:
		if c.ModelServerURL == "" {
			return fmt.Errorf("MODEL_SERVER_URL is required for PREDICTOR=%s", PredictorModelServer)
		}
	case PredictorOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for PREDICTOR=%s", PredictorOpenAI)
		}
	default:
		return fmt.Errorf("unknown PREDICTOR %q", c.Predictor)
	}

	if c.Environment == "production" && c.AuthMode == AuthModeDev {
		return fmt.Errorf("AUTH_MODE=%s is not allowed in production", AuthModeDev)
	}
	return nil
}

func (c *AppConfig) Addr() string {
	return ":" + c.Port
}
