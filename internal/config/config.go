package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	defaultHTTPAddr       = ":8080"
	defaultDatabaseURL    = "figureit.db"
	defaultJWTSecret      = "change-me-jwt-secret"
	defaultJWTAccessTTL   = "24h"
	defaultResetTokenTTL  = "1h"
	defaultAppURL         = "http://localhost:5173"
	defaultStorageBackend = "local"
	defaultStorageBucket  = "FigureIt_Assets"
	defaultStorageDir     = "./storage"
	defaultPublicBaseURL  = "http://localhost:8080"
	defaultSigningSecret  = "change-me-storage-signing-secret"
	defaultSignedURLTTL   = "3600s"
)

const (
	StorageLocal = "local"
	StorageGCS   = "gcs"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	DatabaseURL string

	JWTSecret     string
	JWTAccessTTL  time.Duration
	ResetTokenTTL time.Duration
	// AppURL is the admin UI origin; password reset links point at it.
	AppURL string

	Storage StorageConfig

	CORSAllowedOrigins []string
}

type StorageConfig struct {
	Backend       string
	Bucket        string
	Dir           string
	PublicBaseURL string
	SigningSecret string
	SignedURLTTL  time.Duration

	GCSCredentialsFile string
	GCSCDNDomain       string
}

func Load() (*Config, error) {
	cfg := &Config{}
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = strings.TrimSpace(os.Getenv("ENV"))
	}
	if appEnv == "" {
		appEnv = "dev"
	}
	cfg.AppEnv = strings.ToLower(appEnv)

	cfg.HTTPAddr = strings.TrimSpace(getEnv("HTTP_ADDR", defaultHTTPAddr))
	cfg.DatabaseURL = strings.TrimSpace(getEnv("DATABASE_URL", defaultDatabaseURL))
	cfg.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", defaultJWTSecret))
	cfg.AppURL = strings.TrimRight(strings.TrimSpace(getEnv("APP_URL", defaultAppURL)), "/")

	var err error
	cfg.JWTAccessTTL, err = parseDurationEnv("JWT_ACCESS_TTL", defaultJWTAccessTTL)
	if err != nil {
		return nil, err
	}
	cfg.ResetTokenTTL, err = parseDurationEnv("RESET_TOKEN_TTL", defaultResetTokenTTL)
	if err != nil {
		return nil, err
	}

	cfg.Storage = StorageConfig{
		Backend:            strings.ToLower(strings.TrimSpace(getEnv("STORAGE_BACKEND", defaultStorageBackend))),
		Bucket:             strings.TrimSpace(getEnv("STORAGE_BUCKET", defaultStorageBucket)),
		Dir:                strings.TrimSpace(getEnv("STORAGE_DIR", defaultStorageDir)),
		PublicBaseURL:      strings.TrimRight(strings.TrimSpace(getEnv("PUBLIC_BASE_URL", defaultPublicBaseURL)), "/"),
		SigningSecret:      strings.TrimSpace(getEnv("STORAGE_SIGNING_SECRET", defaultSigningSecret)),
		GCSCredentialsFile: strings.TrimSpace(os.Getenv("GCS_CREDENTIALS_FILE")),
		GCSCDNDomain:       strings.TrimSpace(os.Getenv("GCS_CDN_DOMAIN")),
	}
	cfg.Storage.SignedURLTTL, err = parseDurationEnv("SIGNED_URL_TTL", defaultSignedURLTTL)
	if err != nil {
		return nil, err
	}

	if extra := os.Getenv("CORS_ALLOWED_ORIGINS"); extra != "" {
		for _, o := range strings.Split(extra, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, o)
			}
		}
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool { return isProdLike(c.AppEnv) }

func validateConfig(cfg *Config) error {
	if cfg.HTTPAddr == "" {
		return fmt.Errorf("HTTP_ADDR must not be empty")
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must not be empty")
	}
	if cfg.JWTAccessTTL <= 0 {
		return fmt.Errorf("JWT_ACCESS_TTL must be > 0")
	}
	if cfg.ResetTokenTTL <= 0 {
		return fmt.Errorf("RESET_TOKEN_TTL must be > 0")
	}
	if cfg.Storage.SignedURLTTL <= 0 {
		return fmt.Errorf("SIGNED_URL_TTL must be > 0")
	}
	if cfg.Storage.Bucket == "" {
		return fmt.Errorf("STORAGE_BUCKET must not be empty")
	}
	switch cfg.Storage.Backend {
	case StorageLocal:
		if cfg.Storage.Dir == "" {
			return fmt.Errorf("STORAGE_DIR must not be empty for local storage")
		}
	case StorageGCS:
	default:
		return fmt.Errorf("STORAGE_BACKEND must be one of: local, gcs")
	}

	if isProdLike(cfg.AppEnv) {
		if isEmptyOrDefault(cfg.JWTSecret, defaultJWTSecret) {
			return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
		}
		if cfg.Storage.Backend == StorageLocal && isEmptyOrDefault(cfg.Storage.SigningSecret, defaultSigningSecret) {
			return fmt.Errorf("in prod/release STORAGE_SIGNING_SECRET must be set and not default")
		}
	}

	return nil
}

func isProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}

func parseDurationEnv(name, fallback string) (time.Duration, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
