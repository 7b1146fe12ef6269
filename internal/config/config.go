package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultAddr               = ":8080"
	defaultDatabaseURL        = "parkservices.db"
	defaultJWTTTL             = "24h"
	defaultJWTSecret          = "change-me-jwt-secret"
	defaultStorageQuota       = "5242880"
	defaultPersistBudget      = "4194304"
	defaultPermissive         = "false"
	defaultMockDirectory      = "true"
	defaultCORSAllowedOrigins = ""
)

type Config struct {
	AppEnv      string
	Addr        string
	DatabaseURL string
	JWTSecret   string
	JWTTTL      time.Duration

	// StorageQuotaBytes caps the persisted key-value store, like browser local storage.
	StorageQuotaBytes int64
	// PersistBudgetBytes is the serialized size above which a collection is compacted.
	PersistBudgetBytes int

	// PermissiveTransitions keeps the legacy contract: any transition is applied regardless of the current status.
	PermissiveTransitions bool
	// MockDirectory enables the demo phone directory login fallback.
	MockDirectory bool

	CORSAllowedOrigins []string
}

// Load reads the configuration from the environment, after loading .env when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = "dev"
	}
	cfg.AppEnv = strings.ToLower(appEnv)

	cfg.Addr = strings.TrimSpace(getEnv("HTTP_ADDR", defaultAddr))
	cfg.DatabaseURL = strings.TrimSpace(getEnv("DATABASE_URL", defaultDatabaseURL))
	cfg.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", defaultJWTSecret))

	var err error
	cfg.JWTTTL, err = parseDurationEnv("JWT_TTL", defaultJWTTTL)
	if err != nil {
		return nil, err
	}

	quota, err := parseIntEnv("STORAGE_QUOTA_BYTES", defaultStorageQuota)
	if err != nil {
		return nil, err
	}
	cfg.StorageQuotaBytes = int64(quota)

	cfg.PersistBudgetBytes, err = parseIntEnv("PERSIST_BUDGET_BYTES", defaultPersistBudget)
	if err != nil {
		return nil, err
	}

	cfg.PermissiveTransitions = parseBoolEnv("ORDERS_PERMISSIVE_TRANSITIONS", defaultPermissive)
	cfg.MockDirectory = parseBoolEnv("AUTH_MOCK_DIRECTORY", defaultMockDirectory)

	for _, o := range strings.Split(getEnv("CORS_ALLOWED_ORIGINS", defaultCORSAllowedOrigins), ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, o)
		}
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	log.Printf("config loaded: env=%s addr=%s quota=%d budget=%d permissive=%t mock_directory=%t",
		cfg.AppEnv, cfg.Addr, cfg.StorageQuotaBytes, cfg.PersistBudgetBytes, cfg.PermissiveTransitions, cfg.MockDirectory)

	return cfg, nil
}

func validateConfig(cfg *Config) error {
	if cfg.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be > 0")
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must not be empty")
	}
	if cfg.PersistBudgetBytes <= 0 {
		return fmt.Errorf("PERSIST_BUDGET_BYTES must be > 0")
	}
	if cfg.StorageQuotaBytes < 0 {
		return fmt.Errorf("STORAGE_QUOTA_BYTES must be >= 0")
	}

	if isProdLike(cfg.AppEnv) {
		if isEmptyOrDefault(cfg.JWTSecret, defaultJWTSecret) {
			return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
		}
		if cfg.MockDirectory {
			return fmt.Errorf("in prod/release AUTH_MOCK_DIRECTORY must be false")
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

func parseIntEnv(name, fallback string) (int, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return n, nil
}

func parseBoolEnv(name, fallback string) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(name, fallback)))
	return value == "1" || value == "true" || value == "yes" || value == "on"
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
