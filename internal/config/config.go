package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAppName         = "AcePass"
	defaultAppEnv          = "development"
	defaultPort            = "8080"
	defaultLogLevel        = "info"
	defaultShutdownDelay   = 10 * time.Second
	defaultIdempotencyTTL  = 24 * time.Hour
	defaultCodeValidity    = 365 * 24 * time.Hour
	defaultAccessTokenTTL  = time.Hour
	defaultExamFeeMinor    = 150000
	defaultBootstrapUses   = 5
	defaultAuthorizePerMin = 10
	defaultAdminUsername   = "admin"
	idemTTLSecondsEnvVar   = "IDEMPOTENCY_TTL_SECONDS"
	idemTTLDurEnvVar       = "IDEMPOTENCY_TTL"
	shutdownSecondsEnvVar  = "SHUTDOWN_TIMEOUT_SECONDS"
	shutdownDurationEnvVar = "SHUTDOWN_TIMEOUT"
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName        string
	AppEnv         string
	Port           string
	LogLevel       string
	DatabaseURL    string
	RedisURL       string
	ShutdownPeriod time.Duration
	IdempotencyTTL time.Duration

	// Credential lifecycle
	CodeValidity       time.Duration
	ExamFeeMinor       int64
	AuthorizeMaxPerMin int

	// Admin console
	JWTSecret              string
	AccessTokenTTL         time.Duration
	BootstrapAdminUsername string
	BootstrapAdminPassword string
	BootstrapAdminMaxUses  int
}

// Load reads configuration values from the environment and populates a Config
// instance. DATABASE_URL and REDIS_URL are optional in development, where the
// application falls back to in-memory stores.
func Load() (Config, error) {
	cfg := Config{
		AppName:                getEnv("APP_NAME", defaultAppName),
		AppEnv:                 getEnv("APP_ENV", defaultAppEnv),
		Port:                   getEnv("PORT", defaultPort),
		LogLevel:               strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DatabaseURL:            os.Getenv("DATABASE_URL"),
		RedisURL:               os.Getenv("REDIS_URL"),
		ShutdownPeriod:         defaultShutdownDelay,
		IdempotencyTTL:         defaultIdempotencyTTL,
		CodeValidity:           defaultCodeValidity,
		ExamFeeMinor:           defaultExamFeeMinor,
		AuthorizeMaxPerMin:     defaultAuthorizePerMin,
		JWTSecret:              os.Getenv("JWT_SECRET"),
		AccessTokenTTL:         defaultAccessTokenTTL,
		BootstrapAdminUsername: getEnv("BOOTSTRAP_ADMIN_USERNAME", defaultAdminUsername),
		BootstrapAdminPassword: os.Getenv("BOOTSTRAP_ADMIN_PASSWORD"),
		BootstrapAdminMaxUses:  defaultBootstrapUses,
	}

	if v := os.Getenv(shutdownSecondsEnvVar); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", shutdownSecondsEnvVar, err)
		}
		cfg.ShutdownPeriod = time.Duration(seconds) * time.Second
	} else if v := os.Getenv(shutdownDurationEnvVar); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", shutdownDurationEnvVar, err)
		}
		cfg.ShutdownPeriod = d
	}

	if v := os.Getenv(idemTTLSecondsEnvVar); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", idemTTLSecondsEnvVar, err)
		}
		cfg.IdempotencyTTL = time.Duration(seconds) * time.Second
	} else if v := os.Getenv(idemTTLDurEnvVar); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", idemTTLDurEnvVar, err)
		}
		cfg.IdempotencyTTL = d
	}

	if v := os.Getenv("CODE_VALIDITY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid CODE_VALIDITY: %w", err)
		}
		cfg.CodeValidity = d
	}

	if v := os.Getenv("EXAM_FEE_MINOR"); v != "" {
		fee, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("invalid EXAM_FEE_MINOR: %w", err)
		}
		cfg.ExamFeeMinor = fee
	}

	if v := os.Getenv("AUTHORIZE_MAX_PER_MIN"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid AUTHORIZE_MAX_PER_MIN: %w", err)
		}
		cfg.AuthorizeMaxPerMin = n
	}

	if v := os.Getenv("ACCESS_TOKEN_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid ACCESS_TOKEN_TTL: %w", err)
		}
		cfg.AccessTokenTTL = d
	}

	if v := os.Getenv("BOOTSTRAP_ADMIN_MAX_USES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid BOOTSTRAP_ADMIN_MAX_USES: %w", err)
		}
		cfg.BootstrapAdminMaxUses = n
	}

	dev := cfg.AppEnv == "dev" || cfg.AppEnv == "development" || cfg.AppEnv == "local"
	if !dev {
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL must be set")
		}
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("REDIS_URL must be set")
		}
		if cfg.JWTSecret == "" {
			return Config{}, fmt.Errorf("JWT_SECRET must be set")
		}
		if cfg.BootstrapAdminPassword == "" {
			return Config{}, fmt.Errorf("BOOTSTRAP_ADMIN_PASSWORD must be set")
		}
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "dev-only-secret"
	}
	if cfg.BootstrapAdminPassword == "" {
		cfg.BootstrapAdminPassword = "changeme-now"
	}

	return cfg, nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
