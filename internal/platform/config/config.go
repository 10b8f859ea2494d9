package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// MinSessionSecretLen is the minimum length of SESSION_SECRET in bytes.
const MinSessionSecretLen = 32

// Config is the deployment-provided configuration of the API process.
type Config struct {
	Port    string
	BaseURL string

	// StorageBackend is "memory" or "postgres".
	StorageBackend string
	DatabaseURL    string
	DBMaxConns     int32

	// RedisURL is optional; when set, idempotency records live in Redis.
	RedisURL       string
	IdempotencyTTL time.Duration

	Session SessionConfig

	CORSAllowedOrigins []string
	BcryptCost         int

	// JourneyOwnershipCheck requires cancel/close to target a journey owned by the authenticated taxi.
	JourneyOwnershipCheck bool

	LogLevel  string
	LogFormat string
}

// SessionConfig configures signed client-held session cookies.
type SessionConfig struct {
	Secret          []byte
	Issuer          string
	AuthTTL         time.Duration
	SearchTTL       time.Duration
	RegistrationTTL time.Duration
	CookieSecure    bool
}

// LoadFromEnv reads configuration from the environment, loading a .env file first if present.
// Variables already set in the environment win over .env entries.
func LoadFromEnv() (Config, error) {
	_ = godotenv.Load()
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from an arbitrary variable source.
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	get := func(k, def string) string {
		if v, ok := lookup(k); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return def
	}

	cfg := Config{
		Port:           get("PORT", "8000"),
		BaseURL:        strings.TrimRight(get("BASE_URL", "http://localhost:8000"), "/"),
		StorageBackend: strings.ToLower(get("STORAGE_BACKEND", "memory")),
		DatabaseURL:    get("DATABASE_URL", ""),
		RedisURL:       get("REDIS_URL", ""),
		IdempotencyTTL: 24 * time.Hour,
		Session: SessionConfig{
			Secret:          []byte(get("SESSION_SECRET", "")),
			Issuer:          get("SESSION_ISSUER", "txpress"),
			AuthTTL:         12 * time.Hour,
			SearchTTL:       2 * time.Hour,
			RegistrationTTL: 30 * time.Minute,
		},
		CORSAllowedOrigins:    splitList(get("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		BcryptCost:            bcrypt.DefaultCost,
		JourneyOwnershipCheck: true,
		LogLevel:              get("LOG_LEVEL", "info"),
		LogFormat:             get("LOG_FORMAT", "json"),
	}

	switch cfg.StorageBackend {
	case "memory":
	case "postgres":
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL is required when STORAGE_BACKEND=postgres")
		}
	default:
		return Config{}, fmt.Errorf("STORAGE_BACKEND must be memory or postgres, got %q", cfg.StorageBackend)
	}

	if len(cfg.Session.Secret) < MinSessionSecretLen {
		return Config{}, fmt.Errorf("SESSION_SECRET must be at least %d bytes", MinSessionSecretLen)
	}

	var err error
	if cfg.Session.AuthTTL, err = durationVar(get, "AUTH_SESSION_TTL", cfg.Session.AuthTTL); err != nil {
		return Config{}, err
	}
	if cfg.Session.SearchTTL, err = durationVar(get, "SEARCH_SESSION_TTL", cfg.Session.SearchTTL); err != nil {
		return Config{}, err
	}
	if cfg.Session.RegistrationTTL, err = durationVar(get, "REGISTRATION_TTL", cfg.Session.RegistrationTTL); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = durationVar(get, "IDEMPOTENCY_TTL", cfg.IdempotencyTTL); err != nil {
		return Config{}, err
	}
	if cfg.Session.CookieSecure, err = boolVar(get, "COOKIE_SECURE", false); err != nil {
		return Config{}, err
	}
	if cfg.JourneyOwnershipCheck, err = boolVar(get, "JOURNEY_OWNERSHIP_CHECK", true); err != nil {
		return Config{}, err
	}

	if v := get("BCRYPT_COST", ""); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < bcrypt.MinCost || n > bcrypt.MaxCost {
			return Config{}, fmt.Errorf("BCRYPT_COST must be an integer in [%d,%d]", bcrypt.MinCost, bcrypt.MaxCost)
		}
		cfg.BcryptCost = n
	}
	if v := get("DB_MAX_CONNS", ""); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil || n < 1 {
			return Config{}, fmt.Errorf("DB_MAX_CONNS must be a positive integer")
		}
		cfg.DBMaxConns = int32(n)
	}

	return cfg, nil
}

func durationVar(get func(string, string) string, key string, def time.Duration) (time.Duration, error) {
	v := get(key, "")
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration (e.g. 30m): %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", key)
	}
	return d, nil
}

func boolVar(get func(string, string) string, key string, def bool) (bool, error) {
	v := get(key, "")
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean: %w", key, err)
	}
	return b, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
