// Package config loads the service configuration from an optional YAML file
// and environment variables. Environment always wins over the file.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sakif/booker/internal/auth"
	"github.com/sakif/booker/internal/catalog"
)

// Accepted values for DBDriver and SessionStore.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"

	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"
)

// Config is the full service configuration. Field names double as YAML
// keys; every field also has an environment variable (see EnvKeys) that
// wins over the file.
//
// SOURCES, lowest precedence first:
//   - Default()
//   - the YAML file passed to Read or Load
//   - environment variables, including those loaded from .env by the CLI
type Config struct {
	Port      int    `yaml:"port"`
	LogLevel  string `yaml:"logLevel"`
	LogFormat string `yaml:"logFormat"`

	DBDriver    string `yaml:"dbDriver"`
	DBPath      string `yaml:"dbPath"`
	DatabaseURL string `yaml:"databaseURL"`

	SessionSecret       string        `yaml:"sessionSecret"`
	SessionStore        string        `yaml:"sessionStore"`
	SessionTTL          time.Duration `yaml:"sessionTTL"`
	SessionCookieName   string        `yaml:"sessionCookieName"`
	SessionCookieSecure bool          `yaml:"sessionCookieSecure"`
	RedisAddr           string        `yaml:"redisAddr"`
	RedisPassword       string        `yaml:"redisPassword"`

	CatalogBaseURL     string  `yaml:"catalogBaseURL"`
	CatalogAPIKey      string  `yaml:"catalogAPIKey"`
	CatalogAccessToken string  `yaml:"catalogAccessToken"`
	CatalogMaxResults  int     `yaml:"catalogMaxResults"`
	CatalogLang        string  `yaml:"catalogLang"`
	CatalogRPS         float64 `yaml:"catalogRPS"`

	SearchTimeout  time.Duration `yaml:"searchTimeout"`
	SignupRedirect string        `yaml:"signupRedirect"`

	AuthRateLimitRPS   float64 `yaml:"authRateLimitRPS"`
	AuthRateLimitBurst int     `yaml:"authRateLimitBurst"`
}

// Default returns the configuration used when nothing is set. SessionSecret
// has no default and must always be provided.
func Default() Config {
	return Config{
		Port:               8080,
		LogLevel:           "info",
		LogFormat:          "text",
		DBDriver:           DriverSQLite,
		DBPath:             "data/booker.db",
		SessionStore:       SessionStoreMemory,
		SessionTTL:         7 * 24 * time.Hour,
		SessionCookieName:  "booker_auth_cookie",
		RedisAddr:          "localhost:6379",
		CatalogBaseURL:     "https://www.googleapis.com/books/v1",
		CatalogMaxResults:  16,
		CatalogLang:        "en",
		SearchTimeout:      10 * time.Second,
		SignupRedirect:     "/search",
		AuthRateLimitRPS:   1,
		AuthRateLimitBurst: 5,
	}
}

// Load is Read followed by Validate. Overrides run in between, so command
// line flags are validated like every other source.
func Load(path string, overrides ...func(*Config)) (Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return cfg, err
	}
	for _, override := range overrides {
		override(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Read starts from Default, applies the YAML file at path when path is not
// empty, then applies environment overrides. It does not validate, so
// commands that need only part of the configuration can use it.
func Read(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// EnvKeys lists every environment variable Load reads.
var EnvKeys = []string{
	"PORT", "LOG_LEVEL", "LOG_FORMAT", "DB_DRIVER", "DB_PATH", "DATABASE_URL",
	"SESSION_SECRET", "SESSION_STORE", "SESSION_TTL", "SESSION_COOKIE_NAME",
	"SESSION_COOKIE_SECURE", "REDIS_ADDR", "REDIS_PASSWORD", "CATALOG_BASE_URL",
	"CATALOG_API_KEY", "CATALOG_ACCESS_TOKEN", "CATALOG_MAX_RESULTS", "CATALOG_LANG",
	"CATALOG_RPS", "SEARCH_TIMEOUT", "SIGNUP_REDIRECT", "AUTH_RATE_LIMIT_RPS",
	"AUTH_RATE_LIMIT_BURST",
}

func applyEnv(cfg *Config) error {
	var errs []error
	str := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("config: %s=%q: not an integer", key, v))
				return
			}
			*dst = n
		}
	}
	float := func(key string, dst *float64) {
		if v := os.Getenv(key); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("config: %s=%q: not a number", key, v))
				return
			}
			*dst = f
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v := os.Getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("config: %s=%q: %w", key, v, err))
				return
			}
			*dst = d
		}
	}
	boolean := func(key string, dst *bool) {
		if v := os.Getenv(key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("config: %s=%q: not a boolean", key, v))
				return
			}
			*dst = b
		}
	}

	num("PORT", &cfg.Port)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("LOG_FORMAT", &cfg.LogFormat)
	str("DB_DRIVER", &cfg.DBDriver)
	str("DB_PATH", &cfg.DBPath)
	str("DATABASE_URL", &cfg.DatabaseURL)
	str("SESSION_SECRET", &cfg.SessionSecret)
	str("SESSION_STORE", &cfg.SessionStore)
	dur("SESSION_TTL", &cfg.SessionTTL)
	str("SESSION_COOKIE_NAME", &cfg.SessionCookieName)
	boolean("SESSION_COOKIE_SECURE", &cfg.SessionCookieSecure)
	str("REDIS_ADDR", &cfg.RedisAddr)
	str("REDIS_PASSWORD", &cfg.RedisPassword)
	str("CATALOG_BASE_URL", &cfg.CatalogBaseURL)
	str("CATALOG_API_KEY", &cfg.CatalogAPIKey)
	str("CATALOG_ACCESS_TOKEN", &cfg.CatalogAccessToken)
	num("CATALOG_MAX_RESULTS", &cfg.CatalogMaxResults)
	str("CATALOG_LANG", &cfg.CatalogLang)
	float("CATALOG_RPS", &cfg.CatalogRPS)
	dur("SEARCH_TIMEOUT", &cfg.SearchTimeout)
	str("SIGNUP_REDIRECT", &cfg.SignupRedirect)
	float("AUTH_RATE_LIMIT_RPS", &cfg.AuthRateLimitRPS)
	num("AUTH_RATE_LIMIT_BURST", &cfg.AuthRateLimitBurst)

	return errors.Join(errs...)
}

// Validate reports every problem at once.
func (c Config) Validate() error {
	var errs []error

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("config: port %d out of range", c.Port))
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("config: unknown log format %q", c.LogFormat))
	}

	switch c.DBDriver {
	case DriverSQLite:
		if c.DBPath == "" {
			errs = append(errs, errors.New("config: dbPath is required for sqlite (DB_PATH)"))
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("config: databaseURL is required for postgres (DATABASE_URL)"))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("config: unknown db driver %q", c.DBDriver))
	}

	if len(c.SessionSecret) < auth.MinSecretLength {
		errs = append(errs, fmt.Errorf("config: sessionSecret must be at least %d characters (SESSION_SECRET)", auth.MinSecretLength))
	}
	switch c.SessionStore {
	case SessionStoreMemory:
	case SessionStoreRedis:
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("config: redisAddr is required for the redis session store (REDIS_ADDR)"))
		}
	default:
		errs = append(errs, fmt.Errorf("config: unknown session store %q", c.SessionStore))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("config: sessionTTL must be positive"))
	}
	if c.SessionCookieName == "" {
		errs = append(errs, errors.New("config: sessionCookieName must not be empty"))
	}

	if c.CatalogMaxResults <= 0 || c.CatalogMaxResults > 40 {
		errs = append(errs, fmt.Errorf("config: catalogMaxResults %d must be between 1 and 40", c.CatalogMaxResults))
	}
	if c.CatalogRPS < 0 {
		errs = append(errs, errors.New("config: catalogRPS must not be negative"))
	}
	if c.SearchTimeout <= 0 {
		errs = append(errs, errors.New("config: searchTimeout must be positive"))
	}
	if !strings.HasPrefix(c.SignupRedirect, "/") {
		errs = append(errs, fmt.Errorf("config: signupRedirect %q must be a local path", c.SignupRedirect))
	}
	if c.AuthRateLimitRPS <= 0 || c.AuthRateLimitBurst <= 0 {
		errs = append(errs, errors.New("config: auth rate limit rps and burst must be positive"))
	}

	return errors.Join(errs...)
}

// SlogLevel parses LogLevel.
func (c Config) SlogLevel() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("config: unknown log level %q", c.LogLevel)
	}
	return l, nil
}

// NewLogger builds the process logger from LogLevel and LogFormat.
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := c.SlogLevel()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Catalog returns the catalog client settings.
func (c Config) Catalog() catalog.Config {
	return catalog.Config{
		BaseURL:     c.CatalogBaseURL,
		APIKey:      c.CatalogAPIKey,
		AccessToken: c.CatalogAccessToken,
		MaxResults:  c.CatalogMaxResults,
		Lang:        c.CatalogLang,
		RPS:         c.CatalogRPS,
		Timeout:     c.SearchTimeout,
	}
}
