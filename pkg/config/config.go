package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage drivers understood by the preference store.
const (
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Config holds all application configuration loaded from the environment.
type Config struct {
	Foursquare    FoursquareConfig
	Gemini        GeminiConfig
	Storage       StorageConfig
	Database      DatabaseConfig
	Location      LocationConfig
	Observability ObservabilityConfig
}

type FoursquareConfig struct {
	APIKey             string
	BaseURL            string
	Version            string
	Timeout            time.Duration
	RateLimitPerSecond float64
	RateLimitBurst     int
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

type StorageConfig struct {
	Driver string
	Path   string // SQLite database file
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

type LocationConfig struct {
	Latitude    float64
	Longitude   float64
	Permission  string // granted | denied
	GeocoderURL string
	UserAgent   string
	Timeout     time.Duration
}

type ObservabilityConfig struct {
	MetricsEnabled bool
	MetricsAddr    string
	LogLevel       string
	LogFormat      string
}

// Load reads .env files when present and returns a populated Config.
func Load() (*Config, error) {
	// Missing files are fine; the process environment still applies.
	for _, f := range []string{".env", ".env.local"} {
		_ = godotenv.Load(f)
	}

	cfg := &Config{
		Foursquare: FoursquareConfig{
			APIKey:             getEnv("FOURSQUARE_API_KEY", ""),
			BaseURL:            getEnv("FOURSQUARE_API_URL", "https://api.foursquare.com/v3"),
			Version:            getEnv("FOURSQUARE_API_VERSION", "20240301"),
			Timeout:            getEnvDuration("FOURSQUARE_TIMEOUT", 10*time.Second),
			RateLimitPerSecond: getEnvFloat("FOURSQUARE_RATE_LIMIT", 5),
			RateLimitBurst:     getEnvInt("FOURSQUARE_RATE_BURST", 5),
		},
		Gemini: GeminiConfig{
			APIKey: getEnv("GEMINI_API_KEY", ""),
			Model:  getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		},
		Storage: StorageConfig{
			Driver: strings.ToLower(getEnv("ASSISTANT_STORAGE", StorageSQLite)),
			Path:   getEnv("ASSISTANT_DB_PATH", defaultDBPath()),
		},
		Database: DatabaseConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnv("POSTGRES_PORT", "5432"),
			User:     getEnv("POSTGRES_USER", "loci"),
			Password: getEnv("POSTGRES_PASSWORD", ""),
			Name:     getEnv("POSTGRES_DB", "loci"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		},
		Location: LocationConfig{
			Latitude:    getEnvFloat("ASSISTANT_LATITUDE", 37.7749),
			Longitude:   getEnvFloat("ASSISTANT_LONGITUDE", -122.4194),
			Permission:  strings.ToLower(getEnv("ASSISTANT_LOCATION_PERMISSION", "granted")),
			GeocoderURL: getEnv("GEOCODER_URL", "https://nominatim.openstreetmap.org"),
			UserAgent:   getEnv("GEOCODER_USER_AGENT", "loci-local-assistant/1.0"),
			Timeout:     getEnvDuration("LOCATION_TIMEOUT", 15*time.Second),
		},
		Observability: ObservabilityConfig{
			MetricsEnabled: getEnvBool("METRICS_ENABLED", false),
			MetricsAddr:    getEnv("METRICS_ADDR", "127.0.0.1:9464"),
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			LogFormat:      getEnv("LOG_FORMAT", "text"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case StorageSQLite, StoragePostgres, StorageMemory:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Storage.Driver == StorageSQLite && c.Storage.Path == "" {
		return fmt.Errorf("sqlite storage requires ASSISTANT_DB_PATH")
	}
	if c.Location.Timeout <= 0 {
		return fmt.Errorf("location timeout must be positive")
	}
	return nil
}

// Level maps the configured level name to a slog.Level.
func (o ObservabilityConfig) Level() slog.Level {
	switch strings.ToLower(o.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "assistant.db"
	}
	return filepath.Join(home, ".loci", "assistant.db")
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}
