package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"golang.org/x/time/rate"

	"github.com/FACorreiaa/loci-local-assistant/internal/domain/chat"
	"github.com/FACorreiaa/loci-local-assistant/internal/domain/favorites"
	"github.com/FACorreiaa/loci-local-assistant/internal/domain/location"
	"github.com/FACorreiaa/loci-local-assistant/internal/domain/poi"
	"github.com/FACorreiaa/loci-local-assistant/internal/domain/preferences"
	"github.com/FACorreiaa/loci-local-assistant/internal/domain/recents"
	"github.com/FACorreiaa/loci-local-assistant/internal/domain/settings"
	"github.com/FACorreiaa/loci-local-assistant/internal/llm"
	"github.com/FACorreiaa/loci-local-assistant/internal/types"
	"github.com/FACorreiaa/loci-local-assistant/pkg/config"
	"github.com/FACorreiaa/loci-local-assistant/pkg/db"
	"github.com/FACorreiaa/loci-local-assistant/pkg/interceptors"
	"github.com/FACorreiaa/loci-local-assistant/pkg/observability"
)

const requestIDHeader = "X-Request-ID"

// Dependencies holds all application dependencies
type Dependencies struct {
	Config  *config.Config
	DB      *db.DB
	Logger  *slog.Logger
	Metrics *observability.Metrics

	sqlDB *sql.DB

	// Storage
	Store       preferences.Store
	Preferences *preferences.Repository

	// Services
	Places    poi.Service
	Location  *location.Service
	Favorites favorites.Service
	Recents   recents.Service
	Settings  settings.Service
	Theme     *settings.ThemeService
	Chat      chat.Service // nil when no Gemini key is configured
}

// InitDependencies initializes all application dependencies
func InitDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config:  cfg,
		Logger:  logger,
		Metrics: observability.NewMetrics(),
	}

	if err := deps.initStorage(); err != nil {
		deps.Cleanup()
		return nil, fmt.Errorf("failed to init storage: %w", err)
	}

	if err := deps.initServices(ctx); err != nil {
		deps.Cleanup()
		return nil, fmt.Errorf("failed to init services: %w", err)
	}

	logger.Debug("all dependencies initialized successfully")
	return deps, nil
}

// initStorage opens the configured preference store and runs migrations
func (d *Dependencies) initStorage() error {
	switch d.Config.Storage.Driver {
	case config.StoragePostgres:
		database, err := db.New(db.Config{
			DSN:             d.Config.Database.DSN(),
			MaxConns:        4,
			MinConns:        1,
			MaxConnLifetime: 5 * time.Minute,
			MaxConnIdleTime: 10 * time.Minute,
		}, d.Logger)
		if err != nil {
			return err
		}
		d.DB = database
		if err := d.DB.RunMigrations(); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		d.Store = preferences.NewPostgresStore(d.DB.Pool)

	case config.StorageMemory:
		d.Store = preferences.NewMemoryStore()

	default:
		sqlDB, err := db.OpenSQLite(d.Config.Storage.Path)
		if err != nil {
			return err
		}
		d.sqlDB = sqlDB
		if err := db.Migrate(sqlDB, db.DialectSQLite, d.Logger); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		d.Store = preferences.NewSQLiteStore(sqlDB)
	}

	d.Preferences = preferences.NewRepository(d.Store, d.Logger, d.Metrics)
	d.Logger.Debug("preference store ready", slog.String("driver", d.Config.Storage.Driver))
	return nil
}

// httpClient builds an outbound client for provider with the shared
// middleware stack. limiter may be nil.
func (d *Dependencies) httpClient(provider string, timeout time.Duration, limiter *rate.Limiter) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: interceptors.Chain(http.DefaultTransport,
			interceptors.NewRequestIDTransport(requestIDHeader),
			interceptors.NewTracingTransport(otel.Tracer("HTTPClient"), provider),
			interceptors.NewLoggingTransport(d.Logger, provider),
			interceptors.NewRateLimitTransport(limiter),
			interceptors.NewMetricsTransport(d.Metrics, provider),
		),
	}
}

// initServices initializes all service layer dependencies
func (d *Dependencies) initServices(ctx context.Context) error {
	fsq := d.Config.Foursquare
	var limiter *rate.Limiter
	if fsq.RateLimitPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(fsq.RateLimitPerSecond), max(fsq.RateLimitBurst, 1))
	}
	placesClient := poi.NewFoursquareClient(poi.ClientConfig{
		BaseURL: fsq.BaseURL,
		APIKey:  fsq.APIKey,
		Version: fsq.Version,
	}, d.httpClient("foursquare", fsq.Timeout, limiter))
	d.Places = poi.NewServiceImpl(placesClient, d.Logger)

	loc := d.Config.Location
	positioner := &location.StaticPositioner{
		Permission: location.Permission(loc.Permission),
		Fix:        types.Coordinates{Latitude: loc.Latitude, Longitude: loc.Longitude},
	}
	geocoder := location.NewNominatimGeocoder(loc.GeocoderURL, loc.UserAgent, d.httpClient("nominatim", loc.Timeout, rate.NewLimiter(rate.Every(time.Second), 1)))
	d.Location = location.NewService(positioner, geocoder, d.Logger, loc.Timeout)

	d.Favorites = favorites.NewService(d.Preferences, d.Logger)
	d.Recents = recents.NewService(d.Preferences, d.Logger)
	d.Settings = settings.NewService(d.Preferences, d.Logger)
	d.Theme = settings.NewThemeService(d.Preferences, d.Logger)

	if d.Config.Gemini.APIKey != "" {
		client, err := llm.NewGeminiChatClient(ctx, llm.Options{
			APIKey:     d.Config.Gemini.APIKey,
			Model:      d.Config.Gemini.Model,
			HTTPClient: d.httpClient("gemini", 60*time.Second, nil),
		})
		if err != nil {
			return err
		}
		d.Chat = chat.NewServiceImpl(client, d.Logger)
	} else {
		d.Logger.Debug("GEMINI_API_KEY not set, AI features disabled")
	}

	d.Logger.Debug("services initialized")
	return nil
}

// Health reports whether the preference store is reachable.
func (d *Dependencies) Health(ctx context.Context) error {
	switch {
	case d.DB != nil:
		return d.DB.Health(ctx)
	case d.sqlDB != nil:
		return d.sqlDB.PingContext(ctx)
	}
	return nil
}

// Cleanup closes all resources
func (d *Dependencies) Cleanup() {
	if d.DB != nil {
		d.DB.Close()
	}
	if d.sqlDB != nil {
		d.sqlDB.Close()
	}
	d.Logger.Debug("cleanup completed")
}
