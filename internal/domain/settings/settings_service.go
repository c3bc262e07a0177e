package settings

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/loci-local-assistant/internal/domain/preferences"
	"github.com/FACorreiaa/loci-local-assistant/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	Get(ctx context.Context) types.Settings
	Toggle(ctx context.Context, key types.SettingKey) (types.Settings, error)
	Reset(ctx context.Context) (types.Settings, error)
}

type ServiceImpl struct {
	repo   *preferences.Repository
	logger *slog.Logger
}

func NewService(repo *preferences.Repository, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		repo:   repo,
		logger: logger,
	}
}

// Get returns the stored settings merged over the defaults.
func (s *ServiceImpl) Get(ctx context.Context) types.Settings {
	settings := types.DefaultSettings()
	if !s.repo.Load(ctx, preferences.KeySettings, &settings) {
		return types.DefaultSettings()
	}
	return settings
}

// Toggle flips one setting and persists the whole record.
func (s *ServiceImpl) Toggle(ctx context.Context, key types.SettingKey) (types.Settings, error) {
	ctx, span := otel.Tracer("SettingsService").Start(ctx, "Toggle", trace.WithAttributes(
		attribute.String("settings.key", string(key)),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "Toggle"), slog.String("key", string(key)))

	updated, err := preferences.Mutate(ctx, s.repo, preferences.KeySettings, types.DefaultSettings, func(current *types.Settings) error {
		if !current.Toggle(key) {
			return fmt.Errorf("%w: unknown setting %q", types.ErrBadRequest, key)
		}
		return nil
	})
	if err != nil {
		l.ErrorContext(ctx, "Failed to toggle setting", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "toggle failed")
		return s.Get(ctx), err
	}

	value, _ := updated.Value(key)
	l.InfoContext(ctx, "Setting toggled", slog.Bool("value", value))
	span.SetStatus(codes.Ok, "")
	return updated, nil
}

// Reset removes the stored record so defaults apply again.
func (s *ServiceImpl) Reset(ctx context.Context) (types.Settings, error) {
	if err := s.repo.Delete(ctx, preferences.KeySettings); err != nil {
		return s.Get(ctx), fmt.Errorf("failed to reset settings: %w", err)
	}
	return types.DefaultSettings(), nil
}
