package favorites

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

// Service manages saved places. Entries are full Place snapshots, unique by ID,
// in the order they were added.
type Service interface {
	List(ctx context.Context) []types.Place
	IsFavorite(ctx context.Context, placeID string) bool
	Toggle(ctx context.Context, place types.Place) (bool, error)
	Remove(ctx context.Context, placeID string) error
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

func empty() []types.Place { return []types.Place{} }

func (s *ServiceImpl) List(ctx context.Context) []types.Place {
	var places []types.Place
	if !s.repo.Load(ctx, preferences.KeyFavorites, &places) || places == nil {
		return empty()
	}
	return places
}

func (s *ServiceImpl) IsFavorite(ctx context.Context, placeID string) bool {
	for _, p := range s.List(ctx) {
		if p.ID == placeID {
			return true
		}
	}
	return false
}

// Toggle adds place when absent and removes it otherwise. It reports whether
// the place is a favorite afterwards.
func (s *ServiceImpl) Toggle(ctx context.Context, place types.Place) (bool, error) {
	ctx, span := otel.Tracer("FavoritesService").Start(ctx, "Toggle", trace.WithAttributes(
		attribute.String("place.id", place.ID),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "Toggle"), slog.String("place_id", place.ID))

	if place.ID == "" {
		return false, fmt.Errorf("%w: place id is required", types.ErrBadRequest)
	}

	var added bool
	_, err := preferences.Mutate(ctx, s.repo, preferences.KeyFavorites, empty, func(current *[]types.Place) error {
		next, removed := without(*current, place.ID)
		if !removed {
			next = append(next, place)
			added = true
		}
		*current = next
		return nil
	})
	if err != nil {
		l.ErrorContext(ctx, "Failed to toggle favorite", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "toggle failed")
		return s.IsFavorite(ctx, place.ID), fmt.Errorf("failed to toggle favorite: %w", err)
	}

	l.InfoContext(ctx, "Favorite toggled", slog.Bool("added", added))
	span.SetAttributes(attribute.Bool("favorite.added", added))
	span.SetStatus(codes.Ok, "")
	return added, nil
}

// Remove deletes placeID if present.
func (s *ServiceImpl) Remove(ctx context.Context, placeID string) error {
	_, err := preferences.Mutate(ctx, s.repo, preferences.KeyFavorites, empty, func(current *[]types.Place) error {
		*current, _ = without(*current, placeID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to remove favorite: %w", err)
	}
	return nil
}

func without(places []types.Place, id string) ([]types.Place, bool) {
	out := make([]types.Place, 0, len(places))
	removed := false
	for _, p := range places {
		if p.ID == id {
			removed = true
			continue
		}
		out = append(out, p)
	}
	return out, removed
}
