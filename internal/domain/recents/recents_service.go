package recents

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/loci-local-assistant/internal/domain/preferences"
	"github.com/FACorreiaa/loci-local-assistant/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

// Service keeps the most recent search terms, newest first.
type Service interface {
	Add(ctx context.Context, term string) ([]string, error)
	List(ctx context.Context) []string
	Clear(ctx context.Context) error
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

func empty() []string { return []string{} }

// Add moves term to the front, dropping duplicates and the oldest entries
// beyond types.MaxRecentSearches. Blank terms are ignored.
func (s *ServiceImpl) Add(ctx context.Context, term string) ([]string, error) {
	ctx, span := otel.Tracer("RecentsService").Start(ctx, "Add", trace.WithAttributes(
		attribute.Int("term.length", len(term)),
	))
	defer span.End()

	term = strings.TrimSpace(term)
	if term == "" {
		return s.List(ctx), nil
	}

	recent, err := preferences.Mutate(ctx, s.repo, preferences.KeyRecentSearches, empty, func(current *[]string) error {
		*current = pushFront(*current, term, types.MaxRecentSearches)
		return nil
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to save recent search", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "save failed")
		return s.List(ctx), fmt.Errorf("failed to save recent search: %w", err)
	}

	span.SetAttributes(attribute.Int("recents.count", len(recent)))
	span.SetStatus(codes.Ok, "")
	return recent, nil
}

func (s *ServiceImpl) List(ctx context.Context) []string {
	var recent []string
	if !s.repo.Load(ctx, preferences.KeyRecentSearches, &recent) || recent == nil {
		return empty()
	}
	return recent
}

// Clear removes the stored list.
func (s *ServiceImpl) Clear(ctx context.Context) error {
	if err := s.repo.Delete(ctx, preferences.KeyRecentSearches); err != nil {
		return fmt.Errorf("failed to clear recent searches: %w", err)
	}
	return nil
}

func pushFront(list []string, term string, limit int) []string {
	out := make([]string, 0, limit)
	out = append(out, term)
	for _, t := range list {
		if len(out) == limit {
			break
		}
		if t == term {
			continue
		}
		out = append(out, t)
	}
	return out
}
