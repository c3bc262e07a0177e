package poi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/loci-local-assistant/internal/types"
)

// Nearby attraction lookup parameters.
const (
	nearbyRadiusMeters = 1000
	nearbyLimit        = 5
)

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	Search(ctx context.Context, req types.SearchRequest) ([]types.Place, error)
	GetDetails(ctx context.Context, id string) (*types.Place, error)
	NearbyAttractions(ctx context.Context, center types.Coordinates) []types.NearbyAttraction
}

type ServiceImpl struct {
	client PlacesClient
	logger *slog.Logger
	now    func() time.Time
}

func NewServiceImpl(client PlacesClient, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		client: client,
		logger: logger,
		now:    time.Now,
	}
}

// Search runs a provider search and derives the client-side fields. Provider
// order is preserved and places without valid coordinates are dropped.
func (s *ServiceImpl) Search(ctx context.Context, req types.SearchRequest) ([]types.Place, error) {
	ctx, span := otel.Tracer("PlacesService").Start(ctx, "Search", trace.WithAttributes(
		attribute.String("search.query", req.Query),
		attribute.Float64("search.latitude", req.Center.Latitude),
		attribute.Float64("search.longitude", req.Center.Longitude),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "Search"))

	if !req.Center.Valid() {
		span.SetStatus(codes.Error, "invalid centre")
		return nil, fmt.Errorf("%w: %w: invalid search centre", types.ErrSearchFailed, types.ErrBadRequest)
	}

	radius := req.RadiusMeters
	if radius <= 0 {
		radius = types.DefaultSearchRadiusMeters
	}
	limit := req.Limit
	if limit <= 0 {
		limit = types.DefaultSearchLimit
	}
	if limit > types.MaxSearchLimit {
		limit = types.MaxSearchLimit
	}
	sort := req.Sort
	if sort == "" {
		sort = types.SearchSortRating
	}

	raw, err := s.client.Search(ctx, SearchParams{
		Query:        req.Query,
		Center:       req.Center,
		RadiusMeters: radius,
		Limit:        limit,
		Sort:         sort,
		Fields:       searchFields,
	})
	if err != nil {
		l.ErrorContext(ctx, "Places search failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "search failed")
		return nil, fmt.Errorf("%w: %v", types.ErrSearchFailed, err)
	}

	now := s.now()
	places := make([]types.Place, 0, len(raw))
	dropped := 0
	for _, p := range raw {
		if !p.Coordinates.Valid() {
			dropped++
			continue
		}
		enrich(&p, &req.Center, now)
		places = append(places, p)
	}

	l.InfoContext(ctx, "Places search completed",
		slog.Int("results", len(places)),
		slog.Int("dropped", dropped))
	span.SetAttributes(attribute.Int("search.results", len(places)))
	span.SetStatus(codes.Ok, "")
	return places, nil
}

// GetDetails fetches one place with up to five nearby attractions. A failed
// attraction lookup still returns the place.
func (s *ServiceImpl) GetDetails(ctx context.Context, id string) (*types.Place, error) {
	ctx, span := otel.Tracer("PlacesService").Start(ctx, "GetDetails", trace.WithAttributes(
		attribute.String("place.id", id),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "GetDetails"), slog.String("place_id", id))

	if id == "" {
		return nil, fmt.Errorf("%w: place id is required", types.ErrBadRequest)
	}

	place, err := s.client.Details(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "details failed")
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			l.WarnContext(ctx, "Place not found")
			return nil, fmt.Errorf("%w: place %s", types.ErrNotFound, id)
		}
		l.ErrorContext(ctx, "Failed to fetch place details", slog.Any("error", err))
		return nil, fmt.Errorf("%w: %v", types.ErrDetailFetchFailed, err)
	}

	enrich(place, nil, s.now())
	place.NearbyAttractions = s.NearbyAttractions(ctx, place.Coordinates)

	span.SetAttributes(attribute.Int("place.nearby", len(place.NearbyAttractions)))
	span.SetStatus(codes.Ok, "")
	return place, nil
}

// NearbyAttractions lists the best-rated places within 1 km of center. Any
// failure yields an empty list.
func (s *ServiceImpl) NearbyAttractions(ctx context.Context, center types.Coordinates) []types.NearbyAttraction {
	out := []types.NearbyAttraction{}
	if !center.Valid() {
		return out
	}

	raw, err := s.client.Search(ctx, SearchParams{
		Center:       center,
		RadiusMeters: nearbyRadiusMeters,
		Limit:        nearbyLimit,
		Sort:         types.SearchSortRating,
		Fields:       nearbyFields,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "Error fetching nearby attractions", slog.Any("error", err))
		return out
	}

	for _, p := range raw {
		if len(out) == nearbyLimit {
			break
		}
		out = append(out, toAttraction(p))
	}
	return out
}
