package location

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/FACorreiaa/loci-local-assistant/internal/types"
)

// DefaultFixTimeout bounds a position fix.
const DefaultFixTimeout = 15 * time.Second

// User-facing messages for the init and refresh flows.
const (
	MessagePermissionDenied = "Permission to access location was denied. Please enable location services in your device settings."
	MessageUnavailable      = "Unable to get your location. Please check your device settings and try again."
	MessageRefreshFailed    = "Unable to refresh location. Please check your device settings and try again."
)

// Status is the outcome of Initialize.
type Status string

const (
	StatusReady            Status = "ready"
	StatusPermissionDenied Status = "permission_denied"
	StatusUnavailable      Status = "unavailable"
)

// InitResult is what a screen needs to render after start-up.
type InitResult struct {
	Status   Status
	Location *types.Location
	Message  string
}

type Service struct {
	positioner Positioner
	geocoder   Geocoder
	logger     *slog.Logger
	timeout    time.Duration
	now        func() time.Time
}

// NewService builds the provider. geocoder may be nil, in which case
// locations carry no address. timeout <= 0 uses DefaultFixTimeout.
func NewService(positioner Positioner, geocoder Geocoder, logger *slog.Logger, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = DefaultFixTimeout
	}
	return &Service{
		positioner: positioner,
		geocoder:   geocoder,
		logger:     logger,
		timeout:    timeout,
		now:        time.Now,
	}
}

// Initialize runs the first location acquisition and reports a status
// instead of an error.
func (s *Service) Initialize(ctx context.Context) InitResult {
	loc, err := s.GetCurrentLocation(ctx)
	switch {
	case err == nil:
		return InitResult{Status: StatusReady, Location: loc}
	case errors.Is(err, types.ErrPermissionDenied):
		return InitResult{Status: StatusPermissionDenied, Message: MessagePermissionDenied}
	default:
		return InitResult{Status: StatusUnavailable, Message: MessageUnavailable}
	}
}

// GetCurrentLocation asks for permission, takes a fix within the timeout and
// reverse-geocodes it. A failed reverse geocode leaves Address nil.
func (s *Service) GetCurrentLocation(ctx context.Context) (*types.Location, error) {
	ctx, span := otel.Tracer("LocationService").Start(ctx, "GetCurrentLocation")
	defer span.End()

	l := s.logger.With(slog.String("method", "GetCurrentLocation"))

	perm, err := s.positioner.RequestPermission(ctx)
	if err != nil || perm != PermissionGranted {
		l.WarnContext(ctx, "Location permission not granted", slog.String("permission", string(perm)), slog.Any("error", err))
		span.SetStatus(codes.Error, "permission denied")
		return nil, types.ErrPermissionDenied
	}

	fixCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	coords, err := s.fix(fixCtx)
	if err != nil {
		l.ErrorContext(ctx, "Error getting location", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "fix failed")
		return nil, fmt.Errorf("%w: %v", types.ErrLocationUnavailable, err)
	}

	loc := &types.Location{Coordinates: coords, AcquiredAt: s.now()}
	span.SetAttributes(
		attribute.Float64("location.latitude", coords.Latitude),
		attribute.Float64("location.longitude", coords.Longitude),
	)

	if s.geocoder != nil {
		addr, err := s.geocoder.ReverseGeocode(ctx, coords)
		if err != nil {
			l.WarnContext(ctx, "Reverse geocode failed", slog.Any("error", err))
		} else {
			loc.Address = addr
		}
	}

	span.SetStatus(codes.Ok, "")
	return loc, nil
}

// fix runs CurrentPosition but returns as soon as ctx ends, even when the
// positioner ignores cancellation.
func (s *Service) fix(ctx context.Context) (types.Coordinates, error) {
	type result struct {
		coords types.Coordinates
		err    error
	}
	ch := make(chan result, 1)
	go func() {
		c, err := s.positioner.CurrentPosition(ctx, AccuracyBalanced)
		ch <- result{coords: c, err: err}
	}()

	select {
	case r := <-ch:
		if r.err == nil && !r.coords.Valid() {
			return types.Coordinates{}, errors.New("position fix is not a valid coordinate")
		}
		return r.coords, r.err
	case <-ctx.Done():
		return types.Coordinates{}, ctx.Err()
	}
}

// Refresh repeats the whole acquisition sequence, permission included.
func (s *Service) Refresh(ctx context.Context) (*types.Location, error) {
	return s.GetCurrentLocation(ctx)
}
