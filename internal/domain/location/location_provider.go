package location

import (
	"context"
	"errors"

	"github.com/FACorreiaa/loci-local-assistant/internal/types"
)

// Permission is the outcome of a location permission request.
type Permission string

const (
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

// Accuracy is the requested fix precision.
type Accuracy int

const (
	AccuracyLow Accuracy = iota
	AccuracyBalanced
	AccuracyHigh
)

// Positioner provides device position fixes.
type Positioner interface {
	RequestPermission(ctx context.Context) (Permission, error)
	CurrentPosition(ctx context.Context, accuracy Accuracy) (types.Coordinates, error)
}

// Geocoder resolves coordinates to an address. A nil address with a nil
// error means nothing was found.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, c types.Coordinates) (*types.Address, error)
}

var _ Positioner = (*StaticPositioner)(nil)

// StaticPositioner reports a configured fix. Terminals have no GPS, so the
// CLI uses the coordinates from configuration.
type StaticPositioner struct {
	Permission Permission
	Fix        types.Coordinates
	Err        error
}

func (s *StaticPositioner) RequestPermission(ctx context.Context) (Permission, error) {
	if err := ctx.Err(); err != nil {
		return PermissionDenied, err
	}
	if s.Permission == "" {
		return PermissionGranted, nil
	}
	return s.Permission, nil
}

func (s *StaticPositioner) CurrentPosition(ctx context.Context, _ Accuracy) (types.Coordinates, error) {
	if err := ctx.Err(); err != nil {
		return types.Coordinates{}, err
	}
	if s.Err != nil {
		return types.Coordinates{}, s.Err
	}
	if !s.Fix.Valid() {
		return types.Coordinates{}, errors.New("configured position is not a valid coordinate")
	}
	return s.Fix, nil
}
