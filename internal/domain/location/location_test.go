package location

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/loci-local-assistant/internal/types"
	"github.com/FACorreiaa/loci-local-assistant/pkg/logger"
)

type MockGeocoder struct {
	mock.Mock
}

func (m *MockGeocoder) ReverseGeocode(ctx context.Context, c types.Coordinates) (*types.Address, error) {
	args := m.Called(ctx, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Address), args.Error(1)
}

// slowPositioner blocks until released, ignoring ctx.
type slowPositioner struct {
	release chan struct{}
	calls   atomic.Int32
}

func (s *slowPositioner) RequestPermission(context.Context) (Permission, error) {
	return PermissionGranted, nil
}

func (s *slowPositioner) CurrentPosition(context.Context, Accuracy) (types.Coordinates, error) {
	s.calls.Add(1)
	<-s.release
	return types.Coordinates{Latitude: 1, Longitude: 1}, nil
}

var lisbon = types.Coordinates{Latitude: 38.7223, Longitude: -9.1393}

func TestGetCurrentLocation(t *testing.T) {
	ctx := context.Background()

	t.Run("permission denied", func(t *testing.T) {
		svc := NewService(&StaticPositioner{Permission: PermissionDenied, Fix: lisbon}, nil, logger.Discard(), 0)
		_, err := svc.GetCurrentLocation(ctx)
		assert.ErrorIs(t, err, types.ErrPermissionDenied)
	})

	t.Run("fix fails", func(t *testing.T) {
		svc := NewService(&StaticPositioner{Err: errors.New("no satellites")}, nil, logger.Discard(), 0)
		_, err := svc.GetCurrentLocation(ctx)
		assert.ErrorIs(t, err, types.ErrLocationUnavailable)
	})

	t.Run("invalid fix", func(t *testing.T) {
		svc := NewService(&StaticPositioner{Fix: types.Coordinates{Latitude: 120}}, nil, logger.Discard(), 0)
		_, err := svc.GetCurrentLocation(ctx)
		assert.ErrorIs(t, err, types.ErrLocationUnavailable)
	})

	t.Run("geocode failure keeps coordinates", func(t *testing.T) {
		geo := new(MockGeocoder)
		geo.On("ReverseGeocode", mock.Anything, lisbon).Return(nil, errors.New("offline"))

		svc := NewService(&StaticPositioner{Fix: lisbon}, geo, logger.Discard(), 0)
		loc, err := svc.GetCurrentLocation(ctx)
		require.NoError(t, err)
		assert.Equal(t, lisbon, loc.Coordinates)
		assert.Nil(t, loc.Address)
		geo.AssertExpectations(t)
	})

	t.Run("with address", func(t *testing.T) {
		geo := new(MockGeocoder)
		geo.On("ReverseGeocode", mock.Anything, lisbon).Return(&types.Address{City: "Lisboa", Country: "Portugal"}, nil)

		svc := NewService(&StaticPositioner{Fix: lisbon}, geo, logger.Discard(), 0)
		loc, err := svc.GetCurrentLocation(ctx)
		require.NoError(t, err)
		require.NotNil(t, loc.Address)
		assert.Equal(t, "Lisboa", loc.Address.City)
		assert.False(t, loc.AcquiredAt.IsZero())
	})
}

func TestFixTimeout(t *testing.T) {
	pos := &slowPositioner{release: make(chan struct{})}
	defer close(pos.release)

	svc := NewService(pos, nil, logger.Discard(), 30*time.Millisecond)

	start := time.Now()
	_, err := svc.GetCurrentLocation(context.Background())
	assert.ErrorIs(t, err, types.ErrLocationUnavailable)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestInitialize(t *testing.T) {
	ctx := context.Background()

	res := NewService(&StaticPositioner{Permission: PermissionDenied}, nil, logger.Discard(), 0).Initialize(ctx)
	assert.Equal(t, StatusPermissionDenied, res.Status)
	assert.Equal(t, MessagePermissionDenied, res.Message)
	assert.Nil(t, res.Location)

	res = NewService(&StaticPositioner{Err: errors.New("x")}, nil, logger.Discard(), 0).Initialize(ctx)
	assert.Equal(t, StatusUnavailable, res.Status)
	assert.Equal(t, MessageUnavailable, res.Message)

	res = NewService(&StaticPositioner{Fix: lisbon}, nil, logger.Discard(), 0).Initialize(ctx)
	assert.Equal(t, StatusReady, res.Status)
	require.NotNil(t, res.Location)
	assert.Equal(t, lisbon, res.Location.Coordinates)
}

func TestRefreshRunsFullSequence(t *testing.T) {
	pos := &StaticPositioner{Fix: lisbon}
	svc := NewService(pos, nil, logger.Discard(), 0)

	_, err := svc.Refresh(context.Background())
	require.NoError(t, err)

	pos.Permission = PermissionDenied
	_, err = svc.Refresh(context.Background())
	assert.ErrorIs(t, err, types.ErrPermissionDenied)
}

func TestNominatimGeocoder(t *testing.T) {
	var gotUA, gotPath, gotLat string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotPath = r.URL.Path
		gotLat = r.URL.Query().Get("lat")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"name": "Praça do Comércio",
			"address": {
				"house_number": "1",
				"road": "Rua Augusta",
				"suburb": "Baixa",
				"town": "Lisboa",
				"county": "Lisboa",
				"state": "Lisboa",
				"postcode": "1100-148",
				"country": "Portugal",
				"country_code": "pt"
			}
		}`))
	}))
	defer srv.Close()

	geo := NewNominatimGeocoder(srv.URL+"/", "loci-test/1.0", srv.Client())
	addr, err := geo.ReverseGeocode(context.Background(), lisbon)
	require.NoError(t, err)
	require.NotNil(t, addr)

	assert.Equal(t, "/reverse", gotPath)
	assert.Equal(t, "loci-test/1.0", gotUA)
	assert.Equal(t, "38.7223", gotLat)
	assert.Equal(t, "Lisboa", addr.City)
	assert.Equal(t, "PT", addr.ISOCountryCode)
	assert.Equal(t, "Baixa", addr.District)
	assert.Equal(t, "Rua Augusta 1, Lisboa, Portugal", addr.Short())
}

func TestNominatimGeocoderNoResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"Unable to geocode"}`))
	}))
	defer srv.Close()

	addr, err := NewNominatimGeocoder(srv.URL, "ua", nil).ReverseGeocode(context.Background(), lisbon)
	require.NoError(t, err)
	assert.Nil(t, addr)
}

func TestNominatimGeocoderStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewNominatimGeocoder(srv.URL, "ua", nil).ReverseGeocode(context.Background(), lisbon)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}
