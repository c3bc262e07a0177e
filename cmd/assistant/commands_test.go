package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/loci-local-assistant/internal/domain/discover"
	"github.com/FACorreiaa/loci-local-assistant/internal/domain/favorites"
	"github.com/FACorreiaa/loci-local-assistant/internal/domain/location"
	"github.com/FACorreiaa/loci-local-assistant/internal/domain/preferences"
	"github.com/FACorreiaa/loci-local-assistant/internal/domain/recents"
	"github.com/FACorreiaa/loci-local-assistant/internal/domain/settings"
	"github.com/FACorreiaa/loci-local-assistant/internal/types"
	"github.com/FACorreiaa/loci-local-assistant/pkg/logger"
	"github.com/FACorreiaa/loci-local-assistant/pkg/observability"
)

type MockPlacesService struct {
	mock.Mock
}

func (m *MockPlacesService) Search(ctx context.Context, req types.SearchRequest) ([]types.Place, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Place), args.Error(1)
}

func (m *MockPlacesService) GetDetails(ctx context.Context, id string) (*types.Place, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Place), args.Error(1)
}

func (m *MockPlacesService) NearbyAttractions(ctx context.Context, center types.Coordinates) []types.NearbyAttraction {
	args := m.Called(ctx, center)
	return args.Get(0).([]types.NearbyAttraction)
}

type MockChatService struct {
	mock.Mock
}

func (m *MockChatService) Chat(ctx context.Context, message string, history []types.ChatTurn) (string, error) {
	args := m.Called(ctx, message, history)
	return args.String(0), args.Error(1)
}

func (m *MockChatService) GetTips(ctx context.Context, place string) ([]types.Tip, error) {
	args := m.Called(ctx, place)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Tip), args.Error(1)
}

func (m *MockChatService) InterpretQuery(ctx context.Context, query string) (*types.SearchIntent, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.SearchIntent), args.Error(1)
}

type fakeLocator struct {
	loc *types.Location
	err error
}

func (f *fakeLocator) Initialize(ctx context.Context) location.InitResult {
	if f.err != nil {
		return location.InitResult{Status: location.StatusPermissionDenied, Message: location.MessagePermissionDenied}
	}
	return location.InitResult{Status: location.StatusReady, Location: f.loc}
}

func (f *fakeLocator) GetCurrentLocation(context.Context) (*types.Location, error) {
	return f.loc, f.err
}

func (f *fakeLocator) Refresh(ctx context.Context) (*types.Location, error) {
	return f.GetCurrentLocation(ctx)
}

var (
	lisbon   = types.Coordinates{Latitude: 38.7223, Longitude: -9.1393}
	fallback = types.Coordinates{Latitude: 37.7749, Longitude: -122.4194}
)

type testApp struct {
	*app
	places *MockPlacesService
	chat   *MockChatService
	out    *bytes.Buffer
}

func newTestApp(t *testing.T, in string, loc *fakeLocator) *testApp {
	t.Helper()
	log := logger.Discard()
	repo := preferences.NewRepository(preferences.NewMemoryStore(), log, nil)
	places := new(MockPlacesService)
	chatSvc := new(MockChatService)
	out := &bytes.Buffer{}

	a := &app{
		places:     places,
		location:   loc,
		favorites:  favorites.NewService(repo, log),
		recents:    recents.NewService(repo, log),
		settings:   settings.NewService(repo, log),
		theme:      settings.NewThemeService(repo, log),
		chat:       chatSvc,
		fallback:   fallback,
		systemDark: func() bool { return true },
		logger:     log,
		in:         strings.NewReader(in),
		out:        out,
	}
	return &testApp{app: a, places: places, chat: chatSvc, out: out}
}

func located() *fakeLocator {
	return &fakeLocator{loc: &types.Location{
		Coordinates: lisbon,
		Address:     &types.Address{Street: "Rua Augusta", StreetNumber: "1", City: "Lisboa", Country: "Portugal"},
	}}
}

func cafe(id, name string, price int, rating float64) types.Place {
	return types.Place{
		ID:         id,
		Name:       name,
		Price:      price,
		Rating:     rating,
		Categories: []types.Category{{Name: "Coffee Shop", Icon: "cafe"}},
		Distance:   350,
	}
}

func TestParseSearchArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    searchOptions
		wantErr bool
	}{
		{
			name: "defaults",
			args: []string{"coffee", "shop"},
			want: searchOptions{query: "coffee shop", radius: types.DefaultSearchRadiusMeters, spec: discover.DefaultFilterSpec()},
		},
		{
			name: "all flags",
			args: []string{"--open-now", "--price", "2-3", "--category", "bakery", "--sort", "rating", "--radius", "800", "pastry"},
			want: searchOptions{query: "pastry", radius: 800, spec: discover.FilterSpec{
				PriceRange: discover.PriceRange{Min: 2, Max: 3},
				OpenNow:    true,
				Category:   "bakery",
				SortBy:     discover.SortRating,
			}},
		},
		{name: "missing query", args: []string{"--open-now"}, wantErr: true},
		{name: "bad price", args: []string{"--price", "9", "x"}, wantErr: true},
		{name: "bad sort", args: []string{"--sort", "name", "x"}, wantErr: true},
		{name: "bad radius", args: []string{"--radius", "0", "x"}, wantErr: true},
		{name: "unknown flag", args: []string{"--verbose", "x"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseSearchArgs(tt.args)
			if tt.wantErr {
				var uerr usageError
				assert.ErrorAs(t, err, &uerr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDispatchUnknownCommand(t *testing.T) {
	ta := newTestApp(t, "", located())
	var uerr usageError
	assert.ErrorAs(t, ta.dispatch(context.Background(), []string{"fly"}), &uerr)
	assert.ErrorAs(t, ta.dispatch(context.Background(), nil), &uerr)
}

func TestSearchCommand(t *testing.T) {
	ta := newTestApp(t, "", located())
	ta.places.On("Search", mock.Anything, types.SearchRequest{
		Center:       lisbon,
		Query:        "coffee",
		RadiusMeters: types.DefaultSearchRadiusMeters,
	}).Return([]types.Place{
		cafe("a", "Dear Breakfast", 2, 8.0),
		cafe("b", "Hello Kristof", 1, 9.2),
		cafe("c", "Copenhagen Coffee Lab", 3, 8.8),
	}, nil)

	err := ta.dispatch(context.Background(), []string{"search", "--price", "1-2", "--sort", "rating", "coffee"})
	require.NoError(t, err)

	out := ta.out.String()
	assert.Contains(t, out, "Hello Kristof")
	assert.Contains(t, out, "Dear Breakfast")
	assert.NotContains(t, out, "Copenhagen Coffee Lab")
	assert.Less(t, strings.Index(out, "Hello Kristof"), strings.Index(out, "Dear Breakfast"))
	assert.Contains(t, out, "350 m")

	assert.Equal(t, []string{"coffee"}, ta.recents.List(context.Background()))
}

func TestSearchUsesFallbackLocation(t *testing.T) {
	ta := newTestApp(t, "", &fakeLocator{err: types.ErrPermissionDenied})
	ta.places.On("Search", mock.Anything, mock.MatchedBy(func(req types.SearchRequest) bool {
		return req.Center == fallback
	})).Return([]types.Place{}, nil)

	require.NoError(t, ta.dispatch(context.Background(), []string{"search", "tacos"}))
	assert.Contains(t, ta.out.String(), "default location")
	assert.Contains(t, ta.out.String(), "No places found.")
}

func TestSearchFailure(t *testing.T) {
	ta := newTestApp(t, "", located())
	ta.places.On("Search", mock.Anything, mock.Anything).Return(nil, types.ErrSearchFailed)

	err := ta.dispatch(context.Background(), []string{"search", "tacos"})
	assert.ErrorIs(t, err, types.ErrSearchFailed)
	assert.Equal(t, "Failed to search places. Please try again.", userMessage(err))
}

func TestFavoritesToggle(t *testing.T) {
	ctx := context.Background()
	ta := newTestApp(t, "", located())
	place := cafe("a", "Dear Breakfast", 2, 8.0)
	ta.places.On("GetDetails", mock.Anything, "a").Return(&place, nil).Once()

	require.NoError(t, ta.dispatch(ctx, []string{"favorites", "toggle", "a"}))
	assert.Contains(t, ta.out.String(), "Added Dear Breakfast")
	assert.True(t, ta.favorites.IsFavorite(ctx, "a"))

	ta.out.Reset()
	require.NoError(t, ta.dispatch(ctx, []string{"favorites"}))
	assert.Contains(t, ta.out.String(), "Dear Breakfast")

	ta.out.Reset()
	require.NoError(t, ta.dispatch(ctx, []string{"favorites", "toggle", "a"}))
	assert.Contains(t, ta.out.String(), "Removed Dear Breakfast")
	assert.False(t, ta.favorites.IsFavorite(ctx, "a"))

	ta.places.AssertNumberOfCalls(t, "GetDetails", 1)
}

func TestSettingsAndTheme(t *testing.T) {
	ctx := context.Background()
	ta := newTestApp(t, "", located())

	require.NoError(t, ta.dispatch(ctx, []string{"settings", "toggle", "useMetricSystem"}))
	assert.Contains(t, ta.out.String(), "imperial")
	assert.False(t, ta.settings.Get(ctx).UseMetricSystem)

	err := ta.dispatch(ctx, []string{"settings", "toggle", "darkMode"})
	assert.ErrorIs(t, err, types.ErrBadRequest)

	ta.out.Reset()
	require.NoError(t, ta.dispatch(ctx, []string{"theme"}))
	assert.Contains(t, ta.out.String(), "Theme: dark")
	assert.Contains(t, ta.out.String(), "(system)")

	ta.out.Reset()
	require.NoError(t, ta.dispatch(ctx, []string{"theme", "toggle"}))
	assert.Contains(t, ta.out.String(), "Theme: light")
	assert.Contains(t, ta.out.String(), "(manual)")

	ta.out.Reset()
	require.NoError(t, ta.dispatch(ctx, []string{"theme", "system"}))
	assert.Contains(t, ta.out.String(), "Theme: dark")
}

func TestRecentCommand(t *testing.T) {
	ctx := context.Background()
	ta := newTestApp(t, "", located())
	_, err := ta.recents.Add(ctx, "pizza")
	require.NoError(t, err)

	require.NoError(t, ta.dispatch(ctx, []string{"recent"}))
	assert.Contains(t, ta.out.String(), "1. pizza")

	require.NoError(t, ta.dispatch(ctx, []string{"recent", "clear"}))
	assert.Empty(t, ta.recents.List(ctx))
}

func TestLocateCommand(t *testing.T) {
	ta := newTestApp(t, "", located())
	require.NoError(t, ta.dispatch(context.Background(), []string{"locate"}))
	assert.Contains(t, ta.out.String(), "Rua Augusta 1, Lisboa, Portugal")

	denied := newTestApp(t, "", &fakeLocator{err: types.ErrPermissionDenied})
	assert.ErrorIs(t, denied.dispatch(context.Background(), []string{"locate"}), errReported)
	assert.Contains(t, denied.out.String(), location.MessagePermissionDenied)
}

func TestTipsCommand(t *testing.T) {
	ta := newTestApp(t, "", located())
	ta.chat.On("GetTips", mock.Anything, "Lisbon").Return([]types.Tip{
		{Title: "Safety Tips", Icon: "shield-checkmark", Content: "Watch your bag on tram 28."},
	}, nil)
	require.NoError(t, ta.dispatch(context.Background(), []string{"tips", "Lisbon"}))
	assert.Contains(t, ta.out.String(), "Watch your bag on tram 28.")

	broken := newTestApp(t, "", located())
	broken.chat.On("GetTips", mock.Anything, "Porto").Return(nil, types.ErrInvalidAdviceFormat)
	assert.ErrorIs(t, broken.dispatch(context.Background(), []string{"tips", "Porto"}), errReported)
	assert.Contains(t, broken.out.String(), "Failed to load tourist information. Please try again.")
}

func TestChatREPL(t *testing.T) {
	ta := newTestApp(t, "\nWhere to eat?\nAnd after?\nexit\nignored\n", located())
	ta.chat.On("Chat", mock.Anything, "Where to eat?", mock.Anything).Return("Time Out Market.", nil)
	ta.chat.On("Chat", mock.Anything, "And after?", mock.Anything).Return("", types.ErrAdviceUnavailable)

	require.NoError(t, ta.dispatch(context.Background(), []string{"chat"}))
	out := ta.out.String()
	assert.Contains(t, out, "How can I help you plan your trip today?")
	assert.Contains(t, out, "Time Out Market.")
	assert.Contains(t, out, "I apologize, but I encountered an error. Please try again.")
	ta.chat.AssertNumberOfCalls(t, "Chat", 2)
}

func TestAskCommand(t *testing.T) {
	t.Run("interpreted", func(t *testing.T) {
		ta := newTestApp(t, "", located())
		ta.chat.On("InterpretQuery", mock.Anything, "somewhere quiet for coffee").
			Return(&types.SearchIntent{Type: "cafe", Keywords: []string{"quiet"}}, nil)
		ta.places.On("Search", mock.Anything, mock.MatchedBy(func(req types.SearchRequest) bool {
			return req.Query == "cafe quiet"
		})).Return([]types.Place{cafe("a", "Dear Breakfast", 2, 8)}, nil)

		require.NoError(t, ta.dispatch(context.Background(), []string{"ask", "somewhere", "quiet", "for", "coffee"}))
		assert.Contains(t, ta.out.String(), "Dear Breakfast")
	})

	t.Run("invalid format falls back to raw query", func(t *testing.T) {
		ta := newTestApp(t, "", located())
		ta.chat.On("InterpretQuery", mock.Anything, "cheap eats").Return(nil, types.ErrInvalidAdviceFormat)
		ta.places.On("Search", mock.Anything, mock.MatchedBy(func(req types.SearchRequest) bool {
			return req.Query == "cheap eats"
		})).Return([]types.Place{}, nil)

		require.NoError(t, ta.dispatch(context.Background(), []string{"ask", "cheap eats"}))
		assert.Contains(t, ta.out.String(), "Invalid response format from AI")
	})

	t.Run("no advisor", func(t *testing.T) {
		ta := newTestApp(t, "", located())
		ta.app.chat = nil
		assert.ErrorIs(t, ta.dispatch(context.Background(), []string{"ask", "x"}), errNoAdvisor)
	})
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		code      int
		wantError string
	}{
		{name: "ok", err: nil, code: 0},
		{name: "reported", err: errReported, code: 1},
		{name: "usage", err: usagef("search: a query is required"), code: 2, wantError: "usage: assistant"},
		{name: "cancelled", err: context.Canceled, code: 130},
		{name: "invalid advice", err: types.ErrInvalidAdviceFormat, code: 1, wantError: "Invalid response format from AI"},
		{name: "not found", err: errors.Join(types.ErrNotFound), code: 1, wantError: "Place not found."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stderr bytes.Buffer
			assert.Equal(t, tt.code, exitCode(tt.err, &stderr))
			if tt.wantError != "" {
				assert.Contains(t, stderr.String(), tt.wantError)
			} else if tt.code != 2 {
				assert.Empty(t, stderr.String())
			}
		})
	}
}

func TestDetailsCommand(t *testing.T) {
	t.Run("renders the fetched place", func(t *testing.T) {
		ta := newTestApp(t, "", located())
		ta.places.On("GetDetails", mock.Anything, "fsq-1").Return(&types.Place{
			ID:          "fsq-1",
			Name:        "Time Out Market",
			Address:     "Av. 24 de Julho 49",
			Coordinates: lisbon,
		}, nil).Once()

		require.NoError(t, ta.dispatch(context.Background(), []string{"details", "fsq-1"}))
		assert.Contains(t, ta.out.String(), "Time Out Market")
		ta.places.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		ta := newTestApp(t, "", located())
		ta.places.On("GetDetails", mock.Anything, "missing").Return(nil, types.ErrNotFound)

		err := ta.dispatch(context.Background(), []string{"details", "missing"})
		assert.ErrorIs(t, err, types.ErrNotFound)
	})

	t.Run("requires one id", func(t *testing.T) {
		ta := newTestApp(t, "", located())
		var uerr usageError
		assert.ErrorAs(t, ta.dispatch(context.Background(), []string{"details"}), &uerr)
	})
}

func TestUtilityMux(t *testing.T) {
	metrics := observability.NewMetrics()
	metrics.PreferenceWritten(preferences.KeyFavorites)
	deps := &Dependencies{Logger: logger.Discard(), Metrics: metrics}

	srv := httptest.NewServer(newUtilityMux(deps))
	defer srv.Close()

	for path, want := range map[string]string{
		"/health":  "ok",
		"/ready":   "ready",
		"/metrics": "assistant_preference_writes_total",
	} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.Contains(t, string(body), want, path)
	}
}

func TestRendererDistance(t *testing.T) {
	metric := NewRenderer(types.ThemeDark, types.DefaultSettings())
	assert.Equal(t, "350 m", metric.Distance(350))
	assert.Equal(t, "1.5 km", metric.Distance(1500))

	s := types.DefaultSettings()
	s.UseMetricSystem = false
	imperial := NewRenderer(types.ThemeLight, s)
	assert.Equal(t, "1.0 mi", imperial.Distance(1609))
	assert.Equal(t, "328 ft", imperial.Distance(100))
}
