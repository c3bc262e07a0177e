package discover

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/loci-local-assistant/internal/types"
	"github.com/FACorreiaa/loci-local-assistant/pkg/logger"
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

func query(q string) any {
	return mock.MatchedBy(func(req types.SearchRequest) bool { return req.Query == q })
}

func TestSessionSupersededSearchDoesNotOverwrite(t *testing.T) {
	svc := new(MockPlacesService)
	started := make(chan struct{})
	var slowCtx context.Context

	svc.On("Search", mock.Anything, query("slow")).
		Run(func(args mock.Arguments) {
			slowCtx = args.Get(0).(context.Context)
			close(started)
			<-slowCtx.Done()
		}).
		Return([]types.Place{place("old", 1, 1, "Bar", nil)}, nil)
	svc.On("Search", mock.Anything, query("fast")).
		Return([]types.Place{place("new", 1, 1, "Bar", nil)}, nil)

	s := NewSession(svc, logger.Discard())
	defer s.Close()

	slowErr := make(chan error, 1)
	go func() {
		_, err := s.Search(context.Background(), types.SearchRequest{Query: "slow"})
		slowErr <- err
	}()
	<-started

	got, err := s.Search(context.Background(), types.SearchRequest{Query: "fast"})
	require.NoError(t, err)
	assert.Equal(t, []string{"new"}, ids(got))

	select {
	case err := <-slowErr:
		assert.ErrorIs(t, err, ErrSuperseded)
	case <-time.After(2 * time.Second):
		t.Fatal("superseded search was not cancelled")
	}
	assert.ErrorIs(t, slowCtx.Err(), context.Canceled)
	assert.Equal(t, []string{"new"}, ids(s.Results(DefaultFilterSpec())))
}

func TestSessionSearchFailureKeepsPreviousResults(t *testing.T) {
	svc := new(MockPlacesService)
	svc.On("Search", mock.Anything, query("ok")).Return([]types.Place{place("a", 2, 5, "Bar", nil)}, nil)
	svc.On("Search", mock.Anything, query("broken")).Return(nil, types.ErrSearchFailed)

	s := NewSession(svc, logger.Discard())
	defer s.Close()

	_, err := s.Search(context.Background(), types.SearchRequest{Query: "ok"})
	require.NoError(t, err)
	_, err = s.Search(context.Background(), types.SearchRequest{Query: "broken"})
	assert.ErrorIs(t, err, types.ErrSearchFailed)
	assert.Equal(t, []string{"a"}, ids(s.Results(DefaultFilterSpec())))
}

func TestSessionPrefetchEnablesOpenNow(t *testing.T) {
	svc := new(MockPlacesService)
	results := []types.Place{
		place("a", 1, 1, "Cafe", nil),
		place("b", 1, 1, "Cafe", nil),
		place("c", 1, 1, "Cafe", nil),
		place("d", 1, 1, "Cafe", nil),
		place("e", 1, 1, "Cafe", nil),
		place("f", 1, 1, "Cafe", nil),
	}
	svc.On("Search", mock.Anything, mock.Anything).Return(results, nil)

	var inFlight, peak atomic.Int32
	detail := func(id string, open bool) {
		svc.On("GetDetails", mock.Anything, id).
			Run(func(mock.Arguments) {
				n := inFlight.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				time.Sleep(10 * time.Millisecond)
				inFlight.Add(-1)
			}).
			Return(&types.Place{ID: id, Hours: &types.Hours{OpenNow: boolPtr(open)}}, nil)
	}
	detail("a", true)
	detail("b", false)
	detail("c", true)
	detail("d", true)
	svc.On("GetDetails", mock.Anything, "e").Return(nil, errors.New("boom"))

	s := NewSession(svc, logger.Discard())
	defer s.Close()

	_, err := s.Search(context.Background(), types.SearchRequest{Query: "coffee"})
	require.NoError(t, err)

	spec := DefaultFilterSpec()
	spec.OpenNow = true
	assert.Empty(t, s.Results(spec))

	fetched, err := s.PrefetchDetails(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, 4, fetched)
	assert.LessOrEqual(t, peak.Load(), int32(prefetchConcurrency))

	assert.Equal(t, []string{"a", "c", "d"}, ids(s.Results(spec)))
	svc.AssertNotCalled(t, "GetDetails", mock.Anything, "f")

	// cached details are not fetched again
	p, err := s.Select(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "a", p.ID)
	svc.AssertNumberOfCalls(t, "GetDetails", 5)
}

func TestSessionSelectMergesHours(t *testing.T) {
	svc := new(MockPlacesService)
	svc.On("Search", mock.Anything, mock.Anything).Return([]types.Place{place("a", 1, 1, "Cafe", nil)}, nil)
	svc.On("GetDetails", mock.Anything, "a").Return(&types.Place{ID: "a", Hours: &types.Hours{OpenNow: boolPtr(true)}}, nil)

	s := NewSession(svc, logger.Discard())
	defer s.Close()

	_, err := s.Search(context.Background(), types.SearchRequest{})
	require.NoError(t, err)
	_, err = s.Select(context.Background(), "a")
	require.NoError(t, err)

	spec := DefaultFilterSpec()
	spec.OpenNow = true
	got := s.Results(spec)
	require.Len(t, got, 1)
	open, known := got[0].IsOpenNow()
	assert.True(t, known)
	assert.True(t, open)
}

func TestSessionClose(t *testing.T) {
	svc := new(MockPlacesService)
	started := make(chan struct{})
	svc.On("Search", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			close(started)
			<-args.Get(0).(context.Context).Done()
		}).
		Return(nil, context.Canceled)

	s := NewSession(svc, logger.Discard())

	done := make(chan error, 1)
	go func() {
		_, err := s.Search(context.Background(), types.SearchRequest{})
		done <- err
	}()
	<-started
	s.Close()

	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("close did not cancel the search")
	}

	_, err := s.Search(context.Background(), types.SearchRequest{})
	assert.ErrorIs(t, err, ErrClosed)
	_, err = s.PrefetchDetails(context.Background(), 3)
	assert.ErrorIs(t, err, ErrClosed)
}
