package discover

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/FACorreiaa/loci-local-assistant/internal/domain/poi"
	"github.com/FACorreiaa/loci-local-assistant/internal/types"
)

// prefetchConcurrency bounds parallel detail fetches.
const prefetchConcurrency = 4

var (
	// ErrSuperseded is returned by a search whose results were discarded
	// because a newer search started.
	ErrSuperseded = errors.New("search superseded by a newer one")
	ErrClosed     = errors.New("discover session closed")
)

// Session holds the state of one search screen: the latest results and the
// details fetched for them. Starting a search cancels the one in flight, and
// responses from an older search never replace newer results.
type Session struct {
	places poi.Service
	logger *slog.Logger

	ctx  context.Context
	stop context.CancelFunc

	mu           sync.Mutex
	generation   uint64
	cancelSearch context.CancelFunc
	results      []types.Place
	details      map[string]*types.Place
	closed       bool
}

func NewSession(places poi.Service, logger *slog.Logger) *Session {
	ctx, stop := context.WithCancel(context.Background())
	return &Session{
		places:  places,
		logger:  logger,
		ctx:     ctx,
		stop:    stop,
		details: map[string]*types.Place{},
	}
}

// bind derives a context cancelled by either the caller or Close.
func (s *Session) bind(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	release := context.AfterFunc(s.ctx, cancel)
	return ctx, func() {
		release()
		cancel()
	}
}

// Search replaces the session results with a fresh provider search.
func (s *Session) Search(ctx context.Context, req types.SearchRequest) ([]types.Place, error) {
	ctx, span := otel.Tracer("DiscoverSession").Start(ctx, "Search", trace.WithAttributes(
		attribute.String("search.query", req.Query),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "Search"), slog.String("query", req.Query))

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	if s.cancelSearch != nil {
		s.cancelSearch()
	}
	s.generation++
	gen := s.generation
	searchCtx, cancel := s.bind(ctx)
	s.cancelSearch = cancel
	s.mu.Unlock()
	defer cancel()

	places, err := s.places.Search(searchCtx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		l.DebugContext(ctx, "Discarding superseded search response")
		span.SetStatus(codes.Error, "superseded")
		return nil, ErrSuperseded
	}
	s.cancelSearch = nil
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search failed")
		return nil, err
	}

	s.results = places
	s.details = map[string]*types.Place{}

	span.SetAttributes(attribute.Int("search.results", len(places)))
	span.SetStatus(codes.Ok, "")
	return places, nil
}

// Select fetches the details of one result and keeps them for filtering.
func (s *Session) Select(ctx context.Context, id string) (*types.Place, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	if p, ok := s.details[id]; ok {
		s.mu.Unlock()
		return p, nil
	}
	gen := s.generation
	s.mu.Unlock()

	ctx, cancel := s.bind(ctx)
	defer cancel()

	place, err := s.places.GetDetails(ctx, id)
	if err != nil {
		return nil, err
	}
	s.storeDetails(gen, place)
	return place, nil
}

func (s *Session) storeDetails(gen uint64, place *types.Place) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen == s.generation {
		s.details[place.ID] = place
	}
}

// PrefetchDetails fetches details for the first n results that lack them so
// the open-now filter has data to work with. Individual failures are logged
// and skipped. It returns how many details were fetched.
func (s *Session) PrefetchDetails(ctx context.Context, n int) (int, error) {
	ctx, span := otel.Tracer("DiscoverSession").Start(ctx, "PrefetchDetails", trace.WithAttributes(
		attribute.Int("prefetch.max", n),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "PrefetchDetails"))

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return 0, ErrClosed
	}
	gen := s.generation
	ids := make([]string, 0, n)
	for _, p := range s.results {
		if len(ids) == n {
			break
		}
		if _, ok := s.details[p.ID]; !ok {
			ids = append(ids, p.ID)
		}
	}
	s.mu.Unlock()

	ctx, cancel := s.bind(ctx)
	defer cancel()

	var (
		fetchedMu sync.Mutex
		fetched   int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(prefetchConcurrency)
	for _, id := range ids {
		g.Go(func() error {
			place, err := s.places.GetDetails(gctx, id)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				l.WarnContext(gctx, "Detail prefetch failed", slog.String("place_id", id), slog.Any("error", err))
				return nil
			}
			s.storeDetails(gen, place)
			fetchedMu.Lock()
			fetched++
			fetchedMu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "prefetch interrupted")
		return fetched, err
	}

	span.SetAttributes(attribute.Int("prefetch.fetched", fetched))
	span.SetStatus(codes.Ok, "")
	return fetched, nil
}

// Results returns the current results with fetched details merged in and
// spec applied.
func (s *Session) Results(spec FilterSpec) []types.Place {
	s.mu.Lock()
	merged := make([]types.Place, len(s.results))
	for i, p := range s.results {
		if d, ok := s.details[p.ID]; ok && d.Hours != nil {
			p.Hours = d.Hours
		}
		merged[i] = p
	}
	s.mu.Unlock()
	return ApplyFilters(merged, spec)
}

// Close cancels all in-flight work. Later calls fail with ErrClosed.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.generation++
	s.mu.Unlock()
	s.stop()
}
