package preferences

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/loci-local-assistant/internal/types"
	"github.com/FACorreiaa/loci-local-assistant/pkg/observability"
)

// Repository stores typed values as JSON documents on top of a Store.
type Repository struct {
	store   Store
	logger  *slog.Logger
	metrics *observability.Metrics

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewRepository wraps store. metrics may be nil.
func NewRepository(store Store, logger *slog.Logger, metrics *observability.Metrics) *Repository {
	return &Repository{
		store:   store,
		logger:  logger,
		metrics: metrics,
		locks:   make(map[string]*sync.Mutex),
	}
}

// Load decodes the value at key into dst. It reports false when the key is
// absent, unreadable or holds invalid JSON, in which case dst must be ignored.
func (r *Repository) Load(ctx context.Context, key string, dst any) bool {
	ctx, span := otel.Tracer("PreferencesRepository").Start(ctx, "Load", trace.WithAttributes(
		attribute.String("preferences.key", key),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "Load"), slog.String("key", key))

	raw, found, err := r.store.Get(ctx, key)
	if err != nil {
		l.ErrorContext(ctx, "Failed to read preference", slog.Any("error", fmt.Errorf("%w: %v", types.ErrPersistenceRead, err)))
		span.RecordError(err)
		span.SetStatus(codes.Error, "read failed")
		return false
	}
	if !found {
		span.SetAttributes(attribute.Bool("preferences.found", false))
		return false
	}

	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		l.WarnContext(ctx, "Discarding corrupt preference", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "corrupt value")
		return false
	}

	span.SetAttributes(attribute.Bool("preferences.found", true))
	span.SetStatus(codes.Ok, "")
	return true
}

// Save encodes v and writes it at key.
func (r *Repository) Save(ctx context.Context, key string, v any) error {
	ctx, span := otel.Tracer("PreferencesRepository").Start(ctx, "Save", trace.WithAttributes(
		attribute.String("preferences.key", key),
	))
	defer span.End()

	raw, err := json.Marshal(v)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "encode failed")
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}

	if err := r.store.Set(ctx, key, string(raw)); err != nil {
		r.logger.ErrorContext(ctx, "Failed to write preference", slog.String("key", key), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "write failed")
		return err
	}

	r.metrics.PreferenceWritten(key)
	span.SetStatus(codes.Ok, "")
	return nil
}

// Delete removes key. It waits for any Mutate in flight on the same key.
func (r *Repository) Delete(ctx context.Context, key string) error {
	lock := r.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	if err := r.store.Remove(ctx, key); err != nil {
		r.logger.ErrorContext(ctx, "Failed to remove preference", slog.String("key", key), slog.Any("error", err))
		return err
	}
	r.metrics.PreferenceWritten(key)
	return nil
}

func (r *Repository) keyLock(key string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.locks[key]
	if !ok {
		m = &sync.Mutex{}
		r.locks[key] = m
	}
	return m
}

// Mutate loads the value at key over fallback(), applies fn and
// saves the result, holding the key's lock for the whole cycle. fn returning
// an error aborts without writing.
func Mutate[T any](ctx context.Context, r *Repository, key string, fallback func() T, fn func(*T) error) (T, error) {
	lock := r.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	// Decoding over fallback() keeps defaults for fields missing from the stored value.
	current := fallback()
	if !r.Load(ctx, key, &current) {
		current = fallback()
	}

	if err := fn(&current); err != nil {
		return current, err
	}

	if err := r.Save(ctx, key, current); err != nil {
		return current, err
	}
	return current, nil
}
