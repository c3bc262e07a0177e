package settings

import (
	"context"
	"log/slog"
	"sync"

	"github.com/FACorreiaa/loci-local-assistant/internal/domain/preferences"
	"github.com/FACorreiaa/loci-local-assistant/internal/types"
)

// ThemeService holds the resolved theme for the lifetime of the process.
// Explicit toggles clear follow-system; system changes only apply while
// following.
type ThemeService struct {
	repo   *preferences.Repository
	logger *slog.Logger

	mu      sync.RWMutex
	current types.ThemePreference
}

func NewThemeService(repo *preferences.Repository, logger *slog.Logger) *ThemeService {
	return &ThemeService{
		repo:    repo,
		logger:  logger,
		current: defaultTheme(false),
	}
}

func defaultTheme(systemDark bool) types.ThemePreference {
	return types.ThemePreference{IsDark: systemDark, IsSystem: true}
}

// Load restores the stored preference. When following the system, the dark
// flag is taken from systemDark.
func (t *ThemeService) Load(ctx context.Context, systemDark bool) types.ThemePreference {
	pref := defaultTheme(systemDark)
	if !t.repo.Load(ctx, preferences.KeyTheme, &pref) {
		pref = defaultTheme(systemDark)
	}
	if pref.IsSystem {
		pref.IsDark = systemDark
	}

	t.mu.Lock()
	t.current = pref
	t.mu.Unlock()
	return pref
}

// Toggle flips light/dark and stops following the system.
func (t *ThemeService) Toggle(ctx context.Context) (types.ThemePreference, error) {
	t.mu.Lock()
	t.current = types.ThemePreference{IsDark: !t.current.IsDark, IsSystem: false}
	pref := t.current
	t.mu.Unlock()

	return pref, t.save(ctx, pref)
}

// UseSystem follows the system scheme from now on.
func (t *ThemeService) UseSystem(ctx context.Context, systemDark bool) (types.ThemePreference, error) {
	t.mu.Lock()
	t.current = defaultTheme(systemDark)
	pref := t.current
	t.mu.Unlock()

	return pref, t.save(ctx, pref)
}

// SystemChanged reports a new system scheme. It is not persisted.
func (t *ThemeService) SystemChanged(systemDark bool) types.ThemePreference {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current.IsSystem {
		t.current.IsDark = systemDark
	}
	return t.current
}

func (t *ThemeService) Current() types.ThemePreference {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.current
}

func (t *ThemeService) save(ctx context.Context, pref types.ThemePreference) error {
	if err := t.repo.Save(ctx, preferences.KeyTheme, pref); err != nil {
		t.logger.ErrorContext(ctx, "Error saving theme preference", slog.Any("error", err))
		return err
	}
	return nil
}
