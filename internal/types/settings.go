package types

// Settings are the app-wide toggles persisted under one key.
type Settings struct {
	UseMetricSystem      bool `json:"useMetricSystem"`
	ShowDistance         bool `json:"showDistance"`
	ShowRatings          bool `json:"showRatings"`
	ShowPrices           bool `json:"showPrices"`
	AutoDetectLocation   bool `json:"autoDetectLocation"`
	NotificationsEnabled bool `json:"notificationsEnabled"`
}

// DefaultSettings is used when nothing has been stored yet. Fields missing
// from a stored object keep these values.
func DefaultSettings() Settings {
	return Settings{
		UseMetricSystem:      true,
		ShowDistance:         true,
		ShowRatings:          true,
		ShowPrices:           true,
		AutoDetectLocation:   true,
		NotificationsEnabled: true,
	}
}

// Units returns the distance unit system name.
func (s Settings) Units() string {
	if s.UseMetricSystem {
		return "metric"
	}
	return "imperial"
}

// SettingKey names one toggle in Settings.
type SettingKey string

const (
	SettingUseMetricSystem      SettingKey = "useMetricSystem"
	SettingShowDistance         SettingKey = "showDistance"
	SettingShowRatings          SettingKey = "showRatings"
	SettingShowPrices           SettingKey = "showPrices"
	SettingAutoDetectLocation   SettingKey = "autoDetectLocation"
	SettingNotificationsEnabled SettingKey = "notificationsEnabled"
)

// SettingKeys lists every toggle in display order.
var SettingKeys = []SettingKey{
	SettingUseMetricSystem,
	SettingShowDistance,
	SettingShowRatings,
	SettingShowPrices,
	SettingAutoDetectLocation,
	SettingNotificationsEnabled,
}

// Toggle flips the named setting in place. It returns false for unknown keys.
func (s *Settings) Toggle(key SettingKey) bool {
	field := s.field(key)
	if field == nil {
		return false
	}
	*field = !*field
	return true
}

// Value returns the current value of the named setting.
func (s Settings) Value(key SettingKey) (bool, bool) {
	field := s.field(key)
	if field == nil {
		return false, false
	}
	return *field, true
}

func (s *Settings) field(key SettingKey) *bool {
	switch key {
	case SettingUseMetricSystem:
		return &s.UseMetricSystem
	case SettingShowDistance:
		return &s.ShowDistance
	case SettingShowRatings:
		return &s.ShowRatings
	case SettingShowPrices:
		return &s.ShowPrices
	case SettingAutoDetectLocation:
		return &s.AutoDetectLocation
	case SettingNotificationsEnabled:
		return &s.NotificationsEnabled
	}
	return nil
}

// Theme is the resolved colour scheme.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ThemePreference is the persisted theme choice.
type ThemePreference struct {
	IsDark   bool `json:"isDark"`
	IsSystem bool `json:"isSystem"`
}

// Theme resolves the preference to a Theme value.
func (p ThemePreference) Theme() Theme {
	if p.IsDark {
		return ThemeDark
	}
	return ThemeLight
}

// MaxRecentSearches caps the recent search list.
const MaxRecentSearches = 5
