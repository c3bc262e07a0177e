package preferences

import "context"

// Storage keys. The values are JSON documents.
const (
	KeySettings       = "@app_settings"
	KeyTheme          = "@theme_preference"
	KeyFavorites      = "@favorites"
	KeyRecentSearches = "@recent_searches"
)

const tableName = "preferences"

// Store is a string key-value store. Set must replace the value in one
// statement so readers never observe a partial write.
type Store interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}
