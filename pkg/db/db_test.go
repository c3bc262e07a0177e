package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/loci-local-assistant/pkg/logger"
)

func TestOpenSQLiteAndMigrate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "assistant.db")

	sqlDB, err := OpenSQLite(path)
	require.NoError(t, err)
	defer sqlDB.Close()

	require.NoError(t, Migrate(sqlDB, DialectSQLite, logger.Discard()))

	_, err = sqlDB.Exec(`INSERT INTO preferences (key, value) VALUES ('k', 'v')`)
	require.NoError(t, err)

	var value string
	require.NoError(t, sqlDB.QueryRow(`SELECT value FROM preferences WHERE key = 'k'`).Scan(&value))
	assert.Equal(t, "v", value)

	// Second run is a no-op.
	require.NoError(t, Migrate(sqlDB, DialectSQLite, logger.Discard()))
}

func TestMigrateUnknownDialect(t *testing.T) {
	sqlDB, err := OpenSQLite(filepath.Join(t.TempDir(), "a.db"))
	require.NoError(t, err)
	defer sqlDB.Close()

	err = Migrate(sqlDB, "mysql", logger.Discard())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mysql")
}
