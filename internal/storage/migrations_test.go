package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrate_ReachesExpectedVersion(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	var version int
	require.NoError(t, store.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version))
	assert.Equal(t, ExpectedSchemaVersion, version)

	// Running again is a no-op and does not duplicate seeded categories.
	require.NoError(t, store.Migrate(ctx))

	var count int
	require.NoError(t, store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM categories").Scan(&count))
	assert.Equal(t, len(defaultCategories), count)
}

func TestMigrate_CreatesTables(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	for _, table := range []string{"categories", "vendors", "vendor_aliases", "receipts", "expenses", "import_batches", "import_lines"} {
		t.Run(table, func(t *testing.T) {
			var n int
			err := store.db.QueryRow(
				`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, table,
			).Scan(&n)
			require.NoError(t, err)
			assert.Equal(t, 1, n)
		})
	}
}
