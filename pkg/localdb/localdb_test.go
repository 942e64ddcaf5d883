package localdb

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(Config{Path: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, Migrate(db))
	return db
}

func TestMigrate(t *testing.T) {
	db := openTestDB(t)

	version, err := Version(db)
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)

	// running again is a no-op
	require.NoError(t, Migrate(db))

	for _, table := range []string{"customers", "items", "transactions", "transaction_items", "tombstones", "id_remaps"} {
		assert.True(t, db.Read(context.Background()).Migrator().HasTable(table), table)
	}
}

func TestWithinTransaction(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	t.Run("rollback on error", func(t *testing.T) {
		boom := errors.New("boom")
		err := db.WithinTransaction(ctx, func(ctx context.Context) error {
			require.NoError(t, db.Write(ctx).Exec("INSERT INTO customers (id, name) VALUES (1, 'Asha')").Error)
			return boom
		})
		assert.ErrorIs(t, err, boom)

		var n int64
		require.NoError(t, db.Read(ctx).Table("customers").Count(&n).Error)
		assert.Zero(t, n)
	})

	t.Run("nested calls share the outer transaction", func(t *testing.T) {
		err := db.WithinTransaction(ctx, func(ctx context.Context) error {
			outer := db.Write(ctx)
			return db.WithinTransaction(ctx, func(ctx context.Context) error {
				assert.Same(t, outer, db.Write(ctx))
				return db.Write(ctx).Exec("INSERT INTO customers (id, name) VALUES (2, 'Juma')").Error
			})
		})
		require.NoError(t, err)

		var n int64
		require.NoError(t, db.Read(ctx).Table("customers").Count(&n).Error)
		assert.Equal(t, int64(1), n)
	})
}
