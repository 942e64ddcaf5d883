package localstore

import (
	"path/filepath"
	"testing"

	"github.com/nimasrn/denitracker/pkg/localdb"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := localdb.Open(localdb.Config{Path: filepath.Join(t.TempDir(), "local.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, localdb.Migrate(db))
	return New(db)
}
