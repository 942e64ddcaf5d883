package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	c, err := Parse("")
	require.NoError(t, err)

	assert.Equal(t, "denitracker", c.AppName)
	assert.Equal(t, "denitracker.db", c.LocalDBPath)
	assert.Equal(t, 5*time.Second, c.RemoteTimeout)
	assert.Equal(t, 3, c.RemoteBreakerThreshold)
	assert.Equal(t, "remote", c.TransactionWritePolicy)
	assert.True(t, c.SyncOnStart)
}

func TestParse_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("REMOTE_BASE_URL", "http://ledger.local/api")
	t.Setenv("REMOTE_TIMEOUT", "750ms")
	t.Setenv("SYNC_ON_START", "false")
	t.Setenv("TRANSACTION_WRITE_POLICY", "local")

	c, err := Parse("")
	require.NoError(t, err)

	assert.Equal(t, "http://ledger.local/api", c.RemoteBaseURL)
	assert.Equal(t, 750*time.Millisecond, c.RemoteTimeout)
	assert.False(t, c.SyncOnStart)
	assert.Equal(t, "local", c.TransactionWritePolicy)
}

func TestParse_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("LOCAL_DB_PATH=/tmp/shop.db\nCONNECTIVITY_PROBE_INTERVAL=2s\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("LOCAL_DB_PATH")
		os.Unsetenv("CONNECTIVITY_PROBE_INTERVAL")
	})

	c, err := Parse(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/shop.db", c.LocalDBPath)
	assert.Equal(t, 2*time.Second, c.ConnectivityProbeInterval)
}

func TestParse_MissingFile(t *testing.T) {
	_, err := Parse(filepath.Join(t.TempDir(), "nope.env"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load configuration file")
}
