package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRateLimits(t *testing.T) {
	limits, err := ParseRateLimits([]byte(`
[ips]
"10.0.0.1" = 50

[applications]
2 = 10
17 = 100
`))
	require.NoError(t, err)
	assert.Equal(t, 50, limits.IPs["10.0.0.1"])
	assert.Equal(t, 10, limits.Applications[2])
	assert.Equal(t, 100, limits.Applications[17])
}

func TestParseRateLimitsRejectsBadApplicationID(t *testing.T) {
	_, err := ParseRateLimits([]byte("[applications]\nabc = 1\n"))
	assert.Error(t, err)
}

func TestRateLimitStoreDefaults(t *testing.T) {
	store, err := NewRateLimitStore("", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, store.IPRate("1.2.3.4"))
	_, ok := store.ApplicationRate(2)
	assert.False(t, ok)
}

func TestRateLimitStoreReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ratelimits.toml")
	require.NoError(t, os.WriteFile(path, []byte("[ips]\n\"1.2.3.4\" = 7\n"), 0644))

	store, err := NewRateLimitStore(path, 3)
	require.NoError(t, err)
	assert.Equal(t, 7, store.IPRate("1.2.3.4"))
	assert.Equal(t, 3, store.IPRate("5.6.7.8"))

	require.NoError(t, os.WriteFile(path, []byte("[applications]\n2 = 1\n"), 0644))
	require.NoError(t, store.Reload())
	assert.Equal(t, 3, store.IPRate("1.2.3.4"))
	rate, ok := store.ApplicationRate(2)
	assert.True(t, ok)
	assert.Equal(t, 1, rate)
}

func TestFromEnv(t *testing.T) {
	t.Setenv("MAX_REQUESTS_PER_SECOND", "9")
	t.Setenv("INDEX_TIMEOUT_MS", "250")
	cfg := FromEnv()
	assert.Equal(t, 9, cfg.MaxRequestsPerSecond)
	assert.Equal(t, int64(250), cfg.IndexTimeout.Milliseconds())
	assert.Equal(t, FingerprintMaxAllowedLengthDiff, cfg.MaxDurationDiffAllowed)
}
