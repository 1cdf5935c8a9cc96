package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadopc/timeclock/internal/store"
)

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)

	assert.Equal(t, "en-US", c.Locale)
	assert.Equal(t, 15*time.Second, c.Connectivity.Interval.Duration)
	assert.Equal(t, 3*time.Second, c.Connectivity.Timeout.Duration)
	assert.Equal(t, "v2", c.Cache.Version)
	assert.Equal(t, "timeclock.db", filepath.Base(c.Database))
	assert.Empty(t, c.Cache.Manifest)
}

func TestDefaultDatabaseMatchesStore(t *testing.T) {
	want, err := store.DefaultDBPath()
	require.NoError(t, err)
	assert.Equal(t, want, DefaultConfig().Database)
}

func TestLoadPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
database = "/tmp/tc.db"
locale = "de-DE"

[connectivity]
interval = "1m"

[cache]
version = "v7"
manifest = ["/", "/app.js"]
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/tc.db", c.Database)
	assert.Equal(t, "de-DE", c.Locale)
	assert.Equal(t, time.Minute, c.Connectivity.Interval.Duration)
	assert.Equal(t, 3*time.Second, c.Connectivity.Timeout.Duration)
	assert.Equal(t, "v7", c.Cache.Version)
	assert.Equal(t, []string{"/", "/app.js"}, c.Cache.Manifest)
	assert.NotEmpty(t, c.Cache.Upstream)
}

func TestLoadBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[connectivity]\ninterval = \"soon\"\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	c := DefaultConfig()
	c.Cache.Version = "v9"
	c.Connectivity.Interval.Duration = 42 * time.Second
	require.NoError(t, c.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "v9", loaded.Cache.Version)
	assert.Equal(t, 42*time.Second, loaded.Connectivity.Interval.Duration)
}
