package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewConfig_Defaults(t *testing.T) {
	// empty values fall back to defaults
	for _, key := range []string{"PORT", "HOST", "DATABASE_PATH", "STORAGE_ENGINE"} {
		t.Setenv(key, "")
	}

	cfg := NewConfig()

	assert.Equal(t, int32(8188), cfg.HTTP.Port)
	assert.Equal(t, "0.0.0.0", cfg.HTTP.Host)
	assert.Equal(t, DefaultDatabasePath, cfg.Database.Path)
	assert.Equal(t, StorageSQLite, cfg.Database.Engine)
	assert.Equal(t, DefaultBadgerDir, cfg.Database.BadgerDir)
	assert.False(t, cfg.Demo.Enabled)
	assert.True(t, cfg.Reconcile.Enabled)
	assert.Equal(t, "*/15 * * * *", cfg.Reconcile.Schedule)
	assert.Equal(t, "openlibrary", cfg.Search.Provider)
	assert.Equal(t, 10*time.Second, cfg.Search.Timeout)
	assert.Equal(t, 1.0, cfg.Search.RatePerSecond)
	assert.True(t, cfg.Tasks.Enabled)
	assert.Equal(t, 2, cfg.Tasks.Workers)
	assert.Equal(t, time.Second, cfg.Session.TickInterval)
}

func TestNewConfig_Environment(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("STORAGE_ENGINE", "badger")
	t.Setenv("BADGER_DIR", "/tmp/rt")
	t.Setenv("DEMO_MODE", "true")
	t.Setenv("RECONCILE_SCHEDULE", "0 * * * *")
	t.Setenv("SEARCH_PROVIDER", "googlebooks")
	t.Setenv("SEARCH_TIMEOUT", "3s")
	t.Setenv("TASK_WORKERS", "4")

	cfg := NewConfig()

	assert.Equal(t, int32(9000), cfg.HTTP.Port)
	assert.Equal(t, StorageBadger, cfg.Database.Engine)
	assert.Equal(t, "/tmp/rt", cfg.Database.BadgerDir)
	assert.True(t, cfg.Demo.Enabled)
	assert.Equal(t, "0 * * * *", cfg.Reconcile.Schedule)
	assert.Equal(t, "googlebooks", cfg.Search.Provider)
	assert.Equal(t, 3*time.Second, cfg.Search.Timeout)
	assert.Equal(t, 4, cfg.Tasks.Workers)
}
