package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SYNC_INTERVAL", "")
	t.Setenv("BACKEND_URL", "")

	cfg := Load()
	assert.Equal(t, 20*time.Second, cfg.SyncInterval)
	assert.Equal(t, "http://localhost:8000/api", cfg.BackendURL)
	assert.Equal(t, "db", cfg.PreferenceBackend)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SYNC_INTERVAL", "5s")
	t.Setenv("BACKEND_URL", "https://reservations.example.com/api/")
	t.Setenv("ALLOWED_ORIGINS", "https://floor.example.com, http://localhost:3000")
	t.Setenv("REDIS_DB", "2")

	cfg := Load()
	assert.Equal(t, 5*time.Second, cfg.SyncInterval)
	assert.Equal(t, "https://reservations.example.com/api", cfg.BackendURL)
	assert.Equal(t, []string{"https://floor.example.com", "http://localhost:3000"}, cfg.AllowedOrigins)
	assert.Equal(t, 2, cfg.RedisDB)
}

func TestLoadIgnoresInvalidDuration(t *testing.T) {
	t.Setenv("SYNC_INTERVAL", "soon")
	assert.Equal(t, 20*time.Second, Load().SyncInterval)
}

func TestInitDBSqlite(t *testing.T) {
	db, err := InitDB(&Config{DBDriver: "sqlite", DBDSN: ":memory:"})
	require.NoError(t, err)
	assert.NotNil(t, db)

	_, err = InitDB(&Config{DBDriver: "oracle"})
	assert.Error(t, err)
}
