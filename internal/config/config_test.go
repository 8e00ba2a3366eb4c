package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_ENV", "missing")
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 4000, cfg.Port)
	assert.Equal(t, ":4000", cfg.Addr())
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Origins())
	assert.False(t, cfg.AllowAnyOrigin())
	assert.Equal(t, 25*time.Second, cfg.PingPeriod)
	assert.Equal(t, 60*time.Second, cfg.PongWait)
	assert.Equal(t, "drop", cfg.Backpressure)
	assert.False(t, cfg.EnforceMembership)
	assert.Empty(t, cfg.RedisAddr)
	assert.Equal(t, "whiteboard", cfg.RedisChannel)
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("CONFIG_ENV", "missing")
	t.Setenv("PORT", "5001")
	t.Setenv("CORS_ORIGIN", " https://a.example , https://b.example,")
	t.Setenv("ENFORCE_MEMBERSHIP", "true")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5001, cfg.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Origins())
	assert.True(t, cfg.EnforceMembership)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
}

func TestAnyOrigin(t *testing.T) {
	cfg := &Config{CORSOrigin: "*"}
	assert.True(t, cfg.AllowAnyOrigin())
}

func TestLoadRejectsPingAfterPong(t *testing.T) {
	t.Setenv("CONFIG_ENV", "missing")
	t.Setenv("PING_PERIOD", "90s")
	_, err := Load()
	assert.Error(t, err)
}
