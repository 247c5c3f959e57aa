package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("POINT_MIN_CHARGE", "")
	t.Setenv("POINT_MAX_BALANCE", "")
	t.Setenv("STORE_DRIVER", "")

	cfg := Load()

	assert.Equal(t, StoreMemory, cfg.StoreDriver)
	assert.Equal(t, int64(100), cfg.MinCharge)
	assert.Equal(t, int64(100_000), cfg.MaxBalance)
	require.NoError(t, cfg.Validate())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("POINT_MIN_CHARGE", "1")
	t.Setenv("POINT_MAX_BALANCE", "0")
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("MEMORY_STORE_LATENCY", "5ms")
	t.Setenv("AUTH_REQUIRED", "true")
	t.Setenv("RATE_RPS", "2.5")

	cfg := Load()

	assert.Equal(t, int64(1), cfg.MinCharge)
	assert.Equal(t, int64(0), cfg.MaxBalance)
	assert.Equal(t, StorePostgres, cfg.StoreDriver)
	assert.Equal(t, 5*time.Millisecond, cfg.MemoryStoreLatency)
	assert.True(t, cfg.AuthRequired)
	assert.Equal(t, 2.5, cfg.RateRPS)
}

func TestLoad_MalformedFallsBack(t *testing.T) {
	t.Setenv("POINT_MIN_CHARGE", "lots")
	t.Setenv("JWT_ACCESS_TTL", "soon")

	cfg := Load()

	assert.Equal(t, int64(100), cfg.MinCharge)
	assert.Equal(t, 15*time.Minute, cfg.JWTAccessTTL)
}

func TestValidate(t *testing.T) {
	base := Config{StoreDriver: StoreMemory, EventSink: SinkNone, MinCharge: 100, MaxBalance: 100_000}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "ceiling disabled", mutate: func(c *Config) { c.MaxBalance = 0 }},
		{name: "unknown store", mutate: func(c *Config) { c.StoreDriver = "mongo" }, wantErr: "STORE_DRIVER"},
		{name: "unknown sink", mutate: func(c *Config) { c.EventSink = "kafka" }, wantErr: "EVENT_SINK"},
		{name: "negative floor", mutate: func(c *Config) { c.MinCharge = -1 }, wantErr: "POINT_MIN_CHARGE"},
		{name: "floor above ceiling", mutate: func(c *Config) { c.MinCharge = 200_000 }, wantErr: "exceeds"},
		{
			name: "default secrets in prod",
			mutate: func(c *Config) {
				c.Env = "prod"
				c.AuthRequired = true
				c.JWTAccessSecret = "changeme-access"
			},
			wantErr: "JWT secrets",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
