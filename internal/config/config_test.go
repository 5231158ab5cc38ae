package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")

	c, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":8080", c.Addr())
	require.Equal(t, StoreMemory, c.Store)
	require.Equal(t, 30*time.Second, c.CloseInterval)
	require.Equal(t, 10*time.Second, c.BackendTimeout)
	require.False(t, c.SeedDemoData)
}

func TestLoad_MissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("PORT", "9090")
	t.Setenv("STORE", StorePostgres)
	t.Setenv("DATABASE_URL", "postgres://localhost/auctions")
	t.Setenv("CLOSE_INTERVAL", "0")

	c, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":9090", c.Addr())
	require.Equal(t, StorePostgres, c.Store)
	require.Zero(t, c.CloseInterval)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	base := Config{Store: StoreMemory, BackendTimeout: time.Second, JWTSecret: "s"}
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"memory_ok", func(c *Config) {}, false},
		{"postgres_without_dsn", func(c *Config) { c.Store = StorePostgres }, true},
		{"rest_without_key", func(c *Config) { c.Store = StoreRest; c.BackendURL = "http://x" }, true},
		{"rest_ok", func(c *Config) { c.Store = StoreRest; c.BackendURL = "http://x"; c.BackendAPIKey = "k" }, false},
		{"unknown_store", func(c *Config) { c.Store = "redis" }, true},
		{"negative_interval", func(c *Config) { c.CloseInterval = -time.Second }, true},
		{"zero_timeout", func(c *Config) { c.BackendTimeout = 0 }, true},
		{"empty_secret", func(c *Config) { c.JWTSecret = "" }, true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			c := base
			tc.mutate(&c)
			err := c.Validate()
			if tc.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
