package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"FEED_HANDLE", "INSTAGRAM_BASE_URL", "UPSTREAM_TIMEOUT", "FEED_CACHE_CONTROL", "DIAGNOSTICS_TABLE", "DIAGNOSTICS_BUCKET", "DIAGNOSTICS_RETENTION_DAYS", "PORT", "DEBUG", "UPSTREAM_USER_AGENT"} {
		// restore on cleanup, then clear so the struct defaults apply
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := Load([]string{})
	require.NoError(t, err)
	require.NotNil(t, cfg)

	require.Equal(t, "cubsgulf", cfg.Handle)
	require.Equal(t, "https://www.instagram.com", cfg.BaseURL)
	require.Equal(t, 8*time.Second, cfg.UpstreamTimeout)
	require.Equal(t, "s-maxage=3600, stale-while-revalidate", cfg.CacheControl)
	require.Equal(t, 14, cfg.DiagnosticsRetentionDays)
	require.Equal(t, "8080", cfg.Port)
	require.False(t, cfg.DiagnosticsEnabled())
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("FEED_HANDLE", "otherhandle")
	t.Setenv("UPSTREAM_TIMEOUT", "5s")
	t.Setenv("DIAGNOSTICS_TABLE", "feed-runs")

	cfg, err := Load([]string{})
	require.NoError(t, err)

	require.Equal(t, "otherhandle", cfg.Handle)
	require.Equal(t, 5*time.Second, cfg.UpstreamTimeout)
	require.Equal(t, "feed-runs", cfg.DiagnosticsTable)
	require.True(t, cfg.DiagnosticsEnabled())
}

func TestLoad_FlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("FEED_HANDLE", "fromenv")

	cfg, err := Load([]string{"--handle", "fromflag", "--port", "9090"})
	require.NoError(t, err)
	require.Equal(t, "fromflag", cfg.Handle)
	require.Equal(t, "9090", cfg.Port)
}

func TestValidate(t *testing.T) {
	valid := Config{
		Handle:          "cubsgulf",
		BaseURL:         "https://www.instagram.com",
		UpstreamTimeout: time.Second,
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty handle", func(c *Config) { c.Handle = "" }},
		{"empty base url", func(c *Config) { c.BaseURL = "" }},
		{"zero timeout", func(c *Config) { c.UpstreamTimeout = 0 }},
		{"negative retention", func(c *Config) { c.DiagnosticsRetentionDays = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}
}
