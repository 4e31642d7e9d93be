package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func env(vals map[string]string) func(string) string {
	return func(key string) string { return vals[key] }
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(env(map[string]string{"JWT_SECRET": "s3cret"}))
	require.NoError(t, err)

	require.Equal(t, "localhost:4512", cfg.Address())
	require.Equal(t, "shortly.db", cfg.DatabaseURL)
	require.Equal(t, "http://localhost:4512", cfg.BaseURL)
	require.Equal(t, 7*24*time.Hour, cfg.TokenTTL)
	require.Equal(t, 15*time.Minute, cfg.RateLimit.Window)
	require.Equal(t, 100, cfg.RateLimit.MaxRequests)
	require.Equal(t, 2, cfg.ClickWorkers)
	require.Equal(t, 1024, cfg.ClickQueueSize)
	require.False(t, cfg.Debug)
	require.Empty(t, cfg.TrustedProxies)
}

func TestLoad_TrustedProxies(t *testing.T) {
	cfg, err := Load(env(map[string]string{
		"JWT_SECRET":      "s3cret",
		"TRUSTED_PROXIES": "10.0.0.0/8, 192.0.2.7,::1",
	}))
	require.NoError(t, err)
	require.Len(t, cfg.TrustedProxies, 3)
	require.Equal(t, "10.0.0.0/8", cfg.TrustedProxies[0].String())
	require.Equal(t, "192.0.2.7/32", cfg.TrustedProxies[1].String())
	require.Equal(t, "::1/128", cfg.TrustedProxies[2].String())
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := Load(env(map[string]string{
		"JWT_SECRET":              "s3cret",
		"PORT":                    "9000",
		"BASE_URL":                "https://sho.rt/",
		"JWT_EXPIRES_IN":          "1h",
		"RATE_LIMIT_WINDOW":       "30s",
		"RATE_LIMIT_MAX_REQUESTS": "5",
		"REDIS_URL":               "redis://localhost:6379/0",
	}))
	require.NoError(t, err)

	require.Equal(t, "9000", cfg.Port)
	require.Equal(t, "https://sho.rt", cfg.BaseURL)
	require.Equal(t, time.Hour, cfg.TokenTTL)
	require.Equal(t, 30*time.Second, cfg.RateLimit.Window)
	require.Equal(t, 5, cfg.RateLimit.MaxRequests)
	require.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
}

func TestLoad_MissingSecret(t *testing.T) {
	_, err := Load(env(nil))
	require.ErrorIs(t, err, ErrMissingJWTSecret)

	cfg, err := Load(env(map[string]string{"DEBUG": "1"}))
	require.NoError(t, err)
	require.Equal(t, devJWTSecret, cfg.JWTSecret)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		vals map[string]string
	}{
		{"bad/duration", map[string]string{"JWT_EXPIRES_IN": "week"}},
		{"bad/negative_window", map[string]string{"RATE_LIMIT_WINDOW": "-1m"}},
		{"bad/zero_cap", map[string]string{"RATE_LIMIT_MAX_REQUESTS": "0"}},
		{"bad/not_int", map[string]string{"CLICK_WORKERS": "two"}},
		{"bad/log_level", map[string]string{"LOG_LEVEL": "loud"}},
		{"bad/trusted_proxy", map[string]string{"TRUSTED_PROXIES": "10.0.0.0/8,proxy.local"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.vals["JWT_SECRET"] = "s3cret"
			_, err := Load(env(tc.vals))
			require.Error(t, err)
		})
	}
}
