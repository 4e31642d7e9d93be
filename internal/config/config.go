package config

import (
	"cmp"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const devJWTSecret = "dev-secret-change-me"

var ErrMissingJWTSecret = errors.New("JWT_SECRET is required unless DEBUG=1")

type Config struct {
	Host           string
	Port           string
	DatabaseURL    string
	JWTSecret      string `json:"-"`
	TokenTTL       time.Duration
	BaseURL        string
	ClientURL      string
	RedisURL       string `json:"-"`
	RateLimit      RateLimit
	ClickWorkers   int
	ClickQueueSize int
	// TrustedProxies are CIDRs whose X-Forwarded-For is believed. Empty means
	// the socket address is the client IP.
	TrustedProxies []*net.IPNet
	SentryDSN      string `json:"-"`
	LogLevel       string
	Debug          bool
}

type RateLimit struct {
	Window      time.Duration
	MaxRequests int
}

func (c Config) Address() string {
	return c.Host + ":" + c.Port
}

// FromEnv reads the process environment.
func FromEnv() (Config, error) {
	return Load(os.Getenv)
}

// Load builds a Config from the given lookup function.
func Load(getenv func(string) string) (Config, error) {
	cfg := Config{
		Host:        cmp.Or(getenv("HOST"), "localhost"),
		Port:        cmp.Or(getenv("PORT"), "4512"),
		DatabaseURL: cmp.Or(getenv("DATABASE_URL"), "shortly.db"),
		JWTSecret:   getenv("JWT_SECRET"),
		BaseURL:     strings.TrimRight(cmp.Or(getenv("BASE_URL"), "http://localhost:4512"), "/"),
		ClientURL:   cmp.Or(getenv("CLIENT_URL"), "*"),
		RedisURL:    getenv("REDIS_URL"),
		SentryDSN:   getenv("SENTRY_DSN"),
		LogLevel:    cmp.Or(getenv("LOG_LEVEL"), "info"),
		Debug:       getenv("DEBUG") == "1",
	}

	var err error
	if cfg.TokenTTL, err = parseDuration(getenv, "JWT_EXPIRES_IN", 7*24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.RateLimit.Window, err = parseDuration(getenv, "RATE_LIMIT_WINDOW", 15*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.RateLimit.MaxRequests, err = parsePositiveInt(getenv, "RATE_LIMIT_MAX_REQUESTS", 100); err != nil {
		return Config{}, err
	}
	if cfg.ClickWorkers, err = parsePositiveInt(getenv, "CLICK_WORKERS", 2); err != nil {
		return Config{}, err
	}
	if cfg.ClickQueueSize, err = parsePositiveInt(getenv, "CLICK_QUEUE_SIZE", 1024); err != nil {
		return Config{}, err
	}

	if cfg.TrustedProxies, err = parseCIDRs(getenv, "TRUSTED_PROXIES"); err != nil {
		return Config{}, err
	}

	if _, err := zerolog.ParseLevel(cfg.LogLevel); err != nil {
		return Config{}, fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.LogLevel, err)
	}

	if cfg.JWTSecret == "" {
		if !cfg.Debug {
			return Config{}, ErrMissingJWTSecret
		}
		cfg.JWTSecret = devJWTSecret
	}

	return cfg, nil
}

func parseDuration(getenv func(string) string, key string, fallback time.Duration) (time.Duration, error) {
	raw := getenv(key)
	if raw == "" {
		return fallback, nil
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be positive", key, raw)
	}
	return d, nil
}

// parseCIDRs reads a comma separated list; bare IPs become single-host ranges.
func parseCIDRs(getenv func(string) string, key string) ([]*net.IPNet, error) {
	var nets []*net.IPNet
	for _, part := range strings.Split(getenv(key), ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if !strings.Contains(part, "/") {
			ip := net.ParseIP(part)
			if ip == nil {
				return nil, fmt.Errorf("invalid %s entry %q", key, part)
			}
			bits := 32
			if ip.To4() == nil {
				bits = 128
			}
			part = fmt.Sprintf("%s/%d", part, bits)
		}

		_, ipNet, err := net.ParseCIDR(part)
		if err != nil {
			return nil, fmt.Errorf("invalid %s entry %q: %w", key, part, err)
		}
		nets = append(nets, ipNet)
	}
	return nets, nil
}

func parsePositiveInt(getenv func(string) string, key string, fallback int) (int, error) {
	raw := getenv(key)
	if raw == "" {
		return fallback, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be positive", key, raw)
	}
	return n, nil
}
