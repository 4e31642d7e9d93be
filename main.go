package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/abdusco/shortly/internal/auth"
	"github.com/abdusco/shortly/internal/cache"
	"github.com/abdusco/shortly/internal/config"
	"github.com/abdusco/shortly/internal/db"
	"github.com/abdusco/shortly/internal/links"
	"github.com/abdusco/shortly/internal/logger"
	"github.com/abdusco/shortly/internal/ratelimit"
	"github.com/abdusco/shortly/internal/repo"
	"github.com/abdusco/shortly/internal/server"
	"github.com/getsentry/sentry-go"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

const sentryFlushTimeout = 2 * time.Second

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to parse configuration from environment")
	}

	if err := logger.Setup(cfg.LogLevel, cfg.Debug); err != nil {
		log.Fatal().Err(err).Str("level", cfg.LogLevel).Msg("failed to parse log level")
	}

	log.Info().
		Interface("config", cfg).
		Msg("current configuration")

	ctx := context.Background()
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("application error")
	}
}

func run(ctx context.Context, cfg config.Config) error {
	log.Info().
		Str("version", version).
		Str("build_time", buildTime).
		Msg("starting application")

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.SentryDSN, Release: version}); err != nil {
			return fmt.Errorf("failed to init sentry: %w", err)
		}
		defer sentry.Flush(sentryFlushTimeout)
	}

	dbInstance, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer dbInstance.Close()

	log.Info().Str("dialect", dbInstance.Dialect()).Msg("database ready")

	linksRepo := repo.NewLinksRepo(dbInstance)
	clicksRepo := repo.NewClicksRepo(dbInstance)
	usersRepo := repo.NewUsersRepo(dbInstance)

	recorder := links.NewRecorder(clicksRepo, cfg.ClickWorkers, cfg.ClickQueueSize)
	defer recorder.Close()

	var opts []links.Option
	var limiter ratelimit.Limiter
	if cfg.RedisURL != "" {
		redisClient, err := connectRedis(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer redisClient.Close()

		opts = append(opts, links.WithCache(cache.NewLinkCache(redisClient, cache.DefaultTTL)))
		limiter = ratelimit.NewRedis(redisClient, cfg.RateLimit.MaxRequests, cfg.RateLimit.Window)
		log.Info().Msg("using redis for link cache and rate limiting")
	} else {
		memory := ratelimit.NewMemory(cfg.RateLimit.MaxRequests, cfg.RateLimit.Window)
		go memory.RunSweeper(ctx, cfg.RateLimit.Window)
		limiter = memory
	}

	e := server.New(server.Deps{
		Links:     links.NewService(linksRepo, clicksRepo, recorder, opts...),
		Accounts:  auth.NewService(usersRepo, cfg.JWTSecret, cfg.TokenTTL),
		Limiter:   limiter,
		BaseURL:   cfg.BaseURL,
		ClientURL: cfg.ClientURL,
		Sentry:    cfg.SentryDSN != "",

		TrustedProxies: cfg.TrustedProxies,
	})
	defer e.Close()

	log.Info().Str("address", cfg.Address()).Msg("server starting")

	// Run server and handle graceful shutdown
	return runServer(ctx, e, cfg.Address())
}

func connectRedis(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse REDIS_URL: %w", err)
	}

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

func runServer(ctx context.Context, e *echo.Echo, address string) error {
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- e.Start(address)
	}()

	// Wait for context cancellation (Ctrl+C or SIGTERM)
	select {
	case <-ctx.Done():
	case err := <-serverErr:
		return fmt.Errorf("server failed to start: %w", err)
	}

	log.Info().Msg("shutdown signal received, gracefully shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during graceful shutdown")
	}

	if err := <-serverErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	log.Info().Msg("server stopped")
	return nil
}
