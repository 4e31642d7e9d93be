package ratelimit

import (
	"net/http"

	"github.com/abdusco/shortly/internal/logger"
	"github.com/labstack/echo/v4"
)

// Middleware rejects requests over the limit with 429. Limiter errors let the
// request through.
func Middleware(limiter Limiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.RealIP()

			allowed, err := limiter.Allow(c.Request().Context(), key)
			if err != nil {
				log := logger.With("ip", key)
				log.Warn().Err(err).Msg("rate limiter unavailable, allowing request")
				return next(c)
			}
			if !allowed {
				return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
			}

			return next(c)
		}
	}
}
