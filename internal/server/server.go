// Package server assembles the HTTP surface of the shortener.
package server

import (
	"net"
	"net/http"
	"time"

	"github.com/abdusco/shortly/internal/auth"
	"github.com/abdusco/shortly/internal/handler"
	"github.com/abdusco/shortly/internal/links"
	"github.com/abdusco/shortly/internal/logger"
	"github.com/abdusco/shortly/internal/ratelimit"
	"github.com/getsentry/sentry-go"
	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"
)

type Deps struct {
	Links    *links.Service
	Accounts *auth.Service
	Limiter  ratelimit.Limiter
	BaseURL  string
	// ClientURL is the CORS allowed origin, "*" for any.
	ClientURL string
	// Sentry installs the sentry-go echo middleware. sentry.Init must have run.
	Sentry bool
	// TrustedProxies may set X-Forwarded-For; without any the socket
	// address is the client IP.
	TrustedProxies []*net.IPNet
}

func New(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = customErrorHandler
	e.Validator = handler.NewValidator()
	e.IPExtractor = ipExtractor(deps.TrustedProxies)

	e.Use(middleware.RequestID())
	e.Use(logger.RequestLogger())
	e.Use(middleware.Recover())
	if deps.Sentry {
		e.Use(sentryecho.New(sentryecho.Options{Repanic: true, Timeout: 2 * time.Second}))
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{deps.ClientURL},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(middleware.BodyLimit("64K"))

	requireUser := auth.RequireUser(deps.Accounts)
	optionalUser := auth.OptionalUser(deps.Accounts)

	authHandler := handler.NewAuthHandler(deps.Accounts)
	linkHandler := handler.NewLinkHandler(deps.Links, deps.BaseURL)
	qrHandler := handler.NewQRHandler(deps.Links, deps.BaseURL)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	api := e.Group("/api")
	if deps.Limiter != nil {
		api.Use(ratelimit.Middleware(deps.Limiter))
	}

	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)
	api.GET("/auth/profile", authHandler.Profile, requireUser)

	user := api.Group("/user", requireUser)
	user.GET("/stats", linkHandler.UserStats)
	user.PUT("/profile", authHandler.UpdateProfile)
	user.PUT("/password", authHandler.ChangePassword)

	api.POST("/links", linkHandler.CreateLink, optionalUser)
	api.GET("/links/user", linkHandler.ListUserLinks, requireUser)
	api.GET("/links/:id/details", linkHandler.Details, optionalUser)
	api.GET("/links/:id/statistics", linkHandler.Statistics, optionalUser)
	api.DELETE("/links/:id", linkHandler.DeleteLink, requireUser)

	api.GET("/qr/:id", qrHandler.QRCode)

	// Parameterized route (must be last)
	e.GET("/:code", linkHandler.Redirect)

	return e
}

// ipExtractor decides what c.RealIP returns for rate limiting and click
// records. Forwarding headers are only honored from trusted proxies.
func ipExtractor(trusted []*net.IPNet) echo.IPExtractor {
	if len(trusted) == 0 {
		return echo.ExtractIPDirect()
	}

	opts := []echo.TrustOption{
		echo.TrustLoopback(false),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(false),
	}
	for _, ipNet := range trusted {
		opts = append(opts, echo.TrustIPRange(ipNet))
	}
	return echo.ExtractIPFromXFFHeader(opts...)
}

// customErrorHandler may run twice per request since the request logger
// handles errors itself; only the first call writes.
func customErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code, body := handler.ErrorResponse(err)

	event := log.Warn()
	if code >= http.StatusInternalServerError {
		event = log.Error()
		if hub := sentryecho.GetHubFromContext(c); hub != nil {
			hub.CaptureException(err)
		} else if sentry.CurrentHub().Client() != nil {
			sentry.CaptureException(err)
		}
	}
	event.
		Int("code", code).
		Str("method", c.Request().Method).
		Str("path", c.Request().URL.Path).
		Err(err).
		Msg("http error")

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, body)
	}
	if err != nil {
		log.Error().Err(err).Msg("failed to write error response")
	}
}
