package auth

import (
	"strings"

	"github.com/abdusco/shortly/internal"
	"github.com/labstack/echo/v4"
)

const userContextKey = "auth.user"

// RequireUser rejects requests without a valid bearer token.
func RequireUser(svc *Service) echo.MiddlewareFunc {
	return bearer(svc, true)
}

// OptionalUser lets anonymous requests through. A token that is present but
// invalid is still rejected.
func OptionalUser(svc *Service) echo.MiddlewareFunc {
	return bearer(svc, false)
}

func bearer(svc *Service, required bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				if required {
					return internal.ErrUnauthorizedRequest
				}
				return next(c)
			}

			user, err := svc.Authenticate(c.Request().Context(), token)
			if err != nil {
				return err
			}

			c.Set(userContextKey, user)
			return next(c)
		}
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// User returns the authenticated user, or nil for anonymous requests.
func User(c echo.Context) *internal.User {
	user, _ := c.Get(userContextKey).(*internal.User)
	return user
}

// UserID returns the authenticated user's id, or "" for anonymous requests.
func UserID(c echo.Context) string {
	if user := User(c); user != nil {
		return user.ID
	}
	return ""
}
