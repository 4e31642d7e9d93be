package handler

import (
	"errors"
	"net/http"

	"github.com/abdusco/shortly/internal"
	"github.com/labstack/echo/v4"
)

const internalErrorMessage = "internal server error"

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// ErrorResponse classifies err into a status code and a body that is safe to
// show to the client.
func ErrorResponse(err error) (int, ErrorBody) {
	var verr *internal.ValidationError
	if errors.As(err, &verr) {
		return http.StatusBadRequest, ErrorBody{Error: internal.ErrValidation.Error(), Fields: verr.Fields}
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		msg, ok := httpErr.Message.(string)
		if !ok || httpErr.Code >= http.StatusInternalServerError {
			msg = http.StatusText(httpErr.Code)
		}
		return httpErr.Code, ErrorBody{Error: msg}
	}

	var domainErr *internal.Error
	if !errors.As(err, &domainErr) {
		return http.StatusInternalServerError, ErrorBody{Error: internalErrorMessage}
	}

	body := ErrorBody{Error: domainErr.Error()}
	switch {
	case errors.Is(err, internal.ErrValidation), errors.Is(err, internal.ErrConflict):
		return http.StatusBadRequest, body
	case errors.Is(err, internal.ErrUnauthorized):
		return http.StatusUnauthorized, body
	case errors.Is(err, internal.ErrForbidden):
		return http.StatusForbidden, body
	case errors.Is(err, internal.ErrNotFound):
		return http.StatusNotFound, body
	}
	return http.StatusInternalServerError, ErrorBody{Error: internalErrorMessage}
}
