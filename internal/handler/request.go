package handler

import (
	"github.com/abdusco/shortly/internal"
	"github.com/labstack/echo/v4"
)

// bindAndValidate decodes the JSON body into req and runs struct validation.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return internal.NewValidationError("body", "must be valid JSON")
	}
	return c.Validate(req)
}
