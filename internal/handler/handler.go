package handler

import (
	"github.com/labstack/echo/v4"

	apperrors "libris/internal/errors"
)

// domainError converts a classified domain error into an echo HTTP error
// with the standard {error, code} body.
func domainError(err error) *echo.HTTPError {
	httpErr := apperrors.MapErrorToHTTP(err)
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
}
