package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/glimpse/storefront-api/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error  string `json:"error"`
	Code   string `json:"code"`
	Detail string `json:"detail,omitempty"`
}

type errorKind struct {
	kind   error
	status int
	code   string
}

// kinds is checked in order; the first match wins.
var kinds = []errorKind{
	{domain.ErrUnauthenticated, http.StatusUnauthorized, "UNAUTHENTICATED"},
	{domain.ErrInvalidOrExpired, http.StatusUnauthorized, "INVALID_OR_EXPIRED"},
	{domain.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
	{domain.ErrRoleDenied, http.StatusForbidden, "ROLE_DENIED"},
	{domain.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	{domain.ErrConflict, http.StatusConflict, "CONFLICT"},
	{domain.ErrValidation, http.StatusBadRequest, "VALIDATION_FAILED"},
	{domain.ErrUnavailable, http.StatusBadGateway, "UNAVAILABLE"},
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps domain error kinds to their HTTP status codes.
//   - Logs unexpected errors internally; the cause is only echoed back when
//     exposeDetail is set (non-production).
//   - Renders a consistent JSON envelope: {"error": "<message>", "code": "<KIND>"}.
func NewHTTPErrorHandler(log zerolog.Logger, exposeDetail bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, body := resolveError(err, log, c, exposeDetail)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context, exposeDetail bool) (int, errorResponse) {
	for _, k := range kinds {
		if errors.Is(err, k.kind) {
			return k.status, errorResponse{Error: message(err, k.kind), Code: k.code}
		}
	}

	// Echo's own errors (bind failures, 404 from router, 429 from limiters, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) && he.Code < http.StatusInternalServerError {
		return he.Code, errorResponse{Error: fmt.Sprintf("%v", he.Message), Code: httpCode(he.Code)}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
		Msg("unhandled error")

	resp := errorResponse{Error: "internal server error", Code: "INTERNAL"}
	if exposeDetail {
		resp.Detail = err.Error()
	}
	return http.StatusInternalServerError, resp
}

// message prefers the safe text of a *domain.Error over the bare kind.
func message(err, kind error) string {
	var de *domain.Error
	if errors.As(err, &de) {
		return de.Msg
	}
	return kind.Error()
}

func httpCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "VALIDATION_FAILED"
	case http.StatusUnauthorized:
		return "UNAUTHENTICATED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case http.StatusRequestEntityTooLarge:
		return "PAYLOAD_TOO_LARGE"
	case http.StatusTooManyRequests:
		return "RATE_LIMITED"
	default:
		return "ERROR"
	}
}
