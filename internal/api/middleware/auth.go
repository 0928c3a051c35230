package middleware

import (
	"errors"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/glimpse/storefront-api/internal/api/metrics"
	"github.com/glimpse/storefront-api/internal/core/domain"
	"github.com/glimpse/storefront-api/internal/core/ports"
)

// Authenticate verifies the Bearer access token and attaches the caller's
// identity to the request context. A missing or malformed header fails with
// Unauthenticated before the handler runs; a token that does not verify
// fails with InvalidOrExpired.
func Authenticate(tokens ports.TokenService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				metrics.AuthFailuresTotal.WithLabelValues("missing").Inc()
				return domain.ErrMissingCredential
			}

			payload, err := tokens.Verify(domain.TokenAccess, raw)
			if err != nil {
				if errors.Is(err, domain.ErrInvalidOrExpired) {
					metrics.AuthFailuresTotal.WithLabelValues("invalid").Inc()
				}
				return err
			}

			req := c.Request()
			c.SetRequest(req.WithContext(domain.WithIdentity(req.Context(), payload.Identity())))
			return next(c)
		}
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	tok := strings.TrimSpace(parts[1])
	return tok, tok != ""
}
