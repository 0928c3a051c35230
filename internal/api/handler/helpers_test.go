package handler

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/glimpse/storefront-api/internal/core/domain"
)

func newTestContext(t *testing.T, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	e.Validator = NewValidator()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

// asCaller attaches id to the request the way middleware.Authenticate does.
func asCaller(c echo.Context, id domain.Identity) {
	req := c.Request()
	c.SetRequest(req.WithContext(domain.WithIdentity(req.Context(), id)))
}

var alice = domain.Identity{UserID: "u-alice", Email: "alice@example.com", Role: domain.RoleUser}
