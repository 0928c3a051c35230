package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/glimpse/storefront-api/internal/core/domain"
	"github.com/glimpse/storefront-api/internal/core/service"
)

func newTokens() *service.TokenService {
	return service.NewTokenService(
		service.TokenKey{Secret: "access", TTL: time.Hour},
		service.TokenKey{Secret: "refresh", TTL: time.Hour},
		service.TokenKey{Secret: "reset", TTL: time.Hour},
	)
}

func runAuth(t *testing.T, header string, next echo.HandlerFunc) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return rec, Authenticate(newTokens())(next)(c)
}

func mustNotReach(t *testing.T) echo.HandlerFunc {
	return func(echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	}
}

func TestAuthenticate_ValidToken(t *testing.T) {
	tok, err := newTokens().Issue(domain.TokenAccess, domain.TokenPayload{Subject: "u1", Role: domain.RoleAdmin, Email: "a@x.com"})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	called := false
	rec, err := runAuth(t, "Bearer "+tok, func(c echo.Context) error {
		called = true
		id, ok := domain.IdentityFromContext(c.Request().Context())
		if !ok {
			t.Fatalf("identity not attached")
		}
		if id.UserID != "u1" || id.Role != domain.RoleAdmin || id.Email != "a@x.com" {
			t.Fatalf("unexpected identity: %+v", id)
		}
		return c.NoContent(http.StatusOK)
	})

	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthenticate_MissingHeader(t *testing.T) {
	_, err := runAuth(t, "", mustNotReach(t))
	if !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestAuthenticate_InvalidHeaderFormat(t *testing.T) {
	for _, h := range []string{"Token abc", "Bearer", "Bearer    "} {
		_, err := runAuth(t, h, mustNotReach(t))
		if !errors.Is(err, domain.ErrUnauthenticated) {
			t.Fatalf("%q: expected ErrUnauthenticated, got %v", h, err)
		}
	}
}

func TestAuthenticate_InvalidToken(t *testing.T) {
	_, err := runAuth(t, "Bearer not-a-token", mustNotReach(t))
	if !errors.Is(err, domain.ErrInvalidOrExpired) {
		t.Fatalf("expected ErrInvalidOrExpired, got %v", err)
	}
}

func TestAuthenticate_RejectsOtherKinds(t *testing.T) {
	tokens := newTokens()
	for _, kind := range []domain.TokenKind{domain.TokenRefresh, domain.TokenReset} {
		tok, _ := tokens.Issue(kind, domain.TokenPayload{Subject: "u1", Role: domain.RoleUser})
		_, err := runAuth(t, "Bearer "+tok, mustNotReach(t))
		if !errors.Is(err, domain.ErrInvalidOrExpired) {
			t.Fatalf("%s token accepted as access: %v", kind, err)
		}
	}
}

func TestAuthenticate_ForgedMapClaims(t *testing.T) {
	// A token signed with the right secret but without the kind claim.
	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "u1",
		"role": "admin",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := forged.SignedString([]byte("access"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	_, err = runAuth(t, "Bearer "+signed, mustNotReach(t))
	if !errors.Is(err, domain.ErrInvalidOrExpired) {
		t.Fatalf("expected ErrInvalidOrExpired, got %v", err)
	}
}

func TestAuthenticate_IdentityIsPerRequest(t *testing.T) {
	e := echo.New()
	tokens := newTokens()
	tok, _ := tokens.Issue(domain.TokenAccess, domain.TokenPayload{Subject: "u1", Role: domain.RoleUser})
	mw := Authenticate(tokens)

	first := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	first.Request().Header.Set("Authorization", "Bearer "+tok)
	_ = mw(func(echo.Context) error { return nil })(first)

	second := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	if _, ok := domain.IdentityFromContext(second.Request().Context()); ok {
		t.Fatalf("identity leaked into an unrelated request")
	}
}
