package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/glimpse/storefront-api/internal/core/domain"
	"github.com/glimpse/storefront-api/internal/core/ports"
)

// callerIdentity returns the identity attached by middleware.Authenticate.
// A handler reached without one is a routing mistake; treat it as
// unauthenticated rather than serving anonymous data.
func callerIdentity(c echo.Context) (domain.Identity, error) {
	id, ok := domain.IdentityFromContext(c.Request().Context())
	if !ok {
		return domain.Identity{}, domain.ErrMissingCredential
	}
	return id, nil
}

// bind decodes the request into req and runs struct validation.
func bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return domain.Validation("invalid payload")
	}
	return c.Validate(req)
}

type messageResponse struct {
	Message string `json:"message"`
}

// listResponse is the envelope of every paginated listing.
type listResponse[T any] struct {
	Data       []T              `json:"data"`
	Pagination ports.Pagination `json:"pagination"`
}

// pageQuery reads the optional page and limit query parameters. Missing
// values are returned as zero and defaulted by the service.
func pageQuery(c echo.Context) (page, limit int, err error) {
	err = echo.QueryParamsBinder(c).
		Int("page", &page).
		Int("limit", &limit).
		BindError()
	if err != nil {
		return 0, 0, domain.Validation("page and limit must be integers")
	}
	return page, limit, nil
}

// floatQuery returns nil when name is absent from the query string.
func floatQuery(c echo.Context, name string) (*float64, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, domain.Validation(name + " must be a number")
	}
	return &f, nil
}
