package service

import "github.com/glimpse/storefront-api/internal/core/domain"

// pageParams applies the listing defaults and bounds shared by every
// paginated endpoint.
func pageParams(page, limit int) (int, int, error) {
	if page == 0 {
		page = 1
	}
	if limit == 0 {
		limit = defaultPageLimit
	}
	if page < 1 {
		return 0, 0, domain.Validation("page must be at least 1")
	}
	if limit < 1 || limit > maxPageLimit {
		return 0, 0, domain.Validation("limit must be between 1 and 100")
	}
	return page, limit, nil
}
