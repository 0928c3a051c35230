package ports

import (
	"context"
	"time"

	"github.com/glimpse/storefront-api/internal/core/domain"
)

// ProductFilter carries the normalised parameters of a catalog query.
// Nil pointers mean "no bound".
type ProductFilter struct {
	Keyword   string   // case-insensitive match on name or description
	Category  string   // exact, lower-cased
	MinPrice  *float64 // price >= MinPrice
	MaxPrice  *float64 // price <= MaxPrice
	MinRating *float64 // rating >= MinRating
	Sort      string   // one of the whitelisted sort keys, "-" prefix = descending
	Page      int      // 1-based
	Limit     int
}

// ProductRepository is the authoritative catalog store.
type ProductRepository interface {
	Create(ctx context.Context, p *domain.Product) (*domain.Product, error)
	FindByID(ctx context.Context, id string) (*domain.Product, error)
	// List returns a page of products matching filter and the total count.
	List(ctx context.Context, filter ProductFilter) ([]*domain.Product, int64, error)
	// Update writes only the fields present in patch and returns the stored
	// product. Fails with ErrProductNotFound.
	Update(ctx context.Context, id string, patch domain.ProductPatch, updatedAt time.Time) (*domain.Product, error)
	Delete(ctx context.Context, id string) (*domain.Product, error)
	SetRating(ctx context.Context, id string, agg domain.RatingAggregate) error
}
