package ports

import (
	"context"
	"time"

	"github.com/glimpse/storefront-api/internal/core/domain"
)

// Cache is a best-effort key/value store. Implementations never fail the
// caller: an unreachable backend reads as a miss and writes are dropped.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	Delete(ctx context.Context, key string)
	// DeletePrefix removes every key starting with prefix and reports
	// whether the backend confirmed the removal.
	DeletePrefix(ctx context.Context, prefix string) bool
	// Generation reads the counter at key, 0 when it was never bumped. ok
	// is false when the backend cannot answer.
	Generation(ctx context.Context, key string) (gen int64, ok bool)
	// Bump increments the counter at key and reports whether the backend
	// confirmed it.
	Bump(ctx context.Context, key string) bool
}

// ListProductsInput carries all parameters for the product list endpoint.
type ListProductsInput struct {
	Keyword   string
	Category  string
	MinPrice  *float64
	MaxPrice  *float64
	MinRating *float64
	Sort      string
	Page      int
	Limit     int
}

// Pagination describes one page of a listing.
type Pagination struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
}

// NewPagination computes the page count for total items.
func NewPagination(total int64, page, limit int) Pagination {
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Pagination{Total: total, Page: page, Limit: limit, TotalPages: pages}
}

// ProductPage is a cached list result.
type ProductPage struct {
	Products   []*domain.Product `json:"data"`
	Pagination Pagination        `json:"pagination"`
	// Cached is set on results served from the cache. Not serialised.
	Cached bool `json:"-"`
}

// CreateProductInput carries all data needed to add a catalog entry.
type CreateProductInput struct {
	Category    string
	Name        string
	Price       float64
	Image       string
	Description string
	Stock       int
}

// CatalogService coordinates catalog reads through the cache and
// invalidates the cache after every confirmed write.
type CatalogService interface {
	ListProducts(ctx context.Context, in ListProductsInput) (*ProductPage, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	CreateProduct(ctx context.Context, in CreateProductInput) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id string, patch domain.ProductPatch) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) (*domain.Product, error)
	ApplyRating(ctx context.Context, productID string, agg domain.RatingAggregate) error
}
