package ports

import (
	"context"

	"github.com/glimpse/storefront-api/internal/core/domain"
)

// ReviewRepository defines persistence for product reviews.
type ReviewRepository interface {
	// Create fails with domain.ErrReviewExists on a second review of the
	// same product by the same user.
	Create(ctx context.Context, r *domain.Review) (*domain.Review, error)
	FindByID(ctx context.Context, id string) (*domain.Review, error)
	ListByProduct(ctx context.Context, productID string, page, limit int) ([]*domain.Review, int64, error)
	Update(ctx context.Context, r *domain.Review) (*domain.Review, error)
	Delete(ctx context.Context, id string) error
	Aggregate(ctx context.Context, productID string) (domain.RatingAggregate, error)
}
