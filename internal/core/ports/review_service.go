package ports

import (
	"context"

	"github.com/glimpse/storefront-api/internal/core/domain"
)

// CreateReviewInput carries a new review.
type CreateReviewInput struct {
	UserID    string
	ProductID string
	Rating    int
	Comment   string
}

// ReviewView is a review with its author resolved.
type ReviewView struct {
	*domain.Review
	Reviewer *domain.Reviewer `json:"reviewer,omitempty"`
}

// ReviewPage is one page of a product's reviews.
type ReviewPage struct {
	Reviews    []ReviewView
	Pagination Pagination
}

// RatingScheduler queues a rating recomputation for a product.
type RatingScheduler interface {
	Schedule(productID string)
}

// ReviewService defines review use cases.
type ReviewService interface {
	Create(ctx context.Context, in CreateReviewInput) (*domain.Review, error)
	Update(ctx context.Context, callerID, reviewID string, rating *int, comment *string) (*domain.Review, error)
	Delete(ctx context.Context, callerID, reviewID string) (*domain.Review, error)
	ListByProduct(ctx context.Context, productID string, page, limit int) (*ReviewPage, error)
	// RecalculateRating recomputes and stores a product's rating aggregate.
	RecalculateRating(ctx context.Context, productID string) error
}
