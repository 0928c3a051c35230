package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/glimpse/storefront-api/internal/core/domain"
	"github.com/glimpse/storefront-api/internal/core/ports"
)

// RatingWriter stores a product's rating aggregate and invalidates any
// cached reads of it.
type RatingWriter interface {
	ApplyRating(ctx context.Context, productID string, agg domain.RatingAggregate) error
}

type ReviewService struct {
	repo      ports.ReviewRepository
	orders    ports.OrderRepository
	products  ports.ProductRepository
	users     ports.UserRepository
	ratings   RatingWriter
	scheduler ports.RatingScheduler
	logger    zerolog.Logger
}

func NewReviewService(
	repo ports.ReviewRepository,
	orders ports.OrderRepository,
	products ports.ProductRepository,
	users ports.UserRepository,
	ratings RatingWriter,
	logger zerolog.Logger,
) *ReviewService {
	return &ReviewService{
		repo:     repo,
		orders:   orders,
		products: products,
		users:    users,
		ratings:  ratings,
		logger:   logger,
	}
}

// SetScheduler routes rating recomputation through an async scheduler.
// Without one the aggregate is recomputed inline after each write.
func (s *ReviewService) SetScheduler(sch ports.RatingScheduler) {
	s.scheduler = sch
}

// Create stores a review. Only buyers with a delivered order for the
// product may review it, once.
func (s *ReviewService) Create(ctx context.Context, in ports.CreateReviewInput) (*domain.Review, error) {
	now := time.Now().UTC()
	r := &domain.Review{
		UserID:    in.UserID,
		ProductID: in.ProductID,
		Rating:    in.Rating,
		Comment:   strings.TrimSpace(in.Comment),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.products.FindByID(ctx, in.ProductID); err != nil {
		return nil, err
	}

	delivered, err := s.orders.HasDelivered(ctx, in.UserID, in.ProductID)
	if err != nil {
		return nil, err
	}
	if !delivered {
		return nil, domain.ErrNotPurchased
	}

	created, err := s.repo.Create(ctx, r)
	if err != nil {
		return nil, err
	}
	s.refreshRating(ctx, created.ProductID)
	return created, nil
}

func (s *ReviewService) Update(ctx context.Context, callerID, reviewID string, rating *int, comment *string) (*domain.Review, error) {
	r, err := s.owned(ctx, callerID, reviewID)
	if err != nil {
		return nil, err
	}
	if rating == nil && comment == nil {
		return r, nil
	}
	if rating != nil {
		r.Rating = *rating
	}
	if comment != nil {
		r.Comment = strings.TrimSpace(*comment)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	r.UpdatedAt = time.Now().UTC()

	updated, err := s.repo.Update(ctx, r)
	if err != nil {
		return nil, err
	}
	if rating != nil {
		s.refreshRating(ctx, updated.ProductID)
	}
	return updated, nil
}

func (s *ReviewService) Delete(ctx context.Context, callerID, reviewID string) (*domain.Review, error) {
	r, err := s.owned(ctx, callerID, reviewID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Delete(ctx, reviewID); err != nil {
		return nil, err
	}
	s.refreshRating(ctx, r.ProductID)
	return r, nil
}

// ListByProduct returns a product's reviews newest first, each with its
// author's name and email.
func (s *ReviewService) ListByProduct(ctx context.Context, productID string, page, limit int) (*ports.ReviewPage, error) {
	page, limit, err := pageParams(page, limit)
	if err != nil {
		return nil, err
	}
	reviews, total, err := s.repo.ListByProduct(ctx, productID, page, limit)
	if err != nil {
		return nil, err
	}

	reviewers := make(map[string]*domain.Reviewer)
	views := make([]ports.ReviewView, 0, len(reviews))
	for _, r := range reviews {
		rv, seen := reviewers[r.UserID]
		if !seen {
			rv = s.reviewer(ctx, r.UserID)
			reviewers[r.UserID] = rv
		}
		views = append(views, ports.ReviewView{Review: r, Reviewer: rv})
	}
	return &ports.ReviewPage{Reviews: views, Pagination: ports.NewPagination(total, page, limit)}, nil
}

// RecalculateRating recomputes the average over all reviews of productID
// and writes it through the catalog.
func (s *ReviewService) RecalculateRating(ctx context.Context, productID string) error {
	agg, err := s.repo.Aggregate(ctx, productID)
	if err != nil {
		return err
	}
	return s.ratings.ApplyRating(ctx, productID, agg)
}

func (s *ReviewService) refreshRating(ctx context.Context, productID string) {
	if s.scheduler != nil {
		s.scheduler.Schedule(productID)
		return
	}
	if err := s.RecalculateRating(ctx, productID); err != nil {
		s.logger.Error().Err(err).Str("product_id", productID).Msg("rating recompute failed")
	}
}

// reviewer resolves a review author. A deleted account yields nil rather
// than failing the whole page.
func (s *ReviewService) reviewer(ctx context.Context, userID string) *domain.Reviewer {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		s.logger.Debug().Err(err).Str("user_id", userID).Msg("reviewer lookup failed")
		return nil
	}
	return &domain.Reviewer{ID: u.ID, Name: u.Name, Email: u.Email}
}

func (s *ReviewService) owned(ctx context.Context, callerID, reviewID string) (*domain.Review, error) {
	r, err := s.repo.FindByID(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if err := domain.CheckOwnership(r.UserID, callerID); err != nil {
		return nil, err
	}
	return r, nil
}
