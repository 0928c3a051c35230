package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/glimpse/storefront-api/internal/core/domain"
	"github.com/glimpse/storefront-api/internal/core/ports"
)

// CartService implements the shopping cart. Items belong to the user who
// added them; no other caller may change them, admins included.
type CartService struct {
	repo     ports.CartRepository
	products ports.ProductRepository
	logger   zerolog.Logger
}

func NewCartService(repo ports.CartRepository, products ports.ProductRepository, logger zerolog.Logger) *CartService {
	return &CartService{repo: repo, products: products, logger: logger}
}

// AddItem puts productID in the caller's cart, incrementing the quantity
// when it is already there.
func (s *CartService) AddItem(ctx context.Context, callerID, productID string) (*domain.CartItem, error) {
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		return nil, err
	}
	item, err := s.repo.AddOrIncrement(ctx, callerID, productID)
	if err != nil {
		return nil, err
	}
	s.logger.Debug().Str("user_id", callerID).Str("product_id", productID).Int("quantity", item.Quantity).Msg("cart item added")
	return item, nil
}

func (s *CartService) ListItems(ctx context.Context, callerID string, page, limit int) (*ports.CartPage, error) {
	page, limit, err := pageParams(page, limit)
	if err != nil {
		return nil, err
	}
	items, total, err := s.repo.ListByUser(ctx, callerID, page, limit)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*domain.CartItem{}
	}
	return &ports.CartPage{Items: items, Pagination: ports.NewPagination(total, page, limit)}, nil
}

func (s *CartService) UpdateQuantity(ctx context.Context, callerID, itemID string, quantity int) (*domain.CartItem, error) {
	if quantity < 1 {
		return nil, domain.Validation("quantity must be at least 1")
	}
	if _, err := s.owned(ctx, callerID, itemID); err != nil {
		return nil, err
	}
	return s.repo.UpdateQuantity(ctx, itemID, quantity)
}

func (s *CartService) RemoveItem(ctx context.Context, callerID, itemID string) (*domain.CartItem, error) {
	if _, err := s.owned(ctx, callerID, itemID); err != nil {
		return nil, err
	}
	return s.repo.Delete(ctx, itemID)
}

func (s *CartService) owned(ctx context.Context, callerID, itemID string) (*domain.CartItem, error) {
	item, err := s.repo.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if err := domain.CheckOwnership(item.UserID, callerID); err != nil {
		return nil, err
	}
	return item, nil
}
