package ports

import (
	"context"

	"github.com/glimpse/storefront-api/internal/core/domain"
)

// CartRepository defines persistence for cart items.
type CartRepository interface {
	// AddOrIncrement atomically inserts the (user, product) line with
	// quantity 1 or increments the existing one.
	AddOrIncrement(ctx context.Context, userID, productID string) (*domain.CartItem, error)
	FindByID(ctx context.Context, id string) (*domain.CartItem, error)
	ListByUser(ctx context.Context, userID string, page, limit int) ([]*domain.CartItem, int64, error)
	UpdateQuantity(ctx context.Context, id string, quantity int) (*domain.CartItem, error)
	Delete(ctx context.Context, id string) (*domain.CartItem, error)
}
