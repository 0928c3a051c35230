package ports

import (
	"context"

	"github.com/glimpse/storefront-api/internal/core/domain"
)

// CartPage is one page of a user's cart.
type CartPage struct {
	Items      []*domain.CartItem
	Pagination Pagination
}

// CartService defines shopping cart use cases. callerID is the
// authenticated user; every mutation passes the ownership gate.
type CartService interface {
	AddItem(ctx context.Context, callerID, productID string) (*domain.CartItem, error)
	ListItems(ctx context.Context, callerID string, page, limit int) (*CartPage, error)
	UpdateQuantity(ctx context.Context, callerID, itemID string, quantity int) (*domain.CartItem, error)
	RemoveItem(ctx context.Context, callerID, itemID string) (*domain.CartItem, error)
}
