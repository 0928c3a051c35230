package ports

import (
	"context"

	"github.com/glimpse/storefront-api/internal/core/domain"
)

// CreateOrderInput carries all data needed to place an order.
type CreateOrderInput struct {
	UserID          string
	ProductID       string
	Quantity        int
	ShippingAddress string
}

// OrderPage is one page of a user's orders.
type OrderPage struct {
	Orders     []*domain.Order
	Pagination Pagination
}

// OrderService defines order use cases. Owner mutations go through the
// ownership gate; AdminUpdate is the only path that bypasses it and must sit
// behind a role gate.
type OrderService interface {
	Create(ctx context.Context, in CreateOrderInput) (*domain.Order, error)
	ListMine(ctx context.Context, filter ListOrdersFilter) (*OrderPage, error)
	UpdateShippingAddress(ctx context.Context, callerID, orderID, address string) (*domain.Order, error)
	Delete(ctx context.Context, callerID, orderID string) (*domain.Order, error)
	AdminUpdate(ctx context.Context, orderID string, patch domain.OrderAdminPatch) (*domain.Order, error)
}
