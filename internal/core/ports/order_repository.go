package ports

import (
	"context"
	"time"

	"github.com/glimpse/storefront-api/internal/core/domain"
)

// ListOrdersFilter carries query parameters for a user's order history.
type ListOrdersFilter struct {
	UserID string
	Status string // optional
	Page   int
	Limit  int
}

// OrderRepository defines persistence for orders.
type OrderRepository interface {
	Create(ctx context.Context, o *domain.Order) (*domain.Order, error)
	FindByID(ctx context.Context, id string) (*domain.Order, error)
	// List returns orders newest first with the total count.
	List(ctx context.Context, filter ListOrdersFilter) ([]*domain.Order, int64, error)
	// UpdateShippingAddress and ApplyAdminPatch write only the fields they
	// name, so an owner edit and an admin edit never undo each other.
	UpdateShippingAddress(ctx context.Context, id, address string, updatedAt time.Time) (*domain.Order, error)
	ApplyAdminPatch(ctx context.Context, id string, patch domain.OrderAdminPatch, updatedAt time.Time) (*domain.Order, error)
	Delete(ctx context.Context, id string) (*domain.Order, error)
	// HasDelivered reports whether userID has a delivered order for productID.
	HasDelivered(ctx context.Context, userID, productID string) (bool, error)
}
