package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/glimpse/storefront-api/internal/core/domain"
	"github.com/glimpse/storefront-api/internal/core/ports"
)

const maxShippingAddress = 500

type OrderService struct {
	repo     ports.OrderRepository
	products ports.ProductRepository
	logger   zerolog.Logger
}

func NewOrderService(repo ports.OrderRepository, products ports.ProductRepository, logger zerolog.Logger) *OrderService {
	return &OrderService{repo: repo, products: products, logger: logger}
}

// Create places a pending order. Stock is not reserved.
func (s *OrderService) Create(ctx context.Context, in ports.CreateOrderInput) (*domain.Order, error) {
	address, err := checkAddress(in.ShippingAddress)
	if err != nil {
		return nil, err
	}
	if in.Quantity < 1 {
		return nil, domain.Validation("quantity must be at least 1")
	}
	if _, err := s.products.FindByID(ctx, in.ProductID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	order, err := s.repo.Create(ctx, &domain.Order{
		UserID:          in.UserID,
		ProductID:       in.ProductID,
		Quantity:        in.Quantity,
		Status:          domain.OrderPending,
		ShippingAddress: address,
		PaymentStatus:   domain.PaymentPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", in.UserID).Msg("failed to create order")
		return nil, err
	}
	s.logger.Info().Str("order_id", order.ID).Str("user_id", in.UserID).Str("product_id", in.ProductID).Msg("order created")
	return order, nil
}

func (s *OrderService) ListMine(ctx context.Context, filter ports.ListOrdersFilter) (*ports.OrderPage, error) {
	page, limit, err := pageParams(filter.Page, filter.Limit)
	if err != nil {
		return nil, err
	}
	filter.Page, filter.Limit = page, limit
	if filter.Status != "" && !domain.OrderStatus(filter.Status).Valid() {
		return nil, domain.Validation("invalid order status")
	}

	orders, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []*domain.Order{}
	}
	return &ports.OrderPage{Orders: orders, Pagination: ports.NewPagination(total, page, limit)}, nil
}

func (s *OrderService) UpdateShippingAddress(ctx context.Context, callerID, orderID, address string) (*domain.Order, error) {
	address, err := checkAddress(address)
	if err != nil {
		return nil, err
	}
	if _, err := s.owned(ctx, callerID, orderID); err != nil {
		return nil, err
	}
	return s.repo.UpdateShippingAddress(ctx, orderID, address, time.Now().UTC())
}

func (s *OrderService) Delete(ctx context.Context, callerID, orderID string) (*domain.Order, error) {
	if _, err := s.owned(ctx, callerID, orderID); err != nil {
		return nil, err
	}
	return s.repo.Delete(ctx, orderID)
}

// AdminUpdate changes fulfilment fields without an ownership check. Callers
// must already have passed the admin role gate.
func (s *OrderService) AdminUpdate(ctx context.Context, orderID string, patch domain.OrderAdminPatch) (*domain.Order, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	updated, err := s.repo.ApplyAdminPatch(ctx, orderID, patch, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("order_id", orderID).Str("status", string(updated.Status)).Str("payment_status", string(updated.PaymentStatus)).Msg("order updated by admin")
	return updated, nil
}

func (s *OrderService) owned(ctx context.Context, callerID, orderID string) (*domain.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := domain.CheckOwnership(order.UserID, callerID); err != nil {
		return nil, err
	}
	return order, nil
}

func checkAddress(a string) (string, error) {
	a = strings.TrimSpace(a)
	if a == "" {
		return "", domain.Validation("shipping address is required")
	}
	if len(a) > maxShippingAddress {
		return "", domain.Validation("shipping address cannot exceed 500 characters")
	}
	return a, nil
}
