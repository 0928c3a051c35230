package domain

import "time"

// OrderStatus represents the lifecycle state of an order.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderShipped   OrderStatus = "shipped"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"
)

var orderStatuses = map[OrderStatus]struct{}{
	OrderPending:   {},
	OrderConfirmed: {},
	OrderShipped:   {},
	OrderDelivered: {},
	OrderCancelled: {},
}

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	_, ok := orderStatuses[s]
	return ok
}

// PaymentStatus tracks payment of an order. Payments themselves are processed elsewhere.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

// Valid reports whether s is a known payment status.
func (s PaymentStatus) Valid() bool {
	return s == PaymentPending || s == PaymentPaid || s == PaymentFailed
}

// Order is a single-product purchase placed by a user.
type Order struct {
	ID              string        `json:"id"`
	UserID          string        `json:"user"`
	ProductID       string        `json:"product"`
	Quantity        int           `json:"quantity"`
	Status          OrderStatus   `json:"status"`
	ShippingAddress string        `json:"shipping_address"`
	PaymentStatus   PaymentStatus `json:"payment_status"`
	DeliveryDate    *time.Time    `json:"delivery_date,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// OrderAdminPatch is the admin-only update of an order's fulfilment fields.
type OrderAdminPatch struct {
	Status        *OrderStatus
	PaymentStatus *PaymentStatus
	DeliveryDate  *time.Time
}

// Validate rejects unknown enum values.
func (p OrderAdminPatch) Validate() error {
	if p.Status != nil && !p.Status.Valid() {
		return Validation("invalid order status")
	}
	if p.PaymentStatus != nil && !p.PaymentStatus.Valid() {
		return Validation("invalid payment status")
	}
	return nil
}

// Apply copies every provided field onto o.
func (p OrderAdminPatch) Apply(o *Order) {
	if p.Status != nil {
		o.Status = *p.Status
	}
	if p.PaymentStatus != nil {
		o.PaymentStatus = *p.PaymentStatus
	}
	if p.DeliveryDate != nil {
		d := p.DeliveryDate.UTC()
		o.DeliveryDate = &d
	}
}
