package domain

import "time"

// CartItem is one product line in a user's cart.
type CartItem struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user"`
	ProductID string    `json:"product"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
