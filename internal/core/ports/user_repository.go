package ports

import (
	"context"

	"github.com/glimpse/storefront-api/internal/core/domain"
)

// UserRepository defines persistence for user accounts.
type UserRepository interface {
	// Create fails with domain.ErrUserExists when the email is taken.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	UpdateProfile(ctx context.Context, id string, name, address *string) (*domain.User, error)
	UpdatePasswordHash(ctx context.Context, id, hash string) (*domain.User, error)
}
