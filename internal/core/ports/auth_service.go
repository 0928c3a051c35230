package ports

import (
	"context"

	"github.com/glimpse/storefront-api/internal/core/domain"
)

// TokenService issues and verifies signed, time-bound credentials.
type TokenService interface {
	Issue(kind domain.TokenKind, payload domain.TokenPayload) (string, error)
	// Verify collapses every failure into domain.ErrInvalidOrExpired.
	Verify(kind domain.TokenKind, token string) (*domain.TokenPayload, error)
}

// Notifier delivers the password reset message.
type Notifier interface {
	SendPasswordReset(ctx context.Context, to, userID, name string) error
}

// SignupInput carries registration data. AdminSecret is the raw
// X-Admin-Secret header, empty when absent.
type SignupInput struct {
	Name        string
	Email       string
	Password    string
	Address     string
	AdminSecret string
}

// AuthResult is returned on signup and login.
type AuthResult struct {
	User   *domain.User
	Tokens domain.TokenPair
}

// AuthService owns the account and password lifecycle.
type AuthService interface {
	Signup(ctx context.Context, in SignupInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Profile(ctx context.Context, userID string) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID string, name, address *string) (*domain.User, error)
	ChangePassword(ctx context.Context, userID, current, next string) (*domain.User, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, password string) (*domain.User, error)
}
