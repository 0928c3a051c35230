package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/glimpse/storefront-api/internal/api/metrics"
	"github.com/glimpse/storefront-api/internal/core/domain"
	"github.com/glimpse/storefront-api/internal/core/ports"
)

const (
	bcryptCost        = 12
	minPasswordLength = 6
	maxNameLength     = 50
)

// AuthService implements the account and password lifecycle.
type AuthService struct {
	repo        ports.UserRepository
	tokens      ports.TokenService
	notifier    ports.Notifier
	adminSecret string
	log         zerolog.Logger
}

func NewAuthService(repo ports.UserRepository, tokens ports.TokenService, notifier ports.Notifier, adminSecret string, log zerolog.Logger) *AuthService {
	return &AuthService{
		repo:        repo,
		tokens:      tokens,
		notifier:    notifier,
		adminSecret: adminSecret,
		log:         log,
	}
}

func (s *AuthService) Signup(ctx context.Context, in ports.SignupInput) (*ports.AuthResult, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	in.Address = strings.TrimSpace(in.Address)

	switch {
	case in.Name == "" || len(in.Name) > maxNameLength:
		return nil, domain.Validation("name is required and cannot exceed 50 characters")
	case in.Email == "":
		return nil, domain.Validation("email is required")
	case in.Address == "":
		return nil, domain.Validation("address is required")
	}
	if err := checkPassword(in.Password); err != nil {
		return nil, err
	}

	role := domain.RoleUser
	if in.AdminSecret != "" {
		if s.adminSecret == "" || subtle.ConstantTimeCompare([]byte(in.AdminSecret), []byte(s.adminSecret)) != 1 {
			return nil, domain.ErrInvalidAdminSecret
		}
		role = domain.RoleAdmin
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user, err := s.repo.Create(ctx, &domain.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         role,
		Address:      in.Address,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, err
	}

	pair, err := issuePair(s.tokens, user)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("user signed up")
	return &ports.AuthResult{User: user, Tokens: pair}, nil
}

// Login never reveals whether the email exists: an unknown account and a
// wrong password both yield domain.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		metrics.AuthFailuresTotal.WithLabelValues("credentials").Inc()
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		metrics.AuthFailuresTotal.WithLabelValues("credentials").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	pair, err := issuePair(s.tokens, user)
	if err != nil {
		return nil, err
	}
	return &ports.AuthResult{User: user, Tokens: pair}, nil
}

func (s *AuthService) Profile(ctx context.Context, userID string) (*domain.User, error) {
	return s.repo.FindByID(ctx, userID)
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID string, name, address *string) (*domain.User, error) {
	if name != nil {
		n := strings.TrimSpace(*name)
		if n == "" || len(n) > maxNameLength {
			return nil, domain.Validation("name is required and cannot exceed 50 characters")
		}
		name = &n
	}
	if address != nil {
		a := strings.TrimSpace(*address)
		if a == "" {
			return nil, domain.Validation("address cannot be empty")
		}
		address = &a
	}
	if name == nil && address == nil {
		return s.repo.FindByID(ctx, userID)
	}
	return s.repo.UpdateProfile(ctx, userID, name, address)
}

func (s *AuthService) ChangePassword(ctx context.Context, userID, current, next string) (*domain.User, error) {
	if current == "" {
		return nil, domain.Validation("current password is required")
	}
	if err := checkPassword(next); err != nil {
		return nil, err
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)) != nil {
		return nil, domain.Validation("current password is incorrect")
	}

	hash, err := hashPassword(next)
	if err != nil {
		return nil, err
	}
	return s.repo.UpdatePasswordHash(ctx, userID, hash)
}

func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return domain.Validation("email is required")
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return err
	}

	if err := s.notifier.SendPasswordReset(ctx, user.Email, user.ID, user.Name); err != nil {
		s.log.Error().Err(err).Str("user_id", user.ID).Msg("password reset delivery failed")
		return domain.ErrNotifyFailed
	}
	return nil
}

func (s *AuthService) ResetPassword(ctx context.Context, token, password string) (*domain.User, error) {
	if token == "" {
		return nil, domain.Validation("reset token is required")
	}
	if err := checkPassword(password); err != nil {
		return nil, err
	}

	payload, err := s.tokens.Verify(domain.TokenReset, token)
	if err != nil {
		return nil, err
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}
	user, err := s.repo.UpdatePasswordHash(ctx, payload.Subject, hash)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("user_id", user.ID).Msg("password reset")
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func checkPassword(p string) error {
	if len(p) < minPasswordLength {
		return domain.Validation("password must be at least 6 characters")
	}
	return nil
}

func hashPassword(p string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(p), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
