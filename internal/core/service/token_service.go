package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/glimpse/storefront-api/internal/core/domain"
)

const tokenIssuer = "glimpse"

// ErrTokenSecretMissing is returned on first use of a token kind whose
// secret was never configured.
var ErrTokenSecretMissing = errors.New("token secret not configured")

// TokenKey is the secret and lifetime of one token kind.
type TokenKey struct {
	Secret string
	TTL    time.Duration
}

// TokenService signs HS256 JWTs with an independent key per kind.
type TokenService struct {
	keys map[domain.TokenKind]TokenKey
	now  func() time.Time
}

func NewTokenService(access, refresh, reset TokenKey) *TokenService {
	return &TokenService{
		keys: map[domain.TokenKind]TokenKey{
			domain.TokenAccess:  withDefaultTTL(access, 30*time.Minute),
			domain.TokenRefresh: withDefaultTTL(refresh, 30*24*time.Hour),
			domain.TokenReset:   withDefaultTTL(reset, 15*time.Minute),
		},
		now: time.Now,
	}
}

func withDefaultTTL(k TokenKey, ttl time.Duration) TokenKey {
	if k.TTL <= 0 {
		k.TTL = ttl
	}
	return k
}

// tokenClaims is the wire form. Kind is checked on verify so a token never
// crosses kinds even if two secrets happen to be equal.
type tokenClaims struct {
	Kind  domain.TokenKind `json:"kind"`
	Role  domain.Role      `json:"role,omitempty"`
	Email string           `json:"email,omitempty"`
	jwt.RegisteredClaims
}

func (s *TokenService) key(kind domain.TokenKind) (TokenKey, error) {
	k, ok := s.keys[kind]
	if !ok {
		return TokenKey{}, fmt.Errorf("unknown token kind %q", kind)
	}
	if k.Secret == "" {
		return TokenKey{}, fmt.Errorf("%s: %w", kind, ErrTokenSecretMissing)
	}
	return k, nil
}

// Issue signs payload as a token of the given kind. Reset tokens keep only
// the subject.
func (s *TokenService) Issue(kind domain.TokenKind, payload domain.TokenPayload) (string, error) {
	k, err := s.key(kind)
	if err != nil {
		return "", err
	}
	if payload.Subject == "" {
		return "", errors.New("token subject is required")
	}

	now := s.now()
	claims := tokenClaims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   payload.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(k.TTL)),
		},
	}
	if kind != domain.TokenReset {
		claims.Role = payload.Role
		claims.Email = payload.Email
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(k.Secret))
}

// Verify parses token as the given kind. Bad signature, malformed input,
// expiry and kind mismatch all yield domain.ErrInvalidOrExpired.
func (s *TokenService) Verify(kind domain.TokenKind, token string) (*domain.TokenPayload, error) {
	k, err := s.key(kind)
	if err != nil {
		return nil, err
	}

	var claims tokenClaims
	tkn, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return []byte(k.Secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !tkn.Valid || claims.Kind != kind || claims.Subject == "" {
		return nil, domain.ErrInvalidOrExpired
	}

	p := &domain.TokenPayload{
		Subject:   claims.Subject,
		Role:      claims.Role,
		Email:     claims.Email,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		p.IssuedAt = claims.IssuedAt.Time
	}
	return p, nil
}

// issuePair mints the access and refresh tokens for u.
func issuePair(tokens interface {
	Issue(domain.TokenKind, domain.TokenPayload) (string, error)
}, u *domain.User) (domain.TokenPair, error) {
	payload := domain.TokenPayload{Subject: u.ID, Role: u.Role, Email: u.Email}
	access, err := tokens.Issue(domain.TokenAccess, payload)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := tokens.Issue(domain.TokenRefresh, payload)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("issue refresh token: %w", err)
	}
	return domain.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
