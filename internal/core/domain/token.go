package domain

import "time"

// TokenKind selects the secret and lifetime used to sign a token.
type TokenKind string

const (
	TokenAccess  TokenKind = "access"
	TokenRefresh TokenKind = "refresh"
	TokenReset   TokenKind = "reset"
)

// TokenPayload is the verified content of a token. Reset tokens carry only
// the subject.
type TokenPayload struct {
	Subject   string
	Role      Role
	Email     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Identity converts an access payload into a request identity.
func (p *TokenPayload) Identity() Identity {
	return Identity{UserID: p.Subject, Email: p.Email, Role: p.Role}
}

// TokenPair is returned on signup and login.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
