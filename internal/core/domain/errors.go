package domain

import "errors"

// Error kinds. Every failure that leaves the API is classified as one of these.
var (
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrInvalidOrExpired = errors.New("invalid or expired token")
	ErrForbidden        = errors.New("forbidden")
	ErrRoleDenied       = errors.New("role denied")
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrValidation       = errors.New("validation failed")
	ErrUnavailable      = errors.New("unavailable")
)

// Error is a classified failure carrying a message that is safe to show to
// the caller. errors.Is(err, Kind) holds for every Error.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Kind }

// Validation returns an ErrValidation-kinded error with msg.
func Validation(msg string) error {
	return &Error{Kind: ErrValidation, Msg: msg}
}

var (
	ErrInvalidCredentials = &Error{Kind: ErrUnauthenticated, Msg: "invalid email or password"}
	ErrMissingCredential  = &Error{Kind: ErrUnauthenticated, Msg: "access token is required"}
	ErrAdminRequired      = &Error{Kind: ErrRoleDenied, Msg: "admin access required"}
	ErrInvalidAdminSecret = &Error{Kind: ErrRoleDenied, Msg: "invalid admin secret"}
	ErrNotOwner           = &Error{Kind: ErrForbidden, Msg: "not allowed to modify this resource"}
	ErrNotPurchased       = &Error{Kind: ErrForbidden, Msg: "you can only review products you have purchased"}

	ErrUserNotFound     = &Error{Kind: ErrNotFound, Msg: "user not found"}
	ErrProductNotFound  = &Error{Kind: ErrNotFound, Msg: "product not found"}
	ErrCartItemNotFound = &Error{Kind: ErrNotFound, Msg: "cart item not found"}
	ErrOrderNotFound    = &Error{Kind: ErrNotFound, Msg: "order not found"}
	ErrReviewNotFound   = &Error{Kind: ErrNotFound, Msg: "review not found"}

	ErrUserExists    = &Error{Kind: ErrConflict, Msg: "user already exists with this email"}
	ErrAlreadyExists = &Error{Kind: ErrConflict, Msg: "resource already exists"}
	ErrReviewExists  = &Error{Kind: ErrConflict, Msg: "you have already reviewed this product"}

	ErrInvalidID = &Error{Kind: ErrValidation, Msg: "invalid id format"}

	ErrNotifyFailed = &Error{Kind: ErrUnavailable, Msg: "failed to send password reset email"}
)
