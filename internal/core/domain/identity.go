package domain

import "context"

// Identity is the authenticated caller of a single request.
type Identity struct {
	UserID string
	Email  string
	Role   Role
}

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the identity attached by the auth pipeline.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	if !ok || id.UserID == "" {
		return Identity{}, false
	}
	return id, true
}

// CheckOwnership fails with ErrNotOwner unless callerID owns the entity.
// Role is deliberately ignored: admins do not bypass ownership.
func CheckOwnership(ownerID, callerID string) error {
	if ownerID == "" || ownerID != callerID {
		return ErrNotOwner
	}
	return nil
}
