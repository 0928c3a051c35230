package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

const seedAdminName = "Administrator"

// AdminStore creates the admin account when it does not exist yet.
type AdminStore interface {
	EnsureAdmin(ctx context.Context, name, email, passwordHash string) (bool, error)
}

// SeedAdmin makes sure an admin account exists for email. An account that
// already exists is left as is, including its password.
func SeedAdmin(ctx context.Context, store AdminStore, email, password string, log zerolog.Logger) error {
	email = normalizeEmail(email)
	if email == "" {
		return fmt.Errorf("seed admin: email is required")
	}
	if err := checkPassword(password); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	hash, err := hashPassword(password)
	if err != nil {
		return fmt.Errorf("seed admin: hash password: %w", err)
	}

	created, err := store.EnsureAdmin(ctx, seedAdminName, email, hash)
	if err != nil {
		return err
	}
	if created {
		log.Info().Str("email", email).Msg("admin account created")
	} else {
		log.Debug().Str("email", email).Msg("admin account already present")
	}
	return nil
}
