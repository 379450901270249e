package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/geocoder89/busguard/internal/domain/session"
	"github.com/geocoder89/busguard/internal/domain/user"
	"github.com/geocoder89/busguard/internal/security"
	"github.com/google/uuid"
)

type AccountStore interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	Create(ctx context.Context, u user.User) (user.User, error)
}

// SeedAccount is an account created at startup when it does not exist yet.
type SeedAccount struct {
	Email    string
	Password string
	Name     string
	Role     session.Role
}

// EnsureAccounts creates the missing seed accounts. Entries without an email
// or password are skipped. Existing accounts are never modified.
func EnsureAccounts(ctx context.Context, store AccountStore, seeds []SeedAccount) (created int, err error) {
	for _, s := range seeds {
		if s.Email == "" || s.Password == "" {
			continue
		}
		if !s.Role.Valid() {
			return created, fmt.Errorf("seed %s: %w", s.Email, session.ErrUnknownRole)
		}

		_, err := store.GetByEmail(ctx, s.Email)
		if err == nil {
			continue
		}
		if !errors.Is(err, user.ErrNotFound) {
			return created, fmt.Errorf("seed %s: %w", s.Email, err)
		}

		hash, err := security.HashPassword(s.Password)
		if err != nil {
			return created, fmt.Errorf("seed %s: %w", s.Email, err)
		}

		now := time.Now().UTC()

		_, err = store.Create(ctx, user.User{
			ID:           uuid.NewString(),
			Email:        s.Email,
			PasswordHash: hash,
			Name:         s.Name,
			Role:         s.Role,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		if err != nil && !errors.Is(err, user.ErrEmailAlreadyUsed) {
			return created, fmt.Errorf("seed %s: %w", s.Email, err)
		}
		if err == nil {
			created++
		}
	}

	return created, nil
}
