package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/geocoder89/busguard/internal/domain/session"
	"github.com/geocoder89/busguard/internal/domain/user"
	"github.com/geocoder89/busguard/internal/security"
)

// Keep this small interface so tests can fake it easily.
type UserReader interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
}

// PasswordAuthenticator checks credentials against stored bcrypt hashes.
// The stored role must match the role the user asked to sign in as.
type PasswordAuthenticator struct {
	users  UserReader
	tokens TokenIssuer
}

func NewPasswordAuthenticator(users UserReader, tokens TokenIssuer) *PasswordAuthenticator {
	return &PasswordAuthenticator{users: users, tokens: tokens}
}

func (a *PasswordAuthenticator) Authenticate(ctx context.Context, creds session.Credentials) (Grant, error) {
	if !creds.RequestedRole.Valid() {
		return Grant{}, fmt.Errorf("%w: %q", session.ErrUnknownRole, creds.RequestedRole.String())
	}

	email := strings.ToLower(strings.TrimSpace(creds.Identifier))
	if email == "" || creds.Secret == "" {
		return Grant{}, session.ErrInvalidCredentials
	}

	u, err := a.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			security.BurnCompare(creds.Secret)
			return Grant{}, session.ErrInvalidCredentials
		}
		return Grant{}, fmt.Errorf("%w: lookup user: %v", session.ErrServiceUnavailable, err)
	}

	if err := security.CheckPassword(u.PasswordHash, creds.Secret); err != nil {
		return Grant{}, session.ErrInvalidCredentials
	}

	// same message as a bad password so roles cannot be probed
	if u.Role != creds.RequestedRole {
		return Grant{}, session.ErrInvalidCredentials
	}

	raw, expiresAt, err := a.tokens.IssueSessionToken(u.ID, u.Role)
	if err != nil {
		return Grant{}, fmt.Errorf("issue session token: %w", err)
	}

	return Grant{Token: raw, Role: u.Role, ExpiresAt: expiresAt}, nil
}
