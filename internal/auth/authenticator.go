package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/geocoder89/busguard/internal/domain/session"
)

// Grant is what the authentication service hands back on success.
type Grant struct {
	Token     string
	Role      session.Role
	ExpiresAt time.Time
}

// Authenticator is the boundary to whatever verifies credentials.
type Authenticator interface {
	Authenticate(ctx context.Context, creds session.Credentials) (Grant, error)
}

type TokenIssuer interface {
	IssueSessionToken(subject string, role session.Role) (string, time.Time, error)
}

// StubAuthenticator accepts any identifier and secret and confirms the
// requested role. It performs no credential verification at all.
type StubAuthenticator struct {
	tokens TokenIssuer
}

func NewStubAuthenticator(tokens TokenIssuer) *StubAuthenticator {
	return &StubAuthenticator{tokens: tokens}
}

func (a *StubAuthenticator) Authenticate(ctx context.Context, creds session.Credentials) (Grant, error) {
	if err := ctx.Err(); err != nil {
		return Grant{}, err
	}

	if !creds.RequestedRole.Valid() {
		return Grant{}, fmt.Errorf("%w: %q", session.ErrUnknownRole, creds.RequestedRole.String())
	}

	subject := strings.TrimSpace(creds.Identifier)
	raw, expiresAt, err := a.tokens.IssueSessionToken(subject, creds.RequestedRole)
	if err != nil {
		return Grant{}, fmt.Errorf("issue session token: %w", err)
	}

	return Grant{Token: raw, Role: creds.RequestedRole, ExpiresAt: expiresAt}, nil
}
