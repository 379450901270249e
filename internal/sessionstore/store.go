// Package sessionstore is the single source of truth for who is logged in
// under which session id, and as what role.
package sessionstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/geocoder89/busguard/internal/auth"
	"github.com/geocoder89/busguard/internal/domain/session"
	"github.com/google/uuid"
)

// Repository persists session records by session id. Get returns
// session.ErrNoSession for unknown ids; Delete of an unknown id is a no-op.
type Repository interface {
	Get(ctx context.Context, id string) (session.Record, error)
	Put(ctx context.Context, id string, rec session.Record) error
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

type TokenVerifier interface {
	VerifySessionToken(token string) (*auth.Claims, error)
}

type Store struct {
	repo   Repository
	authn  auth.Authenticator
	tokens TokenVerifier
	now    func() time.Time
}

func New(repo Repository, authn auth.Authenticator, tokens TokenVerifier) *Store {
	return &Store{
		repo:   repo,
		authn:  authn,
		tokens: tokens,
		now:    time.Now,
	}
}

func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func NewSessionID() string {
	return uuid.NewString()
}

// Session returns the current state for id without changing it.
func (s *Store) Session(ctx context.Context, id string) (session.Session, error) {
	if strings.TrimSpace(id) == "" {
		return session.LoggedOut(), nil
	}

	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, session.ErrNoSession) {
			return session.LoggedOut(), nil
		}
		return session.LoggedOut(), fmt.Errorf("load session: %w", err)
	}

	if rec.Expired(s.now()) {
		return session.LoggedOut(), session.ErrSessionExpired
	}

	claims, err := s.tokens.VerifySessionToken(rec.Token)
	if err != nil {
		return session.LoggedOut(), fmt.Errorf("verify session token: %w", err)
	}

	if session.Role(claims.Role) != rec.Role {
		return session.LoggedOut(), errors.New("session token role mismatch")
	}

	return session.LoggedIn(rec.Role)
}

// Login authenticates creds and records id as logged in under the confirmed
// role. A session already logged in under another role must log out first.
func (s *Store) Login(ctx context.Context, id string, creds session.Credentials) (session.Session, error) {
	if strings.TrimSpace(id) == "" {
		return session.LoggedOut(), errors.New("empty session id")
	}

	if !creds.RequestedRole.Valid() {
		return session.LoggedOut(), fmt.Errorf("%w: %q", session.ErrUnknownRole, creds.RequestedRole.String())
	}

	current, err := s.Session(ctx, id)
	if err == nil && current.IsAuthenticated && current.Role != creds.RequestedRole {
		return current, session.ErrRoleSwitch
	}

	grant, err := s.authn.Authenticate(ctx, creds)
	if err != nil {
		return session.LoggedOut(), err
	}

	if grant.Role != creds.RequestedRole {
		return session.LoggedOut(), session.ErrInvalidCredentials
	}

	next, err := session.LoggedIn(grant.Role)
	if err != nil {
		return session.LoggedOut(), err
	}

	rec := session.Record{
		Role:       grant.Role,
		Identifier: strings.TrimSpace(creds.Identifier),
		Token:      grant.Token,
		IssuedAt:   s.now().UTC(),
		ExpiresAt:  grant.ExpiresAt,
	}

	if err := s.repo.Put(ctx, id, rec); err != nil {
		return session.LoggedOut(), fmt.Errorf("%w: store session: %v", session.ErrServiceUnavailable, err)
	}

	return next, nil
}

// Logout resets id to logged out. Calling it again is a no-op.
func (s *Store) Logout(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return nil
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	return nil
}

// Move re-keys a session record, used to rotate the id on login.
func (s *Store) Move(ctx context.Context, from, to string) error {
	if from == "" || from == to {
		return nil
	}

	rec, err := s.repo.Get(ctx, from)
	if err != nil {
		if errors.Is(err, session.ErrNoSession) {
			return nil
		}
		return fmt.Errorf("load session: %w", err)
	}

	if err := s.repo.Put(ctx, to, rec); err != nil {
		return fmt.Errorf("store session: %w", err)
	}

	return s.repo.Delete(ctx, from)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}
