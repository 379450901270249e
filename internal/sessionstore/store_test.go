package sessionstore_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/geocoder89/busguard/internal/auth"
	"github.com/geocoder89/busguard/internal/domain/session"
	"github.com/geocoder89/busguard/internal/repo/memory"
	"github.com/geocoder89/busguard/internal/sessionstore"
)

type fixture struct {
	store *sessionstore.Store
	repo  *memory.SessionsRepo
	now   *time.Time
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	now := time.Now()
	clock := func() time.Time { return now }

	tokens := auth.NewManager("test-secret-key", 30*time.Minute).WithClock(clock)
	repo := memory.NewSessionsRepo()
	store := sessionstore.New(repo, auth.NewStubAuthenticator(tokens), tokens).WithClock(clock)

	return fixture{store: store, repo: repo, now: &now}
}

func TestLoginAnyCredentialsSetsRole(t *testing.T) {
	ctx := context.Background()

	for _, role := range []session.Role{session.RoleAdministrator, session.RoleCustomer} {
		f := newFixture(t)
		id := sessionstore.NewSessionID()

		got, err := f.store.Login(ctx, id, session.Credentials{Identifier: "any", Secret: "thing", RequestedRole: role})
		if err != nil {
			t.Fatalf("login as %q: %v", role, err)
		}

		want := session.Session{IsAuthenticated: true, Role: role}
		if got != want {
			t.Fatalf("login returned %+v, want %+v", got, want)
		}

		current, err := f.store.Session(ctx, id)
		if err != nil {
			t.Fatalf("session: %v", err)
		}
		if current != want {
			t.Fatalf("Session() = %+v, want %+v", current, want)
		}
	}
}

func TestLogoutIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := sessionstore.NewSessionID()

	if _, err := f.store.Login(ctx, id, session.Credentials{RequestedRole: session.RoleCustomer}); err != nil {
		t.Fatalf("login: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := f.store.Logout(ctx, id); err != nil {
			t.Fatalf("logout %d: %v", i, err)
		}
		got, err := f.store.Session(ctx, id)
		if err != nil {
			t.Fatalf("session: %v", err)
		}
		if got != session.LoggedOut() {
			t.Fatalf("after logout %d got %+v", i, got)
		}
	}

	// never logged in at all
	if err := f.store.Logout(ctx, sessionstore.NewSessionID()); err != nil {
		t.Fatalf("logout of unknown id: %v", err)
	}
}

func TestUnknownSessionIsLoggedOut(t *testing.T) {
	f := newFixture(t)

	for _, id := range []string{"", "never-seen"} {
		got, err := f.store.Session(context.Background(), id)
		if err != nil {
			t.Fatalf("Session(%q) error: %v", id, err)
		}
		if got != session.LoggedOut() {
			t.Fatalf("Session(%q) = %+v", id, got)
		}
	}
}

func TestRoleSwitchRequiresLogout(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := sessionstore.NewSessionID()

	if _, err := f.store.Login(ctx, id, session.Credentials{RequestedRole: session.RoleAdministrator}); err != nil {
		t.Fatalf("login: %v", err)
	}

	_, err := f.store.Login(ctx, id, session.Credentials{RequestedRole: session.RoleCustomer})
	if !errors.Is(err, session.ErrRoleSwitch) {
		t.Fatalf("expected ErrRoleSwitch, got %v", err)
	}

	current, _ := f.store.Session(ctx, id)
	if !current.Is(session.RoleAdministrator) {
		t.Fatalf("session changed after rejected switch: %+v", current)
	}

	// same role again just refreshes
	if _, err := f.store.Login(ctx, id, session.Credentials{RequestedRole: session.RoleAdministrator}); err != nil {
		t.Fatalf("same-role relogin: %v", err)
	}

	if err := f.store.Logout(ctx, id); err != nil {
		t.Fatalf("logout: %v", err)
	}
	got, err := f.store.Login(ctx, id, session.Credentials{RequestedRole: session.RoleCustomer})
	if err != nil {
		t.Fatalf("login after logout: %v", err)
	}
	if !got.Is(session.RoleCustomer) {
		t.Fatalf("got %+v", got)
	}
}

func TestLoginUnknownRole(t *testing.T) {
	f := newFixture(t)

	_, err := f.store.Login(context.Background(), "sid", session.Credentials{RequestedRole: "driver"})
	if !errors.Is(err, session.ErrUnknownRole) {
		t.Fatalf("expected ErrUnknownRole, got %v", err)
	}
}

type failingAuthenticator struct{ err error }

func (f failingAuthenticator) Authenticate(context.Context, session.Credentials) (auth.Grant, error) {
	return auth.Grant{}, f.err
}

func TestLoginPropagatesAuthenticatorErrors(t *testing.T) {
	tokens := auth.NewManager("k", time.Hour)

	for _, want := range []error{session.ErrInvalidCredentials, session.ErrServiceUnavailable} {
		store := sessionstore.New(memory.NewSessionsRepo(), failingAuthenticator{err: want}, tokens)

		got, err := store.Login(context.Background(), "sid", session.Credentials{RequestedRole: session.RoleCustomer})
		if !errors.Is(err, want) {
			t.Fatalf("expected %v, got %v", want, err)
		}
		if got != session.LoggedOut() {
			t.Fatalf("failed login returned %+v", got)
		}
	}
}

func TestExpiredSessionReadsAsLoggedOut(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := sessionstore.NewSessionID()

	if _, err := f.store.Login(ctx, id, session.Credentials{RequestedRole: session.RoleCustomer}); err != nil {
		t.Fatalf("login: %v", err)
	}

	*f.now = f.now.Add(31 * time.Minute)

	got, err := f.store.Session(ctx, id)
	if !errors.Is(err, session.ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
	if got != session.LoggedOut() {
		t.Fatalf("expired session = %+v", got)
	}

	// an expired session may log in under a different role
	if _, err := f.store.Login(ctx, id, session.Credentials{RequestedRole: session.RoleAdministrator}); err != nil {
		t.Fatalf("login after expiry: %v", err)
	}
}

func TestMoveRotatesID(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	if _, err := f.store.Login(ctx, "old", session.Credentials{RequestedRole: session.RoleAdministrator}); err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := f.store.Move(ctx, "old", "new"); err != nil {
		t.Fatalf("move: %v", err)
	}

	if got, _ := f.store.Session(ctx, "old"); got.IsAuthenticated {
		t.Fatalf("old id still logged in: %+v", got)
	}
	if got, _ := f.store.Session(ctx, "new"); !got.Is(session.RoleAdministrator) {
		t.Fatalf("new id = %+v", got)
	}
}

type countingObserver struct{ total int }

func (c *countingObserver) ObserveSessionsPurged(n int) { c.total += n }

func TestPurgeJobRemovesExpiredRecords(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewSessionsRepo()
	now := time.Now()

	_ = repo.Put(ctx, "stale", session.Record{Role: session.RoleCustomer, ExpiresAt: now.Add(-2 * time.Hour)})
	_ = repo.Put(ctx, "grace", session.Record{Role: session.RoleCustomer, ExpiresAt: now.Add(-time.Minute)})
	_ = repo.Put(ctx, "live", session.Record{Role: session.RoleCustomer, ExpiresAt: now.Add(time.Hour)})

	obs := &countingObserver{}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	job := sessionstore.NewPurgeJob(repo, time.Hour, log, obs)

	n, err := job.Run(ctx)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if n != 1 || obs.total != 1 {
		t.Fatalf("purged %d (observed %d), want 1", n, obs.total)
	}
	if repo.Len() != 2 {
		t.Fatalf("len = %d, want 2", repo.Len())
	}
}

func TestPurgeJobStartRejectsBadSpec(t *testing.T) {
	job := sessionstore.NewPurgeJob(memory.NewSessionsRepo(), 0, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)

	if _, err := job.Start("not a cron spec"); err == nil {
		t.Fatal("expected error for invalid spec")
	}

	c, err := job.Start("")
	if err != nil {
		t.Fatalf("start with default spec: %v", err)
	}
	c.Stop()
}
