package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/geocoder89/busguard/internal/domain/session"
)

var ErrCircuitOpen = errors.New("circuit breaker open")

type ProtectedConfig struct {
	Timeout          time.Duration // hard timeout per call
	FailureThreshold int           // consecutive failures to open circuit
	Cooldown         time.Duration // how long to stay open before half-open
	HalfOpenMaxCalls int           // allow N trial calls in half-open
}

type breakerState string

const (
	stateClosed   breakerState = "closed"
	stateOpen     breakerState = "open"
	stateHalfOpen breakerState = "half_open"
)

// ProtectedAuthenticator puts a timeout and a circuit breaker in front of
// another Authenticator. Rejected credentials count as healthy calls.
type ProtectedAuthenticator struct {
	inner Authenticator
	cfg   ProtectedConfig
	now   func() time.Time
	mu    sync.Mutex

	state breakerState

	consecutiveFailures int
	openedAt            time.Time
	halfOpenInFlight    int
}

func NewProtectedAuthenticator(inner Authenticator, cfg ProtectedConfig) *ProtectedAuthenticator {
	//defaults
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Second
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 3
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 15 * time.Second
	}
	if cfg.HalfOpenMaxCalls <= 0 {
		cfg.HalfOpenMaxCalls = 1
	}

	return &ProtectedAuthenticator{
		inner: inner,
		cfg:   cfg,
		now:   time.Now,
		state: stateClosed,
	}
}

func (a *ProtectedAuthenticator) WithClock(now func() time.Time) *ProtectedAuthenticator {
	a.now = now
	return a
}

func (a *ProtectedAuthenticator) State() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return string(a.state)
}

func (a *ProtectedAuthenticator) Authenticate(ctx context.Context, creds session.Credentials) (Grant, error) {
	// fail-fast gate
	if !a.allowRequest() {
		return Grant{}, fmt.Errorf("%w: %v", session.ErrServiceUnavailable, ErrCircuitOpen)
	}

	callCtx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	grant, err := a.inner.Authenticate(callCtx, creds)

	a.afterRequest(err)

	if err != nil && errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, session.ErrServiceUnavailable) {
		return Grant{}, fmt.Errorf("%w: %v", session.ErrServiceUnavailable, err)
	}

	return grant, err
}

func (a *ProtectedAuthenticator) allowRequest() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch a.state {
	case stateClosed:
		return true
	case stateOpen:
		// cooldown has passed? move to half open
		if a.now().Sub(a.openedAt) >= a.cfg.Cooldown {
			a.state = stateHalfOpen
			a.halfOpenInFlight = 1
			return true
		}
		return false
	case stateHalfOpen:
		if a.halfOpenInFlight >= a.cfg.HalfOpenMaxCalls {
			return false
		}
		a.halfOpenInFlight++
		return true
	default:
		return true
	}
}

func (a *ProtectedAuthenticator) afterRequest(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	// half-open call just finished
	if a.state == stateHalfOpen && a.halfOpenInFlight > 0 {
		a.halfOpenInFlight--
	}

	if !isServiceFailure(err) {
		// success => close circuit and reset counters
		a.consecutiveFailures = 0
		a.state = stateClosed
		return
	}

	a.consecutiveFailures++

	// if half-open failed, reopen immediately
	if a.state == stateHalfOpen {
		a.state = stateOpen
		a.openedAt = a.now()
		return
	}

	if a.consecutiveFailures >= a.cfg.FailureThreshold {
		a.state = stateOpen
		a.openedAt = a.now()
	}
}

func isServiceFailure(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, session.ErrInvalidCredentials) || errors.Is(err, session.ErrUnknownRole) {
		return false
	}
	// caller went away; says nothing about the service
	if errors.Is(err, context.Canceled) {
		return false
	}
	return true
}
