package session

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnknownRole        = errors.New("unknown role")
	ErrServiceUnavailable = errors.New("authentication service unavailable")
	ErrSessionExpired     = errors.New("session expired")

	// ErrRoleSwitch is returned when a logged-in session asks to log in
	// under another role without logging out first.
	ErrRoleSwitch = errors.New("role switch requires logout")

	// ErrNoSession is returned by repositories for unknown session ids.
	ErrNoSession = errors.New("session not found")
)
