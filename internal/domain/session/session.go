package session

import (
	"encoding/json"
	"fmt"
)

// Role is one of the access levels the route guard authorizes sections for.
type Role string

const (
	RoleAdministrator Role = "administrator"
	RoleCustomer      Role = "customer"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdministrator, RoleCustomer:
		return true
	default:
		return false
	}
}

func (r Role) String() string { return string(r) }

// ParseRole accepts the canonical role names only.
func ParseRole(raw string) (Role, error) {
	r := Role(raw)
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, raw)
	}
	return r, nil
}

// Session is the in-memory view of who is logged in and as what.
// Role is empty exactly when IsAuthenticated is false.
type Session struct {
	IsAuthenticated bool `json:"isAuthenticated"`
	Role            Role `json:"role"`
}

func LoggedOut() Session {
	return Session{}
}

func LoggedIn(role Role) (Session, error) {
	if !role.Valid() {
		return Session{}, fmt.Errorf("%w: %q", ErrUnknownRole, string(role))
	}
	return Session{IsAuthenticated: true, Role: role}, nil
}

func (s Session) Valid() bool {
	if s.IsAuthenticated {
		return s.Role.Valid()
	}
	return s.Role == ""
}

// Is reports whether the session is logged in under the given role.
func (s Session) Is(role Role) bool {
	return s.IsAuthenticated && s.Role == role
}

// MarshalJSON renders a logged-out role as null.
func (r Role) MarshalJSON() ([]byte, error) {
	if r == "" {
		return []byte("null"), nil
	}
	return json.Marshal(string(r))
}

func (r *Role) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*r = ""
		return nil
	}

	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	parsed, err := ParseRole(raw)
	if err != nil {
		return err
	}

	*r = parsed
	return nil
}

// Credentials are consumed by login and never stored.
type Credentials struct {
	Identifier    string
	Secret        string
	RequestedRole Role
}
