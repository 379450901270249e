package user

import (
	"errors"
	"time"

	"github.com/geocoder89/busguard/internal/domain/session"
)

var (
	ErrNotFound         = errors.New("user not found")
	ErrEmailAlreadyUsed = errors.New("email already used")
)

// User is an account that may sign in when password authentication is on.
type User struct {
	ID           string       `json:"id"`
	Email        string       `json:"email"`
	PasswordHash string       `json:"-"` // never expose hash in JSON
	Name         string       `json:"name"`
	Role         session.Role `json:"role"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}
