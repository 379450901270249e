package session

import "time"

// Record is what a session repository keeps for one logged-in session id.
type Record struct {
	Role       Role      `json:"role"`
	Identifier string    `json:"identifier"`
	Token      string    `json:"token"`
	IssuedAt   time.Time `json:"issuedAt"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

func (r Record) Expired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && !now.Before(r.ExpiresAt)
}
