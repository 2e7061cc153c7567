package models

import "time"

// Session identifies the caller of a ledger operation. It is issued at login,
// revoked at logout and passed explicitly to every operation that needs a user.
type Session struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session is past its expiry at now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}
