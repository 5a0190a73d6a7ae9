package models

import "time"

// Session binds a token to a user. TokenHash is the hex SHA-256 of the raw
// token; the raw token itself is never stored.
type Session struct {
	TokenHash string    `json:"token" db:"token_hash"`
	UserID    string    `json:"userId" db:"user_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	ExpiresAt time.Time `json:"expiresAt" db:"expires_at"`
}

// Expired reports whether the session is no longer valid at now. A session
// whose expiry equals now is already expired.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}
