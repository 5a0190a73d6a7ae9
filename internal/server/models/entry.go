package models

import "time"

// Entry is one stored credential. Ciphertext and IV are opaque base64 values
// produced by the client; the server never interprets them.
type Entry struct {
	ID         string    `json:"id" db:"id"`
	UserID     string    `json:"userId" db:"user_id"`
	Platform   string    `json:"platform" db:"platform"`
	Username   string    `json:"username" db:"username"`
	Ciphertext string    `json:"ciphertext" db:"ciphertext"`
	IV         string    `json:"iv" db:"iv"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt" db:"updated_at"`
}
