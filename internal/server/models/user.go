// Package models holds the persisted server-side records.
package models

import "time"

// User is an account. Email is stored lowercased and is unique.
// EncryptionSalt is fixed at registration and is the client's PBKDF2 salt.
type User struct {
	ID             string    `json:"id" db:"id"`
	Email          string    `json:"email" db:"email"`
	Name           string    `json:"name" db:"name"`
	PasswordHash   string    `json:"passwordHash" db:"password_hash"`
	EncryptionSalt string    `json:"encryptionSalt" db:"encryption_salt"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
}

// PublicUser is the subset of User that is ever sent to clients.
type PublicUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Email: u.Email, Name: u.Name}
}
