package auth

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/dmitrijs2005/cipherkeeper/internal/common"
)

// TokenBytes is the amount of randomness in a session token (384 bits).
const TokenBytes = 48

// NewSessionToken returns a fresh opaque bearer token as lowercase hex.
func NewSessionToken() (string, error) {
	return common.MakeRandHexString(TokenBytes)
}

// HashToken is the storage form of a raw token: hex SHA-256.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
