// Package cryptox implements the client-side envelope encryption used for
// vault entries: a PBKDF2-SHA256 derived AES-256 key and AES-GCM sealing with
// a fresh IV per call. Binary values travel as standard padded base64.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/cipherkeeper/internal/common"
	"golang.org/x/crypto/pbkdf2"
)

const (
	// KeyIterations is the PBKDF2 work factor. Changing it makes every
	// existing ciphertext undecryptable.
	KeyIterations = 250_000
	// KeySize is the AES-256 key length in bytes.
	KeySize = 32
	// IVSize is the AES-GCM nonce length in bytes.
	IVSize = 12
	// SaltSize is the length of a freshly generated encryption salt.
	SaltSize = 16
)

var (
	// ErrInvalidCredentials is returned for every decryption failure: wrong
	// key, tampered ciphertext, malformed base64 or a bad IV.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrKeyDestroyed is returned when a wiped key is used.
	ErrKeyDestroyed = errors.New("encryption key destroyed")
)

// Key is a derived AES-256 key. Its bytes never leave the package.
type Key struct {
	b []byte
}

// Sealed is the output of Encrypt: base64 ciphertext (with the GCM tag
// appended) and the base64 IV it was sealed under.
type Sealed struct {
	Ciphertext string `json:"ciphertext"`
	IV         string `json:"iv"`
}

// NewSalt returns SaltSize random bytes as base64, suitable as a user's
// encryption salt.
func NewSalt() (string, error) {
	return common.MakeRandBase64String(SaltSize)
}

// DeriveKey stretches password with the base64-encoded salt. The same inputs
// always produce the same key.
func DeriveKey(password, saltBase64 string) (*Key, error) {
	salt, err := base64.StdEncoding.DecodeString(saltBase64)
	if err != nil {
		return nil, fmt.Errorf("decode salt: %w", err)
	}
	return &Key{b: pbkdf2.Key([]byte(password), salt, KeyIterations, KeySize, sha256.New)}, nil
}

// Destroy wipes the key material. The key is unusable afterwards.
func (k *Key) Destroy() {
	if k == nil {
		return
	}
	common.WipeByteArray(k.b)
	k.b = nil
}

// Destroyed reports whether Destroy has been called.
func (k *Key) Destroyed() bool {
	return k == nil || k.b == nil
}

func (k *Key) aead() (cipher.AEAD, error) {
	if k.Destroyed() {
		return nil, ErrKeyDestroyed
	}
	block, err := aes.NewCipher(k.b)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Encrypt seals plaintext with a fresh random IV.
func Encrypt(key *Key, plaintext string) (*Sealed, error) {
	aesgcm, err := key.aead()
	if err != nil {
		return nil, err
	}

	iv := make([]byte, IVSize)
	if _, err := rand.Read(iv); err != nil {
		return nil, err
	}

	ciphertext := aesgcm.Seal(nil, iv, []byte(plaintext), nil)

	return &Sealed{
		Ciphertext: base64.StdEncoding.EncodeToString(ciphertext),
		IV:         base64.StdEncoding.EncodeToString(iv),
	}, nil
}

// Decrypt opens a value produced by Encrypt. Any failure is reported as
// ErrInvalidCredentials.
func Decrypt(key *Key, ciphertextBase64, ivBase64 string) (string, error) {
	aesgcm, err := key.aead()
	if err != nil {
		return "", ErrInvalidCredentials
	}

	ciphertext, err := base64.StdEncoding.DecodeString(ciphertextBase64)
	if err != nil {
		return "", ErrInvalidCredentials
	}
	iv, err := base64.StdEncoding.DecodeString(ivBase64)
	if err != nil || len(iv) != aesgcm.NonceSize() {
		return "", ErrInvalidCredentials
	}

	plaintext, err := aesgcm.Open(nil, iv, ciphertext, nil)
	if err != nil {
		return "", ErrInvalidCredentials
	}
	return string(plaintext), nil
}

// Open is Decrypt for a Sealed value.
func (s Sealed) Open(key *Key) (string, error) {
	return Decrypt(key, s.Ciphertext, s.IV)
}
