package cryptox

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// base64("0123456789abcdef")
const testSalt = "MDEyMzQ1Njc4OWFiY2RlZg=="

func TestDeriveKey_Deterministic(t *testing.T) {
	key1, err := DeriveKey("Password!23", testSalt)
	require.NoError(t, err)
	key2, err := DeriveKey("Password!23", testSalt)
	require.NoError(t, err)

	assert.Equal(t, key1.b, key2.b)
	assert.Len(t, key1.b, KeySize)

	// PBKDF2-HMAC-SHA256, 250000 iterations, 32 bytes.
	expectedHex := "e319f64422f967f0806a31cdd51acc9f7bcddc2fd92c18bc5775f746acb19ef4"
	assert.Equal(t, expectedHex, hex.EncodeToString(key1.b))
}

func TestDeriveKey_DifferentInputs(t *testing.T) {
	other := base64.StdEncoding.EncodeToString([]byte("fedcba9876543210"))

	key1, err := DeriveKey("Password!23", testSalt)
	require.NoError(t, err)
	key2, err := DeriveKey("Password!23", other)
	require.NoError(t, err)
	key3, err := DeriveKey("Password!24", testSalt)
	require.NoError(t, err)

	assert.NotEqual(t, key1.b, key2.b)
	assert.NotEqual(t, key1.b, key3.b)
}

func TestDeriveKey_BadSalt(t *testing.T) {
	_, err := DeriveKey("Password!23", "%%%not-base64")
	require.Error(t, err)
}

func TestEncryptDecrypt(t *testing.T) {
	key, err := DeriveKey("Password!23", testSalt)
	require.NoError(t, err)

	tests := []string{"hunter2", "", "päss wörd ✓", string(make([]byte, 4096))}
	for _, plaintext := range tests {
		sealed, err := Encrypt(key, plaintext)
		require.NoError(t, err)

		iv, err := base64.StdEncoding.DecodeString(sealed.IV)
		require.NoError(t, err)
		assert.Len(t, iv, IVSize)

		got, err := Decrypt(key, sealed.Ciphertext, sealed.IV)
		require.NoError(t, err)
		assert.Equal(t, plaintext, got)
	}
}

func TestEncrypt_FreshIVPerCall(t *testing.T) {
	key, err := DeriveKey("Password!23", testSalt)
	require.NoError(t, err)

	a, err := Encrypt(key, "hunter2")
	require.NoError(t, err)
	b, err := Encrypt(key, "hunter2")
	require.NoError(t, err)

	assert.NotEqual(t, a.IV, b.IV)
	assert.NotEqual(t, a.Ciphertext, b.Ciphertext)
}

func TestDecrypt_FailuresAreCoarse(t *testing.T) {
	key, err := DeriveKey("Password!23", testSalt)
	require.NoError(t, err)
	wrong, err := DeriveKey("wrong-password", testSalt)
	require.NoError(t, err)

	sealed, err := Encrypt(key, "hunter2")
	require.NoError(t, err)

	raw, _ := base64.StdEncoding.DecodeString(sealed.Ciphertext)
	raw[0] ^= 0xff
	tampered := base64.StdEncoding.EncodeToString(raw)

	cases := []struct {
		name       string
		key        *Key
		ciphertext string
		iv         string
	}{
		{"wrong key", wrong, sealed.Ciphertext, sealed.IV},
		{"tampered ciphertext", key, tampered, sealed.IV},
		{"bad base64 ciphertext", key, "***", sealed.IV},
		{"bad base64 iv", key, sealed.Ciphertext, "***"},
		{"short iv", key, sealed.Ciphertext, base64.StdEncoding.EncodeToString([]byte{1, 2, 3})},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decrypt(tc.key, tc.ciphertext, tc.iv)
			assert.True(t, errors.Is(err, ErrInvalidCredentials), "got %v", err)
		})
	}
}

func TestKey_Destroy(t *testing.T) {
	key, err := DeriveKey("Password!23", testSalt)
	require.NoError(t, err)
	sealed, err := Encrypt(key, "hunter2")
	require.NoError(t, err)

	material := key.b
	key.Destroy()

	assert.True(t, key.Destroyed())
	for _, b := range material {
		require.Zero(t, b)
	}

	_, err = Encrypt(key, "x")
	assert.ErrorIs(t, err, ErrKeyDestroyed)
	_, err = sealed.Open(key)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	var nilKey *Key
	nilKey.Destroy()
	assert.True(t, nilKey.Destroyed())
}

func TestNewSalt(t *testing.T) {
	s, err := NewSalt()
	require.NoError(t, err)
	raw, err := base64.StdEncoding.DecodeString(s)
	require.NoError(t, err)
	assert.Len(t, raw, SaltSize)
}
