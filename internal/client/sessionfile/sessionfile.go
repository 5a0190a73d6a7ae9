// Package sessionfile persists the CLI's server session between
// invocations. It stores the bearer token, the public user, the encryption
// salt and the sealed canary. The master password and the derived key are
// never written.
package sessionfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/cipherkeeper/internal/client/api"
	"github.com/dmitrijs2005/cipherkeeper/internal/cryptox"
	"github.com/dmitrijs2005/cipherkeeper/internal/filex"
)

// ErrNoSession is returned by Load when there is no usable session on disk.
var ErrNoSession = errors.New("not logged in")

type Session struct {
	Token          string          `json:"token"`
	User           api.User        `json:"user"`
	EncryptionSalt string          `json:"encryptionSalt"`
	ExpiresAt      time.Time       `json:"expiresAt"`
	Canary         *cryptox.Sealed `json:"canary,omitempty"`
}

// FromLogin converts a login response into a Session.
func FromLogin(s *api.Session) *Session {
	return &Session{
		Token:          s.Token,
		User:           s.User,
		EncryptionSalt: s.EncryptionSalt,
		ExpiresAt:      s.ExpiresAt,
	}
}

// Expired reports whether the server has certainly dropped the session.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !s.ExpiresAt.After(now)
}

// DefaultPath is session.json under the user config directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "cipherkeeper", "session.json"), nil
}

// Load reads the session at path. A missing file or an expired session is
// ErrNoSession.
func Load(path string, now time.Time) (*Session, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, err
	}

	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("session file %s: %w", path, err)
	}
	if s.Token == "" || s.Expired(now) {
		return nil, ErrNoSession
	}
	return &s, nil
}

// Save writes s to path with owner-only permissions.
func Save(path string, s *Session) error {
	raw, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return filex.WriteAtomic(path, raw, 0o600)
}

// Remove deletes the session file; a missing file is not an error.
func Remove(path string) error {
	err := os.Remove(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
