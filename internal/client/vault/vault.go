// Package vault holds the client side of a session: the server session, the
// key derived from the master password and the decrypted view of the
// user's entries.
//
// There is no separate "check master password" step. A candidate key is
// accepted only if it opens every stored entry, or the canary when the
// vault is empty; any failure is cryptox.ErrInvalidCredentials.
package vault

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/cipherkeeper/internal/client/api"
	"github.com/dmitrijs2005/cipherkeeper/internal/cryptox"
)

var (
	// ErrLocked is returned by operations that need the key while none is held.
	ErrLocked = errors.New("vault is locked")
	// ErrSuperseded is returned by an Unlock that finished after a newer
	// Unlock or Lock started; its result was discarded.
	ErrSuperseded = errors.New("unlock superseded")
)

const canaryPlaintext = "cipherkeeper:canary:v1"

// deriveKey is swapped in tests that need to observe or slow down derivation.
var deriveKey = cryptox.DeriveKey

// Backend is the part of the API client the vault uses.
type Backend interface {
	ListEntries(ctx context.Context) ([]api.Entry, error)
	CreateEntry(ctx context.Context, in api.NewEntry) (*api.Entry, error)
	DeleteEntry(ctx context.Context, id string) error
	Logout(ctx context.Context) error
}

// Credential is a decrypted entry.
type Credential struct {
	ID        string
	Platform  string
	Username  string
	Password  string
	CreatedAt time.Time
}

type Vault struct {
	backend Backend
	salt    string

	// gen counts Unlock and Lock calls; an Unlock only installs its key if
	// no other call started since.
	genMu  sync.Mutex
	gen    uint64
	canary *cryptox.Sealed

	// keyMu guards key. Crypto work holds it for reading so Lock cannot
	// wipe a key that is in use.
	keyMu sync.RWMutex
	key   *cryptox.Key
}

// New returns a locked vault. salt is the user's encryptionSalt; canary is
// the sealed canary from a previous run, or nil.
func New(backend Backend, salt string, canary *cryptox.Sealed) *Vault {
	return &Vault{backend: backend, salt: salt, canary: canary}
}

// Unlocked reports whether a key is held.
func (v *Vault) Unlocked() bool {
	v.keyMu.RLock()
	defer v.keyMu.RUnlock()
	return v.key != nil
}

// Canary returns the sealed canary to persist alongside the session, if any.
func (v *Vault) Canary() *cryptox.Sealed {
	v.genMu.Lock()
	defer v.genMu.Unlock()
	if v.canary == nil {
		return nil
	}
	c := *v.canary
	return &c
}

func (v *Vault) nextGeneration() uint64 {
	v.genMu.Lock()
	defer v.genMu.Unlock()
	v.gen++
	return v.gen
}

// Unlock derives a key from password and proves it against the stored
// entries. On success the key is installed and the decrypted entries are
// returned. A wrong password yields cryptox.ErrInvalidCredentials and leaves
// the vault locked.
func (v *Vault) Unlock(ctx context.Context, password string) ([]Credential, error) {
	gen := v.nextGeneration()

	key, err := deriveKey(password, v.salt)
	if err != nil {
		v.rejected(gen)
		return nil, fmt.Errorf("%w: %w", cryptox.ErrInvalidCredentials, err)
	}

	creds, canary, err := v.prove(ctx, key)
	if err != nil {
		key.Destroy()
		if errors.Is(err, cryptox.ErrInvalidCredentials) {
			v.rejected(gen)
		}
		return nil, err
	}

	v.genMu.Lock()
	if v.gen != gen {
		v.genMu.Unlock()
		key.Destroy()
		return nil, ErrSuperseded
	}
	if canary != nil {
		v.canary = canary
	}
	v.installKey(key)
	v.genMu.Unlock()

	return creds, nil
}

// rejected drops the held key after a failed Unlock, unless a newer Unlock
// or Lock already took over.
func (v *Vault) rejected(gen uint64) {
	v.genMu.Lock()
	defer v.genMu.Unlock()
	if v.gen == gen {
		v.dropKey()
	}
}

// prove checks key against the server's entries or, with none stored, the
// canary. When there is nothing to check against yet, a canary is sealed
// under key and returned.
func (v *Vault) prove(ctx context.Context, key *cryptox.Key) ([]Credential, *cryptox.Sealed, error) {
	entries, err := v.backend.ListEntries(ctx)
	if err != nil {
		return nil, nil, err
	}

	if len(entries) > 0 {
		creds, err := decryptAll(ctx, key, entries)
		return creds, nil, err
	}

	if existing := v.Canary(); existing != nil {
		if got, err := existing.Open(key); err != nil || got != canaryPlaintext {
			return nil, nil, cryptox.ErrInvalidCredentials
		}
		return []Credential{}, nil, nil
	}

	sealed, err := cryptox.Encrypt(key, canaryPlaintext)
	if err != nil {
		return nil, nil, err
	}
	return []Credential{}, sealed, nil
}

func (v *Vault) installKey(key *cryptox.Key) {
	v.keyMu.Lock()
	old := v.key
	v.key = key
	v.keyMu.Unlock()
	old.Destroy()
}

func (v *Vault) dropKey() {
	v.installKey(nil)
}

// Lock wipes the key and invalidates any Unlock still in flight.
func (v *Vault) Lock() {
	v.nextGeneration()
	v.dropKey()
}

// Entries fetches and decrypts every entry.
func (v *Vault) Entries(ctx context.Context) ([]Credential, error) {
	if !v.Unlocked() {
		return nil, ErrLocked
	}

	entries, err := v.backend.ListEntries(ctx)
	if err != nil {
		return nil, err
	}

	v.keyMu.RLock()
	defer v.keyMu.RUnlock()
	if v.key == nil {
		return nil, ErrLocked
	}
	return decryptAll(ctx, v.key, entries)
}

// Add encrypts password under the held key and stores a new entry.
func (v *Vault) Add(ctx context.Context, platform, username, password string) (*Credential, error) {
	sealed, err := v.seal(password)
	if err != nil {
		return nil, err
	}

	e, err := v.backend.CreateEntry(ctx, api.NewEntry{
		Platform:   platform,
		Username:   username,
		Ciphertext: sealed.Ciphertext,
		IV:         sealed.IV,
	})
	if err != nil {
		return nil, err
	}

	return &Credential{
		ID:        e.ID,
		Platform:  e.Platform,
		Username:  e.Username,
		Password:  password,
		CreatedAt: e.CreatedAt,
	}, nil
}

func (v *Vault) seal(plaintext string) (*cryptox.Sealed, error) {
	v.keyMu.RLock()
	defer v.keyMu.RUnlock()
	if v.key == nil {
		return nil, ErrLocked
	}
	return cryptox.Encrypt(v.key, plaintext)
}

// Delete removes an entry. It does not need the key.
func (v *Vault) Delete(ctx context.Context, id string) error {
	return v.backend.DeleteEntry(ctx, id)
}

// Logout locks the vault and ends the server session. The vault is locked
// even if the server call fails.
func (v *Vault) Logout(ctx context.Context) error {
	v.Lock()
	return v.backend.Logout(ctx)
}

// decryptAll opens entries in parallel. Order is preserved; the first
// failure cancels the rest and is reported as ErrInvalidCredentials.
func decryptAll(ctx context.Context, key *cryptox.Key, entries []api.Entry) ([]Credential, error) {
	out := make([]Credential, len(entries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, e := range entries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			plain, err := cryptox.Decrypt(key, e.Ciphertext, e.IV)
			if err != nil {
				return err
			}
			out[i] = Credential{
				ID:        e.ID,
				Platform:  e.Platform,
				Username:  e.Username,
				Password:  plain,
				CreatedAt: e.CreatedAt,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, cryptox.ErrInvalidCredentials
	}
	return out, nil
}
