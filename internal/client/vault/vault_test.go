package vault

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/cipherkeeper/internal/client/api"
	"github.com/dmitrijs2005/cipherkeeper/internal/cryptox"
)

// memBackend keeps entries in memory the way the server would.
type memBackend struct {
	mu        sync.Mutex
	entries   []api.Entry
	seq       int
	listErr   error
	loggedOut bool
}

func (m *memBackend) ListEntries(context.Context) ([]api.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	return append([]api.Entry{}, m.entries...), nil
}

func (m *memBackend) CreateEntry(_ context.Context, in api.NewEntry) (*api.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	e := api.Entry{
		ID:         fmt.Sprintf("e%d", m.seq),
		Platform:   in.Platform,
		Username:   in.Username,
		Ciphertext: in.Ciphertext,
		IV:         in.IV,
		CreatedAt:  time.Now().UTC(),
	}
	e.UpdatedAt = e.CreatedAt
	m.entries = append(m.entries, e)
	return &e, nil
}

func (m *memBackend) DeleteEntry(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, e := range m.entries {
		if e.ID == id {
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			return nil
		}
	}
	return api.ErrNotFound
}

func (m *memBackend) Logout(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loggedOut = true
	return nil
}

func newSalt(t *testing.T) string {
	t.Helper()
	salt, err := cryptox.NewSalt()
	require.NoError(t, err)
	return salt
}

func TestVault_LockedRefusesCrypto(t *testing.T) {
	v := New(&memBackend{}, newSalt(t), nil)

	assert.False(t, v.Unlocked())
	_, err := v.Entries(context.Background())
	assert.ErrorIs(t, err, ErrLocked)
	_, err = v.Add(context.Background(), "GitHub", "alice", "hunter2")
	assert.ErrorIs(t, err, ErrLocked)
}

func TestVault_RoundTrip(t *testing.T) {
	ctx := context.Background()
	backend := &memBackend{}
	salt := newSalt(t)

	v := New(backend, salt, nil)
	creds, err := v.Unlock(ctx, "Password!23")
	require.NoError(t, err)
	assert.Empty(t, creds)
	assert.True(t, v.Unlocked())

	added, err := v.Add(ctx, "Example", "alice", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "hunter2", added.Password)

	stored := backend.entries[0]
	assert.NotContains(t, stored.Ciphertext, "hunter2")

	list, err := v.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "hunter2", list[0].Password)
	assert.Equal(t, "Example", list[0].Platform)

	// a fresh session with the same salt reopens the same entries
	again := New(backend, salt, nil)
	creds, err = again.Unlock(ctx, "Password!23")
	require.NoError(t, err)
	require.Len(t, creds, 1)
	assert.Equal(t, "hunter2", creds[0].Password)

	require.NoError(t, again.Delete(ctx, added.ID))
	list, err = again.Entries(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestVault_WrongPasswordWithEntries(t *testing.T) {
	ctx := context.Background()
	backend := &memBackend{}
	salt := newSalt(t)

	v := New(backend, salt, nil)
	_, err := v.Unlock(ctx, "Password!23")
	require.NoError(t, err)
	_, err = v.Add(ctx, "Example", "alice", "hunter2")
	require.NoError(t, err)

	other := New(backend, salt, nil)
	_, err = other.Unlock(ctx, "Password!24")
	assert.ErrorIs(t, err, cryptox.ErrInvalidCredentials)
	assert.False(t, other.Unlocked())

	// a failed attempt also drops a previously good key
	_, err = v.Unlock(ctx, "nope-nope")
	assert.ErrorIs(t, err, cryptox.ErrInvalidCredentials)
	assert.False(t, v.Unlocked())
}

func TestVault_CanaryGuardsEmptyVault(t *testing.T) {
	ctx := context.Background()
	salt := newSalt(t)

	first := New(&memBackend{}, salt, nil)
	_, err := first.Unlock(ctx, "Password!23")
	require.NoError(t, err)
	canary := first.Canary()
	require.NotNil(t, canary)

	wrong := New(&memBackend{}, salt, canary)
	_, err = wrong.Unlock(ctx, "Password!24")
	assert.ErrorIs(t, err, cryptox.ErrInvalidCredentials)
	assert.False(t, wrong.Unlocked())

	right := New(&memBackend{}, salt, canary)
	_, err = right.Unlock(ctx, "Password!23")
	require.NoError(t, err)
	assert.Equal(t, canary, right.Canary(), "an existing canary is kept")
}

func TestVault_TamperedEntryIsInvalidCredentials(t *testing.T) {
	ctx := context.Background()
	backend := &memBackend{}
	salt := newSalt(t)

	v := New(backend, salt, nil)
	_, err := v.Unlock(ctx, "Password!23")
	require.NoError(t, err)
	_, err = v.Add(ctx, "Example", "alice", "hunter2")
	require.NoError(t, err)

	backend.entries[0].IV = "AAAAAAAAAAAAAAAA"

	_, err = New(backend, salt, nil).Unlock(ctx, "Password!23")
	assert.ErrorIs(t, err, cryptox.ErrInvalidCredentials)
}

func TestVault_BackendErrorPassesThrough(t *testing.T) {
	boom := errors.New("offline")
	v := New(&memBackend{listErr: boom}, newSalt(t), nil)

	_, err := v.Unlock(context.Background(), "Password!23")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, cryptox.ErrInvalidCredentials)
}

func TestVault_BadSalt(t *testing.T) {
	v := New(&memBackend{}, "%%%not base64", nil)
	_, err := v.Unlock(context.Background(), "Password!23")
	assert.ErrorIs(t, err, cryptox.ErrInvalidCredentials)
	assert.False(t, v.Unlocked())
}

// gateFirstDerive makes the first key derivation wait until release is closed.
func gateFirstDerive(t *testing.T) (entered, release chan struct{}) {
	t.Helper()
	entered = make(chan struct{})
	release = make(chan struct{})
	var calls atomic.Int32

	prev := deriveKey
	deriveKey = func(password, salt string) (*cryptox.Key, error) {
		if calls.Add(1) == 1 {
			close(entered)
			<-release
		}
		return cryptox.DeriveKey(password, salt)
	}
	t.Cleanup(func() { deriveKey = prev })
	return entered, release
}

func TestVault_StaleUnlockIsDiscarded(t *testing.T) {
	ctx := context.Background()
	backend := &memBackend{}
	v := New(backend, newSalt(t), nil)

	entered, release := gateFirstDerive(t)

	stale := make(chan error, 1)
	go func() {
		_, err := v.Unlock(ctx, "Password!23")
		stale <- err
	}()
	<-entered

	_, err := v.Unlock(ctx, "Password!23")
	require.NoError(t, err)
	_, err = v.Add(ctx, "Example", "alice", "hunter2")
	require.NoError(t, err)

	close(release)
	assert.ErrorIs(t, <-stale, ErrSuperseded)

	assert.True(t, v.Unlocked(), "the newer key stays installed")
	list, err := v.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "hunter2", list[0].Password)
}

func TestVault_LockDuringUnlock(t *testing.T) {
	v := New(&memBackend{}, newSalt(t), nil)
	entered, release := gateFirstDerive(t)

	done := make(chan error, 1)
	go func() {
		_, err := v.Unlock(context.Background(), "Password!23")
		done <- err
	}()
	<-entered

	v.Lock()
	close(release)

	assert.ErrorIs(t, <-done, ErrSuperseded)
	assert.False(t, v.Unlocked())
}

func TestVault_Logout(t *testing.T) {
	backend := &memBackend{}
	v := New(backend, newSalt(t), nil)
	_, err := v.Unlock(context.Background(), "Password!23")
	require.NoError(t, err)

	require.NoError(t, v.Logout(context.Background()))
	assert.False(t, v.Unlocked())
	assert.True(t, backend.loggedOut)
}

func TestDecryptAll_PreservesOrder(t *testing.T) {
	key, err := cryptox.DeriveKey("Password!23", newSalt(t))
	require.NoError(t, err)

	var entries []api.Entry
	for i := 0; i < 20; i++ {
		s, err := cryptox.Encrypt(key, fmt.Sprintf("secret-%d", i))
		require.NoError(t, err)
		entries = append(entries, api.Entry{ID: fmt.Sprint(i), Ciphertext: s.Ciphertext, IV: s.IV})
	}

	out, err := decryptAll(context.Background(), key, entries)
	require.NoError(t, err)
	for i, c := range out {
		assert.Equal(t, fmt.Sprintf("secret-%d", i), c.Password)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = decryptAll(ctx, key, entries)
	assert.ErrorIs(t, err, context.Canceled)
}
