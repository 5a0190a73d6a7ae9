package services

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/cipherkeeper/internal/logging"
	"github.com/dmitrijs2005/cipherkeeper/internal/server/docstore"
	"github.com/dmitrijs2005/cipherkeeper/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestManager(t *testing.T) *repomanager.DocumentRepositoryManager {
	t.Helper()
	m := repomanager.NewDocumentRepositoryManager(docstore.New(docstore.NewMemoryBackend()), nil)
	require.NoError(t, m.RunMigrations(context.Background()))
	return m
}

type testServices struct {
	repos    *repomanager.DocumentRepositoryManager
	sessions *SessionService
	users    *UserService
	entries  *EntryService
	gateway  *Authenticator
}

func newTestServices(t *testing.T) *testServices {
	t.Helper()
	m := newTestManager(t)
	sessions := NewSessionService(m, 0, logging.Nop{})
	return &testServices{
		repos:    m,
		sessions: sessions,
		users:    NewUserService(m, sessions, bcrypt.MinCost, logging.Nop{}),
		entries:  NewEntryService(m),
		gateway:  NewAuthenticator(sessions, m, logging.Nop{}),
	}
}

// failingManager fails every unit of work with err.
type failingManager struct{ err error }

func (f failingManager) Update(context.Context, repomanager.UnitOfWork) error { return f.err }
func (f failingManager) View(context.Context, repomanager.UnitOfWork) error   { return f.err }
func (f failingManager) RunMigrations(context.Context) error                   { return nil }
func (f failingManager) Close() error                                          { return nil }
