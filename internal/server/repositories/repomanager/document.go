package repomanager

import (
	"context"
	"io"

	"github.com/dmitrijs2005/cipherkeeper/internal/server/docstore"
	"github.com/dmitrijs2005/cipherkeeper/internal/server/models"
	"github.com/dmitrijs2005/cipherkeeper/internal/server/repositories/entries"
	"github.com/dmitrijs2005/cipherkeeper/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/cipherkeeper/internal/server/repositories/users"
)

// DocumentRepositoryManager serves repositories over a docstore.Store.
type DocumentRepositoryManager struct {
	store  *docstore.Store
	closer io.Closer
}

// NewDocumentRepositoryManager wraps store. closer, if non-nil, is released
// by Close (for example a redis client).
func NewDocumentRepositoryManager(store *docstore.Store, closer io.Closer) *DocumentRepositoryManager {
	return &DocumentRepositoryManager{store: store, closer: closer}
}

func documentRepos(doc *models.Document) Repositories {
	return &repositories{
		users:    users.NewDocumentRepository(doc),
		sessions: sessions.NewDocumentRepository(doc),
		entries:  entries.NewDocumentRepository(doc),
	}
}

func (m *DocumentRepositoryManager) Update(ctx context.Context, fn UnitOfWork) error {
	return m.store.Update(ctx, func(doc *models.Document) error {
		return fn(ctx, documentRepos(doc))
	})
}

func (m *DocumentRepositoryManager) View(ctx context.Context, fn UnitOfWork) error {
	return m.store.View(ctx, func(doc *models.Document) error {
		return fn(ctx, documentRepos(doc))
	})
}

func (m *DocumentRepositoryManager) RunMigrations(ctx context.Context) error {
	return m.store.Init(ctx)
}

func (m *DocumentRepositoryManager) Close() error {
	if m.closer == nil {
		return nil
	}
	return m.closer.Close()
}
