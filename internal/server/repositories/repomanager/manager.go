// Package repomanager hands out repositories bound to one unit of work. All
// mutations go through Update, which holds the store-wide lock for the whole
// read-modify-write; View takes the same lock for reads.
package repomanager

import (
	"context"

	"github.com/dmitrijs2005/cipherkeeper/internal/server/repositories/entries"
	"github.com/dmitrijs2005/cipherkeeper/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/cipherkeeper/internal/server/repositories/users"
)

// Repositories is the set of repositories visible inside one unit of work.
type Repositories interface {
	Users() users.Repository
	Sessions() sessions.Repository
	Entries() entries.Repository
}

// UnitOfWork receives the repositories for the duration of a View or Update.
// They must not be retained after it returns.
type UnitOfWork func(ctx context.Context, repos Repositories) error

type RepositoryManager interface {
	// Update runs fn exclusively; its changes are persisted only if fn
	// returns nil.
	Update(ctx context.Context, fn UnitOfWork) error
	View(ctx context.Context, fn UnitOfWork) error
	// RunMigrations prepares the backing store (schema or empty document).
	RunMigrations(ctx context.Context) error
	Close() error
}

type repositories struct {
	users    users.Repository
	sessions sessions.Repository
	entries  entries.Repository
}

func (r *repositories) Users() users.Repository       { return r.users }
func (r *repositories) Sessions() sessions.Repository { return r.sessions }
func (r *repositories) Entries() entries.Repository   { return r.entries }
