package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/cipherkeeper/internal/dbx"
	"github.com/dmitrijs2005/cipherkeeper/internal/server/migrations"
	"github.com/dmitrijs2005/cipherkeeper/internal/server/repositories/entries"
	"github.com/dmitrijs2005/cipherkeeper/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/cipherkeeper/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// storeLockID is the advisory lock key every unit of work takes.
const storeLockID int64 = 0x63_6b_65_65_70

// PostgresRepositoryManager runs each unit of work in its own transaction
// holding a shared advisory lock, so writers are serialized across all
// server processes using the same database.
type PostgresRepositoryManager struct {
	db *sql.DB
}

// NewPostgresRepositoryManager opens a pgx-backed *sql.DB for dsn.
func NewPostgresRepositoryManager(ctx context.Context, dsn string) (*PostgresRepositoryManager, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return NewPostgresRepositoryManagerFromDB(db), nil
}

func NewPostgresRepositoryManagerFromDB(db *sql.DB) *PostgresRepositoryManager {
	return &PostgresRepositoryManager{db: db}
}

func postgresRepos(tx dbx.DBTX) Repositories {
	return &repositories{
		users:    users.NewPostgresRepository(tx),
		sessions: sessions.NewPostgresRepository(tx),
		entries:  entries.NewPostgresRepository(tx),
	}
}

func (m *PostgresRepositoryManager) Update(ctx context.Context, fn UnitOfWork) error {
	return dbx.WithLockedTx(ctx, m.db, storeLockID, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, postgresRepos(tx))
	})
}

func (m *PostgresRepositoryManager) View(ctx context.Context, fn UnitOfWork) error {
	return m.Update(ctx, fn)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and applies them.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, m.db, ".")
}

func (m *PostgresRepositoryManager) Close() error {
	return m.db.Close()
}
