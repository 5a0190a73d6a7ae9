// Package sessions stores login sessions keyed by the hash of their token.
package sessions

import (
	"context"
	"time"

	"github.com/dmitrijs2005/cipherkeeper/internal/server/models"
)

// Repository persists sessions. GetByHash returns common.ErrorNotFound for an
// unknown hash; deletes of absent rows are not errors.
type Repository interface {
	Create(ctx context.Context, session *models.Session) error
	GetByHash(ctx context.Context, tokenHash string) (*models.Session, error)
	DeleteByHash(ctx context.Context, tokenHash string) error
	DeleteByUser(ctx context.Context, userID string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
