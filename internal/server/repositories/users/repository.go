// Package users persists user accounts.
package users

import (
	"context"

	"github.com/dmitrijs2005/cipherkeeper/internal/server/models"
)

// Repository stores users keyed by ID with a unique lowercased email.
// Create returns common.ErrorAlreadyExists on a duplicate email; lookups
// return common.ErrorNotFound.
type Repository interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
}
