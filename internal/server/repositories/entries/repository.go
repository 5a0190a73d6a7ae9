// Package entries persists encrypted vault entries. Every read and delete is
// scoped to the owning user.
package entries

import (
	"context"

	"github.com/dmitrijs2005/cipherkeeper/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, entry *models.Entry) error
	// ListByUser returns the user's entries in creation order.
	ListByUser(ctx context.Context, userID string) ([]models.Entry, error)
	// Delete removes the entry only if userID owns it and reports whether a
	// row was removed.
	Delete(ctx context.Context, userID, entryID string) (bool, error)
}
