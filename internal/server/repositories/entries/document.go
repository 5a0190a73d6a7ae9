package entries

import (
	"context"
	"slices"

	"github.com/dmitrijs2005/cipherkeeper/internal/server/models"
)

// DocumentRepository keeps entries in the entries collection of a loaded
// document; slice order is creation order.
type DocumentRepository struct {
	doc *models.Document
}

func NewDocumentRepository(doc *models.Document) *DocumentRepository {
	return &DocumentRepository{doc: doc}
}

func (r *DocumentRepository) Create(_ context.Context, entry *models.Entry) error {
	r.doc.Entries = append(r.doc.Entries, *entry)
	return nil
}

func (r *DocumentRepository) ListByUser(_ context.Context, userID string) ([]models.Entry, error) {
	result := []models.Entry{}
	for _, e := range r.doc.Entries {
		if e.UserID == userID {
			result = append(result, e)
		}
	}
	return result, nil
}

func (r *DocumentRepository) Delete(_ context.Context, userID, entryID string) (bool, error) {
	before := len(r.doc.Entries)
	r.doc.Entries = slices.DeleteFunc(r.doc.Entries, func(e models.Entry) bool {
		return e.ID == entryID && e.UserID == userID
	})
	return len(r.doc.Entries) != before, nil
}
