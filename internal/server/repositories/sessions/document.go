package sessions

import (
	"context"
	"slices"
	"time"

	"github.com/dmitrijs2005/cipherkeeper/internal/common"
	"github.com/dmitrijs2005/cipherkeeper/internal/server/models"
)

// DocumentRepository keeps sessions in the sessions collection of a loaded
// document.
type DocumentRepository struct {
	doc *models.Document
}

func NewDocumentRepository(doc *models.Document) *DocumentRepository {
	return &DocumentRepository{doc: doc}
}

func (r *DocumentRepository) Create(_ context.Context, s *models.Session) error {
	r.doc.Sessions = append(r.doc.Sessions, *s)
	return nil
}

func (r *DocumentRepository) GetByHash(_ context.Context, tokenHash string) (*models.Session, error) {
	for i := range r.doc.Sessions {
		if r.doc.Sessions[i].TokenHash == tokenHash {
			s := r.doc.Sessions[i]
			return &s, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *DocumentRepository) DeleteByHash(_ context.Context, tokenHash string) error {
	r.doc.Sessions = slices.DeleteFunc(r.doc.Sessions, func(s models.Session) bool {
		return s.TokenHash == tokenHash
	})
	return nil
}

func (r *DocumentRepository) DeleteByUser(_ context.Context, userID string) error {
	r.doc.Sessions = slices.DeleteFunc(r.doc.Sessions, func(s models.Session) bool {
		return s.UserID == userID
	})
	return nil
}

func (r *DocumentRepository) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	before := len(r.doc.Sessions)
	r.doc.Sessions = slices.DeleteFunc(r.doc.Sessions, func(s models.Session) bool {
		return s.Expired(now)
	})
	return int64(before - len(r.doc.Sessions)), nil
}
