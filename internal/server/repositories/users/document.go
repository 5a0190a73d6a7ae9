package users

import (
	"context"

	"github.com/dmitrijs2005/cipherkeeper/internal/common"
	"github.com/dmitrijs2005/cipherkeeper/internal/server/models"
)

// DocumentRepository works on an in-memory document that the caller loads
// and saves under the store lock.
type DocumentRepository struct {
	doc *models.Document
}

func NewDocumentRepository(doc *models.Document) *DocumentRepository {
	return &DocumentRepository{doc: doc}
}

func (r *DocumentRepository) Create(_ context.Context, user *models.User) error {
	for i := range r.doc.Users {
		if r.doc.Users[i].Email == user.Email {
			return common.ErrorAlreadyExists
		}
	}
	r.doc.Users = append(r.doc.Users, *user)
	return nil
}

func (r *DocumentRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for i := range r.doc.Users {
		if r.doc.Users[i].Email == email {
			u := r.doc.Users[i]
			return &u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *DocumentRepository) GetByID(_ context.Context, id string) (*models.User, error) {
	for i := range r.doc.Users {
		if r.doc.Users[i].ID == id {
			u := r.doc.Users[i]
			return &u, nil
		}
	}
	return nil, common.ErrorNotFound
}
