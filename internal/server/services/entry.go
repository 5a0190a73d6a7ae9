package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/cipherkeeper/internal/common"
	"github.com/dmitrijs2005/cipherkeeper/internal/server/models"
	"github.com/dmitrijs2005/cipherkeeper/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// NewEntry is a validated create request. Ciphertext and IV are stored as
// given.
type NewEntry struct {
	Platform   string
	Username   string
	Ciphertext string
	IV         string
}

// EntryService lists, creates and deletes vault entries for one user at a
// time. There is no update: changing a credential is delete plus create.
type EntryService struct {
	repos repomanager.RepositoryManager
	now   func() time.Time
}

func NewEntryService(repos repomanager.RepositoryManager) *EntryService {
	return &EntryService{repos: repos, now: time.Now}
}

// List returns userID's entries in creation order; never nil.
func (s *EntryService) List(ctx context.Context, userID string) ([]models.Entry, error) {
	var list []models.Entry
	err := s.repos.View(ctx, func(ctx context.Context, r repomanager.Repositories) error {
		var err error
		list, err = r.Entries().ListByUser(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.Entry{}
	}
	return list, nil
}

func (s *EntryService) Create(ctx context.Context, userID string, in NewEntry) (*models.Entry, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: empty user id", common.ErrorValidation)
	}

	now := s.now().UTC()
	entry := &models.Entry{
		ID:         uuid.NewString(),
		UserID:     userID,
		Platform:   in.Platform,
		Username:   in.Username,
		Ciphertext: in.Ciphertext,
		IV:         in.IV,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err := s.repos.Update(ctx, func(ctx context.Context, r repomanager.Repositories) error {
		return r.Entries().Create(ctx, entry)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Delete removes entryID if userID owns it. false means absent or owned by
// someone else, which callers cannot tell apart.
func (s *EntryService) Delete(ctx context.Context, userID, entryID string) (bool, error) {
	var removed bool
	err := s.repos.Update(ctx, func(ctx context.Context, r repomanager.Repositories) error {
		var err error
		removed, err = r.Entries().Delete(ctx, userID, entryID)
		return err
	})
	return removed, err
}
