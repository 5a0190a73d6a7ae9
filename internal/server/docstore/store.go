// Package docstore keeps the whole server state as one JSON document and
// applies every change as a read-modify-write under a single lock. The
// document lives in a pluggable Backend: a local file, a redis key or an S3
// object.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/cipherkeeper/internal/server/models"
	"golang.org/x/sync/semaphore"
)

// ErrNoDocument is returned by Backend.Load when nothing has been saved yet.
var ErrNoDocument = errors.New("document does not exist")

// Backend loads and saves the raw encoded document. Save replaces the
// previous contents as a whole.
type Backend interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
}

// Store serializes all access to a Backend. Both reads and updates hold the
// lock for the whole load/modify/save cycle, so two updates never interleave.
type Store struct {
	lock    *semaphore.Weighted
	backend Backend
}

func New(b Backend) *Store {
	return &Store{lock: semaphore.NewWeighted(1), backend: b}
}

// Init writes an empty document if the backend has none yet.
func (s *Store) Init(ctx context.Context) error {
	if err := s.lock.Acquire(ctx, 1); err != nil {
		return err
	}
	defer s.lock.Release(1)

	_, err := s.backend.Load(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrNoDocument) {
		return fmt.Errorf("load document: %w", err)
	}
	return s.save(ctx, models.NewDocument())
}

// View loads the current document and passes it to fn. Changes fn makes are
// discarded.
func (s *Store) View(ctx context.Context, fn func(doc *models.Document) error) error {
	if err := s.lock.Acquire(ctx, 1); err != nil {
		return err
	}
	defer s.lock.Release(1)

	doc, err := s.load(ctx)
	if err != nil {
		return err
	}
	return fn(doc)
}

// Update loads the document, applies fn and saves the result. If fn fails
// nothing is written.
func (s *Store) Update(ctx context.Context, fn func(doc *models.Document) error) error {
	if err := s.lock.Acquire(ctx, 1); err != nil {
		return err
	}
	defer s.lock.Release(1)

	doc, err := s.load(ctx)
	if err != nil {
		return err
	}
	if err := fn(doc); err != nil {
		return err
	}
	return s.save(ctx, doc)
}

func (s *Store) load(ctx context.Context) (*models.Document, error) {
	data, err := s.backend.Load(ctx)
	if errors.Is(err, ErrNoDocument) {
		return models.NewDocument(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}

	doc := &models.Document{}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	doc.Normalize()
	return doc, nil
}

func (s *Store) save(ctx context.Context, doc *models.Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	if err := s.backend.Save(ctx, data); err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	return nil
}
