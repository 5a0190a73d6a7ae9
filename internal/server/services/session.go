// Package services contains server-side business logic: accounts, sessions,
// request authentication and the vault entry lifecycle. Every persistent
// change goes through repomanager.RepositoryManager.Update.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/cipherkeeper/internal/common"
	"github.com/dmitrijs2005/cipherkeeper/internal/logging"
	"github.com/dmitrijs2005/cipherkeeper/internal/server/auth"
	"github.com/dmitrijs2005/cipherkeeper/internal/server/models"
	"github.com/dmitrijs2005/cipherkeeper/internal/server/repositories/repomanager"
)

// IssuedSession is returned once at login. Token is the only copy of the raw
// token; the store keeps its hash.
type IssuedSession struct {
	Token     string
	ExpiresAt time.Time
}

// SessionService issues, resolves and revokes opaque session tokens. A user
// has at most one live session: issuing a new one evicts the rest.
type SessionService struct {
	repos  repomanager.RepositoryManager
	ttl    time.Duration
	now    func() time.Time
	logger logging.Logger
}

func NewSessionService(repos repomanager.RepositoryManager, ttl time.Duration, logger logging.Logger) *SessionService {
	if ttl <= 0 {
		ttl = common.DefaultSessionTTL
	}
	return &SessionService{
		repos:  repos,
		ttl:    ttl,
		now:    time.Now,
		logger: logger.With("module", "sessions"),
	}
}

// CreateSession replaces every session of userID with a fresh one.
func (s *SessionService) CreateSession(ctx context.Context, userID string) (*IssuedSession, error) {
	token, err := auth.NewSessionToken()
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	now := s.now().UTC()
	session := &models.Session{
		TokenHash: auth.HashToken(token),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	err = s.repos.Update(ctx, func(ctx context.Context, r repomanager.Repositories) error {
		if err := r.Sessions().DeleteByUser(ctx, userID); err != nil {
			return err
		}
		return r.Sessions().Create(ctx, session)
	})
	if err != nil {
		return nil, err
	}

	return &IssuedSession{Token: token, ExpiresAt: session.ExpiresAt}, nil
}

// GetSession resolves a raw token. Unknown and expired tokens both yield
// common.ErrorNotFound; an expired session is deleted on the way out.
func (s *SessionService) GetSession(ctx context.Context, token string) (*models.Session, error) {
	if token == "" {
		return nil, common.ErrorNotFound
	}
	hash := auth.HashToken(token)

	var session *models.Session
	err := s.repos.View(ctx, func(ctx context.Context, r repomanager.Repositories) error {
		var err error
		session, err = r.Sessions().GetByHash(ctx, hash)
		return err
	})
	if err != nil {
		return nil, err
	}

	if !session.Expired(s.now()) {
		return session, nil
	}

	err = s.repos.Update(ctx, func(ctx context.Context, r repomanager.Repositories) error {
		return r.Sessions().DeleteByHash(ctx, hash)
	})
	if err != nil {
		s.logger.Warn(ctx, "failed to delete expired session", "error", err)
	}
	return nil, common.ErrorNotFound
}

// RemoveSession deletes the session for token if there is one.
func (s *SessionService) RemoveSession(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	hash := auth.HashToken(token)
	return s.repos.Update(ctx, func(ctx context.Context, r repomanager.Repositories) error {
		return r.Sessions().DeleteByHash(ctx, hash)
	})
}

// PurgeExpired deletes every expired session and returns how many went.
func (s *SessionService) PurgeExpired(ctx context.Context) (int64, error) {
	var n int64
	err := s.repos.Update(ctx, func(ctx context.Context, r repomanager.Repositories) error {
		var err error
		n, err = r.Sessions().DeleteExpired(ctx, s.now())
		return err
	})
	return n, err
}

// RunSweeper calls PurgeExpired every interval until ctx is done.
func (s *SessionService) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.PurgeExpired(ctx)
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					s.logger.Error(ctx, "session sweep failed", "error", err)
				}
				continue
			}
			if n > 0 {
				s.logger.Info(ctx, "expired sessions purged", "count", n)
			}
		}
	}
}
