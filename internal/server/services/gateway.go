package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/cipherkeeper/internal/common"
	"github.com/dmitrijs2005/cipherkeeper/internal/logging"
	"github.com/dmitrijs2005/cipherkeeper/internal/server/models"
	"github.com/dmitrijs2005/cipherkeeper/internal/server/repositories/repomanager"
)

// Principal is the authenticated caller of a request.
type Principal struct {
	User    models.User
	Session models.Session
}

// Authenticator turns a raw bearer token into a Principal.
type Authenticator struct {
	sessions *SessionService
	repos    repomanager.RepositoryManager
	logger   logging.Logger
}

func NewAuthenticator(sessions *SessionService, repos repomanager.RepositoryManager, logger logging.Logger) *Authenticator {
	return &Authenticator{sessions: sessions, repos: repos, logger: logger.With("module", "gateway")}
}

// Authenticate returns common.ErrorUnauthorized for a missing, unknown or
// expired token and for a session whose user is gone. Store errors are
// logged and returned wrapped in common.ErrorInternal.
func (a *Authenticator) Authenticate(ctx context.Context, token string) (*Principal, error) {
	if token == "" {
		return nil, common.ErrorUnauthorized
	}

	session, err := a.sessions.GetSession(ctx, token)
	if err != nil {
		return nil, a.classify(ctx, err)
	}

	var user *models.User
	err = a.repos.View(ctx, func(ctx context.Context, r repomanager.Repositories) error {
		var err error
		user, err = r.Users().GetByID(ctx, session.UserID)
		return err
	})
	if err != nil {
		return nil, a.classify(ctx, err)
	}

	return &Principal{User: *user, Session: *session}, nil
}

func (a *Authenticator) classify(ctx context.Context, err error) error {
	if errors.Is(err, common.ErrorNotFound) {
		return common.ErrorUnauthorized
	}
	a.logger.Error(ctx, "authentication lookup failed", "error", err)
	return fmt.Errorf("%w: %w", common.ErrorInternal, err)
}
