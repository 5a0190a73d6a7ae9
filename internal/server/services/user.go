package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/cipherkeeper/internal/common"
	"github.com/dmitrijs2005/cipherkeeper/internal/cryptox"
	"github.com/dmitrijs2005/cipherkeeper/internal/logging"
	"github.com/dmitrijs2005/cipherkeeper/internal/server/auth"
	"github.com/dmitrijs2005/cipherkeeper/internal/server/models"
	"github.com/dmitrijs2005/cipherkeeper/internal/server/repositories/repomanager"
	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// RegisterInput carries already validated registration fields.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// LoginResult is everything a client needs after login: the raw token, the
// public profile and the salt for deriving its encryption key.
type LoginResult struct {
	Token          string
	User           models.PublicUser
	EncryptionSalt string
	ExpiresAt      time.Time
}

// UserService provides account operations:
// - Register: create a user with a bcrypt hash and a fresh encryption salt
// - Login: verify credentials and open a session
type UserService struct {
	repos    repomanager.RepositoryManager
	sessions *SessionService
	cost     int
	now      func() time.Time
	logger   logging.Logger
}

// NewUserService constructs a UserService. cost is the bcrypt work factor.
func NewUserService(repos repomanager.RepositoryManager, sessions *SessionService, cost int, logger logging.Logger) *UserService {
	return &UserService{
		repos:    repos,
		sessions: sessions,
		cost:     cost,
		now:      time.Now,
		logger:   logger.With("module", "users"),
	}
}

var lowerEmail = cases.Lower(language.Und)

// NormalizeEmail is the canonical stored form of an email address.
func NormalizeEmail(email string) string {
	return lowerEmail.String(email)
}

// Register creates a user. A taken email yields common.ErrorAlreadyExists.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	email := NormalizeEmail(in.Email)

	// cheap pre-check so a duplicate does not pay for bcrypt
	err := s.repos.View(ctx, func(ctx context.Context, r repomanager.Repositories) error {
		_, err := r.Users().GetByEmail(ctx, email)
		return err
	})
	switch {
	case err == nil:
		return nil, common.ErrorAlreadyExists
	case !errors.Is(err, common.ErrorNotFound):
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password, s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	salt, err := cryptox.NewSalt()
	if err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}

	user := &models.User{
		ID:             uuid.NewString(),
		Email:          email,
		Name:           in.Name,
		PasswordHash:   hash,
		EncryptionSalt: salt,
		CreatedAt:      s.now().UTC(),
	}

	err = s.repos.Update(ctx, func(ctx context.Context, r repomanager.Repositories) error {
		return r.Users().Create(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "user registered", "user_id", user.ID)
	return user, nil
}

// Login checks the password and opens a new session, evicting any previous
// one. Unknown email and wrong password are both common.ErrorUnauthorized.
func (s *UserService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var user *models.User
	err := s.repos.View(ctx, func(ctx context.Context, r repomanager.Repositories) error {
		var err error
		user, err = r.Users().GetByEmail(ctx, NormalizeEmail(email))
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, err
	}

	if !auth.VerifyPassword(password, user.PasswordHash) {
		return nil, common.ErrorUnauthorized
	}

	issued, err := s.sessions.CreateSession(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		Token:          issued.Token,
		User:           user.Public(),
		EncryptionSalt: user.EncryptionSalt,
		ExpiresAt:      issued.ExpiresAt,
	}, nil
}

// Logout revokes the session for token. Unknown tokens are ignored.
func (s *UserService) Logout(ctx context.Context, token string) error {
	return s.sessions.RemoveSession(ctx, token)
}
