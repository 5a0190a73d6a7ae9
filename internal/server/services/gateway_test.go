package services

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/dmitrijs2005/cipherkeeper/internal/common"
	"github.com/dmitrijs2005/cipherkeeper/internal/logging"
	"github.com/dmitrijs2005/cipherkeeper/internal/server/models"
	"github.com/dmitrijs2005/cipherkeeper/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthenticate_Collapses(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()

	u, err := svc.users.Register(ctx, alice)
	require.NoError(t, err)
	res, err := svc.users.Login(ctx, alice.Email, alice.Password)
	require.NoError(t, err)

	p, err := svc.gateway.Authenticate(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, u.Email, p.User.Email)
	assert.Equal(t, u.ID, p.Session.UserID)

	for name, token := range map[string]string{"empty": "", "garbage": "not-a-token"} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.gateway.Authenticate(ctx, token)
			assert.ErrorIs(t, err, common.ErrorUnauthorized)
		})
	}
}

func TestAuthenticate_Expired(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()

	_, err := svc.users.Register(ctx, alice)
	require.NoError(t, err)
	res, err := svc.users.Login(ctx, alice.Email, alice.Password)
	require.NoError(t, err)

	svc.sessions.now = func() time.Time { return res.ExpiresAt.Add(time.Second) }

	_, err = svc.gateway.Authenticate(ctx, res.Token)
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestAuthenticate_SessionForMissingUser(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()

	issued, err := svc.sessions.CreateSession(ctx, "ghost")
	require.NoError(t, err)

	_, err = svc.gateway.Authenticate(ctx, issued.Token)
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
}

// userLookupFails serves sessions from a working store but fails user reads.
type userLookupFails struct {
	repomanager.RepositoryManager
	calls int
}

func (u *userLookupFails) View(ctx context.Context, fn repomanager.UnitOfWork) error {
	u.calls++
	if u.calls > 1 {
		return errors.New("replica lag")
	}
	return u.RepositoryManager.View(ctx, fn)
}

func TestAuthenticate_StoreErrorIsInternal(t *testing.T) {
	base := newTestManager(t)
	sessions := NewSessionService(base, time.Hour, logging.Nop{})
	issued, err := sessions.CreateSession(context.Background(), "u1")
	require.NoError(t, err)
	require.NoError(t, base.Update(context.Background(), func(ctx context.Context, r repomanager.Repositories) error {
		return r.Users().Create(ctx, &models.User{ID: "u1", Email: "a@b.c"})
	}))

	var buf bytes.Buffer
	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	gw := NewAuthenticator(sessions, &userLookupFails{RepositoryManager: base}, log)

	_, err = gw.Authenticate(context.Background(), issued.Token)
	assert.ErrorIs(t, err, common.ErrorInternal)
	assert.NotErrorIs(t, err, common.ErrorUnauthorized)
	assert.Contains(t, buf.String(), "replica lag")
}

func TestAuthenticate_SessionLookupFailureIsInternal(t *testing.T) {
	gw := NewAuthenticator(NewSessionService(failingManager{err: errors.New("disk gone")}, time.Hour, logging.Nop{}),
		failingManager{err: errors.New("disk gone")}, logging.Nop{})

	_, err := gw.Authenticate(context.Background(), "some-token")
	assert.ErrorIs(t, err, common.ErrorInternal)
	assert.ErrorContains(t, err, "disk gone")
}
