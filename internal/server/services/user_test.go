package services

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/dmitrijs2005/cipherkeeper/internal/common"
	"github.com/dmitrijs2005/cipherkeeper/internal/cryptox"
	"github.com/dmitrijs2005/cipherkeeper/internal/logging"
	"github.com/dmitrijs2005/cipherkeeper/internal/server/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var alice = RegisterInput{Name: "Alice", Email: "alice@example.com", Password: "Password!23"}

func TestRegister_CreatesUser(t *testing.T) {
	svc := newTestServices(t)

	u, err := svc.users.Register(context.Background(), RegisterInput{Name: "Alice", Email: "Alice@Example.COM", Password: "Password!23"})
	require.NoError(t, err)

	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.Equal(t, "Alice", u.Name)
	assert.False(t, u.CreatedAt.IsZero())

	assert.NotEqual(t, "Password!23", u.PasswordHash)
	assert.True(t, strings.HasPrefix(u.PasswordHash, "$2a$"))
	assert.True(t, auth.VerifyPassword("Password!23", u.PasswordHash))

	salt, err := base64.StdEncoding.DecodeString(u.EncryptionSalt)
	require.NoError(t, err)
	assert.Len(t, salt, cryptox.SaltSize)
}

func TestRegister_DuplicateEmailCaseInsensitive(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()

	_, err := svc.users.Register(ctx, alice)
	require.NoError(t, err)

	_, err = svc.users.Register(ctx, RegisterInput{Name: "Other", Email: "ALICE@example.com", Password: "different1"})
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)
}

func TestRegister_SaltsAreIndependent(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()

	a, err := svc.users.Register(ctx, alice)
	require.NoError(t, err)
	b, err := svc.users.Register(ctx, RegisterInput{Name: "Bob", Email: "bob@example.com", Password: "Password!23"})
	require.NoError(t, err)

	assert.NotEqual(t, a.EncryptionSalt, b.EncryptionSalt)
	assert.NotEqual(t, a.PasswordHash, b.PasswordHash)
}

func TestLogin_Success(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()

	u, err := svc.users.Register(ctx, alice)
	require.NoError(t, err)

	res, err := svc.users.Login(ctx, "ALICE@example.com", "Password!23")
	require.NoError(t, err)

	assert.Len(t, res.Token, auth.TokenBytes*2)
	assert.Equal(t, u.Public(), res.User)
	assert.Equal(t, u.EncryptionSalt, res.EncryptionSalt)
	assert.True(t, res.ExpiresAt.After(u.CreatedAt))

	p, err := svc.gateway.Authenticate(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, p.User.ID)
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()

	_, err := svc.users.Register(ctx, alice)
	require.NoError(t, err)

	_, errWrongPassword := svc.users.Login(ctx, "alice@example.com", "Password!24")
	_, errUnknownUser := svc.users.Login(ctx, "nobody@example.com", "Password!23")

	assert.ErrorIs(t, errWrongPassword, common.ErrorUnauthorized)
	assert.ErrorIs(t, errUnknownUser, common.ErrorUnauthorized)
	assert.Equal(t, errWrongPassword.Error(), errUnknownUser.Error())
}

func TestLogin_SecondLoginEvictsFirst(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()

	_, err := svc.users.Register(ctx, alice)
	require.NoError(t, err)

	first, err := svc.users.Login(ctx, alice.Email, alice.Password)
	require.NoError(t, err)
	second, err := svc.users.Login(ctx, alice.Email, alice.Password)
	require.NoError(t, err)

	_, err = svc.gateway.Authenticate(ctx, first.Token)
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
	_, err = svc.gateway.Authenticate(ctx, second.Token)
	assert.NoError(t, err)
}

func TestLogout(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()

	_, err := svc.users.Register(ctx, alice)
	require.NoError(t, err)
	res, err := svc.users.Login(ctx, alice.Email, alice.Password)
	require.NoError(t, err)

	require.NoError(t, svc.users.Logout(ctx, res.Token))
	require.NoError(t, svc.users.Logout(ctx, res.Token))

	_, err = svc.gateway.Authenticate(ctx, res.Token)
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestUserService_StoreErrors(t *testing.T) {
	boom := errors.New("store down")
	m := failingManager{err: boom}
	svc := NewUserService(m, NewSessionService(m, 0, logging.Nop{}), bcrypt.MinCost, logging.Nop{})
	ctx := context.Background()

	_, err := svc.Register(ctx, alice)
	assert.ErrorIs(t, err, boom)

	_, err = svc.Login(ctx, alice.Email, alice.Password)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, common.ErrorUnauthorized)
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "alice@example.com", NormalizeEmail("Alice@EXAMPLE.com"))
	assert.Equal(t, "user@example.com", NormalizeEmail("user@example.com"))
}
