package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/cipherkeeper/internal/client/api"
	"github.com/dmitrijs2005/cipherkeeper/internal/client/config"
	"github.com/dmitrijs2005/cipherkeeper/internal/client/sessionfile"
	"github.com/dmitrijs2005/cipherkeeper/internal/client/vault"
	"github.com/dmitrijs2005/cipherkeeper/internal/common"
	"github.com/dmitrijs2005/cipherkeeper/internal/cryptox"
)

// errRelogin is shown when the stored session is gone server-side.
var errRelogin = errors.New("session expired or revoked, run `cipherkeeper login`")

type App struct {
	config *config.Config
	in     *bufio.Reader
	out    io.Writer
	now    func() time.Time
}

func NewApp(in io.Reader, out io.Writer) *App {
	return &App{in: bufio.NewReader(in), out: out, now: time.Now}
}

func (a *App) client() *api.Client {
	return api.New(a.config.Server, a.config.Timeout)
}

// session loads the stored session and a client carrying its token.
func (a *App) session() (*sessionfile.Session, *api.Client, error) {
	s, err := sessionfile.Load(a.config.SessionFile, a.now())
	if err != nil {
		return nil, nil, err
	}
	c := a.client()
	c.SetToken(s.Token)
	return s, c, nil
}

// unlock prompts for the master password and opens the vault for s.
func (a *App) unlock(ctx context.Context, s *sessionfile.Session, c *api.Client) (*vault.Vault, []vault.Credential, error) {
	pw, err := GetPassword("Master password", a.out)
	if err != nil {
		return nil, nil, err
	}
	defer common.WipeByteArray(pw)

	return a.unlockWith(ctx, s, c, string(pw))
}

func (a *App) unlockWith(ctx context.Context, s *sessionfile.Session, c *api.Client, password string) (*vault.Vault, []vault.Credential, error) {
	v := vault.New(c, s.EncryptionSalt, s.Canary)
	creds, err := v.Unlock(ctx, password)
	if err != nil {
		return nil, nil, a.explain(err)
	}

	if s.Canary == nil && v.Canary() != nil {
		s.Canary = v.Canary()
		if err := sessionfile.Save(a.config.SessionFile, s); err != nil {
			fmt.Fprintf(a.out, "warning: could not save session: %v\n", err)
		}
	}
	return v, creds, nil
}

// explain turns well-known errors into user-facing ones. An unauthorized
// answer also drops the stale session file.
func (a *App) explain(err error) error {
	switch {
	case errors.Is(err, api.ErrUnauthorized):
		_ = sessionfile.Remove(a.config.SessionFile)
		return errRelogin
	case errors.Is(err, sessionfile.ErrNoSession):
		return errors.New("not logged in, run `cipherkeeper login`")
	case errors.Is(err, cryptox.ErrInvalidCredentials):
		return errors.New("invalid credentials")
	case errors.Is(err, api.ErrUnavailable):
		return fmt.Errorf("cannot reach %s", a.config.Server)
	default:
		return err
	}
}

func defaultApp() *App {
	return NewApp(os.Stdin, os.Stdout)
}
