package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/cipherkeeper/internal/logging"
	"github.com/dmitrijs2005/cipherkeeper/internal/server/docstore"
	"github.com/dmitrijs2005/cipherkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/cipherkeeper/internal/server/services"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testEnv struct {
	srv     *httptest.Server
	users   *services.UserService
	entries *services.EntryService
}

func newTestEnv(t *testing.T, opts Options) *testEnv {
	t.Helper()
	return newTestEnvWithBackend(t, opts, docstore.NewMemoryBackend())
}

func newTestEnvWithBackend(t *testing.T, opts Options, backend docstore.Backend) *testEnv {
	t.Helper()

	repos := repomanager.NewDocumentRepositoryManager(docstore.New(backend), nil)
	require.NoError(t, repos.RunMigrations(context.Background()))

	sessions := services.NewSessionService(repos, time.Hour, logging.Nop{})
	users := services.NewUserService(repos, sessions, bcrypt.MinCost, logging.Nop{})
	entries := services.NewEntryService(repos)
	gateway := services.NewAuthenticator(sessions, repos, logging.Nop{})

	if opts.SessionTTL == 0 {
		opts.SessionTTL = 24 * time.Hour
	}
	s := New(opts, users, entries, gateway, logging.Nop{})

	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	return &testEnv{srv: srv, users: users, entries: entries}
}

type reqOpt func(*http.Request)

func bearer(token string) reqOpt {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func cookie(token string) reqOpt {
	return func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "sessionToken", Value: token}) }
}

func (e *testEnv) do(t *testing.T, method, path string, body any, opts ...reqOpt) (*http.Response, map[string]any) {
	t.Helper()

	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rdr = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rdr = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, e.srv.URL+path, rdr)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for _, o := range opts {
		o(req)
	}

	resp, err := e.srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp, out
}

var aliceCreds = map[string]string{"name": "Alice", "email": "alice@example.com", "password": "Password!23"}

// signIn registers alice and returns her session token.
func (e *testEnv) signIn(t *testing.T) string {
	t.Helper()
	resp, _ := e.do(t, http.MethodPost, "/api/auth/register", aliceCreds)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := e.do(t, http.MethodPost, "/api/auth/login",
		map[string]string{"email": aliceCreds["email"], "password": aliceCreds["password"]})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return body["token"].(string)
}
