// Package httpserver exposes the vault over a JSON HTTP API: account
// registration, login and logout, and per-user encrypted entries.
package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/dmitrijs2005/cipherkeeper/internal/logging"
	"github.com/dmitrijs2005/cipherkeeper/internal/server/models"
	"github.com/dmitrijs2005/cipherkeeper/internal/server/services"
)

// UserService is the account side of the API.
type UserService interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.User, error)
	Login(ctx context.Context, email, password string) (*services.LoginResult, error)
	Logout(ctx context.Context, token string) error
}

// EntryService is the vault side of the API.
type EntryService interface {
	List(ctx context.Context, userID string) ([]models.Entry, error)
	Create(ctx context.Context, userID string, in services.NewEntry) (*models.Entry, error)
	Delete(ctx context.Context, userID, entryID string) (bool, error)
}

// Authenticator resolves a raw session token.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*services.Principal, error)
}

// Options tune the HTTP surface.
type Options struct {
	Addr           string
	Production     bool
	RequestTimeout time.Duration
	// AuthRateLimit is requests per minute per IP on /api/auth; 0 disables it.
	AuthRateLimit int
	SessionTTL    time.Duration
	// Ready, when set, backs /healthz.
	Ready func(ctx context.Context) error
}

type Server struct {
	opts     Options
	users    UserService
	entries  EntryService
	auth     Authenticator
	validate *validator.Validate
	logger   logging.Logger
	handler  http.Handler
}

func New(opts Options, users UserService, entries EntryService, auth Authenticator, logger logging.Logger) *Server {
	s := &Server{
		opts:     opts,
		users:    users,
		entries:  entries,
		auth:     auth,
		validate: newValidator(),
		logger:   logger.With("module", "http"),
	}
	s.handler = s.routes()
	return s
}

// Handler returns the fully wired router.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	for _, mw := range s.middlewareStack() {
		r.Use(mw)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeErrorMessage(w, http.StatusNotFound, msgNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeErrorMessage(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Use(s.authRateLimit())
			r.Post("/register", s.handleRegister)
			r.Post("/login", s.handleLogin)
			r.Post("/logout", s.handleLogout)
		})
		r.Route("/entries", func(r chi.Router) {
			r.Use(s.requireSession)
			r.Get("/", s.handleListEntries)
			r.Post("/", s.handleCreateEntry)
			r.Delete("/{id}", s.handleDeleteEntry)
		})
	})

	return r
}

// Run serves on opts.Addr until ctx is cancelled, then drains in-flight
// requests for up to five seconds.
func (s *Server) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, lis)
}

func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "http server listening", "addr", lis.Addr().String())
		errCh <- srv.Serve(lis)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	s.logger.Info(ctx, "http server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
