package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrijs2005/cipherkeeper/internal/common"
	"github.com/dmitrijs2005/cipherkeeper/internal/server/models"
	"github.com/dmitrijs2005/cipherkeeper/internal/server/services"
)

type userResponse struct {
	User models.PublicUser `json:"user"`
}

type loginResponse struct {
	Token          string            `json:"token"`
	User           models.PublicUser `json:"user"`
	EncryptionSalt string            `json:"encryptionSalt"`
	ExpiresAt      time.Time         `json:"expiresAt"`
}

type entriesResponse struct {
	Entries []models.Entry `json:"entries"`
}

type entryResponse struct {
	Entry models.Entry `json:"entry"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.opts.Ready != nil {
		if err := s.opts.Ready(r.Context()); err != nil {
			s.logger.Warn(r.Context(), "health check failed", "error", err)
			writeJSONStatus(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decode(w, r, s.validate, &req); err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}

	user, err := s.users.Register(r.Context(), services.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}

	writeJSONStatus(w, http.StatusCreated, userResponse{User: user.Public()})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(w, r, s.validate, &req); err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}

	res, err := s.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if isUnauthorized(err) {
			writeErrorMessage(w, http.StatusUnauthorized, msgInvalidLogin)
			return
		}
		writeError(r.Context(), w, s.logger, err)
		return
	}

	s.setSessionCookie(w, res.Token)
	writeJSON(w, loginResponse{
		Token:          res.Token,
		User:           res.User,
		EncryptionSalt: res.EncryptionSalt,
		ExpiresAt:      res.ExpiresAt.UTC(),
	})
}

// handleLogout always succeeds from the client's point of view; an unknown
// or missing token is not an error.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := TokenFromRequest(r); token != "" {
		if err := s.users.Logout(r.Context(), token); err != nil {
			writeError(r.Context(), w, s.logger, err)
			return
		}
	}

	s.clearSessionCookie(w)
	writeJSON(w, successBody{Success: true})
}

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFromContext(r.Context())
	if !ok {
		writeError(r.Context(), w, s.logger, common.ErrorUnauthorized)
		return
	}

	list, err := s.entries.List(r.Context(), p.User.ID)
	if err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}
	if list == nil {
		list = []models.Entry{}
	}

	writeJSON(w, entriesResponse{Entries: list})
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFromContext(r.Context())
	if !ok {
		writeError(r.Context(), w, s.logger, common.ErrorUnauthorized)
		return
	}

	var req entryRequest
	if err := decode(w, r, s.validate, &req); err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}

	e, err := s.entries.Create(r.Context(), p.User.ID, services.NewEntry{
		Platform:   req.Platform,
		Username:   req.Username,
		Ciphertext: req.Ciphertext,
		IV:         req.IV,
	})
	if err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}

	writeJSONStatus(w, http.StatusCreated, entryResponse{Entry: *e})
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFromContext(r.Context())
	if !ok {
		writeError(r.Context(), w, s.logger, common.ErrorUnauthorized)
		return
	}

	removed, err := s.entries.Delete(r.Context(), p.User.ID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(r.Context(), w, s.logger, err)
		return
	}
	if !removed {
		writeErrorMessage(w, http.StatusNotFound, msgNotFound)
		return
	}

	writeJSON(w, successBody{Success: true})
}
