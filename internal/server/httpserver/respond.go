package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/cipherkeeper/internal/common"
	"github.com/dmitrijs2005/cipherkeeper/internal/logging"
)

// Error messages as seen by clients.
const (
	msgValidation   = "Validation failed"
	msgUserExists   = "User already exists"
	msgInvalidLogin = "Invalid credentials"
	msgUnauthorized = "Unauthorized"
	msgNotFound     = "Not found"
	msgInternal     = "Internal server error"
)

type errorBody struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

type successBody struct {
	Success bool `json:"success"`
}

func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorMessage(w http.ResponseWriter, code int, msg string) {
	writeJSONStatus(w, code, errorBody{Error: msg})
}

// writeError maps a service error onto a status and a generic message.
// Anything it does not recognise is logged and reported as a 500 without
// detail.
func writeError(ctx context.Context, w http.ResponseWriter, logger logging.Logger, err error) {
	var verr *validationError
	switch {
	case errors.As(err, &verr):
		writeJSONStatus(w, http.StatusBadRequest, errorBody{Error: msgValidation, Details: verr.details()})
	case errors.Is(err, common.ErrorValidation):
		writeErrorMessage(w, http.StatusBadRequest, msgValidation)
	case errors.Is(err, common.ErrorAlreadyExists):
		writeErrorMessage(w, http.StatusConflict, msgUserExists)
	case errors.Is(err, common.ErrorUnauthorized):
		writeErrorMessage(w, http.StatusUnauthorized, msgUnauthorized)
	case errors.Is(err, common.ErrorNotFound):
		writeErrorMessage(w, http.StatusNotFound, msgNotFound)
	case errors.Is(err, context.Canceled):
		// client went away, nobody to answer
	case errors.Is(err, context.DeadlineExceeded) && ctx.Err() != nil:
		// the request deadline passed; middleware.Timeout answers 504
	default:
		logger.Error(ctx, "request failed", "error", err)
		writeErrorMessage(w, http.StatusInternalServerError, msgInternal)
	}
}

func isUnauthorized(err error) bool {
	return errors.Is(err, common.ErrorUnauthorized)
}
