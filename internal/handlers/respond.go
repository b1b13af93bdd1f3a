package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/relations"
	"github.com/clipstream/backend/internal/repositories"
)

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
		return
	}

	logger := logging.FromContext(ctx)
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", "status", status, "response", payload)
	case status >= http.StatusBadRequest:
		logger.Warn("request returned client error", "status", status, "response", payload)
	}
}

// respondError maps domain errors onto stable HTTP statuses and messages.
// Raw internal detail stays in the logs; the response body never carries it.
func respondError(ctx context.Context, w http.ResponseWriter, err error) {
	status, message := classify(err)
	if status >= http.StatusInternalServerError {
		logging.FromContext(ctx).Error("request error", "error", err)
	}
	respondJSON(ctx, w, status, map[string]string{"error": message})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, auth.ErrMissingField),
		errors.Is(err, relations.ErrInvalidID),
		errors.Is(err, relations.ErrUnknownKind):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized, "invalid token"
	case errors.Is(err, auth.ErrStaleRefreshToken):
		return http.StatusUnauthorized, "refresh token expired or reused"
	case errors.Is(err, repositories.ErrConflict):
		return http.StatusConflict, "resource already exists"
	case errors.Is(err, repositories.ErrNotFound):
		return http.StatusNotFound, "resource not found"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func nowUTC() time.Time {
	return time.Now().UTC()
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// authenticate resolves the request's bearer token into an account or writes
// a 401. The boolean reports whether the caller may proceed.
func authenticate(w http.ResponseWriter, r *http.Request, sessions SessionAuthority) (models.Account, bool) {
	ctx := r.Context()

	token := bearerToken(r)
	if token == "" {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "missing bearer token"})
		return models.Account{}, false
	}

	account, err := sessions.Authenticate(ctx, token)
	if err != nil {
		logging.FromContext(ctx).Warn("bearer token rejected", "error", err)
		respondError(ctx, w, err)
		return models.Account{}, false
	}

	return account, true
}
