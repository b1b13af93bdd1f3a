package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/models"
)

const maxImageUploadBytes = 10 << 20

// AccountHandler exposes profile endpoints for the authenticated account.
type AccountHandler struct {
	Sessions     SessionAuthority
	Accounts     AccountStore
	WatchHistory WatchHistoryStore
	Media        MediaStorage
	Videos       VideoStore
}

// Profile routes /api/v1/accounts/me: GET reads, PATCH updates.
func (h AccountHandler) Profile(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.Me(w, r)
	case http.MethodPatch:
		h.Update(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// Me handles GET /api/v1/accounts/me.
func (h AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	account, ok := authenticate(w, r, h.Sessions)
	if !ok {
		return
	}

	respondJSON(r.Context(), w, http.StatusOK, accountResponse{Account: toAccountPayload(account)})
}

// Update handles PATCH /api/v1/accounts/me: display name and email changes.
func (h AccountHandler) Update(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	account, ok := authenticate(w, r, h.Sessions)
	if !ok {
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	current, err := h.Accounts.FindByID(ctx, account.ID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if name := strings.TrimSpace(req.DisplayName); name != "" {
		current.DisplayName = name
	}
	if email := strings.ToLower(strings.TrimSpace(req.Email)); email != "" {
		current.Email = email
	}

	if err := h.Accounts.UpdateProfile(ctx, current); err != nil {
		logging.FromContext(ctx).Warn("profile update failed", "accountId", account.ID, "error", err)
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, accountResponse{Account: toAccountPayload(current)})
}

// Avatar handles POST /api/v1/accounts/avatar: multipart image upload.
func (h AccountHandler) Avatar(w http.ResponseWriter, r *http.Request) {
	h.uploadImage(w, r, "avatar")
}

// Cover handles POST /api/v1/accounts/cover: multipart image upload.
func (h AccountHandler) Cover(w http.ResponseWriter, r *http.Request) {
	h.uploadImage(w, r, "cover")
}

func (h AccountHandler) uploadImage(w http.ResponseWriter, r *http.Request, field string) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	account, ok := authenticate(w, r, h.Sessions)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxImageUploadBytes); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid multipart payload"})
		return
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("%s file is required", field)})
		return
	}
	defer file.Close()

	key := fmt.Sprintf("%ss/%s-%s", field, account.ID, sanitizeFilename(header.Filename))
	location, err := h.Media.Save(ctx, key, file)
	if err != nil {
		logger.Error("image upload failed", "field", field, "accountId", account.ID, "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to store image"})
		return
	}

	current, err := h.Accounts.FindByID(ctx, account.ID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	previous := current.AvatarURL
	if field == "cover" {
		previous = current.CoverURL
		current.CoverURL = location
	} else {
		current.AvatarURL = location
	}

	if err := h.Accounts.UpdateProfile(ctx, current); err != nil {
		respondError(ctx, w, err)
		return
	}

	if previous != "" {
		if err := h.Media.Delete(ctx, previous); err != nil {
			logger.Warn("failed to remove replaced image", "location", previous, "error", err)
		}
	}

	respondJSON(ctx, w, http.StatusOK, accountResponse{Account: toAccountPayload(current)})
}

// History handles /api/v1/accounts/history: POST appends a watch event,
// GET lists the watched videos, most recent first.
func (h AccountHandler) History(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.appendHistory(w, r)
	case http.MethodGet:
		h.listHistory(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h AccountHandler) appendHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	account, ok := authenticate(w, r, h.Sessions)
	if !ok {
		return
	}

	var req watchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if _, err := uuid.Parse(req.VideoID); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "valid videoId is required"})
		return
	}

	entry := models.WatchEntry{
		AccountID: account.ID,
		VideoID:   req.VideoID,
		WatchedAt: nowUTC(),
	}
	if err := h.WatchHistory.Append(ctx, entry); err != nil {
		logging.FromContext(ctx).Error("append watch history", "accountId", account.ID, "error", err)
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusCreated, map[string]string{"status": "recorded"})
}

func (h AccountHandler) listHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	account, ok := authenticate(w, r, h.Sessions)
	if !ok {
		return
	}

	entries, err := h.WatchHistory.ListForAccount(ctx, account.ID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		ids = append(ids, entry.VideoID)
	}

	videos, err := h.Videos.ListByIDs(ctx, ids)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"videos": videos})
}

type updateProfileRequest struct {
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
}

type watchRequest struct {
	VideoID string `json:"videoId"`
}

func sanitizeFilename(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, " ", "-")
	name = strings.ReplaceAll(name, "/", "-")
	if name == "" {
		name = "upload"
	}
	return name
}
