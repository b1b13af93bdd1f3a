package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/models"
)

// PlaylistHandler provides endpoints for account-owned video playlists.
type PlaylistHandler struct {
	Sessions  SessionAuthority
	Playlists PlaylistStore
	Videos    VideoStore
}

// Handle routes /api/v1/playlists: POST creates, GET fetches one or lists the
// caller's playlists when no id is given.
func (h PlaylistHandler) Handle(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.create(w, r)
	case http.MethodGet:
		h.get(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h PlaylistHandler) create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	account, ok := authenticate(w, r, h.Sessions)
	if !ok {
		return
	}

	var req createPlaylistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "playlist name is required"})
		return
	}

	now := nowUTC()
	playlist := models.Playlist{
		ID:          uuid.NewString(),
		OwnerID:     account.ID,
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.Playlists.Create(ctx, playlist); err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusCreated, map[string]any{"playlist": playlist})
}

func (h PlaylistHandler) get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	account, ok := authenticate(w, r, h.Sessions)
	if !ok {
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		playlists, err := h.Playlists.ListByOwner(ctx, account.ID)
		if err != nil {
			respondError(ctx, w, err)
			return
		}
		respondJSON(ctx, w, http.StatusOK, map[string]any{"playlists": playlists})
		return
	}

	if _, err := uuid.Parse(id); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "valid playlist id is required"})
		return
	}

	playlist, err := h.Playlists.FindByID(ctx, id)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	videos, err := h.Videos.ListByIDs(ctx, playlist.VideoIDs)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{
		"playlist": playlist,
		"videos":   videos,
	})
}

// AddVideo handles POST /api/v1/playlists/videos/add.
func (h PlaylistHandler) AddVideo(w http.ResponseWriter, r *http.Request) {
	h.mutateVideos(w, r, h.Playlists.AddVideo)
}

// RemoveVideo handles POST /api/v1/playlists/videos/remove.
func (h PlaylistHandler) RemoveVideo(w http.ResponseWriter, r *http.Request) {
	h.mutateVideos(w, r, h.Playlists.RemoveVideo)
}

func (h PlaylistHandler) mutateVideos(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, playlistID, videoID string) error) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	account, ok := authenticate(w, r, h.Sessions)
	if !ok {
		return
	}

	var req playlistVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if _, err := uuid.Parse(req.VideoID); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "valid videoId is required"})
		return
	}

	playlist, ok := h.ownPlaylist(w, r, account.ID, req.PlaylistID)
	if !ok {
		return
	}

	if err := op(ctx, playlist.ID, req.VideoID); err != nil {
		respondError(ctx, w, err)
		return
	}

	updated, err := h.Playlists.FindByID(ctx, playlist.ID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"playlist": updated})
}

// Delete handles POST /api/v1/playlists/delete.
func (h PlaylistHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	account, ok := authenticate(w, r, h.Sessions)
	if !ok {
		return
	}

	var req playlistIDRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	playlist, ok := h.ownPlaylist(w, r, account.ID, req.ID)
	if !ok {
		return
	}

	if err := h.Playlists.Delete(ctx, playlist.ID); err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h PlaylistHandler) ownPlaylist(w http.ResponseWriter, r *http.Request, accountID, playlistID string) (models.Playlist, bool) {
	ctx := r.Context()

	if _, err := uuid.Parse(playlistID); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "valid playlist id is required"})
		return models.Playlist{}, false
	}

	playlist, err := h.Playlists.FindByID(ctx, playlistID)
	if err != nil {
		respondError(ctx, w, err)
		return models.Playlist{}, false
	}

	if playlist.OwnerID != accountID {
		respondJSON(ctx, w, http.StatusForbidden, map[string]string{"error": "not the owner of this playlist"})
		return models.Playlist{}, false
	}

	return playlist, true
}

type createPlaylistRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type playlistVideoRequest struct {
	PlaylistID string `json:"playlistId"`
	VideoID    string `json:"videoId"`
}

type playlistIDRequest struct {
	ID string `json:"id"`
}
