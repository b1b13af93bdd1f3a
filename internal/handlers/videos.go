package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/models"
)

const maxVideoUploadBytes = 512 << 20

// VideoHandler provides endpoints for publishing and fetching videos.
type VideoHandler struct {
	Sessions SessionAuthority
	Videos   VideoStore
	Media    MediaStorage
}

// Create handles POST /api/v1/videos: multipart upload of the video file
// plus an optional thumbnail, followed by the database insert.
func (h VideoHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx, span := logging.StartSpan(r.Context(), "video.upload")
	defer span.End()
	logger := logging.FromContext(ctx)

	account, ok := authenticate(w, r, h.Sessions)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxVideoUploadBytes); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid multipart payload"})
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "title is required"})
		return
	}
	description := strings.TrimSpace(r.FormValue("description"))

	duration := int64(0)
	if raw := r.FormValue("duration"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 0 {
			respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "duration must be a non-negative integer"})
			return
		}
		duration = parsed
	}

	file, header, err := r.FormFile("video")
	if err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "video file is required"})
		return
	}
	defer file.Close()

	videoID := uuid.NewString()

	videoKey := fmt.Sprintf("videos/%s/%s", videoID, sanitizeFilename(header.Filename))
	videoURL, err := h.Media.Save(ctx, videoKey, file)
	if err != nil {
		logger.Error("video upload failed", "videoId", videoID, "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to store video"})
		return
	}

	thumbnailURL := ""
	if thumb, thumbHeader, thumbErr := r.FormFile("thumbnail"); thumbErr == nil {
		defer thumb.Close()
		thumbKey := fmt.Sprintf("thumbnails/%s/%s", videoID, sanitizeFilename(thumbHeader.Filename))
		thumbnailURL, err = h.Media.Save(ctx, thumbKey, thumb)
		if err != nil {
			logger.Error("thumbnail upload failed", "videoId", videoID, "error", err)
			respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to store thumbnail"})
			return
		}
	}

	now := nowUTC()
	video := models.Video{
		ID:           videoID,
		OwnerID:      account.ID,
		Title:        title,
		Description:  description,
		VideoURL:     videoURL,
		ThumbnailURL: thumbnailURL,
		Duration:     duration,
		Published:    true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.Videos.Create(ctx, video); err != nil {
		logger.Error("video insert failed", "videoId", videoID, "error", err)
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusCreated, map[string]any{"video": video})
}

// Get handles GET /api/v1/videos/get?id=...: fetches a video and counts the view.
func (h VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	if _, ok := authenticate(w, r, h.Sessions); !ok {
		return
	}

	id := r.URL.Query().Get("id")
	if _, err := uuid.Parse(id); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "valid id is required"})
		return
	}

	video, err := h.Videos.FindByID(ctx, id)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if err := h.Videos.IncrementViews(ctx, id); err != nil {
		logging.FromContext(ctx).Warn("failed to count view", "videoId", id, "error", err)
	} else {
		video.Views++
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"video": video})
}

// Mine handles GET /api/v1/videos/mine: the caller's uploads.
func (h VideoHandler) Mine(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	account, ok := authenticate(w, r, h.Sessions)
	if !ok {
		return
	}

	videos, err := h.Videos.ListByOwner(ctx, account.ID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"videos": videos})
}

// Update handles PATCH /api/v1/videos/update: title/description changes by the owner.
func (h VideoHandler) Update(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	account, ok := authenticate(w, r, h.Sessions)
	if !ok {
		return
	}

	var req updateVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	video, ok := h.ownedVideo(ctx, w, account.ID, req.ID)
	if !ok {
		return
	}

	if title := strings.TrimSpace(req.Title); title != "" {
		video.Title = title
	}
	if req.Description != nil {
		video.Description = strings.TrimSpace(*req.Description)
	}
	video.UpdatedAt = nowUTC()

	if err := h.Videos.Update(ctx, video); err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"video": video})
}

// Delete handles POST /api/v1/videos/delete: removes the record and its assets.
func (h VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

	var req videoIDRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	video, ok := h.ownedVideo(ctx, w, account.ID, req.ID)
	if !ok {
		return
	}

	if err := h.Videos.Delete(ctx, video.ID); err != nil {
		respondError(ctx, w, err)
		return
	}

	for _, location := range []string{video.VideoURL, video.ThumbnailURL} {
		if location == "" {
			continue
		}
		if err := h.Media.Delete(ctx, location); err != nil {
			logger.Warn("failed to remove video asset", "location", location, "error", err)
		}
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Publish handles POST /api/v1/videos/publish: flips the publish state.
func (h VideoHandler) Publish(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	account, ok := authenticate(w, r, h.Sessions)
	if !ok {
		return
	}

	var req videoIDRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	video, ok := h.ownedVideo(ctx, w, account.ID, req.ID)
	if !ok {
		return
	}

	if err := h.Videos.SetPublished(ctx, video.ID, !video.Published); err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"published": !video.Published})
}

// ownedVideo loads a video and enforces that the caller owns it.
func (h VideoHandler) ownedVideo(ctx context.Context, w http.ResponseWriter, accountID, videoID string) (models.Video, bool) {
	if _, err := uuid.Parse(videoID); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "valid video id is required"})
		return models.Video{}, false
	}

	video, err := h.Videos.FindByID(ctx, videoID)
	if err != nil {
		respondError(ctx, w, err)
		return models.Video{}, false
	}

	if video.OwnerID != accountID {
		respondJSON(ctx, w, http.StatusForbidden, map[string]string{"error": "not the owner of this video"})
		return models.Video{}, false
	}

	return video, true
}

type updateVideoRequest struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
}

type videoIDRequest struct {
	ID string `json:"id"`
}
