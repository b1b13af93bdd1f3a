package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/models"
)

// CommentHandler provides comment endpoints for videos.
type CommentHandler struct {
	Sessions SessionAuthority
	Comments CommentStore
}

// Handle routes /api/v1/comments: POST adds a comment, GET lists a video's comments.
func (h CommentHandler) Handle(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.create(w, r)
	case http.MethodGet:
		h.list(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h CommentHandler) create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	account, ok := authenticate(w, r, h.Sessions)
	if !ok {
		return
	}

	var req createCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if _, err := uuid.Parse(req.VideoID); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "valid videoId is required"})
		return
	}

	body := strings.TrimSpace(req.Body)
	if body == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "comment body is required"})
		return
	}

	now := nowUTC()
	comment := models.Comment{
		ID:        uuid.NewString(),
		VideoID:   req.VideoID,
		AuthorID:  account.ID,
		Body:      body,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.Comments.Create(ctx, comment); err != nil {
		logging.FromContext(ctx).Error("comment insert failed", "videoId", req.VideoID, "error", err)
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusCreated, map[string]any{"comment": comment})
}

func (h CommentHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if _, ok := authenticate(w, r, h.Sessions); !ok {
		return
	}

	videoID := r.URL.Query().Get("videoId")
	if _, err := uuid.Parse(videoID); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "valid videoId is required"})
		return
	}

	comments, err := h.Comments.ListByVideo(ctx, videoID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"comments": comments})
}

// Update handles PATCH /api/v1/comments/update: edits the caller's own comment.
func (h CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	account, ok := authenticate(w, r, h.Sessions)
	if !ok {
		return
	}

	var req updateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	body := strings.TrimSpace(req.Body)
	if body == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "comment body is required"})
		return
	}

	comment, ok := h.ownComment(w, r, account.ID, req.ID)
	if !ok {
		return
	}

	comment.Body = body
	comment.UpdatedAt = nowUTC()

	if err := h.Comments.Update(ctx, comment); err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"comment": comment})
}

// Delete handles POST /api/v1/comments/delete: removes the caller's own comment.
func (h CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	account, ok := authenticate(w, r, h.Sessions)
	if !ok {
		return
	}

	var req deleteCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	comment, ok := h.ownComment(w, r, account.ID, req.ID)
	if !ok {
		return
	}

	if err := h.Comments.Delete(ctx, comment.ID); err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h CommentHandler) ownComment(w http.ResponseWriter, r *http.Request, accountID, commentID string) (models.Comment, bool) {
	ctx := r.Context()

	if _, err := uuid.Parse(commentID); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "valid comment id is required"})
		return models.Comment{}, false
	}

	comment, err := h.Comments.FindByID(ctx, commentID)
	if err != nil {
		respondError(ctx, w, err)
		return models.Comment{}, false
	}

	if comment.AuthorID != accountID {
		respondJSON(ctx, w, http.StatusForbidden, map[string]string{"error": "not the author of this comment"})
		return models.Comment{}, false
	}

	return comment, true
}

type createCommentRequest struct {
	VideoID string `json:"videoId"`
	Body    string `json:"body"`
}

type updateCommentRequest struct {
	ID   string `json:"id"`
	Body string `json:"body"`
}

type deleteCommentRequest struct {
	ID string `json:"id"`
}
