package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/models"
)

// LikeHandler exposes the like toggles for videos, comments and tweets.
// All three share one engine and one edge table; the kind column is the
// only thing that differs between them.
type LikeHandler struct {
	Sessions  SessionAuthority
	Relations RelationToggler
	Videos    VideoStore
}

// ToggleVideo handles POST /api/v1/likes/video.
func (h LikeHandler) ToggleVideo(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, models.EdgeKindVideoLike)
}

// ToggleComment handles POST /api/v1/likes/comment.
func (h LikeHandler) ToggleComment(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, models.EdgeKindCommentLike)
}

// ToggleTweet handles POST /api/v1/likes/tweet.
func (h LikeHandler) ToggleTweet(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, models.EdgeKindTweetLike)
}

func (h LikeHandler) toggle(w http.ResponseWriter, r *http.Request, kind models.EdgeKind) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	account, ok := authenticate(w, r, h.Sessions)
	if !ok {
		return
	}

	var req toggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	result, err := h.Relations.Toggle(ctx, account.ID, req.TargetID, kind)
	if err != nil {
		logging.FromContext(ctx).Warn("like toggle failed",
			"kind", string(kind), "actorId", account.ID, "targetId", req.TargetID, "error", err)
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, toggleResponse{
		Created: result.Created,
		Edge:    toEdgePayload(result.Edge),
	})
}

// LikedVideos handles GET /api/v1/likes/videos: the videos the caller liked.
func (h LikeHandler) LikedVideos(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	account, ok := authenticate(w, r, h.Sessions)
	if !ok {
		return
	}

	edges, err := h.Relations.ListByActor(ctx, account.ID, models.EdgeKindVideoLike)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	ids := make([]string, 0, len(edges))
	for _, edge := range edges {
		ids = append(ids, edge.TargetID)
	}

	videos, err := h.Videos.ListByIDs(ctx, ids)
	if err != nil {
		logging.FromContext(ctx).Error("load liked videos", "accountId", account.ID, "error", err)
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"videos": videos})
}

type toggleRequest struct {
	TargetID string `json:"targetId"`
}

type edgePayload struct {
	ID        string `json:"id"`
	ActorID   string `json:"actorId"`
	TargetID  string `json:"targetId"`
	Kind      string `json:"kind"`
	CreatedAt string `json:"createdAt"`
}

type toggleResponse struct {
	Created bool        `json:"created"`
	Edge    edgePayload `json:"edge"`
}

func toEdgePayload(edge models.Edge) edgePayload {
	return edgePayload{
		ID:        edge.ID,
		ActorID:   edge.ActorID,
		TargetID:  edge.TargetID,
		Kind:      string(edge.Kind),
		CreatedAt: edge.CreatedAt.Format(time.RFC3339),
	}
}
