package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/models"
)

// SubscriptionHandler exposes channel subscription endpoints. A subscription
// is the same edge shape as a like: actor is the subscriber, target is the
// channel (an account id).
type SubscriptionHandler struct {
	Sessions  SessionAuthority
	Relations RelationToggler
}

// Toggle handles POST /api/v1/subscriptions.
func (h SubscriptionHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	account, ok := authenticate(w, r, h.Sessions)
	if !ok {
		return
	}

	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	result, err := h.Relations.Toggle(ctx, account.ID, req.ChannelID, models.EdgeKindSubscription)
	if err != nil {
		logging.FromContext(ctx).Warn("subscription toggle failed",
			"actorId", account.ID, "channelId", req.ChannelID, "error", err)
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, toggleResponse{
		Created: result.Created,
		Edge:    toEdgePayload(result.Edge),
	})
}

// Subscribers handles GET /api/v1/subscriptions/subscribers?channelId=...:
// who subscribes to the channel.
func (h SubscriptionHandler) Subscribers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	if _, ok := authenticate(w, r, h.Sessions); !ok {
		return
	}

	channelID := r.URL.Query().Get("channelId")
	edges, err := h.Relations.ListByTarget(ctx, channelID, models.EdgeKindSubscription)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	subscribers := make([]string, 0, len(edges))
	for _, edge := range edges {
		subscribers = append(subscribers, edge.ActorID)
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"subscribers": subscribers})
}

// Channels handles GET /api/v1/subscriptions/channels: the channels the
// caller has subscribed to.
func (h SubscriptionHandler) Channels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	account, ok := authenticate(w, r, h.Sessions)
	if !ok {
		return
	}

	edges, err := h.Relations.ListByActor(ctx, account.ID, models.EdgeKindSubscription)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	channels := make([]string, 0, len(edges))
	for _, edge := range edges {
		channels = append(channels, edge.TargetID)
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"channels": channels})
}

type subscribeRequest struct {
	ChannelID string `json:"channelId"`
}
