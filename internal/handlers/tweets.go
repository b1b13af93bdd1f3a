package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/models"
)

// TweetHandler provides endpoints for short standalone posts.
type TweetHandler struct {
	Sessions SessionAuthority
	Tweets   TweetStore
}

// Handle routes /api/v1/tweets: POST creates, GET lists an author's tweets.
func (h TweetHandler) Handle(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.create(w, r)
	case http.MethodGet:
		h.list(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h TweetHandler) create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	account, ok := authenticate(w, r, h.Sessions)
	if !ok {
		return
	}

	var req tweetBodyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	body := strings.TrimSpace(req.Body)
	if body == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "tweet body is required"})
		return
	}

	now := nowUTC()
	tweet := models.Tweet{
		ID:        uuid.NewString(),
		AuthorID:  account.ID,
		Body:      body,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.Tweets.Create(ctx, tweet); err != nil {
		logging.FromContext(ctx).Error("tweet insert failed", "authorId", account.ID, "error", err)
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusCreated, map[string]any{"tweet": tweet})
}

func (h TweetHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	account, ok := authenticate(w, r, h.Sessions)
	if !ok {
		return
	}

	authorID := r.URL.Query().Get("authorId")
	if authorID == "" {
		authorID = account.ID
	}
	if _, err := uuid.Parse(authorID); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "valid authorId is required"})
		return
	}

	tweets, err := h.Tweets.ListByAuthor(ctx, authorID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"tweets": tweets})
}

// Update handles PATCH /api/v1/tweets/update: edits the caller's own tweet.
func (h TweetHandler) Update(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	account, ok := authenticate(w, r, h.Sessions)
	if !ok {
		return
	}

	var req updateTweetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	body := strings.TrimSpace(req.Body)
	if body == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "tweet body is required"})
		return
	}

	tweet, ok := h.ownTweet(w, r, account.ID, req.ID)
	if !ok {
		return
	}

	tweet.Body = body
	tweet.UpdatedAt = nowUTC()

	if err := h.Tweets.Update(ctx, tweet); err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"tweet": tweet})
}

// Delete handles POST /api/v1/tweets/delete: removes the caller's own tweet.
func (h TweetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	account, ok := authenticate(w, r, h.Sessions)
	if !ok {
		return
	}

	var req deleteTweetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	tweet, ok := h.ownTweet(w, r, account.ID, req.ID)
	if !ok {
		return
	}

	if err := h.Tweets.Delete(ctx, tweet.ID); err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h TweetHandler) ownTweet(w http.ResponseWriter, r *http.Request, accountID, tweetID string) (models.Tweet, bool) {
	ctx := r.Context()

	if _, err := uuid.Parse(tweetID); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "valid tweet id is required"})
		return models.Tweet{}, false
	}

	tweet, err := h.Tweets.FindByID(ctx, tweetID)
	if err != nil {
		respondError(ctx, w, err)
		return models.Tweet{}, false
	}

	if tweet.AuthorID != accountID {
		respondJSON(ctx, w, http.StatusForbidden, map[string]string{"error": "not the author of this tweet"})
		return models.Tweet{}, false
	}

	return tweet, true
}

type tweetBodyRequest struct {
	Body string `json:"body"`
}

type updateTweetRequest struct {
	ID   string `json:"id"`
	Body string `json:"body"`
}

type deleteTweetRequest struct {
	ID string `json:"id"`
}
