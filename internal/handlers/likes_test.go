package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/relations"
)

func newLikeHandler(t *testing.T) (LikeHandler, models.SessionTokens, *fakeVideoStore) {
	t.Helper()
	sessions, _, tokens := newTestSessions(t)
	videos := newFakeVideoStore()
	handler := LikeHandler{
		Sessions:  sessions,
		Relations: relations.NewEngine(newFakeEdgeStore()),
		Videos:    videos,
	}
	return handler, tokens, videos
}

func authedJSON(t *testing.T, handler http.HandlerFunc, method, path, accessToken string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			t.Fatalf("marshal: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &body)
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestLikeToggleRoundTrip(t *testing.T) {
	handler, tokens, _ := newLikeHandler(t)
	videoID := uuid.NewString()

	first := authedJSON(t, handler.ToggleVideo, http.MethodPost, "/api/v1/likes/video", tokens.AccessToken, toggleRequest{TargetID: videoID})
	if first.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, first.Code, first.Body.String())
	}

	var resp toggleResponse
	if err := json.NewDecoder(first.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Created || resp.Edge.TargetID != videoID || resp.Edge.Kind != string(models.EdgeKindVideoLike) {
		t.Fatalf("unexpected toggle response: %+v", resp)
	}

	second := authedJSON(t, handler.ToggleVideo, http.MethodPost, "/api/v1/likes/video", tokens.AccessToken, toggleRequest{TargetID: videoID})
	if second.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, second.Code)
	}
	if err := json.NewDecoder(second.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Created {
		t.Fatal("expected second toggle to remove the like")
	}
}

func TestLikeToggleRequiresAuth(t *testing.T) {
	handler, _, _ := newLikeHandler(t)

	rec := authedJSON(t, handler.ToggleVideo, http.MethodPost, "/api/v1/likes/video", "", toggleRequest{TargetID: uuid.NewString()})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestLikeToggleRejectsBadTarget(t *testing.T) {
	handler, tokens, _ := newLikeHandler(t)

	rec := authedJSON(t, handler.ToggleComment, http.MethodPost, "/api/v1/likes/comment", tokens.AccessToken, toggleRequest{TargetID: "not-a-uuid"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d got %d: %s", http.StatusBadRequest, rec.Code, rec.Body.String())
	}
}

func TestLikedVideosListsLikedOnes(t *testing.T) {
	handler, tokens, videos := newLikeHandler(t)

	liked := models.Video{ID: uuid.NewString(), Title: "liked one"}
	other := models.Video{ID: uuid.NewString(), Title: "other"}
	for _, v := range []models.Video{liked, other} {
		if err := videos.Create(context.Background(), v); err != nil {
			t.Fatalf("seed video: %v", err)
		}
	}

	rec := authedJSON(t, handler.ToggleVideo, http.MethodPost, "/api/v1/likes/video", tokens.AccessToken, toggleRequest{TargetID: liked.ID})
	if rec.Code != http.StatusOK {
		t.Fatalf("toggle: status %d: %s", rec.Code, rec.Body.String())
	}

	list := authedJSON(t, handler.LikedVideos, http.MethodGet, "/api/v1/likes/videos", tokens.AccessToken, nil)
	if list.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, list.Code)
	}

	var resp struct {
		Videos []models.Video `json:"videos"`
	}
	if err := json.NewDecoder(list.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Videos) != 1 || resp.Videos[0].ID != liked.ID {
		t.Fatalf("unexpected liked videos: %+v", resp.Videos)
	}
}
