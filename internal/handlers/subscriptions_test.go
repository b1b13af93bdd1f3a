package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/relations"
)

func newSubscriptionHandler(t *testing.T) (SubscriptionHandler, models.Account, models.SessionTokens) {
	t.Helper()
	sessions, account, tokens := newTestSessions(t)
	handler := SubscriptionHandler{
		Sessions:  sessions,
		Relations: relations.NewEngine(newFakeEdgeStore()),
	}
	return handler, account, tokens
}

func TestSubscriptionToggleAndChannels(t *testing.T) {
	handler, account, tokens := newSubscriptionHandler(t)
	channelID := uuid.NewString()

	rec := authedJSON(t, handler.Toggle, http.MethodPost, "/api/v1/subscriptions", tokens.AccessToken, subscribeRequest{ChannelID: channelID})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	var resp toggleResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Created || resp.Edge.ActorID != account.ID || resp.Edge.Kind != string(models.EdgeKindSubscription) {
		t.Fatalf("unexpected toggle response: %+v", resp)
	}

	channels := authedJSON(t, handler.Channels, http.MethodGet, "/api/v1/subscriptions/channels", tokens.AccessToken, nil)
	if channels.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, channels.Code)
	}
	var channelsResp struct {
		Channels []string `json:"channels"`
	}
	if err := json.NewDecoder(channels.Body).Decode(&channelsResp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(channelsResp.Channels) != 1 || channelsResp.Channels[0] != channelID {
		t.Fatalf("unexpected channels: %+v", channelsResp.Channels)
	}
}

func TestSubscriptionSubscribers(t *testing.T) {
	handler, account, tokens := newSubscriptionHandler(t)
	channelID := uuid.NewString()

	rec := authedJSON(t, handler.Toggle, http.MethodPost, "/api/v1/subscriptions", tokens.AccessToken, subscribeRequest{ChannelID: channelID})
	if rec.Code != http.StatusOK {
		t.Fatalf("toggle: status %d: %s", rec.Code, rec.Body.String())
	}

	subs := authedJSON(t, handler.Subscribers, http.MethodGet, "/api/v1/subscriptions/subscribers?channelId="+channelID, tokens.AccessToken, nil)
	if subs.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, subs.Code, subs.Body.String())
	}
	var subsResp struct {
		Subscribers []string `json:"subscribers"`
	}
	if err := json.NewDecoder(subs.Body).Decode(&subsResp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(subsResp.Subscribers) != 1 || subsResp.Subscribers[0] != account.ID {
		t.Fatalf("unexpected subscribers: %+v", subsResp.Subscribers)
	}
}

func TestSubscriptionUnsubscribe(t *testing.T) {
	handler, _, tokens := newSubscriptionHandler(t)
	channelID := uuid.NewString()

	for i := 0; i < 2; i++ {
		rec := authedJSON(t, handler.Toggle, http.MethodPost, "/api/v1/subscriptions", tokens.AccessToken, subscribeRequest{ChannelID: channelID})
		if rec.Code != http.StatusOK {
			t.Fatalf("toggle %d: status %d", i, rec.Code)
		}
	}

	channels := authedJSON(t, handler.Channels, http.MethodGet, "/api/v1/subscriptions/channels", tokens.AccessToken, nil)
	var channelsResp struct {
		Channels []string `json:"channels"`
	}
	if err := json.NewDecoder(channels.Body).Decode(&channelsResp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(channelsResp.Channels) != 0 {
		t.Fatalf("expected no channels after double toggle, got %+v", channelsResp.Channels)
	}
}

func TestSubscribersRejectsBadChannelID(t *testing.T) {
	handler, _, tokens := newSubscriptionHandler(t)

	rec := authedJSON(t, handler.Subscribers, http.MethodGet, "/api/v1/subscriptions/subscribers?channelId=nope", tokens.AccessToken, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d got %d", http.StatusBadRequest, rec.Code)
	}
}
