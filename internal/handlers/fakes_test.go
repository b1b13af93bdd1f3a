package handlers

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

// newTestSessions builds a real session authority over an in-memory store and
// registers one account, returning the live tokens for it.
func newTestSessions(t *testing.T) (*auth.Authority, models.Account, models.SessionTokens) {
	t.Helper()

	store := auth.NewInMemoryAccountStore()
	signer := auth.NewTokenSigner("test-secret", 15*time.Minute, 240*time.Hour)
	authority := auth.NewAuthority(store, signer)

	if _, err := authority.Register(context.Background(), "alice", "alice@example.com", "Alice", "supersafe", ""); err != nil {
		t.Fatalf("register: %v", err)
	}
	account, tokens, err := authority.Login(context.Background(), "alice", "supersafe")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	return authority, account, tokens
}

type edgeTriple struct {
	actorID  string
	targetID string
	kind     models.EdgeKind
}

type fakeEdgeStore struct {
	mu    sync.Mutex
	byKey map[edgeTriple]models.Edge
	byID  map[string]edgeTriple
}

func newFakeEdgeStore() *fakeEdgeStore {
	return &fakeEdgeStore{
		byKey: make(map[edgeTriple]models.Edge),
		byID:  make(map[string]edgeTriple),
	}
}

func (s *fakeEdgeStore) Create(_ context.Context, edge models.Edge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := edgeTriple{edge.ActorID, edge.TargetID, edge.Kind}
	if _, exists := s.byKey[key]; exists {
		return repositories.ErrConflict
	}
	s.byKey[key] = edge
	s.byID[edge.ID] = key
	return nil
}

func (s *fakeEdgeStore) Find(_ context.Context, actorID, targetID string, kind models.EdgeKind) (models.Edge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	edge, ok := s.byKey[edgeTriple{actorID, targetID, kind}]
	if !ok {
		return models.Edge{}, repositories.ErrNotFound
	}
	return edge, nil
}

func (s *fakeEdgeStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key, ok := s.byID[id]
	if !ok {
		return repositories.ErrNotFound
	}
	delete(s.byKey, key)
	delete(s.byID, id)
	return nil
}

func (s *fakeEdgeStore) ListByActor(_ context.Context, actorID string, kind models.EdgeKind) ([]models.Edge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var edges []models.Edge
	for key, edge := range s.byKey {
		if key.actorID == actorID && key.kind == kind {
			edges = append(edges, edge)
		}
	}
	return edges, nil
}

func (s *fakeEdgeStore) ListByTarget(_ context.Context, targetID string, kind models.EdgeKind) ([]models.Edge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var edges []models.Edge
	for key, edge := range s.byKey {
		if key.targetID == targetID && key.kind == kind {
			edges = append(edges, edge)
		}
	}
	return edges, nil
}

type fakeVideoStore struct {
	mu     sync.Mutex
	videos map[string]models.Video
}

func newFakeVideoStore() *fakeVideoStore {
	return &fakeVideoStore{videos: make(map[string]models.Video)}
}

func (s *fakeVideoStore) Create(_ context.Context, video models.Video) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.videos[video.ID] = video
	return nil
}

func (s *fakeVideoStore) FindByID(_ context.Context, id string) (models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	video, ok := s.videos[id]
	if !ok {
		return models.Video{}, repositories.ErrNotFound
	}
	return video, nil
}

func (s *fakeVideoStore) ListByOwner(_ context.Context, ownerID string) ([]models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var videos []models.Video
	for _, video := range s.videos {
		if video.OwnerID == ownerID {
			videos = append(videos, video)
		}
	}
	return videos, nil
}

func (s *fakeVideoStore) ListByIDs(_ context.Context, ids []string) ([]models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var videos []models.Video
	for _, id := range ids {
		if video, ok := s.videos[id]; ok {
			videos = append(videos, video)
		}
	}
	return videos, nil
}

func (s *fakeVideoStore) Update(_ context.Context, video models.Video) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.videos[video.ID]; !ok {
		return repositories.ErrNotFound
	}
	s.videos[video.ID] = video
	return nil
}

func (s *fakeVideoStore) SetPublished(_ context.Context, id string, published bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	video, ok := s.videos[id]
	if !ok {
		return repositories.ErrNotFound
	}
	video.Published = published
	s.videos[id] = video
	return nil
}

func (s *fakeVideoStore) IncrementViews(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	video, ok := s.videos[id]
	if !ok {
		return repositories.ErrNotFound
	}
	video.Views++
	s.videos[id] = video
	return nil
}

func (s *fakeVideoStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.videos[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.videos, id)
	return nil
}

type blockedLimiter struct{}

func (blockedLimiter) Allow(string) bool { return false }
