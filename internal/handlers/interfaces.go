package handlers

import (
	"context"
	"io"

	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/relations"
)

// SessionAuthority captures the session lifecycle operations required by the
// HTTP surface. Every protected handler calls Authenticate before doing work.
type SessionAuthority interface {
	Register(ctx context.Context, handle, email, displayName, password, avatarURL string) (models.Account, error)
	Login(ctx context.Context, identifier, password string) (models.Account, models.SessionTokens, error)
	Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error)
	Logout(ctx context.Context, accountID string) error
	Authenticate(ctx context.Context, accessToken string) (models.Account, error)
	ChangePassword(ctx context.Context, accountID, oldPassword, newPassword string) error
}

// RelationToggler flips like/subscription edges and answers list projections.
type RelationToggler interface {
	Toggle(ctx context.Context, actorID, targetID string, kind models.EdgeKind) (relations.Result, error)
	ListByActor(ctx context.Context, actorID string, kind models.EdgeKind) ([]models.Edge, error)
	ListByTarget(ctx context.Context, targetID string, kind models.EdgeKind) ([]models.Edge, error)
}

// AccountStore captures the persistence operations required by profile handlers.
type AccountStore interface {
	FindByID(ctx context.Context, id string) (models.Account, error)
	UpdateProfile(ctx context.Context, account models.Account) error
}

// VideoStore captures persistence for video workflows.
type VideoStore interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Video, error)
	ListByIDs(ctx context.Context, ids []string) ([]models.Video, error)
	Update(ctx context.Context, video models.Video) error
	SetPublished(ctx context.Context, id string, published bool) error
	IncrementViews(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// CommentStore captures persistence for comment workflows.
type CommentStore interface {
	Create(ctx context.Context, comment models.Comment) error
	FindByID(ctx context.Context, id string) (models.Comment, error)
	ListByVideo(ctx context.Context, videoID string) ([]models.Comment, error)
	Update(ctx context.Context, comment models.Comment) error
	Delete(ctx context.Context, id string) error
}

// TweetStore captures persistence for tweet workflows.
type TweetStore interface {
	Create(ctx context.Context, tweet models.Tweet) error
	FindByID(ctx context.Context, id string) (models.Tweet, error)
	ListByAuthor(ctx context.Context, authorID string) ([]models.Tweet, error)
	Update(ctx context.Context, tweet models.Tweet) error
	Delete(ctx context.Context, id string) error
}

// PlaylistStore captures persistence for playlist workflows.
type PlaylistStore interface {
	Create(ctx context.Context, playlist models.Playlist) error
	FindByID(ctx context.Context, id string) (models.Playlist, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Playlist, error)
	AddVideo(ctx context.Context, playlistID, videoID string) error
	RemoveVideo(ctx context.Context, playlistID, videoID string) error
	Delete(ctx context.Context, id string) error
}

// WatchHistoryStore records and lists watch events.
type WatchHistoryStore interface {
	Append(ctx context.Context, entry models.WatchEntry) error
	ListForAccount(ctx context.Context, accountID string) ([]models.WatchEntry, error)
}

// MediaStorage persists uploaded media assets and removes replaced ones.
type MediaStorage interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
	Delete(ctx context.Context, location string) error
}
