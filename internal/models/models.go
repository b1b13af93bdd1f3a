package models

import "time"

// Account represents an identity within the ClipStream platform. Password
// holds the bcrypt digest, never the plaintext. RefreshToken mirrors the
// single currently honored refresh token for the account; an empty string
// means no live session.
type Account struct {
	ID           string
	Handle       string
	Email        string
	DisplayName  string
	Password     string
	AvatarURL    string
	CoverURL     string
	RefreshToken string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Sanitized returns a copy safe to hand back to callers: the password hash
// and stored refresh token are blanked.
func (a Account) Sanitized() Account {
	a.Password = ""
	a.RefreshToken = ""
	return a
}

// SessionTokens groups the bearer credentials issued to authenticated accounts.
type SessionTokens struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// EdgeKind discriminates the relation an Edge represents.
type EdgeKind string

const (
	EdgeKindVideoLike    EdgeKind = "video-like"
	EdgeKindCommentLike  EdgeKind = "comment-like"
	EdgeKindTweetLike    EdgeKind = "tweet-like"
	EdgeKindSubscription EdgeKind = "subscription"
)

// Valid reports whether the kind is one of the supported relation kinds.
func (k EdgeKind) Valid() bool {
	switch k {
	case EdgeKindVideoLike, EdgeKindCommentLike, EdgeKindTweetLike, EdgeKindSubscription:
		return true
	}
	return false
}

// Edge is a single directed relation between an actor and a target of a
// given kind. Presence means the relation is active; there is no separate
// flag, and edges are immutable while they exist.
type Edge struct {
	ID        string
	ActorID   string
	TargetID  string
	Kind      EdgeKind
	CreatedAt time.Time
}

// Video stores an uploaded video along with its object-store locations.
type Video struct {
	ID           string
	OwnerID      string
	Title        string
	Description  string
	VideoURL     string
	ThumbnailURL string
	Duration     int64
	Views        int64
	Published    bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Comment is a remark left on a video.
type Comment struct {
	ID        string
	VideoID   string
	AuthorID  string
	Body      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Tweet is a short standalone post by an account.
type Tweet struct {
	ID        string
	AuthorID  string
	Body      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Playlist is an ordered collection of videos curated by an account.
type Playlist struct {
	ID          string
	OwnerID     string
	Name        string
	Description string
	VideoIDs    []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// WatchEntry records that an account watched a video.
type WatchEntry struct {
	AccountID string
	VideoID   string
	WatchedAt time.Time
}
