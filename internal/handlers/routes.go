package handlers

import "net/http"

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{}
	auth := AuthHandler{Sessions: deps.Sessions, Limiter: deps.AuthLimiter}
	accounts := AccountHandler{
		Sessions:     deps.Sessions,
		Accounts:     deps.Accounts,
		WatchHistory: deps.History,
		Media:        deps.Media,
		Videos:       deps.Videos,
	}
	videos := VideoHandler{Sessions: deps.Sessions, Videos: deps.Videos, Media: deps.Media}
	comments := CommentHandler{Sessions: deps.Sessions, Comments: deps.Comments}
	tweets := TweetHandler{Sessions: deps.Sessions, Tweets: deps.Tweets}
	playlists := PlaylistHandler{Sessions: deps.Sessions, Playlists: deps.Playlists, Videos: deps.Videos}
	likes := LikeHandler{Sessions: deps.Sessions, Relations: deps.Relations, Videos: deps.Videos}
	subs := SubscriptionHandler{Sessions: deps.Sessions, Relations: deps.Relations}

	mux.HandleFunc("/healthz", health.Handle)

	mux.HandleFunc("/api/v1/auth/register", auth.Register)
	mux.HandleFunc("/api/v1/auth/login", auth.Login)
	mux.HandleFunc("/api/v1/auth/refresh", auth.Refresh)
	mux.HandleFunc("/api/v1/auth/logout", auth.Logout)
	mux.HandleFunc("/api/v1/auth/password", auth.ChangePassword)

	mux.HandleFunc("/api/v1/accounts/me", accounts.Profile)
	mux.HandleFunc("/api/v1/accounts/avatar", accounts.Avatar)
	mux.HandleFunc("/api/v1/accounts/cover", accounts.Cover)
	mux.HandleFunc("/api/v1/accounts/history", accounts.History)

	mux.HandleFunc("/api/v1/videos", videos.Create)
	mux.HandleFunc("/api/v1/videos/get", videos.Get)
	mux.HandleFunc("/api/v1/videos/mine", videos.Mine)
	mux.HandleFunc("/api/v1/videos/update", videos.Update)
	mux.HandleFunc("/api/v1/videos/delete", videos.Delete)
	mux.HandleFunc("/api/v1/videos/publish", videos.Publish)

	mux.HandleFunc("/api/v1/comments", comments.Handle)
	mux.HandleFunc("/api/v1/comments/update", comments.Update)
	mux.HandleFunc("/api/v1/comments/delete", comments.Delete)

	mux.HandleFunc("/api/v1/tweets", tweets.Handle)
	mux.HandleFunc("/api/v1/tweets/update", tweets.Update)
	mux.HandleFunc("/api/v1/tweets/delete", tweets.Delete)

	mux.HandleFunc("/api/v1/playlists", playlists.Handle)
	mux.HandleFunc("/api/v1/playlists/videos/add", playlists.AddVideo)
	mux.HandleFunc("/api/v1/playlists/videos/remove", playlists.RemoveVideo)
	mux.HandleFunc("/api/v1/playlists/delete", playlists.Delete)

	mux.HandleFunc("/api/v1/likes/video", likes.ToggleVideo)
	mux.HandleFunc("/api/v1/likes/comment", likes.ToggleComment)
	mux.HandleFunc("/api/v1/likes/tweet", likes.ToggleTweet)
	mux.HandleFunc("/api/v1/likes/videos", likes.LikedVideos)

	mux.HandleFunc("/api/v1/subscriptions", subs.Toggle)
	mux.HandleFunc("/api/v1/subscriptions/subscribers", subs.Subscribers)
	mux.HandleFunc("/api/v1/subscriptions/channels", subs.Channels)
}

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Sessions    SessionAuthority
	Relations   RelationToggler
	Accounts    AccountStore
	Videos      VideoStore
	Comments    CommentStore
	Tweets      TweetStore
	Playlists   PlaylistStore
	History     WatchHistoryStore
	Media       MediaStorage
	AuthLimiter RateLimiter
}
