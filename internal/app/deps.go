package app

import (
	"context"
	"fmt"

	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/config"
	"github.com/clipstream/backend/internal/db"
	"github.com/clipstream/backend/internal/handlers"
	"github.com/clipstream/backend/internal/middleware"
	"github.com/clipstream/backend/internal/relations"
	"github.com/clipstream/backend/internal/repositories"
	"github.com/clipstream/backend/internal/storage"
)

// buildDependencies wires together concrete implementations used by the HTTP handlers.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config) (handlers.Dependencies, error) {
	accounts := repositories.NewPostgresAccountRepository(pool)
	edges := repositories.NewPostgresEdgeRepository(pool)

	signer := auth.NewTokenSigner(cfg.TokenSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	sessions := auth.NewAuthority(accounts, signer)
	toggles := relations.NewEngine(edges)

	media, err := storage.NewS3Storage(ctx, cfg.ObjectStore)
	if err != nil {
		return handlers.Dependencies{}, fmt.Errorf("configure media storage: %w", err)
	}

	limiter := middleware.NewIPRateLimiter(
		cfg.AuthRateLimit.Requests,
		cfg.AuthRateLimit.Window,
		cfg.AuthRateLimit.Burst,
		cfg.AuthRateLimit.TTL,
	)

	return handlers.Dependencies{
		Sessions:    sessions,
		Relations:   toggles,
		Accounts:    accounts,
		Videos:      repositories.NewPostgresVideoRepository(pool),
		Comments:    repositories.NewPostgresCommentRepository(pool),
		Tweets:      repositories.NewPostgresTweetRepository(pool),
		Playlists:   repositories.NewPostgresPlaylistRepository(pool),
		History:     repositories.NewPostgresWatchHistoryRepository(pool),
		Media:       media,
		AuthLimiter: limiter,
	}, nil
}
