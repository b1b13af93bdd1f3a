package repositories

import (
	"context"

	"github.com/clipstream/backend/internal/models"
)

// AccountRepository defines the data access contract for accounts.
type AccountRepository interface {
	Create(ctx context.Context, account models.Account) error
	FindByID(ctx context.Context, id string) (models.Account, error)
	FindByIdentifier(ctx context.Context, identifier string) (models.Account, error)
	UpdateProfile(ctx context.Context, account models.Account) error
	UpdateRefreshToken(ctx context.Context, id, refreshToken string) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}
