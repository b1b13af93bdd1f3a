package repositories

import (
	"context"

	"github.com/clipstream/backend/internal/models"
)

// EdgeRepository defines data access for actor→target relations. Create must
// surface ErrConflict when a row for the same (actor, target, kind) triple
// already exists so callers can resolve concurrent toggles.
type EdgeRepository interface {
	Create(ctx context.Context, edge models.Edge) error
	Find(ctx context.Context, actorID, targetID string, kind models.EdgeKind) (models.Edge, error)
	Delete(ctx context.Context, id string) error
	ListByActor(ctx context.Context, actorID string, kind models.EdgeKind) ([]models.Edge, error)
	ListByTarget(ctx context.Context, targetID string, kind models.EdgeKind) ([]models.Edge, error)
}
