// Package relations implements the idempotent relation toggle shared by
// likes and subscriptions: a unique (actor, target, kind) edge that a single
// operation creates when absent and deletes when present.
package relations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

var (
	// ErrInvalidID indicates an actor or target id that is not a well-formed identifier.
	ErrInvalidID = errors.New("invalid identifier")
	// ErrUnknownKind indicates a relation kind outside the supported set.
	ErrUnknownKind = errors.New("unknown relation kind")
)

// EdgeStore is the persistence contract the engine depends on. Create must
// report repositories.ErrConflict when the (actor, target, kind) triple
// already exists; the engine relies on that constraint to stay correct under
// concurrent toggles.
type EdgeStore interface {
	Create(ctx context.Context, edge models.Edge) error
	Find(ctx context.Context, actorID, targetID string, kind models.EdgeKind) (models.Edge, error)
	Delete(ctx context.Context, id string) error
	ListByActor(ctx context.Context, actorID string, kind models.EdgeKind) ([]models.Edge, error)
	ListByTarget(ctx context.Context, targetID string, kind models.EdgeKind) ([]models.Edge, error)
}

// Result reports the outcome of a toggle: Created is true when the edge is
// active after the call, false when it was removed.
type Result struct {
	Created bool
	Edge    models.Edge
}

// Engine flips relation edges on and off.
type Engine struct {
	edges   EdgeStore
	nowFunc func() time.Time
}

// NewEngine constructs a toggle engine over the provided edge store.
func NewEngine(edges EdgeStore) *Engine {
	if edges == nil {
		panic("relations: edge store must not be nil")
	}
	return &Engine{
		edges:   edges,
		nowFunc: func() time.Time { return time.Now().UTC() },
	}
}

// WithNowFunc overrides the time source. Used by tests.
func (e *Engine) WithNowFunc(now func() time.Time) {
	if now != nil {
		e.nowFunc = now
	}
}

// Toggle creates the edge for (actor, target, kind) when absent and deletes
// it when present. Two consecutive calls with identical arguments return the
// system to its original state. When a concurrent toggle races this one, the
// storage layer's uniqueness constraint decides the survivor and the loser's
// outcome is converted to the state the caller asked for rather than an error.
func (e *Engine) Toggle(ctx context.Context, actorID, targetID string, kind models.EdgeKind) (Result, error) {
	if err := validateToggleInput(actorID, targetID, kind); err != nil {
		return Result{}, err
	}

	existing, err := e.edges.Find(ctx, actorID, targetID, kind)
	switch {
	case err == nil:
		if delErr := e.edges.Delete(ctx, existing.ID); delErr != nil {
			if errors.Is(delErr, repositories.ErrNotFound) {
				// A concurrent toggle deleted it first. The edge is gone,
				// which is what this call set out to do.
				return Result{Created: false, Edge: existing}, nil
			}
			return Result{}, fmt.Errorf("delete edge: %w", delErr)
		}
		return Result{Created: false, Edge: existing}, nil

	case errors.Is(err, repositories.ErrNotFound):
		edge := models.Edge{
			ID:        uuid.NewString(),
			ActorID:   actorID,
			TargetID:  targetID,
			Kind:      kind,
			CreatedAt: e.nowFunc(),
		}
		if createErr := e.edges.Create(ctx, edge); createErr != nil {
			if errors.Is(createErr, repositories.ErrConflict) {
				return e.absorbCreateConflict(ctx, edge)
			}
			return Result{}, fmt.Errorf("create edge: %w", createErr)
		}
		return Result{Created: true, Edge: edge}, nil

	default:
		return Result{}, fmt.Errorf("find edge: %w", err)
	}
}

// absorbCreateConflict resolves the lost create race: a concurrent toggle
// inserted the edge between our find and create. The edge exists, so the
// caller's requested state holds; report the surviving row.
func (e *Engine) absorbCreateConflict(ctx context.Context, candidate models.Edge) (Result, error) {
	logging.FromContext(ctx).Warn("edge create conflicted with concurrent toggle",
		"actorId", candidate.ActorID,
		"targetId", candidate.TargetID,
		"kind", string(candidate.Kind),
	)

	survivor, err := e.edges.Find(ctx, candidate.ActorID, candidate.TargetID, candidate.Kind)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			// A third toggle already removed the survivor. Report our
			// candidate; the id is not authoritative but the state is.
			return Result{Created: true, Edge: candidate}, nil
		}
		return Result{}, fmt.Errorf("find edge after conflict: %w", err)
	}

	return Result{Created: true, Edge: survivor}, nil
}

// ListByActor returns the active edges of the given kind originating from the actor.
func (e *Engine) ListByActor(ctx context.Context, actorID string, kind models.EdgeKind) ([]models.Edge, error) {
	if err := validateID(actorID); err != nil {
		return nil, err
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	edges, err := e.edges.ListByActor(ctx, actorID, kind)
	if err != nil {
		return nil, fmt.Errorf("list edges by actor: %w", err)
	}
	return edges, nil
}

// ListByTarget returns the active edges of the given kind pointing at the target.
func (e *Engine) ListByTarget(ctx context.Context, targetID string, kind models.EdgeKind) ([]models.Edge, error) {
	if err := validateID(targetID); err != nil {
		return nil, err
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	edges, err := e.edges.ListByTarget(ctx, targetID, kind)
	if err != nil {
		return nil, fmt.Errorf("list edges by target: %w", err)
	}
	return edges, nil
}

func validateToggleInput(actorID, targetID string, kind models.EdgeKind) error {
	if err := validateID(actorID); err != nil {
		return fmt.Errorf("actor: %w", ErrInvalidID)
	}
	if err := validateID(targetID); err != nil {
		return fmt.Errorf("target: %w", ErrInvalidID)
	}
	if !kind.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return nil
}

func validateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrInvalidID
	}
	return nil
}
