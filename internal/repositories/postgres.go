package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/clipstream/backend/internal/db"
	"github.com/clipstream/backend/internal/models"
)

const uniqueViolation = "23505"

// PostgresAccountRepository provides PostgreSQL-backed persistence for accounts.
type PostgresAccountRepository struct {
	pool db.Pool
}

// NewPostgresAccountRepository constructs an account repository backed by PostgreSQL.
func NewPostgresAccountRepository(pool db.Pool) *PostgresAccountRepository {
	return &PostgresAccountRepository{pool: pool}
}

// Create persists a new account record.
func (r *PostgresAccountRepository) Create(ctx context.Context, account models.Account) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO accounts (id, handle, email, display_name, password_hash, avatar_url, cover_url, refresh_token, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
    `, account.ID, account.Handle, account.Email, account.DisplayName, account.Password,
		account.AvatarURL, account.CoverURL, account.RefreshToken, account.CreatedAt, account.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrConflict
		}
		return fmt.Errorf("insert account: %w", err)
	}

	return nil
}

// FindByID fetches an account by its identifier.
func (r *PostgresAccountRepository) FindByID(ctx context.Context, id string) (models.Account, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Account{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, handle, email, display_name, password_hash, avatar_url, cover_url, refresh_token, created_at, updated_at
        FROM accounts
        WHERE id = $1
    `, id)

	return scanAccount(row)
}

// FindByIdentifier fetches an account by handle or email.
func (r *PostgresAccountRepository) FindByIdentifier(ctx context.Context, identifier string) (models.Account, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Account{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, handle, email, display_name, password_hash, avatar_url, cover_url, refresh_token, created_at, updated_at
        FROM accounts
        WHERE handle = $1 OR email = $1
    `, identifier)

	return scanAccount(row)
}

// UpdateProfile modifies the mutable profile fields of an existing account.
func (r *PostgresAccountRepository) UpdateProfile(ctx context.Context, account models.Account) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE accounts
        SET email = $2, display_name = $3, avatar_url = $4, cover_url = $5, updated_at = $6
        WHERE id = $1
    `, account.ID, account.Email, account.DisplayName, account.AvatarURL, account.CoverURL, account.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrConflict
		}
		return fmt.Errorf("update account: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// UpdateRefreshToken overwrites the stored refresh token for the account.
// An empty token clears the live session.
func (r *PostgresAccountRepository) UpdateRefreshToken(ctx context.Context, id, refreshToken string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE accounts
        SET refresh_token = $2, updated_at = NOW()
        WHERE id = $1
    `, id, refreshToken)
	if err != nil {
		return fmt.Errorf("update account refresh token: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// UpdatePassword replaces the stored password hash for the account.
func (r *PostgresAccountRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE accounts
        SET password_hash = $2, updated_at = NOW()
        WHERE id = $1
    `, id, passwordHash)
	if err != nil {
		return fmt.Errorf("update account password: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func scanAccount(row pgx.Row) (models.Account, error) {
	var account models.Account
	if err := row.Scan(
		&account.ID, &account.Handle, &account.Email, &account.DisplayName, &account.Password,
		&account.AvatarURL, &account.CoverURL, &account.RefreshToken, &account.CreatedAt, &account.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Account{}, ErrNotFound
		}
		return models.Account{}, fmt.Errorf("select account: %w", err)
	}
	return account, nil
}

// PostgresEdgeRepository provides PostgreSQL-backed persistence for relations.
// The relations table carries a unique index on (actor_id, target_id, kind),
// which is what keeps concurrent toggles down to a single surviving edge.
type PostgresEdgeRepository struct {
	pool db.Pool
}

// NewPostgresEdgeRepository constructs an edge repository backed by PostgreSQL.
func NewPostgresEdgeRepository(pool db.Pool) *PostgresEdgeRepository {
	return &PostgresEdgeRepository{pool: pool}
}

// Create persists a new edge, reporting ErrConflict when the triple already exists.
func (r *PostgresEdgeRepository) Create(ctx context.Context, edge models.Edge) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO relations (id, actor_id, target_id, kind, created_at)
        VALUES ($1, $2, $3, $4, $5)
    `, edge.ID, edge.ActorID, edge.TargetID, string(edge.Kind), edge.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrConflict
		}
		return fmt.Errorf("insert relation: %w", err)
	}

	return nil
}

// Find loads the edge for the given (actor, target, kind) triple.
func (r *PostgresEdgeRepository) Find(ctx context.Context, actorID, targetID string, kind models.EdgeKind) (models.Edge, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Edge{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, actor_id, target_id, kind, created_at
        FROM relations
        WHERE actor_id = $1 AND target_id = $2 AND kind = $3
    `, actorID, targetID, string(kind))

	var edge models.Edge
	if err := row.Scan(&edge.ID, &edge.ActorID, &edge.TargetID, &edge.Kind, &edge.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Edge{}, ErrNotFound
		}
		return models.Edge{}, fmt.Errorf("select relation: %w", err)
	}

	return edge, nil
}

// Delete removes an edge by id.
func (r *PostgresEdgeRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM relations
        WHERE id = $1
    `, id)
	if err != nil {
		return fmt.Errorf("delete relation: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// ListByActor returns every edge of the given kind originating from the actor.
func (r *PostgresEdgeRepository) ListByActor(ctx context.Context, actorID string, kind models.EdgeKind) ([]models.Edge, error) {
	return r.list(ctx, `
        SELECT id, actor_id, target_id, kind, created_at
        FROM relations
        WHERE actor_id = $1 AND kind = $2
        ORDER BY created_at DESC
    `, actorID, kind)
}

// ListByTarget returns every edge of the given kind pointing at the target.
func (r *PostgresEdgeRepository) ListByTarget(ctx context.Context, targetID string, kind models.EdgeKind) ([]models.Edge, error) {
	return r.list(ctx, `
        SELECT id, actor_id, target_id, kind, created_at
        FROM relations
        WHERE target_id = $1 AND kind = $2
        ORDER BY created_at DESC
    `, targetID, kind)
}

func (r *PostgresEdgeRepository) list(ctx context.Context, query, id string, kind models.EdgeKind) ([]models.Edge, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, query, id, string(kind))
	if err != nil {
		return nil, fmt.Errorf("query relations: %w", err)
	}
	defer rows.Close()

	var edges []models.Edge
	for rows.Next() {
		var edge models.Edge
		if err := rows.Scan(&edge.ID, &edge.ActorID, &edge.TargetID, &edge.Kind, &edge.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan relation: %w", err)
		}
		edges = append(edges, edge)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate relations: %w", err)
	}

	return edges, nil
}

var _ AccountRepository = (*PostgresAccountRepository)(nil)
var _ EdgeRepository = (*PostgresEdgeRepository)(nil)
