package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clipstream/backend/internal/config"
	"github.com/clipstream/backend/internal/db"
)

// Schema migrations are ordered .sql files applied inside serializable
// transactions, one per file, with the applied versions recorded in a
// schema_migrations ledger table.

const (
	migrationRetries     = 3
	migrationBaseBackoff = 100 * time.Millisecond
	migrationMaxBackoff  = 3 * time.Second
)

func runMigrations(ctx context.Context, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.LogLevel)

	command := "up"
	if len(args) > 0 {
		command = args[0]
	}

	dir, err := resolvePath(cfg.MigrationDir)
	if err != nil {
		return err
	}

	versions, err := migrationFiles(dir)
	if err != nil {
		return err
	}

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`); err != nil {
		return fmt.Errorf("ensure schema_migrations table: %w", err)
	}

	applied, err := appliedVersions(ctx, conn)
	if err != nil {
		return err
	}

	switch command {
	case "status":
		for _, version := range versions {
			marker := "[ ]"
			if _, ok := applied[version]; ok {
				marker = "[x]"
			}
			fmt.Printf("%s %s\n", marker, version)
		}
		return nil

	case "up", "":
		pending := 0
		for _, version := range versions {
			if _, ok := applied[version]; ok {
				continue
			}
			script, err := os.ReadFile(filepath.Join(dir, version))
			if err != nil {
				return fmt.Errorf("read migration %s: %w", version, err)
			}
			if err := applyMigration(ctx, conn, version, string(script), logger); err != nil {
				return err
			}
			logger.Info("applied migration", "version", version)
			pending++
		}
		if pending == 0 {
			logger.Info("schema is up to date", "versions", len(versions))
		}
		return nil

	case "down":
		return errors.New("down migrations are not supported yet")

	default:
		return fmt.Errorf("unknown migrate command %q", command)
	}
}

// resolvePath makes a configured directory absolute relative to the working
// directory.
func resolvePath(dir string) (string, error) {
	if filepath.IsAbs(dir) {
		return dir, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("determine working directory: %w", err)
	}
	return filepath.Join(wd, dir), nil
}

func migrationFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations directory: %w", err)
	}

	var versions []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		versions = append(versions, entry.Name())
	}
	sort.Strings(versions)
	return versions, nil
}

func appliedVersions(ctx context.Context, conn *pgxpool.Conn) (map[string]struct{}, error) {
	rows, err := conn.Query(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("fetch applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]struct{})
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("scan applied migration: %w", err)
		}
		applied[version] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate applied migrations: %w", err)
	}
	return applied, nil
}

// applyMigration runs one migration script and its ledger insert in a single
// serializable transaction, retrying with exponential backoff on transient
// serialization and lock errors.
func applyMigration(ctx context.Context, conn *pgxpool.Conn, version, script string, logger *slog.Logger) error {
	backoff := migrationBaseBackoff

	for attempt := 1; ; attempt++ {
		err := inSerializableTx(ctx, conn, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, script); err != nil {
				return err
			}
			_, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, version)
			return err
		})
		if err == nil {
			return nil
		}
		if attempt >= migrationRetries || !retryableMigrationError(err) {
			return fmt.Errorf("apply migration %s: %w", version, err)
		}

		logger.Warn("retrying migration after transient error",
			"version", version, "attempt", attempt, "error", err)

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		if backoff *= 2; backoff > migrationMaxBackoff {
			backoff = migrationMaxBackoff
		}
	}
}

func inSerializableTx(ctx context.Context, conn *pgxpool.Conn, fn func(tx pgx.Tx) error) error {
	tx, err := conn.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func retryableMigrationError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, pgx.ErrTxClosed) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01", "55P03": // serialization failure, deadlock, lock not available
			return true
		}
	}
	return false
}
