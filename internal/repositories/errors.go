package repositories

import "errors"

// Sentinel errors shared by every repository. Drivers' own errors never
// leave this package; pg error codes and pgx.ErrNoRows are translated into
// these before returning.
var (
	ErrNotFound = errors.New("repositories: row not found")
	ErrConflict = errors.New("repositories: unique constraint violated")
)
