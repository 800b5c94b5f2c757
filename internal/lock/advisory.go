// Package lock provides Postgres advisory locking for sheetmigrate, keeping
// two migration instances from writing to the same destination at once.
package lock

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"
)

// ErrLockHeld is returned when another instance already holds the lock.
var ErrLockHeld = errors.New("migration lock is held by another instance")

// AdvisoryLock represents a Postgres session-level advisory lock. Advisory
// locks are session-scoped, so the lock pins a dedicated connection from the
// pool for its whole lifetime; releasing the lock returns the connection.
type AdvisoryLock struct {
	db       *sql.DB
	conn     *sql.Conn
	lockName string
	key      int64
	held     bool
}

// NewAdvisoryLock creates a new advisory lock with the given name.
// The lock is not acquired until TryAcquire is called.
func NewAdvisoryLock(db *sql.DB, lockName string) *AdvisoryLock {
	return &AdvisoryLock{
		db:       db,
		lockName: lockName,
		key:      lockKey(lockName),
	}
}

// TryAcquire attempts to acquire the lock immediately without waiting.
// Returns true if acquired, false if the lock is already held elsewhere.
// Returns an error only on database failure.
func (a *AdvisoryLock) TryAcquire(ctx context.Context) (bool, error) {
	if a.held {
		return true, nil
	}

	conn, err := a.db.Conn(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to obtain connection for lock: %w", err)
	}

	var acquired bool
	err = conn.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", a.key).Scan(&acquired)
	if err != nil {
		conn.Close()
		return false, fmt.Errorf("failed to execute pg_try_advisory_lock: %w", err)
	}

	if !acquired {
		conn.Close()
		return false, nil
	}

	a.conn = conn
	a.held = true
	return true, nil
}

// AcquireOrFail attempts to acquire the lock, returning ErrLockHeld if
// another instance holds it. Convenience for the fail-fast startup path.
func (a *AdvisoryLock) AcquireOrFail(ctx context.Context) error {
	acquired, err := a.TryAcquire(ctx)
	if err != nil {
		return err
	}
	if !acquired {
		return fmt.Errorf("%w: lock %q", ErrLockHeld, a.lockName)
	}
	return nil
}

// Release releases the advisory lock and returns its connection to the pool.
// Returns true if the lock was released, false if it was not held.
func (a *AdvisoryLock) Release(ctx context.Context) (bool, error) {
	if !a.held {
		return false, nil
	}

	var released bool
	err := a.conn.QueryRowContext(ctx, "SELECT pg_advisory_unlock($1)", a.key).Scan(&released)

	// The lock dies with the session regardless of the unlock outcome.
	closeErr := a.conn.Close()
	a.conn = nil
	a.held = false

	if err != nil {
		return false, fmt.Errorf("failed to execute pg_advisory_unlock: %w", err)
	}
	if closeErr != nil {
		return released, fmt.Errorf("failed to close lock connection: %w", closeErr)
	}
	return released, nil
}

// IsHeld returns true if this lock is currently held by this instance.
func (a *AdvisoryLock) IsHeld() bool {
	return a.held
}

// LockName returns the name of the advisory lock.
func (a *AdvisoryLock) LockName() string {
	return a.lockName
}

// RunLockName creates the lock name for a migration run against a
// destination database, namespaced to avoid colliding with other advisory
// lock users.
func RunLockName(database string) string {
	return fmt.Sprintf("sheetmigrate:run:%s", database)
}

// lockKey hashes a lock name into the bigint key space Postgres advisory
// locks are addressed by.
func lockKey(name string) int64 {
	h := fnv.New64a()
	h.Write([]byte(name))
	return int64(h.Sum64())
}
