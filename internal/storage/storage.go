// Package storage defines the persistence contracts for game sessions.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/louisbranch/highroll/internal/game/domain"
)

// ErrNotFound indicates a requested record is missing.
var ErrNotFound = errors.New("record not found")

// ErrVersionConflict indicates a compare-and-swap write lost to a
// concurrent committer. The caller should re-read and retry.
var ErrVersionConflict = errors.New("session version conflict")

// ErrAlreadyExists indicates a unique constraint rejected an insert.
var ErrAlreadyExists = errors.New("record already exists")

// SessionStore provides versioned read/compare-and-swap access to session
// documents. The version is the CAS token: it starts at 1 on Put and the
// store increments it atomically as part of every successful
// CompareAndSwap.
type SessionStore interface {
	// Put persists a new session document at version 1.
	Put(ctx context.Context, session domain.Session) error
	// Get fetches a session document and its current version.
	Get(ctx context.Context, sessionID string) (domain.Session, uint64, error)
	// CompareAndSwap persists the session only if the stored version still
	// equals expectedVersion, incrementing the version in the same write.
	// Returns ErrVersionConflict when another writer committed first.
	CompareAndSwap(ctx context.Context, sessionID string, expectedVersion uint64, session domain.Session) error
	// DeleteExpired removes sessions whose expiry elapsed before now and
	// reports how many were purged.
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}
