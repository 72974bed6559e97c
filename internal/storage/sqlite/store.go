// Package sqlite provides a SQLite-backed session store implementation.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/louisbranch/highroll/internal/game/domain"
	"github.com/louisbranch/highroll/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/highroll/internal/storage"
	"github.com/louisbranch/highroll/internal/storage/sqlite/migrations"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Store persists session documents in SQLite. Each session is one row:
// a JSON document column plus an integer version column enforcing the
// compare-and-swap contract.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

// Open opens a SQLite session store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Put persists a new session document at version 1.
func (s *Store) Put(ctx context.Context, session domain.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(session.ID) == "" {
		return fmt.Errorf("session id is required")
	}

	doc, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	_, err = s.sqlDB.ExecContext(ctx, `
INSERT INTO sessions (id, version, status, expires_at, doc, created_at, updated_at)
VALUES (?, 1, ?, ?, ?, ?, ?)`,
		session.ID,
		session.Status.String(),
		toMillis(session.ExpiresAt),
		string(doc),
		toMillis(session.CreatedAt),
		toMillis(session.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// Get fetches a session document and its current version.
func (s *Store) Get(ctx context.Context, sessionID string) (domain.Session, uint64, error) {
	if err := ctx.Err(); err != nil {
		return domain.Session{}, 0, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.Session{}, 0, fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(sessionID) == "" {
		return domain.Session{}, 0, fmt.Errorf("session id is required")
	}

	var doc string
	var version int64
	err := s.sqlDB.QueryRowContext(ctx,
		"SELECT doc, version FROM sessions WHERE id = ?", sessionID,
	).Scan(&doc, &version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Session{}, 0, storage.ErrNotFound
		}
		return domain.Session{}, 0, fmt.Errorf("select session: %w", err)
	}

	var session domain.Session
	if err := json.Unmarshal([]byte(doc), &session); err != nil {
		return domain.Session{}, 0, fmt.Errorf("unmarshal session: %w", err)
	}
	if version <= 0 {
		return domain.Session{}, 0, fmt.Errorf("session version %d is invalid", version)
	}
	return session, uint64(version), nil
}

// CompareAndSwap persists the session only if the stored version still
// equals expectedVersion. The version increments atomically in the same
// write, so committed versions are strictly increasing with no gaps.
func (s *Store) CompareAndSwap(ctx context.Context, sessionID string, expectedVersion uint64, session domain.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(sessionID) == "" {
		return fmt.Errorf("session id is required")
	}
	if expectedVersion == 0 {
		return fmt.Errorf("expected version is required")
	}

	doc, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE sessions
SET doc = ?, version = version + 1, status = ?, expires_at = ?, updated_at = ?
WHERE id = ? AND version = ?`,
		string(doc),
		session.Status.String(),
		toMillis(session.ExpiresAt),
		toMillis(session.UpdatedAt),
		sessionID,
		int64(expectedVersion),
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("session rows affected: %w", err)
	}
	if affected == 1 {
		return nil
	}

	// Distinguish a lost race from a missing row.
	var found int
	err = s.sqlDB.QueryRowContext(ctx, "SELECT 1 FROM sessions WHERE id = ?", sessionID).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("check session: %w", err)
	}
	return storage.ErrVersionConflict
}

// DeleteExpired removes sessions whose expiry elapsed before now.
func (s *Store) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s == nil || s.sqlDB == nil {
		return 0, fmt.Errorf("storage is not configured")
	}

	result, err := s.sqlDB.ExecContext(ctx,
		"DELETE FROM sessions WHERE expires_at < ?", toMillis(now),
	)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("expired rows affected: %w", err)
	}
	return int(affected), nil
}

// isUniqueViolation reports whether err is a primary-key or unique
// constraint failure.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	message := strings.ToLower(err.Error())
	return strings.Contains(message, "unique constraint failed")
}

var _ storage.SessionStore = (*Store)(nil)
