// Package sqlite provides a SQLite-backed inventory granter.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/louisbranch/highroll/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/highroll/internal/reward"
	"github.com/louisbranch/highroll/internal/reward/sqlite/migrations"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Store deposits prize grants into an inventory table. The primary key on
// (session_id, prize_type) makes duplicate grants no-ops, which is the
// idempotency contract the coordinator relies on under retry.
type Store struct {
	sqlDB *sql.DB
	clock func() time.Time
}

// Open opens a SQLite grants store and applies embedded migrations.
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
	return &Store{sqlDB: sqlDB, clock: time.Now}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Grant deposits one prize into the recipient's inventory. Granting the
// same (sessionID, prizeType) twice is a no-op regardless of recipient, so
// a crashed-and-retried fulfillment cannot double-deposit.
func (s *Store) Grant(ctx context.Context, sessionID, prizeType, recipientID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(sessionID) == "" {
		return fmt.Errorf("session id is required")
	}
	if strings.TrimSpace(prizeType) == "" {
		return fmt.Errorf("prize type is required")
	}
	if strings.TrimSpace(recipientID) == "" {
		return fmt.Errorf("recipient id is required")
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO inventory_grants (session_id, prize_type, recipient_id, granted_at)
VALUES (?, ?, ?, ?)`,
		sessionID,
		prizeType,
		recipientID,
		s.clock().UTC().UnixMilli(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil
		}
		return fmt.Errorf("insert grant: %w", err)
	}
	return nil
}

// Recipient reports who received the prize for a session, if anyone.
func (s *Store) Recipient(ctx context.Context, sessionID, prizeType string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	if s == nil || s.sqlDB == nil {
		return "", false, fmt.Errorf("storage is not configured")
	}

	var recipientID string
	err := s.sqlDB.QueryRowContext(ctx,
		"SELECT recipient_id FROM inventory_grants WHERE session_id = ? AND prize_type = ?",
		sessionID, prizeType,
	).Scan(&recipientID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("select grant: %w", err)
	}
	return recipientID, true, nil
}

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

var _ reward.Granter = (*Store)(nil)
