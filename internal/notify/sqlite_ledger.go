package notify

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ponytojas/plant-mood/internal/models"
	_ "modernc.org/sqlite"
)

const ledgerMaxRetries = 3

// SQLiteLedger keeps notification records in a local SQLite file so the
// cool-down survives restarts.
type SQLiteLedger struct {
	db *sql.DB
	lg *slog.Logger
}

// NewSQLiteLedger opens (creating if needed) the ledger database at path.
func NewSQLiteLedger(path string, lg *slog.Logger) (*SQLiteLedger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create ledger directory: %w", err)
	}

	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping ledger: %w", err)
	}

	l := &SQLiteLedger{db: db, lg: lg}
	if err := l.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize ledger schema: %w", err)
	}
	return l, nil
}

func (l *SQLiteLedger) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS notification_records (
		plant_id TEXT NOT NULL,
		state TEXT NOT NULL,
		sent_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_records_pair ON notification_records(plant_id, state, sent_at);
	`
	if _, err := l.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Close closes the database.
func (l *SQLiteLedger) Close() error {
	return l.db.Close()
}

// Reserve implements Ledger with a single conditional insert.
func (l *SQLiteLedger) Reserve(ctx context.Context, plantID string, state models.EmotionalState, now time.Time, window time.Duration) (bool, error) {
	query := `
	INSERT INTO notification_records (plant_id, state, sent_at)
	SELECT ?, ?, ?
	WHERE NOT EXISTS (
		SELECT 1 FROM notification_records
		WHERE plant_id = ? AND state = ? AND sent_at > ?
	)`

	var reserved bool
	err := l.withRetry(ctx, "reserve", func() error {
		res, err := l.db.ExecContext(ctx, query,
			plantID, string(state), now.UnixNano(),
			plantID, string(state), now.Add(-window).UnixNano(),
		)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("get rows affected: %w", err)
		}
		reserved = n == 1
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("reserve notification record: %w", err)
	}
	return reserved, nil
}

// Release implements Ledger.
func (l *SQLiteLedger) Release(ctx context.Context, plantID string, state models.EmotionalState, sentAt time.Time) error {
	query := `DELETE FROM notification_records WHERE plant_id = ? AND state = ? AND sent_at = ?`
	err := l.withRetry(ctx, "release", func() error {
		_, err := l.db.ExecContext(ctx, query, plantID, string(state), sentAt.UnixNano())
		return err
	})
	if err != nil {
		return fmt.Errorf("release notification record: %w", err)
	}
	return nil
}

// Prune implements Ledger.
func (l *SQLiteLedger) Prune(ctx context.Context, before time.Time) (int64, error) {
	var n int64
	err := l.withRetry(ctx, "prune", func() error {
		res, err := l.db.ExecContext(ctx, `DELETE FROM notification_records WHERE sent_at < ?`, before.UnixNano())
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("prune notification records: %w", err)
	}
	return n, nil
}

// withRetry repeats fn with exponential backoff while SQLite reports the
// database as busy or locked.
func (l *SQLiteLedger) withRetry(ctx context.Context, op string, fn func() error) error {
	baseDelay := 50 * time.Millisecond
	var err error
	for i := 0; i < ledgerMaxRetries; i++ {
		if err = fn(); err == nil || !isSQLiteConflict(err) {
			return err
		}
		if i == ledgerMaxRetries-1 {
			break
		}
		delay := baseDelay * time.Duration(1<<i)
		l.lg.Debug("Ledger busy, retrying", "op", op, "attempt", i+1, "delay", delay)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return err
}

func isSQLiteConflict(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}
