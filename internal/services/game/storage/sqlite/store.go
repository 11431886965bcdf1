// Package sqlite provides a SQLite-backed game store.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	sqlitemigrate "github.com/louisbranch/deception/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/deception/internal/services/game/domain/game"
	"github.com/louisbranch/deception/internal/services/game/domain/mailbox"
	"github.com/louisbranch/deception/internal/services/game/storage"
	"github.com/louisbranch/deception/internal/services/game/storage/sqlite/migrations"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Store persists game state in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

// Open opens a SQLite game store and applies embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(ctx, sqlDB, migrations.FS, ""); err != nil {
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

// Get returns one game by ID.
func (s *Store) Get(ctx context.Context, id string) (game.Record, error) {
	if err := ctx.Err(); err != nil {
		return game.Record{}, err
	}
	if s == nil || s.sqlDB == nil {
		return game.Record{}, fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(id) == "" {
		return game.Record{}, fmt.Errorf("game id is required")
	}

	var payload []byte
	err := s.sqlDB.QueryRowContext(ctx, `SELECT payload FROM games WHERE id = ?`, id).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return game.Record{}, storage.ErrNotFound
		}
		return game.Record{}, fmt.Errorf("get game: %w", err)
	}
	return decodeRecord(payload)
}

// Create inserts one game record.
func (s *Store) Create(ctx context.Context, rec game.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(rec.ID) == "" {
		return fmt.Errorf("game id is required")
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal game: %w", err)
	}

	_, err = s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO games (
		   id,
		   revision,
		   phase,
		   created_at,
		   updated_at,
		   payload
		 ) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID,
		int64(rec.Revision),
		string(rec.Phase),
		toMillis(rec.CreatedAt),
		toMillis(rec.UpdatedAt),
		payload,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("create game: %w", err)
	}
	return nil
}

// CompareAndSwap replaces the game when the stored revision equals expected.
func (s *Store) CompareAndSwap(ctx context.Context, expected uint64, rec game.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(rec.ID) == "" {
		return fmt.Errorf("game id is required")
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal game: %w", err)
	}

	result, err := s.sqlDB.ExecContext(
		ctx,
		`UPDATE games
		    SET revision = ?, phase = ?, updated_at = ?, payload = ?
		  WHERE id = ? AND revision = ?`,
		int64(rec.Revision),
		string(rec.Phase),
		toMillis(rec.UpdatedAt),
		payload,
		rec.ID,
		int64(expected),
	)
	if err != nil {
		return fmt.Errorf("update game: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update game rows: %w", err)
	}
	if affected == 1 {
		return nil
	}

	var exists int
	err = s.sqlDB.QueryRowContext(ctx, `SELECT 1 FROM games WHERE id = ?`, rec.ID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("check game: %w", err)
	}
	return storage.ErrConflict
}

// List returns up to limit games, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]game.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT payload FROM games ORDER BY created_at DESC, id ASC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	defer rows.Close()

	records := make([]game.Record, 0)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("list games: %w", err)
		}
		rec, err := decodeRecord(payload)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	return records, nil
}

// Append stores mailbox messages in one transaction.
func (s *Store) Append(ctx context.Context, msgs ...mailbox.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if len(msgs) == 0 {
		return nil
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin mailbox append: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, msg := range msgs {
		if err := storage.CheckAppend(msg); err != nil {
			return err
		}
		if err := appendOne(ctx, tx, msg); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit mailbox append: %w", err)
	}
	return nil
}

func appendOne(ctx context.Context, tx *sql.Tx, msg mailbox.Message) error {
	fingerprint, err := msg.Fingerprint()
	if err != nil {
		return fmt.Errorf("fingerprint mailbox message: %w", err)
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal mailbox message: %w", err)
	}

	result, err := tx.ExecContext(
		ctx,
		`INSERT INTO mailbox_messages (
		   game_id,
		   recipient,
		   sequence,
		   type,
		   fingerprint,
		   payload
		 ) VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (game_id, recipient, sequence) DO NOTHING`,
		msg.GameID,
		msg.Recipient,
		int64(msg.Sequence),
		string(msg.Type),
		fingerprint,
		payload,
	)
	if err != nil {
		return fmt.Errorf("insert mailbox message: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert mailbox message rows: %w", err)
	}
	if affected == 1 {
		return nil
	}

	var stored string
	if err := tx.QueryRowContext(
		ctx,
		`SELECT fingerprint FROM mailbox_messages WHERE game_id = ? AND recipient = ? AND sequence = ?`,
		msg.GameID, msg.Recipient, int64(msg.Sequence),
	).Scan(&stored); err != nil {
		return fmt.Errorf("load mailbox message: %w", err)
	}
	if stored != fingerprint {
		return fmt.Errorf("%s/%s#%d: %w", msg.GameID, msg.Recipient, msg.Sequence, storage.ErrSequenceConflict)
	}
	return nil
}

// Read returns messages after the cursor in sequence order.
func (s *Store) Read(ctx context.Context, gameID, recipient string, after uint64, max int) ([]mailbox.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(gameID) == "" {
		return nil, fmt.Errorf("game id is required")
	}
	// Sequences are stored as signed integers.
	if after >= math.MaxInt64 {
		return []mailbox.Message{}, nil
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT payload
		   FROM mailbox_messages
		  WHERE game_id = ? AND recipient = ? AND sequence > ?
		  ORDER BY sequence ASC
		  LIMIT ?`,
		gameID,
		recipient,
		int64(after),
		mailbox.ClampCount(max),
	)
	if err != nil {
		return nil, fmt.Errorf("read mailbox: %w", err)
	}
	defer rows.Close()

	out := make([]mailbox.Message, 0)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("read mailbox: %w", err)
		}
		var msg mailbox.Message
		if err := json.Unmarshal(payload, &msg); err != nil {
			return nil, fmt.Errorf("unmarshal mailbox message: %w", err)
		}
		out = append(out, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read mailbox: %w", err)
	}
	return out, nil
}

func decodeRecord(payload []byte) (game.Record, error) {
	var rec game.Record
	if err := json.Unmarshal(payload, &rec); err != nil {
		return game.Record{}, fmt.Errorf("unmarshal game: %w", err)
	}
	return rec, nil
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
	return strings.Contains(message, "unique constraint failed") &&
		strings.Contains(message, "games.id")
}

var _ storage.Store = (*Store)(nil)
