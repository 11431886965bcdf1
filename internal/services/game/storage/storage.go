// Package storage defines persistence contracts for game records and
// mailboxes.
//
// Records are replaced whole under compare-and-swap on Revision, so readers
// see either the previous or the next record, never a mix. Mailboxes are
// append-only per (game, recipient) and keyed by sequence, so re-appending a
// committed message is a no-op.
//
// Common error types:
//   - ErrNotFound: the game does not exist
//   - ErrConflict: the stored revision moved since it was read
//   - ErrAlreadyExists: a create collided with an existing game
//   - ErrSequenceConflict: a mailbox slot already holds different content
//   - ErrLockTimeout: exclusive access was not granted in time
package storage

import (
	"context"
	"errors"

	apperrors "github.com/louisbranch/deception/internal/platform/errors"
	"github.com/louisbranch/deception/internal/services/game/domain/game"
	"github.com/louisbranch/deception/internal/services/game/domain/mailbox"
)

var (
	// ErrNotFound indicates a requested game is missing.
	ErrNotFound = apperrors.New(apperrors.CodeGameNotFound, "game not found")
	// ErrConflict indicates a compare-and-swap lost against a newer revision.
	ErrConflict = apperrors.New(apperrors.CodePersistenceConflict, "game revision changed")
	// ErrLockTimeout indicates the per-game lock was not acquired in time.
	ErrLockTimeout = apperrors.New(apperrors.CodeGameContention, "game is busy")
	// ErrAlreadyExists indicates a create for an id that is already stored.
	ErrAlreadyExists = errors.New("game already exists")
	// ErrSequenceConflict indicates a mailbox append whose slot already holds
	// a different message.
	ErrSequenceConflict = errors.New("mailbox sequence holds different content")
)

// RecordStore persists whole game records.
type RecordStore interface {
	// Get returns the record for id or ErrNotFound.
	Get(ctx context.Context, id string) (game.Record, error)
	// Create stores a new record or returns ErrAlreadyExists.
	Create(ctx context.Context, rec game.Record) error
	// CompareAndSwap replaces the record when the stored revision equals
	// expected, otherwise it returns ErrConflict.
	CompareAndSwap(ctx context.Context, expected uint64, rec game.Record) error
	// List returns up to limit records, newest first. A limit of zero or
	// less returns every record.
	List(ctx context.Context, limit int) ([]game.Record, error)
}

// MailboxLog is the per-(game, recipient) append-only message log.
type MailboxLog interface {
	// Append stores each message at its (game, recipient, sequence) slot.
	// Re-appending identical content is a no-op; different content returns
	// ErrSequenceConflict.
	Append(ctx context.Context, msgs ...mailbox.Message) error
	// Read returns up to max messages with sequence greater than after, in
	// sequence order.
	Read(ctx context.Context, gameID, recipient string, after uint64, max int) ([]mailbox.Message, error)
}

// Locker grants exclusive per-key access with a bounded wait.
type Locker interface {
	// Acquire blocks until key is free or the wait bound passes. The returned
	// release func is safe to call more than once.
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// Store is a full persistence backend.
type Store interface {
	RecordStore
	MailboxLog
	Close() error
}
