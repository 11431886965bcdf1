// Package bbolt provides a BoltDB-backed game store.
package bbolt

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/louisbranch/deception/internal/services/game/domain/game"
	"github.com/louisbranch/deception/internal/services/game/domain/mailbox"
	"github.com/louisbranch/deception/internal/services/game/storage"
	"go.etcd.io/bbolt"
)

const (
	gameBucket    = "game"
	mailboxBucket = "mailbox"
)

// Store provides a BoltDB-backed game store.
type Store struct {
	db *bbolt.DB
}

// Open opens a BoltDB-backed store at the provided path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	db, err := bbolt.Open(cleanPath, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open storage db: %w", err)
	}

	store := &Store{db: db}
	if err := store.ensureBuckets(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying BoltDB database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Get fetches a game record by ID.
func (s *Store) Get(ctx context.Context, id string) (game.Record, error) {
	if err := ctx.Err(); err != nil {
		return game.Record{}, err
	}
	if s == nil || s.db == nil {
		return game.Record{}, fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(id) == "" {
		return game.Record{}, fmt.Errorf("game id is required")
	}

	var rec game.Record
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(gameBucket))
		if bucket == nil {
			return fmt.Errorf("game bucket is missing")
		}
		payload := bucket.Get(gameKey(id))
		if payload == nil {
			return storage.ErrNotFound
		}
		if err := json.Unmarshal(payload, &rec); err != nil {
			return fmt.Errorf("unmarshal game: %w", err)
		}
		return nil
	})
	if err != nil {
		return game.Record{}, err
	}
	return rec, nil
}

// Create persists a new game record.
func (s *Store) Create(ctx context.Context, rec game.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.db == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(rec.ID) == "" {
		return fmt.Errorf("game id is required")
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal game: %w", err)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(gameBucket))
		if bucket == nil {
			return fmt.Errorf("game bucket is missing")
		}
		if bucket.Get(gameKey(rec.ID)) != nil {
			return storage.ErrAlreadyExists
		}
		return bucket.Put(gameKey(rec.ID), payload)
	})
}

// CompareAndSwap replaces a game record when the stored revision equals
// expected.
func (s *Store) CompareAndSwap(ctx context.Context, expected uint64, rec game.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.db == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(rec.ID) == "" {
		return fmt.Errorf("game id is required")
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal game: %w", err)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(gameBucket))
		if bucket == nil {
			return fmt.Errorf("game bucket is missing")
		}
		current := bucket.Get(gameKey(rec.ID))
		if current == nil {
			return storage.ErrNotFound
		}
		var stored struct {
			Revision uint64 `json:"revision"`
		}
		if err := json.Unmarshal(current, &stored); err != nil {
			return fmt.Errorf("unmarshal game revision: %w", err)
		}
		if stored.Revision != expected {
			return storage.ErrConflict
		}
		return bucket.Put(gameKey(rec.ID), payload)
	})
}

// List returns up to limit game records, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]game.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	var records []game.Record
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(gameBucket))
		if bucket == nil {
			return fmt.Errorf("game bucket is missing")
		}
		return bucket.ForEach(func(_, payload []byte) error {
			var rec game.Record
			if err := json.Unmarshal(payload, &rec); err != nil {
				return fmt.Errorf("unmarshal game: %w", err)
			}
			records = append(records, rec)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	storage.SortNewestFirst(records)
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// Append stores mailbox messages in one transaction.
func (s *Store) Append(ctx context.Context, msgs ...mailbox.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.db == nil {
		return fmt.Errorf("storage is not configured")
	}
	if len(msgs) == 0 {
		return nil
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(mailboxBucket))
		if bucket == nil {
			return fmt.Errorf("mailbox bucket is missing")
		}
		for _, msg := range msgs {
			if err := storage.CheckAppend(msg); err != nil {
				return err
			}
			key := messageKey(msg.GameID, msg.Recipient, msg.Sequence)
			if existing := bucket.Get(key); existing != nil {
				var stored mailbox.Message
				if err := json.Unmarshal(existing, &stored); err != nil {
					return fmt.Errorf("unmarshal mailbox message: %w", err)
				}
				if err := storage.SameMessage(stored, msg); err != nil {
					return err
				}
				continue
			}
			payload, err := json.Marshal(msg)
			if err != nil {
				return fmt.Errorf("marshal mailbox message: %w", err)
			}
			if err := bucket.Put(key, payload); err != nil {
				return fmt.Errorf("put mailbox message: %w", err)
			}
		}
		return nil
	})
}

// Read returns messages after the cursor in sequence order.
func (s *Store) Read(ctx context.Context, gameID, recipient string, after uint64, max int) ([]mailbox.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(gameID) == "" {
		return nil, fmt.Errorf("game id is required")
	}
	max = mailbox.ClampCount(max)

	out := make([]mailbox.Message, 0)
	if after == math.MaxUint64 {
		return out, nil
	}
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(mailboxBucket))
		if bucket == nil {
			return fmt.Errorf("mailbox bucket is missing")
		}
		prefix := mailboxPrefix(gameID, recipient)
		c := bucket.Cursor()
		for k, v := c.Seek(messageKey(gameID, recipient, after+1)); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			if len(out) >= max {
				break
			}
			var msg mailbox.Message
			if err := json.Unmarshal(v, &msg); err != nil {
				return fmt.Errorf("unmarshal mailbox message: %w", err)
			}
			out = append(out, msg)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) ensureBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{gameBucket, mailboxBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("create %s bucket: %w", name, err)
			}
		}
		return nil
	})
}

func gameKey(id string) []byte {
	return []byte(id)
}

// mailboxPrefix is game id and recipient, each NUL terminated, so that no
// mailbox prefix is a prefix of another.
func mailboxPrefix(gameID, recipient string) []byte {
	key := make([]byte, 0, len(gameID)+len(recipient)+2+8)
	key = append(key, gameID...)
	key = append(key, 0)
	key = append(key, recipient...)
	key = append(key, 0)
	return key
}

// messageKey appends the big-endian sequence so cursor order is sequence order.
func messageKey(gameID, recipient string, seq uint64) []byte {
	return binary.BigEndian.AppendUint64(mailboxPrefix(gameID, recipient), seq)
}

var _ storage.Store = (*Store)(nil)
