// Package memory provides an in-process storage backend for tests and
// single-node development.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/louisbranch/deception/internal/services/game/domain/game"
	"github.com/louisbranch/deception/internal/services/game/domain/mailbox"
	"github.com/louisbranch/deception/internal/services/game/storage"
)

type mailboxKey struct {
	gameID    string
	recipient string
}

// Store keeps records as serialized documents so callers never share
// memory with stored state.
type Store struct {
	mu        sync.RWMutex
	records   map[string][]byte
	revisions map[string]uint64
	mailboxes map[mailboxKey]map[uint64]mailbox.Message
}

// New returns an empty store.
func New() *Store {
	return &Store{
		records:   map[string][]byte{},
		revisions: map[string]uint64{},
		mailboxes: map[mailboxKey]map[uint64]mailbox.Message{},
	}
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

// Get returns the record for id.
func (s *Store) Get(ctx context.Context, id string) (game.Record, error) {
	if err := ctx.Err(); err != nil {
		return game.Record{}, err
	}
	s.mu.RLock()
	payload, ok := s.records[id]
	s.mu.RUnlock()
	if !ok {
		return game.Record{}, storage.ErrNotFound
	}
	return decode(payload)
}

// Create stores a new record.
func (s *Store) Create(ctx context.Context, rec game.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(rec.ID) == "" {
		return fmt.Errorf("game id is required")
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal game: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[rec.ID]; ok {
		return storage.ErrAlreadyExists
	}
	s.records[rec.ID] = payload
	s.revisions[rec.ID] = rec.Revision
	return nil
}

// CompareAndSwap replaces the record when its revision equals expected.
func (s *Store) CompareAndSwap(ctx context.Context, expected uint64, rec game.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal game: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.revisions[rec.ID]
	if !ok {
		return storage.ErrNotFound
	}
	if current != expected {
		return storage.ErrConflict
	}
	s.records[rec.ID] = payload
	s.revisions[rec.ID] = rec.Revision
	return nil
}

// List returns records newest first.
func (s *Store) List(ctx context.Context, limit int) ([]game.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	payloads := make([][]byte, 0, len(s.records))
	for _, payload := range s.records {
		payloads = append(payloads, payload)
	}
	s.mu.RUnlock()

	records := make([]game.Record, 0, len(payloads))
	for _, payload := range payloads {
		rec, err := decode(payload)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	storage.SortNewestFirst(records)
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// Append stores each message at its sequence slot.
func (s *Store) Append(ctx context.Context, msgs ...mailbox.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, msg := range msgs {
		if err := storage.CheckAppend(msg); err != nil {
			return err
		}
		key := mailboxKey{gameID: msg.GameID, recipient: msg.Recipient}
		log, ok := s.mailboxes[key]
		if !ok {
			log = map[uint64]mailbox.Message{}
			s.mailboxes[key] = log
		}
		if existing, ok := log[msg.Sequence]; ok {
			if err := storage.SameMessage(existing, msg); err != nil {
				return err
			}
			continue
		}
		log[msg.Sequence] = cloneMessage(msg)
	}
	return nil
}

// Read returns messages after the cursor in sequence order.
func (s *Store) Read(ctx context.Context, gameID, recipient string, after uint64, max int) ([]mailbox.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	max = mailbox.ClampCount(max)
	s.mu.RLock()
	defer s.mu.RUnlock()
	log := s.mailboxes[mailboxKey{gameID: gameID, recipient: recipient}]
	seqs := make([]uint64, 0, len(log))
	for seq := range log {
		if seq > after {
			seqs = append(seqs, seq)
		}
	}
	slices.Sort(seqs)
	if len(seqs) > max {
		seqs = seqs[:max]
	}
	out := make([]mailbox.Message, 0, len(seqs))
	for _, seq := range seqs {
		out = append(out, cloneMessage(log[seq]))
	}
	return out, nil
}

func decode(payload []byte) (game.Record, error) {
	var rec game.Record
	if err := json.Unmarshal(payload, &rec); err != nil {
		return game.Record{}, fmt.Errorf("unmarshal game: %w", err)
	}
	return rec, nil
}

func cloneMessage(msg mailbox.Message) mailbox.Message {
	msg.ClueIDs = slices.Clone(msg.ClueIDs)
	msg.MeansIDs = slices.Clone(msg.MeansIDs)
	msg.LocationIDs = slices.Clone(msg.LocationIDs)
	msg.CauseIDs = slices.Clone(msg.CauseIDs)
	return msg
}

var _ storage.Store = (*Store)(nil)
