package storage

import (
	"fmt"
	"slices"
	"strings"

	"github.com/louisbranch/deception/internal/services/game/domain/game"
	"github.com/louisbranch/deception/internal/services/game/domain/mailbox"
)

// CheckAppend validates a message before it is written to a mailbox log.
func CheckAppend(msg mailbox.Message) error {
	if strings.TrimSpace(msg.GameID) == "" {
		return fmt.Errorf("mailbox game id is required")
	}
	if msg.Sequence == 0 {
		return fmt.Errorf("mailbox sequence is required")
	}
	if err := msg.Validate(); err != nil {
		return fmt.Errorf("append mailbox message: %w", err)
	}
	return nil
}

// SameMessage returns nil when stored and incoming are the same write, and
// ErrSequenceConflict otherwise.
func SameMessage(stored, incoming mailbox.Message) error {
	left, err := stored.Fingerprint()
	if err != nil {
		return fmt.Errorf("fingerprint stored message: %w", err)
	}
	right, err := incoming.Fingerprint()
	if err != nil {
		return fmt.Errorf("fingerprint incoming message: %w", err)
	}
	if left != right {
		return fmt.Errorf("%s/%s#%d: %w", incoming.GameID, incoming.Recipient, incoming.Sequence, ErrSequenceConflict)
	}
	return nil
}

// SortNewestFirst orders records by creation time, newest first, breaking
// ties by id.
func SortNewestFirst(records []game.Record) {
	slices.SortFunc(records, func(a, b game.Record) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}
