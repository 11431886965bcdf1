// Package mailbox defines the per-player append-only notification log.
//
// Each message type carries only the payload fields on its allow-list, so a
// recipient can never learn more than the type is meant to reveal.
package mailbox

import (
	"errors"
	"fmt"
	"slices"

	"github.com/louisbranch/deception/internal/services/game/domain/core/encoding"
)

// Type is the closed set of mailbox message tags.
type Type string

const (
	TypePromptMurderPick   Type = "prompt_murder_pick"
	TypeSolutionChosen     Type = "solution_chosen"
	TypeIdentitiesRevealed Type = "identities_revealed"
	TypePromptScenePick    Type = "prompt_scene_pick"
	TypeSceneSelected      Type = "scene_selected"
	TypeBadgeConsumed      Type = "badge_consumed"
	TypeGameCompleted      Type = "game_completed"
	TypeStateChanged       Type = "state_changed"
)

const (
	// DefaultReadCount is used when a reader does not ask for a count.
	DefaultReadCount = 50
	// MaxReadCount caps a single read.
	MaxReadCount = 200
)

var (
	// ErrUnknownType indicates a message type outside the closed set.
	ErrUnknownType = errors.New("unknown mailbox message type")
	// ErrFieldNotAllowed indicates a payload field the type may not carry.
	ErrFieldNotAllowed = errors.New("mailbox payload field not allowed")
	// ErrRecipientRequired indicates a message without a recipient.
	ErrRecipientRequired = errors.New("mailbox recipient is required")
)

var allowed = map[Type][]string{
	TypePromptMurderPick:   {"clue_ids", "means_ids"},
	TypeSolutionChosen:     {"clue_id", "means_id"},
	TypeIdentitiesRevealed: {"murderer_id", "accomplice_id"},
	TypePromptScenePick:    {"location_ids", "cause_ids"},
	TypeSceneSelected:      {"location_id", "cause_id"},
	TypeBadgeConsumed:      {},
	TypeGameCompleted:      {"winner_id"},
	TypeStateChanged:       {},
}

// Message is one entry in a recipient's mailbox.
type Message struct {
	GameID    string `json:"game_id"`
	Recipient string `json:"recipient"`
	Sequence  uint64 `json:"sequence"`
	Type      Type   `json:"type"`
	Phase     string `json:"phase"`
	Revision  uint64 `json:"revision"`

	ClueID       string   `json:"clue_id,omitempty"`
	MeansID      string   `json:"means_id,omitempty"`
	ClueIDs      []string `json:"clue_ids,omitempty"`
	MeansIDs     []string `json:"means_ids,omitempty"`
	MurdererID   string   `json:"murderer_id,omitempty"`
	AccompliceID string   `json:"accomplice_id,omitempty"`
	LocationIDs  []string `json:"location_ids,omitempty"`
	CauseIDs     []string `json:"cause_ids,omitempty"`
	LocationID   string   `json:"location_id,omitempty"`
	CauseID      string   `json:"cause_id,omitempty"`
	WinnerID     string   `json:"winner_id,omitempty"`
}

// Fields lists the payload fields that are set, by wire name.
func (m Message) Fields() []string {
	var fields []string
	add := func(name string, set bool) {
		if set {
			fields = append(fields, name)
		}
	}
	add("clue_id", m.ClueID != "")
	add("means_id", m.MeansID != "")
	add("clue_ids", len(m.ClueIDs) > 0)
	add("means_ids", len(m.MeansIDs) > 0)
	add("murderer_id", m.MurdererID != "")
	add("accomplice_id", m.AccompliceID != "")
	add("location_ids", len(m.LocationIDs) > 0)
	add("cause_ids", len(m.CauseIDs) > 0)
	add("location_id", m.LocationID != "")
	add("cause_id", m.CauseID != "")
	add("winner_id", m.WinnerID != "")
	return fields
}

// Validate rejects unknown types and payload fields outside the type's
// allow-list.
func (m Message) Validate() error {
	fields, ok := allowed[m.Type]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownType, m.Type)
	}
	if m.Recipient == "" {
		return ErrRecipientRequired
	}
	for _, name := range m.Fields() {
		if !slices.Contains(fields, name) {
			return fmt.Errorf("%w: %s on %s", ErrFieldNotAllowed, name, m.Type)
		}
	}
	return nil
}

// Fingerprint returns a content hash over the full message, sequence
// included. Two appends at the same (game, recipient, sequence) are the same
// write iff their fingerprints match.
func (m Message) Fingerprint() (string, error) {
	return encoding.ContentHash(m)
}

// Number assigns per-recipient sequence numbers to msgs, continuing from
// heads, and advances heads in place. The first message for a recipient gets
// sequence 1.
func Number(heads map[string]uint64, msgs []Message) []Message {
	out := make([]Message, len(msgs))
	for i, msg := range msgs {
		heads[msg.Recipient]++
		msg.Sequence = heads[msg.Recipient]
		out[i] = msg
	}
	return out
}

// ClampCount bounds a requested read size to 1..MaxReadCount, mapping
// non-positive values to DefaultReadCount.
func ClampCount(count int) int {
	switch {
	case count <= 0:
		return DefaultReadCount
	case count > MaxReadCount:
		return MaxReadCount
	default:
		return count
	}
}
