// Package game holds the game record, its phase machine, and role rules.
package game

import (
	"fmt"
	"maps"
	"slices"
	"time"

	apperrors "github.com/louisbranch/deception/internal/platform/errors"
	"github.com/louisbranch/deception/internal/services/game/domain/mailbox"
)

// HandSize is the number of clue and of means cards each dealt player holds.
const HandSize = 4

// Record is the full state of one game.
type Record struct {
	ID         string              `json:"id"`
	Phase      Phase               `json:"phase"`
	Players    []Player            `json:"players"`
	Solution   *Solution           `json:"solution,omitempty"`
	Discussion []DiscussionMessage `json:"discussion"`
	Scene      Scene               `json:"scene"`
	Revision   uint64              `json:"revision"`
	Seed       int64               `json:"seed"`
	WinnerID   string              `json:"winner_id,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`

	// MailboxHeads is the last sequence assigned per recipient.
	MailboxHeads map[string]uint64 `json:"mailbox_heads"`
	// Outbox holds the messages committed with this revision plus any
	// earlier ones that were never delivered. They are appended to the
	// mailbox log after the record write.
	Outbox []mailbox.Message `json:"outbox,omitempty"`
	// OutboxDelivered is set once every Outbox message reached the mailbox
	// log. Undelivered messages carry forward into the next revision.
	OutboxDelivered bool `json:"outbox_delivered,omitempty"`
}

// Player is one seat at the table.
type Player struct {
	ID             string `json:"player_id"`
	Seat           int    `json:"seat"`
	DisplayName    string `json:"display_name,omitempty"`
	Role           Role   `json:"role"`
	Hand           Hand   `json:"hand"`
	BadgeRemaining bool   `json:"badge_remaining"`
	Automated      bool   `json:"is_automated"`
}

// Label returns the display name, or the player id when none is set.
func (p Player) Label() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.ID
}

// Hand is a player's dealt cards.
type Hand struct {
	ClueIDs  []string `json:"clue_ids"`
	MeansIDs []string `json:"means_ids"`
}

// HasClue reports whether id is one of the hand's clue cards.
func (h Hand) HasClue(id string) bool { return slices.Contains(h.ClueIDs, id) }

// HasMeans reports whether id is one of the hand's means cards.
func (h Hand) HasMeans(id string) bool { return slices.Contains(h.MeansIDs, id) }

// Solution is the murderer's secret pair.
type Solution struct {
	ClueID  string `json:"clue_id"`
	MeansID string `json:"means_id"`
}

// DiscussionMessage is one entry in the public discussion.
type DiscussionMessage struct {
	Seq       int       `json:"seq"`
	PlayerID  string    `json:"player_id"`
	Text      string    `json:"comments"`
	CreatedAt time.Time `json:"created_at"`
}

// Scene is the dealt scene tiles and the forensic scientist's selection.
type Scene struct {
	LocationTile    string   `json:"location_tile"`
	LocationOptions []string `json:"location_options"`
	CauseTile       string   `json:"cause_tile"`
	CauseOptions    []string `json:"cause_options"`
	LocationID      string   `json:"location_id,omitempty"`
	CauseID         string   `json:"cause_id,omitempty"`
}

// Selected reports whether both scene options have been chosen.
func (s Scene) Selected() bool {
	return s.LocationID != "" && s.CauseID != ""
}

// Player returns the player with id.
func (r Record) Player(id string) (Player, bool) {
	i := r.PlayerIndex(id)
	if i < 0 {
		return Player{}, false
	}
	return r.Players[i], true
}

// PlayerIndex returns the index of the player with id, or -1.
func (r Record) PlayerIndex(id string) int {
	return slices.IndexFunc(r.Players, func(p Player) bool { return p.ID == id })
}

// RequirePlayer returns the player with id or a not-found error.
func (r Record) RequirePlayer(id string) (Player, error) {
	p, ok := r.Player(id)
	if !ok {
		return Player{}, apperrors.WithMetadata(apperrors.CodePlayerNotFound,
			fmt.Sprintf("player %q not in game %s", id, r.ID), map[string]string{"Player": id})
	}
	return p, nil
}

// ByRole returns the first player holding role.
func (r Record) ByRole(role Role) (Player, bool) {
	i := slices.IndexFunc(r.Players, func(p Player) bool { return p.Role == role })
	if i < 0 {
		return Player{}, false
	}
	return r.Players[i], true
}

// BySeat returns players ordered by seat.
func (r Record) BySeat() []Player {
	players := slices.Clone(r.Players)
	slices.SortStableFunc(players, func(a, b Player) int { return a.Seat - b.Seat })
	return players
}

// PlayerIDs returns player ids in seat order.
func (r Record) PlayerIDs() []string {
	players := r.BySeat()
	ids := make([]string, len(players))
	for i, p := range players {
		ids[i] = p.ID
	}
	return ids
}

// Clone returns a deep copy so mutators never alias the stored record.
func (r Record) Clone() Record {
	out := r
	out.Players = make([]Player, len(r.Players))
	for i, p := range r.Players {
		p.Hand = Hand{ClueIDs: slices.Clone(p.Hand.ClueIDs), MeansIDs: slices.Clone(p.Hand.MeansIDs)}
		out.Players[i] = p
	}
	if r.Solution != nil {
		solution := *r.Solution
		out.Solution = &solution
	}
	out.Discussion = slices.Clone(r.Discussion)
	out.Scene.LocationOptions = slices.Clone(r.Scene.LocationOptions)
	out.Scene.CauseOptions = slices.Clone(r.Scene.CauseOptions)
	out.MailboxHeads = maps.Clone(r.MailboxHeads)
	if out.MailboxHeads == nil {
		out.MailboxHeads = map[string]uint64{}
	}
	out.Outbox = slices.Clone(r.Outbox)
	return out
}
