// Package validator holds the ordered legality checks run before any
// mutation.
//
// A Validator is a single predicate over (record, action). A Chain runs its
// validators in order and stops at the first failure, so the reported reason
// is always the earliest rule broken. New rules are added by composing a new
// Chain, never by editing an existing validator.
package validator

import (
	"fmt"
	"slices"
	"strings"

	apperrors "github.com/louisbranch/deception/internal/platform/errors"
	"github.com/louisbranch/deception/internal/services/game/domain/action"
	"github.com/louisbranch/deception/internal/services/game/domain/game"
)

// Validator returns nil when the action may proceed, or the reason it may not.
type Validator func(game.Record, action.Action) error

// Chain is an ordered list of validators.
type Chain []Validator

// Default returns the built-in chain: CompletedGame, Phase, Role.
func Default() Chain {
	return Chain{CompletedGame, Phase, Role}
}

// Validate runs each validator in order and returns the first failure.
func (c Chain) Validate(rec game.Record, a action.Action) error {
	for _, v := range c {
		if err := v(rec, a); err != nil {
			return err
		}
	}
	return nil
}

// Append returns a new chain with vs added at the end.
func (c Chain) Append(vs ...Validator) Chain {
	return append(slices.Clone(c), vs...)
}

// Insert returns a new chain with vs placed before index at. An index past
// the end appends.
func (c Chain) Insert(at int, vs ...Validator) Chain {
	at = max(0, min(at, len(c)))
	return slices.Insert(slices.Clone(c), at, vs...)
}

// CompletedGame rejects every action once the game is over.
func CompletedGame(rec game.Record, _ action.Action) error {
	if rec.Phase.Terminal() {
		return apperrors.New(apperrors.CodeGameCompleted, fmt.Sprintf("game %s is completed", rec.ID))
	}
	return nil
}

// Phase rejects kinds that are not legal in the current phase.
func Phase(rec game.Record, a action.Action) error {
	if !game.Legal(rec.Phase, a.Kind()) {
		return game.PhaseMismatch(rec.Phase, a.Kind())
	}
	return nil
}

// Role rejects submitters that are not seated or whose role may not submit
// the action kind.
func Role(rec game.Record, a action.Action) error {
	player, err := rec.RequirePlayer(a.PlayerID)
	if err != nil {
		return err
	}
	allowed := RequiredRoles(a.Kind())
	if allowed == nil || slices.Contains(allowed, player.Role) {
		return nil
	}
	labels := make([]string, len(allowed))
	for i, role := range allowed {
		labels[i] = role.Label()
	}
	return apperrors.WithMetadata(apperrors.CodeRoleMismatch,
		fmt.Sprintf("%s not allowed for role %s", a.Kind(), player.Role),
		map[string]string{"Required": strings.Join(labels, ", "), "Role": string(player.Role)})
}

// RequiredRoles lists the roles that may submit kind; nil means any seated
// player.
func RequiredRoles(kind action.Kind) []game.Role {
	switch kind {
	case action.KindMurderPick:
		return []game.Role{game.RoleMurderer}
	case action.KindScenePick:
		return []game.Role{game.RoleForensicScientist}
	case action.KindSolveGuess:
		return []game.Role{game.RoleInvestigator}
	case action.KindDiscuss:
		return nil
	default:
		return nil
	}
}

// DiscussionTurn enforces round-robin speaking by seat during discussion.
// The speaker is derived from how many messages have been posted. It is not
// part of Default.
func DiscussionTurn(rec game.Record, a action.Action) error {
	if a.Kind() != action.KindDiscuss || rec.Phase != game.PhaseDiscussion {
		return nil
	}
	expected, ok := CurrentSpeaker(rec)
	if !ok || expected.ID == a.PlayerID {
		return nil
	}
	return apperrors.WithMetadata(apperrors.CodeNotYourTurn,
		fmt.Sprintf("expected %s to speak, got %s", expected.ID, a.PlayerID),
		map[string]string{"Expected": expected.Label()})
}

// CurrentSpeaker returns the player whose turn it is to discuss.
func CurrentSpeaker(rec game.Record) (game.Player, bool) {
	players := rec.BySeat()
	if len(players) == 0 {
		return game.Player{}, false
	}
	return players[len(rec.Discussion)%len(players)], true
}
