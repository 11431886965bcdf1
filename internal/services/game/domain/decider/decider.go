// Package decider applies validated actions to a game record.
//
// Decide is pure: it never mutates its input and performs no I/O. It runs
// the action-specific domain checks that the validator chain leaves out,
// then computes the next record and the phase transition taken.
package decider

import (
	"fmt"
	"slices"
	"time"

	apperrors "github.com/louisbranch/deception/internal/platform/errors"
	"github.com/louisbranch/deception/internal/services/game/domain/action"
	"github.com/louisbranch/deception/internal/services/game/domain/game"
)

// Result is the outcome of one applied action.
type Result struct {
	Record  game.Record
	From    game.Phase
	To      game.Phase
	Outcome game.Outcome
}

// Changed reports whether the phase moved.
func (r Result) Changed() bool {
	return r.From != r.To
}

// Decide applies a to rec. The caller is expected to have run the validator
// chain; Decide still refuses anything the phase table does not allow.
func Decide(rec game.Record, a action.Action, now time.Time) (Result, error) {
	if err := a.Validate(); err != nil {
		return Result{}, err
	}
	player, err := rec.RequirePlayer(a.PlayerID)
	if err != nil {
		return Result{}, err
	}

	next := rec.Clone()
	outcome := game.OutcomeNone
	switch p := a.Payload.(type) {
	case action.MurderPick:
		err = murderPick(&next, player, p)
	case action.ScenePick:
		err = scenePick(&next, p)
	case action.Discuss:
		discuss(&next, player, p, now)
	case action.SolveGuess:
		outcome, err = solveGuess(&next, player, p)
	default:
		err = apperrors.WithMetadata(apperrors.CodeActionKindUnknown,
			fmt.Sprintf("unsupported payload %T", a.Payload), map[string]string{"Action": string(a.Kind())})
	}
	if err != nil {
		return Result{}, err
	}

	to, err := game.Transition(rec.Phase, a.Kind(), outcome)
	if err != nil {
		return Result{}, err
	}
	next.Phase = to
	next.Revision = rec.Revision + 1
	next.UpdatedAt = now
	return Result{Record: next, From: rec.Phase, To: to, Outcome: outcome}, nil
}

func murderPick(next *game.Record, murderer game.Player, p action.MurderPick) error {
	if next.Solution != nil {
		return game.PhaseMismatch(next.Phase, action.KindMurderPick)
	}
	if !murderer.Hand.HasClue(p.Clue) {
		return notInHand(p.Clue)
	}
	if !murderer.Hand.HasMeans(p.Means) {
		return notInHand(p.Means)
	}
	next.Solution = &game.Solution{ClueID: p.Clue, MeansID: p.Means}
	return nil
}

func scenePick(next *game.Record, p action.ScenePick) error {
	if !slices.Contains(next.Scene.LocationOptions, p.Location) {
		return invalidOption(p.Location)
	}
	if !slices.Contains(next.Scene.CauseOptions, p.Cause) {
		return invalidOption(p.Cause)
	}
	next.Scene.LocationID = p.Location
	next.Scene.CauseID = p.Cause
	return nil
}

func discuss(next *game.Record, speaker game.Player, p action.Discuss, now time.Time) {
	seq := 1
	if n := len(next.Discussion); n > 0 {
		last := next.Discussion[n-1]
		seq = last.Seq + 1
		if now.Before(last.CreatedAt) {
			now = last.CreatedAt
		}
	}
	next.Discussion = append(next.Discussion, game.DiscussionMessage{
		Seq:       seq,
		PlayerID:  speaker.ID,
		Text:      p.Comments,
		CreatedAt: now,
	})
}

func solveGuess(next *game.Record, guesser game.Player, p action.SolveGuess) (game.Outcome, error) {
	if !guesser.BadgeRemaining {
		return game.OutcomeNone, apperrors.New(apperrors.CodeNoBadgeRemaining,
			fmt.Sprintf("player %s has no badge", guesser.ID))
	}
	if next.Solution == nil {
		return game.OutcomeNone, fmt.Errorf("game %s in %s without a solution", next.ID, next.Phase)
	}

	correct := p.Clue == next.Solution.ClueID && p.Means == next.Solution.MeansID
	if p.Murderer != "" {
		murderer, ok := next.ByRole(game.RoleMurderer)
		correct = correct && ok && murderer.ID == p.Murderer
	}
	if correct {
		next.WinnerID = guesser.ID
		return game.OutcomeCorrect, nil
	}
	next.Players[next.PlayerIndex(guesser.ID)].BadgeRemaining = false
	return game.OutcomeIncorrect, nil
}

func notInHand(card string) error {
	return apperrors.WithMetadata(apperrors.CodeCardNotInHand,
		fmt.Sprintf("card %s not in hand", card), map[string]string{"Card": card})
}

func invalidOption(option string) error {
	return apperrors.WithMetadata(apperrors.CodeSceneOptionInvalid,
		fmt.Sprintf("option %s not on dealt tiles", option), map[string]string{"Option": option})
}
