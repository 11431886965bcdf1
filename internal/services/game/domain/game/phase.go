package game

import (
	"fmt"
	"slices"

	apperrors "github.com/louisbranch/deception/internal/platform/errors"
	"github.com/louisbranch/deception/internal/services/game/domain/action"
)

// Phase is the coarse stage of a game.
type Phase string

const (
	PhaseAwaitingMurderPick Phase = "awaiting_murder_pick"
	PhaseAwaitingScenePick  Phase = "awaiting_scene_pick"
	PhaseDiscussion         Phase = "discussion"
	PhaseCompleted          Phase = "completed"
)

// Outcome qualifies the result of an action that may branch the phase.
type Outcome int

const (
	// OutcomeNone applies to actions whose transition does not branch.
	OutcomeNone Outcome = iota
	// OutcomeCorrect is a solve guess that matched the solution.
	OutcomeCorrect
	// OutcomeIncorrect is a solve guess that did not match.
	OutcomeIncorrect
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCorrect:
		return "correct"
	case OutcomeIncorrect:
		return "incorrect"
	default:
		return "none"
	}
}

var order = []Phase{
	PhaseAwaitingMurderPick,
	PhaseAwaitingScenePick,
	PhaseDiscussion,
	PhaseCompleted,
}

var legal = map[Phase][]action.Kind{
	PhaseAwaitingMurderPick: {action.KindMurderPick},
	PhaseAwaitingScenePick:  {action.KindScenePick},
	PhaseDiscussion:         {action.KindDiscuss, action.KindSolveGuess},
	PhaseCompleted:          nil,
}

// Rank returns the position of p in the fixed phase order, or -1.
func (p Phase) Rank() int {
	return slices.Index(order, p)
}

// Terminal reports whether p accepts no further actions.
func (p Phase) Terminal() bool {
	return p == PhaseCompleted
}

// LegalKinds lists the action kinds accepted in p.
func LegalKinds(p Phase) []action.Kind {
	return slices.Clone(legal[p])
}

// Legal reports whether kind may be submitted in p.
func Legal(p Phase, kind action.Kind) bool {
	return slices.Contains(legal[p], kind)
}

// Transition returns the phase reached from `from` by an action of kind with
// the given outcome. It is a pure table lookup.
func Transition(from Phase, kind action.Kind, outcome Outcome) (Phase, error) {
	if from.Terminal() {
		return from, apperrors.New(apperrors.CodeGameCompleted, "game is completed")
	}
	if !Legal(from, kind) {
		return from, PhaseMismatch(from, kind)
	}
	switch kind {
	case action.KindMurderPick:
		return PhaseAwaitingScenePick, nil
	case action.KindScenePick:
		return PhaseDiscussion, nil
	case action.KindDiscuss:
		return PhaseDiscussion, nil
	case action.KindSolveGuess:
		if outcome == OutcomeCorrect {
			return PhaseCompleted, nil
		}
		return PhaseDiscussion, nil
	default:
		return from, PhaseMismatch(from, kind)
	}
}

// PhaseMismatch builds the error for kind submitted in the wrong phase.
func PhaseMismatch(p Phase, kind action.Kind) error {
	return apperrors.WithMetadata(apperrors.CodePhaseMismatch,
		fmt.Sprintf("%s not allowed in phase %s", kind, p),
		map[string]string{"Action": string(kind), "Phase": string(p)})
}
