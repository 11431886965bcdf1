// Package action defines the player actions accepted by the game engine.
//
// An Action pairs the submitting player with exactly one payload variant.
// Switches over Payload are expected to be exhaustive; adding a variant means
// adding a Kind constant, a payload type, and a decode branch here.
package action

import (
	"strings"
	"unicode/utf8"

	apperrors "github.com/louisbranch/deception/internal/platform/errors"
)

// Kind identifies an action variant.
type Kind string

const (
	KindMurderPick Kind = "murder_pick"
	KindScenePick  Kind = "scene_pick"
	KindDiscuss    Kind = "discuss"
	KindSolveGuess Kind = "solve_guess"
)

// MaxCommentLength bounds a single discussion message, in runes.
const MaxCommentLength = 4000

// Kinds lists every known kind in a stable order.
func Kinds() []Kind {
	return []Kind{KindMurderPick, KindScenePick, KindDiscuss, KindSolveGuess}
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindMurderPick, KindScenePick, KindDiscuss, KindSolveGuess:
		return true
	default:
		return false
	}
}

// Payload is implemented by the action variants of this package only.
type Payload interface {
	Kind() Kind
	validate() error
}

// Action is one submitted player action.
type Action struct {
	PlayerID string
	Payload  Payload
}

// Kind returns the payload kind, or the empty kind when no payload is set.
func (a Action) Kind() Kind {
	if a.Payload == nil {
		return ""
	}
	return a.Payload.Kind()
}

// Validate checks the envelope and payload shape without consulting game state.
func (a Action) Validate() error {
	if strings.TrimSpace(a.PlayerID) == "" {
		return invalid("player_id is required")
	}
	if a.Payload == nil {
		return apperrors.WithMetadata(apperrors.CodeActionKindUnknown, "action payload is required",
			map[string]string{"Action": ""})
	}
	return a.Payload.validate()
}

// MurderPick is the murderer's choice of solution from their own hand.
type MurderPick struct {
	Clue  string
	Means string
}

func (MurderPick) Kind() Kind { return KindMurderPick }

func (p MurderPick) validate() error {
	if p.Clue == "" || p.Means == "" {
		return invalid("murder pick needs clue and means")
	}
	return nil
}

// ScenePick is the forensic scientist's choice of location and cause options.
type ScenePick struct {
	Location string
	Cause    string
}

func (ScenePick) Kind() Kind { return KindScenePick }

func (p ScenePick) validate() error {
	if p.Location == "" || p.Cause == "" {
		return invalid("scene pick needs location and cause")
	}
	return nil
}

// Discuss appends a message to the public discussion.
type Discuss struct {
	Comments string
}

func (Discuss) Kind() Kind { return KindDiscuss }

func (p Discuss) validate() error {
	if strings.TrimSpace(p.Comments) == "" {
		return invalid("comments are required")
	}
	if utf8.RuneCountInString(p.Comments) > MaxCommentLength {
		return invalid("comments are too long")
	}
	return nil
}

// SolveGuess is an investigator's accusation. Murderer is optional; when set
// it must also match for the guess to be correct.
type SolveGuess struct {
	Murderer string
	Clue     string
	Means    string
}

func (SolveGuess) Kind() Kind { return KindSolveGuess }

func (p SolveGuess) validate() error {
	if p.Clue == "" || p.Means == "" {
		return invalid("solve guess needs clue and means")
	}
	return nil
}

func invalid(reason string) error {
	return apperrors.WithMetadata(apperrors.CodePayloadInvalid, reason, map[string]string{"Reason": reason})
}
