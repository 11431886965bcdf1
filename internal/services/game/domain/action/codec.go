package action

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	apperrors "github.com/louisbranch/deception/internal/platform/errors"
)

// envelope is the wire form: {"kind": "...", "player_id": "...", ...fields}.
type envelope struct {
	Kind     Kind    `json:"kind"`
	PlayerID string  `json:"player_id"`
	Clue     *string `json:"clue,omitempty"`
	Means    *string `json:"means,omitempty"`
	Location *string `json:"location,omitempty"`
	Cause    *string `json:"cause,omitempty"`
	Comments *string `json:"comments,omitempty"`
	Murderer *string `json:"murderer,omitempty"`
}

// Decode parses a JSON action envelope into an Action. Only the envelope
// structure is checked: the kind and which fields it may carry. Payload
// values are left to Validate, which runs after the game-state checks.
func Decode(data []byte) (Action, error) {
	var env envelope
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&env); err != nil {
		return Action{}, apperrors.Wrap(apperrors.CodePayloadInvalid, fmt.Sprintf("decode action: %v", err), err)
	}
	if !env.Kind.Valid() {
		return Action{}, apperrors.WithMetadata(apperrors.CodeActionKindUnknown,
			fmt.Sprintf("unknown action kind %q", env.Kind), map[string]string{"Action": string(env.Kind)})
	}

	allowed := map[Kind][]string{
		KindMurderPick: {"clue", "means"},
		KindScenePick:  {"location", "cause"},
		KindDiscuss:    {"comments"},
		KindSolveGuess: {"murderer", "clue", "means"},
	}[env.Kind]
	for name, present := range env.present() {
		if present && !slices.Contains(allowed, name) {
			return Action{}, invalid(fmt.Sprintf("field %s is not allowed for %s", name, env.Kind))
		}
	}

	a := Action{PlayerID: strings.TrimSpace(env.PlayerID)}
	switch env.Kind {
	case KindMurderPick:
		a.Payload = MurderPick{Clue: deref(env.Clue), Means: deref(env.Means)}
	case KindScenePick:
		a.Payload = ScenePick{Location: deref(env.Location), Cause: deref(env.Cause)}
	case KindDiscuss:
		a.Payload = Discuss{Comments: deref(env.Comments)}
	case KindSolveGuess:
		a.Payload = SolveGuess{Murderer: deref(env.Murderer), Clue: deref(env.Clue), Means: deref(env.Means)}
	}
	return a, nil
}

// Encode renders an Action as its JSON envelope.
func Encode(a Action) ([]byte, error) {
	env := envelope{Kind: a.Kind(), PlayerID: a.PlayerID}
	switch p := a.Payload.(type) {
	case MurderPick:
		env.Clue, env.Means = &p.Clue, &p.Means
	case ScenePick:
		env.Location, env.Cause = &p.Location, &p.Cause
	case Discuss:
		env.Comments = &p.Comments
	case SolveGuess:
		env.Clue, env.Means = &p.Clue, &p.Means
		if p.Murderer != "" {
			env.Murderer = &p.Murderer
		}
	default:
		return nil, fmt.Errorf("encode action: unsupported payload %T", a.Payload)
	}
	return json.Marshal(env)
}

func (e envelope) present() map[string]bool {
	return map[string]bool{
		"clue":     e.Clue != nil,
		"means":    e.Means != nil,
		"location": e.Location != nil,
		"cause":    e.Cause != nil,
		"comments": e.Comments != nil,
		"murderer": e.Murderer != nil,
	}
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return strings.TrimSpace(*value)
}
