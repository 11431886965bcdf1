// Package emitter derives the mailbox messages implied by a state change.
//
// Derivation is pure and deterministic: the same (prev, next, kind) always
// yields the same messages in the same order. Sequence numbers are assigned
// later, when the messages are committed with the record.
package emitter

import (
	"slices"

	"github.com/louisbranch/deception/internal/services/game/domain/action"
	"github.com/louisbranch/deception/internal/services/game/domain/game"
	"github.com/louisbranch/deception/internal/services/game/domain/mailbox"
)

// Setup returns the messages for a freshly dealt record: the murder-pick
// prompt for the murderer and a state change for everyone.
func Setup(rec game.Record) []mailbox.Message {
	var out []mailbox.Message
	if murderer, ok := rec.ByRole(game.RoleMurderer); ok {
		msg := base(rec, murderer.ID, mailbox.TypePromptMurderPick)
		msg.ClueIDs = slices.Clone(murderer.Hand.ClueIDs)
		msg.MeansIDs = slices.Clone(murderer.Hand.MeansIDs)
		out = append(out, msg)
	}
	return append(out, broadcast(rec, mailbox.TypeStateChanged)...)
}

// Derive returns the messages implied by applying an action of kind that
// turned prev into next. Every successful action ends with a state change
// for every player.
func Derive(prev, next game.Record, kind action.Kind) []mailbox.Message {
	var out []mailbox.Message
	switch kind {
	case action.KindMurderPick:
		out = append(out, solutionChosen(prev, next)...)
	case action.KindScenePick:
		out = append(out, sceneSelected(prev, next)...)
	case action.KindSolveGuess:
		out = append(out, solveOutcome(prev, next)...)
	case action.KindDiscuss:
		// state change only
	}
	return append(out, broadcast(next, mailbox.TypeStateChanged)...)
}

func solutionChosen(prev, next game.Record) []mailbox.Message {
	if prev.Solution != nil || next.Solution == nil {
		return nil
	}
	murderer, _ := next.ByRole(game.RoleMurderer)
	accomplice, hasAccomplice := next.ByRole(game.RoleAccomplice)

	var out []mailbox.Message
	for _, p := range next.BySeat() {
		switch p.Role {
		case game.RoleForensicScientist, game.RoleMurderer, game.RoleAccomplice:
			msg := base(next, p.ID, mailbox.TypeSolutionChosen)
			msg.ClueID = next.Solution.ClueID
			msg.MeansID = next.Solution.MeansID
			out = append(out, msg)
		}
	}
	for _, p := range next.BySeat() {
		if p.Role != game.RoleWitness {
			continue
		}
		msg := base(next, p.ID, mailbox.TypeIdentitiesRevealed)
		msg.MurdererID = murderer.ID
		if hasAccomplice {
			msg.AccompliceID = accomplice.ID
		}
		out = append(out, msg)
	}
	if fs, ok := next.ByRole(game.RoleForensicScientist); ok {
		msg := base(next, fs.ID, mailbox.TypePromptScenePick)
		msg.LocationIDs = slices.Clone(next.Scene.LocationOptions)
		msg.CauseIDs = slices.Clone(next.Scene.CauseOptions)
		out = append(out, msg)
	}
	return out
}

func sceneSelected(prev, next game.Record) []mailbox.Message {
	if prev.Scene.Selected() || !next.Scene.Selected() {
		return nil
	}
	out := broadcast(next, mailbox.TypeSceneSelected)
	for i := range out {
		out[i].LocationID = next.Scene.LocationID
		out[i].CauseID = next.Scene.CauseID
	}
	return out
}

func solveOutcome(prev, next game.Record) []mailbox.Message {
	var out []mailbox.Message
	for _, p := range next.BySeat() {
		before, ok := prev.Player(p.ID)
		if ok && before.BadgeRemaining && !p.BadgeRemaining {
			out = append(out, base(next, p.ID, mailbox.TypeBadgeConsumed))
		}
	}
	if prev.Phase != game.PhaseCompleted && next.Phase == game.PhaseCompleted {
		completed := broadcast(next, mailbox.TypeGameCompleted)
		for i := range completed {
			completed[i].WinnerID = next.WinnerID
		}
		out = append(out, completed...)
	}
	return out
}

func broadcast(rec game.Record, typ mailbox.Type) []mailbox.Message {
	players := rec.BySeat()
	out := make([]mailbox.Message, 0, len(players))
	for _, p := range players {
		out = append(out, base(rec, p.ID, typ))
	}
	return out
}

func base(rec game.Record, recipient string, typ mailbox.Type) mailbox.Message {
	return mailbox.Message{
		GameID:    rec.ID,
		Recipient: recipient,
		Type:      typ,
		Phase:     string(rec.Phase),
		Revision:  rec.Revision,
	}
}
