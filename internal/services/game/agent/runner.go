package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	apperrors "github.com/louisbranch/deception/internal/platform/errors"
	"github.com/louisbranch/deception/internal/services/game/domain/action"
	"github.com/louisbranch/deception/internal/services/game/domain/engine"
	"github.com/louisbranch/deception/internal/services/game/domain/game"
	"github.com/louisbranch/deception/internal/services/game/domain/mailbox"
	"github.com/louisbranch/deception/internal/services/game/domain/redact"
)

// DefaultInterval is the pause between scans in Run.
const DefaultInterval = 500 * time.Millisecond

// readCount is how many mailbox messages one step reads.
const readCount = 10

// listLimit bounds the games scanned per Run tick.
const listLimit = 200

// Engine is the slice of the dispatcher the runner drives.
type Engine interface {
	Record(ctx context.Context, gameID string) (game.Record, error)
	List(ctx context.Context, limit int) ([]redact.View, error)
	ReadMailbox(ctx context.Context, gameID, playerID string, after uint64, count int) ([]mailbox.Message, error)
	BoardContext(ctx context.Context, gameID, viewerID string) (string, error)
	Dispatch(ctx context.Context, gameID string, a action.Action) (engine.Result, error)
}

type cursorKey struct {
	gameID   string
	playerID string
}

// Runner reads automated players' mailboxes and answers their prompts.
type Runner struct {
	Engine Engine
	Oracle Oracle
	Logger zerolog.Logger

	mu      sync.Mutex
	cursors map[cursorKey]uint64
}

// NewRunner returns a runner that asks oracle first.
func NewRunner(eng Engine, oracle Oracle, logger zerolog.Logger) *Runner {
	return &Runner{Engine: eng, Oracle: oracle, Logger: logger, cursors: map[cursorKey]uint64{}}
}

// RunOnce lets the automated player whose turn it is act, handling at most
// one prompt. It reports whether an action was dispatched.
func (r *Runner) RunOnce(ctx context.Context, gameID string) (bool, error) {
	rec, err := r.Engine.Record(ctx, gameID)
	if err != nil {
		return false, err
	}
	var role game.Role
	switch rec.Phase {
	case game.PhaseAwaitingMurderPick:
		role = game.RoleMurderer
	case game.PhaseAwaitingScenePick:
		role = game.RoleForensicScientist
	default:
		return false, nil
	}
	player, ok := rec.ByRole(role)
	if !ok || !player.Automated {
		return false, nil
	}
	return r.step(ctx, rec, player)
}

// Run scans every open game each interval until ctx ends.
func (r *Runner) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		r.scan(ctx)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (r *Runner) scan(ctx context.Context) {
	views, err := r.Engine.List(ctx, listLimit)
	if err != nil {
		if ctx.Err() == nil {
			r.Logger.Warn().Err(err).Msg("list games for agents")
		}
		return
	}
	for _, view := range views {
		if view.Phase.Terminal() || view.Phase == game.PhaseDiscussion {
			continue
		}
		if _, err := r.RunOnce(ctx, view.GameID); err != nil && ctx.Err() == nil {
			r.Logger.Warn().Err(err).Str("game_id", view.GameID).Msg("agent step failed")
		}
	}
}

// step reads player's unread mail and answers the first prompt that still
// matches the phase.
func (r *Runner) step(ctx context.Context, rec game.Record, player game.Player) (bool, error) {
	key := cursorKey{gameID: rec.ID, playerID: player.ID}
	msgs, err := r.Engine.ReadMailbox(ctx, rec.ID, player.ID, r.cursor(key), readCount)
	if err != nil {
		return false, err
	}
	for _, msg := range msgs {
		a, ok, err := r.answer(ctx, rec, player, msg)
		if err != nil {
			return false, err
		}
		if !ok {
			r.advance(key, msg.Sequence)
			continue
		}
		_, err = r.Engine.Dispatch(ctx, rec.ID, a)
		if err != nil && apperrors.IsRetryable(err) {
			// leave the cursor on the prompt so the next step retries it
			return false, err
		}
		r.advance(key, msg.Sequence)
		if err != nil {
			r.Logger.Info().Err(err).
				Str("game_id", rec.ID).
				Str("player_id", player.ID).
				Str("code", string(apperrors.CodeOf(err))).
				Msg("agent action rejected")
			return false, nil
		}
		r.Logger.Info().
			Str("game_id", rec.ID).
			Str("player_id", player.ID).
			Str("action", string(a.Kind())).
			Msg("agent acted")
		return true, nil
	}
	return false, nil
}

// answer builds the action for msg, or reports false when msg needs none.
func (r *Runner) answer(ctx context.Context, rec game.Record, player game.Player, msg mailbox.Message) (action.Action, bool, error) {
	switch {
	case msg.Type == mailbox.TypePromptMurderPick && rec.Phase == game.PhaseAwaitingMurderPick:
		p := r.prompt(ctx, rec, player)
		p.ClueIDs, p.MeansIDs = msg.ClueIDs, msg.MeansIDs
		clue, means, err := r.Oracle.PickSolution(ctx, p)
		if err != nil || !offered(p.ClueIDs, clue) || !offered(p.MeansIDs, means) {
			r.logFallback(rec, player, err)
			clue, means, err = fallbackPair(fallbackSeed(rec, player), p.ClueIDs, p.MeansIDs)
			if err != nil {
				return action.Action{}, false, fmt.Errorf("murder pick for %s: %w", player.ID, err)
			}
		}
		return action.Action{PlayerID: player.ID, Payload: action.MurderPick{Clue: clue, Means: means}}, true, nil

	case msg.Type == mailbox.TypePromptScenePick && rec.Phase == game.PhaseAwaitingScenePick:
		if len(msg.LocationIDs) == 0 || len(msg.CauseIDs) == 0 {
			return action.Action{}, false, nil
		}
		p := r.prompt(ctx, rec, player)
		p.LocationIDs, p.CauseIDs = msg.LocationIDs, msg.CauseIDs
		if rec.Solution != nil {
			solution := *rec.Solution
			p.Solution = &solution
		}
		location, cause, err := r.Oracle.PickScene(ctx, p)
		if err != nil || !offered(p.LocationIDs, location) || !offered(p.CauseIDs, cause) {
			r.logFallback(rec, player, err)
			location, cause, err = fallbackPair(fallbackSeed(rec, player), p.LocationIDs, p.CauseIDs)
			if err != nil {
				return action.Action{}, false, fmt.Errorf("scene pick for %s: %w", player.ID, err)
			}
		}
		return action.Action{PlayerID: player.ID, Payload: action.ScenePick{Location: location, Cause: cause}}, true, nil

	default:
		return action.Action{}, false, nil
	}
}

func (r *Runner) prompt(ctx context.Context, rec game.Record, player game.Player) Prompt {
	board, err := r.Engine.BoardContext(ctx, rec.ID, player.ID)
	if err != nil && !errors.Is(err, context.Canceled) {
		r.Logger.Debug().Err(err).Str("game_id", rec.ID).Msg("board context unavailable")
	}
	return Prompt{GameID: rec.ID, PlayerID: player.ID, Role: player.Role, Board: board}
}

func (r *Runner) logFallback(rec game.Record, player game.Player, err error) {
	event := r.Logger.Warn().Str("game_id", rec.ID).Str("player_id", player.ID)
	if err != nil {
		event = event.Err(err)
	}
	event.Msg("oracle proposal unusable, using fallback")
}

func fallbackSeed(rec game.Record, player game.Player) int64 {
	return rec.Seed + int64(player.Seat) + int64(rec.Revision)
}

func (r *Runner) cursor(key cursorKey) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cursors[key]
}

func (r *Runner) advance(key cursorKey, seq uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cursors == nil {
		r.cursors = map[cursorKey]uint64{}
	}
	if seq > r.cursors[key] {
		r.cursors[key] = seq
	}
}
