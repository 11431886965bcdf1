package agent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/louisbranch/deception/internal/platform/logging"
	"github.com/louisbranch/deception/internal/services/game/domain/catalog"
	"github.com/louisbranch/deception/internal/services/game/domain/engine"
	"github.com/louisbranch/deception/internal/services/game/domain/game"
	"github.com/louisbranch/deception/internal/services/game/domain/setup"
	"github.com/louisbranch/deception/internal/services/game/storage/lock"
	"github.com/louisbranch/deception/internal/services/game/storage/memory"
)

func newEngine(t *testing.T) *engine.Dispatcher {
	t.Helper()
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	store := memory.New()
	return &engine.Dispatcher{
		Records:   store,
		Mailboxes: store,
		Locker:    lock.NewKeyed(time.Second),
		Catalog:   cat,
		Logger:    logging.Nop(),
	}
}

func createGame(t *testing.T, d *engine.Dispatcher, humans, automated int) string {
	t.Helper()
	seed := int64(7)
	created, err := d.Create(context.Background(), setup.Request{HumanPlayers: humans, AutomatedPlayers: automated, Seed: &seed})
	if err != nil {
		t.Fatalf("create game: %v", err)
	}
	return created.View.GameID
}

func phaseOf(t *testing.T, d *engine.Dispatcher, gameID string) game.Phase {
	t.Helper()
	rec, err := d.Record(context.Background(), gameID)
	if err != nil {
		t.Fatalf("get game: %v", err)
	}
	return rec.Phase
}

type failingOracle struct{ calls int }

func (o *failingOracle) PickSolution(context.Context, Prompt) (string, string, error) {
	o.calls++
	return "", "", errors.New("model unavailable")
}

func (o *failingOracle) PickScene(context.Context, Prompt) (string, string, error) {
	o.calls++
	return "", "", errors.New("model unavailable")
}

type offTableOracle struct{}

func (offTableOracle) PickSolution(context.Context, Prompt) (string, string, error) {
	return "c-not-dealt", "m-not-dealt", nil
}

func (offTableOracle) PickScene(context.Context, Prompt) (string, string, error) {
	return "t-unknown", "t-unknown", nil
}

// recordingOracle captures the prompts it receives.
type recordingOracle struct {
	*RandomOracle
	solution Prompt
	scene    Prompt
}

func (o *recordingOracle) PickSolution(ctx context.Context, p Prompt) (string, string, error) {
	o.solution = p
	return o.RandomOracle.PickSolution(ctx, p)
}

func (o *recordingOracle) PickScene(ctx context.Context, p Prompt) (string, string, error) {
	o.scene = p
	return o.RandomOracle.PickScene(ctx, p)
}

func TestRunOnceAdvancesOnePhaseAtATime(t *testing.T) {
	d := newEngine(t)
	gameID := createGame(t, d, 0, 5)
	oracle := &recordingOracle{RandomOracle: NewRandomOracle(1)}
	runner := NewRunner(d, oracle, logging.Nop())
	ctx := context.Background()

	acted, err := runner.RunOnce(ctx, gameID)
	if err != nil || !acted {
		t.Fatalf("expected murder pick, got acted=%v err=%v", acted, err)
	}
	if got := phaseOf(t, d, gameID); got != game.PhaseAwaitingScenePick {
		t.Fatalf("expected awaiting scene pick, got %s", got)
	}
	if len(oracle.solution.ClueIDs) != game.HandSize || oracle.solution.Role != game.RoleMurderer {
		t.Fatalf("unexpected murder prompt %+v", oracle.solution)
	}
	if oracle.solution.Board == "" {
		t.Fatal("expected board context in prompt")
	}

	acted, err = runner.RunOnce(ctx, gameID)
	if err != nil || !acted {
		t.Fatalf("expected scene pick, got acted=%v err=%v", acted, err)
	}
	if got := phaseOf(t, d, gameID); got != game.PhaseDiscussion {
		t.Fatalf("expected discussion, got %s", got)
	}
	if oracle.scene.Solution == nil || len(oracle.scene.LocationIDs) == 0 {
		t.Fatalf("expected scene prompt with solution, got %+v", oracle.scene)
	}

	acted, err = runner.RunOnce(ctx, gameID)
	if err != nil || acted {
		t.Fatalf("expected no action in discussion, got acted=%v err=%v", acted, err)
	}
}

func TestRunOnceSkipsHumanSeats(t *testing.T) {
	d := newEngine(t)
	gameID := createGame(t, d, 4, 0)
	runner := NewRunner(d, NewRandomOracle(1), logging.Nop())

	acted, err := runner.RunOnce(context.Background(), gameID)
	if err != nil || acted {
		t.Fatalf("expected no action for human murderer, got acted=%v err=%v", acted, err)
	}
	if got := phaseOf(t, d, gameID); got != game.PhaseAwaitingMurderPick {
		t.Fatalf("phase moved to %s", got)
	}
}

func TestRunOnceFallsBackWhenOracleFails(t *testing.T) {
	for name, oracle := range map[string]Oracle{
		"error":     &failingOracle{},
		"off table": offTableOracle{},
	} {
		t.Run(name, func(t *testing.T) {
			d := newEngine(t)
			gameID := createGame(t, d, 0, 4)
			runner := NewRunner(d, oracle, logging.Nop())
			ctx := context.Background()
			for range 2 {
				if acted, err := runner.RunOnce(ctx, gameID); err != nil || !acted {
					t.Fatalf("expected fallback action, got acted=%v err=%v", acted, err)
				}
			}
			if got := phaseOf(t, d, gameID); got != game.PhaseDiscussion {
				t.Fatalf("expected discussion, got %s", got)
			}
		})
	}
}

func TestRunOnceIgnoresConsumedPrompts(t *testing.T) {
	d := newEngine(t)
	gameID := createGame(t, d, 0, 4)
	runner := NewRunner(d, NewRandomOracle(3), logging.Nop())
	ctx := context.Background()
	if _, err := runner.RunOnce(ctx, gameID); err != nil {
		t.Fatalf("run once: %v", err)
	}

	// a fresh runner starts from cursor zero and sees the stale murder prompt
	fresh := NewRunner(d, NewRandomOracle(3), logging.Nop())
	rec, err := d.Record(ctx, gameID)
	if err != nil {
		t.Fatalf("get game: %v", err)
	}
	murderer, _ := rec.ByRole(game.RoleMurderer)
	acted, err := fresh.step(ctx, rec, murderer)
	if err != nil || acted {
		t.Fatalf("expected stale prompt to be skipped, got acted=%v err=%v", acted, err)
	}
	if fresh.cursor(cursorKey{gameID: gameID, playerID: murderer.ID}) == 0 {
		t.Fatal("expected cursor to advance past skipped messages")
	}
}

func TestRunDrivesOpenGames(t *testing.T) {
	d := newEngine(t)
	first := createGame(t, d, 0, 4)
	createGame(t, d, 4, 0)
	runner := NewRunner(d, NewRandomOracle(9), logging.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runner.Run(ctx, 5*time.Millisecond) }()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if phaseOf(t, d, first) == game.PhaseDiscussion {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := phaseOf(t, d, first); got != game.PhaseDiscussion {
		t.Fatalf("expected first game in discussion, got %s", got)
	}
}

func TestRandomOracleRejectsEmptyPrompt(t *testing.T) {
	oracle := NewRandomOracle(1)
	if _, _, err := oracle.PickSolution(context.Background(), Prompt{}); !errors.Is(err, ErrNoOptions) {
		t.Fatalf("expected no options, got %v", err)
	}
}
