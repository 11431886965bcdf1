// Package agent plays the setup turns of automated seats.
package agent

import (
	"context"
	"errors"
	"math/rand"
	"slices"
	"sync"

	"github.com/louisbranch/deception/internal/services/game/domain/core/random"
	"github.com/louisbranch/deception/internal/services/game/domain/game"
)

// ErrNoOptions indicates a prompt that offers nothing to choose from.
var ErrNoOptions = errors.New("prompt offers no options")

// Prompt is what an automated player knows when asked to choose.
type Prompt struct {
	GameID   string
	PlayerID string
	Role     game.Role
	// Board is the player's board context.
	Board       string
	ClueIDs     []string
	MeansIDs    []string
	LocationIDs []string
	CauseIDs    []string
	// Solution is set for the forensic scientist's scene pick.
	Solution *game.Solution
}

// Oracle proposes choices for an automated player.
type Oracle interface {
	PickSolution(ctx context.Context, p Prompt) (clue, means string, err error)
	PickScene(ctx context.Context, p Prompt) (location, cause string, err error)
}

// RandomOracle picks uniformly among the offered options.
type RandomOracle struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomOracle returns an oracle driven by seed.
func NewRandomOracle(seed int64) *RandomOracle {
	return &RandomOracle{rng: random.NewRand(seed)}
}

// PickSolution picks one clue and one means.
func (o *RandomOracle) PickSolution(ctx context.Context, p Prompt) (string, string, error) {
	if err := ctx.Err(); err != nil {
		return "", "", err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	return pickPair(o.rng, p.ClueIDs, p.MeansIDs)
}

// PickScene picks one location option and one cause option.
func (o *RandomOracle) PickScene(ctx context.Context, p Prompt) (string, string, error) {
	if err := ctx.Err(); err != nil {
		return "", "", err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	return pickPair(o.rng, p.LocationIDs, p.CauseIDs)
}

func pickPair(rng *rand.Rand, left, right []string) (string, string, error) {
	if len(left) == 0 || len(right) == 0 {
		return "", "", ErrNoOptions
	}
	return left[rng.Intn(len(left))], right[rng.Intn(len(right))], nil
}

// fallbackPair is the deterministic choice used when the oracle fails or
// proposes something outside the prompt.
func fallbackPair(seed int64, left, right []string) (string, string, error) {
	return pickPair(random.NewRand(seed), left, right)
}

func offered(options []string, choice string) bool {
	return slices.Contains(options, choice)
}
