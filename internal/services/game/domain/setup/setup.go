// Package setup deals a new game record.
package setup

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	apperrors "github.com/louisbranch/deception/internal/platform/errors"
	"github.com/louisbranch/deception/internal/services/game/domain/catalog"
	"github.com/louisbranch/deception/internal/services/game/domain/core/random"
	"github.com/louisbranch/deception/internal/services/game/domain/game"
)

// Request describes a table to deal.
type Request struct {
	HumanPlayers     int
	AutomatedPlayers int
	// DisplayNames are applied by seat; missing entries leave the name empty.
	DisplayNames []string
	// Seed fixes the deal when set.
	Seed *int64
}

// Total returns the number of seats.
func (r Request) Total() int {
	return r.HumanPlayers + r.AutomatedPlayers
}

// Validate checks the request shape.
func (r Request) Validate() error {
	if r.HumanPlayers < 0 || r.AutomatedPlayers < 0 {
		return apperrors.WithMetadata(apperrors.CodePlayerCountInvalid, "player counts must not be negative",
			map[string]string{"Count": fmt.Sprint(r.Total())})
	}
	if err := game.ValidatePlayerCount(r.Total()); err != nil {
		return err
	}
	if len(r.DisplayNames) > r.Total() {
		reason := "more display names than seats"
		return apperrors.WithMetadata(apperrors.CodePayloadInvalid, reason, map[string]string{"Reason": reason})
	}
	return nil
}

// Deal builds the initial record for gameID from seed: roles assigned and
// shuffled, seats p1..pN with humans first, hands dealt from shuffled decks,
// and one location tile and one cause tile set aside for the scene pick.
func Deal(cat catalog.Catalog, req Request, gameID string, seed int64, now time.Time) (game.Record, error) {
	if err := req.Validate(); err != nil {
		return game.Record{}, err
	}
	rng := random.NewRand(seed)
	total := req.Total()

	roles, err := game.AssignRoles(total, rng)
	if err != nil {
		return game.Record{}, err
	}

	meansDeck := shuffled(rng, cat.Means.IDs())
	clueDeck := shuffled(rng, cat.Clues.IDs())

	players := make([]game.Player, total)
	for seat := range total {
		p := game.Player{
			ID:        fmt.Sprintf("p%d", seat+1),
			Seat:      seat,
			Role:      roles[seat],
			Automated: seat >= req.HumanPlayers,
			Hand:      game.Hand{ClueIDs: []string{}, MeansIDs: []string{}},
		}
		if seat < len(req.DisplayNames) {
			p.DisplayName = strings.TrimSpace(req.DisplayNames[seat])
		}
		if p.Role == game.RoleInvestigator {
			p.BadgeRemaining = true
		}
		if p.Role.HoldsHand() {
			if p.Hand.MeansIDs, meansDeck, err = draw(meansDeck, game.HandSize, "means"); err != nil {
				return game.Record{}, err
			}
			if p.Hand.ClueIDs, clueDeck, err = draw(clueDeck, game.HandSize, "clue"); err != nil {
				return game.Record{}, err
			}
		}
		players[seat] = p
	}

	scene, err := dealScene(cat.Tiles, rng)
	if err != nil {
		return game.Record{}, err
	}

	return game.Record{
		ID:           gameID,
		Phase:        game.PhaseAwaitingMurderPick,
		Players:      players,
		Discussion:   []game.DiscussionMessage{},
		Scene:        scene,
		Revision:     1,
		Seed:         seed,
		CreatedAt:    now,
		UpdatedAt:    now,
		MailboxHeads: map[string]uint64{},
	}, nil
}

func dealScene(tiles catalog.TileSet, rng *rand.Rand) (game.Scene, error) {
	locations := tiles.LocationTiles()
	causes := tiles.CauseTiles()
	if len(locations) == 0 || len(causes) == 0 {
		return game.Scene{}, apperrors.New(apperrors.CodeCatalogExhausted, "catalog has no location or cause tiles")
	}
	location := locations[rng.Intn(len(locations))]
	cause := causes[rng.Intn(len(causes))]
	return game.Scene{
		LocationTile:    location,
		LocationOptions: tiles.OptionIDs(location),
		CauseTile:       cause,
		CauseOptions:    tiles.OptionIDs(cause),
	}, nil
}

func shuffled(rng *rand.Rand, ids []string) []string {
	rng.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
	return ids
}

func draw(deck []string, n int, kind string) ([]string, []string, error) {
	if len(deck) < n {
		return nil, nil, apperrors.New(apperrors.CodeCatalogExhausted,
			fmt.Sprintf("not enough %s cards: need %d, have %d", kind, n, len(deck)))
	}
	hand := append([]string(nil), deck[:n]...)
	return hand, deck[n:], nil
}
