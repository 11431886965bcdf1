package setup

import (
	"slices"
	"testing"
	"time"

	apperrors "github.com/louisbranch/deception/internal/platform/errors"
	"github.com/louisbranch/deception/internal/services/game/domain/catalog"
	"github.com/louisbranch/deception/internal/services/game/domain/game"
)

func defaultCatalog(t *testing.T) catalog.Catalog {
	t.Helper()
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	return cat
}

func TestDealInvariantsForEveryTableSize(t *testing.T) {
	cat := defaultCatalog(t)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for total := game.MinPlayers; total <= game.MaxPlayers; total++ {
		rec, err := Deal(cat, Request{HumanPlayers: 1, AutomatedPlayers: total - 1}, "g", int64(total*31), now)
		if err != nil {
			t.Fatalf("deal %d: %v", total, err)
		}
		if rec.Phase != game.PhaseAwaitingMurderPick {
			t.Fatalf("deal %d: phase = %s", total, rec.Phase)
		}
		if rec.Solution != nil {
			t.Fatalf("deal %d: solution set before murder pick", total)
		}
		seen := map[string]bool{}
		for _, p := range rec.Players {
			if p.Role == game.RoleForensicScientist {
				if len(p.Hand.ClueIDs) != 0 || len(p.Hand.MeansIDs) != 0 {
					t.Fatalf("deal %d: forensic scientist holds cards", total)
				}
				continue
			}
			if len(p.Hand.ClueIDs) != game.HandSize || len(p.Hand.MeansIDs) != game.HandSize {
				t.Fatalf("deal %d: %s hand sizes %d/%d", total, p.ID, len(p.Hand.ClueIDs), len(p.Hand.MeansIDs))
			}
			for _, id := range append(append([]string{}, p.Hand.ClueIDs...), p.Hand.MeansIDs...) {
				if seen[id] {
					t.Fatalf("deal %d: card %s dealt twice", total, id)
				}
				seen[id] = true
			}
			if p.BadgeRemaining != (p.Role == game.RoleInvestigator) {
				t.Fatalf("deal %d: %s (%s) badge = %v", total, p.ID, p.Role, p.BadgeRemaining)
			}
		}
	}
}

func TestDealSeatsHumansFirst(t *testing.T) {
	rec, err := Deal(defaultCatalog(t), Request{HumanPlayers: 2, AutomatedPlayers: 3, DisplayNames: []string{" Ana ", "Bo"}}, "g", 5, time.Now())
	if err != nil {
		t.Fatalf("deal: %v", err)
	}
	for i, p := range rec.Players {
		if p.Seat != i {
			t.Fatalf("player %d seat = %d", i, p.Seat)
		}
		if want := i >= 2; p.Automated != want {
			t.Fatalf("player %s automated = %v, want %v", p.ID, p.Automated, want)
		}
	}
	if rec.Players[0].ID != "p1" || rec.Players[0].DisplayName != "Ana" {
		t.Fatalf("unexpected first player %+v", rec.Players[0])
	}
	if rec.Players[4].ID != "p5" {
		t.Fatalf("unexpected last player id %s", rec.Players[4].ID)
	}
}

func TestDealIsDeterministicForSeed(t *testing.T) {
	cat := defaultCatalog(t)
	now := time.Now()
	first, err := Deal(cat, Request{AutomatedPlayers: 7}, "g", 1234, now)
	if err != nil {
		t.Fatalf("deal: %v", err)
	}
	second, err := Deal(cat, Request{AutomatedPlayers: 7}, "g", 1234, now)
	if err != nil {
		t.Fatalf("deal: %v", err)
	}
	for i := range first.Players {
		a, b := first.Players[i], second.Players[i]
		if a.Role != b.Role || !slices.Equal(a.Hand.ClueIDs, b.Hand.ClueIDs) || !slices.Equal(a.Hand.MeansIDs, b.Hand.MeansIDs) {
			t.Fatalf("seat %d differs between identical seeds", i)
		}
	}
	if first.Scene.LocationTile != second.Scene.LocationTile || first.Scene.CauseTile != second.Scene.CauseTile {
		t.Fatal("scene tiles differ between identical seeds")
	}
}

func TestDealScene(t *testing.T) {
	cat := defaultCatalog(t)
	rec, err := Deal(cat, Request{HumanPlayers: 4}, "g", 8, time.Now())
	if err != nil {
		t.Fatalf("deal: %v", err)
	}
	if rec.Scene.Selected() {
		t.Fatal("scene selected at deal time")
	}
	if len(rec.Scene.LocationOptions) == 0 || len(rec.Scene.CauseOptions) == 0 {
		t.Fatalf("expected scene options, got %+v", rec.Scene)
	}
	for _, id := range rec.Scene.LocationOptions {
		opt, ok := cat.Tiles.Get(id)
		if !ok || opt.Tile != rec.Scene.LocationTile {
			t.Fatalf("location option %s not on tile %s", id, rec.Scene.LocationTile)
		}
	}
}

func TestDealRejectsBadRequests(t *testing.T) {
	cat := defaultCatalog(t)
	tests := []struct {
		name string
		req  Request
		code apperrors.Code
	}{
		{"too few", Request{HumanPlayers: 3}, apperrors.CodePlayerCountInvalid},
		{"too many", Request{HumanPlayers: 6, AutomatedPlayers: 7}, apperrors.CodePlayerCountInvalid},
		{"negative", Request{HumanPlayers: -1, AutomatedPlayers: 6}, apperrors.CodePlayerCountInvalid},
		{"names", Request{HumanPlayers: 4, DisplayNames: []string{"a", "b", "c", "d", "e"}}, apperrors.CodePayloadInvalid},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Deal(cat, tc.req, "g", 1, time.Now())
			if apperrors.CodeOf(err) != tc.code {
				t.Fatalf("expected %s, got %v", tc.code, err)
			}
		})
	}
}

func TestDealReportsExhaustedCatalog(t *testing.T) {
	means, _ := catalog.NewCardList([]catalog.Card{{ID: "m-1", Name: "Knife"}})
	clues, _ := catalog.NewCardList([]catalog.Card{{ID: "c-1", Name: "Key"}})
	tiles, _ := catalog.NewTileSet([]catalog.TileOption{{ID: "t-1", Tile: "Location 1", Option: "Park"}, {ID: "t-2", Tile: "Cause of Death", Option: "Accident"}})
	_, err := Deal(catalog.Catalog{Means: means, Clues: clues, Tiles: tiles}, Request{HumanPlayers: 4}, "g", 1, time.Now())
	if apperrors.CodeOf(err) != apperrors.CodeCatalogExhausted {
		t.Fatalf("expected catalog exhausted, got %v", err)
	}
}
