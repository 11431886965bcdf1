// Package storagetest holds the behavior every storage backend must share.
package storagetest

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/louisbranch/deception/internal/services/game/domain/game"
	"github.com/louisbranch/deception/internal/services/game/domain/mailbox"
	"github.com/louisbranch/deception/internal/services/game/storage"
)

// Run exercises open against the storage contracts. open must return an
// empty store; Run closes it.
func Run(t *testing.T, open func(t *testing.T) storage.Store) {
	t.Helper()
	cases := []struct {
		name string
		fn   func(t *testing.T, s storage.Store)
	}{
		{"GetMissing", testGetMissing},
		{"CreateAndGet", testCreateAndGet},
		{"CreateDuplicate", testCreateDuplicate},
		{"CompareAndSwap", testCompareAndSwap},
		{"List", testList},
		{"AppendAndRead", testAppendAndRead},
		{"AppendIdempotent", testAppendIdempotent},
		{"ReadBounds", testReadBounds},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := open(t)
			t.Cleanup(func() {
				if err := s.Close(); err != nil {
					t.Errorf("close store: %v", err)
				}
			})
			tc.fn(t, s)
		})
	}
}

// Record returns a small valid record for id.
func Record(id string, created time.Time) game.Record {
	return game.Record{
		ID:    id,
		Phase: game.PhaseAwaitingMurderPick,
		Players: []game.Player{
			{ID: "p1", Seat: 0, Role: game.RoleForensicScientist, Hand: game.Hand{ClueIDs: []string{}, MeansIDs: []string{}}},
			{ID: "p2", Seat: 1, Role: game.RoleMurderer, Hand: game.Hand{ClueIDs: []string{"c-01"}, MeansIDs: []string{"m-01"}}},
		},
		Discussion:   []game.DiscussionMessage{},
		Scene:        game.Scene{LocationTile: "Location 1", LocationOptions: []string{"t-01"}, CauseTile: "Cause of Death", CauseOptions: []string{"t-19"}},
		Revision:     1,
		Seed:         7,
		CreatedAt:    created.UTC(),
		UpdatedAt:    created.UTC(),
		MailboxHeads: map[string]uint64{},
	}
}

func testGetMissing(t *testing.T, s storage.Store) {
	_, err := s.Get(context.Background(), "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func testCreateAndGet(t *testing.T, s storage.Store) {
	ctx := context.Background()
	rec := Record("g1", time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	if err := s.Create(ctx, rec); err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := s.Get(ctx, "g1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != rec.ID || got.Revision != 1 || len(got.Players) != 2 || got.Players[1].Hand.ClueIDs[0] != "c-01" {
		t.Fatalf("unexpected record %+v", got)
	}
	if !got.CreatedAt.Equal(rec.CreatedAt) {
		t.Fatalf("created at = %v, want %v", got.CreatedAt, rec.CreatedAt)
	}
}

func testCreateDuplicate(t *testing.T, s storage.Store) {
	ctx := context.Background()
	rec := Record("g1", time.Now())
	if err := s.Create(ctx, rec); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.Create(ctx, rec); !errors.Is(err, storage.ErrAlreadyExists) {
		t.Fatalf("expected already exists, got %v", err)
	}
}

func testCompareAndSwap(t *testing.T, s storage.Store) {
	ctx := context.Background()
	rec := Record("g1", time.Now())
	if err := s.Create(ctx, rec); err != nil {
		t.Fatalf("create: %v", err)
	}

	next := rec.Clone()
	next.Phase = game.PhaseAwaitingScenePick
	next.Solution = &game.Solution{ClueID: "c-01", MeansID: "m-01"}
	next.Revision = 2
	if err := s.CompareAndSwap(ctx, 1, next); err != nil {
		t.Fatalf("compare and swap: %v", err)
	}

	stale := rec.Clone()
	stale.Revision = 2
	stale.Phase = game.PhaseDiscussion
	if err := s.CompareAndSwap(ctx, 1, stale); !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	got, err := s.Get(ctx, "g1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Revision != 2 || got.Phase != game.PhaseAwaitingScenePick || got.Solution == nil {
		t.Fatalf("unexpected record after swap %+v", got)
	}

	missing := Record("nope", time.Now())
	if err := s.CompareAndSwap(ctx, 1, missing); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func testList(t *testing.T, s storage.Store) {
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	for i := range 3 {
		if err := s.Create(ctx, Record(fmt.Sprintf("g%d", i), base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	all, err := s.List(ctx, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 || all[0].ID != "g2" || all[2].ID != "g0" {
		t.Fatalf("unexpected order %v", ids(all))
	}
	limited, err := s.List(ctx, 2)
	if err != nil {
		t.Fatalf("list limited: %v", err)
	}
	if len(limited) != 2 || limited[0].ID != "g2" {
		t.Fatalf("unexpected limited list %v", ids(limited))
	}
}

func message(recipient string, seq uint64, typ mailbox.Type) mailbox.Message {
	return mailbox.Message{GameID: "g1", Recipient: recipient, Sequence: seq, Type: typ, Phase: "discussion", Revision: seq}
}

func testAppendAndRead(t *testing.T, s storage.Store) {
	ctx := context.Background()
	prompt := message("p2", 1, mailbox.TypePromptMurderPick)
	prompt.ClueIDs = []string{"c-01", "c-02"}
	prompt.MeansIDs = []string{"m-01", "m-02"}
	if err := s.Append(ctx, prompt, message("p2", 2, mailbox.TypeStateChanged), message("p1", 1, mailbox.TypeStateChanged)); err != nil {
		t.Fatalf("append: %v", err)
	}

	got, err := s.Read(ctx, "g1", "p2", 0, 10)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 2 || got[0].Sequence != 1 || got[1].Sequence != 2 {
		t.Fatalf("unexpected messages %+v", got)
	}
	if got[0].Type != mailbox.TypePromptMurderPick || len(got[0].ClueIDs) != 2 {
		t.Fatalf("unexpected prompt %+v", got[0])
	}

	after, err := s.Read(ctx, "g1", "p2", 1, 10)
	if err != nil {
		t.Fatalf("read after: %v", err)
	}
	if len(after) != 1 || after[0].Sequence != 2 {
		t.Fatalf("unexpected messages after cursor %+v", after)
	}

	other, err := s.Read(ctx, "g1", "p3", 0, 10)
	if err != nil {
		t.Fatalf("read empty: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("expected empty mailbox, got %+v", other)
	}
}

func testAppendIdempotent(t *testing.T, s storage.Store) {
	ctx := context.Background()
	msg := message("p1", 1, mailbox.TypeSolutionChosen)
	msg.ClueID, msg.MeansID = "c-01", "m-01"
	if err := s.Append(ctx, msg); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := s.Append(ctx, msg); err != nil {
		t.Fatalf("re-append identical: %v", err)
	}
	changed := msg
	changed.MeansID = "m-02"
	if err := s.Append(ctx, changed); !errors.Is(err, storage.ErrSequenceConflict) {
		t.Fatalf("expected sequence conflict, got %v", err)
	}
	got, err := s.Read(ctx, "g1", "p1", 0, 10)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 1 || got[0].MeansID != "m-01" {
		t.Fatalf("stored message changed: %+v", got)
	}

	leaky := message("p1", 2, mailbox.TypeIdentitiesRevealed)
	leaky.ClueID = "c-01"
	if err := s.Append(ctx, leaky); !errors.Is(err, mailbox.ErrFieldNotAllowed) {
		t.Fatalf("expected allow-list rejection, got %v", err)
	}
}

func testReadBounds(t *testing.T, s storage.Store) {
	ctx := context.Background()
	var msgs []mailbox.Message
	for seq := uint64(1); seq <= mailbox.MaxReadCount+5; seq++ {
		msgs = append(msgs, message("p1", seq, mailbox.TypeStateChanged))
	}
	if err := s.Append(ctx, msgs...); err != nil {
		t.Fatalf("append: %v", err)
	}
	got, err := s.Read(ctx, "g1", "p1", 0, 1000)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != mailbox.MaxReadCount {
		t.Fatalf("expected %d messages, got %d", mailbox.MaxReadCount, len(got))
	}
	one, err := s.Read(ctx, "g1", "p1", 10, 1)
	if err != nil {
		t.Fatalf("read one: %v", err)
	}
	if len(one) != 1 || one[0].Sequence != 11 {
		t.Fatalf("unexpected single read %+v", one)
	}
	for _, after := range []uint64{mailbox.MaxReadCount + 5, math.MaxInt64, math.MaxUint64} {
		rest, err := s.Read(ctx, "g1", "p1", after, 10)
		if err != nil {
			t.Fatalf("read after %d: %v", after, err)
		}
		if len(rest) != 0 {
			t.Fatalf("expected nothing after %d, got %d messages", after, len(rest))
		}
	}
}

func ids(records []game.Record) []string {
	out := make([]string, len(records))
	for i, rec := range records {
		out[i] = rec.ID
	}
	return out
}
