package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	apperrors "github.com/louisbranch/deception/internal/platform/errors"
	"github.com/louisbranch/deception/internal/platform/logging"
	"github.com/louisbranch/deception/internal/services/game/domain/action"
	"github.com/louisbranch/deception/internal/services/game/domain/catalog"
	"github.com/louisbranch/deception/internal/services/game/domain/game"
	"github.com/louisbranch/deception/internal/services/game/domain/mailbox"
	"github.com/louisbranch/deception/internal/services/game/domain/setup"
	"github.com/louisbranch/deception/internal/services/game/domain/validator"
	"github.com/louisbranch/deception/internal/services/game/storage"
	"github.com/louisbranch/deception/internal/services/game/storage/lock"
	"github.com/louisbranch/deception/internal/services/game/storage/memory"
)

type fixture struct {
	t     *testing.T
	store *memory.Store
	d     *Dispatcher
	ctx   context.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	store := memory.New()
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var ids atomic.Int64
	d := &Dispatcher{
		Records:   store,
		Mailboxes: store,
		Locker:    lock.NewKeyed(time.Second),
		Catalog:   cat,
		Now: func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		},
		NewID: func() (string, error) {
			return fmt.Sprintf("game-%d", ids.Add(1)), nil
		},
		Logger: logging.Nop(),
	}
	return &fixture{t: t, store: store, d: d, ctx: context.Background()}
}

func (f *fixture) create(humans, automated int) game.Record {
	f.t.Helper()
	seed := int64(42)
	created, err := f.d.Create(f.ctx, setup.Request{HumanPlayers: humans, AutomatedPlayers: automated, Seed: &seed})
	if err != nil {
		f.t.Fatalf("create game: %v", err)
	}
	return f.record(created.View.GameID)
}

func (f *fixture) record(gameID string) game.Record {
	f.t.Helper()
	rec, err := f.store.Get(f.ctx, gameID)
	if err != nil {
		f.t.Fatalf("get game: %v", err)
	}
	return rec
}

func (f *fixture) mailbox(gameID, playerID string) []mailbox.Message {
	f.t.Helper()
	msgs, err := f.store.Read(f.ctx, gameID, playerID, 0, mailbox.MaxReadCount)
	if err != nil {
		f.t.Fatalf("read mailbox: %v", err)
	}
	return msgs
}

func (f *fixture) dispatch(gameID, playerID string, payload action.Payload) (Result, error) {
	return f.d.Dispatch(f.ctx, gameID, action.Action{PlayerID: playerID, Payload: payload})
}

func (f *fixture) mustDispatch(gameID, playerID string, payload action.Payload) Result {
	f.t.Helper()
	result, err := f.dispatch(gameID, playerID, payload)
	if err != nil {
		f.t.Fatalf("dispatch %s by %s: %v", payload.Kind(), playerID, err)
	}
	return result
}

func (f *fixture) role(rec game.Record, role game.Role) game.Player {
	f.t.Helper()
	p, ok := rec.ByRole(role)
	if !ok {
		f.t.Fatalf("no %s in game", role)
	}
	return p
}

// toDiscussion plays the murder pick and scene pick.
func (f *fixture) toDiscussion(rec game.Record) game.Record {
	f.t.Helper()
	murderer := f.role(rec, game.RoleMurderer)
	f.mustDispatch(rec.ID, murderer.ID, action.MurderPick{Clue: murderer.Hand.ClueIDs[0], Means: murderer.Hand.MeansIDs[0]})
	fs := f.role(rec, game.RoleForensicScientist)
	f.mustDispatch(rec.ID, fs.ID, action.ScenePick{Location: rec.Scene.LocationOptions[0], Cause: rec.Scene.CauseOptions[0]})
	return f.record(rec.ID)
}

func ofType(msgs []mailbox.Message, typ mailbox.Type) []mailbox.Message {
	var out []mailbox.Message
	for _, msg := range msgs {
		if msg.Type == typ {
			out = append(out, msg)
		}
	}
	return out
}

func marshal(t *testing.T, rec game.Record) string {
	t.Helper()
	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal record: %v", err)
	}
	return string(data)
}

func TestCreateSixPlayerGame(t *testing.T) {
	f := newFixture(t)
	rec := f.create(4, 2)

	counts := map[game.Role]int{}
	for _, p := range rec.Players {
		counts[p.Role]++
	}
	if counts[game.RoleWitness] != 1 || counts[game.RoleAccomplice] != 1 {
		t.Fatalf("expected one witness and one accomplice, got %v", counts)
	}
	if rec.Phase != game.PhaseAwaitingMurderPick {
		t.Fatalf("expected awaiting murder pick, got %s", rec.Phase)
	}

	murderer := f.role(rec, game.RoleMurderer)
	prompts := ofType(f.mailbox(rec.ID, murderer.ID), mailbox.TypePromptMurderPick)
	if len(prompts) != 1 {
		t.Fatalf("expected murderer prompt, got %d", len(prompts))
	}
	if len(prompts[0].ClueIDs) != game.HandSize || len(prompts[0].MeansIDs) != game.HandSize {
		t.Fatalf("expected prompt to list the hand, got %+v", prompts[0])
	}
	for _, p := range rec.Players {
		if p.ID == murderer.ID {
			continue
		}
		if got := ofType(f.mailbox(rec.ID, p.ID), mailbox.TypePromptMurderPick); len(got) != 0 {
			t.Fatalf("player %s received murder prompt", p.ID)
		}
	}
}

func TestCreateRejectsBadPlayerCount(t *testing.T) {
	f := newFixture(t)
	_, err := f.d.Create(f.ctx, setup.Request{HumanPlayers: 2, AutomatedPlayers: 1})
	if apperrors.CodeOf(err) != apperrors.CodePlayerCountInvalid {
		t.Fatalf("expected player count error, got %v", err)
	}
	games, err := f.store.List(f.ctx, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(games) != 0 {
		t.Fatalf("expected no stored games, got %d", len(games))
	}
}

func TestMurderPickRevealsSolution(t *testing.T) {
	f := newFixture(t)
	rec := f.create(4, 2)
	murderer := f.role(rec, game.RoleMurderer)
	accomplice := f.role(rec, game.RoleAccomplice)
	witness := f.role(rec, game.RoleWitness)
	fs := f.role(rec, game.RoleForensicScientist)
	clue, means := murderer.Hand.ClueIDs[1], murderer.Hand.MeansIDs[2]

	result := f.mustDispatch(rec.ID, murderer.ID, action.MurderPick{Clue: clue, Means: means})
	if result.To != game.PhaseAwaitingScenePick || result.View.Phase != game.PhaseAwaitingScenePick {
		t.Fatalf("expected awaiting scene pick, got %s", result.To)
	}

	revealed := ofType(f.mailbox(rec.ID, witness.ID), mailbox.TypeIdentitiesRevealed)
	if len(revealed) != 1 {
		t.Fatalf("expected identities revealed for witness, got %d", len(revealed))
	}
	msg := revealed[0]
	if msg.MurdererID != murderer.ID || msg.AccompliceID != accomplice.ID {
		t.Fatalf("unexpected identities %+v", msg)
	}
	if msg.ClueID != "" || msg.MeansID != "" {
		t.Fatalf("witness message leaked solution: %+v", msg)
	}

	for _, p := range []game.Player{fs, murderer, accomplice} {
		chosen := ofType(f.mailbox(rec.ID, p.ID), mailbox.TypeSolutionChosen)
		if len(chosen) != 1 || chosen[0].ClueID != clue || chosen[0].MeansID != means {
			t.Fatalf("expected solution for %s, got %+v", p.Role, chosen)
		}
	}
	if got := ofType(f.mailbox(rec.ID, witness.ID), mailbox.TypeSolutionChosen); len(got) != 0 {
		t.Fatal("witness received the solution")
	}
	if got := ofType(f.mailbox(rec.ID, fs.ID), mailbox.TypePromptScenePick); len(got) != 1 {
		t.Fatalf("expected scene prompt for forensic scientist, got %d", len(got))
	}
}

func TestMurderPickOutsideHandIsRejected(t *testing.T) {
	f := newFixture(t)
	rec := f.create(4, 2)
	murderer := f.role(rec, game.RoleMurderer)
	fs := f.role(rec, game.RoleForensicScientist)
	foreign := f.role(rec, game.RoleAccomplice).Hand.ClueIDs[0]

	before := marshal(t, rec)
	mailboxBefore := len(f.mailbox(rec.ID, murderer.ID)) + len(f.mailbox(rec.ID, fs.ID))

	_, err := f.dispatch(rec.ID, murderer.ID, action.MurderPick{Clue: foreign, Means: murderer.Hand.MeansIDs[0]})
	if apperrors.CodeOf(err) != apperrors.CodeCardNotInHand {
		t.Fatalf("expected card not in hand, got %v", err)
	}
	if !apperrors.IsValidation(err) {
		t.Fatal("expected validation error")
	}
	after := f.record(rec.ID)
	if after.Phase != game.PhaseAwaitingMurderPick {
		t.Fatalf("phase moved to %s", after.Phase)
	}
	if marshal(t, after) != before {
		t.Fatal("rejected action changed the stored record")
	}
	if got := len(f.mailbox(rec.ID, murderer.ID)) + len(f.mailbox(rec.ID, fs.ID)); got != mailboxBefore {
		t.Fatalf("rejected action emitted messages: %d -> %d", mailboxBefore, got)
	}
}

func TestIncorrectGuessConsumesBadge(t *testing.T) {
	f := newFixture(t)
	rec := f.toDiscussion(f.create(4, 2))
	investigator := f.role(rec, game.RoleInvestigator)
	murderer := f.role(rec, game.RoleMurderer)
	wrongClue := murderer.Hand.ClueIDs[1]

	result := f.mustDispatch(rec.ID, investigator.ID, action.SolveGuess{Clue: wrongClue, Means: rec.Solution.MeansID})
	if result.To != game.PhaseDiscussion || result.Outcome != game.OutcomeIncorrect {
		t.Fatalf("expected incorrect guess in discussion, got %s/%s", result.To, result.Outcome)
	}
	after := f.record(rec.ID)
	p, _ := after.Player(investigator.ID)
	if p.BadgeRemaining {
		t.Fatal("expected badge consumed")
	}
	if got := ofType(f.mailbox(rec.ID, investigator.ID), mailbox.TypeBadgeConsumed); len(got) != 1 {
		t.Fatalf("expected badge consumed message, got %d", len(got))
	}

	_, err := f.dispatch(rec.ID, investigator.ID, action.SolveGuess{Clue: wrongClue, Means: rec.Solution.MeansID})
	if apperrors.CodeOf(err) != apperrors.CodeNoBadgeRemaining {
		t.Fatalf("expected no badge remaining, got %v", err)
	}
}

func TestCorrectGuessCompletesGame(t *testing.T) {
	f := newFixture(t)
	rec := f.toDiscussion(f.create(4, 2))
	investigator := f.role(rec, game.RoleInvestigator)

	result := f.mustDispatch(rec.ID, investigator.ID, action.SolveGuess{Clue: rec.Solution.ClueID, Means: rec.Solution.MeansID})
	if result.To != game.PhaseCompleted {
		t.Fatalf("expected completed, got %s", result.To)
	}
	if result.View.WinnerID != investigator.ID {
		t.Fatalf("expected winner %s, got %q", investigator.ID, result.View.WinnerID)
	}
	for _, p := range rec.Players {
		done := ofType(f.mailbox(rec.ID, p.ID), mailbox.TypeGameCompleted)
		if len(done) != 1 || done[0].WinnerID != investigator.ID {
			t.Fatalf("expected game completed for %s, got %+v", p.ID, done)
		}
	}

	murderer := f.role(rec, game.RoleMurderer)
	fs := f.role(rec, game.RoleForensicScientist)
	attempts := []action.Action{
		{PlayerID: murderer.ID, Payload: action.MurderPick{Clue: murderer.Hand.ClueIDs[0], Means: murderer.Hand.MeansIDs[0]}},
		{PlayerID: fs.ID, Payload: action.ScenePick{Location: rec.Scene.LocationOptions[0], Cause: rec.Scene.CauseOptions[0]}},
		{PlayerID: investigator.ID, Payload: action.Discuss{Comments: "one more thing"}},
		{PlayerID: investigator.ID, Payload: action.SolveGuess{Clue: rec.Solution.ClueID, Means: rec.Solution.MeansID}},
	}
	for _, a := range attempts {
		if _, err := f.d.Dispatch(f.ctx, rec.ID, a); apperrors.CodeOf(err) != apperrors.CodeGameCompleted {
			t.Fatalf("%s after completion: expected game completed, got %v", a.Kind(), err)
		}
	}
}

func TestPhaseErrorBeatsRoleError(t *testing.T) {
	f := newFixture(t)
	rec := f.create(4, 0)
	investigator := f.role(rec, game.RoleInvestigator)

	// wrong phase and wrong role at once
	_, err := f.dispatch(rec.ID, investigator.ID, action.ScenePick{Location: rec.Scene.LocationOptions[0], Cause: rec.Scene.CauseOptions[0]})
	if apperrors.CodeOf(err) != apperrors.CodePhaseMismatch {
		t.Fatalf("expected phase mismatch, got %v", err)
	}
}

func TestDispatchUnknownGameAndPlayer(t *testing.T) {
	f := newFixture(t)
	_, err := f.dispatch("missing", "p1", action.Discuss{Comments: "hi"})
	if !errors.Is(err, storage.ErrNotFound) || !apperrors.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}

	rec := f.toDiscussion(f.create(4, 0))
	_, err = f.dispatch(rec.ID, "p99", action.Discuss{Comments: "hi"})
	if apperrors.CodeOf(err) != apperrors.CodePlayerNotFound {
		t.Fatalf("expected player not found, got %v", err)
	}
}

func TestConcurrentDiscussLosesNoUpdates(t *testing.T) {
	f := newFixture(t)
	rec := f.toDiscussion(f.create(6, 0))
	const n = 24

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			speaker := rec.Players[i%len(rec.Players)]
			_, err := f.dispatch(rec.ID, speaker.ID, action.Discuss{Comments: fmt.Sprintf("note %d", i)})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("dispatch: %v", err)
		}
	}

	after := f.record(rec.ID)
	if len(after.Discussion) != n {
		t.Fatalf("expected %d discussion messages, got %d", n, len(after.Discussion))
	}
	if after.Revision != rec.Revision+n {
		t.Fatalf("expected revision %d, got %d", rec.Revision+n, after.Revision)
	}
	for i, msg := range after.Discussion {
		if msg.Seq != i+1 {
			t.Fatalf("discussion seq %d at index %d", msg.Seq, i)
		}
		if i > 0 && msg.CreatedAt.Before(after.Discussion[i-1].CreatedAt) {
			t.Fatal("discussion timestamps went backwards")
		}
	}

	for _, p := range after.Players {
		msgs := f.mailbox(rec.ID, p.ID)
		for i, msg := range msgs {
			if msg.Sequence != uint64(i+1) {
				t.Fatalf("mailbox %s has gap at %d: sequence %d", p.ID, i, msg.Sequence)
			}
		}
		if uint64(len(msgs)) != after.MailboxHeads[p.ID] {
			t.Fatalf("mailbox %s length %d, head %d", p.ID, len(msgs), after.MailboxHeads[p.ID])
		}
	}
}

func TestStaleCursorReadsAreIdempotent(t *testing.T) {
	f := newFixture(t)
	rec := f.toDiscussion(f.create(4, 0))
	player := rec.Players[0]

	first, err := f.d.ReadMailbox(f.ctx, rec.ID, player.ID, 0, 0)
	if err != nil {
		t.Fatalf("read mailbox: %v", err)
	}
	if err := f.d.Flush(f.ctx, rec.ID); err != nil {
		t.Fatalf("flush: %v", err)
	}
	second, err := f.d.ReadMailbox(f.ctx, rec.ID, player.ID, 0, 0)
	if err != nil {
		t.Fatalf("read mailbox again: %v", err)
	}
	if len(first) == 0 || len(first) != len(second) {
		t.Fatalf("expected stable reads, got %d then %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Sequence != second[i].Sequence || first[i].Type != second[i].Type {
			t.Fatalf("read %d differs: %+v vs %+v", i, first[i], second[i])
		}
	}

	cursor := first[len(first)-1].Sequence
	tail, err := f.d.ReadMailbox(f.ctx, rec.ID, player.ID, cursor, 0)
	if err != nil {
		t.Fatalf("read tail: %v", err)
	}
	if len(tail) != 0 {
		t.Fatalf("expected empty tail, got %d", len(tail))
	}

	if _, err := f.d.ReadMailbox(f.ctx, rec.ID, "p99", 0, 0); apperrors.CodeOf(err) != apperrors.CodePlayerNotFound {
		t.Fatalf("expected player not found, got %v", err)
	}
}

func TestDispatchTimesOutOnContention(t *testing.T) {
	f := newFixture(t)
	rec := f.toDiscussion(f.create(4, 0))
	locker := lock.NewKeyed(20 * time.Millisecond)
	f.d.Locker = locker

	release, err := locker.Acquire(f.ctx, rec.ID)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer release()

	_, err = f.dispatch(rec.ID, rec.Players[0].ID, action.Discuss{Comments: "anyone?"})
	if apperrors.CodeOf(err) != apperrors.CodeGameContention || !apperrors.IsRetryable(err) {
		t.Fatalf("expected retryable contention, got %v", err)
	}
	if f.record(rec.ID).Revision != rec.Revision {
		t.Fatal("timed out dispatch changed the record")
	}
}

// racyStore reports a conflict for the first n swaps.
type racyStore struct {
	storage.RecordStore
	conflicts int
	swaps     int
}

func (s *racyStore) CompareAndSwap(ctx context.Context, expected uint64, rec game.Record) error {
	s.swaps++
	if s.conflicts > 0 {
		s.conflicts--
		return storage.ErrConflict
	}
	return s.RecordStore.CompareAndSwap(ctx, expected, rec)
}

func TestDispatchRetriesConflicts(t *testing.T) {
	f := newFixture(t)
	rec := f.toDiscussion(f.create(4, 0))
	racy := &racyStore{RecordStore: f.store, conflicts: 2}
	f.d.Records = racy

	if _, err := f.dispatch(rec.ID, rec.Players[0].ID, action.Discuss{Comments: "third time"}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	// Three commit attempts, then the delivered marker.
	if racy.swaps != 4 {
		t.Fatalf("expected 4 swaps, got %d", racy.swaps)
	}

	racy.conflicts = DefaultMaxAttempts
	racy.swaps = 0
	_, err := f.dispatch(rec.ID, rec.Players[0].ID, action.Discuss{Comments: "never lands"})
	if apperrors.CodeOf(err) != apperrors.CodePersistenceConflict || !apperrors.IsRetryable(err) {
		t.Fatalf("expected persistence conflict, got %v", err)
	}
	if racy.swaps != DefaultMaxAttempts {
		t.Fatalf("expected %d swaps, got %d", DefaultMaxAttempts, racy.swaps)
	}
}

// flakyMailbox fails every append while down is set.
type flakyMailbox struct {
	storage.MailboxLog
	down atomic.Bool
}

func (m *flakyMailbox) Append(ctx context.Context, msgs ...mailbox.Message) error {
	if m.down.Load() {
		return errors.New("mailbox unavailable")
	}
	return m.MailboxLog.Append(ctx, msgs...)
}

func TestCommittedOutboxIsFlushedLater(t *testing.T) {
	f := newFixture(t)
	rec := f.create(4, 0)
	if !rec.OutboxDelivered {
		t.Fatal("expected setup outbox to be marked delivered")
	}
	flaky := &flakyMailbox{MailboxLog: f.store}
	f.d.Mailboxes = flaky
	murderer := f.role(rec, game.RoleMurderer)
	fs := f.role(rec, game.RoleForensicScientist)

	flaky.down.Store(true)
	if _, err := f.dispatch(rec.ID, murderer.ID, action.MurderPick{Clue: murderer.Hand.ClueIDs[0], Means: murderer.Hand.MeansIDs[0]}); err != nil {
		t.Fatalf("dispatch with mailbox down: %v", err)
	}
	if got := ofType(f.mailbox(rec.ID, fs.ID), mailbox.TypeSolutionChosen); len(got) != 0 {
		t.Fatal("expected solution message to be pending")
	}
	if f.record(rec.ID).Phase != game.PhaseAwaitingScenePick {
		t.Fatal("expected the record to be committed")
	}

	// Rejections keep their own error during an outage.
	_, err := f.dispatch(rec.ID, murderer.ID, action.ScenePick{Location: rec.Scene.LocationOptions[0], Cause: rec.Scene.CauseOptions[0]})
	if apperrors.CodeOf(err) != apperrors.CodeRoleMismatch {
		t.Fatalf("expected role mismatch during outage, got %v", err)
	}

	// Later writes still land and carry the undelivered messages forward.
	f.mustDispatch(rec.ID, fs.ID, action.ScenePick{Location: rec.Scene.LocationOptions[0], Cause: rec.Scene.CauseOptions[0]})
	pending := f.record(rec.ID)
	if pending.Phase != game.PhaseDiscussion || pending.OutboxDelivered {
		t.Fatalf("expected undelivered discussion record, got %s delivered=%v", pending.Phase, pending.OutboxDelivered)
	}
	if len(ofType(pending.Outbox, mailbox.TypeSolutionChosen)) == 0 {
		t.Fatal("expected solution message carried into the next outbox")
	}

	flaky.down.Store(false)
	if err := f.d.Flush(f.ctx, rec.ID); err != nil {
		t.Fatalf("flush: %v", err)
	}
	msgs := f.mailbox(rec.ID, fs.ID)
	if got := ofType(msgs, mailbox.TypeSolutionChosen); len(got) != 1 {
		t.Fatalf("expected flushed solution message, got %d", len(got))
	}
	for i, msg := range msgs {
		if msg.Sequence != uint64(i+1) {
			t.Fatalf("expected gap-free sequences, got %d at %d", msg.Sequence, i)
		}
	}
	if last := msgs[len(msgs)-1].Sequence; last != f.record(rec.ID).MailboxHeads[fs.ID] {
		t.Fatalf("expected head %d, got %d", f.record(rec.ID).MailboxHeads[fs.ID], last)
	}
	if !f.record(rec.ID).OutboxDelivered {
		t.Fatal("expected outbox marked delivered after flush")
	}

	flaky.down.Store(true)
	if err := f.d.Flush(f.ctx, rec.ID); err != nil {
		t.Fatalf("expected delivered outbox to skip the mailbox, got %v", err)
	}
}

func TestDeliveredOutboxDoesNotBlockDispatch(t *testing.T) {
	f := newFixture(t)
	rec := f.toDiscussion(f.create(4, 0))
	flaky := &flakyMailbox{MailboxLog: f.store}
	f.d.Mailboxes = flaky
	flaky.down.Store(true)

	for i, p := range rec.BySeat() {
		if _, err := f.dispatch(rec.ID, p.ID, action.Discuss{Comments: fmt.Sprintf("note %d", i)}); err != nil {
			t.Fatalf("dispatch %d with mailbox down: %v", i, err)
		}
	}
	if got := len(f.record(rec.ID).Discussion); got != len(rec.Players) {
		t.Fatalf("expected %d discussion messages, got %d", len(rec.Players), got)
	}
}

func TestDiscussionTurnOrderIsOptIn(t *testing.T) {
	f := newFixture(t)
	rec := f.toDiscussion(f.create(4, 0))
	f.d.Chain = f.d.chain().Append(validator.DiscussionTurn)

	first := rec.BySeat()[0]
	second := rec.BySeat()[1]
	if _, err := f.dispatch(rec.ID, second.ID, action.Discuss{Comments: "me first"}); apperrors.CodeOf(err) != apperrors.CodeNotYourTurn {
		t.Fatalf("expected not your turn, got %v", err)
	}
	f.mustDispatch(rec.ID, first.ID, action.Discuss{Comments: "opening"})
	f.mustDispatch(rec.ID, second.ID, action.Discuss{Comments: "reply"})
}

func TestDispatcherRequiresDependencies(t *testing.T) {
	d := &Dispatcher{}
	if _, err := d.Dispatch(context.Background(), "g", action.Action{}); !errors.Is(err, ErrRecordStoreRequired) {
		t.Fatalf("expected record store required, got %v", err)
	}
	store := memory.New()
	d.Records = store
	if _, err := d.Dispatch(context.Background(), "g", action.Action{}); !errors.Is(err, ErrMailboxRequired) {
		t.Fatalf("expected mailbox required, got %v", err)
	}
	d.Mailboxes = store
	if _, err := d.Dispatch(context.Background(), "g", action.Action{}); !errors.Is(err, ErrLockerRequired) {
		t.Fatalf("expected locker required, got %v", err)
	}
}

func TestBoardContextAndViews(t *testing.T) {
	f := newFixture(t)
	rec := f.toDiscussion(f.create(4, 2))
	murderer := f.role(rec, game.RoleMurderer)

	board, err := f.d.BoardContext(f.ctx, rec.ID, murderer.ID)
	if err != nil {
		t.Fatalf("board context: %v", err)
	}
	if len(board) == 0 || board[:len("BOARD CONTEXT (visible to you):")] != "BOARD CONTEXT (visible to you):" {
		t.Fatalf("unexpected board header: %q", board)
	}

	view, err := f.d.View(f.ctx, rec.ID, "investigator")
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if view.Solution != nil {
		t.Fatal("investigator view exposed the solution")
	}
	games, err := f.d.List(f.ctx, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(games) != 1 || games[0].GameID != rec.ID || games[0].Solution != nil {
		t.Fatalf("unexpected list %+v", games)
	}
}
