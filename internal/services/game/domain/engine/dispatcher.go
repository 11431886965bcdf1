package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/louisbranch/deception/internal/platform/errors"
	"github.com/louisbranch/deception/internal/platform/timeouts"
	"github.com/louisbranch/deception/internal/services/game/domain/action"
	"github.com/louisbranch/deception/internal/services/game/domain/catalog"
	"github.com/louisbranch/deception/internal/services/game/domain/decider"
	"github.com/louisbranch/deception/internal/services/game/domain/emitter"
	"github.com/louisbranch/deception/internal/services/game/domain/game"
	"github.com/louisbranch/deception/internal/services/game/domain/mailbox"
	"github.com/louisbranch/deception/internal/services/game/domain/redact"
	"github.com/louisbranch/deception/internal/services/game/domain/validator"
	"github.com/louisbranch/deception/internal/services/game/storage"
)

const tracerName = "github.com/louisbranch/deception/internal/services/game/domain/engine"

// DefaultMaxAttempts bounds compare-and-swap retries per dispatch.
const DefaultMaxAttempts = 3

// appendAttempts bounds mailbox append retries after a commit.
const appendAttempts = 3

// Dispatch log stages.
const (
	StageReceived   = "action_received"
	StageValidated  = "action_validated"
	StageTransition = "phase_transition"
	StageApplied    = "action_applied"
	StageFinished   = "action_finished"
)

// Dispatcher validates, decides, persists, and emits game actions.
type Dispatcher struct {
	Records     storage.RecordStore
	Mailboxes   storage.MailboxLog
	Locker      storage.Locker
	Catalog     catalog.Catalog
	Chain       validator.Chain
	MaxAttempts int
	Now         func() time.Time
	NewID       func() (string, error)
	NewSeed     func() (int64, error)
	Logger      zerolog.Logger
	Tracer      trace.Tracer
}

// Result is the outcome of one dispatched action.
type Result struct {
	// View is the post-action state as the submitter may see it.
	View     redact.View
	From     game.Phase
	To       game.Phase
	Outcome  game.Outcome
	Messages []mailbox.Message
}

// Dispatch applies a to the game identified by gameID.
func (d *Dispatcher) Dispatch(ctx context.Context, gameID string, a action.Action) (Result, error) {
	if err := d.check(); err != nil {
		return Result{}, err
	}
	ctx, span := d.tracer().Start(ctx, "engine.Dispatch", trace.WithAttributes(
		attribute.String("game.id", gameID),
		attribute.String("game.player_id", a.PlayerID),
		attribute.String("game.action", string(a.Kind())),
	))
	defer span.End()

	log := d.Logger.With().
		Str("game_id", gameID).
		Str("player_id", a.PlayerID).
		Str("action", string(a.Kind())).
		Logger()
	log.Debug().Str("stage", StageReceived).Msg("action received")

	result, err := d.dispatch(ctx, log, gameID, a)
	if err != nil {
		d.logFailure(log, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, string(apperrors.CodeOf(err)))
		return Result{}, err
	}
	span.SetAttributes(attribute.String("game.phase", string(result.To)))
	log.Info().
		Str("stage", StageFinished).
		Str("phase", string(result.To)).
		Uint64("revision", result.View.Revision).
		Int("messages", len(result.Messages)).
		Msg("action finished")
	return result, nil
}

func (d *Dispatcher) dispatch(ctx context.Context, log zerolog.Logger, gameID string, a action.Action) (Result, error) {
	release, err := d.Locker.Acquire(ctx, gameID)
	if err != nil {
		return Result{}, err
	}
	defer release()

	attempts := d.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}
	for attempt := 1; ; attempt++ {
		rec, err := d.Records.Get(ctx, gameID)
		if err != nil {
			return Result{}, err
		}
		if err := d.chain().Validate(rec, a); err != nil {
			return Result{}, err
		}
		log.Debug().Str("stage", StageValidated).Str("phase", string(rec.Phase)).Msg("action validated")

		decided, err := decider.Decide(rec, a, d.now())
		if err != nil {
			return Result{}, err
		}
		if decided.Changed() {
			log.Info().
				Str("stage", StageTransition).
				Str("from", string(decided.From)).
				Str("to", string(decided.To)).
				Msg("phase transition")
		}

		next := decided.Record
		emitted := mailbox.Number(next.MailboxHeads, emitter.Derive(rec, next, a.Kind()))
		next.Outbox = pendingOutbox(rec, emitted)
		next.OutboxDelivered = false
		err = d.Records.CompareAndSwap(ctx, rec.Revision, next)
		if errors.Is(err, storage.ErrConflict) {
			if attempt < attempts {
				log.Warn().Int("attempt", attempt).Uint64("revision", rec.Revision).Msg("revision moved, reloading")
				continue
			}
			return Result{}, fmt.Errorf("dispatch %s after %d attempts: %w", gameID, attempt, storage.ErrConflict)
		}
		if err != nil {
			return Result{}, fmt.Errorf("persist game: %w", err)
		}
		log.Info().
			Str("stage", StageApplied).
			Str("phase", string(next.Phase)).
			Uint64("revision", next.Revision).
			Msg("action applied")

		d.deliverCommitted(ctx, log, next)
		return Result{
			View:     redact.ForViewer(next, a.PlayerID),
			From:     decided.From,
			To:       decided.To,
			Outcome:  decided.Outcome,
			Messages: emitted,
		}, nil
	}
}

// Flush appends the committed outbox of a game when it has not been
// delivered yet.
func (d *Dispatcher) Flush(ctx context.Context, gameID string) error {
	if err := d.check(); err != nil {
		return err
	}
	release, err := d.Locker.Acquire(ctx, gameID)
	if err != nil {
		return err
	}
	defer release()

	rec, err := d.Records.Get(ctx, gameID)
	if err != nil {
		return err
	}
	if rec.OutboxDelivered || len(rec.Outbox) == 0 {
		return nil
	}
	log := d.Logger.With().Str("game_id", gameID).Logger()
	if err := d.deliver(ctx, log, rec.Outbox); err != nil {
		return fmt.Errorf("flush outbox: %w", err)
	}
	d.markDelivered(ctx, log, rec)
	return nil
}

// pendingOutbox returns the outbox for the revision after rec: messages rec
// never delivered, then emitted. Sequences stay in order per recipient.
func pendingOutbox(rec game.Record, emitted []mailbox.Message) []mailbox.Message {
	if rec.OutboxDelivered || len(rec.Outbox) == 0 {
		return emitted
	}
	out := make([]mailbox.Message, 0, len(rec.Outbox)+len(emitted))
	out = append(out, rec.Outbox...)
	return append(out, emitted...)
}

// deliverCommitted appends the outbox of a committed record. A failure is
// logged and left for the next revision or Flush to carry.
func (d *Dispatcher) deliverCommitted(ctx context.Context, log zerolog.Logger, rec game.Record) {
	if len(rec.Outbox) == 0 {
		return
	}
	if err := d.deliver(ctx, log, rec.Outbox); err != nil {
		log.Warn().Err(err).Int("pending", len(rec.Outbox)).Msg("mailbox append deferred")
		return
	}
	d.markDelivered(ctx, log, rec)
}

// markDelivered records that rec's outbox reached the mailbox log. The
// revision is unchanged; a conflict means a newer revision already
// superseded rec and is ignored.
func (d *Dispatcher) markDelivered(ctx context.Context, log zerolog.Logger, rec game.Record) {
	rec.OutboxDelivered = true
	if err := d.Records.CompareAndSwap(ctx, rec.Revision, rec); err != nil && !errors.Is(err, storage.ErrConflict) {
		log.Warn().Err(err).Uint64("revision", rec.Revision).Msg("mark outbox delivered")
	}
}

// deliver appends msgs, retrying with exponential backoff. Each attempt is
// bounded by timeouts.MailboxAppend.
func (d *Dispatcher) deliver(ctx context.Context, log zerolog.Logger, msgs []mailbox.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	var err error
	delay := timeouts.MailboxBackoff
	for attempt := 1; attempt <= appendAttempts; attempt++ {
		appendCtx, cancel := context.WithTimeout(ctx, timeouts.MailboxAppend)
		err = d.Mailboxes.Append(appendCtx, msgs...)
		cancel()
		if err == nil || errors.Is(err, storage.ErrSequenceConflict) {
			return err
		}
		if attempt == appendAttempts {
			break
		}
		log.Warn().Err(err).Int("attempt", attempt).Msg("mailbox append failed")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return err
}

func (d *Dispatcher) logFailure(log zerolog.Logger, err error) {
	code := apperrors.CodeOf(err)
	switch {
	case apperrors.IsValidation(err), apperrors.IsNotFound(err):
		log.Info().Str("code", string(code)).Msg(err.Error())
	case apperrors.IsRetryable(err), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		log.Warn().Str("code", string(code)).Err(err).Msg("action not applied")
	default:
		log.Error().Str("code", string(code)).Err(err).Msg("action failed")
	}
}

func (d *Dispatcher) check() error {
	if d.Records == nil {
		return ErrRecordStoreRequired
	}
	if d.Mailboxes == nil {
		return ErrMailboxRequired
	}
	if d.Locker == nil {
		return ErrLockerRequired
	}
	return nil
}

func (d *Dispatcher) chain() validator.Chain {
	if d.Chain == nil {
		return validator.Default()
	}
	return d.Chain
}

func (d *Dispatcher) now() time.Time {
	if d.Now == nil {
		return time.Now().UTC()
	}
	return d.Now().UTC()
}

func (d *Dispatcher) tracer() trace.Tracer {
	if d.Tracer == nil {
		return otel.Tracer(tracerName)
	}
	return d.Tracer
}
