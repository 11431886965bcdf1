package engine

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/louisbranch/deception/internal/platform/id"
	"github.com/louisbranch/deception/internal/services/game/domain/core/random"
	"github.com/louisbranch/deception/internal/services/game/domain/emitter"
	"github.com/louisbranch/deception/internal/services/game/domain/mailbox"
	"github.com/louisbranch/deception/internal/services/game/domain/redact"
	"github.com/louisbranch/deception/internal/services/game/domain/setup"
)

// Created describes a freshly dealt game.
type Created struct {
	// View is the investigator view, safe for any caller.
	View       redact.View
	Seed       int64
	SeedSource random.SeedSource
	Messages   []mailbox.Message
}

// Create deals and stores a new game, then delivers its setup messages.
func (d *Dispatcher) Create(ctx context.Context, req setup.Request) (Created, error) {
	if err := d.check(); err != nil {
		return Created{}, err
	}
	ctx, span := d.tracer().Start(ctx, "engine.Create", trace.WithAttributes(
		attribute.Int("game.human_players", req.HumanPlayers),
		attribute.Int("game.automated_players", req.AutomatedPlayers),
	))
	defer span.End()

	if err := req.Validate(); err != nil {
		span.RecordError(err)
		return Created{}, err
	}
	newID := d.NewID
	if newID == nil {
		newID = id.NewID
	}
	gameID, err := newID()
	if err != nil {
		return Created{}, fmt.Errorf("generate game id: %w", err)
	}
	seed, source, err := random.ResolveSeed(req.Seed, d.NewSeed)
	if err != nil {
		return Created{}, err
	}

	rec, err := setup.Deal(d.Catalog, req, gameID, seed, d.now())
	if err != nil {
		span.RecordError(err)
		return Created{}, err
	}
	rec.Outbox = mailbox.Number(rec.MailboxHeads, emitter.Setup(rec))
	if err := d.Records.Create(ctx, rec); err != nil {
		return Created{}, fmt.Errorf("create game: %w", err)
	}

	log := d.Logger.With().Str("game_id", gameID).Logger()
	log.Info().
		Int("players", len(rec.Players)).
		Str("seed_source", string(source)).
		Str("phase", string(rec.Phase)).
		Msg("game created")
	d.deliverCommitted(ctx, log, rec)

	return Created{
		View:       redact.Redact(rec, redact.POVInvestigator),
		Seed:       seed,
		SeedSource: source,
		Messages:   rec.Outbox,
	}, nil
}
