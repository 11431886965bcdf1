package engine

import (
	"context"

	"github.com/louisbranch/deception/internal/services/game/domain/game"
	"github.com/louisbranch/deception/internal/services/game/domain/mailbox"
	"github.com/louisbranch/deception/internal/services/game/domain/redact"
)

// Reads take no lock: records are replaced whole, so a reader sees one
// committed revision.

// Record returns the unredacted record. Callers outside the engine should
// prefer View.
func (d *Dispatcher) Record(ctx context.Context, gameID string) (game.Record, error) {
	if err := d.check(); err != nil {
		return game.Record{}, err
	}
	return d.Records.Get(ctx, gameID)
}

// View returns the game as pov may see it.
func (d *Dispatcher) View(ctx context.Context, gameID string, pov redact.POV) (redact.View, error) {
	rec, err := d.Record(ctx, gameID)
	if err != nil {
		return redact.View{}, err
	}
	return redact.Redact(rec, pov), nil
}

// List returns up to limit games, newest first, in the investigator view.
func (d *Dispatcher) List(ctx context.Context, limit int) ([]redact.View, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	records, err := d.Records.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	views := make([]redact.View, 0, len(records))
	for _, rec := range records {
		views = append(views, redact.Redact(rec, redact.POVInvestigator))
	}
	return views, nil
}

// ReadMailbox returns messages for playerID after the cursor.
func (d *Dispatcher) ReadMailbox(ctx context.Context, gameID, playerID string, after uint64, count int) ([]mailbox.Message, error) {
	rec, err := d.Record(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if _, err := rec.RequirePlayer(playerID); err != nil {
		return nil, err
	}
	return d.Mailboxes.Read(ctx, gameID, playerID, after, mailbox.ClampCount(count))
}

// BoardContext renders the board as viewerID may see it.
func (d *Dispatcher) BoardContext(ctx context.Context, gameID, viewerID string) (string, error) {
	rec, err := d.Record(ctx, gameID)
	if err != nil {
		return "", err
	}
	if _, err := rec.RequirePlayer(viewerID); err != nil {
		return "", err
	}
	return redact.BoardContext(rec, d.Catalog, viewerID), nil
}
