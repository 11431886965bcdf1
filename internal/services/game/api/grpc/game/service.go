package game

import (
	"context"
	"encoding/json"
	"strconv"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	apperrors "github.com/louisbranch/deception/internal/platform/errors"
	"github.com/louisbranch/deception/internal/platform/grpc/pagination"
	grpcmeta "github.com/louisbranch/deception/internal/services/game/api/grpc/metadata"
	"github.com/louisbranch/deception/internal/services/game/domain/action"
	"github.com/louisbranch/deception/internal/services/game/domain/engine"
	"github.com/louisbranch/deception/internal/services/game/domain/mailbox"
	"github.com/louisbranch/deception/internal/services/game/domain/redact"
	"github.com/louisbranch/deception/internal/services/game/domain/setup"
)

// AgentRunner lets automated seats act on one game.
type AgentRunner interface {
	RunOnce(ctx context.Context, gameID string) (bool, error)
}

// Service implements GameServiceServer over the dispatcher.
type Service struct {
	engine *engine.Dispatcher
	agents AgentRunner
}

// NewGameService returns a service backed by d. agents may be nil when
// automated players are disabled.
func NewGameService(d *engine.Dispatcher, agents AgentRunner) *Service {
	return &Service{engine: d, agents: agents}
}

type createGameRequest struct {
	NumHumanPlayers     int       `json:"num_human_players"`
	NumAutomatedPlayers int       `json:"num_automated_players"`
	DisplayNames        []string  `json:"display_names"`
	Seed                seedValue `json:"seed"`
}

type createGameResponse struct {
	Game       redact.View `json:"game"`
	Seed       string      `json:"seed"`
	SeedSource string      `json:"seed_source"`
}

// CreateGame deals a new table.
func (s *Service) CreateGame(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req createGameRequest
	if err := decodeRequest(in, &req); err != nil {
		return nil, handleDomainError(ctx, err)
	}
	created, err := s.engine.Create(ctx, setup.Request{
		HumanPlayers:     req.NumHumanPlayers,
		AutomatedPlayers: req.NumAutomatedPlayers,
		DisplayNames:     req.DisplayNames,
		Seed:             req.Seed.value,
	})
	if err != nil {
		return nil, handleDomainError(ctx, err)
	}
	return respond(ctx, createGameResponse{
		Game:       created.View,
		Seed:       strconv.FormatInt(created.Seed, 10),
		SeedSource: string(created.SeedSource),
	})
}

type getGameRequest struct {
	GameID   string `json:"game_id"`
	POV      string `json:"pov"`
	PlayerID string `json:"player_id"`
}

type gameResponse struct {
	Game redact.View `json:"game"`
}

// GetGame returns a redacted view. A player_id selects that player's role
// view; otherwise pov is used and unknown values fall back to investigator.
func (s *Service) GetGame(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req getGameRequest
	if err := decodeRequest(in, &req); err != nil {
		return nil, handleDomainError(ctx, err)
	}
	gameID, err := requireField("game_id", req.GameID)
	if err != nil {
		return nil, handleDomainError(ctx, err)
	}
	if req.PlayerID != "" {
		rec, err := s.engine.Record(ctx, gameID)
		if err != nil {
			return nil, handleDomainError(ctx, err)
		}
		if _, err := rec.RequirePlayer(req.PlayerID); err != nil {
			return nil, handleDomainError(ctx, err)
		}
		return respond(ctx, gameResponse{Game: redact.ForViewer(rec, req.PlayerID)})
	}
	view, err := s.engine.View(ctx, gameID, redact.ParsePOV(req.POV))
	if err != nil {
		return nil, handleDomainError(ctx, err)
	}
	return respond(ctx, gameResponse{Game: view})
}

var listPageSize = pagination.PageSizeConfig{Default: 50, Max: 200}

type listGamesRequest struct {
	Limit int `json:"limit"`
}

type listGamesResponse struct {
	Games []redact.View `json:"games"`
}

// ListGames returns games newest first.
func (s *Service) ListGames(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req listGamesRequest
	if err := decodeRequest(in, &req); err != nil {
		return nil, handleDomainError(ctx, err)
	}
	views, err := s.engine.List(ctx, pagination.ClampPageSize(req.Limit, listPageSize))
	if err != nil {
		return nil, handleDomainError(ctx, err)
	}
	return respond(ctx, listGamesResponse{Games: views})
}

type submitActionRequest struct {
	GameID string          `json:"game_id"`
	Action json.RawMessage `json:"action"`
}

type submitActionResponse struct {
	Game            redact.View `json:"game"`
	From            string      `json:"from"`
	To              string      `json:"to"`
	Outcome         string      `json:"outcome"`
	MessagesEmitted int         `json:"messages_emitted"`
}

// SubmitAction dispatches one action envelope.
func (s *Service) SubmitAction(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req submitActionRequest
	if err := decodeRequest(in, &req); err != nil {
		return nil, handleDomainError(ctx, err)
	}
	gameID, err := requireField("game_id", req.GameID)
	if err != nil {
		return nil, handleDomainError(ctx, err)
	}
	if len(req.Action) == 0 {
		return nil, handleDomainError(ctx, invalidRequest("action is required"))
	}
	a, err := action.Decode(req.Action)
	if err != nil {
		return nil, handleDomainError(ctx, err)
	}
	result, err := s.engine.Dispatch(ctx, gameID, a)
	if err != nil {
		return nil, handleDomainError(ctx, err)
	}
	return respond(ctx, submitActionResponse{
		Game:            result.View,
		From:            string(result.From),
		To:              string(result.To),
		Outcome:         result.Outcome.String(),
		MessagesEmitted: len(result.Messages),
	})
}

type readMailboxRequest struct {
	GameID   string `json:"game_id"`
	PlayerID string `json:"player_id"`
	After    uint64 `json:"after"`
	Count    int    `json:"count"`
}

type readMailboxResponse struct {
	Messages  []mailbox.Message `json:"messages"`
	NextAfter uint64            `json:"next_after"`
}

// ReadMailbox returns a player's messages after the cursor. Pass next_after
// back as after to continue.
func (s *Service) ReadMailbox(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req readMailboxRequest
	if err := decodeRequest(in, &req); err != nil {
		return nil, handleDomainError(ctx, err)
	}
	gameID, err := requireField("game_id", req.GameID)
	if err != nil {
		return nil, handleDomainError(ctx, err)
	}
	playerID, err := requireField("player_id", req.PlayerID)
	if err != nil {
		return nil, handleDomainError(ctx, err)
	}
	msgs, err := s.engine.ReadMailbox(ctx, gameID, playerID, req.After, req.Count)
	if err != nil {
		return nil, handleDomainError(ctx, err)
	}
	next := req.After
	if len(msgs) > 0 {
		next = msgs[len(msgs)-1].Sequence
	}
	return respond(ctx, readMailboxResponse{Messages: msgs, NextAfter: next})
}

type boardContextRequest struct {
	GameID   string `json:"game_id"`
	PlayerID string `json:"player_id"`
}

type boardContextResponse struct {
	BoardContext string `json:"board_context"`
}

// GetBoardContext renders the board for one player.
func (s *Service) GetBoardContext(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req boardContextRequest
	if err := decodeRequest(in, &req); err != nil {
		return nil, handleDomainError(ctx, err)
	}
	gameID, err := requireField("game_id", req.GameID)
	if err != nil {
		return nil, handleDomainError(ctx, err)
	}
	playerID, err := requireField("player_id", req.PlayerID)
	if err != nil {
		return nil, handleDomainError(ctx, err)
	}
	board, err := s.engine.BoardContext(ctx, gameID, playerID)
	if err != nil {
		return nil, handleDomainError(ctx, err)
	}
	return respond(ctx, boardContextResponse{BoardContext: board})
}

type runAgentsRequest struct {
	GameID string `json:"game_id"`
}

type runAgentsResponse struct {
	Acted bool `json:"acted"`
}

// RunAgentsOnce lets the automated seat whose turn it is act once.
func (s *Service) RunAgentsOnce(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if s.agents == nil {
		return nil, status.Error(codes.FailedPrecondition, "automated players are disabled")
	}
	var req runAgentsRequest
	if err := decodeRequest(in, &req); err != nil {
		return nil, handleDomainError(ctx, err)
	}
	gameID, err := requireField("game_id", req.GameID)
	if err != nil {
		return nil, handleDomainError(ctx, err)
	}
	acted, err := s.agents.RunOnce(ctx, gameID)
	if err != nil {
		return nil, handleDomainError(ctx, err)
	}
	return respond(ctx, runAgentsResponse{Acted: acted})
}

func respond(ctx context.Context, v any) (*structpb.Struct, error) {
	out, err := encodeResponse(v)
	if err != nil {
		return nil, handleDomainError(ctx, err)
	}
	return out, nil
}

// handleDomainError maps err to a status localized for the caller.
func handleDomainError(ctx context.Context, err error) error {
	return apperrors.HandleError(err, grpcmeta.LocaleFromContext(ctx))
}

var _ GameServiceServer = (*Service)(nil)
