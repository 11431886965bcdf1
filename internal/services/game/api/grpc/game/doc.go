// Package game exposes the deception engine over gRPC.
//
// The service is registered with a hand-written descriptor whose request and
// response messages are google.protobuf.Struct documents, so the wire shape
// matches the JSON views the engine produces:
//   - CreateGame -> deal a new table
//   - GetGame, ListGames -> redacted views
//   - SubmitAction -> dispatch one action envelope
//   - ReadMailbox -> per-player messages after a cursor
//   - GetBoardContext -> the board as a player sees it
//   - RunAgentsOnce -> let automated seats answer pending prompts
package game
