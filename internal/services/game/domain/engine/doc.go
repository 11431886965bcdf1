// Package engine serializes actions against a game.
//
// A dispatch holds the per-game lock for its whole read-validate-decide-write
// cycle. The record and the numbered mailbox messages it implies are written
// together by one compare-and-swap, so a crash between the record write and
// the mailbox append loses nothing: the committed outbox is re-appended at
// the start of the next dispatch or by Flush, and appends are idempotent.
package engine
