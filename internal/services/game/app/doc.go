// Package server composes the game gRPC entrypoint.
//
// It opens the configured record store, builds the dispatcher and the
// automated-player runner, and serves the game and health services until
// the context ends.
package server
