// Package api contains the game service's transport surfaces.
//
// Subpackages:
//   - grpc/game: the GameService handlers and hand-written service descriptor
//   - grpc/metadata: request metadata helpers and interceptors
//   - grpc/interceptors: logging and error mapping middleware
package api
