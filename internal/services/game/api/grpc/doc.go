// Package grpc groups the gRPC transport for the game service.
package grpc
