// Package random resolves the seed that drives a game's deterministic deal.
package random

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	mathrand "math/rand"
)

// SeedSource records where a game's seed came from.
type SeedSource string

const (
	// SeedSourceServer marks a seed generated by the server.
	SeedSourceServer SeedSource = "server"
	// SeedSourceClient marks a seed supplied with the create request.
	SeedSourceClient SeedSource = "client"
)

// NewSeed returns a non-zero seed from crypto/rand.
func NewSeed() (int64, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, fmt.Errorf("read seed: %w", err)
	}
	seed := int64(binary.LittleEndian.Uint64(buf[:]) &^ (1 << 63))
	if seed == 0 {
		seed = 1
	}
	return seed, nil
}

// ResolveSeed prefers a client-supplied seed and otherwise asks generate for
// one. A nil generate falls back to NewSeed.
func ResolveSeed(requested *int64, generate func() (int64, error)) (int64, SeedSource, error) {
	if requested != nil {
		return *requested, SeedSourceClient, nil
	}
	if generate == nil {
		generate = NewSeed
	}
	seed, err := generate()
	if err != nil {
		return 0, "", fmt.Errorf("generate seed: %w", err)
	}
	return seed, SeedSourceServer, nil
}

// NewRand returns a deterministic generator for seed.
func NewRand(seed int64) *mathrand.Rand {
	return mathrand.New(mathrand.NewSource(seed))
}
