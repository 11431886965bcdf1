package server

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/louisbranch/deception/internal/services/game/storage"
	storagebbolt "github.com/louisbranch/deception/internal/services/game/storage/bbolt"
	"github.com/louisbranch/deception/internal/services/game/storage/memory"
	storagesqlite "github.com/louisbranch/deception/internal/services/game/storage/sqlite"
)

// Store backends.
const (
	StoreBbolt  = "bbolt"
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

const defaultDBPath = "data/game.db"

func openStore(ctx context.Context, backend, path string) (storage.Store, error) {
	backend = strings.ToLower(strings.TrimSpace(backend))
	if backend == "" {
		backend = StoreBbolt
	}
	if backend == StoreMemory {
		return memory.New(), nil
	}

	path = strings.TrimSpace(path)
	if path == "" {
		path = defaultDBPath
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}

	switch backend {
	case StoreBbolt:
		store, err := storagebbolt.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open bbolt store: %w", err)
		}
		return store, nil
	case StoreSQLite:
		store, err := storagesqlite.Open(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
}
