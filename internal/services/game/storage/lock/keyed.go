// Package lock provides an in-process keyed mutex with bounded acquisition.
package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/louisbranch/deception/internal/services/game/storage"
)

// Keyed serializes holders per key. Entries are dropped once no holder or
// waiter references them.
type Keyed struct {
	timeout time.Duration

	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	slot chan struct{}
	refs int
}

// NewKeyed returns a lock that waits at most timeout per acquisition. A
// non-positive timeout means callers wait only as long as their context.
func NewKeyed(timeout time.Duration) *Keyed {
	return &Keyed{timeout: timeout, entries: map[string]*entry{}}
}

// Acquire blocks until key is free. It returns storage.ErrLockTimeout when
// the wait bound passes first, or the context error when ctx ends.
func (k *Keyed) Acquire(ctx context.Context, key string) (func(), error) {
	e := k.ref(key)

	wait := ctx
	if k.timeout > 0 {
		var cancel context.CancelFunc
		wait, cancel = context.WithTimeout(ctx, k.timeout)
		defer cancel()
	}

	select {
	case e.slot <- struct{}{}:
	case <-wait.Done():
		k.unref(key, e)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("acquire %s: %w", key, storage.ErrLockTimeout)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.slot
			k.unref(key, e)
		})
	}, nil
}

// Len reports how many keys are currently held or awaited.
func (k *Keyed) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.entries)
}

func (k *Keyed) ref(key string) *entry {
	k.mu.Lock()
	defer k.mu.Unlock()
	e, ok := k.entries[key]
	if !ok {
		e = &entry{slot: make(chan struct{}, 1)}
		k.entries[key] = e
	}
	e.refs++
	return e
}

func (k *Keyed) unref(key string, e *entry) {
	k.mu.Lock()
	defer k.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(k.entries, key)
	}
}

var _ storage.Locker = (*Keyed)(nil)
