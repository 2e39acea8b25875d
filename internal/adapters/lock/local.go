// Package lock provides domain.Locker implementations.
package lock

import (
	"context"
	"sync"

	"eventbritesync/internal/domain"
)

// Local serializes imports inside one process.
type Local struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

var _ domain.Locker = (*Local)(nil)

// NewLocal returns an in-process Locker.
func NewLocal() *Local {
	return &Local{slots: make(map[string]chan struct{})}
}

func (l *Local) slot(key string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.slots[key]
	if !ok {
		ch = make(chan struct{}, 1)
		l.slots[key] = ch
	}
	return ch
}

// Lock blocks until key is free or ctx is done.
func (l *Local) Lock(ctx context.Context, key string) (func(), error) {
	ch := l.slot(key)
	select {
	case ch <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	var once sync.Once
	return func() { once.Do(func() { <-ch }) }, nil
}
