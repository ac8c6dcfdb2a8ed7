package memory

import (
	"context"
	"sync"
	"time"

	"github.com/aretw0/unicorn/pkg/ports"
)

// Locker implements ports.DistributedLocker within a single process.
// Each key owns a one-slot channel; holding the slot is holding the lock.
type Locker struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

// NewLocker creates an in-process locker.
func NewLocker() *Locker {
	return &Locker{slots: make(map[string]chan struct{})}
}

func (l *Locker) slot(key string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.slots[key]
	if !ok {
		ch = make(chan struct{}, 1)
		l.slots[key] = ch
	}
	return ch
}

// Lock blocks until key is free or ctx is done. The ttl is honoured: a lock that
// is never released is freed after ttl.
func (l *Locker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	ch := l.slot(key)
	select {
	case ch <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	var once sync.Once
	release := func() { once.Do(func() { <-ch }) }

	var expiry *time.Timer
	if ttl > 0 {
		expiry = time.AfterFunc(ttl, release)
	}
	return func(context.Context) error {
		if expiry != nil {
			expiry.Stop()
		}
		release()
		return nil
	}, nil
}
