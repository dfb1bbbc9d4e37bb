package redis

import (
	"context"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
)

// Locker hands out distributed mutexes backed by redsync. Used to serialize
// concurrent reconciliation of the same payment intent across instances.
type Locker struct {
	rs *redsync.Redsync
	c  *Client
}

// Unlocker releases a held lock.
type Unlocker interface {
	Unlock(ctx context.Context) error
}

// NewLocker builds a Locker over the shared redis client.
func NewLocker(c *Client) *Locker {
	pool := goredis.NewPool(c.Raw())
	return &Locker{rs: redsync.New(pool), c: c}
}

type heldMutex struct {
	m *redsync.Mutex
}

func (h heldMutex) Unlock(ctx context.Context) error {
	_, err := h.m.UnlockContext(ctx)
	return err
}

// Acquire blocks until the named lock is held or the context expires.
func (l *Locker) Acquire(ctx context.Context, scope, id string, ttl time.Duration) (Unlocker, error) {
	opts := []redsync.Option{}
	if ttl > 0 {
		opts = append(opts, redsync.WithExpiry(ttl))
	}
	mutex := l.rs.NewMutex(l.c.LockKey(scope, id), opts...)
	if err := mutex.LockContext(ctx); err != nil {
		return nil, err
	}
	return heldMutex{m: mutex}, nil
}
