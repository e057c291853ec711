// Package lock provides a Redis-backed mutual exclusion lock for maintenance
// jobs that must not run twice at once.
package lock

import (
	"context"
	"errors"
	"time"

	"fellowship/internal/cache"
	"fellowship/internal/observability"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrNotAcquired is returned when another holder owns the lock.
var ErrNotAcquired = errors.New("lock is held by another process")

// ErrNotHeld is returned when releasing or extending a lock that expired or
// was taken over.
var ErrNotHeld = errors.New("lock is no longer held")

// The token check keeps a holder whose lock expired from deleting a
// successor's lock.
var (
	releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

	extendScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0`)
)

// Lock is a held lock. Extend and Release may be called from different
// goroutines.
type Lock struct {
	rdb   redis.Scripter
	key   string
	token string
}

// Acquire takes the named lock for ttl or returns ErrNotAcquired.
func Acquire(ctx context.Context, rdb redis.Cmdable, name string, ttl time.Duration) (*Lock, error) {
	ctx, span := observability.GetTraceLayer().TraceRedisOperation(ctx, "lock.acquire")
	defer span.End()

	key := cache.LockKey(name)
	token := uuid.NewString()
	ok, err := rdb.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if !ok {
		return nil, ErrNotAcquired
	}
	return &Lock{rdb: rdb, key: key, token: token}, nil
}

// Key returns the Redis key holding the lock.
func (l *Lock) Key() string {
	return l.key
}

// Extend pushes the lock's expiry ttl into the future.
func (l *Lock) Extend(ctx context.Context, ttl time.Duration) error {
	n, err := extendScript.Run(ctx, l.rdb, []string{l.key}, l.token, ttl.Milliseconds()).Int64()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotHeld
	}
	return nil
}

// KeepAlive extends the lock to ttl every interval until the returned stop
// func is called. If an extension fails the returned context is cancelled
// with the failure as its cause, ErrNotHeld when the lock was lost.
// Stop waits for the last extension to finish.
func (l *Lock) KeepAlive(ctx context.Context, ttl, interval time.Duration) (context.Context, context.CancelFunc) {
	held, cancel := context.WithCancelCause(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-held.Done():
				return
			case <-ticker.C:
				if err := l.Extend(held, ttl); err != nil {
					cancel(err)
					return
				}
			}
		}
	}()
	return held, func() {
		cancel(context.Canceled)
		<-done
	}
}

// Release frees the lock if this holder still owns it.
func (l *Lock) Release(ctx context.Context) error {
	ctx, span := observability.GetTraceLayer().TraceRedisOperation(ctx, "lock.release")
	defer span.End()

	n, err := releaseScript.Run(ctx, l.rdb, []string{l.key}, l.token).Int64()
	if err != nil {
		span.RecordError(err)
		return err
	}
	if n == 0 {
		return ErrNotHeld
	}
	return nil
}
