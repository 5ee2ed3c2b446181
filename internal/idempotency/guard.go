package idempotency

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/victusstore/backend/pkg/errors"
)

const (
	defaultGuardTTL      = 30 * time.Second
	defaultGuardWait     = 2 * time.Second
	defaultGuardWaitStep = 50 * time.Millisecond
)

// guardStore defines the redis operations used by Guard.
type guardStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	CompareAndDel(ctx context.Context, key, value string) (bool, error)
	IdempotencyLockKey(scope, id string) string
}

// Guard serializes concurrent requests carrying the same unresolved
// idempotency key. The first request takes a short redis SETNX lease; later
// duplicates wait briefly for it to clear and give up with a retryable
// contention error if it does not.
type Guard struct {
	client   guardStore
	ttl      time.Duration
	wait     time.Duration
	waitStep time.Duration
}

// NewGuard constructs a Guard. Zero durations fall back to defaults.
func NewGuard(client guardStore, ttl, wait, waitStep time.Duration) (*Guard, error) {
	if client == nil {
		return nil, errors.New("redis client required for guard")
	}
	if ttl <= 0 {
		ttl = defaultGuardTTL
	}
	if wait <= 0 {
		wait = defaultGuardWait
	}
	if waitStep <= 0 {
		waitStep = defaultGuardWaitStep
	}
	return &Guard{client: client, ttl: ttl, wait: wait, waitStep: waitStep}, nil
}

// Acquire takes the in-flight lease for (scope, key), polling until the wait
// budget runs out. The returned release func frees the lease only if this
// caller still owns it.
func (g *Guard) Acquire(ctx context.Context, scope, key string) (func(context.Context), error) {
	lockKey := g.client.IdempotencyLockKey(scope, key)
	owner := uuid.NewString()
	deadline := time.Now().Add(g.wait)

	for {
		ok, err := g.client.SetNX(ctx, lockKey, owner, g.ttl)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquiring idempotency lease")
		}
		if ok {
			return func(releaseCtx context.Context) {
				g.release(releaseCtx, lockKey, owner)
			}, nil
		}
		if time.Now().After(deadline) {
			return nil, pkgerrors.New(pkgerrors.CodeContention, "request with this idempotency key is already in flight")
		}
		select {
		case <-ctx.Done():
			return nil, pkgerrors.Wrap(pkgerrors.CodeContention, ctx.Err(), "waiting for idempotency lease")
		case <-time.After(g.waitStep):
		}
	}
}

// release frees the lease atomically: the delete happens server-side only
// while this owner's token is still stored, so a lease that expired and was
// re-acquired by a later request is never pulled out from under it.
func (g *Guard) release(ctx context.Context, lockKey, owner string) {
	_, _ = g.client.CompareAndDel(ctx, lockKey, owner)
}
