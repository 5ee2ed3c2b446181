package idempotency

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	pkgerrors "github.com/victusstore/backend/pkg/errors"
)

func TestGuardAcquireAndRelease(t *testing.T) {
	t.Parallel()

	store := newGuardMock()
	guard, err := NewGuard(store, time.Minute, 100*time.Millisecond, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("new guard: %v", err)
	}
	ctx := context.Background()

	release, err := guard.Acquire(ctx, "checkout", "key-1")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	release(ctx)

	// Once released the lease is free again.
	release, err = guard.Acquire(ctx, "checkout", "key-1")
	if err != nil {
		t.Fatalf("re-acquire after release: %v", err)
	}
	release(ctx)
}

func TestGuardContentionTimesOut(t *testing.T) {
	t.Parallel()

	store := newGuardMock()
	guard, err := NewGuard(store, time.Minute, 60*time.Millisecond, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("new guard: %v", err)
	}
	ctx := context.Background()

	release, err := guard.Acquire(ctx, "checkout", "key-1")
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	defer release(ctx)

	_, err = guard.Acquire(ctx, "checkout", "key-1")
	if err == nil {
		t.Fatal("expected contention error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeContention {
		t.Fatalf("unexpected error: %v", err)
	}
	if !pkgerrors.MetadataFor(typed.Code()).Retryable {
		t.Fatal("contention must be retryable")
	}
}

func TestGuardWaiterProceedsAfterHolderReleases(t *testing.T) {
	t.Parallel()

	store := newGuardMock()
	guard, err := NewGuard(store, time.Minute, time.Second, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("new guard: %v", err)
	}
	ctx := context.Background()

	release, err := guard.Acquire(ctx, "checkout", "key-1")
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	go func() {
		time.Sleep(30 * time.Millisecond)
		release(ctx)
	}()

	secondRelease, err := guard.Acquire(ctx, "checkout", "key-1")
	if err != nil {
		t.Fatalf("waiter should win after release: %v", err)
	}
	secondRelease(ctx)
}

func TestGuardReleaseIgnoresForeignOwner(t *testing.T) {
	t.Parallel()

	store := newGuardMock()
	guard, err := NewGuard(store, time.Minute, 50*time.Millisecond, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("new guard: %v", err)
	}
	ctx := context.Background()

	release, err := guard.Acquire(ctx, "checkout", "key-1")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}

	// Simulate lease expiry plus takeover by another request.
	store.overwrite(guard.client.IdempotencyLockKey("checkout", "key-1"), "someone-else")
	release(ctx)

	value, err := store.Get(ctx, guard.client.IdempotencyLockKey("checkout", "key-1"))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if value != "someone-else" {
		t.Fatalf("release must not delete a foreign lease, got %q", value)
	}
}

type guardMock struct {
	mu   sync.Mutex
	data map[string]string
}

func newGuardMock() *guardMock {
	return &guardMock{data: make(map[string]string)}
}

func (m *guardMock) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.data[key]; exists {
		return false, nil
	}
	m.data[key] = value.(string)
	return true, nil
}

func (m *guardMock) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (m *guardMock) CompareAndDel(ctx context.Context, key, value string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data[key] != value {
		return false, nil
	}
	delete(m.data, key)
	return true, nil
}

func (m *guardMock) IdempotencyLockKey(scope, id string) string {
	return strings.Join([]string{"vs", "idempotency", scope, id}, ":")
}

func (m *guardMock) overwrite(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
}
