package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestSetNXHoldsFirstWriter(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	ok, err := client.SetNX(ctx, "vs:lock:sweep", "owner-a", time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatalf("expected first SetNX to win")
	}

	ok, err = client.SetNX(ctx, "vs:lock:sweep", "owner-b", time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("expected second SetNX to lose while key held")
	}

	got, err := client.Get(ctx, "vs:lock:sweep")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got != "owner-a" {
		t.Fatalf("expected first owner preserved, got %q", got)
	}
}

func TestSetGetDelRoundTrip(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	if err := client.Set(ctx, "vs:idempotency:checkout:abc", "in-flight", time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	value, err := client.Get(ctx, "vs:idempotency:checkout:abc")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if value != "in-flight" {
		t.Fatalf("expected stored value, got %q", value)
	}

	if err := client.Del(ctx, "vs:idempotency:checkout:abc"); err != nil {
		t.Fatalf("del failed: %v", err)
	}
	if _, err := client.Get(ctx, "vs:idempotency:checkout:abc"); err == nil || err != redis.Nil {
		t.Fatalf("expected redis.Nil after delete, got %v", err)
	}
}

func TestCompareAndDelOnlyRemovesMatchingValue(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	if _, err := client.SetNX(ctx, "vs:idempotency:checkout:key-1", "owner-a", time.Minute); err != nil {
		t.Fatalf("setnx failed: %v", err)
	}

	deleted, err := client.CompareAndDel(ctx, "vs:idempotency:checkout:key-1", "owner-b")
	if err != nil {
		t.Fatalf("compare-and-del failed: %v", err)
	}
	if deleted {
		t.Fatal("mismatched value must not delete the key")
	}
	if got, err := client.Get(ctx, "vs:idempotency:checkout:key-1"); err != nil || got != "owner-a" {
		t.Fatalf("expected lease intact, got %q (%v)", got, err)
	}

	deleted, err = client.CompareAndDel(ctx, "vs:idempotency:checkout:key-1", "owner-a")
	if err != nil {
		t.Fatalf("compare-and-del failed: %v", err)
	}
	if !deleted {
		t.Fatal("matching value must delete the key")
	}
	if _, err := client.Get(ctx, "vs:idempotency:checkout:key-1"); err != redis.Nil {
		t.Fatalf("expected redis.Nil after delete, got %v", err)
	}
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	if got := client.IdempotencyLockKey("checkout", "key-1"); got != "vs:idempotency:checkout:key-1" {
		t.Fatalf("unexpected idempotency lock key %s", got)
	}
	if got := client.IdempotencyLockKey("checkout", ""); got != "vs:idempotency:checkout" {
		t.Fatalf("empty parts should be skipped, got %s", got)
	}
	if got := client.LockKey("idempotency_sweep"); got != "vs:lock:idempotency_sweep" {
		t.Fatalf("unexpected lock key %s", got)
	}
}

type mockCmdable struct {
	data map[string]string
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{data: make(map[string]string)}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	m.data[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd {
	if _, exists := m.data[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

// Eval understands only the compare-and-delete script the client ships.
func (m *mockCmdable) Eval(ctx context.Context, script string, keys []string, args ...any) *redis.Cmd {
	if script != compareAndDelScript || len(keys) != 1 || len(args) != 1 {
		return redis.NewCmdResult(nil, fmt.Errorf("unexpected script"))
	}
	if m.data[keys[0]] != fmt.Sprint(args[0]) {
		return redis.NewCmdResult(int64(0), nil)
	}
	delete(m.data, keys[0])
	return redis.NewCmdResult(int64(1), nil)
}
