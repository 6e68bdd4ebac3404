package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/souqly/storefront-backend/pkg/config"
	"github.com/souqly/storefront-backend/pkg/redis/redistest"
)

func TestFixedWindowAllow(t *testing.T) {
	ctx := context.Background()
	mock := redistest.NewFake()
	client := NewFromCmdable(mock)

	allowed, count, err := client.FixedWindowAllow(ctx, "reset:user-1", 2, time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !allowed || count != 1 {
		t.Fatalf("first call allowed=%v count=%d", allowed, count)
	}
	if len(mock.Expires()) != 1 || mock.Expires()[0] != time.Minute {
		t.Fatalf("expected expire on first increment, got %+v", mock.Expires())
	}

	allowed, count, err = client.FixedWindowAllow(ctx, "reset:user-1", 2, time.Minute)
	if err != nil || !allowed || count != 2 {
		t.Fatalf("second call allowed=%v count=%d err=%v", allowed, count, err)
	}
	if len(mock.Expires()) != 1 {
		t.Fatalf("expire should not be set again")
	}

	allowed, _, err = client.FixedWindowAllow(ctx, "reset:user-1", 2, time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if allowed {
		t.Fatalf("expected limit reached")
	}
}

func TestGetDelIsSingleUse(t *testing.T) {
	ctx := context.Background()
	client := NewFromCmdable(redistest.NewFake())
	key := client.ResetCodeKey("user-1")

	if err := client.Set(ctx, key, "123456", 15*time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := client.GetDel(ctx, key)
	if err != nil || got != "123456" {
		t.Fatalf("first read = %q, %v", got, err)
	}
	if _, err := client.GetDel(ctx, key); err != redis.Nil {
		t.Fatalf("expected redis.Nil on second read, got %v", err)
	}
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	cases := map[string]string{
		client.IdempotencyKey("checkout", "abc"): "sf:idempotency:checkout:abc",
		client.RateLimitKey("login"):             "sf:rate_limit:login",
		client.AccessSessionKey("jti"):           "sf:session:access:jti",
		client.ResetCodeKey("user"):              "sf:password_reset:user",
		client.IdempotencyKey("checkout", " "):   "sf:idempotency:checkout",
	}
	for got, want := range cases {
		if got != want {
			t.Fatalf("key %q, want %q", got, want)
		}
	}
}

func TestOptionsFromConfig(t *testing.T) {
	opts, err := optionsFromConfig(config.RedisConfig{
		URL:         "redis://localhost:6379/2",
		Password:    "secret",
		PoolSize:    7,
		DialTimeout: 2 * time.Second,
	})
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	if opts.Addr != "localhost:6379" || opts.DB != 2 {
		t.Fatalf("unexpected addr/db %s/%d", opts.Addr, opts.DB)
	}
	if opts.Password != "secret" || opts.PoolSize != 7 || opts.DialTimeout != 2*time.Second {
		t.Fatalf("config overrides not applied: %+v", opts)
	}

	if _, err := optionsFromConfig(config.RedisConfig{}); err == nil {
		t.Fatal("expected error without url")
	}
}
