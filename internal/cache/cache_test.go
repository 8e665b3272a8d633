package cache

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestMemory_TTL(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	m := NewMemory()
	m.now = func() time.Time { return now }

	if err := m.Set(ctx, "weather:seoul", []byte("21.5"), 10*time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, ok, err := m.Get(ctx, "weather:seoul")
	if err != nil || !ok || string(got) != "21.5" {
		t.Fatalf("expected hit, got %q %v %v", got, ok, err)
	}

	now = now.Add(9 * time.Minute)
	if _, ok, _ := m.Get(ctx, "weather:seoul"); !ok {
		t.Error("entry expired too early")
	}

	now = now.Add(time.Minute)
	if _, ok, _ := m.Get(ctx, "weather:seoul"); ok {
		t.Error("entry should have expired")
	}
}

func TestMemory_NoTTL(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	m.Set(ctx, "k", []byte("v"), 0)

	if _, ok, _ := m.Get(ctx, "k"); !ok {
		t.Error("expected entry without ttl to persist")
	}
	if _, ok, _ := m.Get(ctx, "missing"); ok {
		t.Error("expected miss for unknown key")
	}
}

func TestMemory_CopiesValues(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	value := []byte("abc")
	m.Set(ctx, "k", value, time.Minute)
	value[0] = 'x'

	got, _, _ := m.Get(ctx, "k")
	if string(got) != "abc" {
		t.Errorf("cache should not alias caller memory, got %q", got)
	}
}

func TestRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	c := NewRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "test")
	defer c.Close()

	if _, ok, err := c.Get(ctx, "summary:abc"); err != nil || ok {
		t.Fatalf("expected clean miss, got ok=%v err=%v", ok, err)
	}

	if err := c.Set(ctx, "summary:abc", []byte("short summary"), 600*time.Second); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if !mr.Exists("test:summary:abc") {
		t.Error("expected prefixed key in redis")
	}

	got, ok, err := c.Get(ctx, "summary:abc")
	if err != nil || !ok || string(got) != "short summary" {
		t.Fatalf("expected hit, got %q %v %v", got, ok, err)
	}

	mr.FastForward(601 * time.Second)
	if _, ok, _ := c.Get(ctx, "summary:abc"); ok {
		t.Error("expected entry to expire")
	}
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	if c, err := New(ctx, Options{}); err != nil {
		t.Errorf("default backend failed: %v", err)
	} else if _, ok := c.(*Memory); !ok {
		t.Errorf("expected *Memory by default, got %T", c)
	}

	if c, err := New(ctx, Options{Backend: "none"}); err != nil {
		t.Errorf("none backend failed: %v", err)
	} else {
		c.Set(ctx, "k", []byte("v"), time.Minute)
		if _, ok, _ := c.Get(ctx, "k"); ok {
			t.Error("nop cache should never hit")
		}
	}

	if _, err := New(ctx, Options{Backend: "memcached"}); err == nil || !strings.Contains(err.Error(), "unknown cache backend") {
		t.Errorf("expected unknown backend error, got %v", err)
	}

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	defer mr.Close()

	c, err := New(ctx, Options{Backend: "redis", RedisAddr: mr.Addr()})
	if err != nil {
		t.Fatalf("redis backend failed: %v", err)
	}
	if _, ok := c.(*Redis); !ok {
		t.Errorf("expected *Redis, got %T", c)
	}
}
