package cache

import (
	"testing"
	"time"
)

func TestGetSet(t *testing.T) {
	c := New(time.Minute)

	if _, ok := c.Get("stats"); ok {
		t.Fatal("expected miss on empty cache")
	}

	c.Set("stats", 42)
	v, ok := c.Get("stats")
	if !ok {
		t.Fatal("expected hit after Set")
	}
	if v.(int) != 42 {
		t.Errorf("expected 42, got %v", v)
	}
}

func TestTTLExpiry(t *testing.T) {
	c := New(10 * time.Millisecond)
	c.Set("stats", "fresh")

	if _, ok := c.Get("stats"); !ok {
		t.Fatal("expected hit before expiry")
	}

	time.Sleep(20 * time.Millisecond)
	if _, ok := c.Get("stats"); ok {
		t.Error("expected miss after ttl elapsed")
	}
}

func TestInvalidate(t *testing.T) {
	c := New(time.Minute)
	c.Set("stats", 1)
	c.Set("conversations", 2)

	c.Invalidate("stats")

	if _, ok := c.Get("stats"); ok {
		t.Error("expected stats to be invalidated")
	}
	if _, ok := c.Get("conversations"); !ok {
		t.Error("expected conversations to survive")
	}
}

func TestInvalidateAll(t *testing.T) {
	c := New(time.Minute)
	c.Set("stats", 1)
	c.Set("conversations", 2)

	c.InvalidateAll()

	if _, ok := c.Get("stats"); ok {
		t.Error("expected stats to be gone")
	}
	if _, ok := c.Get("conversations"); ok {
		t.Error("expected conversations to be gone")
	}
}
