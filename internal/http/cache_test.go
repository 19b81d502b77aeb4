package http

import (
	"fmt"
	"testing"
	"time"
)

func TestCacheGetSet(t *testing.T) {
	c := newLRUCache[int](4, time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Fatal("expected miss on empty cache")
	}

	c.Set("a", 1)
	got, ok := c.Get("a")
	if !ok || got != 1 {
		t.Fatalf("Get(a) = %d, %v; want 1, true", got, ok)
	}

	c.Set("a", 2)
	got, _ = c.Get("a")
	if got != 2 {
		t.Fatalf("Get(a) after overwrite = %d, want 2", got)
	}
}

func TestCacheTTLExpiry(t *testing.T) {
	c := newLRUCache[string](4, 10*time.Millisecond)

	c.Set("k", "v")
	if _, ok := c.Get("k"); !ok {
		t.Fatal("expected hit before expiry")
	}

	time.Sleep(20 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Fatal("expected miss after ttl elapsed")
	}
}

func TestCacheLRUEviction(t *testing.T) {
	c := newLRUCache[int](3, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)

	// Touch "a" so "b" becomes the least recently used entry.
	c.Get("a")

	c.Set("d", 4)

	if _, ok := c.Get("b"); ok {
		t.Fatal("expected b to be evicted")
	}
	for _, key := range []string{"a", "c", "d"} {
		if _, ok := c.Get(key); !ok {
			t.Fatalf("expected %s to survive eviction", key)
		}
	}
}

func TestCacheDeletePrefix(t *testing.T) {
	c := newLRUCache[int](16, time.Minute)

	c.Set("u1|2024-01-01|2024-01-31", 1)
	c.Set("u1|2024-02-01|2024-02-29", 2)
	c.Set("u2|2024-01-01|2024-01-31", 3)

	c.DeletePrefix("u1|")

	if _, ok := c.Get("u1|2024-01-01|2024-01-31"); ok {
		t.Fatal("expected first u1 entry to be gone")
	}
	if _, ok := c.Get("u1|2024-02-01|2024-02-29"); ok {
		t.Fatal("expected second u1 entry to be gone")
	}
	if _, ok := c.Get("u2|2024-01-01|2024-01-31"); !ok {
		t.Fatal("expected u2 entry to survive")
	}
}

func TestCacheCleanExpired(t *testing.T) {
	c := newLRUCache[int](16, 10*time.Millisecond)

	for i := 0; i < 5; i++ {
		c.Set(fmt.Sprintf("k%d", i), i)
	}
	time.Sleep(20 * time.Millisecond)
	c.Set("fresh", 99)

	removed := c.CleanExpired()
	if removed != 5 {
		t.Fatalf("CleanExpired removed %d entries, want 5", removed)
	}
	if _, ok := c.Get("fresh"); !ok {
		t.Fatal("expected fresh entry to survive cleanup")
	}
}
