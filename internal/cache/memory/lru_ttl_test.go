package memory

import (
	"testing"
	"time"
)

func TestLRUTTLExpiry(t *testing.T) {
	c := NewLRUTTL[string, string](10, 0, 30*time.Millisecond)
	c.Set("k1", "v1", 2)

	if v, ok := c.Get("k1"); !ok || v != "v1" {
		t.Fatalf("get before expiry: ok=%v v=%q", ok, v)
	}

	time.Sleep(60 * time.Millisecond)
	if _, ok := c.Get("k1"); ok {
		t.Fatalf("expected miss after ttl expiry")
	}
}

func TestLRUTTLEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRUTTL[string, string](2, 0, time.Minute)
	c.Set("a", "aa", 2)
	c.Set("b", "bb", 2)
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("touch a")
	}
	c.Set("c", "cc", 2)

	if _, ok := c.Get("b"); ok {
		t.Fatalf("expected b to be evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("expected a to remain")
	}
	if _, ok := c.Get("c"); !ok {
		t.Fatalf("expected c to remain")
	}
}

func TestLRUTTLByteCap(t *testing.T) {
	c := NewLRUTTL[string, []byte](100, 10, time.Minute)
	c.Set("a", []byte("aaaa"), 4)
	c.Set("b", []byte("bbbb"), 4)
	c.Set("c", []byte("cccc"), 4)

	if _, ok := c.Get("a"); ok {
		t.Fatalf("expected a to be evicted by byte cap")
	}
	if c.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", c.Len())
	}
}

func TestLRUTTLNilSafe(t *testing.T) {
	var c *LRUTTL[string, string]
	c.Set("a", "x", 1)
	if _, ok := c.Get("a"); ok {
		t.Fatalf("nil cache should always miss")
	}
	c.Delete("a")
	if c.Len() != 0 {
		t.Fatalf("nil cache len should be 0")
	}
}
