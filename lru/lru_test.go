package lru

import "testing"

func TestPutGet(t *testing.T) {
	c := New[string, int](2)
	c.Put("a", 1)
	c.Put("b", 2)
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("Get(a) = (%d, %v), want (1, true)", v, ok)
	}
}

func TestEvictsLeastRecentlyUsed(t *testing.T) {
	c := New[string, int](2)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Get("a") // touch a, making b the LRU entry.
	c.Put("c", 3)
	if _, ok := c.Get("b"); ok {
		t.Fatal("expected b to be evicted as least-recently-used")
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatal("expected a to survive eviction")
	}
	if _, ok := c.Get("c"); !ok {
		t.Fatal("expected c to be present")
	}
}

func TestClearAndLen(t *testing.T) {
	c := New[int, int](10)
	for i := 0; i < 5; i++ {
		c.Put(i, i*i)
	}
	if c.Len() != 5 {
		t.Fatalf("Len() = %d, want 5", c.Len())
	}
	c.Clear()
	if c.Len() != 0 {
		t.Fatalf("Len() after Clear = %d, want 0", c.Len())
	}
}

func TestUnboundedCapacity(t *testing.T) {
	c := New[int, int](0)
	for i := 0; i < 100; i++ {
		c.Put(i, i)
	}
	if c.Len() != 100 {
		t.Fatalf("Len() = %d, want 100 for unbounded cache", c.Len())
	}
}

func TestDelete(t *testing.T) {
	c := New[string, int](10)
	c.Put("a", 1)
	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Fatal("Get(a) reported present after Delete")
	}
}
