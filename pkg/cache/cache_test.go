package cache

import (
	"context"
	"os"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	if data, hit, err := c.Get(ctx, "key"); hit || data != nil || err != nil {
		t.Error("NullCache should never hit")
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

// testCache exercises behaviour shared by every stateful implementation.
func testCache(t *testing.T, c Cache, advance func(time.Duration)) {
	ctx := context.Background()

	if _, hit, err := c.Get(ctx, "missing"); hit || err != nil {
		t.Fatalf("Get(missing) hit=%v err=%v", hit, err)
	}

	if err := c.Set(ctx, "a", []byte("one"), 0); err != nil {
		t.Fatal(err)
	}
	if data, hit, _ := c.Get(ctx, "a"); !hit || string(data) != "one" {
		t.Errorf("Get(a) = %q, %v", data, hit)
	}

	if err := c.Set(ctx, "a", []byte("two"), 0); err != nil {
		t.Fatal(err)
	}
	if data, _, _ := c.Get(ctx, "a"); string(data) != "two" {
		t.Errorf("overwrite: Get(a) = %q", data)
	}

	c.Set(ctx, "short", []byte("x"), time.Minute)
	advance(2 * time.Minute)
	if _, hit, _ := c.Get(ctx, "short"); hit {
		t.Error("expired entry should miss")
	}
	if _, hit, _ := c.Get(ctx, "a"); !hit {
		t.Error("entry without ttl should not expire")
	}

	if err := c.Delete(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("deleted entry should miss")
	}
	if err := c.Delete(ctx, "a"); err != nil {
		t.Errorf("deleting a missing key: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	now := time.Now()
	c.now = func() time.Time { return now }
	testCache(t, c, func(d time.Duration) { now = now.Add(d) })
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	c.Set(ctx, "k", []byte("v"), 0)
	if err := os.WriteFile(c.path("k"), []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("corrupt entry: hit=%v err=%v", hit, err)
	}
	if _, err := os.Stat(c.path("k")); !os.IsNotExist(err) {
		t.Error("corrupt entry should be removed")
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	for _, k := range []string{"a", "b", "c"} {
		c.Set(ctx, k, []byte(k), 0)
	}
	n, err := c.Clear()
	if err != nil || n != 3 {
		t.Errorf("Clear() = %d, %v; want 3", n, err)
	}
	entries, _ := os.ReadDir(c.Dir())
	if len(entries) != 0 {
		t.Errorf("%d entries left after Clear", len(entries))
	}
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(0)
	now := time.Now()
	c.now = func() time.Time { return now }
	testCache(t, c, func(d time.Duration) { now = now.Add(d) })
}

func TestMemoryCacheEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(2)
	c.Set(ctx, "a", []byte("a"), 0)
	c.Set(ctx, "b", []byte("b"), 0)
	c.Get(ctx, "a")
	c.Set(ctx, "c", []byte("c"), 0)

	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
	if _, hit, _ := c.Get(ctx, "b"); hit {
		t.Error("b was least recently used and should be evicted")
	}
	for _, k := range []string{"a", "c"} {
		if _, hit, _ := c.Get(ctx, k); !hit {
			t.Errorf("%s should still be cached", k)
		}
	}
}

func TestMemoryCacheCopies(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(1)
	buf := []byte("abc")
	c.Set(ctx, "k", buf, 0)
	buf[0] = 'X'
	got, _, _ := c.Get(ctx, "k")
	got[1] = 'Y'
	again, _, _ := c.Get(ctx, "k")
	if string(again) != "abc" {
		t.Errorf("cache shares memory with callers: %q", again)
	}
}

func TestDiagramKey(t *testing.T) {
	base := DiagramKey("h1", "svg", false, 40)
	if base != DiagramKey("h1", "svg", false, 40) {
		t.Error("DiagramKey should be deterministic")
	}
	for _, other := range []string{
		DiagramKey("h2", "svg", false, 40),
		DiagramKey("h1", "png", false, 40),
		DiagramKey("h1", "svg", true, 40),
		DiagramKey("h1", "svg", false, 10),
	} {
		if other == base {
			t.Errorf("key collision: %s", other)
		}
	}
	if len(Hash([]byte("x"))) != 64 {
		t.Error("Hash should be 64 hex chars")
	}
}

func TestMemoryCacheDropsExpiredOnGet(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(4)
	now := time.Now()
	c.now = func() time.Time { return now }
	c.Set(ctx, "short", []byte("x"), time.Second)
	c.Set(ctx, "forever", []byte("y"), 0)

	now = now.Add(time.Hour)
	if _, hit, _ := c.Get(ctx, "short"); hit {
		t.Error("expired entry returned")
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1 after expired entry is dropped", c.Len())
	}
	if _, hit, _ := c.Get(ctx, "forever"); !hit {
		t.Error("entry without ttl expired")
	}
}
