package cache

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()

	if err := c.Set(ctx, "key", []byte("value"), time.Minute); err != nil {
		t.Errorf("Set() error = %v", err)
	}
	data, ok, err := c.Get(ctx, "key")
	if err != nil {
		t.Errorf("Get() error = %v", err)
	}
	if ok || data != nil {
		t.Error("NullCache should never hit")
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete() error = %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	if err := c.Set(ctx, "key", []byte("value"), 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	data, ok, err := c.Get(ctx, "key")
	if err != nil || !ok {
		t.Fatalf("Get() = %v, %v; want hit", ok, err)
	}
	if string(data) != "value" {
		t.Errorf("Get() = %q, want value", data)
	}

	if _, ok, _ := c.Get(ctx, "missing"); ok {
		t.Error("Get() on missing key should miss")
	}

	if err := c.Delete(ctx, "key"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, ok, _ := c.Get(ctx, "key"); ok {
		t.Error("Get() after Delete should miss")
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	if err := c.Set(ctx, "key", []byte("value"), time.Nanosecond); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	if _, ok, _ := c.Get(ctx, "key"); ok {
		t.Error("Get() after TTL should miss")
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d after expired read, want 0", c.Len())
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache() error = %v", err)
	}

	if err := c.Set(ctx, "key", []byte("value"), 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	data, ok, err := c.Get(ctx, "key")
	if err != nil || !ok {
		t.Fatalf("Get() = %v, %v; want hit", ok, err)
	}
	if string(data) != "value" {
		t.Errorf("Get() = %q, want value", data)
	}

	if _, ok, _ := c.Get(ctx, "missing"); ok {
		t.Error("Get() on missing key should miss")
	}

	if err := c.Delete(ctx, "key"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, ok, _ := c.Get(ctx, "key"); ok {
		t.Error("Get() after Delete should miss")
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete() on missing key error = %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache() error = %v", err)
	}

	if err := c.Set(ctx, "key", []byte("value"), time.Nanosecond); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	if _, ok, _ := c.Get(ctx, "key"); ok {
		t.Error("Get() after TTL should miss")
	}

	// The expired file was removed on read
	entries, _, err := c.Stats()
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if entries != 0 {
		t.Errorf("Stats() entries = %d, want 0", entries)
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c, err := NewFileCache(dir)
	if err != nil {
		t.Fatalf("NewFileCache() error = %v", err)
	}

	if err := c.Set(ctx, "key", []byte("value"), 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	// Corrupt the stored file
	var path string
	filepath.Walk(dir, func(p string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() && strings.HasSuffix(p, ".json") {
			path = p
		}
		return nil
	})
	if path == "" {
		t.Fatal("no cache file written")
	}
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, ok, err := c.Get(ctx, "key"); ok || err != nil {
		t.Errorf("Get() on corrupt entry = %v, %v; want clean miss", ok, err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("corrupt entry should be removed on read")
	}
}

func TestFileCacheClearAndStats(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache() error = %v", err)
	}

	for _, key := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, key, []byte("data-"+key), 0); err != nil {
			t.Fatalf("Set(%q) error = %v", key, err)
		}
	}

	entries, size, err := c.Stats()
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if entries != 3 || size == 0 {
		t.Errorf("Stats() = %d entries, %d bytes; want 3 entries, nonzero size", entries, size)
	}

	if err := c.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	entries, _, err = c.Stats()
	if err != nil {
		t.Fatalf("Stats() after Clear error = %v", err)
	}
	if entries != 0 {
		t.Errorf("Stats() after Clear = %d entries, want 0", entries)
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	h2 := Hash([]byte("hello"))
	if h1 != h2 {
		t.Error("Hash should be deterministic")
	}

	h3 := Hash([]byte("world"))
	if h1 == h3 {
		t.Error("Different inputs should produce different hashes")
	}

	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	reqKey := k.RequestKey("dashboard", "https://superset.example.com/api/v1/dashboard/")
	if reqKey != "http:dashboard:https://superset.example.com/api/v1/dashboard/" {
		t.Errorf("RequestKey unexpected: %s", reqKey)
	}

	// QueryKey should include both database and statement in the hash
	qk1 := k.QueryKey(1, "SELECT 1")
	qk2 := k.QueryKey(2, "SELECT 1")
	qk3 := k.QueryKey(1, "SELECT 2")
	if qk1 == qk2 || qk1 == qk3 {
		t.Error("Different inputs should produce different query keys")
	}
	if !strings.HasPrefix(qk1, "sql:") {
		t.Errorf("QueryKey should carry the sql prefix: %s", qk1)
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(NewDefaultKeyer(), "profile:prod:")

	reqKey := scoped.RequestKey("chart", "https://example.com/api/v1/chart/5")
	if !strings.HasPrefix(reqKey, "profile:prod:http:chart:") {
		t.Errorf("ScopedKeyer RequestKey should be prefixed: %s", reqKey)
	}

	queryKey := scoped.QueryKey(3, "SELECT count(*) FROM logs")
	if !strings.HasPrefix(queryKey, "profile:prod:sql:") {
		t.Errorf("ScopedKeyer QueryKey should be prefixed: %s", queryKey)
	}
}

func TestScopedKeyerNilInner(t *testing.T) {
	scoped := NewScopedKeyer(nil, "prefix:")
	key := scoped.RequestKey("dataset", "u")
	if key != "prefix:http:dataset:u" {
		t.Errorf("Unexpected key with nil inner: %s", key)
	}
}
