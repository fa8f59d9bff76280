package geofix

import (
	"os"
	"path/filepath"
	"testing"
)

func TestQueryCacheRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "geocode.gob")

	c, err := LoadQueryCache(path)
	if err != nil {
		t.Fatalf("fresh cache returned error: %v", err)
	}
	if c.Len() != 0 {
		t.Fatalf("fresh cache has %d entries", c.Len())
	}

	c.Put("montreal canada", CachedPoint{Lat: 45.5, Lon: -73.6})
	c.Put("paris france", CachedPoint{Lat: 48.9, Lon: 2.3})
	if c.Dirty() != 2 {
		t.Errorf("Dirty() = %d, want 2", c.Dirty())
	}
	if err := c.Flush(); err != nil {
		t.Fatal(err)
	}
	if c.Dirty() != 0 {
		t.Errorf("Dirty() after Flush = %d, want 0", c.Dirty())
	}

	reloaded, err := LoadQueryCache(path)
	if err != nil {
		t.Fatalf("reload returned error: %v", err)
	}
	if reloaded.Len() != 2 {
		t.Fatalf("reloaded cache has %d entries, want 2", reloaded.Len())
	}
	got, ok := reloaded.Get("montreal canada")
	if !ok || got.Lat != 45.5 || got.Lon != -73.6 {
		t.Errorf("Get(montreal canada) = %+v, %v", got, ok)
	}
	if _, ok := reloaded.Get("unknown query"); ok {
		t.Error("Get on unknown query reported hit")
	}
}

func TestQueryCachePutIsAppendOnly(t *testing.T) {
	c, _ := LoadQueryCache("")
	c.Put("q", CachedPoint{Lat: 1, Lon: 1})
	c.Put("q", CachedPoint{Lat: 9, Lon: 9})

	got, _ := c.Get("q")
	if got.Lat != 1 || got.Lon != 1 {
		t.Errorf("second Put overwrote entry: %+v", got)
	}
	if c.Dirty() != 1 {
		t.Errorf("Dirty() = %d, want 1", c.Dirty())
	}
}

func TestQueryCacheMalformedResets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "geocode.gob")
	if err := os.WriteFile(path, []byte("not a gob stream"), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := LoadQueryCache(path)
	if err == nil {
		t.Error("malformed cache should report a reset")
	}
	if c == nil {
		t.Fatal("malformed cache must still return a usable cache")
	}
	if c.Len() != 0 {
		t.Errorf("reset cache has %d entries, want 0", c.Len())
	}

	// The reset cache keeps working: writes land in the same file.
	c.Put("q", CachedPoint{Lat: 2, Lon: 3})
	if err := c.Flush(); err != nil {
		t.Fatal(err)
	}
	again, err := LoadQueryCache(path)
	if err != nil {
		t.Fatalf("cache still malformed after reset and flush: %v", err)
	}
	if again.Len() != 1 {
		t.Errorf("recovered cache has %d entries, want 1", again.Len())
	}
}

func TestQueryCacheFlushWithoutPath(t *testing.T) {
	c, err := LoadQueryCache("")
	if err != nil {
		t.Fatal(err)
	}
	c.Put("q", CachedPoint{})
	if err := c.Flush(); err != nil {
		t.Errorf("pathless Flush returned %v", err)
	}
}
