package geofix

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"
)

// CachedPoint is one resolved geocode result.
type CachedPoint struct {
	Lat float64
	Lon float64
}

// QueryCache is the persistent query→coordinate mapping behind the geocode
// client. Keys are exact normalized query strings and are append-only: an
// entry, once written, is authoritative for that query for the lifetime of
// the cache file.
type QueryCache struct {
	path    string
	entries map[string]CachedPoint
	dirty   int
}

// LoadQueryCache opens the cache at path. A missing file starts fresh; a
// malformed file resets to empty rather than failing the run. The returned
// error is informational (the cache is always usable) and non-nil only when
// a reset happened.
func LoadQueryCache(path string) (*QueryCache, error) {
	c := &QueryCache{
		path:    path,
		entries: make(map[string]CachedPoint),
	}

	fi, err := os.Open(path)
	if err != nil {
		return c, nil
	}
	defer fi.Close()

	var entries map[string]CachedPoint
	if err := gob.NewDecoder(fi).Decode(&entries); err != nil {
		return c, fmt.Errorf("resetting malformed geocode cache %s: %w", path, err)
	}
	c.entries = entries
	return c, nil
}

// Get returns the cached result for the exact query string.
func (c *QueryCache) Get(query string) (CachedPoint, bool) {
	p, ok := c.entries[query]
	return p, ok
}

// Put records a new resolution in memory; call Flush to persist.
func (c *QueryCache) Put(query string, p CachedPoint) {
	if _, exists := c.entries[query]; exists {
		return
	}
	c.entries[query] = p
	c.dirty++
}

// Len returns the number of cached entries.
func (c *QueryCache) Len() int {
	return len(c.entries)
}

// Dirty returns the number of entries added since the last Flush.
func (c *QueryCache) Dirty() int {
	return c.dirty
}

// Flush persists the cache atomically: the full mapping is written to a
// temporary file and renamed over the previous one, so a crash mid-write
// cannot corrupt the existing cache.
func (c *QueryCache) Flush() error {
	if c.path == "" {
		return nil
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(c.entries); err != nil {
		return fmt.Errorf("encoding geocode cache: %w", err)
	}
	if err := atomicWriteFile(c.path, buf.Bytes()); err != nil {
		return fmt.Errorf("writing geocode cache: %w", err)
	}
	c.dirty = 0
	return nil
}
