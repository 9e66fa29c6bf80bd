// Package cache persists raw provider responses between runs so a
// repeated query never goes back over the wire before its entry
// expires.
package cache

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"go.senan.xyz/wlg/fileutil"
)

const (
	DefaultTTL           = 14 * 24 * time.Hour
	DefaultFlushInterval = 10 * time.Minute
)

type entry struct {
	StoredAt int64           `json:"t"`
	Payload  json.RawMessage `json:"p"`
}

// Cache is a TTL keyed store flushed to one JSON file. Lookups and
// stores are serialised with a single mutex so the periodic flush never
// races a write. Losing the entries since the last flush on a crash is
// fine, they are rebuilt by re-querying.
type Cache struct {
	path    string
	ttl     time.Duration
	refresh bool

	mu      sync.Mutex
	entries map[string]entry
	fresh   map[string]struct{}
	dirty   bool

	hits, misses int

	now func() time.Time
}

// New loads the store at path. A missing or unreadable file starts an
// empty store, never an error. refresh treats every lookup as a miss
// until the entry has been rewritten this run.
func New(path string, ttl time.Duration, refresh bool) *Cache {
	c := &Cache{
		path:    path,
		ttl:     ttl,
		refresh: refresh,
		entries: map[string]entry{},
		fresh:   map[string]struct{}{},
		now:     time.Now,
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return c
	}
	if err != nil {
		slog.Warn("read cache file, starting empty", "path", path, "err", err)
		return c
	}
	if err := json.Unmarshal(data, &c.entries); err != nil {
		slog.Warn("cache file corrupt, starting empty", "path", path, "err", err)
		c.entries = map[string]entry{}
	}
	return c
}

// Key builds the deterministic signature for one query. Same inputs
// give the same key across runs.
func Key(provider, scope string, parts ...string) string {
	h := sha1.New()
	fmt.Fprintf(h, "%s|%s", strings.ToLower(provider), strings.ToLower(scope))
	for _, p := range parts {
		p = strings.ToLower(strings.Join(strings.Fields(p), ""))
		fmt.Fprintf(h, "|%s", p)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Get unmarshals the stored payload for key into dest. Expired,
// undecodable, or force refreshed entries are misses.
func (c *Cache) Get(key string, dest any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if ok && c.refresh {
		_, ok = c.fresh[key]
	}
	if ok && c.expired(e) {
		ok = false
	}
	if ok {
		if err := json.Unmarshal(e.Payload, dest); err != nil {
			slog.Warn("cache entry corrupt, discarding", "key", key, "err", err)
			delete(c.entries, key)
			c.dirty = true
			ok = false
		}
	}
	if !ok {
		c.misses++
		return false
	}
	c.hits++
	return true
}

func (c *Cache) Put(key string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{StoredAt: c.now().Unix(), Payload: payload}
	c.fresh[key] = struct{}{}
	c.dirty = true
	return nil
}

func (c *Cache) expired(e entry) bool {
	return c.now().Sub(time.Unix(e.StoredAt, 0)) > c.ttl
}

// Save prunes expired entries and writes the store out atomically.
// A no-op when nothing changed since the last save.
func (c *Cache) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.dirty {
		return nil
	}
	for key, e := range c.entries {
		if c.expired(e) {
			delete(c.entries, key)
		}
	}
	data, err := json.Marshal(c.entries)
	if err != nil {
		return fmt.Errorf("marshal cache: %w", err)
	}
	if err := fileutil.WriteAtomic(c.path, data); err != nil {
		return fmt.Errorf("write cache: %w", err)
	}
	c.dirty = false
	return nil
}

// Run flushes the store on a timer until done closes, then once more on
// the way out.
func (c *Cache) Run(done <-chan struct{}, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			if err := c.Save(); err != nil {
				slog.Error("flush cache", "err", err)
			}
		case <-done:
			if err := c.Save(); err != nil {
				slog.Error("flush cache", "err", err)
			}
			return
		}
	}
}

// Stats returns the hit and miss counts so far.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
