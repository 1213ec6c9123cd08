package cache

import (
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/skillpath/gateway/pkg/core"
)

// Entry represents a cached response together with the cost recorded when
// the underlying call was made. Cache hits reuse this cost; they never
// re-record it.
type Entry struct {
	Key        string      `json:"key"`
	Result     core.Result `json:"result"`
	Cost       float64     `json:"cost"`
	InsertedAt time.Time   `json:"inserted_at"`
}

// Config holds cache configuration
type Config struct {
	Enabled    bool          `json:"enabled" yaml:"enabled"`
	TTL        time.Duration `json:"ttl" yaml:"ttl"`
	MaxEntries int           `json:"max_entries" yaml:"max_entries"`
}

// DefaultConfig returns a default cache configuration
func DefaultConfig() Config {
	return Config{
		Enabled:    true,
		TTL:        time.Hour,
		MaxEntries: 1000,
	}
}

// Stats represents cache statistics
type Stats struct {
	Size        int     `json:"size"`
	Capacity    int     `json:"capacity"`
	Enabled     bool    `json:"enabled"`
	Hits        int64   `json:"hits"`
	Misses      int64   `json:"misses"`
	HitRate     float64 `json:"hit_rate"`
	Evictions   int64   `json:"evictions"`
	Expirations int64   `json:"expirations"`
}

// Cache is a bounded TTL cache for model responses. Entries expire lazily on
// read and the entry with the earliest insertion time is evicted on overflow.
// Reads never refresh recency, so eviction order is insertion order, not LRU.
type Cache struct {
	mu          sync.Mutex
	entries     *lru.Cache[string, *Entry]
	config      Config
	hits        int64
	misses      int64
	evictions   int64
	expirations int64
	now         func() time.Time
}

// New creates a cache with the given configuration
func New(config Config) (*Cache, error) {
	if config.MaxEntries <= 0 {
		config.MaxEntries = DefaultConfig().MaxEntries
	}
	if config.TTL <= 0 {
		config.TTL = DefaultConfig().TTL
	}

	entries, err := lru.New[string, *Entry](config.MaxEntries)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache store: %w", err)
	}

	return &Cache{
		entries: entries,
		config:  config,
		now:     time.Now,
	}, nil
}

// Get returns the live entry for the key, if any. Disabled caches, unknown
// keys, and expired entries all read as absent; an expired entry is removed
// on access.
func (c *Cache) Get(key string) (*Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.config.Enabled {
		return nil, false
	}

	// Peek, not Get: a read must not promote the entry or insertion-order
	// eviction degrades into LRU
	entry, ok := c.entries.Peek(key)
	if !ok {
		c.misses++
		return nil, false
	}

	if c.now().Sub(entry.InsertedAt) >= c.config.TTL {
		c.entries.Remove(key)
		c.expirations++
		c.misses++
		return nil, false
	}

	c.hits++
	return entry, true
}

// Set stores a result under the key. No-op when the cache is disabled. At
// capacity the earliest-inserted entry is evicted first.
func (c *Cache) Set(key string, result core.Result, cost float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.config.Enabled {
		return
	}

	if c.entries.Len() >= c.config.MaxEntries && !c.entries.Contains(key) {
		c.entries.RemoveOldest()
		c.evictions++
	}

	c.entries.Add(key, &Entry{
		Key:        key,
		Result:     result,
		Cost:       cost,
		InsertedAt: c.now(),
	})
}

// Clear removes all entries
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.Purge()
}

// Size returns the number of cached entries
func (c *Cache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Len()
}

// Enabled reports whether the cache is active
func (c *Cache) Enabled() bool {
	return c.config.Enabled
}

// Stats returns cache statistics
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{
		Size:        c.entries.Len(),
		Capacity:    c.config.MaxEntries,
		Enabled:     c.config.Enabled,
		Hits:        c.hits,
		Misses:      c.misses,
		Evictions:   c.evictions,
		Expirations: c.expirations,
	}
	if total := s.Hits + s.Misses; total > 0 {
		s.HitRate = float64(s.Hits) / float64(total)
	}
	return s
}
