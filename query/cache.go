package query

import (
	"container/list"
	"io"
	"sync"

	"github.com/sirupsen/logrus"
)

// CacheStats reports cache activity. Counters only grow until Purge.
type CacheStats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Size      int
	Capacity  int
}

// HitRate returns hits over lookups, or 0 before the first lookup.
func (s CacheStats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// DefaultCacheSize is the default number of cached paths.
const DefaultCacheSize = 256

// cacheEntry holds a parsed path and its position in the LRU list.
type cacheEntry struct {
	path    *Path
	element *list.Element // stores the expression text
}

// Cache is a bounded LRU of parsed and validated paths keyed by the
// literal expression text. It belongs to a single document.
type Cache struct {
	mu       sync.Mutex
	entries  map[string]*cacheEntry
	lruList  *list.List // Front = most recent, Back = least recent
	capacity int
	validate ValidateOptions
	log      logrus.FieldLogger
	stats    CacheStats
}

// NewCache creates a cache holding up to capacity paths.
func NewCache(capacity int) *Cache {
	return NewCacheWithOptions(capacity, DefaultValidateOptions(), nil)
}

// NewCacheWithOptions creates a cache that validates with opts and logs
// evictions at debug level to log. A nil log discards.
func NewCacheWithOptions(capacity int, opts ValidateOptions, log logrus.FieldLogger) *Cache {
	if capacity < 1 {
		capacity = DefaultCacheSize
	}
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Cache{
		entries:  make(map[string]*cacheEntry),
		lruList:  list.New(),
		capacity: capacity,
		validate: opts,
		log:      log,
	}
}

// Get returns the parsed path for expr. On a miss expr is parsed and
// validated; paths that fail either step are not cached.
func (c *Cache) Get(expr string) (*Path, error) {
	c.mu.Lock()
	if entry, ok := c.entries[expr]; ok {
		c.stats.Hits++
		c.lruList.MoveToFront(entry.element)
		c.mu.Unlock()
		return entry.path, nil
	}
	c.stats.Misses++
	c.mu.Unlock()

	p, err := Parse(expr)
	if err != nil {
		return nil, err
	}
	if err := Validate(p, c.validate).Err(expr); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.entries[expr]; ok {
		c.lruList.MoveToFront(entry.element)
		return entry.path, nil
	}
	for c.lruList.Len() >= c.capacity {
		oldest := c.lruList.Back()
		if oldest == nil {
			break
		}
		key := oldest.Value.(string)
		c.lruList.Remove(oldest)
		delete(c.entries, key)
		c.stats.Evictions++
		c.log.WithField("expr", key).Debug("path cache eviction")
	}
	elem := c.lruList.PushFront(expr)
	c.entries[expr] = &cacheEntry{path: p, element: elem}
	return p, nil
}

// Contains reports whether expr is cached without touching recency or stats.
func (c *Cache) Contains(expr string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[expr]
	return ok
}

// Stats returns a snapshot of the counters.
func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Size = c.lruList.Len()
	s.Capacity = c.capacity
	return s
}

// Purge drops every entry and resets the counters.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*cacheEntry)
	c.lruList.Init()
	c.stats = CacheStats{}
}
