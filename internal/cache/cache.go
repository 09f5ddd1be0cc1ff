// Package cache holds fetched per-week daily summaries in memory.
//
// Example usage:
//
//	c := cache.New(nil)
//	c.Put(k, summaries)
//	days, ok := c.Get(k)
//
// An absent key means the week has not been fetched. A present key with an empty
// slice means it was fetched and had no activity.
package cache

import (
	"sort"
	"sync"

	"github.com/saadjs/nutrilog/internal/model"
	"github.com/saadjs/nutrilog/internal/week"
)

// WeekCache maps week keys to the summaries returned for that week.
// It never fetches; it only stores what it is given.
type WeekCache struct {
	mu          sync.RWMutex
	entries     map[week.Key][]model.DailySummary
	generations map[week.Key]uint64
	epoch       uint64
	metrics     *Metrics
}

// New creates an empty cache. metrics may be nil.
func New(metrics *Metrics) *WeekCache {
	return &WeekCache{
		entries:     make(map[week.Key][]model.DailySummary),
		generations: make(map[week.Key]uint64),
		metrics:     metrics,
	}
}

// Get returns a copy of the summaries stored for k.
func (c *WeekCache) Get(k week.Key) ([]model.DailySummary, bool) {
	c.mu.RLock()
	days, ok := c.entries[k]
	var out []model.DailySummary
	if ok {
		out = make([]model.DailySummary, len(days))
		copy(out, days)
	}
	c.mu.RUnlock()

	if c.metrics != nil {
		if ok {
			c.metrics.CacheHitsTotal.Inc()
		} else {
			c.metrics.CacheMissesTotal.Inc()
		}
	}
	return out, ok
}

// Has reports whether k is loaded without counting as a hit or miss.
func (c *WeekCache) Has(k week.Key) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.entries[k]
	return ok
}

// Put replaces the entry for k wholesale.
func (c *WeekCache) Put(k week.Key, days []model.DailySummary) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.putLocked(k, days)
}

// Generation returns a token that changes whenever k is invalidated or the cache is cleared.
func (c *WeekCache) Generation(k week.Key) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.epoch + c.generations[k]
}

// PutIfGeneration stores days only if k was not invalidated since gen was read.
func (c *WeekCache) PutIfGeneration(k week.Key, gen uint64, days []model.DailySummary) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch+c.generations[k] != gen {
		if c.metrics != nil {
			c.metrics.StaleWritesTotal.Inc()
		}
		return false
	}
	c.putLocked(k, days)
	return true
}

// Invalidate removes k so the next access refetches it.
func (c *WeekCache) Invalidate(k week.Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, k)
	c.generations[k]++
	if c.metrics != nil {
		c.metrics.InvalidationsTotal.Inc()
		c.metrics.CacheSize.Set(float64(len(c.entries)))
	}
}

// Clear drops every entry.
func (c *WeekCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[week.Key][]model.DailySummary)
	// The epoch bump must exceed any single-key generation so old tokens never match.
	var max uint64
	for _, g := range c.generations {
		if g > max {
			max = g
		}
	}
	c.epoch += max + 1
	if c.metrics != nil {
		c.metrics.CacheSize.Set(0)
	}
}

func (c *WeekCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Keys returns the loaded week keys in ascending order.
func (c *WeekCache) Keys() []week.Key {
	c.mu.RLock()
	keys := make([]week.Key, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	c.mu.RUnlock()
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func (c *WeekCache) putLocked(k week.Key, days []model.DailySummary) {
	stored := make([]model.DailySummary, len(days))
	copy(stored, days)
	c.entries[k] = stored
	if c.metrics != nil {
		c.metrics.CacheSize.Set(float64(len(c.entries)))
	}
}
