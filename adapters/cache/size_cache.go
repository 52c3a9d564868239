package cache

import (
	"fmt"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/sync/singleflight"

	"gofit/domain/core"
)

// DefaultSize is the number of per-n tables kept when no size is given
const DefaultSize = 128

type tableKey struct {
	namespace string
	n         int
}

// SizeCache memoizes tables indexed by (namespace, sample size). Concurrent
// misses for the same key share one build; the least recently used tables
// are evicted once the cache is full.
type SizeCache struct {
	tables *lru.Cache
	group  singleflight.Group
	builds atomic.Int64
}

// NewSizeCache creates a cache holding at most size tables
func NewSizeCache(size int) (*SizeCache, error) {
	if size <= 0 {
		size = DefaultSize
	}
	tables, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("creating table cache: %w", err)
	}
	return &SizeCache{tables: tables}, nil
}

// MustNewSizeCache is NewSizeCache for package-level defaults
func MustNewSizeCache(size int) *SizeCache {
	c, err := NewSizeCache(size)
	if err != nil {
		panic(err)
	}
	return c
}

// Get returns the table for (namespace, n), running build on a miss.
// A failed build is not cached.
func (c *SizeCache) Get(namespace string, n int, build func(n int) (interface{}, error)) (interface{}, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: table for n=%d", core.ErrInvalidSampleSize, n)
	}
	key := tableKey{namespace: namespace, n: n}
	if table, ok := c.tables.Get(key); ok {
		return table, nil
	}

	table, err, _ := c.group.Do(fmt.Sprintf("%s/%d", namespace, n), func() (interface{}, error) {
		// Double-check inside singleflight
		if table, ok := c.tables.Get(key); ok {
			return table, nil
		}
		c.builds.Add(1)
		table, err := build(n)
		if err != nil {
			return nil, err
		}
		c.tables.Add(key, table)
		return table, nil
	})
	if err != nil {
		return nil, fmt.Errorf("building %s table for n=%d: %w", namespace, n, err)
	}
	return table, nil
}

// Builds returns how many times a build function has run
func (c *SizeCache) Builds() int64 {
	return c.builds.Load()
}

// Len returns the number of resident tables
func (c *SizeCache) Len() int {
	return c.tables.Len()
}

// Purge drops every resident table
func (c *SizeCache) Purge() {
	c.tables.Purge()
}
