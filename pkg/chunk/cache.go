// pkg/chunk/cache.go

package chunk

import (
	"sync"
	"time"

	"AveIO/pkg/utils"
)

var logger = utils.GetLogger("chunk")

type cacheItem struct {
	atime time.Time
	page  *Page
}

// Cache keeps pages in memory up to a byte capacity. When it is over
// capacity it evicts the older of two arbitrary entries until it fits.
type Cache struct {
	sync.Mutex
	capacity int64
	used     int64
	pages    map[string]cacheItem
}

// NewCache with capacity in bytes; 0 disables caching.
func NewCache(capacity int64) *Cache {
	return &Cache{
		capacity: capacity,
		pages:    make(map[string]cacheItem),
	}
}

// Stats returns the number of cached pages and their total size.
func (c *Cache) Stats() (int64, int64) {
	c.Lock()
	defer c.Unlock()
	return int64(len(c.pages)), c.used
}

// Put stores p under key, taking a reference.
func (c *Cache) Put(key string, p *Page) {
	if c.capacity == 0 {
		return
	}
	c.Lock()
	defer c.Unlock()
	if _, ok := c.pages[key]; ok {
		return
	}
	p.Acquire()
	c.pages[key] = cacheItem{time.Now(), p}
	c.used += int64(cap(p.Data))
	if c.used > c.capacity {
		c.cleanup()
	}
}

// Get returns the page with an extra reference the caller must release.
func (c *Cache) Get(key string) (*Page, bool) {
	c.Lock()
	defer c.Unlock()
	item, ok := c.pages[key]
	if !ok {
		return nil, false
	}
	c.pages[key] = cacheItem{time.Now(), item.page}
	item.page.Acquire()
	return item.page, true
}

func (c *Cache) Remove(key string) {
	c.Lock()
	defer c.Unlock()
	if item, ok := c.pages[key]; ok {
		c.delete(key, item.page)
		logger.Debugf("remove %s from cache", key)
	}
}

func (c *Cache) delete(key string, p *Page) {
	c.used -= int64(cap(p.Data))
	p.Release()
	delete(c.pages, key)
}

// locked
func (c *Cache) cleanup() {
	var cnt int
	var lastKey string
	var lastValue cacheItem
	var now = time.Now()
	// for each two random keys, then compare the access time, evict the older one
	for k, v := range c.pages {
		if cnt == 0 || lastValue.atime.After(v.atime) {
			lastKey = k
			lastValue = v
		}
		cnt++
		if cnt > 1 {
			logger.Debugf("remove %s from cache, age: %s", lastKey, now.Sub(lastValue.atime))
			c.delete(lastKey, lastValue.page)
			cnt = 0
			if c.used <= c.capacity {
				break
			}
		}
	}
	// a single oversized entry is dropped as well
	if c.used > c.capacity && len(c.pages) == 1 {
		for k, v := range c.pages {
			c.delete(k, v.page)
		}
	}
}
