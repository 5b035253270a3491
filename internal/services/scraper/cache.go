package scraper

import (
	"sync"

	"github.com/ternarybob/arbor"
)

// cacheNode is one cached scraper instance. Every node is linked into two
// chains at once: the global chain (head = oldest insert, tail = newest)
// that drives eviction, and the per-source chain that serves checkout.
type cacheNode struct {
	source  string
	scraper Scraper

	gprev, gnext *cacheNode // global chain
	lprev, lnext *cacheNode // per-source chain
}

type chain struct {
	head, tail *cacheNode
}

func (c *chain) pushTail(node *cacheNode, global bool) {
	if global {
		node.gprev = c.tail
		node.gnext = nil
		if c.tail != nil {
			c.tail.gnext = node
		}
		c.tail = node
		if c.head == nil {
			c.head = node
		}
		return
	}

	node.lprev = c.tail
	node.lnext = nil
	if c.tail != nil {
		c.tail.lnext = node
	}
	c.tail = node
	if c.head == nil {
		c.head = node
	}
}

func (c *chain) remove(node *cacheNode, global bool) {
	if global {
		if node.gprev != nil {
			node.gprev.gnext = node.gnext
		} else {
			c.head = node.gnext
		}
		if node.gnext != nil {
			node.gnext.gprev = node.gprev
		} else {
			c.tail = node.gprev
		}
		node.gprev, node.gnext = nil, nil
		return
	}

	if node.lprev != nil {
		node.lprev.lnext = node.lnext
	} else {
		c.head = node.lnext
	}
	if node.lnext != nil {
		node.lnext.lprev = node.lprev
	} else {
		c.tail = node.lprev
	}
	node.lprev, node.lnext = nil, nil
}

func (c *chain) empty() bool {
	return c.head == nil
}

// Cache holds warm Scraper instances partitioned by source. Building a
// scraper is expensive (browser startup), so workers check instances out,
// use them exclusively, and insert them back when the job ends. When the
// cache overflows the globally oldest instance is evicted and closed.
type Cache struct {
	mu      sync.Mutex
	maxSize int
	count   int
	global  chain
	locals  map[string]*chain
	logger  arbor.ILogger
}

// NewCache creates a scraper cache bounded at maxSize live instances
func NewCache(maxSize int, logger arbor.ILogger) *Cache {
	return &Cache{
		maxSize: maxSize,
		locals:  make(map[string]*chain),
		logger:  logger,
	}
}

// Get checks out the newest cached scraper for a source, or nil when none
// is cached. The returned instance is detached from the cache entirely,
// so the caller has exclusive use until it is inserted back.
func (c *Cache) Get(source string) Scraper {
	c.mu.Lock()
	defer c.mu.Unlock()

	local, ok := c.locals[source]
	if !ok {
		return nil
	}

	node := local.tail
	local.remove(node, false)
	if local.empty() {
		delete(c.locals, source)
	}
	c.global.remove(node, true)
	c.count--

	c.logger.Debug().Str("source", source).Int("cached", c.count).Msg("Scraper checked out of cache")
	return node.scraper
}

// Insert returns a scraper to the cache as the newest instance for its
// source. If the cache overflows, the globally oldest instance across all
// sources is evicted and closed exactly once.
func (c *Cache) Insert(source string, scraper Scraper) {
	c.mu.Lock()
	defer c.mu.Unlock()

	node := &cacheNode{source: source, scraper: scraper}
	c.global.pushTail(node, true)

	local, ok := c.locals[source]
	if !ok {
		local = &chain{}
		c.locals[source] = local
	}
	local.pushTail(node, false)
	c.count++

	if c.count <= c.maxSize {
		return
	}

	evicted := c.global.head
	c.global.remove(evicted, true)
	if evictedLocal, ok := c.locals[evicted.source]; ok {
		evictedLocal.remove(evicted, false)
		if evictedLocal.empty() {
			delete(c.locals, evicted.source)
		}
	}
	c.count--

	if err := evicted.scraper.Close(); err != nil {
		c.logger.Warn().Err(err).Str("source", evicted.source).Msg("Failed to close evicted scraper")
	} else {
		c.logger.Debug().Str("source", evicted.source).Int("cached", c.count).Msg("Oldest scraper evicted")
	}
}

// Len returns the number of cached instances across all sources
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

// Flush closes every cached scraper and resets the cache. Called on agent
// shutdown so no browser processes are left behind.
func (c *Cache) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for node := c.global.head; node != nil; node = node.gnext {
		if err := node.scraper.Close(); err != nil {
			c.logger.Warn().Err(err).Str("source", node.source).Msg("Failed to close scraper during flush")
		}
	}

	c.global = chain{}
	c.locals = make(map[string]*chain)
	c.count = 0
}
