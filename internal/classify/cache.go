package classify

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"

	"github.com/spec-kit/ticket-triage/internal/domain"
)

// DefaultCacheSize bounds the classification cache when no capacity is
// configured.
const DefaultCacheSize = 1024

// Cache memoizes classification results by content fingerprint. It is safe
// for concurrent use and evicts the least-recently-used entry once full, so
// memory stays bounded for the process lifetime.
type Cache struct {
	mu       sync.Mutex
	capacity int
	order    *list.List
	items    map[string]*list.Element
}

type cacheEntry struct {
	key    string
	result domain.ClassificationResult
}

// NewCache creates a cache holding at most capacity results.
func NewCache(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCacheSize
	}
	return &Cache{
		capacity: capacity,
		order:    list.New(),
		items:    make(map[string]*list.Element),
	}
}

// Get returns the cached result for key, marking it most recently used.
func (c *Cache) Get(key string) (domain.ClassificationResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return domain.ClassificationResult{}, false
	}
	c.order.MoveToFront(elem)
	return elem.Value.(*cacheEntry).result, true
}

// Put stores a result under key, evicting the oldest entry when full.
func (c *Cache) Put(key string, result domain.ClassificationResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		elem.Value.(*cacheEntry).result = result
		c.order.MoveToFront(elem)
		return
	}

	c.items[key] = c.order.PushFront(&cacheEntry{key: key, result: result})
	if c.order.Len() > c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.items, oldest.Value.(*cacheEntry).key)
		}
	}
}

// Size reports the number of cached results.
func (c *Cache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Fingerprint derives the cache key from normalized ticket content.
func Fingerprint(title, description string) string {
	content := strings.ToLower(strings.TrimSpace(title)) + " " + strings.ToLower(strings.TrimSpace(description))
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
