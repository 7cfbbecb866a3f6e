package dataset

import (
	"container/list"
	"sync"

	"github.com/segmetric/segmetric/pkg/types"
)

// tableCache is a small LRU cache of decoded tables keyed by dataset
// ID. Entries count whole tables, not bytes; datasets are bounded in
// practice by the generator's user count.
type tableCache struct {
	mu         sync.Mutex
	maxEntries int

	// items maps datasetID → list element (whose value is *cacheItem)
	items map[string]*list.Element
	order *list.List // front = most recently used
}

type cacheItem struct {
	datasetID string
	table     *types.Table
}

func newTableCache(maxEntries int) *tableCache {
	if maxEntries <= 0 {
		maxEntries = 4
	}
	return &tableCache{
		maxEntries: maxEntries,
		items:      make(map[string]*list.Element),
		order:      list.New(),
	}
}

// get returns the cached table, promoting the entry on hit.
func (c *tableCache) get(datasetID string) (*types.Table, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[datasetID]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(elem)
	return elem.Value.(*cacheItem).table, true
}

// put stores a table, evicting the least recently used entry when full.
func (c *tableCache) put(datasetID string, tbl *types.Table) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[datasetID]; ok {
		elem.Value.(*cacheItem).table = tbl
		c.order.MoveToFront(elem)
		return
	}

	elem := c.order.PushFront(&cacheItem{datasetID: datasetID, table: tbl})
	c.items[datasetID] = elem

	for c.order.Len() > c.maxEntries {
		back := c.order.Back()
		if back == nil {
			break
		}
		c.order.Remove(back)
		delete(c.items, back.Value.(*cacheItem).datasetID)
	}
}

// evict removes a dataset from the cache if present.
func (c *tableCache) evict(datasetID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[datasetID]; ok {
		c.order.Remove(elem)
		delete(c.items, datasetID)
	}
}
