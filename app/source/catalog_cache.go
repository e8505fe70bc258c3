package source

import (
	"fmt"
	"sync"
)

// CatalogCache holds the live catalog for every source. A refresh
// builds a whole new Catalog and swaps it in; readers never observe a
// partially updated index.
type CatalogCache struct {
	cache map[string]*Catalog
	mu    sync.RWMutex
}

func NewCatalogCache() *CatalogCache {
	return &CatalogCache{
		cache: make(map[string]*Catalog),
	}
}

func (cc *CatalogCache) Set(sourceName string, catalog *Catalog) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.cache[sourceName] = catalog
}

func (cc *CatalogCache) Get(sourceName string) (*Catalog, error) {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	catalog, ok := cc.cache[sourceName]
	if !ok {
		return nil, fmt.Errorf("no catalog loaded for source '%s'", sourceName)
	}
	return catalog, nil
}

func (cc *CatalogCache) GetCatalogCount() int {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	return len(cc.cache)
}

func (cc *CatalogCache) GetAppCount() int {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	total := 0
	for _, catalog := range cc.cache {
		total += len(catalog.Apps())
	}
	return total
}
