package idmap

import (
	"context"
	"sync"
)

// Index is a read-through cache in front of a Store. Load prefetches a
// whole table so an entity stage resolves its foreign keys without a round
// trip per row; tables that were never loaded fall back to Store.Get.
type Index struct {
	store Store

	mu     sync.RWMutex
	tables map[string]map[string]string
}

func NewIndex(store Store) *Index {
	return &Index{store: store, tables: make(map[string]map[string]string)}
}

// Load replaces the cached view of table with the store's contents.
func (x *Index) Load(ctx context.Context, table string) error {
	all, err := x.store.All(ctx, table)
	if err != nil {
		return err
	}
	x.mu.Lock()
	x.tables[table] = all
	x.mu.Unlock()
	return nil
}

func (x *Index) Loaded(table string) bool {
	x.mu.RLock()
	defer x.mu.RUnlock()
	_, ok := x.tables[table]
	return ok
}

func (x *Index) Lookup(ctx context.Context, table, sourceID string) (string, bool, error) {
	x.mu.RLock()
	cached, loaded := x.tables[table]
	var id string
	var ok bool
	if loaded {
		id, ok = cached[sourceID]
	}
	x.mu.RUnlock()
	if loaded {
		return id, ok, nil
	}
	return x.store.Get(ctx, table, sourceID)
}

// Remember adds a mapping that was committed to the store behind the index.
func (x *Index) Remember(table, sourceID, targetID string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if m, ok := x.tables[table]; ok {
		m[sourceID] = targetID
	}
}

// Len reports the number of cached mappings of a loaded table.
func (x *Index) Len(table string) int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.tables[table])
}
