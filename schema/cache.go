package schema

import (
	"reflect"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Cache is the process-wide, read-mostly schema cache (spec.md §5).
// Entries are populated lazily on first access per (dialect, type) and are
// never evicted during a process lifetime. Cache is safe for concurrent
// use by multiple Database handles.
type Cache struct {
	entries sync.Map // map[cacheKey]*TableSchema
	group   singleflight.Group
}

type cacheKey struct {
	dialect string
	typ     reflect.Type
}

// NewCache returns an empty schema cache.
func NewCache() *Cache {
	return &Cache{}
}

// Get returns the cached TableSchema for t under dialect, deriving it via
// Reflect on first access. Concurrent first accesses for the same
// (dialect, t) collapse into a single reflection pass.
func (c *Cache) Get(dialect string, t reflect.Type) (*TableSchema, error) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	key := cacheKey{dialect: dialect, typ: t}
	if v, ok := c.entries.Load(key); ok {
		return v.(*TableSchema), nil
	}

	v, err, _ := c.group.Do(key.dialect+"|"+t.String(), func() (any, error) {
		if cached, ok := c.entries.Load(key); ok {
			return cached.(*TableSchema), nil
		}
		s, err := Reflect(t)
		if err != nil {
			return nil, err
		}
		c.entries.Store(key, s)
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*TableSchema), nil
}

// Default is the shared, package-level schema cache used by databases
// that do not construct their own.
var Default = NewCache()
