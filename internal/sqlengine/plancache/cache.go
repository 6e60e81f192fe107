// Package plancache implements the bounded-capacity, fingerprint-keyed
// plan cache described in spec §4.4 ("Plan cache") and §9 ("Plan cache
// eviction"): a container/list-backed LRU, the same structure the
// teacher's query-result LRUCache uses (pkg/search/cache.go), adapted
// to clone-and-graft a parsed SelectInfo's AST on every hit instead of
// caching a plain query result.
package plancache

import (
	"container/list"
	"sync"

	"github.com/zvecdb/zvec-core/internal/sqlengine/ast"
	"github.com/zvecdb/zvec-core/internal/sqlengine/parser"
	"github.com/zvecdb/zvec-core/pkg/observability"
)

// DefaultCapacity is the default bound on cached plans (spec §4.4).
const DefaultCapacity = 100

type entry struct {
	fingerprint string
	plan        *ast.SelectInfo
}

// Cache is a thread-safe, bounded LRU of parsed SelectInfo plans, keyed
// by Fingerprint(query). There is no TTL (spec §9 "Plan cache
// eviction" documents this as the carried-forward behavior).
type Cache struct {
	mu       sync.RWMutex
	capacity int
	items    map[string]*list.Element
	order    *list.List

	hits   int64
	misses int64
}

// New creates a Cache with the given capacity; capacity <= 0 uses
// DefaultCapacity.
func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{
		capacity: capacity,
		items:    make(map[string]*list.Element, capacity),
		order:    list.New(),
	}
}

// Stats reports cumulative hit/miss counters.
type Stats struct {
	Hits, Misses int64
	Size         int
}

func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{Hits: c.hits, Misses: c.misses, Size: c.order.Len()}
}

// Parse returns a ready-to-execute SelectInfo for query. On a cache
// hit, the cached plan's AST is cloned and the freshly re-parsed
// query's vector literal is grafted into the clone at the placeholder
// position (spec §4.4, §8.4 property 13). On a miss, query is fully
// parsed, the parsed plan (with its literal vector node replaced by a
// placeholder) is stored under its fingerprint, and the original
// freshly-parsed SelectInfo is returned.
func (c *Cache) Parse(query string) (*ast.SelectInfo, error) {
	fp := Fingerprint(query)

	c.mu.Lock()
	if elem, ok := c.items[fp]; ok {
		c.order.MoveToFront(elem)
		cached := elem.Value.(*entry).plan
		c.hits++
		size := c.order.Len()
		c.mu.Unlock()
		observability.RecordPlanCacheHit()
		observability.UpdatePlanCacheSize(size)

		fresh, err := parseSelect(query)
		if err != nil {
			return nil, err
		}
		clone := cached.Clone()
		graftVectorLiteral(clone, fresh)
		return clone, nil
	}
	c.misses++
	c.mu.Unlock()
	observability.RecordPlanCacheMiss()

	fresh, err := parseSelect(query)
	if err != nil {
		return nil, err
	}

	cacheable := fresh.Clone()
	placeholderize(cacheable)

	c.mu.Lock()
	e := &entry{fingerprint: fp, plan: cacheable}
	elem := c.order.PushFront(e)
	c.items[fp] = elem
	if c.order.Len() > c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.items, oldest.Value.(*entry).fingerprint)
			observability.Debugf("plancache: evicted %s (capacity %d)", oldest.Value.(*entry).fingerprint, c.capacity)
		}
	}
	size := c.order.Len()
	c.mu.Unlock()
	observability.UpdatePlanCacheSize(size)

	return fresh, nil
}

func parseSelect(query string) (*ast.SelectInfo, error) {
	p, err := parser.New(query)
	if err != nil {
		return nil, err
	}
	return p.ParseSelect()
}

// placeholderize replaces the first VECTOR_MATRIX literal in info's
// search condition with a placeholder node, so the cached plan never
// pins a specific query's vector literal in memory.
func placeholderize(info *ast.SelectInfo) {
	replaceFirstVector(info.SearchCond)
}

func replaceFirstVector(n *ast.Node) bool {
	if n == nil {
		return false
	}
	if n.Op == ast.OpVectorMatrix {
		*n = *ast.NewVectorPlaceholder()
		return true
	}
	if replaceFirstVector(n.Left) {
		return true
	}
	if replaceFirstVector(n.Right) {
		return true
	}
	for _, c := range n.Children {
		if replaceFirstVector(c) {
			return true
		}
	}
	return false
}

// graftVectorLiteral copies the vector literal parsed fresh out of
// source into clone's placeholder slot.
func graftVectorLiteral(clone, source *ast.SelectInfo) {
	placeholder := clone.SearchCond.FindVectorPlaceholder()
	if placeholder == nil {
		return
	}
	literal := findFirstVector(source.SearchCond)
	if literal == nil {
		return
	}
	placeholder.Matrix = literal.Matrix
}

func findFirstVector(n *ast.Node) *ast.Node {
	if n == nil {
		return nil
	}
	if n.Op == ast.OpVectorMatrix {
		return n
	}
	if found := findFirstVector(n.Left); found != nil {
		return found
	}
	if found := findFirstVector(n.Right); found != nil {
		return found
	}
	for _, c := range n.Children {
		if found := findFirstVector(c); found != nil {
			return found
		}
	}
	return nil
}
