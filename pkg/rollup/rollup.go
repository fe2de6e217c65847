// Package rollup maintains the lazily-computed, precisely-invalidated
// derived values a schema's RollupDefs declare: edge counts, a single
// traversed property, and the first/last edge target by a rollup-chosen
// ordering (spec §4.3).
//
// Grounded on the teacher's pkg/cache query plan cache (see DESIGN.md):
// same "compute on miss, invalidate on the triggering mutation" shape,
// but backed by github.com/dgraph-io/ristretto/v2 instead of a hand-rolled
// container/list LRU, since ristretto was already one signature away from
// direct use in the teacher's dependency graph.
package rollup

import (
	"fmt"

	"github.com/Aetherall/neograph-sub001/pkg/graph"
	"github.com/Aetherall/neograph-sub001/pkg/schema"
	"github.com/Aetherall/neograph-sub001/pkg/value"
	"github.com/dgraph-io/ristretto/v2"
)

// NodeReader is the subset of *graph.NodeStore Cache needs to compute a
// rollup from live node state.
type NodeReader interface {
	Get(id graph.NodeId) (*graph.Node, bool)
}

// Cache stores (node_id, rollup_name) -> Value. A miss computes from the
// live graph and memoises the result; ristretto admission is probabilistic
// (spec imposes no durability requirement on the memoised value itself,
// only that Get returns the correct value), so a just-Set entry that
// ristretto declines to admit is simply recomputed on the next Get rather
// than treated as an error.
type Cache struct {
	schema *schema.Schema
	store  NodeReader
	cache  *ristretto.Cache[string, value.Value]

	// byEdge maps, per type, an EdgeId to the rollups on that type that
	// depend on it — built once from the schema, used to find which
	// cached entries a link/unlink or property-change event invalidates.
	byEdge map[schema.TypeId]map[schema.EdgeId][]schema.RollupDef
}

// NewCache constructs an empty Cache over sch, reading live node state
// through store.
func NewCache(sch *schema.Schema, store NodeReader) (*Cache, error) {
	rc, err := ristretto.NewCache(&ristretto.Config[string, value.Value]{
		NumCounters: 1e6,
		MaxCost:     1 << 20,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("rollup: %w", err)
	}

	byEdge := make(map[schema.TypeId]map[schema.EdgeId][]schema.RollupDef)
	for _, t := range sch.Types() {
		m := make(map[schema.EdgeId][]schema.RollupDef)
		for _, r := range t.Rollups {
			e, ok := t.EdgeByName(r.Edge)
			if !ok {
				continue // already rejected at schema build time; defensive only
			}
			m[e.Id] = append(m[e.Id], r)
		}
		byEdge[t.Id] = m
	}

	return &Cache{schema: sch, store: store, cache: rc, byEdge: byEdge}, nil
}

func cacheKey(id graph.NodeId, rollupName string) string {
	return fmt.Sprintf("%d\x00%s", id, rollupName)
}

// Get returns rollupName's current value for id, computing and memoising
// it on a cache miss. ok is false only if id or rollupName do not exist.
func (c *Cache) Get(id graph.NodeId, rollupName string) (value.Value, bool) {
	key := cacheKey(id, rollupName)
	if v, ok := c.cache.Get(key); ok {
		return v, true
	}

	n, ok := c.store.Get(id)
	if !ok {
		return value.Null, false
	}
	t := c.schema.TypeById(n.TypeId)
	r, ok := t.RollupByName(rollupName)
	if !ok {
		return value.Null, false
	}

	v, ok := c.compute(t, n, r)
	if !ok {
		return value.Null, false
	}
	c.cache.Set(key, v, 1)
	c.cache.Wait()
	return v, true
}

func (c *Cache) compute(t *schema.TypeDef, n *graph.Node, r schema.RollupDef) (value.Value, bool) {
	e, ok := t.EdgeByName(r.Edge)
	if !ok {
		return value.Null, false
	}
	targets := n.TargetsOf(e.Id)

	switch r.Kind {
	case schema.RollupCount:
		return value.Int(int64(len(targets))), true

	case schema.RollupTraverse:
		if len(targets) == 0 {
			return value.Null, true
		}
		target, ok := c.store.Get(targets[0])
		if !ok {
			return value.Null, true
		}
		v, ok := target.Property(r.Property)
		if !ok {
			return value.Null, true
		}
		return v, true

	case schema.RollupFirst, schema.RollupLast:
		return c.computeFirstLast(targets, r)

	default:
		return value.Null, false
	}
}

// computeFirstLast sorts targets by r.Field/r.Direction (a criterion
// independent of whatever order the edge's own adjacency list is kept
// in) and returns the extreme target's r.Property, or its NodeId packed
// as a Value.Int if Property is empty.
func (c *Cache) computeFirstLast(targets []graph.NodeId, r schema.RollupDef) (value.Value, bool) {
	if len(targets) == 0 {
		return value.Null, true
	}

	best := targets[0]
	bestKey := c.fieldValue(best, r.Field)
	isFirst := r.Kind == schema.RollupFirst
	for _, id := range targets[1:] {
		k := c.fieldValue(id, r.Field)
		cmp := k.Compare(bestKey)
		if r.Direction == schema.Desc {
			cmp = -cmp
		}
		if (isFirst && cmp < 0) || (!isFirst && cmp > 0) {
			best, bestKey = id, k
		}
	}

	if r.Property == "" {
		return value.Int(int64(best)), true
	}
	target, ok := c.store.Get(best)
	if !ok {
		return value.Null, true
	}
	v, ok := target.Property(r.Property)
	if !ok {
		return value.Null, true
	}
	return v, true
}

func (c *Cache) fieldValue(id graph.NodeId, field string) value.Value {
	n, ok := c.store.Get(id)
	if !ok {
		return value.Null
	}
	v, ok := n.Property(field)
	if !ok {
		return value.Null
	}
	return v
}

// invalidate drops a single memoised entry, if present.
func (c *Cache) invalidate(id graph.NodeId, rollupName string) {
	c.cache.Del(cacheKey(id, rollupName))
}
