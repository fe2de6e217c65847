// Package index maintains the ordered composite and edge-prefixed
// indexes a Schema declares, selects a covering index for a query's
// sort+filter shape, and performs the ordered/prefix scans the executor
// uses in place of any in-memory sort.
//
// Grounded on the multi-index ordered-cache shape of a b-tree-backed
// cache (see DESIGN.md): each declared IndexDef becomes one
// btree.BTreeG[entry] ordered by the composite-key comparator spec §3
// defines, giving O(log N) insert/remove. Scans (scan.go) walk the tree
// in order from its first entry until the matching run ends; they do not
// seek directly to the start of that run.
package index

import (
	"github.com/Aetherall/neograph-sub001/pkg/graph"
	"github.com/Aetherall/neograph-sub001/pkg/query"
	"github.com/Aetherall/neograph-sub001/pkg/schema"
	"github.com/Aetherall/neograph-sub001/pkg/value"
	"github.com/google/btree"
)

// RollupProvider resolves a rollup's current value for a node, so index
// keys can include rollup-defined fields (spec §4.3 "Rollups participate
// in index keys exactly when referenced by an IndexField name"). Satisfied
// by *rollup.Cache without either package importing the other.
type RollupProvider interface {
	Get(id graph.NodeId, rollupName string) (value.Value, bool)
}

// NodeReader is the subset of *graph.NodeStore the index manager needs:
// read access to look up a node's own and its edge targets' properties.
// Declared as an interface so tests can substitute a fake store.
type NodeReader interface {
	Get(id graph.NodeId) (*graph.Node, bool)
}

// entry is one row of an index's ordered set.
type entry struct {
	key []value.Value
	id  graph.NodeId
}

// indexState is the live ordered set plus the last-computed key per node,
// so Manager can find and remove a node's old entry before reinserting.
type indexState struct {
	def  schema.IndexDef
	tree *btree.BTreeG[entry]
	keys map[graph.NodeId][]value.Value
}

// Manager maintains every declared index across every type.
type Manager struct {
	schema  *schema.Schema
	store   NodeReader
	rollups RollupProvider
	byType  map[schema.TypeId][]*indexState
}

// NewManager constructs empty indexes for every IndexDef in sch. rollups
// may be nil if the schema declares no rollup-based index fields.
func NewManager(sch *schema.Schema, store NodeReader, rollups RollupProvider) *Manager {
	m := &Manager{
		schema:  sch,
		store:   store,
		rollups: rollups,
		byType:  make(map[schema.TypeId][]*indexState),
	}
	for _, t := range sch.Types() {
		states := make([]*indexState, len(t.Indexes))
		for i, def := range t.Indexes {
			states[i] = &indexState{
				def:  def,
				tree: btree.NewG(8, lessEntry(def)),
				keys: make(map[graph.NodeId][]value.Value),
			}
		}
		m.byType[t.Id] = states
	}
	return m
}

// lessEntry builds the btree ordering function for def: lexicographic
// comparison honoring each position's direction, with NodeId as the
// final, always-ascending tiebreaker so distinct nodes with an identical
// composite key still occupy distinct tree positions.
func lessEntry(def schema.IndexDef) func(a, b entry) bool {
	return func(a, b entry) bool {
		for i, f := range def.Fields {
			c := a.key[i].Compare(b.key[i])
			if f.Direction == schema.Desc {
				c = -c
			}
			if c != 0 {
				return c < 0
			}
		}
		return a.id < b.id
	}
}

// computeKey evaluates def's fields for node n (of type t), returning
// (key, true) only if every position is defined, per spec §4.2: "an
// index entry exists iff every key position on the node has a defined
// value (for kind=property) or a non-empty edge with a defined sort
// property (for kind=edge)".
//
// Open question resolved here (see DESIGN.md): when an edge field's own
// EdgeDef has no declared Sort — the shape of a reverse "points to
// exactly one owner" edge-prefix field — the key value is the first
// target's NodeId itself, so equality-prefix scans can restrict by a
// known source NodeId (spec §4.2 "edge-prefixed index").
func (m *Manager) computeKey(t *schema.TypeDef, n *graph.Node, def schema.IndexDef) ([]value.Value, bool) {
	key := make([]value.Value, len(def.Fields))
	for i, f := range def.Fields {
		switch f.Kind {
		case schema.IndexFieldProperty:
			if v, ok := n.Property(f.Name); ok {
				key[i] = v
				continue
			}
			if m.rollups != nil {
				if v, ok := m.rollups.Get(n.ID, f.Name); ok {
					key[i] = v
					continue
				}
			}
			return nil, false
		case schema.IndexFieldEdge:
			e, ok := t.EdgeByName(f.Name)
			if !ok {
				return nil, false
			}
			targets := n.TargetsOf(e.Id)
			if len(targets) == 0 {
				return nil, false
			}
			first := targets[0]
			if e.Sort != nil {
				target, ok := m.store.Get(first)
				if !ok {
					return nil, false
				}
				v, ok := target.Property(e.Sort.Property)
				if !ok {
					return nil, false
				}
				key[i] = v
			} else {
				key[i] = value.Int(int64(first))
			}
		}
	}
	return key, true
}

// Reindex recomputes and repositions (inserting/removing as needed) every
// index entry for node id. Called by the subscriber wiring after any
// mutation that might affect id's index membership or position: its own
// property/edge changes, or a property change on a node it points to via
// an edge-kind index field.
func (m *Manager) Reindex(id graph.NodeId) {
	n, ok := m.store.Get(id)
	if !ok {
		m.removeAll(id)
		return
	}
	t := m.schema.TypeById(n.TypeId)
	for _, st := range m.byType[n.TypeId] {
		newKey, defined := m.computeKey(t, n, st.def)
		oldKey, hadOld := st.keys[id]
		if hadOld {
			st.tree.Delete(entry{key: oldKey, id: id})
			delete(st.keys, id)
		}
		if defined {
			st.tree.ReplaceOrInsert(entry{key: newKey, id: id})
			st.keys[id] = newKey
		}
	}
}

// removeAll drops id from every index of every type (used on node
// deletion, when the type is no longer directly knowable from the
// store).
func (m *Manager) removeAll(id graph.NodeId) {
	for _, states := range m.byType {
		for _, st := range states {
			if oldKey, ok := st.keys[id]; ok {
				st.tree.Delete(entry{key: oldKey, id: id})
				delete(st.keys, id)
			}
		}
	}
}
