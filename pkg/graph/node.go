// Package graph implements the node store: CRUD over typed nodes,
// bidirectional edge maintenance (link/unlink with cascading unlink on
// delete), and edge-sort maintenance (repositioning a sorted forward edge
// list when the property it sorts by changes).
//
// This is the teacher's MemoryEngine (pkg/storage/memory.go in the
// original) regrown around spec §3's data model: string NodeIDs become a
// monotonic int64 NodeId, per-type Labels become a single TypeId, and
// Neo4j-style separate Edge objects become adjacency lists embedded
// directly in each Node.
package graph

import (
	"github.com/Aetherall/neograph-sub001/pkg/schema"
	"github.com/Aetherall/neograph-sub001/pkg/value"
)

// NodeId is an opaque, non-zero, monotonically assigned identifier. It is
// never reused within a store's lifetime (spec §3).
type NodeId int64

// Node is one instance of a declared type.
//
// Properties holds only the properties currently set; an absent key means
// unset, distinct from a key mapped to value.Null (callers should not
// normally produce the latter — NodeStore.Update converts a null write
// into a removal per spec §4.1).
//
// Edges maps each declared EdgeId to its ordered, deduplicated list of
// forward targets. An edge with no links simply has no entry (or an
// empty slice) rather than being absent in some other way.
type Node struct {
	ID         NodeId
	TypeId     schema.TypeId
	Properties map[string]value.Value
	Edges      map[schema.EdgeId][]NodeId
}

func newNode(id NodeId, typeId schema.TypeId) *Node {
	return &Node{
		ID:         id,
		TypeId:     typeId,
		Properties: make(map[string]value.Value),
		Edges:      make(map[schema.EdgeId][]NodeId),
	}
}

// Property returns the value of name, and whether it is set.
func (n *Node) Property(name string) (value.Value, bool) {
	v, ok := n.Properties[name]
	return v, ok
}

// TargetsOf returns the forward target list for edgeId (nil if empty).
// The returned slice must not be mutated by the caller.
func (n *Node) TargetsOf(edgeId schema.EdgeId) []NodeId {
	return n.Edges[edgeId]
}

// clone returns a deep copy, used so callers (indexes, rollup cache,
// reactive trees) that read a Node outside the store's lock see a stable
// snapshot rather than a live, concurrently-mutable structure.
func (n *Node) clone() *Node {
	c := &Node{
		ID:         n.ID,
		TypeId:     n.TypeId,
		Properties: make(map[string]value.Value, len(n.Properties)),
		Edges:      make(map[schema.EdgeId][]NodeId, len(n.Edges)),
	}
	for k, v := range n.Properties {
		c.Properties[k] = v
	}
	for k, v := range n.Edges {
		cp := make([]NodeId, len(v))
		copy(cp, v)
		c.Edges[k] = cp
	}
	return c
}
