package graph

import (
	"errors"
	"sort"
	"sync"

	"github.com/Aetherall/neograph-sub001/pkg/schema"
	"github.com/Aetherall/neograph-sub001/pkg/value"
)

// Store error sentinels (spec §7 "Store" kinds).
var (
	ErrUnknownType       = errors.New("graph: unknown type")
	ErrNodeNotFound      = errors.New("graph: node not found")
	ErrUnknownEdge       = errors.New("graph: unknown edge")
	ErrEdgeTargetNotFound = errors.New("graph: edge target not found")
)

// NodeStore owns every node, performs CRUD and bidirectional link/unlink,
// and is the sole mutator of node state (spec §5 "Shared-resource
// policy"). It emits events to its attached Sink synchronously and in
// order: node_insert, node_update, node_delete, edge_link, edge_unlink.
//
// Thread Safety: all public methods take NodeStore.mu, matching the
// teacher's MemoryEngine convention of one RWMutex guarding the whole
// store. This arbitrates which caller's mutation runs at a time; it does
// not change the single-threaded, run-to-completion semantics spec §5
// requires of event dispatch.
//
// Every mutating method applies its data changes under mu, then releases
// mu *before* calling Sink.Dispatch. Dispatch fans out synchronously to
// every registered listener (index.Manager, rollup.Cache, ...), and those
// listeners read the node back through this same store's Get, which
// takes a read lock — dispatching while still holding the write lock
// would deadlock a non-reentrant sync.RWMutex on every single mutation.
type NodeStore struct {
	mu     sync.RWMutex
	schema *schema.Schema
	nodes  map[NodeId]*Node
	nextID int64
	sink   Sink
}

// NewStore returns an empty NodeStore over schema. NodeIds are assigned
// starting at 1 (spec §3).
func NewStore(sch *schema.Schema) *NodeStore {
	return &NodeStore{
		schema: sch,
		nodes:  make(map[NodeId]*Node),
		nextID: 1,
		sink:   noopSink{},
	}
}

// SetSink attaches the event sink mutations are dispatched to. Typically
// a *tracker.ChangeTracker; defaults to a no-op sink.
func (s *NodeStore) SetSink(sink Sink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sink == nil {
		sink = noopSink{}
	}
	s.sink = sink
}

// Schema returns the store's schema.
func (s *NodeStore) Schema() *schema.Schema { return s.schema }

// Insert creates a node of the named type with no properties and no
// edges, and returns its fresh NodeId.
func (s *NodeStore) Insert(typeName string) (NodeId, error) {
	s.mu.Lock()

	t, ok := s.schema.TypeByName(typeName)
	if !ok {
		s.mu.Unlock()
		return 0, ErrUnknownType
	}

	id := NodeId(s.nextID)
	s.nextID++
	s.nodes[id] = newNode(id, t.Id)
	sink := s.sink
	s.mu.Unlock()

	sink.Dispatch(Event{Kind: EventNodeInsert, NodeId: id, TypeId: t.Id})
	return id, nil
}

// Get returns a defensive copy of the node, or (nil, false) if it does
// not exist. Callers must not retain the pointer across a Delete of the
// same id (spec §5).
func (s *NodeStore) Get(id NodeId) (*Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.nodes[id]
	if !ok {
		return nil, false
	}
	return n.clone(), true
}

// Update writes each named property. A value of value.Null removes the
// property (spec §4.1 "setting absent/null removes it"), then repositions
// this node within any sorted forward edge list that sorts by one of
// those properties — both under the same lock, so the node is already
// fully consistent by the time the node_update event reaches listeners.
// Emits a single node_update event naming every property that actually
// changed.
func (s *NodeStore) Update(id NodeId, props map[string]value.Value) error {
	s.mu.Lock()

	n, ok := s.nodes[id]
	if !ok {
		s.mu.Unlock()
		return ErrNodeNotFound
	}

	var changed []string
	for name, v := range props {
		if v.IsNull() {
			if _, existed := n.Properties[name]; existed {
				delete(n.Properties, name)
				changed = append(changed, name)
			}
			continue
		}
		if old, existed := n.Properties[name]; !existed || !old.Equal(v) {
			n.Properties[name] = v
			changed = append(changed, name)
		}
	}

	if len(changed) == 0 {
		s.mu.Unlock()
		return nil
	}

	s.repositionIncoming(n, changed)
	typeId := n.TypeId
	sink := s.sink
	s.mu.Unlock()

	sink.Dispatch(Event{Kind: EventNodeUpdate, NodeId: id, TypeId: typeId, ChangedProperties: changed})
	return nil
}

// Delete performs unlinkAll (removing this node from every target's
// reverse edge list) and then removes the node, all under one lock; the
// edge_unlink events this produces, followed by node_delete, are
// dispatched only once the lock is released.
func (s *NodeStore) Delete(id NodeId) error {
	s.mu.Lock()

	n, ok := s.nodes[id]
	if !ok {
		s.mu.Unlock()
		return ErrNodeNotFound
	}
	t := s.schema.TypeById(n.TypeId)

	var events []Event
	for _, e := range t.Edges {
		for _, target := range append([]NodeId(nil), n.Edges[e.Id]...) {
			events = append(events, s.unlinkData(n, &e, target))
		}
	}

	delete(s.nodes, id)
	events = append(events, Event{Kind: EventNodeDelete, NodeId: id, TypeId: n.TypeId})
	sink := s.sink
	s.mu.Unlock()

	for _, ev := range events {
		sink.Dispatch(ev)
	}
	return nil
}

// Link connects source to target via the named edge. A no-op if target
// is already linked. Performs the mirror insertion on target via the
// reverse edge, each side honoring its own declared sort (or insertion
// order if unsorted).
func (s *NodeStore) Link(source NodeId, edgeName string, target NodeId) error {
	s.mu.Lock()

	src, ok := s.nodes[source]
	if !ok {
		s.mu.Unlock()
		return ErrNodeNotFound
	}
	tgt, ok := s.nodes[target]
	if !ok {
		s.mu.Unlock()
		return ErrEdgeTargetNotFound
	}
	t := s.schema.TypeById(src.TypeId)
	e, ok := t.EdgeByName(edgeName)
	if !ok {
		s.mu.Unlock()
		return ErrUnknownEdge
	}

	if contains(src.Edges[e.Id], target) {
		s.mu.Unlock()
		return nil
	}

	rev, _ := s.schema.TypeById(e.TargetTypeId).EdgeById(e.ReverseEdgeId)

	src.Edges[e.Id] = s.insertSorted(src.Edges[e.Id], target, e.Sort)
	tgt.Edges[rev.Id] = s.insertSorted(tgt.Edges[rev.Id], source, rev.Sort)

	typeId := src.TypeId
	edgeId := e.Id
	sink := s.sink
	s.mu.Unlock()

	sink.Dispatch(Event{Kind: EventEdgeLink, NodeId: source, TypeId: typeId, Edge: edgeId, Target: target})
	return nil
}

// Unlink removes both directions of the link. Missing target is a
// silent no-op.
func (s *NodeStore) Unlink(source NodeId, edgeName string, target NodeId) error {
	s.mu.Lock()

	src, ok := s.nodes[source]
	if !ok {
		s.mu.Unlock()
		return ErrNodeNotFound
	}
	t := s.schema.TypeById(src.TypeId)
	e, ok := t.EdgeByName(edgeName)
	if !ok {
		s.mu.Unlock()
		return ErrUnknownEdge
	}
	if !contains(src.Edges[e.Id], target) {
		s.mu.Unlock()
		return nil
	}
	ev := s.unlinkData(src, e, target)
	sink := s.sink
	s.mu.Unlock()

	sink.Dispatch(ev)
	return nil
}

// unlinkData removes both directions of (src, e, target) and returns the
// edge_unlink event to dispatch once the caller has released s.mu; it
// performs no dispatch itself so Delete can batch several of these and
// dispatch them all after releasing the lock. Caller holds s.mu.
func (s *NodeStore) unlinkData(src *Node, e *schema.EdgeDef, target NodeId) Event {
	src.Edges[e.Id] = remove(src.Edges[e.Id], target)
	if tgt, ok := s.nodes[target]; ok {
		rev, _ := s.schema.TypeById(e.TargetTypeId).EdgeById(e.ReverseEdgeId)
		tgt.Edges[rev.Id] = remove(tgt.Edges[rev.Id], src.ID)
	}
	return Event{Kind: EventEdgeUnlink, NodeId: src.ID, TypeId: src.TypeId, Edge: e.Id, Target: target}
}

// insertSorted inserts id into list per sort (nil sort: append), deduping
// (callers only call this once no-op has already been ruled out).
func (s *NodeStore) insertSorted(list []NodeId, id NodeId, srt *schema.EdgeSort) []NodeId {
	if srt == nil {
		return append(list, id)
	}
	idVal := s.sortKey(id, srt.Property)
	pos := sort.Search(len(list), func(i int) bool {
		return s.less(list[i], idVal, id, srt.Direction, srt.Property)
	})
	list = append(list, 0)
	copy(list[pos+1:], list[pos:])
	list[pos] = id
	return list
}

// sortKey fetches node id's value for property, or value.Null if absent
// or the node is missing (per the §9 open question, absent = null).
func (s *NodeStore) sortKey(id NodeId, property string) value.Value {
	n, ok := s.nodes[id]
	if !ok {
		return value.Null
	}
	v, ok := n.Properties[property]
	if !ok {
		return value.Null
	}
	return v
}

// less reports whether the candidate (idVal, id) sorts strictly before
// list entry other, honoring direction and breaking ties by NodeId
// ascending (spec §3 edge sort invariant).
func (s *NodeStore) less(other NodeId, idVal value.Value, id NodeId, dir schema.Direction, property string) bool {
	otherVal := s.sortKey(other, property)
	c := idVal.Compare(otherVal)
	if dir == schema.Desc {
		c = -c
	}
	if c != 0 {
		return c < 0
	}
	return id < other
}

// repositionIncoming handles spec §4.1's edge-sort maintenance: for every
// edge declared on n's type whose reverse edge (on the other side) sorts
// by one of the changed properties, reposition n within every linked
// source's forward list.
func (s *NodeStore) repositionIncoming(n *Node, changedProps []string) {
	t := s.schema.TypeById(n.TypeId)
	changed := make(map[string]bool, len(changedProps))
	for _, p := range changedProps {
		changed[p] = true
	}

	for _, d := range t.Edges {
		otherType := s.schema.TypeById(d.TargetTypeId)
		fwd, ok := otherType.EdgeById(d.ReverseEdgeId)
		if !ok || fwd.Sort == nil || !changed[fwd.Sort.Property] {
			continue
		}
		for _, sourceId := range n.Edges[d.Id] {
			source, ok := s.nodes[sourceId]
			if !ok {
				continue
			}
			list := remove(source.Edges[fwd.Id], n.ID)
			source.Edges[fwd.Id] = s.insertSorted(list, n.ID, fwd.Sort)
		}
	}
}

func contains(list []NodeId, id NodeId) bool {
	for _, x := range list {
		if x == id {
			return true
		}
	}
	return false
}

func remove(list []NodeId, id NodeId) []NodeId {
	for i, x := range list {
		if x == id {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}
