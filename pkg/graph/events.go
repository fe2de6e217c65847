package graph

import "github.com/Aetherall/neograph-sub001/pkg/schema"

// EventKind tags the five mutation notifications a NodeStore emits (spec
// §4.1): node_insert, node_update, node_delete, edge_link, edge_unlink.
type EventKind uint8

const (
	EventNodeInsert EventKind = iota
	EventNodeUpdate
	EventNodeDelete
	EventEdgeLink
	EventEdgeUnlink
)

// Event is one notification dispatched to the store's Sink. Field use by
// Kind:
//   - NodeInsert/NodeDelete: NodeId, TypeId
//   - NodeUpdate: NodeId, TypeId, ChangedProperties
//   - EdgeLink/EdgeUnlink: NodeId (source), TypeId (source's type), Edge,
//     Target
type Event struct {
	Kind              EventKind
	NodeId            NodeId
	TypeId            schema.TypeId
	ChangedProperties []string
	Edge              schema.EdgeId
	Target            NodeId
}

// Sink receives the events a NodeStore emits. ChangeTracker is the
// production implementation; tests may use a simple slice-recording
// stub.
//
// Dispatch is called synchronously, from inside the mutating method,
// before that method returns — spec §4.5's "a single store mutation is
// dispatched atomically" guarantee depends on the Sink not deferring
// work to another goroutine.
type Sink interface {
	Dispatch(Event)
}

// noopSink discards events; used when a NodeStore is constructed without
// a tracker attached (e.g. in unit tests of the store alone).
type noopSink struct{}

func (noopSink) Dispatch(Event) {}
