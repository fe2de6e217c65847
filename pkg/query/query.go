// Package query declares the shape of a view definition: which root type
// to scan, what filters/sorts apply, and which edges to recurse into.
// It intentionally mirrors spec §6's JSON wire shape one-to-one in plain
// Go structs — the JSON (de)serialiser that populates these structs from
// the external textual form is an excluded collaborator (spec §1).
package query

import (
	"github.com/Aetherall/neograph-sub001/pkg/graph"
	"github.com/Aetherall/neograph-sub001/pkg/schema"
	"github.com/Aetherall/neograph-sub001/pkg/value"
)

// Op is a filter comparison operator.
type Op uint8

const (
	Eq Op = iota
	Neq
	Gt
	Gte
	Lt
	Lte
	In
)

// Filter restricts nodes reached via Path (a non-empty sequence of field
// names; all but the last are edge names traversed to a first target,
// the last is a property or rollup name on the final type).
type Filter struct {
	Path   []string
	Op     Op
	Value  value.Value
	Values []value.Value // used only when Op == In
}

// FieldName returns the final path segment: the property or rollup being
// filtered.
func (f Filter) FieldName() string { return f.Path[len(f.Path)-1] }

// EdgePath returns the leading edge names traversed before FieldName.
func (f Filter) EdgePath() []string { return f.Path[:len(f.Path)-1] }

// Sort is a (field, direction) pair; field may be a property or rollup
// name, and must be covered by some declared index.
type Sort struct {
	Field     string
	Direction schema.Direction
}

// EdgeSelection declares one edge to traverse as part of a tree-shaped
// query, with its own nested filters/sorts/sub-selections.
type EdgeSelection struct {
	Name      string
	Recursive bool
	Virtual   bool
	Filters   []Filter
	Sorts     []Sort
	Edges     []EdgeSelection
}

// Query is a declarative, tree-shaped view definition over one root type.
type Query struct {
	RootType string
	// RootId, when non-nil, bypasses index selection: the executor
	// fetches this single node directly and applies Filters to it.
	RootId  *graph.NodeId
	Virtual bool
	Filters []Filter
	Sorts   []Sort
	Edges   []EdgeSelection
}
