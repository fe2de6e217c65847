// Package executor runs a validated query to an ordered list of Items,
// using the index manager for every scan and sort — never an in-memory
// sort (spec §4.4).
package executor

import (
	"github.com/Aetherall/neograph-sub001/pkg/graph"
	"github.com/Aetherall/neograph-sub001/pkg/gstore"
	"github.com/Aetherall/neograph-sub001/pkg/index"
	"github.com/Aetherall/neograph-sub001/pkg/query"
	"github.com/Aetherall/neograph-sub001/pkg/rollup"
	"github.com/Aetherall/neograph-sub001/pkg/schema"
	"github.com/Aetherall/neograph-sub001/pkg/value"
)

// visitedPool pools the visited-set maps used to detect cycles during
// traversal (spec §4.4 "cycle detection"). Each map's lifetime is scoped
// exactly to one materialise call tree: built, read, copied into a child
// map for recursion, and discarded the instant that call returns, never
// retained in an Item. That makes it a safe, high-churn pooling target.
var visitedPool = gstore.NewMapPool[graph.NodeId, bool](gstore.DefaultConfig())

// PathKind tags a PathSegment.
type PathKind uint8

const (
	PathRoot PathKind = iota
	PathEdge
)

// PathSegment is one step of an Item's Path: the root node, or an edge
// hop with its position among the parent's targets for that edge.
type PathSegment struct {
	Kind     PathKind
	NodeId   graph.NodeId
	EdgeName string
	Index    int
}

// Path is root(NodeId), then edge(name, index-within-parent) segments.
type Path []PathSegment

// Depth is path length minus one: the root is depth 0.
func (p Path) Depth() int { return len(p) - 1 }

// EdgeResultKind tags an EdgeResult.
type EdgeResultKind uint8

const (
	EdgeResultItems EdgeResultKind = iota
	EdgeResultCycle
)

// EdgeResult is the per-selection outcome attached to an Item: the
// materialised child Items, leaving out every target that is already on
// the path from the root (spec §4.4 cycle detection), or a cycle marker
// when at least one target was left out that way and no target was
// materialised.
type EdgeResult struct {
	Kind  EdgeResultKind
	Items []*Item
}

// Item is one materialised node in query result order.
type Item struct {
	Id     graph.NodeId
	TypeId schema.TypeId
	Path   Path
	Depth  int
	Fields map[string]value.Value
	Edges  map[string]EdgeResult
}

// Executor runs queries against a live store, index manager and rollup
// cache.
type Executor struct {
	schema  *schema.Schema
	store   *graph.NodeStore
	idx     *index.Manager
	rollups *rollup.Cache
}

// New constructs an Executor. rollups may be nil if the schema declares
// no rollups.
func New(sch *schema.Schema, store *graph.NodeStore, idx *index.Manager, rollups *rollup.Cache) *Executor {
	return &Executor{schema: sch, store: store, idx: idx, rollups: rollups}
}

// Execute runs q using coverage (the root-level IndexCoverage a
// validator or caller already resolved; nil when q.RootId bypasses
// indexing).
func (ex *Executor) Execute(q *query.Query, coverage *index.Coverage) ([]*Item, error) {
	if q.RootId != nil {
		n, ok := ex.store.Get(*q.RootId)
		if !ok || !ex.matchesAll(n, q.Filters) {
			return nil, nil
		}
		path := Path{{Kind: PathRoot, NodeId: n.ID}}
		visited := visitedPool.Get()
		visited[n.ID] = true
		item := ex.materialise(n, q.Edges, path, visited)
		visitedPool.Put(visited)
		return []*Item{item}, nil
	}

	ids := ex.idx.Scan(coverage, coverage.PostFilters)
	out := make([]*Item, 0, len(ids))
	for _, id := range ids {
		n, ok := ex.store.Get(id)
		if !ok || !ex.matchesAll(n, q.Filters) {
			continue
		}
		path := Path{{Kind: PathRoot, NodeId: id}}
		visited := visitedPool.Get()
		visited[id] = true
		out = append(out, ex.materialise(n, q.Edges, path, visited))
		visitedPool.Put(visited)
	}
	return out, nil
}

// materialise builds one Item for n: all properties and rollups as
// fields, and one EdgeResult per declared selection.
func (ex *Executor) materialise(n *graph.Node, selections []query.EdgeSelection, path Path, visited map[graph.NodeId]bool) *Item {
	t := ex.schema.TypeById(n.TypeId)
	fields := make(map[string]value.Value, len(n.Properties)+len(t.Rollups))
	for name, v := range n.Properties {
		fields[name] = v
	}
	if ex.rollups != nil {
		for _, r := range t.Rollups {
			if v, ok := ex.rollups.Get(n.ID, r.Name); ok {
				fields[r.Name] = v
			}
		}
	}

	item := &Item{
		Id:     n.ID,
		TypeId: n.TypeId,
		Path:   path,
		Depth:  path.Depth(),
		Fields: fields,
		Edges:  make(map[string]EdgeResult, len(selections)),
	}

	for _, sel := range selections {
		item.Edges[sel.Name] = ex.materialiseEdge(t, n, sel, path, visited)
	}
	return item
}

// ChildSelections returns the selections available to each of sel's
// targets: sel's own Edges, plus sel itself when sel.Recursive (spec
// §4.4 "extend the child's selection list with edge_sel itself"). Shared
// with pkg/reactive, which mirrors an Item tree's structure without
// re-materialising it.
func ChildSelections(sel query.EdgeSelection) []query.EdgeSelection {
	if !sel.Recursive {
		return sel.Edges
	}
	return append(append([]query.EdgeSelection(nil), sel.Edges...), sel)
}

func (ex *Executor) materialiseEdge(t *schema.TypeDef, n *graph.Node, sel query.EdgeSelection, path Path, visited map[graph.NodeId]bool) EdgeResult {
	e, ok := t.EdgeByName(sel.Name)
	if !ok {
		return EdgeResult{Kind: EdgeResultItems}
	}

	targetIds := ex.orderedTargets(n, e, sel)
	childSelections := ChildSelections(sel)

	var items []*Item
	cycled := false
	for i, tid := range targetIds {
		if visited[tid] {
			cycled = true
			continue
		}
		target, ok := ex.store.Get(tid)
		if !ok {
			continue
		}
		if !ex.matchesAll(target, sel.Filters) {
			continue
		}
		childPath := append(append(Path(nil), path...), PathSegment{Kind: PathEdge, NodeId: tid, EdgeName: sel.Name, Index: i})
		childVisited := visitedPool.Get()
		for k := range visited {
			childVisited[k] = true
		}
		childVisited[tid] = true
		items = append(items, ex.materialise(target, childSelections, childPath, childVisited))
		visitedPool.Put(childVisited)
	}
	if cycled && len(items) == 0 {
		return EdgeResult{Kind: EdgeResultCycle}
	}
	return EdgeResult{Kind: EdgeResultItems, Items: items}
}

// orderedTargets yields e's targets for n in the order sel requires: an
// edge-prefixed index scan when sel.Sorts is non-empty, else the node's
// stored forward adjacency order (already sorted if e.Sort is declared,
// insertion order otherwise).
func (ex *Executor) orderedTargets(n *graph.Node, e *schema.EdgeDef, sel query.EdgeSelection) []graph.NodeId {
	if len(sel.Sorts) == 0 {
		return n.TargetsOf(e.Id)
	}
	cov, ok := ex.idx.SelectNestedIndex(e.TargetTypeId, e.ReverseName, sel.Filters, sel.Sorts)
	if !ok {
		return nil
	}
	return ex.idx.ScanWithEdgePrefix(cov, n.ID, cov.PostFilters)
}

// matchesAll evaluates every filter against node, walking multi-hop
// edge paths to their first target.
func (ex *Executor) matchesAll(node *graph.Node, filters []query.Filter) bool {
	for _, f := range filters {
		if !ex.matches(node, f) {
			return false
		}
	}
	return true
}

func (ex *Executor) matches(node *graph.Node, f query.Filter) bool {
	cur := node
	t := ex.schema.TypeById(cur.TypeId)
	for _, edgeName := range f.EdgePath() {
		e, ok := t.EdgeByName(edgeName)
		if !ok {
			return false
		}
		targets := cur.TargetsOf(e.Id)
		if len(targets) == 0 {
			return false
		}
		next, ok := ex.store.Get(targets[0])
		if !ok {
			return false
		}
		cur = next
		t = ex.schema.TypeById(cur.TypeId)
	}

	if v, ok := cur.Property(f.FieldName()); ok {
		return index.MatchOp(v, f)
	}
	if ex.rollups != nil {
		if v, ok := ex.rollups.Get(cur.ID, f.FieldName()); ok {
			return index.MatchOp(v, f)
		}
	}
	return index.MatchOp(value.Null, f)
}
