// Package reactive builds a live, expandable tree over a query's
// materialised Items (spec §4.7): nodes start collapsed, expanding one
// instantiates its edge's children and folds their visible counts into
// every ancestor, and a Viewport addresses the flattened visible order
// through the stored subtree counts without ever flattening the whole
// tree into a slice. Each lookup walks one root-to-node path and scans
// the sibling lists it passes, so its cost grows with depth times
// fan-out rather than being logarithmic.
// Reconcile folds a freshly re-materialised item set back into the live
// tree, firing enter/leave for whatever actually changed — including
// inside edges nested several levels deep, and transitively through
// virtual (hidden) hops.
//
// Grounded on the sortcache example's ordered-container bookkeeping and
// the fox tree example's in-order child-list walking (see DESIGN.md),
// reworked around per-edge expansion state instead of a fixed schema.
package reactive

import (
	"github.com/Aetherall/neograph-sub001/pkg/executor"
	"github.com/Aetherall/neograph-sub001/pkg/graph"
	"github.com/Aetherall/neograph-sub001/pkg/gstore"
	"github.com/Aetherall/neograph-sub001/pkg/query"
)

// oldByIdPool and enterLeavePool amortize the scratch allocations
// reconcile makes on every dispatched event: oldById is a lookup map
// built, read, and discarded within one reconcile call, and toEnter/
// toLeave are accumulator slices discarded once their callbacks have
// fired — none of the three are retained by the tree afterward.
var (
	oldByIdPool    = gstore.NewMapPool[graph.NodeId, *TreeNode](gstore.DefaultConfig())
	enterLeavePool = gstore.NewSlicePool[*TreeNode](gstore.DefaultConfig(), 8)
)

// rootEdgeName is the synthetic selection name the Tree's root container
// uses to hold the query's top-level Items; no real edge can have this
// name since query.EdgeSelection.Name always comes from a schema edge.
const rootEdgeName = ""

// Callbacks delivers enter/leave notifications for the full flattened
// visible sequence (spec §4.7/§6 "on_enter"/"on_leave") — never limited
// to a Viewport's window, which is a pure derived projection.
type Callbacks struct {
	OnEnter func(item *executor.Item, offset int)
	OnLeave func(item *executor.Item, offset int)
}

// TreeNode is one node of the reactive tree: either a materialised Item
// (backing != nil) or the Tree's synthetic root container.
//
// Children is populated only for edges that have been expanded at least
// once; collapsing an edge deletes its entry entirely (spec §4.7
// "collapseById detaches children"), so re-expanding rebuilds it from
// the already-materialised Item — cheap, since the Item's own subtree
// was computed once by the executor regardless of expansion state.
type TreeNode struct {
	Item          *executor.Item
	Parent        *TreeNode
	Selections    []query.EdgeSelection
	Virtual       bool
	ExpandedEdges map[string]bool
	Children      map[string][]*TreeNode
	// LazyCounts tracks, per collapsed edge, how many targets it
	// currently has, kept current via Reconcile even while the edge is
	// collapsed (spec §4.7 "the edge's lazy child count is updated").
	LazyCounts map[string]int
	count      int
}

// Tree is a reactive view over one query's materialised Items.
type Tree struct {
	root          *TreeNode
	rootVirtual   bool
	rootSelections []query.EdgeSelection
	cb            Callbacks
}

// NewTree constructs an empty Tree for a query whose top-level edge
// selections are sels and whose root-level visibility is controlled by
// virtualRoot (spec §3 Query.virtual). Call Activate to populate it.
func NewTree(sels []query.EdgeSelection, virtualRoot bool) *Tree {
	root := &TreeNode{
		Selections:    []query.EdgeSelection{{Name: rootEdgeName}},
		ExpandedEdges: map[string]bool{rootEdgeName: true},
		Children:      map[string][]*TreeNode{},
		LazyCounts:    map[string]int{},
	}
	return &Tree{root: root, rootVirtual: virtualRoot, rootSelections: sels}
}

// SetCallbacks installs the owner's enter/leave hooks.
func (t *Tree) SetCallbacks(cb Callbacks) { t.cb = cb }

// Activate performs the tree's initial population from items, silently
// (no enter/leave fires for the initial state — only later mutations do).
// When eager is true, every non-virtual edge in the tree is additionally
// expanded transitively, matching spec §4.7's "activate(load_nested_existing)"
// (virtual edges always cascade regardless, since a virtual hop is never
// itself a usable expand/collapse target).
func (t *Tree) Activate(items []*executor.Item, eager bool) {
	saved := t.cb
	t.cb = Callbacks{}
	t.reconcile(t.root, rootEdgeName, t.rootSelection(), items)
	t.cb = saved
	if eager {
		for _, c := range t.root.Children[rootEdgeName] {
			t.expandAllNonVirtual(c)
		}
	}
}

// Reconcile folds a freshly re-materialised root item list into the live
// tree, firing Callbacks.OnEnter/OnLeave for whatever becomes newly
// visible or invisible anywhere in the tree — including inside edges
// expanded several levels deep (spec §4.7 "an insert into a nested
// expanded edge must be observed").
func (t *Tree) Reconcile(items []*executor.Item) {
	t.reconcile(t.root, rootEdgeName, t.rootSelection(), items)
}

func (t *Tree) rootSelection() query.EdgeSelection {
	return query.EdgeSelection{Name: rootEdgeName, Virtual: t.rootVirtual, Edges: t.rootSelections}
}

func (n *TreeNode) selfWeight() int {
	if n.Parent == nil || n.Virtual {
		return 0 // synthetic root container, or a virtual (never-visible) node
	}
	return 1
}

// recomputeOwn recomputes n.count from its direct children's current
// counts, without descending further — used after a single node's
// expansion state changes, so propagation up the ancestor spine sums
// only each ancestor's direct children and never revisits a whole
// subtree.
func recomputeOwn(n *TreeNode) {
	total := n.selfWeight()
	for _, sel := range n.Selections {
		if !n.ExpandedEdges[sel.Name] {
			continue
		}
		for _, c := range n.Children[sel.Name] {
			total += c.count
		}
	}
	n.count = total
}

func (t *Tree) propagate(n *TreeNode) {
	for cur := n; cur != nil; cur = cur.Parent {
		recomputeOwn(cur)
	}
}

// Total is the number of currently-visible rows in the whole tree.
func (t *Tree) Total() int { return t.root.count }

func selectionByName(sels []query.EdgeSelection, name string) (query.EdgeSelection, bool) {
	for _, s := range sels {
		if s.Name == name {
			return s, true
		}
	}
	return query.EdgeSelection{}, false
}

// ExpandById instantiates children for the first TreeNode matching
// nodeId that declares edgeName and is not already expanded on it
// (spec §4.7 "expandById(node_id, edge_name) ... marks the first
// TreeNode with that NodeId as expanded"). Returns false if no such node
// exists or it is already expanded.
func (t *Tree) ExpandById(nodeId graph.NodeId, edgeName string) bool {
	n := t.find(t.root, nodeId, edgeName, false)
	if n == nil {
		return false
	}
	t.expand(n, edgeName)
	return true
}

// CollapseById is ExpandById's inverse: detaches edgeName's children
// from the first matching, currently-expanded TreeNode.
func (t *Tree) CollapseById(nodeId graph.NodeId, edgeName string) bool {
	n := t.find(t.root, nodeId, edgeName, true)
	if n == nil {
		return false
	}
	t.collapse(n, edgeName)
	return true
}

// LazyChildCount returns how many targets edgeName currently has on the
// first TreeNode matching nodeId, without expanding it.
func (t *Tree) LazyChildCount(nodeId graph.NodeId, edgeName string) (int, bool) {
	n := t.find(t.root, nodeId, edgeName, false)
	if n == nil {
		n = t.find(t.root, nodeId, edgeName, true)
	}
	if n == nil {
		return 0, false
	}
	if n.ExpandedEdges[edgeName] {
		return len(n.Children[edgeName]), true
	}
	c, ok := n.LazyCounts[edgeName]
	return c, ok
}

func (t *Tree) find(n *TreeNode, nodeId graph.NodeId, edgeName string, wantExpanded bool) *TreeNode {
	if n.Item != nil && n.Item.Id == nodeId {
		if _, ok := selectionByName(n.Selections, edgeName); ok {
			if n.ExpandedEdges[edgeName] == wantExpanded {
				return n
			}
		}
	}
	for _, sel := range n.Selections {
		for _, c := range n.Children[sel.Name] {
			if found := t.find(c, nodeId, edgeName, wantExpanded); found != nil {
				return found
			}
		}
	}
	return nil
}

// newChild builds a TreeNode for item under parent, with selections/
// virtual as declared by the owning EdgeSelection. A virtual child
// always transitively instantiates and expands its own selections
// (spec §4.7 "the engine transitively descends through virtual children
// and expands them too"), since a virtual node is never itself a usable
// expand target — its descendants must already be attached for them to
// ever become visible.
func (t *Tree) newChild(item *executor.Item, parent *TreeNode, selections []query.EdgeSelection, virtual bool) *TreeNode {
	n := &TreeNode{
		Item:          item,
		Parent:        parent,
		Selections:    selections,
		Virtual:       virtual,
		ExpandedEdges: map[string]bool{},
		Children:      map[string][]*TreeNode{},
		LazyCounts:    map[string]int{},
	}
	if virtual {
		for _, s := range selections {
			n.ExpandedEdges[s.Name] = true
			childSel := executor.ChildSelections(s)
			var kids []*TreeNode
			for _, ci := range edgeItems(item, s.Name) {
				kids = append(kids, t.newChild(ci, n, childSel, s.Virtual))
			}
			n.Children[s.Name] = kids
		}
	}
	for _, s := range selections {
		if !n.ExpandedEdges[s.Name] {
			n.LazyCounts[s.Name] = len(edgeItems(item, s.Name))
		}
	}
	// A brand new node has no prior count to build on, unlike an existing
	// node being folded back in by reconcile — so it must seed its own
	// count bottom-up right here. Safe to do non-recursively: any virtual
	// cascade above already seeded its kids the same way, depth-first.
	recomputeOwn(n)
	return n
}

func edgeItems(item *executor.Item, edgeName string) []*executor.Item {
	if item == nil {
		return nil
	}
	return item.Edges[edgeName].Items
}

func (t *Tree) expand(n *TreeNode, edgeName string) {
	sel, ok := selectionByName(n.Selections, edgeName)
	if !ok || n.ExpandedEdges[edgeName] {
		return
	}
	childSel := executor.ChildSelections(sel)
	var children []*TreeNode
	for _, ci := range edgeItems(n.Item, edgeName) {
		children = append(children, t.newChild(ci, n, childSel, sel.Virtual))
	}
	n.Children[edgeName] = children
	n.ExpandedEdges[edgeName] = true
	t.propagate(n)
}

func (t *Tree) collapse(n *TreeNode, edgeName string) {
	if !n.ExpandedEdges[edgeName] {
		return
	}
	n.LazyCounts[edgeName] = len(n.Children[edgeName])
	delete(n.ExpandedEdges, edgeName)
	delete(n.Children, edgeName)
	t.propagate(n)
}

// expandAllNonVirtual recursively expands every selection on n and its
// descendants — used by Activate(eager=true) to eagerly materialise the
// whole initial tree rather than leaving it collapsed at the root.
func (t *Tree) expandAllNonVirtual(n *TreeNode) {
	for _, s := range n.Selections {
		if !n.ExpandedEdges[s.Name] {
			t.expand(n, s.Name)
		}
		for _, c := range n.Children[s.Name] {
			t.expandAllNonVirtual(c)
		}
	}
}

// reconcile diffs parent's current children for edgeName against
// newItems (a fresh materialisation of that same edge/root selection),
// reusing TreeNodes whose NodeId survives (refreshing their Item pointer
// and recursing into their own currently-expanded edges) and firing
// enter/leave for whatever structurally changed. If edgeName is not
// currently expanded, only the lazy child count is updated and no
// TreeNode work happens (spec §4.7 "Events for a collapsed edge ...
// emit no enter/leave").
func (t *Tree) reconcile(parent *TreeNode, edgeName string, sel query.EdgeSelection, newItems []*executor.Item) {
	if !parent.ExpandedEdges[edgeName] {
		parent.LazyCounts[edgeName] = len(newItems)
		return
	}

	childSel := executor.ChildSelections(sel)
	old := parent.Children[edgeName]
	oldById := oldByIdPool.Get()
	for _, c := range old {
		oldById[c.Item.Id] = c
	}

	consumedSet := make(map[graph.NodeId]bool, len(newItems))
	newList := make([]*TreeNode, 0, len(newItems))
	toEnter := enterLeavePool.Get()
	for _, ni := range newItems {
		if oc, ok := oldById[ni.Id]; ok {
			consumedSet[ni.Id] = true
			oc.Item = ni
			for _, cs := range oc.Selections {
				t.reconcile(oc, cs.Name, cs, edgeItems(ni, cs.Name))
			}
			newList = append(newList, oc)
			continue
		}
		nc := t.newChild(ni, parent, childSel, sel.Virtual)
		newList = append(newList, nc)
		toEnter = append(toEnter, nc)
	}

	toLeave := enterLeavePool.Get()
	for _, oc := range old {
		if !consumedSet[oc.Item.Id] {
			toLeave = append(toLeave, oc)
		}
	}

	// Fire leave before mutating parent's child list, per spec §4.7
	// "on_remove fires on_leave(item, offset) before detaching" — the
	// tree must still reflect the pre-removal state when offsets are
	// computed.
	for _, oc := range toLeave {
		t.fireLeave(oc)
	}

	parent.Children[edgeName] = newList
	t.propagate(parent)

	for _, nc := range toEnter {
		t.fireEnter(nc)
	}

	oldByIdPool.Put(oldById)
	enterLeavePool.Put(toEnter)
	enterLeavePool.Put(toLeave)
}

func (t *Tree) fireEnter(n *TreeNode) {
	if t.cb.OnEnter == nil {
		return
	}
	for _, v := range flattenVisible(n) {
		if idx, ok := t.IndexOf(v); ok {
			t.cb.OnEnter(v.Item, idx)
		}
	}
}

func (t *Tree) fireLeave(n *TreeNode) {
	if t.cb.OnLeave == nil {
		return
	}
	for _, v := range flattenVisible(n) {
		if idx, ok := t.IndexOf(v); ok {
			t.cb.OnLeave(v.Item, idx)
		}
	}
}

// flattenVisible returns n (unless virtual) followed by its visible
// descendants, in depth-first visible order.
func flattenVisible(n *TreeNode) []*TreeNode {
	var out []*TreeNode
	if !n.Virtual {
		out = append(out, n)
	}
	for _, sel := range n.Selections {
		if !n.ExpandedEdges[sel.Name] {
			continue
		}
		for _, c := range n.Children[sel.Name] {
			out = append(out, flattenVisible(c)...)
		}
	}
	return out
}

// NodeAtIndex returns the TreeNode at flattened visible position i.
func (t *Tree) NodeAtIndex(i int) (*TreeNode, bool) {
	if i < 0 || i >= t.root.count {
		return nil, false
	}
	return descend(t.root, i)
}

func descend(n *TreeNode, i int) (*TreeNode, bool) {
	if n.selfWeight() == 1 {
		if i == 0 {
			return n, true
		}
		i--
	}
	for _, sel := range n.Selections {
		if !n.ExpandedEdges[sel.Name] {
			continue
		}
		for _, c := range n.Children[sel.Name] {
			if i < c.count {
				return descend(c, i)
			}
			i -= c.count
		}
	}
	return nil, false
}

// IndexOf returns n's position in the flattened visible order, or false
// if n is not currently visible (an ancestor edge is collapsed).
func (t *Tree) IndexOf(n *TreeNode) (int, bool) {
	idx := 0
	cur := n
	for cur.Parent != nil {
		p := cur.Parent
		found := false
		for _, sel := range p.Selections {
			if !p.ExpandedEdges[sel.Name] {
				continue
			}
			for _, c := range p.Children[sel.Name] {
				if c == cur {
					found = true
					break
				}
				idx += c.count
			}
			if found {
				break
			}
		}
		if !found {
			return 0, false
		}
		idx += p.selfWeight()
		cur = p
	}
	return idx, true
}
