package reactive

import (
	"github.com/Aetherall/neograph-sub001/pkg/executor"
	"github.com/Aetherall/neograph-sub001/pkg/graph"
	"github.com/Aetherall/neograph-sub001/pkg/index"
	"github.com/Aetherall/neograph-sub001/pkg/query"
	"github.com/Aetherall/neograph-sub001/pkg/subscription"
	"github.com/Aetherall/neograph-sub001/pkg/tracker"
)

// listenerFunc adapts a plain func(graph.Event) to tracker.Listener. It is
// registered through a pointer so tracker.Unregister can compare it (func
// values themselves are not comparable).
type listenerFunc func(graph.Event)

func (f *listenerFunc) HandleEvent(e graph.Event) { (*f)(e) }

// View is the windowed, live projection of one query over the graph
// (spec §4.7/§6): it owns a Subscription (which keeps a root-level
// ResultSet current against the tracker) and a Tree (which turns that
// ResultSet, plus whichever edges the caller has expanded, into a
// flattened visible ordering), and exposes a scrollable
// [offset, offset+limit) window over it.
//
// The Tree is reconciled by re-reading the Subscription's current Items
// after every dispatched event, rather than wiring the ResultSet's three
// structural callbacks directly: a single whole-list diff per event
// handles root insert/remove/move and nested-edge changes uniformly,
// which matters because a property change three levels deep changes
// nothing about a node's root-level position yet must still surface
// inside an expanded descendant edge (spec §4.7 "an insert into a nested
// expanded edge must be observed").
type View struct {
	sub        *subscription.Subscription
	tree       *Tree
	trk        *tracker.ChangeTracker
	listener   tracker.Listener
	registered bool
	offset     int
	limit      int
}

// New constructs a View over q (already validated) using coverage (the
// root-level IndexCoverage the caller resolved via validator/index). The
// View is inert until Activate is called.
func New(q *query.Query, coverage *index.Coverage, ex *executor.Executor, trk *tracker.ChangeTracker, limit int) *View {
	sub := subscription.New(q, coverage, ex)
	tree := NewTree(q.Edges, q.Virtual)
	v := &View{sub: sub, tree: tree, trk: trk, limit: limit}
	fn := listenerFunc(func(graph.Event) {
		v.tree.Reconcile(v.sub.Items())
	})
	v.listener = &fn
	return v
}

// Activate performs the initial materialisation (spec §6
// "activate(load_nested_existing)") and subscribes the view to the
// tracker so subsequent mutations keep it live. loadNestedExisting, when
// true, eagerly expands every non-virtual edge in the initial tree
// instead of leaving the root collapsed.
func (v *View) Activate(loadNestedExisting bool) error {
	if err := v.sub.Activate(); err != nil {
		return err
	}
	v.tree.Activate(v.sub.Items(), loadNestedExisting)
	if !v.registered {
		v.trk.Register(v.sub)
		v.trk.Register(v.listener)
		v.registered = true
	}
	return nil
}

// SetCallbacks registers the UI's enter/leave hooks (spec §6
// "setCallbacks({on_enter, on_leave, context})"; the context pointer the
// spec mentions is naturally just whatever state the caller's closures
// already capture in idiomatic Go).
func (v *View) SetCallbacks(cb Callbacks) { v.tree.SetCallbacks(cb) }

// ExpandById expands edgeName on the first visible TreeNode for nodeId.
func (v *View) ExpandById(nodeId graph.NodeId, edgeName string) bool {
	return v.tree.ExpandById(nodeId, edgeName)
}

// CollapseById is ExpandById's inverse.
func (v *View) CollapseById(nodeId graph.NodeId, edgeName string) bool {
	return v.tree.CollapseById(nodeId, edgeName)
}

// Total returns the number of currently visible rows across the whole
// tree (not just the viewport window).
func (v *View) Total() int { return v.tree.Total() }

// GetOffset returns the viewport's current starting offset.
func (v *View) GetOffset() int { return v.offset }

// ScrollTo clamps i to [0, total-limit] and sets it as the new offset.
func (v *View) ScrollTo(i int) {
	total := v.tree.Total()
	max := total - v.limit
	if max < 0 {
		max = 0
	}
	if i < 0 {
		i = 0
	}
	if i > max {
		i = max
	}
	v.offset = i
}

// Move scrolls by a relative delta.
func (v *View) Move(delta int) { v.ScrollTo(v.offset + delta) }

// Items returns up to limit Items starting at the current offset, in
// flattened visible order.
func (v *View) Items() []*executor.Item {
	total := v.tree.Total()
	end := v.offset + v.limit
	if end > total {
		end = total
	}
	if v.offset >= end {
		return nil
	}
	out := make([]*executor.Item, 0, end-v.offset)
	for i := v.offset; i < end; i++ {
		n, ok := v.tree.NodeAtIndex(i)
		if !ok {
			break
		}
		out = append(out, n.Item)
	}
	return out
}

// Deinit unsubscribes the view from the tracker. The view must not be
// used afterward.
func (v *View) Deinit() {
	if !v.registered {
		return
	}
	v.trk.Unregister(v.listener)
	v.trk.Unregister(v.sub)
	v.registered = false
}
