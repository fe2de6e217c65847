package rollup

import (
	"github.com/Aetherall/neograph-sub001/pkg/graph"
	"github.com/Aetherall/neograph-sub001/pkg/schema"
)

// HandleEvent invalidates every cached rollup value one graph mutation can
// affect (spec §4.3). Registered with the tracker; called once per
// dispatched event, before index.Manager.HandleEvent so a stale rollup
// value is never read back into a rollup-backed index field.
func (c *Cache) HandleEvent(e graph.Event) {
	switch e.Kind {
	case graph.EventNodeDelete:
		c.invalidateAll(e.NodeId)

	case graph.EventNodeUpdate:
		c.invalidateDependents(e.NodeId, e.ChangedProperties)

	case graph.EventEdgeLink, graph.EventEdgeUnlink:
		c.invalidateEdge(e.NodeId, e.Edge)
		c.invalidateReverseEdge(e.TypeId, e.Edge, e.Target)
	}
}

// invalidateAll drops every rollup cached for id, across every type (the
// type is no longer known once the node is gone).
func (c *Cache) invalidateAll(id graph.NodeId) {
	for _, byEdge := range c.byEdge {
		for _, rollups := range byEdge {
			for _, r := range rollups {
				c.invalidate(id, r.Name)
			}
		}
	}
}

// invalidateEdge drops id's rollups that depend on edgeId's membership or
// ordering. All four kinds qualify (spec §4.3: count/traverse/first/last
// are each "invalidated on link/unlink touching that edge").
func (c *Cache) invalidateEdge(id graph.NodeId, edgeId schema.EdgeId) {
	n, ok := c.store.Get(id)
	if !ok {
		return
	}
	for _, r := range c.byEdge[n.TypeId][edgeId] {
		c.invalidate(id, r.Name)
	}
}

// invalidateReverseEdge invalidates target's rollups over the mirror edge
// of (source, edgeId): a link/unlink mutates both adjacency lists, so
// both sides' edge-dependent rollups can change. The source's type comes
// from the event rather than the store, because the edge_unlink events a
// Delete emits arrive after the source node is already gone.
func (c *Cache) invalidateReverseEdge(srcTypeId schema.TypeId, edgeId schema.EdgeId, target graph.NodeId) {
	srcType := c.schema.TypeById(srcTypeId)
	e, ok := srcType.EdgeById(edgeId)
	if !ok {
		return
	}
	c.invalidateEdge(target, e.ReverseEdgeId)
}

// invalidateDependents invalidates:
//   - traverse rollups on any neighbor S that reads one of changedProps
//     off id and currently treats id as the first target, and
//   - first/last rollups on any neighbor S whose ordering Field is one of
//     changedProps (membership aside, any target's ordering key moving can
//     change which target is first/last).
func (c *Cache) invalidateDependents(id graph.NodeId, changedProps []string) {
	n, ok := c.store.Get(id)
	if !ok {
		return
	}
	changed := make(map[string]bool, len(changedProps))
	for _, p := range changedProps {
		changed[p] = true
	}

	t := c.schema.TypeById(n.TypeId)
	for _, d := range t.Edges {
		otherType := c.schema.TypeById(d.TargetTypeId)
		fwd, ok := otherType.EdgeById(d.ReverseEdgeId)
		if !ok {
			continue
		}
		for _, r := range c.byEdge[otherType.Id][fwd.Id] {
			switch r.Kind {
			case schema.RollupTraverse:
				if !changed[r.Property] {
					continue
				}
				for _, sourceId := range n.Edges[d.Id] {
					if source, ok := c.store.Get(sourceId); ok {
						if targets := source.TargetsOf(fwd.Id); len(targets) > 0 && targets[0] == id {
							c.invalidate(sourceId, r.Name)
						}
					}
				}
			case schema.RollupFirst, schema.RollupLast:
				if !changed[r.Field] {
					continue
				}
				for _, sourceId := range n.Edges[d.Id] {
					c.invalidate(sourceId, r.Name)
				}
			}
		}
	}
}
