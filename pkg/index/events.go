package index

import "github.com/Aetherall/neograph-sub001/pkg/graph"

// HandleEvent keeps every index current after one graph mutation (spec
// §3 "Index entry: inserted/removed synchronously with the
// property/edge changes it depends on"). Registered with the tracker
// alongside the rollup cache; called once per dispatched event, after
// rollup invalidation so a recomputed rollup-backed index field sees the
// fresh value.
func (m *Manager) HandleEvent(e graph.Event) {
	switch e.Kind {
	case graph.EventNodeInsert, graph.EventNodeDelete:
		m.Reindex(e.NodeId)

	case graph.EventNodeUpdate:
		m.Reindex(e.NodeId)
		m.reindexDependents(e.NodeId, e.ChangedProperties)

	case graph.EventEdgeLink, graph.EventEdgeUnlink:
		m.Reindex(e.NodeId)
		m.Reindex(e.Target)
	}
}

// reindexDependents reindexes every neighbor whose edge-kind index field
// reads one of changedProps off id via a sorted edge (spec §4.2's
// edge-kind field stores the sort property of the first target).
func (m *Manager) reindexDependents(id graph.NodeId, changedProps []string) {
	n, ok := m.store.Get(id)
	if !ok {
		return
	}
	changed := make(map[string]bool, len(changedProps))
	for _, p := range changedProps {
		changed[p] = true
	}

	t := m.schema.TypeById(n.TypeId)
	for _, d := range t.Edges {
		otherType := m.schema.TypeById(d.TargetTypeId)
		fwd, ok := otherType.EdgeById(d.ReverseEdgeId)
		if !ok || fwd.Sort == nil || !changed[fwd.Sort.Property] {
			continue
		}
		for _, neighborId := range n.Edges[d.Id] {
			m.Reindex(neighborId)
		}
	}
}
