package index

import (
	"github.com/Aetherall/neograph-sub001/pkg/graph"
	"github.com/Aetherall/neograph-sub001/pkg/query"
	"github.com/Aetherall/neograph-sub001/pkg/value"
)

// Scan walks coverage's underlying index in tree order, yielding NodeIds
// whose key matches coverage.EqualityPrefix and every remaining filter in
// filters, without ever materialising an unordered slice and sorting it
// in memory (spec §4.2 "queries never sort in memory").
func (m *Manager) Scan(coverage *Coverage, filters []query.Filter) []graph.NodeId {
	st := m.byType[coverage.TypeId][coverage.IndexIdx]
	return m.walk(st, coverage, 0, filters)
}

// ScanWithEdgePrefix is Scan restricted to rows whose leading (kind=edge)
// key position equals sourceId — the edge-prefixed index scenario (spec
// §4.2) used to enumerate one node's reverse edge in sorted order without
// walking the edge's own (possibly unsorted) adjacency list.
func (m *Manager) ScanWithEdgePrefix(coverage *Coverage, sourceId graph.NodeId, filters []query.Filter) []graph.NodeId {
	st := m.byType[coverage.TypeId][coverage.IndexIdx]
	return m.walk(st, coverage, int64(sourceId), filters)
}

// walk performs a full in-order traversal of st's tree, keeping rows whose
// leading positions match edgeValue (only checked when coverage.Skip==1)
// followed by coverage.EqualityPrefix, and whose node satisfies every
// remaining filter. Matching rows already form one contiguous run (fixing
// leading key positions is always contiguous in lexicographic order), so
// this stops as soon as a non-empty run ends.
func (m *Manager) walk(st *indexState, coverage *Coverage, edgeValue int64, filters []query.Filter) []graph.NodeId {
	var out []graph.NodeId
	started := false
	st.tree.Ascend(func(e entry) bool {
		if !matchesPrefix(e, coverage, edgeValue) {
			if started {
				return false
			}
			return true
		}
		started = true
		if m.passesPostFilters(e.id, filters) {
			out = append(out, e.id)
		}
		return true
	})
	return out
}

func matchesPrefix(e entry, coverage *Coverage, edgeValue int64) bool {
	if coverage.Skip == 1 {
		if i, ok := e.key[0].Int(); !ok || i != edgeValue {
			return false
		}
	}
	for i, v := range coverage.EqualityPrefix {
		if !e.key[coverage.Skip+i].Equal(v) {
			return false
		}
	}
	return true
}

// passesPostFilters re-checks filters not already satisfied by the index
// equality prefix; empty filters always pass.
func (m *Manager) passesPostFilters(id graph.NodeId, filters []query.Filter) bool {
	if len(filters) == 0 {
		return true
	}
	n, ok := m.store.Get(id)
	if !ok {
		return false
	}
	for _, f := range filters {
		if len(f.Path) != 1 {
			// multi-hop filter paths are evaluated by the executor after
			// traversal, not here.
			continue
		}
		v, ok := n.Property(f.FieldName())
		if !ok {
			v = value.Null
			if m.rollups != nil {
				if rv, rok := m.rollups.Get(id, f.FieldName()); rok {
					v = rv
				}
			}
		}
		if !MatchOp(v, f) {
			return false
		}
	}
	return true
}

// MatchOp evaluates f's operator against v, shared by index-level
// post-filter checks and the executor's own filter evaluation.
func MatchOp(v value.Value, f query.Filter) bool {
	switch f.Op {
	case query.Eq:
		return v.Equal(f.Value)
	case query.Neq:
		return !v.Equal(f.Value)
	case query.Gt:
		return v.Compare(f.Value) > 0
	case query.Gte:
		return v.Compare(f.Value) >= 0
	case query.Lt:
		return v.Compare(f.Value) < 0
	case query.Lte:
		return v.Compare(f.Value) <= 0
	case query.In:
		for _, candidate := range f.Values {
			if v.Equal(candidate) {
				return true
			}
		}
		return false
	default:
		return false
	}
}
