package index

import (
	"github.com/Aetherall/neograph-sub001/pkg/query"
	"github.com/Aetherall/neograph-sub001/pkg/schema"
	"github.com/Aetherall/neograph-sub001/pkg/value"
)

// Coverage describes how well one declared index satisfies a query's
// sort+filter shape (spec §4.2).
type Coverage struct {
	TypeId schema.TypeId
	// IndexIdx is the position of the chosen IndexDef within
	// TypeDef.Indexes.
	IndexIdx int
	// Skip is 1 for nested (edge-prefixed) coverage, where field 0 is
	// bound at scan time to a source NodeId rather than via
	// EqualityPrefix; 0 for root coverage.
	Skip int
	// SortPrefix is the count of leading (post-Skip, post-equality)
	// fields that satisfy the query's sorts, in order and direction.
	SortPrefix int
	// EqualityPrefix holds the values bound to the fields immediately
	// after Skip, narrowing the scan before the sort-matching fields.
	EqualityPrefix []value.Value
	// PostFilters must be re-checked against each scanned node.
	PostFilters []query.Filter
}

func fieldsOf(sch *schema.Schema, typeId schema.TypeId) []schema.IndexDef {
	return sch.TypeById(typeId).Indexes
}

// SelectIndex chooses the best covering index for a root query (spec
// §4.2). Returns (nil, false) if no index yields SortPrefix ==
// len(sorts); the validator and the engine then reject the query with
// NoSuitableIndex.
func (m *Manager) SelectIndex(typeId schema.TypeId, filters []query.Filter, sorts []query.Sort) (*Coverage, bool) {
	var best *Coverage
	for idx, def := range fieldsOf(m.schema, typeId) {
		if len(def.Fields) > 0 && def.Fields[0].Kind == schema.IndexFieldEdge {
			continue // root queries have no source to bind an edge prefix to
		}
		cov := matchIndex(typeId, idx, def, 0, filters, sorts)
		if cov.SortPrefix != len(sorts) {
			continue
		}
		if best == nil || better(cov, best) {
			best = cov
		}
	}
	return best, best != nil
}

// SelectNestedIndex chooses a covering edge-prefixed index for traversing
// reverseEdgeName in sorted order (spec §4.2), restricted to indexes
// whose leading field is kind=edge and names reverseEdgeName.
func (m *Manager) SelectNestedIndex(targetTypeId schema.TypeId, reverseEdgeName string, filters []query.Filter, sorts []query.Sort) (*Coverage, bool) {
	var best *Coverage
	for idx, def := range fieldsOf(m.schema, targetTypeId) {
		if len(def.Fields) == 0 || def.Fields[0].Kind != schema.IndexFieldEdge || def.Fields[0].Name != reverseEdgeName {
			continue
		}
		cov := matchIndex(targetTypeId, idx, def, 1, filters, sorts)
		if cov.SortPrefix != len(sorts) {
			continue
		}
		if best == nil || better(cov, best) {
			best = cov
		}
	}
	return best, best != nil
}

// matchIndex greedily consumes leading equality filters (skip-adjusted)
// then matches remaining fields against sorts in order/direction.
func matchIndex(typeId schema.TypeId, idx int, def schema.IndexDef, skip int, filters []query.Filter, sorts []query.Sort) *Coverage {
	fields := def.Fields
	pos := skip
	var eqPrefix []value.Value
	consumed := make(map[int]bool)

	for pos < len(fields) {
		f := fields[pos]
		if f.Kind != schema.IndexFieldProperty {
			break
		}
		fi, v, ok := findEquality(filters, f.Name, consumed)
		if !ok {
			break
		}
		consumed[fi] = true
		eqPrefix = append(eqPrefix, v)
		pos++
	}

	sortPrefix := 0
	for pos+sortPrefix < len(fields) && sortPrefix < len(sorts) {
		f := fields[pos+sortPrefix]
		s := sorts[sortPrefix]
		if f.Kind == schema.IndexFieldProperty && f.Name == s.Field && f.Direction == s.Direction {
			sortPrefix++
			continue
		}
		break
	}

	var post []query.Filter
	for i, flt := range filters {
		if !consumed[i] {
			post = append(post, flt)
		}
	}

	return &Coverage{
		TypeId:         typeId,
		IndexIdx:       idx,
		Skip:           skip,
		SortPrefix:     sortPrefix,
		EqualityPrefix: eqPrefix,
		PostFilters:    post,
	}
}

// findEquality looks for an unconsumed single-segment Eq filter on name.
func findEquality(filters []query.Filter, name string, consumed map[int]bool) (int, value.Value, bool) {
	for i, f := range filters {
		if consumed[i] || f.Op != query.Eq || len(f.Path) != 1 || f.Path[0] != name {
			continue
		}
		return i, f.Value, true
	}
	return 0, value.Value{}, false
}

// better implements selection preference (2) fewer post_filters, then
// (3) tighter (longer) equality prefix. Preference (1) — sort-prefix
// match — is already required equal (both candidates fully cover sorts)
// by the time better is called.
func better(a, b *Coverage) bool {
	if len(a.PostFilters) != len(b.PostFilters) {
		return len(a.PostFilters) < len(b.PostFilters)
	}
	return len(a.EqualityPrefix) > len(b.EqualityPrefix)
}
