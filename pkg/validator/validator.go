// Package validator resolves a query against a schema before execution:
// every type, property, rollup and edge name it names must exist, and
// every sort must be backed by a declared index (spec §4.4).
package validator

import (
	"errors"
	"fmt"

	"github.com/Aetherall/neograph-sub001/pkg/index"
	"github.com/Aetherall/neograph-sub001/pkg/query"
	"github.com/Aetherall/neograph-sub001/pkg/schema"
)

// Error sentinels (spec §4.4 "Errors: UnknownType, UnknownProperty,
// UnknownEdge, TypeMismatch, NoSuitableIndex").
var (
	ErrUnknownType     = errors.New("validator: unknown type")
	ErrUnknownProperty = errors.New("validator: unknown property or rollup")
	ErrUnknownEdge     = errors.New("validator: unknown edge")
	ErrNoSuitableIndex = errors.New("validator: no index covers the root query's sort")
	ErrNoIndexCoverage = errors.New("validator: no index covers an edge selection's sort")
)

// Validate resolves q.RootType and walks every filter path, sort, and
// edge selection against sch, confirming IndexManager can cover every
// sort requested (root and nested). Returns the resolved root TypeId on
// success.
func Validate(sch *schema.Schema, idx *index.Manager, q *query.Query) (schema.TypeId, error) {
	t, ok := sch.TypeByName(q.RootType)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownType, q.RootType)
	}

	if q.RootId == nil {
		if _, ok := idx.SelectIndex(t.Id, q.Filters, q.Sorts); !ok {
			return 0, fmt.Errorf("%w: root type %q", ErrNoSuitableIndex, q.RootType)
		}
	}

	for i := range q.Filters {
		if err := validateFilterPath(sch, t, q.Filters[i]); err != nil {
			return 0, err
		}
	}
	for _, s := range q.Sorts {
		if !hasField(t, s.Field) {
			return 0, fmt.Errorf("%w: %q on type %q", ErrUnknownProperty, s.Field, t.Name)
		}
	}

	for i := range q.Edges {
		if err := validateEdgeSelection(sch, idx, t, &q.Edges[i]); err != nil {
			return 0, err
		}
	}
	return t.Id, nil
}

func validateEdgeSelection(sch *schema.Schema, idx *index.Manager, parent *schema.TypeDef, sel *query.EdgeSelection) error {
	e, ok := parent.EdgeByName(sel.Name)
	if !ok {
		return fmt.Errorf("%w: %q on type %q", ErrUnknownEdge, sel.Name, parent.Name)
	}
	target := sch.TypeById(e.TargetTypeId)

	for i := range sel.Filters {
		if err := validateFilterPath(sch, target, sel.Filters[i]); err != nil {
			return err
		}
	}
	for _, s := range sel.Sorts {
		if !hasField(target, s.Field) {
			return fmt.Errorf("%w: %q on type %q", ErrUnknownProperty, s.Field, target.Name)
		}
	}
	if len(sel.Sorts) > 0 {
		if _, ok := idx.SelectNestedIndex(target.Id, e.ReverseName, sel.Filters, sel.Sorts); !ok {
			return fmt.Errorf("%w: edge %q on type %q", ErrNoIndexCoverage, sel.Name, parent.Name)
		}
	}

	for i := range sel.Edges {
		if err := validateEdgeSelection(sch, idx, target, &sel.Edges[i]); err != nil {
			return err
		}
	}
	return nil
}

// validateFilterPath walks all but the last path segment as edge hops,
// then requires the final segment name a property or rollup on the
// type reached.
func validateFilterPath(sch *schema.Schema, root *schema.TypeDef, f query.Filter) error {
	t := root
	for _, edgeName := range f.EdgePath() {
		e, ok := t.EdgeByName(edgeName)
		if !ok {
			return fmt.Errorf("%w: %q on type %q", ErrUnknownEdge, edgeName, t.Name)
		}
		t = sch.TypeById(e.TargetTypeId)
	}
	if !hasField(t, f.FieldName()) {
		return fmt.Errorf("%w: %q on type %q", ErrUnknownProperty, f.FieldName(), t.Name)
	}
	return nil
}

func hasField(t *schema.TypeDef, name string) bool {
	if _, ok := t.PropertyByName(name); ok {
		return true
	}
	_, ok := t.RollupByName(name)
	return ok
}
