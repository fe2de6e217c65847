// Package schema declares the typed shape of a graph: entity types, their
// properties, their bidirectional edges (each optionally kept sorted by a
// target property), derived rollups, and covering indexes.
//
// A Schema is built once (typically from the external JSON form, which is
// an excluded collaborator here — see spec §1) via NewBuilder, and is
// immutable once Build succeeds. Build resolves every reverse edge,
// assigns TypeIds/EdgeIds by declaration order, and enforces the
// invariants listed in spec §3: reverse edges are mutual inverses, names
// are unique within a type, rollup/edge-sort references exist and are
// orderable.
package schema

import (
	"fmt"
)

// TypeId identifies a declared type by declaration order.
type TypeId uint16

// EdgeId identifies an edge, locally unique within its owning type.
type EdgeId uint16

// Direction is the sort/index direction.
type Direction uint8

const (
	Asc Direction = iota
	Desc
)

// PropertyType restricts a PropertyDef to one of the four scalar shapes a
// Value can hold (see pkg/value).
type PropertyType uint8

const (
	PropString PropertyType = iota
	PropInt
	PropNumber
	PropBool
)

// PropertyDef declares one property on a TypeDef.
type PropertyDef struct {
	Name string
	Type PropertyType
}

// EdgeSort declares that a forward edge list is kept sorted by a target
// property.
type EdgeSort struct {
	Property  string
	Direction Direction
}

// EdgeDef declares one directed relation on a TypeDef, always paired with
// a reverse EdgeDef on the target type.
type EdgeDef struct {
	Id             EdgeId
	Name           string
	TargetTypeName string
	TargetTypeId   TypeId // resolved by Build
	ReverseName    string
	ReverseEdgeId  EdgeId // resolved by Build
	Sort           *EdgeSort
}

// RollupKind tags which derived-value computation a RollupDef performs.
type RollupKind uint8

const (
	RollupCount RollupKind = iota
	RollupTraverse
	RollupFirst
	RollupLast
)

// RollupDef declares one derived value on a TypeDef.
//
// Field use by Kind:
//   - count:    Edge
//   - traverse: Edge, Property
//   - first/last: Edge, Field, Direction, Property (Property optional: if
//     empty, the rollup yields the target NodeId packed as a Value.Int
//     rather than one of its properties)
type RollupDef struct {
	Name      string
	Kind      RollupKind
	Edge      string
	Property  string
	Field     string
	Direction Direction
}

// IndexFieldKind distinguishes a plain property index position from an
// edge-prefixed one.
type IndexFieldKind uint8

const (
	IndexFieldProperty IndexFieldKind = iota
	IndexFieldEdge
)

// IndexField is one position in a composite index key.
type IndexField struct {
	Name      string // property/rollup name, or edge name when Kind==IndexFieldEdge
	Direction Direction
	Kind      IndexFieldKind
}

// IndexDef declares one covering index on a TypeDef.
type IndexDef struct {
	Fields []IndexField
}

// TypeDef declares one entity type.
type TypeDef struct {
	Name       string
	Id         TypeId
	Properties []PropertyDef
	Edges      []EdgeDef
	Rollups    []RollupDef
	Indexes    []IndexDef
}

// PropertyByName returns the PropertyDef named name, if any.
func (t *TypeDef) PropertyByName(name string) (PropertyDef, bool) {
	for _, p := range t.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return PropertyDef{}, false
}

// EdgeByName returns the EdgeDef named name, if any.
func (t *TypeDef) EdgeByName(name string) (*EdgeDef, bool) {
	for i := range t.Edges {
		if t.Edges[i].Name == name {
			return &t.Edges[i], true
		}
	}
	return nil, false
}

// EdgeById returns the EdgeDef with the given id, if any.
func (t *TypeDef) EdgeById(id EdgeId) (*EdgeDef, bool) {
	for i := range t.Edges {
		if t.Edges[i].Id == id {
			return &t.Edges[i], true
		}
	}
	return nil, false
}

// RollupByName returns the RollupDef named name, if any.
func (t *TypeDef) RollupByName(name string) (RollupDef, bool) {
	for _, r := range t.Rollups {
		if r.Name == name {
			return r, true
		}
	}
	return RollupDef{}, false
}

// Schema is an immutable, resolved set of TypeDefs.
type Schema struct {
	interner *StringInterner
	types    []TypeDef
	byName   map[string]TypeId
}

// TypeByName resolves a type name to its TypeDef, ok is false if unknown.
func (s *Schema) TypeByName(name string) (*TypeDef, bool) {
	id, ok := s.byName[name]
	if !ok {
		return nil, false
	}
	return &s.types[id], true
}

// TypeById returns the TypeDef for id. Panics if id is out of range,
// which can only happen if the caller holds a TypeId from a different
// Schema.
func (s *Schema) TypeById(id TypeId) *TypeDef {
	return &s.types[id]
}

// Types returns the declared types in declaration order. The slice must
// not be mutated.
func (s *Schema) Types() []TypeDef { return s.types }

// Interner returns the schema's StringInterner, so callers building
// queries can intern borrowed strings from the same table the schema
// uses (spec §3 "Queries may either borrow strings from the schema
// interner or own duplicated strings").
func (s *Schema) Interner() *StringInterner { return s.interner }

// Builder assembles a Schema incrementally and validates it on Build.
type Builder struct {
	interner *StringInterner
	types    []TypeDef
	byName   map[string]TypeId
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		interner: NewStringInterner(),
		byName:   make(map[string]TypeId),
	}
}

// AddType declares one type. name must be unique across the schema.
// Edge TargetTypeId/ReverseEdgeId are resolved by Build, not here, since
// edges may reference types declared later.
func (b *Builder) AddType(t TypeDef) (TypeId, error) {
	name := b.interner.Intern(t.Name)
	if _, exists := b.byName[name]; exists {
		return 0, fmt.Errorf("schema: duplicate type name %q", name)
	}
	id := TypeId(len(b.types))
	t.Name = name
	t.Id = id

	seenProp := make(map[string]bool, len(t.Properties))
	for i, p := range t.Properties {
		p.Name = b.interner.Intern(p.Name)
		if seenProp[p.Name] {
			return 0, fmt.Errorf("schema: type %q: duplicate property name %q", name, p.Name)
		}
		seenProp[p.Name] = true
		t.Properties[i] = p
	}

	seenEdge := make(map[string]bool, len(t.Edges))
	for i, e := range t.Edges {
		e.Name = b.interner.Intern(e.Name)
		e.TargetTypeName = b.interner.Intern(e.TargetTypeName)
		e.ReverseName = b.interner.Intern(e.ReverseName)
		e.Id = EdgeId(i)
		if seenEdge[e.Name] {
			return 0, fmt.Errorf("schema: type %q: duplicate edge name %q", name, e.Name)
		}
		seenEdge[e.Name] = true
		if seenProp[e.Name] {
			return 0, fmt.Errorf("schema: type %q: edge %q collides with a property name", name, e.Name)
		}
		t.Edges[i] = e
	}

	b.byName[name] = id
	b.types = append(b.types, t)
	return id, nil
}

// Build resolves reverse edges and enforces spec §3's schema-load
// invariants, returning the immutable Schema on success.
func (b *Builder) Build() (*Schema, error) {
	for ti := range b.types {
		for ei := range b.types[ti].Edges {
			e := &b.types[ti].Edges[ei]
			targetId, ok := b.byName[e.TargetTypeName]
			if !ok {
				return nil, fmt.Errorf("schema: type %q: edge %q: unknown target type %q", b.types[ti].Name, e.Name, e.TargetTypeName)
			}
			e.TargetTypeId = targetId

			target := &b.types[targetId]
			rev, ok := target.EdgeByName(e.ReverseName)
			if !ok {
				return nil, fmt.Errorf("schema: type %q: edge %q: missing reverse edge %q on %q", b.types[ti].Name, e.Name, e.ReverseName, target.Name)
			}
			if rev.TargetTypeName != b.types[ti].Name {
				return nil, fmt.Errorf("schema: type %q: edge %q: reverse edge %q on %q does not target back", b.types[ti].Name, e.Name, e.ReverseName, target.Name)
			}
			if rev.ReverseName != e.Name {
				return nil, fmt.Errorf("schema: type %q: edge %q and %q.%q are not mutual inverses", b.types[ti].Name, e.Name, target.Name, rev.Name)
			}
			e.ReverseEdgeId = rev.Id

			if e.Sort != nil {
				prop, ok := target.PropertyByName(e.Sort.Property)
				if !ok {
					return nil, fmt.Errorf("schema: type %q: edge %q: sort property %q not declared on %q", b.types[ti].Name, e.Name, e.Sort.Property, target.Name)
				}
				if !orderable(prop.Type) {
					return nil, fmt.Errorf("schema: type %q: edge %q: sort property %q is not orderable", b.types[ti].Name, e.Name, e.Sort.Property)
				}
			}
		}

	}

	for ti := range b.types {
		for _, r := range b.types[ti].Rollups {
			if err := b.validateRollup(&b.types[ti], r); err != nil {
				return nil, err
			}
		}

		for _, idx := range b.types[ti].Indexes {
			if err := validateIndex(&b.types[ti], idx); err != nil {
				return nil, err
			}
		}
	}

	return &Schema{interner: b.interner, types: b.types, byName: b.byName}, nil
}

func orderable(t PropertyType) bool {
	switch t {
	case PropString, PropInt, PropNumber, PropBool:
		return true
	default:
		return false
	}
}

func (b *Builder) validateRollup(t *TypeDef, r RollupDef) error {
	edge, ok := t.EdgeByName(r.Edge)
	if !ok {
		return fmt.Errorf("schema: type %q: rollup %q: unknown edge %q", t.Name, r.Name, r.Edge)
	}
	target := &b.types[edge.TargetTypeId]

	switch r.Kind {
	case RollupCount:
		return nil
	case RollupTraverse:
		if r.Property == "" {
			return fmt.Errorf("schema: type %q: rollup %q: traverse requires a property", t.Name, r.Name)
		}
		if _, ok := target.PropertyByName(r.Property); !ok {
			return fmt.Errorf("schema: type %q: rollup %q: property %q not declared on %q", t.Name, r.Name, r.Property, target.Name)
		}
		return nil
	case RollupFirst, RollupLast:
		if r.Field == "" {
			return fmt.Errorf("schema: type %q: rollup %q: first/last requires a field", t.Name, r.Name)
		}
		fieldProp, ok := target.PropertyByName(r.Field)
		if !ok {
			return fmt.Errorf("schema: type %q: rollup %q: field %q not declared on %q", t.Name, r.Name, r.Field, target.Name)
		}
		if !orderable(fieldProp.Type) {
			return fmt.Errorf("schema: type %q: rollup %q: field %q is not orderable", t.Name, r.Name, r.Field)
		}
		if r.Property != "" {
			if _, ok := target.PropertyByName(r.Property); !ok {
				return fmt.Errorf("schema: type %q: rollup %q: property %q not declared on %q", t.Name, r.Name, r.Property, target.Name)
			}
		}
		return nil
	default:
		return fmt.Errorf("schema: type %q: rollup %q: unknown rollup kind", t.Name, r.Name)
	}
}

func validateIndex(t *TypeDef, idx IndexDef) error {
	if len(idx.Fields) == 0 {
		return fmt.Errorf("schema: type %q: index has no fields", t.Name)
	}
	for _, f := range idx.Fields {
		switch f.Kind {
		case IndexFieldProperty:
			if _, ok := t.PropertyByName(f.Name); !ok {
				if _, ok := t.RollupByName(f.Name); !ok {
					return fmt.Errorf("schema: type %q: index field %q is not a declared property or rollup", t.Name, f.Name)
				}
			}
		case IndexFieldEdge:
			if _, ok := t.EdgeByName(f.Name); !ok {
				return fmt.Errorf("schema: type %q: index field %q is not a declared edge", t.Name, f.Name)
			}
		}
	}
	return nil
}
