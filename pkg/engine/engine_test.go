package engine_test

import (
	"testing"

	"github.com/Aetherall/neograph-sub001/pkg/engine"
	"github.com/Aetherall/neograph-sub001/pkg/executor"
	"github.com/Aetherall/neograph-sub001/pkg/query"
	"github.com/Aetherall/neograph-sub001/pkg/reactive"
	"github.com/Aetherall/neograph-sub001/pkg/schema"
	"github.com/Aetherall/neograph-sub001/pkg/value"
	"github.com/stretchr/testify/require"
)

// S1 (spec §8): schema User(name,age) indexed by name asc; inserting
// "C","A","B" and querying sort-by-name yields A,B,C.
func TestEngineOrdersByIndexedSort(t *testing.T) {
	b := schema.NewBuilder()
	_, err := b.AddType(schema.TypeDef{
		Name: "User",
		Properties: []schema.PropertyDef{
			{Name: "name", Type: schema.PropString},
			{Name: "age", Type: schema.PropInt},
		},
		Indexes: []schema.IndexDef{
			{Fields: []schema.IndexField{{Name: "name", Kind: schema.IndexFieldProperty, Direction: schema.Asc}}},
			{Fields: []schema.IndexField{{Name: "age", Kind: schema.IndexFieldProperty, Direction: schema.Desc}}},
		},
	})
	require.NoError(t, err)
	sch, err := b.Build()
	require.NoError(t, err)

	e, err := engine.New(sch, engine.DefaultOptions())
	require.NoError(t, err)

	for _, n := range []string{"C", "A", "B"} {
		id, err := e.Insert("User")
		require.NoError(t, err)
		require.NoError(t, e.Update(id, map[string]value.Value{"name": value.String(n)}))
	}

	v, err := e.View(&query.Query{RootType: "User", Sorts: []query.Sort{{Field: "name", Direction: schema.Asc}}}, 10)
	require.NoError(t, err)
	require.NoError(t, v.Activate(false))

	items := v.Items()
	require.Len(t, items, 3)
	got := make([]string, len(items))
	for i, it := range items {
		s, _ := it.Fields["name"].String()
		got[i] = s
	}
	require.Equal(t, []string{"A", "B", "C"}, got)
}

// S2 (spec §8): deleting a User cascades unlink on its Posts.
func TestEngineDeleteCascadesUnlink(t *testing.T) {
	b := schema.NewBuilder()
	_, err := b.AddType(schema.TypeDef{
		Name:       "User",
		Properties: []schema.PropertyDef{{Name: "name", Type: schema.PropString}},
		Edges: []schema.EdgeDef{
			{Name: "posts", TargetTypeName: "Post", ReverseName: "author"},
		},
		Indexes: []schema.IndexDef{
			{Fields: []schema.IndexField{{Name: "name", Kind: schema.IndexFieldProperty, Direction: schema.Asc}}},
		},
	})
	require.NoError(t, err)
	_, err = b.AddType(schema.TypeDef{
		Name:       "Post",
		Properties: []schema.PropertyDef{{Name: "title", Type: schema.PropString}},
		Edges: []schema.EdgeDef{
			{Name: "author", TargetTypeName: "User", ReverseName: "posts"},
		},
		Indexes: []schema.IndexDef{
			{Fields: []schema.IndexField{{Name: "title", Kind: schema.IndexFieldProperty, Direction: schema.Asc}}},
		},
	})
	require.NoError(t, err)
	sch, err := b.Build()
	require.NoError(t, err)

	e, err := engine.New(sch, engine.DefaultOptions())
	require.NoError(t, err)

	u1, err := e.Insert("User")
	require.NoError(t, err)
	p1, err := e.Insert("Post")
	require.NoError(t, err)
	require.NoError(t, e.Update(p1, map[string]value.Value{"title": value.String("hello")}))
	require.NoError(t, e.Link(p1, "author", u1))
	require.NoError(t, e.Unlink(p1, "author", u1))
	require.NoError(t, e.Link(p1, "author", u1))

	require.NoError(t, e.Delete(u1))

	v, err := e.View(&query.Query{RootType: "Post", RootId: &p1, Edges: []query.EdgeSelection{{Name: "author"}}}, 10)
	require.NoError(t, err)
	require.NoError(t, v.Activate(false))
	items := v.Items()
	require.Len(t, items, 1)
	require.Empty(t, items[0].Edges["author"].Items)
}

// S3 (spec §8): Parent->Child->Item chain; expanding children and items
// then linking a new Item under the already-expanded Child fires exactly
// one on_enter and grows total by 1.
func TestEngineNestedExpandedEdgeObservesInsert(t *testing.T) {
	b := schema.NewBuilder()
	_, err := b.AddType(schema.TypeDef{
		Name:       "Parent",
		Properties: []schema.PropertyDef{{Name: "name", Type: schema.PropString}},
		Edges:      []schema.EdgeDef{{Name: "children", TargetTypeName: "Child", ReverseName: "parent"}},
		Indexes:    []schema.IndexDef{{Fields: []schema.IndexField{{Name: "name", Kind: schema.IndexFieldProperty, Direction: schema.Asc}}}},
	})
	require.NoError(t, err)
	_, err = b.AddType(schema.TypeDef{
		Name:       "Child",
		Properties: []schema.PropertyDef{{Name: "name", Type: schema.PropString}},
		Edges: []schema.EdgeDef{
			{Name: "parent", TargetTypeName: "Parent", ReverseName: "children"},
			{Name: "items", TargetTypeName: "Item", ReverseName: "owner"},
		},
		Indexes: []schema.IndexDef{
			{Fields: []schema.IndexField{{Name: "name", Kind: schema.IndexFieldProperty, Direction: schema.Asc}}},
			{Fields: []schema.IndexField{
				{Name: "parent", Kind: schema.IndexFieldEdge, Direction: schema.Asc},
				{Name: "name", Kind: schema.IndexFieldProperty, Direction: schema.Asc},
			}},
		},
	})
	require.NoError(t, err)
	_, err = b.AddType(schema.TypeDef{
		Name:       "Item",
		Properties: []schema.PropertyDef{{Name: "name", Type: schema.PropString}},
		Edges:      []schema.EdgeDef{{Name: "owner", TargetTypeName: "Child", ReverseName: "items"}},
		Indexes: []schema.IndexDef{
			{Fields: []schema.IndexField{{Name: "name", Kind: schema.IndexFieldProperty, Direction: schema.Asc}}},
			{Fields: []schema.IndexField{
				{Name: "owner", Kind: schema.IndexFieldEdge, Direction: schema.Asc},
				{Name: "name", Kind: schema.IndexFieldProperty, Direction: schema.Asc},
			}},
		},
	})
	require.NoError(t, err)
	sch, err := b.Build()
	require.NoError(t, err)

	e, err := engine.New(sch, engine.DefaultOptions())
	require.NoError(t, err)

	p, err := e.Insert("Parent")
	require.NoError(t, err)
	require.NoError(t, e.Update(p, map[string]value.Value{"name": value.String("p")}))
	c, err := e.Insert("Child")
	require.NoError(t, err)
	require.NoError(t, e.Update(c, map[string]value.Value{"name": value.String("c")}))
	require.NoError(t, e.Link(p, "children", c))

	v, err := e.View(&query.Query{
		RootType: "Parent",
		Sorts:    []query.Sort{{Field: "name", Direction: schema.Asc}},
		Edges: []query.EdgeSelection{{
			Name:  "children",
			Sorts: []query.Sort{{Field: "name", Direction: schema.Asc}},
			Edges: []query.EdgeSelection{{Name: "items", Sorts: []query.Sort{{Field: "name", Direction: schema.Asc}}}},
		}},
	}, 10)
	require.NoError(t, err)
	require.NoError(t, v.Activate(false))
	require.Equal(t, 1, v.Total())

	require.True(t, v.ExpandById(p, "children"))
	require.Equal(t, 2, v.Total())
	require.True(t, v.ExpandById(c, "items"))
	require.Equal(t, 2, v.Total())

	var enterCount int
	var lastEntered *executor.Item
	v.SetCallbacks(reactive.Callbacks{
		OnEnter: func(it *executor.Item, _ int) {
			enterCount++
			lastEntered = it
		},
	})

	i1, err := e.Insert("Item")
	require.NoError(t, err)
	require.NoError(t, e.Update(i1, map[string]value.Value{"name": value.String("i1")}))
	require.NoError(t, e.Link(c, "items", i1))

	require.Equal(t, 3, v.Total())
	require.Equal(t, 1, enterCount)
	require.NotNil(t, lastEntered)
	require.Equal(t, i1, lastEntered.Id)

	items := v.Items()
	require.Len(t, items, 3)
	require.Equal(t, p, items[0].Id)
	require.Equal(t, c, items[1].Id)
	require.Equal(t, i1, items[2].Id)
}

// S5 (spec §8): a virtual "children" selection hides Child from items()
// but, once expanded, its own nested Items surface directly under Parent.
func TestEngineVirtualEdgeHidesIntermediateHop(t *testing.T) {
	b := schema.NewBuilder()
	_, err := b.AddType(schema.TypeDef{
		Name:       "Parent",
		Properties: []schema.PropertyDef{{Name: "name", Type: schema.PropString}},
		Edges:      []schema.EdgeDef{{Name: "children", TargetTypeName: "Child", ReverseName: "parent"}},
		Indexes:    []schema.IndexDef{{Fields: []schema.IndexField{{Name: "name", Kind: schema.IndexFieldProperty, Direction: schema.Asc}}}},
	})
	require.NoError(t, err)
	_, err = b.AddType(schema.TypeDef{
		Name:       "Child",
		Properties: []schema.PropertyDef{{Name: "name", Type: schema.PropString}},
		Edges: []schema.EdgeDef{
			{Name: "parent", TargetTypeName: "Parent", ReverseName: "children"},
			{Name: "items", TargetTypeName: "Item", ReverseName: "owner"},
		},
		Indexes: []schema.IndexDef{
			{Fields: []schema.IndexField{{Name: "name", Kind: schema.IndexFieldProperty, Direction: schema.Asc}}},
			{Fields: []schema.IndexField{
				{Name: "parent", Kind: schema.IndexFieldEdge, Direction: schema.Asc},
				{Name: "name", Kind: schema.IndexFieldProperty, Direction: schema.Asc},
			}},
		},
	})
	require.NoError(t, err)
	_, err = b.AddType(schema.TypeDef{
		Name:       "Item",
		Properties: []schema.PropertyDef{{Name: "name", Type: schema.PropString}},
		Edges:      []schema.EdgeDef{{Name: "owner", TargetTypeName: "Child", ReverseName: "items"}},
		Indexes: []schema.IndexDef{
			{Fields: []schema.IndexField{{Name: "name", Kind: schema.IndexFieldProperty, Direction: schema.Asc}}},
			{Fields: []schema.IndexField{
				{Name: "owner", Kind: schema.IndexFieldEdge, Direction: schema.Asc},
				{Name: "name", Kind: schema.IndexFieldProperty, Direction: schema.Asc},
			}},
		},
	})
	require.NoError(t, err)
	sch, err := b.Build()
	require.NoError(t, err)

	e, err := engine.New(sch, engine.DefaultOptions())
	require.NoError(t, err)

	p, err := e.Insert("Parent")
	require.NoError(t, err)
	require.NoError(t, e.Update(p, map[string]value.Value{"name": value.String("p")}))
	c, err := e.Insert("Child")
	require.NoError(t, err)
	require.NoError(t, e.Update(c, map[string]value.Value{"name": value.String("c")}))
	require.NoError(t, e.Link(p, "children", c))
	i1, err := e.Insert("Item")
	require.NoError(t, err)
	require.NoError(t, e.Update(i1, map[string]value.Value{"name": value.String("i1")}))
	require.NoError(t, e.Link(c, "items", i1))
	i2, err := e.Insert("Item")
	require.NoError(t, err)
	require.NoError(t, e.Update(i2, map[string]value.Value{"name": value.String("i2")}))
	require.NoError(t, e.Link(c, "items", i2))

	v, err := e.View(&query.Query{
		RootType: "Parent",
		Sorts:    []query.Sort{{Field: "name", Direction: schema.Asc}},
		Edges: []query.EdgeSelection{{
			Name:    "children",
			Virtual: true,
			Sorts:   []query.Sort{{Field: "name", Direction: schema.Asc}},
			Edges:   []query.EdgeSelection{{Name: "items", Sorts: []query.Sort{{Field: "name", Direction: schema.Asc}}}},
		}},
	}, 10)
	require.NoError(t, err)
	require.NoError(t, v.Activate(false))
	require.Equal(t, 1, v.Total())

	require.True(t, v.ExpandById(p, "children"))
	require.Equal(t, 3, v.Total())

	items := v.Items()
	require.Len(t, items, 3)
	for _, it := range items {
		require.NotEqual(t, c, it.Id)
	}
}
