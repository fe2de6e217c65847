package rollup_test

import (
	"testing"

	"github.com/Aetherall/neograph-sub001/pkg/graph"
	"github.com/Aetherall/neograph-sub001/pkg/rollup"
	"github.com/Aetherall/neograph-sub001/pkg/schema"
	"github.com/Aetherall/neograph-sub001/pkg/value"
	"github.com/stretchr/testify/require"
)

func buildBlogSchema(t *testing.T) *schema.Schema {
	t.Helper()
	b := schema.NewBuilder()
	_, err := b.AddType(schema.TypeDef{
		Name: "User",
		Rollups: []schema.RollupDef{
			{Name: "postCount", Kind: schema.RollupCount, Edge: "posts"},
			{Name: "latestTitle", Kind: schema.RollupTraverse, Edge: "posts", Property: "title"},
			{Name: "topPost", Kind: schema.RollupFirst, Edge: "posts", Field: "score", Direction: schema.Desc, Property: "title"},
		},
		Edges: []schema.EdgeDef{
			{Name: "posts", TargetTypeName: "Post", ReverseName: "author",
				Sort: &schema.EdgeSort{Property: "createdAt", Direction: schema.Desc}},
		},
	})
	require.NoError(t, err)
	_, err = b.AddType(schema.TypeDef{
		Name: "Post",
		Properties: []schema.PropertyDef{
			{Name: "title", Type: schema.PropString},
			{Name: "createdAt", Type: schema.PropInt},
			{Name: "score", Type: schema.PropInt},
		},
		Edges: []schema.EdgeDef{
			{Name: "author", TargetTypeName: "User", ReverseName: "posts"},
		},
	})
	require.NoError(t, err)
	s, err := b.Build()
	require.NoError(t, err)
	return s
}

func wire(t *testing.T, sch *schema.Schema) (*graph.NodeStore, *rollup.Cache) {
	t.Helper()
	store := graph.NewStore(sch)
	cache, err := rollup.NewCache(sch, store)
	require.NoError(t, err)
	store.SetSink(sinkFunc(cache.HandleEvent))
	return store, cache
}

type sinkFunc func(graph.Event)

func (f sinkFunc) Dispatch(e graph.Event) { f(e) }

func TestCountRollupTracksLinkUnlink(t *testing.T) {
	sch := buildBlogSchema(t)
	store, cache := wire(t, sch)

	user, _ := store.Insert("User")
	v, ok := cache.Get(user, "postCount")
	require.True(t, ok)
	n, _ := v.Int()
	require.Zero(t, n)

	p1, _ := store.Insert("Post")
	require.NoError(t, store.Link(user, "posts", p1))

	v, _ = cache.Get(user, "postCount")
	n, _ = v.Int()
	require.Equal(t, int64(1), n)

	require.NoError(t, store.Unlink(user, "posts", p1))
	v, _ = cache.Get(user, "postCount")
	n, _ = v.Int()
	require.Zero(t, n)
}

func TestTraverseRollupFollowsFirstTargetAndItsEdits(t *testing.T) {
	sch := buildBlogSchema(t)
	store, cache := wire(t, sch)

	user, _ := store.Insert("User")
	p1, _ := store.Insert("Post")
	require.NoError(t, store.Update(p1, map[string]value.Value{
		"title": value.String("first"), "createdAt": value.Int(10),
	}))
	require.NoError(t, store.Link(user, "posts", p1))

	v, ok := cache.Get(user, "latestTitle")
	require.True(t, ok)
	s, _ := v.String()
	require.Equal(t, "first", s)

	p2, _ := store.Insert("Post")
	require.NoError(t, store.Update(p2, map[string]value.Value{
		"title": value.String("second"), "createdAt": value.Int(20),
	}))
	require.NoError(t, store.Link(user, "posts", p2))

	v, _ = cache.Get(user, "latestTitle")
	s, _ = v.String()
	require.Equal(t, "second", s) // p2 sorts first (desc by createdAt)

	require.NoError(t, store.Update(p2, map[string]value.Value{"title": value.String("second-edited")}))
	v, _ = cache.Get(user, "latestTitle")
	s, _ = v.String()
	require.Equal(t, "second-edited", s)
}

func TestFirstRollupRecomputesOnFieldChange(t *testing.T) {
	sch := buildBlogSchema(t)
	store, cache := wire(t, sch)

	user, _ := store.Insert("User")
	p1, _ := store.Insert("Post")
	p2, _ := store.Insert("Post")
	require.NoError(t, store.Update(p1, map[string]value.Value{"title": value.String("low"), "score": value.Int(1)}))
	require.NoError(t, store.Update(p2, map[string]value.Value{"title": value.String("high"), "score": value.Int(9)}))
	require.NoError(t, store.Link(user, "posts", p1))
	require.NoError(t, store.Link(user, "posts", p2))

	v, ok := cache.Get(user, "topPost")
	require.True(t, ok)
	s, _ := v.String()
	require.Equal(t, "high", s)

	require.NoError(t, store.Update(p1, map[string]value.Value{"score": value.Int(100)}))
	v, _ = cache.Get(user, "topPost")
	s, _ = v.String()
	require.Equal(t, "low", s)
}
