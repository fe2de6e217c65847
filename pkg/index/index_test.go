package index_test

import (
	"testing"

	"github.com/Aetherall/neograph-sub001/pkg/graph"
	"github.com/Aetherall/neograph-sub001/pkg/index"
	"github.com/Aetherall/neograph-sub001/pkg/query"
	"github.com/Aetherall/neograph-sub001/pkg/schema"
	"github.com/Aetherall/neograph-sub001/pkg/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildPostSchema(t *testing.T) *schema.Schema {
	t.Helper()
	b := schema.NewBuilder()
	_, err := b.AddType(schema.TypeDef{
		Name: "User",
		Properties: []schema.PropertyDef{
			{Name: "handle", Type: schema.PropString},
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
			{Name: "createdAt", Type: schema.PropInt},
			{Name: "status", Type: schema.PropString},
		},
		Edges: []schema.EdgeDef{
			{Name: "author", TargetTypeName: "User", ReverseName: "posts"},
		},
		Indexes: []schema.IndexDef{
			{Fields: []schema.IndexField{
				{Name: "status", Kind: schema.IndexFieldProperty, Direction: schema.Asc},
				{Name: "createdAt", Kind: schema.IndexFieldProperty, Direction: schema.Desc},
			}},
			{Fields: []schema.IndexField{
				{Name: "author", Kind: schema.IndexFieldEdge, Direction: schema.Asc},
				{Name: "createdAt", Kind: schema.IndexFieldProperty, Direction: schema.Desc},
			}},
		},
	})
	require.NoError(t, err)
	s, err := b.Build()
	require.NoError(t, err)
	return s
}

func TestScanOrdersByEqualityPrefixThenSort(t *testing.T) {
	sch := buildPostSchema(t)
	store := graph.NewStore(sch)
	mgr := index.NewManager(sch, store, nil)

	type post struct {
		id     graph.NodeId
		status string
		at     int64
	}
	var posts []post
	for _, p := range []struct {
		status string
		at     int64
	}{
		{"live", 10}, {"live", 30}, {"live", 20}, {"draft", 5},
	} {
		id, err := store.Insert("Post")
		require.NoError(t, err)
		require.NoError(t, store.Update(id, map[string]value.Value{
			"status":    value.String(p.status),
			"createdAt": value.Int(p.at),
		}))
		mgr.Reindex(id)
		posts = append(posts, post{id, p.status, p.at})
	}

	postType, _ := sch.TypeByName("Post")
	cov, ok := mgr.SelectIndex(postType.Id, []query.Filter{
		{Path: []string{"status"}, Op: query.Eq, Value: value.String("live")},
	}, []query.Sort{{Field: "createdAt", Direction: schema.Desc}})
	require.True(t, ok)

	ids := mgr.Scan(cov, nil)
	require.Len(t, ids, 3)
	assert.Equal(t, []graph.NodeId{posts[1].id, posts[2].id, posts[0].id}, ids) // 30, 20, 10
}

func TestScanWithEdgePrefixRestrictsBySource(t *testing.T) {
	sch := buildPostSchema(t)
	store := graph.NewStore(sch)
	mgr := index.NewManager(sch, store, nil)

	u1, _ := store.Insert("User")
	u2, _ := store.Insert("User")

	mk := func(owner graph.NodeId, at int64) graph.NodeId {
		id, _ := store.Insert("Post")
		require.NoError(t, store.Update(id, map[string]value.Value{"createdAt": value.Int(at)}))
		require.NoError(t, store.Link(owner, "posts", id))
		mgr.Reindex(id)
		return id
	}
	p1 := mk(u1, 1)
	p2 := mk(u1, 2)
	_ = mk(u2, 3)

	postType, _ := sch.TypeByName("Post")
	cov, ok := mgr.SelectNestedIndex(postType.Id, "author", nil,
		[]query.Sort{{Field: "createdAt", Direction: schema.Desc}})
	require.True(t, ok)

	ids := mgr.ScanWithEdgePrefix(cov, u1, nil)
	assert.Equal(t, []graph.NodeId{p2, p1}, ids)
}
