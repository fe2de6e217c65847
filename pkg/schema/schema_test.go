package schema_test

import (
	"testing"

	"github.com/Aetherall/neograph-sub001/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildUserPostSchema mirrors spec.md scenario S2: User<->Post with a
// bidirectional posts/author edge pair.
func buildUserPostSchema(t *testing.T) *schema.Schema {
	t.Helper()
	b := schema.NewBuilder()

	_, err := b.AddType(schema.TypeDef{
		Name: "User",
		Properties: []schema.PropertyDef{
			{Name: "name", Type: schema.PropString},
			{Name: "age", Type: schema.PropInt},
		},
		Edges: []schema.EdgeDef{
			{Name: "posts", TargetTypeName: "Post", ReverseName: "author"},
		},
		Indexes: []schema.IndexDef{
			{Fields: []schema.IndexField{{Name: "name", Direction: schema.Asc, Kind: schema.IndexFieldProperty}}},
			{Fields: []schema.IndexField{{Name: "age", Direction: schema.Desc, Kind: schema.IndexFieldProperty}}},
		},
	})
	require.NoError(t, err)

	_, err = b.AddType(schema.TypeDef{
		Name: "Post",
		Properties: []schema.PropertyDef{
			{Name: "title", Type: schema.PropString},
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

func TestBuildResolvesReverseEdges(t *testing.T) {
	s := buildUserPostSchema(t)

	user, ok := s.TypeByName("User")
	require.True(t, ok)
	post, ok := s.TypeByName("Post")
	require.True(t, ok)

	posts, ok := user.EdgeByName("posts")
	require.True(t, ok)
	assert.Equal(t, post.Id, posts.TargetTypeId)

	author, ok := post.EdgeByName("author")
	require.True(t, ok)
	assert.Equal(t, posts.Id, author.ReverseEdgeId)
	assert.Equal(t, author.Id, posts.ReverseEdgeId)
}

func TestMissingReverseEdgeRejected(t *testing.T) {
	b := schema.NewBuilder()
	_, err := b.AddType(schema.TypeDef{
		Name: "User",
		Edges: []schema.EdgeDef{
			{Name: "posts", TargetTypeName: "Post", ReverseName: "author"},
		},
	})
	require.NoError(t, err)
	_, err = b.AddType(schema.TypeDef{Name: "Post"})
	require.NoError(t, err)

	_, err = b.Build()
	assert.Error(t, err)
}

func TestDuplicatePropertyNameRejected(t *testing.T) {
	b := schema.NewBuilder()
	_, err := b.AddType(schema.TypeDef{
		Name: "User",
		Properties: []schema.PropertyDef{
			{Name: "name", Type: schema.PropString},
			{Name: "name", Type: schema.PropInt},
		},
	})
	assert.Error(t, err)
}

func TestEdgeSortRequiresOrderableTargetProperty(t *testing.T) {
	b := schema.NewBuilder()
	_, err := b.AddType(schema.TypeDef{
		Name: "User",
		Edges: []schema.EdgeDef{
			{Name: "posts", TargetTypeName: "Post", ReverseName: "author",
				Sort: &schema.EdgeSort{Property: "missing", Direction: schema.Asc}},
		},
	})
	require.NoError(t, err)
	_, err = b.AddType(schema.TypeDef{
		Name: "Post",
		Edges: []schema.EdgeDef{
			{Name: "author", TargetTypeName: "User", ReverseName: "posts"},
		},
	})
	require.NoError(t, err)

	_, err = b.Build()
	assert.Error(t, err)
}

func TestRollupReferencesUnknownEdgeRejected(t *testing.T) {
	b := schema.NewBuilder()
	_, err := b.AddType(schema.TypeDef{
		Name: "User",
		Rollups: []schema.RollupDef{
			{Name: "postCount", Kind: schema.RollupCount, Edge: "nope"},
		},
	})
	require.NoError(t, err)
	_, err = b.Build()
	assert.Error(t, err)
}

func TestStringInternerDedups(t *testing.T) {
	si := schema.NewStringInterner()
	a := si.Intern("hello")
	b := si.Intern("hello")
	assert.Equal(t, 1, si.Len())
	assert.Equal(t, a, b)
}
