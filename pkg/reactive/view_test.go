package reactive_test

import (
	"fmt"
	"testing"

	"github.com/Aetherall/neograph-sub001/pkg/engine"
	"github.com/Aetherall/neograph-sub001/pkg/query"
	"github.com/Aetherall/neograph-sub001/pkg/schema"
	"github.com/Aetherall/neograph-sub001/pkg/value"
	"github.com/stretchr/testify/require"
)

func newNumberedUsersEngine(t *testing.T, n int) (*engine.Engine, []string) {
	t.Helper()
	b := schema.NewBuilder()
	_, err := b.AddType(schema.TypeDef{
		Name:       "User",
		Properties: []schema.PropertyDef{{Name: "name", Type: schema.PropString}},
		Indexes: []schema.IndexDef{
			{Fields: []schema.IndexField{{Name: "name", Kind: schema.IndexFieldProperty, Direction: schema.Asc}}},
		},
	})
	require.NoError(t, err)
	sch, err := b.Build()
	require.NoError(t, err)

	e, err := engine.New(sch, engine.DefaultOptions())
	require.NoError(t, err)

	names := make([]string, n)
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("user-%02d", i)
		names[i] = name
		id, err := e.Insert("User")
		require.NoError(t, err)
		require.NoError(t, e.Update(id, map[string]value.Value{"name": value.String(name)}))
	}
	return e, names
}

func TestViewWindowRespectsLimitAndOffset(t *testing.T) {
	e, names := newNumberedUsersEngine(t, 10)

	v, err := e.View(&query.Query{RootType: "User", Sorts: []query.Sort{{Field: "name", Direction: schema.Asc}}}, 3)
	require.NoError(t, err)
	require.NoError(t, v.Activate(false))

	require.Equal(t, 10, v.Total())
	require.Equal(t, 0, v.GetOffset())

	items := v.Items()
	require.Len(t, items, 3)
	for i, it := range items {
		s, _ := it.Fields["name"].String()
		require.Equal(t, names[i], s)
	}
}

func TestViewScrollToClampsToValidRange(t *testing.T) {
	e, names := newNumberedUsersEngine(t, 10)

	v, err := e.View(&query.Query{RootType: "User", Sorts: []query.Sort{{Field: "name", Direction: schema.Asc}}}, 4)
	require.NoError(t, err)
	require.NoError(t, v.Activate(false))

	v.ScrollTo(-5)
	require.Equal(t, 0, v.GetOffset())

	v.ScrollTo(1000)
	require.Equal(t, 6, v.GetOffset()) // total(10) - limit(4)
	items := v.Items()
	require.Len(t, items, 4)
	got := make([]string, len(items))
	for i, it := range items {
		s, _ := it.Fields["name"].String()
		got[i] = s
	}
	require.Equal(t, names[6:10], got)
}

func TestViewMoveScrollsRelativeToCurrentOffset(t *testing.T) {
	e, names := newNumberedUsersEngine(t, 10)

	v, err := e.View(&query.Query{RootType: "User", Sorts: []query.Sort{{Field: "name", Direction: schema.Asc}}}, 3)
	require.NoError(t, err)
	require.NoError(t, v.Activate(false))

	v.Move(2)
	require.Equal(t, 2, v.GetOffset())
	v.Move(-5)
	require.Equal(t, 0, v.GetOffset())

	items := v.Items()
	got := make([]string, len(items))
	for i, it := range items {
		s, _ := it.Fields["name"].String()
		got[i] = s
	}
	require.Equal(t, names[0:3], got)
}

func TestViewReconcileOnInsertGrowsTotalAndExtendsWindow(t *testing.T) {
	e, _ := newNumberedUsersEngine(t, 3)

	v, err := e.View(&query.Query{RootType: "User", Sorts: []query.Sort{{Field: "name", Direction: schema.Asc}}}, 10)
	require.NoError(t, err)
	require.NoError(t, v.Activate(false))
	require.Equal(t, 3, v.Total())

	id, err := e.Insert("User")
	require.NoError(t, err)
	require.NoError(t, e.Update(id, map[string]value.Value{"name": value.String("user-99")}))

	require.Equal(t, 4, v.Total())
	items := v.Items()
	require.Len(t, items, 4)
	s, _ := items[3].Fields["name"].String()
	require.Equal(t, "user-99", s)
}

func TestViewDeinitStopsFurtherUpdates(t *testing.T) {
	e, _ := newNumberedUsersEngine(t, 2)

	v, err := e.View(&query.Query{RootType: "User", Sorts: []query.Sort{{Field: "name", Direction: schema.Asc}}}, 10)
	require.NoError(t, err)
	require.NoError(t, v.Activate(false))
	require.Equal(t, 2, v.Total())

	v.Deinit()

	id, err := e.Insert("User")
	require.NoError(t, err)
	require.NoError(t, e.Update(id, map[string]value.Value{"name": value.String("user-99")}))

	require.Equal(t, 2, v.Total()) // no longer subscribed, stays stale
}
