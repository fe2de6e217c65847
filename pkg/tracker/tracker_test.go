package tracker_test

import (
	"testing"

	"github.com/Aetherall/neograph-sub001/pkg/graph"
	"github.com/Aetherall/neograph-sub001/pkg/tracker"
	"github.com/stretchr/testify/assert"
)

type recorder struct{ kinds []graph.EventKind }

func (r *recorder) HandleEvent(e graph.Event) { r.kinds = append(r.kinds, e.Kind) }

func TestDispatchFansOutInRegistrationOrder(t *testing.T) {
	tr := tracker.New()
	var order []string
	a := &orderRecorder{name: "a", order: &order}
	b := &orderRecorder{name: "b", order: &order}
	tr.Register(a)
	tr.Register(b)

	tr.Dispatch(graph.Event{Kind: graph.EventNodeInsert})
	assert.Equal(t, []string{"a", "b"}, order)
}

type orderRecorder struct {
	name  string
	order *[]string
}

func (o *orderRecorder) HandleEvent(graph.Event) { *o.order = append(*o.order, o.name) }

func TestDispatchReachesAllListeners(t *testing.T) {
	tr := tracker.New()
	r1, r2 := &recorder{}, &recorder{}
	tr.Register(r1)
	tr.Register(r2)

	tr.Dispatch(graph.Event{Kind: graph.EventNodeUpdate})
	assert.Equal(t, []graph.EventKind{graph.EventNodeUpdate}, r1.kinds)
	assert.Equal(t, []graph.EventKind{graph.EventNodeUpdate}, r2.kinds)
}
