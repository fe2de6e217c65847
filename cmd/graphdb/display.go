package main

import (
	"github.com/Aetherall/neograph-sub001/pkg/executor"
	"github.com/Aetherall/neograph-sub001/pkg/value"
)

// toDisplay renders an Item tree as plain Go values (map/slice/scalar) fit
// for encoding/json. value.Value has no exported fields and intentionally
// no MarshalJSON (pkg/query's JSON form is an excluded collaborator), so
// this is the CLI's own, narrow bridge back out to JSON for demo output.
func toDisplay(it *executor.Item) map[string]any {
	fields := make(map[string]any, len(it.Fields))
	for k, v := range it.Fields {
		fields[k] = valueToAny(v)
	}

	edges := make(map[string]any, len(it.Edges))
	for name, er := range it.Edges {
		if er.Kind == executor.EdgeResultCycle {
			edges[name] = "<cycle>"
			continue
		}
		children := make([]any, 0, len(er.Items))
		for _, ci := range er.Items {
			children = append(children, toDisplay(ci))
		}
		edges[name] = children
	}

	return map[string]any{
		"id":     uint64(it.Id),
		"fields": fields,
		"edges":  edges,
	}
}

func valueToAny(v value.Value) any {
	switch v.Kind() {
	case value.KindBool:
		b, _ := v.Bool()
		return b
	case value.KindInt:
		i, _ := v.Int()
		return i
	case value.KindNumber:
		n, _ := v.Number()
		return n
	case value.KindString:
		s, _ := v.String()
		return s
	default:
		return nil
	}
}
