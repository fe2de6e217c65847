package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/Aetherall/neograph-sub001/pkg/query"
	"github.com/Aetherall/neograph-sub001/pkg/value"
)

// queryFile is the JSON shape cmd/graphdb accepts for a view definition.
// Like schemaFile, it mirrors query.Query field for field, except that
// it has no RootId (a loaded query always scans the root index), and it
// exists only in the CLI: pkg/query never parses JSON itself.
type queryFile struct {
	RootType string        `json:"rootType"`
	Virtual  bool          `json:"virtual,omitempty"`
	Filters  []filterFile  `json:"filters,omitempty"`
	Sorts    []sortFile    `json:"sorts,omitempty"`
	Edges    []edgeSelFile `json:"edges,omitempty"`
}

type filterFile struct {
	Path   []string          `json:"path"`
	Op     string            `json:"op"`
	Value  json.RawMessage   `json:"value,omitempty"`
	Values []json.RawMessage `json:"values,omitempty"`
}

type sortFile struct {
	Field     string `json:"field"`
	Direction string `json:"direction"`
}

type edgeSelFile struct {
	Name      string        `json:"name"`
	Recursive bool          `json:"recursive,omitempty"`
	Virtual   bool          `json:"virtual,omitempty"`
	Filters   []filterFile  `json:"filters,omitempty"`
	Sorts     []sortFile    `json:"sorts,omitempty"`
	Edges     []edgeSelFile `json:"edges,omitempty"`
}

func loadQuery(path string) (*query.Query, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading query file: %w", err)
	}
	var qf queryFile
	if err := json.Unmarshal(data, &qf); err != nil {
		return nil, fmt.Errorf("parsing query file: %w", err)
	}

	q := &query.Query{RootType: qf.RootType, Virtual: qf.Virtual}
	for _, ff := range qf.Filters {
		f, err := toFilter(ff)
		if err != nil {
			return nil, err
		}
		q.Filters = append(q.Filters, f)
	}
	for _, sf := range qf.Sorts {
		s, err := toSort(sf)
		if err != nil {
			return nil, err
		}
		q.Sorts = append(q.Sorts, s)
	}
	for _, ef := range qf.Edges {
		sel, err := toEdgeSelection(ef)
		if err != nil {
			return nil, err
		}
		q.Edges = append(q.Edges, sel)
	}
	return q, nil
}

func toEdgeSelection(ef edgeSelFile) (query.EdgeSelection, error) {
	sel := query.EdgeSelection{Name: ef.Name, Recursive: ef.Recursive, Virtual: ef.Virtual}
	for _, ff := range ef.Filters {
		f, err := toFilter(ff)
		if err != nil {
			return sel, err
		}
		sel.Filters = append(sel.Filters, f)
	}
	for _, sf := range ef.Sorts {
		s, err := toSort(sf)
		if err != nil {
			return sel, err
		}
		sel.Sorts = append(sel.Sorts, s)
	}
	for _, child := range ef.Edges {
		cs, err := toEdgeSelection(child)
		if err != nil {
			return sel, err
		}
		sel.Edges = append(sel.Edges, cs)
	}
	return sel, nil
}

func toSort(sf sortFile) (query.Sort, error) {
	dir, err := parseDirection(sf.Direction)
	if err != nil {
		return query.Sort{}, err
	}
	return query.Sort{Field: sf.Field, Direction: dir}, nil
}

func toFilter(ff filterFile) (query.Filter, error) {
	op, err := parseOp(ff.Op)
	if err != nil {
		return query.Filter{}, err
	}
	f := query.Filter{Path: ff.Path, Op: op}
	if len(ff.Value) > 0 {
		v, err := decodeValue(ff.Value)
		if err != nil {
			return query.Filter{}, err
		}
		f.Value = v
	}
	for _, raw := range ff.Values {
		v, err := decodeValue(raw)
		if err != nil {
			return query.Filter{}, err
		}
		f.Values = append(f.Values, v)
	}
	return f, nil
}

func decodeValue(raw json.RawMessage) (value.Value, error) {
	var a any
	if err := json.Unmarshal(raw, &a); err != nil {
		return value.Value{}, fmt.Errorf("decoding value: %w", err)
	}
	v, ok := value.FromAny(a)
	if !ok {
		return value.Value{}, fmt.Errorf("unsupported value %v", a)
	}
	return v, nil
}

func parseOp(s string) (query.Op, error) {
	switch s {
	case "eq":
		return query.Eq, nil
	case "neq":
		return query.Neq, nil
	case "gt":
		return query.Gt, nil
	case "gte":
		return query.Gte, nil
	case "lt":
		return query.Lt, nil
	case "lte":
		return query.Lte, nil
	case "in":
		return query.In, nil
	default:
		return 0, fmt.Errorf("unknown filter op %q", s)
	}
}
