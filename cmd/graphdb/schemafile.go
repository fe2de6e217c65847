package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/Aetherall/neograph-sub001/pkg/schema"
)

// schemaFile is the JSON shape cmd/graphdb accepts for a schema document.
// It mirrors schema.TypeDef one-to-one; the library itself never parses
// JSON (pkg/schema's doc comment calls that an excluded collaborator), so
// this translation lives only here, in the CLI.
type schemaFile struct {
	Types []typeFile `json:"types"`
}

type typeFile struct {
	Name       string       `json:"name"`
	Properties []propFile   `json:"properties,omitempty"`
	Edges      []edgeFile   `json:"edges,omitempty"`
	Rollups    []rollupFile `json:"rollups,omitempty"`
	Indexes    []indexFile  `json:"indexes,omitempty"`
}

type propFile struct {
	Name string `json:"name"`
	Type string `json:"type"` // string|int|number|bool
}

type edgeSortFile struct {
	Property  string `json:"property"`
	Direction string `json:"direction"` // asc|desc
}

type edgeFile struct {
	Name    string        `json:"name"`
	Target  string        `json:"target"`
	Reverse string        `json:"reverse"`
	Sort    *edgeSortFile `json:"sort,omitempty"`
}

type rollupFile struct {
	Name      string `json:"name"`
	Kind      string `json:"kind"` // count|traverse|first|last
	Edge      string `json:"edge"`
	Property  string `json:"property,omitempty"`
	Field     string `json:"field,omitempty"`
	Direction string `json:"direction,omitempty"`
}

type indexFieldFile struct {
	Name      string `json:"name"`
	Kind      string `json:"kind"` // property|edge
	Direction string `json:"direction,omitempty"`
}

type indexFile struct {
	Fields []indexFieldFile `json:"fields"`
}

func loadSchema(path string) (*schema.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema file: %w", err)
	}
	var sf schemaFile
	if err := json.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parsing schema file: %w", err)
	}

	b := schema.NewBuilder()
	for _, tf := range sf.Types {
		td, err := toTypeDef(tf)
		if err != nil {
			return nil, err
		}
		if _, err := b.AddType(td); err != nil {
			return nil, err
		}
	}
	return b.Build()
}

func toTypeDef(tf typeFile) (schema.TypeDef, error) {
	td := schema.TypeDef{Name: tf.Name}

	for _, pf := range tf.Properties {
		pt, err := parsePropertyType(pf.Type)
		if err != nil {
			return td, fmt.Errorf("type %q: property %q: %w", tf.Name, pf.Name, err)
		}
		td.Properties = append(td.Properties, schema.PropertyDef{Name: pf.Name, Type: pt})
	}

	for _, ef := range tf.Edges {
		ed := schema.EdgeDef{Name: ef.Name, TargetTypeName: ef.Target, ReverseName: ef.Reverse}
		if ef.Sort != nil {
			dir, err := parseDirection(ef.Sort.Direction)
			if err != nil {
				return td, fmt.Errorf("type %q: edge %q: %w", tf.Name, ef.Name, err)
			}
			ed.Sort = &schema.EdgeSort{Property: ef.Sort.Property, Direction: dir}
		}
		td.Edges = append(td.Edges, ed)
	}

	for _, rf := range tf.Rollups {
		kind, err := parseRollupKind(rf.Kind)
		if err != nil {
			return td, fmt.Errorf("type %q: rollup %q: %w", tf.Name, rf.Name, err)
		}
		rd := schema.RollupDef{Name: rf.Name, Kind: kind, Edge: rf.Edge, Property: rf.Property, Field: rf.Field}
		if rf.Direction != "" {
			dir, err := parseDirection(rf.Direction)
			if err != nil {
				return td, fmt.Errorf("type %q: rollup %q: %w", tf.Name, rf.Name, err)
			}
			rd.Direction = dir
		}
		td.Rollups = append(td.Rollups, rd)
	}

	for _, idxf := range tf.Indexes {
		var idx schema.IndexDef
		for _, ff := range idxf.Fields {
			kind, err := parseIndexFieldKind(ff.Kind)
			if err != nil {
				return td, fmt.Errorf("type %q: index field %q: %w", tf.Name, ff.Name, err)
			}
			dir, err := parseDirection(ff.Direction)
			if err != nil {
				return td, fmt.Errorf("type %q: index field %q: %w", tf.Name, ff.Name, err)
			}
			idx.Fields = append(idx.Fields, schema.IndexField{Name: ff.Name, Kind: kind, Direction: dir})
		}
		td.Indexes = append(td.Indexes, idx)
	}

	return td, nil
}

func parsePropertyType(s string) (schema.PropertyType, error) {
	switch s {
	case "string":
		return schema.PropString, nil
	case "int":
		return schema.PropInt, nil
	case "number":
		return schema.PropNumber, nil
	case "bool":
		return schema.PropBool, nil
	default:
		return 0, fmt.Errorf("unknown property type %q", s)
	}
}

func parseDirection(s string) (schema.Direction, error) {
	switch s {
	case "", "asc":
		return schema.Asc, nil
	case "desc":
		return schema.Desc, nil
	default:
		return 0, fmt.Errorf("unknown direction %q", s)
	}
}

func parseRollupKind(s string) (schema.RollupKind, error) {
	switch s {
	case "count":
		return schema.RollupCount, nil
	case "traverse":
		return schema.RollupTraverse, nil
	case "first":
		return schema.RollupFirst, nil
	case "last":
		return schema.RollupLast, nil
	default:
		return 0, fmt.Errorf("unknown rollup kind %q", s)
	}
}

func parseIndexFieldKind(s string) (schema.IndexFieldKind, error) {
	switch s {
	case "property":
		return schema.IndexFieldProperty, nil
	case "edge":
		return schema.IndexFieldEdge, nil
	default:
		return 0, fmt.Errorf("unknown index field kind %q", s)
	}
}
