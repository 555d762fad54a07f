// Package entity provides the schema-driven view over a room's entity
// records: the 16-byte EntityDefinition and 20-byte EntityInstance layouts,
// field access keyed by actor id, and the small set of schema-derived
// predicates (is_exit, is_door, and friends) that let a caller recognize an
// entity's role without hardcoding its actor id. Mutation policy (what a
// door unlocks into, what a pickup becomes) belongs to the client doing the
// rewriting, not to this package.
package entity

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// FieldSpec describes one named, byte-addressed field within an entity
// record: either a single byte (Start == End) or an inclusive byte range,
// read and written big-endian, with optional enum labels for display.
type FieldSpec struct {
	Name   string
	Start  int
	End    int
	Labels map[int]string
}

// rawFieldSpec mirrors the on-disk YAML shape, where index is either a
// scalar byte offset or a two-element [start, end] range, and any remaining
// mapping keys are enum value -> label pairs.
type rawFieldSpec struct {
	Index interface{}            `yaml:"index"`
	Rest  map[string]interface{} `yaml:",inline"`
}

// ActorSchema is one actor id's ordered field map, loaded from the
// entity_structures configuration.
type ActorSchema struct {
	Name   string
	Fields []FieldSpec
}

// HasField reports whether the schema declares a field with the given name.
func (a ActorSchema) HasField(name string) bool {
	_, ok := a.Field(name)
	return ok
}

// Field looks up a field by name.
func (a ActorSchema) Field(name string) (FieldSpec, bool) {
	for _, f := range a.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// Schema maps an actor id to its field layout. Actor ids absent from the
// schema are valid entities whose fields are opaque to this package.
type Schema map[uint16]ActorSchema

// rawSchema is the top-level YAML document: actor id (as a hex or decimal
// string key, per YAML's usual numeric-key handling) mapped to a field name
// -> field-spec mapping, with a reserved "name" key holding the actor's
// display name. Each actor's mapping is captured as a raw yaml.Node, not a Go
// map, so its field order can be walked as written rather than lost to Go's
// randomized map iteration.
type rawSchema map[uint16]yaml.Node

// Load parses an entity_structures document (see spec's configuration
// surface) into a Schema, preserving each actor's declared field order.
func Load(data []byte) (Schema, error) {
	var raw rawSchema
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("entity: parsing schema: %w", err)
	}

	schema := make(Schema, len(raw))
	for actorID, fieldsNode := range raw {
		if fieldsNode.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("entity: actor %#x: expected a mapping", actorID)
		}

		actorSchema := ActorSchema{}
		for i := 0; i+1 < len(fieldsNode.Content); i += 2 {
			propertyName := fieldsNode.Content[i].Value
			node := fieldsNode.Content[i+1]

			if propertyName == "name" {
				_ = node.Decode(&actorSchema.Name)
				continue
			}

			var spec rawFieldSpec
			if err := node.Decode(&spec); err != nil {
				return nil, fmt.Errorf("entity: actor %#x field %q: %w", actorID, propertyName, err)
			}

			field := FieldSpec{Name: propertyName, Labels: map[int]string{}}
			switch idx := spec.Index.(type) {
			case int:
				field.Start, field.End = idx, idx
			case []interface{}:
				if len(idx) != 2 {
					return nil, fmt.Errorf("entity: actor %#x field %q: index range must have 2 elements", actorID, propertyName)
				}
				start, sok := toInt(idx[0])
				end, eok := toInt(idx[1])
				if !sok || !eok {
					return nil, fmt.Errorf("entity: actor %#x field %q: non-integer index range", actorID, propertyName)
				}
				field.Start, field.End = start, end
			default:
				return nil, fmt.Errorf("entity: actor %#x field %q: unrecognized index shape", actorID, propertyName)
			}
			if field.End < field.Start {
				return nil, fmt.Errorf("entity: actor %#x field %q: end %d precedes start %d", actorID, propertyName, field.End, field.Start)
			}

			for k, v := range spec.Rest {
				if k == "index" {
					continue
				}
				if n, ok := toInt(k); ok {
					if s, ok := v.(string); ok {
						field.Labels[n] = s
					}
				}
			}

			actorSchema.Fields = append(actorSchema.Fields, field)
		}
		schema[actorID] = actorSchema
	}
	return schema, nil
}

func toInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case string:
		var out int
		if _, err := fmt.Sscanf(n, "%d", &out); err == nil {
			return out, true
		}
	}
	return 0, false
}
