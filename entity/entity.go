package entity

import (
	"errors"
	"fmt"

	"github.com/galehouse/romforge/encoding"
)

// DefinitionSize and InstanceSize are the fixed record lengths for the two
// entity record kinds a room's definitions and instances segments hold.
const (
	DefinitionSize = 16
	InstanceSize   = 20
)

// ErrNoField is returned when a caller asks for a field the entity's actor
// schema doesn't declare.
var ErrNoField = errors.New("entity: field not declared for this actor")

// Definition is one 16-byte EntityDefinition record: the entity kind, shared
// across every instance that spawns it.
type Definition []byte

// Instance is one 20-byte EntityInstance record: a single spawn of a
// Definition, carrying position and spawn-specific fields.
type Instance []byte

// ActorID returns the big-endian actor id in the first two bytes, the key
// into Schema.
func (d Definition) ActorID() uint16 {
	return encoding.Read16(d, 0)
}

// IsNull reports whether every byte of the record is zero.
func (d Definition) IsNull() bool {
	for _, b := range d {
		if b != 0 {
			return false
		}
	}
	return true
}

// Field reads the named field's value under the given schema, as a
// zero-extended unsigned integer.
func (d Definition) Field(schema Schema, name string) (int, error) {
	return readField([]byte(d), schema, d.ActorID(), name)
}

// SetField writes value into the named field under the given schema.
func (d Definition) SetField(schema Schema, name string, value int) error {
	return writeField([]byte(d), schema, d.ActorID(), name, value)
}

// ActorID returns the instance's actor id. Instances store it in the same
// first-two-byte position as their definition.
func (i Instance) ActorID() uint16 {
	return encoding.Read16(i, 0)
}

func (i Instance) IsNull() bool {
	for _, b := range i {
		if b != 0 {
			return false
		}
	}
	return true
}

func (i Instance) Field(schema Schema, name string) (int, error) {
	return readField([]byte(i), schema, i.ActorID(), name)
}

func (i Instance) SetField(schema Schema, name string, value int) error {
	return writeField([]byte(i), schema, i.ActorID(), name, value)
}

// DefinitionIndex resolves the index into the enclosing definitions array
// that this instance spawns. It is bits 7..4 of byte 14, valid only when
// bits 3..0 of byte 14 are zero; otherwise ok is false and the instance
// carries no definition reference.
func (i Instance) DefinitionIndex() (index int, ok bool) {
	b := i[14]
	if b&0x0F != 0 {
		return 0, false
	}
	return int(b >> 4), true
}

func lookupField(schema Schema, actorID uint16, name string) (FieldSpec, error) {
	actorSchema, ok := schema[actorID]
	if !ok {
		return FieldSpec{}, fmt.Errorf("%w: actor %#x has no schema entry", ErrNoField, actorID)
	}
	field, ok := actorSchema.Field(name)
	if !ok {
		return FieldSpec{}, fmt.Errorf("%w: actor %#x (%s) has no field %q", ErrNoField, actorID, actorSchema.Name, name)
	}
	return field, nil
}

func readField(data []byte, schema Schema, actorID uint16, name string) (int, error) {
	field, err := lookupField(schema, actorID, name)
	if err != nil {
		return 0, err
	}
	if field.End >= len(data) {
		return 0, fmt.Errorf("entity: field %q range [%d,%d] exceeds record length %d", name, field.Start, field.End, len(data))
	}
	value := 0
	for _, b := range data[field.Start : field.End+1] {
		value = value<<8 | int(b)
	}
	return value, nil
}

func writeField(data []byte, schema Schema, actorID uint16, name string, value int) error {
	field, err := lookupField(schema, actorID, name)
	if err != nil {
		return err
	}
	if field.End >= len(data) {
		return fmt.Errorf("entity: field %q range [%d,%d] exceeds record length %d", name, field.Start, field.End, len(data))
	}
	for i := field.End; i >= field.Start; i-- {
		data[i] = byte(value)
		value >>= 8
	}
	return nil
}

// Label returns the enum label configured for a field's current value, if
// any, otherwise ok is false.
func Label(schema Schema, actorID uint16, fieldName string, value int) (string, bool) {
	actorSchema, ok := schema[actorID]
	if !ok {
		return "", false
	}
	field, ok := actorSchema.Field(fieldName)
	if !ok {
		return "", false
	}
	label, ok := field.Labels[value]
	return label, ok
}

// Is reports whether an actor's schema declares fieldName at all, the
// schema-based polymorphism predicate used for roles like is_exit, is_door,
// is_lock, is_key, is_pickup.
func Is(schema Schema, actorID uint16, fieldName string) bool {
	actorSchema, ok := schema[actorID]
	if !ok {
		return false
	}
	return actorSchema.HasField(fieldName)
}
