package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testYAML = `
0x100:
  name: TestDoor
  actor_id:
    index: [0, 1]
  flag:
    index: 4
    0: unlocked
    1: locked
`

func TestLoadSchema(t *testing.T) {
	schema, err := Load([]byte(testYAML))
	require.NoError(t, err)

	actor, ok := schema[0x100]
	require.True(t, ok)
	assert.Equal(t, "TestDoor", actor.Name)
	assert.True(t, actor.HasField("flag"))

	field, ok := actor.Field("flag")
	require.True(t, ok)
	assert.Equal(t, 4, field.Start)
	assert.Equal(t, 4, field.End)
	assert.Equal(t, "locked", field.Labels[1])
}

func TestLoadSchemaPreservesFieldOrder(t *testing.T) {
	const doc = `
0x200:
  name: Ordered
  zeta:
    index: 0
  alpha:
    index: 1
  middle:
    index: 2
`
	schema, err := Load([]byte(doc))
	require.NoError(t, err)

	actor, ok := schema[0x200]
	require.True(t, ok)
	require.Len(t, actor.Fields, 3)
	assert.Equal(t, []string{"zeta", "alpha", "middle"}, []string{
		actor.Fields[0].Name, actor.Fields[1].Name, actor.Fields[2].Name,
	})
}

func TestDefinitionActorIDAndField(t *testing.T) {
	schema, err := Load([]byte(testYAML))
	require.NoError(t, err)

	d := make(Definition, DefinitionSize)
	d[0], d[1] = 0x01, 0x00
	d[4] = 1

	assert.Equal(t, uint16(0x100), d.ActorID())
	v, err := d.Field(schema, "flag")
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	require.NoError(t, d.SetField(schema, "flag", 0))
	v, err = d.Field(schema, "flag")
	require.NoError(t, err)
	assert.Equal(t, 0, v)
}

func TestFieldUnknownActor(t *testing.T) {
	schema, err := Load([]byte(testYAML))
	require.NoError(t, err)

	d := make(Definition, DefinitionSize)
	d[0], d[1] = 0xFF, 0xFF
	_, err = d.Field(schema, "flag")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoField)
}

func TestIsPredicate(t *testing.T) {
	schema, err := Load([]byte(testYAML))
	require.NoError(t, err)

	assert.True(t, Is(schema, 0x100, "flag"))
	assert.False(t, Is(schema, 0x100, "is_exit"))
	assert.False(t, Is(schema, 0x999, "flag"))
}

func TestDefinitionIsNull(t *testing.T) {
	d := make(Definition, DefinitionSize)
	assert.True(t, d.IsNull())
	d[5] = 1
	assert.False(t, d.IsNull())
}

func TestInstanceDefinitionIndex(t *testing.T) {
	inst := make(Instance, InstanceSize)

	inst[14] = 0x30
	idx, ok := inst.DefinitionIndex()
	assert.True(t, ok)
	assert.Equal(t, 3, idx)

	inst[14] = 0x31
	_, ok = inst.DefinitionIndex()
	assert.False(t, ok)
}

func TestFlagPoolAcquireAndExhaust(t *testing.T) {
	pool := NewFlagPool(0, 1)
	a, err := pool.Acquire()
	require.NoError(t, err)
	b, err := pool.Acquire()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	_, err = pool.Acquire()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoFlags)

	pool.Free(a)
	c, err := pool.Acquire()
	require.NoError(t, err)
	assert.Equal(t, a, c)
}

func TestFlagPoolHold(t *testing.T) {
	pool := NewFlagPool(0, 3)
	require.NoError(t, pool.Hold(2))
	err := pool.Hold(2)
	require.Error(t, err)

	err = pool.Hold(10)
	require.Error(t, err)
}
