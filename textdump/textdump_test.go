package textdump

import (
	"bytes"
	"strings"
	"testing"

	"github.com/galehouse/romforge/entity"
	"github.com/galehouse/romforge/loading"
	"github.com/galehouse/romforge/misc"
	"github.com/galehouse/romforge/room"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRoom() *room.Room {
	def := make(entity.Definition, entity.DefinitionSize)
	def[0], def[1] = 0x01, 0x02
	inst := make(entity.Instance, entity.InstanceSize)
	inst[0], inst[1] = 0x00, 0x10
	inst[12], inst[13] = 0x08, 0x00

	return &room.Room{
		FileIndex:    7,
		Definitions:  []entity.Definition{def},
		GroupsX:      1,
		GroupsZ:      1,
		GroupsY:      1,
		ThunkAddress: 0x1234,
		Groups: []room.Group{
			{X: -1, Y: -1, Z: -1},
			{X: 0, Z: 0, Y: 0, Instances: []entity.Instance{inst}},
		},
	}
}

func TestWriteParseRoundTrip(t *testing.T) {
	r := sampleRoom()
	fields := misc.RoomFields{Graphics1: 0xAABBCCDD, BGM: 7}
	deps := loading.List{1, 2, 3}

	rt := FromRoom(0x42, r, fields, deps)
	rt.Footer = make([]byte, 28)
	rt.Footer[0] = 0x01

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, rt))

	parsed, err := Parse(&buf)
	require.NoError(t, err)

	assert.Equal(t, 0x42, parsed.WarpIndex)
	assert.Equal(t, uint32(1), parsed.Meta["groups_x"])
	assert.Equal(t, uint32(0x1234), parsed.Meta["thunk_address"])
	assert.Equal(t, []uint32{0xAABBCCDD}, parsed.Misc["graphics1"])
	assert.Equal(t, []uint16{1, 2, 3}, parsed.Load)
	require.Len(t, parsed.Definitions, 1)
	assert.Equal(t, []byte(def(r)), parsed.Definitions[0])
	require.Len(t, parsed.Groups, 2)
	assert.True(t, parsed.Groups[0].X == -1 && parsed.Groups[0].Z == -1 && parsed.Groups[0].Y == -1)
	require.Len(t, parsed.Groups[1].Instances, 1)
	assert.Len(t, parsed.Footer, 28)

	rebuilt, err := parsed.ToRoom(7)
	require.NoError(t, err)
	assert.Equal(t, r.GroupsX, rebuilt.GroupsX)
	assert.Equal(t, r.ThunkAddress, rebuilt.ThunkAddress)
	require.Len(t, rebuilt.Definitions, 1)
	assert.Equal(t, r.Definitions[0], rebuilt.Definitions[0])
}

func def(r *room.Room) entity.Definition {
	return r.Definitions[0]
}

func TestParseIgnoresCommentsAndAnnotations(t *testing.T) {
	src := `ROOM 001:
  # a comment
  !meta groups_x 1
  !meta groups_z 1
  !meta groups_y 1
  # DEFINITIONS
  000: 01 02 00 00 00 00 00 00 00 00 00 00 00 00 00 00
    @ actor_id: 0x0102
  # INSTANCES
  +GROUP FF,FF,FF
  # FOOTER
  00 00
`
	rt, err := Parse(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, 1, rt.WarpIndex)
	require.Len(t, rt.Definitions, 1)
	assert.Len(t, rt.Definitions[0], 16)
	require.Len(t, rt.Groups, 1)
	assert.True(t, rt.Groups[0].IsSynthetic())
}

func TestParseRejectsMissingHeader(t *testing.T) {
	_, err := Parse(strings.NewReader("!meta groups_x 1\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformed)
}
